package dataframe

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueType represents the type of a Value.
type ValueType int

const (
	TypeNull ValueType = iota
	TypeInt
	TypeFloat
	TypeString
	TypeBool
	TypeDatetime
	TypeList
	TypeStruct
)

// Field is one named member of a struct value. Field order is
// significant and preserved.
type Field struct {
	Name  string
	Value Value
}

// Value is a dynamically-typed cell in a frame.
type Value struct {
	Type   ValueType
	Int    int64
	Float  float64
	Str    string
	Bool   bool
	Time   time.Time
	List   []Value
	Fields []Field
}

// Null returns a null value.
func Null() Value {
	return Value{Type: TypeNull}
}

// IntVal creates an integer value.
func IntVal(v int64) Value {
	return Value{Type: TypeInt, Int: v}
}

// FloatVal creates a float value.
func FloatVal(v float64) Value {
	return Value{Type: TypeFloat, Float: v}
}

// StrVal creates a string value.
func StrVal(v string) Value {
	return Value{Type: TypeString, Str: v}
}

// BoolVal creates a boolean value.
func BoolVal(v bool) Value {
	return Value{Type: TypeBool, Bool: v}
}

// TimeVal creates a datetime value.
func TimeVal(v time.Time) Value {
	return Value{Type: TypeDatetime, Time: v}
}

// ListVal creates a list value.
func ListVal(vs []Value) Value {
	return Value{Type: TypeList, List: vs}
}

// StructVal creates a struct value from ordered fields.
func StructVal(fields []Field) Value {
	return Value{Type: TypeStruct, Fields: fields}
}

// IsNull returns true if the value is null.
func (v Value) IsNull() bool {
	return v.Type == TypeNull
}

// AsFloat attempts to coerce to float64 for arithmetic.
func (v Value) AsFloat() (float64, bool) {
	switch v.Type {
	case TypeInt:
		return float64(v.Int), true
	case TypeFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

// AsBool coerces to boolean for logical operations.
func (v Value) AsBool() (bool, bool) {
	switch v.Type {
	case TypeBool:
		return v.Bool, true
	case TypeNull:
		return false, true
	default:
		return false, false
	}
}

// AsString returns the string representation.
func (v Value) AsString() string {
	switch v.Type {
	case TypeNull:
		return "null"
	case TypeInt:
		return strconv.FormatInt(v.Int, 10)
	case TypeFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case TypeString:
		return v.Str
	case TypeBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case TypeDatetime:
		return v.Time.Format(time.RFC3339)
	case TypeList:
		parts := make([]string, len(v.List))
		for i, item := range v.List {
			parts[i] = item.AsString()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeStruct:
		parts := make([]string, len(v.Fields))
		for i, f := range v.Fields {
			parts[i] = f.Name + ":" + f.Value.AsString()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "?"
	}
}

// Key returns a representation usable as a hash key for joins,
// grouping, and deduplication. Unlike AsString it is prefixed with the
// value type so that e.g. the string "1" and the integer 1 never
// collide.
func (v Value) Key() string {
	return fmt.Sprintf("%d\x01%s", v.Type, v.AsString())
}

// Compare orders two values: numerics numerically, everything else by
// string representation. Nulls sort last.
func Compare(a, b Value) int {
	if a.IsNull() && b.IsNull() {
		return 0
	}
	if a.IsNull() {
		return 1
	}
	if b.IsNull() {
		return -1
	}

	af, aok := a.AsFloat()
	bf, bok := b.AsFloat()
	if aok && bok {
		if af < bf {
			return -1
		}
		if af > bf {
			return 1
		}
		return 0
	}

	if a.Type == TypeDatetime && b.Type == TypeDatetime {
		if a.Time.Before(b.Time) {
			return -1
		}
		if a.Time.After(b.Time) {
			return 1
		}
		return 0
	}

	return strings.Compare(a.AsString(), b.AsString())
}

// Equal reports whether two values are equal, comparing ints and
// floats numerically.
func Equal(a, b Value) bool {
	if a.IsNull() || b.IsNull() {
		return a.IsNull() && b.IsNull()
	}
	if af, aok := a.AsFloat(); aok {
		bf, bok := b.AsFloat()
		return bok && af == bf
	}
	return a.Key() == b.Key()
}
