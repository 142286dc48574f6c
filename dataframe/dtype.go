package dataframe

import (
	"fmt"
	"strconv"
	"time"
)

// DType is a cast/schema target datatype.
type DType int

const (
	DTypeInt64 DType = iota
	DTypeFloat64
	DTypeString
	DTypeBoolean
	DTypeDatetime
)

var dtypeNames = map[DType]string{
	DTypeInt64:    "Int64",
	DTypeFloat64:  "Float64",
	DTypeString:   "String",
	DTypeBoolean:  "Boolean",
	DTypeDatetime: "Datetime",
}

func (d DType) String() string {
	if name, ok := dtypeNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DType(%d)", int(d))
}

// ParseDType resolves a datatype name used in configuration documents.
func ParseDType(s string) (DType, error) {
	for d, name := range dtypeNames {
		if s == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown datatype %q", s)
}

// SchemaField maps one column to its datatype.
type SchemaField struct {
	Name string
	Type DType
}

// Schema is an ordered column-to-datatype mapping.
type Schema []SchemaField

// Lookup returns the datatype declared for a column.
func (s Schema) Lookup(name string) (DType, bool) {
	for _, f := range s {
		if f.Name == name {
			return f.Type, true
		}
	}
	return 0, false
}

// Cast converts a value to the target datatype. Nulls cast to null.
func (v Value) Cast(d DType) (Value, error) {
	if v.IsNull() {
		return Null(), nil
	}
	switch d {
	case DTypeInt64:
		switch v.Type {
		case TypeInt:
			return v, nil
		case TypeFloat:
			return IntVal(int64(v.Float)), nil
		case TypeBool:
			if v.Bool {
				return IntVal(1), nil
			}
			return IntVal(0), nil
		case TypeString:
			n, err := strconv.ParseInt(v.Str, 10, 64)
			if err != nil {
				return Null(), fmt.Errorf("cannot cast %q to Int64", v.Str)
			}
			return IntVal(n), nil
		case TypeDatetime:
			return IntVal(v.Time.UnixMilli()), nil
		}
	case DTypeFloat64:
		switch v.Type {
		case TypeInt:
			return FloatVal(float64(v.Int)), nil
		case TypeFloat:
			return v, nil
		case TypeString:
			f, err := strconv.ParseFloat(v.Str, 64)
			if err != nil {
				return Null(), fmt.Errorf("cannot cast %q to Float64", v.Str)
			}
			return FloatVal(f), nil
		}
	case DTypeString:
		if v.Type == TypeList || v.Type == TypeStruct {
			break
		}
		return StrVal(v.AsString()), nil
	case DTypeBoolean:
		switch v.Type {
		case TypeBool:
			return v, nil
		case TypeInt:
			return BoolVal(v.Int != 0), nil
		case TypeString:
			b, err := strconv.ParseBool(v.Str)
			if err != nil {
				return Null(), fmt.Errorf("cannot cast %q to Boolean", v.Str)
			}
			return BoolVal(b), nil
		}
	case DTypeDatetime:
		switch v.Type {
		case TypeDatetime:
			return v, nil
		case TypeInt:
			return TimeVal(time.UnixMilli(v.Int).UTC()), nil
		case TypeString:
			t, err := time.Parse(time.RFC3339, v.Str)
			if err != nil {
				return Null(), fmt.Errorf("cannot cast %q to Datetime", v.Str)
			}
			return TimeVal(t), nil
		}
	}
	return Null(), fmt.Errorf("cannot cast %s value to %s", v.typeName(), d)
}

func (v Value) typeName() string {
	switch v.Type {
	case TypeNull:
		return "Null"
	case TypeInt:
		return "Int64"
	case TypeFloat:
		return "Float64"
	case TypeString:
		return "String"
	case TypeBool:
		return "Boolean"
	case TypeDatetime:
		return "Datetime"
	case TypeList:
		return "List"
	case TypeStruct:
		return "Struct"
	default:
		return "?"
	}
}
