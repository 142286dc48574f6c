package dataframe

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// evalContext carries the data an expression is evaluated against.
type evalContext struct {
	frame *DataFrame
	row   int
	// elem is bound while evaluating a per-element sub-expression of a
	// list (see ListEval and Element).
	elem *Value
	// group is set when evaluating an aggregation over a grouped
	// sub-frame; column references then resolve to the full list of
	// group values instead of a single cell.
	group *DataFrame
}

// Expr is an opaque, composable column expression. Expressions are
// pure values: every combinator returns a new Expr and never touches
// data until a frame evaluates it.
type Expr struct {
	name      string
	dropNulls bool
	fn        func(*evalContext) (Value, error)
}

// Name returns the output column name of the expression.
func (e Expr) Name() string {
	if e.name == "" {
		return "literal"
	}
	return e.name
}

func (e Expr) eval(ctx *evalContext) (Value, error) {
	return e.fn(ctx)
}

// with derives a new expression, keeping name and drop-null flag.
func (e Expr) with(fn func(*evalContext) (Value, error)) Expr {
	return Expr{name: e.name, dropNulls: e.dropNulls, fn: fn}
}

// Col references a column by name. In an aggregation context it yields
// the list of the group's values for that column.
func Col(name string) Expr {
	return Expr{name: name, fn: func(ctx *evalContext) (Value, error) {
		if ctx.group != nil {
			idx := ctx.group.ColIndex(name)
			if idx < 0 {
				return Null(), fmt.Errorf("column %q not found", name)
			}
			vals := make([]Value, len(ctx.group.Rows))
			for i, r := range ctx.group.Rows {
				vals[i] = r.Values[idx]
			}
			return ListVal(vals), nil
		}
		idx := ctx.frame.ColIndex(name)
		if idx < 0 {
			return Null(), fmt.Errorf("column %q not found", name)
		}
		return ctx.frame.Rows[ctx.row].Values[idx], nil
	}}
}

// Lit wraps a constant value.
func Lit(v Value) Expr {
	return Expr{fn: func(*evalContext) (Value, error) {
		return v, nil
	}}
}

// Len yields the current frame height (per polars len()).
func Len() Expr {
	return Expr{name: "len", fn: func(ctx *evalContext) (Value, error) {
		if ctx.group != nil {
			return IntVal(int64(ctx.group.Height())), nil
		}
		return IntVal(int64(ctx.frame.Height())), nil
	}}
}

// Element is the implicit loop variable bound while a list is
// evaluated element-wise. Outside ListEval it fails.
func Element() Expr {
	return Expr{name: "element", fn: func(ctx *evalContext) (Value, error) {
		if ctx.elem == nil {
			return Null(), fmt.Errorf("element is only valid inside a list eval")
		}
		return *ctx.elem, nil
	}}
}

// IntRange generates start + row*step, cast to the given datatype.
func IntRange(start, step int64, d DType) Expr {
	return Expr{name: "int_range", fn: func(ctx *evalContext) (Value, error) {
		return IntVal(start + int64(ctx.row)*step).Cast(d)
	}}
}

// Match yields whether the named column matches a regex pattern.
func Match(column, pattern string) Expr {
	return Col(column).StrContains(pattern)
}

// ConcatStr joins the string representations of the given expressions
// with a separator. With ignoreNulls, null operands are skipped;
// otherwise any null operand makes the result null.
func ConcatStr(exprs []Expr, separator string, ignoreNulls bool) Expr {
	name := "concat_str"
	if len(exprs) > 0 {
		name = exprs[0].Name()
	}
	return Expr{name: name, fn: func(ctx *evalContext) (Value, error) {
		parts := make([]string, 0, len(exprs))
		for _, sub := range exprs {
			v, err := sub.eval(ctx)
			if err != nil {
				return Null(), err
			}
			if v.IsNull() {
				if ignoreNulls {
					continue
				}
				return Null(), nil
			}
			parts = append(parts, v.AsString())
		}
		return StrVal(strings.Join(parts, separator)), nil
	}}
}

// AsStruct gathers the given expressions into a single struct value,
// using each expression's output name as the field name.
func AsStruct(exprs []Expr) Expr {
	return Expr{name: "struct", fn: func(ctx *evalContext) (Value, error) {
		fields := make([]Field, len(exprs))
		for i, sub := range exprs {
			v, err := sub.eval(ctx)
			if err != nil {
				return Null(), err
			}
			fields[i] = Field{Name: sub.Name(), Value: v}
		}
		return StructVal(fields), nil
	}}
}

// When yields then where cond is true and otherwise elsewhere.
func When(cond, then, otherwise Expr) Expr {
	return Expr{name: then.Name(), fn: func(ctx *evalContext) (Value, error) {
		c, err := cond.eval(ctx)
		if err != nil {
			return Null(), err
		}
		b, ok := c.AsBool()
		if !ok {
			return Null(), fmt.Errorf("condition did not return boolean, got %v", c.AsString())
		}
		if b {
			return then.eval(ctx)
		}
		return otherwise.eval(ctx)
	}}
}

// Alias renames the expression output.
func (e Expr) Alias(name string) Expr {
	out := e
	out.name = name
	return out
}

// DropNulls marks the expression so that rows where it evaluates to
// null are removed from select output.
func (e Expr) DropNulls() Expr {
	out := e
	out.dropNulls = true
	return out
}

// Cast converts values to the target datatype.
func (e Expr) Cast(d DType) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		return v.Cast(d)
	})
}

// IsNull yields whether the value is null (or, with want=false,
// whether it is not null).
func (e Expr) IsNull(want bool) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		return BoolVal(v.IsNull() == want), nil
	})
}

// FillNull substitutes the other expression wherever this one is null.
func (e Expr) FillNull(other Expr) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if v.IsNull() {
			return other.eval(ctx)
		}
		return v, nil
	})
}

func (e Expr) logical(other Expr, and bool) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		l, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		r, err := other.eval(ctx)
		if err != nil {
			return Null(), err
		}
		lb, lok := l.AsBool()
		rb, rok := r.AsBool()
		if !lok || !rok {
			return Null(), fmt.Errorf("logical operator requires boolean operands")
		}
		if and {
			return BoolVal(lb && rb), nil
		}
		return BoolVal(lb || rb), nil
	})
}

// And combines two boolean expressions with logical AND.
func (e Expr) And(other Expr) Expr {
	return e.logical(other, true)
}

// Or combines two boolean expressions with logical OR.
func (e Expr) Or(other Expr) Expr {
	return e.logical(other, false)
}

// Not negates a boolean expression.
func (e Expr) Not() Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		b, ok := v.AsBool()
		if !ok {
			return Null(), fmt.Errorf("'not' requires a boolean operand")
		}
		return BoolVal(!b), nil
	})
}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq   CompareOp = "=="
	OpNeq  CompareOp = "!="
	OpGt   CompareOp = ">"
	OpLt   CompareOp = "<"
	OpGtEq CompareOp = ">="
	OpLtEq CompareOp = "<="
)

// Compare applies a comparison against the other expression.
func (e Expr) Compare(op CompareOp, other Expr) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		l, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		r, err := other.eval(ctx)
		if err != nil {
			return Null(), err
		}
		return compareValues(op, l, r)
	})
}

// Null comparisons: null == null is true, null against anything else
// is false; ordering against null yields null.
func compareValues(op CompareOp, left, right Value) (Value, error) {
	if left.IsNull() || right.IsNull() {
		switch op {
		case OpEq:
			return BoolVal(left.IsNull() && right.IsNull()), nil
		case OpNeq:
			return BoolVal(left.IsNull() != right.IsNull()), nil
		default:
			return Null(), nil
		}
	}
	switch op {
	case OpEq:
		return BoolVal(Equal(left, right)), nil
	case OpNeq:
		return BoolVal(!Equal(left, right)), nil
	}

	_, lok := left.AsFloat()
	_, rok := right.AsFloat()
	comparable := (lok && rok) ||
		(left.Type == TypeString && right.Type == TypeString) ||
		(left.Type == TypeDatetime && right.Type == TypeDatetime)
	if !comparable {
		return Null(), fmt.Errorf("cannot compare %v with %v", left.AsString(), right.AsString())
	}

	cmp := Compare(left, right)
	switch op {
	case OpGt:
		return BoolVal(cmp > 0), nil
	case OpLt:
		return BoolVal(cmp < 0), nil
	case OpGtEq:
		return BoolVal(cmp >= 0), nil
	case OpLtEq:
		return BoolVal(cmp <= 0), nil
	}
	return Null(), fmt.Errorf("unknown comparison operator %q", op)
}

// ArithOp is a binary arithmetic operator.
type ArithOp string

const (
	OpAdd ArithOp = "+"
	OpSub ArithOp = "-"
	OpMul ArithOp = "*"
	OpDiv ArithOp = "/"
)

// Arith applies an arithmetic operation against the other expression.
// Nulls propagate; division by zero yields null.
func (e Expr) Arith(op ArithOp, other Expr) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		l, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		r, err := other.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if l.IsNull() || r.IsNull() {
			return Null(), nil
		}
		return arith(op, l, r)
	})
}

func arith(op ArithOp, left, right Value) (Value, error) {
	// String concatenation with +
	if op == OpAdd && left.Type == TypeString && right.Type == TypeString {
		return StrVal(left.Str + right.Str), nil
	}

	lf, lok := left.AsFloat()
	rf, rok := right.AsFloat()
	if !lok || !rok {
		return Null(), fmt.Errorf("cannot perform %s on %v and %v", op, left.AsString(), right.AsString())
	}

	bothInt := left.Type == TypeInt && right.Type == TypeInt
	switch op {
	case OpAdd:
		if bothInt {
			return IntVal(left.Int + right.Int), nil
		}
		return FloatVal(lf + rf), nil
	case OpSub:
		if bothInt {
			return IntVal(left.Int - right.Int), nil
		}
		return FloatVal(lf - rf), nil
	case OpMul:
		if bothInt {
			return IntVal(left.Int * right.Int), nil
		}
		return FloatVal(lf * rf), nil
	case OpDiv:
		if rf == 0 {
			return Null(), nil
		}
		if bothInt && left.Int%right.Int == 0 {
			return IntVal(left.Int / right.Int), nil
		}
		return FloatVal(lf / rf), nil
	}
	return Null(), fmt.Errorf("unknown arithmetic operator %q", op)
}

func (e Expr) str(fn func(s string) (Value, error)) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if v.IsNull() {
			return Null(), nil
		}
		return fn(v.AsString())
	})
}

// StrContains yields whether the value matches a regex pattern.
// A malformed pattern fails at evaluation time.
func (e Expr) StrContains(pattern string) Expr {
	re, reErr := regexp.Compile(pattern)
	return e.str(func(s string) (Value, error) {
		if reErr != nil {
			return Null(), fmt.Errorf("invalid pattern %q: %w", pattern, reErr)
		}
		return BoolVal(re.MatchString(s)), nil
	})
}

// StrExtractGroups extracts the capture groups of a regex into a
// struct value. Named groups keep their names; unnamed groups are
// numbered from 1. Rows without a match yield null fields.
func (e Expr) StrExtractGroups(pattern string) Expr {
	re, reErr := regexp.Compile(pattern)
	return e.str(func(s string) (Value, error) {
		if reErr != nil {
			return Null(), fmt.Errorf("invalid pattern %q: %w", pattern, reErr)
		}
		groupNames := re.SubexpNames()
		fields := make([]Field, 0, len(groupNames)-1)
		match := re.FindStringSubmatch(s)
		for i := 1; i < len(groupNames); i++ {
			name := groupNames[i]
			if name == "" {
				name = strconv.Itoa(i)
			}
			val := Null()
			if match != nil && match[i] != "" {
				val = StrVal(match[i])
			}
			fields = append(fields, Field{Name: name, Value: val})
		}
		return StructVal(fields), nil
	})
}

// StrSplit splits the value into a list on a literal separator.
func (e Expr) StrSplit(separator string) Expr {
	return e.str(func(s string) (Value, error) {
		parts := strings.Split(s, separator)
		vals := make([]Value, len(parts))
		for i, p := range parts {
			vals[i] = StrVal(p)
		}
		return ListVal(vals), nil
	})
}

// StrReplaceAll replaces all matches of a regex pattern.
func (e Expr) StrReplaceAll(pattern, replacement string) Expr {
	re, reErr := regexp.Compile(pattern)
	return e.str(func(s string) (Value, error) {
		if reErr != nil {
			return Null(), fmt.Errorf("invalid pattern %q: %w", pattern, reErr)
		}
		return StrVal(re.ReplaceAllString(s, replacement)), nil
	})
}

// StrToLower lowercases the value.
func (e Expr) StrToLower() Expr {
	return e.str(func(s string) (Value, error) {
		return StrVal(strings.ToLower(s)), nil
	})
}

// StrToUpper uppercases the value.
func (e Expr) StrToUpper() Expr {
	return e.str(func(s string) (Value, error) {
		return StrVal(strings.ToUpper(s)), nil
	})
}

// StrStrip trims surrounding whitespace.
func (e Expr) StrStrip() Expr {
	return e.str(func(s string) (Value, error) {
		return StrVal(strings.TrimSpace(s)), nil
	})
}

// StrToDate parses the value into a datetime. An empty format enables
// best-effort format detection.
func (e Expr) StrToDate(format string) Expr {
	return e.str(func(s string) (Value, error) {
		if format == "" {
			t, err := dateparse.ParseAny(s)
			if err != nil {
				return Null(), fmt.Errorf("cannot parse %q as a date: %w", s, err)
			}
			return TimeVal(t), nil
		}
		t, err := time.Parse(format, s)
		if err != nil {
			return Null(), fmt.Errorf("cannot parse %q with format %q: %w", s, format, err)
		}
		return TimeVal(t), nil
	})
}

func (e Expr) list(fn func(vs []Value) (Value, error)) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if v.IsNull() {
			return Null(), nil
		}
		if v.Type != TypeList {
			return Null(), fmt.Errorf("expected a list, got %s", v.typeName())
		}
		return fn(v.List)
	})
}

// ListGet returns the element at an index, or null out of bounds.
// Negative indices count from the end.
func (e Expr) ListGet(index int) Expr {
	return e.list(func(vs []Value) (Value, error) {
		i := index
		if i < 0 {
			i += len(vs)
		}
		if i < 0 || i >= len(vs) {
			return Null(), nil
		}
		return vs[i], nil
	})
}

// ListFirst returns the first element, or null when empty.
func (e Expr) ListFirst() Expr {
	return e.ListGet(0)
}

// ListLast returns the last element, or null when empty.
func (e Expr) ListLast() Expr {
	return e.ListGet(-1)
}

// ListJoin joins element string representations with a separator.
func (e Expr) ListJoin(separator string) Expr {
	return e.list(func(vs []Value) (Value, error) {
		parts := make([]string, 0, len(vs))
		for _, v := range vs {
			if v.IsNull() {
				continue
			}
			parts = append(parts, v.AsString())
		}
		return StrVal(strings.Join(parts, separator)), nil
	})
}

// ListUnique removes duplicate elements, preserving first-seen order.
func (e Expr) ListUnique() Expr {
	return e.list(func(vs []Value) (Value, error) {
		seen := make(map[string]bool)
		out := make([]Value, 0, len(vs))
		for _, v := range vs {
			k := v.Key()
			if !seen[k] {
				seen[k] = true
				out = append(out, v)
			}
		}
		return ListVal(out), nil
	})
}

// ListLen returns the number of elements.
func (e Expr) ListLen() Expr {
	return e.list(func(vs []Value) (Value, error) {
		return IntVal(int64(len(vs))), nil
	})
}

// ListSum sums numeric elements, skipping nulls. All-null lists sum
// to null.
func (e Expr) ListSum() Expr {
	return e.list(func(vs []Value) (Value, error) {
		return foldNumeric("sum", vs, func(acc, f float64, n int) float64 {
			return acc + f
		})
	})
}

// ListMean averages numeric elements, skipping nulls.
func (e Expr) ListMean() Expr {
	return e.list(func(vs []Value) (Value, error) {
		sum, count := 0.0, 0
		for _, v := range vs {
			if v.IsNull() {
				continue
			}
			f, ok := v.AsFloat()
			if !ok {
				return Null(), fmt.Errorf("mean: non-numeric value %v", v.AsString())
			}
			sum += f
			count++
		}
		if count == 0 {
			return Null(), nil
		}
		return FloatVal(sum / float64(count)), nil
	})
}

// ListMin returns the smallest numeric element.
func (e Expr) ListMin() Expr {
	return e.list(func(vs []Value) (Value, error) {
		return foldNumeric("min", vs, func(acc, f float64, n int) float64 {
			if n == 0 || f < acc {
				return f
			}
			return acc
		})
	})
}

// ListMax returns the largest numeric element.
func (e Expr) ListMax() Expr {
	return e.list(func(vs []Value) (Value, error) {
		return foldNumeric("max", vs, func(acc, f float64, n int) float64 {
			if n == 0 || f > acc {
				return f
			}
			return acc
		})
	})
}

// foldNumeric folds non-null numeric values, yielding an integer when
// every operand was an integer.
func foldNumeric(op string, vs []Value, fold func(acc, f float64, n int) float64) (Value, error) {
	acc := 0.0
	n := 0
	allInt := true
	for _, v := range vs {
		if v.IsNull() {
			continue
		}
		f, ok := v.AsFloat()
		if !ok {
			return Null(), fmt.Errorf("%s: non-numeric value %v", op, v.AsString())
		}
		acc = fold(acc, f, n)
		n++
		if v.Type != TypeInt {
			allInt = false
		}
	}
	if n == 0 {
		return Null(), nil
	}
	if allInt {
		return IntVal(int64(acc)), nil
	}
	return FloatVal(acc), nil
}

// ListEval maps every element through a sub-expression with Element
// bound to the current element.
func (e Expr) ListEval(sub Expr) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if v.IsNull() {
			return Null(), nil
		}
		if v.Type != TypeList {
			return Null(), fmt.Errorf("expected a list, got %s", v.typeName())
		}
		out := make([]Value, len(v.List))
		for i := range v.List {
			elemCtx := *ctx
			elemCtx.elem = &v.List[i]
			out[i], err = sub.eval(&elemCtx)
			if err != nil {
				return Null(), err
			}
		}
		return ListVal(out), nil
	})
}

// StructField projects a single field out of a struct value.
func (e Expr) StructField(name string) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if v.IsNull() {
			return Null(), nil
		}
		if v.Type != TypeStruct {
			return Null(), fmt.Errorf("expected a struct, got %s", v.typeName())
		}
		for _, f := range v.Fields {
			if f.Name == name {
				return f.Value, nil
			}
		}
		return Null(), fmt.Errorf("struct has no field %q", name)
	})
}

// StructRenameFields renames struct fields positionally.
func (e Expr) StructRenameFields(names []string) Expr {
	return e.with(func(ctx *evalContext) (Value, error) {
		v, err := e.eval(ctx)
		if err != nil {
			return Null(), err
		}
		if v.IsNull() {
			return Null(), nil
		}
		if v.Type != TypeStruct {
			return Null(), fmt.Errorf("expected a struct, got %s", v.typeName())
		}
		if len(names) != len(v.Fields) {
			return Null(), fmt.Errorf("rename_fields: got %d names for %d fields", len(names), len(v.Fields))
		}
		fields := make([]Field, len(v.Fields))
		for i, f := range v.Fields {
			fields[i] = Field{Name: names[i], Value: f.Value}
		}
		return StructVal(fields), nil
	})
}
