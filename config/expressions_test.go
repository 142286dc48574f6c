package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// evalChain compiles a chain from YAML and evaluates it against a
// single-row frame.
func evalChain(t *testing.T, doc string, df *dataframe.DataFrame) dataframe.Value {
	t.Helper()
	var chain ExpressionChain
	require.NoError(t, yaml.Unmarshal([]byte(doc), &chain))
	expr, err := chain.Expr()
	require.NoError(t, err)
	result, err := df.Select(expr)
	require.NoError(t, err)
	require.Equal(t, 1, result.Height())
	return result.Rows[0].Values[0]
}

func singleRow(columns []string, values []dataframe.Value) *dataframe.DataFrame {
	df := dataframe.New(columns)
	df.AddRow(values)
	return df
}

func TestScalarStringIsColumnShorthand(t *testing.T) {
	df := singleRow([]string{"x"}, []dataframe.Value{dataframe.IntVal(41)})
	v := evalChain(t, `"x"`, df)
	assert.Equal(t, int64(41), v.Int)
}

func TestChainFoldsOpsInOrder(t *testing.T) {
	df := singleRow([]string{"x"}, []dataframe.Value{dataframe.IntVal(1)})
	v := evalChain(t, `
type: literal
value: "2"
ops:
  - type: cast
    dtype: Int64
  - type: add
    expr:
      type: column
      name: x
  - type: mul
    expr:
      type: literal
      value: "10"
      ops:
        - type: cast
          dtype: Int64
`, df)
	// (2 + 1) * 10, left to right
	assert.Equal(t, int64(30), v.Int)
}

func TestChainWithoutOpsEqualsBase(t *testing.T) {
	df := singleRow([]string{"x"}, []dataframe.Value{dataframe.StrVal("v")})
	bare := evalChain(t, `{type: column, name: x}`, df)
	withEmpty := evalChain(t, `{type: column, name: x, ops: []}`, df)
	assert.Equal(t, bare, withEmpty)
}

func TestAndOrArityValidation(t *testing.T) {
	for _, kind := range []string{"and", "or"} {
		var item ExpressionItem
		err := yaml.Unmarshal([]byte(`
type: `+kind+`
conditions:
  - {type: match, column: a, pattern: x}
`), &item)
		require.Error(t, err)
		var arity *ArityError
		require.ErrorAs(t, err, &arity)
		assert.Equal(t, kind, arity.Kind)
		assert.Equal(t, 1, arity.Count)
	}
}

func TestAndWithTwoConditionsAccepted(t *testing.T) {
	var item ExpressionItem
	require.NoError(t, yaml.Unmarshal([]byte(`
type: and
conditions:
  - {type: match, column: a, pattern: foo}
  - {type: match, column: b, pattern: bar}
`), &item))

	df := dataframe.New([]string{"a", "b"})
	df.AddRow([]dataframe.Value{dataframe.StrVal("foo!"), dataframe.StrVal("bar!")})
	df.AddRow([]dataframe.Value{dataframe.StrVal("foo!"), dataframe.StrVal("nope")})
	df.AddRow([]dataframe.Value{dataframe.StrVal("nope"), dataframe.StrVal("bar!")})

	expr, err := item.Expr()
	require.NoError(t, err)
	result, err := df.Filter(expr)
	require.NoError(t, err)
	require.Equal(t, 1, result.Height())
	assert.Equal(t, "foo!", result.Get(0, "a").Str)
}

func TestOpLevelLogicalFoldHasNoMinimum(t *testing.T) {
	df := singleRow([]string{"a"}, []dataframe.Value{dataframe.BoolVal(true)})
	v := evalChain(t, `
type: column
name: a
ops:
  - type: and
    exprs:
      - type: literal
        value: ignored
        ops: [{type: is_null, value: true}]
`, df)
	assert.False(t, v.Bool)
}

func TestLogicalOrShortSeries(t *testing.T) {
	df := dataframe.New([]string{"a", "b", "c"})
	df.AddRow([]dataframe.Value{dataframe.BoolVal(false), dataframe.BoolVal(false), dataframe.BoolVal(true)})

	v := evalChain(t, `
type: or
conditions:
  - a
  - b
  - c
`, df)
	assert.True(t, v.Bool)
}

func TestConditionExpr(t *testing.T) {
	df := singleRow([]string{"n"}, []dataframe.Value{dataframe.IntVal(9)})
	v := evalChain(t, `
type: condition
when:
  type: column
  name: n
  ops:
    - type: gt
      expr: {type: literal, value: "5", ops: [{type: cast, dtype: Int64}]}
then: {type: literal, value: big}
otherwise: {type: literal, value: small}
`, df)
	assert.Equal(t, "big", v.Str)
}

func TestNamespacedOps(t *testing.T) {
	df := singleRow([]string{"s"}, []dataframe.Value{dataframe.StrVal("a,b,a")})
	v := evalChain(t, `
type: column
name: s
ops:
  - {type: str, op: split, separator: ","}
  - {type: list, op: unique}
  - {type: list, op: join, separator: "-"}
`, df)
	assert.Equal(t, "a-b", v.Str)
}

func TestIntRangeDtypeValidated(t *testing.T) {
	var item ExpressionItem
	err := yaml.Unmarshal([]byte(`{type: int_range, start: 0, dtype: Whatever}`), &item)
	require.Error(t, err)
}

func TestUnknownExpressionTag(t *testing.T) {
	var item ExpressionItem
	err := yaml.Unmarshal([]byte(`{type: bogus}`), &item)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bogus")
}

func TestUnknownOpTag(t *testing.T) {
	var op OpItem
	err := yaml.Unmarshal([]byte(`{type: frobnicate}`), &op)
	require.Error(t, err)
}

func TestExpressionChainRoundTrip(t *testing.T) {
	src := `
type: column
name: s
ops:
  - type: contains
    pattern: foo
  - type: alias
    name: has_foo
`
	var chain ExpressionChain
	require.NoError(t, yaml.Unmarshal([]byte(src), &chain))

	out, err := yaml.Marshal(chain)
	require.NoError(t, err)

	var back ExpressionChain
	require.NoError(t, yaml.Unmarshal(out, &back))

	again, err := yaml.Marshal(back)
	require.NoError(t, err)
	assert.Equal(t, string(out), string(again))

	df := singleRow([]string{"s"}, []dataframe.Value{dataframe.StrVal("foobar")})
	expr, err := back.Expr()
	require.NoError(t, err)
	assert.Equal(t, "has_foo", expr.Name())
	result, err := df.Select(expr)
	require.NoError(t, err)
	assert.True(t, result.Rows[0].Values[0].Bool)
}
