package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// opNode marks the closed set of operation variants. Operations are
// unary: each consumes the chained-in expression and yields a new one.
type opNode interface {
	opNode()
}

// AliasOp names the expression output.
type AliasOp struct {
	Name string `yaml:"name"`
}

// CastOp converts values to a target datatype.
type CastOp struct {
	Dtype string `yaml:"dtype"`
}

// ExtractGroupsOp extracts regex capture groups into a struct value.
type ExtractGroupsOp struct {
	Pattern string `yaml:"pattern"`
}

// DropNullOp removes rows where the expression is null.
type DropNullOp struct{}

// FillNullOp substitutes an expression wherever the value is null.
type FillNullOp struct {
	Expr ExpressionChain `yaml:"expr"`
}

// ContainsOp checks values against a regex pattern.
type ContainsOp struct {
	Pattern string `yaml:"pattern"`
}

// IsNullOp checks whether values are null (value: true, the default)
// or not null (value: false).
type IsNullOp struct {
	Value *bool `yaml:"value"`
}

// CompareOpNode is a binary comparison against another chain.
type CompareOpNode struct {
	op   dataframe.CompareOp
	Expr ExpressionChain `yaml:"expr"`
}

// LogicalFoldOp folds the chained-in expression with each operand via
// AND or OR, in sequence. Unlike the top-level combinators it has no
// minimum operand count.
type LogicalFoldOp struct {
	and   bool
	Exprs ChainList `yaml:"exprs"`
}

// ArithOpNode is a binary arithmetic operation against another chain.
type ArithOpNode struct {
	op   dataframe.ArithOp
	Expr ExpressionChain `yaml:"expr"`
}

func (*AliasOp) opNode()         {}
func (*CastOp) opNode()          {}
func (*ExtractGroupsOp) opNode() {}
func (*DropNullOp) opNode()      {}
func (*FillNullOp) opNode()      {}
func (*ContainsOp) opNode()      {}
func (*IsNullOp) opNode()        {}
func (*CompareOpNode) opNode()   {}
func (*LogicalFoldOp) opNode()   {}
func (*ArithOpNode) opNode()     {}
func (*StrOp) opNode()           {}
func (*ListOp) opNode()          {}
func (*StructOp) opNode()        {}

func (o *CastOp) validate() error {
	_, err := dataframe.ParseDType(o.Dtype)
	return err
}

var compareOps = map[string]dataframe.CompareOp{
	"eq":    dataframe.OpEq,
	"neq":   dataframe.OpNeq,
	"gt":    dataframe.OpGt,
	"lt":    dataframe.OpLt,
	"gt_eq": dataframe.OpGtEq,
	"lt_eq": dataframe.OpLtEq,
}

var arithOps = map[string]dataframe.ArithOp{
	"add": dataframe.OpAdd,
	"sub": dataframe.OpSub,
	"mul": dataframe.OpMul,
	"div": dataframe.OpDiv,
}

func opNodeFor(tag string) opNode {
	switch tag {
	case "alias":
		return &AliasOp{}
	case "cast":
		return &CastOp{}
	case "extract_groups":
		return &ExtractGroupsOp{}
	case "drop_null":
		return &DropNullOp{}
	case "fill_null":
		return &FillNullOp{}
	case "contains":
		return &ContainsOp{}
	case "is_null":
		return &IsNullOp{}
	case "and":
		return &LogicalFoldOp{and: true}
	case "or":
		return &LogicalFoldOp{}
	case "str":
		return &StrOp{}
	case "list":
		return &ListOp{}
	case "struct":
		return &StructOp{}
	}
	if op, ok := compareOps[tag]; ok {
		return &CompareOpNode{op: op}
	}
	if op, ok := arithOps[tag]; ok {
		return &ArithOpNode{op: op}
	}
	return nil
}

func opTag(n opNode) string {
	switch o := n.(type) {
	case *AliasOp:
		return "alias"
	case *CastOp:
		return "cast"
	case *ExtractGroupsOp:
		return "extract_groups"
	case *DropNullOp:
		return "drop_null"
	case *FillNullOp:
		return "fill_null"
	case *ContainsOp:
		return "contains"
	case *IsNullOp:
		return "is_null"
	case *LogicalFoldOp:
		if o.and {
			return "and"
		}
		return "or"
	case *StrOp:
		return "str"
	case *ListOp:
		return "list"
	case *StructOp:
		return "struct"
	case *CompareOpNode:
		for tag, op := range compareOps {
			if op == o.op {
				return tag
			}
		}
	case *ArithOpNode:
		for tag, op := range arithOps {
			if op == o.op {
				return tag
			}
		}
	}
	return ""
}

// OpItem is one operation of a chain, addressed by its snake_case
// "type" discriminator.
type OpItem struct {
	node opNode
}

func (o *OpItem) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeTag(node, "operation")
	if err != nil {
		return err
	}
	concrete := opNodeFor(tag)
	if concrete == nil {
		return fmt.Errorf("unknown operation type %q (line %d)", tag, node.Line)
	}
	if err := decodeInto(node, concrete); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	o.node = concrete
	return nil
}

func (o OpItem) MarshalYAML() (interface{}, error) {
	if o.node == nil {
		return nil, fmt.Errorf("cannot serialize an empty operation")
	}
	return taggedNode(opTag(o.node), o.node)
}

// Apply modifies the given expression according to the operation.
func (o OpItem) Apply(expr dataframe.Expr) (dataframe.Expr, error) {
	switch n := o.node.(type) {
	case *AliasOp:
		return expr.Alias(n.Name), nil
	case *CastOp:
		dt, err := dataframe.ParseDType(n.Dtype)
		if err != nil {
			return dataframe.Expr{}, err
		}
		return expr.Cast(dt), nil
	case *ExtractGroupsOp:
		return expr.StrExtractGroups(n.Pattern), nil
	case *DropNullOp:
		return expr.DropNulls(), nil
	case *FillNullOp:
		fill, err := n.Expr.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		return expr.FillNull(fill), nil
	case *ContainsOp:
		return expr.StrContains(n.Pattern), nil
	case *IsNullOp:
		want := true
		if n.Value != nil {
			want = *n.Value
		}
		return expr.IsNull(want), nil
	case *CompareOpNode:
		other, err := n.Expr.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		return expr.Compare(n.op, other), nil
	case *LogicalFoldOp:
		for _, c := range n.Exprs {
			next, err := c.Expr()
			if err != nil {
				return dataframe.Expr{}, err
			}
			if n.and {
				expr = expr.And(next)
			} else {
				expr = expr.Or(next)
			}
		}
		return expr, nil
	case *ArithOpNode:
		other, err := n.Expr.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		return expr.Arith(n.op, other), nil
	case *StrOp:
		return n.apply(expr)
	case *ListOp:
		return n.apply(expr)
	case *StructOp:
		return n.apply(expr)
	default:
		return dataframe.Expr{}, fmt.Errorf("unknown operation node %T", o.node)
	}
}
