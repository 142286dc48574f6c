package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// exprNode marks the closed set of expression variants.
type exprNode interface {
	exprNode()
}

// Column references a column by name.
type Column struct {
	Name string `yaml:"name"`
}

// Literal is a constant string value. Chain a cast op to obtain other
// datatypes.
type Literal struct {
	Value string `yaml:"value"`
}

// NullLit is the null literal.
type NullLit struct{}

// LenExpr yields the number of rows in the frame.
type LenExpr struct{}

// ElementExpr is the implicit loop variable inside a list eval op.
type ElementExpr struct{}

// MatchExpr matches a column against a regex pattern.
type MatchExpr struct {
	Column  string `yaml:"column"`
	Pattern string `yaml:"pattern"`
}

// AndExpr groups 2+ conditions in a logical AND.
type AndExpr struct {
	Conditions []ExpressionChain `yaml:"conditions"`
}

// OrExpr groups 2+ conditions in a logical OR.
type OrExpr struct {
	Conditions []ExpressionChain `yaml:"conditions"`
}

// NotExpr negates a condition.
type NotExpr struct {
	Expr ExpressionChain `yaml:"expr"`
}

// AsStructExpr gathers expressions into one struct column.
type AsStructExpr struct {
	Exprs []ExpressionChain `yaml:"exprs"`
}

// IntRangeExpr generates start, start+step, ... one value per row.
type IntRangeExpr struct {
	Start int64  `yaml:"start"`
	Step  *int64 `yaml:"step"`
	Dtype string `yaml:"dtype"`
}

// ConcatStrExpr joins column values into one string per row.
type ConcatStrExpr struct {
	Columns     []ExpressionChain `yaml:"columns"`
	Separator   string            `yaml:"separator"`
	IgnoreNulls bool              `yaml:"ignore_nulls"`
}

// ConditionExpr is a when/then/otherwise branch.
type ConditionExpr struct {
	When      ExpressionChain `yaml:"when"`
	Then      ExpressionChain `yaml:"then"`
	Otherwise ExpressionChain `yaml:"otherwise"`
}

func (*Column) exprNode()        {}
func (*Literal) exprNode()       {}
func (*NullLit) exprNode()       {}
func (*LenExpr) exprNode()       {}
func (*ElementExpr) exprNode()   {}
func (*MatchExpr) exprNode()     {}
func (*AndExpr) exprNode()       {}
func (*OrExpr) exprNode()        {}
func (*NotExpr) exprNode()       {}
func (*AsStructExpr) exprNode()  {}
func (*IntRangeExpr) exprNode()  {}
func (*ConcatStrExpr) exprNode() {}
func (*ConditionExpr) exprNode() {}

func (e *AndExpr) validate() error {
	if len(e.Conditions) < 2 {
		return &ArityError{Kind: "and", Count: len(e.Conditions)}
	}
	return nil
}

func (e *OrExpr) validate() error {
	if len(e.Conditions) < 2 {
		return &ArityError{Kind: "or", Count: len(e.Conditions)}
	}
	return nil
}

func (e *IntRangeExpr) validate() error {
	if e.Dtype == "" {
		return nil
	}
	_, err := dataframe.ParseDType(e.Dtype)
	return err
}

func exprNodeFor(tag string) exprNode {
	switch tag {
	case "column":
		return &Column{}
	case "literal":
		return &Literal{}
	case "null":
		return &NullLit{}
	case "len":
		return &LenExpr{}
	case "element":
		return &ElementExpr{}
	case "match":
		return &MatchExpr{}
	case "and":
		return &AndExpr{}
	case "or":
		return &OrExpr{}
	case "not":
		return &NotExpr{}
	case "as_struct":
		return &AsStructExpr{}
	case "int_range":
		return &IntRangeExpr{}
	case "concat_str":
		return &ConcatStrExpr{}
	case "condition":
		return &ConditionExpr{}
	default:
		return nil
	}
}

func exprTag(n exprNode) string {
	switch n.(type) {
	case *Column:
		return "column"
	case *Literal:
		return "literal"
	case *NullLit:
		return "null"
	case *LenExpr:
		return "len"
	case *ElementExpr:
		return "element"
	case *MatchExpr:
		return "match"
	case *AndExpr:
		return "and"
	case *OrExpr:
		return "or"
	case *NotExpr:
		return "not"
	case *AsStructExpr:
		return "as_struct"
	case *IntRangeExpr:
		return "int_range"
	case *ConcatStrExpr:
		return "concat_str"
	case *ConditionExpr:
		return "condition"
	default:
		return ""
	}
}

// ExpressionItem is one expression node of the configuration AST,
// addressed by its snake_case "type" discriminator.
type ExpressionItem struct {
	node exprNode
}

func (e *ExpressionItem) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeTag(node, "expression")
	if err != nil {
		return err
	}
	concrete := exprNodeFor(tag)
	if concrete == nil {
		return fmt.Errorf("unknown expression type %q (line %d)", tag, node.Line)
	}
	if err := decodeInto(node, concrete); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	e.node = concrete
	return nil
}

func (e ExpressionItem) MarshalYAML() (interface{}, error) {
	if e.node == nil {
		return nil, fmt.Errorf("cannot serialize an empty expression")
	}
	return taggedNode(exprTag(e.node), e.node)
}

// Expr compiles the expression into its engine-native form.
// Compilation is pure: it never touches data.
func (e ExpressionItem) Expr() (dataframe.Expr, error) {
	switch n := e.node.(type) {
	case *Column:
		return dataframe.Col(n.Name), nil
	case *Literal:
		return dataframe.Lit(dataframe.StrVal(n.Value)), nil
	case *NullLit:
		return dataframe.Lit(dataframe.Null()), nil
	case *LenExpr:
		return dataframe.Len(), nil
	case *ElementExpr:
		return dataframe.Element(), nil
	case *MatchExpr:
		return dataframe.Match(n.Column, n.Pattern), nil
	case *AndExpr:
		return foldLogical(n.Conditions, true)
	case *OrExpr:
		return foldLogical(n.Conditions, false)
	case *NotExpr:
		sub, err := n.Expr.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		return sub.Not(), nil
	case *AsStructExpr:
		exprs, err := chainExprs(n.Exprs)
		if err != nil {
			return dataframe.Expr{}, err
		}
		return dataframe.AsStruct(exprs), nil
	case *IntRangeExpr:
		step := int64(1)
		if n.Step != nil {
			step = *n.Step
		}
		dtype := dataframe.DTypeInt64
		if n.Dtype != "" {
			var err error
			if dtype, err = dataframe.ParseDType(n.Dtype); err != nil {
				return dataframe.Expr{}, err
			}
		}
		return dataframe.IntRange(n.Start, step, dtype), nil
	case *ConcatStrExpr:
		exprs, err := chainExprs(n.Columns)
		if err != nil {
			return dataframe.Expr{}, err
		}
		return dataframe.ConcatStr(exprs, n.Separator, n.IgnoreNulls), nil
	case *ConditionExpr:
		when, err := n.When.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		then, err := n.Then.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		otherwise, err := n.Otherwise.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		return dataframe.When(when, then, otherwise), nil
	default:
		return dataframe.Expr{}, fmt.Errorf("unknown expression node %T", e.node)
	}
}

// foldLogical left-folds the operator over the operands: the first
// operand seeds the accumulator and the rest combine in input order.
// Arity was validated at construction.
func foldLogical(chains []ExpressionChain, and bool) (dataframe.Expr, error) {
	acc, err := chains[0].Expr()
	if err != nil {
		return dataframe.Expr{}, err
	}
	for _, c := range chains[1:] {
		next, err := c.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		if and {
			acc = acc.And(next)
		} else {
			acc = acc.Or(next)
		}
	}
	return acc, nil
}

// ExpressionChain is a base expression plus an ordered list of
// operations applied left to right. A bare string is shorthand for a
// column reference with no operations.
type ExpressionChain struct {
	Base ExpressionItem
	Ops  []OpItem
}

func (c *ExpressionChain) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var name string
		if err := node.Decode(&name); err != nil {
			return err
		}
		*c = ExpressionChain{Base: ExpressionItem{node: &Column{Name: name}}}
		return nil
	}
	if err := node.Decode(&c.Base); err != nil {
		return err
	}
	var aux struct {
		Ops []OpItem `yaml:"ops"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	c.Ops = aux.Ops
	return nil
}

func (c ExpressionChain) MarshalYAML() (interface{}, error) {
	base, err := c.Base.MarshalYAML()
	if err != nil {
		return nil, err
	}
	n := base.(*yaml.Node)
	if len(c.Ops) > 0 {
		var ops yaml.Node
		if err := ops.Encode(c.Ops); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, scalarNode("ops"), &ops)
	}
	return n, nil
}

// Expr compiles the chain: the base expression folded through every
// operation in list order.
func (c ExpressionChain) Expr() (dataframe.Expr, error) {
	expr, err := c.Base.Expr()
	if err != nil {
		return dataframe.Expr{}, err
	}
	for _, op := range c.Ops {
		if expr, err = op.Apply(expr); err != nil {
			return dataframe.Expr{}, err
		}
	}
	return expr, nil
}

func chainExprs(chains []ExpressionChain) ([]dataframe.Expr, error) {
	exprs := make([]dataframe.Expr, len(chains))
	for i, c := range chains {
		e, err := c.Expr()
		if err != nil {
			return nil, err
		}
		exprs[i] = e
	}
	return exprs, nil
}

// ChainList decodes either a single chain or a sequence of chains.
type ChainList []ExpressionChain

func (l *ChainList) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		var chains []ExpressionChain
		if err := node.Decode(&chains); err != nil {
			return err
		}
		*l = chains
		return nil
	}
	var single ExpressionChain
	if err := single.UnmarshalYAML(node); err != nil {
		return err
	}
	*l = ChainList{single}
	return nil
}
