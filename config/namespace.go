package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// Namespaced operations nest a second discriminator under the "op"
// key, e.g. {type: str, op: split, separator: ","}.

func decodeOpTag(node *yaml.Node, what string) (string, error) {
	var aux struct {
		Op string `yaml:"op"`
	}
	if err := node.Decode(&aux); err != nil {
		return "", err
	}
	if aux.Op == "" {
		return "", fmt.Errorf("%s is missing its %q discriminator (line %d)", what, "op", node.Line)
	}
	return aux.Op, nil
}

func namespacedNode(opTag string, concrete interface{}) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(concrete); err != nil {
		return nil, err
	}
	if n.Kind != yaml.MappingNode {
		n = yaml.Node{Kind: yaml.MappingNode}
	}
	n.Content = append([]*yaml.Node{scalarNode("op"), scalarNode(opTag)}, n.Content...)
	return &n, nil
}

// --- string namespace ---

// SplitOp splits a string into a list on a literal separator.
type SplitOp struct {
	Separator string `yaml:"separator"`
}

// ReplaceAllOp replaces every match of a regex pattern.
type ReplaceAllOp struct {
	Pattern string `yaml:"pattern"`
	With    string `yaml:"with"`
}

// ToLowerOp lowercases string values.
type ToLowerOp struct{}

// ToUpperOp uppercases string values.
type ToUpperOp struct{}

// StripOp trims surrounding whitespace.
type StripOp struct{}

// ToDateOp parses strings into datetimes. Format is a Go reference
// layout; when empty the format is detected per value.
type ToDateOp struct {
	Format string `yaml:"format"`
}

// StrOp applies a string-namespace operation.
type StrOp struct {
	node interface{}
}

func (o *StrOp) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeOpTag(node, "str operation")
	if err != nil {
		return err
	}
	var concrete interface{}
	switch tag {
	case "split":
		concrete = &SplitOp{}
	case "replace_all":
		concrete = &ReplaceAllOp{}
	case "to_lowercase":
		concrete = &ToLowerOp{}
	case "to_uppercase":
		concrete = &ToUpperOp{}
	case "strip":
		concrete = &StripOp{}
	case "to_date":
		concrete = &ToDateOp{}
	default:
		return fmt.Errorf("unknown str operation %q (line %d)", tag, node.Line)
	}
	if err := node.Decode(concrete); err != nil {
		return err
	}
	o.node = concrete
	return nil
}

func (o StrOp) MarshalYAML() (interface{}, error) {
	var tag string
	switch o.node.(type) {
	case *SplitOp:
		tag = "split"
	case *ReplaceAllOp:
		tag = "replace_all"
	case *ToLowerOp:
		tag = "to_lowercase"
	case *ToUpperOp:
		tag = "to_uppercase"
	case *StripOp:
		tag = "strip"
	case *ToDateOp:
		tag = "to_date"
	default:
		return nil, fmt.Errorf("cannot serialize an empty str operation")
	}
	return namespacedNode(tag, o.node)
}

func (o *StrOp) apply(expr dataframe.Expr) (dataframe.Expr, error) {
	switch n := o.node.(type) {
	case *SplitOp:
		return expr.StrSplit(n.Separator), nil
	case *ReplaceAllOp:
		return expr.StrReplaceAll(n.Pattern, n.With), nil
	case *ToLowerOp:
		return expr.StrToLower(), nil
	case *ToUpperOp:
		return expr.StrToUpper(), nil
	case *StripOp:
		return expr.StrStrip(), nil
	case *ToDateOp:
		return expr.StrToDate(n.Format), nil
	default:
		return dataframe.Expr{}, fmt.Errorf("unknown str operation node %T", o.node)
	}
}

// --- list namespace ---

// GetOp returns the list element at an index (negative counts from
// the end).
type GetOp struct {
	Index int `yaml:"index"`
}

// FirstOp returns the first list element.
type FirstOp struct{}

// LastOp returns the last list element.
type LastOp struct{}

// JoinListOp joins list elements into one string.
type JoinListOp struct {
	Separator string `yaml:"separator"`
}

// UniqueOp removes duplicate list elements.
type UniqueOp struct{}

// LenListOp counts list elements.
type LenListOp struct{}

// SumOp sums numeric list elements.
type SumOp struct{}

// MeanOp averages numeric list elements.
type MeanOp struct{}

// MinOp returns the smallest numeric list element.
type MinOp struct{}

// MaxOp returns the largest numeric list element.
type MaxOp struct{}

// EvalListOp maps each list element through a chain in which the
// element expression is bound.
type EvalListOp struct {
	Expr ExpressionChain `yaml:"expr"`
}

// ListOp applies a list-namespace operation. The aggregate variants
// (sum, mean, min, max, len) double as group-by aggregations, where a
// column reference yields the group's values as a list.
type ListOp struct {
	node interface{}
}

func (o *ListOp) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeOpTag(node, "list operation")
	if err != nil {
		return err
	}
	var concrete interface{}
	switch tag {
	case "get":
		concrete = &GetOp{}
	case "first":
		concrete = &FirstOp{}
	case "last":
		concrete = &LastOp{}
	case "join":
		concrete = &JoinListOp{}
	case "unique":
		concrete = &UniqueOp{}
	case "len":
		concrete = &LenListOp{}
	case "sum":
		concrete = &SumOp{}
	case "mean":
		concrete = &MeanOp{}
	case "min":
		concrete = &MinOp{}
	case "max":
		concrete = &MaxOp{}
	case "eval":
		concrete = &EvalListOp{}
	default:
		return fmt.Errorf("unknown list operation %q (line %d)", tag, node.Line)
	}
	if err := node.Decode(concrete); err != nil {
		return err
	}
	o.node = concrete
	return nil
}

func (o ListOp) MarshalYAML() (interface{}, error) {
	var tag string
	switch o.node.(type) {
	case *GetOp:
		tag = "get"
	case *FirstOp:
		tag = "first"
	case *LastOp:
		tag = "last"
	case *JoinListOp:
		tag = "join"
	case *UniqueOp:
		tag = "unique"
	case *LenListOp:
		tag = "len"
	case *SumOp:
		tag = "sum"
	case *MeanOp:
		tag = "mean"
	case *MinOp:
		tag = "min"
	case *MaxOp:
		tag = "max"
	case *EvalListOp:
		tag = "eval"
	default:
		return nil, fmt.Errorf("cannot serialize an empty list operation")
	}
	return namespacedNode(tag, o.node)
}

func (o *ListOp) apply(expr dataframe.Expr) (dataframe.Expr, error) {
	switch n := o.node.(type) {
	case *GetOp:
		return expr.ListGet(n.Index), nil
	case *FirstOp:
		return expr.ListFirst(), nil
	case *LastOp:
		return expr.ListLast(), nil
	case *JoinListOp:
		return expr.ListJoin(n.Separator), nil
	case *UniqueOp:
		return expr.ListUnique(), nil
	case *LenListOp:
		return expr.ListLen(), nil
	case *SumOp:
		return expr.ListSum(), nil
	case *MeanOp:
		return expr.ListMean(), nil
	case *MinOp:
		return expr.ListMin(), nil
	case *MaxOp:
		return expr.ListMax(), nil
	case *EvalListOp:
		sub, err := n.Expr.Expr()
		if err != nil {
			return dataframe.Expr{}, err
		}
		return expr.ListEval(sub), nil
	default:
		return dataframe.Expr{}, fmt.Errorf("unknown list operation node %T", o.node)
	}
}

// --- struct namespace ---

// FieldOp projects a single field out of a struct value.
type FieldOp struct {
	Name string `yaml:"name"`
}

// RenameFieldsOp renames struct fields positionally.
type RenameFieldsOp struct {
	Names []string `yaml:"names"`
}

// StructOp applies a struct-namespace operation.
type StructOp struct {
	node interface{}
}

func (o *StructOp) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeOpTag(node, "struct operation")
	if err != nil {
		return err
	}
	var concrete interface{}
	switch tag {
	case "field":
		concrete = &FieldOp{}
	case "rename_fields":
		concrete = &RenameFieldsOp{}
	default:
		return fmt.Errorf("unknown struct operation %q (line %d)", tag, node.Line)
	}
	if err := node.Decode(concrete); err != nil {
		return err
	}
	o.node = concrete
	return nil
}

func (o StructOp) MarshalYAML() (interface{}, error) {
	var tag string
	switch o.node.(type) {
	case *FieldOp:
		tag = "field"
	case *RenameFieldsOp:
		tag = "rename_fields"
	default:
		return nil, fmt.Errorf("cannot serialize an empty struct operation")
	}
	return namespacedNode(tag, o.node)
}

func (o *StructOp) apply(expr dataframe.Expr) (dataframe.Expr, error) {
	switch n := o.node.(type) {
	case *FieldOp:
		return expr.StructField(n.Name), nil
	case *RenameFieldsOp:
		return expr.StructRenameFields(n.Names), nil
	default:
		return dataframe.Expr{}, fmt.Errorf("unknown struct operation node %T", o.node)
	}
}
