package config

import (
	"fmt"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// transformNode marks the closed set of transform variants. Each one
// extends a lazy plan with a frame transformation.
type transformNode interface {
	transformNode()
	apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error)
}

// pathBinder is implemented by transforms that carry nested loaders
// whose paths resolve against the declaring document's directory.
type pathBinder interface {
	bind(baseDir string) error
}

// SelectTransform keeps only the given expressions as columns.
type SelectTransform struct {
	Columns ChainList `yaml:"columns"`
}

// DropTransform removes the named columns.
type DropTransform struct {
	Columns []string `yaml:"columns"`
}

// RenameTransform renames columns, either by explicit old-to-new map
// or by prefixing every column. Exactly one form must be given.
type RenameTransform struct {
	Map    map[string]string `yaml:"map,omitempty"`
	Prefix string            `yaml:"prefix,omitempty"`
}

// FilterTransform keeps rows where every condition holds.
type FilterTransform struct {
	Conditions ChainList `yaml:"conditions"`
}

// ExtractTransform matches a regex against a string column and spreads
// the capture groups into new columns. With filter set, rows that do
// not match are dropped first.
type ExtractTransform struct {
	Column  string `yaml:"column"`
	Pattern string `yaml:"pattern"`
	Filter  bool   `yaml:"filter,omitempty"`
}

// UnnestTransform spreads struct columns into one column per field.
type UnnestTransform struct {
	Columns []string `yaml:"columns"`
}

// SortColumn is one sort key.
type SortColumn struct {
	Column     string `yaml:"column"`
	Descending bool   `yaml:"descending,omitempty"`
}

// SortByTransform orders rows by the given keys in order.
type SortByTransform struct {
	Columns []SortColumn `yaml:"columns"`
}

// DropDuplicatesTransform deduplicates rows over a column subset. An
// empty subset considers the whole row.
type DropDuplicatesTransform struct {
	Subset []string `yaml:"subset,omitempty"`
	Keep   string   `yaml:"keep,omitempty"`
}

// JoinTransform joins the current plan with another loader's plan.
// When right_on is omitted the left_on keys apply to both sides.
type JoinTransform struct {
	Right   Loader    `yaml:"right"`
	LeftOn  ChainList `yaml:"left_on"`
	RightOn ChainList `yaml:"right_on,omitempty"`
	How     string    `yaml:"how,omitempty"`
}

// SetTransform adds or replaces a single named column.
type SetTransform struct {
	Column string          `yaml:"column"`
	Value  ExpressionChain `yaml:"value"`
}

// WithColumnsTransform adds or replaces a batch of columns.
type WithColumnsTransform struct {
	Columns ChainList `yaml:"columns"`
}

// ExplodeTransform turns each element of the named list columns into
// its own row.
type ExplodeTransform struct {
	Columns []string `yaml:"columns"`
}

// CollectTransform materializes the plan at this point. Downstream
// steps and repeated collections share the materialized frame instead
// of re-reading sources.
type CollectTransform struct{}

// GroupByTransform groups rows by key expressions and evaluates one
// aggregation chain per output column.
type GroupByTransform struct {
	Keys         ChainList `yaml:"keys"`
	Aggregations ChainList `yaml:"aggregations"`
}

// ConcatTransform combines the current plan with another loader's
// plan.
type ConcatTransform struct {
	Other Loader `yaml:"other"`
	How   string `yaml:"how,omitempty"`
}

func (*SelectTransform) transformNode()         {}
func (*DropTransform) transformNode()           {}
func (*RenameTransform) transformNode()         {}
func (*FilterTransform) transformNode()         {}
func (*ExtractTransform) transformNode()        {}
func (*UnnestTransform) transformNode()         {}
func (*SortByTransform) transformNode()         {}
func (*DropDuplicatesTransform) transformNode() {}
func (*JoinTransform) transformNode()           {}
func (*SetTransform) transformNode()            {}
func (*WithColumnsTransform) transformNode()    {}
func (*ExplodeTransform) transformNode()        {}
func (*CollectTransform) transformNode()        {}
func (*GroupByTransform) transformNode()        {}
func (*ConcatTransform) transformNode()         {}

func (t *RenameTransform) validate() error {
	if (len(t.Map) == 0) == (t.Prefix == "") {
		return fmt.Errorf("rename needs exactly one of map or prefix")
	}
	return nil
}

func (t *FilterTransform) validate() error {
	if len(t.Conditions) == 0 {
		return fmt.Errorf("filter needs at least one condition")
	}
	return nil
}

func (t *DropDuplicatesTransform) validate() error {
	_, err := parseKeep(t.Keep)
	return err
}

func (t *JoinTransform) validate() error {
	if len(t.LeftOn) == 0 {
		return fmt.Errorf("join needs at least one left_on key")
	}
	_, err := parseJoinType(t.How)
	return err
}

func (t *ConcatTransform) validate() error {
	_, err := parseConcatHow(t.How)
	return err
}

func parseKeep(s string) (dataframe.KeepStrategy, error) {
	switch s {
	case "", "any":
		return dataframe.KeepAny, nil
	case "first":
		return dataframe.KeepFirst, nil
	case "last":
		return dataframe.KeepLast, nil
	case "none":
		return dataframe.KeepNone, nil
	default:
		return 0, fmt.Errorf("unknown keep strategy %q", s)
	}
}

func parseJoinType(s string) (dataframe.JoinType, error) {
	switch s {
	case "", "inner":
		return dataframe.JoinInner, nil
	case "left":
		return dataframe.JoinLeft, nil
	case "right":
		return dataframe.JoinRight, nil
	case "full":
		return dataframe.JoinFull, nil
	case "anti":
		return dataframe.JoinAnti, nil
	default:
		return 0, fmt.Errorf("unknown join type %q", s)
	}
}

func parseConcatHow(s string) (dataframe.ConcatHow, error) {
	switch s {
	case "", "vertical":
		return dataframe.ConcatVertical, nil
	case "horizontal":
		return dataframe.ConcatHorizontal, nil
	case "diagonal":
		return dataframe.ConcatDiagonal, nil
	default:
		return 0, fmt.Errorf("unknown concat mode %q", s)
	}
}

func (t *JoinTransform) bind(baseDir string) error {
	return t.Right.bind(baseDir)
}

func (t *ConcatTransform) bind(baseDir string) error {
	return t.Other.bind(baseDir)
}

func (t *SelectTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	exprs, err := chainExprs(t.Columns)
	if err != nil {
		return lf, err
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Select(exprs...)
	}), nil
}

func (t *DropTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	columns := t.Columns
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Drop(columns...)
	}), nil
}

func (t *RenameTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	if t.Prefix != "" {
		prefix := t.Prefix
		return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
			return df.RenamePrefix(prefix), nil
		}), nil
	}
	olds := make([]string, 0, len(t.Map))
	for old := range t.Map {
		olds = append(olds, old)
	}
	sort.Strings(olds)
	pairs := make([]dataframe.RenamePair, len(olds))
	for i, old := range olds {
		pairs[i] = dataframe.RenamePair{Old: old, New: t.Map[old]}
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Rename(pairs)
	}), nil
}

func (t *FilterTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	cond, err := foldLogical(t.Conditions, true)
	if err != nil {
		return lf, err
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Filter(cond)
	}), nil
}

func (t *ExtractTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	column, pattern := t.Column, t.Pattern
	groups := fmt.Sprintf("_%s_groups", column)
	filter := t.Filter
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		var err error
		if filter {
			if df, err = df.Filter(dataframe.Col(column).StrContains(pattern)); err != nil {
				return nil, err
			}
		}
		df, err = df.WithColumns(dataframe.Col(column).StrExtractGroups(pattern).Alias(groups))
		if err != nil {
			return nil, err
		}
		return df.Unnest(groups)
	}), nil
}

func (t *UnnestTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	columns := t.Columns
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Unnest(columns...)
	}), nil
}

func (t *SortByTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	keys := make([]dataframe.SortKey, len(t.Columns))
	for i, c := range t.Columns {
		keys[i] = dataframe.SortKey{Column: c.Column, Descending: c.Descending}
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Sort(keys)
	}), nil
}

func (t *DropDuplicatesTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	keep, err := parseKeep(t.Keep)
	if err != nil {
		return lf, err
	}
	subset := t.Subset
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Unique(subset, keep)
	}), nil
}

func (t *JoinTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	how, err := parseJoinType(t.How)
	if err != nil {
		return lf, err
	}
	leftOn, err := chainExprs(t.LeftOn)
	if err != nil {
		return lf, err
	}
	rightOn := leftOn
	if len(t.RightOn) > 0 {
		if rightOn, err = chainExprs(t.RightOn); err != nil {
			return lf, err
		}
	}
	rightLf, err := t.Right.Load()
	if err != nil {
		return lf, err
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		right, err := rightLf.Collect()
		if err != nil {
			return nil, err
		}
		return df.Join(right, leftOn, rightOn, how)
	}), nil
}

func (t *SetTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	expr, err := t.Value.Expr()
	if err != nil {
		return lf, err
	}
	expr = expr.Alias(t.Column)
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.WithColumns(expr)
	}), nil
}

func (t *WithColumnsTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	exprs, err := chainExprs(t.Columns)
	if err != nil {
		return lf, err
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.WithColumns(exprs...)
	}), nil
}

func (t *ExplodeTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	columns := t.Columns
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.Explode(columns...)
	}), nil
}

func (t *CollectTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	var (
		once   sync.Once
		cached *dataframe.DataFrame
		err    error
	)
	return dataframe.Lazy(func() (*dataframe.DataFrame, error) {
		once.Do(func() {
			cached, err = lf.Collect()
		})
		return cached, err
	}), nil
}

func (t *GroupByTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	keys, err := chainExprs(t.Keys)
	if err != nil {
		return lf, err
	}
	aggs, err := chainExprs(t.Aggregations)
	if err != nil {
		return lf, err
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		return df.GroupBy(keys, aggs)
	}), nil
}

func (t *ConcatTransform) apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	how, err := parseConcatHow(t.How)
	if err != nil {
		return lf, err
	}
	otherLf, err := t.Other.Load()
	if err != nil {
		return lf, err
	}
	return lf.Map(func(df *dataframe.DataFrame) (*dataframe.DataFrame, error) {
		other, err := otherLf.Collect()
		if err != nil {
			return nil, err
		}
		return dataframe.Concat(how, df, other)
	}), nil
}

func transformNodeFor(tag string) transformNode {
	switch tag {
	case "select":
		return &SelectTransform{}
	case "drop":
		return &DropTransform{}
	case "rename":
		return &RenameTransform{}
	case "filter":
		return &FilterTransform{}
	case "extract":
		return &ExtractTransform{}
	case "unnest":
		return &UnnestTransform{}
	case "sort_by":
		return &SortByTransform{}
	case "drop_duplicates":
		return &DropDuplicatesTransform{}
	case "join":
		return &JoinTransform{}
	case "set":
		return &SetTransform{}
	case "with_columns":
		return &WithColumnsTransform{}
	case "explode":
		return &ExplodeTransform{}
	case "collect":
		return &CollectTransform{}
	case "group_by":
		return &GroupByTransform{}
	case "concat":
		return &ConcatTransform{}
	default:
		return nil
	}
}

func transformTag(n transformNode) string {
	switch n.(type) {
	case *SelectTransform:
		return "select"
	case *DropTransform:
		return "drop"
	case *RenameTransform:
		return "rename"
	case *FilterTransform:
		return "filter"
	case *ExtractTransform:
		return "extract"
	case *UnnestTransform:
		return "unnest"
	case *SortByTransform:
		return "sort_by"
	case *DropDuplicatesTransform:
		return "drop_duplicates"
	case *JoinTransform:
		return "join"
	case *SetTransform:
		return "set"
	case *WithColumnsTransform:
		return "with_columns"
	case *ExplodeTransform:
		return "explode"
	case *CollectTransform:
		return "collect"
	case *GroupByTransform:
		return "group_by"
	case *ConcatTransform:
		return "concat"
	default:
		return ""
	}
}

// TransformItem is one step of a transform sequence, addressed by its
// snake_case "type" discriminator.
type TransformItem struct {
	node transformNode
}

func (t *TransformItem) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeTag(node, "transform")
	if err != nil {
		return err
	}
	concrete := transformNodeFor(tag)
	if concrete == nil {
		return fmt.Errorf("unknown transform type %q (line %d)", tag, node.Line)
	}
	if err := decodeInto(node, concrete); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	t.node = concrete
	return nil
}

func (t TransformItem) MarshalYAML() (interface{}, error) {
	if t.node == nil {
		return nil, fmt.Errorf("cannot serialize an empty transform")
	}
	return taggedNode(transformTag(t.node), t.node)
}

// Apply extends the plan with this transform.
func (t TransformItem) Apply(lf dataframe.LazyFrame) (dataframe.LazyFrame, error) {
	if t.node == nil {
		return lf, fmt.Errorf("empty transform")
	}
	out, err := t.node.apply(lf)
	if err != nil {
		return lf, fmt.Errorf("%s: %w", transformTag(t.node), err)
	}
	return out, nil
}

func (t *TransformItem) bind(baseDir string) error {
	if b, ok := t.node.(pathBinder); ok {
		if err := b.bind(baseDir); err != nil {
			return fmt.Errorf("%s: %w", transformTag(t.node), err)
		}
	}
	return nil
}
