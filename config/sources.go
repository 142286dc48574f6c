package config

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"detl/dataframe"
	"detl/tabio"
)

// sourceNode marks the closed set of source variants.
type sourceNode interface {
	sourceNode()
	// bind resolves the node's paths against the directory of the
	// document that declared it. It runs as part of parsing: a missing
	// path fails the whole parse.
	bind(baseDir string) error
	// load produces the lazy plan for this source.
	load() (dataframe.LazyFrame, error)
}

// CsvSource loads delimited-text files. The path may contain globs;
// every match must exist.
type CsvSource struct {
	Path      string     `yaml:"path"`
	Separator string     `yaml:"separator,omitempty"`
	HasHeader *bool      `yaml:"has_header,omitempty"`
	Schema    SchemaDecl `yaml:"schema,omitempty"`

	resolved []string
}

// JsonLineSource loads newline-delimited JSON files.
type JsonLineSource struct {
	Path   string     `yaml:"path"`
	Schema SchemaDecl `yaml:"schema,omitempty"`

	resolved []string
}

// JsonSource loads a single file containing a JSON array of objects.
type JsonSource struct {
	Path   string     `yaml:"path"`
	Schema SchemaDecl `yaml:"schema,omitempty"`

	resolved string
}

// ParquetSource loads Parquet files.
type ParquetSource struct {
	Path   string     `yaml:"path"`
	Schema SchemaDecl `yaml:"schema,omitempty"`

	resolved []string
}

// AvroSource loads Avro object container files.
type AvroSource struct {
	Path   string     `yaml:"path"`
	Schema SchemaDecl `yaml:"schema,omitempty"`

	resolved []string
}

// InlineColumn is one column of an inline literal table.
type InlineColumn struct {
	Name     string        `yaml:"name"`
	Datatype string        `yaml:"datatype"`
	Values   []interface{} `yaml:"values"`
}

// InlineSource declares a literal column-oriented table in the
// document itself, handy for mapping one set of values to another via
// a join.
type InlineSource struct {
	Columns []InlineColumn `yaml:"columns"`
}

// ConfigSource loads another whole configuration document as a data
// source. Relative paths inside the nested document resolve against
// that document's own directory.
type ConfigSource struct {
	Path string `yaml:"path"`

	resolved string
}

func (*CsvSource) sourceNode()      {}
func (*JsonLineSource) sourceNode() {}
func (*JsonSource) sourceNode()     {}
func (*ParquetSource) sourceNode()  {}
func (*AvroSource) sourceNode()     {}
func (*InlineSource) sourceNode()   {}
func (*ConfigSource) sourceNode()   {}

func (s *CsvSource) validate() error {
	if len([]rune(s.Separator)) > 1 {
		return fmt.Errorf("separator must be a single character, got %q", s.Separator)
	}
	return nil
}

func (s *InlineSource) validate() error {
	if len(s.Columns) == 0 {
		return fmt.Errorf("inline source must declare at least one column")
	}
	height := len(s.Columns[0].Values)
	for _, c := range s.Columns {
		if _, err := dataframe.ParseDType(c.Datatype); err != nil {
			return fmt.Errorf("inline column %q: %w", c.Name, err)
		}
		if len(c.Values) != height {
			return fmt.Errorf("inline column %q has %d values, expected %d", c.Name, len(c.Values), height)
		}
	}
	return nil
}

func (s *CsvSource) bind(baseDir string) (err error) {
	s.resolved, err = resolveGlob(baseDir, s.Path)
	return err
}

func (s *JsonLineSource) bind(baseDir string) (err error) {
	s.resolved, err = resolveGlob(baseDir, s.Path)
	return err
}

func (s *JsonSource) bind(baseDir string) (err error) {
	s.resolved, err = resolveFile(baseDir, s.Path)
	return err
}

func (s *ParquetSource) bind(baseDir string) (err error) {
	s.resolved, err = resolveGlob(baseDir, s.Path)
	return err
}

func (s *AvroSource) bind(baseDir string) (err error) {
	s.resolved, err = resolveGlob(baseDir, s.Path)
	return err
}

func (s *InlineSource) bind(string) error {
	return nil
}

func (s *ConfigSource) bind(baseDir string) (err error) {
	s.resolved, err = resolveFile(baseDir, s.Path)
	return err
}

// scanFiles defers reading a set of same-schema files, stacking them
// vertically.
func scanFiles(paths []string, read func(path string) (*dataframe.DataFrame, error)) dataframe.LazyFrame {
	return dataframe.Lazy(func() (*dataframe.DataFrame, error) {
		var result *dataframe.DataFrame
		for _, path := range paths {
			df, err := read(path)
			if err != nil {
				return nil, err
			}
			if result == nil {
				result = df
				continue
			}
			if result, err = dataframe.Concat(dataframe.ConcatVertical, result, df); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
		}
		if result == nil {
			result = dataframe.New(nil)
		}
		return result, nil
	})
}

func (s *CsvSource) load() (dataframe.LazyFrame, error) {
	opts := tabio.CSVOptions{Schema: s.Schema.Fields()}
	if s.Separator != "" {
		opts.Separator = []rune(s.Separator)[0]
	}
	if s.HasHeader != nil && !*s.HasHeader {
		opts.NoHeader = true
	}
	zap.L().Debug("scanning csv source", zap.Strings("paths", s.resolved))
	return scanFiles(s.resolved, func(path string) (*dataframe.DataFrame, error) {
		return tabio.ReadCSV(path, opts)
	}), nil
}

func (s *JsonLineSource) load() (dataframe.LazyFrame, error) {
	zap.L().Debug("scanning json_line source", zap.Strings("paths", s.resolved))
	return scanFiles(s.resolved, func(path string) (*dataframe.DataFrame, error) {
		return tabio.ReadJSONLines(path, s.Schema.Fields())
	}), nil
}

func (s *JsonSource) load() (dataframe.LazyFrame, error) {
	zap.L().Debug("scanning json source", zap.String("path", s.resolved))
	path := s.resolved
	schema := s.Schema.Fields()
	return dataframe.Lazy(func() (*dataframe.DataFrame, error) {
		return tabio.ReadJSON(path, schema)
	}), nil
}

func (s *ParquetSource) load() (dataframe.LazyFrame, error) {
	zap.L().Debug("scanning parquet source", zap.Strings("paths", s.resolved))
	return scanFiles(s.resolved, func(path string) (*dataframe.DataFrame, error) {
		return tabio.ReadParquet(path, s.Schema.Fields())
	}), nil
}

func (s *AvroSource) load() (dataframe.LazyFrame, error) {
	zap.L().Debug("scanning avro source", zap.Strings("paths", s.resolved))
	return scanFiles(s.resolved, func(path string) (*dataframe.DataFrame, error) {
		return tabio.ReadAvro(path, s.Schema.Fields())
	}), nil
}

func (s *InlineSource) load() (dataframe.LazyFrame, error) {
	columns := make([]string, len(s.Columns))
	cells := make([][]dataframe.Value, len(s.Columns))
	for i, c := range s.Columns {
		dt, err := dataframe.ParseDType(c.Datatype)
		if err != nil {
			return dataframe.LazyFrame{}, err
		}
		columns[i] = c.Name
		cells[i] = make([]dataframe.Value, len(c.Values))
		for j, raw := range c.Values {
			v, err := inlineValue(raw).Cast(dt)
			if err != nil {
				return dataframe.LazyFrame{}, fmt.Errorf("inline column %q: %w", c.Name, err)
			}
			cells[i][j] = v
		}
	}

	df := dataframe.New(columns)
	if len(s.Columns) > 0 {
		for r := range s.Columns[0].Values {
			vals := make([]dataframe.Value, len(columns))
			for c := range columns {
				vals[c] = cells[c][r]
			}
			df.AddRow(vals)
		}
	}
	return dataframe.Eager(df), nil
}

func inlineValue(raw interface{}) dataframe.Value {
	switch v := raw.(type) {
	case nil:
		return dataframe.Null()
	case int:
		return dataframe.IntVal(int64(v))
	case int64:
		return dataframe.IntVal(v)
	case float64:
		return dataframe.FloatVal(v)
	case bool:
		return dataframe.BoolVal(v)
	case string:
		return dataframe.StrVal(v)
	default:
		return dataframe.StrVal(fmt.Sprintf("%v", v))
	}
}

// Loading a config source re-enters parsing: the nested document is
// resolved with its own parent directory as base, so its relative
// paths are scoped to its own location.
func (s *ConfigSource) load() (dataframe.LazyFrame, error) {
	zap.L().Debug("loading nested config source", zap.String("path", s.resolved))
	nested, err := FromPath(s.resolved)
	if err != nil {
		return dataframe.LazyFrame{}, fmt.Errorf("config source %s: %w", s.resolved, err)
	}
	lf, err := nested.Load()
	if err != nil {
		return dataframe.LazyFrame{}, fmt.Errorf("config source %s: %w", s.resolved, err)
	}
	return lf, nil
}

func sourceNodeFor(tag string) sourceNode {
	switch tag {
	case "csv":
		return &CsvSource{}
	case "json_line":
		return &JsonLineSource{}
	case "json":
		return &JsonSource{}
	case "parquet":
		return &ParquetSource{}
	case "avro":
		return &AvroSource{}
	case "inline":
		return &InlineSource{}
	case "config":
		return &ConfigSource{}
	default:
		return nil
	}
}

func sourceTag(n sourceNode) string {
	switch n.(type) {
	case *CsvSource:
		return "csv"
	case *JsonLineSource:
		return "json_line"
	case *JsonSource:
		return "json"
	case *ParquetSource:
		return "parquet"
	case *AvroSource:
		return "avro"
	case *InlineSource:
		return "inline"
	case *ConfigSource:
		return "config"
	default:
		return ""
	}
}

// SourceItem is one source of row data, addressed by its snake_case
// "type" discriminator.
type SourceItem struct {
	node sourceNode
}

func (s *SourceItem) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeTag(node, "source")
	if err != nil {
		return err
	}
	concrete := sourceNodeFor(tag)
	if concrete == nil {
		return fmt.Errorf("unknown source type %q (line %d)", tag, node.Line)
	}
	if err := decodeInto(node, concrete); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	s.node = concrete
	return nil
}

func (s SourceItem) MarshalYAML() (interface{}, error) {
	if s.node == nil {
		return nil, fmt.Errorf("cannot serialize an empty source")
	}
	return taggedNode(sourceTag(s.node), s.node)
}

// Load produces the lazy plan for the source.
func (s SourceItem) Load() (dataframe.LazyFrame, error) {
	if s.node == nil {
		return dataframe.LazyFrame{}, fmt.Errorf("no source declared")
	}
	lf, err := s.node.load()
	if err != nil {
		return dataframe.LazyFrame{}, fmt.Errorf("%s source: %w", sourceTag(s.node), err)
	}
	return lf, nil
}

func (s SourceItem) bind(baseDir string) error {
	if s.node == nil {
		return fmt.Errorf("no source declared")
	}
	if err := s.node.bind(baseDir); err != nil {
		return fmt.Errorf("%s source: %w", sourceTag(s.node), err)
	}
	return nil
}

// Loader binds a source to its own ordered transform sequence,
// producing one plan. In documents the source fields are inlined:
//
//	source:
//	  type: csv
//	  path: ./data/*.csv
//	  transforms:
//	    - type: select
//	      columns: [a, b]
type Loader struct {
	Source     SourceItem
	Transforms []TransformItem
}

func (l *Loader) UnmarshalYAML(node *yaml.Node) error {
	if err := node.Decode(&l.Source); err != nil {
		return err
	}
	var aux struct {
		Transforms []TransformItem `yaml:"transforms"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	l.Transforms = aux.Transforms
	return nil
}

func (l Loader) MarshalYAML() (interface{}, error) {
	base, err := l.Source.MarshalYAML()
	if err != nil {
		return nil, err
	}
	n := base.(*yaml.Node)
	if len(l.Transforms) > 0 {
		var transforms yaml.Node
		if err := transforms.Encode(l.Transforms); err != nil {
			return nil, err
		}
		n.Content = append(n.Content, scalarNode("transforms"), &transforms)
	}
	return n, nil
}

// Load composes the source plan with the loader's transforms in
// document order.
func (l Loader) Load() (dataframe.LazyFrame, error) {
	lf, err := l.Source.Load()
	if err != nil {
		return dataframe.LazyFrame{}, err
	}
	for _, t := range l.Transforms {
		if lf, err = t.Apply(lf); err != nil {
			return dataframe.LazyFrame{}, err
		}
	}
	return lf, nil
}

func (l *Loader) bind(baseDir string) error {
	if err := l.Source.bind(baseDir); err != nil {
		return err
	}
	for i := range l.Transforms {
		if err := l.Transforms[i].bind(baseDir); err != nil {
			return err
		}
	}
	return nil
}
