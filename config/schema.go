package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// SchemaDecl is an ordered column-to-datatype mapping used to pin
// source datatypes, e.g.:
//
//	schema:
//	  id: Int64
//	  name: String
type SchemaDecl struct {
	fields dataframe.Schema
}

// Fields returns the declared schema.
func (s SchemaDecl) Fields() dataframe.Schema {
	return s.fields
}

// NewSchemaDecl builds a declaration from an existing schema.
func NewSchemaDecl(fields dataframe.Schema) SchemaDecl {
	return SchemaDecl{fields: fields}
}

func (s *SchemaDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("schema must be a mapping of column names to datatypes (line %d)", node.Line)
	}
	s.fields = nil
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		dt, err := dataframe.ParseDType(node.Content[i+1].Value)
		if err != nil {
			return fmt.Errorf("schema column %q: %w", name, err)
		}
		s.fields = append(s.fields, dataframe.SchemaField{Name: name, Type: dt})
	}
	return nil
}

func (s SchemaDecl) MarshalYAML() (interface{}, error) {
	n := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range s.fields {
		n.Content = append(n.Content, scalarNode(f.Name), scalarNode(f.Type.String()))
	}
	return n, nil
}

func (s SchemaDecl) IsZero() bool {
	return len(s.fields) == 0
}
