package config

import (
	"github.com/invopop/jsonschema"
)

// Schema reflects the JSON schema of a whole configuration document,
// suitable for editor completion and validation.
func Schema() *jsonschema.Schema {
	r := &jsonschema.Reflector{}
	s := r.Reflect(&Config{})
	s.Title = "detl configuration"
	s.Description = "Declarative document describing sources, transforms, and exports."
	return s
}

// taggedSchema describes one of the closed unions: an object whose
// "type" key selects the variant. Variant fields are left open since
// they differ per tag.
func taggedSchema(description string, tags []string) *jsonschema.Schema {
	enum := make([]interface{}, len(tags))
	for i, t := range tags {
		enum[i] = t
	}
	props := jsonschema.NewProperties()
	props.Set("type", &jsonschema.Schema{
		Type:        "string",
		Description: "Variant discriminator.",
		Enum:        enum,
	})
	return &jsonschema.Schema{
		Type:                 "object",
		Description:          description,
		Properties:           props,
		Required:             []string{"type"},
		AdditionalProperties: jsonschema.TrueSchema,
	}
}

func (SourceItem) JSONSchema() *jsonschema.Schema {
	return taggedSchema("A source of row data.", []string{
		"csv", "json_line", "json", "parquet", "avro", "inline", "config",
	})
}

func (TransformItem) JSONSchema() *jsonschema.Schema {
	return taggedSchema("One step of a transform sequence.", []string{
		"select", "drop", "rename", "filter", "extract", "unnest",
		"sort_by", "drop_duplicates", "join", "set", "with_columns",
		"explode", "collect", "group_by", "concat",
	})
}

func (ExportItem) JSONSchema() *jsonschema.Schema {
	return taggedSchema("An export destination.", []string{
		"csv", "nd_json", "json", "parquet",
	})
}

func (ExpressionItem) JSONSchema() *jsonschema.Schema {
	return taggedSchema("A column expression.", []string{
		"column", "literal", "null", "len", "element", "match",
		"and", "or", "not", "as_struct", "int_range", "concat_str",
		"condition",
	})
}

func (OpItem) JSONSchema() *jsonschema.Schema {
	return taggedSchema("One operation applied to a base expression.", []string{
		"alias", "cast", "extract_groups", "drop_null", "fill_null",
		"contains", "is_null", "eq", "neq", "gt", "lt", "gt_eq", "lt_eq",
		"and", "or", "add", "sub", "mul", "div", "str", "list", "struct",
	})
}

func (ExpressionChain) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "A base expression plus optional follow-on ops. A bare string is a column reference.",
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			taggedSchema("Expression with optional ops.", []string{
				"column", "literal", "null", "len", "element", "match",
				"and", "or", "not", "as_struct", "int_range", "concat_str",
				"condition",
			}),
		},
	}
}

func (ChainList) JSONSchema() *jsonschema.Schema {
	chain := ExpressionChain{}.JSONSchema()
	return &jsonschema.Schema{
		Description: "A single expression chain or a list of them.",
		OneOf: []*jsonschema.Schema{
			chain,
			{Type: "array", Items: chain},
		},
	}
}

func (SchemaDecl) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Column name to datatype mapping.",
		AdditionalProperties: &jsonschema.Schema{
			Type: "string",
			Enum: []interface{}{"Int64", "Float64", "String", "Boolean", "Datetime"},
		},
	}
}

func (Loader) JSONSchema() *jsonschema.Schema {
	s := SourceItem{}.JSONSchema()
	s.Description = "A source with its own transform sequence. Source fields are inlined."
	s.Properties.Set("transforms", &jsonschema.Schema{
		Type:  "array",
		Items: TransformItem{}.JSONSchema(),
	})
	return s
}
