package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Every polymorphic node in a configuration document is a mapping
// carrying a snake_case "type" discriminator naming its variant.

func decodeTag(node *yaml.Node, what string) (string, error) {
	if node.Kind != yaml.MappingNode {
		return "", fmt.Errorf("%s must be a mapping with a %q discriminator (line %d)", what, "type", node.Line)
	}
	var aux struct {
		Type string `yaml:"type"`
	}
	if err := node.Decode(&aux); err != nil {
		return "", err
	}
	if aux.Type == "" {
		return "", fmt.Errorf("%s is missing its %q discriminator (line %d)", what, "type", node.Line)
	}
	return aux.Type, nil
}

// validator is implemented by nodes with structural invariants that
// must hold before any evaluation is attempted.
type validator interface {
	validate() error
}

func decodeInto(node *yaml.Node, concrete interface{}) error {
	if err := node.Decode(concrete); err != nil {
		return err
	}
	if v, ok := concrete.(validator); ok {
		return v.validate()
	}
	return nil
}

func scalarNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s}
}

// taggedNode marshals a concrete variant and prepends its "type"
// discriminator, so a re-parsed document decodes to the same variant.
func taggedNode(tag string, concrete interface{}) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(concrete); err != nil {
		return nil, err
	}
	if n.Kind != yaml.MappingNode {
		n = yaml.Node{Kind: yaml.MappingNode}
	}
	n.Content = append([]*yaml.Node{scalarNode("type"), scalarNode(tag)}, n.Content...)
	return &n, nil
}
