// Package config implements the declarative pipeline document: typed
// sources, ordered transforms, and export destinations, deserialized
// from YAML into a closed AST and compiled into lazy dataframe plans.
//
// Relative paths in a document resolve against the directory of the
// file that declares them. A config source re-enters parsing for the
// nested document with that document's own directory as base, so
// documents compose without caring where the top-level file lives.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"detl/dataframe"
)

// Config is a complete pipeline document.
type Config struct {
	Source     Loader
	Transforms []TransformItem `yaml:"transforms,omitempty"`
	Exports    []ExportItem    `yaml:"exports,omitempty"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	var aux struct {
		Source     Loader          `yaml:"source"`
		Transforms []TransformItem `yaml:"transforms"`
		Exports    []ExportItem    `yaml:"exports"`
	}
	if err := node.Decode(&aux); err != nil {
		return err
	}
	c.Source = aux.Source
	c.Transforms = aux.Transforms
	c.Exports = aux.Exports
	return nil
}

func (c Config) MarshalYAML() (interface{}, error) {
	source, err := c.Source.MarshalYAML()
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{"source": source}
	if len(c.Transforms) > 0 {
		out["transforms"] = c.Transforms
	}
	if len(c.Exports) > 0 {
		out["exports"] = c.Exports
	}
	return out, nil
}

// Parse decodes a document and resolves every path it declares
// against baseDir. Resolution failures fail the parse.
func Parse(data []byte, baseDir string) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.bind(baseDir); err != nil {
		return nil, err
	}
	return &c, nil
}

// FromPath reads and parses the document at path. The document's own
// directory becomes the base for its relative paths.
func FromPath(path string) (*Config, error) {
	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	if canonical, err = filepath.Abs(canonical); err != nil {
		return nil, &PathError{Path: path, Err: err}
	}
	data, err := os.ReadFile(canonical)
	if err != nil {
		return nil, &PathError{Path: canonical, Err: err}
	}
	cfg, err := Parse(data, filepath.Dir(canonical))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", canonical, err)
	}
	return cfg, nil
}

func (c *Config) bind(baseDir string) error {
	if err := c.Source.bind(baseDir); err != nil {
		return err
	}
	for i := range c.Transforms {
		if err := c.Transforms[i].bind(baseDir); err != nil {
			return err
		}
	}
	for i := range c.Exports {
		if err := c.Exports[i].bind(baseDir); err != nil {
			return err
		}
	}
	return nil
}

// Load builds the full plan: the source plan, the source's own
// transforms, then the top-level transforms, without exporting.
func (c *Config) Load() (dataframe.LazyFrame, error) {
	lf, err := c.Source.Load()
	if err != nil {
		return dataframe.LazyFrame{}, err
	}
	for _, t := range c.Transforms {
		if lf, err = t.Apply(lf); err != nil {
			return dataframe.LazyFrame{}, err
		}
	}
	return lf, nil
}

// Run builds the plan and feeds it to every export in order. A
// document without exports is refused before any data is read. The
// first failing export aborts the run.
func (c *Config) Run() error {
	if len(c.Exports) == 0 {
		return ErrNoExports
	}
	lf, err := c.Load()
	if err != nil {
		return err
	}
	zap.L().Debug("running config", zap.Int("exports", len(c.Exports)))
	for _, e := range c.Exports {
		if err := e.Export(lf); err != nil {
			return err
		}
	}
	return nil
}
