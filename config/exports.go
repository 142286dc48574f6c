package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"detl/dataframe"
	"detl/tabio"
)

// exportNode marks the closed set of export destinations. Every
// variant writes the collected frame into a folder as
// <name><timestamp>.<ext>, creating the folder if needed.
type exportNode interface {
	exportNode()
	bind(baseDir string) error
	export(lf dataframe.LazyFrame) error
}

// fileExport is the destination shared by all file-based exports. The
// optional date_format is a Go reference-time layout appended to the
// filename, so repeated runs do not overwrite each other.
type fileExport struct {
	Folder     string `yaml:"folder"`
	Name       string `yaml:"name"`
	DateFormat string `yaml:"date_format,omitempty"`

	resolved string
}

func (e *fileExport) bind(baseDir string) error {
	e.resolved = resolveDir(baseDir, e.Folder)
	return nil
}

func (e *fileExport) filename(ext string) (string, error) {
	if err := os.MkdirAll(e.resolved, 0o755); err != nil {
		return "", &PathError{Path: e.resolved, Err: err}
	}
	name := e.Name
	if e.DateFormat != "" {
		name += time.Now().Format(e.DateFormat)
	}
	return filepath.Join(e.resolved, name+ext), nil
}

func (e *fileExport) write(lf dataframe.LazyFrame, ext string, write func(path string, df *dataframe.DataFrame) error) error {
	df, err := lf.Collect()
	if err != nil {
		return err
	}
	path, err := e.filename(ext)
	if err != nil {
		return err
	}
	zap.L().Info("writing export",
		zap.String("path", path),
		zap.Int("rows", df.Height()),
		zap.Int("columns", len(df.Columns)))
	return write(path, df)
}

// CsvExport writes the frame as a CSV file with a header row.
type CsvExport struct {
	fileExport `yaml:",inline"`
}

// NdJsonExport writes the frame as newline-delimited JSON objects.
type NdJsonExport struct {
	fileExport `yaml:",inline"`
}

// JsonExport writes the frame as a single JSON array of objects.
type JsonExport struct {
	fileExport `yaml:",inline"`
}

// ParquetExport writes the frame as a Parquet file, typing columns
// from the frame's inferred schema.
type ParquetExport struct {
	fileExport `yaml:",inline"`
}

func (*CsvExport) exportNode()     {}
func (*NdJsonExport) exportNode()  {}
func (*JsonExport) exportNode()    {}
func (*ParquetExport) exportNode() {}

func (e *CsvExport) export(lf dataframe.LazyFrame) error {
	return e.write(lf, ".csv", tabio.WriteCSV)
}

func (e *NdJsonExport) export(lf dataframe.LazyFrame) error {
	return e.write(lf, ".ndjson", tabio.WriteJSONLines)
}

func (e *JsonExport) export(lf dataframe.LazyFrame) error {
	return e.write(lf, ".json", tabio.WriteJSON)
}

func (e *ParquetExport) export(lf dataframe.LazyFrame) error {
	return e.write(lf, ".parquet", tabio.WriteParquet)
}

func exportNodeFor(tag string) exportNode {
	switch tag {
	case "csv":
		return &CsvExport{}
	case "nd_json":
		return &NdJsonExport{}
	case "json":
		return &JsonExport{}
	case "parquet":
		return &ParquetExport{}
	default:
		return nil
	}
}

func exportTag(n exportNode) string {
	switch n.(type) {
	case *CsvExport:
		return "csv"
	case *NdJsonExport:
		return "nd_json"
	case *JsonExport:
		return "json"
	case *ParquetExport:
		return "parquet"
	default:
		return ""
	}
}

// ExportItem is one export destination, addressed by its snake_case
// "type" discriminator.
type ExportItem struct {
	node exportNode
}

func (e *ExportItem) UnmarshalYAML(node *yaml.Node) error {
	tag, err := decodeTag(node, "export")
	if err != nil {
		return err
	}
	concrete := exportNodeFor(tag)
	if concrete == nil {
		return fmt.Errorf("unknown export type %q (line %d)", tag, node.Line)
	}
	if err := decodeInto(node, concrete); err != nil {
		return fmt.Errorf("%s: %w", tag, err)
	}
	e.node = concrete
	return nil
}

func (e ExportItem) MarshalYAML() (interface{}, error) {
	if e.node == nil {
		return nil, fmt.Errorf("cannot serialize an empty export")
	}
	return taggedNode(exportTag(e.node), e.node)
}

// Export collects the plan and writes it to the destination.
func (e ExportItem) Export(lf dataframe.LazyFrame) error {
	if e.node == nil {
		return fmt.Errorf("empty export")
	}
	if err := e.node.export(lf); err != nil {
		return fmt.Errorf("%s export: %w", exportTag(e.node), err)
	}
	return nil
}

func (e *ExportItem) bind(baseDir string) error {
	if e.node == nil {
		return fmt.Errorf("empty export")
	}
	return e.node.bind(baseDir)
}
