// Package tabio reads and writes tabular files in the formats the
// pipeline understands: CSV, JSON, newline-delimited JSON, Parquet,
// and Avro OCF.
package tabio

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"detl/dataframe"
)

// CSVOptions control CSV decoding.
type CSVOptions struct {
	// Separator is the field separator; zero means comma.
	Separator rune
	// NoHeader treats the first record as data and synthesizes
	// column_1..column_n names.
	NoHeader bool
	// Schema pins datatypes for the named columns; unlisted columns
	// are inferred per cell.
	Schema dataframe.Schema
}

// ReadCSV reads one CSV file into a frame.
func ReadCSV(filename string, opts CSVOptions) (*dataframe.DataFrame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if opts.Separator != 0 {
		reader.Comma = opts.Separator
	}

	first, err := reader.Read()
	if err == io.EOF {
		return dataframe.New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header from %s: %w", filename, err)
	}

	var columns []string
	var pending [][]string
	if opts.NoHeader {
		columns = make([]string, len(first))
		for i := range first {
			columns[i] = "column_" + strconv.Itoa(i+1)
		}
		pending = append(pending, first)
	} else {
		columns = make([]string, len(first))
		for i, h := range first {
			columns[i] = strings.TrimSpace(h)
		}
	}

	dtypes := make([]*dataframe.DType, len(columns))
	for i, c := range columns {
		if dt, ok := opts.Schema.Lookup(c); ok {
			d := dt
			dtypes[i] = &d
		}
	}

	df := dataframe.New(columns)
	addRecord := func(record []string) error {
		vals := make([]dataframe.Value, len(columns))
		for i := range columns {
			if i >= len(record) {
				vals[i] = dataframe.Null()
				continue
			}
			cell := strings.TrimSpace(record[i])
			if dtypes[i] != nil {
				v, err := parseTyped(cell, *dtypes[i])
				if err != nil {
					return fmt.Errorf("column %q: %w", columns[i], err)
				}
				vals[i] = v
			} else {
				vals[i] = ParseCell(cell)
			}
		}
		df.AddRow(vals)
		return nil
	}

	for _, record := range pending {
		if err := addRecord(record); err != nil {
			return nil, err
		}
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV row: %w", err)
		}
		if err := addRecord(record); err != nil {
			return nil, err
		}
	}
	return df, nil
}

// ParseCell infers the type of a textual cell value.
func ParseCell(s string) dataframe.Value {
	if s == "" || strings.EqualFold(s, "null") {
		return dataframe.Null()
	}

	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return dataframe.IntVal(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return dataframe.FloatVal(v)
	}

	switch strings.ToLower(s) {
	case "true":
		return dataframe.BoolVal(true)
	case "false":
		return dataframe.BoolVal(false)
	}

	return dataframe.StrVal(s)
}

func parseTyped(s string, d dataframe.DType) (dataframe.Value, error) {
	if s == "" || strings.EqualFold(s, "null") {
		return dataframe.Null(), nil
	}
	return dataframe.StrVal(s).Cast(d)
}

// WriteCSV writes a frame as CSV with a header row.
func WriteCSV(filename string, df *dataframe.DataFrame) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filename, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	w := csv.NewWriter(f)
	if err := w.Write(df.Columns); err != nil {
		return err
	}
	record := make([]string, len(df.Columns))
	for _, row := range df.Rows {
		for i, v := range row.Values {
			if v.IsNull() {
				record[i] = ""
			} else {
				record[i] = v.AsString()
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
