package tabio

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/multierr"

	"detl/dataframe"
)

// ReadJSON reads a file containing a JSON array of objects.
func ReadJSON(filename string, schema dataframe.Schema) (*dataframe.DataFrame, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", filename, err)
	}

	var records []map[string]interface{}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("cannot parse JSON from %s: %w (expected array of objects)", filename, err)
	}

	return recordsFrame(records, schema)
}

// ReadJSONLines reads newline-delimited JSON, one object per line.
func ReadJSONLines(filename string, schema dataframe.Schema) (*dataframe.DataFrame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	var records []map[string]interface{}
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("invalid JSON on line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", filename, err)
	}

	return recordsFrame(records, schema)
}

// recordsFrame builds a frame from decoded objects. Columns are the
// union of keys in first-seen order.
func recordsFrame(records []map[string]interface{}, schema dataframe.Schema) (*dataframe.DataFrame, error) {
	colSet := make(map[string]bool)
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !colSet[k] {
				colSet[k] = true
				columns = append(columns, k)
			}
		}
	}

	df := dataframe.New(columns)
	for _, rec := range records {
		vals := make([]dataframe.Value, len(columns))
		for i, col := range columns {
			v, ok := rec[col]
			if !ok || v == nil {
				vals[i] = dataframe.Null()
				continue
			}
			vals[i] = jsonValue(v)
		}
		df.AddRow(vals)
	}

	return applySchema(df, schema)
}

func jsonValue(v interface{}) dataframe.Value {
	switch val := v.(type) {
	case float64:
		// JSON numbers decode as float64; keep integral ones as ints.
		if val == float64(int64(val)) {
			return dataframe.IntVal(int64(val))
		}
		return dataframe.FloatVal(val)
	case string:
		return dataframe.StrVal(val)
	case bool:
		return dataframe.BoolVal(val)
	case nil:
		return dataframe.Null()
	case []interface{}:
		items := make([]dataframe.Value, len(val))
		for i, item := range val {
			items[i] = jsonValue(item)
		}
		return dataframe.ListVal(items)
	case map[string]interface{}:
		fields := make([]dataframe.Field, 0, len(val))
		for _, k := range sortedKeys(val) {
			fields = append(fields, dataframe.Field{Name: k, Value: jsonValue(val[k])})
		}
		return dataframe.StructVal(fields)
	default:
		b, _ := json.Marshal(val)
		return dataframe.StrVal(string(b))
	}
}

// applySchema casts the named columns to their pinned datatypes.
func applySchema(df *dataframe.DataFrame, schema dataframe.Schema) (*dataframe.DataFrame, error) {
	if len(schema) == 0 {
		return df, nil
	}
	for i, col := range df.Columns {
		dt, ok := schema.Lookup(col)
		if !ok {
			continue
		}
		for r := range df.Rows {
			v, err := df.Rows[r].Values[i].Cast(dt)
			if err != nil {
				return nil, fmt.Errorf("column %q: %w", col, err)
			}
			df.Rows[r].Values[i] = v
		}
	}
	return df, nil
}

// jsonCell converts a frame value back to a JSON-encodable value.
func jsonCell(v dataframe.Value) interface{} {
	switch v.Type {
	case dataframe.TypeNull:
		return nil
	case dataframe.TypeInt:
		return v.Int
	case dataframe.TypeFloat:
		return v.Float
	case dataframe.TypeBool:
		return v.Bool
	case dataframe.TypeDatetime:
		return v.Time
	case dataframe.TypeList:
		items := make([]interface{}, len(v.List))
		for i, item := range v.List {
			items[i] = jsonCell(item)
		}
		return items
	case dataframe.TypeStruct:
		obj := make(map[string]interface{}, len(v.Fields))
		for _, f := range v.Fields {
			obj[f.Name] = jsonCell(f.Value)
		}
		return obj
	default:
		return v.AsString()
	}
}

func rowObject(df *dataframe.DataFrame, row dataframe.Row) map[string]interface{} {
	obj := make(map[string]interface{}, len(df.Columns))
	for i, col := range df.Columns {
		obj[col] = jsonCell(row.Values[i])
	}
	return obj
}

// WriteJSONLines writes one JSON object per row, newline-delimited.
func WriteJSONLines(filename string, df *dataframe.DataFrame) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filename, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	enc := json.NewEncoder(f)
	for _, row := range df.Rows {
		if err := enc.Encode(rowObject(df, row)); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes the whole frame as a single JSON array of objects.
func WriteJSON(filename string, df *dataframe.DataFrame) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filename, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	objs := make([]map[string]interface{}, len(df.Rows))
	for i, row := range df.Rows {
		objs[i] = rowObject(df, row)
	}
	enc := json.NewEncoder(f)
	return enc.Encode(objs)
}

// Deterministic field order for struct values.
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
