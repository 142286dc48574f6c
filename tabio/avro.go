package tabio

import (
	"encoding/json"
	"fmt"
	"os"

	goavro "github.com/linkedin/goavro/v2"

	"detl/dataframe"
)

// ReadAvro reads an Avro object container file into a frame. Columns
// come from the writer schema's record fields, in schema order.
func ReadAvro(filename string, schema dataframe.Schema) (*dataframe.DataFrame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("cannot read Avro OCF from %s: %w", filename, err)
	}

	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schemaDef); err != nil {
		return nil, fmt.Errorf("cannot parse Avro schema: %w", err)
	}

	columns := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
	}

	df := dataframe.New(columns)
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("error reading Avro record: %w", err)
		}

		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}

		vals := make([]dataframe.Value, len(columns))
		for i, col := range columns {
			v, exists := rec[col]
			if !exists || v == nil {
				vals[i] = dataframe.Null()
				continue
			}
			vals[i] = avroValue(v)
		}
		df.AddRow(vals)
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("error reading Avro file: %w", err)
	}

	return applySchema(df, schema)
}

func avroValue(v interface{}) dataframe.Value {
	if v == nil {
		return dataframe.Null()
	}
	switch val := v.(type) {
	case int32:
		return dataframe.IntVal(int64(val))
	case int64:
		return dataframe.IntVal(val)
	case float32:
		return dataframe.FloatVal(float64(val))
	case float64:
		return dataframe.FloatVal(val)
	case string:
		return dataframe.StrVal(val)
	case bool:
		return dataframe.BoolVal(val)
	case []byte:
		return dataframe.StrVal(string(val))
	case []interface{}:
		items := make([]dataframe.Value, len(val))
		for i, item := range val {
			items[i] = avroValue(item)
		}
		return dataframe.ListVal(items)
	case map[string]interface{}:
		// Unions decode as a single {"type": value} wrapper.
		if len(val) == 1 {
			for _, inner := range val {
				return avroValue(inner)
			}
		}
		fields := make([]dataframe.Field, 0, len(val))
		for _, k := range sortedKeys(val) {
			fields = append(fields, dataframe.Field{Name: k, Value: avroValue(val[k])})
		}
		return dataframe.StructVal(fields)
	default:
		return dataframe.StrVal(fmt.Sprintf("%v", val))
	}
}
