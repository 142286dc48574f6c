package tabio

import (
	"fmt"
	"io"
	"os"

	parquet "github.com/parquet-go/parquet-go"
	"go.uber.org/multierr"

	"detl/dataframe"
)

// ReadParquet reads a Parquet file into a frame. Only flat schemas
// are supported; nested groups are rejected.
func ReadParquet(filename string, schema dataframe.Schema) (*dataframe.DataFrame, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", filename, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	pf, err := parquet.OpenFile(f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("cannot read Parquet from %s: %w", filename, err)
	}

	columns := make([]string, 0, len(pf.Schema().Fields()))
	for _, field := range pf.Schema().Fields() {
		if !field.Leaf() {
			return nil, fmt.Errorf("%s: nested Parquet field %q is not supported", filename, field.Name())
		}
		columns = append(columns, field.Name())
	}

	df := dataframe.New(columns)
	for _, rg := range pf.RowGroups() {
		rows := rg.Rows()
		buf := make([]parquet.Row, 64)
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				vals := make([]dataframe.Value, len(columns))
				for i := range vals {
					vals[i] = dataframe.Null()
				}
				for _, pv := range row {
					c := pv.Column()
					if c >= 0 && c < len(vals) {
						vals[c] = parquetValue(pv)
					}
				}
				df.AddRow(vals)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				rows.Close()
				return nil, fmt.Errorf("error reading Parquet rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return nil, err
		}
	}

	return applySchema(df, schema)
}

func parquetValue(v parquet.Value) dataframe.Value {
	if v.IsNull() {
		return dataframe.Null()
	}
	switch v.Kind() {
	case parquet.Boolean:
		return dataframe.BoolVal(v.Boolean())
	case parquet.Int32:
		return dataframe.IntVal(int64(v.Int32()))
	case parquet.Int64:
		return dataframe.IntVal(v.Int64())
	case parquet.Float:
		return dataframe.FloatVal(float64(v.Float()))
	case parquet.Double:
		return dataframe.FloatVal(v.Double())
	case parquet.ByteArray, parquet.FixedLenByteArray:
		return dataframe.StrVal(string(v.ByteArray()))
	default:
		return dataframe.StrVal(v.String())
	}
}

// WriteParquet writes a frame as a flat Parquet file. The physical
// schema is derived from the frame's inferred schema; every column is
// optional.
func WriteParquet(filename string, df *dataframe.DataFrame) (err error) {
	inferred := df.InferSchema()
	group := parquet.Group{}
	for _, field := range inferred {
		var node parquet.Node
		switch field.Type {
		case dataframe.DTypeInt64:
			node = parquet.Int(64)
		case dataframe.DTypeFloat64:
			node = parquet.Leaf(parquet.DoubleType)
		case dataframe.DTypeBoolean:
			node = parquet.Leaf(parquet.BooleanType)
		case dataframe.DTypeDatetime:
			node = parquet.Timestamp(parquet.Millisecond)
		default:
			node = parquet.String()
		}
		group[field.Name] = parquet.Optional(node)
	}
	schema := parquet.NewSchema("", group)

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create %s: %w", filename, err)
	}
	defer func() {
		err = multierr.Append(err, f.Close())
	}()

	w := parquet.NewGenericWriter[map[string]interface{}](f, schema)
	rows := make([]map[string]interface{}, len(df.Rows))
	for i, row := range df.Rows {
		obj := make(map[string]interface{}, len(df.Columns))
		for c, col := range df.Columns {
			obj[col] = parquetCell(row.Values[c], inferred[c].Type)
		}
		rows[i] = obj
	}
	if len(rows) > 0 {
		if _, err := w.Write(rows); err != nil {
			return fmt.Errorf("error writing Parquet rows: %w", err)
		}
	}
	return w.Close()
}

func parquetCell(v dataframe.Value, d dataframe.DType) interface{} {
	if v.IsNull() {
		return nil
	}
	switch d {
	case dataframe.DTypeInt64:
		if f, ok := v.AsFloat(); ok {
			return int64(f)
		}
	case dataframe.DTypeFloat64:
		if f, ok := v.AsFloat(); ok {
			return f
		}
	case dataframe.DTypeBoolean:
		if v.Type == dataframe.TypeBool {
			return v.Bool
		}
	case dataframe.DTypeDatetime:
		if v.Type == dataframe.TypeDatetime {
			return v.Time
		}
	}
	return v.AsString()
}
