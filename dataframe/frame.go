package dataframe

import (
	"fmt"
	"sort"
	"strings"
)

// Row is a single row in a frame.
type Row struct {
	Values []Value
}

// DataFrame is the materialized tabular structure: named columns plus
// rows of dynamically typed values.
type DataFrame struct {
	Columns []string
	Rows    []Row
}

// New creates an empty frame with the given columns.
func New(columns []string) *DataFrame {
	return &DataFrame{Columns: columns}
}

// ColIndex returns the index of a column by name, or -1.
func (df *DataFrame) ColIndex(name string) int {
	for i, c := range df.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// AddRow appends a row to the frame.
func (df *DataFrame) AddRow(values []Value) {
	df.Rows = append(df.Rows, Row{Values: values})
}

// Get returns the value at a given row and column name.
func (df *DataFrame) Get(row int, col string) Value {
	idx := df.ColIndex(col)
	if idx < 0 || row < 0 || row >= len(df.Rows) {
		return Null()
	}
	return df.Rows[row].Values[idx]
}

// Height returns the number of rows.
func (df *DataFrame) Height() int {
	return len(df.Rows)
}

// Clone creates a copy of the frame structure (cell values are shared).
func (df *DataFrame) Clone() *DataFrame {
	cols := make([]string, len(df.Columns))
	copy(cols, df.Columns)
	rows := make([]Row, len(df.Rows))
	for i, r := range df.Rows {
		vals := make([]Value, len(r.Values))
		copy(vals, r.Values)
		rows[i] = Row{Values: vals}
	}
	return &DataFrame{Columns: cols, Rows: rows}
}

// InferSchema derives a column-to-datatype mapping from the first
// non-null value observed in each column.
func (df *DataFrame) InferSchema() Schema {
	schema := make(Schema, 0, len(df.Columns))
	for i, col := range df.Columns {
		dt := DTypeString
		for _, row := range df.Rows {
			v := row.Values[i]
			if v.IsNull() {
				continue
			}
			switch v.Type {
			case TypeInt:
				dt = DTypeInt64
			case TypeFloat:
				dt = DTypeFloat64
			case TypeBool:
				dt = DTypeBoolean
			case TypeDatetime:
				dt = DTypeDatetime
			}
			break
		}
		schema = append(schema, SchemaField{Name: col, Type: dt})
	}
	return schema
}

// Select evaluates the given expressions row by row, producing a frame
// with one column per expression.
func (df *DataFrame) Select(exprs ...Expr) (*DataFrame, error) {
	names, cells, err := df.evalColumns(exprs)
	if err != nil {
		return nil, err
	}
	result := New(names)
	for r := 0; r < df.Height(); r++ {
		vals := make([]Value, len(exprs))
		for c := range exprs {
			vals[c] = cells[c][r]
		}
		result.AddRow(vals)
	}
	return dropFlaggedNulls(result, exprs, nil), nil
}

// WithColumns appends (or overwrites) one computed column per
// expression, keeping all existing columns.
func (df *DataFrame) WithColumns(exprs ...Expr) (*DataFrame, error) {
	names, cells, err := df.evalColumns(exprs)
	if err != nil {
		return nil, err
	}
	result := df.Clone()
	for c, name := range names {
		idx := result.ColIndex(name)
		if idx < 0 {
			result.Columns = append(result.Columns, name)
			for r := range result.Rows {
				result.Rows[r].Values = append(result.Rows[r].Values, cells[c][r])
			}
			continue
		}
		for r := range result.Rows {
			result.Rows[r].Values[idx] = cells[c][r]
		}
	}
	return result, nil
}

func (df *DataFrame) evalColumns(exprs []Expr) ([]string, [][]Value, error) {
	names := make([]string, len(exprs))
	cells := make([][]Value, len(exprs))
	for c, e := range exprs {
		names[c] = e.Name()
		cells[c] = make([]Value, df.Height())
		for r := 0; r < df.Height(); r++ {
			v, err := e.eval(&evalContext{frame: df, row: r})
			if err != nil {
				return nil, nil, fmt.Errorf("column %q: %w", e.Name(), err)
			}
			cells[c][r] = v
		}
	}
	return names, cells, nil
}

// dropFlaggedNulls removes rows where an expression marked with
// DropNulls produced a null.
func dropFlaggedNulls(df *DataFrame, exprs []Expr, indices []int) *DataFrame {
	flagged := make([]int, 0, len(exprs))
	for i, e := range exprs {
		if e.dropNulls {
			if indices != nil {
				flagged = append(flagged, indices[i])
			} else {
				flagged = append(flagged, i)
			}
		}
	}
	if len(flagged) == 0 {
		return df
	}
	result := New(df.Columns)
	for _, row := range df.Rows {
		keep := true
		for _, idx := range flagged {
			if row.Values[idx].IsNull() {
				keep = false
				break
			}
		}
		if keep {
			result.AddRow(row.Values)
		}
	}
	return result
}

// Filter keeps rows for which the expression evaluates true.
func (df *DataFrame) Filter(e Expr) (*DataFrame, error) {
	result := New(df.Columns)
	for r, row := range df.Rows {
		v, err := e.eval(&evalContext{frame: df, row: r})
		if err != nil {
			return nil, fmt.Errorf("filter: %w", err)
		}
		b, ok := v.AsBool()
		if !ok {
			return nil, fmt.Errorf("filter: expression did not return boolean, got %v", v.AsString())
		}
		if b {
			result.AddRow(row.Values)
		}
	}
	return result, nil
}

// Drop removes columns by name.
func (df *DataFrame) Drop(columns ...string) (*DataFrame, error) {
	dropSet := make(map[string]bool)
	for _, c := range columns {
		if df.ColIndex(c) < 0 {
			return nil, fmt.Errorf("drop: column %q not found", c)
		}
		dropSet[c] = true
	}

	var keepCols []string
	var keepIndices []int
	for i, c := range df.Columns {
		if !dropSet[c] {
			keepCols = append(keepCols, c)
			keepIndices = append(keepIndices, i)
		}
	}

	result := New(keepCols)
	for _, row := range df.Rows {
		vals := make([]Value, len(keepIndices))
		for i, idx := range keepIndices {
			vals[i] = row.Values[idx]
		}
		result.AddRow(vals)
	}
	return result, nil
}

// RenamePair maps an old column name to a new one.
type RenamePair struct {
	Old string
	New string
}

// Rename renames columns.
func (df *DataFrame) Rename(pairs []RenamePair) (*DataFrame, error) {
	newCols := make([]string, len(df.Columns))
	copy(newCols, df.Columns)

	for _, pair := range pairs {
		found := false
		for i, c := range newCols {
			if c == pair.Old {
				newCols[i] = pair.New
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("rename: column %q not found", pair.Old)
		}
	}

	result := New(newCols)
	result.Rows = df.Rows
	return result, nil
}

// RenamePrefix prepends a prefix to every column name.
func (df *DataFrame) RenamePrefix(prefix string) *DataFrame {
	newCols := make([]string, len(df.Columns))
	for i, c := range df.Columns {
		newCols[i] = prefix + c
	}
	result := New(newCols)
	result.Rows = df.Rows
	return result
}

// SortKey names a sort column and its direction.
type SortKey struct {
	Column     string
	Descending bool
}

// Sort orders rows by the given keys. The sort is stable; nulls sort
// last regardless of direction.
func (df *DataFrame) Sort(keys []SortKey) (*DataFrame, error) {
	indices := make([]int, len(keys))
	for i, k := range keys {
		idx := df.ColIndex(k.Column)
		if idx < 0 {
			return nil, fmt.Errorf("sort: column %q not found", k.Column)
		}
		indices[i] = idx
	}

	result := df.Clone()
	sort.SliceStable(result.Rows, func(i, j int) bool {
		for n, idx := range indices {
			a := result.Rows[i].Values[idx]
			b := result.Rows[j].Values[idx]
			cmp := Compare(a, b)
			if cmp != 0 {
				if keys[n].Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
	return result, nil
}

// KeepStrategy selects which of a set of duplicate rows survives.
type KeepStrategy int

const (
	KeepAny KeepStrategy = iota
	KeepFirst
	KeepLast
	KeepNone
)

// Unique deduplicates rows. An empty subset considers all columns.
func (df *DataFrame) Unique(subset []string, keep KeepStrategy) (*DataFrame, error) {
	indices := make([]int, 0, len(subset))
	for _, c := range subset {
		idx := df.ColIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("drop_duplicates: column %q not found", c)
		}
		indices = append(indices, idx)
	}
	if len(indices) == 0 {
		indices = make([]int, len(df.Columns))
		for i := range df.Columns {
			indices[i] = i
		}
	}

	key := func(row Row) string {
		parts := make([]string, len(indices))
		for i, idx := range indices {
			parts[i] = row.Values[idx].Key()
		}
		return strings.Join(parts, "\x00")
	}

	counts := make(map[string]int)
	lastSeen := make(map[string]int)
	for i, row := range df.Rows {
		k := key(row)
		counts[k]++
		lastSeen[k] = i
	}

	result := New(df.Columns)
	emitted := make(map[string]bool)
	for i, row := range df.Rows {
		k := key(row)
		switch keep {
		case KeepNone:
			if counts[k] == 1 {
				result.AddRow(row.Values)
			}
		case KeepLast:
			if lastSeen[k] == i {
				result.AddRow(row.Values)
			}
		default: // KeepFirst and KeepAny
			if !emitted[k] {
				emitted[k] = true
				result.AddRow(row.Values)
			}
		}
	}
	return result, nil
}

// Head returns the first n rows.
func (df *DataFrame) Head(n int) *DataFrame {
	if n > len(df.Rows) {
		n = len(df.Rows)
	}
	result := New(df.Columns)
	result.Rows = df.Rows[:n]
	return result
}

// String returns a compact representation of the frame.
func (df *DataFrame) String() string {
	if len(df.Rows) == 0 {
		return "[" + strings.Join(df.Columns, ", ") + "] (0 rows)"
	}

	var sb strings.Builder
	sb.WriteString("[ ")
	for i, r := range df.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{")
		for j, v := range r.Values {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(df.Columns[j])
			sb.WriteString(":")
			sb.WriteString(v.AsString())
		}
		sb.WriteString("}")
	}
	sb.WriteString(" ]")
	return sb.String()
}
