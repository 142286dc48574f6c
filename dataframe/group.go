package dataframe

import (
	"fmt"
	"strings"
)

// GroupBy partitions rows by the key expressions (evaluated row by
// row) and evaluates every aggregation expression once per group in
// an aggregation context, where column references resolve to the list
// of the group's values. Group order follows first appearance.
func (df *DataFrame) GroupBy(keys, aggs []Expr) (*DataFrame, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("group_by: at least one key is required")
	}

	type group struct {
		keyVals []Value
		frame   *DataFrame
	}
	var groups []*group
	byKey := make(map[string]*group)

	for r, row := range df.Rows {
		parts := make([]string, len(keys))
		keyVals := make([]Value, len(keys))
		for i, k := range keys {
			v, err := k.eval(&evalContext{frame: df, row: r})
			if err != nil {
				return nil, fmt.Errorf("group_by key %q: %w", k.Name(), err)
			}
			keyVals[i] = v
			parts[i] = v.Key()
		}
		ks := strings.Join(parts, "\x00")

		g, ok := byKey[ks]
		if !ok {
			g = &group{keyVals: keyVals, frame: New(df.Columns)}
			byKey[ks] = g
			groups = append(groups, g)
		}
		g.frame.AddRow(row.Values)
	}

	cols := make([]string, 0, len(keys)+len(aggs))
	for _, k := range keys {
		cols = append(cols, k.Name())
	}
	for _, a := range aggs {
		cols = append(cols, a.Name())
	}

	result := New(cols)
	for _, g := range groups {
		vals := make([]Value, 0, len(cols))
		vals = append(vals, g.keyVals...)
		for _, a := range aggs {
			v, err := a.eval(&evalContext{frame: g.frame, group: g.frame})
			if err != nil {
				return nil, fmt.Errorf("aggregation %q: %w", a.Name(), err)
			}
			vals = append(vals, v)
		}
		result.AddRow(vals)
	}
	return result, nil
}

// Explode expands list values in the given columns into one row per
// element. All exploded columns must agree on length within a row;
// empty lists and nulls produce a single null row.
func (df *DataFrame) Explode(columns ...string) (*DataFrame, error) {
	indices := make([]int, len(columns))
	for i, c := range columns {
		idx := df.ColIndex(c)
		if idx < 0 {
			return nil, fmt.Errorf("explode: column %q not found", c)
		}
		indices[i] = idx
	}

	result := New(df.Columns)
	for _, row := range df.Rows {
		length := 1
		for _, idx := range indices {
			v := row.Values[idx]
			if v.Type == TypeList && len(v.List) > length {
				length = len(v.List)
			}
		}
		for _, idx := range indices {
			v := row.Values[idx]
			if v.Type == TypeList && len(v.List) > 1 && len(v.List) != length {
				return nil, fmt.Errorf("explode: list lengths differ within a row (%d vs %d)", len(v.List), length)
			}
		}
		for n := 0; n < length; n++ {
			vals := make([]Value, len(row.Values))
			copy(vals, row.Values)
			for _, idx := range indices {
				v := row.Values[idx]
				if v.Type != TypeList {
					continue
				}
				if n < len(v.List) {
					vals[idx] = v.List[n]
				} else {
					vals[idx] = Null()
				}
			}
			result.AddRow(vals)
		}
	}
	return result, nil
}

// Unnest replaces struct columns with one column per field. Field
// columns are inserted in place of the struct column; the union of
// field names across rows is used, null-filling rows that lack one.
func (df *DataFrame) Unnest(columns ...string) (*DataFrame, error) {
	current := df
	for _, c := range columns {
		next, err := current.unnestOne(c)
		if err != nil {
			return nil, err
		}
		current = next
	}
	return current, nil
}

func (df *DataFrame) unnestOne(column string) (*DataFrame, error) {
	idx := df.ColIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("unnest: column %q not found", column)
	}

	var fieldNames []string
	seen := make(map[string]bool)
	for _, row := range df.Rows {
		v := row.Values[idx]
		if v.Type != TypeStruct {
			if v.IsNull() {
				continue
			}
			return nil, fmt.Errorf("unnest: column %q is not a struct", column)
		}
		for _, f := range v.Fields {
			if !seen[f.Name] {
				seen[f.Name] = true
				fieldNames = append(fieldNames, f.Name)
			}
		}
	}

	cols := make([]string, 0, len(df.Columns)-1+len(fieldNames))
	cols = append(cols, df.Columns[:idx]...)
	cols = append(cols, fieldNames...)
	cols = append(cols, df.Columns[idx+1:]...)

	result := New(cols)
	for _, row := range df.Rows {
		vals := make([]Value, 0, len(cols))
		vals = append(vals, row.Values[:idx]...)
		v := row.Values[idx]
		for _, name := range fieldNames {
			fv := Null()
			if v.Type == TypeStruct {
				for _, f := range v.Fields {
					if f.Name == name {
						fv = f.Value
						break
					}
				}
			}
			vals = append(vals, fv)
		}
		vals = append(vals, row.Values[idx+1:]...)
		result.AddRow(vals)
	}
	return result, nil
}

// ConcatHow selects how two frames are concatenated.
type ConcatHow int

const (
	// ConcatVertical stacks rows; both frames must share columns.
	ConcatVertical ConcatHow = iota
	// ConcatHorizontal appends the right frame's columns side by side.
	ConcatHorizontal
	// ConcatDiagonal stacks rows over the union of columns,
	// null-filling the gaps.
	ConcatDiagonal
)

// Concat combines two frames.
func Concat(how ConcatHow, left, right *DataFrame) (*DataFrame, error) {
	switch how {
	case ConcatVertical:
		if len(left.Columns) != len(right.Columns) {
			return nil, fmt.Errorf("concat: column counts differ (%d vs %d)", len(left.Columns), len(right.Columns))
		}
		for i, c := range left.Columns {
			if right.Columns[i] != c {
				return nil, fmt.Errorf("concat: column mismatch at %d: %q vs %q", i, c, right.Columns[i])
			}
		}
		result := left.Clone()
		result.Rows = append(result.Rows, right.Rows...)
		return result, nil

	case ConcatHorizontal:
		cols := make([]string, 0, len(left.Columns)+len(right.Columns))
		cols = append(cols, left.Columns...)
		for _, c := range right.Columns {
			if left.ColIndex(c) >= 0 {
				return nil, fmt.Errorf("concat: duplicate column %q", c)
			}
			cols = append(cols, c)
		}
		height := left.Height()
		if right.Height() > height {
			height = right.Height()
		}
		result := New(cols)
		for r := 0; r < height; r++ {
			vals := make([]Value, 0, len(cols))
			vals = appendRowOrNulls(vals, left, r)
			vals = appendRowOrNulls(vals, right, r)
			result.AddRow(vals)
		}
		return result, nil

	case ConcatDiagonal:
		cols := make([]string, 0, len(left.Columns))
		cols = append(cols, left.Columns...)
		for _, c := range right.Columns {
			if left.ColIndex(c) < 0 {
				cols = append(cols, c)
			}
		}
		result := New(cols)
		for _, src := range []*DataFrame{left, right} {
			for r := range src.Rows {
				vals := make([]Value, len(cols))
				for i, c := range cols {
					idx := src.ColIndex(c)
					if idx < 0 {
						vals[i] = Null()
					} else {
						vals[i] = src.Rows[r].Values[idx]
					}
				}
				result.AddRow(vals)
			}
		}
		return result, nil

	default:
		return nil, fmt.Errorf("unknown concat strategy %d", how)
	}
}

func appendRowOrNulls(vals []Value, df *DataFrame, row int) []Value {
	if row < df.Height() {
		return append(vals, df.Rows[row].Values...)
	}
	for range df.Columns {
		vals = append(vals, Null())
	}
	return vals
}
