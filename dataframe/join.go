package dataframe

import (
	"fmt"
	"strings"
)

// JoinType selects the join semantics.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinAnti
)

func (j JoinType) String() string {
	switch j {
	case JoinInner:
		return "inner"
	case JoinLeft:
		return "left"
	case JoinRight:
		return "right"
	case JoinFull:
		return "full"
	case JoinAnti:
		return "anti"
	default:
		return fmt.Sprintf("JoinType(%d)", int(j))
	}
}

// Join combines two frames on computed keys. Right-hand columns whose
// names collide with left-hand ones are suffixed with "_right". Rows
// without a match are null-filled for left, right, and full joins;
// anti keeps only left rows without a match.
func (df *DataFrame) Join(right *DataFrame, leftOn, rightOn []Expr, how JoinType) (*DataFrame, error) {
	if len(leftOn) == 0 || len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("join: left_on and right_on must be non-empty and of equal length")
	}
	if how == JoinRight {
		// A right join is a left join with the sides swapped.
		return right.Join(df, rightOn, leftOn, JoinLeft)
	}

	leftKeys, err := joinKeys(df, leftOn)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}
	rightKeys, err := joinKeys(right, rightOn)
	if err != nil {
		return nil, fmt.Errorf("join: %w", err)
	}

	byKey := make(map[string][]int)
	for i, k := range rightKeys {
		byKey[k] = append(byKey[k], i)
	}

	if how == JoinAnti {
		result := New(df.Columns)
		for i, row := range df.Rows {
			if len(byKey[leftKeys[i]]) == 0 {
				result.AddRow(row.Values)
			}
		}
		return result, nil
	}

	cols := make([]string, 0, len(df.Columns)+len(right.Columns))
	cols = append(cols, df.Columns...)
	for _, c := range right.Columns {
		if df.ColIndex(c) >= 0 {
			c += "_right"
		}
		cols = append(cols, c)
	}

	result := New(cols)
	lw, rw := len(df.Columns), len(right.Columns)
	matchedRight := make([]bool, len(right.Rows))
	for i, row := range df.Rows {
		matches := byKey[leftKeys[i]]
		if len(matches) == 0 {
			if how == JoinLeft || how == JoinFull {
				result.AddRow(joinRow(row.Values, nil, lw, rw))
			}
			continue
		}
		for _, ri := range matches {
			matchedRight[ri] = true
			result.AddRow(joinRow(row.Values, right.Rows[ri].Values, lw, rw))
		}
	}
	if how == JoinFull {
		for ri, matched := range matchedRight {
			if !matched {
				result.AddRow(joinRow(nil, right.Rows[ri].Values, lw, rw))
			}
		}
	}
	return result, nil
}

func joinKeys(df *DataFrame, on []Expr) ([]string, error) {
	keys := make([]string, df.Height())
	for r := 0; r < df.Height(); r++ {
		parts := make([]string, len(on))
		for i, e := range on {
			v, err := e.eval(&evalContext{frame: df, row: r})
			if err != nil {
				return nil, err
			}
			parts[i] = v.Key()
		}
		keys[r] = strings.Join(parts, "\x00")
	}
	return keys, nil
}

func joinRow(left, right []Value, leftWidth, rightWidth int) []Value {
	vals := make([]Value, 0, leftWidth+rightWidth)
	if left == nil {
		for i := 0; i < leftWidth; i++ {
			vals = append(vals, Null())
		}
	} else {
		vals = append(vals, left...)
	}
	if right == nil {
		for i := 0; i < rightWidth; i++ {
			vals = append(vals, Null())
		}
	} else {
		vals = append(vals, right...)
	}
	return vals
}
