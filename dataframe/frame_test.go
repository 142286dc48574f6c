package dataframe

import (
	"testing"
)

func usersFrame() *DataFrame {
	df := New([]string{"name", "age", "city"})
	df.AddRow([]Value{StrVal("Alice"), IntVal(30), StrVal("NY")})
	df.AddRow([]Value{StrVal("Bob"), IntVal(25), StrVal("LA")})
	df.AddRow([]Value{StrVal("Charlie"), IntVal(35), StrVal("NY")})
	df.AddRow([]Value{StrVal("Diana"), IntVal(28), StrVal("SF")})
	df.AddRow([]Value{StrVal("Eve"), IntVal(22), StrVal("LA")})
	df.AddRow([]Value{StrVal("Frank"), IntVal(40), StrVal("NY")})
	return df
}

func TestSelect(t *testing.T) {
	result, err := usersFrame().Select(Col("name"), Col("city"))
	if err != nil {
		t.Fatalf("select error: %v", err)
	}
	if len(result.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %d", len(result.Columns))
	}
	if result.Columns[0] != "name" || result.Columns[1] != "city" {
		t.Errorf("unexpected columns: %v", result.Columns)
	}
	if result.Height() != 6 {
		t.Errorf("expected 6 rows, got %d", result.Height())
	}
}

func TestSelectUnknownColumn(t *testing.T) {
	if _, err := usersFrame().Select(Col("missing")); err == nil {
		t.Fatal("expected error for unknown column")
	}
}

func TestSelectDropNulls(t *testing.T) {
	df := New([]string{"a"})
	df.AddRow([]Value{IntVal(1)})
	df.AddRow([]Value{Null()})
	df.AddRow([]Value{IntVal(3)})

	result, err := df.Select(Col("a").DropNulls())
	if err != nil {
		t.Fatalf("select error: %v", err)
	}
	if result.Height() != 2 {
		t.Errorf("expected 2 rows after dropping nulls, got %d", result.Height())
	}
}

func TestFilter(t *testing.T) {
	result, err := usersFrame().Filter(Col("city").Compare(OpEq, Lit(StrVal("NY"))))
	if err != nil {
		t.Fatalf("filter error: %v", err)
	}
	if result.Height() != 3 {
		t.Errorf("expected 3 rows, got %d", result.Height())
	}
	if result.Rows[0].Values[0].Str != "Alice" {
		t.Errorf("expected first row to be Alice, got %s", result.Rows[0].Values[0].Str)
	}
}

func TestWithColumnsAppendAndOverwrite(t *testing.T) {
	df := usersFrame()
	result, err := df.WithColumns(
		Col("age").Arith(OpAdd, Lit(IntVal(1))).Alias("next_age"),
		Lit(StrVal("x")).Alias("city"),
	)
	if err != nil {
		t.Fatalf("with_columns error: %v", err)
	}
	if len(result.Columns) != 4 {
		t.Fatalf("expected 4 columns, got %v", result.Columns)
	}
	if got := result.Get(0, "next_age"); got.Int != 31 {
		t.Errorf("expected next_age 31, got %v", got)
	}
	if got := result.Get(0, "city"); got.Str != "x" {
		t.Errorf("expected city overwritten with x, got %v", got)
	}
}

func TestSortDescendingStable(t *testing.T) {
	result, err := usersFrame().Sort([]SortKey{{Column: "age", Descending: true}})
	if err != nil {
		t.Fatalf("sort error: %v", err)
	}
	if result.Rows[0].Values[1].Int != 40 {
		t.Errorf("expected first age 40, got %d", result.Rows[0].Values[1].Int)
	}
	if result.Rows[5].Values[1].Int != 22 {
		t.Errorf("expected last age 22, got %d", result.Rows[5].Values[1].Int)
	}
}

func TestSortNullsLast(t *testing.T) {
	df := New([]string{"a"})
	df.AddRow([]Value{Null()})
	df.AddRow([]Value{IntVal(2)})
	df.AddRow([]Value{IntVal(1)})

	result, err := df.Sort([]SortKey{{Column: "a"}})
	if err != nil {
		t.Fatalf("sort error: %v", err)
	}
	if !result.Rows[2].Values[0].IsNull() {
		t.Errorf("expected null sorted last, got %v", result.Rows[2].Values[0])
	}
	if result.Rows[0].Values[0].Int != 1 {
		t.Errorf("expected 1 first, got %d", result.Rows[0].Values[0].Int)
	}
}

func TestRenameMapAndPrefix(t *testing.T) {
	df := usersFrame()
	renamed, err := df.Rename([]RenamePair{{Old: "name", New: "full_name"}})
	if err != nil {
		t.Fatalf("rename error: %v", err)
	}
	if renamed.Columns[0] != "full_name" {
		t.Errorf("expected full_name, got %s", renamed.Columns[0])
	}

	prefixed := df.RenamePrefix("u_")
	if prefixed.Columns[0] != "u_name" || prefixed.Columns[2] != "u_city" {
		t.Errorf("unexpected prefixed columns: %v", prefixed.Columns)
	}
}

func TestDrop(t *testing.T) {
	result, err := usersFrame().Drop("age")
	if err != nil {
		t.Fatalf("drop error: %v", err)
	}
	if len(result.Columns) != 2 {
		t.Fatalf("expected 2 columns, got %v", result.Columns)
	}
	if result.ColIndex("age") >= 0 {
		t.Error("age column should be gone")
	}
}

func TestUniqueSubsetKeepFirst(t *testing.T) {
	df := New([]string{"k", "v"})
	df.AddRow([]Value{StrVal("a"), IntVal(1)})
	df.AddRow([]Value{StrVal("a"), IntVal(2)})
	df.AddRow([]Value{StrVal("b"), IntVal(3)})

	result, err := df.Unique([]string{"k"}, KeepFirst)
	if err != nil {
		t.Fatalf("unique error: %v", err)
	}
	if result.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Height())
	}
	if result.Rows[0].Values[1].Int != 1 {
		t.Errorf("expected first duplicate kept, got %d", result.Rows[0].Values[1].Int)
	}
}

func TestUniqueKeepNone(t *testing.T) {
	df := New([]string{"k"})
	df.AddRow([]Value{StrVal("a")})
	df.AddRow([]Value{StrVal("a")})
	df.AddRow([]Value{StrVal("b")})

	result, err := df.Unique(nil, KeepNone)
	if err != nil {
		t.Fatalf("unique error: %v", err)
	}
	if result.Height() != 1 {
		t.Fatalf("expected only unduplicated rows, got %d", result.Height())
	}
	if result.Rows[0].Values[0].Str != "b" {
		t.Errorf("expected b, got %s", result.Rows[0].Values[0].Str)
	}
}

func TestHead(t *testing.T) {
	result := usersFrame().Head(3)
	if result.Height() != 3 {
		t.Errorf("expected 3 rows, got %d", result.Height())
	}
	if usersFrame().Head(100).Height() != 6 {
		t.Error("head past the end should return all rows")
	}
}

func TestInferSchema(t *testing.T) {
	df := New([]string{"a", "b"})
	df.AddRow([]Value{Null(), StrVal("x")})
	df.AddRow([]Value{IntVal(1), StrVal("y")})

	schema := df.InferSchema()
	if dt, ok := schema.Lookup("a"); !ok || dt != DTypeInt64 {
		t.Errorf("expected a inferred as Int64, got %v", dt)
	}
	if dt, ok := schema.Lookup("b"); !ok || dt != DTypeString {
		t.Errorf("expected b inferred as String, got %v", dt)
	}
}
