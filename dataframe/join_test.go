package dataframe

import (
	"testing"
)

func ordersFrame() *DataFrame {
	df := New([]string{"user", "amount"})
	df.AddRow([]Value{StrVal("alice"), IntVal(10)})
	df.AddRow([]Value{StrVal("bob"), IntVal(20)})
	df.AddRow([]Value{StrVal("carol"), IntVal(30)})
	return df
}

func citiesFrame() *DataFrame {
	df := New([]string{"user", "city"})
	df.AddRow([]Value{StrVal("alice"), StrVal("NY")})
	df.AddRow([]Value{StrVal("bob"), StrVal("LA")})
	df.AddRow([]Value{StrVal("dave"), StrVal("SF")})
	return df
}

func TestJoinInner(t *testing.T) {
	result, err := ordersFrame().Join(citiesFrame(), []Expr{Col("user")}, []Expr{Col("user")}, JoinInner)
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if result.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Height())
	}
	if got := result.Get(0, "city"); got.Str != "NY" {
		t.Errorf("expected NY, got %v", got)
	}
}

func TestJoinLeftNullFills(t *testing.T) {
	result, err := ordersFrame().Join(citiesFrame(), []Expr{Col("user")}, []Expr{Col("user")}, JoinLeft)
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if result.Height() != 3 {
		t.Fatalf("expected every left row preserved, got %d", result.Height())
	}
	if got := result.Get(2, "city"); !got.IsNull() {
		t.Errorf("expected carol's city to be null, got %v", got)
	}
}

func TestJoinRight(t *testing.T) {
	result, err := ordersFrame().Join(citiesFrame(), []Expr{Col("user")}, []Expr{Col("user")}, JoinRight)
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if result.Height() != 3 {
		t.Fatalf("expected every right row preserved, got %d", result.Height())
	}
}

func TestJoinAnti(t *testing.T) {
	result, err := ordersFrame().Join(citiesFrame(), []Expr{Col("user")}, []Expr{Col("user")}, JoinAnti)
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if result.Height() != 1 {
		t.Fatalf("expected 1 unmatched row, got %d", result.Height())
	}
	if got := result.Get(0, "user"); got.Str != "carol" {
		t.Errorf("expected carol, got %v", got)
	}
}

func TestJoinCollidingColumnsSuffixed(t *testing.T) {
	left := New([]string{"k", "v"})
	left.AddRow([]Value{IntVal(1), StrVal("l")})
	right := New([]string{"k", "v"})
	right.AddRow([]Value{IntVal(1), StrVal("r")})

	result, err := left.Join(right, []Expr{Col("k")}, []Expr{Col("k")}, JoinInner)
	if err != nil {
		t.Fatalf("join error: %v", err)
	}
	if result.ColIndex("v_right") < 0 {
		t.Fatalf("expected v_right column, got %v", result.Columns)
	}
	if got := result.Get(0, "v_right"); got.Str != "r" {
		t.Errorf("expected r, got %v", got)
	}
}

func TestGroupByAggregations(t *testing.T) {
	df := New([]string{"city", "amount"})
	df.AddRow([]Value{StrVal("NY"), IntVal(10)})
	df.AddRow([]Value{StrVal("LA"), IntVal(5)})
	df.AddRow([]Value{StrVal("NY"), IntVal(20)})

	result, err := df.GroupBy(
		[]Expr{Col("city")},
		[]Expr{
			Col("amount").ListSum().Alias("total"),
			Col("amount").ListLen().Alias("orders"),
		},
	)
	if err != nil {
		t.Fatalf("group_by error: %v", err)
	}
	if result.Height() != 2 {
		t.Fatalf("expected 2 groups, got %d", result.Height())
	}
	// groups keep first-appearance order
	if got := result.Get(0, "city"); got.Str != "NY" {
		t.Errorf("expected NY first, got %v", got)
	}
	if got := result.Get(0, "total"); got.Int != 30 {
		t.Errorf("expected total 30, got %v", got)
	}
	if got := result.Get(1, "orders"); got.Int != 1 {
		t.Errorf("expected 1 order for LA, got %v", got)
	}
}

func TestExplode(t *testing.T) {
	df := New([]string{"k", "vs"})
	df.AddRow([]Value{StrVal("a"), ListVal([]Value{IntVal(1), IntVal(2)})})
	df.AddRow([]Value{StrVal("b"), ListVal(nil)})

	result, err := df.Explode("vs")
	if err != nil {
		t.Fatalf("explode error: %v", err)
	}
	if result.Height() != 3 {
		t.Fatalf("expected 3 rows, got %d", result.Height())
	}
	if got := result.Get(1, "vs"); got.Int != 2 {
		t.Errorf("expected 2, got %v", got)
	}
	if got := result.Get(2, "vs"); !got.IsNull() {
		t.Errorf("expected null for empty list, got %v", got)
	}
}

func TestUnnest(t *testing.T) {
	df := New([]string{"id", "s"})
	df.AddRow([]Value{IntVal(1), StructVal([]Field{{Name: "x", Value: IntVal(10)}})})
	df.AddRow([]Value{IntVal(2), StructVal([]Field{{Name: "x", Value: IntVal(20)}, {Name: "y", Value: IntVal(9)}})})

	result, err := df.Unnest("s")
	if err != nil {
		t.Fatalf("unnest error: %v", err)
	}
	if result.ColIndex("s") >= 0 {
		t.Error("struct column should be replaced")
	}
	if got := result.Get(0, "y"); !got.IsNull() {
		t.Errorf("expected missing field null-filled, got %v", got)
	}
	if got := result.Get(1, "x"); got.Int != 20 {
		t.Errorf("expected 20, got %v", got)
	}
}

func TestConcatVerticalAndDiagonal(t *testing.T) {
	a := New([]string{"x"})
	a.AddRow([]Value{IntVal(1)})
	b := New([]string{"x"})
	b.AddRow([]Value{IntVal(2)})

	result, err := Concat(ConcatVertical, a, b)
	if err != nil {
		t.Fatalf("concat error: %v", err)
	}
	if result.Height() != 2 {
		t.Errorf("expected 2 rows, got %d", result.Height())
	}

	c := New([]string{"y"})
	c.AddRow([]Value{IntVal(3)})
	if _, err := Concat(ConcatVertical, a, c); err == nil {
		t.Fatal("expected vertical concat with differing columns to fail")
	}

	diag, err := Concat(ConcatDiagonal, a, c)
	if err != nil {
		t.Fatalf("diagonal concat error: %v", err)
	}
	if len(diag.Columns) != 2 || diag.Height() != 2 {
		t.Fatalf("unexpected diagonal shape: %v rows=%d", diag.Columns, diag.Height())
	}
	if got := diag.Get(0, "y"); !got.IsNull() {
		t.Errorf("expected null fill, got %v", got)
	}
}
