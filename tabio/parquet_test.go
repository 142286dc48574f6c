package tabio

import (
	"path/filepath"
	"testing"

	"detl/dataframe"
)

func TestParquetRoundTrip(t *testing.T) {
	df := dataframe.New([]string{"name", "age", "score", "active"})
	df.AddRow([]dataframe.Value{
		dataframe.StrVal("alice"), dataframe.IntVal(30),
		dataframe.FloatVal(1.5), dataframe.BoolVal(true),
	})
	df.AddRow([]dataframe.Value{
		dataframe.StrVal("bob"), dataframe.Null(),
		dataframe.FloatVal(2.0), dataframe.BoolVal(false),
	})

	path := filepath.Join(t.TempDir(), "users.parquet")
	if err := WriteParquet(path, df); err != nil {
		t.Fatalf("write error: %v", err)
	}

	back, err := ReadParquet(path, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if back.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", back.Height())
	}
	if v := back.Get(0, "age"); v.Type != dataframe.TypeInt || v.Int != 30 {
		t.Errorf("expected age 30, got %v", v)
	}
	if v := back.Get(1, "age"); !v.IsNull() {
		t.Errorf("expected null preserved, got %v", v)
	}
	if v := back.Get(0, "score"); v.Type != dataframe.TypeFloat || v.Float != 1.5 {
		t.Errorf("expected score 1.5, got %v", v)
	}
	if v := back.Get(0, "active"); v.Type != dataframe.TypeBool || !v.Bool {
		t.Errorf("expected active true, got %v", v)
	}
	if v := back.Get(0, "name"); v.Str != "alice" {
		t.Errorf("expected alice, got %v", v)
	}
}

func TestReadParquetSchemaCast(t *testing.T) {
	df := dataframe.New([]string{"id"})
	df.AddRow([]dataframe.Value{dataframe.IntVal(7)})

	path := filepath.Join(t.TempDir(), "ids.parquet")
	if err := WriteParquet(path, df); err != nil {
		t.Fatalf("write error: %v", err)
	}

	back, err := ReadParquet(path, dataframe.Schema{{Name: "id", Type: dataframe.DTypeString}})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if v := back.Get(0, "id"); v.Type != dataframe.TypeString || v.Str != "7" {
		t.Errorf("expected id cast to string, got %v", v)
	}
}
