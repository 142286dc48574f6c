package tabio

import (
	"os"
	"path/filepath"
	"testing"

	"detl/dataframe"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestReadCSVInference(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.csv",
		"name,age,score,active\nAlice,30,1.5,true\nBob,25,null,false\n")

	df, err := ReadCSV(path, CSVOptions{})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if df.Height() != 2 || len(df.Columns) != 4 {
		t.Fatalf("unexpected shape: %v x %d", df.Columns, df.Height())
	}
	if v := df.Get(0, "age"); v.Type != dataframe.TypeInt || v.Int != 30 {
		t.Errorf("expected int 30, got %v", v)
	}
	if v := df.Get(0, "score"); v.Type != dataframe.TypeFloat {
		t.Errorf("expected float, got %v", v)
	}
	if v := df.Get(1, "score"); !v.IsNull() {
		t.Errorf("expected null, got %v", v)
	}
	if v := df.Get(1, "active"); v.Type != dataframe.TypeBool || v.Bool {
		t.Errorf("expected false, got %v", v)
	}
}

func TestReadCSVNoHeader(t *testing.T) {
	path := writeFile(t, t.TempDir(), "raw.csv", "1,a\n2,b\n")

	df, err := ReadCSV(path, CSVOptions{NoHeader: true})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if df.Columns[0] != "column_1" || df.Columns[1] != "column_2" {
		t.Fatalf("unexpected columns: %v", df.Columns)
	}
	if df.Height() != 2 {
		t.Errorf("expected 2 rows, got %d", df.Height())
	}
}

func TestReadCSVSeparatorAndSchema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "pinned.csv", "id;label\n01;02\n")

	df, err := ReadCSV(path, CSVOptions{
		Separator: ';',
		Schema:    dataframe.Schema{{Name: "label", Type: dataframe.DTypeString}},
	})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if v := df.Get(0, "id"); v.Type != dataframe.TypeInt {
		t.Errorf("expected id inferred as int, got %v", v)
	}
	if v := df.Get(0, "label"); v.Type != dataframe.TypeString || v.Str != "02" {
		t.Errorf("expected label pinned to string 02, got %v", v)
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	df := dataframe.New([]string{"name", "n"})
	df.AddRow([]dataframe.Value{dataframe.StrVal("a"), dataframe.IntVal(1)})
	df.AddRow([]dataframe.Value{dataframe.StrVal("b"), dataframe.Null()})

	path := filepath.Join(t.TempDir(), "out.csv")
	if err := WriteCSV(path, df); err != nil {
		t.Fatalf("write error: %v", err)
	}

	back, err := ReadCSV(path, CSVOptions{})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if back.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", back.Height())
	}
	if v := back.Get(0, "n"); v.Int != 1 {
		t.Errorf("expected 1, got %v", v)
	}
	if v := back.Get(1, "n"); !v.IsNull() {
		t.Errorf("expected null preserved, got %v", v)
	}
}
