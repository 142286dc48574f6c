package tabio

import (
	"path/filepath"
	"testing"

	"detl/dataframe"
)

func TestReadJSONLines(t *testing.T) {
	path := writeFile(t, t.TempDir(), "events.ndjson",
		`{"user": "alice", "n": 1, "tags": ["a", "b"]}
{"user": "bob", "n": 2.5, "meta": {"ok": true}}
`)

	df, err := ReadJSONLines(path, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if df.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", df.Height())
	}
	if v := df.Get(0, "n"); v.Type != dataframe.TypeInt || v.Int != 1 {
		t.Errorf("expected integral number as int, got %v", v)
	}
	if v := df.Get(1, "n"); v.Type != dataframe.TypeFloat {
		t.Errorf("expected float, got %v", v)
	}
	if v := df.Get(0, "tags"); v.Type != dataframe.TypeList || len(v.List) != 2 {
		t.Errorf("expected 2-element list, got %v", v)
	}
	if v := df.Get(0, "meta"); !v.IsNull() {
		t.Errorf("expected missing key null-filled, got %v", v)
	}
	if v := df.Get(1, "meta"); v.Type != dataframe.TypeStruct {
		t.Errorf("expected struct, got %v", v)
	}
}

func TestReadJSONArray(t *testing.T) {
	path := writeFile(t, t.TempDir(), "items.json",
		`[{"id": 1, "name": "x"}, {"id": 2, "name": null}]`)

	df, err := ReadJSON(path, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if df.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", df.Height())
	}
	if v := df.Get(1, "name"); !v.IsNull() {
		t.Errorf("expected null, got %v", v)
	}
}

func TestReadJSONRejectsNonArray(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.json", `{"id": 1}`)
	if _, err := ReadJSON(path, nil); err == nil {
		t.Fatal("expected error for non-array JSON")
	}
}

func TestReadJSONLinesSchema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "typed.ndjson", `{"id": "7"}`+"\n")

	df, err := ReadJSONLines(path, dataframe.Schema{{Name: "id", Type: dataframe.DTypeInt64}})
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if v := df.Get(0, "id"); v.Type != dataframe.TypeInt || v.Int != 7 {
		t.Errorf("expected schema cast to int 7, got %v", v)
	}
}

func TestWriteJSONLinesRoundTrip(t *testing.T) {
	df := dataframe.New([]string{"user", "n"})
	df.AddRow([]dataframe.Value{dataframe.StrVal("alice"), dataframe.IntVal(1)})
	df.AddRow([]dataframe.Value{dataframe.StrVal("bob"), dataframe.Null()})

	path := filepath.Join(t.TempDir(), "out.ndjson")
	if err := WriteJSONLines(path, df); err != nil {
		t.Fatalf("write error: %v", err)
	}

	back, err := ReadJSONLines(path, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if back.Height() != 2 {
		t.Fatalf("expected 2 rows, got %d", back.Height())
	}
	if v := back.Get(1, "n"); !v.IsNull() {
		t.Errorf("expected null preserved, got %v", v)
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	df := dataframe.New([]string{"k", "vs"})
	df.AddRow([]dataframe.Value{
		dataframe.StrVal("a"),
		dataframe.ListVal([]dataframe.Value{dataframe.IntVal(1), dataframe.IntVal(2)}),
	})

	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteJSON(path, df); err != nil {
		t.Fatalf("write error: %v", err)
	}

	back, err := ReadJSON(path, nil)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	if v := back.Get(0, "vs"); v.Type != dataframe.TypeList || len(v.List) != 2 {
		t.Errorf("expected list preserved, got %v", v)
	}
}
