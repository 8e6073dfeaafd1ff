package dwi

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadWriteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.bvec")
	content := "0 0.5 -0.5 1\n0 0.1 0.2 0.3\n1 0 0 0"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tab, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(tab) != 3 || tab.Cols() != 4 {
		t.Fatalf("got %dx%d table", len(tab), tab.Cols())
	}

	out := filepath.Join(t.TempDir(), "out.bvec")
	if err := tab.Write(out); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != content {
		t.Errorf("round trip: got %q, want %q", raw, content)
	}
}

func TestSplitColumns(t *testing.T) {
	tab := Table{
		{"0", "1000", "1000", "0", "2000", "2000"},
		{"0", "0.3", "-0.3", "0", "0.7", "-0.7"},
	}

	first, rest, err := tab.SplitColumns(3)
	if err != nil {
		t.Fatal(err)
	}

	if want := (Table{{"0", "1000", "1000"}, {"0", "0.3", "-0.3"}}); !reflect.DeepEqual(first, want) {
		t.Errorf("first: got %v, want %v", first, want)
	}
	if want := (Table{{"0", "2000", "2000"}, {"0", "0.7", "-0.7"}}); !reflect.DeepEqual(rest, want) {
		t.Errorf("rest: got %v, want %v", rest, want)
	}

	// The two halves partition every row: widths sum to the original.
	if first.Cols()+rest.Cols() != tab.Cols() {
		t.Error("split columns do not sum to original")
	}

	if _, _, err := tab.SplitColumns(7); err == nil {
		t.Error("splitting past row width should fail")
	}
}

func TestDropColumns(t *testing.T) {
	tab := Table{{"5", "0", "1000"}}
	got, err := tab.DropColumns(1)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Table{{"0", "1000"}}); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
