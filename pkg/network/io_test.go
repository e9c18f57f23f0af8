package network

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kmallard/riverseq/pkg/errors"
)

func TestReadJSON(t *testing.T) {
	input := `{
		"segments": [
			{"id": 1, "name": "bear river", "length": 4.1, "area": 2.6},
			{"id": 2, "downstream": 1, "length": 3.4, "area": 1.9, "weight": 7.5},
			{"id": 3, "downstream": 1, "length": 0, "area": 0, "weight": 0}
		]
	}`

	n, err := ReadJSON(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if n.Len() != 3 {
		t.Fatalf("Len = %d, want 3", n.Len())
	}

	s1, _ := n.Segment(1)
	if !s1.IsOutlet() || s1.Name != "bear river" || s1.HasWeight {
		t.Errorf("segment 1 unexpected: %+v", s1)
	}

	// Explicit weight is preserved, including an explicit zero.
	s2, _ := n.Segment(2)
	if !s2.HasWeight || s2.Weight != 7.5 {
		t.Errorf("segment 2 weight not preserved: %+v", s2)
	}
	s3, _ := n.Segment(3)
	if !s3.HasWeight || s3.Weight != 0 {
		t.Errorf("explicit zero weight should be kept: %+v", s3)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	n := buildNetwork(t,
		Segment{ID: 1, Name: "main", Length: 2, Area: 1},
		Segment{ID: 2, Downstream: 1, Length: 1, Area: 0.5, Weight: 4, HasWeight: true},
	)

	var buf bytes.Buffer
	if err := WriteJSON(n, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	back, err := ReadJSON(&buf)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if back.Len() != 2 {
		t.Fatalf("round-trip lost segments: %d", back.Len())
	}
	s2, _ := back.Segment(2)
	if !s2.HasWeight || s2.Weight != 4 {
		t.Errorf("weight presence lost in round trip: %+v", s2)
	}
	s1, _ := back.Segment(1)
	if s1.HasWeight {
		t.Errorf("absent weight became explicit in round trip: %+v", s1)
	}
}

func TestReadCSV(t *testing.T) {
	input := "id,downstream,name,length,area,weight\n" +
		"1,,bear river,4.1,2.6,\n" +
		"2,1,,3.4,1.9,7.5\n"

	n, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	s1, _ := n.Segment(1)
	if !s1.IsOutlet() {
		t.Errorf("empty downstream cell should mark an outlet: %+v", s1)
	}
	if s1.HasWeight {
		t.Errorf("empty weight cell should mean no explicit weight: %+v", s1)
	}
	s2, _ := n.Segment(2)
	if !s2.HasWeight || s2.Weight != 7.5 {
		t.Errorf("segment 2 weight not parsed: %+v", s2)
	}
}

func TestReadCSVHeaderFlexibility(t *testing.T) {
	// Reordered, capitalized header without the optional columns.
	input := "Area,ID,Length,Downstream\n2.6,1,4.1,0\n"

	n, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	s, _ := n.Segment(1)
	if s.Length != 4.1 || s.Area != 2.6 {
		t.Errorf("columns mismatched: %+v", s)
	}
}

func TestReadCSVMissingColumn(t *testing.T) {
	input := "id,downstream,area\n1,,2.6\n"

	_, err := ReadCSV(strings.NewReader(input))
	if !stderrors.Is(err, ErrMissingColumn) {
		t.Fatalf("missing length column should fail, got %v", err)
	}
	if !errors.Is(err, errors.ErrCodeMissingColumn) {
		t.Errorf("error should carry MISSING_COLUMN, got %v", err)
	}
	if !strings.Contains(err.Error(), "length") {
		t.Errorf("error should name the missing column: %v", err)
	}
}

func TestReadCSVBadRow(t *testing.T) {
	input := "id,downstream,length,area\n1,,not-a-number,2.6\n"

	_, err := ReadCSV(strings.NewReader(input))
	if err == nil {
		t.Fatal("bad numeric cell should fail")
	}
	if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error should carry the line number: %v", err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	n := buildNetwork(t,
		Segment{ID: 1, Name: "main", Length: 2, Area: 1},
		Segment{ID: 2, Downstream: 1, Length: 1, Area: 0.5, Weight: 4, HasWeight: true},
	)

	var buf bytes.Buffer
	if err := WriteCSV(n, &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	back, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	s2, _ := back.Segment(2)
	if !s2.HasWeight || s2.Weight != 4 {
		t.Errorf("weight lost in round trip: %+v", s2)
	}
	s1, _ := back.Segment(1)
	if s1.HasWeight {
		t.Errorf("absent weight became explicit: %+v", s1)
	}
}

func TestReadFileDispatch(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "net.csv")
	if err := os.WriteFile(csvPath, []byte("id,downstream,length,area\n1,,1,1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, "net.json")
	if err := os.WriteFile(jsonPath, []byte(`{"segments":[{"id":1,"length":1,"area":1}]}`), 0644); err != nil {
		t.Fatal(err)
	}

	if n, err := ReadFile(csvPath); err != nil || n.Len() != 1 {
		t.Errorf("ReadFile(csv) = %v, %v", n, err)
	}
	if n, err := ReadFile(jsonPath); err != nil || n.Len() != 1 {
		t.Errorf("ReadFile(json) = %v, %v", n, err)
	}
}
