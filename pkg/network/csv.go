package network

import (
	"encoding/csv"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/kmallard/riverseq/pkg/errors"
)

// ErrMissingColumn is returned by [ReadCSV] when a required column is absent
// from the header. Required columns: id, downstream, length, area.
var ErrMissingColumn = stderrors.New("required column missing")

// ReadCSV decodes a CSV network table from r.
//
// The first record must be a header. Required columns are "id",
// "downstream", "length" and "area"; "name" and "weight" are optional.
// Column order is free and header matching is case-insensitive. An empty or
// zero "downstream" cell marks an outlet; an empty "weight" cell means no
// explicit weight for that segment.
//
// Returns a MISSING_COLUMN error wrapping ErrMissingColumn and naming the
// absent column - before any row is read, so structural problems surface
// eagerly. Row-level parse failures are wrapped with the line number.
func ReadCSV(r io.Reader) (*Network, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"id", "downstream", "length", "area"} {
		if _, ok := cols[required]; !ok {
			return nil, errors.Wrap(errors.ErrCodeMissingColumn, ErrMissingColumn, "column %q", required)
		}
	}

	n := New(0)
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		seg, err := parseRecord(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if err := n.Add(seg); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	return n, nil
}

func parseRecord(rec []string, cols map[string]int) (Segment, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var seg Segment
	var err error

	if seg.ID, err = strconv.ParseInt(field("id"), 10, 64); err != nil {
		return Segment{}, fmt.Errorf("id: %w", err)
	}
	if ds := field("downstream"); ds != "" {
		if seg.Downstream, err = strconv.ParseInt(ds, 10, 64); err != nil {
			return Segment{}, fmt.Errorf("downstream: %w", err)
		}
	}
	if seg.Length, err = strconv.ParseFloat(field("length"), 64); err != nil {
		return Segment{}, fmt.Errorf("length: %w", err)
	}
	if seg.Area, err = strconv.ParseFloat(field("area"), 64); err != nil {
		return Segment{}, fmt.Errorf("area: %w", err)
	}
	seg.Name = field("name")
	if w := field("weight"); w != "" {
		if seg.Weight, err = strconv.ParseFloat(w, 64); err != nil {
			return Segment{}, fmt.Errorf("weight: %w", err)
		}
		seg.HasWeight = true
	}
	return seg, nil
}

// WriteCSV encodes the network as CSV with a header row.
// The weight column is included only when at least one segment carries an
// explicit weight.
func WriteCSV(n *Network, w io.Writer) error {
	segments := n.Segments()
	withWeight := false
	for _, s := range segments {
		if s.HasWeight {
			withWeight = true
			break
		}
	}

	cw := csv.NewWriter(w)
	header := []string{"id", "downstream", "name", "length", "area"}
	if withWeight {
		header = append(header, "weight")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, s := range segments {
		rec := []string{
			strconv.FormatInt(s.ID, 10),
			strconv.FormatInt(s.Downstream, 10),
			s.Name,
			strconv.FormatFloat(s.Length, 'g', -1, 64),
			strconv.FormatFloat(s.Area, 'g', -1, 64),
		}
		if withWeight {
			weight := ""
			if s.HasWeight {
				weight = strconv.FormatFloat(s.Weight, 'g', -1, 64)
			}
			rec = append(rec, weight)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSVFile reads a CSV network file at path.
func ReadCSVFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadFile reads a network file at path, selecting the codec by extension:
// ".csv" uses [ReadCSVFile], everything else [ReadJSONFile].
func ReadFile(path string) (*Network, error) {
	if strings.HasSuffix(strings.ToLower(path), ".csv") {
		return ReadCSVFile(path)
	}
	return ReadJSONFile(path)
}
