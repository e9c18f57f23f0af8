package network

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

type table struct {
	Segments []row `json:"segments"`
}

type row struct {
	ID         int64    `json:"id"`
	Downstream int64    `json:"downstream,omitempty"`
	Name       string   `json:"name,omitempty"`
	Length     float64  `json:"length"`
	Area       float64  `json:"area"`
	Weight     *float64 `json:"weight,omitempty"`
}

// ReadJSON decodes a JSON network table from r.
//
// The input must be a JSON object with a "segments" array:
//
//	{
//	  "segments": [
//	    {"id": 1, "downstream": 2, "name": "deer creek", "length": 1.2, "area": 0.8},
//	    {"id": 2, "length": 2.0, "area": 1.1, "weight": 3.2}
//	  ]
//	}
//
// A missing or zero "downstream" marks an outlet. "weight" is optional;
// segments without it receive a computed default later in the pipeline.
//
// ReadJSON returns an error if the JSON is malformed or a segment violates
// the model constraints (duplicate id, negative measures). Errors are
// wrapped with the offending segment id. ReadJSON does not validate the
// downstream topology - call [Network.Validate] on the result.
func ReadJSON(r io.Reader) (*Network, error) {
	var data table
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	n := New(len(data.Segments))
	for _, s := range data.Segments {
		seg := Segment{
			ID:         s.ID,
			Downstream: s.Downstream,
			Name:       s.Name,
			Length:     s.Length,
			Area:       s.Area,
		}
		if s.Weight != nil {
			seg.Weight = *s.Weight
			seg.HasWeight = true
		}
		if err := n.Add(seg); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// WriteJSON encodes the network as JSON and writes it to w.
// The output can be re-imported with [ReadJSON] for round-trip processing.
func WriteJSON(n *Network, w io.Writer) error {
	out := table{Segments: make([]row, n.Len())}
	for i, s := range n.Segments() {
		r := row{
			ID:         s.ID,
			Downstream: s.Downstream,
			Name:       s.Name,
			Length:     s.Length,
			Area:       s.Area,
		}
		if s.HasWeight {
			w := s.Weight
			r.Weight = &w
		}
		out.Segments[i] = r
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadJSONFile reads a JSON network file at path.
// The error wraps the underlying cause with the file path for context.
func ReadJSONFile(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
