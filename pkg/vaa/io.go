package vaa

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// WriteJSON encodes augmented rows as a JSON object with a "segments"
// array. Row order follows the input slice; readers must not depend on it.
func WriteJSON(rows []Augmented, w io.Writer) error {
	out := struct {
		Segments []Augmented `json:"segments"`
	}{Segments: rows}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteCSV encodes augmented rows as CSV with a header row. An undefined
// path length is written as an empty cell, never as a fabricated zero.
func WriteCSV(rows []Augmented, w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{
		"id", "downstream", "name", "length", "area", "weight",
		"hydroseq", "levelpath", "terminal_path", "path_length",
		"dn_levelpath", "dn_hydroseq", "total_drainage_area", "terminal_flag",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, r := range rows {
		pathLength := ""
		if r.PathLength != nil {
			pathLength = f(*r.PathLength)
		}
		rec := []string{
			strconv.FormatInt(r.ID, 10),
			strconv.FormatInt(r.Downstream, 10),
			r.Name,
			f(r.Length),
			f(r.Area),
			f(r.Weight),
			strconv.FormatInt(r.Hydroseq, 10),
			strconv.FormatInt(r.Levelpath, 10),
			strconv.FormatInt(r.TerminalPath, 10),
			pathLength,
			strconv.FormatInt(r.DnLevelpath, 10),
			strconv.FormatInt(r.DnHydroseq, 10),
			f(r.TotalArea),
			strconv.Itoa(r.TerminalFlag),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
