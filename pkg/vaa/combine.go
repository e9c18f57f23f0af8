package vaa

// Combine merges per-basin result tables into one table with globally
// unique, non-overlapping hydrosequence and levelpath ranges, and assigns
// each basin's terminal path id.
//
// It is a pure fold over the basin results in their given (deterministic)
// order, threading the numbering offset explicitly: each basin's values are
// shifted by the running offset, then the offset advances to that basin's
// maximum hydrosequence. The basin's terminal path is its minimum
// post-shift hydrosequence - the identifier of the outlet path. Completion
// order of the upstream computation never matters because the offsets are
// applied in a fixed pass after all results are collected.
//
// Every row retains its original segment id; row order across basins is not
// significant downstream of this point.
func Combine(results []BasinResult) []GlobalRow {
	var out []GlobalRow
	offset := int64(0)

	for _, br := range results {
		if len(br.Rows) == 0 {
			continue
		}

		start := len(out)
		minH, maxH := int64(0), int64(0)
		for i, r := range br.Rows {
			h := r.Hydroseq + offset
			if i == 0 || h < minH {
				minH = h
			}
			if i == 0 || h > maxH {
				maxH = h
			}
			out = append(out, GlobalRow{
				ID:        r.ID,
				Hydroseq:  h,
				Levelpath: r.Levelpath + offset,
			})
		}

		for i := start; i < len(out); i++ {
			out[i].TerminalPath = minH
		}
		offset = maxH
	}

	return out
}
