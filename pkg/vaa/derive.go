package vaa

import (
	"slices"

	"github.com/kmallard/riverseq/pkg/errors"
	"github.com/kmallard/riverseq/pkg/network"
)

// DeriveResult is the output of the attribute derivation pipeline.
type DeriveResult struct {
	// Rows holds one augmented row per input segment, in network insertion
	// order. No segment is duplicated or dropped.
	Rows []Augmented

	// UndefinedPathLength lists segment ids (ascending) for which the
	// cumulative path-length computation could not resolve a value. The
	// condition is non-fatal: affected rows carry a nil PathLength and all
	// other attributes are derived normally.
	UndefinedPathLength []int64
}

// Derive joins the combined global table back onto the full network and
// computes the remaining propagated attributes:
//
//  1. terminal path, hydrosequence and levelpath from the combined table
//  2. cumulative path length (left join; unresolvable rows surface in
//     UndefinedPathLength rather than aborting)
//  3. the downstream segment's levelpath, defaulting to 0 at true outlets
//  4. the downstream segment's hydrosequence, same default
//  5. total upstream drainage area
//  6. terminal flags: within each terminal-path group, the segment(s)
//     achieving the group's minimum hydrosequence are flagged
//
// Each join is keyed explicitly on downstream -> id with left-join
// semantics: an unmatched row gets the defined default, never an undefined
// value. Derive fails with an INTERNAL_ERROR if a segment is missing from
// the combined table, since the partition/combine stages guarantee full
// coverage.
func Derive(n *network.Network, global []GlobalRow) (DeriveResult, error) {
	byID := make(map[int64]GlobalRow, len(global))
	for _, r := range global {
		byID[r.ID] = r
	}

	pathLengths := PathLengths(n)
	totals := TotalDrainageAreas(n)

	var res DeriveResult
	res.Rows = make([]Augmented, 0, n.Len())

	// minimum hydrosequence per terminal-path group, for terminal flags
	groupMin := make(map[int64]int64)

	for _, seg := range n.Segments() {
		row, ok := byID[seg.ID]
		if !ok {
			return DeriveResult{}, errors.New(errors.ErrCodeInternal, "segment %d missing from combined table", seg.ID)
		}

		a := Attributes{
			Hydroseq:     row.Hydroseq,
			Levelpath:    row.Levelpath,
			TerminalPath: row.TerminalPath,
		}

		if pl, ok := pathLengths[seg.ID]; ok {
			a.PathLength = &pl
		} else {
			res.UndefinedPathLength = append(res.UndefinedPathLength, seg.ID)
		}

		if seg.Downstream != network.Outlet {
			if dn, ok := byID[seg.Downstream]; ok {
				a.DnLevelpath = dn.Levelpath
				a.DnHydroseq = dn.Hydroseq
			}
		}

		a.TotalArea = totals[seg.ID]

		if cur, ok := groupMin[row.TerminalPath]; !ok || row.Hydroseq < cur {
			groupMin[row.TerminalPath] = row.Hydroseq
		}

		res.Rows = append(res.Rows, Augmented{Segment: seg, Attributes: a})
	}

	for i := range res.Rows {
		a := &res.Rows[i].Attributes
		if a.Hydroseq == groupMin[a.TerminalPath] {
			a.TerminalFlag = 1
		}
	}

	slices.Sort(res.UndefinedPathLength)
	return res, nil
}
