package vaa

import "github.com/kmallard/riverseq/pkg/network"

// PathLengths returns the cumulative distance from each segment's
// downstream end to its basin outlet. Outlet segments have path length 0;
// every other segment's path length is the downstream segment's path
// length plus the downstream segment's own length.
//
// The result is undefined - absent from the map - for segments whose
// downstream chain does not terminate at an outlet (dangling reference or
// cycle). Callers decide how to surface those; the pipeline reports them
// as a non-fatal warning and leaves the attribute unset.
func PathLengths(n *network.Network) map[int64]float64 {
	lengths := make(map[int64]float64, n.Len())
	// resolved tracks chain walk outcomes: true = path length known,
	// false = known undefined.
	resolved := make(map[int64]bool, n.Len())

	for _, start := range n.Segments() {
		if _, seen := resolved[start.ID]; seen {
			continue
		}

		// Walk the downstream chain until it terminates at an outlet,
		// reaches a segment already resolved either way, or revisits this
		// walk (a cycle).
		var chain []int64
		onChain := make(map[int64]bool)
		id := start.ID
		defined := false
		base := 0.0 // path length of the segment below the chain's end

		for {
			if known, seen := resolved[id]; seen {
				defined = known
				base = lengths[id]
				break
			}
			if onChain[id] {
				break // cycle: everything on the chain is undefined
			}
			seg, ok := n.Segment(id)
			if !ok {
				break // dangling reference
			}
			chain = append(chain, id)
			onChain[id] = true
			if seg.Downstream == network.Outlet {
				defined = true
				base = 0
				// The unwind adds lengthOf(Outlet) == 0 for this segment.
				break
			}
			id = seg.Downstream
		}

		// Unwind from the most downstream chain member upstream, applying
		// pathLength(s) = pathLength(down(s)) + length(down(s)).
		for i := len(chain) - 1; i >= 0; i-- {
			cid := chain[i]
			if !defined {
				resolved[cid] = false
				continue
			}
			seg, _ := n.Segment(cid)
			lengths[cid] = base + lengthOf(n, seg.Downstream)
			base = lengths[cid]
			resolved[cid] = true
		}
	}

	return lengths
}

func lengthOf(n *network.Network, id int64) float64 {
	if id == network.Outlet {
		return 0
	}
	seg, _ := n.Segment(id)
	return seg.Length
}
