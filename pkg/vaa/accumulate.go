package vaa

import "github.com/kmallard/riverseq/pkg/network"

// accumulateDownstream folds a per-segment quantity downstream through the
// network: each segment's total is its own value plus the totals of all
// segments flowing into it. Segments are processed in topological order
// (headwaters first) via Kahn's algorithm over the upstream-contribution
// counts; segments trapped in a cycle retain their own value, which is
// harmless because callers run on validated networks.
func accumulateDownstream(n *network.Network, value func(network.Segment) float64) map[int64]float64 {
	segments := n.Segments()
	totals := make(map[int64]float64, len(segments))
	remaining := make(map[int64]int, len(segments))

	var queue []int64
	for _, s := range segments {
		totals[s.ID] = value(s)
		ups := len(n.Upstream(s.ID))
		remaining[s.ID] = ups
		if ups == 0 {
			queue = append(queue, s.ID)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		seg, ok := n.Segment(id)
		if !ok || seg.Downstream == network.Outlet {
			continue
		}
		ds := seg.Downstream
		if _, ok := totals[ds]; !ok {
			continue
		}
		totals[ds] += totals[id]
		remaining[ds]--
		if remaining[ds] == 0 {
			queue = append(queue, ds)
		}
	}

	return totals
}

// TotalDrainageAreas returns the cumulative upstream contributing area per
// segment: the segment's own area plus the area of everything draining
// into it.
func TotalDrainageAreas(n *network.Network) map[int64]float64 {
	return accumulateDownstream(n, func(s network.Segment) float64 { return s.Area })
}
