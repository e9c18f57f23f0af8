package vaa

import "github.com/kmallard/riverseq/pkg/network"

// ArbolateSum returns the cumulative upstream channel length per segment,
// including the segment's own length. It is the default mainstem selection
// weight when the caller supplies no explicit weights: at a junction, the
// branch draining the longer upstream channel network is the likelier
// mainstem.
func ArbolateSum(n *network.Network) map[int64]float64 {
	return accumulateDownstream(n, func(s network.Segment) float64 { return s.Length })
}
