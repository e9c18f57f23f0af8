package vaa

import (
	"slices"

	"github.com/kmallard/riverseq/pkg/errors"
	"github.com/kmallard/riverseq/pkg/network"
)

// Partition splits the network into one outlet-rooted basin per outlet
// segment, via reverse reachability: starting from each outlet, every
// segment that eventually flows into it is collected into that outlet's
// basin. Each segment is projected to the canonical BasinSegment attribute
// set.
//
// Basins are returned in ascending outlet-id order, making basin
// enumeration deterministic across runs. The union of all basin id sets
// equals the network's id set and basins are pairwise disjoint - both
// guaranteed by the single-downstream-reference structure once the network
// validates.
//
// Partition validates the network first and fails with a MALFORMED_NETWORK
// error identifying the offending segment when a downstream reference
// points to a nonexistent segment or the downstream graph contains a cycle.
// It never silently omits or duplicates segments.
func Partition(n *network.Network) ([]Basin, error) {
	if err := n.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedNetwork, err, "network failed structural validation")
	}

	outlets := n.Outlets()
	basins := make([]Basin, 0, len(outlets))
	covered := 0

	for _, outlet := range outlets {
		b := Basin{Outlet: outlet}

		// Breadth-first reverse traversal: discover ancestors outward from
		// the outlet, so basin segments are ordered downstream-first.
		queue := []int64{outlet}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]

			seg, ok := n.Segment(id)
			if !ok {
				return nil, errors.New(errors.ErrCodeMalformedNetwork, "segment %d vanished during traversal", id)
			}
			b.Segments = append(b.Segments, BasinSegment{
				ID:         seg.ID,
				Downstream: seg.Downstream,
				Name:       seg.Name,
				Weight:     seg.Weight,
			})

			ups := slices.Clone(n.Upstream(id))
			slices.Sort(ups)
			queue = append(queue, ups...)
		}

		covered += b.Len()
		basins = append(basins, b)
	}

	// A validated forest is fully covered by its outlet traversals; anything
	// else means the structure changed underneath us.
	if covered != n.Len() {
		for _, seg := range n.Segments() {
			if !inBasins(basins, seg.ID) {
				return nil, errors.New(errors.ErrCodeMalformedNetwork, "segment %d unreachable from any outlet", seg.ID)
			}
		}
	}

	return basins, nil
}

func inBasins(basins []Basin, id int64) bool {
	for _, b := range basins {
		for _, s := range b.Segments {
			if s.ID == id {
				return true
			}
		}
	}
	return false
}
