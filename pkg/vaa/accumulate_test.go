package vaa

import (
	"math"
	"testing"

	"github.com/kmallard/riverseq/pkg/network"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTotalDrainageAreas(t *testing.T) {
	// 3 -> 2 -> 1, with 4 also draining into 2.
	n := buildNetwork(t,
		network.Segment{ID: 1, Area: 2},
		network.Segment{ID: 2, Downstream: 1, Area: 1.5},
		network.Segment{ID: 3, Downstream: 2, Area: 1},
		network.Segment{ID: 4, Downstream: 2, Area: 0.5},
	)

	totals := TotalDrainageAreas(n)

	if !almostEqual(totals[3], 1) {
		t.Errorf("headwater total = %g, want its own area", totals[3])
	}
	if !almostEqual(totals[2], 3) {
		t.Errorf("junction total = %g, want 3", totals[2])
	}
	if !almostEqual(totals[1], 5) {
		t.Errorf("outlet total = %g, want whole-basin area 5", totals[1])
	}

	// Totals never decrease downstream.
	for _, s := range n.Segments() {
		if s.Downstream == network.Outlet {
			continue
		}
		if totals[s.Downstream] < totals[s.ID] {
			t.Errorf("total shrank downstream of %d: %g -> %g", s.ID, totals[s.ID], totals[s.Downstream])
		}
	}
}

func TestArbolateSum(t *testing.T) {
	n := buildNetwork(t,
		network.Segment{ID: 1, Length: 4},
		network.Segment{ID: 2, Downstream: 1, Length: 3},
		network.Segment{ID: 3, Downstream: 1, Length: 2},
	)

	arb := ArbolateSum(n)

	// Includes the segment's own length.
	if !almostEqual(arb[2], 3) {
		t.Errorf("arbolate(2) = %g, want 3", arb[2])
	}
	if !almostEqual(arb[1], 9) {
		t.Errorf("arbolate(1) = %g, want 9", arb[1])
	}
}

func TestPathLengths(t *testing.T) {
	// 3 -> 2 -> 1 (outlet). Path length measures from the segment's
	// downstream end to the outlet.
	n := buildNetwork(t,
		network.Segment{ID: 1, Length: 4},
		network.Segment{ID: 2, Downstream: 1, Length: 3},
		network.Segment{ID: 3, Downstream: 2, Length: 2},
	)

	pl := PathLengths(n)

	if !almostEqual(pl[1], 0) {
		t.Errorf("outlet path length = %g, want 0", pl[1])
	}
	if !almostEqual(pl[2], 4) {
		t.Errorf("pathLength(2) = %g, want 4", pl[2])
	}
	if !almostEqual(pl[3], 7) {
		t.Errorf("pathLength(3) = %g, want 7", pl[3])
	}
}

func TestPathLengthsMemoized(t *testing.T) {
	// Two branches share the downstream chain; both must resolve.
	n := buildNetwork(t,
		network.Segment{ID: 1, Length: 1},
		network.Segment{ID: 2, Downstream: 1, Length: 2},
		network.Segment{ID: 3, Downstream: 2, Length: 5},
		network.Segment{ID: 4, Downstream: 2, Length: 7},
	)

	pl := PathLengths(n)
	if !almostEqual(pl[3], 3) || !almostEqual(pl[4], 3) {
		t.Errorf("branch path lengths = %g, %g, want 3, 3", pl[3], pl[4])
	}
}

func TestPathLengthsUndefined(t *testing.T) {
	// Two-segment cycle plus a healthy outlet chain. Network.Add permits
	// the cycle; only Validate rejects it, and PathLengths must stay
	// well-defined on such input.
	n := buildNetwork(t,
		network.Segment{ID: 1, Length: 1},
		network.Segment{ID: 2, Downstream: 1, Length: 2},
		network.Segment{ID: 10, Downstream: 11, Length: 1},
		network.Segment{ID: 11, Downstream: 10, Length: 1},
	)

	pl := PathLengths(n)

	if _, ok := pl[10]; ok {
		t.Error("segment on a cycle should have undefined path length")
	}
	if _, ok := pl[11]; ok {
		t.Error("segment on a cycle should have undefined path length")
	}
	if !almostEqual(pl[2], 1) {
		t.Errorf("healthy chain affected by cycle: pathLength(2) = %g", pl[2])
	}
}
