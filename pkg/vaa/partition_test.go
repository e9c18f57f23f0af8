package vaa

import (
	"testing"

	"github.com/kmallard/riverseq/pkg/errors"
	"github.com/kmallard/riverseq/pkg/network"
)

// buildNetwork adds segments and fails the test on any error.
func buildNetwork(t *testing.T, segments ...network.Segment) *network.Network {
	t.Helper()
	n := network.New(len(segments))
	for _, s := range segments {
		if err := n.Add(s); err != nil {
			t.Fatalf("Add(%d): %v", s.ID, err)
		}
	}
	return n
}

func basinByOutlet(t *testing.T, basins []Basin, outlet int64) Basin {
	t.Helper()
	for _, b := range basins {
		if b.Outlet == outlet {
			return b
		}
	}
	t.Fatalf("no basin with outlet %d", outlet)
	return Basin{}
}

func TestPartitionTwoBasins(t *testing.T) {
	// 3 -> 2 -> 1 (outlet), plus isolated outlet 4.
	n := buildNetwork(t,
		network.Segment{ID: 1, Length: 1, Area: 1},
		network.Segment{ID: 2, Downstream: 1, Length: 1, Area: 1},
		network.Segment{ID: 3, Downstream: 2, Length: 1, Area: 1},
		network.Segment{ID: 4, Length: 1, Area: 1},
	)

	basins, err := Partition(n)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	if len(basins) != 2 {
		t.Fatalf("got %d basins, want 2", len(basins))
	}

	// Ascending outlet order.
	if basins[0].Outlet != 1 || basins[1].Outlet != 4 {
		t.Errorf("basin order = [%d %d], want [1 4]", basins[0].Outlet, basins[1].Outlet)
	}

	b1 := basinByOutlet(t, basins, 1)
	if b1.Len() != 3 {
		t.Errorf("basin 1 has %d segments, want 3", b1.Len())
	}
	b4 := basinByOutlet(t, basins, 4)
	if b4.Len() != 1 {
		t.Errorf("basin 4 has %d segments, want 1", b4.Len())
	}

	// Exact partition: no segment shared, none missing.
	seen := make(map[int64]int)
	for _, b := range basins {
		for _, s := range b.Segments {
			seen[s.ID]++
		}
	}
	if len(seen) != n.Len() {
		t.Errorf("basins cover %d segments, want %d", len(seen), n.Len())
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("segment %d appears in %d basins", id, count)
		}
	}
}

func TestPartitionDownstreamFirstOrder(t *testing.T) {
	n := buildNetwork(t,
		network.Segment{ID: 5},
		network.Segment{ID: 2, Downstream: 5},
		network.Segment{ID: 9, Downstream: 2},
	)

	basins, err := Partition(n)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	b := basins[0]
	if b.Segments[0].ID != 5 {
		t.Errorf("first basin segment = %d, want the outlet", b.Segments[0].ID)
	}
}

func TestPartitionCycle(t *testing.T) {
	n := buildNetwork(t,
		network.Segment{ID: 1, Downstream: 2},
		network.Segment{ID: 2, Downstream: 1},
		network.Segment{ID: 3},
	)

	_, err := Partition(n)
	if !errors.Is(err, errors.ErrCodeMalformedNetwork) {
		t.Fatalf("cycle should yield MALFORMED_NETWORK, got %v", err)
	}
}

func TestPartitionDangling(t *testing.T) {
	n := buildNetwork(t,
		network.Segment{ID: 1},
		network.Segment{ID: 2, Downstream: 77},
	)

	_, err := Partition(n)
	if !errors.Is(err, errors.ErrCodeMalformedNetwork) {
		t.Fatalf("dangling reference should yield MALFORMED_NETWORK, got %v", err)
	}
}

func TestPartitionProjectsWeights(t *testing.T) {
	n := buildNetwork(t,
		network.Segment{ID: 1, Name: "main", Weight: 5, HasWeight: true},
		network.Segment{ID: 2, Downstream: 1, Name: "fork", Weight: 2, HasWeight: true},
	)

	basins, err := Partition(n)
	if err != nil {
		t.Fatalf("Partition: %v", err)
	}
	for _, s := range basins[0].Segments {
		orig, _ := n.Segment(s.ID)
		if s.Weight != orig.Weight || s.Name != orig.Name || s.Downstream != orig.Downstream {
			t.Errorf("projection changed segment %d: %+v", s.ID, s)
		}
	}
}
