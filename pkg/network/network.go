// Package network defines the river-network data model: a set of stream
// segments linked by a single downstream reference, forming a rooted,
// outlet-terminated forest.
//
// A Network is built segment by segment with [Network.Add] and validated as a
// whole with [Network.Validate]. Validation checks the two structural
// invariants every downstream computation relies on: each non-outlet segment
// references exactly one existing segment, and the downstream graph is
// acyclic.
//
// The zero value is not usable - use [New] to create a Network.
// Network is not safe for concurrent mutation without external
// synchronization; read-only use from multiple goroutines is fine.
package network

import (
	"errors"
	"fmt"
	"slices"
)

// Outlet is the sentinel downstream id marking a segment with no downstream
// segment (the terminal point of a basin).
const Outlet int64 = 0

var (
	// ErrInvalidID is returned by [Network.Add] when the segment id is not a
	// positive integer. Id 0 is reserved as the outlet sentinel.
	ErrInvalidID = errors.New("segment ID must be a positive integer")

	// ErrDuplicateID is returned by [Network.Add] when a segment with the
	// same id already exists. Segment ids must be unique.
	ErrDuplicateID = errors.New("duplicate segment ID")

	// ErrNegativeLength is returned by [Network.Add] for a negative length.
	ErrNegativeLength = errors.New("segment length must not be negative")

	// ErrNegativeArea is returned by [Network.Add] for a negative area.
	ErrNegativeArea = errors.New("segment area must not be negative")

	// ErrDanglingDownstream is returned by [Network.Validate] when a
	// segment's downstream reference points to a nonexistent segment.
	ErrDanglingDownstream = errors.New("downstream reference to nonexistent segment")

	// ErrCycle is returned by [Network.Validate] when the downstream graph
	// contains a cycle. Cycles are detected using depth-first search with
	// white/gray/black coloring.
	ErrCycle = errors.New("network contains a cycle")
)

// Segment is one stream reach: a node in the downstream graph.
//
// Downstream holds the id of the next segment downstream, or [Outlet] if the
// segment terminates its basin. Name is a free-text grouping key used for
// mainstem tie-breaking and may be empty. Weight is the mainstem selection
// weight; it is only meaningful when HasWeight is true, otherwise the
// pipeline derives a default from the arbolate sum.
type Segment struct {
	ID         int64   `json:"id"`
	Downstream int64   `json:"downstream,omitempty"`
	Name       string  `json:"name,omitempty"`
	Length     float64 `json:"length"`
	Area       float64 `json:"area"`
	Weight     float64 `json:"weight,omitempty"`
	HasWeight  bool    `json:"-"`
}

// IsOutlet reports whether the segment has no downstream segment.
func (s Segment) IsOutlet() bool { return s.Downstream == Outlet }

// Network is a collection of segments indexed by id, with a reverse
// (upstream) adjacency index maintained incrementally by Add.
type Network struct {
	segments []Segment
	index    map[int64]int     // id -> position in segments
	upstream map[int64][]int64 // id -> ids flowing into it
}

// New creates an empty network. The capacity hint sizes the internal
// indices; pass 0 when the segment count is unknown.
func New(capacity int) *Network {
	return &Network{
		segments: make([]Segment, 0, capacity),
		index:    make(map[int64]int, capacity),
		upstream: make(map[int64][]int64, capacity),
	}
}

// Add appends a segment to the network.
// Returns ErrInvalidID for non-positive ids, ErrDuplicateID when the id is
// already present, and ErrNegativeLength/ErrNegativeArea for negative
// measures. The downstream reference is not resolved here - dangling
// references are a whole-network condition reported by Validate.
func (n *Network) Add(s Segment) error {
	if s.ID <= 0 {
		return fmt.Errorf("segment %d: %w", s.ID, ErrInvalidID)
	}
	if _, exists := n.index[s.ID]; exists {
		return fmt.Errorf("segment %d: %w", s.ID, ErrDuplicateID)
	}
	if s.Length < 0 {
		return fmt.Errorf("segment %d: %w", s.ID, ErrNegativeLength)
	}
	if s.Area < 0 {
		return fmt.Errorf("segment %d: %w", s.ID, ErrNegativeArea)
	}
	n.index[s.ID] = len(n.segments)
	n.segments = append(n.segments, s)
	if s.Downstream != Outlet {
		n.upstream[s.Downstream] = append(n.upstream[s.Downstream], s.ID)
	}
	return nil
}

// Len returns the number of segments.
func (n *Network) Len() int { return len(n.segments) }

// Segment returns the segment with the given id and true, or a zero Segment
// and false if not found.
func (n *Network) Segment(id int64) (Segment, bool) {
	i, ok := n.index[id]
	if !ok {
		return Segment{}, false
	}
	return n.segments[i], true
}

// Contains reports whether a segment with the given id exists.
func (n *Network) Contains(id int64) bool {
	_, ok := n.index[id]
	return ok
}

// Segments returns a copy of all segments in insertion order.
func (n *Network) Segments() []Segment { return slices.Clone(n.segments) }

// SetWeight sets the explicit weight of the segment with the given id.
// It is a no-op if the segment does not exist.
func (n *Network) SetWeight(id int64, w float64) {
	if i, ok := n.index[id]; ok {
		n.segments[i].Weight = w
		n.segments[i].HasWeight = true
	}
}

// Weighted reports whether every segment carries an explicit weight.
func (n *Network) Weighted() bool {
	for _, s := range n.segments {
		if !s.HasWeight {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the network.
func (n *Network) Clone() *Network {
	c := New(n.Len())
	for _, s := range n.segments {
		// Adding segments that were already accepted cannot fail.
		_ = c.Add(s)
	}
	return c
}

// Upstream returns the ids of segments flowing directly into the given
// segment. The returned slice should not be modified - use it as a
// read-only view. Returns nil for headwater segments.
func (n *Network) Upstream(id int64) []int64 { return n.upstream[id] }

// Outlets returns the ids of all outlet segments in ascending order.
// The ordering makes basin enumeration deterministic across runs.
func (n *Network) Outlets() []int64 {
	var out []int64
	for _, s := range n.segments {
		if s.IsOutlet() {
			out = append(out, s.ID)
		}
	}
	slices.Sort(out)
	return out
}

// Validate checks structural integrity and returns nil if the network is a
// rooted, outlet-terminated forest. It verifies two constraints:
//
//  1. Every non-outlet segment's downstream reference resolves to an
//     existing segment (ErrDanglingDownstream otherwise)
//  2. The downstream graph is acyclic (ErrCycle otherwise)
//
// Errors are wrapped with the offending segment id; use errors.Is to test
// for the condition. Validation runs in O(N) time.
func (n *Network) Validate() error {
	for _, s := range n.segments {
		if s.Downstream == Outlet {
			continue
		}
		if _, ok := n.index[s.Downstream]; !ok {
			return fmt.Errorf("segment %d -> %d: %w", s.ID, s.Downstream, ErrDanglingDownstream)
		}
	}
	return n.detectCycle()
}

// detectCycle colors segments along downstream chains. Each segment has at
// most one outgoing edge, so a gray revisit pins the cycle entry point.
func (n *Network) detectCycle() error {
	const (
		white = iota
		gray
		black
	)

	color := make(map[int64]int, len(n.segments))
	for _, s := range n.segments {
		if color[s.ID] != white {
			continue
		}
		id := s.ID
		var chain []int64
		for id != Outlet && color[id] == white {
			color[id] = gray
			chain = append(chain, id)
			seg, ok := n.Segment(id)
			if !ok {
				break
			}
			id = seg.Downstream
		}
		if id != Outlet && color[id] == gray {
			return fmt.Errorf("segment %d: %w", id, ErrCycle)
		}
		for _, c := range chain {
			color[c] = black
		}
	}
	return nil
}
