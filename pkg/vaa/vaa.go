// Package vaa computes network value-added attributes for a river network:
// a topological ordering index (hydrosequence), mainstem path identifiers
// (levelpath), terminal path ids, cumulative path length, downstream
// linkage, cumulative drainage area, and terminal flags.
//
// The computation runs in four stages:
//
//  1. Partition: split the network into disjoint outlet-rooted basins
//     ([Partition])
//  2. Schedule: run a per-basin mainstem assignment, sequentially or across
//     a worker pool depending on basin size ([Schedule])
//  3. Combine: merge basin-local numberings into one globally unique
//     identifier space ([Combine])
//  4. Derive: join the combined table back onto the full network and
//     compute the remaining propagated attributes ([Derive])
//
// Basins are provably independent, which is what makes stage 2 safe to
// parallelize: no two basin computations ever touch the same segment id.
// The mainstem algorithm itself is injected as an [Assigner] so alternate
// implementations can be substituted without touching the scheduling logic;
// [github.com/kmallard/riverseq/pkg/vaa/mainstem] provides the default.
package vaa

import (
	"context"

	"github.com/kmallard/riverseq/pkg/network"
)

// BasinSegment is the canonical per-segment projection carried through the
// partition and mainstem stages: topology plus the attributes mainstem
// selection needs. Relative attribute values are unchanged by projection.
type BasinSegment struct {
	ID         int64   `json:"id"`
	Downstream int64   `json:"downstream,omitempty"`
	Name       string  `json:"name,omitempty"`
	Weight     float64 `json:"weight"`
}

// Basin is one outlet-rooted subnetwork: the maximal set of segments whose
// flow path reaches the outlet segment. Basins produced by [Partition] form
// an exact partition of the network's segment set.
type Basin struct {
	Outlet   int64          `json:"outlet"`
	Segments []BasinSegment `json:"segments"`
}

// Len returns the number of segments in the basin.
func (b Basin) Len() int { return len(b.Segments) }

// Assignment is one row of a basin-local mainstem result: a hydrosequence
// and levelpath for a single segment. Values are only order-relevant within
// the basin; [Combine] rebases them into the global identifier space.
type Assignment struct {
	ID        int64 `json:"id"`
	Hydroseq  int64 `json:"hydroseq"`
	Levelpath int64 `json:"levelpath"`
}

// Assigner computes basin-local hydrosequence and levelpath values for one
// basin. overrideFactor biases mainstem tie-breaking toward a same-name
// upstream branch unless the competing branch outweighs it by more than the
// factor. parallelism is the internal parallelism degree the implementation
// may exploit for a single large basin; 0 or 1 means fully sequential.
//
// Implementations must return exactly one assignment per basin segment,
// with hydrosequence values unique within the basin and consistent with
// flow direction, and must fail if the basin contains a cycle.
type Assigner func(ctx context.Context, basin Basin, overrideFactor float64, parallelism int) ([]Assignment, error)

// BasinResult pairs a basin's outlet with its mainstem assignments.
type BasinResult struct {
	Outlet int64
	Rows   []Assignment
}

// GlobalRow is one row of the combined result table: globally unique
// hydrosequence/levelpath values plus the basin's terminal path id.
type GlobalRow struct {
	ID           int64
	Hydroseq     int64
	Levelpath    int64
	TerminalPath int64
}

// Attributes holds the derived attributes for one segment.
//
// PathLength is nil when the cumulative path-length computation could not
// resolve a value for the segment (disconnected or malformed downstream
// chain); such segments are reported by [DeriveResult.UndefinedPathLength]
// rather than silently assigned a fabricated zero. DnLevelpath and
// DnHydroseq are 0 for outlet segments. TerminalFlag is 1 for the segment
// achieving its terminal path's minimum hydrosequence, else 0.
type Attributes struct {
	Hydroseq     int64    `json:"hydroseq"`
	Levelpath    int64    `json:"levelpath"`
	TerminalPath int64    `json:"terminal_path"`
	PathLength   *float64 `json:"path_length,omitempty"`
	DnLevelpath  int64    `json:"dn_levelpath"`
	DnHydroseq   int64    `json:"dn_hydroseq"`
	TotalArea    float64  `json:"total_drainage_area"`
	TerminalFlag int      `json:"terminal_flag"`
}

// Augmented is one output row: the input segment with its derived
// attributes appended.
type Augmented struct {
	network.Segment
	Attributes
}
