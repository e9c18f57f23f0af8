// Package pipeline provides the core augmentation pipeline for Riverseq.
//
// This package implements the complete partition → assign → combine → derive
// pipeline that can be used by CLI and API components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid code
// duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Partition: Split the network into independent basins by outlet
//  2. Assign: Number each basin's segments along mainstem paths
//  3. Combine: Merge basin-local numberings into one global table
//  4. Derive: Join per-segment attributes onto the combined table
//
// Only the partition stage is cached; assignment is pure computation keyed
// entirely by the partition output, and derivation is a cheap join.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, net, pipeline.Options{Parallelism: 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	rows := result.Rows
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kmallard/riverseq/pkg/vaa"
	"github.com/kmallard/riverseq/pkg/vaa/mainstem"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultParallelism runs the pipeline fully sequentially. Callers opt
	// in to concurrency explicitly; a surprise worker pool is worse UX than
	// a slow run on small networks.
	DefaultParallelism = 0

	// DefaultSizeThreshold mirrors vaa.DefaultSizeThreshold: basins above
	// this segment count are scheduled one at a time with internal
	// parallelism instead of being fanned across the small-basin pool.
	DefaultSizeThreshold = vaa.DefaultSizeThreshold

	// DefaultOverrideFactor mirrors vaa.DefaultOverrideFactor: a competing
	// branch must outweigh the same-name branch by more than this factor to
	// take the mainstem.
	DefaultOverrideFactor = vaa.DefaultOverrideFactor
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for the augmentation pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Parallelism bounds concurrent mainstem assignment. 0 means fully
	// sequential execution with no worker goroutines.
	Parallelism int `json:"parallelism,omitempty"`

	// SizeThreshold is the segment count above which a basin is considered
	// large and scheduled on its own. 0 selects the default.
	SizeThreshold int `json:"size_threshold,omitempty"`

	// OverrideFactor tunes name-based mainstem tie-breaking. 0 selects the
	// default (1.0, meaning the heavier branch always wins).
	OverrideFactor float64 `json:"override_factor,omitempty"`

	// Refresh bypasses the partition cache and recomputes.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Assigner vaa.Assigner `json:"-"`
	Logger   *log.Logger  `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks fields and applies defaults for the full
// pipeline. This method is idempotent - calling it multiple times has the
// same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Parallelism < 0 {
		return fmt.Errorf("parallelism must not be negative: %d", o.Parallelism)
	}
	if o.SizeThreshold < 0 {
		return fmt.Errorf("size_threshold must not be negative: %d", o.SizeThreshold)
	}
	if o.OverrideFactor < 0 {
		return fmt.Errorf("override_factor must not be negative: %g", o.OverrideFactor)
	}
	if o.SizeThreshold == 0 {
		o.SizeThreshold = DefaultSizeThreshold
	}
	if o.OverrideFactor == 0 {
		o.OverrideFactor = DefaultOverrideFactor
	}
	if o.Assigner == nil {
		o.Assigner = mainstem.Assign
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// scheduleOptions translates pipeline options to scheduler options.
func (o *Options) scheduleOptions() vaa.ScheduleOptions {
	return vaa.ScheduleOptions{
		Parallelism:    o.Parallelism,
		SizeThreshold:  o.SizeThreshold,
		OverrideFactor: o.OverrideFactor,
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Rows is the augmented segment table, one row per input segment.
	Rows []vaa.Augmented

	// NetworkHash is the content hash of the (weight-filled) network.
	NetworkHash string

	// UndefinedPathLength lists segments whose distance-to-outlet is
	// undefined because their downstream walk never reaches an outlet.
	UndefinedPathLength []int64

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	SegmentCount  int
	BasinCount    int
	PartitionTime time.Duration
	AssignTime    time.Duration
	CombineTime   time.Duration
	DeriveTime    time.Duration
}

// CacheInfo tracks cache hits for each cached pipeline stage.
type CacheInfo struct {
	PartitionHit bool // Whether the basin partition came from cache
}
