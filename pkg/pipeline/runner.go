package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/kmallard/riverseq/pkg/cache"
	"github.com/kmallard/riverseq/pkg/errors"
	"github.com/kmallard/riverseq/pkg/network"
	"github.com/kmallard/riverseq/pkg/vaa"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// partitionSnapshot is the cached form of a basin partition.
type partitionSnapshot struct {
	Basins []vaa.Basin `json:"basins"`
}

// Execute runs the complete partition → assign → combine → derive pipeline
// with caching. The input network is not modified; when segments lack
// explicit weights the runner works on a weight-filled copy.
func (r *Runner) Execute(ctx context.Context, n *network.Network, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}
	logger := opts.Logger.With("run", uuid.NewString()[:8])

	// Structural problems surface here, before any basin work starts. The
	// partition stage validates too, but a cache hit would skip it.
	if err := n.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeMalformedNetwork, err, "network failed structural validation")
	}

	result := &Result{}
	result.Stats.SegmentCount = n.Len()

	// Fill missing weights from the arbolate sum so mainstem selection
	// always has a weight to compare. Explicit weights are kept as-is.
	work := n
	if !n.Weighted() {
		work = n.Clone()
		arb := vaa.ArbolateSum(work)
		for _, s := range work.Segments() {
			if !s.HasWeight {
				work.SetWeight(s.ID, arb[s.ID])
			}
		}
		logger.Debug("filled missing weights from arbolate sum")
	}

	// Content hash for cache keys and API responses.
	var buf bytes.Buffer
	if err := network.WriteJSON(work, &buf); err != nil {
		return nil, fmt.Errorf("serialize network for cache key: %w", err)
	}
	result.NetworkHash = cache.Hash(buf.Bytes())

	// Stage 1: Partition
	partitionStart := time.Now()
	basins, partitionHit, err := r.partitionWithCacheInfo(ctx, work, result.NetworkHash, opts)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	result.Stats.PartitionTime = time.Since(partitionStart)
	result.Stats.BasinCount = len(basins)
	result.CacheInfo.PartitionHit = partitionHit

	logger.Info("partitioned network",
		"segments", n.Len(),
		"basins", len(basins),
		"cached", partitionHit,
		"duration", result.Stats.PartitionTime)

	// Stage 2: Assign
	assignStart := time.Now()
	assigned, err := vaa.Schedule(ctx, basins, opts.Assigner, opts.scheduleOptions())
	if err != nil {
		return nil, fmt.Errorf("assign: %w", err)
	}
	result.Stats.AssignTime = time.Since(assignStart)

	logger.Info("assigned mainstem sequences",
		"basins", len(assigned),
		"parallelism", opts.Parallelism,
		"duration", result.Stats.AssignTime)

	// Stage 3: Combine
	combineStart := time.Now()
	global := vaa.Combine(assigned)
	result.Stats.CombineTime = time.Since(combineStart)

	logger.Info("combined basin tables",
		"rows", len(global),
		"duration", result.Stats.CombineTime)

	// Stage 4: Derive
	deriveStart := time.Now()
	derived, err := vaa.Derive(work, global)
	if err != nil {
		return nil, fmt.Errorf("derive: %w", err)
	}
	result.Rows = derived.Rows
	result.UndefinedPathLength = derived.UndefinedPathLength
	result.Stats.DeriveTime = time.Since(deriveStart)

	if len(derived.UndefinedPathLength) > 0 {
		logger.Warn("segments with undefined path length",
			"count", len(derived.UndefinedPathLength))
	}
	logger.Info("derived attributes",
		"rows", len(derived.Rows),
		"duration", result.Stats.DeriveTime)

	return result, nil
}

// Partition is a convenience wrapper that partitions the network with
// caching and discards the cache hit info.
func (r *Runner) Partition(ctx context.Context, n *network.Network, opts Options) ([]vaa.Basin, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid options")
	}

	var buf bytes.Buffer
	if err := network.WriteJSON(n, &buf); err != nil {
		return nil, fmt.Errorf("serialize network for cache key: %w", err)
	}
	basins, _, err := r.partitionWithCacheInfo(ctx, n, cache.Hash(buf.Bytes()), opts)
	return basins, err
}

// partitionWithCacheInfo partitions the network with caching and reports
// whether the result came from the cache. Cache failures degrade to
// recomputation.
func (r *Runner) partitionWithCacheInfo(ctx context.Context, n *network.Network, networkHash string, opts Options) ([]vaa.Basin, bool, error) {
	cacheKey := r.Keyer.PartitionKey(networkHash)

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var snap partitionSnapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return snap.Basins, true, nil // Cache hit
			}
			// If deserialization fails, fall through to recompute
		}
	}

	basins, err := vaa.Partition(n)
	if err != nil {
		return nil, false, err
	}

	// Cache the result
	if data, err := json.Marshal(partitionSnapshot{Basins: basins}); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TTLPartition)
	}

	return basins, false, nil // Cache miss
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
