package vaa

import (
	"context"
	"sync"

	"github.com/kmallard/riverseq/pkg/errors"
)

// DefaultSizeThreshold is the basin size (in segments) above which a basin
// is considered "large" and scheduled on its own rather than fanned out
// across the worker pool. The value is threshold-only: it tunes scheduling,
// never correctness.
const DefaultSizeThreshold = 20000

// DefaultOverrideFactor disables name-based mainstem override: a same-name
// upstream branch is only preferred when it is itself the heaviest.
const DefaultOverrideFactor = 1.0

// ScheduleOptions controls how basins are dispatched to the Assigner.
type ScheduleOptions struct {
	// Parallelism is the worker pool size. 0 processes every basin
	// sequentially with no internal parallelism.
	Parallelism int

	// SizeThreshold separates large basins (scheduled one at a time, with
	// internal parallelism) from small ones (fanned out across the pool).
	// Defaults to DefaultSizeThreshold.
	SizeThreshold int

	// OverrideFactor is passed through to the Assigner.
	// Defaults to DefaultOverrideFactor.
	OverrideFactor float64
}

func (o *ScheduleOptions) setDefaults() {
	if o.SizeThreshold <= 0 {
		o.SizeThreshold = DefaultSizeThreshold
	}
	if o.OverrideFactor <= 0 {
		o.OverrideFactor = DefaultOverrideFactor
	}
}

// Schedule runs the mainstem assignment for every basin and returns the
// per-basin result tables in basin input order.
//
// With Parallelism 0 every basin runs sequentially. Otherwise basins larger
// than SizeThreshold are processed one at a time, each invocation receiving
// the full parallelism degree so the Assigner can exploit it inside the one
// large graph; basins at or under the threshold are distributed across a
// pool of Parallelism workers, one basin per worker slot, each invocation
// sequential internally. A single large basin gains nothing from queueing
// behind many others; many small basins amortize overhead better by running
// concurrently than by parallelizing inside each cheap computation.
//
// Basin-local values need not be numerically stable across parallelism
// settings - only uniqueness and relative order within a basin matter; the
// combiner owns absolute values.
//
// If any invocation fails, Schedule cancels the remaining work, waits for
// all workers to terminate, and returns a WORKER_FAILURE error naming the
// failing basin's outlet. No partial results are returned.
func Schedule(ctx context.Context, basins []Basin, assign Assigner, opts ScheduleOptions) ([]BasinResult, error) {
	opts.setDefaults()

	results := make([]BasinResult, len(basins))

	if opts.Parallelism <= 0 {
		for i, b := range basins {
			rows, err := assign(ctx, b, opts.OverrideFactor, 0)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeWorkerFailure, err, "mainstem assignment failed for basin outlet %d", b.Outlet)
			}
			results[i] = BasinResult{Outlet: b.Outlet, Rows: rows}
		}
		return results, nil
	}

	var small []int
	for i, b := range basins {
		if b.Len() > opts.SizeThreshold {
			rows, err := assign(ctx, b, opts.OverrideFactor, opts.Parallelism)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeWorkerFailure, err, "mainstem assignment failed for basin outlet %d", b.Outlet)
			}
			results[i] = BasinResult{Outlet: b.Outlet, Rows: rows}
			continue
		}
		small = append(small, i)
	}

	if err := fanOut(ctx, basins, small, assign, opts, results); err != nil {
		return nil, err
	}
	return results, nil
}

// fanOut distributes small basins across a pool of opts.Parallelism
// workers. Workers write to disjoint result slots, so no locking is needed
// beyond the first-error capture. The pool is fully drained before fanOut
// returns, on both success and failure paths.
func fanOut(ctx context.Context, basins []Basin, indices []int, assign Assigner, opts ScheduleOptions, results []BasinResult) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)

	var mu sync.Mutex
	var firstErr error
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for w := 0; w < opts.Parallelism; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				b := basins[i]
				rows, err := assign(ctx, b, opts.OverrideFactor, 0)
				if err != nil {
					fail(errors.Wrap(errors.ErrCodeWorkerFailure, err, "mainstem assignment failed for basin outlet %d", b.Outlet))
					continue
				}
				results[i] = BasinResult{Outlet: b.Outlet, Rows: rows}
			}
		}()
	}

	for _, i := range indices {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeWorkerFailure, err, "scheduling cancelled")
	}
	return nil
}
