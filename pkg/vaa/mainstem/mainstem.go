// Package mainstem provides the default mainstem assignment algorithm: the
// [vaa.Assigner] used when no alternate implementation is injected.
//
// For one basin it identifies level paths by walking upstream from the
// outlet, at each junction continuing the current path along the dominant
// branch and starting a new path at every other branch. Dominance is
// decided by weight (arbolate sum by default), with an optional name
// override: an upstream branch sharing the current segment's name keeps
// the path unless a competing branch outweighs it by more than the
// override factor.
//
// Hydrosequence values are a basin-local topological order increasing
// upstream (the outlet is 1). A segment's levelpath is the hydrosequence of
// its path's most downstream segment, so the outlet path's levelpath equals
// the basin's terminal path id after global combination. Absolute values
// are an internal choice: callers may rely only on uniqueness and relative
// order.
package mainstem

import (
	"context"
	"slices"

	"github.com/kmallard/riverseq/pkg/errors"
	"github.com/kmallard/riverseq/pkg/vaa"
)

// Assign computes basin-local hydrosequence and levelpath values.
// It satisfies the [vaa.Assigner] contract: one assignment per basin
// segment, failing with a MALFORMED_NETWORK error if part of the basin is
// unreachable from the outlet (a cycle, since every segment has exactly
// one downstream reference).
//
// With parallelism > 1, independent level-path walks are fanned out across
// that many goroutines; path identification is a pure function of the
// basin topology, so results are identical to a sequential run.
func Assign(ctx context.Context, b vaa.Basin, overrideFactor float64, parallelism int) ([]vaa.Assignment, error) {
	if b.Len() == 0 {
		return nil, nil
	}
	if overrideFactor <= 0 {
		overrideFactor = vaa.DefaultOverrideFactor
	}

	idx := newIndex(b)
	if _, ok := idx.segment[b.Outlet]; !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "basin outlet %d not among basin segments", b.Outlet)
	}

	var paths map[int64][]int64
	var err error
	if parallelism > 1 {
		paths, err = idx.walkAllParallel(ctx, b.Outlet, overrideFactor, parallelism)
	} else {
		paths, err = idx.walkAll(ctx, b.Outlet, overrideFactor)
	}
	if err != nil {
		return nil, err
	}

	covered := 0
	for _, members := range paths {
		covered += len(members)
	}
	if covered != b.Len() {
		return nil, errors.New(errors.ErrCodeMalformedNetwork,
			"basin outlet %d: segment %d unreachable from outlet", b.Outlet, idx.firstUncovered(paths))
	}

	return idx.number(b, paths), nil
}

// index holds the static, read-only view of one basin that path walks
// share. Concurrent walks only read it.
type index struct {
	segment  map[int64]vaa.BasinSegment
	upstream map[int64][]int64
}

func newIndex(b vaa.Basin) *index {
	idx := &index{
		segment:  make(map[int64]vaa.BasinSegment, b.Len()),
		upstream: make(map[int64][]int64, b.Len()),
	}
	for _, s := range b.Segments {
		idx.segment[s.ID] = s
	}
	for _, s := range b.Segments {
		if _, ok := idx.segment[s.Downstream]; ok {
			idx.upstream[s.Downstream] = append(idx.upstream[s.Downstream], s.ID)
		}
	}
	for _, ups := range idx.upstream {
		slices.Sort(ups)
	}
	return idx
}

// walk traces one level path from its head upstream, returning the path
// members (downstream first) and the heads of the new paths branching off
// at each junction.
func (idx *index) walk(head int64, overrideFactor float64) (members, newHeads []int64) {
	cur := head
	for {
		members = append(members, cur)
		ups := idx.upstream[cur]
		if len(ups) == 0 {
			return members, newHeads
		}

		main := idx.dominant(cur, ups, overrideFactor)
		for _, u := range ups {
			if u != main {
				newHeads = append(newHeads, u)
			}
		}
		cur = main
	}
}

// dominant picks the upstream branch that continues the current path:
// the heaviest branch, unless a branch sharing the current segment's name
// is within the override factor of it.
func (idx *index) dominant(cur int64, ups []int64, overrideFactor float64) int64 {
	heaviest := ups[0]
	for _, u := range ups[1:] {
		if idx.segment[u].Weight > idx.segment[heaviest].Weight {
			heaviest = u
		}
	}

	name := idx.segment[cur].Name
	if name == "" {
		return heaviest
	}

	var sameName int64
	found := false
	for _, u := range ups {
		if idx.segment[u].Name != name {
			continue
		}
		if !found || idx.segment[u].Weight > idx.segment[sameName].Weight {
			sameName = u
			found = true
		}
	}
	if found && idx.segment[heaviest].Weight <= idx.segment[sameName].Weight*overrideFactor {
		return sameName
	}
	return heaviest
}

// walkAll identifies every level path sequentially.
func (idx *index) walkAll(ctx context.Context, outlet int64, overrideFactor float64) (map[int64][]int64, error) {
	paths := make(map[int64][]int64)
	stack := []int64{outlet}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		head := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		members, newHeads := idx.walk(head, overrideFactor)
		paths[head] = members
		stack = append(stack, newHeads...)
	}
	return paths, nil
}

// walkAllParallel fans independent path walks across a pool of workers.
// Channels are buffered to the basin size (paths never outnumber
// segments), so workers never block and a cancelled run leaks nothing.
func (idx *index) walkAllParallel(ctx context.Context, outlet int64, overrideFactor float64, parallelism int) (map[int64][]int64, error) {
	type walked struct {
		head     int64
		members  []int64
		newHeads []int64
	}

	n := len(idx.segment)
	heads := make(chan int64, n)
	results := make(chan walked, n)

	for w := 0; w < parallelism; w++ {
		go func() {
			for head := range heads {
				if ctx.Err() != nil {
					results <- walked{head: head}
					continue
				}
				members, newHeads := idx.walk(head, overrideFactor)
				results <- walked{head: head, members: members, newHeads: newHeads}
			}
		}()
	}

	paths := make(map[int64][]int64)
	outstanding := 1
	heads <- outlet

	for outstanding > 0 {
		select {
		case <-ctx.Done():
			close(heads)
			return nil, ctx.Err()
		case r := <-results:
			outstanding--
			if r.members != nil {
				paths[r.head] = r.members
			}
			for _, nh := range r.newHeads {
				outstanding++
				heads <- nh
			}
		}
	}
	close(heads)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return paths, nil
}

// number assigns hydrosequence values by breadth-first traversal upstream
// from the outlet (1 at the outlet, increasing upstream - a valid
// topological order since every segment is visited after its downstream
// neighbor), then sets each segment's levelpath to the hydrosequence of
// its path head.
func (idx *index) number(b vaa.Basin, paths map[int64][]int64) []vaa.Assignment {
	hydroseq := make(map[int64]int64, b.Len())
	next := int64(1)
	queue := []int64{b.Outlet}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		hydroseq[id] = next
		next++
		queue = append(queue, idx.upstream[id]...)
	}

	headOf := make(map[int64]int64, b.Len())
	for head, members := range paths {
		for _, m := range members {
			headOf[m] = head
		}
	}

	out := make([]vaa.Assignment, 0, b.Len())
	for _, s := range b.Segments {
		out = append(out, vaa.Assignment{
			ID:        s.ID,
			Hydroseq:  hydroseq[s.ID],
			Levelpath: hydroseq[headOf[s.ID]],
		})
	}
	return out
}

func (idx *index) firstUncovered(paths map[int64][]int64) int64 {
	covered := make(map[int64]bool)
	for _, members := range paths {
		for _, m := range members {
			covered[m] = true
		}
	}
	first := int64(-1)
	for id := range idx.segment {
		if !covered[id] && (first < 0 || id < first) {
			first = id
		}
	}
	return first
}
