package vaa

import "testing"

func TestCombineOffsets(t *testing.T) {
	results := []BasinResult{
		{Outlet: 1, Rows: []Assignment{
			{ID: 1, Hydroseq: 1, Levelpath: 1},
			{ID: 2, Hydroseq: 2, Levelpath: 1},
			{ID: 3, Hydroseq: 3, Levelpath: 1},
		}},
		{Outlet: 4, Rows: []Assignment{
			{ID: 4, Hydroseq: 1, Levelpath: 1},
		}},
	}

	global := Combine(results)
	if len(global) != 4 {
		t.Fatalf("got %d rows, want 4", len(global))
	}

	byID := make(map[int64]GlobalRow)
	for _, r := range global {
		byID[r.ID] = r
	}

	// First basin keeps its values, terminal path = its minimum.
	if byID[1].Hydroseq != 1 || byID[3].Hydroseq != 3 {
		t.Errorf("basin 1 hydroseq shifted: %+v %+v", byID[1], byID[3])
	}
	if byID[2].TerminalPath != 1 {
		t.Errorf("basin 1 terminal path = %d, want 1", byID[2].TerminalPath)
	}

	// Second basin is rebased past the first basin's maximum.
	if byID[4].Hydroseq != 4 {
		t.Errorf("basin 2 hydroseq = %d, want 4", byID[4].Hydroseq)
	}
	if byID[4].TerminalPath != 4 {
		t.Errorf("basin 2 terminal path = %d, want 4", byID[4].TerminalPath)
	}
}

func TestCombineGlobalUniqueness(t *testing.T) {
	// Three basins with overlapping local values.
	results := []BasinResult{
		{Outlet: 1, Rows: []Assignment{{ID: 1, Hydroseq: 1, Levelpath: 1}, {ID: 2, Hydroseq: 2, Levelpath: 2}}},
		{Outlet: 3, Rows: []Assignment{{ID: 3, Hydroseq: 1, Levelpath: 1}}},
		{Outlet: 4, Rows: []Assignment{{ID: 4, Hydroseq: 1, Levelpath: 1}, {ID: 5, Hydroseq: 2, Levelpath: 1}}},
	}

	global := Combine(results)

	seen := make(map[int64]bool)
	for _, r := range global {
		if seen[r.Hydroseq] {
			t.Errorf("hydroseq %d assigned twice", r.Hydroseq)
		}
		seen[r.Hydroseq] = true
	}
}

func TestCombineRangesDoNotOverlap(t *testing.T) {
	results := []BasinResult{
		{Outlet: 1, Rows: []Assignment{{ID: 1, Hydroseq: 1, Levelpath: 1}, {ID: 2, Hydroseq: 5, Levelpath: 1}}},
		{Outlet: 9, Rows: []Assignment{{ID: 9, Hydroseq: 1, Levelpath: 1}}},
	}

	global := Combine(results)
	byID := make(map[int64]GlobalRow)
	for _, r := range global {
		byID[r.ID] = r
	}

	// Second basin must start past the first basin's max (5), even though
	// the first basin's numbering has gaps.
	if byID[9].Hydroseq <= 5 {
		t.Errorf("basin 2 hydroseq = %d, should exceed 5", byID[9].Hydroseq)
	}
}

func TestCombineDeterministic(t *testing.T) {
	results := []BasinResult{
		{Outlet: 1, Rows: []Assignment{{ID: 1, Hydroseq: 1, Levelpath: 1}}},
		{Outlet: 2, Rows: []Assignment{{ID: 2, Hydroseq: 1, Levelpath: 1}}},
	}

	a := Combine(results)
	b := Combine(results)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Combine not deterministic: %+v vs %+v", a[i], b[i])
		}
	}
}

func TestCombineSkipsEmptyBasins(t *testing.T) {
	results := []BasinResult{
		{Outlet: 1, Rows: nil},
		{Outlet: 2, Rows: []Assignment{{ID: 2, Hydroseq: 1, Levelpath: 1}}},
	}

	global := Combine(results)
	if len(global) != 1 || global[0].Hydroseq != 1 {
		t.Errorf("empty basin should not advance the offset: %+v", global)
	}
}
