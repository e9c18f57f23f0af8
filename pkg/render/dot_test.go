package render

import (
	"strings"
	"testing"

	"github.com/kmallard/riverseq/pkg/network"
	"github.com/kmallard/riverseq/pkg/vaa"
)

func testRows() []vaa.Augmented {
	return []vaa.Augmented{
		{
			Segment:    network.Segment{ID: 1, Name: "bear river"},
			Attributes: vaa.Attributes{Hydroseq: 1, Levelpath: 1, TerminalFlag: 1},
		},
		{
			Segment:    network.Segment{ID: 2, Downstream: 1},
			Attributes: vaa.Attributes{Hydroseq: 2, Levelpath: 1},
		},
		{
			Segment:    network.Segment{ID: 3, Downstream: 1},
			Attributes: vaa.Attributes{Hydroseq: 3, Levelpath: 3},
		},
	}
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testRows(), Options{})

	if !strings.HasPrefix(dot, "digraph G {") {
		t.Errorf("DOT should open a digraph: %s", dot[:20])
	}
	// Every segment gets a node, every downstream link an edge.
	for _, want := range []string{`"1" [`, `"2" [`, `"3" [`, `"2" -> "1";`, `"3" -> "1";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
	// Outlets have no outgoing edge.
	if strings.Contains(dot, `"1" ->`) {
		t.Error("outlet should not have an outgoing edge")
	}
	// The name appears in the label.
	if !strings.Contains(dot, "bear river") {
		t.Error("segment name should appear in the label")
	}
}

func TestToDOTLevelpathColors(t *testing.T) {
	dot := ToDOT(testRows(), Options{})

	// Segments 1 and 2 share a level path, 3 has its own: two distinct
	// fill colors, and the larger path gets the first palette entry.
	if !strings.Contains(dot, palette[0]) || !strings.Contains(dot, palette[1]) {
		t.Errorf("expected two palette colors in output:\n%s", dot)
	}

	// Terminal segments are outlined.
	if !strings.Contains(dot, "penwidth=2") {
		t.Error("terminal segment should have a heavier outline")
	}
}

func TestToDOTDetailed(t *testing.T) {
	plain := ToDOT(testRows(), Options{})
	detailed := ToDOT(testRows(), Options{Detailed: true})

	if strings.Contains(plain, "hydroseq") {
		t.Error("plain labels should not carry attributes")
	}
	if !strings.Contains(detailed, "hydroseq: 2") || !strings.Contains(detailed, "levelpath: 1") {
		t.Error("detailed labels should carry hydroseq and levelpath")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg width="100pt" height="50pt" viewBox="10.5 20.0 300.0 150.0">body</svg>`)
	out := string(normalizeViewBox(svg))

	if !strings.Contains(out, `viewBox="0 0 300.00 150.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, "body") {
		t.Error("content should be preserved")
	}

	// Input without a viewBox passes through untouched.
	plain := []byte(`<svg>x</svg>`)
	if string(normalizeViewBox(plain)) != `<svg>x</svg>` {
		t.Error("svg without viewBox should pass through")
	}
}
