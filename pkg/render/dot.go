// Package render turns augmented networks into Graphviz node-link diagrams,
// with segments colored by the level path they belong to. It is a debugging
// and inspection aid, not a cartographic renderer.
package render

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/kmallard/riverseq/pkg/network"
	"github.com/kmallard/riverseq/pkg/vaa"
)

// Options configures diagram rendering.
type Options struct {
	// Detailed includes hydrosequence and level path in node labels.
	// When false, only the segment id (and name) is shown.
	Detailed bool
}

// palette holds fill colors assigned to level paths round-robin, in
// descending order of level-path size so the mainstem gets the first color.
var palette = []string{
	"#a6cee3", "#b2df8a", "#fdbf6f", "#cab2d6",
	"#fb9a99", "#ffff99", "#e5f5e0", "#d9d9d9",
}

// ToDOT converts an augmented segment table to Graphviz DOT format. Edges
// point downstream, outlets sink to the bottom, and every segment on the
// same level path shares a fill color. The resulting DOT string can be
// rendered with [RenderSVG].
func ToDOT(rows []vaa.Augmented, opts Options) string {
	colors := levelpathColors(rows)

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, r := range rows {
		label := fmtLabel(r, opts.Detailed)
		attrs := fmtAttrs(r, label, colors)
		fmt.Fprintf(&buf, "  \"%d\" [%s];\n", r.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, r := range rows {
		if r.Downstream != network.Outlet {
			fmt.Fprintf(&buf, "  \"%d\" -> \"%d\";\n", r.ID, r.Downstream)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

// levelpathColors assigns palette colors to level paths, largest path first.
func levelpathColors(rows []vaa.Augmented) map[int64]string {
	sizes := make(map[int64]int)
	for _, r := range rows {
		sizes[r.Levelpath]++
	}

	paths := slices.Sorted(maps.Keys(sizes))
	// Descending size, ascending level path on ties.
	slices.SortStableFunc(paths, func(a, b int64) int {
		return sizes[b] - sizes[a]
	})

	colors := make(map[int64]string, len(paths))
	for i, lp := range paths {
		colors[lp] = palette[i%len(palette)]
	}
	return colors
}

func fmtLabel(r vaa.Augmented, detailed bool) string {
	label := strconv.FormatInt(r.ID, 10)
	if r.Name != "" {
		label += "\n" + r.Name
	}
	if detailed {
		label += fmt.Sprintf("\nhydroseq: %d\nlevelpath: %d", r.Hydroseq, r.Levelpath)
	}
	return label
}

func fmtAttrs(r vaa.Augmented, label string, colors map[int64]string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if c, ok := colors[r.Levelpath]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	if r.TerminalFlag == 1 {
		attrs = append(attrs, "penwidth=2")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the SVG root element so the viewBox starts at
// the origin, which keeps browser scaling predictable.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
