// Package render produces connectivity previews of converted diagrams.
//
// A converted document is a flat list of styled elements; the preview
// projects it onto a Graphviz digraph so the topology can be eyeballed
// without opening an Excalidraw editor: container shapes become nodes
// labeled with their text, arrows become edges via their bindings.
//
//	dot := render.ToDOT(doc)
//	svg, err := render.SVG(ctx, dot)
//	png, err := render.PNG(ctx, dot)
package render

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/excalift/excalift/pkg/excalidraw"
)

// ToDOT converts a document to Graphviz DOT source. Shapes keep their form
// where DOT has an equivalent (ellipse, diamond, box); text bound to a
// container labels that container's node; arrows with two bindings become
// edges. Unbound arrows and arrow labels carry no connectivity and are
// dropped.
func ToDOT(doc *excalidraw.Document) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	labels := containerLabels(doc)

	for _, el := range doc.Elements {
		switch el.Type {
		case excalidraw.TypeArrow, excalidraw.TypeLine:
			continue
		case excalidraw.TypeText:
			// Bound text already labels its container; loose text (arrow
			// labels, free-floating notes) is not a node.
			continue
		}
		label := labels[el.ID]
		if label == "" {
			label = shortID(el.ID)
		}
		fmt.Fprintf(&buf, "  %q [label=%q%s];\n", el.ID, label, shapeAttr(el.Type))
	}

	buf.WriteString("\n")
	for _, el := range doc.Elements {
		if el.Type != excalidraw.TypeArrow && el.Type != excalidraw.TypeLine {
			continue
		}
		if el.StartBinding == nil || el.EndBinding == nil {
			continue
		}
		attrs := ""
		if el.Type == excalidraw.TypeLine {
			attrs = " [dir=none]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", el.StartBinding.ElementID, el.EndBinding.ElementID, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// containerLabels maps shape IDs to their display text: the shape's own
// embedded text, overridden by any text element bound to it.
func containerLabels(doc *excalidraw.Document) map[string]string {
	labels := make(map[string]string)
	for _, el := range doc.Elements {
		if el.Text != "" && el.Type != excalidraw.TypeText {
			labels[el.ID] = flattenLabel(el.Text)
		}
	}
	for _, el := range doc.Elements {
		if el.Type == excalidraw.TypeText && el.ContainerID != nil && el.Text != "" {
			labels[*el.ContainerID] = flattenLabel(el.Text)
		}
	}
	return labels
}

func flattenLabel(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func shortID(id string) string {
	if i := strings.LastIndex(id, "_"); i >= 0 {
		return id[i+1:]
	}
	return id
}

func shapeAttr(elementType string) string {
	switch elementType {
	case excalidraw.TypeEllipse:
		return ", shape=ellipse"
	case excalidraw.TypeDiamond:
		return ", shape=diamond"
	case excalidraw.TypeImage:
		return ", style=\"filled,dashed\", fillcolor=lightgrey"
	default:
		return ""
	}
}

// SVG renders DOT source to SVG in-process.
func SVG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderFormat(ctx, dot, graphviz.SVG, &buf); err != nil {
		return nil, err
	}
	return normalizeViewBox(buf.Bytes()), nil
}

// PNG renders DOT source to PNG in-process.
func PNG(ctx context.Context, dot string) ([]byte, error) {
	var buf bytes.Buffer
	if err := renderFormat(ctx, dot, graphviz.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderFormat(ctx context.Context, dot string, format graphviz.Format, out *bytes.Buffer) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if err := gv.Render(ctx, g, format, out); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg tag so the graph renders at its natural
// size with an origin-anchored viewBox, which embeds cleanly in HTML.
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
