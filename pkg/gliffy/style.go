package gliffy

import "strings"

// Style resolution helpers. Each follows a documented precedence — node-level
// field first, then the graphic descriptor, then the caller's default — and
// never fails: malformed or missing values resolve to the default.

// DefaultStrokeColor is the stroke used when neither the node nor its
// graphic specifies one.
const DefaultStrokeColor = "#1e1e1e"

// DefaultStrokeWidth is the stroke width used when unspecified.
const DefaultStrokeWidth = 2.0

// StrokeColor resolves a node's stroke color: node-level strokeColor, then
// Line.strokeColor, then Shape.strokeColor, then def.
func StrokeColor(n *Node, def string) string {
	if n.StrokeColor != "" {
		return n.StrokeColor
	}
	if g := n.Graphic; g != nil {
		if g.Line != nil && g.Line.StrokeColor != "" {
			return g.Line.StrokeColor
		}
		if g.Shape != nil && g.Shape.StrokeColor != "" {
			return g.Shape.StrokeColor
		}
	}
	return def
}

// FillColor resolves a node's fill color: node-level fillColor, then
// Shape.fillColor. The sentinel values "none", "transparent" and the empty
// string normalize to def, which callers choose per shape family
// (transparent for lines, a light gray for shapes).
func FillColor(n *Node, def string) string {
	if fill := normalizeFill(n.FillColor, def); fill != "" {
		return fill
	}
	if g := n.Graphic; g != nil && g.Shape != nil {
		if fill := normalizeFill(g.Shape.FillColor, def); fill != "" {
			return fill
		}
	}
	return def
}

func normalizeFill(v, def string) string {
	if v == "" {
		return ""
	}
	switch strings.ToLower(v) {
	case "none", "transparent":
		return def
	}
	return v
}

// StrokeWidth resolves a node's stroke width: node-level, then Line, then
// Shape, then def.
func StrokeWidth(n *Node, def float64) float64 {
	if n.StrokeWidth != nil {
		return *n.StrokeWidth
	}
	if g := n.Graphic; g != nil {
		if g.Line != nil && g.Line.StrokeWidth != nil {
			return *g.Line.StrokeWidth
		}
		if g.Shape != nil && g.Shape.StrokeWidth != nil {
			return *g.Shape.StrokeWidth
		}
	}
	return def
}

// TID returns the stencil type identifier of a shape node, or "" when the
// node carries no shape graphic.
func TID(n *Node) string {
	if n.Graphic != nil && n.Graphic.Shape != nil {
		return n.Graphic.Shape.TID
	}
	return ""
}

// CornerRadius returns the rounded-corner radius of a shape node, 0 when
// absent.
func CornerRadius(n *Node) float64 {
	if n.Graphic != nil && n.Graphic.Shape != nil {
		return n.Graphic.Shape.CornerRadius
	}
	return 0
}

// LineData returns the line graphic of a node regardless of the
// discriminator value, or nil when the node has none. Some exporters tag
// line nodes with a stale graphic type, so the payload itself is
// authoritative.
func LineData(n *Node) *LineGraphic {
	if n.Graphic == nil {
		return nil
	}
	return n.Graphic.Line
}

// ArrowCode extracts an arrowhead code, defaulting to 0 (none).
func ArrowCode(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
