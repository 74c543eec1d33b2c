package gliffy

import "strings"

// Kind is the semantic shape family a node belongs to.
type Kind int

// Shape families. Diamonds classify as KindEllipse; the ellipse builder
// refines them via the uid heuristic so that circle normalization cannot
// swallow them.
const (
	KindUnknown Kind = iota
	KindText
	KindRectangle
	KindEllipse
	KindArrow
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindRectangle:
		return "rectangle"
	case KindEllipse:
		return "ellipse"
	case KindArrow:
		return "arrow"
	default:
		return "unknown"
	}
}

// Classify infers the semantic kind of a node. Resolution order, first
// match wins:
//
//  1. the explicit type field, lowercased
//  2. naming conventions in uid (".text", ".rectangle", ".ellipse", ...)
//  3. the graphic descriptor, including the Shape tid for the ellipse family
//
// KindUnknown is returned when nothing matches; callers fall back to
// rectangle so content is never silently dropped. Aspect ratio is never
// consulted here — circle refinement belongs to the ellipse builder alone.
func Classify(n *Node) Kind {
	if n == nil {
		return KindUnknown
	}

	if n.Type != "" {
		if k := kindFromName(strings.ToLower(n.Type)); k != KindUnknown {
			return k
		}
	}

	if uid := strings.ToLower(n.UID); uid != "" {
		switch {
		case strings.Contains(uid, ".text"):
			return KindText
		case strings.Contains(uid, ".rectangle"), strings.Contains(uid, ".square"):
			return KindRectangle
		case strings.Contains(uid, ".ellipse"), strings.Contains(uid, ".oval"),
			strings.Contains(uid, ".circle"), strings.Contains(uid, ".diamond"):
			return KindEllipse
		case strings.Contains(uid, ".arrow"), strings.Contains(uid, ".line"):
			return KindArrow
		}
	}

	if g := n.Graphic; g != nil {
		switch strings.ToLower(g.Type) {
		case "text":
			return KindText
		case "line":
			return KindArrow
		case "shape":
			return shapeKind(g.Shape)
		}
		// Inconsistent exports sometimes omit the discriminator; fall back
		// to whichever payload is populated.
		switch {
		case g.Text != nil:
			return KindText
		case g.Line != nil:
			return KindArrow
		case g.Shape != nil:
			return shapeKind(g.Shape)
		}
	}

	return KindUnknown
}

func kindFromName(name string) Kind {
	switch name {
	case "text":
		return KindText
	case "rectangle", "square":
		return KindRectangle
	case "ellipse", "oval", "circle", "diamond":
		return KindEllipse
	case "arrow", "line":
		return KindArrow
	}
	return KindUnknown
}

func shapeKind(s *ShapeGraphic) Kind {
	if s != nil {
		tid := strings.ToLower(s.TID)
		if strings.Contains(tid, "ellipse") || strings.Contains(tid, "oval") || strings.Contains(tid, "circle") {
			return KindEllipse
		}
		if strings.Contains(tid, "diamond") {
			return KindEllipse
		}
	}
	return KindRectangle
}
