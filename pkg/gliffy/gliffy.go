// Package gliffy models the Gliffy diagram JSON format.
//
// Gliffy documents are hierarchical: a stage (or per-page scene) holds a tree
// of objects, each carrying local coordinates relative to its parent and a
// graphic descriptor that discriminates between shapes, text and lines. This
// package parses that format into typed nodes, flattens the tree into
// document-absolute coordinates, and provides the accessor functions the
// converter builds on (classification, style resolution, text extraction).
//
// Only the fields the converter reads are modeled; unknown fields are
// ignored during decoding so that newer Gliffy exports still parse.
package gliffy

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// =============================================================================
// Document Structure
// =============================================================================

// Diagram is the root of a Gliffy document. Either Stage (single-scene
// documents) or Pages (multi-page documents) is populated; both may be empty
// for degenerate input.
type Diagram struct {
	Stage *Scene `json:"stage,omitempty"`
	Pages []Page `json:"pages,omitempty"`
}

// Page wraps a scene in multi-page documents.
type Page struct {
	Scene *Scene `json:"scene,omitempty"`
}

// Scene holds the object tree of one drawing surface.
type Scene struct {
	Objects []*Node `json:"objects,omitempty"`
}

// Objects returns the root object lists of every scene in the diagram, in
// document order. A nil diagram or a diagram without scenes yields nil.
func (d *Diagram) Objects() [][]*Node {
	if d == nil {
		return nil
	}
	if d.Stage != nil && len(d.Stage.Objects) > 0 {
		return [][]*Node{d.Stage.Objects}
	}
	var groups [][]*Node
	for _, p := range d.Pages {
		if p.Scene != nil && len(p.Scene.Objects) > 0 {
			groups = append(groups, p.Scene.Objects)
		}
	}
	return groups
}

// Parse decodes raw Gliffy JSON. Unknown fields are ignored. An error is
// returned only for input that is not a JSON object at all; a structurally
// valid object missing both stage and pages parses to an empty diagram.
func Parse(data []byte) (*Diagram, error) {
	var d Diagram
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// =============================================================================
// Node
// =============================================================================

// Node is one diagram element. Before flattening, X/Y are local to the
// parent; after flattening they are document-absolute and the annotation
// fields (DetectedKind, ZOrder, ParentID) are populated.
type Node struct {
	ID       FlexID      `json:"id,omitempty"`
	UID      string      `json:"uid,omitempty"`
	Type     string      `json:"type,omitempty"`
	X        float64     `json:"x,omitempty"`
	Y        float64     `json:"y,omitempty"`
	Width    float64     `json:"width,omitempty"`
	Height   float64     `json:"height,omitempty"`
	Rotation float64     `json:"rotation,omitempty"`
	Order    json.Number `json:"order,omitempty"`
	Hidden   bool        `json:"hidden,omitempty"`

	// Direct text takes precedence over graphic.Text.html when resolving
	// text content.
	Text string `json:"text,omitempty"`

	// Node-level style overrides; the graphic descriptor is the fallback.
	StrokeColor string   `json:"strokeColor,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`

	Graphic     *Graphic     `json:"graphic,omitempty"`
	Constraints *Constraints `json:"constraints,omitempty"`
	Children    []*Node      `json:"children,omitempty"`

	// Top-level polyline points, translated along with X/Y during
	// flattening.
	Points [][]float64 `json:"points,omitempty"`

	// Annotations set by Flatten. Never serialized.
	DetectedKind Kind   `json:"-"`
	ZOrder       int    `json:"-"`
	ParentID     string `json:"-"`
}

// FlexID is a node identifier that appears as either a JSON number or a
// string depending on the Gliffy exporter version. It normalizes to a
// string; the empty string means absent.
type FlexID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = FlexID(n.String())
	return nil
}

// MarshalJSON emits the identifier as a string.
func (id FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(id))
}

func (id FlexID) String() string { return string(id) }

// =============================================================================
// Graphic Descriptor
// =============================================================================

// Graphic is the discriminated payload on a node. Type names the variant
// ("Shape", "Text", "Line"); the matching field carries its data. Exports
// are not always consistent, so classification also inspects the populated
// fields directly.
type Graphic struct {
	Type  string        `json:"type,omitempty"`
	Shape *ShapeGraphic `json:"Shape,omitempty"`
	Text  *TextGraphic  `json:"Text,omitempty"`
	Line  *LineGraphic  `json:"Line,omitempty"`
}

// ShapeGraphic describes a stencil-backed shape.
type ShapeGraphic struct {
	TID          string   `json:"tid,omitempty"`
	FillColor    string   `json:"fillColor,omitempty"`
	StrokeColor  string   `json:"strokeColor,omitempty"`
	StrokeWidth  *float64 `json:"strokeWidth,omitempty"`
	CornerRadius float64  `json:"cornerRadius,omitempty"`
}

// TextGraphic carries rich text as an HTML fragment.
type TextGraphic struct {
	HTML string `json:"html,omitempty"`
}

// LineGraphic describes a polyline with optional arrowheads. ControlPath
// points are local to the owning node's origin.
type LineGraphic struct {
	StrokeColor string      `json:"strokeColor,omitempty"`
	StrokeWidth *float64    `json:"strokeWidth,omitempty"`
	StartArrow  *int        `json:"startArrow,omitempty"`
	EndArrow    *int        `json:"endArrow,omitempty"`
	ControlPath [][]float64 `json:"controlPath,omitempty"`
}

// =============================================================================
// Constraints
// =============================================================================

// Constraints binds the two endpoints of a line to other nodes.
type Constraints struct {
	StartConstraint *ConstraintWrapper `json:"startConstraint,omitempty"`
	EndConstraint   *ConstraintWrapper `json:"endConstraint,omitempty"`
}

// ConstraintWrapper is the extra nesting level the Gliffy format uses around
// position constraints.
type ConstraintWrapper struct {
	StartPositionConstraint *PositionConstraint `json:"StartPositionConstraint,omitempty"`
	EndPositionConstraint   *PositionConstraint `json:"EndPositionConstraint,omitempty"`
}

// Position returns whichever position constraint is set.
func (w *ConstraintWrapper) Position() *PositionConstraint {
	if w == nil {
		return nil
	}
	if w.StartPositionConstraint != nil {
		return w.StartPositionConstraint
	}
	return w.EndPositionConstraint
}

// PositionConstraint references a target node plus a fractional attachment
// point on its bounding box. PX/PY default to 0.5 (the box center) when
// absent.
type PositionConstraint struct {
	NodeID FlexID   `json:"nodeId,omitempty"`
	PX     *float64 `json:"px,omitempty"`
	PY     *float64 `json:"py,omitempty"`
}

// Fraction returns the attachment fractions, defaulting to the box center.
func (c *PositionConstraint) Fraction() (px, py float64) {
	px, py = 0.5, 0.5
	if c.PX != nil {
		px = *c.PX
	}
	if c.PY != nil {
		py = *c.PY
	}
	return px, py
}

// orderValue parses the z-order annotation, defaulting to 0 (back-most) for
// missing or malformed values.
func orderValue(n json.Number) int {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i
	}
	return 0
}
