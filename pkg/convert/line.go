package convert

import (
	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/gliffy"
)

// resolveArrowGeometry turns a line node into an absolute polyline. The
// explicit controlPath wins; without one, the endpoint constraints are
// resolved against the bounds index. Endpoints referencing unindexed nodes
// contribute nothing, so the result may be degenerate.
func (b *builder) resolveArrowGeometry(obj *gliffy.Node) (arrowGeometry, bool) {
	line := gliffy.LineData(obj)

	var points [][]float64
	if line != nil {
		for _, p := range line.ControlPath {
			if len(p) >= 2 {
				points = append(points, []float64{obj.X + p[0], obj.Y + p[1]})
			}
		}
	}

	if len(points) == 0 && obj.Constraints != nil {
		if p, ok := b.constraintPoint(obj.Constraints.StartConstraint); ok {
			points = append(points, p)
		}
		if p, ok := b.constraintPoint(obj.Constraints.EndConstraint); ok {
			points = append(points, p)
		}
	}

	if len(points) < 2 {
		return arrowGeometry{}, false
	}

	geo := arrowGeometry{points: points}
	if line != nil {
		geo.startArrow = gliffy.ArrowCode(line.StartArrow)
		geo.endArrow = gliffy.ArrowCode(line.EndArrow)
	}
	return geo, true
}

// constraintPoint resolves a position constraint into an absolute point on
// the target's bounding box.
func (b *builder) constraintPoint(w *gliffy.ConstraintWrapper) ([]float64, bool) {
	c := w.Position()
	if c == nil || c.NodeID == "" {
		return nil, false
	}
	target, ok := b.info[c.NodeID.String()]
	if !ok {
		return nil, false
	}
	px, py := c.Fraction()
	return []float64{target.x + target.width*px, target.y + target.height*py}, true
}

// buildLine emits an arrow (or, when neither end carries an arrowhead, a
// plain line). Points are stored relative to the first vertex in source
// order; bindings are attached only to endpoints whose constraint target
// produced an element.
func (b *builder) buildLine(obj *gliffy.Node) (*excalidraw.Element, SkipReason) {
	geo, ok := b.arrows[obj.ID.String()]
	if !ok {
		// Arrows without an indexed ID still convert; unresolvable geometry
		// does not.
		geo, ok = b.resolveArrowGeometry(obj)
		if !ok {
			return nil, SkipInvalidGeometry
		}
	}

	elType := excalidraw.TypeArrow
	if geo.startArrow == 0 && geo.endArrow == 0 {
		elType = excalidraw.TypeLine
	}

	el := excalidraw.NewElement(elType)
	el.StrokeColor = gliffy.StrokeColor(obj, gliffy.DefaultStrokeColor)
	el.BackgroundColor = "transparent"
	el.StrokeWidth = gliffy.StrokeWidth(obj, gliffy.DefaultStrokeWidth)
	el.Roundness = &excalidraw.Roundness{Type: 2}

	first := geo.points[0]
	last := geo.points[len(geo.points)-1]
	el.X = first[0]
	el.Y = first[1]
	el.Width = last[0] - first[0]
	el.Height = last[1] - first[1]

	relative := make([][]float64, 0, len(geo.points))
	for _, p := range geo.points {
		relative = append(relative, []float64{p[0] - first[0], p[1] - first[1]})
	}
	el.Points = relative
	el.LastCommittedPoint = relative[len(relative)-1]

	el.StartArrowhead = arrowhead(geo.startArrow)
	el.EndArrowhead = arrowhead(geo.endArrow)

	if obj.Constraints != nil {
		el.StartBinding = b.binding(obj.Constraints.StartConstraint)
		el.EndBinding = b.binding(obj.Constraints.EndConstraint)
	}

	return el, SkipNone
}

// binding maps a constraint's target to the element it produced, nil when
// the target never became an element. Bound shapes drag their arrows along
// in the editor.
func (b *builder) binding(w *gliffy.ConstraintWrapper) *excalidraw.Binding {
	c := w.Position()
	if c == nil || c.NodeID == "" {
		return nil
	}
	elementID, ok := b.idMap[c.NodeID.String()]
	if !ok {
		return nil
	}
	return &excalidraw.Binding{ElementID: elementID, Focus: 0.5, Gap: 0}
}

// arrowhead maps a Gliffy arrowhead code to the Excalidraw style. Codes 0,
// 10, 11 and 12 render as bare line ends in Gliffy; everything else becomes
// a standard arrowhead.
func arrowhead(code int) *string {
	switch code {
	case 0, 10, 11, 12:
		return nil
	default:
		s := excalidraw.ArrowheadArrow
		return &s
	}
}
