package gliffy

// Flatten walks an object tree depth-first and returns a flat, pre-order
// list of node copies with document-absolute coordinates.
//
// Each node's absolute position is its local offset plus the accumulated
// parent offset; rotation is carried along untouched but never compounded
// into children's coordinate frames. Top-level polyline points receive the
// same translation. Every returned node is annotated with its detected kind,
// its z-order (missing order defaults to 0, the back of the document) and
// the ID of its immediate parent.
//
// The input tree is not mutated: each emitted node is a copy, so Flatten is
// idempotent over the same tree.
func Flatten(nodes []*Node, offsetX, offsetY float64, parent *Node) []*Node {
	var result []*Node

	for _, n := range nodes {
		if n == nil {
			continue
		}

		c := *n
		c.X = n.X + offsetX
		c.Y = n.Y + offsetY

		if len(n.Points) > 0 {
			pts := make([][]float64, 0, len(n.Points))
			for _, p := range n.Points {
				if len(p) >= 2 {
					pts = append(pts, []float64{p[0] + offsetX, p[1] + offsetY})
				} else {
					pts = append(pts, p)
				}
			}
			c.Points = pts
		}

		// Classified exactly once here; downstream stages read the cached
		// kind instead of re-deriving it.
		c.DetectedKind = Classify(&c)
		c.ZOrder = orderValue(n.Order)

		if parent != nil && parent.ID != "" {
			c.ParentID = parent.ID.String()
		}

		result = append(result, &c)

		if len(n.Children) > 0 {
			result = append(result, Flatten(n.Children, c.X, c.Y, &c)...)
		}
	}

	return result
}

// FlattenDiagram flattens every scene of a diagram into one list.
func FlattenDiagram(d *Diagram) []*Node {
	var all []*Node
	for _, roots := range d.Objects() {
		all = append(all, Flatten(roots, 0, 0, nil)...)
	}
	return all
}
