// Package convert implements the Gliffy → Excalidraw conversion pipeline.
//
// The conversion is a pure, stateless projection: flatten the source tree
// into absolute coordinates, classify every node, then build target
// elements in four ordered passes:
//
//  1. shapes (rectangles, ellipses, images) — populates the ID map so text
//     can bind to containers
//  2. arrow geometry index — resolved polylines, no elements yet
//  3. texts — container-bound or, for arrow children, floating labels
//     placed at the arrow midpoint
//  4. arrows/lines — elements plus endpoint bindings against the complete
//     ID map
//
// The pass order is load-bearing: a text node's treatment depends on its
// parent's classification and, for arrow parents, on the arrow's resolved
// midpoint, while the arrow element itself may be emitted later. Collapsing
// the passes breaks label placement.
//
// Conversion is best-effort and never fails: malformed input becomes a
// valid empty document, unconvertible nodes degrade to rectangles, and
// optional features (bindings, images) are dropped rather than raised.
package convert

import (
	"sort"

	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/gliffy"
	"github.com/excalift/excalift/pkg/tidmap"
)

// Convert transforms a parsed Gliffy diagram into an Excalidraw document.
// A nil resolver disables image substitution.
func Convert(d *gliffy.Diagram, resolver tidmap.Resolver) *excalidraw.Document {
	doc, _ := ConvertWithReport(d, resolver)
	return doc
}

// ConvertJSON converts raw Gliffy JSON. Input that does not parse as a JSON
// object yields a valid empty document, never an error.
func ConvertJSON(data []byte, resolver tidmap.Resolver) *excalidraw.Document {
	d, err := gliffy.Parse(data)
	if err != nil {
		return excalidraw.NewDocument()
	}
	return Convert(d, resolver)
}

// ConvertWithReport converts and also returns the per-node skip records.
func ConvertWithReport(d *gliffy.Diagram, resolver tidmap.Resolver) (*excalidraw.Document, []Skip) {
	if resolver == nil {
		resolver = tidmap.Null{}
	}

	objects := gliffy.FlattenDiagram(d)
	if len(objects) == 0 {
		return excalidraw.NewDocument(), nil
	}

	b := &builder{
		objects:  objects,
		info:     map[string]bounds{},
		idMap:    map[string]string{},
		registry: map[string]*excalidraw.Element{},
		arrows:   map[string]arrowGeometry{},
		orders:   map[string]int{},
		doc:      excalidraw.NewDocument(),
		resolver: resolver,
	}

	// Bounds index for constraint resolution, keyed by source node ID.
	for _, obj := range objects {
		if obj.ID != "" {
			b.info[obj.ID.String()] = bounds{obj.X, obj.Y, obj.Width, obj.Height}
		}
	}

	b.shapePass()
	b.indexArrowGeometry()
	b.textPass()
	b.arrowPass()
	b.finalize()

	return b.doc, b.skips
}

// bounds is the geometry snapshot constraint resolution works against.
type bounds struct {
	x, y, width, height float64
}

// arrowGeometry is a resolved absolute polyline plus arrowhead codes,
// indexed before text building so labels can consult it.
type arrowGeometry struct {
	points     [][]float64
	startArrow int
	endArrow   int
}

// builder carries the per-conversion state threaded through the passes.
// Nothing here outlives a single ConvertWithReport call.
type builder struct {
	objects  []*gliffy.Node
	info     map[string]bounds
	idMap    map[string]string                // source ID -> element ID
	registry map[string]*excalidraw.Element   // source ID -> element
	arrows   map[string]arrowGeometry         // source ID -> geometry
	orders   map[string]int                   // element ID -> source z-order
	doc      *excalidraw.Document
	resolver tidmap.Resolver
	skips    []Skip
}

// register appends a built element and records the source mapping. ID map
// entries exist only for successfully built elements.
func (b *builder) register(obj *gliffy.Node, el *excalidraw.Element) {
	b.doc.Elements = append(b.doc.Elements, el)
	b.orders[el.ID] = obj.ZOrder
	if obj.ID != "" {
		b.idMap[obj.ID.String()] = el.ID
		b.registry[obj.ID.String()] = el
	}
}

func (b *builder) skip(obj *gliffy.Node, reason SkipReason) {
	b.skips = append(b.skips, Skip{
		NodeID: obj.ID.String(),
		Kind:   obj.DetectedKind.String(),
		Reason: reason,
	})
}

// shapePass builds every non-text, non-arrow node. Image substitution is
// attempted first when the TID mapper requests it; on failure the node
// falls through to the normal shape builder so every visible node yields
// some geometry.
func (b *builder) shapePass() {
	for _, obj := range b.objects {
		if obj.Hidden {
			continue
		}
		kind := obj.DetectedKind
		if kind == gliffy.KindText || kind == gliffy.KindArrow {
			continue
		}

		if tid := gliffy.TID(obj); tid != "" && b.resolver.ShouldUseImage(tid) {
			if el, reason := b.buildImage(obj, tid); reason == SkipNone {
				b.register(obj, el)
				continue
			} else {
				b.skip(obj, reason)
			}
		}

		switch kind {
		case gliffy.KindEllipse:
			b.register(obj, b.buildEllipse(obj))
		default:
			// Rectangle, plus the emergency fallback for unknown kinds:
			// something visible is always emitted.
			b.register(obj, b.buildRectangle(obj))
		}
	}
}

// indexArrowGeometry resolves every arrow's polyline before any text is
// built, without emitting the arrow elements yet.
func (b *builder) indexArrowGeometry() {
	for _, obj := range b.objects {
		if obj.Hidden || obj.DetectedKind != gliffy.KindArrow || obj.ID == "" {
			continue
		}
		if geo, ok := b.resolveArrowGeometry(obj); ok {
			b.arrows[obj.ID.String()] = geo
		}
	}
}

func (b *builder) textPass() {
	for _, obj := range b.objects {
		if obj.Hidden || obj.DetectedKind != gliffy.KindText {
			continue
		}
		el, reason := b.buildText(obj)
		if reason != SkipNone {
			b.skip(obj, reason)
			continue
		}
		b.register(obj, el)
	}
}

func (b *builder) arrowPass() {
	for _, obj := range b.objects {
		if obj.Hidden || obj.DetectedKind != gliffy.KindArrow {
			continue
		}
		el, reason := b.buildLine(obj)
		if reason != SkipNone {
			b.skip(obj, reason)
			continue
		}
		b.register(obj, el)
		b.backReference(el.StartBinding, el)
		b.backReference(el.EndBinding, el)
	}
}

// backReference records an arrow on the shape it binds to, so moving the
// shape in the editor keeps dependent arrows discoverable.
func (b *builder) backReference(binding *excalidraw.Binding, arrow *excalidraw.Element) {
	if binding == nil {
		return
	}
	for _, el := range b.doc.Elements {
		if el.ID == binding.ElementID {
			el.BoundElements = append(el.BoundElements, excalidraw.BoundElement{
				ID:   arrow.ID,
				Type: excalidraw.TypeArrow,
			})
			return
		}
	}
}

// finalize restores the source z-order (stable: equal orders keep builder
// insertion order) and computes the initial viewport.
func (b *builder) finalize() {
	sort.SliceStable(b.doc.Elements, func(i, j int) bool {
		return b.orders[b.doc.Elements[i].ID] < b.orders[b.doc.Elements[j].ID]
	})
	b.doc.FitViewport()
}

// parentKind resolves the classification of a node's parent, KindUnknown
// when the parent cannot be found.
func (b *builder) parentKind(parentID string) gliffy.Kind {
	if parentID == "" {
		return gliffy.KindUnknown
	}
	for _, obj := range b.objects {
		if obj.ID.String() == parentID {
			return obj.DetectedKind
		}
	}
	return gliffy.KindUnknown
}
