package convert

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/gliffy"
)

func convertString(t *testing.T, src string) *excalidraw.Document {
	t.Helper()
	return ConvertJSON([]byte(src), nil)
}

func convertWithReport(t *testing.T, src string) (*excalidraw.Document, []Skip) {
	t.Helper()
	d, err := gliffy.Parse([]byte(src))
	require.NoError(t, err)
	return ConvertWithReport(d, nil)
}

func elementsOfType(doc *excalidraw.Document, elType string) []*excalidraw.Element {
	var out []*excalidraw.Element
	for _, el := range doc.Elements {
		if el.Type == elType {
			out = append(out, el)
		}
	}
	return out
}

func TestConvertGarbageInput(t *testing.T) {
	for _, src := range []string{"", "not json", "[1,2,3]", `"string"`, "{}", `{"stage":{}}`} {
		doc := convertString(t, src)
		require.NotNil(t, doc, "input %q", src)
		require.Equal(t, "excalidraw", doc.Type)
		require.Equal(t, 2, doc.Version)
		require.Empty(t, doc.Elements)
		require.NotNil(t, doc.Files)
		require.Equal(t, 1.0, doc.AppState.Zoom.Value)
	}
}

func TestRectangleRoundTrip(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":10,"y":20,"width":200,"height":100,
		 "graphic":{"type":"Shape","Shape":{"tid":"com.gliffy.stencil.rectangle.basic_v1","fillColor":"#ff0000","strokeColor":"#00ff00","strokeWidth":3,"cornerRadius":8}}}
	]}}`)

	require.Len(t, doc.Elements, 1)
	el := doc.Elements[0]
	require.Equal(t, excalidraw.TypeRectangle, el.Type)
	require.Equal(t, 10.0, el.X)
	require.Equal(t, 20.0, el.Y)
	require.Equal(t, 200.0, el.Width)
	require.Equal(t, 100.0, el.Height)
	require.Equal(t, "#00ff00", el.StrokeColor)
	require.Equal(t, "#ff0000", el.BackgroundColor)
	require.Equal(t, 3.0, el.StrokeWidth)
	require.NotNil(t, el.Roundness)
	require.Equal(t, 3, el.Roundness.Type)
	require.Equal(t, 8.0, el.Roundness.Value)
}

func TestDegenerateSizeFloor(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":0,"y":0,"width":0,"height":0,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}}
	]}}`)

	require.Len(t, doc.Elements, 1)
	require.Equal(t, 100.0, doc.Elements[0].Width)
	require.Equal(t, 100.0, doc.Elements[0].Height)
}

func TestUnclassifiableFallsBackToRectangle(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":5,"y":5,"width":40,"height":30}
	]}}`)

	require.Len(t, doc.Elements, 1)
	require.Equal(t, excalidraw.TypeRectangle, doc.Elements[0].Type)
}

func TestHiddenObjectsDropped(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"hidden":true,"width":50,"height":50,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}},
		{"id":2,"width":50,"height":50,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}}
	]}}`)

	require.Len(t, doc.Elements, 1)
}

func TestCircleNormalization(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"width":100,"height":95,"graphic":{"type":"Shape","Shape":{"tid":"com.gliffy.stencil.ellipse.basic_v1"}}},
		{"id":2,"x":300,"width":100,"height":50,"graphic":{"type":"Shape","Shape":{"tid":"com.gliffy.stencil.ellipse.basic_v1"}}}
	]}}`)

	require.Len(t, doc.Elements, 2)
	near, wide := doc.Elements[0], doc.Elements[1]
	if near.X != 0 {
		near, wide = wide, near
	}

	// Aspect ratio 0.95 normalizes to a circle on the averaged size.
	require.Equal(t, excalidraw.TypeEllipse, near.Type)
	require.Equal(t, 97.5, near.Width)
	require.Equal(t, 97.5, near.Height)

	// Ratio 0.5 stays an ellipse with the original box.
	require.Equal(t, 100.0, wide.Width)
	require.Equal(t, 50.0, wide.Height)
}

func TestDiamondFromUID(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"uid":"com.gliffy.shape.flowchart.flowchart_v1.default.diamond","width":120,"height":118}
	]}}`)

	require.Len(t, doc.Elements, 1)
	require.Equal(t, excalidraw.TypeDiamond, doc.Elements[0].Type)
}

func TestShapeTextEmbedding(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":0,"y":0,"width":200,"height":80,
		 "graphic":{"type":"Shape","Shape":{"tid":"rect"}},
		 "children":[
			{"id":10,"uid":"com.gliffy.shape.basic.basic_v1.default.text","x":5,"y":5,"width":90,"height":20,
			 "graphic":{"type":"Text","Text":{"html":"<p><span style=\"font-size: 24px;\">Hello World</span></p>"}}}
		 ]}
	]}}`)

	rects := elementsOfType(doc, excalidraw.TypeRectangle)
	texts := elementsOfType(doc, excalidraw.TypeText)
	require.Len(t, rects, 1)
	require.Len(t, texts, 1)

	// In-shape text is halved (24 -> 12) then clamped to 10.
	shape := rects[0]
	require.Equal(t, "Hello World", shape.Text)
	require.Equal(t, 10, shape.FontSize)

	// The child also becomes a container-bound text element at its own size,
	// rewrapped to the container width minus margins.
	label := texts[0]
	require.NotNil(t, label.ContainerID)
	require.Equal(t, shape.ID, *label.ContainerID)
	require.Equal(t, 24, label.FontSize)
	require.Equal(t, 180.0, label.Width)
}

func TestEmptyTextSkipped(t *testing.T) {
	doc, skips := convertWithReport(t, `{"stage":{"objects":[
		{"id":1,"uid":"com.gliffy.shape.basic.basic_v1.default.text","width":100,"height":20,
		 "graphic":{"type":"Text","Text":{"html":"<p>   </p>"}}}
	]}}`)

	require.Empty(t, doc.Elements)
	require.Len(t, skips, 1)
	require.Equal(t, SkipEmptyText, skips[0].Reason)
}

func TestArrowBetweenRectangles(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":100,"y":50,"width":100,"height":60,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}},
		{"id":2,"x":300,"y":50,"width":100,"height":60,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}},
		{"id":3,"uid":"com.gliffy.shape.basic.basic_v1.default.line",
		 "graphic":{"type":"Line","Line":{"startArrow":0,"endArrow":1}},
		 "constraints":{
			"startConstraint":{"StartPositionConstraint":{"nodeId":1,"px":0.5,"py":0.5}},
			"endConstraint":{"EndPositionConstraint":{"nodeId":2,"px":0.5,"py":0.5}}}}
	]}}`)

	arrows := elementsOfType(doc, excalidraw.TypeArrow)
	require.Len(t, arrows, 1)
	arrow := arrows[0]

	// Endpoints resolve to the box centers; points are origin-relative.
	require.Equal(t, 150.0, arrow.X)
	require.Equal(t, 80.0, arrow.Y)
	require.Equal(t, [][]float64{{0, 0}, {200, 0}}, arrow.Points)
	require.Equal(t, 200.0, arrow.Width)
	require.Equal(t, 0.0, arrow.Height)
	require.Nil(t, arrow.StartArrowhead)
	require.NotNil(t, arrow.EndArrowhead)
	require.Equal(t, excalidraw.ArrowheadArrow, *arrow.EndArrowhead)

	// Both endpoints bind and both shapes carry the back-reference.
	require.NotNil(t, arrow.StartBinding)
	require.NotNil(t, arrow.EndBinding)
	for _, shape := range elementsOfType(doc, excalidraw.TypeRectangle) {
		require.Len(t, shape.BoundElements, 1)
		require.Equal(t, arrow.ID, shape.BoundElements[0].ID)
	}
}

func TestLineWithoutArrowheads(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":10,"y":10,
		 "graphic":{"type":"Line","Line":{"startArrow":0,"endArrow":0,"controlPath":[[0,0],[50,50]]}}}
	]}}`)

	require.Len(t, doc.Elements, 1)
	require.Equal(t, excalidraw.TypeLine, doc.Elements[0].Type)
	require.Nil(t, doc.Elements[0].StartArrowhead)
	require.Nil(t, doc.Elements[0].EndArrowhead)
}

func TestArrowheadCodes(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{0, false},
		{10, false},
		{11, false},
		{12, false},
		{1, true},
		{2, true},
		{5, true},
		{17, true},
	}

	for _, tt := range tests {
		got := arrowhead(tt.code)
		if tt.want {
			require.NotNil(t, got, "code %d", tt.code)
			require.Equal(t, excalidraw.ArrowheadArrow, *got)
		} else {
			require.Nil(t, got, "code %d", tt.code)
		}
	}
}

func TestDanglingConstraintSkipsArrow(t *testing.T) {
	doc, skips := convertWithReport(t, `{"stage":{"objects":[
		{"id":1,"uid":"com.gliffy.shape.basic.basic_v1.default.line",
		 "graphic":{"type":"Line","Line":{}},
		 "constraints":{"startConstraint":{"StartPositionConstraint":{"nodeId":999}}}}
	]}}`)

	require.Empty(t, doc.Elements)
	require.Len(t, skips, 1)
	require.Equal(t, SkipInvalidGeometry, skips[0].Reason)
}

func TestArrowLabelPlacement(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"uid":"com.gliffy.shape.basic.basic_v1.default.line","x":50,"y":50,
		 "graphic":{"type":"Line","Line":{"startArrow":0,"endArrow":1,"controlPath":[[0,0],[100,0],[200,0]]}},
		 "children":[
			{"id":10,"uid":"com.gliffy.shape.basic.basic_v1.default.text","width":40,"height":14,
			 "graphic":{"type":"Text","Text":{"html":"<span style=\"font-size: 14px;\">yes</span>"}}}
		 ]}
	]}}`)

	texts := elementsOfType(doc, excalidraw.TypeText)
	require.Len(t, texts, 1)
	label := texts[0]

	// Labels float at the arrow midpoint vertex, capped at 12px, never
	// container-bound.
	require.Nil(t, label.ContainerID)
	require.Equal(t, 12, label.FontSize)
	require.Equal(t, 50.0, label.Width) // 3 chars estimate clamped up to the minimum
	require.Equal(t, 150.0, label.X+label.Width/2)
	require.Equal(t, 50.0, label.Y+label.Height/2)
}

func TestArrowLabelNotEmbeddedInShapes(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"width":100,"height":60,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}},
		{"id":2,"uid":"com.gliffy.shape.basic.basic_v1.default.line",
		 "graphic":{"type":"Line","Line":{"endArrow":1,"controlPath":[[0,0],[10,10]]}},
		 "children":[
			{"id":20,"uid":"com.gliffy.shape.basic.basic_v1.default.text","width":30,"height":14,
			 "graphic":{"type":"Text","Text":{"html":"label"}}}
		 ]}
	]}}`)

	for _, shape := range elementsOfType(doc, excalidraw.TypeRectangle) {
		require.Empty(t, shape.Text, "arrow label leaked into a shape")
	}
	require.Len(t, elementsOfType(doc, excalidraw.TypeText), 1)
}

func TestZOrderStable(t *testing.T) {
	doc := convertString(t, `{"stage":{"objects":[
		{"id":1,"x":1,"order":5,"width":10,"height":10,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}},
		{"id":2,"x":2,"order":1,"width":10,"height":10,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}},
		{"id":3,"x":3,"order":5,"width":10,"height":10,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}}
	]}}`)

	require.Len(t, doc.Elements, 3)
	var xs []float64
	for _, el := range doc.Elements {
		xs = append(xs, el.X)
	}
	// Smallest order first; equal orders keep source order.
	require.Equal(t, []float64{2, 1, 3}, xs)
}

type stubResolver struct {
	images map[string][]byte
}

func (r stubResolver) ShouldUseImage(tid string) bool { _, ok := r.images[tid]; return ok }
func (r stubResolver) ImageBytes(tid string) []byte   { return r.images[tid] }

func TestImageSubstitution(t *testing.T) {
	resolver := stubResolver{images: map[string][]byte{
		"com.gliffy.stencil.aws.ec2": []byte("\x89PNG\r\n\x1a\nfakedata"),
	}}

	doc := ConvertJSON([]byte(`{"stage":{"objects":[
		{"id":1,"x":10,"y":10,"width":64,"height":64,
		 "graphic":{"type":"Shape","Shape":{"tid":"com.gliffy.stencil.aws.ec2"}}}
	]}}`), resolver)

	images := elementsOfType(doc, excalidraw.TypeImage)
	require.Len(t, images, 1)
	require.Empty(t, elementsOfType(doc, excalidraw.TypeRectangle))

	img := images[0]
	require.Equal(t, []float64{1, 1}, img.Scale)
	require.NotEmpty(t, img.FileID)

	file, ok := doc.Files[img.FileID]
	require.True(t, ok)
	require.Equal(t, "image/png", file.MimeType)
	require.True(t, strings.HasPrefix(file.DataURL, "data:image/png;base64,"))
}

func TestImageFallbackToShape(t *testing.T) {
	// Mapper requests an image but cannot produce bytes: the node degrades
	// to its normal shape and the failure is reported.
	resolver := stubResolver{images: map[string][]byte{"tid.broken": nil}}

	d, err := gliffy.Parse([]byte(`{"stage":{"objects":[
		{"id":1,"width":50,"height":50,"graphic":{"type":"Shape","Shape":{"tid":"tid.broken"}}}
	]}}`))
	require.NoError(t, err)

	doc, skips := ConvertWithReport(d, resolver)
	require.Len(t, elementsOfType(doc, excalidraw.TypeRectangle), 1)
	require.Empty(t, doc.Files)
	require.Len(t, skips, 1)
	require.Equal(t, SkipUnresolvedImage, skips[0].Reason)
}

func TestMultiPageDocument(t *testing.T) {
	doc := convertString(t, `{"pages":[
		{"scene":{"objects":[{"id":1,"width":10,"height":10,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}}]}},
		{"scene":{"objects":[{"id":2,"width":10,"height":10,"graphic":{"type":"Shape","Shape":{"tid":"rect"}}}]}}
	]}`)

	require.Len(t, doc.Elements, 2)
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxWidth float64
		fontSize float64
		want     string
	}{
		{"fits", "short", 200, 10, "short"},
		{"wraps", "one two three four", 60, 10, "one two\nthree four"},
		{"hard split", "abcdefghijklmnop", 30, 10, "abcde\nfghij\nklmno\np"},
		{"keeps breaks", "a\nb", 200, 10, "a\nb"},
		{"zero width", "text", 0, 10, "text"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := wrapText(tt.text, tt.maxWidth, tt.fontSize); got != tt.want {
				t.Errorf("wrapText(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}
