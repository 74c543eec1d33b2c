package convert

import (
	"strings"

	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/gliffy"
)

// Shape styling defaults.
const (
	shapeFill = "#f9f9f9"

	// minShapeSize is the floor applied to degenerate rectangle sizes so
	// broken source shapes remain visible.
	minShapeSize = 100.0

	// textMargin is the interior padding subtracted from a shape's width
	// before wrapping its text.
	textMargin = 20.0

	// In-shape text is shrunk by half and kept small relative to the
	// shape; labels and free text keep their own sizing.
	shapeTextShrink  = 0.5
	shapeTextMinSize = 8
	shapeTextMaxSize = 10

	defaultShapeFontSize = 20
)

// buildRectangle emits a rectangle element. It is also the emergency path
// for unclassifiable nodes, so it never skips: degenerate sizes are floored
// and text is carried over when present.
func (b *builder) buildRectangle(obj *gliffy.Node) *excalidraw.Element {
	el := excalidraw.NewElement(excalidraw.TypeRectangle)
	el.X = obj.X
	el.Y = obj.Y
	el.Width = obj.Width
	el.Height = obj.Height
	if el.Width <= 0 {
		el.Width = minShapeSize
	}
	if el.Height <= 0 {
		el.Height = minShapeSize
	}
	el.Angle = obj.Rotation
	el.StrokeColor = gliffy.StrokeColor(obj, gliffy.DefaultStrokeColor)
	el.BackgroundColor = gliffy.FillColor(obj, shapeFill)
	el.StrokeWidth = gliffy.StrokeWidth(obj, gliffy.DefaultStrokeWidth)

	if radius := gliffy.CornerRadius(obj); radius > 0 {
		el.Roundness = &excalidraw.Roundness{Type: 3, Value: radius}
	}

	if content, size := b.shapeText(obj); content != "" {
		applyShapeText(el, content, size)
	}
	return el
}

// buildEllipse emits an ellipse element. Near-square bounding boxes are
// normalized into perfect circles; the diamond variant is detected from the
// uid afterwards, so diamonds are never coerced into circles.
func (b *builder) buildEllipse(obj *gliffy.Node) *excalidraw.Element {
	el := excalidraw.NewElement(excalidraw.TypeEllipse)
	el.X = obj.X
	el.Y = obj.Y
	el.Width = obj.Width
	el.Height = obj.Height
	el.Angle = obj.Rotation
	el.StrokeColor = gliffy.StrokeColor(obj, gliffy.DefaultStrokeColor)
	el.BackgroundColor = gliffy.FillColor(obj, shapeFill)
	el.StrokeWidth = gliffy.StrokeWidth(obj, gliffy.DefaultStrokeWidth)
	el.Roundness = &excalidraw.Roundness{Type: 2}

	if el.Width > 0 && el.Height > 0 {
		ratio := min(el.Width, el.Height) / max(el.Width, el.Height)
		if ratio > 0.9 {
			avg := (el.Width + el.Height) / 2
			el.Width = avg
			el.Height = avg
		}
	}

	uid := strings.ToLower(obj.UID)
	if strings.Contains(uid, "diamond") || strings.Contains(uid, "decision") {
		el.Type = excalidraw.TypeDiamond
	}

	if content, size := b.shapeText(obj); content != "" {
		applyShapeText(el, content, size)
	}
	return el
}

// shapeText finds the text to embed in a shape: directly on the node, or on
// the first text child among the flattened objects whose parent is this
// shape. Arrow labels never count as in-shape text — a candidate is
// excluded when its own parent re-classifies as an arrow.
func (b *builder) shapeText(obj *gliffy.Node) (string, int) {
	if content := gliffy.TextContent(obj); content != "" {
		return content, gliffy.FontSize(obj, defaultShapeFontSize)
	}

	id := obj.ID.String()
	if id == "" {
		return "", 0
	}
	for _, child := range b.objects {
		if child.ParentID != id || child.DetectedKind != gliffy.KindText {
			continue
		}
		if b.parentKind(child.ParentID) == gliffy.KindArrow {
			continue
		}
		if content := gliffy.TextContent(child); content != "" {
			return content, gliffy.FontSize(child, defaultShapeFontSize)
		}
	}
	return "", 0
}

// applyShapeText embeds wrapped text into a shape element. The extracted
// size is halved and clamped so in-shape text stays subordinate to the
// shape itself.
func applyShapeText(el *excalidraw.Element, content string, fontSize int) {
	size := int(float64(fontSize) * shapeTextShrink)
	if size < shapeTextMinSize {
		size = shapeTextMinSize
	}
	if size > shapeTextMaxSize {
		size = shapeTextMaxSize
	}

	text := content
	if avail := el.Width - textMargin; avail > 0 {
		text = wrapText(content, avail, float64(size))
	}

	el.Text = text
	el.FontSize = size
	el.FontFamily = 1
	el.TextAlign = "center"
	el.VerticalAlign = "middle"
	el.Baseline = int(float64(size) * 0.85)
	el.OriginalText = content
	el.LineHeight = 1.25
}

// wrapText greedily wraps text to a pixel width using an average character
// width of 0.6×fontSize. Existing line breaks are preserved; words longer
// than a full line are hard-split.
func wrapText(text string, maxWidth, fontSize float64) string {
	if text == "" || maxWidth <= 0 || fontSize <= 0 {
		return text
	}

	charWidth := max(3, fontSize*0.6)
	maxChars := int(maxWidth / charWidth)
	if maxChars < 1 {
		return text
	}

	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if len(line) <= maxChars {
			lines = append(lines, line)
			continue
		}

		var current string
		for _, word := range strings.Fields(line) {
			candidate := word
			if current != "" {
				candidate = current + " " + word
			}
			if len(candidate) <= maxChars {
				current = candidate
				continue
			}
			if current != "" {
				lines = append(lines, current)
				current = word
				continue
			}
			// Single word longer than the line budget.
			for len(word) > maxChars {
				lines = append(lines, word[:maxChars])
				word = word[maxChars:]
			}
			current = word
		}
		if current != "" {
			lines = append(lines, current)
		}
	}
	return strings.Join(lines, "\n")
}
