package convert

import (
	"strings"

	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/gliffy"
)

// Free-standing text defaults.
const (
	textStrokeColor = "#000000"

	// Arrow labels are capped small so they never dominate the arrow.
	labelMaxFontSize = 12
	labelMinWidth    = 50.0
	labelMaxWidth    = 200.0
)

// buildText emits a text element. Three placements exist:
//
//   - child of a shape: bound to the container, rewrapped to its width
//   - child of an arrow with resolved geometry: floating label at the
//     arrow midpoint, font capped at labelMaxFontSize
//   - anything else: free-standing text at its own coordinates
func (b *builder) buildText(obj *gliffy.Node) (*excalidraw.Element, SkipReason) {
	content := gliffy.TextContent(obj)
	if content == "" {
		return nil, SkipEmptyText
	}

	el := excalidraw.NewElement(excalidraw.TypeText)
	el.X = obj.X
	el.Y = obj.Y
	el.Width = obj.Width
	el.Height = obj.Height
	el.Angle = obj.Rotation
	el.BackgroundColor = "transparent"
	el.StrokeColor = gliffy.StrokeColor(obj, textStrokeColor)

	geo, isArrowLabel := b.arrows[obj.ParentID]

	defaultSize := defaultShapeFontSize
	if isArrowLabel {
		defaultSize = labelMaxFontSize
	}
	fontSize := gliffy.FontSize(obj, defaultSize)
	if isArrowLabel && fontSize > labelMaxFontSize {
		fontSize = labelMaxFontSize
	}

	el.Text = content
	el.FontSize = fontSize
	el.FontFamily = 1
	el.TextAlign = "center"
	el.VerticalAlign = "middle"
	el.Baseline = int(float64(fontSize) * 0.85)
	el.OriginalText = content
	el.LineHeight = 1.25

	switch {
	case isArrowLabel:
		b.placeArrowLabel(el, content, fontSize, geo)
	case obj.ParentID != "":
		if containerID, ok := b.idMap[obj.ParentID]; ok {
			el.ContainerID = &containerID
			if parent, ok := b.info[obj.ParentID]; ok {
				if avail := parent.width - textMargin; avail > 0 {
					el.Width = avail
					if wrapped := wrapText(content, avail, float64(fontSize)); wrapped != "" {
						el.Text = wrapped
					}
				}
			}
		}
	}

	return el, SkipNone
}

// placeArrowLabel centers a label on the arrow's midpoint vertex and sizes
// it from the text itself rather than the source node, which Gliffy sizes
// for its own renderer.
func (b *builder) placeArrowLabel(el *excalidraw.Element, content string, fontSize int, geo arrowGeometry) {
	if len(geo.points) == 0 {
		return
	}
	mid := geo.points[len(geo.points)/2]
	if len(mid) < 2 {
		return
	}

	chars := len(strings.ReplaceAll(content, "\n", " "))
	width := float64(chars) * float64(fontSize) * 0.6
	width = max(min(width, labelMaxWidth), labelMinWidth)

	lines := float64(strings.Count(content, "\n") + 1)
	height := max(float64(fontSize)*1.5, float64(fontSize)*lines*1.2)

	el.Width = width
	el.Height = height
	el.X = mid[0] - width/2
	el.Y = mid[1] - height/2
}
