package excalidraw

// Source is the origin URL recorded on emitted documents.
const Source = "https://excalidraw.com"

// Viewport dimensions the initial scroll and zoom are computed against.
const (
	ViewportWidth  = 1200.0
	ViewportHeight = 800.0
)

// Zoom bounds for the computed initial view. ZoomFill leaves a 10% margin
// around the diagram.
const (
	ZoomFill = 0.9
	ZoomMin  = 0.2
	ZoomMax  = 1.0
)

// Document is a complete Excalidraw file.
type Document struct {
	Type     string              `json:"type"`
	Version  int                 `json:"version"`
	Source   string              `json:"source"`
	Elements []*Element          `json:"elements"`
	AppState AppState            `json:"appState"`
	Files    map[string]FileData `json:"files"`
}

// AppState carries the initial viewport.
type AppState struct {
	GridSize            *int    `json:"gridSize"`
	ViewBackgroundColor string  `json:"viewBackgroundColor"`
	ScrollX             float64 `json:"scrollX"`
	ScrollY             float64 `json:"scrollY"`
	Zoom                Zoom    `json:"zoom"`
}

// Zoom wraps the zoom factor the way the format expects.
type Zoom struct {
	Value float64 `json:"value"`
}

// FileData is one embedded image, stored as a data URL.
type FileData struct {
	MimeType string `json:"mimeType"`
	DataURL  string `json:"dataURL"`
}

// NewDocument returns a valid empty document with the default viewport.
// Garbage or empty input converts to exactly this.
func NewDocument() *Document {
	return &Document{
		Type:     "excalidraw",
		Version:  2,
		Source:   Source,
		Elements: []*Element{},
		AppState: AppState{
			ViewBackgroundColor: "#ffffff",
			Zoom:                Zoom{Value: 1.0},
		},
		Files: map[string]FileData{},
	}
}

// FitViewport centers the union bounding box of all elements in the fixed
// viewport and picks a zoom that fits the diagram with a margin, clamped to
// [ZoomMin, ZoomMax]. Arrows contribute each of their relative points added
// to the element origin; other shapes contribute their bounding box. A
// document without elements keeps the default viewport.
func (d *Document) FitViewport() {
	if len(d.Elements) == 0 {
		return
	}

	minX, minY := d.Elements[0].X, d.Elements[0].Y
	maxX, maxY := minX, minY
	first := true

	accumulate := func(x, y float64) {
		if first {
			minX, maxX, minY, maxY = x, x, y, y
			first = false
			return
		}
		minX = min(minX, x)
		maxX = max(maxX, x)
		minY = min(minY, y)
		maxY = max(maxY, y)
	}

	for _, el := range d.Elements {
		if len(el.Points) > 0 && (el.Type == TypeArrow || el.Type == TypeLine) {
			for _, p := range el.Points {
				if len(p) >= 2 {
					accumulate(el.X+p[0], el.Y+p[1])
				}
			}
			continue
		}
		accumulate(el.X, el.Y)
		accumulate(el.X+el.Width, el.Y+el.Height)
	}

	centerX := (minX + maxX) / 2
	centerY := (minY + maxY) / 2
	d.AppState.ScrollX = centerX - ViewportWidth/2
	d.AppState.ScrollY = centerY - ViewportHeight/2

	width := maxX - minX
	height := maxY - minY

	zoomX, zoomY := 1.0, 1.0
	if width > 0 {
		zoomX = ViewportWidth * ZoomFill / width
	}
	if height > 0 {
		zoomY = ViewportHeight * ZoomFill / height
	}

	zoom := min(zoomX, zoomY, ZoomMax)
	zoom = max(zoom, ZoomMin)
	d.AppState.Zoom = Zoom{Value: zoom}
}
