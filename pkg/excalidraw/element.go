// Package excalidraw models the Excalidraw document JSON format.
//
// Excalidraw documents are flat: a list of independently styled elements
// plus an app state (viewport) and an external file map for embedded
// images. Elements reference each other by ID for text containers and
// arrow-to-shape bindings; there is no hierarchy.
package excalidraw

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// Element type tags.
const (
	TypeRectangle = "rectangle"
	TypeEllipse   = "ellipse"
	TypeDiamond   = "diamond"
	TypeText      = "text"
	TypeLine      = "line"
	TypeArrow     = "arrow"
	TypeImage     = "image"
)

// ArrowheadArrow is the generic arrowhead marker. The format distinguishes
// further subtypes, but the converter maps every non-empty source code to
// this one.
const ArrowheadArrow = "arrow"

// Element is one emitted shape. Common fields are always serialized;
// variant-specific fields (text, line, image) are omitted when unset.
type Element struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	Angle           float64        `json:"angle"`
	StrokeColor     string         `json:"strokeColor"`
	BackgroundColor string         `json:"backgroundColor"`
	FillStyle       string         `json:"fillStyle"`
	StrokeWidth     float64        `json:"strokeWidth"`
	StrokeStyle     string         `json:"strokeStyle"`
	Roughness       int            `json:"roughness"`
	Opacity         int            `json:"opacity"`
	GroupIDs        []string       `json:"groupIds"`
	FrameID         *string        `json:"frameId"`
	Roundness       *Roundness     `json:"roundness"`
	BoundElements   []BoundElement `json:"boundElements"`
	Locked          bool           `json:"locked"`
	Link            *string        `json:"link"`
	Seed            int            `json:"seed"`
	VersionNonce    int            `json:"versionNonce"`
	IsDeleted       bool           `json:"isDeleted"`
	Updated         int64          `json:"updated"`

	// Text variant.
	Text          string  `json:"text,omitempty"`
	FontSize      int     `json:"fontSize,omitempty"`
	FontFamily    int     `json:"fontFamily,omitempty"`
	TextAlign     string  `json:"textAlign,omitempty"`
	VerticalAlign string  `json:"verticalAlign,omitempty"`
	Baseline      int     `json:"baseline,omitempty"`
	OriginalText  string  `json:"originalText,omitempty"`
	LineHeight    float64 `json:"lineHeight,omitempty"`
	ContainerID   *string `json:"containerId,omitempty"`

	// Line/arrow variant. Points are relative to the element origin.
	Points             [][]float64 `json:"points,omitempty"`
	LastCommittedPoint []float64   `json:"lastCommittedPoint,omitempty"`
	StartBinding       *Binding    `json:"startBinding,omitempty"`
	EndBinding         *Binding    `json:"endBinding,omitempty"`
	StartArrowhead     *string     `json:"startArrowhead,omitempty"`
	EndArrowhead       *string     `json:"endArrowhead,omitempty"`

	// Image variant. The data URL lives in the document file map under
	// FileID.
	FileID string    `json:"fileId,omitempty"`
	Scale  []float64 `json:"scale,omitempty"`
}

// Roundness describes corner rounding. Type 3 is an adaptive radius used
// for rectangles, type 2 the proportional rounding used for ellipses and
// lines.
type Roundness struct {
	Type  int     `json:"type"`
	Value float64 `json:"value,omitempty"`
}

// Binding attaches a line endpoint to another element so the line follows
// when the element moves.
type Binding struct {
	ElementID string  `json:"elementId"`
	Focus     float64 `json:"focus"`
	Gap       float64 `json:"gap"`
}

// BoundElement is the back-reference a shape keeps to each arrow bound to
// it.
type BoundElement struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// NewElement returns an element of the given type with the format's default
// styling and fresh identity fields.
func NewElement(elementType string) *Element {
	return &Element{
		ID:              NewID(elementType),
		Type:            elementType,
		StrokeColor:     "#1e1e1e",
		BackgroundColor: "transparent",
		FillStyle:       "solid",
		StrokeWidth:     2,
		StrokeStyle:     "solid",
		Roughness:       1,
		Opacity:         100,
		GroupIDs:        []string{},
		Seed:            nonce(),
		VersionNonce:    nonce(),
		Updated:         time.Now().UnixMilli(),
	}
}

// NewID generates an element identifier prefixed with the element type, for
// readable documents and stable debugging.
func NewID(elementType string) string {
	return fmt.Sprintf("%s_%s", elementType, uuid.NewString()[:8])
}

// NewFileID generates an identifier for an entry in the document file map.
func NewFileID() string {
	return "image_" + uuid.NewString()[:8]
}

func nonce() int {
	return 100000 + rand.Intn(900000)
}
