package convert

import (
	"bytes"
	"encoding/base64"

	"github.com/excalift/excalift/pkg/excalidraw"
	"github.com/excalift/excalift/pkg/gliffy"
)

// buildImage replaces a stencil-backed shape with an embedded image. The
// bytes land in the document file map as a data URL; the element keeps the
// source geometry. Unresolvable bytes are reported so the caller can fall
// back to the plain shape builder.
func (b *builder) buildImage(obj *gliffy.Node, tid string) (*excalidraw.Element, SkipReason) {
	data := b.resolver.ImageBytes(tid)
	if len(data) == 0 {
		return nil, SkipUnresolvedImage
	}

	mime := sniffImageMIME(data)
	fileID := excalidraw.NewFileID()
	b.doc.Files[fileID] = excalidraw.FileData{
		MimeType: mime,
		DataURL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
	}

	el := excalidraw.NewElement(excalidraw.TypeImage)
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
	el.FileID = fileID
	el.Scale = []float64{1, 1}
	return el, SkipNone
}

// sniffImageMIME detects the image format from magic bytes, defaulting to
// PNG for anything unrecognized.
func sniffImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "image/jpeg"
	case bytes.HasPrefix(bytes.TrimSpace(data), []byte("<svg")),
		bytes.HasPrefix(bytes.TrimSpace(data), []byte("<?xml")):
		return "image/svg+xml"
	default:
		return "image/png"
	}
}
