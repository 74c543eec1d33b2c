package convert

import "fmt"

// SkipReason says why a builder produced no element for a source node.
// Skips are expected, non-fatal outcomes: the pipeline filters them out and
// reports them instead of aborting the document.
type SkipReason int

const (
	// SkipNone marks a successful build.
	SkipNone SkipReason = iota

	// SkipEmptyText marks a text node whose resolved content is empty; an
	// empty text element carries no information and is never emitted.
	SkipEmptyText

	// SkipDanglingReference marks a node referencing another node that was
	// never indexed.
	SkipDanglingReference

	// SkipInvalidGeometry marks a line that resolved fewer than two
	// endpoint candidates.
	SkipInvalidGeometry

	// SkipUnresolvedImage marks a requested image substitution whose bytes
	// could not be resolved; the node falls back to the shape builder.
	SkipUnresolvedImage
)

// String returns the reason name.
func (r SkipReason) String() string {
	switch r {
	case SkipNone:
		return "none"
	case SkipEmptyText:
		return "empty_text"
	case SkipDanglingReference:
		return "dangling_reference"
	case SkipInvalidGeometry:
		return "invalid_geometry"
	case SkipUnresolvedImage:
		return "unresolved_image"
	default:
		return fmt.Sprintf("skip(%d)", int(r))
	}
}

// Skip records one skipped source node for observability.
type Skip struct {
	NodeID string
	Kind   string
	Reason SkipReason
}
