package migrate

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

// macroBlockLimit bounds how far after a macro we look for evidence of a
// prior insert, so one diagram's image is never attributed to another.
const macroBlockLimit = 5000

// TreatmentMarker is the HTML comment prefix stamped after a macro once its
// image has been inserted. It doubles as an idempotence marker on re-runs.
const TreatmentMarker = "GLIFFY_TREATED:"

var (
	macroRe     = regexp.MustCompile(`(?is)<ac:structured-macro[^>]*ac:name=["']gliffy["'][^>]*>.*?</ac:structured-macro>`)
	macroOpenRe = regexp.MustCompile(`(?i)<ac:structured-macro[^>]*ac:name=["']gliffy["']`)

	paramRes = map[string]*regexp.Regexp{}

	// Prior insert block: optional treatment marker, then a paragraph whose
	// image is an inline data URL.
	insertedBlockRe = regexp.MustCompile(`(?is)(?:<!--\s*GLIFFY_TREATED:[^>]*-->\s*)?<p><strong>[^<]*</strong>.*?<img[^>]*src=["']data:image/[^"']*;base64,[^"']*["'][^>]*>.*?</p>`)
)

func init() {
	for _, name := range []string{"imageAttachmentId", "diagramAttachmentId", "name", "filename", "id", "macroId"} {
		paramRes[name] = regexp.MustCompile(`(?i)<ac:parameter[^>]*ac:name=["']` + name + `["'][^>]*>([^<]+)</ac:parameter>`)
	}
}

// MacroRef identifies one gliffy macro occurrence in a page body, with the
// best attachment identifiers its parameters yield.
type MacroRef struct {
	AttachmentID        string
	DiagramAttachmentID string
	MacroID             string
	DiagramName         string
	Raw                 string
}

func param(macro, name string) string {
	if m := paramRes[name].FindStringSubmatch(macro); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// ExtractMacros finds all gliffy macros in a storage body and resolves their
// attachment identifiers.
//
// Cloud macros carry imageAttachmentId/diagramAttachmentId directly. Data
// Center macros often hold the placeholder value "test" there and put the
// real identifier (or just the diagram name) in the id/name/filename
// parameters, so those are consulted in turn.
func ExtractMacros(body string) []MacroRef {
	var refs []MacroRef
	for _, macro := range macroRe.FindAllString(body, -1) {
		attID := param(macro, "imageAttachmentId")
		diagID := param(macro, "diagramAttachmentId")
		name := param(macro, "name")
		filename := param(macro, "filename")
		id := param(macro, "id")
		macroID := param(macro, "macroId")

		if attID == "" || attID == "test" {
			switch {
			case id != "" && id != "test":
				attID = id
			case name != "":
				attID = name
			case filename != "":
				attID = filename
			case id != "":
				attID = id
			}
		}
		if diagID == "" {
			diagID = attID
		}

		if attID == "" && diagID == "" && name == "" && macroID == "" {
			continue
		}
		refs = append(refs, MacroRef{
			AttachmentID:        attID,
			DiagramAttachmentID: diagID,
			MacroID:             macroID,
			DiagramName:         name,
			Raw:                 macro,
		})
	}
	return refs
}

// findMacro locates ref's macro in body and returns its [start, end) span.
//
// Bodies mutate between extraction and insertion (other macros on the same
// page get images inserted), so an exact match of the captured HTML is tried
// first, then a parameter match on macroId or the attachment IDs, then the
// first gliffy macro as a last resort.
func findMacro(body string, ref MacroRef) (int, int, bool) {
	if ref.Raw != "" {
		if i := strings.Index(body, ref.Raw); i >= 0 {
			return i, i + len(ref.Raw), true
		}
	}

	spans := macroRe.FindAllStringIndex(body, -1)
	if len(spans) == 0 {
		return 0, 0, false
	}

	if ref.MacroID != "" {
		for _, span := range spans {
			if param(body[span[0]:span[1]], "macroId") == ref.MacroID {
				return span[0], span[1], true
			}
		}
	}

	if ref.DiagramAttachmentID != "" || ref.AttachmentID != "" {
		for _, span := range spans {
			macro := body[span[0]:span[1]]
			diag := param(macro, "diagramAttachmentId")
			img := param(macro, "imageAttachmentId")
			if (ref.DiagramAttachmentID != "" && diag == ref.DiagramAttachmentID) ||
				(ref.AttachmentID != "" && img == ref.AttachmentID) {
				return span[0], span[1], true
			}
		}
	}

	return spans[0][0], spans[0][1], true
}

// blockAfter returns the body slice following ref's macro, cut at the next
// gliffy macro or at macroBlockLimit, whichever comes first.
func blockAfter(body string, end int) string {
	after := body[end:]
	if m := macroOpenRe.FindStringIndex(after); m != nil && m[0] < macroBlockLimit {
		return after[:m[0]]
	}
	if len(after) > macroBlockLimit {
		return after[:macroBlockLimit]
	}
	return after
}

// AlreadyProcessed reports whether ref's macro already has an image inserted
// after it, and which evidence was found: the attachment ID in an alt text,
// the treatment marker, or a data-URL image directly after the macro.
func AlreadyProcessed(body string, ref MacroRef) (bool, string) {
	_, end, ok := findMacro(body, ref)
	if !ok {
		return false, ""
	}
	block := blockAfter(body, end)

	if ref.AttachmentID != "" && strings.Contains(block, "ID:"+ref.AttachmentID) {
		return true, "attachment ID in alt text"
	}
	if ref.DiagramAttachmentID != "" && strings.Contains(block, "ID:"+ref.DiagramAttachmentID) {
		return true, "diagram ID in alt text"
	}
	if strings.Contains(block, TreatmentMarker) {
		return true, "treatment marker"
	}
	if strings.Contains(block, `src="data:image/`) || strings.Contains(block, `src='data:image/`) {
		return true, "inline image after macro"
	}
	return false, ""
}

// RemoveInsertedImage strips a previously inserted image block following
// ref's macro, for --force re-runs. The body is returned unchanged when no
// such block exists.
func RemoveInsertedImage(body string, ref MacroRef) string {
	_, end, ok := findMacro(body, ref)
	if !ok {
		return body
	}
	block := blockAfter(body, end)

	m := insertedBlockRe.FindStringIndex(block)
	if m == nil {
		return body
	}
	// Refuse to delete across another macro.
	if strings.Contains(block[:m[0]], "<ac:structured-macro") {
		return body
	}
	return body[:end+m[0]] + body[end+m[1]:]
}

// InsertedImageHTML renders the treatment marker plus the image paragraph
// appended after a macro. The attachment ID is embedded in the alt text as
// the durable idempotence tag.
func InsertedImageHTML(ref MacroRef, dataURL string, now time.Time) string {
	caption := "Exported Gliffy diagram"
	if ref.DiagramName != "" {
		caption += ": " + html.EscapeString(ref.DiagramName)
	}
	alt := caption
	if ref.AttachmentID != "" {
		alt += " [ID:" + ref.AttachmentID + "]"
	}

	marker := fmt.Sprintf("<!-- %s %s -->", TreatmentMarker, now.UTC().Format(time.RFC3339))
	return fmt.Sprintf(`%s
<p><strong>%s</strong><br/><img src="%s" alt="%s" title="%s" /></p>`,
		marker, caption, dataURL, alt, alt)
}

// InsertAfterMacro splices html after ref's macro in body. When the macro
// cannot be located the block is appended at the end.
func InsertAfterMacro(body string, ref MacroRef, html string) string {
	_, end, ok := findMacro(body, ref)
	if !ok {
		return body + html
	}
	return body[:end] + html + body[end:]
}
