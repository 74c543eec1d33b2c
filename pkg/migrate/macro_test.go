package migrate

import (
	"strings"
	"testing"
	"time"
)

func macroWith(params map[string]string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="gliffy" ac:schema-version="1">`)
	for name, value := range params {
		b.WriteString(`<ac:parameter ac:name="` + name + `">` + value + `</ac:parameter>`)
	}
	b.WriteString(`</ac:structured-macro>`)
	return b.String()
}

func TestExtractMacros(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantAtt string
		wantN   int
	}{
		{
			name:    "cloud macro with attachment ids",
			body:    macroWith(map[string]string{"imageAttachmentId": "123", "diagramAttachmentId": "456", "name": "arch"}),
			wantAtt: "123",
			wantN:   1,
		},
		{
			name:    "test placeholder resolved from id",
			body:    macroWith(map[string]string{"imageAttachmentId": "test", "id": "789"}),
			wantAtt: "789",
			wantN:   1,
		},
		{
			name:    "test placeholder falls back to name",
			body:    macroWith(map[string]string{"imageAttachmentId": "test", "id": "test", "name": "flow-diagram"}),
			wantAtt: "flow-diagram",
			wantN:   1,
		},
		{
			name:    "filename fallback",
			body:    macroWith(map[string]string{"filename": "deploy.png"}),
			wantAtt: "deploy.png",
			wantN:   1,
		},
		{
			name:  "macro without any identifier is dropped",
			body:  macroWith(map[string]string{"version": "2"}),
			wantN: 0,
		},
		{
			name:  "non-gliffy macro ignored",
			body:  `<ac:structured-macro ac:name="toc"></ac:structured-macro>`,
			wantN: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := ExtractMacros(tt.body)
			if len(refs) != tt.wantN {
				t.Fatalf("len(refs) = %d, want %d", len(refs), tt.wantN)
			}
			if tt.wantN > 0 && refs[0].AttachmentID != tt.wantAtt {
				t.Errorf("AttachmentID = %q, want %q", refs[0].AttachmentID, tt.wantAtt)
			}
		})
	}
}

func TestExtractMacrosDiagramIDDefaults(t *testing.T) {
	body := macroWith(map[string]string{"imageAttachmentId": "123"})
	refs := ExtractMacros(body)
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if refs[0].DiagramAttachmentID != "123" {
		t.Errorf("DiagramAttachmentID = %q, want fallback to attachment ID", refs[0].DiagramAttachmentID)
	}
}

func TestFindMacroByMacroID(t *testing.T) {
	first := macroWith(map[string]string{"macroId": "aaa", "imageAttachmentId": "1"})
	second := macroWith(map[string]string{"macroId": "bbb", "imageAttachmentId": "2"})
	body := "<p>intro</p>" + first + "<p>mid</p>" + second

	// Stale Raw forces the parameter-based lookup.
	ref := MacroRef{MacroID: "bbb", Raw: "<stale/>"}
	start, end, ok := findMacro(body, ref)
	if !ok {
		t.Fatal("macro not found")
	}
	if body[start:end] != second {
		t.Errorf("found %q, want second macro", body[start:end])
	}
}

func TestAlreadyProcessed(t *testing.T) {
	macro := macroWith(map[string]string{"imageAttachmentId": "123"})
	ref := ExtractMacros(macro)[0]

	tests := []struct {
		name string
		body string
		want bool
	}{
		{
			name: "untreated",
			body: "<p>before</p>" + macro + "<p>after</p>",
			want: false,
		},
		{
			name: "attachment id in alt text",
			body: macro + `<p><img src="x" alt="diagram [ID:123]"/></p>`,
			want: true,
		},
		{
			name: "treatment marker",
			body: macro + `<!-- GLIFFY_TREATED: 2026-08-23T10:00:00Z --><p>x</p>`,
			want: true,
		},
		{
			name: "inline image after macro",
			body: macro + `<p><img src="data:image/png;base64,AAAA"/></p>`,
			want: true,
		},
		{
			name: "evidence belongs to the next macro",
			body: macro + macroWith(map[string]string{"imageAttachmentId": "999"}) +
				`<!-- GLIFFY_TREATED: 2026-08-23T10:00:00Z -->`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := AlreadyProcessed(tt.body, ref)
			if got != tt.want {
				t.Errorf("AlreadyProcessed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestInsertThenDetectRoundTrip(t *testing.T) {
	macro := macroWith(map[string]string{"imageAttachmentId": "123", "name": "arch & flow"})
	body := "<p>before</p>" + macro + "<p>after</p>"
	ref := ExtractMacros(body)[0]

	html := InsertedImageHTML(ref, "data:image/png;base64,AAAA", time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC))
	updated := InsertAfterMacro(body, ref, html)

	if !strings.Contains(updated, macro+"<!-- GLIFFY_TREATED: 2026-08-23T10:00:00Z -->") {
		t.Error("image block not inserted directly after macro")
	}
	if !strings.Contains(updated, "[ID:123]") {
		t.Error("alt text missing attachment ID tag")
	}
	if !strings.Contains(updated, "arch &amp; flow") {
		t.Error("diagram name not HTML-escaped")
	}
	if !strings.Contains(updated, "<p>after</p>") {
		t.Error("original content after macro lost")
	}

	if done, evidence := AlreadyProcessed(updated, ref); !done {
		t.Error("inserted block not detected as treated")
	} else if evidence != "attachment ID in alt text" {
		t.Errorf("evidence = %q, want attachment ID match", evidence)
	}
}

func TestRemoveInsertedImage(t *testing.T) {
	macro := macroWith(map[string]string{"imageAttachmentId": "123"})
	body := "<p>before</p>" + macro + "<p>after</p>"
	ref := ExtractMacros(body)[0]

	inserted := InsertAfterMacro(body, ref, InsertedImageHTML(ref, "data:image/png;base64,AAAA", time.Now()))
	restored := RemoveInsertedImage(inserted, ref)

	if restored != body {
		t.Errorf("restored body = %q, want original", restored)
	}
}

func TestRemoveInsertedImageLeavesUntreatedBody(t *testing.T) {
	macro := macroWith(map[string]string{"imageAttachmentId": "123"})
	body := macro + "<p>plain content</p>"
	ref := ExtractMacros(body)[0]

	if got := RemoveInsertedImage(body, ref); got != body {
		t.Errorf("body changed: %q", got)
	}
}
