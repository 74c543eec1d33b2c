package confluence

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/excalift/excalift/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, "user@example.com", "secret-token")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client, srv
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encoding response: %v", err)
	}
}

func TestNewClientFlavorDetection(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		cloud   bool
		apiBase string
	}{
		{
			name:    "cloud",
			baseURL: "https://acme.atlassian.net",
			cloud:   true,
			apiBase: "https://acme.atlassian.net/wiki/rest/api",
		},
		{
			name:    "cloud with wiki suffix",
			baseURL: "https://acme.atlassian.net/wiki",
			cloud:   true,
			apiBase: "https://acme.atlassian.net/wiki/rest/api",
		},
		{
			name:    "data center",
			baseURL: "https://confluence.corp.example.com",
			cloud:   false,
			apiBase: "https://confluence.corp.example.com/rest/api",
		},
		{
			name:    "data center trailing slash",
			baseURL: "https://confluence.corp.example.com/",
			cloud:   false,
			apiBase: "https://confluence.corp.example.com/rest/api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewClient(tt.baseURL, "u", "t")
			if err != nil {
				t.Fatalf("NewClient: %v", err)
			}
			if c.Cloud() != tt.cloud {
				t.Errorf("Cloud() = %v, want %v", c.Cloud(), tt.cloud)
			}
			if c.apiBase != tt.apiBase {
				t.Errorf("apiBase = %q, want %q", c.apiBase, tt.apiBase)
			}
		})
	}
}

func TestNewClientRejectsBadURL(t *testing.T) {
	for _, bad := range []string{"", "ftp://example.com", "confluence.example.com"} {
		if _, err := NewClient(bad, "u", "t"); err == nil {
			t.Errorf("NewClient(%q) succeeded, want error", bad)
		}
	}
}

func TestBearerAuthOnDataCenter(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(t, w, pagedResponse{Results: json.RawMessage("[]")})
	}))

	if _, err := client.Spaces(context.Background(), nil); err != nil {
		t.Fatalf("Spaces: %v", err)
	}
	if gotAuth != "Bearer secret-token" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
}

func TestSpacesPagination(t *testing.T) {
	// Two full pages then a short one.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		count := pageLimit
		if start >= 2*pageLimit {
			count = 3
		}
		spaces := make([]Space, count)
		for i := range spaces {
			spaces[i] = Space{Key: fmt.Sprintf("SP%d", start+i), Name: "Space"}
		}
		raw, _ := json.Marshal(spaces)
		writeJSON(t, w, pagedResponse{Results: raw, Size: count})
	}))

	spaces, err := client.Spaces(context.Background(), nil)
	if err != nil {
		t.Fatalf("Spaces: %v", err)
	}
	if want := 2*pageLimit + 3; len(spaces) != want {
		t.Errorf("len(spaces) = %d, want %d", len(spaces), want)
	}
}

func TestSpacesFilter(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := json.Marshal([]Space{{Key: "DEV"}, {Key: "OPS"}, {Key: "HR"}})
		writeJSON(t, w, pagedResponse{Results: raw})
	}))

	spaces, err := client.Spaces(context.Background(), []string{"OPS"})
	if err != nil {
		t.Fatalf("Spaces: %v", err)
	}
	if len(spaces) != 1 || spaces[0].Key != "OPS" {
		t.Errorf("spaces = %v, want just OPS", spaces)
	}
}

func TestPagesDeduplicatesDrafts(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var pages []Page
		if r.URL.Query().Get("status") == "draft" {
			pages = []Page{
				{ID: "100", Title: "Published but also a draft", Status: "draft"},
				{ID: "300", Title: "Fresh draft", Status: "draft"},
			}
		} else {
			pages = []Page{
				{ID: "100", Title: "Published"},
				{ID: "200", Title: "Another"},
			}
		}
		raw, _ := json.Marshal(pages)
		writeJSON(t, w, pagedResponse{Results: raw})
	}))

	pages, err := client.Pages(context.Background(), "DEV", true)
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("len(pages) = %d, want 3", len(pages))
	}
	ids := map[string]bool{}
	for _, p := range pages {
		if ids[p.ID] {
			t.Errorf("duplicate page ID %s", p.ID)
		}
		ids[p.ID] = true
	}
	if !ids["300"] {
		t.Error("draft page 300 missing")
	}
}

func TestPagesRejectsBadSpaceKey(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be hit")
	}))
	if _, err := client.Pages(context.Background(), "bad key!", false); !errors.Is(err, errors.ErrCodeInvalidSpaceKey) {
		t.Errorf("err = %v, want INVALID_SPACE_KEY", err)
	}
}

func TestDownloadAttachmentStripsPrefix(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\nrest")
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Only the stripped numeric ID resolves.
		if r.URL.Path == "/rest/api/content/42/child/attachment/123/download" {
			w.Write(png)
			return
		}
		http.NotFound(w, r)
	}))

	data, mime, err := client.DownloadAttachment(context.Background(), "42", "att123", false)
	if err != nil {
		t.Fatalf("DownloadAttachment: %v", err)
	}
	if string(data) != string(png) {
		t.Error("wrong bytes returned")
	}
	if mime != "image/png" {
		t.Errorf("mime = %q, want image/png", mime)
	}
}

func TestDownloadAttachmentByName(t *testing.T) {
	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg"/>`)
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rest/api/content/42/child/attachment":
			raw, _ := json.Marshal([]Attachment{
				{ID: "9001", Title: "my-diagram.png"},
				{ID: "9002", Title: "other.png"},
			})
			writeJSON(t, w, pagedResponse{Results: raw})
		case "/rest/api/content/42/child/attachment/9001/download":
			w.Write(svg)
		default:
			http.NotFound(w, r)
		}
	}))

	data, mime, err := client.DownloadAttachment(context.Background(), "42", "my-diagram", false)
	if err != nil {
		t.Fatalf("DownloadAttachment: %v", err)
	}
	if string(data) != string(svg) {
		t.Error("wrong bytes returned")
	}
	if mime != "image/svg+xml" {
		t.Errorf("mime = %q, want image/svg+xml", mime)
	}
}

func TestDownloadAttachmentRejectsPlaceholderBody(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>Error 404 - Diagram Missing</html>"))
	}))

	_, _, err := client.DownloadAttachment(context.Background(), "42", "777", false)
	if !errors.Is(err, errors.ErrCodeAttachmentNotFound) {
		t.Errorf("err = %v, want ATTACHMENT_NOT_FOUND", err)
	}
}

func TestDownloadAttachmentDraftStatus(t *testing.T) {
	var gotStatus string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		w.Write([]byte("\x89PNGdata"))
	}))

	if _, _, err := client.DownloadAttachment(context.Background(), "42", "777", true); err != nil {
		t.Fatalf("DownloadAttachment: %v", err)
	}
	if gotStatus != "draft" {
		t.Errorf("status param = %q, want draft", gotStatus)
	}
}

func TestUpdatePageBumpsVersion(t *testing.T) {
	var gotVersion int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("method = %s, want PUT", r.Method)
		}
		var payload struct {
			Version struct {
				Number int `json:"number"`
			} `json:"version"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotVersion = payload.Version.Number
		writeJSON(t, w, map[string]string{"id": "42"})
	}))

	page := &Page{
		ID:      "42",
		Title:   "Runbook",
		Space:   &SpaceRef{Key: "OPS"},
		Version: &Version{Number: 7},
	}
	if err := client.UpdatePage(context.Background(), page, "<p>new</p>"); err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}
	if gotVersion != 8 {
		t.Errorf("version = %d, want 8", gotVersion)
	}
}

func TestUpdatePageDraftKeepsVersion(t *testing.T) {
	var gotVersion int
	var gotStatus string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotStatus = r.URL.Query().Get("status")
		var payload struct {
			Version struct {
				Number int `json:"number"`
			} `json:"version"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		gotVersion = payload.Version.Number
		writeJSON(t, w, map[string]string{"id": "42"})
	}))

	page := &Page{
		ID:      "42",
		Title:   "Draft runbook",
		Status:  "draft",
		Space:   &SpaceRef{Key: "OPS"},
		Version: &Version{Number: 3},
	}
	if err := client.UpdatePage(context.Background(), page, "<p>new</p>"); err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}
	if gotVersion != 3 {
		t.Errorf("version = %d, want 3 (drafts keep their version)", gotVersion)
	}
	if gotStatus != "draft" {
		t.Errorf("status param = %q, want draft", gotStatus)
	}
}

func TestUpdatePageRetriesOnceOnConflict(t *testing.T) {
	puts := 0
	var lastVersion int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			puts++
			var payload struct {
				Version struct {
					Number int `json:"number"`
				} `json:"version"`
			}
			json.NewDecoder(r.Body).Decode(&payload)
			lastVersion = payload.Version.Number
			if puts == 1 {
				w.WriteHeader(http.StatusConflict)
				return
			}
			writeJSON(t, w, map[string]string{"id": "42"})
		case http.MethodGet:
			writeJSON(t, w, Page{ID: "42", Title: "Runbook", Version: &Version{Number: 9}})
		}
	}))

	page := &Page{
		ID:      "42",
		Title:   "Runbook",
		Space:   &SpaceRef{Key: "OPS"},
		Version: &Version{Number: 7},
	}
	if err := client.UpdatePage(context.Background(), page, "<p>new</p>"); err != nil {
		t.Fatalf("UpdatePage: %v", err)
	}
	if puts != 2 {
		t.Errorf("puts = %d, want 2", puts)
	}
	if lastVersion != 10 {
		t.Errorf("retried version = %d, want 10 (server version + 1)", lastVersion)
	}
}

func TestSniffMIME(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"png", "\x89PNG\r\n\x1a\n", "image/png"},
		{"jpeg", "\xff\xd8\xff\xe0", "image/jpeg"},
		{"svg", `<svg xmlns="x"/>`, "image/svg+xml"},
		{"svg with xml decl", "\n  <?xml version=\"1.0\"?><svg/>", "image/svg+xml"},
		{"json", `{"contentType": "gliffy"}`, "application/json"},
		{"unknown", "plain text", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SniffMIME([]byte(tt.data)); got != tt.want {
				t.Errorf("SniffMIME = %q, want %q", got, tt.want)
			}
		})
	}
}
