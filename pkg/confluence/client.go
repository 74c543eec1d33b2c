package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/excalift/excalift/pkg/cache"
	"github.com/excalift/excalift/pkg/errors"
	"github.com/excalift/excalift/pkg/httputil"
	"github.com/excalift/excalift/pkg/observability"
)

const (
	httpTimeout = 30 * time.Second
	pageLimit   = 100
)

// Client talks to one Confluence site. All methods are safe for concurrent
// use.
type Client struct {
	baseURL  string
	apiBase  string
	username string
	token    string
	cloud    bool

	http  *http.Client
	cache cache.Cache
	keyer cache.Keyer
	ttl   time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithCache enables GET response caching through the given backend.
func WithCache(backend cache.Cache, keyer cache.Keyer, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = backend
		c.keyer = keyer
		c.ttl = ttl
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the site at baseURL. The deployment flavor
// is detected from the URL: *.atlassian.net is Cloud (basic auth, /wiki/rest/api),
// anything else is Server/Data Center (bearer PAT, /rest/api).
func NewClient(baseURL, username, token string, opts ...Option) (*Client, error) {
	if err := errors.ValidateURL(baseURL); err != nil {
		return nil, err
	}

	base := strings.TrimRight(baseURL, "/")
	cloud := strings.Contains(strings.ToLower(base), "atlassian.net")

	apiBase := base + "/rest/api"
	if cloud {
		apiBase = strings.TrimSuffix(base, "/wiki") + "/wiki/rest/api"
	}

	c := &Client{
		baseURL:  base,
		apiBase:  apiBase,
		username: username,
		token:    token,
		cloud:    cloud,
		http:     &http.Client{Timeout: httpTimeout},
		cache:    cache.NewNullCache(),
		keyer:    cache.NewDefaultKeyer(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized site URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Cloud reports whether the site was detected as Atlassian Cloud.
func (c *Client) Cloud() bool { return c.cloud }

// =============================================================================
// Content API
// =============================================================================

type pagedResponse struct {
	Results json.RawMessage `json:"results"`
	Size    int             `json:"size"`
}

// Spaces lists all spaces visible to the authenticated user. When filter is
// non-empty, only spaces with those keys are returned.
func (c *Client) Spaces(ctx context.Context, filter []string) ([]Space, error) {
	var spaces []Space
	err := c.paginate(ctx, c.apiBase+"/space", url.Values{"expand": {"name,key"}}, func(results json.RawMessage) (int, error) {
		var batch []Space
		if err := json.Unmarshal(results, &batch); err != nil {
			return 0, err
		}
		spaces = append(spaces, batch...)
		return len(batch), nil
	})
	if err != nil {
		return nil, err
	}

	if len(filter) == 0 {
		return spaces, nil
	}
	want := make(map[string]bool, len(filter))
	for _, key := range filter {
		want[key] = true
	}
	var filtered []Space
	for _, s := range spaces {
		if want[s.Key] {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Pages lists all pages of a space, expanded with storage body and version.
// Draft pages are appended when includeDrafts is set; drafts already present
// as published pages are not duplicated. Draft listing failures are ignored,
// since not every Confluence exposes draft enumeration.
func (c *Client) Pages(ctx context.Context, spaceKey string, includeDrafts bool) ([]Page, error) {
	return c.PagesExpanded(ctx, spaceKey, includeDrafts, "body.storage,version")
}

// PagesExpanded is Pages with a caller-chosen expand clause, for callers that
// need history or ancestor metadata.
func (c *Client) PagesExpanded(ctx context.Context, spaceKey string, includeDrafts bool, expand string) ([]Page, error) {
	if err := errors.ValidateSpaceKey(spaceKey); err != nil {
		return nil, err
	}

	list := func(status string) ([]Page, error) {
		params := url.Values{
			"spaceKey": {spaceKey},
			"type":     {"page"},
			"expand":   {expand},
		}
		if status != "" {
			params.Set("status", status)
		}
		var pages []Page
		err := c.paginate(ctx, c.apiBase+"/content", params, func(results json.RawMessage) (int, error) {
			var batch []Page
			if err := json.Unmarshal(results, &batch); err != nil {
				return 0, err
			}
			pages = append(pages, batch...)
			return len(batch), nil
		})
		return pages, err
	}

	pages, err := list("")
	if err != nil {
		return nil, err
	}

	if includeDrafts {
		if drafts, err := list("draft"); err == nil {
			seen := make(map[string]bool, len(pages))
			for _, p := range pages {
				seen[p.ID] = true
			}
			for _, d := range drafts {
				if !seen[d.ID] {
					pages = append(pages, d)
					seen[d.ID] = true
				}
			}
		}
	}
	return pages, nil
}

// Page fetches one page with body, space and version expanded.
func (c *Client) Page(ctx context.Context, pageID string) (*Page, error) {
	return c.PageExpanded(ctx, pageID, "body.storage,space,version")
}

// PageExpanded is Page with a caller-chosen expand clause.
func (c *Client) PageExpanded(ctx context.Context, pageID, expand string) (*Page, error) {
	if err := errors.ValidatePageID(pageID); err != nil {
		return nil, err
	}
	var page Page
	params := url.Values{"expand": {expand}}
	if err := c.getJSON(ctx, c.apiBase+"/content/"+pageID, params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// PageURL builds the browser URL of a page.
func (c *Client) PageURL(pageID string) string {
	if c.cloud {
		return strings.TrimSuffix(c.baseURL, "/wiki") + "/wiki/pages/viewpage.action?pageId=" + pageID
	}
	return c.baseURL + "/pages/viewpage.action?pageId=" + pageID
}

// Attachments lists the attachments of a page.
func (c *Client) Attachments(ctx context.Context, pageID string) ([]Attachment, error) {
	var attachments []Attachment
	err := c.paginate(ctx, c.apiBase+"/content/"+pageID+"/child/attachment", nil, func(results json.RawMessage) (int, error) {
		var batch []Attachment
		if err := json.Unmarshal(results, &batch); err != nil {
			return 0, err
		}
		attachments = append(attachments, batch...)
		return len(batch), nil
	})
	if err != nil {
		return nil, err
	}
	return attachments, nil
}

// DownloadAttachment fetches the raw bytes of a page attachment and sniffs
// their MIME type.
//
// Gliffy macros are sloppy about attachment identifiers, so failures fall
// back in order: the raw ID, the ID with its "att" prefix stripped, and
// finally a title search over the page's attachment list (Data Center
// macros often carry a bare diagram name instead of an ID).
func (c *Client) DownloadAttachment(ctx context.Context, pageID, attachmentID string, draft bool) ([]byte, string, error) {
	if attachmentID == "" {
		return nil, "", errors.New(errors.ErrCodeAttachmentNotFound, "empty attachment ID")
	}

	candidates := []string{attachmentID}
	if stripped, ok := strings.CutPrefix(attachmentID, "att"); ok {
		candidates = append(candidates, stripped)
	}

	var lastErr error
	for _, id := range candidates {
		data, mime, err := c.downloadByID(ctx, pageID, id, draft)
		if err == nil {
			return data, mime, nil
		}
		lastErr = err
	}

	// Name-based fallback for non-numeric identifiers.
	if !isNumeric(attachmentID) && !strings.HasPrefix(attachmentID, "att") {
		if id := c.findAttachmentByName(ctx, pageID, attachmentID); id != "" && id != attachmentID {
			return c.DownloadAttachment(ctx, pageID, id, draft)
		}
	}

	return nil, "", errors.Wrap(errors.ErrCodeAttachmentNotFound, lastErr,
		"attachment %s on page %s", attachmentID, pageID)
}

func (c *Client) downloadByID(ctx context.Context, pageID, attachmentID string, draft bool) ([]byte, string, error) {
	endpoint := c.apiBase + "/content/" + pageID + "/child/attachment/" + attachmentID + "/download"
	params := url.Values{}
	if draft {
		params.Set("status", "draft")
	}

	data, err := c.getRaw(ctx, endpoint, params)
	if err != nil {
		return nil, "", err
	}
	// Some instances answer 200 with an error page instead of the file.
	if bytes.Contains(data, []byte("Error 404")) || bytes.Contains(data, []byte("Diagram Missing")) {
		return nil, "", errors.New(errors.ErrCodeAttachmentNotFound, "placeholder response for attachment %s", attachmentID)
	}
	return data, SniffMIME(data), nil
}

func (c *Client) findAttachmentByName(ctx context.Context, pageID, name string) string {
	attachments, err := c.Attachments(ctx, pageID)
	if err != nil {
		return ""
	}

	// Exact title match first, with the usual diagram extensions.
	for _, att := range attachments {
		switch att.Title {
		case name, name + ".png", name + ".svg", name + ".gliffy":
			return att.ID
		}
	}
	// Loose containment match as a last resort.
	lower := strings.ToLower(name)
	for _, att := range attachments {
		title := strings.ToLower(att.Title)
		if strings.Contains(title, lower) &&
			(strings.HasSuffix(title, ".png") || strings.HasSuffix(title, ".svg") || strings.HasSuffix(title, ".gliffy")) {
			return att.ID
		}
	}
	return ""
}

// UpdatePage replaces a page's storage body. Published pages bump the
// version by one; drafts keep the current version. A version conflict (409)
// is retried once against the server's current version.
func (c *Client) UpdatePage(ctx context.Context, page *Page, newBody string) error {
	if page == nil || page.ID == "" {
		return errors.New(errors.ErrCodeInvalidPageID, "page with ID required for update")
	}

	version := 1
	if page.Version != nil {
		version = page.Version.Number
	}
	if !page.Draft() {
		version++
	}

	spaceKey := ""
	if page.Space != nil {
		spaceKey = page.Space.Key
	}

	payload := map[string]any{
		"id":    page.ID,
		"type":  "page",
		"title": page.Title,
		"space": map[string]string{"key": spaceKey},
		"body": map[string]any{
			"storage": map[string]string{"value": newBody, "representation": "storage"},
		},
		"version": map[string]int{"number": version},
	}

	params := url.Values{"expand": {"body.storage,version,space,title"}}
	if page.Draft() {
		params.Set("status", "draft")
	}

	err := c.putJSON(ctx, c.apiBase+"/content/"+page.ID, params, payload)
	if !errors.Is(err, errors.ErrCodeConflict) {
		return err
	}

	// Someone updated the page between our read and write: re-fetch the
	// version and retry once.
	current, ferr := c.Page(ctx, page.ID)
	if ferr != nil {
		return errors.Wrap(errors.ErrCodeConflict, ferr, "resolving version conflict on page %s", page.ID)
	}
	if current.Version != nil {
		payload["version"] = map[string]int{"number": current.Version.Number + 1}
	}
	return c.putJSON(ctx, c.apiBase+"/content/"+page.ID, params, payload)
}

// =============================================================================
// Request plumbing
// =============================================================================

// paginate walks a collection endpoint with start/limit windows until a
// short batch signals the end.
func (c *Client) paginate(ctx context.Context, endpoint string, params url.Values, consume func(json.RawMessage) (int, error)) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("limit", strconv.Itoa(pageLimit))

	for start := 0; ; start += pageLimit {
		params.Set("start", strconv.Itoa(start))

		var resp pagedResponse
		if err := c.getJSON(ctx, endpoint, params, &resp); err != nil {
			return err
		}
		if len(resp.Results) == 0 {
			return nil
		}
		n, err := consume(resp.Results)
		if err != nil {
			return err
		}
		if n < pageLimit {
			return nil
		}
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	data, err := c.getRaw(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "decoding response from %s", endpoint)
	}
	return nil
}

// getRaw performs a cached, retried GET and returns the body bytes.
func (c *Client) getRaw(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	full := endpoint
	if len(params) > 0 {
		full += "?" + params.Encode()
	}

	key := c.keyer.HTTPKey("confluence", cache.Hash([]byte(full)))
	if data, hit, _ := c.cache.Get(ctx, key); hit {
		observability.Cache().OnCacheHit(ctx, "http")
		return data, nil
	}
	observability.Cache().OnCacheMiss(ctx, "http")

	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		var err error
		data, err = c.do(ctx, http.MethodGet, full, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	_ = c.cache.Set(ctx, key, data, c.ttl)
	observability.Cache().OnCacheSet(ctx, "http", len(data))
	return data, nil
}

func (c *Client) putJSON(ctx context.Context, endpoint string, params url.Values, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encoding update payload")
	}
	full := endpoint
	if len(params) > 0 {
		full += "?" + params.Encode()
	}
	// Writes are not retried blindly: only transport-level failures wrapped
	// retryable inside do() get re-attempted.
	return httputil.RetryWithBackoff(ctx, func() error {
		_, err := c.do(ctx, http.MethodPut, full, body)
		return err
	})
}

func (c *Client) do(ctx context.Context, method, fullURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "building request")
	}

	req.Header.Set("Accept", "*/*")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cloud {
		req.SetBasicAuth(c.username, c.token)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	observability.HTTP().OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "%s %s", method, fullURL)}
	}
	defer resp.Body.Close()
	observability.HTTP().OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "reading response")}
	}

	if err := checkStatus(resp, data); err != nil {
		return nil, err
	}
	return data, nil
}

func checkStatus(resp *http.Response, body []byte) error {
	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return errors.New(errors.ErrCodeUnauthorized, "authentication failed (check credentials)")
	case code == http.StatusForbidden:
		return errors.New(errors.ErrCodeForbidden, "permission denied")
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "resource not found")
	case code == http.StatusConflict:
		return errors.New(errors.ErrCodeConflict, "version conflict")
	case code == http.StatusTooManyRequests:
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{Err: &errors.RateLimitedError{RetryAfter: retryAfter}}
	case code >= 500:
		return &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "server error: status %d", code)}
	default:
		return errors.New(errors.ErrCodeNetwork, "unexpected status %d: %s", code, truncate(body, 200))
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// SniffMIME detects the attachment format from magic bytes.
func SniffMIME(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG")):
		return "image/png"
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "image/jpeg"
	case bytes.HasPrefix(trimmed, []byte("<svg")), bytes.HasPrefix(trimmed, []byte("<?xml")):
		return "image/svg+xml"
	case bytes.HasPrefix(trimmed, []byte("{")):
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
