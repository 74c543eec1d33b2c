// Package confluence is a minimal Confluence REST client covering what the
// Gliffy migration needs: space and page enumeration, attachment downloads
// and page body updates.
//
// Both deployment flavors are supported and detected from the base URL:
//
//   - Cloud (*.atlassian.net): basic auth with email + API token, API under
//     /wiki/rest/api
//   - Server / Data Center: bearer auth with a personal access token, API
//     under /rest/api
//
// All requests run through pkg/httputil retry with exponential backoff;
// GET responses can be cached through a pkg/cache backend.
package confluence

// Space is one Confluence space.
type Space struct {
	ID   any    `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Page is one content item, expanded with its storage body and version.
// History and Ancestors are only populated when the request expands them.
type Page struct {
	ID        string     `json:"id"`
	Type      string     `json:"type,omitempty"`
	Status    string     `json:"status,omitempty"`
	Title     string     `json:"title"`
	Space     *SpaceRef  `json:"space,omitempty"`
	Body      *Body      `json:"body,omitempty"`
	Version   *Version   `json:"version,omitempty"`
	History   *History   `json:"history,omitempty"`
	Ancestors []Ancestor `json:"ancestors,omitempty"`
}

// Draft reports whether the page is an unpublished draft. Draft updates keep
// the current version number instead of incrementing it.
func (p *Page) Draft() bool { return p.Status == "draft" }

// StorageBody returns the page's storage-format body, "" when not expanded.
func (p *Page) StorageBody() string {
	if p.Body == nil || p.Body.Storage == nil {
		return ""
	}
	return p.Body.Storage.Value
}

// SpaceRef is the space reference embedded in a page.
type SpaceRef struct {
	Key string `json:"key"`
}

// Body wraps the representations of a page body. Only storage format is
// used here.
type Body struct {
	Storage *Storage `json:"storage,omitempty"`
}

// Storage is the XHTML storage representation of a page body.
type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

// Version is a page version stamp.
type Version struct {
	Number int    `json:"number"`
	When   string `json:"when,omitempty"`
}

// History carries creation and last-update metadata of a page.
type History struct {
	CreatedDate string  `json:"createdDate,omitempty"`
	CreatedBy   *User   `json:"createdBy,omitempty"`
	LastUpdated *Update `json:"lastUpdated,omitempty"`
}

// User is a Confluence account reference.
type User struct {
	DisplayName string `json:"displayName,omitempty"`
	Username    string `json:"username,omitempty"`
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Update is one entry of a page's update history.
type Update struct {
	When string `json:"when,omitempty"`
	By   *User  `json:"by,omitempty"`
}

// Ancestor is one entry of a page's ancestor chain, root first.
type Ancestor struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
}

// Attachment is one file attached to a page.
type Attachment struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
