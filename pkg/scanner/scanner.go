// Package scanner walks a Confluence instance and builds a page inventory:
// every page with its hierarchy, version, authorship and the Gliffy diagrams
// it embeds. The inventory is what decides which pages a migration run has
// to touch.
package scanner

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/excalift/excalift/pkg/confluence"
	"github.com/excalift/excalift/pkg/report"
)

// scanExpand pulls everything the inventory needs in one request per page
// batch.
const scanExpand = "space,version,history,ancestors,body.storage"

var (
	gliffyMacroRe = regexp.MustCompile(`(?is)<ac:structured-macro[^>]*ac:name=["']gliffy["'][^>]*>.*?</ac:structured-macro>`)
	macroNameRe   = regexp.MustCompile(`(?i)<ac:parameter[^>]*ac:name=["']name["'][^>]*>([^<]+)</ac:parameter>`)
)

// Scanner builds a Confluence inventory. Zero or more space keys narrow the
// scan; a page ID narrows it to that single page. With neither set, every
// visible space is scanned.
type Scanner struct {
	Client *confluence.Client
	Logger *log.Logger

	Spaces []string
	PageID string
}

// New creates a scanner over the given client. A nil logger falls back to
// the default logger.
func New(client *confluence.Client, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{Client: client, Logger: logger}
}

// Scan walks the configured scope and returns one record per page.
func (s *Scanner) Scan(ctx context.Context) ([]report.InventoryPage, error) {
	if s.PageID != "" {
		return s.scanPage(ctx)
	}
	return s.scanSpaces(ctx)
}

func (s *Scanner) scanPage(ctx context.Context) ([]report.InventoryPage, error) {
	s.Logger.Info("scanning single page", "page_id", s.PageID)

	page, err := s.Client.PageExpanded(ctx, s.PageID, scanExpand)
	if err != nil {
		return nil, err
	}
	spaceKey, spaceName := "unknown", "unknown"
	if page.Space != nil {
		spaceKey = page.Space.Key
		spaceName = page.Space.Key
	}
	return []report.InventoryPage{s.record(page, spaceKey, spaceName)}, nil
}

func (s *Scanner) scanSpaces(ctx context.Context) ([]report.InventoryPage, error) {
	spaces, err := s.Client.Spaces(ctx, s.Spaces)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("spaces to scan", "count", len(spaces))

	var inventory []report.InventoryPage
	for _, space := range spaces {
		s.Logger.Info("scanning space", "key", space.Key, "name", space.Name)

		pages, err := s.Client.PagesExpanded(ctx, space.Key, true, scanExpand)
		if err != nil {
			return nil, err
		}

		drafts := 0
		for _, p := range pages {
			if p.Draft() {
				drafts++
			}
		}
		s.Logger.Info("pages found", "space", space.Key, "published", len(pages)-drafts, "drafts", drafts)

		for i := range pages {
			inventory = append(inventory, s.record(&pages[i], space.Key, space.Name))
		}
	}

	s.Logger.Info("scan complete", "pages", len(inventory))
	return inventory, nil
}

// record flattens one expanded page into an inventory row.
func (s *Scanner) record(page *confluence.Page, spaceKey, spaceName string) report.InventoryPage {
	rec := report.InventoryPage{
		ID:        page.ID,
		Title:     page.Title,
		SpaceKey:  spaceKey,
		SpaceName: spaceName,
		Status:    page.Status,
		URL:       s.Client.PageURL(page.ID),
	}
	if rec.Status == "" {
		rec.Status = "current"
	}
	if page.Version != nil {
		rec.Version = page.Version.Number
	}

	if h := page.History; h != nil {
		rec.CreatedDate = formatDate(h.CreatedDate)
		rec.CreatedBy = h.CreatedBy.Name()
		if h.LastUpdated != nil {
			rec.LastUpdatedDate = formatDate(h.LastUpdated.When)
			rec.LastUpdatedBy = h.LastUpdated.By.Name()
		}
		// Never-modified pages have no lastUpdated entry.
		if rec.LastUpdatedDate == "" {
			rec.LastUpdatedDate = rec.CreatedDate
			rec.LastUpdatedBy = rec.CreatedBy
		}
	}

	if n := len(page.Ancestors); n > 0 {
		rec.AncestorsCount = n
		rec.ParentID = page.Ancestors[n-1].ID
		rec.ParentTitle = page.Ancestors[n-1].Title
	}

	rec.GliffyTitles = GliffyTitles(page.StorageBody())
	rec.GliffyCount = len(rec.GliffyTitles)
	return rec
}

// GliffyTitles extracts the diagram names of all gliffy macros in a storage
// body. Macros without a name parameter are reported as "(untitled)".
func GliffyTitles(body string) []string {
	if body == "" {
		return nil
	}
	var titles []string
	for _, macro := range gliffyMacroRe.FindAllString(body, -1) {
		name := ""
		if m := macroNameRe.FindStringSubmatch(macro); m != nil {
			name = strings.TrimSpace(m[1])
		}
		if name == "" {
			name = "(untitled)"
		}
		titles = append(titles, name)
	}
	return titles
}

// formatDate renders an ISO timestamp as "2006-01-02 15:04:05", passing
// through anything it cannot parse.
func formatDate(iso string) string {
	if iso == "" {
		return ""
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000-07:00"} {
		if t, err := time.Parse(layout, iso); err == nil {
			return t.Format("2006-01-02 15:04:05")
		}
	}
	return iso
}
