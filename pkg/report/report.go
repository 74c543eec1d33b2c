// Package report writes the human-readable and machine-readable reports the
// scan and migrate commands produce.
//
// Every report lands in a reports directory under a timestamped filename so
// consecutive runs never overwrite each other. Each report kind exists in two
// flavors: a plain-text file meant to be read, and a JSON file meant to be
// diffed or fed to other tooling. Reports can additionally be persisted to
// MongoDB for fleet-wide dashboards (see [MongoStore]).
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultDir is where reports are written unless overridden.
const DefaultDir = "reports"

const rule = "================================================================================"
const thinRule = "--------------------------------------------------------------------------------"

// InventoryPage is one page of a Confluence inventory scan.
type InventoryPage struct {
	ID              string   `json:"id" bson:"id"`
	Title           string   `json:"title" bson:"title"`
	SpaceKey        string   `json:"space_key" bson:"space_key"`
	SpaceName       string   `json:"space_name" bson:"space_name"`
	Status          string   `json:"status" bson:"status"`
	Version         int      `json:"version" bson:"version"`
	CreatedDate     string   `json:"created_date" bson:"created_date"`
	CreatedBy       string   `json:"created_by" bson:"created_by"`
	LastUpdatedDate string   `json:"last_updated_date" bson:"last_updated_date"`
	LastUpdatedBy   string   `json:"last_updated_by" bson:"last_updated_by"`
	ParentID        string   `json:"parent_id" bson:"parent_id"`
	ParentTitle     string   `json:"parent_title" bson:"parent_title"`
	URL             string   `json:"url" bson:"url"`
	AncestorsCount  int      `json:"ancestors_count" bson:"ancestors_count"`
	GliffyCount     int      `json:"gliffy_count" bson:"gliffy_count"`
	GliffyTitles    []string `json:"gliffy_titles" bson:"gliffy_titles"`
}

// MigrationStats aggregates one migration run.
type MigrationStats struct {
	PagesProcessed int `json:"pages_processed" bson:"pages_processed"`
	PagesModified  int `json:"pages_modified" bson:"pages_modified"`
	PagesSkipped   int `json:"pages_skipped" bson:"pages_skipped"`
	GliffyFound    int `json:"gliffy_found" bson:"gliffy_found"`
	ImagesInserted int `json:"images_inserted" bson:"images_inserted"`
	Errors         int `json:"errors" bson:"errors"`
}

// Page outcome statuses in a migration report.
const (
	StatusModified = "modified"
	StatusSkipped  = "skipped"
	StatusError    = "error"
)

// PageResult is the outcome of migrating one page.
type PageResult struct {
	PageID         string   `json:"page_id" bson:"page_id"`
	PageTitle      string   `json:"page_title" bson:"page_title"`
	SpaceKey       string   `json:"space_key,omitempty" bson:"space_key,omitempty"`
	Status         string   `json:"status" bson:"status"`
	GliffyCount    int      `json:"gliffy_count" bson:"gliffy_count"`
	ImagesInserted int      `json:"images_inserted" bson:"images_inserted"`
	Reason         string   `json:"reason,omitempty" bson:"reason,omitempty"`
	Errors         []string `json:"errors,omitempty" bson:"errors,omitempty"`
}

// MigrationReport is the full record of one migration run.
type MigrationReport struct {
	Timestamp string         `json:"timestamp" bson:"timestamp"`
	Site      string         `json:"site,omitempty" bson:"site,omitempty"`
	Stats     MigrationStats `json:"stats" bson:"stats"`
	Pages     []PageResult   `json:"pages" bson:"pages"`
}

// Add folds one page outcome into the report and its stats.
func (r *MigrationReport) Add(p PageResult) {
	r.Pages = append(r.Pages, p)
	r.Stats.PagesProcessed++
	r.Stats.GliffyFound += p.GliffyCount
	r.Stats.ImagesInserted += p.ImagesInserted
	switch p.Status {
	case StatusModified:
		r.Stats.PagesModified++
	case StatusSkipped:
		r.Stats.PagesSkipped++
	case StatusError:
		r.Stats.Errors++
	}
}

// Writer writes reports into a directory, timestamping every filename.
type Writer struct {
	Dir string
	Now func() time.Time // defaults to time.Now
}

// NewWriter creates a writer for the given directory ("" means [DefaultDir]).
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = DefaultDir
	}
	return &Writer{Dir: dir, Now: time.Now}
}

func (w *Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// TimestampedName inserts a run timestamp before the file extension, so
// "inventory.txt" becomes "inventory_2026-08-23_15-30-45.txt".
func (w *Writer) TimestampedName(filename string) string {
	stamp := w.now().Format("2006-01-02_15-04-05")
	ext := filepath.Ext(filename)
	if ext == "" {
		return filename + "_" + stamp
	}
	return strings.TrimSuffix(filename, ext) + "_" + stamp + ext
}

func (w *Writer) create(filename string) (*os.File, string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("creating reports directory: %w", err)
	}
	path := filepath.Join(w.Dir, w.TimestampedName(filename))
	f, err := os.Create(path)
	if err != nil {
		return nil, "", fmt.Errorf("creating report: %w", err)
	}
	return f, path, nil
}

// WriteJSON writes any report value as indented JSON and returns the path.
func (w *Writer) WriteJSON(filename string, v any) (string, error) {
	f, path, err := w.create(filename)
	if err != nil {
		return "", err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	return path, nil
}

// WriteInventoryTXT writes a readable inventory grouped by space.
func (w *Writer) WriteInventoryTXT(inventory []InventoryPage) (string, error) {
	f, path, err := w.create("confluence_inventory.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	bySpace := make(map[string][]InventoryPage)
	var spaceKeys []string
	for _, p := range inventory {
		if _, ok := bySpace[p.SpaceKey]; !ok {
			spaceKeys = append(spaceKeys, p.SpaceKey)
		}
		bySpace[p.SpaceKey] = append(bySpace[p.SpaceKey], p)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nCONFLUENCE INVENTORY\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Generated: %s\n", w.now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Total pages: %d\n", len(inventory))
	fmt.Fprintf(&b, "Spaces: %d\n\n%s\n\n", len(bySpace), rule)

	for _, key := range spaceKeys {
		pages := bySpace[key]
		fmt.Fprintf(&b, "SPACE: %s (%s)\n%s\n", pages[0].SpaceName, key, thinRule)
		fmt.Fprintf(&b, "Pages: %d\n\n", len(pages))

		for _, p := range pages {
			fmt.Fprintf(&b, "  - %s\n", p.Title)
			fmt.Fprintf(&b, "    ID: %s\n", p.ID)
			fmt.Fprintf(&b, "    Status: %s\n", p.Status)
			fmt.Fprintf(&b, "    Version: %d\n", p.Version)
			fmt.Fprintf(&b, "    URL: %s\n", p.URL)
			fmt.Fprintf(&b, "    Created: %s by %s\n", p.CreatedDate, p.CreatedBy)
			fmt.Fprintf(&b, "    Updated: %s by %s\n", p.LastUpdatedDate, p.LastUpdatedBy)
			if p.ParentTitle != "" {
				fmt.Fprintf(&b, "    Parent: %s (ID: %s)\n", p.ParentTitle, p.ParentID)
			}
			if p.GliffyCount > 0 {
				fmt.Fprintf(&b, "    Gliffy diagrams: %d (%s)\n", p.GliffyCount, strings.Join(p.GliffyTitles, ", "))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

// WriteMigrationTXT writes a readable migration report with global stats and
// per-page outcomes.
func (w *Writer) WriteMigrationTXT(r *MigrationReport) (string, error) {
	f, path, err := w.create("migration_report.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\nGLIFFY MIGRATION REPORT\n%s\n\n", rule, rule)
	fmt.Fprintf(&b, "Migration date: %s\n\n", r.Timestamp)

	fmt.Fprintf(&b, "GLOBAL STATS\n%s\n", thinRule)
	fmt.Fprintf(&b, "Pages processed: %d\n", r.Stats.PagesProcessed)
	fmt.Fprintf(&b, "Pages modified: %d\n", r.Stats.PagesModified)
	fmt.Fprintf(&b, "Pages skipped: %d\n", r.Stats.PagesSkipped)
	fmt.Fprintf(&b, "Gliffy found: %d\n", r.Stats.GliffyFound)
	fmt.Fprintf(&b, "Images inserted: %d\n", r.Stats.ImagesInserted)
	fmt.Fprintf(&b, "Errors: %d\n\n", r.Stats.Errors)

	fmt.Fprintf(&b, "%s\nPER-PAGE DETAILS\n%s\n\n", rule, rule)
	for i, p := range r.Pages {
		fmt.Fprintf(&b, "PAGE %d/%d\n%s\n", i+1, len(r.Pages), thinRule)
		fmt.Fprintf(&b, "Title: %s\n", p.PageTitle)
		fmt.Fprintf(&b, "ID: %s\n", p.PageID)
		fmt.Fprintf(&b, "Status: %s\n", strings.ToUpper(p.Status))

		switch p.Status {
		case StatusModified:
			fmt.Fprintf(&b, "  Gliffy found: %d\n", p.GliffyCount)
			fmt.Fprintf(&b, "  Images inserted: %d\n", p.ImagesInserted)
		case StatusSkipped:
			fmt.Fprintf(&b, "  Reason: %s\n", p.Reason)
		case StatusError:
			fmt.Fprintf(&b, "  Gliffy found: %d\n", p.GliffyCount)
			fmt.Fprintf(&b, "  Images inserted: %d\n", p.ImagesInserted)
			fmt.Fprintf(&b, "  Reason: %s\n", p.Reason)
			for _, e := range p.Errors {
				fmt.Fprintf(&b, "    - %s\n", e)
			}
		}
		b.WriteString("\n")
	}

	if _, err := f.WriteString(b.String()); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}
