// Package migrate inserts rendered diagram images next to gliffy macros in
// Confluence pages. Gliffy's server-side renderer disappears with the plugin,
// so each macro gets its exported PNG/SVG spliced in as an inline data URL,
// preserving the diagram visually even after the plugin is gone.
//
// Runs are idempotent: a macro whose image was already inserted (detected via
// the attachment ID in the image alt text, the treatment marker, or an inline
// image directly after the macro) is skipped unless Force is set, in which
// case the previous insert is replaced.
package migrate

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/excalift/excalift/pkg/cache"
	"github.com/excalift/excalift/pkg/confluence"
	"github.com/excalift/excalift/pkg/observability"
	"github.com/excalift/excalift/pkg/report"
)

const pageExpand = "body.storage,version,space,title"

// Migrator runs a migration over a Confluence scope. Spaces narrows the run
// to those space keys, PageID to a single page; with neither set every
// visible space is migrated.
type Migrator struct {
	Client *confluence.Client
	Logger *log.Logger
	Cache  cache.Cache
	Keyer  cache.Keyer

	Spaces []string
	PageID string

	// Force replaces previously inserted images instead of skipping them.
	Force bool
	// DryRun downloads and prepares everything but never writes to Confluence.
	DryRun bool

	// OnPage, when set, is called with every page outcome as it happens.
	// Used by interactive frontends for live progress.
	OnPage func(report.PageResult)

	now func() time.Time
}

// New creates a migrator. Logger, Cache and Keyer fall back to the default
// logger, a null cache and the default keyer.
func New(client *confluence.Client, logger *log.Logger) *Migrator {
	if logger == nil {
		logger = log.Default()
	}
	return &Migrator{
		Client: client,
		Logger: logger,
		Cache:  cache.NewNullCache(),
		Keyer:  cache.NewDefaultKeyer(),
		now:    time.Now,
	}
}

// Run executes the migration and returns the per-page report.
func (m *Migrator) Run(ctx context.Context) (*report.MigrationReport, error) {
	if m.now == nil {
		m.now = time.Now
	}
	rep := &report.MigrationReport{
		Timestamp: m.now().UTC().Format(time.RFC3339),
		Site:      m.Client.BaseURL(),
	}

	if m.PageID != "" {
		m.Logger.Info("migrating single page", "page_id", m.PageID)
		page, err := m.Client.PageExpanded(ctx, m.PageID, pageExpand)
		if err != nil {
			return nil, err
		}
		result := m.page(ctx, page)
		rep.Add(result)
		m.notify(result)
		return rep, nil
	}

	spaces, err := m.Client.Spaces(ctx, m.Spaces)
	if err != nil {
		return nil, err
	}
	m.Logger.Info("spaces to migrate", "count", len(spaces))

	for _, space := range spaces {
		m.Logger.Info("migrating space", "key", space.Key)

		pages, err := m.Client.Pages(ctx, space.Key, true)
		if err != nil {
			return nil, err
		}
		for i := range pages {
			result := m.page(ctx, &pages[i])
			result.SpaceKey = space.Key
			rep.Add(result)
			m.notify(result)
		}
	}

	m.Logger.Info("migration complete",
		"pages", rep.Stats.PagesProcessed,
		"modified", rep.Stats.PagesModified,
		"errors", rep.Stats.Errors)
	return rep, nil
}

func (m *Migrator) notify(result report.PageResult) {
	if m.OnPage != nil {
		m.OnPage(result)
	}
}

func (m *Migrator) page(ctx context.Context, page *confluence.Page) report.PageResult {
	observability.Migration().OnPageStart(ctx, page.ID, page.Title)
	start := m.now()
	result := m.processPage(ctx, page)
	observability.Migration().OnPageComplete(ctx, page.ID, result.Status, result.ImagesInserted, m.now().Sub(start))
	return result
}

// processPage migrates every gliffy macro of one page.
func (m *Migrator) processPage(ctx context.Context, page *confluence.Page) report.PageResult {
	result := report.PageResult{PageID: page.ID, PageTitle: page.Title}

	body := page.StorageBody()
	if body == "" {
		result.Status = report.StatusSkipped
		result.Reason = "no content"
		return result
	}

	refs := ExtractMacros(body)
	result.GliffyCount = len(refs)
	if len(refs) == 0 {
		result.Status = report.StatusSkipped
		result.Reason = "no gliffy macros"
		return result
	}

	draft := page.Draft()
	alreadyProcessed := 0

	for i, ref := range refs {
		if ref.AttachmentID == "" {
			continue
		}

		// Each insert rewrites the page, so work from fresh state.
		current, err := m.Client.PageExpanded(ctx, page.ID, pageExpand)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("gliffy %d: refreshing page: %v", i+1, err))
			continue
		}

		if !m.Force {
			if done, evidence := AlreadyProcessed(current.StorageBody(), ref); done {
				m.Logger.Debug("macro already treated", "page_id", page.ID, "attachment", ref.AttachmentID, "evidence", evidence)
				alreadyProcessed++
				continue
			}
		}

		data, mime, err := m.downloadImage(ctx, page.ID, ref.AttachmentID, current.Version, draft)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("gliffy %d: downloading %s: %v", i+1, ref.AttachmentID, err))
			continue
		}

		inserted, err := m.insertImage(ctx, current, ref, data, mime)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("gliffy %d: inserting image: %v", i+1, err))
		case inserted:
			result.ImagesInserted++
		default:
			alreadyProcessed++
		}
	}

	switch {
	case result.ImagesInserted > 0:
		result.Status = report.StatusModified
	case len(result.Errors) > 0:
		result.Status = report.StatusError
		result.Reason = "insert errors"
	case alreadyProcessed == len(refs):
		result.Status = report.StatusSkipped
		result.Reason = "already treated"
	default:
		result.Status = report.StatusSkipped
		result.Reason = "no images inserted"
	}
	return result
}

// downloadImage fetches attachment bytes through the cache. The cache key
// includes the page version so edits invalidate stale entries.
func (m *Migrator) downloadImage(ctx context.Context, pageID, attachmentID string, version *confluence.Version, draft bool) ([]byte, string, error) {
	versionNum := 0
	if version != nil {
		versionNum = version.Number
	}
	key := m.Keyer.AttachmentKey(pageID, attachmentID, versionNum)

	if data, hit, _ := m.Cache.Get(ctx, key); hit {
		return data, confluence.SniffMIME(data), nil
	}

	data, mime, err := m.Client.DownloadAttachment(ctx, pageID, attachmentID, draft)
	if err != nil {
		return nil, "", err
	}
	_ = m.Cache.Set(ctx, key, data, 24*time.Hour)
	return data, mime, nil
}

// insertImage splices the image after the macro and writes the page back.
// Returns false with a nil error when a concurrent run treated the macro
// between our check and the write.
func (m *Migrator) insertImage(ctx context.Context, page *confluence.Page, ref MacroRef, data []byte, mime string) (bool, error) {
	body := page.StorageBody()

	if !m.Force {
		if done, _ := AlreadyProcessed(body, ref); done {
			return false, nil
		}
	} else {
		body = RemoveInsertedImage(body, ref)
	}

	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	newBody := InsertAfterMacro(body, ref, InsertedImageHTML(ref, dataURL, m.now()))

	if m.DryRun {
		m.Logger.Info("dry run: would update page", "page_id", page.ID, "attachment", ref.AttachmentID)
		return true, nil
	}
	if err := m.Client.UpdatePage(ctx, page, newBody); err != nil {
		return false, err
	}
	return true, nil
}
