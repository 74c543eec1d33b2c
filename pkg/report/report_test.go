package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func fixedWriter(t *testing.T) *Writer {
	t.Helper()
	w := NewWriter(t.TempDir())
	w.Now = func() time.Time {
		return time.Date(2026, 8, 23, 15, 30, 45, 0, time.UTC)
	}
	return w
}

func TestTimestampedName(t *testing.T) {
	w := fixedWriter(t)

	tests := []struct {
		in   string
		want string
	}{
		{"inventory.txt", "inventory_2026-08-23_15-30-45.txt"},
		{"migration_report.json", "migration_report_2026-08-23_15-30-45.json"},
		{"noext", "noext_2026-08-23_15-30-45"},
	}
	for _, tt := range tests {
		if got := w.TimestampedName(tt.in); got != tt.want {
			t.Errorf("TimestampedName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteJSONCreatesDir(t *testing.T) {
	w := fixedWriter(t)
	w.Dir = filepath.Join(w.Dir, "nested", "reports")

	path, err := w.WriteJSON("inventory.json", []InventoryPage{{ID: "1", Title: "Home"}})
	if err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(data), `"space_key"`) {
		t.Error("JSON report missing snake_case fields")
	}
}

func TestWriteInventoryTXTGroupsBySpace(t *testing.T) {
	w := fixedWriter(t)
	inv := []InventoryPage{
		{ID: "1", Title: "Home", SpaceKey: "DEV", SpaceName: "Development", Version: 3, GliffyCount: 2, GliffyTitles: []string{"arch", "flow"}},
		{ID: "2", Title: "Runbook", SpaceKey: "OPS", SpaceName: "Operations", ParentTitle: "Home", ParentID: "1"},
		{ID: "3", Title: "Setup", SpaceKey: "DEV", SpaceName: "Development"},
	}

	path, err := w.WriteInventoryTXT(inv)
	if err != nil {
		t.Fatalf("WriteInventoryTXT: %v", err)
	}
	data, _ := os.ReadFile(path)
	text := string(data)

	for _, want := range []string{
		"Total pages: 3",
		"Spaces: 2",
		"SPACE: Development (DEV)",
		"SPACE: Operations (OPS)",
		"Gliffy diagrams: 2 (arch, flow)",
		"Parent: Home (ID: 1)",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestMigrationReportAdd(t *testing.T) {
	var r MigrationReport
	r.Add(PageResult{PageID: "1", Status: StatusModified, GliffyCount: 2, ImagesInserted: 2})
	r.Add(PageResult{PageID: "2", Status: StatusSkipped, Reason: "no gliffy macros"})
	r.Add(PageResult{PageID: "3", Status: StatusError, GliffyCount: 1, Errors: []string{"download failed"}})

	want := MigrationStats{
		PagesProcessed: 3,
		PagesModified:  1,
		PagesSkipped:   1,
		GliffyFound:    3,
		ImagesInserted: 2,
		Errors:         1,
	}
	if r.Stats != want {
		t.Errorf("Stats = %+v, want %+v", r.Stats, want)
	}
}

func TestWriteMigrationTXT(t *testing.T) {
	w := fixedWriter(t)
	r := &MigrationReport{Timestamp: "2026-08-23T15:30:45Z"}
	r.Add(PageResult{PageID: "1", PageTitle: "Home", Status: StatusModified, GliffyCount: 1, ImagesInserted: 1})
	r.Add(PageResult{PageID: "2", PageTitle: "Old", Status: StatusSkipped, Reason: "already treated"})
	r.Add(PageResult{PageID: "3", PageTitle: "Broken", Status: StatusError, Reason: "update failed", Errors: []string{"409 conflict"}})

	path, err := w.WriteMigrationTXT(r)
	if err != nil {
		t.Fatalf("WriteMigrationTXT: %v", err)
	}
	data, _ := os.ReadFile(path)
	text := string(data)

	for _, want := range []string{
		"Pages processed: 3",
		"Pages modified: 1",
		"PAGE 2/3",
		"Status: SKIPPED",
		"Reason: already treated",
		"- 409 conflict",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q", want)
		}
	}
}
