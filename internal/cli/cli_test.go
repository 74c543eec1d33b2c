package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
)

func TestRootCommandRegistersSubcommands(t *testing.T) {
	c := New(os.Stderr, log.InfoLevel)
	root := c.RootCommand()

	want := []string{"convert", "scan", "migrate", "preview", "web", "cache", "config", "completion"}
	have := map[string]bool{}
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
}

func TestSetLogLevel(t *testing.T) {
	c := New(os.Stderr, log.InfoLevel)
	c.SetLogLevel(log.DebugLevel)
	if got := c.Logger.GetLevel(); got != log.DebugLevel {
		t.Errorf("level = %v, want debug", got)
	}
}

func TestCacheDirRespectsXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg-cache")
	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir: %v", err)
	}
	if dir != filepath.Join("/tmp/xdg-cache", "excalift") {
		t.Errorf("dir = %q", dir)
	}
}

func TestConvertedName(t *testing.T) {
	tests := []struct {
		path, dir, want string
	}{
		{"diagrams/flow.gliffy", "", "diagrams/flow.excalidraw"},
		{"flow.json", "", "flow.excalidraw"},
		{"diagrams/flow.gliffy", "out", "out/flow.excalidraw"},
	}
	for _, tt := range tests {
		if got := convertedName(tt.path, tt.dir); got != filepath.FromSlash(tt.want) {
			t.Errorf("convertedName(%q, %q) = %q, want %q", tt.path, tt.dir, got, tt.want)
		}
	}
}

func TestExpandArgsGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.gliffy", "b.gliffy", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := expandArgs([]string{filepath.Join(dir, "*.gliffy")})
	if err != nil {
		t.Fatalf("expandArgs: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("matched %d files, want 2", len(files))
	}

	if _, err := expandArgs([]string{filepath.Join(dir, "*.svg")}); err == nil {
		t.Error("expected error for pattern with no matches")
	}
	if _, err := expandArgs([]string{filepath.Join(dir, "missing.gliffy")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConvertCommandWritesOutput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "box.gliffy")
	diagram := `{
		"contentType": "application/gliffy+json",
		"version": "1.3",
		"stage": {
			"objects": [
				{"id": 1, "x": 0, "y": 0, "width": 80, "height": 40,
				 "uid": "com.gliffy.shape.basic.basic_v1.default.rectangle",
				 "graphic": {"type": "Shape", "Shape": {}}}
			]
		}
	}`
	if err := os.WriteFile(input, []byte(diagram), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	c := New(&buf, log.ErrorLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"convert", input, "--output", filepath.Join(dir, "out")})
	root.SetOut(&buf)
	root.SetErr(&buf)

	if err := root.Execute(); err != nil {
		t.Fatalf("convert: %v", err)
	}

	out := filepath.Join(dir, "out", "box.excalidraw")
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !bytes.Contains(data, []byte(`"type": "excalidraw"`)) {
		t.Error("output is not an excalidraw document")
	}
}

func TestConvertCommandFailsOnBadInput(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "broken.gliffy")
	if err := os.WriteFile(input, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	c := New(&buf, log.ErrorLevel)
	root := c.RootCommand()
	root.SetArgs([]string{"convert", input})
	root.SetOut(&buf)
	root.SetErr(&buf)

	if err := root.Execute(); err == nil {
		t.Error("expected error for unparseable input")
	}
}
