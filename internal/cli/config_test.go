package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	appDir := filepath.Join(dir, appName)
	if err := os.MkdirAll(appDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(appDir, configFileName), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("EXCALIFT_TOKEN", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Cache.Backend != "file" {
		t.Errorf("cache backend = %q, want file", cfg.Cache.Backend)
	}
	if cfg.Reports.Dir != "reports" {
		t.Errorf("reports dir = %q, want reports", cfg.Reports.Dir)
	}
	if cfg.Confluence.Token != "" {
		t.Errorf("token = %q, want empty", cfg.Confluence.Token)
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	writeConfig(t, `
[confluence]
url = "https://example.atlassian.net"
username = "docs@example.com"
token = "file-token"

[cache]
backend = "redis"
redis_addr = "redis.internal:6379"

[reports]
mongo_uri = "mongodb://localhost:27017"
`)
	t.Setenv("EXCALIFT_TOKEN", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Confluence.URL != "https://example.atlassian.net" {
		t.Errorf("url = %q", cfg.Confluence.URL)
	}
	if cfg.Confluence.Token != "file-token" {
		t.Errorf("token = %q, want file-token", cfg.Confluence.Token)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.RedisAddr != "redis.internal:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.Reports.MongoURI != "mongodb://localhost:27017" {
		t.Errorf("mongo uri = %q", cfg.Reports.MongoURI)
	}
	// Unset sections keep their defaults.
	if cfg.TIDMap.MappingFile == "" {
		t.Error("tidmap mapping file lost its default")
	}
}

func TestLoadConfigEnvTokenWins(t *testing.T) {
	writeConfig(t, `
[confluence]
token = "file-token"
`)
	t.Setenv("EXCALIFT_TOKEN", "env-token")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Confluence.Token != "env-token" {
		t.Errorf("token = %q, want env-token", cfg.Confluence.Token)
	}
}

func TestLoadConfigRejectsBadTOML(t *testing.T) {
	writeConfig(t, `[confluence`)
	if _, err := loadConfig(); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigInitRefusesOverwrite(t *testing.T) {
	writeConfig(t, "# existing")

	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"config", "init", "--url", "https://wiki.example.com"})
	if err := root.Execute(); err == nil {
		t.Error("expected refusal without --force")
	}

	root = c.RootCommand()
	root.SetArgs([]string{"config", "init", "--url", "https://wiki.example.com", "--force"})
	if err := root.Execute(); err != nil {
		t.Fatalf("config init --force: %v", err)
	}

	path, _ := configPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `url = "https://wiki.example.com"`) {
		t.Errorf("config missing url, got:\n%s", data)
	}
}

func TestRedact(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "(not set)"},
		{"short", "****"},
		{"averylongsecrettoken", "aver****"},
	}
	for _, tt := range tests {
		if got := redact(tt.in); got != tt.want {
			t.Errorf("redact(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
