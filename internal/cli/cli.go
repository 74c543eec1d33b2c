// Package cli implements the excalift command-line interface.
//
// Commands cover the whole migration workflow: convert local .gliffy files,
// scan a Confluence instance for gliffy usage, migrate pages by inserting
// exported images, preview converted documents as connectivity graphs, and
// serve the self-service web converter.
//
// All commands support --verbose (-v) for debug-level logging via
// charmbracelet/log.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/excalift/excalift/pkg/buildinfo"
	"github.com/excalift/excalift/pkg/cache"
	"github.com/excalift/excalift/pkg/confluence"
)

const appName = "excalift"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "excalift",
		Short:        "excalift converts Gliffy diagrams to Excalidraw",
		Long:         `excalift converts Gliffy diagrams to Excalidraw documents and migrates Confluence pages away from the retired Gliffy plugin.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.convertCommand())
	root.AddCommand(c.scanCommand())
	root.AddCommand(c.migrateCommand())
	root.AddCommand(c.previewCommand())
	root.AddCommand(c.webCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Confluence Client Factory
// =============================================================================

// newConfluenceClient builds a client from the loaded config, wiring the
// configured cache backend scoped to the site.
func (c *CLI) newConfluenceClient(ctx context.Context, cfg *Config, noCache bool) (*confluence.Client, cache.Cache, error) {
	if cfg.Confluence.URL == "" {
		return nil, nil, fmt.Errorf("no Confluence URL configured (run %q first)", "excalift config init")
	}
	if cfg.Confluence.Token == "" {
		return nil, nil, fmt.Errorf("no API token configured (set EXCALIFT_TOKEN or the confluence.token config key)")
	}

	backend, err := c.newCache(ctx, cfg, noCache)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		backend = cache.NewNullCache()
	}
	keyer := cache.NewScopedKeyer(cache.NewDefaultKeyer(), cache.Hash([]byte(cfg.Confluence.URL))[:12])

	client, err := confluence.NewClient(
		cfg.Confluence.URL,
		cfg.Confluence.Username,
		cfg.Confluence.Token,
		confluence.WithCache(backend, keyer, time.Duration(cfg.Cache.TTLMinutes)*time.Minute),
	)
	if err != nil {
		return nil, nil, err
	}
	return client, backend, nil
}

func (c *CLI) newCache(ctx context.Context, cfg *Config, noCache bool) (cache.Cache, error) {
	if noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/excalift/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory using XDG standard
// (~/.config/excalift/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
