package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/excalift/excalift/pkg/tidmap"
)

const configFileName = "config.toml"

// Config is the on-disk configuration, read from
// ~/.config/excalift/config.toml.
type Config struct {
	Confluence ConfluenceConfig `toml:"confluence"`
	Cache      CacheConfig      `toml:"cache"`
	Reports    ReportsConfig    `toml:"reports"`
	TIDMap     TIDMapConfig     `toml:"tidmap"`
}

// ConfluenceConfig holds connection settings for the Confluence REST API.
// The token can also come from the EXCALIFT_TOKEN environment variable,
// which takes precedence over the file.
type ConfluenceConfig struct {
	URL      string `toml:"url"`
	Username string `toml:"username"`
	Token    string `toml:"token"`
}

// CacheConfig selects the cache backend: "file" (default), "redis" or
// "none".
type CacheConfig struct {
	Backend       string `toml:"backend"`
	TTLMinutes    int    `toml:"ttl_minutes"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
}

// ReportsConfig controls where scan and migration reports land. When
// mongo_uri is set, reports are additionally stored in MongoDB.
type ReportsConfig struct {
	Dir      string `toml:"dir"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// TIDMapConfig points at the shape-image mapping used during conversion.
type TIDMapConfig struct {
	MappingFile string `toml:"mapping_file"`
	ImagesDir   string `toml:"images_dir"`
}

func defaultConfig() *Config {
	return &Config{
		Cache: CacheConfig{
			Backend:    "file",
			TTLMinutes: 60,
			RedisAddr:  "localhost:6379",
		},
		Reports: ReportsConfig{
			Dir:     "reports",
			MongoDB: "excalift",
		},
		TIDMap: TIDMapConfig{
			MappingFile: tidmap.DefaultMappingFile,
			ImagesDir:   tidmap.DefaultImagesDir,
		},
	}
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// loadConfig reads the config file, falling back to defaults when it does
// not exist. EXCALIFT_TOKEN overrides the stored token either way.
func loadConfig() (*Config, error) {
	cfg := defaultConfig()

	path, err := configPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	if token := os.Getenv("EXCALIFT_TOKEN"); token != "" {
		cfg.Confluence.Token = token
	}
	return cfg, nil
}

const configTemplate = `# excalift configuration

[confluence]
url = %q
username = %q
# Prefer EXCALIFT_TOKEN over storing the token here.
token = ""

[cache]
# "file", "redis" or "none"
backend = "file"
ttl_minutes = 60
redis_addr = "localhost:6379"
redis_db = 0

[reports]
dir = "reports"
# mongo_uri = "mongodb://localhost:27017"
mongo_db = "excalift"

[tidmap]
mapping_file = %q
images_dir = %q
`

func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage excalift configuration",
	}
	cmd.AddCommand(c.configInitCommand())
	cmd.AddCommand(c.configPathCommand())
	cmd.AddCommand(c.configShowCommand())
	return cmd
}

func (c *CLI) configInitCommand() *cobra.Command {
	var url, username string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			content := fmt.Sprintf(configTemplate, url, username,
				tidmap.DefaultMappingFile, tidmap.DefaultImagesDir)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return err
			}
			printSuccess("Config written")
			printFile(path)
			printNextStep("Next", "export EXCALIFT_TOKEN=<api-token>")
			return nil
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Confluence base URL")
	cmd.Flags().StringVar(&username, "username", "", "Confluence username (cloud only)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func (c *CLI) configPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configPath()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func (c *CLI) configShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			printKeyValue("URL", cfg.Confluence.URL)
			printKeyValue("Username", cfg.Confluence.Username)
			printKeyValue("Token", redact(cfg.Confluence.Token))
			printKeyValue("Cache", cfg.Cache.Backend)
			printKeyValue("Reports", cfg.Reports.Dir)
			printKeyValue("Mongo", redact(cfg.Reports.MongoURI))
			printKeyValue("TID map", cfg.TIDMap.MappingFile)
			return nil
		},
	}
}

func redact(s string) string {
	if s == "" {
		return "(not set)"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}
