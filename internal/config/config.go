// Package config loads and saves tasklist settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fentz26/tasklist/internal/models"
)

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendMySQL  = "mysql"
	BackendJSON   = "json"
)

// EnvPrefix is prepended to environment overrides, e.g. TASKLIST_BACKEND.
const EnvPrefix = "TASKLIST"

// Config holds tasklist configuration.
type Config struct {
	// Backend selects the persistence adapter: sqlite, mysql or json.
	Backend string `yaml:"backend" mapstructure:"backend"`
	// DBPath is the SQLite database file.
	DBPath string `yaml:"db_path" mapstructure:"db_path"`
	// DSN is the MySQL data source name.
	DSN string `yaml:"dsn,omitempty" mapstructure:"dsn"`
	// JSONPath is the task file used by the json backend.
	JSONPath string `yaml:"json_path" mapstructure:"json_path"`
	// Categories is the ordered set of valid task categories.
	Categories []string `yaml:"categories" mapstructure:"categories"`
	// DefaultCategory is used when add is given no category.
	DefaultCategory string `yaml:"default_category" mapstructure:"default_category"`
	// DefaultPriority is used when add is given no priority.
	DefaultPriority string `yaml:"default_priority" mapstructure:"default_priority"`
	// LogFile receives log output while the TUI owns the terminal.
	LogFile string `yaml:"log_file" mapstructure:"log_file"`
}

// Dir returns ~/.tasklist, or .tasklist when there is no home directory.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasklist"
	}
	return filepath.Join(home, ".tasklist")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() *Config {
	dir := Dir()
	cats := make([]string, len(models.DefaultCategories))
	for i, c := range models.DefaultCategories {
		cats[i] = string(c)
	}
	return &Config{
		Backend:         BackendSQLite,
		DBPath:          filepath.Join(dir, "tasks.db"),
		JSONPath:        filepath.Join(dir, "tasks.json"),
		Categories:      cats,
		DefaultCategory: "personal",
		DefaultPriority: string(models.PriorityMedium),
		LogFile:         filepath.Join(dir, "tasklist.log"),
	}
}

// Load reads configuration from path, falling back to defaults when the file
// does not exist. TASKLIST_* environment variables override file values.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("backend", d.Backend)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("dsn", d.DSN)
	v.SetDefault("json_path", d.JSONPath)
	v.SetDefault("categories", d.Categories)
	v.SetDefault("default_category", d.DefaultCategory)
	v.SetDefault("default_priority", d.DefaultPriority)
	v.SetDefault("log_file", d.LogFile)
}

// Save writes cfg to path as YAML, creating parent directories if needed.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) normalize() {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	for i, cat := range c.Categories {
		c.Categories[i] = strings.ToLower(strings.TrimSpace(cat))
	}
	c.DefaultCategory = strings.ToLower(strings.TrimSpace(c.DefaultCategory))
	c.DefaultPriority = strings.ToLower(strings.TrimSpace(c.DefaultPriority))
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("db_path is required for the sqlite backend")
		}
	case BackendMySQL:
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for the mysql backend")
		}
	case BackendJSON:
		if c.JSONPath == "" {
			return fmt.Errorf("json_path is required for the json backend")
		}
	default:
		return fmt.Errorf("invalid backend %q, must be: sqlite, mysql, or json", c.Backend)
	}

	if len(c.Categories) == 0 {
		return fmt.Errorf("at least one category is required")
	}
	seen := make(map[string]bool, len(c.Categories))
	for _, cat := range c.Categories {
		if cat == "" || cat == models.CategoryAll {
			return fmt.Errorf("invalid category name %q", cat)
		}
		if seen[cat] {
			return fmt.Errorf("duplicate category %q", cat)
		}
		seen[cat] = true
	}
	if !seen[c.DefaultCategory] {
		return fmt.Errorf("default_category %q is not one of the categories", c.DefaultCategory)
	}
	if _, err := models.ParsePriority(c.DefaultPriority); err != nil {
		return fmt.Errorf("default_priority: %w", err)
	}
	return nil
}

// CategorySet returns the configured categories as domain values.
func (c *Config) CategorySet() models.CategorySet {
	out := make(models.CategorySet, len(c.Categories))
	for i, cat := range c.Categories {
		out[i] = models.Category(cat)
	}
	return out
}
