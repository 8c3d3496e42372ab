package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen         = "127.0.0.1:8080"
	defaultWeekStart      = "sunday"
	defaultHorizonMonths  = 3
	defaultMaxOccurrences = 5000
	defaultTaxonomyType   = "event"
	defaultPagesDir       = "./user/pages"
	defaultICSCacheDir    = "./var/ics-cache"
	defaultRefresh        = "*/15 * * * *"
	defaultLogLevel       = "info"
)

// Environment variables that override the file.
const (
	EnvConfig      = "EVCAL_CONFIG"
	EnvListen      = "EVCAL_LISTEN"
	EnvDatabaseURL = "EVCAL_DATABASE_URL"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address of the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone "now" is read in for rolling windows.
	// Empty means the host's local zone. Event times themselves are naive.
	Timezone string `yaml:"timezone,omitempty" json:"timezone,omitempty"`

	// WeekStart fixes the weekday numbering used to place repeat-mask
	// siblings. Supported values:
	//   - "sunday" (default)
	//   - "monday"
	WeekStart string `yaml:"week_start" json:"week_start"`

	// HorizonMonths is the default until of repeating templates without one,
	// and the length of the rolling window.
	HorizonMonths int `yaml:"horizon_months" json:"horizon_months"`

	// MaxOccurrences caps the occurrences generated per template.
	MaxOccurrences int `yaml:"max_occurrences" json:"max_occurrences"`

	// TemplateTypes lists the page types treated as event templates.
	TemplateTypes []string `yaml:"template_types" json:"template_types"`

	// TaxonomyType is the "type" taxonomy value given to events.
	TaxonomyType string `yaml:"taxonomy_type" json:"taxonomy_type"`

	// PagesDir is the root of the Markdown pages tree. Empty disables it.
	PagesDir string `yaml:"pages_dir" json:"pages_dir"`

	// ICSFiles are .ics file paths or http(s) URLs to import templates from.
	ICSFiles []string `yaml:"ics_files" json:"ics_files"`

	// ICSCacheDir keeps the last good body of remote calendars.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`

	// DatabaseURL enables the Postgres template source when set.
	DatabaseURL string `yaml:"database_url" json:"-"`

	// RefreshCron is the cron schedule for reloading templates.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"-"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:         defaultListen,
		WeekStart:      defaultWeekStart,
		HorizonMonths:  defaultHorizonMonths,
		MaxOccurrences: defaultMaxOccurrences,
		TemplateTypes:  []string{"event"},
		TaxonomyType:   defaultTaxonomyType,
		PagesDir:       defaultPagesDir,
		ICSFiles:       []string{},
		ICSCacheDir:    defaultICSCacheDir,
		RefreshCron:    defaultRefresh,
		LogLevel:       defaultLogLevel,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	switch strings.ToLower(strings.TrimSpace(c.WeekStart)) {
	case "monday":
		c.WeekStart = "monday"
	default:
		// Unknown or empty; fall back to sunday.
		c.WeekStart = defaultWeekStart
	}
	if c.HorizonMonths <= 0 {
		c.HorizonMonths = defaultHorizonMonths
	}
	if c.MaxOccurrences <= 0 {
		c.MaxOccurrences = defaultMaxOccurrences
	}
	if c.TemplateTypes == nil {
		c.TemplateTypes = []string{"event"}
	}
	if c.TaxonomyType == "" {
		c.TaxonomyType = defaultTaxonomyType
	}
	if c.ICSFiles == nil {
		c.ICSFiles = []string{}
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = defaultICSCacheDir
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" && c.BasicAuth.Password == "" {
		c.BasicAuth = nil
	}
}

// Weekday returns WeekStart as a time.Weekday.
func (c *Config) Weekday() time.Weekday {
	if c.WeekStart == "monday" {
		return time.Monday
	}
	return time.Sunday
}

// Location resolves Timezone, defaulting to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ApplyEnv overrides fields from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := getenv(EnvDatabaseURL); v != "" {
		c.DatabaseURL = v
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     permissions and returned.
//   - Otherwise the YAML is read and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".evcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}
