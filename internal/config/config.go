package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FeedConfig describes one external ICS feed that can be imported into the
// calendar.
type FeedConfig struct {
	// URL is the ICS endpoint.
	URL string `yaml:"url" json:"url"`
	// Name is a human-friendly label used in logs.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the companion API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// APIBaseURL is the schedule backend, e.g. "https://ttapi.tool4me.cn".
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`

	// Listen is the HTTP listen address for the companion API.
	Listen string `yaml:"listen" json:"listen"`

	// EditorMode enables mutating operations (create/update/delete). The
	// read-only deployment runs with this off.
	EditorMode bool `yaml:"editor_mode" json:"editor_mode"`

	// DefaultCity is submitted when a draft leaves the city blank.
	DefaultCity string `yaml:"default_city" json:"default_city"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for
	// re-fetching the current month.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HTTPTimeoutSeconds bounds every backend request.
	HTTPTimeoutSeconds int `yaml:"http_timeout_seconds" json:"http_timeout_seconds"`

	// Feeds lists external ICS sources available for import.
	Feeds []FeedConfig `yaml:"feeds" json:"feeds"`

	// BasicAuth, if non-nil, protects all companion endpoints except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:         "https://ttapi.tool4me.cn",
		Listen:             "127.0.0.1:5050",
		EditorMode:         true,
		DefaultCity:        "上海",
		RefreshCron:        "*/15 * * * *",
		HTTPTimeoutSeconds: 15,
		Feeds:              []FeedConfig{},
		BasicAuth:          nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = "https://ttapi.tool4me.cn"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:5050"
	}
	if c.DefaultCity == "" {
		c.DefaultCity = "上海"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = 15
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
	// EditorMode: a plain false is a valid setting (read-only deployment),
	// so no default is forced here; DefaultConfig starts it at true.
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist: create the parent directory, write a
//     default config with 0600 perms, and return the defaults.
//   - If the file exists: unmarshal and normalize.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Return cfg with the error so the caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration to path: parent directory ensured (0700),
// atomic temp-file + rename write, final permissions 0600.
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

	tmp, err := os.CreateTemp(dir, ".aidorucal-config-*.tmp")
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

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
