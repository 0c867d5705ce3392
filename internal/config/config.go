// ABOUTME: Configuration loading and parsing for chatbcg
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v9"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Defaults applied before a config file is read.
const (
	DefaultBackendURL    = "http://localhost:8000"
	DefaultMaxUploadSize = 10 // megabytes
)

// DefaultAllowedExtensions lists the document types the upload control accepts.
var DefaultAllowedExtensions = []string{".pdf", ".doc", ".docx", ".txt"}

// Config represents the complete chatbcg configuration
type Config struct {
	Backend BackendConfig `yaml:"backend" toml:"backend"`
	Upload  UploadConfig  `yaml:"upload" toml:"upload"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	UI      UIConfig      `yaml:"ui" toml:"ui"`
}

// BackendConfig holds the assistant service location
type BackendConfig struct {
	URL string `yaml:"url" toml:"url"`

	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout    time.Duration `yaml:"-" toml:"-"`
	TimeoutRaw string        `yaml:"timeout" toml:"timeout"`
}

// UploadConfig holds the file-selection rules
type UploadConfig struct {
	MaxSizeMB         int      `yaml:"max_size_mb" toml:"max_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions" toml:"allowed_extensions"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
	File   string `yaml:"file" toml:"file"`
}

// UIConfig holds presentation settings
type UIConfig struct {
	AltScreen   bool `yaml:"alt_screen" toml:"alt_screen"`
	ShowSources bool `yaml:"show_sources" toml:"show_sources"`
}

// MaxUploadBytes returns the upload size limit in bytes.
func (u UploadConfig) MaxUploadBytes() int64 {
	return int64(u.MaxSizeMB) * 1024 * 1024
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{URL: DefaultBackendURL},
		Upload: UploadConfig{
			MaxSizeMB:         DefaultMaxUploadSize,
			AllowedExtensions: append([]string(nil), DefaultAllowedExtensions...),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		UI:      UIConfig{AltScreen: true},
	}
}

// Path returns the path to the config file.
// Priority: CHATBCG_CONFIG env var > XDG_CONFIG_HOME/chatbcg/config.yaml > ~/.config/chatbcg/config.yaml
func Path() string {
	if envPath := os.Getenv("CHATBCG_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "chatbcg", "config.yaml")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file is not an error: defaults are returned instead.
// Environment variables in the format ${VAR_NAME} are expanded, and the
// variables listed on envOverrides win over file values when set.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// defaults only
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := decode(path, expandEnvVars(string(data)), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// decode picks the format from the file extension. Anything but .toml is YAML.
func decode(path, content string, cfg *Config) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		_, err := toml.Decode(content, cfg)
		return err
	}
	return yaml.Unmarshal([]byte(content), cfg)
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// envOverrides are the environment variables that override file values.
// Empty or zero means unset.
type envOverrides struct {
	BackendURL     string        `env:"BACKEND_URL"`
	BackendTimeout time.Duration `env:"CHATBCG_TIMEOUT"`
	MaxUploadMB    int           `env:"CHATBCG_MAX_UPLOAD_MB"`
	LogLevel       string        `env:"CHATBCG_LOG_LEVEL"`
	LogFile        string        `env:"CHATBCG_LOG_FILE"`
}

func applyEnv(cfg *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return err
	}

	if o.BackendURL != "" {
		cfg.Backend.URL = o.BackendURL
	}
	if o.BackendTimeout != 0 {
		cfg.Backend.Timeout = o.BackendTimeout
	}
	if o.MaxUploadMB != 0 {
		cfg.Upload.MaxSizeMB = o.MaxUploadMB
	}
	if o.LogLevel != "" {
		cfg.Logging.Level = o.LogLevel
	}
	if o.LogFile != "" {
		cfg.Logging.File = o.LogFile
	}
	return nil
}

// Validate checks that all required configuration fields are present and valid.
// Every failure is reported, not just the first.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Backend.URL == "" {
		result = multierror.Append(result, fmt.Errorf("backend.url is required"))
	} else if u, err := url.Parse(c.Backend.URL); err != nil {
		result = multierror.Append(result, fmt.Errorf("backend.url is invalid: %w", err))
	} else {
		if u.Scheme != "http" && u.Scheme != "https" {
			result = multierror.Append(result, fmt.Errorf("backend.url must use http or https, got %q", u.Scheme))
		}
		if u.Host == "" {
			result = multierror.Append(result, fmt.Errorf("backend.url must include a host"))
		}
	}

	if c.Backend.Timeout < 0 {
		result = multierror.Append(result, fmt.Errorf("backend.timeout must not be negative"))
	}

	if c.Upload.MaxSizeMB < 0 {
		result = multierror.Append(result, fmt.Errorf("upload.max_size_mb must not be negative"))
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			result = multierror.Append(result, fmt.Errorf("upload.allowed_extensions entry %q must start with a dot", ext))
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return result.ErrorOrNil()
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	if cfg.Backend.TimeoutRaw != "" {
		d, err := time.ParseDuration(cfg.Backend.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing backend.timeout %q: %w", cfg.Backend.TimeoutRaw, err)
		}
		cfg.Backend.Timeout = d
	}
	return nil
}
