// ABOUTME: Tests for configuration loading and parsing
// ABOUTME: Covers YAML and TOML loading, env var expansion, defaults, and duration parsing

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	configPath := writeConfig(t, "config.yaml", `
backend:
  url: "https://assistant.example.com"
  timeout: "45s"

upload:
  max_size_mb: 25
  allowed_extensions:
    - ".pdf"
    - ".md"

logging:
  level: "debug"
  format: "json"
  file: "/tmp/chatbcg.log"

ui:
  alt_screen: false
  show_sources: true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "https://assistant.example.com" {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, "https://assistant.example.com")
	}
	if cfg.Backend.Timeout != 45*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 45*time.Second)
	}
	if cfg.Upload.MaxSizeMB != 25 {
		t.Errorf("Upload.MaxSizeMB = %d, want 25", cfg.Upload.MaxSizeMB)
	}
	if cfg.Upload.MaxUploadBytes() != 25*1024*1024 {
		t.Errorf("Upload.MaxUploadBytes() = %d, want %d", cfg.Upload.MaxUploadBytes(), 25*1024*1024)
	}
	if len(cfg.Upload.AllowedExtensions) != 2 {
		t.Errorf("Upload.AllowedExtensions len = %d, want 2", len(cfg.Upload.AllowedExtensions))
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "json")
	}
	if cfg.Logging.File != "/tmp/chatbcg.log" {
		t.Errorf("Logging.File = %q, want %q", cfg.Logging.File, "/tmp/chatbcg.log")
	}
	if cfg.UI.AltScreen {
		t.Error("UI.AltScreen = true, want false")
	}
	if !cfg.UI.ShowSources {
		t.Error("UI.ShowSources = false, want true")
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != DefaultBackendURL {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, DefaultBackendURL)
	}
	if cfg.Backend.Timeout != 0 {
		t.Errorf("Backend.Timeout = %v, want 0", cfg.Backend.Timeout)
	}
	if cfg.Upload.MaxSizeMB != DefaultMaxUploadSize {
		t.Errorf("Upload.MaxSizeMB = %d, want %d", cfg.Upload.MaxSizeMB, DefaultMaxUploadSize)
	}
	if strings.Join(cfg.Upload.AllowedExtensions, ",") != ".pdf,.doc,.docx,.txt" {
		t.Errorf("Upload.AllowedExtensions = %v", cfg.Upload.AllowedExtensions)
	}
	if !cfg.UI.AltScreen {
		t.Error("UI.AltScreen = false, want true")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	configPath := writeConfig(t, "config.yaml", `
logging:
  level: "warn"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
	}
	if cfg.Backend.URL != DefaultBackendURL {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, DefaultBackendURL)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "text")
	}
}

func TestLoad_EnvVarExpansion(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("TEST_CHATBCG_BACKEND", "http://rag.internal:9000")

	configPath := writeConfig(t, "config.yaml", `
backend:
  url: "${TEST_CHATBCG_BACKEND}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://rag.internal:9000" {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, "http://rag.internal:9000")
	}
}

func TestLoad_EnvVarExpansion_UnsetVar(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	os.Unsetenv("UNSET_VAR_FOR_TEST")

	configPath := writeConfig(t, "config.yaml", `
logging:
  file: "${UNSET_VAR_FOR_TEST}"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Logging.File != "" {
		t.Errorf("Logging.File = %q, want empty string for unset env var", cfg.Logging.File)
	}
}

func TestLoad_BackendURLEnvOverride(t *testing.T) {
	t.Setenv("BACKEND_URL", "http://override:8000")

	configPath := writeConfig(t, "config.yaml", `
backend:
  url: "http://from-file:8000"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://override:8000" {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, "http://override:8000")
	}
}

func TestLoad_TOML(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	configPath := writeConfig(t, "config.toml", `
[backend]
url = "http://toml-host:8000"
timeout = "1m30s"

[upload]
max_size_mb = 5
allowed_extensions = [".txt"]

[ui]
show_sources = true
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.URL != "http://toml-host:8000" {
		t.Errorf("Backend.URL = %q, want %q", cfg.Backend.URL, "http://toml-host:8000")
	}
	if cfg.Backend.Timeout != 90*time.Second {
		t.Errorf("Backend.Timeout = %v, want %v", cfg.Backend.Timeout, 90*time.Second)
	}
	if cfg.Upload.MaxSizeMB != 5 {
		t.Errorf("Upload.MaxSizeMB = %d, want 5", cfg.Upload.MaxSizeMB)
	}
	if len(cfg.Upload.AllowedExtensions) != 1 || cfg.Upload.AllowedExtensions[0] != ".txt" {
		t.Errorf("Upload.AllowedExtensions = %v, want [.txt]", cfg.Upload.AllowedExtensions)
	}
	if !cfg.UI.ShowSources {
		t.Error("UI.ShowSources = false, want true")
	}
	// not set in the file, so the default survives
	if !cfg.UI.AltScreen {
		t.Error("UI.AltScreen = false, want true")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "config.yaml", `
backend:
  url "missing colon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("BACKEND_URL", "")

	configPath := writeConfig(t, "config.yaml", `
backend:
  timeout: "soon"
`)

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "backend.timeout") {
		t.Errorf("error = %q, want it to name backend.timeout", err.Error())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty url", func(c *Config) { c.Backend.URL = "" }, "backend.url is required"},
		{"bad scheme", func(c *Config) { c.Backend.URL = "ftp://host" }, "http or https"},
		{"no host", func(c *Config) { c.Backend.URL = "http://" }, "must include a host"},
		{"negative size", func(c *Config) { c.Upload.MaxSizeMB = -1 }, "max_size_mb"},
		{"extension without dot", func(c *Config) { c.Upload.AllowedExtensions = []string{"pdf"} }, "must start with a dot"},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestPath(t *testing.T) {
	t.Run("env override", func(t *testing.T) {
		t.Setenv("CHATBCG_CONFIG", "/etc/chatbcg.toml")
		if got := Path(); got != "/etc/chatbcg.toml" {
			t.Errorf("Path() = %q, want %q", got, "/etc/chatbcg.toml")
		}
	})

	t.Run("xdg config home", func(t *testing.T) {
		t.Setenv("CHATBCG_CONFIG", "")
		t.Setenv("XDG_CONFIG_HOME", "/xdg")
		want := filepath.Join("/xdg", "chatbcg", "config.yaml")
		if got := Path(); got != want {
			t.Errorf("Path() = %q, want %q", got, want)
		}
	})
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("CHATBCG_TIMEOUT", "45s")
	t.Setenv("CHATBCG_MAX_UPLOAD_MB", "25")
	t.Setenv("CHATBCG_LOG_LEVEL", "debug")
	t.Setenv("CHATBCG_LOG_FILE", "/tmp/chatbcg-test.log")

	configPath := writeConfig(t, "config.yaml", `
backend:
  timeout: "5s"
upload:
  max_size_mb: 1
logging:
  level: warn
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.Timeout != 45*time.Second {
		t.Errorf("Backend.Timeout = %v, want 45s", cfg.Backend.Timeout)
	}
	if cfg.Upload.MaxSizeMB != 25 {
		t.Errorf("Upload.MaxSizeMB = %d, want 25", cfg.Upload.MaxSizeMB)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Logging.File != "/tmp/chatbcg-test.log" {
		t.Errorf("Logging.File = %q, want /tmp/chatbcg-test.log", cfg.Logging.File)
	}
}

func TestLoad_InvalidEnvOverride(t *testing.T) {
	t.Setenv("BACKEND_URL", "")
	t.Setenv("CHATBCG_TIMEOUT", "eventually")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for invalid CHATBCG_TIMEOUT, got nil")
	}
	if !strings.Contains(err.Error(), "parsing environment") {
		t.Errorf("error = %q, want an environment parse error", err.Error())
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Backend.URL = "ftp://files.example.com"
	cfg.Upload.MaxSizeMB = -1
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() error = nil, want errors")
	}
	for _, want := range []string{"http or https", "max_size_mb", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), want)
		}
	}
}
