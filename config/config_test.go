package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
	})

	t.Run("production keeps debug false", func(t *testing.T) {
		cfg := Config{Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
	})

	t.Run("service name propagates to logging", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()
		if cfg.Logging.ServiceName != "streamclipper" {
			t.Errorf("expected logging service name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("library paths default", func(t *testing.T) {
		var cfg Config
		cfg.ApplyDefaults()
		if cfg.Library.Path == "" || cfg.Library.DataDir == "" {
			t.Errorf("expected library defaults, got %+v", cfg.Library)
		}
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad environment", func(c *Config) { c.Environment = "prod" }, "config.environment must be one of"},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"negative segment duration", func(c *Config) { c.Capture.SegmentDuration = -1 }, "capture.segment_duration"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var cfg Config
			cfg.ApplyDefaults()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")

	yamlContent := `
name: streamclipper
environment: staging
library:
  path: /srv/library
capture:
  segment_duration: 30
whisper:
  model: small
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg Config
	if err := LoadConfig("streamclipper", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.Library.Path != "/srv/library" {
		t.Errorf("expected library path, got %q", cfg.Library.Path)
	}
	if cfg.Capture.SegmentDuration != 30 {
		t.Errorf("expected segment duration 30, got %d", cfg.Capture.SegmentDuration)
	}
	if cfg.Whisper.Model != "small" {
		t.Errorf("expected whisper model 'small', got %q", cfg.Whisper.Model)
	}
}

func TestLoadConfigEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(configPath, []byte("capture:\n  segment_duration: 30\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CAPTURE_SEGMENT_DURATION", "15")

	var cfg Config
	if err := LoadConfig("streamclipper", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Capture.SegmentDuration != 15 {
		t.Errorf("expected env override 15, got %d", cfg.Capture.SegmentDuration)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg Config
	if err := LoadConfig("nonexistent", &cfg, WithConfigFile("/nonexistent/path.yml")); err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/streamclipper/config.yml": true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("streamclipper", LoaderConfig{})
	if files.ConfigFile != "./cmd/streamclipper/config.yml" {
		t.Errorf("expected config file under cmd, got %q", files.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestSettingsStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ss, err := NewSettingsStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	// Nothing saved yet: defaults.
	got, err := ss.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got != DefaultSettings() {
		t.Fatalf("expected defaults, got %+v", got)
	}

	got, err = ss.Patch([]byte(`{"whisperModel":"medium","autoTranscribe":true}`))
	if err != nil {
		t.Fatalf("Patch: %v", err)
	}
	if got.WhisperModel != "medium" || !got.AutoTranscribe {
		t.Fatalf("patch not applied: %+v", got)
	}
	// Untouched fields keep their previous values.
	if got.DefaultSegmentDuration != 60 {
		t.Fatalf("patch clobbered unrelated field: %+v", got)
	}

	reloaded, err := ss.Load()
	if err != nil {
		t.Fatal(err)
	}
	if reloaded != got {
		t.Fatalf("expected persisted settings, got %+v", reloaded)
	}
}

func TestSettingsPatchRejectsBadJSON(t *testing.T) {
	ss, err := NewSettingsStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ss.Patch([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed patch")
	}
}
