package config

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vango-dev/loom/internal/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Runtime.SlowHookWarning != 3*time.Second {
		t.Errorf("Runtime.SlowHookWarning = %v, want 3s", cfg.Runtime.SlowHookWarning)
	}
	if cfg.Inspect.Addr != DefaultInspectAddr {
		t.Errorf("Inspect.Addr = %q, want %q", cfg.Inspect.Addr, DefaultInspectAddr)
	}
	if cfg.Profile.Dir != DefaultProfileDir {
		t.Errorf("Profile.Dir = %q, want %q", cfg.Profile.Dir, DefaultProfileDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Path() != "" {
		t.Errorf("expected no path, got %q", cfg.Path())
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadOverridesOnlyDefinedKeys(t *testing.T) {
	dir := writeConfig(t, `
[runtime]
slow_hook_warning = "0s"

[log]
format = "JSON"

[metrics]
buckets = [0.001, 0.01, 0.1]

[profile]
s3_bucket = "profiles-bucket"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Runtime.SlowHookWarning != 0 {
		t.Errorf("Runtime.SlowHookWarning = %v, want 0", cfg.Runtime.SlowHookWarning)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want the default", cfg.Log.Level)
	}
	if len(cfg.Metrics.Buckets) != 3 {
		t.Errorf("Metrics.Buckets = %v", cfg.Metrics.Buckets)
	}
	if cfg.Profile.S3Bucket != "profiles-bucket" || cfg.Profile.S3Region != "us-east-1" {
		t.Errorf("unexpected profile section %+v", cfg.Profile)
	}
	if cfg.Path() != filepath.Join(dir, ConfigFileName) {
		t.Errorf("Path() = %q", cfg.Path())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
	}{
		{"syntax", "[runtime\n", "L100"},
		{"bad duration", "[runtime]\nslow_hook_warning = \"soon\"\n", "L101"},
		{"unknown key", "[inspect]\nport = 1\n", "L101"},
		{"bad level", "[log]\nlevel = \"loud\"\n", "L101"},
		{"bad format", "[log]\nformat = \"xml\"\n", "L101"},
		{"unsorted buckets", "[metrics]\nbuckets = [1.0, 0.5]\n", "L101"},
		{"tracing without service", "[tracing]\nenabled = true\nservice = \"\"\n", "L101"},
		{"zero buffer", "[inspect]\nbuffer = 0\n", "L101"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			var le *errors.Error
			if !stderrors.As(err, &le) || le.Code != tt.code {
				t.Errorf("expected %s, got %v", tt.code, err)
			}
		})
	}
}

func TestRuntimeConfig(t *testing.T) {
	cfg := New()
	cfg.Runtime.SlowHookWarning = time.Second
	cfg.Runtime.MaxFlushRounds = 7

	rc := cfg.RuntimeConfig(nil, nil)
	if rc.SlowHookWarning != time.Second || rc.MaxFlushRounds != 7 {
		t.Errorf("unexpected runtime config %+v", rc)
	}
	if rc.Logger == nil || rc.Observer == nil {
		t.Error("expected defaults for logger and observer")
	}
}

func TestLogger(t *testing.T) {
	cfg := New()
	cfg.Log.Level = "warn"
	cfg.Log.Format = "json"

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown")
	if got := buf.String(); !strings.Contains(got, `"msg":"shown"`) || strings.Contains(got, "hidden") {
		t.Errorf("unexpected log output %q", got)
	}
}
