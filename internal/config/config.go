package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/loom/internal/errors"
	"github.com/vango-dev/loom/pkg/reactive"
	"github.com/vango-dev/loom/pkg/runtime"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "loom.toml"

	// DefaultInspectAddr is the default inspector listen address.
	DefaultInspectAddr = "127.0.0.1:7070"

	// DefaultProfileDir is the default directory for stored profiles.
	DefaultProfileDir = ".loom/profiles"
)

// Config represents the complete loom.toml configuration.
type Config struct {
	Runtime RuntimeConfig
	Log     LogConfig
	Metrics MetricsConfig
	Tracing TracingConfig
	Inspect InspectConfig
	Profile ProfileConfig

	// path stores the path where the config was loaded from.
	path string
}

// RuntimeConfig contains scheduler settings.
type RuntimeConfig struct {
	// SlowHookWarning is how long a willStart/willUpdateProps hook may stay
	// pending before a warning is logged. Zero disables the warning.
	SlowHookWarning time.Duration

	// MaxFlushRounds bounds how many times one effect flush may drain.
	MaxFlushRounds int
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string

	// Format is text or json.
	Format string
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Namespace string
	Subsystem string

	// Buckets are the histogram buckets in seconds. Empty keeps the
	// observer default.
	Buckets []float64
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled bool
	Service string
}

// InspectConfig contains inspector settings.
type InspectConfig struct {
	Addr   string
	Buffer int
}

// ProfileConfig contains profile storage settings. Profiles go to S3 when
// S3Bucket is set and to Dir otherwise.
type ProfileConfig struct {
	Dir        string
	S3Bucket   string
	S3Prefix   string
	S3Region   string
	S3Endpoint string
}

// fileConfig is the loom.toml key mapping.
type fileConfig struct {
	Runtime struct {
		SlowHookWarning string `toml:"slow_hook_warning"`
		MaxFlushRounds  int    `toml:"max_flush_rounds"`
	} `toml:"runtime"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	Metrics struct {
		Namespace string    `toml:"namespace"`
		Subsystem string    `toml:"subsystem"`
		Buckets   []float64 `toml:"buckets"`
	} `toml:"metrics"`
	Tracing struct {
		Enabled bool   `toml:"enabled"`
		Service string `toml:"service"`
	} `toml:"tracing"`
	Inspect struct {
		Addr   string `toml:"addr"`
		Buffer int    `toml:"buffer"`
	} `toml:"inspect"`
	Profile struct {
		Dir        string `toml:"dir"`
		S3Bucket   string `toml:"s3_bucket"`
		S3Prefix   string `toml:"s3_prefix"`
		S3Region   string `toml:"s3_region"`
		S3Endpoint string `toml:"s3_endpoint"`
	} `toml:"profile"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			SlowHookWarning: 3 * time.Second,
			MaxFlushRounds:  reactive.DefaultMaxFlushRounds,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "loom",
		},
		Tracing: TracingConfig{
			Service: "loom",
		},
		Inspect: InspectConfig{
			Addr:   DefaultInspectAddr,
			Buffer: 256,
		},
		Profile: ProfileConfig{
			Dir:      DefaultProfileDir,
			S3Prefix: "profiles/",
			S3Region: "us-east-1",
		},
	}
}

// Load reads loom.toml from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}
	return LoadFile(path)
}

// LoadFile reads the given TOML file over the defaults and validates the
// result.
func LoadFile(path string) (*Config, error) {
	cfg := New()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, errors.New("L100").
			WithDetail(fmt.Sprintf("Could not load %s.", path)).
			Wrap(err)
	}

	if meta.IsDefined("runtime", "slow_hook_warning") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.Runtime.SlowHookWarning))
		if err != nil {
			return nil, errors.New("L101").
				WithDetail(fmt.Sprintf("runtime.slow_hook_warning %q is not a duration.", raw.Runtime.SlowHookWarning)).
				WithSuggestion(`Use a Go duration such as "3s" or "500ms"; "0s" disables the warning`).
				Wrap(err)
		}
		cfg.Runtime.SlowHookWarning = d
	}
	if meta.IsDefined("runtime", "max_flush_rounds") {
		cfg.Runtime.MaxFlushRounds = raw.Runtime.MaxFlushRounds
	}
	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.ToLower(strings.TrimSpace(raw.Log.Level))
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.ToLower(strings.TrimSpace(raw.Log.Format))
	}
	if meta.IsDefined("metrics", "namespace") {
		cfg.Metrics.Namespace = strings.TrimSpace(raw.Metrics.Namespace)
	}
	if meta.IsDefined("metrics", "subsystem") {
		cfg.Metrics.Subsystem = strings.TrimSpace(raw.Metrics.Subsystem)
	}
	if meta.IsDefined("metrics", "buckets") {
		cfg.Metrics.Buckets = raw.Metrics.Buckets
	}
	if meta.IsDefined("tracing", "enabled") {
		cfg.Tracing.Enabled = raw.Tracing.Enabled
	}
	if meta.IsDefined("tracing", "service") {
		cfg.Tracing.Service = strings.TrimSpace(raw.Tracing.Service)
	}
	if meta.IsDefined("inspect", "addr") {
		cfg.Inspect.Addr = strings.TrimSpace(raw.Inspect.Addr)
	}
	if meta.IsDefined("inspect", "buffer") {
		cfg.Inspect.Buffer = raw.Inspect.Buffer
	}
	if meta.IsDefined("profile", "dir") {
		cfg.Profile.Dir = strings.TrimSpace(raw.Profile.Dir)
	}
	if meta.IsDefined("profile", "s3_bucket") {
		cfg.Profile.S3Bucket = strings.TrimSpace(raw.Profile.S3Bucket)
	}
	if meta.IsDefined("profile", "s3_prefix") {
		cfg.Profile.S3Prefix = strings.TrimSpace(raw.Profile.S3Prefix)
	}
	if meta.IsDefined("profile", "s3_region") {
		cfg.Profile.S3Region = strings.TrimSpace(raw.Profile.S3Region)
	}
	if meta.IsDefined("profile", "s3_endpoint") {
		cfg.Profile.S3Endpoint = strings.TrimSpace(raw.Profile.S3Endpoint)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New("L101").
			WithDetail(fmt.Sprintf("Unknown key %q in %s.", undecoded[0].String(), path))
	}

	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.path
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Runtime.SlowHookWarning < 0 {
		return invalid("runtime.slow_hook_warning must not be negative")
	}
	if c.Runtime.MaxFlushRounds <= 0 {
		return invalid("runtime.max_flush_rounds must be positive")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return invalid(err.Error())
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return invalid(fmt.Sprintf("log.format %q must be text or json", c.Log.Format))
	}
	if c.Metrics.Namespace == "" {
		return invalid("metrics.namespace must not be empty")
	}
	for i := 1; i < len(c.Metrics.Buckets); i++ {
		if c.Metrics.Buckets[i] <= c.Metrics.Buckets[i-1] {
			return invalid("metrics.buckets must be strictly increasing")
		}
	}
	if c.Tracing.Enabled && c.Tracing.Service == "" {
		return invalid("tracing.service is required when tracing is enabled")
	}
	if c.Inspect.Buffer <= 0 {
		return invalid("inspect.buffer must be positive")
	}
	if c.Profile.S3Bucket == "" && c.Profile.Dir == "" {
		return invalid("profile.dir is required when profile.s3_bucket is empty")
	}
	return nil
}

// RuntimeConfig builds the runtime configuration.
func (c *Config) RuntimeConfig(logger *slog.Logger, observer runtime.Observer) *runtime.Config {
	rc := runtime.DefaultConfig()
	if logger != nil {
		rc.Logger = logger
	}
	if observer != nil {
		rc.Observer = observer
	}
	rc.SlowHookWarning = c.Runtime.SlowHookWarning
	rc.MaxFlushRounds = c.Runtime.MaxFlushRounds
	return rc
}

// Logger builds the slog logger described by the [log] section.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		return nil, invalid(err.Error())
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log.level %q must be debug, info, warn or error", s)
	}
	return level, nil
}

func invalid(detail string) error {
	return errors.New("L101").WithDetail(detail)
}
