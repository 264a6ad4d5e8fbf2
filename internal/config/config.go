// SPDX-License-Identifier: MIT

// Package config loads and validates the lyricburn daemon configuration
// from environment variables with an optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults for operational knobs.
const (
	DefaultListenAddr      = ":8080"
	DefaultBurnConcurrency = 2
	DefaultBurnTimeout     = 180 * time.Second
	DefaultMaxUploadBytes  = int64(1) << 30 // 1 GiB
	DefaultRateLimitRPM    = 600
)

// Tracing configures the optional OpenTelemetry exporter.
type Tracing struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRate  float64 `yaml:"sample_rate"`
	Environment string  `yaml:"environment"`
}

// Config is the immutable environment threaded through all components.
// The fonts directory and tool binaries are process-global and read-only.
type Config struct {
	ListenAddr string `yaml:"listen_addr"`

	// DatabaseURL is the sqlite DSN or a bare filesystem path.
	DatabaseURL string `yaml:"database_url"`

	// DataRoot holds videos/<uuid>/source.<ext> and, by default, fonts/.
	DataRoot string `yaml:"data_root"`

	// FontsDir is the read-only font bundle consulted exclusively at burn
	// time. Defaults to <DataRoot>/fonts.
	FontsDir string `yaml:"fonts_dir"`

	EncoderBin string `yaml:"encoder_bin"`
	ProbeBin   string `yaml:"probe_bin"`
	WhisperBin string `yaml:"whisper_bin"`

	BurnConcurrency int           `yaml:"burn_concurrency"`
	BurnTimeout     time.Duration `yaml:"-"`
	BurnTimeoutS    int           `yaml:"burn_timeout_s"`

	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	RateLimitRPM   int   `yaml:"rate_limit_rpm"`

	LogLevel string  `yaml:"log_level"`
	Tracing  Tracing `yaml:"tracing"`
}

// FromEnv builds a Config from environment variables and defaults.
func FromEnv() Config {
	dataRoot := ParseString("DATA_ROOT", "./data")
	cfg := Config{
		ListenAddr:      ParseString("LISTEN_ADDR", DefaultListenAddr),
		DatabaseURL:     ParseString("DATABASE_URL", filepath.Join(dataRoot, "lyricburn.sqlite")),
		DataRoot:        dataRoot,
		FontsDir:        ParseString("FONTS_DIR", filepath.Join(dataRoot, "fonts")),
		EncoderBin:      ParseString("ENCODER_BIN", "ffmpeg"),
		ProbeBin:        ParseString("PROBE_BIN", "ffprobe"),
		WhisperBin:      ParseString("WHISPER_BIN", ""),
		BurnConcurrency: ParseInt("BURN_CONCURRENCY", DefaultBurnConcurrency),
		BurnTimeoutS:    ParseInt("BURN_TIMEOUT_S", int(DefaultBurnTimeout/time.Second)),
		MaxUploadBytes:  ParseInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		RateLimitRPM:    ParseInt("RATE_LIMIT_RPM", DefaultRateLimitRPM),
		LogLevel:        ParseString("LOG_LEVEL", "info"),
		Tracing: Tracing{
			Enabled:     ParseBool("OTEL_ENABLED", false),
			Endpoint:    ParseString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			SampleRate:  ParseFloat("OTEL_SAMPLE_RATE", 1.0),
			Environment: ParseString("OTEL_ENVIRONMENT", "development"),
		},
	}
	cfg.BurnTimeout = time.Duration(cfg.BurnTimeoutS) * time.Second
	return cfg
}

// ApplyFile overlays values from a YAML file onto c. Unset (zero) file
// values leave the existing configuration untouched because the decoder
// writes into the live struct.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	if c.BurnTimeoutS > 0 {
		c.BurnTimeout = time.Duration(c.BurnTimeoutS) * time.Second
	}
	return nil
}

// Load builds the configuration from the environment, applies the optional
// CONFIG_FILE overlay and validates the result.
func Load() (Config, error) {
	cfg := FromEnv()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks operational invariants.
func (c Config) Validate() error {
	if c.DataRoot == "" {
		return fmt.Errorf("config: DATA_ROOT must not be empty")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("config: DATABASE_URL must not be empty")
	}
	if c.EncoderBin == "" || c.ProbeBin == "" {
		return fmt.Errorf("config: ENCODER_BIN and PROBE_BIN must not be empty")
	}
	if c.BurnConcurrency < 1 {
		return fmt.Errorf("config: BURN_CONCURRENCY must be >= 1, got %d", c.BurnConcurrency)
	}
	if c.BurnTimeout <= 0 {
		return fmt.Errorf("config: BURN_TIMEOUT_S must be positive, got %s", c.BurnTimeout)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("config: MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}

// VideoDir returns the per-video directory under the data root.
func (c Config) VideoDir(videoID string) string {
	return filepath.Join(c.DataRoot, "videos", videoID)
}

// ScratchRoot returns the root directory for per-burn working directories.
func (c Config) ScratchRoot() string {
	return filepath.Join(c.DataRoot, "tmp")
}
