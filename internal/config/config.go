// Package config provides typed configuration for the tickhist tools, loaded
// from defaults, an optional JSON file and TICKHIST_* environment variables,
// in that order of precedence.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// AppConfig is the complete configuration for a fetch tool run.
type AppConfig struct {
	// DataRoot is the root of the partitioned parquet tree.
	DataRoot string `json:"data_root" env:"TICKHIST_DATA_ROOT"`

	// HTTPTimeout bounds a single exchange request.
	HTTPTimeout time.Duration `json:"-"`

	// HTTPTimeoutSeconds is the serialized form of HTTPTimeout.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds" env:"TICKHIST_HTTP_TIMEOUT_SECONDS"`

	Logging LoggingConfig `json:"logging"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level    string `json:"level" env:"TICKHIST_LOG_LEVEL"`     // debug, info, warn, error
	Format   string `json:"format" env:"TICKHIST_LOG_FORMAT"`   // text, json
	Output   string `json:"output" env:"TICKHIST_LOG_OUTPUT"`   // stdout, stderr, file
	FilePath string `json:"file_path" env:"TICKHIST_LOG_FILE"`  // used when Output is "file"
	MaxSize  int    `json:"max_size" env:"TICKHIST_LOG_MAX_MB"` // rotation threshold, MB
	MaxAge   int    `json:"max_age"`                            // days to keep rotated files
}

// Default returns the configuration used when nothing is overridden. The data
// root mirrors the layout long used by the downstream research tooling.
func Default() *AppConfig {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &AppConfig{
		DataRoot:           filepath.Join(home, "MDHOME", "tickdata-parq"),
		HTTPTimeoutSeconds: 30,
		HTTPTimeout:        30 * time.Second,
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Output:  "stdout",
			MaxSize: 100,
			MaxAge:  14,
		},
	}
}

// Load builds the effective configuration: defaults, then the JSON file at
// path (skipped when path is empty or the file does not exist), then
// environment overrides.
func Load(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// optional file
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	if cfg.HTTPTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("http_timeout_seconds must be positive, got %d", cfg.HTTPTimeoutSeconds)
	}
	cfg.HTTPTimeout = time.Duration(cfg.HTTPTimeoutSeconds) * time.Second

	return cfg, nil
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv("TICKHIST_DATA_ROOT"); v != "" {
		cfg.DataRoot = v
	}
	if v := os.Getenv("TICKHIST_HTTP_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.HTTPTimeoutSeconds = secs
		}
	}
	if v := os.Getenv("TICKHIST_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TICKHIST_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TICKHIST_LOG_OUTPUT"); v != "" {
		cfg.Logging.Output = v
	}
	if v := os.Getenv("TICKHIST_LOG_FILE"); v != "" {
		cfg.Logging.FilePath = v
	}
}
