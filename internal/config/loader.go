package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"log-analyzer/internal/types"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTimeWindowMinutes = 10
	DefaultAlertLogFile      = "logs/alerts.txt"
	DefaultMalformedLogFile  = "logs/malformed_lines.txt"
	DefaultLocalLLMUrl       = "http://localhost:11434/api/generate"
	DefaultLocalLLMModel     = "tinyllama"
)

var (
	// ErrMissingKey is returned when a required config key is absent
	ErrMissingKey = errors.New("missing required config key")
	// ErrInvalidValue is returned when a config value is out of range
	ErrInvalidValue = errors.New("invalid config value")
)

// LoadConfig reads the configuration from the given path.
// Files ending in .json are decoded as JSON, everything else as YAML.
func LoadConfig(path string) (*types.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	var cfg *types.Config
	if strings.EqualFold(filepath.Ext(path), ".json") {
		cfg, err = DecodeJSON(f)
	} else {
		cfg, err = DecodeYAML(f)
	}
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DecodeJSON decodes a config without validating it
func DecodeJSON(r io.Reader) (*types.Config, error) {
	var cfg types.Config
	if err := json.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// DecodeYAML decodes a config without validating it
func DecodeYAML(r io.Reader) (*types.Config, error) {
	var cfg types.Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// validateConfig applies defaults and hard rules
func validateConfig(cfg *types.Config) error {
	if cfg.Threshold == nil {
		return fmt.Errorf("%w: threshold", ErrMissingKey)
	}
	if cfg.LogFile == "" {
		return fmt.Errorf("%w: log_file", ErrMissingKey)
	}
	if cfg.ReportFile == "" {
		return fmt.Errorf("%w: report_file", ErrMissingKey)
	}
	if cfg.AnalyzedLogFile == "" {
		return fmt.Errorf("%w: analyzed_log_file", ErrMissingKey)
	}
	if cfg.SuspiciousActions == nil {
		return fmt.Errorf("%w: suspicious_actions", ErrMissingKey)
	}

	// Only an absent key gets the default; an explicit 0 is rejected by Validate
	if cfg.TimeWindowMinutes == nil {
		window := DefaultTimeWindowMinutes
		cfg.TimeWindowMinutes = &window
	}
	if cfg.AlertLogFile == "" {
		cfg.AlertLogFile = DefaultAlertLogFile
	}
	if cfg.MalformedLogFile == "" {
		cfg.MalformedLogFile = DefaultMalformedLogFile
	}
	if cfg.Explain.LocalLLMUrl == "" {
		cfg.Explain.LocalLLMUrl = DefaultLocalLLMUrl
	}
	if cfg.Explain.LocalLLMModel == "" {
		cfg.Explain.LocalLLMModel = DefaultLocalLLMModel
	}

	return Validate(cfg)
}

// Validate checks value ranges. It is also run after CLI overrides are applied.
func Validate(cfg *types.Config) error {
	if cfg.Threshold == nil || *cfg.Threshold < 1 {
		return fmt.Errorf("%w: threshold must be >= 1", ErrInvalidValue)
	}
	if cfg.TimeWindowMinutes == nil || *cfg.TimeWindowMinutes < 1 {
		return fmt.Errorf("%w: time_window_minutes must be >= 1", ErrInvalidValue)
	}
	return nil
}

// EnsureDirs creates the parent directory of every output path
func EnsureDirs(cfg *types.Config) error {
	paths := []string{
		cfg.ReportFile,
		cfg.AnalyzedLogFile,
		cfg.AlertLogFile,
		cfg.MalformedLogFile,
		cfg.AuditLogFile,
		cfg.StateDB,
		cfg.MetricsFile,
	}
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	return nil
}

// ExistingFile returns an error unless path names an existing file
func ExistingFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("file does not exist: %s", path)
	}
	if info.IsDir() {
		return fmt.Errorf("not a file: %s", path)
	}
	return nil
}
