package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel     = "info"
	DefaultLogMaxSizeMB = 10
	DefaultLogMaxFiles  = 3
	DefaultOutputFormat = "table"
)

// Output formats accepted by output.format and `list`.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level controls logging verbosity: debug, info, warn, error
	Level string `yaml:"level,omitempty"`
	// File is a log file path; empty logs to stderr
	File string `yaml:"file,omitempty"`
	// MaxSizeMB is the maximum log file size before rotation (default: 10)
	MaxSizeMB int `yaml:"max_size_mb,omitempty"`
	// MaxFiles is the number of rotated files to keep (default: 3)
	MaxFiles int `yaml:"max_files,omitempty"`
}

// OutputConfig controls how the CLI prints monitor lists.
type OutputConfig struct {
	Format string `yaml:"format,omitempty"`
}

// DaemonConfig configures `monitors daemon`.
type DaemonConfig struct {
	// Socket overrides the IPC socket path ($XDG_RUNTIME_DIR/monitors.sock)
	Socket string `yaml:"socket,omitempty"`
	// MetricsAddr enables the Prometheus endpoint when set, e.g. "127.0.0.1:9464"
	MetricsAddr string `yaml:"metrics_addr,omitempty"`
}

type Config struct {
	// Display overrides $DISPLAY for the X11 backend
	Display string        `yaml:"display,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
	Daemon  DaemonConfig  `yaml:"daemon,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:     DefaultLogLevel,
			MaxSizeMB: DefaultLogMaxSizeMB,
			MaxFiles:  DefaultLogMaxFiles,
		},
		Output: OutputConfig{
			Format: DefaultOutputFormat,
		},
	}
}

// ValidationError reports an invalid setting at a YAML key path, with the
// file position when the value came from a file.
type ValidationError struct {
	Path   string
	Source Source
	Err    error
}

func (e *ValidationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Source.Kind == SourceFile && e.Source.File != "" && e.Source.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %v", e.Source.File, e.Source.Line, e.Source.Column, e.Path, e.Err)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(path string, format string, args ...any) error {
	return &ValidationError{Path: path, Err: fmt.Errorf(format, args...)}
}

// Validate checks every setting and returns the first problem found.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return invalid("logging.level", "unknown level %q (want debug, info, warn or error)", c.Logging.Level)
	}
	if c.Logging.MaxSizeMB < 0 {
		return invalid("logging.max_size_mb", "must be >= 0, got %d", c.Logging.MaxSizeMB)
	}
	if c.Logging.MaxFiles < 0 {
		return invalid("logging.max_files", "must be >= 0, got %d", c.Logging.MaxFiles)
	}

	switch c.Output.Format {
	case "", FormatTable, FormatJSON, FormatYAML:
	default:
		return invalid("output.format", "unknown format %q (want table, json or yaml)", c.Output.Format)
	}

	if addr := strings.TrimSpace(c.Daemon.MetricsAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return invalid("daemon.metrics_addr", "%v", err)
		}
	}
	if c.Daemon.Socket != "" && !filepath.IsAbs(c.Daemon.Socket) {
		return invalid("daemon.socket", "must be an absolute path, got %q", c.Daemon.Socket)
	}
	return nil
}

// GetLoggingConfig returns the logging configuration with defaults applied.
func (c *Config) GetLoggingConfig() LoggingConfig {
	if c == nil {
		return DefaultConfig().Logging
	}
	cfg := c.Logging
	if cfg.Level == "" {
		cfg.Level = DefaultLogLevel
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.MaxFiles == 0 {
		cfg.MaxFiles = DefaultLogMaxFiles
	}
	if strings.HasPrefix(cfg.File, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.File = filepath.Join(home, cfg.File[2:])
		}
	}
	return cfg
}

// OutputFormat returns output.format, defaulting to a table.
func (c *Config) OutputFormat() string {
	if c == nil || c.Output.Format == "" {
		return DefaultOutputFormat
	}
	return c.Output.Format
}

// Marshal renders the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// Save writes the configuration to path, creating parent directories.
//
// Note: this marshals the effective config and will not preserve comments
// from the original YAML.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
