// Package config loads the ripcheck YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"gopkg.in/yaml.v3"
)

// DriveConfig selects and tunes the cd drive.
type DriveConfig struct {
	Device                 string `yaml:"device"`
	ReadOffset             int    `yaml:"read_offset"`
	MaxRetries             int    `yaml:"max_retries"`
	MaxConsecutiveFailures int    `yaml:"max_consecutive_failures"`
}

// OutputConfig says where extracted audio goes. When Image is set tracks
// are written into a FAT32 image instead of Dir.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Format    string `yaml:"format"`
	Image     string `yaml:"image"`
	ImageSize int64  `yaml:"image_size"`
	Label     string `yaml:"label"`
}

// AccurateRipConfig tunes checksum verification.
type AccurateRipConfig struct {
	// DatabaseDir holds downloaded dBAR files laid out by disc ID path.
	DatabaseDir string `yaml:"database_dir"`
	MaxOffset   int    `yaml:"max_offset"`
	Workers     int    `yaml:"workers"`
}

// WorkersConfig sizes the record build pool.
type WorkersConfig struct {
	Count       int           `yaml:"count"`
	QueueSize   int           `yaml:"queue_size"`
	StopTimeout time.Duration `yaml:"stop_timeout"`
}

// StoreConfig holds record database configuration
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Path    string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the complete configuration.
type Config struct {
	Drive       DriveConfig       `yaml:"drive"`
	Output      OutputConfig      `yaml:"output"`
	AccurateRip AccurateRipConfig `yaml:"accuraterip"`
	Workers     WorkersConfig     `yaml:"workers"`
	Store       StoreConfig       `yaml:"store"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoadConfig loads configuration from a file
func LoadConfig(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML, fills defaults and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	setDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Default is the configuration used without a config file.
func Default() *Config {
	var cfg Config
	setDefaults(&cfg)
	return &cfg
}

func setDefaults(cfg *Config) {
	if cfg.Drive.MaxRetries == 0 {
		cfg.Drive.MaxRetries = 20
	}
	if cfg.Drive.MaxConsecutiveFailures == 0 {
		cfg.Drive.MaxConsecutiveFailures = 75
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "."
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "wav"
	}
	if cfg.Output.ImageSize == 0 {
		cfg.Output.ImageSize = 900 * 1024 * 1024
	}

	if cfg.AccurateRip.MaxOffset == 0 {
		cfg.AccurateRip.MaxOffset = accuraterip.MaxOffset
	}
	if cfg.AccurateRip.Workers == 0 {
		cfg.AccurateRip.Workers = 4
	}

	if cfg.Workers.Count == 0 {
		cfg.Workers.Count = 2
	}
	if cfg.Workers.QueueSize == 0 {
		cfg.Workers.QueueSize = 4
	}
	if cfg.Workers.StopTimeout == 0 {
		cfg.Workers.StopTimeout = 30 * time.Second
	}

	if cfg.Store.Path == "" {
		cfg.Store.Path = "ripcheck.db"
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9102
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Drive.MaxRetries < -1 {
		return fmt.Errorf("drive.max_retries must be -1 (disabled) or positive")
	}
	if c.Drive.ReadOffset < -accuraterip.MaxOffset || c.Drive.ReadOffset > accuraterip.MaxOffset {
		return fmt.Errorf("drive.read_offset %d outside +/-%d samples", c.Drive.ReadOffset, accuraterip.MaxOffset)
	}
	switch c.Output.Format {
	case "wav", "cdda":
	default:
		return fmt.Errorf("output.format must be wav or cdda, got %q", c.Output.Format)
	}
	if c.Output.Image != "" && c.Output.ImageSize < 32*1024*1024 {
		return fmt.Errorf("output.image_size must be at least 32MiB")
	}
	if c.AccurateRip.MaxOffset < 0 || c.AccurateRip.MaxOffset > accuraterip.MaxOffset {
		return fmt.Errorf("accuraterip.max_offset must be between 0 and %d", accuraterip.MaxOffset)
	}
	if c.AccurateRip.Workers < 1 {
		return fmt.Errorf("accuraterip.workers must be positive")
	}
	if c.Workers.Count < 1 {
		return fmt.Errorf("workers.count must be positive")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 1 || c.Metrics.Port > 65535) {
		return fmt.Errorf("invalid metrics port: %d", c.Metrics.Port)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	return nil
}
