package utils

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultDirectoryPath = "./"
	DefaultPort          = 6969
	DefaultMetricsPort   = 9469
	DefaultLogLevel      = "info"
)

// Config is the sdw-server configuration, read from YAML and overridden by
// flags.
type Config struct {
	Dir         string `yaml:"dir"`
	HintFile    string `yaml:"hint_file"`
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"` // 0 disables the metrics endpoint
	Workers     int    `yaml:"workers"`      // 0 uses GOMAXPROCS
	LogLevel    string `yaml:"log_level"`
}

func DefaultConfig() *Config {
	return &Config{
		Dir:         DefaultDirectoryPath,
		Port:        DefaultPort,
		MetricsPort: DefaultMetricsPort,
		LogLevel:    DefaultLogLevel,
	}
}

// LoadConfig reads a YAML file over the defaults. Keys missing from the
// file keep their default value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Dir == "" {
		errs = append(errs, errors.New("dir must be set"))
	} else if !PathExists(c.Dir) {
		errs = append(errs, fmt.Errorf("dir %q does not exist", c.Dir))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.MetricsPort < 0 || c.MetricsPort > 65535 {
		errs = append(errs, fmt.Errorf("metrics_port %d out of range", c.MetricsPort))
	}
	if c.MetricsPort != 0 && c.MetricsPort == c.Port {
		errs = append(errs, fmt.Errorf("metrics_port and port are both %d", c.Port))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers %d is negative", c.Workers))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}

	return errors.Join(errs...)
}
