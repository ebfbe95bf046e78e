package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigFile    = "fanin.yaml"
	DefaultMaxObjectSize = 1 << 20
	DefaultConcurrency   = 8
	DefaultWaitTimeout   = 5 * time.Minute
	DefaultLogMode       = "development"
)

// Config drives the fanin command.
type Config struct {
	Bucket          string        `yaml:"bucket"`
	Prefix          string        `yaml:"prefix,omitempty"`
	MaxObjectSize   int           `yaml:"max_object_size,omitempty"`
	Concurrency     int           `yaml:"concurrency,omitempty"`
	WaitTimeout     time.Duration `yaml:"wait_timeout,omitempty"`
	LogMode         string        `yaml:"log_mode,omitempty"`
	EmulatorHost    string        `yaml:"emulator_host,omitempty"`
	CredentialsFile string        `yaml:"credentials_file,omitempty"`
}

// Load reads the YAML file at path, applies environment overrides and
// defaults, and validates the result. A missing file is only an error when
// path was given explicitly.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	var cfg Config
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read configuration file %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := env("FANIN_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := env("FANIN_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := env("FANIN_LOG_MODE"); v != "" {
		c.LogMode = v
	}
	if v := env("STORAGE_EMULATOR_HOST"); v != "" {
		c.EmulatorHost = v
	}
	if v := env("FANIN_CREDENTIALS_FILE"); v != "" {
		c.CredentialsFile = v
	}
	if v := env("FANIN_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FANIN_CONCURRENCY=%q: %w", v, err)
		}
		c.Concurrency = n
	}
	if v := env("FANIN_MAX_OBJECT_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FANIN_MAX_OBJECT_SIZE=%q: %w", v, err)
		}
		c.MaxObjectSize = n
	}
	if v := env("FANIN_WAIT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FANIN_WAIT_TIMEOUT=%q: %w", v, err)
		}
		c.WaitTimeout = d
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MaxObjectSize == 0 {
		c.MaxObjectSize = DefaultMaxObjectSize
	}
	if c.Concurrency == 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.WaitTimeout == 0 {
		c.WaitTimeout = DefaultWaitTimeout
	}
	if c.LogMode == "" {
		c.LogMode = DefaultLogMode
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bucket) == "" {
		return errors.New("bucket is required")
	}
	if c.MaxObjectSize < 0 {
		return fmt.Errorf("max_object_size must be positive, got %d", c.MaxObjectSize)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.WaitTimeout < 0 {
		return fmt.Errorf("wait_timeout must be positive, got %s", c.WaitTimeout)
	}
	return nil
}

func env(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}
