package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v2"
)

const configEnv = "NWTOPO_CONFIG"

var configFile = "/etc/nwtopo/config.yaml"

type Config struct {
	// Parallelism bounds the goroutines used for per-device and per-edge work.
	// Zero uses the number of CPUs.
	Parallelism int `yaml:"parallelism"`
	// IncludeInactiveOwners also elects IP owners among inactive interfaces.
	IncludeInactiveOwners bool          `yaml:"includeInactiveOwners"`
	Layer3                Layer3Config  `yaml:"layer3"`
	Logging               LoggingConfig `yaml:"logging"`
}

type Layer3Config struct {
	ExcludeTunnels *bool `yaml:"excludeTunnels"`
}

type LoggingConfig struct {
	// File enables a rotated log file next to stderr.
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// WithDefaults returns a copy of c with every unset field defaulted.
func (c *Config) WithDefaults() *Config {
	result := &Config{}
	if c != nil {
		*result = *c
	}
	result.applyDefaults()
	return result
}

func (c *Config) applyDefaults() {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.Layer3.ExcludeTunnels == nil {
		excludeTunnels := true
		c.Layer3.ExcludeTunnels = &excludeTunnels
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 3
	}
}

// ExcludeTunnels reports whether tunnel interfaces are left out of subnet matching.
func (c *Config) ExcludeTunnels() bool {
	return c.Layer3.ExcludeTunnels == nil || *c.Layer3.ExcludeTunnels
}

// LoadConfig reads path, or the file named by NWTOPO_CONFIG when path is empty.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	file := configFile
	if val := os.Getenv(configEnv); val != "" {
		file = val
	}
	if path != "" {
		file = path
	}

	read, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	err = yaml.UnmarshalStrict(read, &config)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling config file: %w", err)
	}
	if config == nil {
		return nil, fmt.Errorf("error unmarshalling config file: %s is empty", file)
	}
	config.applyDefaults()

	return config, nil
}
