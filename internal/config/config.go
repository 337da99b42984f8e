package config

import (
	"errors"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the microlens configuration.
type Config struct {
	DataDir      string   `yaml:"data_dir"`
	Port         int      `yaml:"port"`
	MinSamples   int      `yaml:"min_samples"`
	MinAbundance float64  `yaml:"min_abundance"`
	CORSOrigins  []string `yaml:"cors_origins"`
	ExportPath   string   `yaml:"export_path"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		DataDir:      "data",
		Port:         8080,
		MinSamples:   100,
		MinAbundance: 0.5,
		CORSOrigins:  []string{"http://localhost:3000", "http://localhost:8080"},
		ExportPath:   "microlens-export.db",
	}
}

// Load reads configuration from file, falling back to defaults.
// If configPath is empty, it looks for microlens.yaml in the current directory.
// Values in the config file replace defaults per field (no deep merging).
func Load(configPath string) (*Config, error) {
	defaults := Default()

	if configPath == "" {
		configPath = "microlens.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// No config file, use defaults
			return defaults, nil
		}
		return nil, err
	}

	var fileCfg Config
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, err
	}

	// Apply defaults for missing fields
	defaults.Merge(&fileCfg)
	return defaults, nil
}

// Merge combines another config into this one, with other taking precedence.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.DataDir != "" {
		c.DataDir = other.DataDir
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.MinSamples != 0 {
		c.MinSamples = other.MinSamples
	}
	if other.MinAbundance != 0 {
		c.MinAbundance = other.MinAbundance
	}
	if len(other.CORSOrigins) > 0 {
		c.CORSOrigins = other.CORSOrigins
	}
	if other.ExportPath != "" {
		c.ExportPath = other.ExportPath
	}
}
