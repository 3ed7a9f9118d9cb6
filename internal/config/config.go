package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration for erc20lint
type Config struct {
	// Detectors maps detector arguments to severity:
	// "off", "info", "warning", "error"
	Detectors map[string]string `json:"detectors,omitempty" yaml:"detectors,omitempty"`

	// PolicyDir overrides the embedded finding policy with .rego files
	// from a directory
	PolicyDir string `json:"policyDir,omitempty" yaml:"policyDir,omitempty"`

	// IgnorePatterns is a list of snapshot file patterns to skip entirely
	IgnorePatterns []string `json:"ignorePatterns,omitempty" yaml:"ignorePatterns,omitempty"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() *Config {
	return &Config{
		Detectors:      map[string]string{},
		IgnorePatterns: []string{},
	}
}

// Load finds and loads the configuration file
// Search order:
//  1. ./erc20lint.json (current working directory)
//  2. ./.erc20lint.json (current working directory)
//  3. ./erc20lint.yaml
//  4. <rootPath>/erc20lint.json (if different from cwd)
//  5. ~/.config/erc20lint/config.json
//
// Returns DefaultConfig if no config file is found
func Load(rootPath string) (*Config, error) {
	cwd, _ := os.Getwd()

	searchPaths := []string{
		filepath.Join(cwd, "erc20lint.json"),
		filepath.Join(cwd, ".erc20lint.json"),
		filepath.Join(cwd, "erc20lint.yaml"),
	}

	if info, err := os.Stat(rootPath); err == nil && info.IsDir() {
		absRoot, _ := filepath.Abs(rootPath)
		if absRoot != cwd {
			searchPaths = append(searchPaths,
				filepath.Join(rootPath, "erc20lint.json"),
				filepath.Join(rootPath, "erc20lint.yaml"),
			)
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths, filepath.Join(home, ".config", "erc20lint", "config.json"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}

	return DefaultConfig(), nil
}

// LoadFile loads configuration from a specific file. The extension picks
// the format: .yaml/.yml parse as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults fills in missing configuration with defaults
func (c *Config) applyDefaults() {
	if c.Detectors == nil {
		c.Detectors = make(map[string]string)
	}
	if c.IgnorePatterns == nil {
		c.IgnorePatterns = []string{}
	}
}

// Save writes the configuration to a file
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// GetDetectorSeverity returns the severity for a detector, or the default
// if not configured
func (c *Config) GetDetectorSeverity(detector string, defaultSeverity string) string {
	if severity, ok := c.Detectors[detector]; ok {
		return severity
	}
	return defaultSeverity
}

// IsDetectorEnabled returns true if the detector is not set to "off"
func (c *Config) IsDetectorEnabled(detector string) bool {
	if severity, ok := c.Detectors[detector]; ok {
		return severity != "off"
	}
	return true // enabled by default
}

// ShouldIgnoreFile checks if a snapshot file should be skipped entirely
func (c *Config) ShouldIgnoreFile(filePath string) bool {
	for _, pattern := range c.IgnorePatterns {
		if matched, _ := filepath.Match(pattern, filePath); matched {
			return true
		}
		if matched, _ := filepath.Match(pattern, filepath.Base(filePath)); matched {
			return true
		}
	}
	return false
}
