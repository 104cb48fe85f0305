// Package config loads CLI defaults from an optional YAML file. Flags
// always win; the file only fills in what the user did not say.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/adx-tools/adx/pkg/types"
)

// Config holds the file-configurable defaults.
type Config struct {
	// Policy is the default conflict policy for imports.
	Policy types.Policy `yaml:"policy"`
	// ConcatComments appends differing comments instead of reporting them.
	ConcatComments bool `yaml:"concat_comments"`
	// Lenient decodes documents with unknown top-level keys.
	Lenient bool `yaml:"lenient"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in defaults used when no config file exists.
func Default() Config {
	return Config{
		Policy:   types.PolicyReport,
		LogLevel: "info",
	}
}

// DefaultPath returns ~/.adx/config.yaml, or "" when no home directory is
// available.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".adx", "config.yaml")
}

// Load reads a config file, layering it over the defaults. A missing file
// at the default path is not an error; a missing explicit path is.
func Load(path string, explicit bool) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !explicit {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.Policy == "" {
		cfg.Policy = types.PolicyReport
	}
	if !types.ValidPolicy(cfg.Policy) {
		return cfg, fmt.Errorf("invalid policy %q in config %s", cfg.Policy, path)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}
