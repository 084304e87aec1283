// Package config loads vhook settings from YAML with VHOOK_* environment
// overrides, and watches the config directory for changes.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the config file LoadDir and Watcher look for.
const FileName = "vhook.yaml"

// Config is the top-level vhook configuration.
type Config struct {
	LogLevel   string                `yaml:"log_level"`
	Protection ProtectionConfig      `yaml:"protection"`
	Hooks      map[string]HookConfig `yaml:"hooks"`
	Shadow     ShadowConfig          `yaml:"shadow"`
}

type ProtectionConfig struct {
	// Restore puts a table page's protection back after each write.
	Restore bool `yaml:"restore"`
}

// HookConfig holds per-slot settings, keyed by slot name.
type HookConfig struct {
	Enabled *bool `yaml:"enabled"`
}

// IsEnabled returns whether the hook is enabled. Defaults to true when not
// explicitly set.
func (h HookConfig) IsEnabled() bool {
	if h.Enabled == nil {
		return true
	}
	return *h.Enabled
}

type ShadowConfig struct {
	// Prefix is the number of words copied in front of a shadowed table.
	Prefix int `yaml:"prefix"`
}

// Default returns a configuration with the defaults vhook uses when no file
// is present.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Protection: ProtectionConfig{
			Restore: true,
		},
		Hooks: map[string]HookConfig{},
		Shadow: ShadowConfig{
			Prefix: 2,
		},
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := loadFileInto(path, cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return finish(cfg)
}

// LoadDir loads FileName from dir. A missing file is not an error; the
// defaults apply.
func LoadDir(dir string) (*Config, error) {
	cfg := Default()
	err := loadFileInto(filepath.Join(dir, FileName), cfg)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", FileName, err)
	}
	return finish(cfg)
}

// Parse parses YAML from memory.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	if cfg.Hooks == nil {
		cfg.Hooks = map[string]HookConfig{}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// loadFileInto reads a YAML file and unmarshals it into an existing Config,
// overwriting only the fields present in the file.
func loadFileInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ApplyEnvOverrides reads VHOOK_* environment variables and applies them
// to the config, overriding YAML values.
//
// VHOOK_DISABLE is a comma separated list of slot names to disable.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("VHOOK_LOG_LEVEL"); val != "" {
		c.LogLevel = val
	}
	if val := os.Getenv("VHOOK_PROTECTION_RESTORE"); val != "" {
		c.Protection.Restore = parseBool(val)
	}
	if val := os.Getenv("VHOOK_SHADOW_PREFIX"); val != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			c.Shadow.Prefix = n
		}
	}
	if val := os.Getenv("VHOOK_DISABLE"); val != "" {
		disabled := false
		for _, name := range strings.Split(val, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			c.Hooks[name] = HookConfig{Enabled: &disabled}
		}
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.Shadow.Prefix < 0 {
		return fmt.Errorf("shadow.prefix must not be negative")
	}

	for name := range c.Hooks {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("hooks: empty slot name")
		}
	}

	return nil
}
