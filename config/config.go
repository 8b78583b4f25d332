// Package config loads, validates and persists fluxel settings, and
// watches the config file for live edits.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/fluxel/pattern"
	"github.com/lixenwraith/fluxel/terminal"
	"github.com/lixenwraith/fluxel/theme"
)

const DefaultFPS = 30

// Config is the persisted application state. Load fills missing keys
// from Default, so partial files are valid.
type Config struct {
	Pattern string `yaml:"pattern"`
	Theme   string `yaml:"theme"`
	FPS     int    `yaml:"fps"`
	Color   string `yaml:"color"` // auto, truecolor, 256
	Mouse   bool   `yaml:"mouse"`
	HUD     bool   `yaml:"hud"`
	Seed    uint64 `yaml:"seed"`     // 0 picks a random seed at startup
	LogFile string `yaml:"log_file"` // Empty disables file logging
}

func Default() *Config {
	return &Config{
		Pattern: pattern.DefaultName,
		Theme:   theme.Default().Name(),
		FPS:     DefaultFPS,
		Color:   "auto",
		Mouse:   true,
		HUD:     true,
	}
}

// DefaultPath returns the conventional config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "fluxel.yaml"
	}
	return filepath.Join(dir, "fluxel", "config.yaml")
}

// Load reads the file at path over the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config, creating parent directories as needed
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Normalize replaces unknown or out-of-range values with defaults and
// returns a description of each correction. A config that round-trips
// Normalize unchanged is fully valid.
func (c *Config) Normalize() []string {
	var fixes []string

	if c.FPS <= 0 {
		fixes = append(fixes, fmt.Sprintf("fps %d invalid, using %d", c.FPS, DefaultFPS))
		c.FPS = DefaultFPS
	}
	if !slices.Contains(pattern.Names(), c.Pattern) {
		fixes = append(fixes, fmt.Sprintf("unknown pattern %q, using %q", c.Pattern, pattern.DefaultName))
		c.Pattern = pattern.DefaultName
	}
	if _, err := theme.Get(c.Theme); err != nil {
		def := theme.Default().Name()
		fixes = append(fixes, fmt.Sprintf("unknown theme %q, using %q", c.Theme, def))
		c.Theme = def
	}
	switch c.Color {
	case "auto", "truecolor", "256":
	default:
		fixes = append(fixes, fmt.Sprintf("unknown color mode %q, using auto", c.Color))
		c.Color = "auto"
	}
	return fixes
}

// Mode resolves the color setting to a terminal mode. ok is false for
// auto, which leaves detection to the terminal layer.
func (c *Config) Mode() (mode terminal.ColorMode, ok bool) {
	switch c.Color {
	case "truecolor":
		return terminal.ColorModeTrueColor, true
	case "256":
		return terminal.ColorMode256, true
	default:
		return 0, false
	}
}
