// Package config loads unsafe-finder settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	doublestar "github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/unsafe-finder/internal/report"
)

// LocalNames are the file names searched by LoadLocal, in order.
var LocalNames = []string{".unsafe-finder.yml", ".unsafe-finder.yaml", "unsafe-finder.yml", "unsafe-finder.yaml"}

// ErrNoConfig is returned by LoadLocal when no config file exists.
var ErrNoConfig = errors.New("no local config")

// ColorModes are the color settings accepted by Validate.
var ColorModes = []string{"auto", "always", "never"}

// FileConfig is the on-disk YAML configuration shape. Unset keys are nil so
// command-line defaults can be told apart from explicit values.
type FileConfig struct {
	Exclude     []string `yaml:"exclude"`
	Gitignore   *bool    `yaml:"gitignore"`
	Format      *string  `yaml:"format"`
	Jobs        *int     `yaml:"jobs"`
	MaxFileSize *int64   `yaml:"max_file_size"`
	Strict      *bool    `yaml:"strict"`
	Color       *string  `yaml:"color"`
	LogLevel    *string  `yaml:"log_level"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadLocal searches dir for one of LocalNames.
func LoadLocal(dir string) (FileConfig, string, error) {
	for _, name := range LocalNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			cfg, err := LoadFile(p)
			return cfg, p, err
		}
	}
	return FileConfig{}, "", ErrNoConfig
}

// Validate checks value ranges and enumerations.
func (fc FileConfig) Validate() error {
	if fc.Format != nil && !slices.Contains(report.Formats, *fc.Format) {
		return fmt.Errorf("format: unsupported value %q", *fc.Format)
	}
	if fc.Color != nil && !slices.Contains(ColorModes, *fc.Color) {
		return fmt.Errorf("color: unsupported value %q", *fc.Color)
	}
	if fc.Jobs != nil && *fc.Jobs < 0 {
		return fmt.Errorf("jobs: must not be negative")
	}
	if fc.MaxFileSize != nil && *fc.MaxFileSize < 0 {
		return fmt.Errorf("max_file_size: must not be negative")
	}
	for _, p := range fc.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("exclude: invalid pattern %q", p)
		}
	}
	return nil
}

// Template is the starter configuration written by `unsafe-finder init`.
const Template = `# unsafe-finder configuration.
# Command-line flags override the values below.

# Doublestar patterns for files and directories to skip during directory
# expansion, e.g. "target" or "vendor/**".
exclude: []

# Skip paths matched by the .gitignore at the root of each directory argument.
gitignore: false

# Output format: text, json or sarif.
format: text

# Files analyzed in parallel. Output order is unaffected.
jobs: 1

# Skip files larger than this many bytes (0 = no limit).
max_file_size: 0

# Exit with status 1 when any file or directory had to be skipped.
strict: false

# Colorize text output: auto, always or never.
color: auto

# Log level for diagnostics on stderr: trace, debug, info, warn or error.
log_level: warn
`
