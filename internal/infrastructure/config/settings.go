// Package config loads system-level configuration for the CLI
// (~/.intercede/config.yaml). This is infrastructure configuration,
// separate from the per-target policy documents.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Settings is the global configuration file shape.
type Settings struct {
	Audit     AuditSettings     `yaml:"audit"`
	Redaction RedactionSettings `yaml:"redaction"`
}

// AuditSettings controls how the CLI renders audit logs.
type AuditSettings struct {
	// Level is the minimum entry level included when rendering: debug,
	// info, warn or error. Defaults to debug, which keeps everything.
	Level string `yaml:"level"`
	// Format is the default output format for audit convert: json, csv,
	// text or sarif. Defaults to text.
	Format string `yaml:"format"`
	// Timestamps toggles timestamps in rendered entries. Defaults to on.
	Timestamps *bool `yaml:"timestamps"`
	// StackTraces toggles inclusion of recorded call stacks. Off by
	// default; stacks are noisy and rarely wanted in converted output.
	StackTraces bool `yaml:"stack_traces"`
}

// RedactionSettings configures how sensitive data is scrubbed out of
// audit entries when conversion runs with --redact.
type RedactionSettings struct {
	Patterns []string         `yaml:"patterns"`
	Keys     []string         `yaml:"keys"`
	HashMode HashModeSettings `yaml:"hash_mode"`
}

// HashModeSettings controls hash-based redaction.
type HashModeSettings struct {
	Enabled bool   `yaml:"enabled"`
	Salt    string `yaml:"salt"`
}

// Default returns the settings used when no config file exists.
func Default() Settings {
	return Settings{
		Audit: AuditSettings{
			Level:  "debug",
			Format: "text",
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find home directory: %w", err)
	}
	return filepath.Join(home, ".intercede", "config.yaml"), nil
}

// Load reads settings from path. A missing file is not an error; the
// defaults apply.
func Load(path string) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	s.applyDefaults()
	return s, nil
}

func (s *Settings) applyDefaults() {
	if s.Audit.Level == "" {
		s.Audit.Level = "debug"
	}
	if s.Audit.Format == "" {
		s.Audit.Format = "text"
	}
}

// TimestampsEnabled reports the effective timestamp toggle.
func (a AuditSettings) TimestampsEnabled() bool {
	if a.Timestamps == nil {
		return true
	}
	return *a.Timestamps
}
