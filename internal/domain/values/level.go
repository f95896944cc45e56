// Package values contains domain value objects that encapsulate
// primitive types with validation and such.
package values

import (
	"fmt"
	"strings"
)

// Level represents the severity of an audit entry.
// Enforces valid level values and provides ordering.
type Level string

const (
	// LevelDebug is for high-volume observational entries (reads, lookups).
	LevelDebug Level = "debug"
	// LevelInfo is for state-affecting entries (writes, deletes, calls).
	LevelInfo Level = "info"
	// LevelWarn is for suspicious but non-failing entries.
	LevelWarn Level = "warn"
	// LevelError is for entries recording a failed or aborted operation.
	LevelError Level = "error"
)

// NewLevel parses a string into a Level.
func NewLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelWarn:
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	default:
		return "", fmt.Errorf("invalid level: %q (valid: debug, info, warn, error)", s)
	}
}

// MustNewLevel parses a string or panics (for tests only).
func MustNewLevel(s string) Level {
	l, err := NewLevel(s)
	if err != nil {
		panic(err)
	}
	return l
}

// Priority returns the numeric ordering of this level.
//
// Priority: Error (3) > Warn (2) > Info (1) > Debug (0)
func (l Level) Priority() int {
	switch l {
	case LevelError:
		return 3
	case LevelWarn:
		return 2
	case LevelInfo:
		return 1
	case LevelDebug:
		return 0
	default:
		return -1
	}
}

// AtLeast returns true if this level meets or exceeds the threshold.
// Used by the audit sink gate: entries below the configured level are
// stored but not emitted.
func (l Level) AtLeast(threshold Level) bool {
	return l.Priority() >= threshold.Priority()
}

// Validate returns an error if the level value is invalid.
func (l Level) Validate() error {
	_, err := NewLevel(string(l))
	return err
}

// String returns the string representation.
func (l Level) String() string {
	return string(l)
}
