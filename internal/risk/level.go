// Package risk derives deterministic risk features from a canonical record
// and maps them onto a four-level risk scale.
package risk

import (
	"fmt"
	"strings"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

// Level is the ordered risk scale. The zero value is not a valid level.
type Level int

// Risk levels in ascending order.
const (
	LevelLow Level = iota + 1
	LevelMedium
	LevelHigh
	LevelCritical
)

// Levels lists every valid level in ascending order.
func Levels() []Level {
	return []Level{LevelLow, LevelMedium, LevelHigh, LevelCritical}
}

// String returns the wire name of the level.
func (l Level) String() string {
	switch l {
	case LevelLow:
		return "LOW"
	case LevelMedium:
		return "MEDIUM"
	case LevelHigh:
		return "HIGH"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// Valid reports whether l is one of the four defined levels.
func (l Level) Valid() bool {
	return l >= LevelLow && l <= LevelCritical
}

// ParseLevel parses a level name case-insensitively. Unknown names are an error, never coerced.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return LevelLow, nil
	case "MEDIUM":
		return LevelMedium, nil
	case "HIGH":
		return LevelHigh, nil
	case "CRITICAL":
		return LevelCritical, nil
	default:
		return 0, appErrors.InvalidFieldError("risk_level", s)
	}
}

// MarshalText encodes the level as its name for JSON and YAML.
func (l Level) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, appErrors.InvalidFieldError("risk_level", l.String())
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Max returns the higher of two levels.
func Max(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}
