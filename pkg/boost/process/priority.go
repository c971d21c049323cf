package process

import (
	"errors"
	"fmt"
	"strings"
)

// PriorityClass is a portable scheduling class. Each platform maps it to
// its native representation (a Windows priority class or a Unix nice value).
type PriorityClass int

// Priority classes, lowest to highest.
const (
	PriorityNormal PriorityClass = iota
	PriorityAboveNormal
	PriorityHigh
	PriorityRealtime
)

// ErrInvalidPriority is returned for unrecognized class names.
var ErrInvalidPriority = errors.New("invalid priority class")

func (c PriorityClass) String() string {
	switch c {
	case PriorityNormal:
		return "normal"
	case PriorityAboveNormal:
		return "above_normal"
	case PriorityHigh:
		return "high"
	case PriorityRealtime:
		return "realtime"
	default:
		return fmt.Sprintf("PriorityClass(%d)", int(c))
	}
}

// NativeName is the class as the OS documentation names it.
func (c PriorityClass) NativeName() string {
	switch c {
	case PriorityNormal:
		return "NORMAL_PRIORITY_CLASS"
	case PriorityAboveNormal:
		return "ABOVE_NORMAL_PRIORITY_CLASS"
	case PriorityHigh:
		return "HIGH_PRIORITY_CLASS"
	case PriorityRealtime:
		return "REALTIME_PRIORITY_CLASS"
	default:
		return c.String()
	}
}

// Capped lowers realtime to high. The second result reports whether the
// class was changed. Realtime can starve input and audio threads, so it is
// never applied to a foreign process.
func (c PriorityClass) Capped() (PriorityClass, bool) {
	if c >= PriorityRealtime {
		return PriorityHigh, true
	}
	return c, false
}

// ParsePriorityClass parses a case-insensitive class name. Hyphens and
// spaces are accepted in place of underscores.
func ParsePriorityClass(s string) (PriorityClass, error) {
	norm := strings.NewReplacer("-", "_", " ", "_").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "normal":
		return PriorityNormal, nil
	case "above_normal", "abovenormal":
		return PriorityAboveNormal, nil
	case "high":
		return PriorityHigh, nil
	case "realtime", "real_time":
		return PriorityRealtime, nil
	}
	return PriorityNormal, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

// niceValue maps a class to a Unix nice value.
func niceValue(c PriorityClass) int {
	switch c {
	case PriorityAboveNormal:
		return -5
	case PriorityHigh:
		return -10
	case PriorityRealtime:
		return -20
	default:
		return 0
	}
}
