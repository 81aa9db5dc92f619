// config/duration.go
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// parseDurationFlexible reads a duration from a config value: "90s" style
// strings, plain seconds ("120", 120, 1.5) or a time.Duration. Empty and
// unknown values yield def without error; invalid or non-positive values
// yield def with an error so the caller can warn.
func parseDurationFlexible(raw any, def time.Duration) (time.Duration, error) {
	var d time.Duration
	switch t := raw.(type) {
	case time.Duration:
		d = t
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return def, nil
		}
		if parsed, err := time.ParseDuration(s); err == nil {
			d = parsed
		} else if n, err := strconv.ParseFloat(s, 64); err == nil {
			d = seconds(n)
		} else {
			return def, fmt.Errorf("cannot parse duration %q", s)
		}
	case int:
		d = seconds(float64(t))
	case int32:
		d = seconds(float64(t))
	case int64:
		d = seconds(float64(t))
	case float64:
		d = seconds(t)
	default:
		return def, nil
	}
	if d <= 0 {
		return def, fmt.Errorf("duration must be > 0, got %v", raw)
	}
	return d, nil
}

func seconds(n float64) time.Duration {
	return time.Duration(n * float64(time.Second))
}
