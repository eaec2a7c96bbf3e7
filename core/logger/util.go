package logger

import (
	"strings"
	"time"
)

// RoundMS rounds a duration to millisecond precision so log lines stay
// compact and stable across runs.
func RoundMS(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d.Round(time.Millisecond)
}

// SummarizeStrings joins at most limit values into a preview string. The
// second return value reports whether the list was cut short.
func SummarizeStrings(values []string, limit int) (string, bool) {
	switch {
	case limit <= 0:
		return "", len(values) > 0
	case len(values) <= limit:
		return strings.Join(values, ", "), false
	default:
		return strings.Join(values[:limit], ", "), true
	}
}
