// Package clock converts between colon-delimited clock strings and
// millisecond counts. Clock strings come straight from timer widgets and
// duration form fields, so every segment is validated before arithmetic.
package clock

import (
	"fmt"
	"strconv"
	"strings"

	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
)

const (
	msPerSecond int64 = 1000
	msPerMinute int64 = 60 * msPerSecond
	msPerHour   int64 = 60 * msPerMinute
)

// ParseClockString converts "H:M:S", "M:S" or "S" into milliseconds.
// Non-numeric, empty or negative segments are rejected rather than coerced.
func ParseClockString(s string) (int64, error) {
	parts := strings.Split(s, ":")

	switch len(parts) {
	case 3:
		hours, err := parseSegment(parts[0])
		if err != nil {
			return 0, err
		}
		minutes, err := parseSegment(parts[1])
		if err != nil {
			return 0, err
		}
		seconds, err := parseSegment(parts[2])
		if err != nil {
			return 0, err
		}
		return hours*msPerHour + minutes*msPerMinute + seconds*msPerSecond, nil
	case 2:
		minutes, err := parseSegment(parts[0])
		if err != nil {
			return 0, err
		}
		seconds, err := parseSegment(parts[1])
		if err != nil {
			return 0, err
		}
		return minutes*msPerMinute + seconds*msPerSecond, nil
	case 1:
		seconds, err := parseSegment(parts[0])
		if err != nil {
			return 0, err
		}
		return seconds * msPerSecond, nil
	default:
		return 0, appErrors.Clone(appErrors.ErrValidation, "malformed duration")
	}
}

// FormatMilliseconds renders a millisecond count back into a clock string.
// Durations under an hour render as M:SS, longer ones as H:MM:SS.
func FormatMilliseconds(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / msPerHour
	minutes := (ms % msPerHour) / msPerMinute
	seconds := (ms % msPerMinute) / msPerSecond

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func parseSegment(raw string) (int64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, appErrors.Clone(appErrors.ErrValidation, "malformed duration")
	}
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil || value < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid duration segment %q", raw))
	}
	return value, nil
}
