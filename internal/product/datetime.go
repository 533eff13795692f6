package product

import (
	"fmt"
	"time"
)

// ParseTime parses a timestamp in the RCM product format
// "2006-01-02T15:04:05.999999Z". The fractional seconds part is optional.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid product timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatTime renders a timestamp back to the RCM product format with
// microsecond precision.
func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000Z")
}
