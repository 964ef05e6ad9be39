package domain

import (
	"strings"
	"time"
)

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp and
// reports whether the input was date-only.
func ParseDate(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false, err
	}
	return t, false, nil
}
