package utils

import "time"

// FormatTimestamp renders a timestamp the way repositories persist it,
// RFC3339 with nanoseconds, so round-trips preserve updatedAt ordering.
func FormatTimestamp(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTimestamp parses a persisted timestamp. A malformed value yields the
// zero time.
func ParseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
