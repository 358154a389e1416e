package sqlite

import (
	"fmt"
	"time"
)

// parseTime accepts both RFC 3339 values written by the repos and the
// "YYYY-MM-DD HH:MM:SS" form produced by SQLite's CURRENT_TIMESTAMP.
func parseTime(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time format: %s", s)
}
