package domain

import (
	"regexp"
	"time"
)

// Day is a calendar key in YYYY-MM-DD form. All player-record and leaderboard
// state is partitioned by it.
type Day string

const dayLayout = "2006-01-02"

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseDay validates a day key. Both the shape and the calendar value are
// checked, so "2025-1-5" and "2025-13-40" are rejected.
func ParseDay(s string) (Day, error) {
	if !dayPattern.MatchString(s) {
		return "", NewValidationError("Invalid date format. Use YYYY-MM-DD")
	}
	if _, err := time.Parse(dayLayout, s); err != nil {
		return "", NewValidationError("Invalid date format. Use YYYY-MM-DD")
	}
	return Day(s), nil
}

// Today returns the current UTC day key.
func Today() Day {
	return DayOf(time.Now())
}

// DayOf returns the UTC day key for an instant.
func DayOf(t time.Time) Day {
	return Day(t.UTC().Format(dayLayout))
}

func (d Day) String() string {
	return string(d)
}
