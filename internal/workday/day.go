package workday

import (
	"fmt"
	"regexp"
	"time"
)

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}$`)

// ValidTime reports whether s is a strict zero-padded HH:MM timestamp with
// hour in [0,23] and minute in [0,59]. "8:00" is rejected; "08:00" is valid.
func ValidTime(s string) bool {
	if !timePattern.MatchString(s) {
		return false
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour <= 23 && minute <= 59
}

var dayPattern = regexp.MustCompile(`^\d{8}$`)

// ParseDay resolves a user-supplied day: the keywords "HOY" and "AYER"
// (resolved against now) or a literal YYYYMMDD date.
func ParseDay(input string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch input {
	case "HOY":
		return today, nil
	case "AYER":
		return today.AddDate(0, 0, -1), nil
	}
	if !dayPattern.MatchString(input) {
		return time.Time{}, fmt.Errorf("invalid day %q: expected HOY, AYER or YYYYMMDD", input)
	}
	day, err := time.ParseInLocation("20060102", input, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day %q: %w", input, err)
	}
	return day, nil
}
