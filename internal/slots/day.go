package slots

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DayLayout is the canonical calendar-day format.
const DayLayout = "2006-01-02"

// DayString formats the wall-clock date of t as YYYY-MM-DD.
// It reads the fields in t's own location; converting to UTC first would move
// late-evening local dates onto the next day.
func DayString(t time.Time) string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day())
}

// DayKey reduces a backend date (plain day or full ISO timestamp) to its
// calendar-day part. Only the first 10 characters are significant.
func DayKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > len(DayLayout) {
		return raw[:len(DayLayout)]
	}
	return raw
}

// ParseDay parses a YYYY-MM-DD string as midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DayLayout, DayKey(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q; expected YYYY-MM-DD", s)
	}
	return t, nil
}

// NormalizeTime turns "HH:MM" or "HH:MM:SS" into the backend's HH:MM:SS form.
func NormalizeTime(s string) (string, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("invalid time format: %s", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute in %q", s)
	}
	second := 0
	if len(parts) == 3 {
		second, err = strconv.Atoi(parts[2])
		if err != nil || second < 0 || second > 59 {
			return "", fmt.Errorf("invalid second in %q", s)
		}
	}
	return fmt.Sprintf("%02d:%02d:%02d", hour, minute, second), nil
}

// timeKey normalises a time for comparison, falling back to the raw value.
func timeKey(s string) string {
	if n, err := NormalizeTime(s); err == nil {
		return n
	}
	return strings.TrimSpace(s)
}
