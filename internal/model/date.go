package model

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05Z"
	ClockLayout    = "15:04:05"
)

// ValidateDate accepts the empty string, a date (YYYY-MM-DD) or a UTC
// date-time (YYYY-MM-DDTHH:MM:SSZ).
func ValidateDate(s string) error {
	if s == "" {
		return nil
	}
	if _, _, err := ParseDate(s); err != nil {
		return err
	}
	return nil
}

// ParseDate parses a non-empty task date. hasTime is true for the date-time
// form.
func ParseDate(s string) (t time.Time, hasTime bool, err error) {
	if strings.Contains(s, "T") {
		t, err = time.Parse(DateTimeLayout, s)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
		}
		return t, true, nil
	}
	t, err = time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, false, nil
}

// SplitDateTime returns the date and clock parts of a task date. Either may
// be empty.
func SplitDateTime(s string) (date, clock string) {
	date, rest, found := strings.Cut(s, "T")
	if !found {
		return date, ""
	}
	return date, strings.TrimSuffix(rest, "Z")
}

// ComposeDateTime builds a task date from separately chosen date and clock
// values. A clock without a date is anchored to today's date.
func ComposeDateTime(date, clock string, today time.Time) (string, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if date != "" {
		if _, err := time.Parse(DateLayout, date); err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
		}
	}
	if clock != "" {
		if _, err := time.Parse(ClockLayout, clock); err != nil {
			return "", fmt.Errorf("%w: clock %q", ErrInvalidDate, clock)
		}
	}
	switch {
	case date == "" && clock == "":
		return "", nil
	case clock == "":
		return date, nil
	case date == "":
		return today.UTC().Format(DateLayout) + "T" + clock + "Z", nil
	default:
		return date + "T" + clock + "Z", nil
	}
}
