// Package availability classifies professional time slots against a weekly schedule and existing bookings.
package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// MinutesPerDay bounds minute-of-day values to [0, MinutesPerDay).
const MinutesPerDay = 24 * 60

// ParseClock converts a zero padded "HH:MM" string to minutes since midnight.
func ParseClock(value string) (int, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("malformed time %q: want HH:MM", value)
	}
	hours, ok := twoDigits(value[0:2])
	if !ok || hours > 23 {
		return 0, fmt.Errorf("malformed time %q: hour out of range", value)
	}
	minutes, ok := twoDigits(value[3:5])
	if !ok || minutes > 59 {
		return 0, fmt.Errorf("malformed time %q: minute out of range", value)
	}
	return hours*60 + minutes, nil
}

// MustParseClock is ParseClock for literals; it panics on malformed input.
func MustParseClock(value string) int {
	m, err := ParseClock(value)
	if err != nil {
		panic(err)
	}
	return m
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidClock reports whether value parses as HH:MM.
func ValidClock(value string) bool {
	_, err := ParseClock(value)
	return err == nil
}

// WeekdayName returns the lowercase english weekday of date.
func WeekdayName(date time.Time) string {
	return strings.ToLower(date.Weekday().String())
}

// ParseDate parses a YYYY-MM-DD calendar date at midnight UTC.
func ParseDate(value string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed date %q: want YYYY-MM-DD", value)
	}
	return d, nil
}

// Interval is a half-open [Start, End) range of minutes since midnight.
type Interval struct {
	Start int
	End   int
}

// Contains reports whether minute t lies within the interval.
func (i Interval) Contains(t int) bool {
	return i.Start <= t && t < i.End
}

// Overlaps reports whether two half-open intervals share at least one minute.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start < o.End && o.Start < i.End
}

func twoDigits(s string) (int, bool) {
	if s[0] < '0' || s[0] > '9' || s[1] < '0' || s[1] > '9' {
		return 0, false
	}
	return int(s[0]-'0')*10 + int(s[1]-'0'), true
}
