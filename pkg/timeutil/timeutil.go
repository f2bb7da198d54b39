// Package timeutil holds the date and time-of-day arithmetic shared by the
// recurrence expander and the scheduler: "HH:mm" wall-clock strings, minute
// deltas with hour carry/borrow, weekday names and interval overlap.
package timeutil

import (
	"fmt"
	"regexp"
	"time"
)

const minutesPerDay = 24 * 60

var timeOfDayPattern = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// WeekdayNames is the fixed English weekday set used on the wire.
var WeekdayNames = []string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// IsValidTimeOfDay reports whether value is a 24-hour "HH:mm" string.
func IsValidTimeOfDay(value string) bool {
	return timeOfDayPattern.MatchString(value)
}

// IsValidWeekday reports whether value is one of the English weekday names.
func IsValidWeekday(value string) bool {
	for _, name := range WeekdayNames {
		if name == value {
			return true
		}
	}
	return false
}

// WeekdayName returns the English weekday name of t ("Monday", ...).
func WeekdayName(t time.Time) string {
	return t.Weekday().String()
}

// MinutesOfDay converts an "HH:mm" string to minutes since midnight.
func MinutesOfDay(value string) (int, error) {
	if !timeOfDayPattern.MatchString(value) {
		return 0, fmt.Errorf("invalid time format %q, expected HH:mm", value)
	}
	var hours, minutes int
	if _, err := fmt.Sscanf(value, "%d:%d", &hours, &minutes); err != nil {
		return 0, fmt.Errorf("invalid time format %q, expected HH:mm", value)
	}
	return hours*60 + minutes, nil
}

// FormatMinutes renders minutes since midnight as an "HH:mm" string. The
// value is first normalized into the 0-1439 range, so negative inputs borrow
// and overflowing inputs wrap; the caller accounts for any day change via an
// explicit day delta.
func FormatMinutes(total int) string {
	total %= minutesPerDay
	if total < 0 {
		total += minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// ShiftTimeOfDay applies a signed minute delta to an "HH:mm" string, wrapping
// hours into the 0-23 range. Only the time of day moves; date movement is
// carried separately as a whole-day delta.
func ShiftTimeOfDay(value string, deltaMinutes int) (string, error) {
	minutes, err := MinutesOfDay(value)
	if err != nil {
		return "", err
	}
	return FormatMinutes(minutes + deltaMinutes), nil
}

// DiffMinutes returns the signed minute difference newValue - oldValue
// between two "HH:mm" strings.
func DiffMinutes(oldValue, newValue string) (int, error) {
	oldMinutes, err := MinutesOfDay(oldValue)
	if err != nil {
		return 0, err
	}
	newMinutes, err := MinutesOfDay(newValue)
	if err != nil {
		return 0, err
	}
	return newMinutes - oldMinutes, nil
}

// DiffDays returns the whole-day difference newDate - oldDate, ignoring any
// time-of-day component on either value.
func DiffDays(oldDate, newDate time.Time) int {
	return int(TruncateToDay(newDate).Sub(TruncateToDay(oldDate)).Hours() / 24)
}

// TruncateToDay drops the time-of-day component, keeping the UTC calendar day.
func TruncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CombineDateAndTime builds a UTC timestamp from a calendar date and an
// "HH:mm" wall-clock string. No timezone conversion is performed.
func CombineDateAndTime(date time.Time, timeOfDay string) (time.Time, error) {
	minutes, err := MinutesOfDay(timeOfDay)
	if err != nil {
		return time.Time{}, err
	}
	return TruncateToDay(date).Add(time.Duration(minutes) * time.Minute), nil
}

// Overlaps reports whether two half-open "HH:mm" intervals on the same date
// conflict: they do iff aStart < bEnd and aEnd > bStart.
func Overlaps(aStart, aEnd, bStart, bEnd string) (bool, error) {
	aStartMin, err := MinutesOfDay(aStart)
	if err != nil {
		return false, err
	}
	aEndMin, err := MinutesOfDay(aEnd)
	if err != nil {
		return false, err
	}
	bStartMin, err := MinutesOfDay(bStart)
	if err != nil {
		return false, err
	}
	bEndMin, err := MinutesOfDay(bEnd)
	if err != nil {
		return false, err
	}
	return aStartMin < bEndMin && aEndMin > bStartMin, nil
}

// Contains reports whether the window [outerStart, outerEnd] fully contains
// [innerStart, innerEnd].
func Contains(outerStart, outerEnd, innerStart, innerEnd string) (bool, error) {
	outerStartMin, err := MinutesOfDay(outerStart)
	if err != nil {
		return false, err
	}
	outerEndMin, err := MinutesOfDay(outerEnd)
	if err != nil {
		return false, err
	}
	innerStartMin, err := MinutesOfDay(innerStart)
	if err != nil {
		return false, err
	}
	innerEndMin, err := MinutesOfDay(innerEnd)
	if err != nil {
		return false, err
	}
	return outerStartMin <= innerStartMin && outerEndMin >= innerEndMin, nil
}
