// Package calendar provides the selectable date window and the date-picker grid.
package calendar

import "time"

// DefaultMaxAdvanceMonths is how far ahead a table can be booked.
const DefaultMaxAdvanceMonths = 3

// Bounds is the inclusive window of selectable dates.
type Bounds struct {
	Min time.Time
	Max time.Time
}

// NewBounds returns the window starting today and ending months calendar months later.
func NewBounds(now time.Time, months int) Bounds {
	if months <= 0 {
		months = DefaultMaxAdvanceMonths
	}
	minDate := MinDate(now)
	return Bounds{Min: minDate, Max: AddMonths(minDate, months)}
}

// ParseBounds builds the window from two YYYY-MM-DD dates.
func ParseBounds(minISO, maxISO string, loc *time.Location) (Bounds, error) {
	minDate, err := time.ParseInLocation("2006-01-02", minISO, loc)
	if err != nil {
		return Bounds{}, err
	}
	maxDate, err := time.ParseInLocation("2006-01-02", maxISO, loc)
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{Min: minDate, Max: maxDate}, nil
}

// Contains reports whether the day of t falls inside the window.
func (b Bounds) Contains(t time.Time) bool {
	d := StartOfDay(t)
	return !d.Before(b.Min) && !d.After(b.Max)
}

// MinDate is today truncated to midnight in now's location.
func MinDate(now time.Time) time.Time {
	return StartOfDay(now)
}

// MaxDate is MinDate plus months calendar months.
func MaxDate(now time.Time, months int) time.Time {
	return AddMonths(MinDate(now), months)
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddMonths adds months keeping the day of month; when the target month is
// shorter the result is its last day (31 Nov -> 28/29 Feb, never 2-3 Mar).
func AddMonths(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Month(), first.Year()); d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days of month m in year.
func DaysIn(m time.Month, year int) int {
	switch m {
	case time.February:
		if (year%4 == 0 && year%100 != 0) || year%400 == 0 {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
