package calendar

import (
	"strconv"
	"time"
)

// GridCells is the fixed size of a month grid: six Monday-first weeks.
const GridCells = 42

// Day is one cell of the month grid.
type Day struct {
	Date           time.Time
	Day            int
	Month          time.Month
	Year           int
	IsCurrentMonth bool
	IsToday        bool
	IsSelected     bool
	IsPast         bool
	IsDisabled     bool
}

// ISO returns the day formatted as YYYY-MM-DD.
func (d Day) ISO() string {
	return d.Date.Format("2006-01-02")
}

var monthNames = [...]string{
	"Gennaio", "Febbraio", "Marzo", "Aprile", "Maggio", "Giugno",
	"Luglio", "Agosto", "Settembre", "Ottobre", "Novembre", "Dicembre",
}

// MonthName returns the Italian name of m.
func MonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return monthNames[m-1]
}

// Grid builds the 42-cell grid of month in year. Leading and trailing cells
// belong to the adjacent months. selected may be zero.
func Grid(year int, month time.Month, today, selected time.Time, bounds Bounds) []Day {
	loc := today.Location()
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)

	offset := int(first.Weekday()) - 1 // Monday = 0
	if offset < 0 {
		offset = 6
	}

	todayOnly := StartOfDay(today)
	var selectedOnly time.Time
	if !selected.IsZero() {
		selectedOnly = StartOfDay(selected.In(loc))
	}

	days := make([]Day, 0, GridCells)
	for i := 0; i < GridCells; i++ {
		date := time.Date(year, month, 1-offset+i, 0, 0, 0, 0, loc)
		days = append(days, Day{
			Date:           date,
			Day:            date.Day(),
			Month:          date.Month(),
			Year:           date.Year(),
			IsCurrentMonth: date.Month() == month,
			IsToday:        date.Equal(todayOnly),
			IsSelected:     !selectedOnly.IsZero() && date.Equal(selectedOnly),
			IsPast:         date.Before(todayOnly),
			IsDisabled:     !bounds.Contains(date),
		})
	}
	return days
}

// Picker is the state of the date-picker popup.
type Picker struct {
	bounds   Bounds
	now      func() time.Time
	selected time.Time
	year     int
	month    time.Month
	open     bool
}

// NewPicker creates a picker showing the month of the initial value, or of today.
func NewPicker(bounds Bounds, now func() time.Time, initial time.Time) *Picker {
	if now == nil {
		now = time.Now
	}
	p := &Picker{bounds: bounds, now: now}
	shown := now()
	if !initial.IsZero() {
		p.selected = StartOfDay(initial)
		shown = initial
	}
	p.year, p.month = shown.Year(), shown.Month()
	return p
}

// SetBounds replaces the selectable window.
func (p *Picker) SetBounds(b Bounds) {
	p.bounds = b
}

// Bounds returns the selectable window.
func (p *Picker) Bounds() Bounds {
	return p.bounds
}

func (p *Picker) Toggle()      { p.open = !p.open }
func (p *Picker) Close()       { p.open = false }
func (p *Picker) IsOpen() bool { return p.open }

// Month returns the year and month currently shown.
func (p *Picker) Month() (int, time.Month) {
	return p.year, p.month
}

// Title returns "Ottobre 2026" for the shown month.
func (p *Picker) Title() string {
	return MonthName(p.month) + " " + strconv.Itoa(p.year)
}

// Selected returns the selected day, zero when none.
func (p *Picker) Selected() time.Time {
	return p.selected
}

// Days returns the grid of the shown month.
func (p *Picker) Days() []Day {
	return Grid(p.year, p.month, p.now(), p.selected, p.bounds)
}

func (p *Picker) PrevMonth() {
	if p.month == time.January {
		p.month = time.December
		p.year--
		return
	}
	p.month--
}

func (p *Picker) NextMonth() {
	if p.month == time.December {
		p.month = time.January
		p.year++
		return
	}
	p.month++
}

// Select picks day and closes the popup. Disabled days are rejected.
func (p *Picker) Select(day Day) (string, bool) {
	if day.IsDisabled {
		return "", false
	}
	return p.pick(day.Date)
}

// SelectDate picks t if it is inside the window.
func (p *Picker) SelectDate(t time.Time) (string, bool) {
	return p.pick(t)
}

func (p *Picker) SelectToday() (string, bool) {
	return p.pick(p.now())
}

func (p *Picker) SelectTomorrow() (string, bool) {
	return p.pick(p.now().AddDate(0, 0, 1))
}

// SelectWeekend picks the next Saturday; a week ahead when today is Saturday.
func (p *Picker) SelectWeekend() (string, bool) {
	return p.pick(NextSaturday(p.now()))
}

// NextSaturday returns the first Saturday strictly after t.
func NextSaturday(t time.Time) time.Time {
	days := (int(time.Saturday) - int(t.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return StartOfDay(t).AddDate(0, 0, days)
}

func (p *Picker) pick(t time.Time) (string, bool) {
	day := StartOfDay(t)
	if !p.bounds.Contains(day) {
		return "", false
	}
	p.selected = day
	p.year, p.month = day.Year(), day.Month()
	p.Close()
	return day.Format("2006-01-02"), true
}
