// Package slots generates the restaurant's daily reservation times and
// tracks seat capacity for an in-process booking backend.
package slots

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"romaantica/internal/models"
)

// Service is a sitting such as lunch or dinner. End is the last bookable time.
type Service struct {
	Name  string `yaml:"name"`
	Start string `yaml:"start"` // "12:00"
	End   string `yaml:"end"`   // "14:00"
}

// Schedule describes when tables can be booked.
type Schedule struct {
	Services       []Service `yaml:"services"`
	SlotMinutes    int       `yaml:"slot_minutes"`
	SeatsPerSlot   int       `yaml:"seats_per_slot"`
	ClosedWeekdays []string  `yaml:"closed_weekdays"` // "monday", ...
	ClosedDates    []string  `yaml:"closed_dates"`    // YYYY-MM-DD
}

const (
	DefaultSlotMinutes  = 30
	DefaultSeatsPerSlot = 40
)

// DefaultSchedule is lunch 12:00-14:00 and dinner 19:00-22:00 every half hour.
func DefaultSchedule() Schedule {
	return Schedule{
		Services: []Service{
			{Name: "pranzo", Start: "12:00", End: "14:00"},
			{Name: "cena", Start: "19:00", End: "22:00"},
		},
		SlotMinutes:  DefaultSlotMinutes,
		SeatsPerSlot: DefaultSeatsPerSlot,
	}
}

// Validate checks times, ordering and capacity.
func (s Schedule) Validate() error {
	if len(s.Services) == 0 {
		return errors.New("schedule: at least one service is required")
	}
	if s.SlotMinutes <= 0 {
		return fmt.Errorf("schedule: slot_minutes must be positive, got %d", s.SlotMinutes)
	}
	if s.SeatsPerSlot <= 0 {
		return fmt.Errorf("schedule: seats_per_slot must be positive, got %d", s.SeatsPerSlot)
	}
	prevEnd := -1
	for i, svc := range s.Services {
		start, err := parseMinutes(svc.Start)
		if err != nil {
			return fmt.Errorf("schedule: service %d start: %w", i, err)
		}
		end, err := parseMinutes(svc.End)
		if err != nil {
			return fmt.Errorf("schedule: service %d end: %w", i, err)
		}
		if end < start {
			return fmt.Errorf("schedule: service %d ends before it starts", i)
		}
		if start <= prevEnd {
			return fmt.Errorf("schedule: service %d overlaps the previous one", i)
		}
		prevEnd = end
	}
	for _, wd := range s.ClosedWeekdays {
		if _, ok := weekdays[strings.ToLower(wd)]; !ok {
			return fmt.Errorf("schedule: unknown weekday %q", wd)
		}
	}
	for _, d := range s.ClosedDates {
		if _, err := time.Parse(models.DateLayout, d); err != nil {
			return fmt.Errorf("schedule: closed date %q: %w", d, err)
		}
	}
	return nil
}

// Times lists the bookable times of a day in order. Service ends are inclusive.
func (s Schedule) Times() []string {
	step := s.SlotMinutes
	if step <= 0 {
		step = DefaultSlotMinutes
	}
	var times []string
	for _, svc := range s.Services {
		start, err := parseMinutes(svc.Start)
		if err != nil {
			continue
		}
		end, err := parseMinutes(svc.End)
		if err != nil {
			continue
		}
		for m := start; m <= end; m += step {
			times = append(times, formatMinutes(m))
		}
	}
	return times
}

// Has reports whether t is one of the schedule's times.
func (s Schedule) Has(t string) bool {
	for _, candidate := range s.Times() {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsClosed reports whether the restaurant takes no bookings on day.
func (s Schedule) IsClosed(day time.Time) bool {
	for _, wd := range s.ClosedWeekdays {
		if weekdays[strings.ToLower(wd)] == day.Weekday() {
			return true
		}
	}
	iso := day.Format(models.DateLayout)
	for _, d := range s.ClosedDates {
		if d == iso {
			return true
		}
	}
	return false
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func parseMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("invalid hour: %s", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid minute: %s", s)
	}
	return hour*60 + minute, nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// timeOnDate places an "HH:MM" time on day.
func timeOnDate(day time.Time, t string) (time.Time, error) {
	m, err := parseMinutes(t)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), m/60, m%60, 0, 0, day.Location()), nil
}
