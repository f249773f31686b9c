package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"romaantica/internal/slots"
)

// LoadSchedule loads and validates the opening schedule. A missing file
// yields slots.DefaultSchedule.
func LoadSchedule(path string) (slots.Schedule, error) {
	if path == "" {
		path = DefaultSchedulePath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return slots.DefaultSchedule(), nil
	}
	if err != nil {
		return slots.Schedule{}, fmt.Errorf("read schedule: %w", err)
	}

	return ParseSchedule(data)
}

// ParseSchedule decodes a schedule document; omitted fields keep their defaults.
func ParseSchedule(data []byte) (slots.Schedule, error) {
	schedule := slots.DefaultSchedule()
	var doc struct {
		Schedule *slots.Schedule `yaml:"schedule"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return slots.Schedule{}, fmt.Errorf("parse schedule: %w", err)
	}
	if doc.Schedule != nil {
		if len(doc.Schedule.Services) > 0 {
			schedule.Services = doc.Schedule.Services
		}
		if doc.Schedule.SlotMinutes != 0 {
			schedule.SlotMinutes = doc.Schedule.SlotMinutes
		}
		if doc.Schedule.SeatsPerSlot != 0 {
			schedule.SeatsPerSlot = doc.Schedule.SeatsPerSlot
		}
		schedule.ClosedWeekdays = doc.Schedule.ClosedWeekdays
		schedule.ClosedDates = doc.Schedule.ClosedDates
	}
	if err := schedule.Validate(); err != nil {
		return slots.Schedule{}, err
	}
	return schedule, nil
}
