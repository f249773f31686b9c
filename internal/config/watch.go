package config

import (
	"context"
	"os"
	"time"

	"romaantica/internal/slots"
)

// WatchSchedule reloads the schedule file when its mtime changes and calls
// onUpdate with every valid version. It performs an initial load before
// entering the watch loop; invalid edits are reported to onError and skipped.
func WatchSchedule(ctx context.Context, path string, interval time.Duration, onUpdate func(slots.Schedule), onError func(error)) error {
	if path == "" {
		path = DefaultSchedulePath
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	schedule, err := LoadSchedule(path)
	if err != nil {
		return err
	}
	if onUpdate != nil {
		onUpdate(schedule)
	}

	var lastMod time.Time
	if info, err := os.Stat(path); err == nil {
		lastMod = info.ModTime()
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				info, err := os.Stat(path)
				if err != nil {
					continue // transient errors
				}
				if !info.ModTime().After(lastMod) {
					continue
				}
				lastMod = info.ModTime()
				schedule, err := LoadSchedule(path)
				if err != nil {
					if onError != nil {
						onError(err)
					}
					continue
				}
				if onUpdate != nil {
					onUpdate(schedule)
				}
			}
		}
	}()

	return nil
}
