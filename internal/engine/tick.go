// Package engine provides the day-based simulation clock.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DaysPerWeek and DaysPerSeason set the calendar.
const (
	DaysPerWeek   = 7
	DaysPerSeason = 90
)

// Clock drives the simulation forward one sim-day at a time.
type Clock struct {
	Day      uint64        // Current day counter (monotonic, never resets)
	Speed    float64       // Multiplier: 1.0 = one day per Interval, 0 = paused
	Interval time.Duration // Base day interval for Run

	// Callbacks for each layer, populated during setup.
	OnDay  func(day uint64) // Every day
	OnWeek func(day uint64) // Every 7 days
}

// NewClock creates a clock starting after day start.
func NewClock(start uint64) *Clock {
	return &Clock{
		Day:      start,
		Speed:    1.0,
		Interval: time.Second,
	}
}

// RunDays advances n days without pacing.
func (c *Clock) RunDays(n int) {
	for i := 0; i < n; i++ {
		c.step()
	}
}

// Run advances with pacing until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	slog.Info("clock started", "day", c.Day, "speed", c.Speed)
	defer slog.Info("clock stopped", "day", c.Day)

	for {
		if c.Speed <= 0 {
			// Paused; check again shortly.
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}

		start := time.Now()
		c.step()

		wait := time.Duration(float64(c.Interval)/c.Speed) - time.Since(start)
		if wait < 0 {
			wait = 0
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// step advances the clock by one day.
func (c *Clock) step() {
	c.Day++

	if c.OnDay != nil {
		c.OnDay(c.Day)
	}
	if c.Day%DaysPerWeek == 0 && c.OnWeek != nil {
		c.OnWeek(c.Day)
	}
}

// SimDate returns a human-readable date for a day number.
func SimDate(day uint64) string {
	days := day%DaysPerSeason + 1
	seasons := day / DaysPerSeason
	season := seasons % 4
	years := seasons/4 + 1

	seasonNames := [4]string{"Spring", "Summer", "Autumn", "Winter"}

	return fmt.Sprintf("%s Day %d, Year %d", seasonNames[season], days, years)
}
