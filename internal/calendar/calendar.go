// Package calendar answers "is this a trading day?" and "what is the most
// recent trading day on or before T?" against the US Eastern home exchange.
// It has no persistence and is fully overridable in tests via the Clock
// interface (spec.md §4.1).
package calendar

import (
	"time"
)

// Clock abstracts "now" so tests can freeze time instead of racing wall clock.
type Clock interface {
	Now() time.Time
}

// SystemClock returns the real wall-clock time in US Eastern.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.Now().UTC()
	}
	return time.Now().In(loc)
}

// FixedClock always returns the same instant. Used by tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Calendar is the authoritative trading-day oracle. Zero value is usable and
// defaults to SystemClock.
type Calendar struct {
	clock    Clock
	location *time.Location
	holidays map[string]struct{} // "YYYY-MM-DD" -> struct{}
}

// New constructs a Calendar with the given clock. Pass nil to use SystemClock.
func New(clock Clock) *Calendar {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = SystemClock{}
	}
	c := &Calendar{clock: clock, location: loc, holidays: make(map[string]struct{})}
	for _, h := range nyseHolidays2024To2030 {
		c.holidays[h] = struct{}{}
	}
	return c
}

// IsTradingDay reports whether d (compared by calendar date, ignoring time of
// day) is a trading day: not a weekend, not a static holiday.
func (c *Calendar) IsTradingDay(d time.Time) bool {
	d = d.In(c.location)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, isHoliday := c.holidays[d.Format("2006-01-02")]
	return !isHoliday
}

// MostRecentTradingDay rolls back from "today" (per the calendar's clock)
// through weekends/holidays until it lands on a trading day.
func (c *Calendar) MostRecentTradingDay() time.Time {
	d := dateOnly(c.clock.Now().In(c.location))
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// RollBack returns the most recent trading day on or before d.
func (c *Calendar) RollBack(d time.Time) time.Time {
	d = dateOnly(d.In(c.location))
	for !c.IsTradingDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// TradingDaysBetween returns every trading day in [start, end], inclusive.
func (c *Calendar) TradingDaysBetween(start, end time.Time) []time.Time {
	start = dateOnly(start.In(c.location))
	end = dateOnly(end.In(c.location))

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if c.IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nyseHolidays2024To2030 is a static list of full-day NYSE closures. Half
// days (e.g. the day after Thanksgiving) are treated as ordinary trading
// days since the spec works at daily-bar granularity.
var nyseHolidays2024To2030 = []string{
	"2024-01-01", "2024-01-15", "2024-02-19", "2024-03-29", "2024-05-27",
	"2024-06-19", "2024-07-04", "2024-09-02", "2024-11-28", "2024-12-25",
	"2025-01-01", "2025-01-20", "2025-02-17", "2025-04-18", "2025-05-26",
	"2025-06-19", "2025-07-04", "2025-09-01", "2025-11-27", "2025-12-25",
	"2026-01-01", "2026-01-19", "2026-02-16", "2026-04-03", "2026-05-25",
	"2026-06-19", "2026-07-03", "2026-09-07", "2026-11-26", "2026-12-25",
	"2027-01-01", "2027-01-18", "2027-02-15", "2027-03-26", "2027-05-31",
	"2027-06-18", "2027-07-05", "2027-09-06", "2027-11-25", "2027-12-24",
	"2028-01-01", "2028-01-17", "2028-02-21", "2028-04-14", "2028-05-29",
	"2028-06-19", "2028-07-04", "2028-09-04", "2028-11-23", "2028-12-25",
	"2029-01-01", "2029-01-15", "2029-02-19", "2029-03-30", "2029-05-28",
	"2029-06-19", "2029-07-04", "2029-09-03", "2029-11-22", "2029-12-25",
	"2030-01-01", "2030-01-21", "2030-02-18", "2030-04-19", "2030-05-27",
	"2030-06-19", "2030-07-04", "2030-09-02", "2030-11-28", "2030-12-25",
}
