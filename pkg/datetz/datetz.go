// Package datetz centralizes calendar math in one fixed time zone so every
// component agrees on where a day, week, or month starts. All ranges are
// half-open: [From, To).
package datetz

import (
	"time"
)

const DefaultZone = "Asia/Jakarta"

// Range is a half-open time interval [From, To).
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

func (r Range) IsZero() bool {
	return r.From.IsZero() && r.To.IsZero()
}

// Ranger resolves date strings and named shortcuts against a fixed IANA
// zone. The now func is swappable for tests.
type Ranger struct {
	loc *time.Location
	now func() time.Time
}

func NewRanger(zone string) (*Ranger, error) {
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, err
	}
	return &Ranger{loc: loc, now: time.Now}, nil
}

// NewRangerAt pins the ranger's clock; used by tests.
func NewRangerAt(zone string, now func() time.Time) (*Ranger, error) {
	r, err := NewRanger(zone)
	if err != nil {
		return nil, err
	}
	r.now = now
	return r, nil
}

func (g *Ranger) Location() *time.Location {
	return g.loc
}

func (g *Ranger) startOfDay(t time.Time) time.Time {
	t = t.In(g.loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.loc)
}

func (g *Ranger) startOfMonth(t time.Time) time.Time {
	t = t.In(g.loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, g.loc)
}

// Day returns the local calendar day containing t.
func (g *Ranger) Day(t time.Time) Range {
	start := g.startOfDay(t)
	return Range{From: start, To: start.AddDate(0, 0, 1)}
}

// DayKey is the bucket key used when grouping events by local calendar day.
func (g *Ranger) DayKey(t time.Time) string {
	return t.In(g.loc).Format("2006-01-02")
}

// ParseDate parses an ISO calendar date at local midnight.
func (g *Ranger) ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", s, g.loc)
}

// Between builds the inclusive date range [from, to] as a half-open time
// range [from 00:00, to+1d 00:00). A zero endpoint leaves that side open.
func (g *Ranger) Between(from, to time.Time) Range {
	r := Range{}
	if !from.IsZero() {
		r.From = g.startOfDay(from)
	}
	if !to.IsZero() {
		r.To = g.startOfDay(to).AddDate(0, 0, 1)
	}
	return r
}

// Shortcut resolves a named date range relative to the ranger's clock.
// ok is false for unknown names; callers drop the filter rather than fail.
func (g *Ranger) Shortcut(name string) (Range, bool) {
	today := g.startOfDay(g.now())

	switch name {
	case "today":
		return Range{From: today, To: today.AddDate(0, 0, 1)}, true
	case "yesterday":
		return Range{From: today.AddDate(0, 0, -1), To: today}, true
	case "this_week":
		// Minggu dimulai hari Senin
		offset := (int(today.Weekday()) + 6) % 7
		monday := today.AddDate(0, 0, -offset)
		return Range{From: monday, To: monday.AddDate(0, 0, 7)}, true
	case "current_month":
		first := g.startOfMonth(today)
		return Range{From: first, To: first.AddDate(0, 1, 0)}, true
	case "last_month":
		first := g.startOfMonth(today)
		return Range{From: first.AddDate(0, -1, 0), To: first}, true
	}
	return Range{}, false
}
