// Package clock provides the zone-aware notion of "now" shared by deadline
// validation, filter date parsing and the periodic sweeps.
package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"

	// Zone data is embedded so the configured zone resolves on hosts
	// without a system tz database (containers, CI).
	_ "time/tzdata"
)

// DefaultZone is the business time zone used when none is configured.
const DefaultZone = "Africa/Tunis"

// ErrUnparseableTime is returned by ParseLocal when no accepted layout matches.
var ErrUnparseableTime = errors.New("unparseable time")

// localLayouts are tried in order by ParseLocal. Layouts without an offset
// are interpreted as wall-clock time in the clock's zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Clock reports the current instant and performs calendar arithmetic in a
// fixed business time zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// Option customizes a Clock.
type Option func(*Clock)

// WithNow overrides the source of the current instant. Used by tests and by
// one-shot sweeps that need a pinned reference time.
func WithNow(fn func() time.Time) Option {
	return func(c *Clock) {
		if fn != nil {
			c.now = fn
		}
	}
}

// New creates a Clock bound to loc. A nil loc falls back to UTC.
func New(loc *time.Location, opts ...Option) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	c := &Clock{loc: loc, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load resolves the IANA zone name and creates a Clock bound to it.
// An empty name selects DefaultZone.
func Load(name string, opts ...Option) (*Clock, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultZone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load time zone %q: %w", name, err)
	}
	return New(loc, opts...), nil
}

// Location returns the business time zone.
func (c *Clock) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in UTC.
func (c *Clock) Now() time.Time {
	return c.now().UTC()
}

// Local converts t into the business zone.
func (c *Clock) Local(t time.Time) time.Time {
	return t.In(c.loc)
}

// AddDays adds n calendar days to t using wall-clock arithmetic in the
// business zone, so a day across a DST change is still "same time tomorrow".
// The result is returned in UTC.
func (c *Clock) AddDays(t time.Time, n int) time.Time {
	return t.In(c.loc).AddDate(0, 0, n).UTC()
}

// Tomorrow is now plus one calendar day in the business zone.
func (c *Clock) Tomorrow() time.Time {
	return c.AddDays(c.Now(), 1)
}

// AtLeastTomorrow reports whether deadline is not earlier than now plus one
// calendar day. A deadline exactly at that boundary is accepted.
func (c *Clock) AtLeastTomorrow(deadline time.Time) bool {
	return !deadline.Before(c.Tomorrow())
}

// StartOfDay returns midnight of t's calendar day in the business zone.
func (c *Clock) StartOfDay(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, c.loc).UTC()
}

// EndOfDay returns the last representable second of t's calendar day in the
// business zone.
func (c *Clock) EndOfDay(t time.Time) time.Time {
	l := t.In(c.loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 23, 59, 59, 0, c.loc).UTC()
}

// ParseLocal parses s as a timestamp. RFC 3339 input keeps its own offset;
// zone-less input is read as wall-clock time in the business zone.
// The boolean reports whether s carried only a date.
func (c *Clock) ParseLocal(s string) (time.Time, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, fmt.Errorf("%w: empty value", ErrUnparseableTime)
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), false, nil
	}
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, c.loc)
		if err == nil {
			return t.UTC(), layout == "2006-01-02", nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrUnparseableTime, s)
}
