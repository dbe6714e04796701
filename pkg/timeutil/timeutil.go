// Package timeutil provides the clock abstraction used by race timing and a
// handful of race-day time helpers.
// Race timestamps are carried as int64 milliseconds since the Unix epoch,
// with 0 meaning "not set".
package timeutil

import (
	"fmt"
	"sync"
	"time"
)

// Clock is a source of the current time. The race core never reads the wall
// clock directly; it asks a Clock.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// ManualClock is a Clock that only moves when told to. Safe for concurrent use.
type ManualClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewManualClock creates a ManualClock set to t.
func NewManualClock(t time.Time) *ManualClock {
	return &ManualClock{now: t}
}

// Now returns the clock's current time.
func (c *ManualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Millis converts t to race milliseconds. The zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts race milliseconds back to a time.Time. 0 maps to the
// zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// NowMillis returns the clock's current time in race milliseconds.
func NowMillis(c Clock) int64 {
	return Millis(c.Now())
}

// Elapsed returns the duration between two race timestamps, 0 when finish
// precedes start. Zero is a valid timestamp here; callers decide from the
// competitor status whether a time was recorded.
func Elapsed(startMs, finishMs int64) time.Duration {
	if finishMs < startMs {
		return 0
	}
	return time.Duration(finishMs-startMs) * time.Millisecond
}

// CurrentYear returns the calendar year of the clock's current time in loc.
// A nil loc means UTC.
func CurrentYear(c Clock, loc *time.Location) int {
	if loc == nil {
		loc = time.UTC
	}
	return c.Now().In(loc).Year()
}

// Common time formats.
const (
	// FormatClock is the time-of-day format used on start lists (HH:MM:SS).
	FormatClock = "15:04:05"
	// FormatClockMillis adds milliseconds, used for finish times.
	FormatClockMillis = "15:04:05.000"
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
)

// FormatMillis renders a race timestamp as a time of day in loc.
// Unset timestamps render as "--:--:--".
func FormatMillis(ms int64, loc *time.Location) string {
	if ms == 0 {
		return "--:--:--"
	}
	if loc == nil {
		loc = time.UTC
	}
	return FromMillis(ms).In(loc).Format(FormatClockMillis)
}

// FormatRaceTime renders an elapsed duration the way a results board does:
// M:SS.mmm below an hour, H:MM:SS.mmm above.
func FormatRaceTime(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := (ms / 60_000) % 60
	s := (ms / 1000) % 60
	rest := ms % 1000
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d.%03d", h, m, s, rest)
	}
	return fmt.Sprintf("%d:%02d.%03d", m, s, rest)
}
