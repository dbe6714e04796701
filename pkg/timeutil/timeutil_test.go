package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMillisRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 0, 0, 250*int(time.Millisecond), time.UTC)

	ms := Millis(ts)
	assert.Equal(t, ts.UnixMilli(), ms)
	assert.True(t, FromMillis(ms).Equal(ts))

	assert.Equal(t, int64(0), Millis(time.Time{}))
	assert.True(t, FromMillis(0).IsZero())
}

func TestManualClock(t *testing.T) {
	start := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	clock := NewManualClock(start)

	assert.Equal(t, start, clock.Now())

	next := clock.Advance(30 * time.Second)
	assert.Equal(t, start.Add(30*time.Second), next)
	assert.Equal(t, Millis(next), NowMillis(clock))

	clock.Set(start)
	assert.Equal(t, start, clock.Now())
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, 400*time.Millisecond, Elapsed(100, 500))
	assert.Equal(t, 500*time.Millisecond, Elapsed(0, 500))
	assert.Equal(t, 90*time.Second, Elapsed(0, 90_000))
	assert.Equal(t, time.Duration(0), Elapsed(100, 0))
	assert.Equal(t, time.Duration(0), Elapsed(500, 100))
}

func TestCurrentYear(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 12, 31, 23, 30, 0, 0, time.UTC))

	assert.Equal(t, 2026, CurrentYear(clock, nil))
	assert.Equal(t, 2027, CurrentYear(clock, time.FixedZone("UTC+5", 5*60*60)))
}

func TestFormatRaceTime(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "-"},
		{61*time.Second + 5*time.Millisecond, "1:01.005"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "2:03:04.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRaceTime(tt.in))
	}
}

func TestFormatMillis(t *testing.T) {
	ts := time.Date(2026, 3, 14, 10, 15, 30, 120*int(time.Millisecond), time.UTC)

	assert.Equal(t, "10:15:30.120", FormatMillis(Millis(ts), nil))
	assert.Equal(t, "--:--:--", FormatMillis(0, nil))
}
