package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

var raceStart = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

func TestCompetitorLifecycle(t *testing.T) {
	c := newTestCompetitor("a", athlete.GenderFemale, athlete.CategoryU10)
	assert.Equal(t, StatusNotStarted, c.Status())
	assert.Zero(t, c.Elapsed())

	c.Start(100)
	assert.Equal(t, StatusOnCourse, c.Status())
	assert.Equal(t, int64(100), c.StartTime())

	// a second start overwrites the start time
	c.Start(150)
	assert.Equal(t, int64(150), c.StartTime())

	c.Finish(1150)
	assert.Equal(t, StatusFinished, c.Status())
	assert.Equal(t, time.Second, c.Elapsed())

	c.SetStatus(StatusDidNotFinish)
	assert.True(t, c.Status().IsTerminal())
	assert.Zero(t, c.Elapsed())
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" on_course ")
	require.NoError(t, err)
	assert.Equal(t, StatusOnCourse, s)

	_, err = ParseStatus("running")
	assert.ErrorIs(t, err, shared.ErrInvalidStatus)
}

func TestNewResetsAndNumbers(t *testing.T) {
	field := mixedField()
	field[0].Start(50)
	field[0].Finish(90)
	field[1].SetStartNumber(99)

	r := New("Club Championship", field, WithClock(timeutil.NewManualClock(raceStart)))

	assert.Equal(t, "Club Championship", r.Name())
	assert.NotEmpty(t, r.ID())
	for i, c := range r.Competitors().All() {
		assert.Equal(t, StatusNotStarted, c.Status())
		assert.Zero(t, c.FinishTime())
		assert.Equal(t, i+1, c.StartNumber())
	}
}

func TestNewFromListKeepsState(t *testing.T) {
	c := newTestCompetitor("c", athlete.GenderMale, athlete.CategoryU16)
	c.Start(100)
	d := newTestCompetitor("d", athlete.GenderMale, athlete.CategoryU16)

	r := NewFromList("test", NewCompetitorList(c, d), WithID("race-1"))

	assert.Equal(t, "race-1", r.ID())
	assert.Equal(t, StatusOnCourse, c.Status())
	assert.Zero(t, c.StartNumber())
	assert.Zero(t, d.StartNumber())
}

func TestStartNextStampsClock(t *testing.T) {
	clock := timeutil.NewManualClock(raceStart)
	r := New("test", mixedField(), WithClock(clock))

	first, err := r.StartNext()
	require.NoError(t, err)
	assert.Equal(t, "baby-f", first.Name())
	assert.Equal(t, StatusOnCourse, first.Status())
	assert.Equal(t, timeutil.Millis(raceStart), first.StartTime())

	clock.Advance(30 * time.Second)
	second, err := r.StartNext()
	require.NoError(t, err)
	assert.Equal(t, "baby-m", second.Name())
	assert.Equal(t, timeutil.Millis(raceStart)+30_000, second.StartTime())
}

func TestStartNextExhausted(t *testing.T) {
	a := newTestCompetitor("a", athlete.GenderFemale, athlete.CategoryU10)
	r := New("test", []*Competitor{a}, WithClock(timeutil.NewManualClock(raceStart)))

	_, err := r.StartNext()
	require.NoError(t, err)

	before := make(map[string]CompetitorState)
	for _, c := range r.Competitors().All() {
		before[c.ID()] = c.State()
	}

	c, err := r.StartNext()
	assert.Nil(t, c)
	assert.ErrorIs(t, err, shared.ErrNoPendingCompetitor)
	assert.True(t, shared.IsNoneAvailable(err))

	for _, c := range r.Competitors().All() {
		assert.Equal(t, before[c.ID()], c.State())
	}
}

func TestFinishNextFinishesEarliestStarter(t *testing.T) {
	c := newTestCompetitor("C", athlete.GenderFemale, athlete.CategoryU12)
	d := newTestCompetitor("D", athlete.GenderFemale, athlete.CategoryU12)
	c.Start(100)

	r := NewFromList("test", NewCompetitorList(c, d))
	dBefore := d.State()

	got, err := r.FinishNext(500)
	require.NoError(t, err)
	assert.Same(t, c, got)
	assert.Equal(t, StatusFinished, c.Status())
	assert.Equal(t, int64(500), c.FinishTime())
	assert.Equal(t, dBefore, d.State())
}

func TestFinishNextOrder(t *testing.T) {
	clock := timeutil.NewManualClock(raceStart)
	r := New("test", mixedField(), WithClock(clock))

	var started []string
	for i := 0; i < 3; i++ {
		c, err := r.StartNext()
		require.NoError(t, err)
		started = append(started, c.Name())
		clock.Advance(time.Minute)
	}

	for _, want := range started {
		c, err := r.FinishNext(timeutil.NowMillis(clock))
		require.NoError(t, err)
		assert.Equal(t, want, c.Name())
	}
}

func TestFinishNextEmptyLeavesStateUntouched(t *testing.T) {
	r := New("test", mixedField(), WithClock(timeutil.NewManualClock(raceStart)))

	before := make(map[string]CompetitorState)
	for _, c := range r.Competitors().All() {
		before[c.ID()] = c.State()
	}

	c, err := r.FinishNext(500)
	assert.Nil(t, c)
	assert.ErrorIs(t, err, shared.ErrNoCompetitorsOnCourse)

	_, err = r.DidNotFinishNext()
	assert.ErrorIs(t, err, shared.ErrNoCompetitorsOnCourse)

	for _, c := range r.Competitors().All() {
		assert.Equal(t, before[c.ID()], c.State())
	}
}

func TestDidNotFinishNext(t *testing.T) {
	c := newTestCompetitor("C", athlete.GenderMale, athlete.CategoryU18)
	e := newTestCompetitor("E", athlete.GenderMale, athlete.CategoryU18)
	c.Start(200)
	e.Start(100)

	r := NewFromList("test", NewCompetitorList(c, e))

	got, err := r.DidNotFinishNext()
	require.NoError(t, err)
	assert.Same(t, e, got)
	assert.Equal(t, StatusDidNotFinish, e.Status())
	assert.Zero(t, e.FinishTime())
	assert.Equal(t, []string{"C"}, names(r.Competitors().OnCourse()))
	assert.False(t, r.Finished())

	_, err = r.FinishNext(900)
	require.NoError(t, err)
	assert.True(t, r.Finished())
}

func TestRestore(t *testing.T) {
	r := New("test", mixedField(), WithClock(timeutil.NewManualClock(raceStart)))
	_, err := r.StartNext()
	require.NoError(t, err)

	var states []CompetitorState
	for _, c := range r.Competitors().EntryOrder() {
		states = append(states, c.State())
	}

	restored := Restore(r.Snapshot(), states)
	assert.Equal(t, r.ID(), restored.ID())
	assert.Equal(t, r.CreatedAt(), restored.CreatedAt())
	assert.Equal(t, names(r.Competitors().All()), names(restored.Competitors().All()))
	assert.Equal(t, names(r.Competitors().EntryOrder()), names(restored.Competitors().EntryOrder()))
	assert.Equal(t, names(r.Competitors().OnCourse()), names(restored.Competitors().OnCourse()))
}
