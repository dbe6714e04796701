package race

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetiming/race-hub/internal/domain/athlete"
)

func newTestCompetitor(name string, g athlete.Gender, cat athlete.Category) *Competitor {
	a := athlete.Restore(athlete.Profile{FirstName: name, Gender: g}, cat)
	return NewCompetitorWithID(name, a)
}

func names(cs []*Competitor) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Name())
	}
	return out
}

// mixedField is entered deliberately out of race-day order.
func mixedField() []*Competitor {
	return []*Competitor{
		newTestCompetitor("senior-m", athlete.GenderMale, athlete.CategorySenior),
		newTestCompetitor("u10-m1", athlete.GenderMale, athlete.CategoryU10),
		newTestCompetitor("u10-f1", athlete.GenderFemale, athlete.CategoryU10),
		newTestCompetitor("baby-m", athlete.GenderMale, athlete.CategoryBaby),
		newTestCompetitor("u10-m2", athlete.GenderMale, athlete.CategoryU10),
		newTestCompetitor("u10-f2", athlete.GenderFemale, athlete.CategoryU10),
		newTestCompetitor("unknown-f", athlete.GenderFemale, athlete.CategoryUnknown),
		newTestCompetitor("baby-f", athlete.GenderFemale, athlete.CategoryBaby),
	}
}

func TestAddAndRemove(t *testing.T) {
	a := newTestCompetitor("a", athlete.GenderFemale, athlete.CategoryU12)
	b := newTestCompetitor("b", athlete.GenderMale, athlete.CategoryU12)
	l := NewCompetitorList(a, b)

	require.Equal(t, 2, l.Count())
	assert.True(t, l.Contains(a))

	assert.True(t, l.Remove(a))
	assert.False(t, l.Remove(a))
	assert.False(t, l.Contains(a))
	assert.Equal(t, []string{"b"}, names(l.All()))

	// the emptied partition is gone
	assert.Equal(t, []Partition{{Gender: athlete.GenderMale, Category: athlete.CategoryU12}}, l.Partitions())
	assert.Empty(t, l.ByPartition(athlete.GenderFemale, athlete.CategoryU12))
	assert.Empty(t, l.ByCategory(athlete.CategoryU14))
}

func TestAddIsIdempotent(t *testing.T) {
	a := newTestCompetitor("a", athlete.GenderFemale, athlete.CategoryU12)
	l := NewCompetitorList(a)
	l.Add(a)
	l.Add(nil)

	assert.Equal(t, 1, l.Count())
	assert.Len(t, l.All(), 1)
}

func TestAllOrdering(t *testing.T) {
	l := NewCompetitorList(mixedField()...)

	assert.Equal(t, []string{
		"baby-f", "baby-m",
		"u10-f1", "u10-f2", "u10-m1", "u10-m2",
		"senior-m",
		"unknown-f",
	}, names(l.All()))
}

func TestEntryOrder(t *testing.T) {
	field := mixedField()
	l := NewCompetitorList(field...)
	l.Remove(field[2])

	want := []string{"senior-m", "u10-m1", "baby-m", "u10-m2", "u10-f2", "unknown-f", "baby-f"}
	assert.Equal(t, want, names(l.EntryOrder()))
}

func TestFilteredViews(t *testing.T) {
	l := NewCompetitorList(mixedField()...)

	assert.Equal(t, []string{"u10-f1", "u10-f2", "u10-m1", "u10-m2"}, names(l.ByCategory(athlete.CategoryU10)))
	assert.Equal(t, []string{"baby-f", "u10-f1", "u10-f2", "unknown-f"}, names(l.ByGender(athlete.GenderFemale)))
	assert.Equal(t, []string{"u10-m1", "u10-m2"}, names(l.ByPartition(athlete.GenderMale, athlete.CategoryU10)))

	c, ok := l.Get("u10-m2")
	require.True(t, ok)
	c.Start(100)
	assert.Equal(t, []string{"u10-m2"}, names(l.ByStatus(StatusOnCourse)))
	assert.Len(t, l.ByStatus(StatusNotStarted), 7)

	_, ok = l.Get("missing")
	assert.False(t, ok)
}

func TestAssignStartNumbersByCategory(t *testing.T) {
	l := NewCompetitorList(mixedField()...)
	l.AssignStartNumbersByCategory()

	want := map[string]int{
		"baby-f":    1,
		"baby-m":    2,
		"u10-f1":    3,
		"u10-f2":    4,
		"u10-m1":    5,
		"u10-m2":    6,
		"senior-m":  7,
		"unknown-f": 8,
	}

	seen := make(map[int]bool)
	for _, c := range l.All() {
		assert.Equal(t, want[c.Name()], c.StartNumber(), c.Name())
		assert.False(t, seen[c.StartNumber()], "duplicate number %d", c.StartNumber())
		seen[c.StartNumber()] = true
	}
	for n := 1; n <= l.Count(); n++ {
		assert.True(t, seen[n], "gap at %d", n)
	}
}

func TestNextFemaleBeforeMale(t *testing.T) {
	a := newTestCompetitor("A", athlete.GenderFemale, athlete.CategoryU10)
	b := newTestCompetitor("B", athlete.GenderMale, athlete.CategoryU10)
	l := NewCompetitorList(b, a)

	next, ok := l.Next()
	require.True(t, ok)
	assert.Same(t, a, next)
}

func TestNextFollowsStartNumbers(t *testing.T) {
	x := newTestCompetitor("x", athlete.GenderMale, athlete.CategoryU14)
	y := newTestCompetitor("y", athlete.GenderMale, athlete.CategoryU14)
	z := newTestCompetitor("z", athlete.GenderMale, athlete.CategoryU14)
	l := NewCompetitorList(x, y, z)

	// unnumbered competitors go last
	y.SetStartNumber(7)
	z.SetStartNumber(3)

	next, ok := l.Next()
	require.True(t, ok)
	assert.Same(t, z, next)

	z.Start(10)
	next, _ = l.Next()
	assert.Same(t, y, next)

	y.Start(20)
	next, _ = l.Next()
	assert.Same(t, x, next)
}

func TestNextWithMixedStatuses(t *testing.T) {
	l := NewCompetitorList(mixedField()...)
	l.AssignStartNumbersByCategory()

	for _, id := range []string{"baby-f", "baby-m", "u10-f1"} {
		c, _ := l.Get(id)
		c.Start(1)
	}
	c, _ := l.Get("u10-f1")
	c.Finish(5)

	next, ok := l.Next()
	require.True(t, ok)
	assert.Equal(t, "u10-f2", next.Name())
}

func TestNextNone(t *testing.T) {
	l := NewCompetitorList()
	_, ok := l.Next()
	assert.False(t, ok)

	a := newTestCompetitor("a", athlete.GenderFemale, athlete.CategoryU12)
	a.SetStatus(StatusDidNotFinish)
	l.Add(a)
	c, ok := l.Next()
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestOnCourseOrdering(t *testing.T) {
	l := NewCompetitorList(mixedField()...)
	l.AssignStartNumbersByCategory()

	start := func(id string, at int64) {
		c, _ := l.Get(id)
		c.Start(at)
	}
	start("senior-m", 300)
	start("u10-m1", 100)
	start("baby-m", 200)
	start("baby-f", 200)

	// equal start times fall back to start number
	assert.Equal(t, []string{"u10-m1", "baby-f", "baby-m", "senior-m"}, names(l.OnCourse()))
	assert.Equal(t, names(l.OnCourse()), names(l.OnCourse()))
}

func TestResetStatusIsIdempotent(t *testing.T) {
	l := NewCompetitorList(mixedField()...)
	l.AssignStartNumbersByCategory()

	for i, c := range l.All() {
		c.Start(int64(100 * (i + 1)))
		if i%2 == 0 {
			c.Finish(int64(1000 * (i + 1)))
		}
	}

	l.ResetStatus()
	once := make(map[string]CompetitorState)
	for _, c := range l.All() {
		assert.Equal(t, StatusNotStarted, c.Status())
		assert.Zero(t, c.FinishTime())
		assert.NotZero(t, c.StartTime())
		assert.NotZero(t, c.StartNumber())
		once[c.ID()] = c.State()
	}

	l.ResetStatus()
	for _, c := range l.All() {
		assert.Equal(t, once[c.ID()], c.State())
	}
}

func TestReassignMovesPartition(t *testing.T) {
	a := newTestCompetitor("a", athlete.GenderFemale, athlete.CategoryU12)
	b := newTestCompetitor("b", athlete.GenderFemale, athlete.CategoryU14)
	c := newTestCompetitor("c", athlete.GenderFemale, athlete.CategoryU12)
	l := NewCompetitorList(a, b, c)

	l.Reassign(c, athlete.CategoryU14)

	assert.Equal(t, athlete.CategoryU14, c.Category())
	assert.Equal(t, []string{"a"}, names(l.ByCategory(athlete.CategoryU12)))
	// entry order is kept: b was entered before c
	assert.Equal(t, []string{"b", "c"}, names(l.ByCategory(athlete.CategoryU14)))

	l.Reassign(a, athlete.CategoryU14)
	assert.Equal(t, []string{"a", "b", "c"}, names(l.ByCategory(athlete.CategoryU14)))
	assert.Len(t, l.Partitions(), 1)
}
