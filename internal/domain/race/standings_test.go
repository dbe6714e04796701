package race

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetiming/race-hub/internal/domain/athlete"
)

func TestStandings(t *testing.T) {
	fast := newTestCompetitor("fast", athlete.GenderFemale, athlete.CategoryU14)
	tieA := newTestCompetitor("tie-a", athlete.GenderFemale, athlete.CategoryU14)
	tieB := newTestCompetitor("tie-b", athlete.GenderFemale, athlete.CategoryU14)
	slow := newTestCompetitor("slow", athlete.GenderFemale, athlete.CategoryU14)
	out := newTestCompetitor("out", athlete.GenderFemale, athlete.CategoryU14)
	waiting := newTestCompetitor("waiting", athlete.GenderMale, athlete.CategoryU14)

	l := NewCompetitorList(slow, tieB, out, tieA, fast, waiting)
	l.AssignStartNumbersByCategory()
	// numbering follows entry order: slow=1, tie-b=2, out=3, tie-a=4, fast=5

	fast.Start(0)
	fast.Finish(50_000)
	tieA.Start(0)
	tieA.Finish(60_000)
	tieB.Start(0)
	tieB.Finish(60_000)
	slow.Start(0)
	slow.Finish(75_000)
	out.Start(0)
	out.SetStatus(StatusDidNotFinish)

	got := Standings(l)
	require.Len(t, got, 1, "partition without results is left out")

	ps := got[0]
	assert.Equal(t, Partition{Gender: athlete.GenderFemale, Category: athlete.CategoryU14}, ps.Partition)

	require.Len(t, ps.Finishers, 4)
	assert.Equal(t, "fast", ps.Finishers[0].Competitor.Name())
	assert.Equal(t, 1, ps.Finishers[0].Rank)
	assert.Zero(t, ps.Finishers[0].Gap)

	// tied on time: same rank, bib order
	assert.Equal(t, "tie-b", ps.Finishers[1].Competitor.Name())
	assert.Equal(t, "tie-a", ps.Finishers[2].Competitor.Name())
	assert.Equal(t, 2, ps.Finishers[1].Rank)
	assert.Equal(t, 2, ps.Finishers[2].Rank)
	assert.Equal(t, 10*time.Second, ps.Finishers[2].Gap)

	assert.Equal(t, "slow", ps.Finishers[3].Competitor.Name())
	assert.Equal(t, 4, ps.Finishers[3].Rank)
	assert.Equal(t, 25*time.Second, ps.Finishers[3].Gap)

	require.Len(t, ps.DNF, 1)
	assert.Equal(t, "out", ps.DNF[0].Competitor.Name())
	assert.Zero(t, ps.DNF[0].Rank)
}

func TestStandingsRankByRaceTimeFromZeroStart(t *testing.T) {
	early := newTestCompetitor("early", athlete.GenderMale, athlete.CategoryU16)
	late := newTestCompetitor("late", athlete.GenderMale, athlete.CategoryU16)
	l := NewCompetitorList(early, late)
	l.AssignStartNumbersByCategory()

	early.Start(0)
	early.Finish(90_000)
	late.Start(1_000)
	late.Finish(30_000)

	got := Standings(l)
	require.Len(t, got, 1)
	require.Len(t, got[0].Finishers, 2)

	first, second := got[0].Finishers[0], got[0].Finishers[1]
	assert.Equal(t, "late", first.Competitor.Name())
	assert.Equal(t, 1, first.Rank)
	assert.Equal(t, 29*time.Second, first.Elapsed)

	assert.Equal(t, "early", second.Competitor.Name())
	assert.Equal(t, 2, second.Rank)
	assert.Equal(t, 90*time.Second, second.Elapsed)
	assert.Equal(t, 61*time.Second, second.Gap)
}

func TestStandingsFinishBeforeStartIsUnranked(t *testing.T) {
	ok := newTestCompetitor("ok", athlete.GenderFemale, athlete.CategoryU12)
	bad := newTestCompetitor("bad", athlete.GenderFemale, athlete.CategoryU12)
	l := NewCompetitorList(bad, ok)
	l.AssignStartNumbersByCategory()

	bad.Start(10_000)
	bad.Finish(500)
	ok.Start(20_000)
	ok.Finish(80_000)

	assert.False(t, bad.Timed())
	assert.True(t, ok.Timed())

	got := Standings(l)
	require.Len(t, got, 1)
	require.Len(t, got[0].Finishers, 2)

	assert.Equal(t, "ok", got[0].Finishers[0].Competitor.Name())
	assert.Equal(t, 1, got[0].Finishers[0].Rank)

	assert.Equal(t, "bad", got[0].Finishers[1].Competitor.Name())
	assert.Zero(t, got[0].Finishers[1].Rank)
	assert.Zero(t, got[0].Finishers[1].Gap)
}
