package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/race"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

func testRace(t *testing.T) *race.IndividualRace {
	t.Helper()
	mk := func(first string, g athlete.Gender, cat athlete.Category) *race.Competitor {
		return race.NewCompetitor(athlete.Restore(athlete.Profile{FirstName: first, Gender: g, BirthYear: 2015}, cat))
	}
	clock := timeutil.NewManualClock(time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC))
	return race.New("Sprint", []*race.Competitor{
		mk("Tom", athlete.GenderMale, athlete.CategoryU12),
		mk("Ada", athlete.GenderFemale, athlete.CategoryU12),
		mk("Lea", athlete.GenderFemale, athlete.CategoryU10),
	}, race.WithClock(clock))
}

func TestSaveAndLoadRace(t *testing.T) {
	ctx := context.Background()
	repo := NewRaceRepository()
	r := testRace(t)

	require.NoError(t, repo.SaveRace(ctx, r))

	c, err := r.StartNext()
	require.NoError(t, err)
	require.NoError(t, repo.SaveCompetitor(ctx, r.ID(), c))

	loaded, err := repo.LoadRace(ctx, r.ID())
	require.NoError(t, err)

	assert.Equal(t, r.ID(), loaded.ID())
	assert.Equal(t, "Sprint", loaded.Name())
	require.Equal(t, 3, loaded.Competitors().Count())

	got, ok := loaded.Competitors().Get(c.ID())
	require.True(t, ok)
	assert.NotSame(t, c, got)
	assert.Equal(t, c.State(), got.State())
	assert.Equal(t, race.StatusOnCourse, got.Status())

	// the next start after a reload continues where the race left off
	next, err := loaded.StartNext()
	require.NoError(t, err)
	assert.Equal(t, "Ada", next.Name())
}

func TestLoadMissingRace(t *testing.T) {
	repo := NewRaceRepository()

	_, err := repo.LoadRace(context.Background(), "nope")
	assert.ErrorIs(t, err, shared.ErrRaceNotFound)
	assert.True(t, shared.IsNotFound(err))

	r := testRace(t)
	err = repo.SaveCompetitor(context.Background(), r.ID(), r.Competitors().All()[0])
	assert.ErrorIs(t, err, shared.ErrRaceNotFound)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := NewRaceRepository()
	assert.ErrorIs(t, repo.SaveRace(ctx, testRace(t)), context.Canceled)
	assert.Empty(t, repo.RaceIDs())
}
