// Package memory provides an in-process race repository. It keeps stored
// state as values, never as the live competitors, so a load always rebuilds
// independent objects.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/livetiming/race-hub/internal/domain/race"
	"github.com/livetiming/race-hub/internal/domain/shared"
)

type storedRace struct {
	snapshot    race.Snapshot
	order       []string // competitor IDs in entry order
	competitors map[string]race.CompetitorState
	updatedAt   time.Time
}

// RaceRepository implements race.Repository in memory.
type RaceRepository struct {
	mu    sync.RWMutex
	races map[string]*storedRace
}

// NewRaceRepository creates an empty repository.
func NewRaceRepository() *RaceRepository {
	return &RaceRepository{races: make(map[string]*storedRace)}
}

// SaveRace stores the race header and every competitor, replacing any
// previous copy of the race.
func (r *RaceRepository) SaveRace(ctx context.Context, ir *race.IndividualRace) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	all := ir.Competitors().EntryOrder()
	sr := &storedRace{
		snapshot:    ir.Snapshot(),
		order:       make([]string, 0, len(all)),
		competitors: make(map[string]race.CompetitorState, len(all)),
		updatedAt:   time.Now().UTC(),
	}
	for _, c := range all {
		sr.order = append(sr.order, c.ID())
		sr.competitors[c.ID()] = c.State()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.races[ir.ID()] = sr
	return nil
}

// SaveCompetitor stores the current state of one competitor of a stored race.
func (r *RaceRepository) SaveCompetitor(ctx context.Context, raceID string, c *race.Competitor) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sr, ok := r.races[raceID]
	if !ok {
		return shared.ErrRaceNotFound
	}
	if _, ok := sr.competitors[c.ID()]; !ok {
		sr.order = append(sr.order, c.ID())
	}
	sr.competitors[c.ID()] = c.State()
	sr.updatedAt = time.Now().UTC()
	return nil
}

// LoadRace rebuilds a stored race.
func (r *RaceRepository) LoadRace(ctx context.Context, raceID string, opts ...race.Option) (*race.IndividualRace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	sr, ok := r.races[raceID]
	if !ok {
		r.mu.RUnlock()
		return nil, shared.ErrRaceNotFound
	}
	states := make([]race.CompetitorState, 0, len(sr.order))
	for _, id := range sr.order {
		states = append(states, sr.competitors[id])
	}
	snapshot := sr.snapshot
	r.mu.RUnlock()

	return race.Restore(snapshot, states, opts...), nil
}

// RaceIDs lists the stored races, most recently updated first.
func (r *RaceRepository) RaceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.races))
	for id := range r.races {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.races[ids[i]].updatedAt.After(r.races[ids[j]].updatedAt)
	})
	return ids
}
