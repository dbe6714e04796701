package command

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/race"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE RACE COMMAND
// Builds a fresh race from athletes: everyone NOT_STARTED, numbered by
// category. The new race becomes the active one.
// ══════════════════════════════════════════════════════════════════════════════

// CreateRaceCommand contains the data to create a race.
type CreateRaceCommand struct {
	Name     string
	Athletes []athlete.Athlete

	// RaceID is generated when empty.
	RaceID string
}

// Validate validates the command.
func (c CreateRaceCommand) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return shared.ErrEmptyRaceName
	}
	if len(c.Athletes) == 0 {
		return errors.New("create_race: at least one athlete is required")
	}
	return nil
}

// CreateRaceResult contains the result of creating a race.
type CreateRaceResult struct {
	RaceID      string
	Name        string
	Competitors int
	Partitions  []race.Partition
}

// CreateRace builds, stores and activates a new race.
func (s *RaceService) CreateRace(ctx context.Context, cmd CreateRaceCommand) (*CreateRaceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	competitors := make([]*race.Competitor, 0, len(cmd.Athletes))
	for _, a := range cmd.Athletes {
		competitors = append(competitors, race.NewCompetitor(a))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r := race.New(cmd.Name, competitors, race.WithClock(s.clock), race.WithID(cmd.RaceID))

	result := &CreateRaceResult{
		RaceID:      r.ID(),
		Name:        r.Name(),
		Competitors: r.Competitors().Count(),
		Partitions:  r.Competitors().Partitions(),
	}

	if s.repo != nil {
		sctx, cancel := s.withTimeout(ctx)
		err := s.repo.SaveRace(sctx, r)
		cancel()
		if err != nil {
			return nil, shared.WrapError("race", "CreateRace", shared.ErrExternalService, "failed to store race", err)
		}
	}

	s.updateBoard(ctx, "reset", func(ctx context.Context) error {
		return s.board.Reset(ctx, r.ID())
	})

	s.activate(r)
	s.publish(shared.NewRaceCreatedEvent(r.ID(), r.Name(), result.Competitors, s.clock.Now()))

	return result, nil
}

// LoadRaceCommand loads a stored race and makes it active.
type LoadRaceCommand struct {
	RaceID string
}

// Validate validates the command.
func (c LoadRaceCommand) Validate() error {
	if strings.TrimSpace(c.RaceID) == "" {
		return shared.NewDomainError("race", "Load", shared.ErrEmptyValue, "race id is required")
	}
	return nil
}

// LoadRace restores a stored race as the active race, with its competitors
// exactly as stored.
func (s *RaceService) LoadRace(ctx context.Context, cmd LoadRaceCommand) (*CreateRaceResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, shared.ErrRaceNotFound
	}

	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	r, err := s.repo.LoadRace(ctx, cmd.RaceID, race.WithClock(s.clock))
	if err != nil {
		if shared.IsNotFound(err) {
			return nil, err
		}
		return nil, shared.WrapError("race", "LoadRace", shared.ErrExternalService, "failed to load race", err)
	}

	s.activate(r)
	s.logger.Debug("race loaded", logger.RaceID(r.ID()), logger.Latency(time.Since(start)))

	return &CreateRaceResult{
		RaceID:      r.ID(),
		Name:        r.Name(),
		Competitors: r.Competitors().Count(),
		Partitions:  r.Competitors().Partitions(),
	}, nil
}
