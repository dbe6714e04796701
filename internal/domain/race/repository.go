package race

import (
	"context"
	"time"
)

// Repository stores races and their competitors.
type Repository interface {
	// SaveRace stores the race header and every competitor in entry order.
	SaveRace(ctx context.Context, r *IndividualRace) error

	// SaveCompetitor stores the race fields of a single competitor.
	SaveCompetitor(ctx context.Context, raceID string, c *Competitor) error

	// LoadRace rebuilds a race. Returns shared.ErrRaceNotFound if absent.
	LoadRace(ctx context.Context, raceID string, opts ...Option) (*IndividualRace, error)
}

// Board is a live scoreboard fed by race operations.
type Board interface {
	MarkStarted(ctx context.Context, raceID string, c *Competitor) error
	MarkFinished(ctx context.Context, raceID string, c *Competitor, elapsed time.Duration) error
	MarkOut(ctx context.Context, raceID string, c *Competitor) error
	Reset(ctx context.Context, raceID string) error
}

// NopBoard is a Board that does nothing.
type NopBoard struct{}

func (NopBoard) MarkStarted(context.Context, string, *Competitor) error                 { return nil }
func (NopBoard) MarkFinished(context.Context, string, *Competitor, time.Duration) error { return nil }
func (NopBoard) MarkOut(context.Context, string, *Competitor) error                     { return nil }
func (NopBoard) Reset(context.Context, string) error                                    { return nil }
