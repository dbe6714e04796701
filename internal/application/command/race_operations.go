package command

import (
	"context"
	"time"

	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/logger"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// START / FINISH / DNF
// Race-day errors (nobody waiting, nobody on course) come back unmodified so
// the console can show them; the race is untouched in that case.
// ══════════════════════════════════════════════════════════════════════════════

// StartNext sends the next competitor on course.
func (s *RaceService) StartNext(ctx context.Context) (*CompetitorResult, error) {
	const op = "start_next"
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		s.logRaceError(op, ErrNoActiveRace, start)
		return nil, ErrNoActiveRace
	}
	r := s.active

	c, err := r.StartNext()
	if err != nil {
		s.logRaceError(op, err, start)
		return nil, err
	}

	result := newCompetitorResult(r.ID(), c)
	result.Stored = s.saveCompetitor(ctx, r.ID(), c)
	result.BoardUpdated = s.updateBoard(ctx, op, func(ctx context.Context) error {
		return s.board.MarkStarted(ctx, r.ID(), c)
	})

	event := shared.NewCompetitorStartedEvent(r.ID(), c.ID(), c.StartNumber(), c.StartTime(), s.clock.Now())
	result.Events = append(result.Events, event)
	s.publish(event)

	s.logger.Info("competitor started",
		logger.RaceID(r.ID()),
		logger.CompetitorID(c.ID()),
		logger.StartNumber(c.StartNumber()),
		logger.String("category", c.Category().String()),
		logger.String("gender", c.Gender().String()),
		logger.Latency(time.Since(start)),
	)

	return result, nil
}

// FinishNextCommand contains the finish time to record.
type FinishNextCommand struct {
	// FinishTime in race milliseconds. Zero means now.
	FinishTime int64
}

// FinishNext records a finish for the competitor who started earliest among
// those on course.
func (s *RaceService) FinishNext(ctx context.Context, cmd FinishNextCommand) (*CompetitorResult, error) {
	const op = "finish_next"
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		s.logRaceError(op, ErrNoActiveRace, start)
		return nil, ErrNoActiveRace
	}
	r := s.active

	finishTime := cmd.FinishTime
	if finishTime == 0 {
		finishTime = timeutil.NowMillis(s.clock)
	}

	if next, ok := r.NextOnCourse(); ok && finishTime < next.StartTime() {
		s.logRaceError(op, shared.ErrFinishBeforeStart, start)
		return nil, shared.ErrFinishBeforeStart
	}

	c, err := r.FinishNext(finishTime)
	if err != nil {
		s.logRaceError(op, err, start)
		return nil, err
	}

	result := newCompetitorResult(r.ID(), c)
	result.Stored = s.saveCompetitor(ctx, r.ID(), c)
	result.BoardUpdated = s.updateBoard(ctx, op, func(ctx context.Context) error {
		return s.board.MarkFinished(ctx, r.ID(), c, c.Elapsed())
	})

	event := shared.NewCompetitorFinishedEvent(r.ID(), c.ID(), c.StartNumber(), c.FinishTime(), c.Elapsed(), s.clock.Now())
	result.Events = append(result.Events, event)
	s.publish(event)

	s.logger.Info("competitor finished",
		logger.RaceID(r.ID()),
		logger.CompetitorID(c.ID()),
		logger.StartNumber(c.StartNumber()),
		logger.Duration("elapsed", c.Elapsed()),
		logger.Latency(time.Since(start)),
	)

	return result, nil
}

// DidNotFinishNext takes the competitor FinishNext would and marks them
// DID_NOT_FINISH.
func (s *RaceService) DidNotFinishNext(ctx context.Context) (*CompetitorResult, error) {
	const op = "did_not_finish_next"
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		s.logRaceError(op, ErrNoActiveRace, start)
		return nil, ErrNoActiveRace
	}
	r := s.active

	c, err := r.DidNotFinishNext()
	if err != nil {
		s.logRaceError(op, err, start)
		return nil, err
	}

	result := newCompetitorResult(r.ID(), c)
	result.Stored = s.saveCompetitor(ctx, r.ID(), c)
	result.BoardUpdated = s.updateBoard(ctx, op, func(ctx context.Context) error {
		return s.board.MarkOut(ctx, r.ID(), c)
	})

	event := shared.NewCompetitorDidNotFinishEvent(r.ID(), c.ID(), c.StartNumber(), s.clock.Now())
	result.Events = append(result.Events, event)
	s.publish(event)

	s.logger.Info("competitor did not finish",
		logger.RaceID(r.ID()),
		logger.CompetitorID(c.ID()),
		logger.StartNumber(c.StartNumber()),
		logger.Latency(time.Since(start)),
	)

	return result, nil
}
