// Package command contains write operations (CQRS - Commands).
package command

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/livetiming/race-hub/internal/domain/race"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/circuitbreaker"
	"github.com/livetiming/race-hub/pkg/logger"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// RACE SERVICE
// The single writer of the active race. The race core does no locking, so
// every call into it goes through mu. Side effects (events, storage, live
// board) run after the mutation, still under mu, so they are observed in
// race order.
// ══════════════════════════════════════════════════════════════════════════════

// ErrNoActiveRace is returned when a race operation runs before a race was
// created or loaded.
var ErrNoActiveRace = shared.NewDomainError("race", "Active", shared.ErrInvalidState, "no race is loaded")

// RaceService serializes race-day operations on one active race.
type RaceService struct {
	mu     sync.Mutex
	active *race.IndividualRace

	repo      race.Repository
	board     race.Board
	publisher shared.EventPublisher
	breaker   *circuitbreaker.CircuitBreaker
	clock     timeutil.Clock
	logger    *logger.Logger

	sideEffectTimeout time.Duration
}

// RaceServiceConfig contains configuration for the service.
type RaceServiceConfig struct {
	// SideEffectTimeout bounds each repository or board call.
	SideEffectTimeout time.Duration

	Clock  timeutil.Clock
	Logger *logger.Logger
}

// DefaultRaceServiceConfig returns default configuration.
func DefaultRaceServiceConfig() RaceServiceConfig {
	return RaceServiceConfig{
		SideEffectTimeout: 2 * time.Second,
		Clock:             timeutil.SystemClock{},
	}
}

// NewRaceService creates a service. repo and publisher may be nil; a nil
// board is replaced by race.NopBoard.
func NewRaceService(
	repo race.Repository,
	board race.Board,
	publisher shared.EventPublisher,
	config RaceServiceConfig,
) *RaceService {
	if config.SideEffectTimeout <= 0 {
		config.SideEffectTimeout = DefaultRaceServiceConfig().SideEffectTimeout
	}
	if config.Clock == nil {
		config.Clock = timeutil.SystemClock{}
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}
	if board == nil {
		board = race.NopBoard{}
	}

	log := config.Logger.With(logger.Component("race-service"))

	return &RaceService{
		repo:      repo,
		board:     board,
		publisher: publisher,
		breaker: circuitbreaker.BoardBreaker(func(name string, from, to circuitbreaker.State) {
			log.Warn("circuit state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
		}, circuitbreaker.WithClock(config.Clock)),
		clock:             config.Clock,
		logger:            log,
		sideEffectTimeout: config.SideEffectTimeout,
	}
}

// Read runs fn with the active race under the service lock. fn must not
// keep references to competitors after it returns.
func (s *RaceService) Read(fn func(r *race.IndividualRace) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ErrNoActiveRace
	}
	return fn(s.active)
}

// Active returns the ID and name of the active race.
func (s *RaceService) Active() (id, name string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return "", "", false
	}
	return s.active.ID(), s.active.Name(), true
}

// activate replaces the active race. Caller holds mu.
func (s *RaceService) activate(r *race.IndividualRace) {
	s.active = r
	s.logger.Info("race activated",
		logger.RaceID(r.ID()),
		logger.RaceName(r.Name()),
		logger.Int("competitors", r.Competitors().Count()),
	)
}

// withTimeout derives a bounded context for one side effect.
func (s *RaceService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.sideEffectTimeout)
}

// publish sends event if a publisher is configured. Failures are logged.
func (s *RaceService) publish(event shared.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(event); err != nil {
		s.logger.Warn("failed to publish event",
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
}

// saveCompetitor stores c. It reports whether the write succeeded; a
// failure is logged, never returned, because the race has already moved on.
func (s *RaceService) saveCompetitor(ctx context.Context, raceID string, c *race.Competitor) bool {
	if s.repo == nil {
		return true
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.SaveCompetitor(ctx, raceID, c); err != nil {
		s.logger.Error("failed to store competitor",
			logger.RaceID(raceID),
			logger.CompetitorID(c.ID()),
			logger.StartNumber(c.StartNumber()),
			logger.Status(c.Status().String()),
			logger.Err(err),
		)
		return false
	}
	return true
}

// updateBoard runs fn against the live board through the circuit breaker.
func (s *RaceService) updateBoard(ctx context.Context, op string, fn func(ctx context.Context) error) bool {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.breaker.Execute(ctx, fn)
	if err == nil {
		return true
	}

	if circuitbreaker.IsRejected(err) {
		s.logger.Debug("live board skipped", logger.Operation(op), logger.Err(err))
	} else {
		s.logger.Warn("live board update failed", logger.Operation(op), logger.Err(err))
	}
	return false
}

// logRaceError logs a race-day operator error at the right level.
func (s *RaceService) logRaceError(op string, err error, start time.Time) {
	fields := []logger.Field{logger.Operation(op), logger.Latency(time.Since(start)), logger.Err(err)}
	if shared.IsNoneAvailable(err) || shared.IsValidation(err) || errors.Is(err, ErrNoActiveRace) {
		s.logger.Info("race operation refused", fields...)
		return
	}
	s.logger.Error("race operation failed", fields...)
}

// CompetitorResult is returned by the single-competitor race operations.
type CompetitorResult struct {
	RaceID     string
	Competitor race.CompetitorState
	Name       string
	Elapsed    time.Duration

	// Stored is false when the repository write failed. The race state is
	// still correct in memory.
	Stored bool

	// BoardUpdated is false when the live board was skipped or failed.
	BoardUpdated bool

	Events []shared.Event
}

func newCompetitorResult(raceID string, c *race.Competitor) *CompetitorResult {
	return &CompetitorResult{
		RaceID:     raceID,
		Competitor: c.State(),
		Name:       c.Name(),
		Elapsed:    c.Elapsed(),
		Events:     make([]shared.Event, 0, 1),
	}
}
