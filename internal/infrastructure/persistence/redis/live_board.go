package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/livetiming/race-hub/internal/domain/race"
)

// ══════════════════════════════════════════════════════════════════════════════
// KEYS
// ══════════════════════════════════════════════════════════════════════════════

// Results screens read these keys directly; the layout below is their
// contract.

// BoardPrefix namespaces every board key.
const BoardPrefix = "board:"

// OnCourseKey is the sorted set of competitors on course, scored by start time.
func OnCourseKey(raceID string) string {
	return fmt.Sprintf("%s%s:oncourse", BoardPrefix, raceID)
}

// ResultsKey is the sorted set of finishers of one partition, scored by
// elapsed milliseconds.
func ResultsKey(raceID string, p race.Partition) string {
	return fmt.Sprintf("%s%s:results:%s", BoardPrefix, raceID, p)
}

// OutKey is the set of competitors who did not finish.
func OutKey(raceID string) string {
	return fmt.Sprintf("%s%s:dnf", BoardPrefix, raceID)
}

// CardsKey is the hash of competitor cards, keyed by competitor ID.
func CardsKey(raceID string) string {
	return fmt.Sprintf("%s%s:cards", BoardPrefix, raceID)
}

func racePattern(raceID string) string {
	return fmt.Sprintf("%s%s:*", BoardPrefix, raceID)
}

// ══════════════════════════════════════════════════════════════════════════════
// LIVE BOARD
// ══════════════════════════════════════════════════════════════════════════════

// Card is what the board shows for one competitor.
type Card struct {
	ID          string      `json:"id"`
	StartNumber int         `json:"start_number"`
	Name        string      `json:"name"`
	Club        string      `json:"club,omitempty"`
	Partition   string      `json:"partition"`
	Status      race.Status `json:"status"`
	StartTime   int64       `json:"start_time,omitempty"`
	ElapsedMs   int64       `json:"elapsed_ms,omitempty"`
}

func cardOf(c *race.Competitor) Card {
	return Card{
		ID:          c.ID(),
		StartNumber: c.StartNumber(),
		Name:        c.Name(),
		Club:        c.Club(),
		Partition:   c.Partition().String(),
		Status:      c.Status(),
		StartTime:   c.StartTime(),
		ElapsedMs:   c.Elapsed().Milliseconds(),
	}
}

// LiveBoard implements race.Board on Redis sorted sets.
type LiveBoard struct {
	cache *Cache
	ttl   time.Duration
}

// NewLiveBoard creates a LiveBoard.
func NewLiveBoard(cache *Cache) *LiveBoard {
	return &LiveBoard{cache: cache, ttl: cache.config.BoardTTL}
}

func (b *LiveBoard) putCard(ctx context.Context, pipe redis.Pipeliner, raceID string, c *race.Competitor) error {
	data, err := json.Marshal(cardOf(c))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
	}
	pipe.HSet(ctx, CardsKey(raceID), c.ID(), data)
	pipe.Expire(ctx, CardsKey(raceID), b.ttl)
	return nil
}

// MarkStarted puts c on course.
func (b *LiveBoard) MarkStarted(ctx context.Context, raceID string, c *race.Competitor) error {
	pipe := b.cache.Client().TxPipeline()
	if err := b.putCard(ctx, pipe, raceID, c); err != nil {
		return err
	}
	pipe.ZAdd(ctx, OnCourseKey(raceID), redis.Z{Score: float64(c.StartTime()), Member: c.ID()})
	pipe.Expire(ctx, OnCourseKey(raceID), b.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("board: mark started: %w", err)
	}
	return nil
}

// MarkFinished moves c from the course to its partition's results.
func (b *LiveBoard) MarkFinished(ctx context.Context, raceID string, c *race.Competitor, elapsed time.Duration) error {
	key := ResultsKey(raceID, c.Partition())

	pipe := b.cache.Client().TxPipeline()
	if err := b.putCard(ctx, pipe, raceID, c); err != nil {
		return err
	}
	pipe.ZRem(ctx, OnCourseKey(raceID), c.ID())
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(elapsed.Milliseconds()), Member: c.ID()})
	pipe.Expire(ctx, key, b.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("board: mark finished: %w", err)
	}
	return nil
}

// MarkOut moves c from the course to the DNF set.
func (b *LiveBoard) MarkOut(ctx context.Context, raceID string, c *race.Competitor) error {
	pipe := b.cache.Client().TxPipeline()
	if err := b.putCard(ctx, pipe, raceID, c); err != nil {
		return err
	}
	pipe.ZRem(ctx, OnCourseKey(raceID), c.ID())
	pipe.SAdd(ctx, OutKey(raceID), c.ID())
	pipe.Expire(ctx, OutKey(raceID), b.ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("board: mark out: %w", err)
	}
	return nil
}

// Reset clears every board key of the race.
func (b *LiveBoard) Reset(ctx context.Context, raceID string) error {
	if err := b.cache.DeleteByPattern(ctx, racePattern(raceID)); err != nil {
		return fmt.Errorf("board: reset: %w", err)
	}
	return nil
}
