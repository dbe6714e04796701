package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/logger"
)

var at = time.Date(2026, 2, 14, 10, 0, 0, 0, time.UTC)

func syncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.Discard()
	return NewInMemoryEventBus(cfg)
}

func TestInMemoryBusDeliversInOrder(t *testing.T) {
	bus := syncBus()

	var got []shared.EventType
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		got = append(got, e.EventType())
		return nil
	}))
	var started int
	require.NoError(t, bus.Subscribe(shared.EventCompetitorStarted, func(shared.Event) error {
		started++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCompetitorStartedEvent("r1", "c1", 1, 100, at)))
	require.NoError(t, bus.Publish(shared.NewCompetitorFinishedEvent("r1", "c1", 1, 900, 800*time.Millisecond, at)))

	assert.Equal(t, []shared.EventType{shared.EventCompetitorStarted, shared.EventCompetitorFinished}, got)
	assert.Equal(t, 1, started)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(3), snap.TotalHandlerExecs)
}

func TestInMemoryBusIsolatesHandlerFailures(t *testing.T) {
	bus := syncBus()

	calls := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("listener down") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		calls++
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewCompetitorDidNotFinishEvent("r1", "c1", 4, at)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryBusAsync(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	cfg.Logger = logger.Discard()
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	n := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		mu.Lock()
		n++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewCompetitorStartedEvent("r1", "c", i, int64(i), at)))
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return n == 10
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewCompetitorStartedEvent("r1", "c", 1, 1, at)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestInMemoryBusRejectsNil(t *testing.T) {
	bus := syncBus()
	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventRaceCreated, nil))
}

// fakeRedis loops published messages back to every subscriber.
type fakeRedis struct {
	mu        sync.Mutex
	published []string
	subs      []chan RedisMessage
}

func (f *fakeRedis) Publish(_ context.Context, channel string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, message.(string))
	for _, s := range f.subs {
		s <- RedisMessage{Channel: channel, Payload: message.(string)}
	}
	return nil
}

func (f *fakeRedis) Subscribe(context.Context, ...string) (<-chan RedisMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan RedisMessage, 16)
	f.subs = append(f.subs, ch)
	return ch, nil
}

func (f *fakeRedis) Close() error { return nil }

func (f *fakeRedis) inject(t *testing.T, m wireMessage) {
	data, err := json.Marshal(m)
	require.NoError(t, err)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		s <- RedisMessage{Payload: string(data)}
	}
}

func TestRedisBusSkipsOwnMessages(t *testing.T) {
	client := &fakeRedis{}
	bus, err := NewRedisEventBus(RedisEventBusConfig{
		Client:         client,
		InstanceID:     "station-a",
		Logger:         logger.Discard(),
		LocalBusConfig: DefaultInMemoryEventBusConfig(),
	})
	require.NoError(t, err)
	defer bus.Close()

	received := make(chan shared.Event, 4)
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		received <- e
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCompetitorStartedEvent("r1", "c1", 1, 100, at)))
	require.Len(t, client.published, 1)

	// local delivery only, the looped-back copy is dropped
	first := <-received
	assert.Equal(t, shared.EventCompetitorStarted, first.EventType())

	env, err := shared.NewEnvelope("evt-2", shared.NewCompetitorFinishedEvent("r1", "c2", 2, 500, 400*time.Millisecond, at))
	require.NoError(t, err)
	client.inject(t, wireMessage{InstanceID: "station-b", EventEnvelope: env})

	select {
	case e := <-received:
		assert.Equal(t, shared.EventCompetitorFinished, e.EventType())
		assert.Equal(t, "r1", e.AggregateID())
		assert.Equal(t, "c2", e.Payload()["competitor_id"])
	case <-time.After(2 * time.Second):
		t.Fatal("remote event not delivered")
	}

	select {
	case e := <-received:
		t.Fatalf("unexpected extra event %s", e.EventType())
	case <-time.After(50 * time.Millisecond):
	}
}
