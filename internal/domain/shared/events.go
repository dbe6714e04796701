package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types.
const (
	// Race events
	EventRaceCreated EventType = "race.created"

	// Competitor lifecycle events
	EventCompetitorStarted      EventType = "competitor.started"
	EventCompetitorFinished     EventType = "competitor.finished"
	EventCompetitorDidNotFinish EventType = "competitor.did_not_finish"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
	Version     int       `json:"version"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event. The aggregate of every race event is
// the race itself.
func NewBaseEvent(eventType EventType, aggregateID string, at time.Time) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   at,
		AggregateId: aggregateID,
		Version:     1,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Race Events
// ═══════════════════════════════════════════════════════════════════════════

// RaceCreatedEvent is emitted once a race has been set up and numbered.
type RaceCreatedEvent struct {
	BaseEvent
	Name            string `json:"name"`
	CompetitorCount int    `json:"competitor_count"`
}

// Payload implements Event interface.
func (e RaceCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"name":             e.Name,
		"competitor_count": e.CompetitorCount,
	}
}

// NewRaceCreatedEvent creates a new RaceCreatedEvent.
func NewRaceCreatedEvent(raceID, name string, competitorCount int, at time.Time) RaceCreatedEvent {
	return RaceCreatedEvent{
		BaseEvent:       NewBaseEvent(EventRaceCreated, raceID, at),
		Name:            name,
		CompetitorCount: competitorCount,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Competitor Events
// ═══════════════════════════════════════════════════════════════════════════

// CompetitorStartedEvent is emitted when a competitor leaves the start.
type CompetitorStartedEvent struct {
	BaseEvent
	CompetitorID string `json:"competitor_id"`
	StartNumber  int    `json:"start_number"`
	StartTime    int64  `json:"start_time"`
}

// Payload implements Event interface.
func (e CompetitorStartedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"competitor_id": e.CompetitorID,
		"start_number":  e.StartNumber,
		"start_time":    e.StartTime,
	}
}

// NewCompetitorStartedEvent creates a new CompetitorStartedEvent.
func NewCompetitorStartedEvent(raceID, competitorID string, startNumber int, startTime int64, at time.Time) CompetitorStartedEvent {
	return CompetitorStartedEvent{
		BaseEvent:    NewBaseEvent(EventCompetitorStarted, raceID, at),
		CompetitorID: competitorID,
		StartNumber:  startNumber,
		StartTime:    startTime,
	}
}

// CompetitorFinishedEvent is emitted when a competitor crosses the line.
type CompetitorFinishedEvent struct {
	BaseEvent
	CompetitorID string        `json:"competitor_id"`
	StartNumber  int           `json:"start_number"`
	FinishTime   int64         `json:"finish_time"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Payload implements Event interface.
func (e CompetitorFinishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"competitor_id": e.CompetitorID,
		"start_number":  e.StartNumber,
		"finish_time":   e.FinishTime,
		"elapsed":       e.Elapsed.String(),
	}
}

// NewCompetitorFinishedEvent creates a new CompetitorFinishedEvent.
func NewCompetitorFinishedEvent(raceID, competitorID string, startNumber int, finishTime int64, elapsed time.Duration, at time.Time) CompetitorFinishedEvent {
	return CompetitorFinishedEvent{
		BaseEvent:    NewBaseEvent(EventCompetitorFinished, raceID, at),
		CompetitorID: competitorID,
		StartNumber:  startNumber,
		FinishTime:   finishTime,
		Elapsed:      elapsed,
	}
}

// CompetitorDidNotFinishEvent is emitted when a competitor on course is
// marked out of the race.
type CompetitorDidNotFinishEvent struct {
	BaseEvent
	CompetitorID string `json:"competitor_id"`
	StartNumber  int    `json:"start_number"`
}

// Payload implements Event interface.
func (e CompetitorDidNotFinishEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"competitor_id": e.CompetitorID,
		"start_number":  e.StartNumber,
	}
}

// NewCompetitorDidNotFinishEvent creates a new CompetitorDidNotFinishEvent.
func NewCompetitorDidNotFinishEvent(raceID, competitorID string, startNumber int, at time.Time) CompetitorDidNotFinishEvent {
	return CompetitorDidNotFinishEvent{
		BaseEvent:    NewBaseEvent(EventCompetitorDidNotFinish, raceID, at),
		CompetitorID: competitorID,
		StartNumber:  startNumber,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID          string          `json:"id"`
	Type        EventType       `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Version     int             `json:"version"`
	Payload     json.RawMessage `json:"payload"`
}

// NewEnvelope serializes an event's payload into an envelope.
func NewEnvelope(id string, event Event) (EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return EventEnvelope{}, err
	}
	return EventEnvelope{
		ID:          id,
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}, nil
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
