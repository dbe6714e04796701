// Package race contains the race-day core: competitors and their lifecycle,
// the gender × category start list, and the individual race state machine.
//
// Nothing in this package locks. Callers that touch a race from more than one
// goroutine must serialize access themselves.
package race

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATUS
// ══════════════════════════════════════════════════════════════════════════════

// Status is where a competitor is in the race lifecycle:
// NOT_STARTED → ON_COURSE → FINISHED | DID_NOT_FINISH.
type Status string

const (
	StatusNotStarted   Status = "NOT_STARTED"
	StatusOnCourse     Status = "ON_COURSE"
	StatusFinished     Status = "FINISHED"
	StatusDidNotFinish Status = "DID_NOT_FINISH"
)

// IsValid checks if the status is one of the declared values.
func (s Status) IsValid() bool {
	switch s {
	case StatusNotStarted, StatusOnCourse, StatusFinished, StatusDidNotFinish:
		return true
	}
	return false
}

// IsTerminal reports whether no race operation moves a competitor out of s.
func (s Status) IsTerminal() bool {
	return s == StatusFinished || s == StatusDidNotFinish
}

// String returns the status name.
func (s Status) String() string {
	return string(s)
}

// ParseStatus parses a status name, case-insensitively.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", shared.ErrInvalidStatus
	}
	return s, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMPETITOR
// ══════════════════════════════════════════════════════════════════════════════

// Competitor is an athlete entered in a race plus its mutable race fields.
// Competitors are shared by pointer between the list and its callers and are
// mutated in place.
type Competitor struct {
	id      string
	athlete athlete.Athlete

	status      Status
	startNumber int   // 0 = unassigned
	startTime   int64 // race milliseconds, 0 = unset
	finishTime  int64 // race milliseconds, 0 = unset
}

// NewCompetitor enters a in a race with a fresh ID, NOT_STARTED and no start
// number.
func NewCompetitor(a athlete.Athlete) *Competitor {
	return NewCompetitorWithID(uuid.NewString(), a)
}

// NewCompetitorWithID is NewCompetitor with a caller-chosen ID.
func NewCompetitorWithID(id string, a athlete.Athlete) *Competitor {
	return &Competitor{
		id:      id,
		athlete: a,
		status:  StatusNotStarted,
	}
}

// CompetitorState is the flat, storable form of a Competitor.
type CompetitorState struct {
	ID          string
	Athlete     athlete.Profile
	Category    athlete.Category
	Status      Status
	StartNumber int
	StartTime   int64
	FinishTime  int64
}

// RestoreCompetitor rebuilds a competitor from stored state. The stored
// category is kept as is.
func RestoreCompetitor(s CompetitorState) *Competitor {
	status := s.Status
	if !status.IsValid() {
		status = StatusNotStarted
	}
	return &Competitor{
		id:          s.ID,
		athlete:     athlete.Restore(s.Athlete, s.Category),
		status:      status,
		startNumber: s.StartNumber,
		startTime:   s.StartTime,
		finishTime:  s.FinishTime,
	}
}

// State returns the storable form of c.
func (c *Competitor) State() CompetitorState {
	return CompetitorState{
		ID:          c.id,
		Athlete:     c.athlete.Profile(),
		Category:    c.athlete.Category(),
		Status:      c.status,
		StartNumber: c.startNumber,
		StartTime:   c.startTime,
		FinishTime:  c.finishTime,
	}
}

func (c *Competitor) ID() string               { return c.id }
func (c *Competitor) Athlete() athlete.Athlete { return c.athlete }
func (c *Competitor) Name() string             { return c.athlete.Name() }
func (c *Competitor) Club() string             { return c.athlete.Club() }
func (c *Competitor) BirthYear() int           { return c.athlete.BirthYear() }
func (c *Competitor) Gender() athlete.Gender   { return c.athlete.Gender() }

// Category returns the age category fixed when the athlete was created.
func (c *Competitor) Category() athlete.Category { return c.athlete.Category() }

// Partition returns the (gender, category) key c is grouped under.
func (c *Competitor) Partition() Partition {
	return Partition{Gender: c.Gender(), Category: c.Category()}
}

func (c *Competitor) Status() Status     { return c.status }
func (c *Competitor) StartNumber() int   { return c.startNumber }
func (c *Competitor) StartTime() int64   { return c.startTime }
func (c *Competitor) FinishTime() int64  { return c.finishTime }
func (c *Competitor) SetStatus(s Status) { c.status = s }

// SetStartNumber assigns the bib number. 0 clears it.
func (c *Competitor) SetStartNumber(n int) { c.startNumber = n }

// SetFinishTime overwrites the finish time without touching the status.
func (c *Competitor) SetFinishTime(ms int64) { c.finishTime = ms }

// Start puts c on course at startTime. It does not check the previous
// status: starting twice overwrites the start time.
func (c *Competitor) Start(startTime int64) {
	c.status = StatusOnCourse
	c.startTime = startTime
}

// Finish marks c FINISHED at finishTime, whatever the previous status.
func (c *Competitor) Finish(finishTime int64) {
	c.status = StatusFinished
	c.finishTime = finishTime
}

// Timed reports whether c is FINISHED with a finish time at or after its
// start time.
func (c *Competitor) Timed() bool {
	return c.status == StatusFinished && c.finishTime >= c.startTime
}

// Elapsed returns the race time of a FINISHED competitor, 0 otherwise.
func (c *Competitor) Elapsed() time.Duration {
	if c.status != StatusFinished {
		return 0
	}
	return timeutil.Elapsed(c.startTime, c.finishTime)
}

// setCategory moves c to another category. Only CompetitorList.Reassign may
// call it, so partition membership stays consistent.
func (c *Competitor) setCategory(cat athlete.Category) {
	c.athlete = c.athlete.WithCategory(cat)
}
