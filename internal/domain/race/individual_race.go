package race

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livetiming/race-hub/internal/domain/shared"
	"github.com/livetiming/race-hub/pkg/timeutil"
)

// IndividualRace runs an individual-start race over a CompetitorList it owns
// exclusively. Every operation picks exactly one competitor through the
// list's ordering rules and mutates only that competitor.
type IndividualRace struct {
	id          string
	name        string
	competitors *CompetitorList
	clock       timeutil.Clock
	createdAt   time.Time
}

// Option configures an IndividualRace.
type Option func(*IndividualRace)

// WithClock sets the time source StartNext stamps start times from.
func WithClock(clock timeutil.Clock) Option {
	return func(r *IndividualRace) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithID sets the race ID instead of generating one.
func WithID(id string) Option {
	return func(r *IndividualRace) {
		if id != "" {
			r.id = id
		}
	}
}

// New builds a race from raw competitors. Whatever state they arrive in, the
// race starts clean: everyone NOT_STARTED and numbered by category.
func New(name string, competitors []*Competitor, opts ...Option) *IndividualRace {
	list := NewCompetitorList(competitors...)
	list.ResetStatus()
	list.AssignStartNumbersByCategory()
	return NewFromList(name, list, opts...)
}

// NewFromList builds a race over an existing list as is: no reset and no
// renumbering.
func NewFromList(name string, list *CompetitorList, opts ...Option) *IndividualRace {
	if list == nil {
		list = NewCompetitorList()
	}
	r := &IndividualRace{
		id:          uuid.NewString(),
		name:        strings.TrimSpace(name),
		competitors: list,
		clock:       timeutil.SystemClock{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.createdAt = r.clock.Now()
	return r
}

func (r *IndividualRace) ID() string           { return r.id }
func (r *IndividualRace) Name() string         { return r.name }
func (r *IndividualRace) CreatedAt() time.Time { return r.createdAt }

// Clock returns the race's time source.
func (r *IndividualRace) Clock() timeutil.Clock { return r.clock }

// Competitors returns the list the race runs on.
func (r *IndividualRace) Competitors() *CompetitorList { return r.competitors }

// StartNext sends the next competitor due at the start on course, stamped
// with the current time. It returns shared.ErrNoPendingCompetitor when
// everyone has started.
func (r *IndividualRace) StartNext() (*Competitor, error) {
	c, ok := r.competitors.Next()
	if !ok {
		return nil, shared.ErrNoPendingCompetitor
	}
	c.Start(timeutil.NowMillis(r.clock))
	return c, nil
}

// FinishNext records finishTime for the competitor who started earliest among
// those on course. It returns shared.ErrNoCompetitorsOnCourse when nobody is
// on course.
func (r *IndividualRace) FinishNext(finishTime int64) (*Competitor, error) {
	c, err := r.nextOnCourse()
	if err != nil {
		return nil, err
	}
	c.Finish(finishTime)
	return c, nil
}

// DidNotFinishNext takes the same competitor FinishNext would and marks it
// DID_NOT_FINISH.
func (r *IndividualRace) DidNotFinishNext() (*Competitor, error) {
	c, err := r.nextOnCourse()
	if err != nil {
		return nil, err
	}
	c.SetStatus(StatusDidNotFinish)
	return c, nil
}

// NextOnCourse returns the competitor FinishNext and DidNotFinishNext would
// take, without changing anything.
func (r *IndividualRace) NextOnCourse() (*Competitor, bool) {
	onCourse := r.competitors.OnCourse()
	if len(onCourse) == 0 {
		return nil, false
	}
	return onCourse[0], true
}

func (r *IndividualRace) nextOnCourse() (*Competitor, error) {
	c, ok := r.NextOnCourse()
	if !ok {
		return nil, shared.ErrNoCompetitorsOnCourse
	}
	return c, nil
}

// Finished reports whether every competitor has reached a terminal status.
func (r *IndividualRace) Finished() bool {
	for _, c := range r.competitors.All() {
		if !c.Status().IsTerminal() {
			return false
		}
	}
	return true
}

// Standings ranks the race's current results.
func (r *IndividualRace) Standings() []PartitionStandings {
	return Standings(r.competitors)
}

// Snapshot is the storable form of a race header.
type Snapshot struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Snapshot returns the race header.
func (r *IndividualRace) Snapshot() Snapshot {
	return Snapshot{ID: r.id, Name: r.name, CreatedAt: r.createdAt}
}

// Restore rebuilds a stored race. Competitors keep their stored state.
func Restore(s Snapshot, competitors []CompetitorState, opts ...Option) *IndividualRace {
	list := NewCompetitorList()
	for _, cs := range competitors {
		list.Add(RestoreCompetitor(cs))
	}
	r := NewFromList(s.Name, list, append(opts, WithID(s.ID))...)
	if !s.CreatedAt.IsZero() {
		r.createdAt = s.CreatedAt
	}
	return r
}
