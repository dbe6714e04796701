// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"time"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/race"
)

// RaceReader gives read access to the active race under the writer's lock.
type RaceReader interface {
	Read(fn func(r *race.IndividualRace) error) error
}

// CompetitorDTO is a copy of a competitor safe to hand out of the lock.
type CompetitorDTO struct {
	ID          string           `json:"id"`
	StartNumber int              `json:"start_number"`
	Name        string           `json:"name"`
	Club        string           `json:"club,omitempty"`
	BirthYear   int              `json:"birth_year,omitempty"`
	Gender      athlete.Gender   `json:"gender"`
	Category    athlete.Category `json:"category"`
	Status      race.Status      `json:"status"`
	StartTime   int64            `json:"start_time,omitempty"`
	FinishTime  int64            `json:"finish_time,omitempty"`
	Elapsed     time.Duration    `json:"elapsed,omitempty"`
}

func toDTO(c *race.Competitor) CompetitorDTO {
	return CompetitorDTO{
		ID:          c.ID(),
		StartNumber: c.StartNumber(),
		Name:        c.Name(),
		Club:        c.Club(),
		BirthYear:   c.BirthYear(),
		Gender:      c.Gender(),
		Category:    c.Category(),
		Status:      c.Status(),
		StartTime:   c.StartTime(),
		FinishTime:  c.FinishTime(),
		Elapsed:     c.Elapsed(),
	}
}

func toDTOs(cs []*race.Competitor) []CompetitorDTO {
	out := make([]CompetitorDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toDTO(c))
	}
	return out
}

// ══════════════════════════════════════════════════════════════════════════════
// START LIST
// ══════════════════════════════════════════════════════════════════════════════

// StartListQuery filters the start list. Zero values mean no filter.
type StartListQuery struct {
	Category *athlete.Category
	Gender   athlete.Gender
	Status   race.Status
}

// StartListResult is the start list in race-day order.
type StartListResult struct {
	RaceID      string          `json:"race_id"`
	RaceName    string          `json:"race_name"`
	Competitors []CompetitorDTO `json:"competitors"`
	Next        *CompetitorDTO  `json:"next,omitempty"`
	Finished    bool            `json:"finished"`
}

// StartListHandler builds the start list.
type StartListHandler struct {
	reader RaceReader
}

// NewStartListHandler creates a StartListHandler.
func NewStartListHandler(reader RaceReader) *StartListHandler {
	return &StartListHandler{reader: reader}
}

// Handle runs the query.
func (h *StartListHandler) Handle(ctx context.Context, q StartListQuery) (*StartListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *StartListResult
	err := h.reader.Read(func(r *race.IndividualRace) error {
		list := r.Competitors()

		var cs []*race.Competitor
		switch {
		case q.Category != nil && q.Gender != "":
			cs = list.ByPartition(q.Gender, *q.Category)
		case q.Category != nil:
			cs = list.ByCategory(*q.Category)
		case q.Gender != "":
			cs = list.ByGender(q.Gender)
		default:
			cs = list.All()
		}

		filtered := cs
		if q.Status != "" {
			filtered = make([]*race.Competitor, 0, len(cs))
			for _, c := range cs {
				if c.Status() == q.Status {
					filtered = append(filtered, c)
				}
			}
		}

		result = &StartListResult{
			RaceID:      r.ID(),
			RaceName:    r.Name(),
			Competitors: toDTOs(filtered),
			Finished:    r.Finished(),
		}
		if next, ok := list.Next(); ok {
			dto := toDTO(next)
			result.Next = &dto
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ON COURSE
// ══════════════════════════════════════════════════════════════════════════════

// OnCourseEntry is a competitor on course with the running time at AsOf.
type OnCourseEntry struct {
	CompetitorDTO
	Running time.Duration `json:"running"`
}

// OnCourseResult lists competitors on course, next expected finisher first.
type OnCourseResult struct {
	RaceID  string          `json:"race_id"`
	Entries []OnCourseEntry `json:"entries"`
	AsOf    time.Time       `json:"as_of"`
}

// OnCourseHandler builds the on-course list.
type OnCourseHandler struct {
	reader RaceReader
}

// NewOnCourseHandler creates an OnCourseHandler.
func NewOnCourseHandler(reader RaceReader) *OnCourseHandler {
	return &OnCourseHandler{reader: reader}
}

// Handle runs the query.
func (h *OnCourseHandler) Handle(ctx context.Context) (*OnCourseResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *OnCourseResult
	err := h.reader.Read(func(r *race.IndividualRace) error {
		now := r.Clock().Now()
		nowMs := now.UnixMilli()

		result = &OnCourseResult{RaceID: r.ID(), AsOf: now}
		for _, c := range r.Competitors().OnCourse() {
			entry := OnCourseEntry{CompetitorDTO: toDTO(c)}
			if c.StartTime() > 0 && nowMs > c.StartTime() {
				entry.Running = time.Duration(nowMs-c.StartTime()) * time.Millisecond
			}
			result.Entries = append(result.Entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// STANDINGS
// ══════════════════════════════════════════════════════════════════════════════

// StandingDTO is one ranked line.
type StandingDTO struct {
	Rank int `json:"rank,omitempty"`
	CompetitorDTO
	Gap time.Duration `json:"gap,omitempty"`
}

// PartitionStandingsDTO is the result list of one partition.
type PartitionStandingsDTO struct {
	Gender    athlete.Gender   `json:"gender"`
	Category  athlete.Category `json:"category"`
	Finishers []StandingDTO    `json:"finishers"`
	DNF       []StandingDTO    `json:"dnf"`
}

// StandingsResult holds every partition with results.
type StandingsResult struct {
	RaceID     string                  `json:"race_id"`
	RaceName   string                  `json:"race_name"`
	Partitions []PartitionStandingsDTO `json:"partitions"`
}

// StandingsHandler builds result lists.
type StandingsHandler struct {
	reader RaceReader
}

// NewStandingsHandler creates a StandingsHandler.
func NewStandingsHandler(reader RaceReader) *StandingsHandler {
	return &StandingsHandler{reader: reader}
}

// Handle runs the query.
func (h *StandingsHandler) Handle(ctx context.Context) (*StandingsResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var result *StandingsResult
	err := h.reader.Read(func(r *race.IndividualRace) error {
		result = &StandingsResult{RaceID: r.ID(), RaceName: r.Name()}
		for _, ps := range r.Standings() {
			dto := PartitionStandingsDTO{
				Gender:   ps.Partition.Gender,
				Category: ps.Partition.Category,
			}
			for _, s := range ps.Finishers {
				dto.Finishers = append(dto.Finishers, StandingDTO{Rank: s.Rank, CompetitorDTO: toDTO(s.Competitor), Gap: s.Gap})
			}
			for _, s := range ps.DNF {
				dto.DNF = append(dto.DNF, StandingDTO{CompetitorDTO: toDTO(s.Competitor)})
			}
			result.Partitions = append(result.Partitions, dto)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
