package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/livetiming/race-hub/internal/domain/athlete"
	"github.com/livetiming/race-hub/internal/domain/race"
	"github.com/livetiming/race-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RACE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// RaceRepository implements race.Repository for PostgreSQL.
type RaceRepository struct {
	conn *Connection
}

// NewRaceRepository creates a new RaceRepository.
func NewRaceRepository(conn *Connection) *RaceRepository {
	return &RaceRepository{conn: conn}
}

const upsertCompetitorSQL = `
	INSERT INTO competitors (
		race_id, id, entry_order, first_name, last_name, club, birth_year,
		gender, category, status, start_number, start_time, finish_time, updated_at
	) VALUES (
		$1, $2,
		COALESCE($3, (SELECT COALESCE(MAX(entry_order), -1) + 1 FROM competitors WHERE race_id = $1)),
		$4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW()
	)
	ON CONFLICT (race_id, id) DO UPDATE SET
		category = EXCLUDED.category,
		status = EXCLUDED.status,
		start_number = EXCLUDED.start_number,
		start_time = EXCLUDED.start_time,
		finish_time = EXCLUDED.finish_time,
		updated_at = NOW()
`

func competitorArgs(raceID string, entryOrder *int, s race.CompetitorState) []any {
	return []any{
		raceID,
		s.ID,
		entryOrder,
		s.Athlete.FirstName,
		s.Athlete.LastName,
		s.Athlete.Club,
		s.Athlete.BirthYear,
		string(s.Athlete.Gender),
		s.Category.String(),
		string(s.Status),
		s.StartNumber,
		s.StartTime,
		s.FinishTime,
	}
}

// SaveRace stores the race header and replaces its competitors in one
// transaction.
func (r *RaceRepository) SaveRace(ctx context.Context, ir *race.IndividualRace) error {
	snap := ir.Snapshot()
	all := ir.Competitors().EntryOrder()

	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO races (id, name, created_at, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, updated_at = NOW()
		`, snap.ID, snap.Name, snap.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to save race: %w", err)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM competitors WHERE race_id = $1", snap.ID); err != nil {
			return fmt.Errorf("failed to clear competitors: %w", err)
		}

		batch := &pgx.Batch{}
		for i, c := range all {
			order := i
			batch.Queue(upsertCompetitorSQL, competitorArgs(snap.ID, &order, c.State())...)
		}

		results := tx.SendBatch(ctx, batch)
		for range all {
			if _, err := results.Exec(); err != nil {
				_ = results.Close()
				return fmt.Errorf("failed to save competitor: %w", err)
			}
		}
		return results.Close()
	})
}

// SaveCompetitor stores the race fields of one competitor. A competitor not
// yet stored is appended at the end of the entry order.
func (r *RaceRepository) SaveCompetitor(ctx context.Context, raceID string, c *race.Competitor) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertCompetitorSQL, competitorArgs(raceID, nil, c.State())...); err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrRaceNotFound
			}
			return fmt.Errorf("failed to save competitor: %w", err)
		}

		_, err := tx.Exec(ctx, "UPDATE races SET updated_at = NOW() WHERE id = $1", raceID)
		return err
	})
}

// LoadRace rebuilds a stored race, competitors in entry order.
func (r *RaceRepository) LoadRace(ctx context.Context, raceID string, opts ...race.Option) (*race.IndividualRace, error) {
	var snap race.Snapshot
	err := r.conn.QueryRow(ctx,
		"SELECT id, name, created_at FROM races WHERE id = $1", raceID,
	).Scan(&snap.ID, &snap.Name, &snap.CreatedAt)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrRaceNotFound
		}
		return nil, fmt.Errorf("failed to load race: %w", err)
	}

	rows, err := r.conn.Query(ctx, `
		SELECT id, first_name, last_name, club, birth_year, gender, category,
			   status, start_number, start_time, finish_time
		FROM competitors
		WHERE race_id = $1
		ORDER BY entry_order
	`, raceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load competitors: %w", err)
	}
	defer rows.Close()

	var states []race.CompetitorState
	for rows.Next() {
		s, err := scanCompetitor(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load competitors: %w", err)
	}

	return race.Restore(snap, states, opts...), nil
}

// RaceSummary is one line of the stored-race listing.
type RaceSummary struct {
	ID          string
	Name        string
	Competitors int
	UpdatedAt   time.Time
}

// RecentRaces lists stored races, most recently updated first.
func (r *RaceRepository) RecentRaces(ctx context.Context, limit int) ([]RaceSummary, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.conn.Query(ctx, `
		SELECT r.id, r.name, r.updated_at, COUNT(c.id)
		FROM races r
		LEFT JOIN competitors c ON c.race_id = r.id
		GROUP BY r.id, r.name, r.updated_at
		ORDER BY r.updated_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	defer rows.Close()

	var out []RaceSummary
	for rows.Next() {
		var s RaceSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.UpdatedAt, &s.Competitors); err != nil {
			return nil, fmt.Errorf("failed to scan race: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanCompetitor(row pgx.Row) (race.CompetitorState, error) {
	var (
		s        race.CompetitorState
		gender   string
		category string
		status   string
	)
	err := row.Scan(
		&s.ID,
		&s.Athlete.FirstName,
		&s.Athlete.LastName,
		&s.Athlete.Club,
		&s.Athlete.BirthYear,
		&gender,
		&category,
		&status,
		&s.StartNumber,
		&s.StartTime,
		&s.FinishTime,
	)
	if err != nil {
		return s, fmt.Errorf("failed to scan competitor: %w", err)
	}

	s.Athlete.Gender = athlete.Gender(gender)
	if s.Category, err = athlete.ParseCategory(category); err != nil {
		return s, fmt.Errorf("competitor %s: %w", s.ID, err)
	}
	if s.Status, err = race.ParseStatus(status); err != nil {
		return s, fmt.Errorf("competitor %s: %w", s.ID, err)
	}
	return s, nil
}
