package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Batch is a stored Monte Carlo summary.
type Batch struct {
	ID           string    `json:"id"`
	Games        int       `json:"games"`
	BaseSeed     int64     `json:"base_seed"`
	Home         string    `json:"home"`
	Away         string    `json:"away"`
	HomeWins     int       `json:"home_wins"`
	AwayWins     int       `json:"away_wins"`
	Errors       int       `json:"errors"`
	AvgHomeRuns  float64   `json:"avg_home_runs"`
	AvgAwayRuns  float64   `json:"avg_away_runs"`
	ExtraInnings int       `json:"extra_innings"`
	WalkOffs     int       `json:"walk_offs"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveBatch writes a batch summary. Saving the same id twice keeps the first copy.
func (s *Store) SaveBatch(ctx context.Context, b Batch) error {
	if b.ID == "" {
		return fmt.Errorf("save batch: empty id")
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO batches
		(id, games, base_seed, home, away, home_wins, away_wins, errors, avg_home_runs, avg_away_runs, extra_innings, walk_offs, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		b.ID,
		b.Games,
		b.BaseSeed,
		b.Home,
		b.Away,
		b.HomeWins,
		b.AwayWins,
		b.Errors,
		b.AvgHomeRuns,
		b.AvgAwayRuns,
		b.ExtraInnings,
		b.WalkOffs,
		b.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save batch %s: %w", b.ID, err)
	}
	return nil
}

const batchColumns = `id, games, base_seed, home, away, home_wins, away_wins, errors, avg_home_runs, avg_away_runs, extra_innings, walk_offs, created_at`

// ReadBatch retrieves a batch summary by id.
func (s *Store) ReadBatch(ctx context.Context, id string) (Batch, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+batchColumns+` FROM batches WHERE id = ?`, id)
	b, err := scanBatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Batch{}, fmt.Errorf("read batch %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Batch{}, fmt.Errorf("read batch %s: %w", id, err)
	}
	return b, nil
}

// ListBatches returns all batch summaries, oldest first.
func (s *Store) ListBatches(ctx context.Context) ([]Batch, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+batchColumns+` FROM batches ORDER BY created_at ASC, id COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	batches := []Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("list batches: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

func scanBatch(row scanner) (Batch, error) {
	var (
		b       Batch
		created int64
	)
	err := row.Scan(
		&b.ID,
		&b.Games,
		&b.BaseSeed,
		&b.Home,
		&b.Away,
		&b.HomeWins,
		&b.AwayWins,
		&b.Errors,
		&b.AvgHomeRuns,
		&b.AvgAwayRuns,
		&b.ExtraInnings,
		&b.WalkOffs,
		&created,
	)
	if err != nil {
		return Batch{}, err
	}
	b.CreatedAt = time.Unix(0, created).UTC()
	return b, nil
}
