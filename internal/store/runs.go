package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/triple-play-labs/diamondx/internal/event"
)

// Run kinds.
const (
	KindGame     = "game"
	KindScenario = "scenario"
)

// Run is one stored simulation run.
type Run struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Seed      int64           `json:"seed"`
	Status    string          `json:"status"`
	Home      string          `json:"home"`
	Away      string          `json:"away"`
	HomeScore int             `json:"home_score"`
	AwayScore int             `json:"away_score"`
	Innings   int             `json:"innings"`
	WalkOff   bool            `json:"walk_off"`
	Steps     int             `json:"steps"`
	Digest    string          `json:"digest"`
	Config    json.RawMessage `json:"config"`
	CreatedAt time.Time       `json:"created_at"`
}

// SaveRun writes a run and its event log in one transaction.
//
// Uses ON CONFLICT DO NOTHING for idempotency: saving the same run id twice
// keeps the first copy. A zero CreatedAt is stamped with the current time.
func (s *Store) SaveRun(ctx context.Context, run Run, records []event.Record) error {
	if run.ID == "" {
		return fmt.Errorf("save run: empty id")
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	config := string(run.Config)
	if config == "" {
		config = "{}"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save run: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, kind, seed, status, home, away, home_score, away_score, innings, walk_off, steps, digest, config, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.Kind,
		run.Seed,
		run.Status,
		run.Home,
		run.Away,
		run.HomeScore,
		run.AwayScore,
		run.Innings,
		run.WalkOff,
		run.Steps,
		run.Digest,
		config,
		run.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if err := insertEvents(ctx, tx, run.ID, records); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save run %s: commit: %w", run.ID, err)
	}
	return nil
}

func insertEvents(ctx context.Context, tx *sql.Tx, runID string, records []event.Record) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (run_id, seq, sim_time_ns, type, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, seq) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, runID, rec.Seq, rec.TimeNs, string(rec.Type), string(rec.Payload)); err != nil {
			return fmt.Errorf("insert event seq=%d: %w", rec.Seq, err)
		}
	}
	return nil
}

const runColumns = `id, kind, seed, status, home, away, home_score, away_score, innings, walk_off, steps, digest, config, created_at`

// ReadRun retrieves a single run by id.
// Returns an error wrapping ErrNotFound if the id does not exist.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("read run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, oldest first. limit <= 0 means all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at ASC, id COLLATE BINARY ASC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its events. Deleting a missing id is not an error.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}

// ReadEvents returns the stored event log of a run ordered by seq.
// Returns an empty slice (not nil) if the run has no events.
func (s *Store) ReadEvents(ctx context.Context, runID string) ([]event.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, sim_time_ns, type, payload
		FROM events
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	records := []event.Record{}
	for rows.Next() {
		var (
			rec     event.Record
			typ     string
			payload string
		)
		if err := rows.Scan(&rec.Seq, &rec.TimeNs, &typ, &payload); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		rec.Type = event.Type(typ)
		rec.Payload = json.RawMessage(payload)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run     Run
		config  string
		created int64
	)
	err := row.Scan(
		&run.ID,
		&run.Kind,
		&run.Seed,
		&run.Status,
		&run.Home,
		&run.Away,
		&run.HomeScore,
		&run.AwayScore,
		&run.Innings,
		&run.WalkOff,
		&run.Steps,
		&run.Digest,
		&config,
		&created,
	)
	if err != nil {
		return Run{}, err
	}
	run.Config = json.RawMessage(config)
	run.CreatedAt = time.Unix(0, created).UTC()
	return run, nil
}
