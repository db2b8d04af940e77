package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Schema is the SQL DDL for the trainee_progress table. Execute it via
// [PostgresSink.Migrate] or apply it manually during deployment.
const Schema = `
CREATE TABLE IF NOT EXISTS trainee_progress (
    user_id         TEXT NOT NULL,
    scenario_id     TEXT NOT NULL,
    best_score      INTEGER NOT NULL DEFAULT 0,
    attempt_count   INTEGER NOT NULL DEFAULT 0,
    recent_attempts JSONB NOT NULL DEFAULT '[]',
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, scenario_id)
);
CREATE INDEX IF NOT EXISTS idx_trainee_progress_user ON trainee_progress(user_id);
`

// DB is the database interface used by [PostgresSink]. Both *pgxpool.Pool
// and *pgx.Conn satisfy this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink is a [Sink] backed by a PostgreSQL database. Recent attempts
// are serialised as a JSONB array, newest first.
type PostgresSink struct {
	db DB
}

// Compile-time interface check.
var _ Sink = (*PostgresSink)(nil)

// NewPostgresSink creates a new [PostgresSink] using the given connection or
// pool. Call [PostgresSink.Migrate] before issuing queries.
func NewPostgresSink(db DB) *PostgresSink {
	return &PostgresSink{db: db}
}

// Migrate executes the [Schema] DDL against the database.
func (s *PostgresSink) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("progress: migrate: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// RecordAttempt implements [Sink]. The upsert keeps the best score, counts
// the attempt, and prepends it to the recent list capped at
// [MaxRecentAttempts].
func (s *PostgresSink) RecordAttempt(ctx context.Context, userID string, a Attempt) error {
	if userID == "" {
		return fmt.Errorf("progress: user id must not be empty")
	}
	if a.ScenarioID == "" {
		return fmt.Errorf("progress: scenario id must not be empty")
	}

	attemptJSON, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("progress: marshal attempt: %w", err)
	}

	const query = `
		INSERT INTO trainee_progress (
			user_id, scenario_id, best_score, attempt_count, recent_attempts
		) VALUES ($1, $2, $3, 1, jsonb_build_array($4::jsonb))
		ON CONFLICT (user_id, scenario_id) DO UPDATE SET
			best_score = GREATEST(trainee_progress.best_score, EXCLUDED.best_score),
			attempt_count = trainee_progress.attempt_count + 1,
			recent_attempts = jsonb_path_query_array(
				$4::jsonb || trainee_progress.recent_attempts, '$[0 to 4]'),
			updated_at = now()`

	if _, err := s.db.Exec(ctx, query, userID, a.ScenarioID, a.Overall, attemptJSON); err != nil {
		return fmt.Errorf("progress: record attempt: %w: %w", ErrUnavailable, err)
	}
	return nil
}

// Get implements [Sink]. Returns (nil, nil) when no record exists.
func (s *PostgresSink) Get(ctx context.Context, userID, scenarioID string) (*Record, error) {
	const query = `
		SELECT user_id, scenario_id, best_score, attempt_count, recent_attempts, updated_at
		FROM trainee_progress
		WHERE user_id = $1 AND scenario_id = $2`

	var rec Record
	var attemptsJSON []byte

	err := s.db.QueryRow(ctx, query, userID, scenarioID).Scan(
		&rec.UserID, &rec.ScenarioID, &rec.BestScore, &rec.AttemptCount,
		&attemptsJSON, &rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("progress: get %q/%q: %w: %w", userID, scenarioID, ErrUnavailable, err)
	}

	if err := json.Unmarshal(attemptsJSON, &rec.Attempts); err != nil {
		return nil, fmt.Errorf("progress: unmarshal attempts: %w", err)
	}
	return &rec, nil
}

// List implements [Sink].
func (s *PostgresSink) List(ctx context.Context, userID string) ([]Record, error) {
	const query = `
		SELECT user_id, scenario_id, best_score, attempt_count, recent_attempts, updated_at
		FROM trainee_progress
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("progress: list %q: %w: %w", userID, ErrUnavailable, err)
	}
	defer rows.Close()

	var recs []Record
	for rows.Next() {
		var rec Record
		var attemptsJSON []byte
		if err := rows.Scan(
			&rec.UserID, &rec.ScenarioID, &rec.BestScore, &rec.AttemptCount,
			&attemptsJSON, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("progress: list scan: %w", err)
		}
		if err := json.Unmarshal(attemptsJSON, &rec.Attempts); err != nil {
			return nil, fmt.Errorf("progress: unmarshal attempts: %w", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("progress: list: %w: %w", ErrUnavailable, err)
	}
	return recs, nil
}
