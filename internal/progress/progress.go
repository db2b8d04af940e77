// Package progress persists trainee results across sessions: best score,
// attempt counts and the most recent attempts per scenario.
//
// Persistence is best effort. Callers treat a failing sink as degraded
// operation, not as a reason to fail the training exercise; errors wrap
// [ErrUnavailable] so callers can detect the condition.
package progress

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable marks persistence failures. Errors returned by sinks wrap
// it so callers can distinguish "store down" from bad input.
var ErrUnavailable = errors.New("progress: store unavailable")

// MaxRecentAttempts caps how many attempts a record retains, newest first.
const MaxRecentAttempts = 5

// Attempt is the evaluated result of one completed exercise.
type Attempt struct {
	SessionID  string         `json:"session_id"`
	ScenarioID string         `json:"scenario_id"`
	Overall    int            `json:"overall"`
	Categories map[string]int `json:"categories,omitempty"`
	At         time.Time      `json:"at"`
}

// Record is a trainee's standing on one scenario.
type Record struct {
	UserID     string
	ScenarioID string

	// BestScore is the highest overall score across all attempts.
	BestScore int

	// AttemptCount counts every attempt, including ones no longer in
	// Attempts.
	AttemptCount int

	// Attempts holds the most recent attempts, newest first, capped at
	// MaxRecentAttempts.
	Attempts []Attempt

	UpdatedAt time.Time
}

// Sink persists attempt results.
// Implementations must be safe for concurrent use.
type Sink interface {
	// RecordAttempt folds one attempt into the trainee's record for the
	// attempt's scenario, creating the record when absent.
	RecordAttempt(ctx context.Context, userID string, a Attempt) error

	// Get retrieves one record. Returns (nil, nil) when the trainee has no
	// attempts for the scenario.
	Get(ctx context.Context, userID, scenarioID string) (*Record, error)

	// List returns all of a trainee's records, most recently updated first.
	List(ctx context.Context, userID string) ([]Record, error)
}
