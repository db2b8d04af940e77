// Package convstore owns conversation session state: persona, scenario and
// the append-only turn history of every active exercise.
//
// Sessions are kept in memory only. Concurrent requests for different
// sessions never block one another; requests for the same session are
// serialized through a per-session mutex so turn history cannot interleave.
package convstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/trainloop/repsim/internal/persona"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("convstore: session not found")

// ErrSessionExists is returned when creating a session with a taken id.
var ErrSessionExists = errors.New("convstore: session already exists")

// State is the lifecycle state of a conversation.
type State string

const (
	// StateAwaitingFirstTurn means no turn has been exchanged yet.
	StateAwaitingFirstTurn State = "AWAITING_FIRST_TURN"
	// StateInProgress means at least one turn has been exchanged.
	StateInProgress State = "IN_PROGRESS"
	// StateEnded is terminal; the session accepts no further trainee turns.
	StateEnded State = "ENDED"
)

// Role attributes a turn to one side of the conversation.
type Role string

const (
	RoleTrainee  Role = "trainee"
	RoleCustomer Role = "customer"
)

// Turn is one message of a conversation. Turns are append-only and keep
// received order.
type Turn struct {
	Role Role
	Text string
	At   time.Time
}

// Session is the full state of one conversation. It is owned exclusively by
// the Store; mutate it only inside [Store.With].
type Session struct {
	ID       string
	UserID   string
	Persona  persona.Persona
	Scenario persona.Scenario
	State    State
	Turns    []Turn

	// UseFallbackOnly pins the session to deterministic fallback replies,
	// fixed at creation.
	UseFallbackOnly bool

	StartedAt time.Time
}

// Append adds a turn to the history.
func (s *Session) Append(role Role, text string, at time.Time) {
	s.Turns = append(s.Turns, Turn{Role: role, Text: text, At: at})
}

// snapshot returns a deep copy safe to use outside the session lock.
func (s *Session) snapshot() Session {
	out := *s
	out.Persona = s.Persona.Clone()
	out.Turns = append([]Turn(nil), s.Turns...)
	return out
}

// entry pairs a session with its serialization mutex.
type entry struct {
	mu   sync.Mutex
	sess *Session
}

// Store holds all active sessions keyed by id.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*entry)}
}

// Create registers a new session. The session id must be set and unused.
func (st *Store) Create(sess *Session) error {
	if sess.ID == "" {
		return fmt.Errorf("convstore: session id must not be empty")
	}
	if sess.State == "" {
		sess.State = StateAwaitingFirstTurn
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.entries[sess.ID]; ok {
		return fmt.Errorf("convstore: create %q: %w", sess.ID, ErrSessionExists)
	}
	st.entries[sess.ID] = &entry{sess: sess}
	return nil
}

// With runs fn with exclusive access to the session. Calls for the same
// session serialize; calls for different sessions proceed concurrently.
// ctx is checked before fn runs so a caller that already gave up does not
// mutate the session.
func (st *Store) With(ctx context.Context, id string, fn func(*Session) error) error {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok {
		return fmt.Errorf("convstore: %q: %w", id, ErrSessionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(e.sess)
}

// Snapshot returns a deep copy of the session for lock-free reading.
func (st *Store) Snapshot(id string) (Session, error) {
	st.mu.RLock()
	e, ok := st.entries[id]
	st.mu.RUnlock()
	if !ok {
		return Session{}, fmt.Errorf("convstore: %q: %w", id, ErrSessionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sess.snapshot(), nil
}

// Delete evicts a session. Deleting an unknown id is a no-op.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.entries, id)
}

// Len reports the number of active sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.entries)
}
