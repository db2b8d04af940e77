package progress

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySink is an in-memory [Sink] for tests and deployments without a
// database. Safe for concurrent use.
type MemorySink struct {
	mu   sync.RWMutex
	recs map[string]map[string]*Record

	// now is the time source, overridable in tests.
	now func() time.Time
}

// Compile-time interface check.
var _ Sink = (*MemorySink)(nil)

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{
		recs: make(map[string]map[string]*Record),
		now:  time.Now,
	}
}

// RecordAttempt implements [Sink].
func (s *MemorySink) RecordAttempt(_ context.Context, userID string, a Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byScenario, ok := s.recs[userID]
	if !ok {
		byScenario = make(map[string]*Record)
		s.recs[userID] = byScenario
	}

	rec, ok := byScenario[a.ScenarioID]
	if !ok {
		rec = &Record{UserID: userID, ScenarioID: a.ScenarioID}
		byScenario[a.ScenarioID] = rec
	}

	if a.Overall > rec.BestScore {
		rec.BestScore = a.Overall
	}
	rec.AttemptCount++
	rec.Attempts = append([]Attempt{a}, rec.Attempts...)
	if len(rec.Attempts) > MaxRecentAttempts {
		rec.Attempts = rec.Attempts[:MaxRecentAttempts]
	}
	rec.UpdatedAt = s.now()
	return nil
}

// Get implements [Sink].
func (s *MemorySink) Get(_ context.Context, userID, scenarioID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.recs[userID][scenarioID]
	if !ok {
		return nil, nil
	}
	out := *rec
	out.Attempts = append([]Attempt(nil), rec.Attempts...)
	return &out, nil
}

// List implements [Sink].
func (s *MemorySink) List(_ context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.recs[userID] {
		cp := *rec
		cp.Attempts = append([]Attempt(nil), rec.Attempts...)
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}
