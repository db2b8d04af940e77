// Package trainer ties the simulator together: it starts conversations from
// catalog scenarios, relays trainee messages to the dialogue orchestrator,
// and turns finished conversations into score records and stored progress.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/dialogue"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/progress"
	"github.com/trainloop/repsim/internal/sample"
	"github.com/trainloop/repsim/internal/score"
)

// ErrScenarioNotFound is returned for unknown scenario ids.
var ErrScenarioNotFound = errors.New("trainer: scenario not found")

// ErrEmptyMessage is returned when a trainee message is blank.
var ErrEmptyMessage = errors.New("trainer: message must not be empty")

// synthSuggestionCount is how many generic suggestions a synthesized
// analysis carries.
const synthSuggestionCount = 3

// Metrics is the subset of telemetry the service emits. observe.Metrics
// satisfies it.
type Metrics interface {
	ObserveEvaluation(ctx context.Context, provider string, d time.Duration, err error)
	CountSynthesizedScore(ctx context.Context)
	SessionStarted(ctx context.Context)
	SessionEnded(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) ObserveEvaluation(context.Context, string, time.Duration, error) {}
func (noopMetrics) CountSynthesizedScore(context.Context)                           {}
func (noopMetrics) SessionStarted(context.Context)                                  {}
func (noopMetrics) SessionEnded(context.Context)                                    {}

// Conversation is the client-facing view of a freshly started session.
type Conversation struct {
	SessionID     string
	ScenarioID    string
	ScenarioTitle string
	PersonaName   string
	CustomerType  string
	Opening       string
	State         convstore.State
}

// Analysis is the result of scoring a conversation.
type Analysis struct {
	SessionID string
	State     convstore.State
	TurnCount int
	Score     score.Record
}

// Service exposes the training workflow: start, converse, analyze, progress.
type Service struct {
	v       *domain.Variant
	store   *convstore.Store
	orch    *dialogue.Orchestrator
	eval    *Evaluator
	reducer *persona.Reducer
	sink    progress.Sink

	// mu guards catalog and fallbackOnly, both hot-swappable at runtime.
	mu           sync.RWMutex
	catalog      *persona.Catalog
	fallbackOnly bool

	sel     sample.Selector
	log     *slog.Logger
	metrics Metrics
	now     func() time.Time
	newID   func() string
}

// Option configures a Service.
type Option func(*Service)

// WithProgressSink stores attempts of ended conversations in sink.
func WithProgressSink(sink progress.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithSelector replaces the randomness source.
func WithSelector(sel sample.Selector) Option {
	return func(s *Service) { s.sel = sel }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics attaches telemetry.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithFallbackOnly pins every new session to deterministic fallback replies.
func WithFallbackOnly(on bool) Option {
	return func(s *Service) { s.fallbackOnly = on }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// NewService wires a Service. eval may be built around a nil provider, in
// which case every analysis is synthesized.
func NewService(v *domain.Variant, catalog *persona.Catalog, store *convstore.Store, orch *dialogue.Orchestrator, eval *Evaluator, opts ...Option) *Service {
	s := &Service{
		v:       v,
		catalog: catalog,
		store:   store,
		orch:    orch,
		eval:    eval,
		reducer: persona.NewReducer(v.PriorityRules, v.FallbackPriority),
		sel:     sample.Default(),
		log:     slog.Default(),
		metrics: noopMetrics{},
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartConversation samples a persona for the scenario, reduces it to its
// distinctive traits, registers the session and produces the customer's
// opening line.
func (s *Service) StartConversation(ctx context.Context, userID, scenarioID string) (*Conversation, error) {
	s.mu.RLock()
	catalog := s.catalog
	fallbackOnly := s.fallbackOnly
	s.mu.RUnlock()

	sc, ok := catalog.ScenarioByID(scenarioID)
	if !ok {
		return nil, fmt.Errorf("trainer: scenario %q: %w", scenarioID, ErrScenarioNotFound)
	}

	p := s.reducer.Reduce(catalog.SamplePersona(sc.CustomerType, s.sel))

	sess := &convstore.Session{
		ID:              s.newID(),
		UserID:          userID,
		Persona:         p,
		Scenario:        sc,
		UseFallbackOnly: fallbackOnly,
		StartedAt:       s.now(),
	}
	if err := s.store.Create(sess); err != nil {
		return nil, fmt.Errorf("trainer: start conversation: %w", err)
	}

	reply, err := s.orch.Open(ctx, sess.ID)
	if err != nil {
		s.store.Delete(sess.ID)
		return nil, fmt.Errorf("trainer: open conversation: %w", err)
	}

	s.metrics.SessionStarted(ctx)
	s.log.InfoContext(ctx, "conversation started",
		"session_id", sess.ID,
		"scenario_id", sc.ID,
		"persona_id", p.ID,
		"fallback_only", fallbackOnly,
	)

	return &Conversation{
		SessionID:     sess.ID,
		ScenarioID:    sc.ID,
		ScenarioTitle: sc.Title,
		PersonaName:   p.Name,
		CustomerType:  p.CustomerType,
		Opening:       reply.Text,
		State:         reply.State,
	}, nil
}

// PostMessage relays a trainee message and returns the customer's reply.
func (s *Service) PostMessage(ctx context.Context, sessionID, message string) (*dialogue.Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}

	reply, err := s.orch.Respond(ctx, sessionID, message)
	if err != nil {
		return nil, err
	}

	// A session leaves the active gauge the moment it first reaches the
	// ended state; closing replays after that do not count again.
	if reply.JustEnded {
		s.metrics.SessionEnded(ctx)
	}
	return reply, nil
}

// Analyze scores the conversation as it stands. The evaluator's failure is
// absorbed: the caller always gets a Record, synthesized if need be. Ended
// conversations additionally record a progress attempt, best effort.
func (s *Service) Analyze(ctx context.Context, sessionID string) (*Analysis, error) {
	snap, err := s.store.Snapshot(sessionID)
	if err != nil {
		return nil, err
	}

	start := s.now()
	rec, err := s.eval.Evaluate(ctx, snap)
	s.metrics.ObserveEvaluation(ctx, s.eval.ProviderName(), s.now().Sub(start), err)
	if err != nil {
		s.log.WarnContext(ctx, "evaluation failed, synthesizing score",
			"session_id", sessionID, "error", err)
		rec = score.Synthesize(len(snap.Turns), s.v.Categories, s.pickSuggestions(synthSuggestionCount), s.sel)
		s.metrics.CountSynthesizedScore(ctx)
	}

	if snap.State == convstore.StateEnded {
		s.recordAttempt(ctx, snap, rec)
	}

	return &Analysis{
		SessionID: snap.ID,
		State:     snap.State,
		TurnCount: len(snap.Turns),
		Score:     rec,
	}, nil
}

// EndConversation evicts a session. Sessions that never reached the ended
// state leave the active gauge here instead.
func (s *Service) EndConversation(ctx context.Context, sessionID string) error {
	snap, err := s.store.Snapshot(sessionID)
	if err != nil {
		return err
	}
	s.store.Delete(sessionID)
	if snap.State != convstore.StateEnded {
		s.metrics.SessionEnded(ctx)
	}
	s.log.InfoContext(ctx, "conversation closed", "session_id", sessionID, "turns", len(snap.Turns))
	return nil
}

// ListScenarios returns the catalog's scenarios.
func (s *Service) ListScenarios() []persona.Scenario {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.Scenarios
}

// GetScenario looks up a scenario.
func (s *Service) GetScenario(id string) (persona.Scenario, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog.ScenarioByID(id)
}

// SetFallbackOnly changes the reply pinning applied to sessions started from
// now on. Running sessions keep the mode they were created with.
func (s *Service) SetFallbackOnly(on bool) {
	s.mu.Lock()
	s.fallbackOnly = on
	s.mu.Unlock()
}

// ReplaceCatalog swaps the scenario catalog used for future conversations.
// Running sessions keep their sampled persona and scenario.
func (s *Service) ReplaceCatalog(c *persona.Catalog) {
	s.mu.Lock()
	s.catalog = c
	s.mu.Unlock()
}

// Progress lists the trainee's per-scenario progress, newest first. Without
// a configured sink the result is empty.
func (s *Service) Progress(ctx context.Context, userID string) ([]progress.Record, error) {
	if s.sink == nil {
		return nil, nil
	}
	return s.sink.List(ctx, userID)
}

// ScenarioProgress returns the trainee's progress for one scenario, or nil
// when none exists.
func (s *Service) ScenarioProgress(ctx context.Context, userID, scenarioID string) (*progress.Record, error) {
	if s.sink == nil {
		return nil, nil
	}
	return s.sink.Get(ctx, userID, scenarioID)
}

// recordAttempt stores the attempt, tolerating sink outages.
func (s *Service) recordAttempt(ctx context.Context, snap convstore.Session, rec score.Record) {
	if s.sink == nil {
		return
	}
	a := progress.Attempt{
		SessionID:  snap.ID,
		ScenarioID: snap.Scenario.ID,
		Overall:    rec.Overall,
		Categories: rec.Categories,
		At:         s.now(),
	}
	if err := s.sink.RecordAttempt(ctx, snap.UserID, a); err != nil {
		s.log.WarnContext(ctx, "progress not recorded",
			"session_id", snap.ID, "user_id", snap.UserID, "error", err)
	}
}

// pickSuggestions samples up to n generic suggestions without replacement.
func (s *Service) pickSuggestions(n int) []string {
	pool := append([]string(nil), s.v.GenericSuggestions...)
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]string, 0, n)
	for range n {
		i := s.sel.IntN(len(pool))
		out = append(out, pool[i])
		pool[i] = pool[len(pool)-1]
		pool = pool[:len(pool)-1]
	}
	return out
}
