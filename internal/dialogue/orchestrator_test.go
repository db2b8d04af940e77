package dialogue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/pkg/provider/llm"
	"github.com/trainloop/repsim/pkg/provider/llm/mock"
)

func newTestOrchestrator(p llm.Provider) (*Orchestrator, *convstore.Store) {
	store := convstore.NewStore()
	o := NewOrchestrator(store, domain.BankingVariant(), p, nil,
		WithSelector(&scriptSelector{}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return o, store
}

func newTestSession(t *testing.T, store *convstore.Store, mutate func(*convstore.Session)) string {
	t.Helper()
	sess := &convstore.Session{
		ID:       "sess-1",
		UserID:   "trainee-1",
		Persona:  promptPersona(),
		Scenario: promptScenario(),
	}
	if mutate != nil {
		mutate(sess)
	}
	if err := store.Create(sess); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return sess.ID
}

func TestOpenGeneratesOpening(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: "Hi! I was charged twice for the same transaction.",
	}}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	reply, err := o.Open(context.Background(), id)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reply.Text != "Hi! I was charged twice for the same transaction." {
		t.Fatalf("unexpected opening %q", reply.Text)
	}
	if reply.State != convstore.StateInProgress {
		t.Fatalf("want state %s, got %s", convstore.StateInProgress, reply.State)
	}

	snap, err := store.Snapshot(id)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Turns) != 1 || snap.Turns[0].Role != convstore.RoleCustomer {
		t.Fatalf("want one customer turn, got %+v", snap.Turns)
	}

	// A second Open returns the existing opening without another model call.
	again, err := o.Open(context.Background(), id)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	if again.Text != reply.Text {
		t.Fatalf("second Open: want %q, got %q", reply.Text, again.Text)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("want 1 completion call, got %d", len(p.CompleteCalls))
	}
}

func TestOpenFallbackOnly(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, func(s *convstore.Session) { s.UseFallbackOnly = true })

	reply, err := o.Open(context.Background(), id)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if reply.Source != SourceFallback {
		t.Fatalf("want source %s, got %s", SourceFallback, reply.Source)
	}
	if want := "Hello! I'm having an issue with my premium account that needs immediate attention."; reply.Text != want {
		t.Fatalf("want pool opening %q, got %q", want, reply.Text)
	}
	if len(p.CompleteCalls) != 0 {
		t.Fatalf("fallback-only session must not call the model, got %d calls", len(p.CompleteCalls))
	}
}

func TestRespondDeterministic(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	reply, err := o.Respond(context.Background(), id, "May I know your name?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != SourceDeterministic {
		t.Fatalf("want source %s, got %s", SourceDeterministic, reply.Source)
	}
	if reply.Tag != domain.TagAskingName {
		t.Fatalf("want tag %s, got %s", domain.TagAskingName, reply.Tag)
	}
	if !strings.Contains(reply.Text, "Priya Sharma") {
		t.Fatalf("want persona name in reply, got %q", reply.Text)
	}
	if len(p.CompleteCalls) != 0 {
		t.Fatalf("deterministic turn must not call the model, got %d calls", len(p.CompleteCalls))
	}

	snap, _ := store.Snapshot(id)
	if len(snap.Turns) != 2 {
		t.Fatalf("want trainee and customer turns recorded, got %d", len(snap.Turns))
	}
	if snap.Turns[0].Role != convstore.RoleTrainee || snap.Turns[1].Role != convstore.RoleCustomer {
		t.Fatalf("unexpected turn roles %+v", snap.Turns)
	}
}

func TestRespondGenerated(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: `Customer: "The fee seems unfair. Can you waive it?"`,
	}}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	reply, err := o.Respond(context.Background(), id, "Why was I charged this fee?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != SourceGenerated {
		t.Fatalf("want source %s, got %s", SourceGenerated, reply.Source)
	}
	if want := "The fee seems unfair. Can you waive it?"; reply.Text != want {
		t.Fatalf("want sanitized reply %q, got %q", want, reply.Text)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("want 1 completion call, got %d", len(p.CompleteCalls))
	}
}

func TestRespondFallbackPool(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("model unavailable")}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, func(s *convstore.Session) {
		s.Persona.CustomerType = "Regular Customer"
	})

	reply, err := o.Respond(context.Background(), id, "These charges look wrong to me.")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != SourceFallback {
		t.Fatalf("want source %s, got %s", SourceFallback, reply.Source)
	}
	if want := "Can you explain these charges on my statement?"; reply.Text != want {
		t.Fatalf("want pool reply %q, got %q", want, reply.Text)
	}

	snap, _ := store.Snapshot(id)
	if len(snap.Turns) != 2 {
		t.Fatalf("fallback turns must still be recorded, got %d", len(snap.Turns))
	}
}

func TestRespondDegradedTemplate(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("model unavailable")}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	reply, err := o.Respond(context.Background(), id, "Could you verify your identity for me?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != SourceFallback {
		t.Fatalf("want source %s, got %s", SourceFallback, reply.Source)
	}
	if !strings.Contains(reply.Text, "customer ID") {
		t.Fatalf("identity questions should get the degraded identity reply, got %q", reply.Text)
	}
}

func TestRespondMisaddress(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	reply, err := o.Respond(context.Background(), id, "Thank you for coming in, sir.")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != SourceCorrection {
		t.Fatalf("want source %s, got %s", SourceCorrection, reply.Source)
	}
	if !strings.Contains(reply.Text, "ma'am") {
		t.Fatalf("correction must name the right address term, got %q", reply.Text)
	}
	if len(p.CompleteCalls) != 0 {
		t.Fatalf("misaddress turn must not call the model, got %d calls", len(p.CompleteCalls))
	}
}

func TestRespondEnding(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, func(s *convstore.Session) {
		s.State = convstore.StateInProgress
		for i := 0; i < 6; i++ {
			role := convstore.RoleCustomer
			if i%2 == 1 {
				role = convstore.RoleTrainee
			}
			s.Turns = append(s.Turns, convstore.Turn{Role: role, Text: "turn"})
		}
	})

	reply, err := o.Respond(context.Background(), id, "Is there anything else I can help you with?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.Source != SourceClosing {
		t.Fatalf("want source %s, got %s", SourceClosing, reply.Source)
	}
	if reply.State != convstore.StateEnded {
		t.Fatalf("want state %s, got %s", convstore.StateEnded, reply.State)
	}
	if !reply.JustEnded {
		t.Fatal("ending reply must mark the transition with JustEnded")
	}
	if want := "Thank you for your help. Have a good day."; reply.Text != want {
		t.Fatalf("want closing line %q, got %q", want, reply.Text)
	}

	snap, _ := store.Snapshot(id)
	if len(snap.Turns) != 8 {
		t.Fatalf("want ending turns recorded, got %d", len(snap.Turns))
	}

	// Posting to an ended session returns the closing line without
	// recording anything.
	again, err := o.Respond(context.Background(), id, "Anything more?")
	if err != nil {
		t.Fatalf("Respond after end: %v", err)
	}
	if again.Source != SourceClosing || again.State != convstore.StateEnded {
		t.Fatalf("want closing reply on ended session, got %+v", again)
	}
	if again.JustEnded {
		t.Fatal("closing replay must not mark JustEnded again")
	}
	snap, _ = store.Snapshot(id)
	if len(snap.Turns) != 8 {
		t.Fatalf("ended session must not record turns, got %d", len(snap.Turns))
	}
}

func TestRespondNoEndingBeforeMinTurns(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, func(s *convstore.Session) {
		s.UseFallbackOnly = true
		s.State = convstore.StateInProgress
		s.Turns = []convstore.Turn{
			{Role: convstore.RoleCustomer, Text: "Hello! I need help."},
			{Role: convstore.RoleTrainee, Text: "Of course."},
			{Role: convstore.RoleCustomer, Text: "It's about my fees."},
		}
	})

	reply, err := o.Respond(context.Background(), id, "Is there anything else I can help you with?")
	if err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if reply.State == convstore.StateEnded {
		t.Fatal("conversation must not end before the minimum turn count")
	}
}

func TestRespondCancelledContext(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := o.Respond(ctx, id, "Hello!"); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}

	snap, _ := store.Snapshot(id)
	if len(snap.Turns) != 0 {
		t.Fatalf("cancelled request must not record turns, got %d", len(snap.Turns))
	}
}

func TestRespondUnknownSession(t *testing.T) {
	t.Parallel()

	o, _ := newTestOrchestrator(&mock.Provider{})
	if _, err := o.Respond(context.Background(), "missing", "Hello!"); !errors.Is(err, convstore.ErrSessionNotFound) {
		t.Fatalf("want ErrSessionNotFound, got %v", err)
	}
}

func TestConversationEndToEnd(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: "I understand, but I still want the fee reviewed.",
	}}
	o, store := newTestOrchestrator(p)
	id := newTestSession(t, store, nil)

	if _, err := o.Open(context.Background(), id); err != nil {
		t.Fatalf("Open: %v", err)
	}

	exchanges := []string{
		"Hello! How can I help you today?",
		"May I know your name?",
		"Let me look into those charges for you.",
	}
	for _, msg := range exchanges {
		if _, err := o.Respond(context.Background(), id, msg); err != nil {
			t.Fatalf("Respond(%q): %v", msg, err)
		}
	}

	reply, err := o.Respond(context.Background(), id, "I have resolved your issue. Is there anything else I can help you with?")
	if err != nil {
		t.Fatalf("closing Respond: %v", err)
	}
	if reply.State != convstore.StateEnded {
		t.Fatalf("want ended conversation, got state %s", reply.State)
	}

	snap, _ := store.Snapshot(id)
	if snap.State != convstore.StateEnded {
		t.Fatalf("want stored state %s, got %s", convstore.StateEnded, snap.State)
	}
	if len(snap.Turns) != 9 {
		t.Fatalf("want 9 turns (opening + 4 exchanges), got %d", len(snap.Turns))
	}
}

// recordingMetrics counts orchestration events for assertions.
type recordingMetrics struct {
	generations   int
	deterministic int
	fallbacks     int
}

func (m *recordingMetrics) ObserveGeneration(_ context.Context, _ string, _ time.Duration, _ error) {
	m.generations++
}
func (m *recordingMetrics) CountDeterministic(_ context.Context, _ domain.QuestionTag) {
	m.deterministic++
}
func (m *recordingMetrics) CountFallback(_ context.Context) { m.fallbacks++ }

func TestOrchestratorMetrics(t *testing.T) {
	t.Parallel()

	p := &mock.Provider{CompleteErr: errors.New("model unavailable")}
	store := convstore.NewStore()
	m := &recordingMetrics{}
	o := NewOrchestrator(store, domain.BankingVariant(), p, nil,
		WithSelector(&scriptSelector{}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(m),
	)
	id := newTestSession(t, store, nil)

	if _, err := o.Respond(context.Background(), id, "May I know your name?"); err != nil {
		t.Fatalf("Respond: %v", err)
	}
	if _, err := o.Respond(context.Background(), id, "Let me check your statement."); err != nil {
		t.Fatalf("Respond: %v", err)
	}

	if m.deterministic != 1 {
		t.Fatalf("want 1 deterministic turn, got %d", m.deterministic)
	}
	if m.generations != 1 {
		t.Fatalf("want 1 generation attempt, got %d", m.generations)
	}
	if m.fallbacks != 1 {
		t.Fatalf("want 1 fallback, got %d", m.fallbacks)
	}
}
