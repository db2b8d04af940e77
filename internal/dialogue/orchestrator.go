package dialogue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/sample"
	"github.com/trainloop/repsim/internal/sanitize"
	"github.com/trainloop/repsim/pkg/provider/llm"
)

// DefaultGenerationTimeout bounds a single completion call. Fallback replies
// take over when the model does not answer in time.
const DefaultGenerationTimeout = 20 * time.Second

// earlyTurnLimit is the history length up to which a conversation still
// counts as "early" for fallback pool selection.
const earlyTurnLimit = 2

// Source records how a customer reply was produced.
type Source string

const (
	// SourceDeterministic means a template answered without a model call.
	SourceDeterministic Source = "deterministic"
	// SourceGenerated means the model produced the reply.
	SourceGenerated Source = "generated"
	// SourceFallback means generation failed and a canned reply was used.
	SourceFallback Source = "fallback"
	// SourceCorrection means the reply corrects a misgendered address.
	SourceCorrection Source = "correction"
	// SourceClosing means the reply is the conversation's closing line.
	SourceClosing Source = "closing"
)

// Reply is the outcome of one orchestrated turn.
type Reply struct {
	// Text is the customer's message.
	Text string
	// State is the session state after the turn.
	State convstore.State
	// Tag is the classification of the trainee's message, empty for
	// openings.
	Tag domain.QuestionTag
	// Source records how Text was produced.
	Source Source
	// JustEnded is set on the one reply that moves the session to the
	// ended state. Closing-line replays on an already ended session leave
	// it false.
	JustEnded bool
}

// Metrics receives orchestration events. The observe package provides the
// OpenTelemetry implementation; the zero value of the orchestrator uses a
// no-op.
type Metrics interface {
	// ObserveGeneration records one completion attempt with its latency.
	ObserveGeneration(ctx context.Context, provider string, d time.Duration, err error)
	// CountDeterministic records a turn answered without a model call.
	CountDeterministic(ctx context.Context, tag domain.QuestionTag)
	// CountFallback records a turn answered from a fallback pool.
	CountFallback(ctx context.Context)
}

type noopMetrics struct{}

func (noopMetrics) ObserveGeneration(context.Context, string, time.Duration, error) {}
func (noopMetrics) CountDeterministic(context.Context, domain.QuestionTag)          {}
func (noopMetrics) CountFallback(context.Context)                                   {}

// Orchestrator drives the per-turn pipeline for one domain variant:
// misaddress correction, ending detection, deterministic templates,
// model generation with sanitization and validation, persona flavoring,
// and fallback pools when generation fails.
type Orchestrator struct {
	store    *convstore.Store
	v        *domain.Variant
	provider llm.Provider

	classifier *Classifier
	ending     *EndingDetector
	address    *AddressChecker
	flavor     *Flavorer
	templates  *Templates
	prompts    *PromptBuilder
	validator  *sanitize.Validator

	sel        sample.Selector
	log        *slog.Logger
	metrics    Metrics
	genTimeout time.Duration
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithSelector sets the randomness source for pools and flavoring. Tests
// inject a fixed selector for reproducibility.
func WithSelector(sel sample.Selector) Option {
	return func(o *Orchestrator) { o.sel = sel }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithGenerationTimeout bounds each completion call.
func WithGenerationTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.genTimeout = d }
}

// WithClock sets the time source for turn timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the pipeline for one domain variant. provider may be
// nil, in which case every session behaves as fallback-only.
func NewOrchestrator(store *convstore.Store, v *domain.Variant, provider llm.Provider, products persona.Products, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		v:          v,
		provider:   provider,
		classifier: NewClassifier(v.ClassifierRules),
		ending:     NewEndingDetector(v),
		address:    NewAddressChecker(v),
		templates:  NewTemplates(v),
		prompts:    NewPromptBuilder(v, products),
		sel:        sample.Default(),
		log:        slog.Default(),
		metrics:    noopMetrics{},
		genTimeout: DefaultGenerationTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.flavor = NewFlavorer(v, o.sel)
	o.validator = sanitize.NewValidator(sanitize.ValidatorConfig{
		GreetingTokens:   v.GreetingTokens,
		DefaultGreeting:  "Hello!",
		InitialClarifier: v.InitialClarifier,
		LaterClarifier:   v.LaterClarifier,
		EchoAlternatives: v.EchoAlternatives,
	}, o.sel)
	return o
}

// Open produces the customer's opening message and moves the session to
// IN_PROGRESS. Calling Open on a session that already opened returns the
// existing opening without generating again.
func (o *Orchestrator) Open(ctx context.Context, sessionID string) (*Reply, error) {
	var out *Reply
	err := o.store.With(ctx, sessionID, func(s *convstore.Session) error {
		if len(s.Turns) > 0 {
			out = &Reply{Text: s.Turns[0].Text, State: s.State, Source: SourceGenerated}
			return nil
		}

		text, source := o.generateOpening(ctx, s)
		if err := ctx.Err(); err != nil {
			return err
		}

		s.Append(convstore.RoleCustomer, text, o.now())
		s.State = convstore.StateInProgress
		out = &Reply{Text: text, State: s.State, Source: source}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Respond processes one trainee message and returns the customer's reply.
// The whole pipeline runs under the session lock so concurrent posts to the
// same session serialize. On context cancellation no turn is recorded.
func (o *Orchestrator) Respond(ctx context.Context, sessionID, traineeMsg string) (*Reply, error) {
	var out *Reply
	err := o.store.With(ctx, sessionID, func(s *convstore.Session) error {
		if s.State == convstore.StateEnded {
			out = &Reply{Text: o.v.ClosingLine, State: convstore.StateEnded, Source: SourceClosing}
			return nil
		}

		reply := o.respond(ctx, s, traineeMsg)
		if err := ctx.Err(); err != nil {
			return err
		}

		at := o.now()
		s.Append(convstore.RoleTrainee, traineeMsg, at)
		s.Append(convstore.RoleCustomer, reply.Text, at)
		if reply.State == convstore.StateEnded {
			s.State = convstore.StateEnded
			reply.JustEnded = true
		} else {
			s.State = convstore.StateInProgress
			reply.State = s.State
		}
		out = reply
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// respond computes the customer reply without touching session state.
func (o *Orchestrator) respond(ctx context.Context, s *convstore.Session, traineeMsg string) *Reply {
	p, sc := s.Persona, s.Scenario

	if o.address.Misaddressed(traineeMsg, p.Gender) {
		return &Reply{Text: o.address.Correction(p), Source: SourceCorrection}
	}

	if o.ending.ShouldEnd(traineeMsg, len(s.Turns)) {
		return &Reply{Text: o.v.ClosingLine, State: convstore.StateEnded, Source: SourceClosing}
	}

	tag := o.classifier.Classify(traineeMsg)

	if text, ok := o.templates.Reply(tag, p, sc); ok {
		o.metrics.CountDeterministic(ctx, tag)
		return &Reply{Text: text, Tag: tag, Source: SourceDeterministic}
	}

	if s.UseFallbackOnly || o.provider == nil {
		return &Reply{Text: o.fallbackReply(ctx, s, tag), Tag: tag, Source: SourceFallback}
	}

	text, err := o.generate(ctx, s, traineeMsg, tag)
	if err != nil {
		o.log.WarnContext(ctx, "generation failed, using fallback reply",
			"session", s.ID, "error", err)
		return &Reply{Text: o.fallbackReply(ctx, s, tag), Tag: tag, Source: SourceFallback}
	}
	return &Reply{Text: text, Tag: tag, Source: SourceGenerated}
}

// generate runs the model pipeline: complete, sanitize, validate, flavor.
func (o *Orchestrator) generate(ctx context.Context, s *convstore.Session, traineeMsg string, tag domain.QuestionTag) (string, error) {
	req := o.prompts.Turn(s.Persona, s.Scenario, s.Turns, traineeMsg, tag)

	genCtx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()

	start := o.now()
	resp, err := o.provider.Complete(genCtx, *req)
	o.metrics.ObserveGeneration(ctx, o.provider.Name(), o.now().Sub(start), err)
	if err != nil {
		return "", fmt.Errorf("dialogue: complete turn: %w", err)
	}

	text := sanitize.Clean(resp.Content)
	text = o.validator.Validate(text, traineeMsg, false)
	return o.flavor.Apply(text, s.Persona), nil
}

// generateOpening produces the opening line, falling back to the opening
// pool when the model is unavailable or fails.
func (o *Orchestrator) generateOpening(ctx context.Context, s *convstore.Session) (string, Source) {
	if s.UseFallbackOnly || o.provider == nil {
		o.metrics.CountFallback(ctx)
		return sample.Pick(o.sel, o.v.OpeningPool(s.Persona.CustomerType)), SourceFallback
	}

	req := o.prompts.Opening(s.Persona, s.Scenario)

	genCtx, cancel := context.WithTimeout(ctx, o.genTimeout)
	defer cancel()

	start := o.now()
	resp, err := o.provider.Complete(genCtx, *req)
	o.metrics.ObserveGeneration(ctx, o.provider.Name(), o.now().Sub(start), err)
	if err != nil {
		o.log.WarnContext(ctx, "opening generation failed, using fallback opening",
			"session", s.ID, "error", err)
		o.metrics.CountFallback(ctx)
		return sample.Pick(o.sel, o.v.OpeningPool(s.Persona.CustomerType)), SourceFallback
	}

	text := sanitize.Clean(resp.Content)
	text = o.validator.Validate(text, "", true)
	return o.flavor.Apply(text, s.Persona), SourceGenerated
}

// fallbackReply picks a canned customer reply: a degraded template for tags
// that have one, otherwise a line from the variant's turn pools.
func (o *Orchestrator) fallbackReply(ctx context.Context, s *convstore.Session, tag domain.QuestionTag) string {
	o.metrics.CountFallback(ctx)
	if text, ok := o.templates.DegradedReply(tag, s.Persona, s.Scenario); ok {
		return text
	}
	early := len(s.Turns) <= earlyTurnLimit
	return sample.Pick(o.sel, o.v.TurnPool(s.Persona.CustomerType, early))
}
