package trainer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/dialogue"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/score"
	"github.com/trainloop/repsim/pkg/provider/llm"
)

// DefaultEvaluationTimeout bounds a single evaluation call.
const DefaultEvaluationTimeout = 45 * time.Second

const (
	evaluationTemperature = 0.3
	evaluationMaxTokens   = 800
)

// Evaluator scores a completed conversation by asking a model to assess the
// trainee's performance against the variant's category schema.
type Evaluator struct {
	v         *domain.Variant
	provider  llm.Provider
	extractor *score.Extractor
	timeout   time.Duration
}

// NewEvaluator builds an Evaluator. provider may be nil, in which case
// Evaluate always fails and callers fall back to synthesis.
func NewEvaluator(v *domain.Variant, provider llm.Provider) *Evaluator {
	return &Evaluator{
		v:         v,
		provider:  provider,
		extractor: score.NewExtractor(v.Categories),
		timeout:   DefaultEvaluationTimeout,
	}
}

// Evaluate asks the model to score the conversation and extracts a Record
// from whatever it returns. The extraction itself never fails; the error
// reports an unavailable or failing evaluator backend.
func (e *Evaluator) Evaluate(ctx context.Context, sess convstore.Session) (score.Record, error) {
	if e.provider == nil {
		return score.Record{}, fmt.Errorf("trainer: no evaluation provider configured")
	}

	req := e.buildRequest(sess.Turns, sess.Scenario)

	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.provider.Complete(evalCtx, *req)
	if err != nil {
		return score.Record{}, fmt.Errorf("trainer: evaluate conversation: %w", err)
	}
	return e.extractor.Extract(resp.Content), nil
}

// ProviderName reports the evaluator backend for metrics, or "none".
func (e *Evaluator) ProviderName() string {
	if e.provider == nil {
		return "none"
	}
	return e.provider.Name()
}

// buildRequest renders the evaluation prompt. The instructed output shape
// matches what score.Extractor parses: structured JSON first, labeled
// "<Category> Score: NN" lines as the prose fallback.
func (e *Evaluator) buildRequest(turns []convstore.Turn, sc persona.Scenario) *llm.CompletionRequest {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are a strict but fair trainer evaluating a %s in a customer-service training exercise.\n\n", e.v.TraineeRole)
	fmt.Fprintf(&sb, "Scenario: %s\n", sc.Description)
	if sc.TrainingFocus != "" {
		fmt.Fprintf(&sb, "Training focus: %s\n", sc.TrainingFocus)
	}
	if sc.IdealResolution != "" {
		fmt.Fprintf(&sb, "Ideal resolution: %s\n", sc.IdealResolution)
	}

	sb.WriteString("\nScore the trainee's messages only, on a 0-100 scale, in these categories:\n")
	for _, c := range e.v.Categories {
		fmt.Fprintf(&sb, "- %s (key: %s)\n", c.Label, c.Key)
	}

	sb.WriteString("\nRespond with a JSON object of this exact shape:\n")
	sb.WriteString(`{"overall_score": <0-100>, "category_scores": {`)
	for i, c := range e.v.Categories {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q: <0-100>", c.Key)
	}
	sb.WriteString(`}, "improvement_suggestions": ["...", "..."], "highlight": "..."}`)
	exampleLabel := "Category"
	if len(e.v.Categories) > 0 {
		exampleLabel = e.v.Categories[0].Label
	}
	sb.WriteString("\nIf you cannot produce JSON, write \"Overall Score: NN\" and one \"")
	sb.WriteString(exampleLabel)
	sb.WriteString(" Score: NN\" line per category instead, followed by a numbered suggestion list.")

	transcript := "Evaluate this conversation:\n\n" + dialogue.FormatHistory(e.v, turns)

	return &llm.CompletionRequest{
		SystemPrompt: sb.String(),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: transcript}},
		Temperature:  evaluationTemperature,
		MaxTokens:    evaluationMaxTokens,
	}
}
