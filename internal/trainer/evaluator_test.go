package trainer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/score"
	"github.com/trainloop/repsim/pkg/provider/llm"
	"github.com/trainloop/repsim/pkg/provider/llm/mock"
)

func evalSession() convstore.Session {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return convstore.Session{
		ID:     "sess-1",
		UserID: "trainee-1",
		Scenario: persona.Scenario{
			ID:              "fee-dispute",
			Title:           "Premium fee dispute",
			Description:     "A premium customer disputes unexpected account fees.",
			TrainingFocus:   "de-escalation under pressure",
			IdealResolution: "fees reviewed and a clear explanation given",
		},
		State: convstore.StateEnded,
		Turns: []convstore.Turn{
			{Role: convstore.RoleCustomer, Text: "I was charged twice this month.", At: base},
			{Role: convstore.RoleTrainee, Text: "Let me look into that for you.", At: base.Add(time.Minute)},
			{Role: convstore.RoleCustomer, Text: "Please do. This is unacceptable.", At: base.Add(2 * time.Minute)},
		},
	}
}

func TestEvaluatePromptContents(t *testing.T) {
	t.Parallel()

	v := domain.BankingVariant()
	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{Content: "{}"}}
	e := NewEvaluator(v, p)

	if _, err := e.Evaluate(context.Background(), evalSession()); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(p.CompleteCalls) != 1 {
		t.Fatalf("want 1 completion call, got %d", len(p.CompleteCalls))
	}
	req := p.CompleteCalls[0].Req

	for _, want := range []string{
		"Premium fee dispute",
		"de-escalation under pressure",
		"fees reviewed and a clear explanation given",
		`"overall_score"`,
		`"improvement_suggestions"`,
	} {
		if !strings.Contains(req.SystemPrompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	for _, c := range v.Categories {
		if !strings.Contains(req.SystemPrompt, c.Label) {
			t.Errorf("system prompt missing category label %q", c.Label)
		}
		if !strings.Contains(req.SystemPrompt, `"`+c.Key+`"`) {
			t.Errorf("system prompt missing category key %q", c.Key)
		}
	}

	if len(req.Messages) != 1 || req.Messages[0].Role != llm.RoleUser {
		t.Fatalf("want one user message, got %+v", req.Messages)
	}
	transcript := req.Messages[0].Content
	if !strings.Contains(transcript, "Customer: I was charged twice this month.") {
		t.Errorf("transcript missing customer turn:\n%s", transcript)
	}
	if !strings.Contains(transcript, v.TraineeRole+": Let me look into that for you.") {
		t.Errorf("transcript missing trainee turn:\n%s", transcript)
	}

	if req.Temperature != evaluationTemperature {
		t.Errorf("temperature = %v, want %v", req.Temperature, evaluationTemperature)
	}
}

func TestEvaluateStructuredResponse(t *testing.T) {
	t.Parallel()

	v := domain.BankingVariant()
	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: `{"overall_score": 82, "category_scores": {"banking_knowledge": 78, "customer_handling": 85, "policy_adherence": 80}, "improvement_suggestions": ["Confirm the fee schedule before promising a reversal."], "highlight": "Stayed calm under pressure."}`,
	}}
	e := NewEvaluator(v, p)

	rec, err := e.Evaluate(context.Background(), evalSession())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rec.Source != score.SourceParsed {
		t.Fatalf("source = %s, want %s", rec.Source, score.SourceParsed)
	}
	if rec.Overall != 82 {
		t.Errorf("overall = %d, want 82", rec.Overall)
	}
	if rec.Categories["customer_handling"] != 85 {
		t.Errorf("customer_handling = %d, want 85", rec.Categories["customer_handling"])
	}
	if rec.Highlight != "Stayed calm under pressure." {
		t.Errorf("highlight = %q", rec.Highlight)
	}
}

func TestEvaluateProseFallback(t *testing.T) {
	t.Parallel()

	v := domain.BankingVariant()
	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: "Overall Score: 71\nBanking Knowledge Score: 65\nCustomer Handling Score: 74\nPolicy Adherence Score: 70\n\n1. Acknowledge the customer's frustration before explaining policy.",
	}}
	e := NewEvaluator(v, p)

	rec, err := e.Evaluate(context.Background(), evalSession())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rec.Source != score.SourceHeuristic {
		t.Fatalf("source = %s, want %s", rec.Source, score.SourceHeuristic)
	}
	if rec.Overall != 71 {
		t.Errorf("overall = %d, want 71", rec.Overall)
	}
	if rec.Categories["banking_knowledge"] != 65 {
		t.Errorf("banking_knowledge = %d, want 65", rec.Categories["banking_knowledge"])
	}
}

func TestEvaluateEmptyCategorySchema(t *testing.T) {
	t.Parallel()

	v := domain.BankingVariant()
	v.Categories = nil
	p := &mock.Provider{CompleteResponse: &llm.CompletionResponse{
		Content: "Overall Score: 64\n\n1. Summarize the resolution before closing.",
	}}
	e := NewEvaluator(v, p)

	rec, err := e.Evaluate(context.Background(), evalSession())
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rec.Overall != 64 {
		t.Errorf("overall = %d, want 64", rec.Overall)
	}
	if !strings.Contains(p.CompleteCalls[0].Req.SystemPrompt, `"Category Score: NN"`) {
		t.Error("prompt should fall back to a generic category example")
	}
}

func TestEvaluateProviderError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("upstream down")
	e := NewEvaluator(domain.BankingVariant(), &mock.Provider{CompleteErr: sentinel})

	if _, err := e.Evaluate(context.Background(), evalSession()); !errors.Is(err, sentinel) {
		t.Fatalf("want wrapped provider error, got %v", err)
	}
}

func TestEvaluateNilProvider(t *testing.T) {
	t.Parallel()

	e := NewEvaluator(domain.BankingVariant(), nil)
	if _, err := e.Evaluate(context.Background(), evalSession()); err == nil {
		t.Fatal("want error from nil provider")
	}
	if got := e.ProviderName(); got != "none" {
		t.Errorf("ProviderName = %q, want %q", got, "none")
	}
}
