package dialogue

import (
	"fmt"
	"strings"

	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/pkg/provider/llm"
)

// HistoryWindow is the number of most recent turns included in a
// generation request. Older turns are dropped to keep prompts bounded.
const HistoryWindow = 8

// antiLeakage reminds the model to answer in character with a single
// reply. Without it models tend to emit stage directions, alternative
// phrasings and role labels that the sanitizer then has to strip.
const antiLeakage = "Reply with ONLY the customer's next message. " +
	"Do not offer alternatives, do not add stage directions or commentary, " +
	"do not prefix your reply with a role label, and do not wrap it in quotes."

const (
	openingTemperature = 0.8
	turnTemperature    = 0.7
	maxReplyTokens     = 150
)

// PromptBuilder renders generation requests for customer turns. Product
// data is injected as context when the trainee asks about pricing or
// features, so the customer can react to concrete numbers.
type PromptBuilder struct {
	v        *domain.Variant
	products persona.Products
}

// NewPromptBuilder builds a PromptBuilder for one variant and product set.
func NewPromptBuilder(v *domain.Variant, products persona.Products) *PromptBuilder {
	return &PromptBuilder{v: v, products: products}
}

// Opening builds the request for the customer's first message.
func (b *PromptBuilder) Opening(p persona.Persona, sc persona.Scenario) *llm.CompletionRequest {
	var sb strings.Builder
	sb.WriteString("Start the conversation as this customer. ")
	sb.WriteString("Open with your reason for contacting the ")
	sb.WriteString(b.v.Business)
	sb.WriteString(" service desk, in one or two sentences. ")
	if sc.EntryBehavior != "" {
		sb.WriteString("Entry behavior: ")
		sb.WriteString(sc.EntryBehavior)
		sb.WriteString(". ")
	}
	sb.WriteString(antiLeakage)

	return &llm.CompletionRequest{
		SystemPrompt: b.systemPrompt(p, sc),
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: sb.String()}},
		Temperature:  openingTemperature,
		MaxTokens:    maxReplyTokens,
	}
}

// Turn builds the request for the customer's reply to the latest trainee
// message, carrying the most recent HistoryWindow turns as context.
func (b *PromptBuilder) Turn(p persona.Persona, sc persona.Scenario, history []convstore.Turn, traineeMsg string, tag domain.QuestionTag) *llm.CompletionRequest {
	system := b.systemPrompt(p, sc)
	if ctx := b.productContext(tag, sc); ctx != "" {
		system += "\n\n" + ctx
	}

	msgs := make([]llm.Message, 0, HistoryWindow+1)
	start := len(history) - HistoryWindow
	if start < 0 {
		start = 0
	}
	for _, t := range history[start:] {
		role := llm.RoleUser
		if t.Role == convstore.RoleCustomer {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.Text})
	}
	msgs = append(msgs, llm.Message{
		Role:    llm.RoleUser,
		Content: fmt.Sprintf("%s says: %q\n\nRespond as the customer. %s", b.v.TraineeRole, traineeMsg, antiLeakage),
	})

	return &llm.CompletionRequest{
		SystemPrompt: system,
		Messages:     msgs,
		Temperature:  turnTemperature,
		MaxTokens:    maxReplyTokens,
	}
}

// systemPrompt renders the persona card the model stays in character with.
func (b *PromptBuilder) systemPrompt(p persona.Persona, sc persona.Scenario) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are %s, a %s customer talking to a %s in a training simulation.\n",
		p.Name, p.CustomerType, b.v.TraineeRole)
	if p.Gender.IsValid() && p.Gender != "" {
		fmt.Fprintf(&sb, "Gender: %s.\n", p.Gender)
	}
	if p.Age > 0 {
		fmt.Fprintf(&sb, "Age: %d.\n", p.Age)
	}
	if p.History != "" {
		fmt.Fprintf(&sb, "Customer history: %s.\n", p.History)
	}
	if p.PrimaryConcern != "" {
		fmt.Fprintf(&sb, "Primary concern: %s.\n", p.PrimaryConcern)
	}

	sb.WriteString("Personality:\n")
	for _, trait := range persona.AllTraits {
		fmt.Fprintf(&sb, "- %s: %s\n", strings.ReplaceAll(string(trait), "_", " "), p.Trait(trait))
	}
	if len(p.SpeechPatterns) > 0 {
		fmt.Fprintf(&sb, "You sometimes say things like: %s.\n", strings.Join(p.SpeechPatterns, "; "))
	}

	fmt.Fprintf(&sb, "\nScenario: %s\n", sc.Description)
	fmt.Fprintf(&sb, "Your objective: %s\n", sc.CustomerObjective)
	if sc.SpecificInterests != "" {
		fmt.Fprintf(&sb, "You are specifically interested in: %s.\n", sc.SpecificInterests)
	}
	sb.WriteString("\nStay in character as the customer at all times. You are the one asking for help; never act as the ")
	sb.WriteString(b.v.TraineeRole)
	sb.WriteString(". Keep replies short, two sentences at most.")
	return sb.String()
}

// productContext renders product facts for pricing and feature questions.
func (b *PromptBuilder) productContext(tag domain.QuestionTag, sc persona.Scenario) string {
	if len(b.products) == 0 {
		return ""
	}
	products := b.products.ByCategory(sc.CustomerType)
	switch tag {
	case domain.TagAskingPriceOrFees:
		return "Current product pricing, for reacting to what the " + b.v.TraineeRole +
			" quotes:\n" + products.RatesInfo() + "\n" + products.FeesInfo()
	case domain.TagAskingFeatures:
		return "Current product features, for reacting to what the " + b.v.TraineeRole +
			" describes:\n" + products.FeaturesInfo()
	}
	return ""
}

// FormatHistory renders a transcript with role labels, used by evaluation
// prompts rather than generation requests.
func FormatHistory(v *domain.Variant, turns []convstore.Turn) string {
	var sb strings.Builder
	for _, t := range turns {
		label := v.TraineeRole
		if t.Role == convstore.RoleCustomer {
			label = "Customer"
		}
		fmt.Fprintf(&sb, "%s: %s\n", label, t.Text)
	}
	return sb.String()
}
