// Package domain holds the per-domain configuration that parameterizes the
// dialogue pipeline: trait priorities, classifier phrase catalogs, ending
// phrases, misaddress terms, fallback pools, and the category-score schema.
//
// There is one orchestrator; banking and retail differ only in the Variant
// they are constructed with.
package domain

import (
	"fmt"
	"strings"

	"github.com/trainloop/repsim/internal/persona"
)

// Kind names a supported domain variant.
type Kind string

const (
	Banking Kind = "banking"
	Retail  Kind = "retail"
)

// IsValid reports whether k is a known domain kind.
func (k Kind) IsValid() bool {
	switch k {
	case Banking, Retail:
		return true
	}
	return false
}

// QuestionTag classifies a trainee message. The member set is closed;
// TagGeneralQuestion is the catch-all.
type QuestionTag string

const (
	TagAskingName        QuestionTag = "ASKING_NAME"
	TagAskingWellbeing   QuestionTag = "ASKING_WELLBEING"
	TagGreeting          QuestionTag = "GREETING"
	TagAskingIdentity    QuestionTag = "ASKING_IDENTITY"
	TagAskingPurpose     QuestionTag = "ASKING_PURPOSE"
	TagAskingPriceOrFees QuestionTag = "ASKING_PRICE_OR_FEES"
	TagAskingFeatures    QuestionTag = "ASKING_FEATURES"
	TagAskingWarranty    QuestionTag = "ASKING_WARRANTY"
	TagGeneralQuestion   QuestionTag = "GENERAL_QUESTION"
)

// ClassifierRule binds a tag to its trigger phrases. Rules are evaluated in
// slice order and the first phrase match wins.
type ClassifierRule struct {
	Tag     QuestionTag
	Phrases []string
}

// ScoreCategory is one entry of the variant's category-score schema.
type ScoreCategory struct {
	// Key is the stable identifier used in ScoreRecords and persistence,
	// e.g. "banking_knowledge".
	Key string
	// Label is the header the evaluator is instructed to emit and that
	// extraction matches against, e.g. "Banking Knowledge".
	Label string
}

// Pool is a customer-type-keyed set of canned replies used when generation
// fails. Early lines suit the first exchanges, Later lines a conversation
// already underway.
type Pool struct {
	// Class is matched as a case-insensitive substring of the persona's
	// customer type. The empty class is the default pool.
	Class string
	Early []string
	Later []string
}

// Flavor is a customer-type-keyed set of phrases occasionally prepended
// during persona flavoring.
type Flavor struct {
	Class   string
	Chance  float64
	Phrases []string
}

// Variant is the complete configuration of one domain.
type Variant struct {
	Kind Kind

	// TraineeRole labels trainee turns in prompts and transcripts,
	// e.g. "Bank Representative".
	TraineeRole string

	// Business is the establishment the persona is a customer of,
	// e.g. "bank", used in prompt text.
	Business string

	// PriorityRules and FallbackPriority drive persona reduction.
	PriorityRules    []persona.PriorityRule
	FallbackPriority []persona.Trait

	// ClassifierRules is the ordered phrase catalog for question tagging.
	ClassifierRules []ClassifierRule

	// SatisfactionPhrases and ClosingQuestions feed ending detection.
	SatisfactionPhrases []string
	ClosingQuestions    []string

	// MinEndingTurns is the history length required before a conversation
	// may end naturally.
	MinEndingTurns int

	// ClosingLine is returned when the conversation ends.
	ClosingLine string

	// FemaleMisaddress and MaleMisaddress list address terms that are wrong
	// for female and male personas respectively.
	FemaleMisaddress []string
	MaleMisaddress   []string

	// GreetingTokens are the words an opening line must start with.
	GreetingTokens []string

	// InitialClarifier and LaterClarifier replace empty generated text.
	InitialClarifier string
	LaterClarifier   string

	// EchoAlternatives replace responses that parrot the trainee.
	EchoAlternatives []string

	// ImpatienceMarkers are occasionally prepended for low-patience personas.
	ImpatienceMarkers []string

	// Flavors are customer-type-keyed flavoring phrases.
	Flavors []Flavor

	// OpeningPools are used when opening-line generation fails.
	OpeningPools []Pool

	// TurnPools are used when in-conversation generation fails.
	TurnPools []Pool

	// Categories is the category-score schema for evaluation.
	Categories []ScoreCategory

	// GenericSuggestions feed synthesized score records.
	GenericSuggestions []string
}

// ForKind returns the built-in variant for k.
func ForKind(k Kind) (*Variant, error) {
	switch k {
	case Banking:
		return BankingVariant(), nil
	case Retail:
		return RetailVariant(), nil
	default:
		return nil, fmt.Errorf("domain: unknown kind %q", k)
	}
}

// CategoryKeys returns the schema's keys in order.
func (v *Variant) CategoryKeys() []string {
	keys := make([]string, len(v.Categories))
	for i, c := range v.Categories {
		keys[i] = c.Key
	}
	return keys
}

// MisaddressTerms returns the address terms that would misgender a persona
// of the given gender, or nil when the gender is unspecified.
func (v *Variant) MisaddressTerms(g persona.Gender) []string {
	switch g {
	case persona.GenderFemale:
		return v.FemaleMisaddress
	case persona.GenderMale:
		return v.MaleMisaddress
	}
	return nil
}

// OpeningPool returns the opening fallback lines for a customer type.
func (v *Variant) OpeningPool(customerType string) []string {
	p := matchPool(v.OpeningPools, customerType)
	if len(p.Early) > 0 {
		return p.Early
	}
	return defaultPool(v.OpeningPools).Early
}

// TurnPool returns the in-conversation fallback lines for a customer type
// and conversation stage. Classes without lines for the requested stage
// borrow the default pool's.
func (v *Variant) TurnPool(customerType string, early bool) []string {
	p := matchPool(v.TurnPools, customerType)
	def := defaultPool(v.TurnPools)
	if early {
		if len(p.Early) > 0 {
			return p.Early
		}
		return def.Early
	}
	if len(p.Later) > 0 {
		return p.Later
	}
	return def.Later
}

// FlavorPhrases returns the flavoring phrases and chance for a customer type.
func (v *Variant) FlavorPhrases(customerType string) (phrases []string, chance float64) {
	lower := strings.ToLower(customerType)
	for _, f := range v.Flavors {
		if f.Class != "" && strings.Contains(lower, f.Class) {
			return f.Phrases, f.Chance
		}
	}
	return nil, 0
}

// matchPool finds the first pool whose class matches the customer type,
// falling back to the default (empty-class) pool.
func matchPool(pools []Pool, customerType string) Pool {
	lower := strings.ToLower(customerType)
	for _, p := range pools {
		if p.Class != "" && strings.Contains(lower, p.Class) {
			return p
		}
	}
	return defaultPool(pools)
}

// defaultPool returns the empty-class pool, or a zero Pool when absent.
func defaultPool(pools []Pool) Pool {
	for _, p := range pools {
		if p.Class == "" {
			return p
		}
	}
	return Pool{}
}
