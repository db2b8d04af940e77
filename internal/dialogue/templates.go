package dialogue

import (
	"fmt"

	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
)

// Templates renders deterministic replies for common, low-risk question
// tags so no generative call is needed.
type Templates struct {
	v *domain.Variant
}

// NewTemplates builds the template renderer for one domain variant.
func NewTemplates(v *domain.Variant) *Templates {
	return &Templates{v: v}
}

// Reply renders the deterministic reply for tags that have one (name,
// greeting, wellbeing). The second return is false for all other tags.
func (t *Templates) Reply(tag domain.QuestionTag, p persona.Persona, sc persona.Scenario) (string, bool) {
	switch tag {
	case domain.TagAskingName:
		if impatient(p) {
			return fmt.Sprintf("I'm %s. Now, can we address my %s concern?", p.Name, t.v.Business), true
		}
		return fmt.Sprintf("My name is %s. I'm here about %s.", p.Name, sc.CustomerObjective), true

	case domain.TagGreeting:
		if p.TypeMatches("premium") {
			return fmt.Sprintf("Hello. As I mentioned, I'm a premium customer and I need assistance with %s.", sc.CustomerObjective), true
		}
		return fmt.Sprintf("Hello! I need help with %s. Can you assist me?", sc.CustomerObjective), true

	case domain.TagAskingWellbeing:
		if polite(p) {
			return fmt.Sprintf("I'm doing well, thank you for asking. Now about the %s matter we were discussing...", t.v.Business), true
		}
		return fmt.Sprintf("I'm here to resolve my %s issue. Can we focus on that please?", t.v.Business), true
	}
	return "", false
}

// DegradedReply renders direct answers for tags the customer can still
// handle sensibly when generation has failed.
func (t *Templates) DegradedReply(tag domain.QuestionTag, p persona.Persona, sc persona.Scenario) (string, bool) {
	switch tag {
	case domain.TagAskingName:
		return fmt.Sprintf("I'm %s. I'm here about my %s issue.", p.Name, t.v.Business), true

	case domain.TagAskingIdentity:
		history := p.History
		if history == "" {
			history = "quite a while"
		}
		return fmt.Sprintf("My customer ID is ******789. I've been with you for %s.", history), true

	case domain.TagAskingPurpose:
		return fmt.Sprintf("I'm here about %s. Can you help me with that?", sc.CustomerObjective), true
	}
	return "", false
}

func impatient(p persona.Persona) bool {
	l := p.Trait(persona.TraitPatience)
	return l == persona.LevelLow || l == persona.LevelVeryLow
}

func polite(p persona.Persona) bool {
	l := p.Trait(persona.TraitPoliteness)
	return l == persona.LevelHigh || l == persona.LevelVeryHigh
}
