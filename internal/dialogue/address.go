package dialogue

import (
	"fmt"

	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
)

// AddressChecker detects gendered address terms that mismatch the persona
// and renders the correction reply.
type AddressChecker struct {
	v *domain.Variant
}

// NewAddressChecker builds a checker for one domain variant.
func NewAddressChecker(v *domain.Variant) *AddressChecker {
	return &AddressChecker{v: v}
}

// Misaddressed reports whether the message addresses the persona with a term
// wrong for its gender. Personas without a recorded gender never match.
func (a *AddressChecker) Misaddressed(message string, g persona.Gender) bool {
	terms := a.v.MisaddressTerms(g)
	if len(terms) == 0 {
		return false
	}
	return containsAnyPhrase(message, terms)
}

// Correction renders the correction reply. Tone follows the persona: polite
// and patient personas correct gently, impatient ones curtly.
func (a *AddressChecker) Correction(p persona.Persona) string {
	correct, wrong := "sir", "ma'am"
	if p.Gender == persona.GenderFemale {
		correct, wrong = "ma'am", "sir"
	}

	politeness := p.Trait(persona.TraitPoliteness)
	patience := p.Trait(persona.TraitPatience)

	switch {
	case (politeness == persona.LevelHigh || politeness == persona.LevelVeryHigh) &&
		patience != persona.LevelLow && patience != persona.LevelVeryLow:
		return fmt.Sprintf("Actually, it's %s. Could you help me with my %s concern?", correct, a.v.Business)
	case patience == persona.LevelLow || patience == persona.LevelVeryLow:
		return fmt.Sprintf("I'm a %s, not a %s. Let's focus on my %s issue.", correct, wrong, a.v.Business)
	default:
		return fmt.Sprintf("It's %s, not %s. I need help with my %s issue.", correct, wrong, a.v.Business)
	}
}
