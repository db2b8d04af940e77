package dialogue

import (
	"strings"

	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/sample"
)

// Flavoring probabilities. Embellishments stay occasional so the voice
// reads natural rather than formulaic, and a final keep-or-revert roll
// sometimes discards the whole transformation.
const (
	speechPatternChance = 0.3
	impatienceChance    = 0.4
	keepFlavoredChance  = 0.7
)

// Flavorer embellishes validated replies with persona-specific texture:
// speech patterns, impatience markers for low-patience personas, and
// customer-type phrases.
type Flavorer struct {
	v   *domain.Variant
	sel sample.Selector
}

// NewFlavorer builds a Flavorer. sel drives every probabilistic choice;
// tests inject a fixed selector.
func NewFlavorer(v *domain.Variant, sel sample.Selector) *Flavorer {
	return &Flavorer{v: v, sel: sel}
}

// Apply returns response embellished for the persona, or the original when
// the final keep-or-revert roll discards the transformation.
func (f *Flavorer) Apply(response string, p persona.Persona) string {
	modified := response

	if len(p.SpeechPatterns) > 0 && sample.Chance(f.sel, speechPatternChance) {
		pattern := strings.TrimSpace(sample.Pick(f.sel, p.SpeechPatterns))
		if pattern != "" && !containsAnyOf(modified, p.SpeechPatterns) {
			modified = pattern + " " + modified
		}
	}

	patience := p.Trait(persona.TraitPatience)
	if patience == persona.LevelLow || patience == persona.LevelVeryLow {
		if sample.Chance(f.sel, impatienceChance) && !containsAnyOf(modified, f.v.ImpatienceMarkers) {
			modified = sample.Pick(f.sel, f.v.ImpatienceMarkers) + " " + modified
		}
	}

	if phrases, chance := f.v.FlavorPhrases(p.CustomerType); len(phrases) > 0 && sample.Chance(f.sel, chance) {
		if !containsAnyOf(modified, phrases) {
			modified = sample.Pick(f.sel, phrases) + " " + modified
		}
	}

	if modified != response && !sample.Chance(f.sel, keepFlavoredChance) {
		return response
	}
	return modified
}

// containsAnyOf reports whether s already carries one of the phrases.
func containsAnyOf(s string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(s, p) {
			return true
		}
	}
	return false
}
