// Package persona models simulated customers: their graded personality
// traits, the reduction that keeps generated dialogue consistent, and the
// YAML catalog the simulator samples personas and scenarios from.
package persona

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Trait names a graded personality dimension of a simulated customer.
type Trait string

// The trait dimensions every persona carries. Traits absent from a persona
// definition default to [LevelMedium].
const (
	TraitPatience     Trait = "patience_level"
	TraitPoliteness   Trait = "politeness"
	TraitKnowledge    Trait = "knowledge_level"
	TraitExpectations Trait = "expectation_level"
)

// AllTraits lists every trait dimension in canonical order.
var AllTraits = []Trait{TraitPatience, TraitPoliteness, TraitKnowledge, TraitExpectations}

// Level is the graded value of a trait.
type Level string

const (
	LevelVeryLow  Level = "very low"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very high"
)

// IsValid reports whether l is a known level value.
func (l Level) IsValid() bool {
	switch l {
	case LevelVeryLow, LevelLow, LevelMedium, LevelHigh, LevelVeryHigh:
		return true
	}
	return false
}

// Extreme reports whether l is a distinctive (non-medium) level.
// Invalid levels are never extreme.
func (l Level) Extreme() bool {
	return l.IsValid() && l != LevelMedium
}

// ParseLevel normalizes s into a Level, accepting any casing.
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if !l.IsValid() {
		return "", fmt.Errorf("persona: invalid trait level %q", s)
	}
	return l, nil
}

// UnmarshalYAML decodes a level from YAML, accepting any casing.
func (l *Level) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Gender of a simulated customer, used for misaddress detection.
type Gender string

const (
	GenderFemale      Gender = "female"
	GenderMale        Gender = "male"
	GenderUnspecified Gender = ""
)

// IsValid reports whether g is a known gender value.
func (g Gender) IsValid() bool {
	switch g {
	case GenderFemale, GenderMale, GenderUnspecified:
		return true
	}
	return false
}

// UnmarshalYAML decodes a gender from YAML, accepting any casing.
func (g *Gender) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed := Gender(strings.ToLower(strings.TrimSpace(s)))
	if !parsed.IsValid() {
		return fmt.Errorf("persona: invalid gender %q", s)
	}
	*g = parsed
	return nil
}

// Persona describes one simulated customer.
type Persona struct {
	// ID uniquely identifies the persona within the catalog.
	ID string `yaml:"id"`

	// Name is the customer's display name, used in deterministic replies.
	Name string `yaml:"name"`

	// Gender drives misaddress detection. May be empty.
	Gender Gender `yaml:"gender"`

	// Age in years, included in generation prompts.
	Age int `yaml:"age"`

	// CustomerType is a free-form classification such as "premium",
	// "new applicant" or "dissatisfied". Matching on it is substring-based
	// and case-insensitive throughout.
	CustomerType string `yaml:"customer_type"`

	// History summarizes the customer's relationship with the business,
	// e.g. "Premium customer for 8 years".
	History string `yaml:"history"`

	// PrimaryConcern is the customer's main topic of concern.
	PrimaryConcern string `yaml:"primary_concern"`

	// Traits maps trait dimensions to levels. Missing dimensions are medium.
	Traits map[Trait]Level `yaml:"traits"`

	// SpeechPatterns are short phrases occasionally prepended to generated
	// replies to keep the voice consistent.
	SpeechPatterns []string `yaml:"speech_patterns"`
}

// Trait returns the persona's level for t, defaulting to LevelMedium when the
// dimension is absent.
func (p Persona) Trait(t Trait) Level {
	if l, ok := p.Traits[t]; ok && l.IsValid() {
		return l
	}
	return LevelMedium
}

// TypeMatches reports whether the persona's customer type contains class,
// case-insensitively. An empty class matches nothing.
func (p Persona) TypeMatches(class string) bool {
	if class == "" {
		return false
	}
	return strings.Contains(strings.ToLower(p.CustomerType), strings.ToLower(class))
}

// Clone returns a deep copy of p. Reduction operates on clones so the catalog
// personas are never mutated.
func (p Persona) Clone() Persona {
	out := p
	out.Traits = make(map[Trait]Level, len(p.Traits))
	for t, l := range p.Traits {
		out.Traits[t] = l
	}
	out.SpeechPatterns = append([]string(nil), p.SpeechPatterns...)
	return out
}

// Validate checks the persona definition for catalog loading.
func (p Persona) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("persona: id must not be empty")
	}
	if p.Name == "" {
		return fmt.Errorf("persona %q: name must not be empty", p.ID)
	}
	if !p.Gender.IsValid() {
		return fmt.Errorf("persona %q: invalid gender %q", p.ID, p.Gender)
	}
	for t, l := range p.Traits {
		if !l.IsValid() {
			return fmt.Errorf("persona %q: invalid level %q for trait %q", p.ID, l, t)
		}
	}
	return nil
}
