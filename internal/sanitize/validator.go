package sanitize

import (
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/trainloop/repsim/internal/sample"
)

// echoMinLen is the trainee-message length below which echo detection is
// skipped; very short messages ("ok", "yes") legitimately recur in replies.
const echoMinLen = 15

// echoSimilarity is the Jaro-Winkler score above which a reply counts as a
// near-verbatim echo of the trainee's message even without an exact
// substring match.
const echoSimilarity = 0.92

// maxWords caps the length of a validated reply.
const maxWords = 50

// ValidatorConfig carries the domain-dependent pieces of validation.
type ValidatorConfig struct {
	// GreetingTokens are the accepted conversation openers, lowercase.
	GreetingTokens []string
	// DefaultGreeting is prepended when an opening line lacks a token.
	DefaultGreeting string
	// InitialClarifier replaces an empty opening line.
	InitialClarifier string
	// LaterClarifier replaces an empty in-conversation reply.
	LaterClarifier string
	// EchoAlternatives replace replies that parrot the trainee.
	EchoAlternatives []string
}

// Validator enforces the non-empty, greeting, length and non-echo invariants
// on sanitized replies.
type Validator struct {
	cfg ValidatorConfig
	sel sample.Selector
}

// NewValidator builds a Validator. sel picks the replacement when a reply
// echoes the trainee; tests inject a fixed selector.
func NewValidator(cfg ValidatorConfig, sel sample.Selector) *Validator {
	if cfg.DefaultGreeting == "" {
		cfg.DefaultGreeting = "Hello!"
	}
	return &Validator{cfg: cfg, sel: sel}
}

// Validate returns a reply that is non-empty, at most 50 words, not a
// near-verbatim echo of traineeMsg, and (when initial) carries a greeting
// token. The input is assumed to be already sanitized.
func (v *Validator) Validate(response, traineeMsg string, initial bool) string {
	response = strings.TrimSpace(response)

	if response == "" {
		if initial {
			return v.cfg.InitialClarifier
		}
		return v.cfg.LaterClarifier
	}

	if initial && !containsAny(strings.ToLower(response), v.cfg.GreetingTokens) {
		response = v.cfg.DefaultGreeting + " " + response
	}

	if words := strings.Fields(response); len(words) > maxWords {
		response = strings.Join(words[:maxWords], " ")
	}

	if v.echoes(response, traineeMsg) {
		return sample.Pick(v.sel, v.cfg.EchoAlternatives)
	}

	return response
}

// echoes reports whether response repeats traineeMsg, either verbatim as a
// substring or as a near-identical string.
func (v *Validator) echoes(response, traineeMsg string) bool {
	if len(traineeMsg) <= echoMinLen {
		return false
	}
	respLower := strings.ToLower(response)
	msgLower := strings.ToLower(traineeMsg)
	if strings.Contains(respLower, msgLower) {
		return true
	}
	return matchr.JaroWinkler(respLower, msgLower, false) >= echoSimilarity
}

func containsAny(s string, tokens []string) bool {
	for _, t := range tokens {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
