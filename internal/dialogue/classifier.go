// Package dialogue implements the per-turn response pipeline: question
// classification, ending detection, misaddress correction, persona
// flavoring, prompt construction and the orchestrator state machine that
// composes them.
package dialogue

import (
	"strings"
	"unicode"

	"github.com/trainloop/repsim/internal/domain"
)

// Classifier tags trainee messages against a domain variant's phrase
// catalog. Rules are checked in catalog order and the first match wins;
// messages matching nothing are TagGeneralQuestion.
type Classifier struct {
	rules []domain.ClassifierRule
}

// NewClassifier builds a Classifier from an ordered rule catalog.
func NewClassifier(rules []domain.ClassifierRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify returns the tag of the first rule with a matching phrase.
// Multi-word phrases match as substrings; single words must match a whole
// token so "hi" does not fire inside "this".
func (c *Classifier) Classify(message string) domain.QuestionTag {
	lower := strings.ToLower(message)
	tokens := tokenize(lower)

	for _, rule := range c.rules {
		for _, phrase := range rule.Phrases {
			if matchesPhrase(lower, tokens, phrase) {
				return rule.Tag
			}
		}
	}
	return domain.TagGeneralQuestion
}

// matchesPhrase checks one phrase against a lowercased message and its
// token list.
func matchesPhrase(lower string, tokens []string, phrase string) bool {
	if strings.ContainsRune(phrase, ' ') {
		return strings.Contains(lower, phrase)
	}
	for _, tok := range tokens {
		if tok == phrase {
			return true
		}
	}
	return false
}

// tokenize splits a lowercased message into word tokens, keeping
// apostrophes so contractions like "ma'am" stay whole.
func tokenize(lower string) []string {
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// containsAnyPhrase reports whether any phrase matches the message, using
// the same token rules as Classify.
func containsAnyPhrase(message string, phrases []string) bool {
	lower := strings.ToLower(message)
	tokens := tokenize(lower)
	for _, phrase := range phrases {
		if matchesPhrase(lower, tokens, phrase) {
			return true
		}
	}
	return false
}
