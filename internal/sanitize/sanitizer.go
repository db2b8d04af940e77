// Package sanitize strips leakage artifacts from generated customer text and
// enforces the length, greeting and non-echo invariants every reply must
// satisfy before it reaches a trainee.
//
// Generated text regularly arrives wrapped in quotes, prefixed with meta
// commentary ("Changes subject,"), or carrying lists of alternative replies.
// Clean applies a fixed, ordered rule pipeline that removes these without
// touching legitimate content. The pipeline is idempotent: cleaning already
// clean text changes nothing.
package sanitize

import (
	"regexp"
	"strings"
)

// compoundQuoted matches meta commentary followed by two quoted segments and
// captures the final quoted segment, e.g.
//
//	redirects conversation, 'maybe' "Actual reply here"
var compoundQuoted = regexp.MustCompile(`(?:[\w\s,'-]+,\s*)?['"].*?['"]\s*['"](.+?)['"]`)

// wholeQuoted matches text wrapped in a single pair of quotes.
var wholeQuoted = regexp.MustCompile(`^['"](.+)['"]$`)

// metaRemovals are applied in order; every match is deleted.
var metaRemovals = []*regexp.Regexp{
	// Instruction prefixes.
	regexp.MustCompile(`(?i)^changes subject,\s*`),
	regexp.MustCompile(`(?i)^incomplete questions,\s*`),
	regexp.MustCompile(`(?i)^redirects conversation,\s*`),
	regexp.MustCompile(`(?i)^circular questions\s*`),

	// Alternative-reply literals the model is told not to emit.
	regexp.MustCompile(`(?i)'but what about\.\.\.'`),
	regexp.MustCompile(`(?i)'i'm not sure'`),
	regexp.MustCompile(`(?i)'let me think about it'`),
	regexp.MustCompile(`(?i)'sorry, what were you saying\?'`),

	// Bracketed editorial asides.
	regexp.MustCompile(`\[.*?\]`),
	regexp.MustCompile(`(?i)\(response options:.*?\)`),
	regexp.MustCompile(`(?i)\(choose one of the following\)`),
	regexp.MustCompile(`(?i)\(alternative responses\)`),

	// Role markers.
	regexp.MustCompile(`(?i)^customer:\s*`),
	regexp.MustCompile(`(?i)^response:\s*`),
	regexp.MustCompile(`(?i)^ai:\s*`),
	regexp.MustCompile(`(?i)^agent:\s*`),
}

// quotedAlternatives matches lists like `"Option 1", "Option 2", "Option 3"`;
// the whole list collapses to the first alternative.
var quotedAlternatives = regexp.MustCompile(`['"]([^'"]*)['"]\s*,\s*['"]([^'"]*)['"]\s*(?:,\s*['"]([^'"]*)['"]\s*)*`)

// whitespaceRuns collapses internal whitespace to single spaces.
var whitespaceRuns = regexp.MustCompile(`\s+`)

// minExtractLen guards the compound-quote extraction against capturing
// trailing punctuation fragments.
const minExtractLen = 5

// Clean applies the full sanitization pipeline and returns the cleaned text.
// The output never exceeds the input in length.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	if m := compoundQuoted.FindStringSubmatch(text); m != nil {
		if extracted := m[1]; len(extracted) > minExtractLen {
			return finish(extracted)
		}
	}

	if m := wholeQuoted.FindStringSubmatch(text); m != nil && m[1] != "" {
		return finish(m[1])
	}

	cleaned := text
	for _, re := range metaRemovals {
		cleaned = re.ReplaceAllString(cleaned, "")
	}
	cleaned = quotedAlternatives.ReplaceAllString(cleaned, "$1")

	return finish(cleaned)
}

// finish strips one remaining layer of wrapping quotes and normalizes
// whitespace.
func finish(text string) string {
	text = wholeQuoted.ReplaceAllString(text, "$1")
	text = strings.TrimSpace(text)
	return whitespaceRuns.ReplaceAllString(text, " ")
}
