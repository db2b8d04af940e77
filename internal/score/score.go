// Package score turns free-form evaluator output into structured score
// records. Extraction tries a structured JSON parse first (repairing
// almost-JSON when needed), falls back to labeled-field regex extraction,
// and synthesizes a plausible record when the evaluator call itself failed.
package score

// Source records how a score record was produced, so synthesized results
// stay distinguishable from model-derived ones.
type Source string

const (
	// SourceParsed means the evaluator emitted valid structured output.
	SourceParsed Source = "parsed"
	// SourceHeuristic means scores were regex-extracted from prose.
	SourceHeuristic Source = "heuristic"
	// SourceSynthesized means the evaluator call failed and the record was
	// fabricated from conversation shape.
	SourceSynthesized Source = "synthesized"
)

// DefaultScore is the neutral value used for any field the evaluator output
// did not yield.
const DefaultScore = 50

// Record is the structured result of evaluating a completed conversation.
// Records are immutable after construction; a second analysis produces a new
// Record.
type Record struct {
	// Overall performance score in [0,100].
	Overall int

	// Categories maps category key to score in [0,100]. The key set follows
	// the domain variant's schema.
	Categories map[string]int

	// Suggestions are up to five improvement suggestions, best first.
	Suggestions []string

	// Highlight is an optional free-text positive note.
	Highlight string

	// Source records how this record was produced.
	Source Source
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
