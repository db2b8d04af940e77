package score

import (
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/sample"
)

// Synthesis bounds. Longer conversations earn a higher baseline, capped so a
// fabricated score never looks stellar, and the final value stays inside a
// believable band.
const (
	synthBasePerTurn = 3
	synthBaseFloor   = 60
	synthBaseCap     = 85
	synthMin         = 20
	synthMax         = 95
	synthCategoryMin = 30
)

// categorySpread is the perturbation band applied to the n-th category,
// cycled when a schema has more categories.
var categorySpread = [][2]int{
	{-15, 15},
	{-20, 10},
	{-10, 15},
}

// Synthesize fabricates a Record when the evaluator call itself failed. The
// baseline grows with conversation length, randomness comes from sel, and
// the result is flagged SourceSynthesized so it can never be mistaken for a
// model-derived score.
func Synthesize(turnCount int, categories []domain.ScoreCategory, suggestions []string, sel sample.Selector) Record {
	base := synthBaseFloor + turnCount*synthBasePerTurn
	if base > synthBaseCap {
		base = synthBaseCap
	}
	overall := clamp(base+sample.Between(sel, -10, 10), synthMin, synthMax)

	rec := Record{
		Overall:    overall,
		Categories: make(map[string]int, len(categories)),
		Highlight:  "The trainee showed engagement throughout the training exercise.",
		Source:     SourceSynthesized,
	}

	for i, c := range categories {
		spread := categorySpread[i%len(categorySpread)]
		v := overall + sample.Between(sel, spread[0], spread[1])
		rec.Categories[c.Key] = clamp(v, synthCategoryMin, synthMax)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	rec.Suggestions = append([]string(nil), suggestions...)

	return rec
}
