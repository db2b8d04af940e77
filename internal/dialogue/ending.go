package dialogue

import "github.com/trainloop/repsim/internal/domain"

// EndingDetector decides whether a conversation has reached a natural close.
type EndingDetector struct {
	minTurns     int
	satisfaction []string
	closing      []string
}

// NewEndingDetector builds a detector from the variant's phrase lists and
// minimum-turn threshold.
func NewEndingDetector(v *domain.Variant) *EndingDetector {
	return &EndingDetector{
		minTurns:     v.MinEndingTurns,
		satisfaction: v.SatisfactionPhrases,
		closing:      v.ClosingQuestions,
	}
}

// ShouldEnd reports whether the conversation should end now. It returns true
// only when the history is at least minTurns long and the latest trainee
// message carries a satisfaction indicator or a closing question. The
// threshold prevents ending before a meaningful exchange happened.
func (d *EndingDetector) ShouldEnd(latest string, historyLen int) bool {
	if historyLen < d.minTurns {
		return false
	}
	return containsAnyPhrase(latest, d.satisfaction) || containsAnyPhrase(latest, d.closing)
}
