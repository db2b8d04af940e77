package score

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/trainloop/repsim/internal/domain"
)

// maxSuggestions caps the suggestion list of an extracted record.
const maxSuggestions = 5

var (
	overallRe  = regexp.MustCompile(`(?i)overall score:?\s*\**\s*(\d+)`)
	boldItemRe = regexp.MustCompile(`\d+\.\s+\*\*(.+?)\*\*:`)
	numberedRe = regexp.MustCompile(`(?m)^\s*\d+\.\s+(.+)$`)
	bulletRe   = regexp.MustCompile(`(?m)^\s*[*\-•]\s+(.+)$`)
	emphasisRe = regexp.MustCompile(`\*+`)
	leadEnumRe = regexp.MustCompile(`^(\d+\.\s+|[*\-•]\s+)`)
)

// Extractor parses evaluator text against one domain variant's category
// schema.
type Extractor struct {
	categories []domain.ScoreCategory
	categoryRe map[string]*regexp.Regexp
}

// NewExtractor builds an Extractor for the given category schema.
func NewExtractor(categories []domain.ScoreCategory) *Extractor {
	res := make(map[string]*regexp.Regexp, len(categories))
	for _, c := range categories {
		res[c.Key] = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(c.Label) + ` score:?\s*\**\s*(\d+)`)
	}
	return &Extractor{categories: categories, categoryRe: res}
}

// parseResult is the evaluator output resolved exactly once: either a
// structured record or the raw text left for heuristic extraction.
type parseResult struct {
	structured *Record
	raw        string
}

// Extract parses evaluator text into a Record. It never fails: fields the
// text does not yield default to DefaultScore and an empty suggestion list.
func (e *Extractor) Extract(text string) Record {
	res := e.resolve(text)
	if res.structured != nil {
		return *res.structured
	}
	return e.extractHeuristic(res.raw)
}

// resolve attempts the structured parse once.
func (e *Extractor) resolve(text string) parseResult {
	payload, ok := decodeStructured(text)
	if !ok || payload.OverallScore == nil {
		return parseResult{raw: text}
	}

	rec := Record{
		Overall:    clamp(*payload.OverallScore, 0, 100),
		Categories: make(map[string]int, len(e.categories)),
		Highlight:  payload.Highlight,
		Source:     SourceParsed,
	}
	for _, c := range e.categories {
		if v, found := payload.CategoryScores[c.Key]; found {
			rec.Categories[c.Key] = clamp(v, 0, 100)
		} else {
			rec.Categories[c.Key] = DefaultScore
		}
	}
	for _, s := range payload.ImprovementSuggestions {
		s = strings.TrimSpace(s)
		if s != "" && len(rec.Suggestions) < maxSuggestions {
			rec.Suggestions = append(rec.Suggestions, s)
		}
	}
	return parseResult{structured: &rec}
}

// structuredPayload is the fixed shape the evaluator is instructed to emit.
type structuredPayload struct {
	OverallScore           *int           `json:"overall_score"`
	CategoryScores         map[string]int `json:"category_scores"`
	ImprovementSuggestions []string       `json:"improvement_suggestions"`
	Highlight              string         `json:"highlight"`
}

// decodeStructured finds the outermost JSON object in text and decodes it,
// repairing almost-JSON (trailing commas, single quotes, fences) when a
// straight parse fails.
func decodeStructured(text string) (structuredPayload, bool) {
	var payload structuredPayload

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return payload, false
	}
	raw := text[start : end+1]

	if err := json.Unmarshal([]byte(raw), &payload); err == nil {
		return payload, true
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return structuredPayload{}, false
	}
	payload = structuredPayload{}
	if err := json.Unmarshal([]byte(repaired), &payload); err != nil {
		return structuredPayload{}, false
	}
	return payload, true
}

// extractHeuristic pulls labeled scores and a suggestion list out of prose.
func (e *Extractor) extractHeuristic(text string) Record {
	rec := Record{
		Overall:    DefaultScore,
		Categories: make(map[string]int, len(e.categories)),
		Source:     SourceHeuristic,
	}

	if m := overallRe.FindStringSubmatch(text); m != nil {
		if v, err := strconv.Atoi(m[1]); err == nil {
			rec.Overall = clamp(v, 0, 100)
		}
	}

	for _, c := range e.categories {
		rec.Categories[c.Key] = DefaultScore
		if m := e.categoryRe[c.Key].FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				rec.Categories[c.Key] = clamp(v, 0, 100)
			}
		}
	}

	rec.Suggestions = extractSuggestions(text)
	return rec
}

// extractSuggestions tries suggestion formats from most to least structured
// and stops at the first strategy that yields anything.
func extractSuggestions(text string) []string {
	var suggestions []string

	// Numbered items with a bold title: "1. **Title**: body".
	if locs := boldItemRe.FindAllStringSubmatchIndex(text, -1); locs != nil {
		for i, loc := range locs {
			title := text[loc[2]:loc[3]]
			end := len(text)
			if i+1 < len(locs) {
				end = locs[i+1][0]
			}
			body := strings.TrimSpace(text[loc[1]:end])
			suggestions = append(suggestions, title+": "+body)
		}
	}

	if len(suggestions) == 0 {
		for _, m := range numberedRe.FindAllStringSubmatch(text, -1) {
			if s := strings.TrimSpace(m[1]); len(s) > 10 {
				suggestions = append(suggestions, s)
			}
		}
	}

	if len(suggestions) == 0 {
		for _, m := range bulletRe.FindAllStringSubmatch(text, -1) {
			if s := strings.TrimSpace(m[1]); len(s) > 10 {
				suggestions = append(suggestions, s)
			}
		}
	}

	// Last resort: plausible prose lines.
	if len(suggestions) == 0 {
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) > 15 && len(line) < 200 && !strings.HasPrefix(line, "*") {
				suggestions = append(suggestions, line)
			}
			if len(suggestions) == maxSuggestions {
				break
			}
		}
	}

	var cleaned []string
	for _, s := range suggestions {
		s = emphasisRe.ReplaceAllString(s, "")
		s = strings.TrimSpace(leadEnumRe.ReplaceAllString(strings.TrimSpace(s), ""))
		if len(s) > 10 {
			cleaned = append(cleaned, s)
		}
		if len(cleaned) == maxSuggestions {
			break
		}
	}
	return cleaned
}
