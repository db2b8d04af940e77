package score

import (
	"testing"

	"github.com/trainloop/repsim/internal/domain"
)

// fixedSelector always picks index n and probability f.
type fixedSelector struct {
	n int
	f float64
}

func (s fixedSelector) IntN(n int) int {
	if s.n >= n {
		return n - 1
	}
	return s.n
}

func (s fixedSelector) Float64() float64 { return s.f }

func TestSynthesize(t *testing.T) {
	t.Parallel()

	v := domain.BankingVariant()

	t.Run("flagged as synthesized", func(t *testing.T) {
		t.Parallel()
		rec := Synthesize(8, v.Categories, v.GenericSuggestions, fixedSelector{})
		if rec.Source != SourceSynthesized {
			t.Fatalf("want source %q, got %q", SourceSynthesized, rec.Source)
		}
		if len(rec.Suggestions) == 0 {
			t.Fatalf("want generic suggestions, got none")
		}
		if len(rec.Categories) != len(v.Categories) {
			t.Fatalf("want %d categories, got %d", len(v.Categories), len(rec.Categories))
		}
	})

	t.Run("scores stay in bounds", func(t *testing.T) {
		t.Parallel()
		for _, turns := range []int{0, 2, 6, 20, 100} {
			for _, n := range []int{0, 5, 10, 20, 30} {
				rec := Synthesize(turns, v.Categories, v.GenericSuggestions, fixedSelector{n: n})
				if rec.Overall < synthMin || rec.Overall > synthMax {
					t.Fatalf("turns=%d n=%d: overall %d out of [%d,%d]", turns, n, rec.Overall, synthMin, synthMax)
				}
				for key, score := range rec.Categories {
					if score < synthCategoryMin || score > synthMax {
						t.Fatalf("turns=%d n=%d: category %q score %d out of bounds", turns, n, key, score)
					}
				}
			}
		}
	})

	t.Run("longer conversations score higher baseline", func(t *testing.T) {
		t.Parallel()
		// A selector that picks the middle of every range removes variation.
		short := Synthesize(1, v.Categories, nil, fixedSelector{n: 10})
		long := Synthesize(7, v.Categories, nil, fixedSelector{n: 10})
		if long.Overall <= short.Overall {
			t.Fatalf("want longer conversation to score higher, got %d then %d", short.Overall, long.Overall)
		}
	})

	t.Run("suggestions capped at five", func(t *testing.T) {
		t.Parallel()
		pool := make([]string, 9)
		for i := range pool {
			pool[i] = "Keep practicing with realistic customer scenarios."
		}
		rec := Synthesize(4, v.Categories, pool, fixedSelector{})
		if len(rec.Suggestions) != 5 {
			t.Fatalf("want 5 suggestions, got %d", len(rec.Suggestions))
		}
	})
}
