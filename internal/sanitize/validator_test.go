package sanitize

import (
	"strings"
	"testing"
)

// fixedSelector always picks index n.
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

func testValidator(sel fixedSelector) *Validator {
	return NewValidator(ValidatorConfig{
		GreetingTokens:   []string{"hello", "hi", "namaste"},
		DefaultGreeting:  "Hello!",
		InitialClarifier: "Hello! I need some help with my banking issue.",
		LaterClarifier:   "Can you explain the charges on my account?",
		EchoAlternatives: []string{
			"What documents do I need to open an account?",
			"Are there any hidden charges I should know about?",
		},
	}, sel)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	v := testValidator(fixedSelector{})

	t.Run("empty initial becomes clarifier", func(t *testing.T) {
		t.Parallel()
		got := v.Validate("", "", true)
		if got != "Hello! I need some help with my banking issue." {
			t.Fatalf("want initial clarifier, got %q", got)
		}
	})

	t.Run("empty later becomes clarifier", func(t *testing.T) {
		t.Parallel()
		got := v.Validate("   ", "Anything else?", false)
		if got != "Can you explain the charges on my account?" {
			t.Fatalf("want later clarifier, got %q", got)
		}
	})

	t.Run("initial without greeting gets one prepended", func(t *testing.T) {
		t.Parallel()
		got := v.Validate("I need help with my account.", "", true)
		if !strings.HasPrefix(strings.ToLower(got), "hello") {
			t.Fatalf("want greeting prefix, got %q", got)
		}
	})

	t.Run("initial with greeting unchanged", func(t *testing.T) {
		t.Parallel()
		in := "Namaste. I want to open an account."
		if got := v.Validate(in, "", true); got != in {
			t.Fatalf("want %q, got %q", in, got)
		}
	})

	t.Run("long reply truncated to 50 words", func(t *testing.T) {
		t.Parallel()
		in := strings.TrimSpace(strings.Repeat("word ", 60))
		got := v.Validate(in, "", false)
		if n := len(strings.Fields(got)); n != 50 {
			t.Fatalf("want 50 words, got %d", n)
		}
	})

	t.Run("short reply untouched", func(t *testing.T) {
		t.Parallel()
		in := "Why was I charged twice?"
		if got := v.Validate(in, "Let me check.", false); got != in {
			t.Fatalf("want %q, got %q", in, got)
		}
	})
}

func TestValidateEchoReplacement(t *testing.T) {
	t.Parallel()

	msg := "Your account has a pending verification hold."

	t.Run("verbatim echo replaced", func(t *testing.T) {
		t.Parallel()
		v := testValidator(fixedSelector{n: 1})
		got := v.Validate("So "+msg, msg, false)
		if got != "Are there any hidden charges I should know about?" {
			t.Fatalf("want selected alternative, got %q", got)
		}
	})

	t.Run("near echo replaced", func(t *testing.T) {
		t.Parallel()
		v := testValidator(fixedSelector{n: 0})
		got := v.Validate("Your account has a pending verification hold!", msg, false)
		if got != "What documents do I need to open an account?" {
			t.Fatalf("want selected alternative, got %q", got)
		}
	})

	t.Run("short trainee message never triggers", func(t *testing.T) {
		t.Parallel()
		v := testValidator(fixedSelector{})
		in := "Yes, okay."
		if got := v.Validate(in, "okay", false); got != in {
			t.Fatalf("want %q, got %q", in, got)
		}
	})
}
