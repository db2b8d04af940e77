package dialogue

import (
	"strings"
	"testing"

	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/persona"
)

func TestTemplateReply(t *testing.T) {
	t.Parallel()

	tpl := NewTemplates(domain.BankingVariant())
	sc := persona.Scenario{CustomerObjective: "disputed charges on my account"}

	tests := []struct {
		name   string
		tag    domain.QuestionTag
		p      persona.Persona
		want   string
		wantOK bool
	}{
		{
			name:   "name when patient",
			tag:    domain.TagAskingName,
			p:      persona.Persona{Name: "Priya Sharma"},
			want:   "My name is Priya Sharma. I'm here about disputed charges on my account.",
			wantOK: true,
		},
		{
			name: "name when impatient",
			tag:  domain.TagAskingName,
			p: persona.Persona{Name: "Priya Sharma", Traits: map[persona.Trait]persona.Level{
				persona.TraitPatience: persona.LevelLow,
			}},
			want:   "I'm Priya Sharma. Now, can we address my banking concern?",
			wantOK: true,
		},
		{
			name:   "greeting",
			tag:    domain.TagGreeting,
			p:      persona.Persona{Name: "Priya Sharma", CustomerType: "New Customer"},
			want:   "Hello! I need help with disputed charges on my account. Can you assist me?",
			wantOK: true,
		},
		{
			name:   "greeting as premium",
			tag:    domain.TagGreeting,
			p:      persona.Persona{Name: "Priya Sharma", CustomerType: "Premium Customer"},
			want:   "Hello. As I mentioned, I'm a premium customer and I need assistance with disputed charges on my account.",
			wantOK: true,
		},
		{
			name: "wellbeing when polite",
			tag:  domain.TagAskingWellbeing,
			p: persona.Persona{Name: "Priya Sharma", Traits: map[persona.Trait]persona.Level{
				persona.TraitPoliteness: persona.LevelVeryHigh,
			}},
			want:   "I'm doing well, thank you for asking. Now about the banking matter we were discussing...",
			wantOK: true,
		},
		{
			name:   "wellbeing otherwise",
			tag:    domain.TagAskingWellbeing,
			p:      persona.Persona{Name: "Priya Sharma"},
			want:   "I'm here to resolve my banking issue. Can we focus on that please?",
			wantOK: true,
		},
		{
			name:   "general question has no template",
			tag:    domain.TagGeneralQuestion,
			p:      persona.Persona{Name: "Priya Sharma"},
			wantOK: false,
		},
		{
			name:   "price question has no template",
			tag:    domain.TagAskingPriceOrFees,
			p:      persona.Persona{Name: "Priya Sharma"},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := tpl.Reply(tt.tag, tt.p, sc)
			if ok != tt.wantOK {
				t.Fatalf("Reply ok: want %v, got %v", tt.wantOK, ok)
			}
			if ok && got != tt.want {
				t.Fatalf("Reply: want %q, got %q", tt.want, got)
			}
		})
	}
}

func TestDegradedReply(t *testing.T) {
	t.Parallel()

	tpl := NewTemplates(domain.BankingVariant())
	sc := persona.Scenario{CustomerObjective: "opening a savings account"}

	t.Run("identity with history", func(t *testing.T) {
		t.Parallel()
		p := persona.Persona{Name: "Arun", History: "8 years"}
		got, ok := tpl.DegradedReply(domain.TagAskingIdentity, p, sc)
		if !ok {
			t.Fatal("want a degraded identity reply")
		}
		if !strings.Contains(got, "8 years") {
			t.Fatalf("want history in reply, got %q", got)
		}
	})

	t.Run("identity without history", func(t *testing.T) {
		t.Parallel()
		got, ok := tpl.DegradedReply(domain.TagAskingIdentity, persona.Persona{Name: "Arun"}, sc)
		if !ok {
			t.Fatal("want a degraded identity reply")
		}
		if !strings.Contains(got, "quite a while") {
			t.Fatalf("want placeholder history, got %q", got)
		}
	})

	t.Run("purpose names the objective", func(t *testing.T) {
		t.Parallel()
		got, ok := tpl.DegradedReply(domain.TagAskingPurpose, persona.Persona{Name: "Arun"}, sc)
		if !ok {
			t.Fatal("want a degraded purpose reply")
		}
		if want := "I'm here about opening a savings account. Can you help me with that?"; got != want {
			t.Fatalf("want %q, got %q", want, got)
		}
	})

	t.Run("general question has none", func(t *testing.T) {
		t.Parallel()
		if _, ok := tpl.DegradedReply(domain.TagGeneralQuestion, persona.Persona{Name: "Arun"}, sc); ok {
			t.Fatal("general questions must fall through to pools")
		}
	})
}
