package persona

import (
	"slices"
	"strings"
)

// MaxDistinctiveTraits is the number of extreme traits a persona keeps after
// reduction. Focusing generation on a few distinctive traits produces far
// more consistent dialogue than balancing all of them.
const MaxDistinctiveTraits = 3

// PriorityRule maps a customer-type class to the trait order that decides
// which extreme traits survive reduction for that class.
type PriorityRule struct {
	// Class is matched as a case-insensitive substring of the persona's
	// customer type, e.g. "premium" or "dissatisfied".
	Class string
	// Order lists traits most-important first.
	Order []Trait
}

// Reducer reduces personas to at most MaxDistinctiveTraits extreme traits.
// Which traits win ties is decided by per-customer-type priority rules; the
// fallback order applies when no rule matches.
type Reducer struct {
	rules    []PriorityRule
	fallback []Trait
}

// NewReducer builds a Reducer from ordered rules and a fallback trait order.
// Rules are evaluated in the given order and the first match wins.
func NewReducer(rules []PriorityRule, fallback []Trait) *Reducer {
	if len(fallback) == 0 {
		fallback = AllTraits
	}
	return &Reducer{rules: rules, fallback: fallback}
}

// Reduce returns a copy of p with at most MaxDistinctiveTraits extreme
// traits; every other trait dimension is set to LevelMedium. Reduce never
// mutates p and is idempotent: Reduce(Reduce(p)) == Reduce(p).
func (r *Reducer) Reduce(p Persona) Persona {
	out := p.Clone()

	var distinctive []Trait
	for _, t := range AllTraits {
		if p.Trait(t).Extreme() {
			distinctive = append(distinctive, t)
		}
	}

	if len(distinctive) > MaxDistinctiveTraits {
		order := r.orderFor(p.CustomerType)
		slices.SortStableFunc(distinctive, func(a, b Trait) int {
			return priorityIndex(order, a) - priorityIndex(order, b)
		})
		distinctive = distinctive[:MaxDistinctiveTraits]
	}

	for _, t := range AllTraits {
		if !slices.Contains(distinctive, t) {
			out.Traits[t] = LevelMedium
		}
	}
	return out
}

// orderFor returns the priority order for a customer type.
func (r *Reducer) orderFor(customerType string) []Trait {
	lower := strings.ToLower(customerType)
	for _, rule := range r.rules {
		if rule.Class != "" && strings.Contains(lower, strings.ToLower(rule.Class)) {
			return rule.Order
		}
	}
	return r.fallback
}

// priorityIndex ranks t within order; traits absent from order sort last.
func priorityIndex(order []Trait, t Trait) int {
	if i := slices.Index(order, t); i >= 0 {
		return i
	}
	return len(AllTraits) + 1
}
