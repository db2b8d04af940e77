package persona

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/trainloop/repsim/internal/sample"
)

// Scenario describes one training exercise a trainee can run.
type Scenario struct {
	// ID uniquely identifies the scenario within the catalog.
	ID string `yaml:"id"`

	// Title is a short human-readable name.
	Title string `yaml:"title"`

	// Description explains the exercise to the trainee.
	Description string `yaml:"description"`

	// CustomerType selects which personas fit this scenario,
	// matched case-insensitively as a substring.
	CustomerType string `yaml:"customer_type"`

	// CustomerObjective is what the simulated customer wants,
	// e.g. "disputed charges on my account".
	CustomerObjective string `yaml:"customer_objective"`

	// EntryBehavior describes how the customer opens the conversation.
	EntryBehavior string `yaml:"entry_behavior"`

	// SpecificInterests lists concerns the customer will press on.
	SpecificInterests string `yaml:"specific_interests"`

	// TrainingFocus names the skill the exercise evaluates.
	TrainingFocus string `yaml:"training_focus"`

	// IdealResolution describes what a perfect trainee outcome looks like.
	IdealResolution string `yaml:"ideal_resolution"`

	// Difficulty is a free-form difficulty label shown in listings.
	Difficulty string `yaml:"difficulty"`
}

// Validate checks the scenario definition for catalog loading.
func (s Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("persona: scenario id must not be empty")
	}
	if s.Title == "" {
		return fmt.Errorf("persona: scenario %q: title must not be empty", s.ID)
	}
	if s.CustomerObjective == "" {
		return fmt.Errorf("persona: scenario %q: customer_objective must not be empty", s.ID)
	}
	return nil
}

// Catalog is the full set of personas, scenarios and products the simulator
// can draw from. Catalogs are immutable after loading.
type Catalog struct {
	Personas  []Persona  `yaml:"personas"`
	Scenarios []Scenario `yaml:"scenarios"`
	Products  Products   `yaml:"products"`
}

// LoadCatalog reads and validates a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("persona: open catalog: %w", err)
	}
	defer f.Close()

	c, err := LoadCatalogFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("persona: load catalog %q: %w", path, err)
	}
	return c, nil
}

// LoadCatalogFromReader decodes and validates a catalog from YAML. Unknown
// fields are rejected so typos in catalog files surface at startup.
func LoadCatalogFromReader(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks catalog invariants: at least one persona and scenario,
// unique IDs, valid persona definitions.
func (c *Catalog) Validate() error {
	if len(c.Personas) == 0 {
		return fmt.Errorf("catalog contains no personas")
	}
	if len(c.Scenarios) == 0 {
		return fmt.Errorf("catalog contains no scenarios")
	}

	seen := make(map[string]struct{}, len(c.Personas))
	for _, p := range c.Personas {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate persona id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}

	seen = make(map[string]struct{}, len(c.Scenarios))
	for _, s := range c.Scenarios {
		if err := s.Validate(); err != nil {
			return err
		}
		if _, dup := seen[s.ID]; dup {
			return fmt.Errorf("duplicate scenario id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// ScenarioByID looks up a scenario.
func (c *Catalog) ScenarioByID(id string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return Scenario{}, false
}

// SamplePersona picks a persona fitting the given customer type through sel.
// When no persona matches, any persona may be returned; personas whose type
// contains the class are preferred.
func (c *Catalog) SamplePersona(customerType string, sel sample.Selector) Persona {
	var matching []Persona
	for _, p := range c.Personas {
		if p.TypeMatches(customerType) {
			matching = append(matching, p)
		}
	}
	if len(matching) == 0 {
		matching = c.Personas
	}
	return sample.Pick(sel, matching)
}

// PersonaByID looks up a persona.
func (c *Catalog) PersonaByID(id string) (Persona, bool) {
	for _, p := range c.Personas {
		if p.ID == id {
			return p, true
		}
	}
	return Persona{}, false
}

// ProductsByCategory returns products whose category contains the given
// filter, case-insensitively. An empty filter, or one matching nothing,
// returns all products.
func (c *Catalog) ProductsByCategory(category string) Products {
	return c.Products.ByCategory(category)
}
