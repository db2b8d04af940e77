package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidProviderNames lists known provider names per stage. Used by [Validate]
// to warn about unrecognised provider names.
var ValidProviderNames = map[string][]string{
	"dialogue":   {"openai", "anyllm", "mock"},
	"evaluation": {"openai", "anyllm", "mock"},
}

// Environment variables consulted by [Load] when the corresponding config
// field is empty.
const (
	EnvDialogueAPIKey   = "REPSIM_DIALOGUE_API_KEY"
	EnvEvaluationAPIKey = "REPSIM_EVALUATION_API_KEY"
	EnvOpenAIAPIKey     = "OPENAI_API_KEY"
	EnvDatabaseURL      = "DATABASE_URL"
)

// Load reads the YAML configuration file at path, applies environment
// overrides for secrets, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
// Environment overrides are not applied; use [Load] for that.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv fills secrets left empty in the file from the environment. Stage
// specific variables win over the shared OpenAI key.
func applyEnv(cfg *Config) {
	if cfg.Providers.Dialogue.APIKey == "" {
		cfg.Providers.Dialogue.APIKey = firstEnv(EnvDialogueAPIKey, EnvOpenAIAPIKey)
	}
	if cfg.Providers.Evaluation.APIKey == "" {
		cfg.Providers.Evaluation.APIKey = firstEnv(EnvEvaluationAPIKey, EnvOpenAIAPIKey)
	}
	for i := range cfg.Providers.DialogueFallbacks {
		if cfg.Providers.DialogueFallbacks[i].APIKey == "" {
			cfg.Providers.DialogueFallbacks[i].APIKey = firstEnv(EnvDialogueAPIKey, EnvOpenAIAPIKey)
		}
	}
	if cfg.Progress.PostgresDSN == "" {
		cfg.Progress.PostgresDSN = os.Getenv(EnvDatabaseURL)
	}
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.TLS != nil {
		if cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "" {
			errs = append(errs, errors.New("server.tls requires both cert_file and key_file"))
		}
	}

	// Domain
	if cfg.Domain.Kind != "" && !cfg.Domain.Kind.IsValid() {
		errs = append(errs, fmt.Errorf("domain.kind %q is invalid; valid values: banking, retail", cfg.Domain.Kind))
	}
	if cfg.Domain.CatalogPath == "" {
		errs = append(errs, errors.New("domain.catalog_path is required"))
	}

	// Provider name validation. The primary stages may be left unnamed and
	// degrade gracefully; a fallback entry without a name has nothing to
	// construct and is rejected.
	validateProviderName("dialogue", cfg.Providers.Dialogue.Name)
	validateProviderName("evaluation", cfg.Providers.Evaluation.Name)
	for i, entry := range cfg.Providers.DialogueFallbacks {
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("providers.dialogue_fallbacks[%d]: name is required", i))
			continue
		}
		validateProviderName("dialogue", entry.Name)
	}

	// Availability warnings: both stages degrade rather than fail.
	if cfg.Providers.Dialogue.Name == "" && !cfg.Domain.FallbackOnly {
		slog.Warn("no dialogue provider configured; customer replies will come from deterministic fallbacks")
	}
	if cfg.Providers.Evaluation.Name == "" {
		slog.Warn("no evaluation provider configured; conversation scores will be synthesized")
	}
	if len(cfg.Providers.DialogueFallbacks) > 0 && cfg.Providers.Dialogue.Name == "" {
		errs = append(errs, errors.New("providers.dialogue_fallbacks requires a primary providers.dialogue"))
	}

	if cfg.Progress.PostgresDSN == "" {
		slog.Warn("progress.postgres_dsn is empty; trainee progress will be kept in memory only")
	}

	return errors.Join(errs...)
}

// validateProviderName logs a warning if name is non-empty and not found in
// the [ValidProviderNames] list for the given stage.
func validateProviderName(stage, name string) {
	if name == "" {
		return
	}
	known, ok := ValidProviderNames[stage]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown provider name, may be a typo or third-party provider",
		"stage", stage,
		"name", name,
		"known", known,
	)
}
