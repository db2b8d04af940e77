package config_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/trainloop/repsim/internal/config"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/pkg/provider/llm"
	"github.com/trainloop/repsim/pkg/provider/llm/mock"
)

const sampleYAML = `
server:
  listen_addr: ":8080"
  log_level: info

domain:
  kind: banking
  catalog_path: configs/banking_catalog.yaml

providers:
  dialogue:
    name: openai
    api_key: sk-test
    model: gpt-4o-mini
  evaluation:
    name: openai
    api_key: sk-test
    model: gpt-4o
  dialogue_fallbacks:
    - name: anyllm
      model: mistral/mistral-small
      options:
        region: eu

progress:
  postgres_dsn: "postgres://localhost/repsim"
`

func TestLoadFromReader_FullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen_addr: got %q, want %q", cfg.Server.ListenAddr, ":8080")
	}
	if cfg.Server.LogLevel != config.LogInfo {
		t.Errorf("log_level: got %q, want %q", cfg.Server.LogLevel, config.LogInfo)
	}
	if cfg.Domain.Kind != domain.Banking {
		t.Errorf("domain.kind: got %q, want %q", cfg.Domain.Kind, domain.Banking)
	}
	if cfg.Domain.CatalogPath != "configs/banking_catalog.yaml" {
		t.Errorf("catalog_path: got %q", cfg.Domain.CatalogPath)
	}
	if cfg.Providers.Dialogue.Name != "openai" || cfg.Providers.Dialogue.Model != "gpt-4o-mini" {
		t.Errorf("dialogue provider: got %+v", cfg.Providers.Dialogue)
	}
	if len(cfg.Providers.DialogueFallbacks) != 1 {
		t.Fatalf("dialogue_fallbacks: got %d entries, want 1", len(cfg.Providers.DialogueFallbacks))
	}
	fb := cfg.Providers.DialogueFallbacks[0]
	if fb.Name != "anyllm" || fb.Model != "mistral/mistral-small" {
		t.Errorf("fallback entry: got %+v", fb)
	}
	if fb.Options["region"] != "eu" {
		t.Errorf("fallback options: got %+v", fb.Options)
	}
	if cfg.Progress.PostgresDSN != "postgres://localhost/repsim" {
		t.Errorf("postgres_dsn: got %q", cfg.Progress.PostgresDSN)
	}
}

func TestLogLevelIsValid(t *testing.T) {
	t.Parallel()

	for _, l := range []config.LogLevel{config.LogDebug, config.LogInfo, config.LogWarn, config.LogError} {
		if !l.IsValid() {
			t.Errorf("%q should be valid", l)
		}
	}
	for _, l := range []config.LogLevel{"", "trace", "DEBUG", "information"} {
		if l.IsValid() {
			t.Errorf("%q should be invalid", l)
		}
	}
}

func TestRegistry_CreateRegistered(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.Register("mock", func(entry config.ProviderEntry) (llm.Provider, error) {
		return &mock.Provider{ProviderName: "mock-" + entry.Model}, nil
	})

	p, err := r.Create(config.ProviderEntry{Name: "mock", Model: "m1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "mock-m1" {
		t.Errorf("provider name: got %q, want %q", p.Name(), "mock-m1")
	}
}

func TestRegistry_CreateUnregistered(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	_, err := r.Create(config.ProviderEntry{Name: "nope"})
	if !errors.Is(err, config.ErrProviderNotRegistered) {
		t.Fatalf("want ErrProviderNotRegistered, got %v", err)
	}
}

func TestRegistry_OverwriteAndNames(t *testing.T) {
	t.Parallel()

	r := config.NewRegistry()
	r.Register("mock", func(config.ProviderEntry) (llm.Provider, error) {
		return &mock.Provider{ProviderName: "first"}, nil
	})
	r.Register("mock", func(config.ProviderEntry) (llm.Provider, error) {
		return &mock.Provider{ProviderName: "second"}, nil
	})

	p, err := r.Create(config.ProviderEntry{Name: "mock"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Name() != "second" {
		t.Errorf("later registration should win, got %q", p.Name())
	}
	if names := r.Names(); len(names) != 1 || names[0] != "mock" {
		t.Errorf("Names() = %v", names)
	}
}
