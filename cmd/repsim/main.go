// Command repsim is the customer-conversation training simulator server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/trainloop/repsim/internal/config"
	"github.com/trainloop/repsim/internal/convstore"
	"github.com/trainloop/repsim/internal/dialogue"
	"github.com/trainloop/repsim/internal/domain"
	"github.com/trainloop/repsim/internal/health"
	"github.com/trainloop/repsim/internal/httpapi"
	"github.com/trainloop/repsim/internal/observe"
	"github.com/trainloop/repsim/internal/persona"
	"github.com/trainloop/repsim/internal/progress"
	"github.com/trainloop/repsim/internal/resilience"
	"github.com/trainloop/repsim/internal/trainer"
	"github.com/trainloop/repsim/pkg/provider/llm"
	"github.com/trainloop/repsim/pkg/provider/llm/anyllm"
	"github.com/trainloop/repsim/pkg/provider/llm/mock"
	"github.com/trainloop/repsim/pkg/provider/llm/openai"
)

const shutdownTimeout = 15 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "repsim: config file %q not found; copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "repsim: %v\n", err)
		}
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(slogLevel(cfg.Server.LogLevel))
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	slog.Info("repsim starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
		"domain", cfg.Domain.Kind,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry providers, registered globally.
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceName: "repsim"})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := otelShutdown(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()
	metrics := observe.DefaultMetrics()

	// Domain variant and persona catalog.
	kind := cfg.Domain.Kind
	if kind == "" {
		kind = domain.Banking
	}
	variant, err := domain.ForKind(kind)
	if err != nil {
		slog.Error("unknown domain kind", "kind", kind, "err", err)
		return 1
	}
	catalog, err := persona.LoadCatalog(cfg.Domain.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.Domain.CatalogPath, "err", err)
		return 1
	}
	slog.Info("catalog loaded",
		"personas", len(catalog.Personas),
		"scenarios", len(catalog.Scenarios),
		"products", len(catalog.Products),
	)

	// Model providers.
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	dialogueProvider, err := buildDialogueProvider(ctx, cfg, reg)
	if err != nil {
		slog.Error("failed to build dialogue provider", "err", err)
		return 1
	}
	evalProvider, err := buildProvider(ctx, reg, "evaluation", cfg.Providers.Evaluation)
	if err != nil {
		slog.Error("failed to build evaluation provider", "err", err)
		return 1
	}

	// Progress persistence: Postgres when configured, in-memory otherwise.
	var sink progress.Sink
	var checkers []health.Checker
	if dsn := cfg.Progress.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to create postgres pool", "err", err)
			return 1
		}
		defer pool.Close()

		pgSink := progress.NewPostgresSink(pool)
		if err := pgSink.Migrate(ctx); err != nil {
			slog.Error("failed to migrate progress schema", "err", err)
			return 1
		}
		sink = pgSink
		checkers = append(checkers, health.Checker{Name: "database", Check: pool.Ping})
		slog.Info("progress persistence enabled", "backend", "postgres")
	} else {
		sink = progress.NewMemorySink()
		slog.Info("progress persistence enabled", "backend", "memory")
	}

	// Core services.
	store := convstore.NewStore()
	orch := dialogue.NewOrchestrator(store, variant, dialogueProvider, catalog.Products,
		dialogue.WithMetrics(metrics),
	)
	svc := trainer.NewService(variant, catalog, store, orch,
		trainer.NewEvaluator(variant, evalProvider),
		trainer.WithProgressSink(sink),
		trainer.WithMetrics(metrics),
		trainer.WithFallbackOnly(cfg.Domain.FallbackOnly),
	)

	// Hot reload for the fields that tolerate it.
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		applyConfigChange(config.Diff(old, new), logLevel, svc)
	})
	if err != nil {
		slog.Warn("config watcher disabled", "err", err)
	} else {
		defer watcher.Stop()
	}

	// HTTP surface.
	mux := http.NewServeMux()
	httpapi.NewServer(svc, logger).Register(mux)
	health.New(checkers...).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = srv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = srv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	slog.Info("server ready", "addr", addr)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("server error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// registerBuiltinProviders wires the provider factories that ship with the
// simulator into reg.
func registerBuiltinProviders(reg *config.Registry) {
	reg.Register("openai", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})

	// anyllm routes to many backends; the backend is either the options
	// "provider" value or the prefix of a "backend/model" model string.
	reg.Register("anyllm", func(entry config.ProviderEntry) (llm.Provider, error) {
		backend := optString(entry.Options, "provider")
		model := entry.Model
		if backend == "" {
			if i := strings.Index(model, "/"); i > 0 {
				backend, model = model[:i], model[i+1:]
			}
		}
		var opts []anyllmlib.Option
		if entry.APIKey != "" {
			opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
		}
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New(backend, model, opts...)
	})

	// mock returns a fixed reply, for smoke tests without credentials.
	reg.Register("mock", func(entry config.ProviderEntry) (llm.Provider, error) {
		text := optString(entry.Options, "reply")
		if text == "" {
			text = "I still need help with my issue."
		}
		return &mock.Provider{
			CompleteResponse: &llm.CompletionResponse{Content: text},
		}, nil
	})
}

// buildProvider instantiates one provider stage. An empty name yields a nil
// provider; both dialogue and evaluation degrade gracefully without one.
// Construction is retried since some backends probe the network on init.
func buildProvider(ctx context.Context, reg *config.Registry, stage string, entry config.ProviderEntry) (llm.Provider, error) {
	if entry.Name == "" {
		return nil, nil
	}
	p, err := resilience.RetryWithResult(ctx, resilience.RetryConfig{Name: stage + " provider init"},
		func() (llm.Provider, error) { return reg.Create(entry) },
	)
	if err != nil {
		return nil, fmt.Errorf("create %s provider %q: %w", stage, entry.Name, err)
	}
	slog.Info("provider created", "stage", stage, "name", entry.Name, "model", entry.Model)
	return p, nil
}

// buildDialogueProvider builds the primary dialogue backend and, when
// fallbacks are configured, wraps the chain in a circuit-breaking group.
func buildDialogueProvider(ctx context.Context, cfg *config.Config, reg *config.Registry) (llm.Provider, error) {
	primary, err := buildProvider(ctx, reg, "dialogue", cfg.Providers.Dialogue)
	if err != nil || primary == nil {
		return nil, err
	}
	if len(cfg.Providers.DialogueFallbacks) == 0 {
		return primary, nil
	}

	group := resilience.NewLLMFallback(primary, cfg.Providers.Dialogue.Name, resilience.FallbackConfig{})
	for i, entry := range cfg.Providers.DialogueFallbacks {
		p, err := buildProvider(ctx, reg, fmt.Sprintf("dialogue fallback %d", i+1), entry)
		if err != nil {
			return nil, err
		}
		group.AddFallback(entry.Name, p)
	}
	return group, nil
}

// applyConfigChange applies hot-reloadable config changes in place.
func applyConfigChange(ch config.ChangeSet, logLevel *slog.LevelVar, svc *trainer.Service) {
	if ch.Empty() {
		return
	}
	if ch.LogLevelChanged {
		logLevel.Set(slogLevel(ch.NewLogLevel))
		slog.Info("log level changed", "level", ch.NewLogLevel)
	}
	if ch.FallbackOnlyChanged {
		svc.SetFallbackOnly(ch.NewFallbackOnly)
		slog.Info("fallback-only mode changed", "fallback_only", ch.NewFallbackOnly)
	}
	if ch.CatalogPathChanged {
		catalog, err := persona.LoadCatalog(ch.NewCatalogPath)
		if err != nil {
			slog.Warn("catalog reload failed, keeping previous catalog",
				"path", ch.NewCatalogPath, "err", err)
			return
		}
		svc.ReplaceCatalog(catalog)
		slog.Info("catalog reloaded", "path", ch.NewCatalogPath, "scenarios", len(catalog.Scenarios))
	}
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// optString extracts a string value from a provider Options map.
// Returns "" if the map is nil, the key is absent, or the value is not a
// string.
func optString(opts map[string]any, key string) string {
	if opts == nil {
		return ""
	}
	s, _ := opts[key].(string)
	return s
}
