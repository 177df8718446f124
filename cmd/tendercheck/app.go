package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/tendercheck/compare"
	"github.com/c360studio/tendercheck/config"
	"github.com/c360studio/tendercheck/embedding"
	"github.com/c360studio/tendercheck/events"
	"github.com/c360studio/tendercheck/legal"
	"github.com/c360studio/tendercheck/llm"
	"github.com/c360studio/tendercheck/metrics"
	"github.com/c360studio/tendercheck/model"
	"github.com/c360studio/tendercheck/relevance"
	"github.com/c360studio/tendercheck/rules"
	"github.com/c360studio/tendercheck/source/parser"
	"github.com/c360studio/tendercheck/storage"
	"github.com/c360studio/tendercheck/storage/sqlite"
	"github.com/c360studio/tendercheck/tender"
	"github.com/c360studio/tendercheck/validate"
)

// app holds the wired pipeline and the resources it owns. Everything is
// constructed once at startup and passed by reference; there are no
// package-level singletons.
type app struct {
	cfg       *config.Config
	repo      tender.Repository
	validator *validate.Validator
	cache     *embedding.Cache
	metrics   *metrics.Metrics
	legal     *legal.Retriever
	logger    *slog.Logger

	natsConn    *nats.Conn
	sqlStore    *sqlite.Store
	stopWatcher context.CancelFunc
}

// newApp wires the full pipeline from configuration.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := slog.Default()

	a := &app{cfg: cfg, logger: logger}

	if cfg.NATS.URL != "" {
		nc, err := nats.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, fmt.Errorf("connect to NATS: %w", err)
		}
		a.natsConn = nc
	}

	repo, err := a.buildRepository(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.repo = repo

	a.metrics = metrics.New(prometheus.NewRegistry())

	embedder, err := buildEmbedder(cfg.Embedding, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.cache = embedding.NewCache(embedding.NewFallback(embedder), cfg.Embedding.CacheCapacity)

	registry, err := model.BuildRegistry(cfg.Judge.Provider, cfg.Judge.Model, cfg.Judge.Endpoint, cfg.Judge.Fallback)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build model registry: %w", err)
	}
	judgeClient := llm.NewClient(registry, llm.WithLogger(logger))

	filter := relevance.New(a.cache, cfg.Relevance.Threshold, cfg.Relevance.Limit,
		relevance.WithLogger(logger))

	a.legal = legal.New(a.cache, cfg.Legal.MinRelevance, cfg.Legal.MaxCitations,
		legal.WithLogger(logger))
	if cfg.Legal.CorpusDir != "" {
		if err := a.legal.LoadCorpus(ctx, cfg.Legal.CorpusDir); err != nil {
			logger.Warn("Legal corpus load failed, continuing without citations", "error", err)
		}
		if cfg.Legal.Watch {
			watchCtx, cancel := context.WithCancel(context.Background())
			a.stopWatcher = cancel
			watcher := legal.NewWatcher(a.legal, cfg.Legal.CorpusDir, logger)
			go func() {
				if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Warn("Legal corpus watcher stopped", "error", err)
				}
			}()
		}
	}

	batcher := compare.NewBatcher(judgeClient, cfg.Batch,
		compare.WithCitations(a.legal),
		compare.WithMetrics(a.metrics),
		compare.WithLogger(logger),
		compare.WithTemperature(cfg.Judge.Temperature))

	engine := rules.NewEngine(nil, logger)
	if len(cfg.Rules.ScopeInclude) > 0 || len(cfg.Rules.ScopeExclude) > 0 {
		engine.Register(rules.NewScopeRule(cfg.Rules.ScopeInclude, cfg.Rules.ScopeExclude))
	}
	engine.Register(rules.NewMandatoryCoverageRule())

	opts := []validate.ValidatorOption{
		validate.WithMetrics(a.metrics),
		validate.WithLogger(logger),
	}
	if a.natsConn != nil {
		opts = append(opts, validate.WithEvents(events.NewPublisher(a.natsConn)))
	}

	a.validator = validate.NewValidator(repo, parser.NewRegistry(), filter, batcher, engine, opts...)
	return a, nil
}

// Close releases the resources the app owns.
func (a *app) Close() {
	if a.stopWatcher != nil {
		a.stopWatcher()
	}
	if a.sqlStore != nil {
		_ = a.sqlStore.Close()
	}
	if a.natsConn != nil {
		a.natsConn.Close()
	}
}

func (a *app) buildRepository(ctx context.Context) (tender.Repository, error) {
	switch a.cfg.Storage.Backend {
	case "nats":
		if a.natsConn == nil {
			return nil, fmt.Errorf("nats storage backend requires nats.url")
		}
		js, err := jetstream.New(a.natsConn)
		if err != nil {
			return nil, fmt.Errorf("create JetStream context: %w", err)
		}
		return storage.NewStore(ctx, js)
	default:
		store, err := sqlite.Open(a.cfg.Storage.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.sqlStore = store
		return store, nil
	}
}

func buildEmbedder(cfg config.EmbeddingConfig, logger *slog.Logger) (embedding.Provider, error) {
	switch cfg.Provider {
	case "ollama":
		var opts []embedding.OllamaOption
		if cfg.Endpoint != "" {
			opts = append(opts, embedding.WithOllamaBaseURL(cfg.Endpoint))
		}
		return embedding.NewOllamaProvider(cfg.Model, cfg.Dimensions, opts...), nil
	case "openai":
		var opts []embedding.OpenAIOption
		if cfg.Endpoint != "" {
			opts = append(opts, embedding.WithOpenAIBaseURL(cfg.Endpoint))
		}
		return embedding.NewOpenAIProvider(cfg.Model, cfg.Dimensions, opts...), nil
	case "lexical":
		return embedding.NewLexicalProvider(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
