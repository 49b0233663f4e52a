package standin

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/standin-bot/standin/pkg/catalog"
	"github.com/standin-bot/standin/pkg/classify"
	"github.com/standin-bot/standin/pkg/coordinator"
	"github.com/standin-bot/standin/pkg/genai"
	"github.com/standin-bot/standin/pkg/history"
	"github.com/standin-bot/standin/pkg/logging"
	"github.com/standin-bot/standin/pkg/metrics"
	"github.com/standin-bot/standin/pkg/prompt"
	"github.com/standin-bot/standin/pkg/redact"
	"github.com/standin-bot/standin/pkg/transcribe"
	"github.com/standin-bot/standin/pkg/transports"
)

// Engine owns the running auto-responder: it consumes inbound events
// from the transport and hands each one to the coordinator on its own
// goroutine. Per-conversation ordering is the coordinator's job, so
// the fan-out here needs no further discipline.
type Engine struct {
	cfg       Config
	co        *coordinator.Coordinator
	transport transports.Transport
	logger    *slog.Logger
	rdb       *redis.Client
	asyncObs  *metrics.AsyncObserver
	cat       *catalog.Catalog

	wg sync.WaitGroup
}

// EngineOptions wires an engine. Providers defaults to the built-in
// registry; Transport, Observer and Store override the config-driven
// wiring when set (tests inject mocks this way).
type EngineOptions struct {
	Config    Config
	Providers *ProviderRegistry
	Transport transports.Transport
	Observer  metrics.Observer
	Store     history.Store
}

func NewEngine(opts EngineOptions) (*Engine, error) {
	cfg := opts.Config
	logging.InitLogger(logging.ParseLevel(cfg.LogLevel))
	redact.SetEnabled(cfg.Privacy.RedactPII)

	slog.Info("standin_init",
		"environment", cfg.Environment,
		"llm_provider", cfg.Vendors.LLM.Provider,
		"transcription_provider", cfg.Vendors.Transcription.Provider,
		"transport", cfg.Transports.Provider,
		"auto_respond", cfg.AutoRespond,
	)

	providers := opts.Providers
	if providers == nil {
		providers = DefaultRegistry()
	}

	backend, err := providers.BuildBackend(cfg.Vendors.LLM)
	if err != nil {
		return nil, err
	}

	var transcriber transcribe.Transcriber
	if cfg.Vendors.Transcription.Provider != "" {
		transcriber, err = providers.BuildTranscriber(cfg.Vendors.Transcription)
		if err != nil {
			return nil, err
		}
	}

	transport := opts.Transport
	if transport == nil {
		transport, err = providers.BuildTransport(cfg.Transports)
		if err != nil {
			return nil, err
		}
	}

	var rdb *redis.Client
	store := opts.Store
	if store == nil && cfg.History.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		rdb, err = history.DialRedis(ctx, cfg.History.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		store = history.NewRedisStore(rdb, history.RedisOptions{
			TTL: time.Duration(cfg.History.TTLHours) * time.Hour,
		})
	}

	cat, err := catalog.Load(cfg.Catalog.Path, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	obs := opts.Observer
	var asyncObs *metrics.AsyncObserver
	if obs == nil {
		asyncObs = metrics.NewAsyncObserver(metrics.NewLoggerObserver(slog.Default()), 1024)
		obs = asyncObs
	}

	co := coordinator.New(
		coordinator.Config{
			AutoRespond:     cfg.AutoRespond,
			RespondToGroups: cfg.RespondToGroups,
			ResponseDelay:   time.Duration(cfg.ResponseDelay) * time.Second,
		},
		coordinator.Deps{
			History: history.New(cfg.History.MaxLength, store),
			Classifier: classify.New(classify.Options{
				Backend:       backend,
				KnownContacts: cfg.Classifier.KnownContacts,
				Timeout:       time.Duration(cfg.Classifier.TimeoutMS) * time.Millisecond,
			}),
			Matcher: catalog.NewMatcher(cat, cfg.Catalog.MaxResults),
			Builder: prompt.NewBuilder(
				prompt.OwnerProfile{DisplayName: cfg.OwnerName},
				cfg.History.MaxLength,
				cfg.Generation.MaxTokens,
			),
			Generator: genai.NewGenerator(backend, genai.GeneratorOptions{
				Timeout:      time.Duration(cfg.Generation.TimeoutMS) * time.Millisecond,
				MaxRetries:   cfg.Generation.Retries,
				RetryBackoff: time.Duration(cfg.Generation.RetryBackoffMS) * time.Millisecond,
				Observer:     obs,
			}),
			Transcriber: transcriber,
			Sender:      transport,
			Observer:    obs,
		},
	)

	return &Engine{
		cfg:       cfg,
		co:        co,
		transport: transport,
		logger:    logging.NewComponentLogger(slog.Default(), "engine"),
		rdb:       rdb,
		asyncObs:  asyncObs,
		cat:       cat,
	}, nil
}

// Coordinator exposes the turn coordinator, mainly for state listeners.
func (e *Engine) Coordinator() *coordinator.Coordinator { return e.co }

// ReloadCatalog re-reads the product catalog file in place. Safe to
// call while turns are in flight.
func (e *Engine) ReloadCatalog() error { return e.cat.Reload() }

// Run starts the transport and processes inbound events until ctx is
// canceled or the transport closes its event channel. In-flight turns
// are drained before Run returns.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.transport.Start(ctx); err != nil {
		return fmt.Errorf("start transport: %w", err)
	}
	e.logger.Info("engine_started", "transport", e.transport.Name())

	for {
		select {
		case <-ctx.Done():
			return e.drain()
		case event, ok := <-e.transport.Recv():
			if !ok {
				return e.drain()
			}
			e.wg.Add(1)
			go func(event transports.InboundEvent) {
				defer e.wg.Done()
				e.co.HandleInbound(ctx, event)
			}(event)
		}
	}
}

// Drain stops the transport and waits for in-flight turns.
func (e *Engine) Drain() error { return e.drain() }

func (e *Engine) drain() error {
	err := e.transport.Stop()
	e.wg.Wait()
	e.asyncObs.Close()
	if e.rdb != nil {
		if cerr := e.rdb.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	e.logger.Info("engine_stopped")
	return err
}
