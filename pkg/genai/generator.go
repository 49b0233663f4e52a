package genai

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/standin-bot/standin/pkg/errorsx"
	"github.com/standin-bot/standin/pkg/logging"
	"github.com/standin-bot/standin/pkg/metrics"
	"github.com/standin-bot/standin/pkg/resilience"
)

// Generator wraps a backend with timeout, retry, circuit breaking and
// output post-processing. It guarantees non-empty, marker-free output
// bounded by the request's token budget, or a reasoned failure.
type Generator struct {
	backend Backend
	retry   resilience.RetryPolicy
	breaker *resilience.CircuitBreaker
	timeout time.Duration
	obs     metrics.Observer
	logger  *slog.Logger
}

// GeneratorOptions tunes the wrapper. Zero values pick defaults.
type GeneratorOptions struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Observer     metrics.Observer
}

func NewGenerator(backend Backend, opts GeneratorOptions) *Generator {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	obs := opts.Observer
	if obs == nil {
		obs = metrics.NoopObserver{}
	}
	return &Generator{
		backend: backend,
		retry:   resilience.NewRetryPolicy(opts.MaxRetries, opts.RetryBackoff),
		breaker: resilience.NewCircuitBreaker(0, 0),
		timeout: opts.Timeout,
		obs:     obs,
		logger:  logging.NewComponentLogger(slog.Default(), "generator"),
	}
}

// Generate invokes the backend and post-processes its output.
func (g *Generator) Generate(ctx context.Context, req Request) (Response, error) {
	if !g.breaker.Allow() {
		return Response{}, errorsx.Wrap(errors.New("generation circuit open"), errorsx.ReasonBackendRateLimit)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.generateWithRetry(ctx, req)
	latency := time.Since(start)

	if err != nil {
		err = classifyFailure(err)
		g.breaker.OnError(err)
		g.logger.Warn("generation_failed", "backend", g.backend.Name(), "reason", string(errorsx.Reason(err)), "error", err)
		return Response{}, err
	}

	text, terr := Postprocess(resp.Text, req.MaxTokens)
	if terr != nil {
		g.breaker.OnError(terr)
		return Response{}, terr
	}

	resp.Text = text
	resp.Latency = latency
	g.breaker.OnSuccess()
	g.obs.RecordEvent(metrics.Event{
		Name:  "generation",
		Time:  time.Now(),
		Value: latency.Seconds(),
		Tags:  map[string]string{"backend": g.backend.Name()},
	})
	return resp, nil
}

// generateWithRetry retries only transient failures; rate limits go to
// the breaker and timeouts are terminal for the turn.
func (g *Generator) generateWithRetry(ctx context.Context, req Request) (Response, error) {
	var resp Response
	var err error
	for attempt := 0; attempt <= g.retry.MaxRetries; attempt++ {
		resp, err = g.backend.Generate(ctx, req)
		if err == nil || !retryable(err) || attempt == g.retry.MaxRetries {
			return resp, err
		}
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(g.retry.Backoff):
		}
	}
	return resp, err
}

func retryable(err error) bool {
	switch errorsx.Reason(err) {
	case errorsx.ReasonBackendUnavailable, errorsx.ReasonUnknown:
		return !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled)
	default:
		return false
	}
}

// classifyFailure guarantees every generation error carries one of the
// backend reason codes.
func classifyFailure(err error) error {
	if errorsx.Reason(err) != errorsx.ReasonUnknown {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errorsx.Wrap(err, errorsx.ReasonBackendTimeout)
	}
	return errorsx.Wrap(err, errorsx.ReasonBackendUnavailable)
}
