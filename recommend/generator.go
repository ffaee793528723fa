package recommend

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"argus/core"
	"argus/metrics"
)

const (
	defaultMaxRetries     = 2
	defaultAttemptTimeout = 30 * time.Second
	retryBackoffBase      = 500 * time.Millisecond
)

// GeneratorConfig configures the analysis generator.
type GeneratorConfig struct {
	// Backend produces the narrative analysis. Nil means template-only
	// operation, which is a supported degraded mode rather than an error.
	Backend Backend

	// MaxRetries bounds additional attempts after the first failed call.
	MaxRetries int

	// AttemptTimeout caps each individual backend call.
	AttemptTimeout time.Duration

	Logger *zap.SugaredLogger
}

// Generator turns a classified document into a SecurityAnalysis. It never
// returns an error: when the backend is missing, unreachable, rate limited
// or returns unparsable output, it falls back to the deterministic template
// and records the reason in the generation_mode field and in metrics.
type Generator struct {
	backend        Backend
	maxRetries     int
	attemptTimeout time.Duration
	logger         *zap.SugaredLogger
}

func NewGenerator(cfg *GeneratorConfig) *Generator {
	if cfg == nil {
		cfg = &GeneratorConfig{}
	}
	g := &Generator{
		backend:        cfg.Backend,
		maxRetries:     cfg.MaxRetries,
		attemptTimeout: cfg.AttemptTimeout,
		logger:         cfg.Logger,
	}
	if g.maxRetries <= 0 {
		g.maxRetries = defaultMaxRetries
	}
	if g.attemptTimeout <= 0 {
		g.attemptTimeout = defaultAttemptTimeout
	}
	if g.logger == nil {
		g.logger = zap.NewNop().Sugar()
	}
	return g
}

// Generate produces the security analysis for a classified document.
func (g *Generator) Generate(ctx context.Context, doc *core.DocumentAnalysis, result *core.ClassificationResult) *core.SecurityAnalysis {
	if g.backend == nil {
		metrics.GenerationFallbacks.WithLabelValues("no_backend").Inc()
		return TemplateAnalysis(doc, result)
	}

	prompt := BuildPrompt(doc, result)

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			metrics.GenerationRetries.Inc()
			if !sleepCtx(ctx, retryBackoffBase*time.Duration(1<<(attempt-1))) {
				lastErr = ctx.Err()
				break
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, g.attemptTimeout)
		raw, err := g.backend.Generate(attemptCtx, prompt)
		cancel()

		if err == nil {
			analysis, parseErr := parseResponse(doc, result, raw)
			if parseErr == nil {
				return analysis
			}
			g.logger.Warnw("generation response unparsable",
				"backend", g.backend.Name(),
				"error", parseErr)
			metrics.GenerationFallbacks.WithLabelValues("unparsable").Inc()
			return TemplateAnalysis(doc, result)
		}

		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			break
		}
		g.logger.Warnw("generation attempt failed",
			"backend", g.backend.Name(),
			"attempt", attempt+1,
			"error", err)
	}

	g.logger.Warnw("generation backend exhausted, using template fallback",
		"backend", g.backend.Name(),
		"error", lastErr)
	metrics.GenerationFallbacks.WithLabelValues(fallbackReason(lastErr)).Inc()
	return TemplateAnalysis(doc, result)
}

// retryable reports whether another attempt could plausibly succeed.
func retryable(err error) bool {
	return errors.Is(err, core.ErrGenerationTimeout) ||
		errors.Is(err, core.ErrGenerationRateLimited)
}

func fallbackReason(err error) string {
	switch {
	case errors.Is(err, core.ErrGenerationTimeout):
		return "timeout"
	case errors.Is(err, core.ErrGenerationRateLimited):
		return "rate_limited"
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "backend_error"
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
