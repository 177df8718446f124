package embedding

import (
	"context"
	"log/slog"
)

// Fallback wraps a primary provider with a deterministic degraded
// substitute of the same dimensionality. When the primary fails (rate
// limiting, network, model unavailable), the fallback produces vectors so
// downstream similarity math never breaks. Every degraded call is logged;
// it is never silently indistinguishable from a real embedding.
type Fallback struct {
	primary  Provider
	degraded Provider
	logger   *slog.Logger
}

// FallbackOption configures a Fallback.
type FallbackOption func(*Fallback)

// WithFallbackLogger sets the logger.
func WithFallbackLogger(logger *slog.Logger) FallbackOption {
	return func(f *Fallback) {
		f.logger = logger
	}
}

// NewFallback wraps primary with a lexical-hash degraded provider of the
// same dimensionality.
func NewFallback(primary Provider, opts ...FallbackOption) *Fallback {
	f := &Fallback{
		primary:  primary,
		degraded: NewLexicalProvider(primary.Dimensions()),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Embed tries the primary provider, falling back to the degraded one.
func (f *Fallback) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := f.primary.Embed(ctx, text)
	if err == nil {
		return vector, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("Embedding provider unavailable, using degraded lexical fallback",
		"provider", f.primary.ID(),
		"error", err)
	return f.degraded.Embed(ctx, text)
}

// EmbedBatch tries the primary provider, falling back to the degraded one.
func (f *Fallback) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := f.primary.EmbedBatch(ctx, texts)
	if err == nil {
		return vectors, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	f.logger.Warn("Embedding provider unavailable, using degraded lexical fallback",
		"provider", f.primary.ID(),
		"texts", len(texts),
		"error", err)
	return f.degraded.EmbedBatch(ctx, texts)
}

// Dimensions returns the shared vector dimensionality.
func (f *Fallback) Dimensions() int {
	return f.primary.Dimensions()
}

// ID returns the primary provider's identity. A cache wrapping a Fallback
// therefore keys degraded vectors under the primary's identity too; the
// cache is in-memory and per-process, so entries never outlive the outage
// by more than the process, and every degraded embedding is logged.
func (f *Fallback) ID() string {
	return f.primary.ID()
}
