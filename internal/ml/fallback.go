package ml

import (
	"context"
	"log/slog"

	"github.com/rmeditanala/blogml/internal/middleware"
	"github.com/rmeditanala/blogml/internal/observability"
)

// Fallback serves every call from primary and retries on secondary when primary fails.
type Fallback struct {
	primary   Service
	secondary Service
}

// WithFallback guards primary with secondary.
func WithFallback(primary, secondary Service) *Fallback {
	return &Fallback{primary: primary, secondary: secondary}
}

func (f *Fallback) degrade(ctx context.Context, operation string, err error) {
	observability.MLRequestsTotal.WithLabelValues(operation, observability.OutcomeFallback).Inc()
	middleware.Logger.WarnContext(ctx, "ML service call failed, using fallback",
		slog.String("operation", operation),
		slog.String("error", err.Error()),
	)
}

func (f *Fallback) AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error) {
	s, err := f.primary.AnalyzeSentiment(ctx, text)
	if err == nil {
		return s, nil
	}
	f.degrade(ctx, "sentiment", err)
	return f.secondary.AnalyzeSentiment(ctx, text)
}

func (f *Fallback) GenerateOutline(ctx context.Context, topic string, sections int, audience string) (*Outline, error) {
	o, err := f.primary.GenerateOutline(ctx, topic, sections, audience)
	if err == nil {
		return o, nil
	}
	f.degrade(ctx, "outline", err)
	return f.secondary.GenerateOutline(ctx, topic, sections, audience)
}

func (f *Fallback) GeneratePost(ctx context.Context, req PostRequest) (*GeneratedPost, error) {
	p, err := f.primary.GeneratePost(ctx, req)
	if err == nil {
		return p, nil
	}
	f.degrade(ctx, "post", err)
	return f.secondary.GeneratePost(ctx, req)
}

func (f *Fallback) ClassifyImage(ctx context.Context, imageURL string) (*ImageClassification, error) {
	c, err := f.primary.ClassifyImage(ctx, imageURL)
	if err == nil {
		return c, nil
	}
	f.degrade(ctx, "image", err)
	return f.secondary.ClassifyImage(ctx, imageURL)
}
