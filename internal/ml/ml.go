// Package ml is the seam to the external ML service: sentiment scoring, text
// generation and image classification, with a deterministic placeholder.
package ml

import (
	"context"
	"time"
)

// Sentiment is a scored label. Score is in [-1, 1], Confidence in [0, 1].
type Sentiment struct {
	Label      string  `json:"label"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Outline is a generated section list for a topic.
type Outline struct {
	Topic    string   `json:"topic"`
	Sections []string `json:"outline"`
}

// PostRequest describes a post to generate.
type PostRequest struct {
	Topic        string
	Tone         string
	Outline      []string
	TargetLength int
}

// GeneratedPost is a draft produced by the text generator.
type GeneratedPost struct {
	Title    string         `json:"title"`
	Content  string         `json:"content"`
	Sections []string       `json:"sections"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ImageTag is one predicted label.
type ImageTag struct {
	Tag        string  `json:"tag"`
	Confidence float64 `json:"confidence"`
}

// ImageClassification is the classifier verdict for one image.
type ImageClassification struct {
	Tags           []ImageTag `json:"tags"`
	Classification string     `json:"classification"`
	IsSafe         bool       `json:"is_safe"`
	NSFWScore      float64    `json:"nsfw_score"`
}

// SentimentProvider scores comment text.
type SentimentProvider interface {
	AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error)
}

// TextGenerator drafts outlines and posts.
type TextGenerator interface {
	GenerateOutline(ctx context.Context, topic string, sections int, audience string) (*Outline, error)
	GeneratePost(ctx context.Context, req PostRequest) (*GeneratedPost, error)
}

// ImageClassifier tags an image by URL.
type ImageClassifier interface {
	ClassifyImage(ctx context.Context, imageURL string) (*ImageClassification, error)
}

// Service bundles every ML capability.
type Service interface {
	SentimentProvider
	TextGenerator
	ImageClassifier
}

// Options selects the ML implementation.
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Enabled is the evaluated ml_service feature flag.
	Enabled bool
}

// New returns the HTTP client guarded by the placeholder when the service is
// enabled and configured, and the placeholder alone otherwise.
func New(opts Options) Service {
	if !opts.Enabled || opts.BaseURL == "" {
		return Placeholder{}
	}
	return WithFallback(NewClient(opts.BaseURL, opts.Timeout), Placeholder{})
}
