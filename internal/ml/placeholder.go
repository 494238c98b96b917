package ml

import (
	"context"
	"fmt"
	"strings"

	"github.com/rmeditanala/blogml/internal/models"
)

// Placeholder sentiment values.
const (
	PlaceholderScore      = 0.5
	PlaceholderConfidence = 0.8
)

// Placeholder is the deterministic stand-in used when no ML service is configured.
type Placeholder struct{}

func (Placeholder) AnalyzeSentiment(context.Context, string) (Sentiment, error) {
	return Sentiment{
		Label:      models.SentimentNeutral,
		Score:      PlaceholderScore,
		Confidence: PlaceholderConfidence,
	}, nil
}

func (Placeholder) GenerateOutline(_ context.Context, topic string, sections int, _ string) (*Outline, error) {
	if sections < 3 {
		sections = 3
	}
	out := make([]string, 0, sections)
	out = append(out, "Introduction to "+topic)
	for i := 1; i <= sections-2; i++ {
		out = append(out, fmt.Sprintf("Key aspect %d of %s", i, topic))
	}
	out = append(out, "Conclusion")
	return &Outline{Topic: topic, Sections: out}, nil
}

func (p Placeholder) GeneratePost(ctx context.Context, req PostRequest) (*GeneratedPost, error) {
	sections := req.Outline
	if len(sections) == 0 {
		outline, _ := p.GenerateOutline(ctx, req.Topic, 5, "general")
		sections = outline.Sections
	}

	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "## %s\n\nThis section covers %s.", section, strings.ToLower(section))
	}

	return &GeneratedPost{
		Title:    req.Topic,
		Content:  b.String(),
		Sections: sections,
		Metadata: map[string]any{"generator": "placeholder", "tone": req.Tone},
	}, nil
}

func (Placeholder) ClassifyImage(context.Context, string) (*ImageClassification, error) {
	return &ImageClassification{Tags: []ImageTag{}, Classification: "unknown", IsSafe: true}, nil
}
