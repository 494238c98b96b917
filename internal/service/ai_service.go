package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/rmeditanala/blogml/internal/content"
	"github.com/rmeditanala/blogml/internal/featureflags"
	"github.com/rmeditanala/blogml/internal/ml"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxTopicLen   = 255
	maxKeywordLen = 100
	minWordCount  = 300
	maxWordCount  = 3000
	wordsPerMin   = 200
)

var (
	validTones = map[string]bool{"professional": true, "casual": true, "academic": true, "friendly": true}
	// outline sections per requested length
	lengthSections = map[string]int{"short": 3, "medium": 5, "long": 7}
)

// AIService exposes the text generation and image classification capabilities.
type AIService struct {
	ml    ml.Service
	flags *featureflags.Manager
}

type OutlineInput struct {
	UserID   uint
	Topic    string
	Keywords []string
	Tone     string
	Length   string
	Audience string
}

type GeneratePostInput struct {
	UserID    uint
	Topic     string
	Outline   []string
	Tone      string
	WordCount int
}

// GeneratedDraft is a generated post with its derived excerpt and reading time.
type GeneratedDraft struct {
	*ml.GeneratedPost
	Excerpt              string `json:"excerpt"`
	EstimatedReadingTime int    `json:"estimated_reading_time"`
}

func NewAIService(svc ml.Service, flags *featureflags.Manager) *AIService {
	if svc == nil {
		svc = ml.Placeholder{}
	}
	return &AIService{ml: svc, flags: flags}
}

func (s *AIService) requireEnabled(userID uint) error {
	if !s.flags.Enabled(featureflags.AIGeneration, userID) {
		return models.NewForbiddenError("AI generation is not enabled for this account")
	}
	return nil
}

func (s *AIService) GenerateOutline(ctx context.Context, in OutlineInput) (outline *ml.Outline, err error) {
	ctx, span := observability.StartSpan(ctx, "AIService.GenerateOutline", attribute.String("ai.length", in.Length))
	defer func() { span.End(err) }()

	if err := s.requireEnabled(in.UserID); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	topic := strings.TrimSpace(in.Topic)
	validateTopic(fields, topic)
	for _, kw := range in.Keywords {
		if utf8.RuneCountInString(kw) > maxKeywordLen {
			fields["keywords"] = fmt.Sprintf("Each keyword may not be greater than %d characters.", maxKeywordLen)
			break
		}
	}
	validateTone(fields, in.Tone)
	sections := lengthSections["medium"]
	if in.Length != "" {
		n, ok := lengthSections[in.Length]
		if !ok {
			fields["length"] = "The selected length is invalid."
		}
		sections = n
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	audience := in.Audience
	if audience == "" {
		audience = "general"
	}
	if len(in.Keywords) > 0 {
		topic = topic + " (" + strings.Join(in.Keywords, ", ") + ")"
	}
	return s.ml.GenerateOutline(ctx, topic, sections, audience)
}

func (s *AIService) GeneratePost(ctx context.Context, in GeneratePostInput) (draft *GeneratedDraft, err error) {
	ctx, span := observability.StartSpan(ctx, "AIService.GeneratePost")
	defer func() { span.End(err) }()

	if err := s.requireEnabled(in.UserID); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if len(in.Outline) == 0 {
		fields["outline"] = "The outline field is required."
	}
	if in.Topic != "" {
		validateTopic(fields, strings.TrimSpace(in.Topic))
	}
	validateTone(fields, in.Tone)
	if in.WordCount != 0 && (in.WordCount < minWordCount || in.WordCount > maxWordCount) {
		fields["word_count"] = fmt.Sprintf("The word count must be between %d and %d.", minWordCount, maxWordCount)
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		topic = in.Outline[0]
	}
	tone := in.Tone
	if tone == "" {
		tone = "professional"
	}
	post, err := s.ml.GeneratePost(ctx, ml.PostRequest{
		Topic:        topic,
		Tone:         tone,
		Outline:      in.Outline,
		TargetLength: in.WordCount,
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	words := len(strings.Fields(post.Content))
	return &GeneratedDraft{
		GeneratedPost:        post,
		Excerpt:              content.Excerpt(post.Content),
		EstimatedReadingTime: int(math.Ceil(float64(words) / wordsPerMin)),
	}, nil
}

// ClassifyImage tags an image reachable at imageURL.
func (s *AIService) ClassifyImage(ctx context.Context, userID uint, imageURL string) (result *ml.ImageClassification, err error) {
	ctx, span := observability.StartSpan(ctx, "AIService.ClassifyImage")
	defer func() { span.End(err) }()

	if err := s.requireEnabled(userID); err != nil {
		return nil, err
	}
	imageURL = strings.TrimSpace(imageURL)
	if imageURL == "" {
		return nil, models.NewFieldValidationError(map[string]string{"image_url": "The image url field is required."})
	}
	if !isHTTPURL(imageURL) {
		return nil, models.NewFieldValidationError(map[string]string{"image_url": "The image url must be a valid URL."})
	}
	result, err = s.ml.ClassifyImage(ctx, imageURL)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return result, nil
}

func validateTopic(fields map[string]string, topic string) {
	switch {
	case topic == "":
		fields["topic"] = "The topic field is required."
	case utf8.RuneCountInString(topic) > maxTopicLen:
		fields["topic"] = fmt.Sprintf("The topic may not be greater than %d characters.", maxTopicLen)
	}
}

func validateTone(fields map[string]string, tone string) {
	if tone != "" && !validTones[tone] {
		fields["tone"] = "The selected tone is invalid."
	}
}
