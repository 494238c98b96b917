package ml

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/observability"

	"github.com/gofiber/fiber/v2"
)

const defaultTimeout = 30 * time.Second

// Client calls the ML HTTP service.
type Client struct {
	baseURL string
	timeout time.Duration
}

// NewClient returns a client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

type sentimentRequest struct {
	Text     string `json:"text"`
	CacheKey string `json:"cache_key,omitempty"`
}

type sentimentResponse struct {
	Sentiment  string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
	Cached     bool    `json:"cached"`
}

// AnalyzeSentiment maps the service's label and confidence onto a signed score:
// positive = +confidence, negative = -confidence, neutral = 0.
func (c *Client) AnalyzeSentiment(ctx context.Context, text string) (Sentiment, error) {
	var resp sentimentResponse
	if err := c.post(ctx, "sentiment", "/predict/sentiment/", sentimentRequest{Text: text}, &resp); err != nil {
		return Sentiment{}, err
	}

	label := strings.ToUpper(resp.Sentiment)
	if !models.ValidSentimentLabel(label) {
		return Sentiment{}, fmt.Errorf("ml: unknown sentiment label %q", resp.Sentiment)
	}
	confidence := clamp(resp.Confidence, 0, 1)

	var score float64
	switch label {
	case models.SentimentPositive:
		score = confidence
	case models.SentimentNegative:
		score = -confidence
	}
	return Sentiment{Label: label, Score: score, Confidence: confidence}, nil
}

type outlineRequest struct {
	Topic          string `json:"topic"`
	NumSections    int    `json:"num_sections"`
	TargetAudience string `json:"target_audience"`
}

type outlineResponse struct {
	Outline           []string `json:"outline"`
	Topic             string   `json:"topic"`
	EstimatedSections int      `json:"estimated_sections"`
}

func (c *Client) GenerateOutline(ctx context.Context, topic string, sections int, audience string) (*Outline, error) {
	var resp outlineResponse
	req := outlineRequest{Topic: topic, NumSections: sections, TargetAudience: audience}
	if err := c.post(ctx, "outline", "/generate/outline", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Outline) == 0 {
		return nil, errors.New("ml: empty outline")
	}
	return &Outline{Topic: topic, Sections: resp.Outline}, nil
}

type postRequest struct {
	Topic        string   `json:"topic"`
	Outline      []string `json:"outline,omitempty"`
	Tone         string   `json:"tone"`
	TargetLength int      `json:"target_length"`
}

type postResponse struct {
	PostContent string         `json:"post_content"`
	Title       string         `json:"title"`
	Sections    []string       `json:"sections"`
	Metadata    map[string]any `json:"metadata"`
}

func (c *Client) GeneratePost(ctx context.Context, req PostRequest) (*GeneratedPost, error) {
	var resp postResponse
	body := postRequest{Topic: req.Topic, Outline: req.Outline, Tone: req.Tone, TargetLength: req.TargetLength}
	if err := c.post(ctx, "post", "/generate/post", body, &resp); err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.PostContent) == "" {
		return nil, errors.New("ml: empty post content")
	}
	return &GeneratedPost{
		Title:    resp.Title,
		Content:  resp.PostContent,
		Sections: resp.Sections,
		Metadata: resp.Metadata,
	}, nil
}

type imageRequest struct {
	ImageData string `json:"image_data"`
	MaxTags   int    `json:"max_tags"`
}

type imageResponse struct {
	Tags      []ImageTag `json:"tags"`
	IsSafe    bool       `json:"is_safe"`
	NSFWScore float64    `json:"nsfw_score"`
}

// ClassifyImage downloads imageURL and submits it base64-encoded.
func (c *Client) ClassifyImage(ctx context.Context, imageURL string) (*ImageClassification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, data, errs := fiber.Get(imageURL).Timeout(c.requestTimeout(ctx)).Bytes()
	if len(errs) > 0 {
		return nil, fmt.Errorf("ml: fetch image: %w", errors.Join(errs...))
	}
	if code != fiber.StatusOK {
		return nil, fmt.Errorf("ml: fetch image: status %d", code)
	}

	var resp imageResponse
	req := imageRequest{ImageData: base64.StdEncoding.EncodeToString(data), MaxTags: 10}
	if err := c.post(ctx, "image", "/predict/image-classification/base64", req, &resp); err != nil {
		return nil, err
	}

	classification := "unknown"
	if len(resp.Tags) > 0 {
		classification = resp.Tags[0].Tag
	}
	return &ImageClassification{
		Tags:           resp.Tags,
		Classification: classification,
		IsSafe:         resp.IsSafe,
		NSFWScore:      resp.NSFWScore,
	}, nil
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) (err error) {
	defer func() {
		outcome := observability.OutcomeSuccess
		if err != nil {
			outcome = observability.OutcomeError
		}
		observability.MLRequestsTotal.WithLabelValues(operation, outcome).Inc()
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	agent := fiber.Post(c.baseURL + path)
	agent.JSON(body)
	agent.Timeout(c.requestTimeout(ctx))

	code, raw, errs := agent.Struct(out)
	if code != 0 && code != fiber.StatusOK {
		return fmt.Errorf("ml: %s returned status %d: %s", path, code, truncate(raw, 200))
	}
	if len(errs) > 0 {
		return fmt.Errorf("ml: %s: %w", path, errors.Join(errs...))
	}
	return nil
}

// requestTimeout is the client timeout, shortened to the context deadline when sooner.
func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}
	return timeout
}

func clamp(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
