package ml

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rmeditanala/blogml/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderSentiment(t *testing.T) {
	s, err := Placeholder{}.AnalyzeSentiment(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, Sentiment{Label: models.SentimentNeutral, Score: 0.5, Confidence: 0.8}, s)
}

func TestPlaceholderGeneration(t *testing.T) {
	p := Placeholder{}
	outline, err := p.GenerateOutline(context.Background(), "Go testing", 4, "general")
	require.NoError(t, err)
	require.Len(t, outline.Sections, 4)
	assert.Equal(t, "Introduction to Go testing", outline.Sections[0])
	assert.Equal(t, "Conclusion", outline.Sections[3])

	post, err := p.GeneratePost(context.Background(), PostRequest{Topic: "Go testing", Tone: "casual"})
	require.NoError(t, err)
	assert.Equal(t, "Go testing", post.Title)
	assert.Contains(t, post.Content, "## Introduction to Go testing")
	assert.Len(t, post.Sections, 5)
}

func newMLServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		label      string
		confidence float64
		wantScore  float64
	}{
		{"POSITIVE", 0.9, 0.9},
		{"negative", 0.7, -0.7},
		{"NEUTRAL", 0.6, 0},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.label, func(t *testing.T) {
			srv := newMLServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/predict/sentiment/", r.URL.Path)
				var body map[string]any
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "great post", body["text"])
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"sentiment": tt.label, "confidence": tt.confidence})
			})

			s, err := NewClient(srv.URL, time.Second).AnalyzeSentiment(context.Background(), "great post")
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, s.Score, 1e-9)
			assert.InDelta(t, tt.confidence, s.Confidence, 1e-9)
		})
	}
}

func TestClientErrors(t *testing.T) {
	srv := newMLServer(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail":"model not loaded"}`, http.StatusInternalServerError)
	})

	_, err := NewClient(srv.URL, time.Second).AnalyzeSentiment(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient(srv.URL, time.Second).GenerateOutline(ctx, "x", 3, "general")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClientGeneration(t *testing.T) {
	srv := newMLServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/generate/outline":
			_ = json.NewEncoder(w).Encode(map[string]any{"outline": []string{"Intro", "Body", "End"}, "topic": "go", "estimated_sections": 3})
		case "/generate/post":
			_ = json.NewEncoder(w).Encode(map[string]any{"post_content": "# Go", "title": "Go", "sections": []string{"Intro"}, "metadata": map[string]any{"words": 1}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	c := NewClient(srv.URL+"/", time.Second)

	outline, err := c.GenerateOutline(context.Background(), "go", 3, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"Intro", "Body", "End"}, outline.Sections)

	post, err := c.GeneratePost(context.Background(), PostRequest{Topic: "go", Tone: "formal", TargetLength: 500})
	require.NoError(t, err)
	assert.Equal(t, "# Go", post.Content)
	assert.Equal(t, "Go", post.Title)
}

func TestClientClassifyImage(t *testing.T) {
	srv := newMLServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/image.png":
			_, _ = w.Write([]byte("fake-png"))
		case "/predict/image-classification/base64":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ZmFrZS1wbmc=", body["image_data"])
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"tags":       []map[string]any{{"tag": "golden retriever", "confidence": 0.93}},
				"is_safe":    true,
				"nsfw_score": 0.01,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	result, err := NewClient(srv.URL, time.Second).ClassifyImage(context.Background(), srv.URL+"/image.png")
	require.NoError(t, err)
	assert.Equal(t, "golden retriever", result.Classification)
	assert.True(t, result.IsSafe)
	require.Len(t, result.Tags, 1)
}

type failingService struct{ Placeholder }

var errUnavailable = errors.New("unavailable")

func (failingService) AnalyzeSentiment(context.Context, string) (Sentiment, error) {
	return Sentiment{}, errUnavailable
}

func (failingService) GeneratePost(context.Context, PostRequest) (*GeneratedPost, error) {
	return nil, errUnavailable
}

func TestFallbackUsesSecondaryOnError(t *testing.T) {
	f := WithFallback(failingService{}, Placeholder{})

	s, err := f.AnalyzeSentiment(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, s.Label)

	post, err := f.GeneratePost(context.Background(), PostRequest{Topic: "t"})
	require.NoError(t, err)
	assert.Equal(t, "placeholder", post.Metadata["generator"])

	outline, err := f.GenerateOutline(context.Background(), "t", 3, "general")
	require.NoError(t, err)
	assert.Len(t, outline.Sections, 3)
}

func TestNewSelectsImplementation(t *testing.T) {
	assert.IsType(t, Placeholder{}, New(Options{}))
	assert.IsType(t, Placeholder{}, New(Options{Enabled: true}))
	assert.IsType(t, Placeholder{}, New(Options{BaseURL: "http://ml:8001"}))
	assert.IsType(t, &Fallback{}, New(Options{Enabled: true, BaseURL: "http://ml:8001"}))
}
