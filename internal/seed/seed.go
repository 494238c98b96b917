// Package seed populates a development database with tags, users, posts and
// engagement. It is intended for development and testing only.
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/rmeditanala/blogml/internal/content"
	"github.com/rmeditanala/blogml/internal/middleware"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded user.
const DefaultPassword = "password123"

//go:embed tags.yml
var tagsYAML []byte

type tagFile struct {
	Tags []models.Tag `yaml:"tags"`
}

// BuiltInTags parses the embedded tag catalogue.
func BuiltInTags() ([]models.Tag, error) {
	var f tagFile
	if err := yaml.Unmarshal(tagsYAML, &f); err != nil {
		return nil, fmt.Errorf("parse tags.yml: %w", err)
	}
	return f.Tags, nil
}

// Tags upserts the built-in tags by slug.
func Tags(db *gorm.DB) ([]models.Tag, error) {
	tags, err := BuiltInTags()
	if err != nil {
		return nil, err
	}
	for i := range tags {
		if tags[i].Color == "" {
			tags[i].Color = models.DefaultTagColor
		}
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "color", "is_featured", "updated_at"}),
		}).Omit("Posts").Create(&tags[i]).Error; err != nil {
			return nil, fmt.Errorf("upsert tag %s: %w", tags[i].Slug, err)
		}
		if tags[i].ID == 0 {
			if err := db.Where("slug = ?", tags[i].Slug).First(&tags[i]).Error; err != nil {
				return nil, err
			}
		}
	}
	return tags, nil
}

// Options sizes a seeding run.
type Options struct {
	Users    int
	Posts    int
	Comments int
	Seed     int64
}

// Seeder writes through the repositories so post counters match the ledger.
type Seeder struct {
	db           *gorm.DB
	rng          *rand.Rand
	now          time.Time
	users        repository.UserRepository
	posts        repository.PostRepository
	comments     repository.CommentRepository
	interactions repository.InteractionRepository
}

// NewSeeder creates a Seeder. A zero seed picks one from the clock.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Seeder{
		db:           db,
		rng:          rand.New(rand.NewSource(seed)),
		now:          time.Now().UTC(),
		users:        repository.NewUserRepository(db),
		posts:        repository.NewPostRepository(db),
		comments:     repository.NewCommentRepository(db),
		interactions: repository.NewInteractionRepository(db),
	}
}

// ClearAll removes all seeded content, children first.
func (s *Seeder) ClearAll() error {
	for _, table := range []string{"activity_logs", "user_interactions", "comments", "post_tags", "posts", "tags", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	middleware.Logger.Info("seed: database cleared")
	return nil
}

// Run seeds tags, users, posts and engagement.
func (s *Seeder) Run(ctx context.Context, opts Options) error {
	tags, err := Tags(s.db)
	if err != nil {
		return err
	}
	users, err := s.SeedUsers(ctx, opts.Users)
	if err != nil {
		return err
	}
	posts, err := s.SeedPosts(ctx, users, tags, opts.Posts)
	if err != nil {
		return err
	}
	return s.SeedEngagement(ctx, users, posts, opts.Comments)
}

// SeedUsers creates n users sharing DefaultPassword; the first is an admin.
func (s *Seeder) SeedUsers(ctx context.Context, n int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		user := models.User{
			Name:     gofakeit.Name(),
			Email:    fmt.Sprintf("%s.%d@example.com", strings.ToLower(gofakeit.Username()), i),
			Password: string(hash),
			IsAdmin:  i == 0,
		}
		if err := s.users.Create(ctx, &user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, user)
	}
	middleware.Logger.Info("seed: users created", slog.Int("count", len(users)))
	return users, nil
}

// SeedPosts creates n posts. Most are published in the past; the rest are
// drafts, archived, or scheduled for later.
func (s *Seeder) SeedPosts(ctx context.Context, users []models.User, tags []models.Tag, n int) ([]models.Post, error) {
	if len(users) == 0 {
		return nil, nil
	}

	posts := make([]models.Post, 0, n)
	for i := 0; i < n; i++ {
		title := strings.TrimSuffix(gofakeit.Sentence(6), ".")
		slug, err := content.UniqueSlug(ctx, title, s.posts.SlugExists)
		if err != nil {
			return nil, err
		}
		body := strings.Join([]string{
			"## " + gofakeit.HipsterSentence(4),
			gofakeit.Paragraph(2, 4, 12, "\n\n"),
			"## " + gofakeit.HipsterSentence(4),
			gofakeit.Paragraph(2, 4, 12, "\n\n"),
		}, "\n\n")

		post := models.Post{
			UserID:        users[s.rng.Intn(len(users))].ID,
			Title:         title,
			Slug:          slug,
			Content:       body,
			Excerpt:       content.Excerpt(body),
			Status:        models.PostStatusPublished,
			IsAIGenerated: s.rng.Intn(5) == 0,
			FeaturedImage: fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", gofakeit.UUID()),
		}
		published := s.now.Add(-time.Duration(s.rng.Intn(30*24)) * time.Hour)
		switch roll := s.rng.Intn(10); {
		case roll == 0:
			post.Status = models.PostStatusDraft
		case roll == 1:
			post.Status = models.PostStatusArchived
			post.PublishedAt = &published
		case roll == 2:
			scheduled := s.now.Add(time.Duration(1+s.rng.Intn(72)) * time.Hour)
			post.PublishedAt = &scheduled
		default:
			post.PublishedAt = &published
		}
		post.CreatedAt = published
		post.UpdatedAt = published

		if err := s.posts.Create(ctx, &post, s.pickTags(tags)); err != nil {
			return nil, fmt.Errorf("create post: %w", err)
		}
		posts = append(posts, post)
	}
	middleware.Logger.Info("seed: posts created", slog.Int("count", len(posts)))
	return posts, nil
}

func (s *Seeder) pickTags(tags []models.Tag) []uint {
	if len(tags) == 0 {
		return nil
	}
	n := s.rng.Intn(4)
	ids := make([]uint, 0, n)
	for _, i := range s.rng.Perm(len(tags))[:min(n, len(tags))] {
		ids = append(ids, tags[i].ID)
	}
	return ids
}

// SeedEngagement adds views, likes, bookmarks and about commentsPerPost
// comments with replies to each published post.
func (s *Seeder) SeedEngagement(ctx context.Context, users []models.User, posts []models.Post, commentsPerPost int) error {
	labels := []string{models.SentimentPositive, models.SentimentNegative, models.SentimentNeutral}
	var comments, interactions int

	for _, post := range posts {
		if !post.IsPublished(s.now) {
			continue
		}
		since := s.now.Sub(*post.PublishedAt)
		at := func() time.Time {
			return post.PublishedAt.Add(time.Duration(s.rng.Int63n(int64(since) + 1)))
		}

		for _, user := range users {
			if s.rng.Intn(3) == 0 {
				continue
			}
			kinds := []string{models.InteractionView}
			if s.rng.Intn(3) == 0 {
				kinds = append(kinds, models.InteractionLike)
			}
			if s.rng.Intn(8) == 0 {
				kinds = append(kinds, models.InteractionBookmark)
			}
			for _, kind := range kinds {
				ts := at()
				if err := s.interactions.Record(ctx, &models.UserInteraction{
					UserID: user.ID, PostID: post.ID, InteractionType: kind, CreatedAt: ts, UpdatedAt: ts,
				}); err != nil {
					return fmt.Errorf("record %s: %w", kind, err)
				}
				interactions++
			}
		}

		n := s.rng.Intn(commentsPerPost + 1)
		for i := 0; i < n; i++ {
			parent, err := s.comment(ctx, post.ID, users, labels, at(), nil)
			if err != nil {
				return err
			}
			comments++
			for r := s.rng.Intn(3); r > 0; r-- {
				if _, err := s.comment(ctx, post.ID, users, labels, parent.CreatedAt.Add(time.Duration(r)*time.Minute), &parent.ID); err != nil {
					return err
				}
				comments++
			}
		}
	}

	middleware.Logger.Info("seed: engagement created",
		slog.Int("comments", comments),
		slog.Int("interactions", interactions),
	)
	return nil
}

func (s *Seeder) comment(ctx context.Context, postID uint, users []models.User, labels []string, at time.Time, parentID *uint) (*models.Comment, error) {
	label := labels[s.rng.Intn(len(labels))]
	score := 0.5
	switch label {
	case models.SentimentPositive:
		score = 0.6 + s.rng.Float64()*0.4
	case models.SentimentNegative:
		score = s.rng.Float64() * 0.4
	}
	confidence := 0.6 + s.rng.Float64()*0.4

	status := models.CommentStatusApproved
	if s.rng.Intn(6) == 0 {
		status = models.CommentStatusPending
	}

	comment := &models.Comment{
		PostID:              postID,
		UserID:              users[s.rng.Intn(len(users))].ID,
		ParentID:            parentID,
		Content:             gofakeit.Sentence(8 + s.rng.Intn(20)),
		Status:              status,
		SentimentLabel:      &label,
		SentimentScore:      &score,
		SentimentConfidence: &confidence,
		CreatedAt:           at,
		UpdatedAt:           at,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}
