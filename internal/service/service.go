// Package service holds the business rules of the blog: validation,
// authorization and orchestration of repository writes.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rmeditanala/blogml/internal/authz"
	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/repository"

	"gorm.io/gorm"
)

// Listing page sizes: default and maximum per page.
const (
	PostsPerPage            = 15
	MaxPostsPerPage         = 50
	AdminPostsPerPage       = 20
	MaxAdminPostsPerPage    = 100
	CommentsPerPage         = 20
	MaxCommentsPerPage      = 100
	AdminCommentsPerPage    = 50
	MaxAdminCommentsPerPage = 200
	InteractionsPerPage     = 20
	MaxInteractionsPerPage  = 50
)

// ActorResolver loads the caller of an operation. A zero user ID resolves to
// the anonymous actor.
type ActorResolver func(ctx context.Context, userID uint) (authz.Actor, error)

// NewActorResolver resolves actors from the user table.
func NewActorResolver(users repository.UserRepository) ActorResolver {
	return func(ctx context.Context, userID uint) (authz.Actor, error) {
		if userID == 0 {
			return authz.Actor{}, nil
		}
		user, err := users.GetByID(ctx, userID)
		if err != nil {
			var appErr *models.AppError
			if errors.As(err, &appErr) && appErr.Code == models.CodeNotFound {
				return authz.Actor{}, models.NewUnauthorizedError("User no longer exists")
			}
			return authz.Actor{}, err
		}
		return authz.Actor{ID: user.ID, IsAdmin: user.IsAdmin}, nil
	}
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// notFoundAs maps a missing row to a hidden not-found error and wraps
// anything else as internal.
func notFoundAs(err error, resource string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewHiddenError(resource)
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}

// internal wraps unexpected repository failures.
func internal(err error) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
