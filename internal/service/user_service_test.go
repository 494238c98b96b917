package service

import (
	"context"
	"testing"

	"github.com/rmeditanala/blogml/internal/models"
	"github.com/rmeditanala/blogml/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserService_RegisterAndAuthenticate(t *testing.T) {
	db := setupSQLite(t)
	svc := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Name: "Ada", Email: " Ada@Example.com ", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.Password)

	_, err = svc.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@example.com", Password: "correct horse"})
	assertAppError(t, err, models.CodeConflict)

	_, err = svc.Register(ctx, RegisterInput{Email: "not-an-email", Password: "short"})
	appErr := assertAppError(t, err, models.CodeValidation)
	assert.Len(t, appErr.Fields, 3)

	got, err := svc.Authenticate(ctx, "ADA@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ada@example.com", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)
	_, err = svc.Authenticate(ctx, "nobody@example.com", "wrong")
	assertAppError(t, err, models.CodeUnauthorized)
}
