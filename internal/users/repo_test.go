package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/veggiepos-backend/internal/repo"
	"github.com/angelmondragon/veggiepos-backend/pkg/db"
)

func TestRepositoryCreateAndFind(t *testing.T) {
	r := NewRepository(repo.NewTestDB(t))
	ctx := context.Background()

	created, err := r.Create(ctx, CreateUserDTO{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	assert.True(t, created.IsActive)

	found, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	missing, err := r.FindByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryCreateInactive(t *testing.T) {
	r := NewRepository(repo.NewTestDB(t))
	inactive := false
	user, err := r.Create(context.Background(), CreateUserDTO{Username: "dora", PasswordHash: "hash", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, user.IsActive)
}

func TestRepositoryRejectsDuplicateUsername(t *testing.T) {
	r := NewRepository(repo.NewTestDB(t))
	ctx := context.Background()

	_, err := r.Create(ctx, CreateUserDTO{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)
	_, err = r.Create(ctx, CreateUserDTO{Username: "alice", PasswordHash: "other"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestRepositoryUpdates(t *testing.T) {
	r := NewRepository(repo.NewTestDB(t))
	ctx := context.Background()
	user, err := r.Create(ctx, CreateUserDTO{Username: "alice", PasswordHash: "hash"})
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	require.NoError(t, r.UpdateLastLogin(ctx, user.ID, at))
	require.NoError(t, r.UpdatePasswordHash(ctx, user.ID, "rehashed"))

	reloaded, err := r.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, reloaded.LastLoginAt)
	assert.True(t, reloaded.LastLoginAt.Equal(at))
	assert.Equal(t, "rehashed", reloaded.PasswordHash)
}

func TestRepositoryUpdateUnknownUser(t *testing.T) {
	r := NewRepository(repo.NewTestDB(t))
	err := r.UpdateLastLogin(context.Background(), uuid.New(), time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
