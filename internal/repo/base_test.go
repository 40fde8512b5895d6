package repo

import (
	"context"
	"testing"

	"github.com/angelmondragon/veggiepos-backend/pkg/db/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey struct{}

func TestBaseDBBindsContext(t *testing.T) {
	conn := NewTestDB(t)
	base := NewBase(conn)

	ctx := context.WithValue(context.Background(), ctxKey{}, "till-1")
	bound := base.DB(ctx)
	require.NotNil(t, bound.Statement)
	assert.Equal(t, ctx, bound.Statement.Context)

	assert.Same(t, conn, base.DB(nil))
}

func TestTakeOptional(t *testing.T) {
	conn := NewTestDB(t)
	require.NoError(t, conn.Create(&models.Product{Name: "Carrot", Price: 25}).Error)

	found, err := TakeOptional[models.Product](conn.Where("name = ?", "Carrot"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, 25.0, found.Price)

	missing, err := TakeOptional[models.Product](conn.Where("name = ?", "Durian"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestNewTestDBIsIsolated(t *testing.T) {
	a := NewTestDB(t)
	b := NewTestDB(t)

	require.NoError(t, a.Create(&models.Product{Name: "Carrot", Price: 25}).Error)
	var count int64
	require.NoError(t, b.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}
