package memory

import (
	"context"
	"testing"
	"time"

	"github.com/larderly/server/internal/ports/outbound"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRepository_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(0)
	defer repo.Close()

	require.NoError(t, repo.Set(ctx, "k", []byte("v"), 0))

	got, err := repo.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	ok, err := repo.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "k"))
	_, err = repo.Get(ctx, "k")
	assert.ErrorIs(t, err, outbound.ErrKeyNotFound)
}

func TestCacheRepository_StoresCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(0)
	value := []byte("abc")

	require.NoError(t, repo.Set(ctx, "k", value, 0))
	value[0] = 'z'
	got, _ := repo.Get(ctx, "k")
	got[1] = 'z'

	again, _ := repo.Get(ctx, "k")
	assert.Equal(t, []byte("abc"), again)
}

func TestCacheRepository_TTL(t *testing.T) {
	// Arrange
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo := NewCacheRepository(0)
	repo.now = func() time.Time { return now }

	require.NoError(t, repo.Set(ctx, "short", []byte("1"), time.Minute))
	require.NoError(t, repo.Set(ctx, "forever", []byte("2"), 0))

	// Act
	now = now.Add(2 * time.Minute)

	// Assert
	_, err := repo.Get(ctx, "short")
	assert.ErrorIs(t, err, outbound.ErrKeyNotFound)
	ok, _ := repo.Exists(ctx, "short")
	assert.False(t, ok)
	_, err = repo.Get(ctx, "forever")
	assert.NoError(t, err)
	assert.Equal(t, 1, repo.Purge())
}

func TestCacheRepository_CloseIsIdempotent(t *testing.T) {
	repo := NewCacheRepository(time.Millisecond)

	repo.Close()
	repo.Close()

	assert.NoError(t, repo.Ping(context.Background()))
}
