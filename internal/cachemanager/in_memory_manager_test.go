package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type handle struct {
	Name     string
	Surfaces int
}

func TestInMemoryCacheManager_SetGet(t *testing.T) {
	cache := NewInMemoryCacheManager[string, handle]("models", DefaultExpiration, DefaultCleanupInterval)
	ctx := context.Background()

	cache.Set(ctx, "chest-body", handle{Name: "chest-body", Surfaces: 3}, 0)

	got, ok := cache.Get(ctx, "chest-body")
	require.True(t, ok)
	require.Equal(t, handle{Name: "chest-body", Surfaces: 3}, got)

	_, ok = cache.Get(ctx, "chest-lid")
	require.False(t, ok)
}

func TestInMemoryCacheManager_WrongTypeIsAMiss(t *testing.T) {
	cache := NewPermanent[string, string]("textures")
	cache.cache.Set("atlas", 123, NoExpiration)

	got, ok := cache.Get(context.Background(), "atlas")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, []byte]("fetched-bytes", time.Hour, 0)
	ctx := context.Background()

	cache.Set(ctx, "/textures/atlas.png", []byte("png"), time.Millisecond)
	cache.Set(ctx, "/models/level.glb", []byte("glb"), NoExpiration)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(ctx, "/textures/atlas.png")
		return !ok
	}, time.Second, 5*time.Millisecond)

	got, ok := cache.Get(ctx, "/models/level.glb")
	require.True(t, ok)
	require.Equal(t, []byte("glb"), got)
	require.Equal(t, []string{"/models/level.glb"}, cache.Keys(ctx), "expired keys are not listed")
}

func TestInMemoryCacheManager_DeleteAndFlush(t *testing.T) {
	cache := NewPermanent[string, string]("models")
	ctx := context.Background()
	cache.Set(ctx, "axe-1", "axe", NoExpiration)
	cache.Set(ctx, "sword-1", "sword", NoExpiration)

	require.NoError(t, cache.Delete(ctx))
	require.Equal(t, 2, cache.Len())

	require.NoError(t, cache.Delete(ctx, "axe-1"))
	_, ok := cache.Get(ctx, "axe-1")
	require.False(t, ok)

	require.NoError(t, cache.Flush(ctx))
	require.Zero(t, cache.Len())
}

type assetName string

func TestNewPermanent_NamedKeysSorted(t *testing.T) {
	cache := NewPermanent[assetName, string]("models")
	ctx := context.Background()

	cache.Set(ctx, "sword-2", "s", NoExpiration)
	cache.Set(ctx, "coins", "group", NoExpiration)
	cache.Set(ctx, "coins", "group-v2", NoExpiration)

	got, ok := cache.Get(ctx, "coins")
	require.True(t, ok)
	require.Equal(t, "group-v2", got, "last write wins")
	require.Equal(t, []assetName{"coins", "sword-2"}, cache.Keys(ctx))
}
