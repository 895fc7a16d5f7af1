package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupCacheTest starts a miniredis instance and returns a cache manager
// pointed at it.
func setupCacheTest(t *testing.T) (*CacheManager, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewCacheManager(client), mr
}

type cachedThing struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestCacheManager_SetGetRoundtrip(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()

	in := cachedThing{Name: "welcome", Count: 3}
	require.NoError(t, cm.SetJSON(ctx, "test:thing", in, time.Minute))

	var out cachedThing
	assert.True(t, cm.GetJSON(ctx, "test:thing", &out))
	assert.Equal(t, in, out)
}

func TestCacheManager_MissingKeyIsMiss(t *testing.T) {
	cm, _ := setupCacheTest(t)

	var out cachedThing
	assert.False(t, cm.GetJSON(context.Background(), "test:absent", &out))
}

func TestCacheManager_CorruptEntryIsMiss(t *testing.T) {
	cm, mr := setupCacheTest(t)
	mr.Set("test:corrupt", "{not json")

	var out cachedThing
	assert.False(t, cm.GetJSON(context.Background(), "test:corrupt", &out))
}

func TestCacheManager_RedisDownIsMiss(t *testing.T) {
	cm, mr := setupCacheTest(t)
	mr.Close()

	var out cachedThing
	assert.False(t, cm.GetJSON(context.Background(), "test:any", &out))
}

func TestCacheManager_EntriesExpire(t *testing.T) {
	cm, mr := setupCacheTest(t)
	ctx := context.Background()

	require.NoError(t, cm.SetJSON(ctx, "test:ttl", cachedThing{Name: "x"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var out cachedThing
	assert.False(t, cm.GetJSON(ctx, "test:ttl", &out))
}

func TestCacheManager_Delete(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()

	require.NoError(t, cm.SetJSON(ctx, "test:a", cachedThing{}, time.Minute))
	require.NoError(t, cm.SetJSON(ctx, "test:b", cachedThing{}, time.Minute))
	require.NoError(t, cm.Delete(ctx, "test:a", "test:b"))

	var out cachedThing
	assert.False(t, cm.GetJSON(ctx, "test:a", &out))
	assert.False(t, cm.GetJSON(ctx, "test:b", &out))
}

func TestKeyTemplates_TenantNamespacing(t *testing.T) {
	orgA := uuid.New()
	orgB := uuid.New()

	// The same slug in two organizations must never share a key.
	assert.NotEqual(t, PostKey(orgA, "welcome"), PostKey(orgB, "welcome"))
	assert.NotEqual(t, CategoryKey(orgA, "news"), CategoryKey(orgB, "news"))
	assert.NotEqual(t, CategoriesKey(orgA), CategoriesKey(orgB))
	assert.NotEqual(t, FeaturedPostsKey(orgA), FeaturedPostsKey(orgB))

	assert.Equal(t, "post:"+orgA.String()+":welcome", PostKey(orgA, "welcome"))
	assert.Equal(t, "org:apikey:pg_abc", APIKeyLookupKey("pg_abc"))
}

func TestInvalidator_PostChanged(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()
	inv := NewInvalidator(cm)

	orgA := uuid.New()
	orgB := uuid.New()

	require.NoError(t, cm.SetJSON(ctx, PostKey(orgA, "welcome"), cachedThing{}, time.Minute))
	require.NoError(t, cm.SetJSON(ctx, FeaturedPostsKey(orgA), []cachedThing{}, time.Minute))
	require.NoError(t, cm.SetJSON(ctx, PostKey(orgB, "welcome"), cachedThing{}, time.Minute))

	require.NoError(t, inv.PostChanged(ctx, orgA, "welcome"))

	var out cachedThing
	assert.False(t, cm.GetJSON(ctx, PostKey(orgA, "welcome"), &out))
	var list []cachedThing
	assert.False(t, cm.GetJSON(ctx, FeaturedPostsKey(orgA), &list))

	// The other tenant's entry survives.
	assert.True(t, cm.GetJSON(ctx, PostKey(orgB, "welcome"), &out))
}

func TestInvalidator_PostSlugChanged(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()
	inv := NewInvalidator(cm)
	orgID := uuid.New()

	require.NoError(t, cm.SetJSON(ctx, PostKey(orgID, "old-slug"), cachedThing{}, time.Minute))
	require.NoError(t, inv.PostSlugChanged(ctx, orgID, "old-slug", "new-slug"))

	var out cachedThing
	assert.False(t, cm.GetJSON(ctx, PostKey(orgID, "old-slug"), &out))
}

func TestInvalidator_CategoryChanged(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()
	inv := NewInvalidator(cm)
	orgID := uuid.New()

	require.NoError(t, cm.SetJSON(ctx, CategoriesKey(orgID), []cachedThing{}, time.Minute))
	require.NoError(t, cm.SetJSON(ctx, CategoryKey(orgID, "news"), cachedThing{}, time.Minute))
	require.NoError(t, inv.CategoryChanged(ctx, orgID, "news"))

	var out cachedThing
	var list []cachedThing
	assert.False(t, cm.GetJSON(ctx, CategoriesKey(orgID), &list))
	assert.False(t, cm.GetJSON(ctx, CategoryKey(orgID, "news"), &out))
}

func TestInvalidator_CommentChanged(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()
	inv := NewInvalidator(cm)
	postID := uuid.New()

	require.NoError(t, cm.SetJSON(ctx, PostCommentsKey(postID), []cachedThing{}, time.Minute))
	require.NoError(t, inv.CommentChanged(ctx, postID))

	var list []cachedThing
	assert.False(t, cm.GetJSON(ctx, PostCommentsKey(postID), &list))
}

func TestInvalidator_APIKeyRevoked(t *testing.T) {
	cm, _ := setupCacheTest(t)
	ctx := context.Background()
	inv := NewInvalidator(cm)

	require.NoError(t, cm.SetJSON(ctx, APIKeyLookupKey("pg_dead"), cachedThing{}, time.Minute))
	require.NoError(t, inv.APIKeyRevoked(ctx, "pg_dead"))

	var out cachedThing
	assert.False(t, cm.GetJSON(ctx, APIKeyLookupKey("pg_dead"), &out))
}
