package apikey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"pressgrid-backend/shared/database/models"
	"pressgrid-backend/shared/utils/cache"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupStoreTest wires a Store against a mocked Postgres and a miniredis
// cache.
func setupStoreTest(t *testing.T) (*Store, sqlmock.Sqlmock, *cache.CacheManager, *miniredis.Miniredis) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cacheManager := cache.NewCacheManager(client)
	store := NewStore(gormDB, cacheManager, cache.NewInvalidator(cacheManager))
	return store, mock, cacheManager, mr
}

func orgRows(org models.Organization) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "slug", "status", "plan", "api_key",
		"custom_request_limit", "usage_period_start", "created_at", "updated_at",
	}).AddRow(
		org.ID, org.Name, org.Slug, org.Status, org.Plan, org.APIKey,
		org.CustomRequestLimit, org.UsagePeriodStart, time.Now(), time.Now(),
	)
}

func demoOrg(token string) models.Organization {
	return models.Organization{
		ID:               uuid.New(),
		Name:             "Demo Press",
		Slug:             "demo-press",
		Status:           "ACTIVE",
		Plan:             models.PlanFree,
		APIKey:           token,
		UsagePeriodStart: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestResolveOrganization_CacheMissReadsStore(t *testing.T) {
	store, mock, cacheManager, _ := setupStoreTest(t)
	ctx := context.Background()
	org := demoOrg("pg_token")

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE api_key = \$1 AND status = \$2`).
		WithArgs("pg_token", "ACTIVE", 1).
		WillReturnRows(orgRows(org))

	snapshot, err := store.ResolveOrganization(ctx, "pg_token")
	require.NoError(t, err)
	assert.Equal(t, org.ID, snapshot.ID)
	assert.Equal(t, models.PlanFree, snapshot.Plan)
	assert.Equal(t, org.UsagePeriodStart, snapshot.UsagePeriodStart.UTC())
	assert.NoError(t, mock.ExpectationsWereMet())

	// The read populated the cache for the next request.
	var cached OrgSnapshot
	assert.True(t, cacheManager.GetJSON(ctx, cache.APIKeyLookupKey("pg_token"), &cached))
	assert.Equal(t, org.ID, cached.ID)
}

func TestResolveOrganization_CacheHitSkipsStore(t *testing.T) {
	store, mock, cacheManager, _ := setupStoreTest(t)
	ctx := context.Background()

	snapshot := OrgSnapshot{
		ID:       uuid.New(),
		Name:     "Demo Press",
		Plan:     models.PlanGrowth,
		CachedAt: time.Now(),
	}
	require.NoError(t, cacheManager.SetJSON(ctx, cache.APIKeyLookupKey("pg_token"), snapshot, cache.APIKeySnapshotTTL))

	// No query expectations: touching the database fails the test.
	got, err := store.ResolveOrganization(ctx, "pg_token")
	require.NoError(t, err)
	assert.Equal(t, snapshot.ID, got.ID)
	assert.Equal(t, models.PlanGrowth, got.Plan)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveOrganization_UnknownKey(t *testing.T) {
	store, mock, _, _ := setupStoreTest(t)

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE api_key = \$1 AND status = \$2`).
		WithArgs("pg_unknown", "ACTIVE", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.ResolveOrganization(context.Background(), "pg_unknown")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestResolveOrganization_EmptyToken(t *testing.T) {
	store, _, _, _ := setupStoreTest(t)

	_, err := store.ResolveOrganization(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestResolveOrganization_StoreFailureIsNotInvalidKey(t *testing.T) {
	store, mock, _, _ := setupStoreTest(t)

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE api_key = \$1 AND status = \$2`).
		WithArgs("pg_token", "ACTIVE", 1).
		WillReturnError(errors.New("connection refused"))

	_, err := store.ResolveOrganization(context.Background(), "pg_token")
	require.Error(t, err)
	// Infrastructure trouble must fail closed upstream, not read as a bad key.
	assert.NotErrorIs(t, err, ErrInvalidKey)
}

func TestResolveOrganization_CacheDownFallsThrough(t *testing.T) {
	store, mock, _, mr := setupStoreTest(t)
	org := demoOrg("pg_token")
	mr.Close()

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE api_key = \$1 AND status = \$2`).
		WithArgs("pg_token", "ACTIVE", 1).
		WillReturnRows(orgRows(org))

	snapshot, err := store.ResolveOrganization(context.Background(), "pg_token")
	require.NoError(t, err)
	assert.Equal(t, org.ID, snapshot.ID)
}

func TestRotate_InvalidatesOldKeyBeforeReturning(t *testing.T) {
	store, mock, cacheManager, _ := setupStoreTest(t)
	ctx := context.Background()
	org := demoOrg("pg_old")

	// A stale snapshot for the old key sits in the cache.
	require.NoError(t, cacheManager.SetJSON(ctx, cache.APIKeyLookupKey("pg_old"),
		OrgSnapshot{ID: org.ID}, cache.APIKeySnapshotTTL))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","api_key" FROM "organizations" WHERE id = \$1`).
		WithArgs(org.ID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "api_key"}).AddRow(org.ID, "pg_old"))
	mock.ExpectExec(`UPDATE "organizations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	newKey, err := store.Rotate(ctx, org.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(newKey, "pg_"))
	assert.NotEqual(t, "pg_old", newKey)
	assert.NoError(t, mock.ExpectationsWereMet())

	// The revoked key cannot authenticate through the cache anymore.
	var cached OrgSnapshot
	assert.False(t, cacheManager.GetJSON(ctx, cache.APIKeyLookupKey("pg_old"), &cached))
}

func TestRevoke_InvalidatesOldKey(t *testing.T) {
	store, mock, cacheManager, _ := setupStoreTest(t)
	ctx := context.Background()
	org := demoOrg("pg_old")

	require.NoError(t, cacheManager.SetJSON(ctx, cache.APIKeyLookupKey("pg_old"),
		OrgSnapshot{ID: org.ID}, cache.APIKeySnapshotTTL))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","api_key" FROM "organizations" WHERE id = \$1`).
		WithArgs(org.ID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "api_key"}).AddRow(org.ID, "pg_old"))
	mock.ExpectExec(`UPDATE "organizations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, store.Revoke(ctx, org.ID))

	var cached OrgSnapshot
	assert.False(t, cacheManager.GetJSON(ctx, cache.APIKeyLookupKey("pg_old"), &cached))
}

func TestRotate_StoreFailureKeepsOldKeyUsable(t *testing.T) {
	store, mock, cacheManager, _ := setupStoreTest(t)
	ctx := context.Background()
	org := demoOrg("pg_old")

	require.NoError(t, cacheManager.SetJSON(ctx, cache.APIKeyLookupKey("pg_old"),
		OrgSnapshot{ID: org.ID}, cache.APIKeySnapshotTTL))

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT "id","api_key" FROM "organizations" WHERE id = \$1`).
		WithArgs(org.ID, 1).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	_, err := store.Rotate(ctx, org.ID)
	require.Error(t, err)

	// Nothing was rotated, so the cached snapshot stays valid.
	var cached OrgSnapshot
	assert.True(t, cacheManager.GetJSON(ctx, cache.APIKeyLookupKey("pg_old"), &cached))
}
