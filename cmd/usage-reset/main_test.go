package main

import (
	"context"
	"testing"
	"time"

	"pressgrid-backend/shared/utils/apikey"
	"pressgrid-backend/shared/utils/cache"
	"pressgrid-backend/shared/utils/metering"

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

func setupRolloverTest(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *cache.CacheManager, *miniredis.Miniredis) {
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

	return gormDB, mock, cache.NewCacheManager(client), mr
}

func TestNextPeriodStart_SingleMonth(t *testing.T) {
	current := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	next := nextPeriodStart(current, now)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestNextPeriodStart_CatchesUpSkippedMonths(t *testing.T) {
	// The daemon was down for three periods; the anchor lands in the
	// current month, not the first missed one.
	current := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	next := nextPeriodStart(current, now)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), next)
}

func TestRolloverDuePeriods_DropsCachedKeySnapshot(t *testing.T) {
	gormDB, mock, cacheManager, mr := setupRolloverTest(t)
	invalidator := cache.NewInvalidator(cacheManager)
	usageStore := metering.NewGormUsageStore(gormDB)

	orgID := uuid.New()
	token := "pg_exhausted"
	oldPeriod := time.Now().UTC().AddDate(0, -1, -3)

	// A snapshot cached during the exhausted period. Until it goes, the
	// gateway keeps metering against the old period anchor and keeps
	// refusing an organization that already hit its limit.
	lookupKey := cache.APIKeyLookupKey(token)
	snapshot := apikey.OrgSnapshot{
		ID:               orgID,
		Plan:             "FREE",
		UsagePeriodStart: oldPeriod,
		CachedAt:         time.Now(),
	}
	require.NoError(t, cacheManager.SetJSON(context.Background(), lookupKey, snapshot, cache.APIKeySnapshotTTL))

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE status = \$1 AND usage_period_start <= \$2`).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "name", "slug", "status", "plan", "api_key", "custom_request_limit", "usage_period_start",
		}).AddRow(orgID, "Demo Press", "demo-press", "ACTIVE", "FREE", token, int64(0), oldPeriod))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "organizations" SET "usage_period_start"=`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT \* FROM "api_key_usages" WHERE organization_id = \$1 AND period_start = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "period_start", "request_count"}))
	mock.ExpectQuery(`INSERT INTO "api_key_usages"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "request_count"}).AddRow(uuid.New(), int64(0)))
	mock.ExpectCommit()

	require.NoError(t, rolloverDuePeriods(gormDB, usageStore, invalidator))
	assert.NoError(t, mock.ExpectationsWereMet())

	// The stale snapshot is gone, so the next request resolves against the
	// durable store and sees the fresh period immediately.
	assert.False(t, mr.Exists(lookupKey))
	var cached apikey.OrgSnapshot
	assert.False(t, cacheManager.GetJSON(context.Background(), lookupKey, &cached))
}

func TestRolloverDuePeriods_NothingDue(t *testing.T) {
	gormDB, mock, cacheManager, _ := setupRolloverTest(t)

	mock.ExpectQuery(`SELECT \* FROM "organizations" WHERE status = \$1 AND usage_period_start <= \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := rolloverDuePeriods(gormDB, metering.NewGormUsageStore(gormDB), cache.NewInvalidator(cacheManager))
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
