package handlers

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupHandlerDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
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

	return gormDB, mock
}

func TestCategoryInOrganization_SameTenant(t *testing.T) {
	db, mock := setupHandlerDB(t)
	categoryID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "categories" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(categoryID, orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))

	ok, err := categoryInOrganization(db, categoryID, orgID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryInOrganization_RejectsOtherTenant(t *testing.T) {
	db, mock := setupHandlerDB(t)
	categoryID := uuid.New()
	orgID := uuid.New()

	// The category exists, but under a different organization. The lookup
	// is scoped by organization id, so it comes back empty and the post
	// mutation refuses the reference.
	mock.ExpectQuery(`SELECT count\(\*\) FROM "categories" WHERE id = \$1 AND organization_id = \$2`).
		WithArgs(categoryID, orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))

	ok, err := categoryInOrganization(db, categoryID, orgID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
