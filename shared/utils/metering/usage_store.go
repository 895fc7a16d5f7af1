package metering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pressgrid-backend/shared/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageStore tracks per-organization request counts for one usage period.
// Increment must be a single atomic operation in the store, never a
// read-modify-write, because concurrent requests from the same
// organization are the common case on a metered API.
type UsageStore interface {
	CurrentCount(ctx context.Context, organizationID uuid.UUID, periodStart time.Time) (int64, error)
	Increment(ctx context.Context, organizationID uuid.UUID, periodStart time.Time) (int64, error)
}

// GormUsageStore is the Postgres-backed usage counter
type GormUsageStore struct {
	db *gorm.DB
}

func NewGormUsageStore(db *gorm.DB) *GormUsageStore {
	return &GormUsageStore{db: db}
}

// CurrentCount reads the request count for the organization's active
// period. A missing row means zero usage.
func (s *GormUsageStore) CurrentCount(ctx context.Context, organizationID uuid.UUID, periodStart time.Time) (int64, error) {
	var row models.APIKeyUsage
	err := s.db.WithContext(ctx).
		Select("request_count").
		Where("organization_id = ? AND period_start = ?", organizationID, periodStart).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("usage lookup failed: %w", err)
	}
	return row.RequestCount, nil
}

// Increment bumps the counter by one and returns the new value. The update
// happens server-side in a single statement, so concurrent increments never
// lose updates.
func (s *GormUsageStore) Increment(ctx context.Context, organizationID uuid.UUID, periodStart time.Time) (int64, error) {
	db := s.db.WithContext(ctx)

	// Make sure the period row exists. The unique (org, period) index makes
	// the insert a no-op when another request got there first.
	err := db.Exec(`
		INSERT INTO api_key_usages (id, organization_id, period_start, request_count, last_reset_at, created_at, updated_at)
		VALUES (gen_random_uuid(), ?, ?, 0, NOW(), NOW(), NOW())
		ON CONFLICT (organization_id, period_start) DO NOTHING`,
		organizationID, periodStart,
	).Error
	if err != nil {
		return 0, fmt.Errorf("usage row creation failed: %w", err)
	}

	var newCount int64
	err = db.Raw(`
		UPDATE api_key_usages
		SET request_count = request_count + 1, updated_at = NOW()
		WHERE organization_id = ? AND period_start = ?
		RETURNING request_count`,
		organizationID, periodStart,
	).Scan(&newCount).Error
	if err != nil {
		return 0, fmt.Errorf("usage increment failed: %w", err)
	}

	return newCount, nil
}

// ResetPeriod starts a fresh usage period for an organization. Called by
// the rollover job, not by the request path.
func (s *GormUsageStore) ResetPeriod(ctx context.Context, organizationID uuid.UUID, newPeriodStart time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Organization{}).
			Where("id = ?", organizationID).
			Update("usage_period_start", newPeriodStart).Error; err != nil {
			return fmt.Errorf("failed to advance usage period: %w", err)
		}

		usage := models.APIKeyUsage{
			OrganizationID: organizationID,
			PeriodStart:    newPeriodStart,
			RequestCount:   0,
			LastResetAt:    time.Now().UTC(),
		}
		if err := tx.Where("organization_id = ? AND period_start = ?", organizationID, newPeriodStart).
			FirstOrCreate(&usage).Error; err != nil {
			return fmt.Errorf("failed to create usage row: %w", err)
		}
		return nil
	})
}
