package models

import (
	"time"

	"github.com/google/uuid"
)

// APIKeyUsage is the per-organization request counter for one usage period.
// The metering gateway increments RequestCount with a single atomic SQL
// update; cmd/usage-reset rolls the period over.
type APIKeyUsage struct {
	ID             uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `json:"organization_id" gorm:"type:uuid;not null;uniqueIndex:idx_usage_org_period"`
	PeriodStart    time.Time `json:"period_start" gorm:"not null;uniqueIndex:idx_usage_org_period"`
	RequestCount   int64     `json:"request_count" gorm:"default:0;not null"`
	LastResetAt    time.Time `json:"last_reset_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Organization Organization `json:"-" gorm:"foreignKey:OrganizationID"`
}
