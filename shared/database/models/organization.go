package models

import (
	"time"

	"github.com/google/uuid"
)

// Plan is the subscription tier of an organization. It drives the monthly
// request ceiling enforced by the public API gateway.
type Plan string

const (
	PlanFree   Plan = "FREE"
	PlanGrowth Plan = "GROWTH"
	PlanScale  Plan = "SCALE"
	PlanCustom Plan = "CUSTOM"
)

// IsValid reports whether p is one of the known plan tiers
func (p Plan) IsValid() bool {
	switch p {
	case PlanFree, PlanGrowth, PlanScale, PlanCustom:
		return true
	}
	return false
}

type Organization struct {
	ID     uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name   string    `json:"name" gorm:"size:200;not null"`
	Slug   string    `json:"slug" gorm:"size:100;uniqueIndex;not null"`
	Status string    `json:"status" gorm:"default:'ACTIVE'"`
	Plan   Plan      `json:"plan" gorm:"type:varchar(20);default:'FREE';not null"`

	// APIKey is the single active bearer token for the public API.
	// Unique across all organizations; rotated atomically.
	APIKey string `json:"-" gorm:"size:128;uniqueIndex;not null"`

	// CustomRequestLimit overrides the plan table when Plan is CUSTOM.
	CustomRequestLimit int64 `json:"custom_request_limit" gorm:"default:0"`

	// UsagePeriodStart anchors the current usage period.
	UsagePeriodStart time.Time `json:"usage_period_start"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
