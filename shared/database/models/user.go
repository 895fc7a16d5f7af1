package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is the capability level a user holds within their organization.
// A user belongs to at most one organization, so organization id plus role
// is the whole membership record.
type Role string

const (
	RoleOrgAdmin Role = "ORG_ADMIN"
	RoleEditor   Role = "EDITOR"
	RoleWriter   Role = "WRITER"
)

// IsValid reports whether r is one of the known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleOrgAdmin, RoleEditor, RoleWriter:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email          string     `json:"email" gorm:"uniqueIndex;not null"`
	Password       string     `json:"-" gorm:"not null"`
	FirstName      string     `json:"first_name" gorm:"size:100"`
	LastName       string     `json:"last_name" gorm:"size:100"`
	Status         string     `json:"status" gorm:"default:'ACTIVE'"`
	OrganizationID *uuid.UUID `json:"organization_id" gorm:"type:uuid;index"`
	Role           Role       `json:"role" gorm:"type:varchar(20);default:'WRITER';not null"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Relations
	Organization Organization `json:"organization" gorm:"foreignKey:OrganizationID"`
}
