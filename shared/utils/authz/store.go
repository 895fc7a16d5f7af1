package authz

import (
	"context"
	"errors"
	"fmt"

	"pressgrid-backend/shared/database/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStore is the production ResourceStore and MembershipStore, reading
// straight from the transactional store on every check.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// PostRef reads the owning organization and author of a post. Only the two
// scoping columns are selected; callers must never see more of the row than
// the decision needs.
func (s *GormStore) PostRef(ctx context.Context, postID uuid.UUID) (ResourceRef, error) {
	var row struct {
		OrganizationID uuid.UUID
		AuthorID       uuid.UUID
	}

	err := s.db.WithContext(ctx).
		Model(&models.Post{}).
		Select("organization_id", "author_id").
		Where("id = ?", postID).
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ResourceRef{}, ErrNotFound
		}
		return ResourceRef{}, fmt.Errorf("post lookup failed: %w", err)
	}

	return ResourceRef{
		OrganizationID: row.OrganizationID,
		OwnerID:        row.AuthorID,
	}, nil
}

// RoleOf reads the user's organization reference and role in one query.
// Membership and role come from the same row, so there is no window where
// "is member" and "what role" disagree.
func (s *GormStore) RoleOf(ctx context.Context, userID, organizationID uuid.UUID) (models.Role, bool, error) {
	var row struct {
		OrganizationID *uuid.UUID
		Role           models.Role
	}

	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Select("organization_id", "role").
		Where("id = ? AND status = ?", userID, "ACTIVE").
		Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("user lookup failed: %w", err)
	}

	if row.OrganizationID == nil || *row.OrganizationID != organizationID {
		return "", false, nil
	}

	return row.Role, true, nil
}
