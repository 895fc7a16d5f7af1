package apikey

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"pressgrid-backend/shared/database/models"
	utils "pressgrid-backend/shared/utils/auth"
	"pressgrid-backend/shared/utils/cache"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInvalidKey is returned when a bearer token matches no active
// organization. Callers map it to 401.
var ErrInvalidKey = errors.New("invalid api key")

// OrgSnapshot is the cached view of an organization behind a bearer token.
// It is bounded by a short TTL, so it may be briefly stale after a plan
// change; key revocation never relies on the TTL, it invalidates.
type OrgSnapshot struct {
	ID                 uuid.UUID   `json:"id"`
	Name               string      `json:"name"`
	Plan               models.Plan `json:"plan"`
	CustomRequestLimit int64       `json:"custom_request_limit"`
	UsagePeriodStart   time.Time   `json:"usage_period_start"`
	CachedAt           time.Time   `json:"cached_at"`
}

// Store maps opaque bearer tokens to organizations through a read-through
// cache backed by the durable store.
type Store struct {
	db          *gorm.DB
	cache       *cache.CacheManager
	invalidator *cache.Invalidator
}

func NewStore(db *gorm.DB, cacheManager *cache.CacheManager, invalidator *cache.Invalidator) *Store {
	return &Store{
		db:          db,
		cache:       cacheManager,
		invalidator: invalidator,
	}
}

// ResolveOrganization authenticates a bearer token. Cache errors fall
// through to the durable store; only a durable-store failure after a cache
// miss is an error, and the caller fails closed on it.
func (s *Store) ResolveOrganization(ctx context.Context, token string) (*OrgSnapshot, error) {
	if token == "" {
		return nil, ErrInvalidKey
	}

	lookupKey := cache.APIKeyLookupKey(token)

	var snapshot OrgSnapshot
	if s.cache.GetJSON(ctx, lookupKey, &snapshot) {
		return &snapshot, nil
	}

	var org models.Organization
	err := s.db.WithContext(ctx).
		Where("api_key = ? AND status = ?", token, "ACTIVE").
		Take(&org).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidKey
		}
		return nil, fmt.Errorf("organization lookup failed: %w", err)
	}

	snapshot = OrgSnapshot{
		ID:                 org.ID,
		Name:               org.Name,
		Plan:               org.Plan,
		CustomRequestLimit: org.CustomRequestLimit,
		UsagePeriodStart:   org.UsagePeriodStart,
		CachedAt:           time.Now(),
	}

	if err := s.cache.SetJSON(ctx, lookupKey, snapshot, cache.APIKeySnapshotTTL); err != nil {
		// A failed cache write only costs the next request a store read.
		log.Printf("❌ Failed to cache API key snapshot: %v", err)
	}

	return &snapshot, nil
}

// Rotate replaces the organization's API key and returns the new secret.
// The old token's cache entry is invalidated after the durable write
// commits and before the rotation is acknowledged, so the revoked key
// cannot keep authenticating through a stale snapshot.
func (s *Store) Rotate(ctx context.Context, organizationID uuid.UUID) (string, error) {
	newKey, err := utils.GenerateAPIKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate api key: %w", err)
	}

	oldKey, err := s.swapKey(ctx, organizationID, newKey)
	if err != nil {
		return "", err
	}

	if err := s.invalidator.APIKeyRevoked(ctx, oldKey); err != nil {
		return "", fmt.Errorf("key rotated but old key invalidation failed: %w", err)
	}

	return newKey, nil
}

// Revoke retires the current key without handing out a replacement secret.
// Internally the key column is swapped to a fresh never-disclosed value so
// the uniqueness invariant holds; a later Rotate issues a usable key.
func (s *Store) Revoke(ctx context.Context, organizationID uuid.UUID) error {
	replacement, err := utils.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("failed to generate replacement key: %w", err)
	}

	oldKey, err := s.swapKey(ctx, organizationID, replacement)
	if err != nil {
		return err
	}

	if err := s.invalidator.APIKeyRevoked(ctx, oldKey); err != nil {
		return fmt.Errorf("key revoked but invalidation failed: %w", err)
	}

	return nil
}

// swapKey atomically replaces the stored key and returns the old one
func (s *Store) swapKey(ctx context.Context, organizationID uuid.UUID, newKey string) (string, error) {
	var oldKey string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Select("id", "api_key").
			Where("id = ?", organizationID).
			Take(&org).Error; err != nil {
			return fmt.Errorf("organization lookup failed: %w", err)
		}
		oldKey = org.APIKey

		if err := tx.Model(&models.Organization{}).
			Where("id = ?", organizationID).
			Update("api_key", newKey).Error; err != nil {
			return fmt.Errorf("failed to store new api key: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return oldKey, nil
}
