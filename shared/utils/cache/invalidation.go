package cache

import (
	"context"

	"github.com/google/uuid"
)

// Invalidator centralizes cache invalidation for every mutation path.
// Each mutating handler calls exactly one method here after its write is
// committed and before it responds (invalidate, then respond), so a client
// re-reading right after its own write never sees the stale entry.
type Invalidator struct {
	cache *CacheManager
}

func NewInvalidator(cache *CacheManager) *Invalidator {
	return &Invalidator{cache: cache}
}

// PostChanged covers post create/update/delete: the detail view and the
// aggregate listings that may embed it.
func (inv *Invalidator) PostChanged(ctx context.Context, orgID uuid.UUID, slug string) error {
	return inv.cache.Delete(ctx,
		PostKey(orgID, slug),
		FeaturedPostsKey(orgID),
	)
}

// PostSlugChanged covers a rename: both the old and new detail keys go,
// plus the listings.
func (inv *Invalidator) PostSlugChanged(ctx context.Context, orgID uuid.UUID, oldSlug, newSlug string) error {
	return inv.cache.Delete(ctx,
		PostKey(orgID, oldSlug),
		PostKey(orgID, newSlug),
		FeaturedPostsKey(orgID),
	)
}

// CategoryChanged covers category create/rename/delete: the org's list and
// the detail entry, both organization-namespaced.
func (inv *Invalidator) CategoryChanged(ctx context.Context, orgID uuid.UUID, slug string) error {
	return inv.cache.Delete(ctx,
		CategoriesKey(orgID),
		CategoryKey(orgID, slug),
	)
}

// CommentChanged covers comment create/hide/delete on a post
func (inv *Invalidator) CommentChanged(ctx context.Context, postID uuid.UUID) error {
	return inv.cache.Delete(ctx, PostCommentsKey(postID))
}

// APIKeyRevoked drops the key-lookup snapshot for a revoked or rotated
// token. Must complete before the revocation is acknowledged, so a dead key
// cannot keep authenticating through a stale entry.
func (inv *Invalidator) APIKeyRevoked(ctx context.Context, token string) error {
	return inv.cache.Delete(ctx, APIKeyLookupKey(token))
}
