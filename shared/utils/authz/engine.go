package authz

import (
	"context"
	"errors"
	"fmt"

	"pressgrid-backend/shared/database/models"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the resource an action targets does not
// exist. Callers must map it to 404, never to 403. Existence and
// permission are distinct failure modes.
var ErrNotFound = errors.New("resource not found")

// ResourceRef locates a resource inside the tenant model. OwnerID is zero
// for org-namespace actions, where the organization itself is the resource.
type ResourceRef struct {
	OrganizationID uuid.UUID
	OwnerID        uuid.UUID
}

// ResourceStore resolves post ids to their owning organization and author.
// The production implementation reads the persisted post row; a
// client-asserted organization id is never accepted for post actions.
type ResourceStore interface {
	PostRef(ctx context.Context, postID uuid.UUID) (ResourceRef, error)
}

// MembershipStore answers "what role does this user hold in this
// organization", in a single lookup. The bool result is false when the user
// is not a member; that is not an error.
type MembershipStore interface {
	RoleOf(ctx context.Context, userID, organizationID uuid.UUID) (models.Role, bool, error)
}

// Decision is the outcome of one authorization check. It is recomputed per
// request and never stored: role and ownership can change between calls.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Engine decides whether an actor may perform an action on a resource. It
// composes resource resolution, membership lookup and the static permission
// matrix. Stores are injected so tests can run against in-memory fakes.
type Engine struct {
	resources ResourceStore
	members   MembershipStore
}

// NewEngine creates an authorization engine backed by the given stores
func NewEngine(resources ResourceStore, members MembershipStore) *Engine {
	return &Engine{
		resources: resources,
		members:   members,
	}
}

// Resolve derives the owning organization (and, for post actions, the
// author) for a resource id. Post actions read the persisted post; org
// actions treat the resource id as the organization id; an organization
// with no members is simply one nobody is authorized in.
func (e *Engine) Resolve(ctx context.Context, action Action, resourceID uuid.UUID) (ResourceRef, error) {
	if action.IsPostAction() && action != ActionPostCreate {
		return e.resources.PostRef(ctx, resourceID)
	}
	return ResourceRef{OrganizationID: resourceID}, nil
}

// Authorize runs the full decision: resolve resource → organization, look
// up the actor's role, consult the matrix, apply the WRITER ownership
// override. ErrNotFound propagates so callers can answer 404 instead of
// 403; any other error is an infrastructure failure the caller maps to 500.
func (e *Engine) Authorize(ctx context.Context, userID uuid.UUID, action Action, resourceID uuid.UUID) (Decision, error) {
	ref, err := e.Resolve(ctx, action, resourceID)
	if err != nil {
		return Decision{}, err
	}

	role, isMember, err := e.members.RoleOf(ctx, userID, ref.OrganizationID)
	if err != nil {
		return Decision{}, fmt.Errorf("membership lookup failed: %w", err)
	}
	if !isMember {
		return deny("not a member of this organization"), nil
	}

	if !roleAllows(role, action) {
		return deny(fmt.Sprintf("role %s is not allowed to %s", role, action)), nil
	}

	if requiresOwnership(role, action) && ref.OwnerID != userID {
		return deny("writers may only modify their own posts"), nil
	}

	return Decision{Allowed: true}, nil
}
