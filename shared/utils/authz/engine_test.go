package authz

import (
	"context"
	"errors"
	"testing"

	"pressgrid-backend/shared/database/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResources struct {
	refs map[uuid.UUID]ResourceRef
	err  error
}

func (f *fakeResources) PostRef(ctx context.Context, postID uuid.UUID) (ResourceRef, error) {
	if f.err != nil {
		return ResourceRef{}, f.err
	}
	ref, ok := f.refs[postID]
	if !ok {
		return ResourceRef{}, ErrNotFound
	}
	return ref, nil
}

type fakeMembers struct {
	// userID -> orgID -> role
	roles map[uuid.UUID]map[uuid.UUID]models.Role
	err   error
}

func (f *fakeMembers) RoleOf(ctx context.Context, userID, organizationID uuid.UUID) (models.Role, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	role, ok := f.roles[userID][organizationID]
	return role, ok, nil
}

type engineFixture struct {
	engine *Engine
	orgA   uuid.UUID
	orgB   uuid.UUID
	admin  uuid.UUID
	editor uuid.UUID
	writer uuid.UUID
	// writerPost is authored by writer, editorPost by editor, both in orgA
	writerPost uuid.UUID
	editorPost uuid.UUID
	// orgBPost lives in orgB, authored by a user of orgB
	orgBPost uuid.UUID
}

func newEngineFixture() *engineFixture {
	f := &engineFixture{
		orgA:       uuid.New(),
		orgB:       uuid.New(),
		admin:      uuid.New(),
		editor:     uuid.New(),
		writer:     uuid.New(),
		writerPost: uuid.New(),
		editorPost: uuid.New(),
		orgBPost:   uuid.New(),
	}

	resources := &fakeResources{refs: map[uuid.UUID]ResourceRef{
		f.writerPost: {OrganizationID: f.orgA, OwnerID: f.writer},
		f.editorPost: {OrganizationID: f.orgA, OwnerID: f.editor},
		f.orgBPost:   {OrganizationID: f.orgB, OwnerID: uuid.New()},
	}}
	members := &fakeMembers{roles: map[uuid.UUID]map[uuid.UUID]models.Role{
		f.admin:  {f.orgA: models.RoleOrgAdmin},
		f.editor: {f.orgA: models.RoleEditor},
		f.writer: {f.orgA: models.RoleWriter},
	}}

	f.engine = NewEngine(resources, members)
	return f
}

func TestAuthorize_PermissionMatrix(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	tests := []struct {
		name       string
		userID     uuid.UUID
		action     Action
		resourceID uuid.UUID
		allowed    bool
	}{
		{"admin creates post", f.admin, ActionPostCreate, f.orgA, true},
		{"admin edits any post", f.admin, ActionPostEdit, f.writerPost, true},
		{"admin deletes any post", f.admin, ActionPostDelete, f.writerPost, true},
		{"admin manages members", f.admin, ActionOrgManageMembers, f.orgA, true},
		{"admin edits settings", f.admin, ActionOrgEditSettings, f.orgA, true},

		{"editor creates post", f.editor, ActionPostCreate, f.orgA, true},
		{"editor edits another author's post", f.editor, ActionPostEdit, f.writerPost, true},
		{"editor deletes another author's post", f.editor, ActionPostDelete, f.writerPost, true},
		{"editor cannot manage members", f.editor, ActionOrgManageMembers, f.orgA, false},
		{"editor cannot edit settings", f.editor, ActionOrgEditSettings, f.orgA, false},

		{"writer creates post", f.writer, ActionPostCreate, f.orgA, true},
		{"writer edits own post", f.writer, ActionPostEdit, f.writerPost, true},
		{"writer deletes own post", f.writer, ActionPostDelete, f.writerPost, true},
		{"writer cannot edit another author's post", f.writer, ActionPostEdit, f.editorPost, false},
		{"writer cannot delete another author's post", f.writer, ActionPostDelete, f.editorPost, false},
		{"writer cannot manage members", f.writer, ActionOrgManageMembers, f.orgA, false},
		{"writer cannot edit settings", f.writer, ActionOrgEditSettings, f.orgA, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := f.engine.Authorize(ctx, tt.userID, tt.action, tt.resourceID)
			require.NoError(t, err)
			assert.Equal(t, tt.allowed, decision.Allowed)
			if !tt.allowed {
				assert.NotEmpty(t, decision.Reason)
			}
		})
	}
}

func TestAuthorize_WriterOwnershipReason(t *testing.T) {
	f := newEngineFixture()

	decision, err := f.engine.Authorize(context.Background(), f.writer, ActionPostEdit, f.editorPost)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "writers may only modify their own posts", decision.Reason)
}

func TestAuthorize_CrossOrganizationDenied(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// Even the most privileged role of org A has no authority in org B.
	decision, err := f.engine.Authorize(ctx, f.admin, ActionPostEdit, f.orgBPost)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "not a member of this organization", decision.Reason)

	decision, err = f.engine.Authorize(ctx, f.admin, ActionOrgEditSettings, f.orgB)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestAuthorize_NonMemberDenied(t *testing.T) {
	f := newEngineFixture()

	decision, err := f.engine.Authorize(context.Background(), uuid.New(), ActionPostCreate, f.orgA)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "not a member of this organization", decision.Reason)
}

func TestAuthorize_MissingPostIsNotFound(t *testing.T) {
	f := newEngineFixture()

	_, err := f.engine.Authorize(context.Background(), f.admin, ActionPostEdit, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuthorize_MembershipLookupFailure(t *testing.T) {
	f := newEngineFixture()
	f.engine.members = &fakeMembers{err: errors.New("connection refused")}

	_, err := f.engine.Authorize(context.Background(), f.admin, ActionOrgEditSettings, f.orgA)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestResolve_OrgActionsUseResourceIDAsOrganization(t *testing.T) {
	f := newEngineFixture()

	ref, err := f.engine.Resolve(context.Background(), ActionOrgManageMembers, f.orgA)
	require.NoError(t, err)
	assert.Equal(t, f.orgA, ref.OrganizationID)
	assert.Equal(t, uuid.Nil, ref.OwnerID)
}

func TestResolve_PostCreateTargetsOrganization(t *testing.T) {
	f := newEngineFixture()

	// post:create has no post row yet; the resource is the organization.
	ref, err := f.engine.Resolve(context.Background(), ActionPostCreate, f.orgA)
	require.NoError(t, err)
	assert.Equal(t, f.orgA, ref.OrganizationID)
}

func TestRoleAllows_UnknownRoleDeniesEverything(t *testing.T) {
	for _, action := range []Action{ActionPostCreate, ActionPostEdit, ActionPostDelete, ActionOrgManageMembers, ActionOrgEditSettings} {
		assert.False(t, roleAllows(models.Role("OWNER"), action))
	}
}
