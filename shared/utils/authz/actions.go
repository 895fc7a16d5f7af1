package authz

import (
	"strings"

	"pressgrid-backend/shared/database/models"
)

// Action is a permission-checked operation. The set is closed; handlers
// never compare role strings themselves, they ask the Engine about one of
// these actions.
type Action string

const (
	ActionPostCreate       Action = "post:create"
	ActionPostEdit         Action = "post:edit"
	ActionPostDelete       Action = "post:delete"
	ActionOrgManageMembers Action = "org:manage_members"
	ActionOrgEditSettings  Action = "org:edit_settings"
)

// IsPostAction reports whether the action targets a post resource
func (a Action) IsPostAction() bool {
	return strings.HasPrefix(string(a), "post:")
}

// IsOrgAction reports whether the action targets the organization itself
func (a Action) IsOrgAction() bool {
	return strings.HasPrefix(string(a), "org:")
}

// permissionMatrix is the static role → allowed action mapping.
// WRITER's post:edit and post:delete entries are additionally gated by
// authorship, see requiresOwnership.
var permissionMatrix = map[models.Role]map[Action]bool{
	models.RoleOrgAdmin: {
		ActionPostCreate:       true,
		ActionPostEdit:         true,
		ActionPostDelete:       true,
		ActionOrgManageMembers: true,
		ActionOrgEditSettings:  true,
	},
	models.RoleEditor: {
		ActionPostCreate: true,
		ActionPostEdit:   true,
		ActionPostDelete: true,
	},
	models.RoleWriter: {
		ActionPostCreate: true,
		ActionPostEdit:   true,
		ActionPostDelete: true,
	},
}

// roleAllows consults the static matrix
func roleAllows(role models.Role, action Action) bool {
	allowed, ok := permissionMatrix[role]
	if !ok {
		return false
	}
	return allowed[action]
}

// requiresOwnership reports whether the role may perform the action only on
// resources it authored. ORG_ADMIN and EDITOR have organization-wide
// authority and bypass this entirely.
func requiresOwnership(role models.Role, action Action) bool {
	if role != models.RoleWriter {
		return false
	}
	return action == ActionPostEdit || action == ActionPostDelete
}
