package auth

import "github.com/lalith-99/notevault/internal/models"

// Action is a coarse operation on notes.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// UserAction is a user-management operation under /organizations/{id}/users.
type UserAction string

const (
	UserCreate     UserAction = "user:create"
	UserList       UserAction = "user:list"
	UserUpdateRole UserAction = "user:update_role"
	UserDelete     UserAction = "user:delete"
)

// noteCapabilities is the single source of truth for what each role may
// do to notes, ignoring ownership:
//
//	role    read  create  update  delete
//	reader  yes   no      no      no
//	writer  yes   yes     yes*    no
//	admin   yes   yes     yes     yes
//
// (*) writers only on notes they own; see CanMutate.
var noteCapabilities = map[models.Role][]Action{
	models.RoleReader: {ActionRead},
	models.RoleWriter: {ActionRead, ActionCreate, ActionUpdate},
	models.RoleAdmin:  {ActionRead, ActionCreate, ActionUpdate, ActionDelete},
}

// userCapabilities: user management is admin-only.
var userCapabilities = map[models.Role][]UserAction{
	models.RoleAdmin: {UserCreate, UserList, UserUpdateRole, UserDelete},
}

// Can is the coarse check: may this role perform action on notes at all?
// Unknown roles get nothing.
func Can(role models.Role, action Action) bool {
	for _, a := range noteCapabilities[role] {
		if a == action {
			return true
		}
	}
	return false
}

// CanMutate is the fine check, run after the note has been located.
// Admins may update or delete any note in their tenant; writers may
// update only their own; readers never mutate.
func CanMutate(role models.Role, action Action, isOwner bool) bool {
	if action != ActionUpdate && action != ActionDelete {
		return false
	}
	if !Can(role, action) {
		return false
	}
	switch role {
	case models.RoleAdmin:
		return true
	case models.RoleWriter:
		return isOwner
	default:
		return false
	}
}

// CanManageUsers reports whether role may perform a user-management action.
// Tenant scoping and the self-modification lockout are enforced by the Gate.
func CanManageUsers(role models.Role, action UserAction) bool {
	for _, a := range userCapabilities[role] {
		if a == action {
			return true
		}
	}
	return false
}
