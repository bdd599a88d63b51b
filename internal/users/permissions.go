package users

import "github.com/dandy1414/user-api/internal/domain"

// Viewer describes who is looking at a user list. It is supplied by the
// caller and is not authenticated.
type Viewer struct {
	Role   domain.Role
	UserID *int64
}

// CanEdit reports whether the viewer would be allowed to edit user.
// The result is advisory and never enforced on a write path.
func CanEdit(v Viewer, user domain.User) bool {
	switch v.Role {
	case domain.RoleAdministrator:
		return true
	case domain.RoleManager:
		return user.Role == domain.RoleUser
	case domain.RoleUser:
		return v.UserID != nil && *v.UserID == user.ID
	default:
		return false
	}
}
