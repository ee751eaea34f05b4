package rbac

// Project roles. Owner is implied by owning the project row; viewer and
// editor come from a share.
const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

// Permissions on a project and its children.
const (
	PermissionRead          = "project:read"
	PermissionEditContent   = "project:edit"   // tasks, subtasks, requirements, order, chat
	PermissionDeleteProject = "project:delete" // cascades to all children
	PermissionManageShares  = "project:share"
)

var rolePermissions = map[string][]string{
	RoleViewer: {
		PermissionRead,
	},
	RoleEditor: {
		PermissionRead,
		PermissionEditContent,
	},
	RoleOwner: {
		PermissionRead,
		PermissionEditContent,
		PermissionDeleteProject,
		PermissionManageShares,
	},
}

// HasPermission checks whether a role grants a permission.
func HasPermission(role, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission returns an error when the role lacks the permission.
func CheckPermission(role, permission string) error {
	if !HasPermission(role, permission) {
		return &PermissionDeniedError{
			Role:       role,
			Permission: permission,
		}
	}
	return nil
}

// PermissionDeniedError reports a missing permission.
type PermissionDeniedError struct {
	Role       string
	Permission string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions"
}
