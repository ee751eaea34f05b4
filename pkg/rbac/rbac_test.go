package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasPermission(t *testing.T) {
	tests := []struct {
		role       string
		permission string
		want       bool
	}{
		{RoleViewer, PermissionRead, true},
		{RoleViewer, PermissionEditContent, false},
		{RoleViewer, PermissionManageShares, false},
		{RoleEditor, PermissionRead, true},
		{RoleEditor, PermissionEditContent, true},
		{RoleEditor, PermissionDeleteProject, false},
		{RoleEditor, PermissionManageShares, false},
		{RoleOwner, PermissionRead, true},
		{RoleOwner, PermissionEditContent, true},
		{RoleOwner, PermissionDeleteProject, true},
		{RoleOwner, PermissionManageShares, true},
		{"unknown", PermissionRead, false},
		{"", PermissionRead, false},
	}
	for _, tt := range tests {
		got := HasPermission(tt.role, tt.permission)
		assert.Equal(t, tt.want, got, "%s / %s", tt.role, tt.permission)
	}
}

func TestCheckPermission(t *testing.T) {
	assert.NoError(t, CheckPermission(RoleOwner, PermissionDeleteProject))

	err := CheckPermission(RoleViewer, PermissionEditContent)
	var denied *PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
	assert.Equal(t, RoleViewer, denied.Role)
	assert.Equal(t, PermissionEditContent, denied.Permission)
	assert.Equal(t, "insufficient permissions", err.Error())
}
