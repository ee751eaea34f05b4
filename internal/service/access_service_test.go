package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
)

type fakeProjects struct {
	projects map[int64]*model.Project
}

func (f *fakeProjects) GetByID(_ context.Context, id int64) (*model.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type fakeShares struct {
	roles map[[2]int64]string // (projectID, userID) -> role
}

func (f *fakeShares) GetRole(_ context.Context, projectID, userID int64) (string, error) {
	role, ok := f.roles[[2]int64{projectID, userID}]
	if !ok {
		return "", pgx.ErrNoRows
	}
	return role, nil
}

func newAccessFixture() *AccessService {
	projects := &fakeProjects{projects: map[int64]*model.Project{
		1: {ID: 1, UserID: 100, Title: "owned"},
	}}
	shares := &fakeShares{roles: map[[2]int64]string{
		{1, 200}: rbac.RoleEditor,
		{1, 300}: rbac.RoleViewer,
	}}
	return NewAccessService(projects, shares)
}

func TestResolveRole(t *testing.T) {
	s := newAccessFixture()
	ctx := context.Background()

	tests := []struct {
		name    string
		userID  int64
		want    string
		wantErr error
	}{
		{"owner", 100, rbac.RoleOwner, nil},
		{"editor via share", 200, rbac.RoleEditor, nil},
		{"viewer via share", 300, rbac.RoleViewer, nil},
		{"stranger", 400, "", ErrNoAccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := s.ResolveRole(ctx, 1, tt.userID)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestResolveRole_MissingProject(t *testing.T) {
	s := newAccessFixture()

	_, err := s.ResolveRole(context.Background(), 999, 100)
	assert.ErrorIs(t, err, ErrNoAccess)
}

func TestRequire(t *testing.T) {
	s := newAccessFixture()
	ctx := context.Background()

	// Owner may manage shares; editor may not.
	role, err := s.Require(ctx, 1, 100, rbac.PermissionManageShares)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleOwner, role)

	_, err = s.Require(ctx, 1, 200, rbac.PermissionManageShares)
	var denied *rbac.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)

	// Editor may edit content, viewer may only read.
	_, err = s.Require(ctx, 1, 200, rbac.PermissionEditContent)
	assert.NoError(t, err)
	_, err = s.Require(ctx, 1, 300, rbac.PermissionEditContent)
	assert.ErrorAs(t, err, &denied)
	_, err = s.Require(ctx, 1, 300, rbac.PermissionRead)
	assert.NoError(t, err)
}

func TestCanEditAndIsOwner(t *testing.T) {
	s := newAccessFixture()
	ctx := context.Background()

	for _, tt := range []struct {
		userID  int64
		canEdit bool
		isOwner bool
	}{
		{100, true, true},
		{200, true, false},
		{300, false, false},
		{400, false, false}, // no access is not an error here
	} {
		canEdit, err := s.CanEdit(ctx, 1, tt.userID)
		require.NoError(t, err)
		assert.Equal(t, tt.canEdit, canEdit, "user %d", tt.userID)

		isOwner, err := s.IsOwner(ctx, 1, tt.userID)
		require.NoError(t, err)
		assert.Equal(t, tt.isOwner, isOwner, "user %d", tt.userID)
	}
}
