package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
)

type fakeShareStore struct {
	shares map[int64]*model.Share // share id -> share
}

func (f *fakeShareStore) Insert(_ context.Context, s *model.Share) error {
	s.ID = int64(len(f.shares) + 100)
	f.shares[s.ID] = s
	return nil
}

func (f *fakeShareStore) ListByProject(_ context.Context, projectID int64) ([]model.Share, error) {
	var out []model.Share
	for _, s := range f.shares {
		if s.ProjectID == projectID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeShareStore) GetRole(_ context.Context, projectID, userID int64) (string, error) {
	for _, s := range f.shares {
		if s.ProjectID == projectID && s.UserID == userID {
			return s.Role, nil
		}
	}
	return "", pgx.ErrNoRows
}

// UpdateRole and Delete are keyed by (share, project), like the SQL they
// stand in for.
func (f *fakeShareStore) UpdateRole(_ context.Context, projectID, shareID int64, role string) error {
	s, ok := f.shares[shareID]
	if !ok || s.ProjectID != projectID {
		return pgx.ErrNoRows
	}
	s.Role = role
	return nil
}

func (f *fakeShareStore) Delete(_ context.Context, projectID, shareID int64) error {
	s, ok := f.shares[shareID]
	if !ok || s.ProjectID != projectID {
		return pgx.ErrNoRows
	}
	delete(f.shares, shareID)
	return nil
}

type fakeUsers struct {
	users map[string]*model.User // email -> user
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

type fakeFeed struct {
	events []string // "table/action" per notification
}

func (f *fakeFeed) Notify(_ context.Context, table, action string, projectID int64) {
	f.events = append(f.events, table+"/"+action)
}

// Two projects with different owners; share 10 grants editor on project 1,
// share 20 grants viewer on project 2.
func newShareFixture() (*ShareService, *fakeShareStore, *fakeFeed) {
	store := &fakeShareStore{shares: map[int64]*model.Share{
		10: {ID: 10, ProjectID: 1, UserID: 200, Role: rbac.RoleEditor},
		20: {ID: 20, ProjectID: 2, UserID: 300, Role: rbac.RoleViewer},
	}}
	projects := &fakeProjects{projects: map[int64]*model.Project{
		1: {ID: 1, UserID: 100},
		2: {ID: 2, UserID: 500},
	}}
	users := &fakeUsers{users: map[string]*model.User{
		"owner@example.com":   {ID: 100, Email: "owner@example.com"},
		"editor@example.com":  {ID: 200, Email: "editor@example.com"},
		"someone@example.com": {ID: 400, Email: "someone@example.com"},
	}}
	feed := &fakeFeed{}
	return NewShareService(store, projects, users, feed, zap.NewNop()), store, feed
}

func TestShare(t *testing.T) {
	s, store, feed := newShareFixture()
	ctx := context.Background()

	share, err := s.Share(ctx, 1, "someone@example.com", rbac.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, int64(1), share.ProjectID)
	assert.Equal(t, int64(400), share.UserID)
	assert.Equal(t, rbac.RoleViewer, share.Role)
	assert.Contains(t, store.shares, share.ID)
	assert.Equal(t, []string{contracts.TableShares + "/" + contracts.ActionInsert}, feed.events)
}

func TestShare_Rejections(t *testing.T) {
	s, _, feed := newShareFixture()
	ctx := context.Background()

	_, err := s.Share(ctx, 1, "someone@example.com", "owner")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = s.Share(ctx, 1, "nobody@example.com", rbac.RoleViewer)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = s.Share(ctx, 1, "owner@example.com", rbac.RoleViewer)
	assert.ErrorIs(t, err, ErrShareSelf)

	_, err = s.Share(ctx, 1, "editor@example.com", rbac.RoleViewer)
	assert.ErrorIs(t, err, ErrAlreadyShared)

	assert.Empty(t, feed.events)
}

func TestUpdateShareRole(t *testing.T) {
	s, store, feed := newShareFixture()

	err := s.UpdateRole(context.Background(), 1, 10, rbac.RoleViewer)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleViewer, store.shares[10].Role)
	assert.Equal(t, []string{contracts.TableShares + "/" + contracts.ActionUpdate}, feed.events)
}

// A share id from another project must not be reachable through this
// project's route, even for that project's owner.
func TestUpdateShareRole_OtherProjectShare(t *testing.T) {
	s, store, feed := newShareFixture()

	err := s.UpdateRole(context.Background(), 1, 20, rbac.RoleEditor)
	assert.ErrorIs(t, err, ErrShareNotFound)
	assert.Equal(t, rbac.RoleViewer, store.shares[20].Role, "foreign share must be untouched")
	assert.Empty(t, feed.events)
}

func TestUpdateShareRole_InvalidRole(t *testing.T) {
	s, store, _ := newShareFixture()

	err := s.UpdateRole(context.Background(), 1, 10, "owner")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Equal(t, rbac.RoleEditor, store.shares[10].Role)
}

func TestRevokeShare(t *testing.T) {
	s, store, feed := newShareFixture()

	err := s.Revoke(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.NotContains(t, store.shares, int64(10))
	assert.Equal(t, []string{contracts.TableShares + "/" + contracts.ActionDelete}, feed.events)
}

func TestRevokeShare_OtherProjectShare(t *testing.T) {
	s, store, feed := newShareFixture()

	err := s.Revoke(context.Background(), 1, 20)
	assert.ErrorIs(t, err, ErrShareNotFound)
	assert.Contains(t, store.shares, int64(20), "foreign share must survive")
	assert.Empty(t, feed.events)
}

func TestRevokeShare_Unknown(t *testing.T) {
	s, _, _ := newShareFixture()

	err := s.Revoke(context.Background(), 1, 999)
	assert.ErrorIs(t, err, ErrShareNotFound)
}
