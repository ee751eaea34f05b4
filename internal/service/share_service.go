package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	contracts "github.com/piccolojnr/planning-platform/contracts/mq"
	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
)

var (
	ErrUserNotFound  = errors.New("no user with that email")
	ErrInvalidRole   = errors.New("role must be viewer or editor")
	ErrShareSelf     = errors.New("cannot share a project with its owner")
	ErrAlreadyShared = errors.New("project already shared with that user")
	ErrShareNotFound = errors.New("share not found in project")
)

type shareStore interface {
	Insert(ctx context.Context, s *model.Share) error
	ListByProject(ctx context.Context, projectID int64) ([]model.Share, error)
	GetRole(ctx context.Context, projectID, userID int64) (string, error)
	UpdateRole(ctx context.Context, projectID, shareID int64, role string) error
	Delete(ctx context.Context, projectID, shareID int64) error
}

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

type changeNotifier interface {
	Notify(ctx context.Context, table, action string, projectID int64)
}

// ShareService manages who a project is shared with. Callers enforce the
// share-management permission before reaching it; share ids are still scoped
// to the route's project here so one project's grant cannot be changed
// through another's.
type ShareService struct {
	shares   shareStore
	projects projectGetter
	users    userFinder
	feed     changeNotifier
	logger   *zap.Logger
}

func NewShareService(
	shares shareStore,
	projects projectGetter,
	users userFinder,
	feed changeNotifier,
	logger *zap.Logger,
) *ShareService {
	return &ShareService{
		shares:   shares,
		projects: projects,
		users:    users,
		feed:     feed,
		logger:   logger,
	}
}

func validShareRole(role string) bool {
	return role == rbac.RoleViewer || role == rbac.RoleEditor
}

// Share grants a user, looked up by email, a role on the project.
func (s *ShareService) Share(ctx context.Context, projectID int64, email, role string) (*model.Share, error) {
	if !validShareRole(role) {
		return nil, ErrInvalidRole
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.UserID == user.ID {
		return nil, ErrShareSelf
	}

	if _, err := s.shares.GetRole(ctx, projectID, user.ID); err == nil {
		return nil, ErrAlreadyShared
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	share := &model.Share{
		ProjectID: projectID,
		UserID:    user.ID,
		Role:      role,
		Email:     user.Email,
	}
	if err := s.shares.Insert(ctx, share); err != nil {
		return nil, err
	}

	s.feed.Notify(ctx, contracts.TableShares, contracts.ActionInsert, projectID)
	return share, nil
}

// List returns the project's shares with grantee emails.
func (s *ShareService) List(ctx context.Context, projectID int64) ([]model.Share, error) {
	return s.shares.ListByProject(ctx, projectID)
}

// UpdateRole changes a grantee's role between viewer and editor. The share
// must belong to the project; ErrShareNotFound otherwise.
func (s *ShareService) UpdateRole(ctx context.Context, projectID, shareID int64, role string) error {
	if !validShareRole(role) {
		return ErrInvalidRole
	}
	if err := s.shares.UpdateRole(ctx, projectID, shareID, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrShareNotFound
		}
		return err
	}
	s.feed.Notify(ctx, contracts.TableShares, contracts.ActionUpdate, projectID)
	return nil
}

// Revoke removes a grantee's access. The share must belong to the project;
// ErrShareNotFound otherwise.
func (s *ShareService) Revoke(ctx context.Context, projectID, shareID int64) error {
	if err := s.shares.Delete(ctx, projectID, shareID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrShareNotFound
		}
		return err
	}
	s.feed.Notify(ctx, contracts.TableShares, contracts.ActionDelete, projectID)
	s.logger.Info("Share revoked",
		zap.Int64("project_id", projectID),
		zap.Int64("share_id", shareID),
	)
	return nil
}
