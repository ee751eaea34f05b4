package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/piccolojnr/planning-platform/internal/model"
	"github.com/piccolojnr/planning-platform/pkg/rbac"
)

// ErrNoAccess is returned when a user neither owns the project nor holds a
// share on it. Handlers map it to 404 so project ids cannot be enumerated.
var ErrNoAccess = errors.New("no access to project")

type projectGetter interface {
	GetByID(ctx context.Context, id int64) (*model.Project, error)
}

type roleGetter interface {
	GetRole(ctx context.Context, projectID, userID int64) (string, error)
}

// AccessService resolves what a user may do on a project: owner comes from
// the project row, viewer and editor from a share row.
type AccessService struct {
	projects projectGetter
	shares   roleGetter
}

func NewAccessService(projects projectGetter, shares roleGetter) *AccessService {
	return &AccessService{projects: projects, shares: shares}
}

// ResolveRole returns the user's role on the project, or ErrNoAccess. A
// missing project also resolves to ErrNoAccess.
func (s *AccessService) ResolveRole(ctx context.Context, projectID, userID int64) (string, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoAccess
		}
		return "", err
	}
	if project.UserID == userID {
		return rbac.RoleOwner, nil
	}

	role, err := s.shares.GetRole(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoAccess
		}
		return "", err
	}
	return role, nil
}

// Require resolves the user's role and checks it grants the permission.
// Returns the role on success.
func (s *AccessService) Require(ctx context.Context, projectID, userID int64, permission string) (string, error) {
	role, err := s.ResolveRole(ctx, projectID, userID)
	if err != nil {
		return "", err
	}
	if err := rbac.CheckPermission(role, permission); err != nil {
		return "", err
	}
	return role, nil
}

// CanEdit reports whether the user may modify the project's content.
func (s *AccessService) CanEdit(ctx context.Context, projectID, userID int64) (bool, error) {
	role, err := s.ResolveRole(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, ErrNoAccess) {
			return false, nil
		}
		return false, err
	}
	return rbac.HasPermission(role, rbac.PermissionEditContent), nil
}

// IsOwner reports whether the user owns the project.
func (s *AccessService) IsOwner(ctx context.Context, projectID, userID int64) (bool, error) {
	role, err := s.ResolveRole(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, ErrNoAccess) {
			return false, nil
		}
		return false, err
	}
	return role == rbac.RoleOwner, nil
}
