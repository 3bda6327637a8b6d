package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/shared"
)

func errInvalidRole(role Role) error {
	return shared.NewValidationError("role", fmt.Sprintf("%q is not one of admin, manager, security_officer, observer", role))
}

// Guard authorizes capability vector mutations. Reads are open to any
// authenticated caller; writes require an admin role resolved fresh from
// storage per operation.
type Guard interface {
	RequireManagePermissions(ctx context.Context, callerID uuid.UUID) error
}

// Service orchestrates role-permission operations.
type Service struct {
	repo  Repository
	guard Guard
}

// NewService constructs a Service.
func NewService(repo Repository, guard Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// GetCapabilities fetches the stored vector for a role.
func (s *Service) GetCapabilities(ctx context.Context, role Role) (Capabilities, error) {
	if !role.Valid() {
		return Capabilities{}, errInvalidRole(role)
	}
	return s.repo.GetCapabilities(ctx, role)
}

// ListRolePermissions returns every role with its stored vector.
func (s *Service) ListRolePermissions(ctx context.Context) ([]RolePermission, error) {
	return s.repo.ListRolePermissions(ctx)
}

// SetCapabilities replaces a role's vector. Restricted to admin callers.
func (s *Service) SetCapabilities(ctx context.Context, callerID uuid.UUID, role Role, caps Capabilities) error {
	if err := s.guard.RequireManagePermissions(ctx, callerID); err != nil {
		return err
	}
	if !role.Valid() {
		return errInvalidRole(role)
	}
	return s.repo.SetCapabilities(ctx, role, caps)
}
