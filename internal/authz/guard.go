// Package authz is the row-level authorization core. Every service resolves
// the caller fresh through the Guard and evaluates the predicates below
// before touching storage, so enforcement holds even for code paths that
// bypass the HTTP layer.
package authz

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Caller is the authenticated identity an operation runs as. It is resolved
// from storage per operation, never cached across operations, so a concurrent
// role or region change on the caller's own record takes effect immediately.
type Caller struct {
	ID           uuid.UUID
	Username     string
	Name         string
	Role         rbac.Role
	Regions      []string
	Capabilities rbac.Capabilities
}

// HasRegion reports whether the caller's region set contains code.
func (c Caller) HasRegion(code string) bool {
	for _, r := range c.Regions {
		if r == code {
			return true
		}
	}
	return false
}

// CallerSource resolves callers from the user directory. The returned
// Capabilities are the caller's effective vector: the role defaults, replaced
// by the per-user permissions override when one is stored.
type CallerSource interface {
	ResolveCaller(ctx context.Context, id uuid.UUID) (Caller, error)
}

// Guard resolves callers and evaluates authorization predicates.
type Guard struct {
	source CallerSource
}

// NewGuard constructs a Guard backed by the provided caller source.
func NewGuard(source CallerSource) *Guard {
	return &Guard{source: source}
}

// ResolveCaller fetches the caller's identity, role and region set fresh.
func (g *Guard) ResolveCaller(ctx context.Context, id uuid.UUID) (Caller, error) {
	caller, err := g.source.ResolveCaller(ctx, id)
	if err != nil {
		return Caller{}, err
	}
	return caller, nil
}

// RequireManagePermissions gates capability vector writes to admin callers.
func (g *Guard) RequireManagePermissions(ctx context.Context, callerID uuid.UUID) error {
	caller, err := g.ResolveCaller(ctx, callerID)
	if err != nil {
		return err
	}
	if caller.Role != rbac.RoleAdmin {
		return shared.ErrForbidden
	}
	return nil
}

// User directory predicates.

// CanReadUser allows reading one's own record, or any record for admins.
func CanReadUser(caller Caller, targetID uuid.UUID) bool {
	return caller.ID == targetID || caller.Role == rbac.RoleAdmin
}

// RequireUserWrite gates user create and update to admins.
func RequireUserWrite(caller Caller) error {
	if caller.Role != rbac.RoleAdmin {
		return shared.ErrForbidden
	}
	return nil
}

// RequireUserDelete gates user deletion to admins and forbids self-deletion.
func RequireUserDelete(caller Caller, targetID uuid.UUID) error {
	if caller.Role != rbac.RoleAdmin {
		return shared.ErrForbidden
	}
	if caller.ID == targetID {
		return shared.NewConstraintError("cannot delete own account")
	}
	return nil
}

// Permit store predicates.

// CanReadPermit allows reading permits in the caller's region set; admins and
// managers see every region.
func CanReadPermit(caller Caller, region string) bool {
	if caller.Role == rbac.RoleAdmin || caller.Role == rbac.RoleManager {
		return true
	}
	return caller.HasRegion(region)
}

// ReadsAllRegions reports whether permit listings skip the region filter.
func ReadsAllRegions(caller Caller) bool {
	return caller.Role == rbac.RoleAdmin || caller.Role == rbac.RoleManager
}

// RequirePermitCreate gates creation to admins and managers; managers may
// only create within their own region set.
func RequirePermitCreate(caller Caller, region string) error {
	if caller.Role != rbac.RoleAdmin && caller.Role != rbac.RoleManager {
		return shared.ErrForbidden
	}
	if caller.Role == rbac.RoleAdmin {
		return nil
	}
	if !caller.HasRegion(region) {
		return shared.ErrForbidden
	}
	return nil
}

// RequirePermitUpdate applies the create condition and rejects plain updates
// on closed permits. Reopen is a separate transition, not an update.
func RequirePermitUpdate(caller Caller, region string, closedAt *time.Time) error {
	if err := RequirePermitCreate(caller, region); err != nil {
		return err
	}
	if closedAt != nil {
		return shared.NewConstraintError("closed permits cannot be edited")
	}
	return nil
}

// RequirePermitDelete gates permit deletion to admins.
func RequirePermitDelete(caller Caller) error {
	if caller.Role != rbac.RoleAdmin {
		return shared.ErrForbidden
	}
	return nil
}

// Activity log predicates.

// CanReadActivity limits log reads to admin, manager and security officer.
func CanReadActivity(caller Caller) bool {
	switch caller.Role {
	case rbac.RoleAdmin, rbac.RoleManager, rbac.RoleSecurityOfficer:
		return true
	case rbac.RoleObserver:
		return false
	}
	return false
}

// RequireActivityInsert forbids logging activity as another user.
func RequireActivityInsert(caller Caller, entryUserID uuid.UUID) error {
	if caller.ID != entryUserID {
		return shared.ErrForbidden
	}
	return nil
}

// Lifecycle predicates. These consult the caller's effective capability
// vector rather than the bare role, so per-user overrides apply.

// RequirePermitClose gates the open to closed transition.
func RequirePermitClose(caller Caller) error {
	if !caller.Capabilities.ClosePermits {
		return shared.ErrForbidden
	}
	return nil
}

// RequirePermitReopen gates the closed to open transition. Callers without
// the reopen-any capability may only reopen permits they closed themselves.
func RequirePermitReopen(caller Caller, closedBy *uuid.UUID) error {
	if !caller.Capabilities.ReopenPermits {
		return shared.ErrForbidden
	}
	if caller.Capabilities.ReopenAnyPermit {
		return nil
	}
	if closedBy != nil && *closedBy == caller.ID {
		return nil
	}
	return shared.ErrForbidden
}

// RequirePermitExport gates CSV export on the export capability.
func RequirePermitExport(caller Caller) error {
	if !caller.Capabilities.ExportPermits {
		return shared.ErrForbidden
	}
	return nil
}

// RequireStatisticsView gates aggregate statistics reads.
func RequireStatisticsView(caller Caller) error {
	if !caller.Capabilities.ViewStatistics {
		return shared.ErrForbidden
	}
	return nil
}
