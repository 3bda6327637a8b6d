package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/rbac"
)

// User represents an account in the directory.
type User struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Regions      []string
	Role         rbac.Role
	// Permissions, when set, replaces the role's default capability vector
	// for this user.
	Permissions *rbac.Capabilities
	CreatedAt   time.Time
	LastLogin   *time.Time
}

// FullName joins first and last name for display and audit snapshots.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// EffectiveCapabilities resolves the capability vector the user operates
// with. The per-user override wins outright; otherwise the vector stored for
// the user's role applies, so admin edits to a role reach enforcement. The
// compiled-in defaults are only a fallback for a missing role row.
func (u User) EffectiveCapabilities(roleVector *rbac.Capabilities) rbac.Capabilities {
	if u.Permissions != nil {
		return *u.Permissions
	}
	if roleVector != nil {
		return *roleVector
	}
	return rbac.DefaultCapabilities(u.Role)
}
