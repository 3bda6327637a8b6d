package rbac

import "fmt"

// Role is one of the four fixed identities. The set is closed; every switch
// over Role must handle exactly these four values.
type Role string

// The fixed role vocabulary.
const (
	RoleAdmin           Role = "admin"
	RoleManager         Role = "manager"
	RoleSecurityOfficer Role = "security_officer"
	RoleObserver        Role = "observer"
)

// Roles returns the closed role set in seed order.
func Roles() []Role {
	return []Role{RoleAdmin, RoleManager, RoleSecurityOfficer, RoleObserver}
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleAdmin, RoleManager, RoleSecurityOfficer, RoleObserver:
		return Role(raw), nil
	}
	return "", fmt.Errorf("rbac: unknown role %q", raw)
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Capabilities is the fixed 12-key permission vector. The JSON keys are part
// of the external contract and must not change.
type Capabilities struct {
	CreatePermits     bool `json:"canCreatePermits"`
	EditPermits       bool `json:"canEditPermits"`
	DeletePermits     bool `json:"canDeletePermits"`
	ClosePermits      bool `json:"canClosePermits"`
	ReopenPermits     bool `json:"canReopenPermits"`
	ReopenAnyPermit   bool `json:"canReopenAnyPermit"`
	ViewPermits       bool `json:"canViewPermits"`
	ExportPermits     bool `json:"canExportPermits"`
	ManageUsers       bool `json:"canManageUsers"`
	ViewStatistics    bool `json:"canViewStatistics"`
	ViewActivityLog   bool `json:"canViewActivityLog"`
	ManagePermissions bool `json:"canManagePermissions"`
}

// DefaultCapabilities returns the seeded vector for the role. UI and server
// logic both branch on these flags, so the vectors are reproduced verbatim.
func DefaultCapabilities(role Role) Capabilities {
	switch role {
	case RoleAdmin:
		return Capabilities{
			CreatePermits:     true,
			EditPermits:       true,
			DeletePermits:     true,
			ClosePermits:      true,
			ReopenPermits:     true,
			ReopenAnyPermit:   true,
			ViewPermits:       true,
			ExportPermits:     true,
			ManageUsers:       true,
			ViewStatistics:    true,
			ViewActivityLog:   true,
			ManagePermissions: true,
		}
	case RoleManager:
		return Capabilities{
			CreatePermits:   true,
			EditPermits:     true,
			ClosePermits:    true,
			ReopenPermits:   true,
			ReopenAnyPermit: true,
			ViewPermits:     true,
			ExportPermits:   true,
			ViewStatistics:  true,
			ViewActivityLog: true,
		}
	case RoleSecurityOfficer:
		return Capabilities{
			ClosePermits:    true,
			ReopenPermits:   true,
			ViewPermits:     true,
			ViewActivityLog: true,
		}
	case RoleObserver:
		return Capabilities{
			ViewPermits: true,
		}
	}
	return Capabilities{}
}

// RolePermission binds a role to its stored capability vector.
type RolePermission struct {
	Role         Role         `json:"role"`
	Capabilities Capabilities `json:"permissions"`
}
