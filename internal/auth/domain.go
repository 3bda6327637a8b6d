package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/rbac"
)

// Account is the credential view of a user used by the login flow.
type Account struct {
	ID           uuid.UUID
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Regions      []string
	Role         rbac.Role
	LastLogin    *time.Time
}
