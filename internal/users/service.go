package users

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/regions"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Service wraps user directory business rules behind the authorization guard.
type Service struct {
	repo  Repository
	guard *authz.Guard
}

// NewService constructs a Service.
func NewService(repo Repository, guard *authz.Guard) *Service {
	return &Service{repo: repo, guard: guard}
}

// CreateUserInput carries the fields for account creation.
type CreateUserInput struct {
	Username    string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Regions     []string
	Role        string
	Permissions *rbac.Capabilities
}

// UpdateUserInput carries the mutable account fields. Empty fields keep the
// stored value. A set Permissions replaces the per-user override;
// ClearPermissions removes it so the role vector applies again.
type UpdateUserInput struct {
	Username         string
	Email            string
	Password         string
	FirstName        string
	LastName         string
	Regions          []string
	Role             string
	Permissions      *rbac.Capabilities
	ClearPermissions bool
}

// GetUser returns a single account. Non-admin callers may only fetch their
// own record; anything else reads as not found.
func (s *Service) GetUser(ctx context.Context, callerID, id uuid.UUID) (User, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return User{}, err
	}
	if !authz.CanReadUser(caller, id) {
		return User{}, shared.ErrNotFound
	}
	return s.repo.GetUser(ctx, id)
}

// ListUsers returns the directory visible to the caller: everything for
// admins, the caller's own record otherwise.
func (s *Service) ListUsers(ctx context.Context, callerID uuid.UUID) ([]User, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if caller.Role != rbac.RoleAdmin {
		self, err := s.repo.GetUser(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		return []User{self}, nil
	}
	return s.repo.ListUsers(ctx)
}

// CreateUser provisions a new account. Admin only.
func (s *Service) CreateUser(ctx context.Context, callerID uuid.UUID, in CreateUserInput) (User, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return User{}, err
	}
	if err := authz.RequireUserWrite(caller); err != nil {
		return User{}, err
	}

	user := User{
		ID:          uuid.New(),
		Username:    strings.TrimSpace(in.Username),
		Email:       strings.TrimSpace(strings.ToLower(in.Email)),
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Regions:     in.Regions,
		Permissions: in.Permissions,
	}
	if user.Username == "" {
		return User{}, shared.NewValidationError("username", "is required")
	}
	if user.Email == "" {
		return User{}, shared.NewValidationError("email", "is required")
	}
	if in.Password == "" {
		return User{}, shared.NewValidationError("password", "is required")
	}

	role, regionSet, err := validateRoleAndRegions(in.Role, in.Regions)
	if err != nil {
		return User{}, err
	}
	user.Role = role
	user.Regions = regionSet

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user.PasswordHash = string(hash)

	if err := s.repo.InsertUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser applies the provided changes to an account. Admin only.
func (s *Service) UpdateUser(ctx context.Context, callerID, id uuid.UUID, in UpdateUserInput) (User, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return User{}, err
	}
	if err := authz.RequireUserWrite(caller); err != nil {
		return User{}, err
	}

	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}

	if username := strings.TrimSpace(in.Username); username != "" {
		user.Username = username
	}
	if email := strings.TrimSpace(strings.ToLower(in.Email)); email != "" {
		user.Email = email
	}
	if first := strings.TrimSpace(in.FirstName); first != "" {
		user.FirstName = first
	}
	if last := strings.TrimSpace(in.LastName); last != "" {
		user.LastName = last
	}
	switch {
	case in.Permissions != nil:
		user.Permissions = in.Permissions
	case in.ClearPermissions:
		user.Permissions = nil
	}

	rawRole := in.Role
	if rawRole == "" {
		rawRole = string(user.Role)
	}
	regionSet := in.Regions
	if len(regionSet) == 0 {
		regionSet = user.Regions
	}
	role, cleaned, err := validateRoleAndRegions(rawRole, regionSet)
	if err != nil {
		return User{}, err
	}
	user.Role = role
	user.Regions = cleaned

	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.PasswordHash = string(hash)
	}

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// DeleteUser removes an account. Admin only; self-deletion is rejected even
// for admins.
func (s *Service) DeleteUser(ctx context.Context, callerID, id uuid.UUID) error {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return err
	}
	if err := authz.RequireUserDelete(caller, id); err != nil {
		return err
	}
	return s.repo.DeleteUser(ctx, id)
}

// validateRoleAndRegions enforces the closed role set and region registry
// membership. An empty region set falls back to the default region.
func validateRoleAndRegions(rawRole string, regionSet []string) (rbac.Role, []string, error) {
	role := rbac.RoleObserver
	if rawRole != "" {
		parsed, err := rbac.ParseRole(rawRole)
		if err != nil {
			return "", nil, shared.NewValidationError("role", "must be one of admin, manager, security_officer, observer")
		}
		role = parsed
	}
	if len(regionSet) == 0 {
		regionSet = []string{regions.DefaultCode}
	}
	cleaned := make([]string, 0, len(regionSet))
	seen := make(map[string]struct{}, len(regionSet))
	for _, code := range regionSet {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if !regions.Exists(code) {
			return "", nil, shared.NewValidationError("regions", "unknown region code "+code)
		}
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		cleaned = append(cleaned, code)
	}
	if len(cleaned) == 0 {
		cleaned = []string{regions.DefaultCode}
	}
	return role, cleaned, nil
}
