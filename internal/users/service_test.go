package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

type memoryUserRepo struct {
	users map[uuid.UUID]User
	// roleVectors mirrors the role_permissions table joined by ResolveCaller.
	roleVectors map[rbac.Role]rbac.Capabilities
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{
		users:       make(map[uuid.UUID]User),
		roleVectors: make(map[rbac.Role]rbac.Capabilities),
	}
}

func (r *memoryUserRepo) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	user, ok := r.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return user, nil
}

func (r *memoryUserRepo) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for _, user := range r.users {
		out = append(out, user)
	}
	return out, nil
}

func (r *memoryUserRepo) InsertUser(ctx context.Context, user User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username {
			return shared.NewValidationError("username", "already exists")
		}
		if existing.Email == user.Email {
			return shared.NewValidationError("email", "already exists")
		}
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) UpdateUser(ctx context.Context, user User) error {
	if _, ok := r.users[user.ID]; !ok {
		return shared.ErrNotFound
	}
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) ResolveCaller(ctx context.Context, id uuid.UUID) (authz.Caller, error) {
	user, ok := r.users[id]
	if !ok {
		return authz.Caller{}, shared.ErrNotFound
	}
	var roleVector *rbac.Capabilities
	if caps, ok := r.roleVectors[user.Role]; ok {
		roleVector = &caps
	}
	return authz.Caller{
		ID:           user.ID,
		Username:     user.Username,
		Name:         user.FullName(),
		Role:         user.Role,
		Regions:      user.Regions,
		Capabilities: user.EffectiveCapabilities(roleVector),
	}, nil
}

func seedUser(repo *memoryUserRepo, role rbac.Role, regions ...string) uuid.UUID {
	id := uuid.New()
	repo.users[id] = User{
		ID:       id,
		Username: "user-" + id.String()[:8],
		Email:    "user-" + id.String()[:8] + "@mhvps.local",
		Role:     role,
		Regions:  regions,
	}
	return id
}

func newUserFixture() (*Service, *memoryUserRepo) {
	repo := newMemoryUserRepo()
	return NewService(repo, authz.NewGuard(repo)), repo
}

func TestCreateUserAdminOnly(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")
	manager := seedUser(repo, rbac.RoleManager, "riyadh")

	in := CreateUserInput{
		Username:  "s.alharbi",
		Email:     "S.Alharbi@MHVPS.local",
		Password:  "secret-pass-1",
		FirstName: "Sara",
		LastName:  "Alharbi",
		Role:      "security_officer",
		Regions:   []string{"riyadh", "riyadh", "jeddah"},
	}

	_, err := service.CreateUser(ctx, manager, in)
	require.ErrorIs(t, err, shared.ErrForbidden)

	user, err := service.CreateUser(ctx, admin, in)
	require.NoError(t, err)
	require.Equal(t, "s.alharbi", user.Username)
	require.Equal(t, "s.alharbi@mhvps.local", user.Email)
	require.Equal(t, rbac.RoleSecurityOfficer, user.Role)
	// Duplicates collapse, order is preserved.
	require.Equal(t, []string{"riyadh", "jeddah"}, user.Regions)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret-pass-1")))
}

func TestCreateUserValidation(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")

	var validation *shared.ValidationError

	_, err := service.CreateUser(ctx, admin, CreateUserInput{Email: "x@y.z", Password: "p"})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "username", validation.Field)

	_, err = service.CreateUser(ctx, admin, CreateUserInput{
		Username: "a", Email: "a@b.c", Password: "p", Role: "superuser",
	})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "role", validation.Field)

	_, err = service.CreateUser(ctx, admin, CreateUserInput{
		Username: "a", Email: "a@b.c", Password: "p", Regions: []string{"narnia"},
	})
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "regions", validation.Field)
}

func TestCreateUserDefaultsRoleAndRegion(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")

	user, err := service.CreateUser(ctx, admin, CreateUserInput{
		Username: "plain", Email: "plain@mhvps.local", Password: "p",
	})
	require.NoError(t, err)
	require.Equal(t, rbac.RoleObserver, user.Role)
	require.Equal(t, []string{"headquarters"}, user.Regions)
}

func TestGetUserSelfOrAdmin(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")
	observer := seedUser(repo, rbac.RoleObserver, "riyadh")

	_, err := service.GetUser(ctx, observer, admin)
	require.ErrorIs(t, err, shared.ErrNotFound)

	self, err := service.GetUser(ctx, observer, observer)
	require.NoError(t, err)
	require.Equal(t, observer, self.ID)

	other, err := service.GetUser(ctx, admin, observer)
	require.NoError(t, err)
	require.Equal(t, observer, other.ID)
}

func TestListUsersScope(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")
	observer := seedUser(repo, rbac.RoleObserver, "riyadh")
	seedUser(repo, rbac.RoleManager, "jeddah")

	all, err := service.ListUsers(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 3)

	own, err := service.ListUsers(ctx, observer)
	require.NoError(t, err)
	require.Len(t, own, 1)
	require.Equal(t, observer, own[0].ID)
}

func TestUpdateUserStoresPermissionOverride(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")
	target := seedUser(repo, rbac.RoleObserver, "riyadh")

	override := rbac.DefaultCapabilities(rbac.RoleObserver)
	override.ExportPermits = true

	updated, err := service.UpdateUser(ctx, admin, target, UpdateUserInput{
		Role:        "observer",
		Regions:     []string{"riyadh"},
		Permissions: &override,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Permissions)
	require.True(t, updated.EffectiveCapabilities(nil).ExportPermits)

	// An update that does not mention permissions keeps the override.
	updated, err = service.UpdateUser(ctx, admin, target, UpdateUserInput{Email: "kept@mhvps.local"})
	require.NoError(t, err)
	require.NotNil(t, updated.Permissions)

	// Clearing the override falls back to the role vector.
	updated, err = service.UpdateUser(ctx, admin, target, UpdateUserInput{ClearPermissions: true})
	require.NoError(t, err)
	require.Nil(t, updated.Permissions)
	require.False(t, updated.EffectiveCapabilities(nil).ExportPermits)
}

func TestUpdateUserKeepsOmittedFields(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")
	target := seedUser(repo, rbac.RoleManager, "riyadh", "jeddah")
	stored := repo.users[target]
	stored.FirstName = "Nora"
	stored.LastName = "Alzahrani"
	repo.users[target] = stored

	updated, err := service.UpdateUser(ctx, admin, target, UpdateUserInput{
		Email: "new.address@mhvps.local",
	})
	require.NoError(t, err)
	require.Equal(t, "new.address@mhvps.local", updated.Email)
	require.Equal(t, stored.Username, updated.Username)
	require.Equal(t, "Nora", updated.FirstName)
	require.Equal(t, "Alzahrani", updated.LastName)
	require.Equal(t, rbac.RoleManager, updated.Role)
	require.Equal(t, []string{"riyadh", "jeddah"}, updated.Regions)
}

func TestResolveCallerAppliesStoredRoleVector(t *testing.T) {
	_, repo := newUserFixture()
	officer := seedUser(repo, rbac.RoleSecurityOfficer, "riyadh")

	revoked := rbac.DefaultCapabilities(rbac.RoleSecurityOfficer)
	revoked.ClosePermits = false
	repo.roleVectors[rbac.RoleSecurityOfficer] = revoked

	caller, err := repo.ResolveCaller(context.Background(), officer)
	require.NoError(t, err)
	require.False(t, caller.Capabilities.ClosePermits)
	require.ErrorIs(t, authz.RequirePermitClose(caller), shared.ErrForbidden)
}

func TestDeleteUserRules(t *testing.T) {
	service, repo := newUserFixture()
	ctx := context.Background()
	admin := seedUser(repo, rbac.RoleAdmin, "headquarters")
	manager := seedUser(repo, rbac.RoleManager, "riyadh")
	target := seedUser(repo, rbac.RoleObserver, "riyadh")

	require.ErrorIs(t, service.DeleteUser(ctx, manager, target), shared.ErrForbidden)

	var constraint *shared.ConstraintError
	require.ErrorAs(t, service.DeleteUser(ctx, admin, admin), &constraint)

	require.NoError(t, service.DeleteUser(ctx, admin, target))
	_, err := service.GetUser(ctx, admin, target)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
