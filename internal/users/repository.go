package users

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Repository defines persistence for the user directory.
type Repository interface {
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	InsertUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ResolveCaller(ctx context.Context, id uuid.UUID) (authz.Caller, error)
}

// uniqueConstraints maps schema constraint names to caller-facing fields.
var uniqueConstraints = map[string]string{
	"users_username_key": "username",
	"users_email_key":    "email",
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, regions, role, permissions, created_at, last_login`

func scanUser(row pgx.Row) (User, error) {
	var user User
	var role string
	var permsRaw []byte
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Regions, &role, &permsRaw, &user.CreatedAt, &user.LastLogin); err != nil {
		return User{}, err
	}
	user.Role = rbac.Role(role)
	if len(permsRaw) > 0 {
		var caps rbac.Capabilities
		if err := json.Unmarshal(permsRaw, &caps); err != nil {
			return User{}, err
		}
		user.Permissions = &caps
	}
	return user, nil
}

// GetUser fetches a user by id.
func (r *PGRepository) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return user, nil
}

// ListUsers returns all users ordered by creation time.
func (r *PGRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, user)
	}
	return out, rows.Err()
}

// InsertUser persists a new account.
func (r *PGRepository) InsertUser(ctx context.Context, user User) error {
	permsRaw, err := marshalOverride(user.Permissions)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, regions, role, permissions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Regions, string(user.Role), permsRaw)
	return shared.MapPgError(err, uniqueConstraints)
}

// UpdateUser overwrites the mutable account fields.
func (r *PGRepository) UpdateUser(ctx context.Context, user User) error {
	permsRaw, err := marshalOverride(user.Permissions)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, first_name = $5, last_name = $6, regions = $7, role = $8, permissions = $9
		WHERE id = $1`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FirstName, user.LastName, user.Regions, string(user.Role), permsRaw)
	if err != nil {
		return shared.MapPgError(err, uniqueConstraints)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteUser removes an account.
func (r *PGRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ResolveCaller loads the caller identity fresh for authorization checks.
// The role's current capability vector is joined in so that admin edits to
// role_permissions take effect on the next operation.
func (r *PGRepository) ResolveCaller(ctx context.Context, id uuid.UUID) (authz.Caller, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.regions, u.role, u.permissions, rp.permissions
		FROM users u
		LEFT JOIN role_permissions rp ON rp.role = u.role
		WHERE u.id = $1`, id)

	var user User
	var role string
	var overrideRaw, roleVectorRaw []byte
	if err := row.Scan(&user.ID, &user.Username, &user.FirstName, &user.LastName, &user.Regions, &role, &overrideRaw, &roleVectorRaw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return authz.Caller{}, shared.ErrNotFound
		}
		return authz.Caller{}, err
	}
	user.Role = rbac.Role(role)
	if len(overrideRaw) > 0 {
		var caps rbac.Capabilities
		if err := json.Unmarshal(overrideRaw, &caps); err != nil {
			return authz.Caller{}, err
		}
		user.Permissions = &caps
	}
	var roleVector *rbac.Capabilities
	if len(roleVectorRaw) > 0 {
		var caps rbac.Capabilities
		if err := json.Unmarshal(roleVectorRaw, &caps); err != nil {
			return authz.Caller{}, err
		}
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

func marshalOverride(caps *rbac.Capabilities) ([]byte, error) {
	if caps == nil {
		return nil, nil
	}
	return json.Marshal(caps)
}

var _ Repository = (*PGRepository)(nil)
