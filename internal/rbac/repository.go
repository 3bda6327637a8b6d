package rbac

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Repository defines persistence for role capability vectors.
type Repository interface {
	GetCapabilities(ctx context.Context, role Role) (Capabilities, error)
	ListRolePermissions(ctx context.Context) ([]RolePermission, error)
	SetCapabilities(ctx context.Context, role Role, caps Capabilities) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetCapabilities fetches the stored vector for a role.
func (r *PGRepository) GetCapabilities(ctx context.Context, role Role) (Capabilities, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `SELECT permissions FROM role_permissions WHERE role = $1`, string(role)).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Capabilities{}, shared.ErrNotFound
		}
		return Capabilities{}, err
	}
	var caps Capabilities
	if err := json.Unmarshal(raw, &caps); err != nil {
		return Capabilities{}, err
	}
	return caps, nil
}

// ListRolePermissions returns all stored vectors in seed order.
func (r *PGRepository) ListRolePermissions(ctx context.Context) ([]RolePermission, error) {
	rows, err := r.pool.Query(ctx, `SELECT role, permissions FROM role_permissions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RolePermission
	for rows.Next() {
		var role string
		var raw []byte
		if err := rows.Scan(&role, &raw); err != nil {
			return nil, err
		}
		var caps Capabilities
		if err := json.Unmarshal(raw, &caps); err != nil {
			return nil, err
		}
		out = append(out, RolePermission{Role: Role(role), Capabilities: caps})
	}
	return out, rows.Err()
}

// SetCapabilities replaces the stored vector for a role.
func (r *PGRepository) SetCapabilities(ctx context.Context, role Role, caps Capabilities) error {
	raw, err := json.Marshal(caps)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE role_permissions SET permissions = $2, updated_at = NOW() WHERE role = $1`, string(role), raw)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
