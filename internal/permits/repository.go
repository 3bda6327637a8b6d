package permits

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nbras002/MHV-PS/internal/shared"
)

// ListFilter narrows permit listings. An empty Regions slice with AllRegions
// false yields nothing; services always populate one of the two.
type ListFilter struct {
	AllRegions  bool
	Regions     []string
	Region      string
	RequestType string
	OpenOnly    bool
	ClosedOnly  bool
}

// Repository defines persistence for the permit store.
type Repository interface {
	GetPermit(ctx context.Context, id uuid.UUID) (Permit, error)
	ListPermits(ctx context.Context, filter ListFilter) ([]Permit, error)
	InsertPermit(ctx context.Context, permit Permit) error
	UpdatePermit(ctx context.Context, permit Permit) error
	UpdateLifecycle(ctx context.Context, permit Permit) error
	DeletePermit(ctx context.Context, id uuid.UUID) error
}

var permitConstraints = map[string]string{
	"permits_permit_number_key":  "permit_number",
	"permits_created_by_fkey":    "created_by",
	"permits_closed_by_fkey":     "closed_by",
	"permits_region_fkey":        "region",
	"activity_logs_user_id_fkey": "user_id",
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const permitColumns = `id, permit_number, date, region, location, carrier_name, carrier_id, request_type, vehicle_plate, materials, closed_by, closed_at, closed_by_name, can_reopen, created_by, created_at`

func scanPermit(row pgx.Row) (Permit, error) {
	var p Permit
	var requestType string
	var materialsRaw []byte
	if err := row.Scan(&p.ID, &p.PermitNumber, &p.Date, &p.Region, &p.Location, &p.CarrierName, &p.CarrierID, &requestType, &p.VehiclePlate, &materialsRaw, &p.ClosedBy, &p.ClosedAt, &p.ClosedByName, &p.CanReopen, &p.CreatedBy, &p.CreatedAt); err != nil {
		return Permit{}, err
	}
	p.RequestType = RequestType(requestType)
	if len(materialsRaw) > 0 {
		if err := json.Unmarshal(materialsRaw, &p.Materials); err != nil {
			return Permit{}, err
		}
	}
	return p, nil
}

// GetPermit fetches a permit by id.
func (r *PGRepository) GetPermit(ctx context.Context, id uuid.UUID) (Permit, error) {
	p, err := scanPermit(r.pool.QueryRow(ctx, `SELECT `+permitColumns+` FROM permits WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Permit{}, shared.ErrNotFound
		}
		return Permit{}, err
	}
	return p, nil
}

// ListPermits returns permits matching the filter, newest first. The region
// filter is applied in SQL so out-of-scope rows never leave storage.
func (r *PGRepository) ListPermits(ctx context.Context, filter ListFilter) ([]Permit, error) {
	query := `SELECT ` + permitColumns + ` FROM permits WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if !filter.AllRegions {
		if len(filter.Regions) == 0 {
			return nil, nil
		}
		query += ` AND region = ANY(` + arg(filter.Regions) + `)`
	}
	if filter.Region != "" {
		query += ` AND region = ` + arg(filter.Region)
	}
	if filter.RequestType != "" {
		query += ` AND request_type = ` + arg(filter.RequestType)
	}
	if filter.OpenOnly {
		query += ` AND closed_at IS NULL`
	}
	if filter.ClosedOnly {
		query += ` AND closed_at IS NOT NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Permit
	for rows.Next() {
		p, err := scanPermit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPermit persists a new permit.
func (r *PGRepository) InsertPermit(ctx context.Context, p Permit) error {
	materialsRaw, err := json.Marshal(p.Materials)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO permits (id, permit_number, date, region, location, carrier_name, carrier_id, request_type, vehicle_plate, materials, can_reopen, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())`,
		p.ID, p.PermitNumber, p.Date, p.Region, p.Location, p.CarrierName, p.CarrierID, string(p.RequestType), p.VehiclePlate, materialsRaw, p.CanReopen, p.CreatedBy)
	return shared.MapPgError(err, permitConstraints)
}

// UpdatePermit overwrites the editable fields of an open permit. The guard
// against closed rows is repeated here so the check and the write share one
// statement.
func (r *PGRepository) UpdatePermit(ctx context.Context, p Permit) error {
	materialsRaw, err := json.Marshal(p.Materials)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE permits
		SET permit_number = $2, date = $3, region = $4, location = $5, carrier_name = $6, carrier_id = $7, request_type = $8, vehicle_plate = $9, materials = $10, can_reopen = $11
		WHERE id = $1 AND closed_at IS NULL`,
		p.ID, p.PermitNumber, p.Date, p.Region, p.Location, p.CarrierName, p.CarrierID, string(p.RequestType), p.VehiclePlate, materialsRaw, p.CanReopen)
	if err != nil {
		return shared.MapPgError(err, permitConstraints)
	}
	if tag.RowsAffected() == 0 {
		return shared.NewConstraintError("closed permits cannot be edited")
	}
	return nil
}

// UpdateLifecycle writes only the close/reopen columns.
func (r *PGRepository) UpdateLifecycle(ctx context.Context, p Permit) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE permits SET closed_by = $2, closed_at = $3, closed_by_name = $4 WHERE id = $1`,
		p.ID, p.ClosedBy, p.ClosedAt, p.ClosedByName)
	if err != nil {
		return shared.MapPgError(err, permitConstraints)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeletePermit removes a permit.
func (r *PGRepository) DeletePermit(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM permits WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
