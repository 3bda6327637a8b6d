package stats

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository computes aggregates directly in PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// Summary runs the aggregate queries.
func (r *PGRepository) Summary(ctx context.Context) (Summary, error) {
	var summary Summary
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE closed_at IS NULL),
		       COUNT(*) FILTER (WHERE closed_at IS NOT NULL)
		FROM permits`).
		Scan(&summary.TotalPermits, &summary.OpenPermits, &summary.ClosedPermits)
	if err != nil {
		return Summary{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT region, COUNT(*) FROM permits GROUP BY region ORDER BY region`)
	if err != nil {
		return Summary{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc RegionCount
		if err := rows.Scan(&rc.Region, &rc.Count); err != nil {
			return Summary{}, err
		}
		summary.ByRegion = append(summary.ByRegion, rc)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	typeRows, err := r.pool.Query(ctx, `SELECT request_type, COUNT(*) FROM permits GROUP BY request_type ORDER BY request_type`)
	if err != nil {
		return Summary{}, err
	}
	defer typeRows.Close()
	for typeRows.Next() {
		var tc TypeCount
		if err := typeRows.Scan(&tc.RequestType, &tc.Count); err != nil {
			return Summary{}, err
		}
		summary.ByRequestType = append(summary.ByRequestType, tc)
	}
	return summary, typeRows.Err()
}

var _ Repository = (*PGRepository)(nil)
