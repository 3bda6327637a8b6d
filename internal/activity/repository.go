package activity

import (
	"context"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Repository defines persistence for the activity log. The log is
// append-only; no update or delete operations exist.
type Repository interface {
	InsertEntry(ctx context.Context, entry Entry) error
	ListEntries(ctx context.Context, filter Filter) ([]Entry, int, error)
}

var activityConstraints = map[string]string{
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

// InsertEntry appends a record.
func (r *PGRepository) InsertEntry(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO activity_logs (id, user_id, name, username, action, details, timestamp, ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.UserID, entry.Name, entry.Username, entry.Action, entry.Details, entry.Timestamp, entry.IP, entry.UserAgent)
	return shared.MapPgError(err, activityConstraints)
}

// ListEntries returns a page of records, newest first, with the total count.
func (r *PGRepository) ListEntries(ctx context.Context, filter Filter) ([]Entry, int, error) {
	var conditions []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	if filter.Username != "" {
		conditions = append(conditions, "username = "+arg(filter.Username))
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = "+arg(filter.Action))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "timestamp >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "timestamp <= "+arg(filter.To))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM activity_logs`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	query := `SELECT id, user_id, name, username, action, details, timestamp, ip, user_agent FROM activity_logs` +
		where + ` ORDER BY timestamp DESC LIMIT ` + arg(perPage) + ` OFFSET ` + arg((page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Name, &e.Username, &e.Action, &e.Details, &e.Timestamp, &e.IP, &e.UserAgent); err != nil {
			return nil, 0, err
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

var _ Repository = (*PGRepository)(nil)
