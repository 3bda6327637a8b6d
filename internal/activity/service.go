package activity

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Result bundles a page of entries with pagination metadata.
type Result struct {
	Entries []Entry
	Paging  shared.Pagination
}

// Service coordinates activity log access behind the authorization guard.
type Service struct {
	repo  Repository
	guard *authz.Guard
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, guard *authz.Guard) *Service {
	return &Service{repo: repo, guard: guard, now: time.Now}
}

// RecordInput carries a new log entry. UserID must equal the caller's id;
// name and username snapshots are taken from the resolved caller, never from
// the input.
type RecordInput struct {
	UserID    uuid.UUID
	Action    string
	Details   string
	IP        string
	UserAgent string
}

// Record appends an entry attributed to the caller.
func (s *Service) Record(ctx context.Context, callerID uuid.UUID, in RecordInput) (Entry, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Entry{}, err
	}
	if err := authz.RequireActivityInsert(caller, in.UserID); err != nil {
		return Entry{}, err
	}
	action := strings.TrimSpace(in.Action)
	if action == "" {
		return Entry{}, shared.NewValidationError("action", "is required")
	}

	entry := Entry{
		ID:        uuid.New(),
		UserID:    caller.ID,
		Name:      caller.Name,
		Username:  caller.Username,
		Action:    action,
		Details:   strings.TrimSpace(in.Details),
		Timestamp: s.now().UTC(),
		IP:        in.IP,
		UserAgent: in.UserAgent,
	}
	if err := s.repo.InsertEntry(ctx, entry); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns a page of the log. Only admin, manager and security officer
// callers see entries; everyone else gets an empty page.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, filter Filter) (Result, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Result{}, err
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 20
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if !authz.CanReadActivity(caller) {
		// Reads are filtered, never denied: callers outside the reader
		// roles see an empty log, the same as an empty table.
		return Result{Paging: shared.NewPagination(filter.Page, filter.PerPage, 0)}, nil
	}
	entries, total, err := s.repo.ListEntries(ctx, filter)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Entries: entries,
		Paging:  shared.NewPagination(filter.Page, filter.PerPage, total),
	}, nil
}
