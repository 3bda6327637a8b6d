package permits

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/regions"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

// Service wraps permit business rules behind the authorization guard. All
// operations resolve the caller fresh before touching the store.
type Service struct {
	repo  Repository
	guard *authz.Guard
	now   func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository, guard *authz.Guard) *Service {
	return &Service{repo: repo, guard: guard, now: time.Now}
}

// PermitInput carries the writable permit fields.
type PermitInput struct {
	PermitNumber string
	Date         time.Time
	Region       string
	Location     string
	CarrierName  string
	CarrierID    string
	RequestType  string
	VehiclePlate string
	Materials    []Material
	CanReopen    *bool
}

// ListOptions narrows listings from the caller's side. The region visibility
// filter is applied on top regardless.
type ListOptions struct {
	Region      string
	RequestType string
	OpenOnly    bool
	ClosedOnly  bool
}

// Create makes a new open permit owned by the caller.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, in PermitInput) (Permit, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Permit{}, err
	}
	if err := authz.RequirePermitCreate(caller, in.Region); err != nil {
		return Permit{}, err
	}

	permit := Permit{
		ID:        uuid.New(),
		CanReopen: true,
		CreatedBy: caller.ID,
	}
	if err := applyInput(&permit, in); err != nil {
		return Permit{}, err
	}
	if err := s.repo.InsertPermit(ctx, permit); err != nil {
		return Permit{}, err
	}
	return permit, nil
}

// Get fetches a single permit. Rows outside the caller's visibility read as
// not found; existence is never revealed to unauthorized callers.
func (s *Service) Get(ctx context.Context, callerID, id uuid.UUID) (Permit, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Permit{}, err
	}
	permit, err := s.repo.GetPermit(ctx, id)
	if err != nil {
		return Permit{}, err
	}
	if !authz.CanReadPermit(caller, permit.Region) {
		return Permit{}, shared.ErrNotFound
	}
	return permit, nil
}

// List returns exactly the permits visible to the caller: rows in the
// caller's region set, or every row for admins and managers.
func (s *Service) List(ctx context.Context, callerID uuid.UUID, opts ListOptions) ([]Permit, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	filter := ListFilter{
		AllRegions:  authz.ReadsAllRegions(caller),
		Regions:     caller.Regions,
		Region:      opts.Region,
		RequestType: opts.RequestType,
		OpenOnly:    opts.OpenOnly,
		ClosedOnly:  opts.ClosedOnly,
	}
	return s.repo.ListPermits(ctx, filter)
}

// Update edits an open permit. Closed permits are immutable outside the
// reopen transition.
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, in PermitInput) (Permit, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Permit{}, err
	}
	permit, err := s.repo.GetPermit(ctx, id)
	if err != nil {
		return Permit{}, err
	}
	if !authz.CanReadPermit(caller, permit.Region) {
		return Permit{}, shared.ErrNotFound
	}
	if err := authz.RequirePermitUpdate(caller, permit.Region, permit.ClosedAt); err != nil {
		return Permit{}, err
	}
	if in.Region != "" && in.Region != permit.Region {
		// Moving a permit between regions needs create rights in the target.
		if err := authz.RequirePermitCreate(caller, in.Region); err != nil {
			return Permit{}, err
		}
	}
	if err := applyInput(&permit, in); err != nil {
		return Permit{}, err
	}
	if err := s.repo.UpdatePermit(ctx, permit); err != nil {
		return Permit{}, err
	}
	return permit, nil
}

// Delete removes a permit. Admin only; deletion is independent of lifecycle
// state.
func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return err
	}
	if err := authz.RequirePermitDelete(caller); err != nil {
		return err
	}
	return s.repo.DeletePermit(ctx, id)
}

// Close transitions an open permit to closed, stamping the caller's identity
// and the close time.
func (s *Service) Close(ctx context.Context, callerID, id uuid.UUID) (Permit, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Permit{}, err
	}
	permit, err := s.repo.GetPermit(ctx, id)
	if err != nil {
		return Permit{}, err
	}
	if !authz.CanReadPermit(caller, permit.Region) {
		return Permit{}, shared.ErrNotFound
	}
	if err := authz.RequirePermitClose(caller); err != nil {
		return Permit{}, err
	}
	if permit.Closed() {
		return Permit{}, shared.NewConstraintError("permit is already closed")
	}

	closedAt := s.now().UTC()
	closedBy := caller.ID
	permit.ClosedBy = &closedBy
	permit.ClosedAt = &closedAt
	permit.ClosedByName = caller.Name
	if err := s.repo.UpdateLifecycle(ctx, permit); err != nil {
		return Permit{}, err
	}
	return permit, nil
}

// Reopen transitions a closed permit back to open. The close history is
// cleared; it is not recoverable after reopening.
func (s *Service) Reopen(ctx context.Context, callerID, id uuid.UUID) (Permit, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Permit{}, err
	}
	permit, err := s.repo.GetPermit(ctx, id)
	if err != nil {
		return Permit{}, err
	}
	if !authz.CanReadPermit(caller, permit.Region) {
		return Permit{}, shared.ErrNotFound
	}
	if !permit.Closed() {
		return Permit{}, shared.NewConstraintError("permit is not closed")
	}
	if !permit.CanReopen {
		return Permit{}, shared.NewConstraintError("permit does not allow reopening")
	}
	if err := authz.RequirePermitReopen(caller, permit.ClosedBy); err != nil {
		return Permit{}, err
	}

	permit.ClosedBy = nil
	permit.ClosedAt = nil
	permit.ClosedByName = ""
	if err := s.repo.UpdateLifecycle(ctx, permit); err != nil {
		return Permit{}, err
	}
	return permit, nil
}

func applyInput(permit *Permit, in PermitInput) error {
	number := strings.TrimSpace(in.PermitNumber)
	if number == "" {
		return shared.NewValidationError("permit_number", "is required")
	}
	if in.Region == "" {
		return shared.NewValidationError("region", "is required")
	}
	if !regions.Exists(in.Region) {
		return shared.NewValidationError("region", "unknown region code "+in.Region)
	}
	requestType, err := ParseRequestType(in.RequestType)
	if err != nil {
		return shared.NewValidationError("request_type", "must be one of the five movement codes")
	}

	permit.PermitNumber = number
	permit.Date = in.Date
	permit.Region = in.Region
	permit.Location = strings.TrimSpace(in.Location)
	permit.CarrierName = strings.TrimSpace(in.CarrierName)
	permit.CarrierID = strings.TrimSpace(in.CarrierID)
	permit.RequestType = requestType
	permit.VehiclePlate = strings.TrimSpace(in.VehiclePlate)
	permit.Materials = in.Materials
	if in.CanReopen != nil {
		permit.CanReopen = *in.CanReopen
	}
	return nil
}
