package permits

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

type memoryRepo struct {
	permits map[uuid.UUID]Permit
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{permits: make(map[uuid.UUID]Permit)}
}

func (r *memoryRepo) GetPermit(ctx context.Context, id uuid.UUID) (Permit, error) {
	p, ok := r.permits[id]
	if !ok {
		return Permit{}, shared.ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListPermits(ctx context.Context, filter ListFilter) ([]Permit, error) {
	var out []Permit
	for _, p := range r.permits {
		if !filter.AllRegions {
			visible := false
			for _, region := range filter.Regions {
				if p.Region == region {
					visible = true
					break
				}
			}
			if !visible {
				continue
			}
		}
		if filter.Region != "" && p.Region != filter.Region {
			continue
		}
		if filter.RequestType != "" && string(p.RequestType) != filter.RequestType {
			continue
		}
		if filter.OpenOnly && p.Closed() {
			continue
		}
		if filter.ClosedOnly && !p.Closed() {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) InsertPermit(ctx context.Context, p Permit) error {
	for _, existing := range r.permits {
		if existing.PermitNumber == p.PermitNumber {
			return shared.NewValidationError("permit_number", "already exists")
		}
	}
	r.permits[p.ID] = p
	return nil
}

func (r *memoryRepo) UpdatePermit(ctx context.Context, p Permit) error {
	current, ok := r.permits[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	if current.Closed() {
		return shared.NewConstraintError("closed permits cannot be edited")
	}
	p.ClosedBy = current.ClosedBy
	p.ClosedAt = current.ClosedAt
	p.ClosedByName = current.ClosedByName
	r.permits[p.ID] = p
	return nil
}

func (r *memoryRepo) UpdateLifecycle(ctx context.Context, p Permit) error {
	current, ok := r.permits[p.ID]
	if !ok {
		return shared.ErrNotFound
	}
	current.ClosedBy = p.ClosedBy
	current.ClosedAt = p.ClosedAt
	current.ClosedByName = p.ClosedByName
	r.permits[p.ID] = current
	return nil
}

func (r *memoryRepo) DeletePermit(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.permits[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.permits, id)
	return nil
}

type callerDirectory map[uuid.UUID]authz.Caller

func (d callerDirectory) ResolveCaller(ctx context.Context, id uuid.UUID) (authz.Caller, error) {
	caller, ok := d[id]
	if !ok {
		return authz.Caller{}, shared.ErrNotFound
	}
	return caller, nil
}

type fixture struct {
	service   *Service
	repo      *memoryRepo
	directory callerDirectory
}

func newFixture() *fixture {
	repo := newMemoryRepo()
	directory := callerDirectory{}
	service := NewService(repo, authz.NewGuard(directory))
	return &fixture{service: service, repo: repo, directory: directory}
}

func (f *fixture) addCaller(role rbac.Role, regions ...string) uuid.UUID {
	id := uuid.New()
	f.directory[id] = authz.Caller{
		ID:           id,
		Username:     "user-" + id.String()[:8],
		Name:         "User " + id.String()[:8],
		Role:         role,
		Regions:      regions,
		Capabilities: rbac.DefaultCapabilities(role),
	}
	return id
}

func validInput(region string) PermitInput {
	return PermitInput{
		PermitNumber: "PN-" + uuid.NewString()[:8],
		Date:         time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		Region:       region,
		Location:     "Gate 3",
		CarrierName:  "Alpha Logistics",
		CarrierID:    "1029384756",
		RequestType:  string(RequestMaterialEntrance),
		VehiclePlate: "ABC 1234",
		Materials: []Material{
			{Description: "Steel pipes", Quantity: 40, Unit: "pcs"},
		},
	}
}

func TestCreateRequiresRoleAndRegion(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	admin := f.addCaller(rbac.RoleAdmin)
	manager := f.addCaller(rbac.RoleManager, "riyadh")
	officer := f.addCaller(rbac.RoleSecurityOfficer, "riyadh")
	observer := f.addCaller(rbac.RoleObserver, "riyadh")

	_, err := f.service.Create(ctx, admin, validInput("tabuk"))
	require.NoError(t, err)

	_, err = f.service.Create(ctx, manager, validInput("riyadh"))
	require.NoError(t, err)

	_, err = f.service.Create(ctx, manager, validInput("tabuk"))
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.service.Create(ctx, officer, validInput("riyadh"))
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.service.Create(ctx, observer, validInput("riyadh"))
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestCreateValidatesInput(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)

	in := validInput("riyadh")
	in.PermitNumber = "  "
	_, err := f.service.Create(ctx, admin, in)
	var validation *shared.ValidationError
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "permit_number", validation.Field)

	in = validInput("atlantis")
	_, err = f.service.Create(ctx, admin, in)
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "region", validation.Field)

	in = validInput("riyadh")
	in.RequestType = "teleportation"
	_, err = f.service.Create(ctx, admin, in)
	require.ErrorAs(t, err, &validation)
	require.Equal(t, "request_type", validation.Field)
}

func TestGetHidesOutOfRegionRows(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	observer := f.addCaller(rbac.RoleObserver, "jeddah")

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)

	_, err = f.service.Get(ctx, observer, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := f.service.Get(ctx, admin, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
}

func TestListScopesToCallerRegions(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	officer := f.addCaller(rbac.RoleSecurityOfficer, "riyadh", "jeddah")

	for _, region := range []string{"riyadh", "jeddah", "tabuk"} {
		_, err := f.service.Create(ctx, admin, validInput(region))
		require.NoError(t, err)
	}

	all, err := f.service.List(ctx, admin, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	scoped, err := f.service.List(ctx, officer, ListOptions{})
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	for _, p := range scoped {
		require.Contains(t, []string{"riyadh", "jeddah"}, p.Region)
	}
}

func TestUpdateRejectsClosedPermit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)
	_, err = f.service.Close(ctx, admin, created.ID)
	require.NoError(t, err)

	in := validInput("riyadh")
	in.PermitNumber = created.PermitNumber
	_, err = f.service.Update(ctx, admin, created.ID, in)
	var constraint *shared.ConstraintError
	require.ErrorAs(t, err, &constraint)
}

func TestUpdateRegionMoveNeedsTargetRights(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	manager := f.addCaller(rbac.RoleManager, "riyadh")

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)

	in := validInput("tabuk")
	in.PermitNumber = created.PermitNumber
	_, err = f.service.Update(ctx, manager, created.ID, in)
	require.ErrorIs(t, err, shared.ErrForbidden)

	updated, err := f.service.Update(ctx, admin, created.ID, in)
	require.NoError(t, err)
	require.Equal(t, "tabuk", updated.Region)
}

func TestDeleteAdminOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	manager := f.addCaller(rbac.RoleManager, "riyadh")

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)

	require.ErrorIs(t, f.service.Delete(ctx, manager, created.ID), shared.ErrForbidden)
	require.NoError(t, f.service.Delete(ctx, admin, created.ID))
	_, err = f.service.Get(ctx, admin, created.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCloseStampsCallerAndTime(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)

	frozen := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	f.service.now = func() time.Time { return frozen }

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)

	closed, err := f.service.Close(ctx, admin, created.ID)
	require.NoError(t, err)
	require.True(t, closed.Closed())
	require.Equal(t, admin, *closed.ClosedBy)
	require.Equal(t, frozen, *closed.ClosedAt)
	require.Equal(t, f.directory[admin].Name, closed.ClosedByName)

	_, err = f.service.Close(ctx, admin, created.ID)
	var constraint *shared.ConstraintError
	require.ErrorAs(t, err, &constraint)
}

func TestCloseRequiresCapability(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	observer := f.addCaller(rbac.RoleObserver, "riyadh")

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)

	_, err = f.service.Close(ctx, observer, created.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestReopenClearsCloseHistory(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)
	_, err = f.service.Close(ctx, admin, created.ID)
	require.NoError(t, err)

	reopened, err := f.service.Reopen(ctx, admin, created.ID)
	require.NoError(t, err)
	require.False(t, reopened.Closed())
	require.Nil(t, reopened.ClosedBy)
	require.Empty(t, reopened.ClosedByName)
}

func TestReopenOwnCloseOnlyWithoutReopenAny(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	officer := f.addCaller(rbac.RoleSecurityOfficer, "riyadh")
	otherOfficer := f.addCaller(rbac.RoleSecurityOfficer, "riyadh")

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)
	_, err = f.service.Close(ctx, officer, created.ID)
	require.NoError(t, err)

	_, err = f.service.Reopen(ctx, otherOfficer, created.ID)
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = f.service.Reopen(ctx, officer, created.ID)
	require.NoError(t, err)
}

func TestReopenHonorsCanReopenFlag(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)

	in := validInput("riyadh")
	off := false
	in.CanReopen = &off
	created, err := f.service.Create(ctx, admin, in)
	require.NoError(t, err)
	_, err = f.service.Close(ctx, admin, created.ID)
	require.NoError(t, err)

	_, err = f.service.Reopen(ctx, admin, created.ID)
	var constraint *shared.ConstraintError
	require.ErrorAs(t, err, &constraint)
}

func TestReopenRequiresClosedState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)

	created, err := f.service.Create(ctx, admin, validInput("riyadh"))
	require.NoError(t, err)

	_, err = f.service.Reopen(ctx, admin, created.ID)
	var constraint *shared.ConstraintError
	require.ErrorAs(t, err, &constraint)
}

func TestExportCSV(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	admin := f.addCaller(rbac.RoleAdmin)
	officer := f.addCaller(rbac.RoleSecurityOfficer, "riyadh")

	in := validInput("riyadh")
	in.PermitNumber = "PN-EXPORT-1"
	_, err := f.service.Create(ctx, admin, in)
	require.NoError(t, err)

	out, err := f.service.ExportCSV(ctx, admin, ListOptions{})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "permit_number")
	require.Contains(t, lines[1], "PN-EXPORT-1")
	require.Contains(t, lines[1], "Steel pipes x40 pcs")

	// Security officers lack the export capability by default.
	_, err = f.service.ExportCSV(ctx, officer, ListOptions{})
	require.ErrorIs(t, err, shared.ErrForbidden)
}
