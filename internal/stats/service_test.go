package stats

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/Nbras002/MHV-PS/internal/authz"
	"github.com/Nbras002/MHV-PS/internal/rbac"
	"github.com/Nbras002/MHV-PS/internal/shared"
)

type countingRepo struct {
	calls   int
	summary Summary
}

func (r *countingRepo) Summary(ctx context.Context) (Summary, error) {
	r.calls++
	return r.summary, nil
}

type callerDirectory map[uuid.UUID]authz.Caller

func (d callerDirectory) ResolveCaller(ctx context.Context, id uuid.UUID) (authz.Caller, error) {
	caller, ok := d[id]
	if !ok {
		return authz.Caller{}, shared.ErrNotFound
	}
	return caller, nil
}

func addCaller(directory callerDirectory, role rbac.Role) uuid.UUID {
	id := uuid.New()
	directory[id] = authz.Caller{
		ID:           id,
		Role:         role,
		Regions:      []string{"headquarters"},
		Capabilities: rbac.DefaultCapabilities(role),
	}
	return id
}

func newStatsFixture(t *testing.T) (*Service, *countingRepo, callerDirectory) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := &countingRepo{summary: Summary{
		TotalPermits:  12,
		OpenPermits:   7,
		ClosedPermits: 5,
		ByRegion:      []RegionCount{{Region: "riyadh", Count: 8}, {Region: "jeddah", Count: 4}},
		ByRequestType: []TypeCount{{RequestType: "material_entrance", Count: 12}},
	}}
	directory := callerDirectory{}
	service := NewService(repo, NewCache(client, time.Minute), authz.NewGuard(directory))
	return service, repo, directory
}

func TestSummaryRequiresCapability(t *testing.T) {
	service, _, directory := newStatsFixture(t)
	ctx := context.Background()
	observer := addCaller(directory, rbac.RoleObserver)

	_, err := service.Summary(ctx, observer)
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestSummaryServesFromCacheAfterFirstRead(t *testing.T) {
	service, repo, directory := newStatsFixture(t)
	ctx := context.Background()
	manager := addCaller(directory, rbac.RoleManager)

	first, err := service.Summary(ctx, manager)
	require.NoError(t, err)
	require.Equal(t, 12, first.TotalPermits)
	require.Equal(t, 1, repo.calls)

	second, err := service.Summary(ctx, manager)
	require.NoError(t, err)
	require.Equal(t, first.TotalPermits, second.TotalPermits)
	require.Equal(t, first.ByRegion, second.ByRegion)
	require.Equal(t, 1, repo.calls, "second read should hit the cache")
}

func TestRefreshRepopulatesCache(t *testing.T) {
	service, repo, directory := newStatsFixture(t)
	ctx := context.Background()
	manager := addCaller(directory, rbac.RoleManager)

	_, err := service.Summary(ctx, manager)
	require.NoError(t, err)

	repo.summary.TotalPermits = 99
	refreshed, err := service.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, 99, refreshed.TotalPermits)
	require.False(t, refreshed.GeneratedAt.IsZero())

	cached, err := service.Summary(ctx, manager)
	require.NoError(t, err)
	require.Equal(t, 99, cached.TotalPermits)
	require.Equal(t, 2, repo.calls)
}

func TestSummaryWithoutCacheHitsStorage(t *testing.T) {
	repo := &countingRepo{summary: Summary{TotalPermits: 3}}
	directory := callerDirectory{}
	service := NewService(repo, nil, authz.NewGuard(directory))
	admin := addCaller(directory, rbac.RoleAdmin)

	_, err := service.Summary(context.Background(), admin)
	require.NoError(t, err)
	_, err = service.Summary(context.Background(), admin)
	require.NoError(t, err)
	require.Equal(t, 2, repo.calls)
}
