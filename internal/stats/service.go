// Package stats computes permit aggregates for the statistics dashboard.
package stats

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Nbras002/MHV-PS/internal/authz"
)

// RegionCount is the permit tally for one region.
type RegionCount struct {
	Region string `json:"region"`
	Count  int    `json:"count"`
}

// TypeCount is the permit tally for one request type.
type TypeCount struct {
	RequestType string `json:"request_type"`
	Count       int    `json:"count"`
}

// Summary aggregates the permit store.
type Summary struct {
	TotalPermits  int           `json:"total_permits"`
	OpenPermits   int           `json:"open_permits"`
	ClosedPermits int           `json:"closed_permits"`
	ByRegion      []RegionCount `json:"by_region"`
	ByRequestType []TypeCount   `json:"by_request_type"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// Repository supplies the aggregate queries.
type Repository interface {
	Summary(ctx context.Context) (Summary, error)
}

// Service serves cached statistics behind the authorization guard.
type Service struct {
	repo  Repository
	cache *Cache
	guard *authz.Guard
}

// NewService constructs a Service. The cache may be nil, in which case every
// read hits storage.
func NewService(repo Repository, cache *Cache, guard *authz.Guard) *Service {
	return &Service{repo: repo, cache: cache, guard: guard}
}

// Summary returns the aggregate view for callers holding the statistics
// capability.
func (s *Service) Summary(ctx context.Context, callerID uuid.UUID) (Summary, error) {
	caller, err := s.guard.ResolveCaller(ctx, callerID)
	if err != nil {
		return Summary{}, err
	}
	if err := authz.RequireStatisticsView(caller); err != nil {
		return Summary{}, err
	}
	if s.cache != nil {
		if summary, ok, err := s.cache.Get(ctx); err == nil && ok {
			return summary, nil
		}
	}
	return s.Refresh(ctx)
}

// Refresh recomputes the summary and repopulates the cache. Called by the
// background warmup task and as the cache-miss path.
func (s *Service) Refresh(ctx context.Context) (Summary, error) {
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary.GeneratedAt = time.Now().UTC()
	if s.cache != nil {
		if err := s.cache.Set(ctx, summary); err != nil {
			return summary, err
		}
	}
	return summary, nil
}
