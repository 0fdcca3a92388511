package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/cache"
)

// ListingBackend serves raw ticket listings.
type ListingBackend interface {
	ListTickets(ctx context.Context, rawQuery string) ([]byte, error)
	DashboardStats(ctx context.Context, rawQuery string) ([]byte, error)
}

// ListingService passes ticket listings through a short-lived cache that is
// invalidated whenever a ticket is submitted.
type ListingService struct {
	backend ListingBackend
	cache   cache.ListingCache
	logger  *zap.Logger
}

// NewListingService constructs the service. A nil cache disables caching.
func NewListingService(backend ListingBackend, listings cache.ListingCache, logger *zap.Logger) *ListingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListingService{backend: backend, cache: listings, logger: logger}
}

// Tickets returns the ticket list for the query.
func (s *ListingService) Tickets(ctx context.Context, rawQuery string) ([]byte, error) {
	return s.cached(ctx, cache.KindTickets, rawQuery, s.backend.ListTickets)
}

// Stats returns dashboard statistics for the query.
func (s *ListingService) Stats(ctx context.Context, rawQuery string) ([]byte, error) {
	return s.cached(ctx, cache.KindStats, rawQuery, s.backend.DashboardStats)
}

func (s *ListingService) cached(ctx context.Context, kind, key string, load func(context.Context, string) ([]byte, error)) ([]byte, error) {
	var (
		gen      int64
		writable bool
	)
	if s.cache != nil {
		body, g, ok, err := s.cache.Get(ctx, kind, key)
		if err != nil {
			s.logger.Warn("listing cache read failed", zap.String("kind", kind), zap.Error(err))
		} else if ok {
			return body, nil
		} else {
			gen, writable = g, true
		}
	}

	body, err := load(ctx, key)
	if err != nil {
		return nil, err
	}
	if writable {
		if err := s.cache.Set(ctx, kind, key, gen, body); err != nil {
			s.logger.Warn("listing cache write failed", zap.String("kind", kind), zap.Error(err))
		}
	}
	return body, nil
}
