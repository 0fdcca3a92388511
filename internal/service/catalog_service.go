package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-desk/internal/catalog"
	"github.com/spec-kit/ticket-desk/internal/domain"
	"github.com/spec-kit/ticket-desk/internal/observability"
)

// StudioSource lists studios from the backend.
type StudioSource interface {
	Studios(ctx context.Context) ([]domain.Studio, error)
}

// CatalogService serves the lookups shown by the composer: templates,
// categories and studios.
type CatalogService struct {
	catalog   *catalog.Catalog
	templates TemplateSource
	studios   StudioSource
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewCatalogService constructs the service.
func NewCatalogService(cat *catalog.Catalog, templates TemplateSource, studios StudioSource, logger *zap.Logger, metrics *observability.Metrics) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		catalog:   cat,
		templates: templates,
		studios:   studios,
		logger:    logger,
		metrics:   metrics,
	}
}

// Templates returns every template.
func (s *CatalogService) Templates(ctx context.Context) ([]domain.Template, error) {
	if s.templates == nil {
		return s.catalog.Templates, nil
	}
	return s.templates.List(ctx)
}

// Categories returns the static category list.
func (s *CatalogService) Categories() []domain.Category {
	if s.catalog == nil {
		return nil
	}
	return append([]domain.Category(nil), s.catalog.Categories...)
}

// Studios returns the backend studio list. An empty or failed response falls
// back to the static list.
func (s *CatalogService) Studios(ctx context.Context) []domain.Studio {
	if s.studios != nil {
		studios, err := s.studios.Studios(ctx)
		if err == nil && len(studios) > 0 {
			return studios
		}
		if err != nil {
			s.metrics.LookupFailure("studios")
			s.logger.Warn("failed to fetch studios, using fallback list", zap.Error(err))
		}
	}
	return s.catalog.FallbackStudios()
}
