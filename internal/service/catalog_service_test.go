package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/ticket-desk/internal/catalog"
	"github.com/spec-kit/ticket-desk/internal/domain"
)

type stubStudios struct {
	studios []domain.Studio
	err     error
}

func (s stubStudios) Studios(ctx context.Context) ([]domain.Studio, error) {
	return s.studios, s.err
}

func TestCatalogServiceStudiosFallback(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	live := []domain.Studio{{ID: "9", Name: "Live Studio"}}
	svc := NewCatalogService(cat, nil, stubStudios{studios: live}, nil, nil)
	assert.Equal(t, live, svc.Studios(context.Background()))

	svc = NewCatalogService(cat, nil, stubStudios{}, nil, nil)
	assert.Equal(t, cat.FallbackStudios(), svc.Studios(context.Background()))

	svc = NewCatalogService(cat, nil, stubStudios{err: errors.New("down")}, nil, nil)
	assert.Equal(t, cat.FallbackStudios(), svc.Studios(context.Background()))
}

func TestCatalogServiceTemplatesAndCategories(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	svc := NewCatalogService(cat, nil, nil, nil, nil)
	templates, err := svc.Templates(context.Background())
	require.NoError(t, err)
	assert.Len(t, templates, len(cat.Templates))
	assert.Len(t, svc.Categories(), 8)

	svc = NewCatalogService(cat, fakeTemplates{"x": {ID: "x", Name: "X"}}, nil, nil, nil)
	templates, err = svc.Templates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "x", templates[0].ID)
}
