package repositories

import (
	"context"

	"github.com/medbook/backend/internal/domain/entities"
)

// CatalogFilter bounds how many candidate rows are loaded for ranking.
type CatalogFilter struct {
	Limit int
}

// SearchCatalogRepository loads the candidate rows the search service ranks.
type SearchCatalogRepository interface {
	ListTreatments(ctx context.Context, filter CatalogFilter) ([]*entities.Treatment, error)
	ListDoctors(ctx context.Context, filter CatalogFilter) ([]*entities.Doctor, error)
	ListClinics(ctx context.Context, filter CatalogFilter) ([]*entities.Clinic, error)
	ListDevices(ctx context.Context, filter CatalogFilter) ([]*entities.Device, error)
}
