package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medbook/backend/internal/api/handlers"
	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
)

type emptyCatalog struct{}

func (emptyCatalog) ListTreatments(ctx context.Context, filter repositories.CatalogFilter) ([]*entities.Treatment, error) {
	return []*entities.Treatment{}, nil
}

func (emptyCatalog) ListDoctors(ctx context.Context, filter repositories.CatalogFilter) ([]*entities.Doctor, error) {
	return []*entities.Doctor{}, nil
}

func (emptyCatalog) ListClinics(ctx context.Context, filter repositories.CatalogFilter) ([]*entities.Clinic, error) {
	return []*entities.Clinic{}, nil
}

func (emptyCatalog) ListDevices(ctx context.Context, filter repositories.CatalogFilter) ([]*entities.Device, error) {
	return []*entities.Device{}, nil
}

func TestRouter_Routes(t *testing.T) {
	// none of these requests reach the search service
	search := handlers.NewSearchHandler(nil, emptyCatalog{}, nil, 0)
	health := handlers.NewHealthHandler(nil)
	handler := NewRouter(search, health, nil, nil).SetupRoutes()

	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/search/devices", http.StatusBadRequest},
		{http.MethodGet, "/api/analytics/zero-result-queries", http.StatusServiceUnavailable},
		{http.MethodDelete, "/api/search/treatments", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, rec.Code, tt.method+" "+tt.path)
	}
}
