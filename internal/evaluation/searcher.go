package evaluation

import (
	"context"
	"fmt"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
)

// RankingService is the part of the search service an evaluation drives.
type RankingService interface {
	TreatmentsVectorResult(ctx context.Context, rows []*entities.Treatment, search string, opts entities.SearchOptions) ([]*entities.Treatment, error)
	DoctorsVectorResult(ctx context.Context, rows []*entities.Doctor, search string, opts entities.SearchOptions) ([]*entities.Doctor, error)
	ClinicsVectorResult(ctx context.Context, rows []*entities.Clinic, search string, opts entities.SearchOptions) ([]*entities.Clinic, error)
	DoctorsAIResult(ctx context.Context, rows []*entities.Doctor, search string, lang entities.Language) ([]*entities.Doctor, error)
	ClinicsAIResult(ctx context.Context, rows []*entities.Clinic, search string, lang entities.Language) ([]*entities.Clinic, error)
	DevicesAIResult(ctx context.Context, rows []*entities.Device, search string, opts entities.SearchOptions) ([]*entities.Device, error)
}

// ServiceSearcher answers golden queries with the production ranking over
// rows loaded from the catalog. Each catalog is loaded once per searcher.
// Not safe for concurrent use.
type ServiceSearcher struct {
	service RankingService
	catalog repositories.SearchCatalogRepository
	filter  repositories.CatalogFilter
	opts    entities.SearchOptions

	treatments []*entities.Treatment
	doctors    []*entities.Doctor
	clinics    []*entities.Clinic
	devices    []*entities.Device
}

// NewServiceSearcher creates a searcher. A nil threshold uses the service
// default.
func NewServiceSearcher(service RankingService, catalog repositories.SearchCatalogRepository, candidateLimit int, threshold *float64) *ServiceSearcher {
	return &ServiceSearcher{
		service: service,
		catalog: catalog,
		filter:  repositories.CatalogFilter{Limit: candidateLimit},
		opts:    entities.SearchOptions{Threshold: threshold},
	}
}

func (s *ServiceSearcher) Search(ctx context.Context, q GoldenQuery) ([]string, error) {
	opts := s.opts
	opts.Language = entities.ParseLanguage(q.Language)
	ai := q.Mode == entities.SearchModeAI

	switch q.Entity {
	case entities.SearchEntityTreatment:
		if s.treatments == nil {
			rows, err := s.catalog.ListTreatments(ctx, s.filter)
			if err != nil {
				return nil, err
			}
			s.treatments = rows
		}
		results, err := s.service.TreatmentsVectorResult(ctx, s.treatments, q.Query, opts)
		return idsOf(results, func(t *entities.Treatment) string { return t.ID }), err

	case entities.SearchEntityDoctor:
		if s.doctors == nil {
			rows, err := s.catalog.ListDoctors(ctx, s.filter)
			if err != nil {
				return nil, err
			}
			s.doctors = rows
		}
		var results []*entities.Doctor
		var err error
		if ai {
			results, err = s.service.DoctorsAIResult(ctx, s.doctors, q.Query, opts.Language)
		} else {
			results, err = s.service.DoctorsVectorResult(ctx, s.doctors, q.Query, opts)
		}
		return idsOf(results, func(d *entities.Doctor) string { return d.ID }), err

	case entities.SearchEntityClinic:
		if s.clinics == nil {
			rows, err := s.catalog.ListClinics(ctx, s.filter)
			if err != nil {
				return nil, err
			}
			s.clinics = rows
		}
		var results []*entities.Clinic
		var err error
		if ai {
			results, err = s.service.ClinicsAIResult(ctx, s.clinics, q.Query, opts.Language)
		} else {
			results, err = s.service.ClinicsVectorResult(ctx, s.clinics, q.Query, opts)
		}
		return idsOf(results, func(c *entities.Clinic) string { return c.ID }), err

	case entities.SearchEntityDevice:
		if s.devices == nil {
			rows, err := s.catalog.ListDevices(ctx, s.filter)
			if err != nil {
				return nil, err
			}
			s.devices = rows
		}
		results, err := s.service.DevicesAIResult(ctx, s.devices, q.Query, opts)
		return idsOf(results, func(d *entities.Device) string { return d.ID }), err
	}

	return nil, fmt.Errorf("unsupported entity %q", q.Entity)
}

func idsOf[T any](rows []T, id func(T) string) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = id(row)
	}
	return ids
}
