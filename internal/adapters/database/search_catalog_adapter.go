package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
	"github.com/medbook/backend/internal/infrastructure/clients/postgres"
	"github.com/medbook/backend/internal/infrastructure/observability"
	apperrors "github.com/medbook/backend/pkg/errors"
)

// SearchCatalogAdapter implements SearchCatalogRepository. Each list call
// loads the full candidate set, capped by the filter limit, for in-memory ranking.
type SearchCatalogAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewSearchCatalogAdapter creates a new catalog adapter
func NewSearchCatalogAdapter(client *postgres.Client) repositories.SearchCatalogRepository {
	return &SearchCatalogAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func (a *SearchCatalogAdapter) listQuery(table string, filter repositories.CatalogFilter, columns ...interface{}) (string, []interface{}, error) {
	ds := a.db.Select(columns...).From(table).Order(goqu.I("id").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	return ds.ToSQL()
}

// ListTreatments loads treatments with their bilingual text and embeddings.
func (a *SearchCatalogAdapter) ListTreatments(ctx context.Context, filter repositories.CatalogFilter) (_ []*entities.Treatment, err error) {
	ctx, done := observability.TraceDBQuery(ctx, "list_treatments")
	defer func() { done(err) }()

	query, args, err := a.listQuery("treatments", filter,
		"id", "name", "name_sv", "benefits", "benefits_sv", "description", "description_sv",
		"concerns", "embeddings", "name_embeddings",
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list treatments", err)
	}
	defer rows.Close()

	treatments := make([]*entities.Treatment, 0)
	for rows.Next() {
		t := &entities.Treatment{}
		var nameSV, benefits, benefitsSV, description, descriptionSV sql.NullString

		err := rows.Scan(
			&t.ID,
			&t.Name,
			&nameSV,
			&benefits,
			&benefitsSV,
			&description,
			&descriptionSV,
			pq.Array(&t.Concerns),
			pq.Array(&t.Embeddings),
			pq.Array(&t.NameEmbeddings),
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan treatment", err)
		}

		t.NameSV = nameSV.String
		t.Benefits = benefits.String
		t.BenefitsSV = benefitsSV.String
		t.Description = description.String
		t.DescriptionSV = descriptionSV.String
		treatments = append(treatments, t)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate treatments", err)
	}

	return treatments, nil
}

// ListDoctors loads doctors with their clinic and offered treatments.
func (a *SearchCatalogAdapter) ListDoctors(ctx context.Context, filter repositories.CatalogFilter) (_ []*entities.Doctor, err error) {
	ctx, done := observability.TraceDBQuery(ctx, "list_doctors")
	defer func() { done(err) }()

	query, args, err := a.listQuery("doctors", filter,
		"id", "name", "specialization", "clinic_name", "address",
		"treatments", "treatments_sv", "embeddings",
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list doctors", err)
	}
	defer rows.Close()

	doctors := make([]*entities.Doctor, 0)
	for rows.Next() {
		d := &entities.Doctor{}
		var specialization, clinicName, address sql.NullString
		var treatments, treatmentsSV []string

		err := rows.Scan(
			&d.ID,
			&d.Name,
			&specialization,
			&clinicName,
			&address,
			pq.Array(&treatments),
			pq.Array(&treatmentsSV),
			pq.Array(&d.Embeddings),
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan doctor", err)
		}

		d.Specialization = specialization.String
		d.ClinicName = clinicName.String
		d.Address = address.String
		d.Treatments = zipTranslatedNames(treatments, treatmentsSV)
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate doctors", err)
	}

	return doctors, nil
}

// ListClinics loads clinics with their offered treatments.
func (a *SearchCatalogAdapter) ListClinics(ctx context.Context, filter repositories.CatalogFilter) (_ []*entities.Clinic, err error) {
	ctx, done := observability.TraceDBQuery(ctx, "list_clinics")
	defer func() { done(err) }()

	query, args, err := a.listQuery("clinics", filter,
		"id", "name", "address", "description", "treatments", "treatments_sv", "embeddings",
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list clinics", err)
	}
	defer rows.Close()

	clinics := make([]*entities.Clinic, 0)
	for rows.Next() {
		c := &entities.Clinic{}
		var address, description sql.NullString
		var treatments, treatmentsSV []string

		err := rows.Scan(
			&c.ID,
			&c.Name,
			&address,
			&description,
			pq.Array(&treatments),
			pq.Array(&treatmentsSV),
			pq.Array(&c.Embeddings),
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan clinic", err)
		}

		c.Address = address.String
		c.Description = description.String
		c.Treatments = zipTranslatedNames(treatments, treatmentsSV)
		clinics = append(clinics, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate clinics", err)
	}

	return clinics, nil
}

// ListDevices loads devices. Devices carry no embeddings; they are only
// ranked through the LLM path.
func (a *SearchCatalogAdapter) ListDevices(ctx context.Context, filter repositories.CatalogFilter) (_ []*entities.Device, err error) {
	ctx, done := observability.TraceDBQuery(ctx, "list_devices")
	defer func() { done(err) }()

	query, args, err := a.listQuery("devices", filter,
		"id", "name", "name_sv", "category", "description", "description_sv",
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list devices", err)
	}
	defer rows.Close()

	devices := make([]*entities.Device, 0)
	for rows.Next() {
		d := &entities.Device{}
		var nameSV, category, description, descriptionSV sql.NullString

		err := rows.Scan(&d.ID, &d.Name, &nameSV, &category, &description, &descriptionSV)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan device", err)
		}

		d.NameSV = nameSV.String
		d.Category = category.String
		d.Description = description.String
		d.DescriptionSV = descriptionSV.String
		devices = append(devices, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate devices", err)
	}

	return devices, nil
}

// zipTranslatedNames pairs English names with their Swedish counterparts by
// position. Missing Swedish entries stay empty.
func zipTranslatedNames(en, sv []string) []entities.TranslatedName {
	if len(en) == 0 {
		return nil
	}
	names := make([]entities.TranslatedName, len(en))
	for i, name := range en {
		names[i].Name = name
		if i < len(sv) {
			names[i].NameSV = sv[i]
		}
	}
	return names
}
