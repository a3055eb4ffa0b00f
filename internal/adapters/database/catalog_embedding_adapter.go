package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/lib/pq"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
	"github.com/medbook/backend/internal/infrastructure/clients/postgres"
	"github.com/medbook/backend/internal/infrastructure/observability"
	apperrors "github.com/medbook/backend/pkg/errors"
)

// CatalogEmbeddingAdapter implements CatalogEmbeddingRepository on the same
// tables the search catalog reads.
type CatalogEmbeddingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewCatalogEmbeddingAdapter creates a new catalog embedding adapter
func NewCatalogEmbeddingAdapter(client *postgres.Client) repositories.CatalogEmbeddingRepository {
	return &CatalogEmbeddingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

func embeddingTable(entity entities.SearchEntity) (string, error) {
	switch entity {
	case entities.SearchEntityTreatment:
		return "treatments", nil
	case entities.SearchEntityDoctor:
		return "doctors", nil
	case entities.SearchEntityClinic:
		return "clinics", nil
	}
	return "", apperrors.NewValidationError(fmt.Sprintf("%s rows have no embeddings", entity))
}

func (a *CatalogEmbeddingAdapter) ListMissingEmbeddings(ctx context.Context, entity entities.SearchEntity, afterID string, limit int) (_ []*entities.EmbeddingTarget, err error) {
	ctx, done := observability.TraceDBQuery(ctx, "list_missing_embeddings")
	defer func() { done(err) }()

	table, err := embeddingTable(entity)
	if err != nil {
		return nil, err
	}

	var columns []interface{}
	missing := exp.Expression(goqu.C("embeddings").IsNull())
	switch entity {
	case entities.SearchEntityTreatment:
		columns = []interface{}{"id", "name", "benefits", "description", "concerns"}
		missing = goqu.Or(goqu.C("embeddings").IsNull(), goqu.C("name_embeddings").IsNull())
	case entities.SearchEntityDoctor:
		columns = []interface{}{"id", "name", "specialization", "clinic_name", "address", "treatments"}
	case entities.SearchEntityClinic:
		columns = []interface{}{"id", "name", "address", "description", "treatments"}
	}

	ds := a.db.Select(columns...).From(table).Where(missing).Order(goqu.I("id").Asc())
	if afterID != "" {
		ds = ds.Where(goqu.C("id").Gt(afterID))
	}
	if limit > 0 {
		ds = ds.Limit(uint(limit))
	}
	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list rows missing embeddings", err)
	}
	defer rows.Close()

	targets := make([]*entities.EmbeddingTarget, 0)
	for rows.Next() {
		target, err := scanEmbeddingTarget(rows, entity)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan "+string(entity), err)
		}
		targets = append(targets, target)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate rows missing embeddings", err)
	}

	return targets, nil
}

func scanEmbeddingTarget(rows *sql.Rows, entity entities.SearchEntity) (*entities.EmbeddingTarget, error) {
	target := &entities.EmbeddingTarget{Entity: entity}

	switch entity {
	case entities.SearchEntityTreatment:
		t := &entities.Treatment{}
		var benefits, description sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &benefits, &description, pq.Array(&t.Concerns)); err != nil {
			return nil, err
		}
		t.Benefits = benefits.String
		t.Description = description.String
		target.ID, target.Text, target.NameText = t.ID, t.EmbeddingText(), t.Name

	case entities.SearchEntityDoctor:
		d := &entities.Doctor{}
		var specialization, clinicName, address sql.NullString
		var treatments []string
		if err := rows.Scan(&d.ID, &d.Name, &specialization, &clinicName, &address, pq.Array(&treatments)); err != nil {
			return nil, err
		}
		d.Specialization = specialization.String
		d.ClinicName = clinicName.String
		d.Address = address.String
		d.Treatments = zipTranslatedNames(treatments, nil)
		target.ID, target.Text = d.ID, d.EmbeddingText()

	case entities.SearchEntityClinic:
		c := &entities.Clinic{}
		var address, description sql.NullString
		var treatments []string
		if err := rows.Scan(&c.ID, &c.Name, &address, &description, pq.Array(&treatments)); err != nil {
			return nil, err
		}
		c.Address = address.String
		c.Description = description.String
		c.Treatments = zipTranslatedNames(treatments, nil)
		target.ID, target.Text = c.ID, c.EmbeddingText()
	}

	return target, nil
}

func (a *CatalogEmbeddingAdapter) SaveEmbeddings(ctx context.Context, entity entities.SearchEntity, id string, full, name []float64) (err error) {
	ctx, done := observability.TraceDBQuery(ctx, "save_embeddings")
	defer func() { done(err) }()

	table, err := embeddingTable(entity)
	if err != nil {
		return err
	}

	record := goqu.Record{"embeddings": pq.Array(full)}
	if entity == entities.SearchEntityTreatment {
		record["name_embeddings"] = pq.Array(name)
	}

	query, args, err := a.db.Update(table).Prepared(true).Set(record).Where(goqu.C("id").Eq(id)).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to save embeddings", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to save embeddings", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("%s %s not found", entity, id))
	}
	return nil
}
