package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/soilguardian/pkg/pagination"
	"github.com/JaimeStill/soilguardian/pkg/query"
	"github.com/JaimeStill/soilguardian/pkg/repository"
)

var constraintErrors = map[string]error{
	repository.CodeUniqueViolation:     ErrDuplicate,
	repository.CodeForeignKeyViolation: ErrUnknownFarm,
}

// Postgres stores records in the schema applied by cmd/migrate.
type Postgres struct {
	db         *sql.DB
	pagination pagination.Config
	logger     *slog.Logger
}

// NewPostgres creates a PostgreSQL-backed store.
func NewPostgres(db *sql.DB, pg pagination.Config, logger *slog.Logger) *Postgres {
	return &Postgres{
		db:         db,
		pagination: pg,
		logger:     logger,
	}
}

func (p *Postgres) RecentSoilReadings(ctx context.Context, days int, farmID *uuid.UUID) ([]SoilReading, error) {
	since := time.Now().AddDate(0, 0, -days)

	q, args := query.
		NewBuilder(readingProjection, readingSort).
		WhereGTE("RecordedAt", since).
		WhereEquals("FarmID", farmID).
		Build()

	readings, err := repository.QueryMany(ctx, p.db, q, args, scanReading)
	if err != nil {
		return nil, fmt.Errorf("query soil readings: %w", err)
	}
	return readings, nil
}

func (p *Postgres) Farms(ctx context.Context, userID *string) ([]Farm, error) {
	q, args := query.
		NewBuilder(farmProjection, farmSort).
		WhereEquals("UserID", userID).
		Build()

	farms, err := repository.QueryMany(ctx, p.db, q, args, scanFarm)
	if err != nil {
		return nil, fmt.Errorf("query farms: %w", err)
	}
	return farms, nil
}

func (p *Postgres) SaveRecommendation(ctx context.Context, rec Recommendation) (Recommendation, error) {
	rec = stamp(rec, time.Now())

	input, err := json.Marshal(rec.Input)
	if err != nil {
		return Recommendation{}, fmt.Errorf("encode input: %w", err)
	}
	ranked, err := json.Marshal(rec.Recommendations)
	if err != nil {
		return Recommendation{}, fmt.Errorf("encode recommendations: %w", err)
	}
	var comprehensive []byte
	if len(rec.Comprehensive) > 0 {
		comprehensive = rec.Comprehensive
	}

	const stmt = `
		INSERT INTO public.recommendations
			(id, farm_id, model_version, top_crop, input, recommendations, comprehensive, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, stmt,
			rec.ID, rec.FarmID, rec.ModelVersion, rec.TopCrop,
			input, ranked, comprehensive, rec.CreatedAt,
		)
	})
	if err != nil {
		return Recommendation{}, fmt.Errorf("insert recommendation: %w",
			repository.MapError(err, nil, constraintErrors))
	}

	p.logger.Debug("recommendation saved", "id", rec.ID, "top_crop", rec.TopCrop)
	return rec, nil
}

func (p *Postgres) ListRecommendations(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Recommendation], error) {
	page.Normalize(p.pagination)

	qb := query.
		NewBuilder(recommendationProjection, recommendationSort).
		WhereSearch(page.Search, "TopCrop", "ModelVersion")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	total, err := repository.QueryOne(ctx, p.db, countSQL, countArgs, repository.ScanValue[int]())
	if err != nil {
		return nil, fmt.Errorf("count recommendations: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	recs, err := repository.QueryMany(ctx, p.db, pageSQL, pageArgs, scanRecommendation)
	if err != nil {
		return nil, fmt.Errorf("query recommendations: %w", err)
	}

	result := pagination.NewPageResult(recs, total, page.Page, page.PageSize)
	return &result, nil
}
