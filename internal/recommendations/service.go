package recommendations

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/soilguardian/internal/advisory"
	"github.com/JaimeStill/soilguardian/internal/agronomy"
	"github.com/JaimeStill/soilguardian/internal/classifier"
	"github.com/JaimeStill/soilguardian/internal/metrics"
	"github.com/JaimeStill/soilguardian/internal/soil"
	"github.com/JaimeStill/soilguardian/internal/store"
	"github.com/JaimeStill/soilguardian/pkg/pagination"
)

type service struct {
	registry   *classifier.Registry
	tables     *agronomy.Tables
	assembler  *advisory.Assembler
	store      store.Store
	cfg        Config
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates a recommendation service implementing the System interface.
func New(
	registry *classifier.Registry,
	tables *agronomy.Tables,
	st store.Store,
	cfg Config,
	logger *slog.Logger,
	pagination pagination.Config,
	opts ...advisory.Option,
) System {
	logger = logger.With("system", "recommendations")
	return &service{
		registry:   registry,
		tables:     tables,
		assembler:  advisory.NewAssembler(tables, logger, opts...),
		store:      st,
		cfg:        cfg,
		logger:     logger,
		pagination: pagination,
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination, s.cfg)
}

func (s *service) Recommend(ctx context.Context, sample soil.Sample, opts Options) (*Result, error) {
	start := time.Now()

	result, err := s.recommend(ctx, sample, opts)
	metrics.RecordRecommendation(outcome(result, err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) recommend(ctx context.Context, sample soil.Sample, opts Options) (*Result, error) {
	if err := s.checkTopN(opts.TopN); err != nil {
		return nil, err
	}

	m, err := s.model(ctx)
	if err != nil {
		return nil, err
	}

	recs, err := s.rank(m, sample, opts.TopN)
	if err != nil {
		return nil, err
	}

	result := &Result{Recommendations: recs}
	if len(recs) == 0 {
		return result, nil
	}

	top := recs[0].Crop
	metrics.RecordTopCrop(top)

	if opts.IncludeComprehensive {
		result.Comprehensive = s.assembler.Assemble(top, sample)
	}

	s.persist(ctx, m.Version, sample, opts, result)
	return result, nil
}

func (s *service) RecommendBatch(ctx context.Context, samples []soil.Sample, topN int) ([][]classifier.CropRecommendation, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", ErrInvalidRequest)
	}
	if err := s.checkTopN(topN); err != nil {
		return nil, err
	}

	m, err := s.model(ctx)
	if err != nil {
		return nil, err
	}

	out := make([][]classifier.CropRecommendation, len(samples))
	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recs, err := s.rank(m, sample, topN)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = recs
	}

	s.logger.Info("batch recommended", "samples", len(samples), "top_n", topN)
	return out, nil
}

func (s *service) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters store.Filters,
) (*pagination.PageResult[store.Recommendation], error) {
	page.Normalize(s.pagination)
	return s.store.ListRecommendations(ctx, page, filters)
}

func (s *service) model(ctx context.Context) (*classifier.Model, error) {
	m, err := s.registry.Model(ctx)
	if err != nil {
		metrics.SetModelLoaded(s.registry.Version(), false)
		return nil, err
	}
	metrics.SetModelLoaded(m.Version, true)
	return m, nil
}

// rank runs impute, normalize, vector, predict and rank, then attaches
// reasoning computed from the measured values only.
func (s *service) rank(m *classifier.Model, sample soil.Sample, topN int) ([]classifier.CropRecommendation, error) {
	if err := sample.Validate(); err != nil {
		return nil, err
	}

	normalized, err := soil.Normalize(soil.Impute(sample).Features(), soil.Ranges)
	if err != nil {
		return nil, err
	}

	x, err := m.Vector(normalized)
	if err != nil {
		return nil, err
	}

	probs, err := m.PredictProba(x)
	if err != nil {
		return nil, err
	}

	recs, err := classifier.Rank(probs, m.Classes, topN, s.cfg.Thresholds)
	if err != nil {
		return nil, err
	}

	measured := sample.Features()
	for i := range recs {
		recs[i].Reasoning = advisory.Reasoning(s.tables, recs[i].Crop, measured)
	}
	return recs, nil
}

func (s *service) checkTopN(topN int) error {
	if topN < 1 || topN > s.cfg.MaxTopN {
		return fmt.Errorf("%w: top_n must be between 1 and %d", ErrInvalidRequest, s.cfg.MaxTopN)
	}
	return nil
}

func (s *service) persist(ctx context.Context, version string, sample soil.Sample, opts Options, result *Result) {
	rec := store.Recommendation{
		FarmID:          opts.FarmID,
		ModelVersion:    version,
		TopCrop:         result.Recommendations[0].Crop,
		Input:           sample,
		Recommendations: result.Recommendations,
	}

	if result.Comprehensive != nil {
		data, err := json.Marshal(result.Comprehensive)
		if err != nil {
			s.logger.Warn("encode comprehensive recommendation", "error", err)
		} else {
			rec.Comprehensive = data
		}
	}

	if _, err := s.store.SaveRecommendation(ctx, rec); err != nil {
		metrics.RecordPersistenceFailure()
		s.logger.Warn("recommendation not persisted", "top_crop", rec.TopCrop, "error", err)
	}
}

func outcome(result *Result, err error) string {
	switch {
	case err != nil && invalid(err):
		return metrics.OutcomeInvalid
	case err != nil:
		return metrics.OutcomeError
	case result.Comprehensive != nil && result.Comprehensive.Fallback():
		return metrics.OutcomeFallback
	default:
		return metrics.OutcomeSuccess
	}
}
