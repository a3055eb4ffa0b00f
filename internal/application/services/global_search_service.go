package services

import (
	"context"
	"strings"

	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/providers"
	"github.com/medbook/backend/pkg/config"
	apperrors "github.com/medbook/backend/pkg/errors"
)

// DefaultThreshold is the minimum score a row needs when the caller does not
// pass one.
const DefaultThreshold = 0.40

// GlobalSearchService ranks caller-supplied treatments, doctors, clinics and
// devices against a free-text query. It holds no per-call state.
type GlobalSearchService struct {
	vector *VectorMatcher
	ai     *AISimilarityMatcher
	cfg    config.SearchConfig
}

// NewGlobalSearchService wires the embedding and LLM paths. Either provider
// may be nil; the corresponding operations then fail with an external error.
func NewGlobalSearchService(embedder providers.EmbeddingProvider, llm providers.SimilarityLLM, cfg config.SearchConfig) (*GlobalSearchService, error) {
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = DefaultThreshold
	}
	if cfg.GenericBatchSize <= 0 {
		cfg.GenericBatchSize = DefaultGenericBatchSize
	}
	if cfg.DeviceBatchSize <= 0 {
		cfg.DeviceBatchSize = DefaultDeviceBatchSize
	}
	if cfg.ClinicBatchSize <= 0 {
		cfg.ClinicBatchSize = DefaultClinicBatchSize
	}

	svc := &GlobalSearchService{cfg: cfg}
	if embedder != nil {
		svc.vector = NewVectorMatcher(embedder)
	}
	if llm != nil {
		ai, err := NewAISimilarityMatcher(llm, cfg.Workers)
		if err != nil {
			return nil, err
		}
		svc.ai = ai
	}
	return svc, nil
}

// Close releases the LLM worker pool.
func (s *GlobalSearchService) Close() {
	s.ai.Close()
}

func (s *GlobalSearchService) threshold(opts entities.SearchOptions) float64 {
	if opts.Threshold != nil {
		return *opts.Threshold
	}
	return s.cfg.DefaultThreshold
}

func (s *GlobalSearchService) requireAI() error {
	if s.ai == nil {
		return apperrors.NewExternalError("similarity model is not configured", nil)
	}
	return nil
}

// TreatmentsVectorResult ranks treatments by embedding similarity, blending
// name and full-text scores. A blank query returns rows unchanged. Ranked
// rows are copies without embeddings, localized after filtering and sorting.
func (s *GlobalSearchService) TreatmentsVectorResult(ctx context.Context, rows []*entities.Treatment, search string, opts entities.SearchOptions) ([]*entities.Treatment, error) {
	if strings.TrimSpace(search) == "" {
		return rows, nil
	}

	ranked, err := s.vector.MatchTreatments(ctx, rows, search, s.threshold(opts), opts.TopN)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Treatment, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectTreatment(r, opts.Language))
	}
	return out, nil
}

// DoctorsVectorResult ranks doctors by embedding similarity plus a fuzzy
// name keyword boost. A blank query returns rows unchanged.
func (s *GlobalSearchService) DoctorsVectorResult(ctx context.Context, rows []*entities.Doctor, search string, opts entities.SearchOptions) ([]*entities.Doctor, error) {
	if strings.TrimSpace(search) == "" {
		return rows, nil
	}

	ranked, err := s.vector.MatchDoctors(ctx, rows, search, s.threshold(opts), opts.TopN)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Doctor, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectDoctor(r, opts.Language))
	}
	return out, nil
}

// ClinicsVectorResult ranks clinics by embedding similarity plus a fuzzy
// name keyword boost. A blank query returns rows unchanged.
func (s *GlobalSearchService) ClinicsVectorResult(ctx context.Context, rows []*entities.Clinic, search string, opts entities.SearchOptions) ([]*entities.Clinic, error) {
	if strings.TrimSpace(search) == "" {
		return rows, nil
	}

	ranked, err := s.vector.MatchClinics(ctx, rows, search, s.threshold(opts), opts.TopN)
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Clinic, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectClinic(r, opts.Language))
	}
	return out, nil
}

// DoctorsAIResult ranks doctors with the LLM batch matcher using the default
// threshold. No matches yields an empty list, not the unranked input.
func (s *GlobalSearchService) DoctorsAIResult(ctx context.Context, rows []*entities.Doctor, search string, lang entities.Language) ([]*entities.Doctor, error) {
	if err := s.requireAI(); err != nil {
		return nil, err
	}

	candidates := BuildCandidates(rows, doctorID,
		func(d *entities.Doctor) string { return d.Name },
		func(d *entities.Doctor) string { return d.Specialization },
		func(d *entities.Doctor) string { return d.ClinicName },
		func(d *entities.Doctor) string { return entities.JoinNames(d.Treatments) },
	)
	scores := s.ai.RunSimilarity(ctx, search, candidates, s.cfg.GenericBatchSize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := ApplySimilarity(rows, scores, doctorID, s.cfg.DefaultThreshold, 0)
	out := make([]*entities.Doctor, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectDoctor(r, lang))
	}
	return out, nil
}

// ClinicsAIResult ranks clinics with the LLM batch matcher using the default
// threshold and the clinic batch size.
func (s *GlobalSearchService) ClinicsAIResult(ctx context.Context, rows []*entities.Clinic, search string, lang entities.Language) ([]*entities.Clinic, error) {
	if err := s.requireAI(); err != nil {
		return nil, err
	}

	candidates := BuildCandidates(rows, clinicID,
		func(c *entities.Clinic) string { return c.Name },
		func(c *entities.Clinic) string { return c.Address },
		func(c *entities.Clinic) string { return c.Description },
		func(c *entities.Clinic) string { return entities.JoinNames(c.Treatments) },
	)
	scores := s.ai.RunSimilarity(ctx, search, candidates, s.cfg.ClinicBatchSize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := ApplySimilarity(rows, scores, clinicID, s.cfg.DefaultThreshold, 0)
	out := make([]*entities.Clinic, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectClinic(r, lang))
	}
	return out, nil
}

// DevicesAIResult ranks devices with the LLM batch matcher using the device
// batch size, then applies threshold, topN and language.
func (s *GlobalSearchService) DevicesAIResult(ctx context.Context, rows []*entities.Device, search string, opts entities.SearchOptions) ([]*entities.Device, error) {
	if err := s.requireAI(); err != nil {
		return nil, err
	}

	candidates := BuildCandidates(rows, deviceID,
		func(d *entities.Device) string { return d.Name },
		func(d *entities.Device) string { return d.Category },
		func(d *entities.Device) string { return d.Description },
	)
	scores := s.ai.RunSimilarity(ctx, search, candidates, s.cfg.DeviceBatchSize)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ranked := ApplySimilarity(rows, scores, deviceID, s.threshold(opts), opts.TopN)
	out := make([]*entities.Device, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, projectDevice(r, opts.Language))
	}
	return out, nil
}

// RunSimilarity scores arbitrary candidates. batchSize <= 0 uses the
// generic batch size.
func (s *GlobalSearchService) RunSimilarity(ctx context.Context, search string, candidates []entities.SimilarityCandidate, batchSize int) ([]entities.SimilarityScore, error) {
	if err := s.requireAI(); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = s.cfg.GenericBatchSize
	}
	return s.ai.RunSimilarity(ctx, search, candidates, batchSize), nil
}

// ApplyCandidateScores joins scores onto candidates and applies the
// threshold/topN policy, resolving a zero threshold to the default.
func (s *GlobalSearchService) ApplyCandidateScores(candidates []entities.SimilarityCandidate, scores []entities.SimilarityScore, opts entities.SearchOptions) []entities.SimilarityScore {
	ranked := ApplySimilarity(candidates, scores, func(c entities.SimilarityCandidate) string { return c.ID }, s.threshold(opts), opts.TopN)
	out := make([]entities.SimilarityScore, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, entities.SimilarityScore{ID: r.Row.ID, Score: r.Match.Score})
	}
	return out
}

func doctorID(d *entities.Doctor) string { return d.ID }
func clinicID(c *entities.Clinic) string { return c.ID }
func deviceID(d *entities.Device) string { return d.ID }

func projectTreatment(r Ranked[*entities.Treatment], lang entities.Language) *entities.Treatment {
	t := *r.Row
	t.Embeddings = nil
	t.NameEmbeddings = nil
	t.Name = lang.Localize(r.Row.Name, r.Row.NameSV)
	t.Benefits = lang.Localize(r.Row.Benefits, r.Row.BenefitsSV)
	t.Description = lang.Localize(r.Row.Description, r.Row.DescriptionSV)
	match := r.Match
	t.Match = &match
	return &t
}

func projectDoctor(r Ranked[*entities.Doctor], lang entities.Language) *entities.Doctor {
	d := *r.Row
	d.Embeddings = nil
	d.Treatments = entities.LocalizeNames(r.Row.Treatments, lang)
	match := r.Match
	d.Match = &match
	return &d
}

func projectClinic(r Ranked[*entities.Clinic], lang entities.Language) *entities.Clinic {
	c := *r.Row
	c.Embeddings = nil
	c.Treatments = entities.LocalizeNames(r.Row.Treatments, lang)
	match := r.Match
	c.Match = &match
	return &c
}

func projectDevice(r Ranked[*entities.Device], lang entities.Language) *entities.Device {
	d := *r.Row
	d.Name = lang.Localize(r.Row.Name, r.Row.NameSV)
	d.Description = lang.Localize(r.Row.Description, r.Row.DescriptionSV)
	match := r.Match
	d.Match = &match
	return &d
}
