package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/medbook/backend/internal/application/services"
	"github.com/medbook/backend/internal/domain/entities"
	"github.com/medbook/backend/internal/domain/repositories"
	apperrors "github.com/medbook/backend/pkg/errors"
)

// SearchService ranks catalog rows against a free-text query.
type SearchService interface {
	TreatmentsVectorResult(ctx context.Context, rows []*entities.Treatment, search string, opts entities.SearchOptions) ([]*entities.Treatment, error)
	DoctorsVectorResult(ctx context.Context, rows []*entities.Doctor, search string, opts entities.SearchOptions) ([]*entities.Doctor, error)
	ClinicsVectorResult(ctx context.Context, rows []*entities.Clinic, search string, opts entities.SearchOptions) ([]*entities.Clinic, error)
	DoctorsAIResult(ctx context.Context, rows []*entities.Doctor, search string, lang entities.Language) ([]*entities.Doctor, error)
	ClinicsAIResult(ctx context.Context, rows []*entities.Clinic, search string, lang entities.Language) ([]*entities.Clinic, error)
	DevicesAIResult(ctx context.Context, rows []*entities.Device, search string, opts entities.SearchOptions) ([]*entities.Device, error)
	RunSimilarity(ctx context.Context, search string, candidates []entities.SimilarityCandidate, batchSize int) ([]entities.SimilarityScore, error)
	ApplyCandidateScores(candidates []entities.SimilarityCandidate, scores []entities.SimilarityScore, opts entities.SearchOptions) []entities.SimilarityScore
}

const maxScoreCandidates = 5000

// SearchHandler serves the search endpoints.
type SearchHandler struct {
	service        SearchService
	catalog        repositories.SearchCatalogRepository
	analytics      *services.SearchAnalyticsService
	candidateLimit int
}

// NewSearchHandler creates a search handler. analytics may be nil.
func NewSearchHandler(service SearchService, catalog repositories.SearchCatalogRepository, analytics *services.SearchAnalyticsService, candidateLimit int) *SearchHandler {
	return &SearchHandler{
		service:        service,
		catalog:        catalog,
		analytics:      analytics,
		candidateLimit: candidateLimit,
	}
}

type searchParams struct {
	query string
	mode  entities.SearchMode
	opts  entities.SearchOptions
}

func parseSearchParams(r *http.Request) (searchParams, error) {
	q := r.URL.Query()
	params := searchParams{
		query: q.Get("q"),
		mode:  entities.SearchModeVector,
	}

	if raw := q.Get("threshold"); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			return params, apperrors.NewValidationError("threshold must be a number between 0 and 1")
		}
		params.opts.Threshold = &threshold
	}

	if raw := q.Get("top_n"); raw != "" {
		topN, err := strconv.Atoi(raw)
		if err != nil || topN < 0 {
			return params, apperrors.NewValidationError("top_n must be a non-negative integer")
		}
		params.opts.TopN = topN
	}

	params.opts.Language = entities.ParseLanguage(q.Get("lang"))

	switch raw := strings.ToLower(q.Get("mode")); raw {
	case "", string(entities.SearchModeVector):
	case string(entities.SearchModeAI):
		params.mode = entities.SearchModeAI
	default:
		return params, apperrors.NewValidationError("mode must be vector or ai")
	}

	return params, nil
}

func (h *SearchHandler) filter() repositories.CatalogFilter {
	return repositories.CatalogFilter{Limit: h.candidateLimit}
}

// SearchTreatments handles GET /api/search/treatments
func (h *SearchHandler) SearchTreatments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithAppError(w, err, "invalid search parameters")
		return
	}
	if params.mode == entities.SearchModeAI {
		respondWithError(w, http.StatusBadRequest, "treatments support vector mode only")
		return
	}

	rows, err := h.catalog.ListTreatments(r.Context(), h.filter())
	if err != nil {
		respondWithAppError(w, err, "failed to load treatments")
		return
	}

	results, err := h.service.TreatmentsVectorResult(r.Context(), rows, params.query, params.opts)
	if err != nil {
		respondWithAppError(w, err, "treatment search failed")
		return
	}

	h.logEvent(r.Context(), entities.SearchEntityTreatment, params, len(results), start)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"treatments": results,
		"count":      len(results),
	})
}

// SearchDoctors handles GET /api/search/doctors
func (h *SearchHandler) SearchDoctors(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithAppError(w, err, "invalid search parameters")
		return
	}
	if params.mode == entities.SearchModeAI && strings.TrimSpace(params.query) == "" {
		respondWithError(w, http.StatusBadRequest, "q is required in ai mode")
		return
	}

	rows, err := h.catalog.ListDoctors(r.Context(), h.filter())
	if err != nil {
		respondWithAppError(w, err, "failed to load doctors")
		return
	}

	var results []*entities.Doctor
	if params.mode == entities.SearchModeAI {
		results, err = h.service.DoctorsAIResult(r.Context(), rows, params.query, params.opts.Language)
	} else {
		results, err = h.service.DoctorsVectorResult(r.Context(), rows, params.query, params.opts)
	}
	if err != nil {
		respondWithAppError(w, err, "doctor search failed")
		return
	}

	h.logEvent(r.Context(), entities.SearchEntityDoctor, params, len(results), start)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"doctors": results,
		"count":   len(results),
	})
}

// SearchClinics handles GET /api/search/clinics
func (h *SearchHandler) SearchClinics(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithAppError(w, err, "invalid search parameters")
		return
	}
	if params.mode == entities.SearchModeAI && strings.TrimSpace(params.query) == "" {
		respondWithError(w, http.StatusBadRequest, "q is required in ai mode")
		return
	}

	rows, err := h.catalog.ListClinics(r.Context(), h.filter())
	if err != nil {
		respondWithAppError(w, err, "failed to load clinics")
		return
	}

	var results []*entities.Clinic
	if params.mode == entities.SearchModeAI {
		results, err = h.service.ClinicsAIResult(r.Context(), rows, params.query, params.opts.Language)
	} else {
		results, err = h.service.ClinicsVectorResult(r.Context(), rows, params.query, params.opts)
	}
	if err != nil {
		respondWithAppError(w, err, "clinic search failed")
		return
	}

	h.logEvent(r.Context(), entities.SearchEntityClinic, params, len(results), start)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"clinics": results,
		"count":   len(results),
	})
}

// SearchDevices handles GET /api/search/devices. Devices are ranked by the
// LLM only.
func (h *SearchHandler) SearchDevices(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	params, err := parseSearchParams(r)
	if err != nil {
		respondWithAppError(w, err, "invalid search parameters")
		return
	}
	params.mode = entities.SearchModeAI
	if strings.TrimSpace(params.query) == "" {
		respondWithError(w, http.StatusBadRequest, "q is required")
		return
	}

	rows, err := h.catalog.ListDevices(r.Context(), h.filter())
	if err != nil {
		respondWithAppError(w, err, "failed to load devices")
		return
	}

	results, err := h.service.DevicesAIResult(r.Context(), rows, params.query, params.opts)
	if err != nil {
		respondWithAppError(w, err, "device search failed")
		return
	}

	h.logEvent(r.Context(), entities.SearchEntityDevice, params, len(results), start)
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"devices": results,
		"count":   len(results),
	})
}

// ScoreRequest is the body of POST /api/search/score.
type ScoreRequest struct {
	Query      string                         `json:"query"`
	Candidates []entities.SimilarityCandidate `json:"candidates"`
	BatchSize  int                            `json:"batch_size"`
	Threshold  *float64                       `json:"threshold"`
	TopN       int                            `json:"top_n"`
}

// ScoreCandidates handles POST /api/search/score. It scores caller-supplied
// candidates with the LLM and applies threshold and top_n.
func (h *SearchHandler) ScoreCandidates(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}
	if len(req.Candidates) > maxScoreCandidates {
		respondWithError(w, http.StatusBadRequest, "too many candidates")
		return
	}
	for _, c := range req.Candidates {
		if !services.ValidCandidateID(c.ID) {
			respondWithError(w, http.StatusBadRequest, "candidate ids must be non-empty and must not contain '|' or line breaks")
			return
		}
	}
	if (req.Threshold != nil && (*req.Threshold < 0 || *req.Threshold > 1)) || req.TopN < 0 || req.BatchSize < 0 {
		respondWithError(w, http.StatusBadRequest, "threshold, top_n or batch_size out of range")
		return
	}

	scores, err := h.service.RunSimilarity(r.Context(), req.Query, req.Candidates, req.BatchSize)
	if err != nil {
		respondWithAppError(w, err, "scoring failed")
		return
	}

	results := h.service.ApplyCandidateScores(req.Candidates, scores, entities.SearchOptions{
		Threshold: req.Threshold,
		TopN:      req.TopN,
	})
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

// ZeroResultQueries handles GET /api/analytics/zero-result-queries
func (h *SearchHandler) ZeroResultQueries(w http.ResponseWriter, r *http.Request) {
	if h.analytics == nil {
		respondWithError(w, http.StatusServiceUnavailable, "search analytics is not configured")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.analytics.GetZeroResultQueries(r.Context(), limit)
	if err != nil {
		respondWithAppError(w, err, "failed to load zero result queries")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"events": events,
		"count":  len(events),
	})
}

// logEvent hands the search to analytics. Failures never affect the response.
func (h *SearchHandler) logEvent(ctx context.Context, entity entities.SearchEntity, params searchParams, resultCount int, start time.Time) {
	if h.analytics == nil {
		return
	}
	h.analytics.TrackSearch(ctx, &entities.SearchEvent{
		Query:       params.query,
		Entity:      entity,
		Mode:        params.mode,
		Language:    params.opts.Language,
		ResultCount: resultCount,
		LatencyMs:   int(time.Since(start).Milliseconds()),
	})
}
