package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/sectorscope/internal/brain"
	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s0_data"
	"github.com/wonny/sectorscope/internal/selection"
	"github.com/wonny/sectorscope/pkg/logger"
)

// RunLister lists recent analysis runs
type RunLister interface {
	ListRuns(ctx context.Context, limit int) ([]selection.RunSummary, error)
}

// AnalysisHandler handles sector analysis API endpoints
// ⭐ SSOT: 섹터 분석 API 핸들러는 이 구조체에서만
type AnalysisHandler struct {
	orchestrator *brain.Orchestrator
	source       contracts.DatasetSource
	store        contracts.RunStore // nil when DATABASE_URL is not set
	logger       *logger.Logger
}

// NewAnalysisHandler creates a new analysis handler
func NewAnalysisHandler(
	orchestrator *brain.Orchestrator,
	source contracts.DatasetSource,
	store contracts.RunStore,
	log *logger.Logger,
) *AnalysisHandler {
	return &AnalysisHandler{
		orchestrator: orchestrator,
		source:       source,
		store:        store,
		logger:       log,
	}
}

// AnalysisRequest represents an analysis request.
// Dataset is either a full {"sectors": ...} document or a single sector payload;
// when omitted the sector is loaded from the configured source.
type AnalysisRequest struct {
	Sector         string              `json:"sector"`
	Dataset        json.RawMessage     `json:"dataset,omitempty"`
	Criteria       *selection.Criteria `json:"criteria,omitempty"`
	TopN           int                 `json:"topN,omitempty"`
	GenerateReport bool                `json:"generateReport,omitempty"`
}

// RunAnalysis runs the sector pipeline
// POST /api/analysis
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	var req AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Sector == "" {
		respondError(w, http.StatusBadRequest, "sector is required")
		return
	}
	if req.TopN < 0 {
		respondError(w, http.StatusBadRequest, "topN must not be negative")
		return
	}

	var (
		ds  *contracts.Dataset
		err error
	)
	if len(req.Dataset) > 0 {
		ds, err = s0_data.DecodePayload(string(req.Dataset))
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid dataset: "+err.Error())
			return
		}
	} else {
		ds, err = h.source.Load(r.Context(), req.Sector)
		if err != nil {
			h.logger.WithError(err).WithField("sector", req.Sector).Error("Failed to load sector")
			respondError(w, http.StatusBadGateway, "Failed to load sector data")
			return
		}
	}

	h.run(r.Context(), w, brain.Request{
		Sector:         req.Sector,
		Dataset:        ds,
		Criteria:       req.Criteria,
		TopN:           req.TopN,
		GenerateReport: req.GenerateReport,
	})
}

// GetSectorAnalysis runs the pipeline on the source payload of a sector
// GET /api/sectors/{key}/analysis?topN=3&report=true
func (h *AnalysisHandler) GetSectorAnalysis(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	q := r.URL.Query()

	topN := 0
	if v := q.Get("topN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "Invalid topN parameter")
			return
		}
		topN = n
	}
	generate, _ := strconv.ParseBool(q.Get("report"))

	ds, err := h.source.Load(r.Context(), key)
	if err != nil {
		h.logger.WithError(err).WithField("sector", key).Error("Failed to load sector")
		respondError(w, http.StatusBadGateway, "Failed to load sector data")
		return
	}

	h.run(r.Context(), w, brain.Request{
		Sector:         key,
		Dataset:        ds,
		TopN:           topN,
		GenerateReport: generate,
	})
}

func (h *AnalysisHandler) run(ctx context.Context, w http.ResponseWriter, req brain.Request) {
	run, err := h.orchestrator.Run(ctx, req)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, run)
	case errors.Is(err, brain.ErrSectorRequired), errors.Is(err, brain.ErrDatasetRequired):
		respondError(w, http.StatusBadRequest, err.Error())
	case run != nil:
		// 분석은 완료, 저장만 실패
		h.logger.WithError(err).WithField("run_id", run.RunID).Warn("Analysis run not persisted")
		respondJSON(w, http.StatusOK, run)
	default:
		h.logger.WithError(err).WithField("sector", req.Sector).Error("Analysis failed")
		respondError(w, http.StatusInternalServerError, "Analysis failed")
	}
}

// GetLatestRun returns the latest persisted run of a sector
// GET /api/sectors/{key}/latest
func (h *AnalysisHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "Run storage is not configured")
		return
	}

	key := mux.Vars(r)["key"]
	label := h.runLabel(r.Context(), key)

	run, err := h.store.GetLatestRun(r.Context(), label)
	if errors.Is(err, selection.ErrRunNotFound) {
		respondError(w, http.StatusNotFound, "No analysis run for sector")
		return
	}
	if err != nil {
		h.logger.WithError(err).WithField("sector", label).Error("Failed to get latest run")
		respondError(w, http.StatusInternalServerError, "Failed to retrieve analysis run")
		return
	}

	respondJSON(w, http.StatusOK, run)
}

// runLabel resolves the display label runs of a sector key are stored under.
// The sector_name hint wins, as in the orchestrator; without the source the key is title-cased.
func (h *AnalysisHandler) runLabel(ctx context.Context, key string) string {
	ds, err := h.source.Load(ctx, key)
	if err != nil {
		h.logger.WithError(err).WithField("sector", key).Debug("Sector label falls back to key")
		return s0_data.FormatSectorName(key, nil)
	}
	if _, ok := ds.Sector(key); !ok {
		return s0_data.FormatSectorName(key, nil)
	}
	return brain.ResolveSector(ds, key)
}

// ListRuns returns recent run summaries
// GET /api/runs?limit=20
func (h *AnalysisHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	lister, ok := h.store.(RunLister)
	if h.store == nil || !ok {
		respondError(w, http.StatusServiceUnavailable, "Run storage is not configured")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			respondError(w, http.StatusBadRequest, "Invalid limit parameter (1-200)")
			return
		}
		limit = n
	}

	runs, err := lister.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("Failed to list runs")
		respondError(w, http.StatusInternalServerError, "Failed to list analysis runs")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// GetStrategy returns the active strategy
// GET /api/strategy
func (h *AnalysisHandler) GetStrategy(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.orchestrator.Strategy())
}
