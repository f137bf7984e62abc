package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/sectorscope/internal/contracts"
	"github.com/wonny/sectorscope/internal/s0_data"
	"github.com/wonny/sectorscope/internal/s0_data/collector"
	"github.com/wonny/sectorscope/internal/s0_data/quality"
	"github.com/wonny/sectorscope/pkg/logger"
)

// CacheInvalidator drops a cached sector payload
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sectorKey string) error
}

// DataHandler handles data-related API endpoints
// ⭐ SSOT: 데이터 API 핸들러는 이 구조체에서만
type DataHandler struct {
	source      contracts.DatasetSource
	collector   *collector.Collector
	qualityGate *quality.QualityGate
	cache       CacheInvalidator // nil when Redis is disabled
	workers     int
	logger      *logger.Logger
}

// NewDataHandler creates a new data handler
func NewDataHandler(
	source contracts.DatasetSource,
	col *collector.Collector,
	qualityGate *quality.QualityGate,
	log *logger.Logger,
) *DataHandler {
	return &DataHandler{
		source:      source,
		collector:   col,
		qualityGate: qualityGate,
		workers:     4,
		logger:      log,
	}
}

// WithCache enables DELETE /api/sectors/{key}/cache
func (h *DataHandler) WithCache(cache CacheInvalidator) *DataHandler {
	h.cache = cache
	return h
}

// SectorStocksResponse is the normalized stock list of one sector
type SectorStocksResponse struct {
	SectorKey string                         `json:"sectorKey"`
	Sector    string                         `json:"sector"`
	Stocks    []contracts.CanonicalStock     `json:"stocks"`
	Issues    map[string][]string            `json:"issues"`
	Quality   *contracts.DataQualitySnapshot `json:"quality"`
}

// GetSectorStocks returns the normalized stocks of a sector
// GET /api/sectors/{key}/stocks
func (h *DataHandler) GetSectorStocks(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]

	ds, err := h.source.Load(r.Context(), key)
	if err != nil {
		h.logger.WithError(err).WithField("sector", key).Error("Failed to load sector")
		respondError(w, http.StatusBadGateway, "Failed to load sector data")
		return
	}

	label := sectorLabel(ds, key)
	flat := s0_data.Flatten(ds)

	resp := SectorStocksResponse{
		SectorKey: key,
		Sector:    label,
		Stocks:    make([]contracts.CanonicalStock, 0),
		Issues:    make(map[string][]string),
	}
	for _, s := range flat.Stocks {
		if s.Sector != label {
			continue
		}
		resp.Stocks = append(resp.Stocks, s)
		if issues, ok := flat.Issues[s.Symbol]; ok {
			resp.Issues[s.Symbol] = issues
		}
	}
	resp.Quality = h.qualityGate.Check(resp.Stocks)

	respondJSON(w, http.StatusOK, resp)
}

// GetQuality returns the data quality snapshot of a sector payload
// GET /api/data/quality?sector=technology
func (h *DataHandler) GetQuality(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("sector")
	if key == "" {
		respondError(w, http.StatusBadRequest, "sector query parameter is required")
		return
	}

	ds, err := h.source.Load(r.Context(), key)
	if err != nil {
		h.logger.WithError(err).WithField("sector", key).Error("Failed to load sector")
		respondError(w, http.StatusBadGateway, "Failed to load sector data")
		return
	}

	flat := s0_data.Flatten(ds)
	respondJSON(w, http.StatusOK, h.qualityGate.Check(flat.Stocks))
}

// CollectRequest represents a data collection request
type CollectRequest struct {
	Sectors []string `json:"sectors"`
	Workers int      `json:"workers,omitempty"`
}

// CollectResponse represents a data collection response
type CollectResponse struct {
	Status  string            `json:"status"`
	Sectors []string          `json:"sectors"`
	Stocks  int               `json:"stocks"`
	Failed  map[string]string `json:"failed,omitempty"`
}

// Collect fetches several sector payloads (warming the cache when enabled)
// POST /api/data/collect
func (h *DataHandler) Collect(w http.ResponseWriter, r *http.Request) {
	var req CollectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Sectors) == 0 {
		respondError(w, http.StatusBadRequest, "sectors is required")
		return
	}

	workers := req.Workers
	if workers <= 0 {
		workers = h.workers
	}

	ds, results, err := h.collector.Collect(r.Context(), req.Sectors, collector.Config{Workers: workers})
	if err != nil {
		h.logger.WithError(err).Error("Failed to collect sectors")
		respondError(w, http.StatusBadGateway, "Failed to collect sector data")
		return
	}

	resp := CollectResponse{
		Status:  "success",
		Sectors: ds.Keys(),
		Stocks:  ds.StockCount(),
	}
	for _, res := range results {
		if res.Error == nil {
			continue
		}
		if resp.Failed == nil {
			resp.Failed = make(map[string]string)
		}
		resp.Failed[res.SectorKey] = res.Error.Error()
	}
	if len(resp.Failed) > 0 {
		resp.Status = "partial"
	}

	respondJSON(w, http.StatusOK, resp)
}

// InvalidateCache drops the cached payload of a sector
// DELETE /api/sectors/{key}/cache
func (h *DataHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		respondError(w, http.StatusServiceUnavailable, "Cache is not enabled")
		return
	}

	key := mux.Vars(r)["key"]
	if err := h.cache.Invalidate(r.Context(), key); err != nil {
		h.logger.WithError(err).WithField("sector", key).Error("Failed to invalidate cache")
		respondError(w, http.StatusInternalServerError, "Failed to invalidate cache")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sectorLabel resolves a dataset key to its display label
func sectorLabel(ds *contracts.Dataset, key string) string {
	if node, ok := ds.Sector(key); ok {
		return s0_data.FormatSectorName(key, node.SectorName)
	}
	return s0_data.FormatSectorName(key, nil)
}

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}
