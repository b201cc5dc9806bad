package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/wonny/epl-etl/internal/contracts"
	"github.com/wonny/epl-etl/internal/publish"
	"github.com/wonny/epl-etl/pkg/logger"
)

// ManifestReader returns the manifest of the last published run
type ManifestReader interface {
	ReadManifest(ctx context.Context) (*contracts.RunManifest, error)
}

// ResultsHandler serves published tables
// ⭐ SSOT: 결과 조회 API 핸들러는 이 구조체에서만
type ResultsHandler struct {
	reader    contracts.ResultReader
	manifests ManifestReader // optional
	logger    *logger.Logger
}

// NewResultsHandler creates a new results handler; manifests may be nil
func NewResultsHandler(reader contracts.ResultReader, manifests ManifestReader, log *logger.Logger) *ResultsHandler {
	return &ResultsHandler{
		reader:    reader,
		manifests: manifests,
		logger:    log,
	}
}

// SeasonsResponse lists the published seasons
type SeasonsResponse struct {
	Seasons []string `json:"seasons"`
	Count   int      `json:"count"`
}

// PositionsResponse is one season's standings table
type PositionsResponse struct {
	Season string                         `json:"season"`
	Rows   []contracts.TeamSeasonStanding `json:"rows"`
	Count  int                            `json:"count"`
}

// BestScoringResponse is one season's top scorer rows
type BestScoringResponse struct {
	Season string                      `json:"season"`
	Rows   []contracts.TopScorerRecord `json:"rows"`
	Count  int                         `json:"count"`
}

// ListSeasons returns every published season
// GET /api/seasons
func (h *ResultsHandler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := h.reader.Seasons(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list seasons")
		respondError(w, http.StatusInternalServerError, "Failed to list seasons")
		return
	}

	respondJSON(w, http.StatusOK, SeasonsResponse{Seasons: seasons, Count: len(seasons)})
}

// GetPositions returns a season's standings, optionally truncated with ?limit=N
// GET /api/seasons/{season}/positions
func (h *ResultsHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}

	rows, err := h.reader.ReadPositions(r.Context(), season)
	if err != nil {
		h.respondReadError(w, season, err)
		return
	}
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}

	respondJSON(w, http.StatusOK, PositionsResponse{Season: season, Rows: rows, Count: len(rows)})
}

// GetBestScoring returns a season's highest scoring team(s)
// GET /api/seasons/{season}/best-scoring
func (h *ResultsHandler) GetBestScoring(w http.ResponseWriter, r *http.Request) {
	season := mux.Vars(r)["season"]

	rows, err := h.reader.ReadBestScoring(r.Context(), season)
	if err != nil {
		h.respondReadError(w, season, err)
		return
	}

	respondJSON(w, http.StatusOK, BestScoringResponse{Season: season, Rows: rows, Count: len(rows)})
}

// GetManifest returns the manifest of the last published run
// GET /api/manifest
func (h *ResultsHandler) GetManifest(w http.ResponseWriter, r *http.Request) {
	if h.manifests == nil {
		respondError(w, http.StatusNotFound, "Manifest not available")
		return
	}

	m, err := h.manifests.ReadManifest(r.Context())
	if errors.Is(err, publish.ErrNotFound) {
		respondError(w, http.StatusNotFound, "No run has been published")
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to read manifest")
		respondError(w, http.StatusInternalServerError, "Failed to read manifest")
		return
	}

	respondJSON(w, http.StatusOK, m)
}

func (h *ResultsHandler) respondReadError(w http.ResponseWriter, season string, err error) {
	if errors.Is(err, publish.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Season "+season+" not found")
		return
	}
	h.logger.WithError(err).WithField("season", season).Error("Failed to read season")
	respondError(w, http.StatusInternalServerError, "Failed to read season")
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}
