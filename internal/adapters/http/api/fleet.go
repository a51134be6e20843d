package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// defaultRankingLimit applies when ?limit is absent.
const defaultRankingLimit = 10

// FleetHandler serves fleet-wide ranking reads.
type FleetHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewFleetHandler creates a fleet handler.
func NewFleetHandler(deps Dependencies, maxLimit int) *FleetHandler {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &FleetHandler{deps: deps, maxLimit: maxLimit}
}

// HandleGetRanking returns the top-N vehicles by trust index.
func (h *FleetHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	limit := defaultRankingLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	entries, err := h.deps.TopN(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleGetRank returns the fleet rank for one vehicle.
func (h *FleetHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing vehicle id"))
		return
	}
	entry, err := h.deps.RankOf(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", errors.New("vehicle not ranked"))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
