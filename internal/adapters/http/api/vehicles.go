package api

import (
	"errors"
	"net/http"
	"strings"
)

// VehiclesHandler serves per-vehicle intelligence reads and rebuilds.
type VehiclesHandler struct {
	deps Dependencies
}

// NewVehiclesHandler creates a vehicles handler.
func NewVehiclesHandler(deps Dependencies) *VehiclesHandler {
	return &VehiclesHandler{deps: deps}
}

func vehicleID(r *http.Request) (string, error) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		return "", errors.New("missing vehicle id")
	}
	return id, nil
}

// HandleGetIntelligence returns the (possibly cached) aggregate snapshot.
func (h *VehiclesHandler) HandleGetIntelligence(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	agg := h.deps.GetOrBuild(r.Context(), id, r.URL.Query().Get("vin"), r.URL.Query().Get("plate"))
	writeJSON(w, http.StatusOK, agg)
}

// HandleGetOutput returns the last persisted VIO document.
func (h *VehiclesHandler) HandleGetOutput(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	vio, err := h.deps.Output(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", errors.New("no output generated for vehicle"))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, vio)
}

// HandleGetStatus returns the last-known generation status.
func (h *VehiclesHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	st, err := h.deps.Status(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "not_found", errors.New("no generation recorded for vehicle"))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type rebuildResponse struct {
	Status string `json:"status"`
}

// HandleRebuild forces a rebuild. With ?async=1 the request is queued
// and 202 returned; otherwise the rebuild runs inline and the fresh
// aggregate is returned.
func (h *VehiclesHandler) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	id, err := vehicleID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}
	vin := r.URL.Query().Get("vin")
	plate := r.URL.Query().Get("plate")

	if r.URL.Query().Get("async") == "1" {
		if !h.deps.EnqueueRebuild(r.Context(), id, vin, plate) {
			writeError(w, http.StatusServiceUnavailable, "backpressure", errors.New("rebuild queue full"))
			return
		}
		writeJSON(w, http.StatusAccepted, rebuildResponse{Status: "queued"})
		return
	}

	agg := h.deps.Rebuild(r.Context(), id, vin, plate)
	writeJSON(w, http.StatusOK, agg)
}
