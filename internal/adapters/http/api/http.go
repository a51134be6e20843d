// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/torque/internal/adapters/repository"
	"github.com/okian/torque/internal/adapters/store"
	"github.com/okian/torque/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle
// keeps the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// GetOrBuild returns the cached or freshly built aggregate.
	GetOrBuild(ctx context.Context, vehicleID, vin, plate string) model.VehicleAggregate

	// Rebuild forces a fresh build, bypassing the cache.
	Rebuild(ctx context.Context, vehicleID, vin, plate string) model.VehicleAggregate

	// EnqueueRebuild submits an async rebuild. False means backpressure.
	EnqueueRebuild(ctx context.Context, vehicleID, vin, plate string) bool

	// Output returns the last persisted VIO.
	Output(ctx context.Context, vehicleID string) (model.VehicleIntelligenceOutput, error)

	// Status returns the last-known generation status.
	Status(ctx context.Context, vehicleID string) (model.GenerationStatus, error)

	// Fleet ranking reads.
	TopN(ctx context.Context, n int) ([]repository.Entry, error)
	RankOf(ctx context.Context, vehicleID string) (repository.Entry, error)
}

// StatsProvider exposes service statistics for the stats endpoint.
type StatsProvider interface {
	Stats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the business API.
type Server struct {
	vehiclesHandler *VehiclesHandler
	fleetHandler    *FleetHandler
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxRankingLimit int) *Server {
	return &Server{
		vehiclesHandler: NewVehiclesHandler(deps),
		fleetHandler:    NewFleetHandler(deps, maxRankingLimit),
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /vehicles/{id}/intelligence", MetricsMiddleware(s.vehiclesHandler.HandleGetIntelligence, "intelligence"))
	mux.HandleFunc("GET /vehicles/{id}/output", MetricsMiddleware(s.vehiclesHandler.HandleGetOutput, "output"))
	mux.HandleFunc("GET /vehicles/{id}/status", MetricsMiddleware(s.vehiclesHandler.HandleGetStatus, "status"))
	mux.HandleFunc("POST /vehicles/{id}/rebuild", MetricsMiddleware(s.vehiclesHandler.HandleRebuild, "rebuild"))
	mux.HandleFunc("GET /fleet/ranking", MetricsMiddleware(s.fleetHandler.HandleGetRanking, "ranking"))
	mux.HandleFunc("GET /fleet/rank/{id}", MetricsMiddleware(s.fleetHandler.HandleGetRank, "rank"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// isNotFound translates upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound) || errors.Is(err, repository.ErrNotFound)
}
