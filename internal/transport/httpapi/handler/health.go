package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks connectivity of the configured store
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests
type HealthHandler struct {
	store     Pinger
	storeName string
	startedAt time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store Pinger, storeName string) *HealthHandler {
	return &HealthHandler{
		store:     store,
		storeName: storeName,
		startedAt: time.Now(),
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string            `json:"status"`
	Store  string            `json:"store"`
	Checks map[string]string `json:"checks"`
	Uptime string            `json:"uptime"`
}

// GetHealth handles GET /health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"api": "healthy"}
	status := "ok"
	httpStatus := http.StatusOK

	if err := h.ping(r.Context()); err != nil {
		checks["store"] = "unhealthy: " + err.Error()
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "healthy"
	}

	respondWithJSON(w, httpStatus, HealthResponse{
		Status: status,
		Store:  h.storeName,
		Checks: checks,
		Uptime: time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// GetReadiness handles GET /health/ready
func (h *HealthHandler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	if err := h.ping(r.Context()); err != nil {
		respondWithError(w, http.StatusServiceUnavailable, "store not ready")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// GetLiveness handles GET /health/live
func GetLiveness(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return h.store.Ping(ctx)
}
