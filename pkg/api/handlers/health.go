package handlers

import (
	"net/http"

	"github.com/andrewtheguy/s3browser-sub000/internal/apperr"
)

// HealthHandler answers the unauthenticated liveness probe. Unlike the
// teacher's HealthHandler (Liveness/Readiness/Stores over a multi-store
// registry), s3browser has one vault file opened once at startup — if
// Open failed the process never reaches serving state, so there is no
// partial-readiness condition left to report.
type HealthHandler struct{}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// Liveness handles GET /health.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	apperr.WriteJSONOK(w, map[string]string{"status": "ok"})
}
