package handlers

import (
	"net/http"

	"lpg-backend/internal/health"
	"lpg-backend/pkg/utils"
)

type HealthHandler struct {
	checker *health.Checker
}

func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness always answers ok while the process is up.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readiness pings the database.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.checker.Check(r.Context())

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}
