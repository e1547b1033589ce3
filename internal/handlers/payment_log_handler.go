package handlers

import (
	"net/http"
	"strconv"

	"lpg-backend/internal/models"
	"lpg-backend/internal/repositories"
	"lpg-backend/internal/tenant"
	"lpg-backend/pkg/utils"
)

type PaymentLogHandler struct {
	Repo *repositories.PaymentLogRepository
}

func NewPaymentLogHandler(repo *repositories.PaymentLogRepository) *PaymentLogHandler {
	return &PaymentLogHandler{Repo: repo}
}

// ListLogs returns the audit trail, newest first. Filters: customer_id, event,
// limit, offset.
func (h *PaymentLogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	filter := &models.PaymentLogFilter{}

	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			utils.BadRequest(w, "customer_id must be an integer")
			return
		}
		filter.CustomerID = &id
	}
	if event := r.URL.Query().Get("event"); event != "" {
		filter.Event = models.PaymentLogEvent(event)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		filter.Offset, _ = strconv.Atoi(raw)
	}

	logs, err := h.Repo.List(r.Context(), scope, filter)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, logs)
}
