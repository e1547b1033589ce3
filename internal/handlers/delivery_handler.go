package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lpg-backend/internal/models"
	"lpg-backend/internal/services"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
	"lpg-backend/pkg/utils"
)

type DeliveryHandler struct {
	Service *services.DeliveryService
}

func NewDeliveryHandler(s *services.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{Service: s}
}

func (h *DeliveryHandler) CreateDelivery(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	var req models.CreateDeliveryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	entry, err := h.Service.RecordMovement(r.Context(), scope, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, entry)
}

// ListDeliveries lists one month's movements. The month query parameter is
// YYYY-MM and defaults to the current IST month.
func (h *DeliveryHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	ref := timeutil.Now()
	if month := r.URL.Query().Get("month"); month != "" {
		ref, err = timeutil.ParseInIST("2006-01", month)
		if err != nil {
			utils.BadRequest(w, "month must be YYYY-MM")
			return
		}
	}

	entries, err := h.Service.ListByMonth(r.Context(), scope, ref)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, entries)
}

func (h *DeliveryHandler) ListCustomerDeliveries(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	customerID, _ := strconv.Atoi(mux.Vars(r)["id"])

	entries, err := h.Service.ListByCustomer(r.Context(), scope, customerID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, entries)
}

func (h *DeliveryHandler) DeleteDelivery(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.Service.DeleteEntry(r.Context(), scope, id); err != nil {
		utils.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
