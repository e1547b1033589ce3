package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lpg-backend/internal/models"
	"lpg-backend/internal/services"
	"lpg-backend/internal/tenant"
	"lpg-backend/pkg/utils"
)

type CustomerHandler struct {
	Service *services.CustomerService
}

func NewCustomerHandler(s *services.CustomerService) *CustomerHandler {
	return &CustomerHandler{Service: s}
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	customer, err := h.Service.CreateCustomer(r.Context(), scope, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	customers, err := h.Service.ListCustomers(r.Context(), scope)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	customer, err := h.Service.GetCustomer(r.Context(), scope, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	customer, err := h.Service.UpdateCustomer(r.Context(), scope, id, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.Service.DeleteCustomer(r.Context(), scope, id); err != nil {
		utils.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Outstanding returns the unpaid remainder on the customer's latest bill.
func (h *CustomerHandler) Outstanding(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	outstanding, err := h.Service.Outstanding(r.Context(), scope, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, outstanding)
}
