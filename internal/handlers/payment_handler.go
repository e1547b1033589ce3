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

type PaymentHandler struct {
	Service *services.PaymentService
}

func NewPaymentHandler(s *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{Service: s}
}

// ApplyPayment records a payment against a bill. Refused when the bill is
// invoiced or the amount exceeds the remaining due.
func (h *PaymentHandler) ApplyPayment(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	billID, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.ApplyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	paidOn := timeutil.Now()
	if req.PaidOn != "" {
		paidOn, err = timeutil.ParseInIST(timeutil.DateLayout, req.PaidOn)
		if err != nil {
			utils.BadRequest(w, "paid_on must be YYYY-MM-DD")
			return
		}
	}

	payment := &models.Payment{
		BillID: billID,
		Amount: req.Amount,
		PaidOn: paidOn,
		Method: req.Method,
		Notes:  req.Notes,
	}

	result, err := h.Service.ApplyPayment(r.Context(), scope, billID, payment)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, result)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	billID, _ := strconv.Atoi(mux.Vars(r)["id"])

	payments, err := h.Service.ListPayments(r.Context(), scope, billID)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, payments)
}
