package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"lpg-backend/internal/services"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
	"lpg-backend/pkg/utils"
)

type BillHandler struct {
	Service *services.BillingService
}

func NewBillHandler(s *services.BillingService) *BillHandler {
	return &BillHandler{Service: s}
}

// ListBills supports optional customer_id and month (YYYY-MM) filters.
func (h *BillHandler) ListBills(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	var customerID *int
	if raw := r.URL.Query().Get("customer_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			utils.BadRequest(w, "customer_id must be an integer")
			return
		}
		customerID = &id
	}

	var periodStart *time.Time
	if month := r.URL.Query().Get("month"); month != "" {
		ref, err := timeutil.ParseInIST("2006-01", month)
		if err != nil {
			utils.BadRequest(w, "month must be YYYY-MM")
			return
		}
		start := timeutil.MonthStart(ref)
		periodStart = &start
	}

	bills, err := h.Service.ListBills(r.Context(), scope, customerID, periodStart)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, bills)
}

func (h *BillHandler) GetBill(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	bill, err := h.Service.GetBill(r.Context(), scope, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, bill)
}

// DeleteBill removes a bill and its payments. Refused while the bill has an
// invoice.
func (h *BillHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.Service.DeleteBill(r.Context(), scope, id); err != nil {
		utils.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Resync re-runs the aggregator over every ledger month of every customer with
// billable activity. Non-destructive; safe to call repeatedly.
func (h *BillHandler) Resync(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	stats, errs, err := h.Service.ResyncAll(r.Context(), scope)
	if err != nil {
		utils.Error(w, err)
		return
	}

	resp := map[string]interface{}{
		"success": len(errs) == 0,
		"stats":   stats,
	}
	if len(errs) > 0 {
		resp["errors"] = errs
	}
	utils.JSON(w, http.StatusOK, resp)
}

// Regenerate wipes every payment and bill for the tenant and rebuilds bills
// from the delivery ledger. Irreversible.
func (h *BillHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	stats, errs, err := h.Service.RegenerateAll(r.Context(), scope)
	if err != nil {
		utils.Error(w, err)
		return
	}

	resp := map[string]interface{}{
		"success": len(errs) == 0,
		"stats":   stats,
	}
	if len(errs) > 0 {
		resp["errors"] = errs
	}
	utils.JSON(w, http.StatusOK, resp)
}
