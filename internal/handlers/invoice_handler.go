package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"lpg-backend/internal/models"
	"lpg-backend/internal/services"
	"lpg-backend/internal/tenant"
	"lpg-backend/pkg/utils"
)

type InvoiceHandler struct {
	Service *services.InvoiceService
}

func NewInvoiceHandler(s *services.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{Service: s}
}

// GenerateInvoice issues an invoice for a bill, freezing its payment history.
func (h *InvoiceHandler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	var req models.CreateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.BadRequest(w, "invalid request body")
		return
	}

	invoice, err := h.Service.GenerateInvoice(r.Context(), scope, &req)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusCreated, invoice)
}

func (h *InvoiceHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	invoice, err := h.Service.GetInvoice(r.Context(), scope, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoice)
}

func (h *InvoiceHandler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	invoices, err := h.Service.ListInvoices(r.Context(), scope)
	if err != nil {
		utils.Error(w, err)
		return
	}

	utils.JSON(w, http.StatusOK, invoices)
}

// DeleteInvoice cancels an invoice, lifting the payment lock on its bill.
func (h *InvoiceHandler) DeleteInvoice(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	if err := h.Service.DeleteInvoice(r.Context(), scope, id); err != nil {
		utils.Error(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DownloadPDF streams the rendered invoice document.
func (h *InvoiceHandler) DownloadPDF(w http.ResponseWriter, r *http.Request) {
	scope, err := tenant.Require(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}

	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	data, invoiceNumber, err := h.Service.RenderPDF(r.Context(), scope, id)
	if err != nil {
		utils.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", invoiceNumber))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
