package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/billing"
	"lpg-backend/internal/models"
	"lpg-backend/internal/services"
	"lpg-backend/internal/tenant"
)

// fakePaymentStore mimics the repository's precondition checks for one bill.
type fakePaymentStore struct {
	billID   int
	totalDue float64
	paid     float64
	invoiced bool

	payments []*models.Payment
}

func (f *fakePaymentStore) ApplyPayment(_ context.Context, scope tenant.Scope, billID int, payment *models.Payment) (*models.PaymentResult, error) {
	if billID != f.billID {
		return nil, apperr.NotFoundf("bill %d not found", billID)
	}
	if f.invoiced {
		return nil, apperr.Forbiddenf("bill %d has an invoice; delete the invoice before changing payments", billID)
	}
	if err := billing.ValidateAmount(payment.Amount, f.totalDue, f.paid); err != nil {
		return nil, err
	}
	payment.ID = len(f.payments) + 1
	payment.AdminID = scope.AdminID
	f.payments = append(f.payments, payment)
	f.paid += payment.Amount
	remaining := billing.Remaining(f.totalDue, f.paid)
	return &models.PaymentResult{
		Payment:    payment,
		CustomerID: 10,
		TotalDue:   f.totalDue,
		Paid:       f.paid,
		Remaining:  remaining,
		Status:     billing.DeriveStatus(f.paid, f.totalDue),
	}, nil
}

func (f *fakePaymentStore) ListByBill(_ context.Context, _ tenant.Scope, billID int) ([]*models.Payment, error) {
	if billID != f.billID {
		return nil, apperr.NotFoundf("bill %d not found", billID)
	}
	return f.payments, nil
}

func newPaymentTestRouter(store *fakePaymentStore) *mux.Router {
	handler := NewPaymentHandler(services.NewPaymentService(store, zap.NewNop()))
	r := mux.NewRouter()
	r.HandleFunc("/api/bills/{id}/payments", handler.ApplyPayment).Methods(http.MethodPost)
	r.HandleFunc("/api/bills/{id}/payments", handler.ListPayments).Methods(http.MethodGet)
	return r
}

func postPayment(t *testing.T, router *mux.Router, path string, body map[string]interface{}, scoped bool) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	if scoped {
		req = req.WithContext(tenant.WithScope(req.Context(), tenant.Scope{AdminID: 1}))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestApplyPayment(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000, paid: 4000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{
		"amount": 600, "paid_on": "2024-02-10", "method": "upi",
	}, true)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 4600.0, body["paid"])
	assert.Equal(t, 400.0, body["remaining"])
	assert.Equal(t, string(models.BillPartiallyPaid), body["status"])
}

func TestApplyPaymentSettlesBill(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000, paid: 4000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{
		"amount": 1000,
	}, true)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, 0.0, body["remaining"])
	assert.Equal(t, string(models.BillPaid), body["status"])
}

func TestApplyPaymentMissingBill(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/99/payments", map[string]interface{}{"amount": 100}, true)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "not found")
}

func TestApplyPaymentInvoicedBillRefused(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000, invoiced: true}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{"amount": 100}, true)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "delete the invoice")
}

func TestApplyPaymentOverpaymentCitesRemaining(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000, paid: 4000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{"amount": 2000}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "exceeds remaining due of ₹1000")
}

func TestApplyPaymentFractionalAmountRejected(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{"amount": 100.50}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "whole rupee")
}

func TestApplyPaymentBadDate(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{
		"amount": 100, "paid_on": "10-02-2024",
	}, true)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["error"], "YYYY-MM-DD")
}

func TestApplyPaymentRequiresScope(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{"amount": 100}, false)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, store.payments)
}

func TestListPayments(t *testing.T) {
	store := &fakePaymentStore{billID: 7, totalDue: 5000}
	router := newPaymentTestRouter(store)

	rec := postPayment(t, router, "/api/bills/7/payments", map[string]interface{}{"amount": 300}, true)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/bills/7/payments", nil)
	req = req.WithContext(tenant.WithScope(req.Context(), tenant.Scope{AdminID: 1}))
	listRec := httptest.NewRecorder()
	router.ServeHTTP(listRec, req)

	assert.Equal(t, http.StatusOK, listRec.Code)
	var payments []*models.Payment
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &payments))
	require.Len(t, payments, 1)
	assert.Equal(t, 300.0, payments[0].Amount)
}
