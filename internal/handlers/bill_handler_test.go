package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lpg-backend/internal/models"
	"lpg-backend/internal/services"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

// jobLedger serves one customer with one billable month.
type jobLedger struct {
	customer *models.Customer
	month    time.Time
	amount   float64
}

func (f *jobLedger) MonthlyAggregate(_ context.Context, _ tenant.Scope, customerID int, _ string, start, _ time.Time) (*models.DeliveryAggregate, error) {
	if customerID == f.customer.ID && start.Equal(timeutil.MonthStart(f.month)) {
		return &models.DeliveryAggregate{Amount: f.amount, Quantity: 1, EntryCount: 1}, nil
	}
	return &models.DeliveryAggregate{}, nil
}

func (f *jobLedger) BillableMonths(_ context.Context, _ tenant.Scope, _ int, _ string) ([]time.Time, error) {
	return []time.Time{timeutil.MonthStart(f.month)}, nil
}

func (f *jobLedger) CustomersWithActivity(_ context.Context, _ tenant.Scope) ([]*models.Customer, error) {
	return []*models.Customer{f.customer}, nil
}

// jobBillStore records creations; failCreate makes every create fail.
type jobBillStore struct {
	bills      []*models.Bill
	failCreate bool
}

func (f *jobBillStore) GetByPeriod(context.Context, tenant.Scope, int, time.Time, time.Time) (*models.Bill, error) {
	return nil, nil
}

func (f *jobBillStore) PriorBill(context.Context, tenant.Scope, int, time.Time) (*models.Bill, float64, error) {
	return nil, 0, nil
}

func (f *jobBillStore) CreateWithLog(_ context.Context, _ tenant.Scope, bill *models.Bill, _ *models.PaymentLogEntry) error {
	if f.failCreate {
		return fmt.Errorf("simulated store failure")
	}
	bill.ID = len(f.bills) + 1
	f.bills = append(f.bills, bill)
	return nil
}

func (f *jobBillStore) UpdateTotalsWithLog(context.Context, tenant.Scope, *models.Bill, *models.PaymentLogEntry) error {
	return nil
}

func (f *jobBillStore) Get(context.Context, tenant.Scope, int) (*models.BillWithStatus, error) {
	return nil, fmt.Errorf("not in store")
}

func (f *jobBillStore) List(context.Context, tenant.Scope, *int, *time.Time) ([]*models.BillWithStatus, error) {
	return nil, nil
}

func (f *jobBillStore) DeleteWithLog(context.Context, tenant.Scope, int, *models.PaymentLogEntry) error {
	return nil
}

func (f *jobBillStore) DeleteAllForTenant(context.Context, tenant.Scope) (int64, error) {
	n := int64(len(f.bills))
	f.bills = nil
	return n, nil
}

type jobPaymentWipe struct{ count int64 }

func (f *jobPaymentWipe) DeleteAllForTenant(context.Context, tenant.Scope) (int64, error) {
	return f.count, nil
}

func newJobTestRouter(bills *jobBillStore, payments *jobPaymentWipe) *mux.Router {
	ledger := &jobLedger{
		customer: &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"},
		month:    time.Date(2024, time.January, 1, 0, 0, 0, 0, timeutil.IST),
		amount:   800,
	}
	handler := NewBillHandler(services.NewBillingService(bills, ledger, payments, zap.NewNop()))
	r := mux.NewRouter()
	r.HandleFunc("/api/bills/resync", handler.Resync).Methods(http.MethodGet)
	r.HandleFunc("/api/bills/regenerate", handler.Regenerate).Methods(http.MethodPost)
	return r
}

func runJob(t *testing.T, router *mux.Router, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req = req.WithContext(tenant.WithScope(req.Context(), tenant.Scope{AdminID: 1}))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestResyncResponseShape(t *testing.T) {
	router := newJobTestRouter(&jobBillStore{}, &jobPaymentWipe{})

	rec := runJob(t, router, http.MethodGet, "/api/bills/resync")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "errors")

	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1.0, stats["customersProcessed"])
	assert.Equal(t, 1.0, stats["billsCreated"])
	assert.Equal(t, 0.0, stats["errors"])
}

func TestResyncReportsPerCustomerErrors(t *testing.T) {
	router := newJobTestRouter(&jobBillStore{failCreate: true}, &jobPaymentWipe{})

	rec := runJob(t, router, http.MethodGet, "/api/bills/resync")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])

	errs, ok := body["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Ramesh Traders")
}

func TestRegenerateResponseShape(t *testing.T) {
	bills := &jobBillStore{bills: []*models.Bill{{ID: 1}, {ID: 2}}}
	router := newJobTestRouter(bills, &jobPaymentWipe{count: 3})

	rec := runJob(t, router, http.MethodPost, "/api/bills/regenerate")

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])

	stats, ok := body["stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2.0, stats["billsDeleted"])
	assert.Equal(t, 3.0, stats["paymentsDeleted"])
	assert.Equal(t, 1.0, stats["billsCreated"])
}
