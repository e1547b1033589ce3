package services

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

var testScope = tenant.Scope{AdminID: 1}

// fakeLedger is an in-memory DeliveryStore.
type fakeLedger struct {
	customers []*models.Customer
	entries   []*models.DeliveryEntry
}

func (f *fakeLedger) add(customerID *int, name, kind string, date time.Time, qty int, amount float64) {
	f.entries = append(f.entries, &models.DeliveryEntry{
		ID:           len(f.entries) + 1,
		AdminID:      testScope.AdminID,
		CustomerID:   customerID,
		CustomerName: name,
		Kind:         kind,
		DeliveryDate: date,
		Quantity:     qty,
		Amount:       amount,
	})
}

func (f *fakeLedger) matches(e *models.DeliveryEntry, customerID int, customerName string) bool {
	if e.CustomerID != nil {
		return *e.CustomerID == customerID
	}
	return e.CustomerName == customerName
}

func (f *fakeLedger) MonthlyAggregate(_ context.Context, _ tenant.Scope, customerID int, customerName string, start, end time.Time) (*models.DeliveryAggregate, error) {
	agg := &models.DeliveryAggregate{}
	for _, e := range f.entries {
		if e.Kind != models.DeliveryKindDelivered || !f.matches(e, customerID, customerName) {
			continue
		}
		if e.DeliveryDate.Before(start) || e.DeliveryDate.After(end) {
			continue
		}
		agg.Amount += e.Amount
		agg.Quantity += e.Quantity
		agg.EntryCount++
		if e.CustomerID == nil {
			agg.NameMatched++
		}
	}
	return agg, nil
}

func (f *fakeLedger) BillableMonths(_ context.Context, _ tenant.Scope, customerID int, customerName string) ([]time.Time, error) {
	seen := map[time.Time]bool{}
	for _, e := range f.entries {
		if e.Kind == models.DeliveryKindDelivered && f.matches(e, customerID, customerName) {
			seen[timeutil.MonthStart(e.DeliveryDate)] = true
		}
	}
	var months []time.Time
	for m := range seen {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	return months, nil
}

func (f *fakeLedger) CustomersWithActivity(_ context.Context, _ tenant.Scope) ([]*models.Customer, error) {
	var active []*models.Customer
	for _, c := range f.customers {
		for _, e := range f.entries {
			if e.Kind == models.DeliveryKindDelivered && f.matches(e, c.ID, c.Name) {
				active = append(active, c)
				break
			}
		}
	}
	return active, nil
}

// fakeBillStore is an in-memory BillStore recording audit entries alongside
// each mutation.
type fakeBillStore struct {
	bills  []*models.Bill
	paid   map[int]float64
	logs   []*models.PaymentLogEntry
	nextID int

	// failCreateFor forces CreateWithLog to fail for one customer, to test
	// per-customer error isolation in the bulk jobs.
	failCreateFor int
}

func newFakeBillStore() *fakeBillStore {
	return &fakeBillStore{paid: map[int]float64{}, nextID: 1}
}

func (f *fakeBillStore) GetByPeriod(_ context.Context, _ tenant.Scope, customerID int, start, end time.Time) (*models.Bill, error) {
	for _, b := range f.bills {
		if b.CustomerID == customerID && b.PeriodStart.Equal(start) && b.PeriodEnd.Equal(end) {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBillStore) PriorBill(_ context.Context, _ tenant.Scope, customerID int, before time.Time) (*models.Bill, float64, error) {
	var prior *models.Bill
	for _, b := range f.bills {
		if b.CustomerID != customerID || !b.PeriodEnd.Before(before) {
			continue
		}
		if prior == nil || b.PeriodEnd.After(prior.PeriodEnd) {
			prior = b
		}
	}
	if prior == nil {
		return nil, 0, nil
	}
	return prior, f.paid[prior.ID], nil
}

func (f *fakeBillStore) CreateWithLog(_ context.Context, scope tenant.Scope, bill *models.Bill, logEntry *models.PaymentLogEntry) error {
	if f.failCreateFor != 0 && bill.CustomerID == f.failCreateFor {
		return fmt.Errorf("simulated store failure")
	}
	bill.ID = f.nextID
	bill.AdminID = scope.AdminID
	f.nextID++
	f.bills = append(f.bills, bill)
	f.logs = append(f.logs, logEntry)
	return nil
}

func (f *fakeBillStore) UpdateTotalsWithLog(_ context.Context, _ tenant.Scope, bill *models.Bill, logEntry *models.PaymentLogEntry) error {
	for i, b := range f.bills {
		if b.ID == bill.ID {
			f.bills[i] = bill
			f.logs = append(f.logs, logEntry)
			return nil
		}
	}
	return fmt.Errorf("bill %d not in store", bill.ID)
}

func (f *fakeBillStore) Get(_ context.Context, _ tenant.Scope, id int) (*models.BillWithStatus, error) {
	for _, b := range f.bills {
		if b.ID == id {
			return &models.BillWithStatus{Bill: *b, TotalDue: b.TotalDue(), Paid: f.paid[b.ID]}, nil
		}
	}
	return nil, fmt.Errorf("bill %d not in store", id)
}

func (f *fakeBillStore) List(_ context.Context, _ tenant.Scope, _ *int, _ *time.Time) ([]*models.BillWithStatus, error) {
	var out []*models.BillWithStatus
	for _, b := range f.bills {
		out = append(out, &models.BillWithStatus{Bill: *b, TotalDue: b.TotalDue(), Paid: f.paid[b.ID]})
	}
	return out, nil
}

func (f *fakeBillStore) DeleteWithLog(_ context.Context, _ tenant.Scope, id int, logEntry *models.PaymentLogEntry) error {
	for i, b := range f.bills {
		if b.ID == id {
			f.bills = append(f.bills[:i], f.bills[i+1:]...)
			f.logs = append(f.logs, logEntry)
			return nil
		}
	}
	return fmt.Errorf("bill %d not in store", id)
}

func (f *fakeBillStore) DeleteAllForTenant(_ context.Context, _ tenant.Scope) (int64, error) {
	n := int64(len(f.bills))
	f.bills = nil
	return n, nil
}

func (f *fakeBillStore) billFor(customerID int, start time.Time) *models.Bill {
	for _, b := range f.bills {
		if b.CustomerID == customerID && b.PeriodStart.Equal(start) {
			return b
		}
	}
	return nil
}

func (f *fakeBillStore) lastLog() *models.PaymentLogEntry {
	if len(f.logs) == 0 {
		return nil
	}
	return f.logs[len(f.logs)-1]
}

type fakePaymentWipe struct {
	count int64
}

func (f *fakePaymentWipe) DeleteAllForTenant(_ context.Context, _ tenant.Scope) (int64, error) {
	n := f.count
	f.count = 0
	return n, nil
}

func ist(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, timeutil.IST)
}

func newTestBillingService(ledger *fakeLedger, bills *fakeBillStore, payments *fakePaymentWipe) *BillingService {
	return NewBillingService(bills, ledger, payments, zap.NewNop())
}

func TestAggregateMonthCreatesBill(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 500)
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 20), 1, 300)
	// Received entries record empties coming back and never bill.
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindReceived, ist(2024, time.January, 21), 3, 0)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	outcome, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, AggregateCreated, outcome)

	bill := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.January, 1)))
	require.NotNil(t, bill)
	assert.Equal(t, 800.0, bill.PeriodCharge)
	assert.Equal(t, 3, bill.CylinderCount)
	assert.Equal(t, 0.0, bill.PriorBalance)
	assert.Equal(t, 800.0, bill.TotalDue())

	require.Len(t, bills.logs, 1)
	assert.Equal(t, models.EventBillGenerated, bills.lastLog().Event)
	assert.Equal(t, 800.0, bills.lastLog().Balance)
}

func TestAggregateMonthSkipsEmptyMonth(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	outcome, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, AggregateSkipped, outcome)
	assert.Empty(t, bills.bills)
	assert.Empty(t, bills.logs)
}

func TestAggregateMonthIsIdempotent(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 500)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	outcome, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 15))
	require.NoError(t, err)
	assert.Equal(t, AggregateCreated, outcome)

	// Re-running lands the same totals on the same row.
	outcome, err = svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 28))
	require.NoError(t, err)
	assert.Equal(t, AggregateUpdated, outcome)

	require.Len(t, bills.bills, 1)
	assert.Equal(t, 500.0, bills.bills[0].PeriodCharge)
	assert.Equal(t, models.EventBillUpdated, bills.lastLog().Event)
}

func TestAggregateMonthCarriesPriorBalance(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 5, 1500)
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.February, 8), 2, 800)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	_, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 1))
	require.NoError(t, err)

	// 1000 of January's 1500 is paid before February aggregates.
	jan := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.January, 1)))
	require.NotNil(t, jan)
	bills.paid[jan.ID] = 1000

	_, err = svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.February, 1))
	require.NoError(t, err)

	feb := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.February, 1)))
	require.NotNil(t, feb)
	assert.Equal(t, 500.0, feb.PriorBalance)
	assert.Equal(t, 800.0, feb.PeriodCharge)
	assert.Equal(t, 1300.0, feb.TotalDue())
}

func TestAggregateMonthOverpaidPriorCarriesZero(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 1, 400)
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.February, 8), 1, 400)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	_, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 1))
	require.NoError(t, err)
	jan := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.January, 1)))
	bills.paid[jan.ID] = 400

	_, err = svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.February, 1))
	require.NoError(t, err)

	feb := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.February, 1)))
	assert.Equal(t, 0.0, feb.PriorBalance)
}

func TestAggregateMonthMatchesByName(t *testing.T) {
	// Register-import rows carry no customer id, only the handwritten name.
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(nil, "Ramesh Traders", models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 600)
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 9), 1, 300)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	outcome, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, AggregateCreated, outcome)

	bill := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.January, 1)))
	require.NotNil(t, bill)
	assert.Equal(t, 900.0, bill.PeriodCharge)
	assert.Equal(t, 3, bill.CylinderCount)
}

func TestResyncAll(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	sunita := &models.Customer{ID: 11, Code: 2, Name: "Sunita Stores"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh, sunita}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 500)
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.February, 5), 2, 500)
	ledger.add(&sunita.ID, sunita.Name, models.DeliveryKindDelivered, ist(2024, time.February, 12), 1, 350)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	stats, errs, err := svc.ResyncAll(context.Background(), testScope)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 2, stats.CustomersProcessed)
	assert.Equal(t, 3, stats.BillsCreated)
	assert.Equal(t, 0, stats.BillsUpdated)
	assert.Equal(t, 0, stats.Errors)

	// February carries January's full unpaid balance for Ramesh.
	feb := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.February, 1)))
	require.NotNil(t, feb)
	assert.Equal(t, 500.0, feb.PriorBalance)

	// A second run refreshes in place instead of duplicating.
	stats, errs, err = svc.ResyncAll(context.Background(), testScope)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 0, stats.BillsCreated)
	assert.Equal(t, 3, stats.BillsUpdated)
	assert.Len(t, bills.bills, 3)
}

func TestResyncIsolatesCustomerFailures(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	sunita := &models.Customer{ID: 11, Code: 2, Name: "Sunita Stores"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh, sunita}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 500)
	ledger.add(&sunita.ID, sunita.Name, models.DeliveryKindDelivered, ist(2024, time.January, 12), 1, 350)

	bills := newFakeBillStore()
	bills.failCreateFor = ramesh.ID
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	stats, errs, err := svc.ResyncAll(context.Background(), testScope)
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Errors)
	assert.Equal(t, 1, stats.CustomersProcessed)
	assert.Equal(t, 1, stats.BillsCreated)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "Ramesh Traders")

	// Sunita's bill landed despite Ramesh failing.
	assert.NotNil(t, bills.billFor(sunita.ID, timeutil.MonthStart(ist(2024, time.January, 1))))
}

func TestRegenerateAll(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 800)
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.February, 5), 1, 500)

	bills := newFakeBillStore()
	payments := &fakePaymentWipe{count: 4}
	svc := newTestBillingService(ledger, bills, payments)

	// Seed stale bills that the rebuild must discard.
	_, _, err := svc.ResyncAll(context.Background(), testScope)
	require.NoError(t, err)
	require.Len(t, bills.bills, 2)

	stats, errs, err := svc.RegenerateAll(context.Background(), testScope)
	require.NoError(t, err)
	assert.Empty(t, errs)
	assert.Equal(t, 2, stats.BillsDeleted)
	assert.Equal(t, 4, stats.PaymentsDeleted)
	assert.Equal(t, 1, stats.CustomersProcessed)
	assert.Equal(t, 2, stats.BillsCreated)

	// Fresh bills have no payments, so February's prior balance is January's
	// entire total due.
	jan := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.January, 1)))
	feb := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.February, 1)))
	require.NotNil(t, jan)
	require.NotNil(t, feb)
	assert.Equal(t, 800.0, jan.TotalDue())
	assert.Equal(t, 800.0, feb.PriorBalance)
	assert.Equal(t, 1300.0, feb.TotalDue())
}

func TestDeleteBillLogsSnapshot(t *testing.T) {
	ramesh := &models.Customer{ID: 10, Code: 1, Name: "Ramesh Traders"}
	ledger := &fakeLedger{customers: []*models.Customer{ramesh}}
	ledger.add(&ramesh.ID, ramesh.Name, models.DeliveryKindDelivered, ist(2024, time.January, 5), 2, 800)

	bills := newFakeBillStore()
	svc := newTestBillingService(ledger, bills, &fakePaymentWipe{})

	_, err := svc.AggregateMonth(context.Background(), testScope, ramesh, ist(2024, time.January, 1))
	require.NoError(t, err)
	bill := bills.billFor(ramesh.ID, timeutil.MonthStart(ist(2024, time.January, 1)))

	require.NoError(t, svc.DeleteBill(context.Background(), testScope, bill.ID))
	assert.Empty(t, bills.bills)
	assert.Equal(t, models.EventBillDeleted, bills.lastLog().Event)
	assert.Equal(t, ramesh.Name, bills.lastLog().CustomerName)
}
