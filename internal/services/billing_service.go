package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"lpg-backend/internal/billing"
	"lpg-backend/internal/cache"
	"lpg-backend/internal/metrics"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

// DeliveryStore is the slice of the delivery ledger the aggregator reads.
type DeliveryStore interface {
	MonthlyAggregate(ctx context.Context, scope tenant.Scope, customerID int, customerName string, start, end time.Time) (*models.DeliveryAggregate, error)
	BillableMonths(ctx context.Context, scope tenant.Scope, customerID int, customerName string) ([]time.Time, error)
	CustomersWithActivity(ctx context.Context, scope tenant.Scope) ([]*models.Customer, error)
}

// BillStore is the bill persistence the aggregator and jobs drive. The
// *WithLog methods pair the mutation with its audit record in one transaction.
type BillStore interface {
	GetByPeriod(ctx context.Context, scope tenant.Scope, customerID int, start, end time.Time) (*models.Bill, error)
	PriorBill(ctx context.Context, scope tenant.Scope, customerID int, before time.Time) (*models.Bill, float64, error)
	CreateWithLog(ctx context.Context, scope tenant.Scope, bill *models.Bill, logEntry *models.PaymentLogEntry) error
	UpdateTotalsWithLog(ctx context.Context, scope tenant.Scope, bill *models.Bill, logEntry *models.PaymentLogEntry) error
	Get(ctx context.Context, scope tenant.Scope, id int) (*models.BillWithStatus, error)
	List(ctx context.Context, scope tenant.Scope, customerID *int, periodStart *time.Time) ([]*models.BillWithStatus, error)
	DeleteWithLog(ctx context.Context, scope tenant.Scope, id int, logEntry *models.PaymentLogEntry) error
	DeleteAllForTenant(ctx context.Context, scope tenant.Scope) (int64, error)
}

// PaymentWipeStore is the payment side the regenerate job needs.
type PaymentWipeStore interface {
	DeleteAllForTenant(ctx context.Context, scope tenant.Scope) (int64, error)
}

// AggregateOutcome reports what one (customer, month) aggregation did.
type AggregateOutcome int

const (
	AggregateSkipped AggregateOutcome = iota
	AggregateCreated
	AggregateUpdated
)

// BillingService derives monthly bills from the delivery ledger and runs the
// bulk reconciliation jobs.
type BillingService struct {
	Bills      BillStore
	Deliveries DeliveryStore
	Payments   PaymentWipeStore
	Log        *zap.Logger
}

func NewBillingService(bills BillStore, deliveries DeliveryStore, payments PaymentWipeStore, log *zap.Logger) *BillingService {
	return &BillingService{Bills: bills, Deliveries: deliveries, Payments: payments, Log: log}
}

// AggregateMonth derives or refreshes the customer's bill for the calendar
// month containing ref. Re-running with unchanged ledger data is idempotent:
// the same totals land on the same bill row and no duplicate is created.
func (s *BillingService) AggregateMonth(ctx context.Context, scope tenant.Scope, customer *models.Customer, ref time.Time) (AggregateOutcome, error) {
	start, end := timeutil.MonthWindow(ref)

	agg, err := s.Deliveries.MonthlyAggregate(ctx, scope, customer.ID, customer.Name, start, end)
	if err != nil {
		return AggregateSkipped, err
	}
	// Months with no billable activity never get a bill, even when a prior
	// balance is outstanding; the balance surfaces on the next active month.
	if agg.EntryCount == 0 {
		return AggregateSkipped, nil
	}
	if agg.NameMatched > 0 {
		s.Log.Debug("delivery entries matched by denormalized name",
			zap.Int("customer_id", customer.ID),
			zap.String("customer_name", customer.Name),
			zap.Int("matched", agg.NameMatched),
			zap.Time("period_start", start))
	}

	priorBalance := 0.0
	prior, priorPaid, err := s.Bills.PriorBill(ctx, scope, customer.ID, start)
	if err != nil {
		return AggregateSkipped, err
	}
	if prior != nil {
		priorBalance = billing.CarryForward(prior.TotalDue(), priorPaid)
	}

	existing, err := s.Bills.GetByPeriod(ctx, scope, customer.ID, start, end)
	if err != nil {
		return AggregateSkipped, err
	}

	period := timeutil.FormatIST(start, timeutil.MonthLayout)
	if existing != nil {
		existing.PriorBalance = priorBalance
		existing.PeriodCharge = agg.Amount
		existing.CylinderCount = agg.Quantity
		logEntry := s.billLogEntry(models.EventBillUpdated, customer, existing,
			fmt.Sprintf("Bill for %s re-aggregated: charge ₹%.0f + prior ₹%.0f = due ₹%.0f", period, agg.Amount, priorBalance, existing.TotalDue()))
		if err := s.Bills.UpdateTotalsWithLog(ctx, scope, existing, logEntry); err != nil {
			return AggregateSkipped, err
		}
		metrics.BillsUpdated.Inc()
		cache.InvalidateCustomerOutstanding(ctx, scope.AdminID, customer.ID)
		return AggregateUpdated, nil
	}

	bill := &models.Bill{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		PeriodStart:   start,
		PeriodEnd:     end,
		PriorBalance:  priorBalance,
		PeriodCharge:  agg.Amount,
		CylinderCount: agg.Quantity,
	}
	logEntry := s.billLogEntry(models.EventBillGenerated, customer, bill,
		fmt.Sprintf("Bill generated for %s: charge ₹%.0f + prior ₹%.0f = due ₹%.0f", period, agg.Amount, priorBalance, bill.TotalDue()))
	if err := s.Bills.CreateWithLog(ctx, scope, bill, logEntry); err != nil {
		return AggregateSkipped, err
	}
	metrics.BillsGenerated.Inc()
	cache.InvalidateCustomerOutstanding(ctx, scope.AdminID, customer.ID)
	return AggregateCreated, nil
}

// ResyncAll incrementally re-derives every bill of the tenant from the
// delivery ledger: missing bills are created, existing ones refreshed in
// place. Payments and invoices are untouched. A failure on one customer is
// reported and never aborts the others.
func (s *BillingService) ResyncAll(ctx context.Context, scope tenant.Scope) (*models.ResyncStats, []string, error) {
	customers, err := s.Deliveries.CustomersWithActivity(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	stats := &models.ResyncStats{}
	var errs []string
	for _, customer := range customers {
		if err := s.resyncCustomer(ctx, scope, customer, stats); err != nil {
			stats.Errors++
			errs = append(errs, fmt.Sprintf("customer %s (#%d): %v", customer.Name, customer.Code, err))
			continue
		}
		stats.CustomersProcessed++
	}

	metrics.ReconciliationRuns.WithLabelValues("resync").Inc()
	s.Log.Info("resync complete",
		zap.Int("customers", stats.CustomersProcessed),
		zap.Int("created", stats.BillsCreated),
		zap.Int("updated", stats.BillsUpdated),
		zap.Int("errors", stats.Errors))
	return stats, errs, nil
}

func (s *BillingService) resyncCustomer(ctx context.Context, scope tenant.Scope, customer *models.Customer, stats *models.ResyncStats) error {
	months, err := s.Deliveries.BillableMonths(ctx, scope, customer.ID, customer.Name)
	if err != nil {
		return err
	}
	// Ascending month order so each bill's prior balance is already settled
	// by the time the next month aggregates.
	for _, month := range months {
		outcome, err := s.AggregateMonth(ctx, scope, customer, month)
		if err != nil {
			return err
		}
		switch outcome {
		case AggregateCreated:
			stats.BillsCreated++
		case AggregateUpdated:
			stats.BillsUpdated++
		}
	}
	return nil
}

// RegenerateAll is the destructive rebuild: it deletes every payment, then
// every bill of the tenant, then recreates all bills from the ledger in
// chronological order. All payment history is discarded; the operation is
// irreversible and restricted to admins at the handler.
func (s *BillingService) RegenerateAll(ctx context.Context, scope tenant.Scope) (*models.RegenerateStats, []string, error) {
	stats := &models.RegenerateStats{}

	// Two sequential delete phases, one transaction each: payments first so
	// no payment ever references a vanished bill mid-run.
	paymentsDeleted, err := s.Payments.DeleteAllForTenant(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	stats.PaymentsDeleted = int(paymentsDeleted)

	billsDeleted, err := s.Bills.DeleteAllForTenant(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	stats.BillsDeleted = int(billsDeleted)

	customers, err := s.Deliveries.CustomersWithActivity(ctx, scope)
	if err != nil {
		return nil, nil, err
	}

	var errs []string
	for _, customer := range customers {
		created, err := s.regenerateCustomer(ctx, scope, customer)
		stats.BillsCreated += created
		if err != nil {
			stats.Errors++
			errs = append(errs, fmt.Sprintf("customer %s (#%d): %v", customer.Name, customer.Code, err))
			continue
		}
		stats.CustomersProcessed++
	}

	metrics.ReconciliationRuns.WithLabelValues("regenerate").Inc()
	s.Log.Info("regenerate complete",
		zap.Int("bills_deleted", stats.BillsDeleted),
		zap.Int("payments_deleted", stats.PaymentsDeleted),
		zap.Int("customers", stats.CustomersProcessed),
		zap.Int("created", stats.BillsCreated),
		zap.Int("errors", stats.Errors))
	return stats, errs, nil
}

// regenerateCustomer rebuilds one customer's bills month by month in strictly
// ascending order. Old bills no longer exist to query, so the prior balance
// is carried in-run: with all payments gone it is simply the previous
// month's accumulated total due.
func (s *BillingService) regenerateCustomer(ctx context.Context, scope tenant.Scope, customer *models.Customer) (int, error) {
	months, err := s.Deliveries.BillableMonths(ctx, scope, customer.ID, customer.Name)
	if err != nil {
		return 0, err
	}

	created := 0
	runningUnpaid := 0.0
	for _, month := range months {
		start, end := timeutil.MonthWindow(month)
		agg, err := s.Deliveries.MonthlyAggregate(ctx, scope, customer.ID, customer.Name, start, end)
		if err != nil {
			return created, err
		}
		if agg.EntryCount == 0 {
			continue
		}

		bill := &models.Bill{
			CustomerID:    customer.ID,
			CustomerName:  customer.Name,
			PeriodStart:   start,
			PeriodEnd:     end,
			PriorBalance:  runningUnpaid,
			PeriodCharge:  agg.Amount,
			CylinderCount: agg.Quantity,
		}
		period := timeutil.FormatIST(start, timeutil.MonthLayout)
		logEntry := s.billLogEntry(models.EventBillGenerated, customer, bill,
			fmt.Sprintf("Bill regenerated for %s: charge ₹%.0f + prior ₹%.0f = due ₹%.0f", period, agg.Amount, runningUnpaid, bill.TotalDue()))
		if err := s.Bills.CreateWithLog(ctx, scope, bill, logEntry); err != nil {
			return created, err
		}
		created++
		metrics.BillsGenerated.Inc()
		runningUnpaid = bill.TotalDue()
	}
	cache.InvalidateCustomerOutstanding(ctx, scope.AdminID, customer.ID)
	return created, nil
}

// DeleteBill removes one bill and its payments, refusing while invoiced.
func (s *BillingService) DeleteBill(ctx context.Context, scope tenant.Scope, id int) error {
	bws, err := s.Bills.Get(ctx, scope, id)
	if err != nil {
		return err
	}
	period := timeutil.FormatIST(bws.PeriodStart, timeutil.MonthLayout)
	logEntry := &models.PaymentLogEntry{
		Event:        models.EventBillDeleted,
		CustomerID:   &bws.CustomerID,
		CustomerName: bws.CustomerName,
		PeriodStart:  &bws.PeriodStart,
		PeriodEnd:    &bws.PeriodEnd,
		Amount:       bws.TotalDue,
		Balance:      bws.Remaining,
		Details:      fmt.Sprintf("Bill for %s (%s) deleted; due was ₹%.0f with ₹%.0f unpaid", bws.CustomerName, period, bws.TotalDue, bws.Remaining),
	}
	if err := s.Bills.DeleteWithLog(ctx, scope, id, logEntry); err != nil {
		return err
	}
	cache.InvalidateCustomerOutstanding(ctx, scope.AdminID, bws.CustomerID)
	return nil
}

// GetBill returns one bill with derived status.
func (s *BillingService) GetBill(ctx context.Context, scope tenant.Scope, id int) (*models.BillWithStatus, error) {
	return s.Bills.Get(ctx, scope, id)
}

// ListBills returns bills with derived status, optionally filtered.
func (s *BillingService) ListBills(ctx context.Context, scope tenant.Scope, customerID *int, periodStart *time.Time) ([]*models.BillWithStatus, error) {
	return s.Bills.List(ctx, scope, customerID, periodStart)
}

func (s *BillingService) billLogEntry(event models.PaymentLogEvent, customer *models.Customer, bill *models.Bill, details string) *models.PaymentLogEntry {
	return &models.PaymentLogEntry{
		Event:        event,
		CustomerID:   &customer.ID,
		CustomerName: customer.Name,
		CustomerCode: customer.Code,
		PeriodStart:  &bill.PeriodStart,
		PeriodEnd:    &bill.PeriodEnd,
		Amount:       bill.PeriodCharge,
		Balance:      bill.TotalDue(),
		Details:      details,
	}
}
