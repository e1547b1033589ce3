package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/billing"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

type PaymentRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

// ApplyPayment records a payment against a bill. The whole read-validate-write
// sequence runs under a row lock on the bill so two concurrent payments cannot
// both pass the over-payment check: lock bill, refuse if invoiced, sum paid,
// validate amount against remaining, insert payment, append audit record.
func (r *PaymentRepository) ApplyPayment(ctx context.Context, scope tenant.Scope, billID int, payment *models.Payment) (*models.PaymentResult, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	bill := &models.Bill{}
	err = tx.QueryRow(ctx,
		`SELECT `+billColumns+`
		 FROM bills
		 WHERE admin_id = $1 AND id = $2
		 FOR UPDATE`,
		scope.AdminID, billID,
	).Scan(&bill.ID, &bill.AdminID, &bill.CustomerID, &bill.CustomerName, &bill.PeriodStart, &bill.PeriodEnd,
		&bill.PriorBalance, &bill.PeriodCharge, &bill.CylinderCount, &bill.CreatedAt, &bill.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("bill %d not found", billID)
	}
	if err != nil {
		return nil, err
	}

	// Financial lock: payment history is frozen while an invoice exists.
	var locked bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE bill_id = $1)`, billID,
	).Scan(&locked); err != nil {
		return nil, err
	}
	if locked {
		return nil, apperr.Forbiddenf("bill %d has an invoice; delete the invoice before changing payments", billID)
	}

	var paid float64
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE bill_id = $1`, billID,
	).Scan(&paid); err != nil {
		return nil, err
	}

	totalDue := bill.TotalDue()
	if err := billing.ValidateAmount(payment.Amount, totalDue, paid); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO payments (admin_id, bill_id, amount, paid_on, method, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		scope.AdminID, billID, payment.Amount,
		payment.PaidOn.Format(timeutil.DateLayout), payment.Method, payment.Notes,
	).Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}
	payment.AdminID = scope.AdminID
	payment.BillID = billID

	newPaid := paid + payment.Amount
	remaining := billing.Remaining(totalDue, newPaid)
	event := billing.EventForPayment(remaining)

	var customerCode int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(code, 0) FROM customers WHERE admin_id = $1 AND id = $2`,
		scope.AdminID, bill.CustomerID,
	).Scan(&customerCode); err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var details string
	period := timeutil.FormatIST(bill.PeriodStart, timeutil.MonthLayout)
	if event == models.EventPaymentReceived {
		details = fmt.Sprintf("Payment of ₹%.0f from %s settled the %s bill in full", payment.Amount, bill.CustomerName, period)
	} else {
		details = fmt.Sprintf("Partial payment of ₹%.0f from %s for %s; ₹%.0f remaining", payment.Amount, bill.CustomerName, period, remaining)
	}

	logEntry := &models.PaymentLogEntry{
		Event:        event,
		CustomerID:   &bill.CustomerID,
		CustomerName: bill.CustomerName,
		CustomerCode: customerCode,
		PeriodStart:  &bill.PeriodStart,
		PeriodEnd:    &bill.PeriodEnd,
		Amount:       payment.Amount,
		Balance:      remaining,
		Details:      details,
	}
	if err := insertPaymentLog(ctx, tx, scope, logEntry); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit payment: %w", err)
	}

	return &models.PaymentResult{
		Payment:    payment,
		CustomerID: bill.CustomerID,
		TotalDue:   totalDue,
		Paid:       newPaid,
		Remaining:  remaining,
		Status:     billing.DeriveStatus(newPaid, totalDue),
	}, nil
}

// ListByBill returns a bill's payments, newest first.
func (r *PaymentRepository) ListByBill(ctx context.Context, scope tenant.Scope, billID int) ([]*models.Payment, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, admin_id, bill_id, amount, paid_on, COALESCE(method, ''), COALESCE(notes, ''), created_at
		 FROM payments
		 WHERE admin_id = $1 AND bill_id = $2
		 ORDER BY paid_on DESC, id DESC`,
		scope.AdminID, billID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*models.Payment
	for rows.Next() {
		p := &models.Payment{}
		if err := rows.Scan(&p.ID, &p.AdminID, &p.BillID, &p.Amount, &p.PaidOn, &p.Method, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SumForBill returns the paid total for one bill.
func (r *PaymentRepository) SumForBill(ctx context.Context, scope tenant.Scope, billID int) (float64, error) {
	var paid float64
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE admin_id = $1 AND bill_id = $2`,
		scope.AdminID, billID,
	).Scan(&paid)
	return paid, err
}

// DeleteAllForTenant removes every payment of the tenant in one transaction.
// First phase of the destructive regenerate job.
func (r *PaymentRepository) DeleteAllForTenant(ctx context.Context, scope tenant.Scope) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM payments WHERE admin_id = $1`, scope.AdminID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete payments: %w", err)
	}
	return tag.RowsAffected(), nil
}
