package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/billing"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
)

type BillRepository struct {
	DB *pgxpool.Pool
}

func NewBillRepository(db *pgxpool.Pool) *BillRepository {
	return &BillRepository{DB: db}
}

const billColumns = `id, admin_id, customer_id, customer_name, period_start, period_end,
	prior_balance, period_charge, cylinder_count, created_at, updated_at`

func scanBill(row pgx.Row) (*models.Bill, error) {
	b := &models.Bill{}
	err := row.Scan(&b.ID, &b.AdminID, &b.CustomerID, &b.CustomerName, &b.PeriodStart, &b.PeriodEnd,
		&b.PriorBalance, &b.PeriodCharge, &b.CylinderCount, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetByPeriod finds the bill for the exact period window, or nil when the
// customer has no bill for that month.
func (r *BillRepository) GetByPeriod(ctx context.Context, scope tenant.Scope, customerID int, start, end time.Time) (*models.Bill, error) {
	b, err := scanBill(r.DB.QueryRow(ctx,
		`SELECT `+billColumns+`
		 FROM bills
		 WHERE admin_id = $1 AND customer_id = $2 AND period_start = $3 AND period_end = $4`,
		scope.AdminID, customerID, start, end,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

// PriorBill returns the customer's most recent bill ending before the given
// instant, along with that bill's paid sum. Returns nil when the customer has
// no earlier bill.
func (r *BillRepository) PriorBill(ctx context.Context, scope tenant.Scope, customerID int, before time.Time) (*models.Bill, float64, error) {
	b, err := scanBill(r.DB.QueryRow(ctx,
		`SELECT `+billColumns+`
		 FROM bills
		 WHERE admin_id = $1 AND customer_id = $2 AND period_end < $3
		 ORDER BY period_end DESC LIMIT 1`,
		scope.AdminID, customerID, before,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}

	var paid float64
	err = r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE admin_id = $1 AND bill_id = $2`,
		scope.AdminID, b.ID,
	).Scan(&paid)
	if err != nil {
		return nil, 0, err
	}
	return b, paid, nil
}

// CreateWithLog inserts a bill and its BILL_GENERATED audit record in one
// transaction; a bill is never created without its log entry.
func (r *BillRepository) CreateWithLog(ctx context.Context, scope tenant.Scope, bill *models.Bill, logEntry *models.PaymentLogEntry) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO bills (admin_id, customer_id, customer_name, period_start, period_end,
		                    prior_balance, period_charge, cylinder_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		scope.AdminID, bill.CustomerID, bill.CustomerName, bill.PeriodStart, bill.PeriodEnd,
		bill.PriorBalance, bill.PeriodCharge, bill.CylinderCount,
	).Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create bill: %w", err)
	}
	bill.AdminID = scope.AdminID

	if err := insertPaymentLog(ctx, tx, scope, logEntry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateTotalsWithLog refreshes an existing bill's aggregated figures in place
// together with its BILL_UPDATED audit record. Status is never written; it is
// derived from payments at read time.
func (r *BillRepository) UpdateTotalsWithLog(ctx context.Context, scope tenant.Scope, bill *models.Bill, logEntry *models.PaymentLogEntry) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE bills SET prior_balance = $3, period_charge = $4, cylinder_count = $5, updated_at = NOW()
		 WHERE admin_id = $1 AND id = $2`,
		scope.AdminID, bill.ID, bill.PriorBalance, bill.PeriodCharge, bill.CylinderCount,
	)
	if err != nil {
		return fmt.Errorf("failed to update bill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("bill %d not found", bill.ID)
	}

	if err := insertPaymentLog(ctx, tx, scope, logEntry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Get returns one bill with its payment-derived figures and invoice lock state.
func (r *BillRepository) Get(ctx context.Context, scope tenant.Scope, id int) (*models.BillWithStatus, error) {
	bws := &models.BillWithStatus{}
	var invoiceID *int
	err := r.DB.QueryRow(ctx,
		`SELECT b.id, b.admin_id, b.customer_id, b.customer_name, b.period_start, b.period_end,
		        b.prior_balance, b.period_charge, b.cylinder_count, b.created_at, b.updated_at,
		        COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.bill_id = b.id), 0),
		        (SELECT i.id FROM invoices i WHERE i.bill_id = b.id)
		 FROM bills b
		 WHERE b.admin_id = $1 AND b.id = $2`,
		scope.AdminID, id,
	).Scan(&bws.ID, &bws.AdminID, &bws.CustomerID, &bws.CustomerName, &bws.PeriodStart, &bws.PeriodEnd,
		&bws.PriorBalance, &bws.PeriodCharge, &bws.CylinderCount, &bws.CreatedAt, &bws.UpdatedAt,
		&bws.Paid, &invoiceID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("bill %d not found", id)
	}
	if err != nil {
		return nil, err
	}

	bws.TotalDue = bws.Bill.TotalDue()
	bws.Remaining = billing.Remaining(bws.TotalDue, bws.Paid)
	bws.Status = billing.DeriveStatus(bws.Paid, bws.TotalDue)
	bws.InvoiceID = invoiceID
	return bws, nil
}

// List returns bills with derived status, optionally restricted to one
// customer and/or one period month, newest period first.
func (r *BillRepository) List(ctx context.Context, scope tenant.Scope, customerID *int, periodStart *time.Time) ([]*models.BillWithStatus, error) {
	query := `
		SELECT b.id, b.admin_id, b.customer_id, b.customer_name, b.period_start, b.period_end,
		       b.prior_balance, b.period_charge, b.cylinder_count, b.created_at, b.updated_at,
		       COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.bill_id = b.id), 0),
		       (SELECT i.id FROM invoices i WHERE i.bill_id = b.id)
		FROM bills b
		WHERE b.admin_id = $1`
	args := []any{scope.AdminID}

	if customerID != nil {
		args = append(args, *customerID)
		query += fmt.Sprintf(" AND b.customer_id = $%d", len(args))
	}
	if periodStart != nil {
		args = append(args, *periodStart)
		query += fmt.Sprintf(" AND b.period_start = $%d", len(args))
	}
	query += " ORDER BY b.period_start DESC, b.customer_id"

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bills []*models.BillWithStatus
	for rows.Next() {
		bws := &models.BillWithStatus{}
		var invoiceID *int
		if err := rows.Scan(&bws.ID, &bws.AdminID, &bws.CustomerID, &bws.CustomerName, &bws.PeriodStart, &bws.PeriodEnd,
			&bws.PriorBalance, &bws.PeriodCharge, &bws.CylinderCount, &bws.CreatedAt, &bws.UpdatedAt,
			&bws.Paid, &invoiceID); err != nil {
			return nil, err
		}
		bws.TotalDue = bws.Bill.TotalDue()
		bws.Remaining = billing.Remaining(bws.TotalDue, bws.Paid)
		bws.Status = billing.DeriveStatus(bws.Paid, bws.TotalDue)
		bws.InvoiceID = invoiceID
		bills = append(bills, bws)
	}
	return bills, rows.Err()
}

// DeleteWithLog removes one bill and its payments (FK cascade) together with
// a BILL_DELETED audit record. Refused while an invoice references the bill.
func (r *BillRepository) DeleteWithLog(ctx context.Context, scope tenant.Scope, id int, logEntry *models.PaymentLogEntry) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var billID int
	err = tx.QueryRow(ctx,
		`SELECT id FROM bills WHERE admin_id = $1 AND id = $2 FOR UPDATE`,
		scope.AdminID, id,
	).Scan(&billID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundf("bill %d not found", id)
	}
	if err != nil {
		return err
	}

	var locked bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE bill_id = $1)`, id,
	).Scan(&locked); err != nil {
		return err
	}
	if locked {
		return apperr.Forbiddenf("bill %d has an invoice; delete the invoice first", id)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM bills WHERE admin_id = $1 AND id = $2`, scope.AdminID, id); err != nil {
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	if err := insertPaymentLog(ctx, tx, scope, logEntry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// DeleteAllForTenant removes every bill of the tenant in one transaction.
// Used only by the destructive regenerate job, after payments are gone.
func (r *BillRepository) DeleteAllForTenant(ctx context.Context, scope tenant.Scope) (int64, error) {
	tag, err := r.DB.Exec(ctx, `DELETE FROM bills WHERE admin_id = $1`, scope.AdminID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete bills: %w", err)
	}
	return tag.RowsAffected(), nil
}
