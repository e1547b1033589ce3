package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
)

type InvoiceRepository struct {
	DB *pgxpool.Pool
}

func NewInvoiceRepository(db *pgxpool.Pool) *InvoiceRepository {
	return &InvoiceRepository{DB: db}
}

// generateInvoiceNumber draws the next number from a database sequence for
// O(1) allocation without counting rows.
func (r *InvoiceRepository) generateInvoiceNumber(ctx context.Context, tx pgx.Tx) (string, error) {
	var nextNum int
	if err := tx.QueryRow(ctx, "SELECT nextval('invoice_number_sequence')").Scan(&nextNum); err != nil {
		return "", fmt.Errorf("failed to get next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%06d", nextNum), nil
}

// CreateWithLog issues an invoice against a bill and appends the
// INVOICE_GENERATED audit record in the same transaction. At most one invoice
// may exist per bill; the check runs under a row lock on the bill before
// insert rather than relying on a uniqueness retry.
func (r *InvoiceRepository) CreateWithLog(ctx context.Context, scope tenant.Scope, invoice *models.Invoice, logEntry *models.PaymentLogEntry) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var billID int
	err = tx.QueryRow(ctx,
		`SELECT id FROM bills WHERE admin_id = $1 AND id = $2 FOR UPDATE`,
		scope.AdminID, invoice.BillID,
	).Scan(&billID)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFoundf("bill %d not found", invoice.BillID)
	}
	if err != nil {
		return err
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM invoices WHERE bill_id = $1)`, invoice.BillID,
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return apperr.Forbiddenf("bill %d already has an invoice", invoice.BillID)
	}

	number, err := r.generateInvoiceNumber(ctx, tx)
	if err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO invoices (admin_id, bill_id, invoice_number, total_amount, notes)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		scope.AdminID, invoice.BillID, number, invoice.TotalAmount, invoice.Notes,
	).Scan(&invoice.ID, &invoice.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	invoice.AdminID = scope.AdminID
	invoice.InvoiceNumber = number

	if err := insertPaymentLog(ctx, tx, scope, logEntry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const invoiceDetailQuery = `
	SELECT i.id, i.admin_id, i.bill_id, i.invoice_number, i.total_amount, COALESCE(i.notes, ''), i.created_at,
	       b.customer_name, COALESCE(c.code, 0), b.period_start, b.period_end,
	       b.prior_balance, b.period_charge, b.cylinder_count,
	       COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.bill_id = b.id), 0)
	FROM invoices i
	JOIN bills b ON i.bill_id = b.id
	LEFT JOIN customers c ON b.customer_id = c.id`

func scanInvoiceDetails(row pgx.Row) (*models.InvoiceWithDetails, error) {
	inv := &models.InvoiceWithDetails{}
	err := row.Scan(&inv.ID, &inv.AdminID, &inv.BillID, &inv.InvoiceNumber, &inv.TotalAmount, &inv.Notes, &inv.CreatedAt,
		&inv.CustomerName, &inv.CustomerCode, &inv.PeriodStart, &inv.PeriodEnd,
		&inv.PriorBalance, &inv.PeriodCharge, &inv.CylinderCount, &inv.Paid)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Get returns one invoice with the billed customer and period for display.
func (r *InvoiceRepository) Get(ctx context.Context, scope tenant.Scope, id int) (*models.InvoiceWithDetails, error) {
	inv, err := scanInvoiceDetails(r.DB.QueryRow(ctx,
		invoiceDetailQuery+` WHERE i.admin_id = $1 AND i.id = $2`,
		scope.AdminID, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("invoice %d not found", id)
	}
	return inv, err
}

// GetByBill returns the invoice locking a bill, or nil when the bill is open.
func (r *InvoiceRepository) GetByBill(ctx context.Context, scope tenant.Scope, billID int) (*models.Invoice, error) {
	inv := &models.Invoice{}
	err := r.DB.QueryRow(ctx,
		`SELECT id, admin_id, bill_id, invoice_number, total_amount, COALESCE(notes, ''), created_at
		 FROM invoices WHERE admin_id = $1 AND bill_id = $2`,
		scope.AdminID, billID,
	).Scan(&inv.ID, &inv.AdminID, &inv.BillID, &inv.InvoiceNumber, &inv.TotalAmount, &inv.Notes, &inv.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// List returns the tenant's invoices, newest first.
func (r *InvoiceRepository) List(ctx context.Context, scope tenant.Scope) ([]*models.InvoiceWithDetails, error) {
	rows, err := r.DB.Query(ctx,
		invoiceDetailQuery+` WHERE i.admin_id = $1 ORDER BY i.created_at DESC, i.id DESC`,
		scope.AdminID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invoices []*models.InvoiceWithDetails
	for rows.Next() {
		inv, err := scanInvoiceDetails(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// DeleteWithLog removes an invoice, lifting the bill's financial lock, and
// appends the INVOICE_DELETED audit record in the same transaction. Existing
// payments are untouched.
func (r *InvoiceRepository) DeleteWithLog(ctx context.Context, scope tenant.Scope, id int, logEntry *models.PaymentLogEntry) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `DELETE FROM invoices WHERE admin_id = $1 AND id = $2`, scope.AdminID, id)
	if err != nil {
		return fmt.Errorf("failed to delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("invoice %d not found", id)
	}

	if err := insertPaymentLog(ctx, tx, scope, logEntry); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
