package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
)

// rowQuerier is satisfied by both *pgxpool.Pool and pgx.Tx so audit rows can
// be appended inside the transaction of the mutation they describe.
type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// insertPaymentLog appends one audit record. Every lifecycle mutation calls
// this on its own transaction handle; standalone best-effort events (invoice
// downloads) call it on the pool.
func insertPaymentLog(ctx context.Context, q rowQuerier, scope tenant.Scope, entry *models.PaymentLogEntry) error {
	err := q.QueryRow(ctx,
		`INSERT INTO payment_logs (admin_id, event, customer_id, customer_name, customer_code,
		                           period_start, period_end, amount, balance, details)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		scope.AdminID, entry.Event, entry.CustomerID, entry.CustomerName, entry.CustomerCode,
		entry.PeriodStart, entry.PeriodEnd, entry.Amount, entry.Balance, entry.Details,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append payment log: %w", err)
	}
	entry.AdminID = scope.AdminID
	return nil
}

type PaymentLogRepository struct {
	DB *pgxpool.Pool
}

func NewPaymentLogRepository(db *pgxpool.Pool) *PaymentLogRepository {
	return &PaymentLogRepository{DB: db}
}

// Create appends a standalone audit record outside any mutation transaction.
func (r *PaymentLogRepository) Create(ctx context.Context, scope tenant.Scope, entry *models.PaymentLogEntry) error {
	return insertPaymentLog(ctx, r.DB, scope, entry)
}

// List returns the audit trail, newest first.
func (r *PaymentLogRepository) List(ctx context.Context, scope tenant.Scope, filter *models.PaymentLogFilter) ([]*models.PaymentLogEntry, error) {
	query := `
		SELECT id, admin_id, event, customer_id, COALESCE(customer_name, ''), COALESCE(customer_code, 0),
		       period_start, period_end, amount, balance, COALESCE(details, ''), created_at
		FROM payment_logs
		WHERE admin_id = $1`
	args := []any{scope.AdminID}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += fmt.Sprintf(" AND customer_id = $%d", len(args))
	}
	if filter.Event != "" {
		args = append(args, filter.Event)
		query += fmt.Sprintf(" AND event = $%d", len(args))
	}

	query += " ORDER BY created_at DESC, id DESC"

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.PaymentLogEntry
	for rows.Next() {
		e := &models.PaymentLogEntry{}
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Event, &e.CustomerID, &e.CustomerName, &e.CustomerCode,
			&e.PeriodStart, &e.PeriodEnd, &e.Amount, &e.Balance, &e.Details, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
