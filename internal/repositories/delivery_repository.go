package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

type DeliveryRepository struct {
	DB *pgxpool.Pool
}

func NewDeliveryRepository(db *pgxpool.Pool) *DeliveryRepository {
	return &DeliveryRepository{DB: db}
}

func (r *DeliveryRepository) Create(ctx context.Context, scope tenant.Scope, entry *models.DeliveryEntry) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO delivery_entries (admin_id, customer_id, customer_name, kind, delivery_date, quantity, amount)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		scope.AdminID, entry.CustomerID, entry.CustomerName, entry.Kind,
		entry.DeliveryDate.Format(timeutil.DateLayout), entry.Quantity, entry.Amount,
	).Scan(&entry.ID, &entry.CreatedAt)
}

const deliveryColumns = `id, admin_id, customer_id, customer_name, kind, delivery_date, quantity, amount, created_at`

func (r *DeliveryRepository) scanEntries(rows pgx.Rows) ([]*models.DeliveryEntry, error) {
	defer rows.Close()
	var entries []*models.DeliveryEntry
	for rows.Next() {
		e := &models.DeliveryEntry{}
		if err := rows.Scan(&e.ID, &e.AdminID, &e.CustomerID, &e.CustomerName, &e.Kind,
			&e.DeliveryDate, &e.Quantity, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListByCustomer returns a customer's movements, id matches unioned with
// name-fallback matches, newest first.
func (r *DeliveryRepository) ListByCustomer(ctx context.Context, scope tenant.Scope, customerID int, customerName string) ([]*models.DeliveryEntry, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT `+deliveryColumns+`
		 FROM delivery_entries
		 WHERE admin_id = $1
		   AND (customer_id = $2 OR (customer_id IS NULL AND customer_name = $3))
		 ORDER BY delivery_date DESC, id DESC`,
		scope.AdminID, customerID, customerName,
	)
	if err != nil {
		return nil, err
	}
	return r.scanEntries(rows)
}

// ListByMonth returns all movements in the calendar month containing ref.
func (r *DeliveryRepository) ListByMonth(ctx context.Context, scope tenant.Scope, ref time.Time) ([]*models.DeliveryEntry, error) {
	start, end := timeutil.MonthWindow(ref)
	rows, err := r.DB.Query(ctx,
		`SELECT `+deliveryColumns+`
		 FROM delivery_entries
		 WHERE admin_id = $1 AND delivery_date >= $2::date AND delivery_date <= $3::date
		 ORDER BY delivery_date DESC, id DESC`,
		scope.AdminID, start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout),
	)
	if err != nil {
		return nil, err
	}
	return r.scanEntries(rows)
}

func (r *DeliveryRepository) Delete(ctx context.Context, scope tenant.Scope, id int) error {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM delivery_entries WHERE admin_id = $1 AND id = $2`,
		scope.AdminID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("delivery entry %d not found", id)
	}
	return nil
}

// MonthlyAggregate sums a customer's billable (delivered-kind) activity in the
// given period. Rows match by customer id OR, for rows with no id, by the
// denormalized customer name; NameMatched counts the fallback matches.
func (r *DeliveryRepository) MonthlyAggregate(ctx context.Context, scope tenant.Scope, customerID int, customerName string, start, end time.Time) (*models.DeliveryAggregate, error) {
	agg := &models.DeliveryAggregate{}
	err := r.DB.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COALESCE(SUM(quantity), 0), COUNT(*),
		        COUNT(*) FILTER (WHERE customer_id IS NULL)
		 FROM delivery_entries
		 WHERE admin_id = $1 AND kind = $2
		   AND delivery_date >= $3::date AND delivery_date <= $4::date
		   AND (customer_id = $5 OR (customer_id IS NULL AND customer_name = $6))`,
		scope.AdminID, models.DeliveryKindDelivered,
		start.Format(timeutil.DateLayout), end.Format(timeutil.DateLayout),
		customerID, customerName,
	).Scan(&agg.Amount, &agg.Quantity, &agg.EntryCount, &agg.NameMatched)
	if err != nil {
		return nil, err
	}
	return agg, nil
}

// BillableMonths returns the distinct months (normalized to IST month starts,
// ascending) in which the customer has delivered-kind activity.
func (r *DeliveryRepository) BillableMonths(ctx context.Context, scope tenant.Scope, customerID int, customerName string) ([]time.Time, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT DISTINCT date_trunc('month', delivery_date)::date
		 FROM delivery_entries
		 WHERE admin_id = $1 AND kind = $2
		   AND (customer_id = $3 OR (customer_id IS NULL AND customer_name = $4))
		 ORDER BY 1`,
		scope.AdminID, models.DeliveryKindDelivered, customerID, customerName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var months []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		// date_trunc yields the month's first day; re-anchor in IST.
		months = append(months, time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, timeutil.IST))
	}
	return months, rows.Err()
}

// CustomersWithActivity lists every customer of the tenant that has at least
// one delivered-kind entry, matched by id or by name. Name-only rows that
// resolve to no customer record are unreachable here and are skipped by the
// reconciliation jobs entirely.
func (r *DeliveryRepository) CustomersWithActivity(ctx context.Context, scope tenant.Scope) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT DISTINCT c.id, c.admin_id, c.code, c.name, COALESCE(c.phone, ''), COALESCE(c.address, ''), c.created_at, c.updated_at
		 FROM customers c
		 JOIN delivery_entries d
		   ON d.admin_id = c.admin_id
		  AND (d.customer_id = c.id OR (d.customer_id IS NULL AND d.customer_name = c.name))
		 WHERE c.admin_id = $1 AND d.kind = $2
		 ORDER BY c.code`,
		scope.AdminID, models.DeliveryKindDelivered,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c := &models.Customer{}
		if err := rows.Scan(&c.ID, &c.AdminID, &c.Code, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}
