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

type CustomerRepository struct {
	DB *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

// Create registers a customer with the next dense ordinal code for the
// tenant. The code assignment and the insert run in one transaction so two
// concurrent registrations cannot claim the same code.
func (r *CustomerRepository) Create(ctx context.Context, scope tenant.Scope, customer *models.Customer) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var nextCode int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(code), 0) + 1 FROM customers WHERE admin_id = $1 FOR UPDATE`,
		scope.AdminID,
	).Scan(&nextCode)
	if err != nil {
		return fmt.Errorf("failed to assign customer code: %w", err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO customers (admin_id, code, name, phone, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		scope.AdminID, nextCode, customer.Name, customer.Phone, customer.Address,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	customer.AdminID = scope.AdminID
	customer.Code = nextCode

	return tx.Commit(ctx)
}

func (r *CustomerRepository) List(ctx context.Context, scope tenant.Scope) ([]*models.Customer, error) {
	rows, err := r.DB.Query(ctx,
		`SELECT id, admin_id, code, name, COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at
		 FROM customers WHERE admin_id = $1 ORDER BY code`,
		scope.AdminID,
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

func (r *CustomerRepository) Get(ctx context.Context, scope tenant.Scope, id int) (*models.Customer, error) {
	c := &models.Customer{}
	err := r.DB.QueryRow(ctx,
		`SELECT id, admin_id, code, name, COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at
		 FROM customers WHERE admin_id = $1 AND id = $2`,
		scope.AdminID, id,
	).Scan(&c.ID, &c.AdminID, &c.Code, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("customer %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByName resolves a customer by exact display name. Used as the second
// stage of delivery-entry matching when a ledger row carries only a name.
// Returns nil without error when no customer matches.
func (r *CustomerRepository) GetByName(ctx context.Context, scope tenant.Scope, name string) (*models.Customer, error) {
	c := &models.Customer{}
	err := r.DB.QueryRow(ctx,
		`SELECT id, admin_id, code, name, COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at
		 FROM customers WHERE admin_id = $1 AND name = $2
		 ORDER BY id LIMIT 1`,
		scope.AdminID, name,
	).Scan(&c.ID, &c.AdminID, &c.Code, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) Update(ctx context.Context, scope tenant.Scope, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	c := &models.Customer{}
	err := r.DB.QueryRow(ctx,
		`UPDATE customers SET name = $3, phone = $4, address = $5, updated_at = NOW()
		 WHERE admin_id = $1 AND id = $2
		 RETURNING id, admin_id, code, name, COALESCE(phone, ''), COALESCE(address, ''), created_at, updated_at`,
		scope.AdminID, id, req.Name, req.Phone, req.Address,
	).Scan(&c.ID, &c.AdminID, &c.Code, &c.Name, &c.Phone, &c.Address, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("customer %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, scope tenant.Scope, id int) error {
	tag, err := r.DB.Exec(ctx,
		`DELETE FROM customers WHERE admin_id = $1 AND id = $2`,
		scope.AdminID, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFoundf("customer %d not found", id)
	}
	return nil
}
