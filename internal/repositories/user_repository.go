package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/models"
)

type UserRepository struct {
	DB *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{DB: db}
}

// CreateAdmin registers a distributor owner. Admins anchor their own tenant
// partition, so admin_id is set to the new row's id in the same transaction.
func (r *UserRepository) CreateAdmin(ctx context.Context, user *models.User) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, admin_id, is_active)
		 VALUES ($1, $2, $3, $4, 0, TRUE)
		 RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash, models.RoleAdmin,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET admin_id = id WHERE id = $1`, user.ID); err != nil {
		return fmt.Errorf("failed to anchor tenant: %w", err)
	}
	user.AdminID = user.ID
	user.Role = models.RoleAdmin
	user.IsActive = true

	return tx.Commit(ctx)
}

// CreateStaff adds a staff account under an existing admin's tenancy.
func (r *UserRepository) CreateStaff(ctx context.Context, adminID int, user *models.User) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users (name, email, password_hash, role, admin_id, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE)
		 RETURNING id, created_at, updated_at`,
		user.Name, user.Email, user.PasswordHash, models.RoleStaff, adminID,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create staff: %w", err)
	}
	user.AdminID = adminID
	user.Role = models.RoleStaff
	user.IsActive = true
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, admin_id, is_active, created_at, updated_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.AdminID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) Get(ctx context.Context, id int) (*models.User, error) {
	user := &models.User{}
	err := r.DB.QueryRow(ctx,
		`SELECT id, name, email, password_hash, role, admin_id, is_active, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.AdminID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFoundf("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
