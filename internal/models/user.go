package models

import "time"

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User is a login account. Admins own a tenant partition; staff belong to the
// admin identified by AdminID. For admins AdminID equals their own ID.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	AdminID      int       `json:"admin_id"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SignupRequest registers a new distributor admin.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest authenticates an admin or staff account.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// CreateStaffRequest lets an admin add a staff account under their tenancy.
type CreateStaffRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the issued token and the account it belongs to.
type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
