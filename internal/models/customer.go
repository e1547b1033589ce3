package models

import "time"

// Customer is a billable party. Code is a dense per-tenant ordinal assigned at
// registration and shown on bills and invoices.
type Customer struct {
	ID        int       `json:"id"`
	AdminID   int       `json:"admin_id"`
	Code      int       `json:"code"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateCustomerRequest represents the request body for registering a customer
type CreateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateCustomerRequest represents the request body for updating a customer
type UpdateCustomerRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CustomerOutstanding is the unpaid remainder on a customer's latest bill.
type CustomerOutstanding struct {
	CustomerID   int        `json:"customer_id"`
	CustomerName string     `json:"customer_name"`
	BillID       *int       `json:"bill_id,omitempty"`
	PeriodStart  *time.Time `json:"period_start,omitempty"`
	PeriodEnd    *time.Time `json:"period_end,omitempty"`
	TotalDue     float64    `json:"total_due"`
	Paid         float64    `json:"paid"`
	Outstanding  float64    `json:"outstanding"`
}
