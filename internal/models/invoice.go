package models

import "time"

// Invoice is a formalized, numbered snapshot of a bill, at most one per bill.
// Its existence freezes the bill's payment history until it is deleted.
type Invoice struct {
	ID            int       `json:"id"`
	AdminID       int       `json:"admin_id"`
	BillID        int       `json:"bill_id"`
	InvoiceNumber string    `json:"invoice_number"`
	TotalAmount   float64   `json:"total_amount"`
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateInvoiceRequest represents the request body for issuing an invoice
type CreateInvoiceRequest struct {
	BillID int    `json:"bill_id"`
	Notes  string `json:"notes"`
}

// InvoiceWithDetails includes the billed customer and period for display and
// PDF rendering.
type InvoiceWithDetails struct {
	Invoice
	CustomerName  string    `json:"customer_name"`
	CustomerCode  int       `json:"customer_code"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	PriorBalance  float64   `json:"prior_balance"`
	PeriodCharge  float64   `json:"period_charge"`
	CylinderCount int       `json:"cylinder_count"`
	Paid          float64   `json:"paid"`
}
