package models

import "time"

// BillStatus is derived from payments at read time, never stored.
type BillStatus string

const (
	BillNotPaid       BillStatus = "NOT_PAID"
	BillPartiallyPaid BillStatus = "PARTIALLY_PAID"
	BillPaid          BillStatus = "PAID"
)

// Bill is one customer's statement for one calendar month. At most one bill
// exists per (tenant, customer, period) and TotalDue = PriorBalance + PeriodCharge.
type Bill struct {
	ID            int       `json:"id"`
	AdminID       int       `json:"admin_id"`
	CustomerID    int       `json:"customer_id"`
	CustomerName  string    `json:"customer_name"`
	PeriodStart   time.Time `json:"period_start"`
	PeriodEnd     time.Time `json:"period_end"`
	PriorBalance  float64   `json:"prior_balance"`
	PeriodCharge  float64   `json:"period_charge"`
	CylinderCount int       `json:"cylinder_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TotalDue is the amount the customer owes on this statement.
func (b *Bill) TotalDue() float64 {
	return b.PriorBalance + b.PeriodCharge
}

// BillWithStatus is the read model for bill listings: the bill plus its
// payment-derived figures and whether an invoice has locked it.
type BillWithStatus struct {
	Bill
	TotalDue  float64    `json:"total_due"`
	Paid      float64    `json:"paid"`
	Remaining float64    `json:"remaining"`
	Status    BillStatus `json:"status"`
	InvoiceID *int       `json:"invoice_id,omitempty"`
}

// ResyncStats is the result of the non-destructive reconciliation job.
type ResyncStats struct {
	CustomersProcessed int `json:"customersProcessed"`
	BillsCreated       int `json:"billsCreated"`
	BillsUpdated       int `json:"billsUpdated"`
	Errors             int `json:"errors"`
}

// RegenerateStats is the result of the destructive rebuild job.
type RegenerateStats struct {
	BillsDeleted       int `json:"billsDeleted"`
	PaymentsDeleted    int `json:"paymentsDeleted"`
	CustomersProcessed int `json:"customersProcessed"`
	BillsCreated       int `json:"billsCreated"`
	Errors             int `json:"errors"`
}
