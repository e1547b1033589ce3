package models

import "time"

// Payment is one payment applied against exactly one bill. The sum of a
// bill's payments never exceeds its total due; creation is refused while the
// bill has an invoice (financial lock).
type Payment struct {
	ID        int       `json:"id"`
	AdminID   int       `json:"admin_id"`
	BillID    int       `json:"bill_id"`
	Amount    float64   `json:"amount"`
	PaidOn    time.Time `json:"paid_on"`
	Method    string    `json:"method"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}

// ApplyPaymentRequest represents the request body for recording a payment
type ApplyPaymentRequest struct {
	Amount float64 `json:"amount"`
	PaidOn string  `json:"paid_on"` // YYYY-MM-DD, IST; defaults to today
	Method string  `json:"method"`
	Notes  string  `json:"notes"`
}

// PaymentResult is the outcome of applying a payment: the stored payment and
// the bill's post-payment figures.
type PaymentResult struct {
	Payment    *Payment   `json:"payment"`
	CustomerID int        `json:"customer_id"`
	TotalDue   float64    `json:"total_due"`
	Paid       float64    `json:"paid"`
	Remaining  float64    `json:"remaining"`
	Status     BillStatus `json:"status"`
}
