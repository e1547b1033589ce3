package models

import "time"

// PaymentLogEvent identifies a billing/payment lifecycle transition.
type PaymentLogEvent string

const (
	EventBillGenerated     PaymentLogEvent = "BILL_GENERATED"
	EventBillUpdated       PaymentLogEvent = "BILL_UPDATED"
	EventBillDeleted       PaymentLogEvent = "BILL_DELETED"
	EventPaymentReceived   PaymentLogEvent = "PAYMENT_RECEIVED"
	EventPartialPayment    PaymentLogEvent = "PARTIAL_PAYMENT"
	EventInvoiceGenerated  PaymentLogEvent = "INVOICE_GENERATED"
	EventInvoiceDownloaded PaymentLogEvent = "INVOICE_DOWNLOADED"
	EventInvoiceDeleted    PaymentLogEvent = "INVOICE_DELETED"
)

// PaymentLogEntry is an append-only audit record. Customer and period are
// denormalized at write time so history reads stay stable even if the source
// bill or customer is later modified or deleted.
type PaymentLogEntry struct {
	ID           int             `json:"id"`
	AdminID      int             `json:"admin_id"`
	Event        PaymentLogEvent `json:"event"`
	CustomerID   *int            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	CustomerCode int             `json:"customer_code"`
	PeriodStart  *time.Time      `json:"period_start"`
	PeriodEnd    *time.Time      `json:"period_end"`
	Amount       float64         `json:"amount"`
	Balance      float64         `json:"balance"`
	Details      string          `json:"details"`
	CreatedAt    time.Time       `json:"created_at"`
}

// PaymentLogFilter is used for filtering the audit trail
type PaymentLogFilter struct {
	CustomerID *int
	Event      PaymentLogEvent
	Limit      int
	Offset     int
}
