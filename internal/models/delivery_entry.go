package models

import "time"

// Delivery kinds. Only delivered entries are billable; received entries record
// empty cylinders coming back and never aggregate into bills.
const (
	DeliveryKindDelivered = "delivered"
	DeliveryKindReceived  = "received"
)

// DeliveryEntry is one cylinder movement for a customer. CustomerID may be
// null on rows imported from handwritten registers; CustomerName is the
// denormalized fallback matcher for those.
type DeliveryEntry struct {
	ID           int       `json:"id"`
	AdminID      int       `json:"admin_id"`
	CustomerID   *int      `json:"customer_id"`
	CustomerName string    `json:"customer_name"`
	Kind         string    `json:"kind"`
	DeliveryDate time.Time `json:"delivery_date"`
	Quantity     int       `json:"quantity"`
	Amount       float64   `json:"amount"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateDeliveryRequest represents the request body for recording a movement
type CreateDeliveryRequest struct {
	CustomerID   *int    `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Kind         string  `json:"kind"`
	DeliveryDate string  `json:"delivery_date"` // YYYY-MM-DD, IST
	Quantity     int     `json:"quantity"`
	Amount       float64 `json:"amount"`
}

// DeliveryAggregate is one month's billable totals for a customer, as summed
// by the delivery repository (id matches unioned with name-fallback matches).
type DeliveryAggregate struct {
	Amount      float64
	Quantity    int
	EntryCount  int
	NameMatched int
}
