package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
	"lpg-backend/internal/timeutil"
)

// DeliveryLedger is the write/read surface of the delivery ledger beyond what
// the aggregator consumes.
type DeliveryLedger interface {
	Create(ctx context.Context, scope tenant.Scope, entry *models.DeliveryEntry) error
	ListByCustomer(ctx context.Context, scope tenant.Scope, customerID int, customerName string) ([]*models.DeliveryEntry, error)
	ListByMonth(ctx context.Context, scope tenant.Scope, ref time.Time) ([]*models.DeliveryEntry, error)
	Delete(ctx context.Context, scope tenant.Scope, id int) error
}

type DeliveryService struct {
	Deliveries DeliveryLedger
	Customers  CustomerStore
	Log        *zap.Logger
}

func NewDeliveryService(deliveries DeliveryLedger, customers CustomerStore, log *zap.Logger) *DeliveryService {
	return &DeliveryService{Deliveries: deliveries, Customers: customers, Log: log}
}

// RecordMovement appends one delivery or return to the ledger. The customer
// reference resolves in two stages: by id when given, else by exact name; a
// name that resolves is promoted to an id reference and the fallback match is
// logged. A name that resolves to nothing is stored as-is (register imports),
// and such rows are skipped by bill aggregation until repaired.
func (s *DeliveryService) RecordMovement(ctx context.Context, scope tenant.Scope, req *models.CreateDeliveryRequest) (*models.DeliveryEntry, error) {
	if req.Kind != models.DeliveryKindDelivered && req.Kind != models.DeliveryKindReceived {
		return nil, apperr.Validationf("kind must be %q or %q", models.DeliveryKindDelivered, models.DeliveryKindReceived)
	}
	if req.Quantity <= 0 {
		return nil, apperr.Validationf("quantity must be positive")
	}
	if req.Amount < 0 {
		return nil, apperr.Validationf("amount must not be negative")
	}
	if req.CustomerID == nil && req.CustomerName == "" {
		return nil, apperr.Validationf("customer_id or customer_name is required")
	}

	date, err := timeutil.ParseInIST(timeutil.DateLayout, req.DeliveryDate)
	if err != nil {
		return nil, apperr.Validationf("delivery_date must be YYYY-MM-DD")
	}

	entry := &models.DeliveryEntry{
		CustomerID:   req.CustomerID,
		CustomerName: req.CustomerName,
		Kind:         req.Kind,
		DeliveryDate: date,
		Quantity:     req.Quantity,
		Amount:       req.Amount,
	}

	if req.CustomerID != nil {
		customer, err := s.Customers.Get(ctx, scope, *req.CustomerID)
		if err != nil {
			return nil, err
		}
		entry.CustomerName = customer.Name
	} else {
		customer, err := s.Customers.GetByName(ctx, scope, req.CustomerName)
		if err != nil {
			return nil, err
		}
		if customer != nil {
			entry.CustomerID = &customer.ID
			s.Log.Debug("delivery matched customer by name",
				zap.String("customer_name", req.CustomerName),
				zap.Int("customer_id", customer.ID))
		} else {
			s.Log.Warn("delivery recorded with unresolved customer name",
				zap.String("customer_name", req.CustomerName))
		}
	}

	if err := s.Deliveries.Create(ctx, scope, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *DeliveryService) ListByCustomer(ctx context.Context, scope tenant.Scope, customerID int) ([]*models.DeliveryEntry, error) {
	customer, err := s.Customers.Get(ctx, scope, customerID)
	if err != nil {
		return nil, err
	}
	return s.Deliveries.ListByCustomer(ctx, scope, customer.ID, customer.Name)
}

func (s *DeliveryService) ListByMonth(ctx context.Context, scope tenant.Scope, ref time.Time) ([]*models.DeliveryEntry, error) {
	return s.Deliveries.ListByMonth(ctx, scope, ref)
}

func (s *DeliveryService) DeleteEntry(ctx context.Context, scope tenant.Scope, id int) error {
	return s.Deliveries.Delete(ctx, scope, id)
}
