package services

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/cache"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
)

// CustomerStore persists customer records within a tenant scope.
type CustomerStore interface {
	Create(ctx context.Context, scope tenant.Scope, customer *models.Customer) error
	List(ctx context.Context, scope tenant.Scope) ([]*models.Customer, error)
	Get(ctx context.Context, scope tenant.Scope, id int) (*models.Customer, error)
	GetByName(ctx context.Context, scope tenant.Scope, name string) (*models.Customer, error)
	Update(ctx context.Context, scope tenant.Scope, id int, req *models.UpdateCustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, scope tenant.Scope, id int) error
}

type CustomerService struct {
	Customers CustomerStore
	Bills     BillStore
	Log       *zap.Logger
}

func NewCustomerService(customers CustomerStore, bills BillStore, log *zap.Logger) *CustomerService {
	return &CustomerService{Customers: customers, Bills: bills, Log: log}
}

func (s *CustomerService) CreateCustomer(ctx context.Context, scope tenant.Scope, req *models.CreateCustomerRequest) (*models.Customer, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("customer name is required")
	}
	customer := &models.Customer{Name: req.Name, Phone: req.Phone, Address: req.Address}
	if err := s.Customers.Create(ctx, scope, customer); err != nil {
		return nil, err
	}
	s.Log.Info("customer registered",
		zap.Int("customer_id", customer.ID),
		zap.Int("code", customer.Code))
	return customer, nil
}

func (s *CustomerService) ListCustomers(ctx context.Context, scope tenant.Scope) ([]*models.Customer, error) {
	return s.Customers.List(ctx, scope)
}

func (s *CustomerService) GetCustomer(ctx context.Context, scope tenant.Scope, id int) (*models.Customer, error) {
	return s.Customers.Get(ctx, scope, id)
}

func (s *CustomerService) UpdateCustomer(ctx context.Context, scope tenant.Scope, id int, req *models.UpdateCustomerRequest) (*models.Customer, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("customer name is required")
	}
	return s.Customers.Update(ctx, scope, id, req)
}

func (s *CustomerService) DeleteCustomer(ctx context.Context, scope tenant.Scope, id int) error {
	return s.Customers.Delete(ctx, scope, id)
}

// Outstanding returns the unpaid remainder on the customer's latest bill.
// Cached for 5 minutes; mutations invalidate the key.
func (s *CustomerService) Outstanding(ctx context.Context, scope tenant.Scope, customerID int) (*models.CustomerOutstanding, error) {
	if data, ok := cache.GetCustomerOutstanding(ctx, scope.AdminID, customerID); ok {
		out := &models.CustomerOutstanding{}
		if err := json.Unmarshal(data, out); err == nil {
			return out, nil
		}
	}

	customer, err := s.Customers.Get(ctx, scope, customerID)
	if err != nil {
		return nil, err
	}

	out := &models.CustomerOutstanding{
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
	}
	bills, err := s.Bills.List(ctx, scope, &customerID, nil)
	if err != nil {
		return nil, err
	}
	if len(bills) > 0 {
		// Listing is newest period first; the latest bill carries the
		// cumulative balance.
		latest := bills[0]
		out.BillID = &latest.ID
		out.PeriodStart = &latest.PeriodStart
		out.PeriodEnd = &latest.PeriodEnd
		out.TotalDue = latest.TotalDue
		out.Paid = latest.Paid
		out.Outstanding = latest.Remaining
	}

	if data, err := json.Marshal(out); err == nil {
		cache.CacheCustomerOutstanding(ctx, scope.AdminID, customerID, data)
	}
	return out, nil
}
