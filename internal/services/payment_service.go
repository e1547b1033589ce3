package services

import (
	"context"

	"go.uber.org/zap"

	"lpg-backend/internal/cache"
	"lpg-backend/internal/metrics"
	"lpg-backend/internal/models"
	"lpg-backend/internal/tenant"
)

// PaymentStore applies a payment atomically with its audit record and serves
// payment reads. Implementations must serialize the read-validate-write
// sequence per bill so concurrent payments cannot over-commit it.
type PaymentStore interface {
	ApplyPayment(ctx context.Context, scope tenant.Scope, billID int, payment *models.Payment) (*models.PaymentResult, error)
	ListByBill(ctx context.Context, scope tenant.Scope, billID int) ([]*models.Payment, error)
}

type PaymentService struct {
	Payments PaymentStore
	Log      *zap.Logger
}

func NewPaymentService(payments PaymentStore, log *zap.Logger) *PaymentService {
	return &PaymentService{Payments: payments, Log: log}
}

// ApplyPayment records a payment against a bill. Preconditions (bill exists,
// no invoice lock, amount within remaining due) are enforced inside the
// store's transaction; the resulting status and audit event derive from the
// post-payment figures.
func (s *PaymentService) ApplyPayment(ctx context.Context, scope tenant.Scope, billID int, payment *models.Payment) (*models.PaymentResult, error) {
	result, err := s.Payments.ApplyPayment(ctx, scope, billID, payment)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsRecorded.Inc()
	s.Log.Info("payment recorded",
		zap.Int("bill_id", billID),
		zap.Float64("amount", payment.Amount),
		zap.Float64("remaining", result.Remaining),
		zap.String("status", string(result.Status)))

	// The bill's derived figures changed; drop the cached outstanding view.
	cache.InvalidateCustomerOutstanding(ctx, scope.AdminID, result.CustomerID)
	return result, nil
}

// ListPayments returns a bill's payment history, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, scope tenant.Scope, billID int) ([]*models.Payment, error) {
	return s.Payments.ListByBill(ctx, scope, billID)
}
