// Package billing holds the pure money arithmetic of the reconciliation
// engine: status derivation, remaining balances, over-payment validation and
// prior-balance carry-forward. Everything here is deterministic and free of
// I/O so the invariants can be tested directly.
package billing

import (
	"lpg-backend/internal/apperr"
	"lpg-backend/internal/models"
)

// DeriveStatus computes a bill's payment status from its figures.
// NOT_PAID when nothing is paid, PAID when paid covers the total due,
// PARTIALLY_PAID in between. Never stored; always derived.
func DeriveStatus(paid, totalDue float64) models.BillStatus {
	switch {
	case paid <= 0:
		return models.BillNotPaid
	case paid >= totalDue:
		return models.BillPaid
	default:
		return models.BillPartiallyPaid
	}
}

// Remaining is the unpaid portion of a bill, never negative.
func Remaining(totalDue, paid float64) float64 {
	if r := totalDue - paid; r > 0 {
		return r
	}
	return 0
}

// CarryForward computes the prior balance carried into a new period from the
// previous bill's figures: the unpaid remainder, floored at zero so an
// over-collected month never becomes a credit.
func CarryForward(priorTotalDue, priorPaid float64) float64 {
	return Remaining(priorTotalDue, priorPaid)
}

// ValidateAmount checks a payment amount against the bill's remaining due.
// Amounts must be positive whole rupees and must not over-commit the bill;
// the returned validation error cites the exact remaining figure.
func ValidateAmount(amount, totalDue, paid float64) error {
	if amount <= 0 {
		return apperr.Validationf("payment amount must be positive")
	}
	if amount != float64(int64(amount)) {
		return apperr.Validationf("payment amount must be a whole rupee figure")
	}
	remaining := Remaining(totalDue, paid)
	if amount > remaining {
		return apperr.Validationf("payment of ₹%.0f exceeds remaining due of ₹%.0f", amount, remaining)
	}
	return nil
}

// EventForPayment picks the audit event a payment produces: PAYMENT_RECEIVED
// when the bill settles, PARTIAL_PAYMENT otherwise.
func EventForPayment(remainingAfter float64) models.PaymentLogEvent {
	if remainingAfter <= 0 {
		return models.EventPaymentReceived
	}
	return models.EventPartialPayment
}
