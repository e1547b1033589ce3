package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lpg-backend/internal/apperr"
	"lpg-backend/internal/models"
)

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, models.BillNotPaid, DeriveStatus(0, 1000))
	assert.Equal(t, models.BillPartiallyPaid, DeriveStatus(400, 1000))
	assert.Equal(t, models.BillPaid, DeriveStatus(1000, 1000))
	assert.Equal(t, models.BillPaid, DeriveStatus(1200, 1000))

	// A zero-due bill with no payments counts as not paid, which keeps the
	// read model stable for freshly regenerated bills.
	assert.Equal(t, models.BillNotPaid, DeriveStatus(0, 0))
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 600.0, Remaining(1000, 400))
	assert.Equal(t, 0.0, Remaining(1000, 1000))
	assert.Equal(t, 0.0, Remaining(1000, 1500))
}

func TestCarryForward(t *testing.T) {
	// Jan bill of 1500 with 1000 paid carries 500 into Feb.
	assert.Equal(t, 500.0, CarryForward(1500, 1000))
	// Fully settled months carry nothing.
	assert.Equal(t, 0.0, CarryForward(1500, 1500))
	// Over-collection never turns into a credit.
	assert.Equal(t, 0.0, CarryForward(1500, 2000))
}

func TestValidateAmount(t *testing.T) {
	t.Run("accepts a valid partial payment", func(t *testing.T) {
		assert.NoError(t, ValidateAmount(2000, 4000, 0))
	})

	t.Run("accepts settling the exact remaining", func(t *testing.T) {
		assert.NoError(t, ValidateAmount(1000, 5000, 4000))
	})

	t.Run("rejects zero and negative amounts", func(t *testing.T) {
		assert.True(t, apperr.IsKind(ValidateAmount(0, 4000, 0), apperr.KindValidation))
		assert.True(t, apperr.IsKind(ValidateAmount(-50, 4000, 0), apperr.KindValidation))
	})

	t.Run("rejects fractional rupees", func(t *testing.T) {
		err := ValidateAmount(100.50, 4000, 0)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "whole rupee")
	})

	t.Run("rejects overpayment citing the exact remaining", func(t *testing.T) {
		// Bill due 5000 with 4000 already paid leaves 1000 remaining.
		err := ValidateAmount(2000, 5000, 4000)
		require.Error(t, err)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		assert.Contains(t, err.Error(), "₹2000 exceeds remaining due of ₹1000")
	})
}

func TestEventForPayment(t *testing.T) {
	assert.Equal(t, models.EventPaymentReceived, EventForPayment(0))
	assert.Equal(t, models.EventPartialPayment, EventForPayment(300))
}
