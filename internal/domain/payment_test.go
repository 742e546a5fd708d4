package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// =====================================
// Тесты Payment.Validate
// =====================================

// TestPayment_Validate тестирует валидацию платежа.
func TestPayment_Validate(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		expectedErr error
	}{
		{name: "положительная сумма", amount: "100.00", expectedErr: nil},
		{name: "нулевая сумма", amount: "0", expectedErr: ErrInvalidAmount},
		{name: "отрицательная сумма", amount: "-50.00", expectedErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := &Payment{OrderID: "order-123", Amount: dec(tt.amount)}
			err := payment.Validate()

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =====================================
// Тесты Payment.Confirm
// =====================================

// TestPayment_Confirm тестирует проведение платежа.
func TestPayment_Confirm(t *testing.T) {
	tests := []struct {
		name           string
		status         PaymentStatus
		expectedErr    error
		expectedStatus PaymentStatus
	}{
		{
			name:           "успешное проведение pending",
			status:         PaymentStatusPending,
			expectedErr:    nil,
			expectedStatus: PaymentStatusCompleted,
		},
		{
			name:           "повторное проведение",
			status:         PaymentStatusCompleted,
			expectedErr:    ErrPaymentAlreadyCompleted,
			expectedStatus: PaymentStatusCompleted,
		},
		{
			name:           "проведение отменённого",
			status:         PaymentStatusCancelled,
			expectedErr:    ErrPaymentCancelled,
			expectedStatus: PaymentStatusCancelled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := &Payment{Status: tt.status}
			err := payment.Confirm()

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expectedStatus, payment.Status)
		})
	}
}

// =====================================
// Тесты Payment.CheckDeletable
// =====================================

// TestPayment_CheckDeletable тестирует правила удаления платежа.
func TestPayment_CheckDeletable(t *testing.T) {
	tests := []struct {
		name        string
		status      PaymentStatus
		expectedErr error
	}{
		{name: "ожидающий платёж", status: PaymentStatusPending, expectedErr: nil},
		{name: "проведённый платёж", status: PaymentStatusCompleted, expectedErr: ErrPaymentNotDeletable},
		{name: "отменённый платёж", status: PaymentStatusCancelled, expectedErr: ErrPaymentNotDeletable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payment := &Payment{Status: tt.status}
			err := payment.CheckDeletable()

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =====================================
// Тесты PaymentUpdate.Apply
// =====================================

// TestPaymentUpdate_Apply тестирует частичное обновление платежа.
func TestPaymentUpdate_Apply(t *testing.T) {
	newAmount := dec("150.00")
	newNotes := "обновлено"
	cancelled := PaymentStatusCancelled
	completed := PaymentStatusCompleted

	t.Run("обновление pending платежа", func(t *testing.T) {
		payment := &Payment{Status: PaymentStatusPending, Amount: dec("100.00")}
		upd := &PaymentUpdate{Amount: &newAmount, Notes: &newNotes}

		err := upd.Apply(payment)

		assert.NoError(t, err)
		assert.True(t, payment.Amount.Equal(newAmount))
		assert.Equal(t, "обновлено", payment.Notes)
	})

	t.Run("ручная отмена pending платежа", func(t *testing.T) {
		payment := &Payment{Status: PaymentStatusPending}
		upd := &PaymentUpdate{Status: &cancelled}

		err := upd.Apply(payment)

		assert.NoError(t, err)
		assert.Equal(t, PaymentStatusCancelled, payment.Status)
	})

	t.Run("у completed можно менять только заметки", func(t *testing.T) {
		payment := &Payment{Status: PaymentStatusCompleted, Amount: dec("100.00")}
		upd := &PaymentUpdate{Notes: &newNotes}

		err := upd.Apply(payment)

		assert.NoError(t, err)
		assert.Equal(t, "обновлено", payment.Notes)
		assert.Equal(t, PaymentStatusCompleted, payment.Status)
	})

	t.Run("смена суммы у completed запрещена", func(t *testing.T) {
		payment := &Payment{Status: PaymentStatusCompleted, Amount: dec("100.00")}
		upd := &PaymentUpdate{Amount: &newAmount}

		err := upd.Apply(payment)

		assert.ErrorIs(t, err, ErrPaymentCompleted)
		assert.True(t, payment.Amount.Equal(dec("100.00")))
	})

	t.Run("completed можно явно отменить", func(t *testing.T) {
		payment := &Payment{Status: PaymentStatusCompleted}
		upd := &PaymentUpdate{Status: &cancelled, Notes: &newNotes}

		err := upd.Apply(payment)

		assert.NoError(t, err)
		assert.Equal(t, PaymentStatusCancelled, payment.Status)
		assert.Equal(t, "обновлено", payment.Notes)
	})

	t.Run("повторное проведение через update запрещено", func(t *testing.T) {
		payment := &Payment{Status: PaymentStatusCompleted}
		upd := &PaymentUpdate{Status: &completed}

		err := upd.Apply(payment)

		assert.ErrorIs(t, err, ErrPaymentCompleted)
	})

	t.Run("нулевая сумма в обновлении", func(t *testing.T) {
		zero := dec("0")
		payment := &Payment{Status: PaymentStatusPending, Amount: dec("100.00")}
		upd := &PaymentUpdate{Amount: &zero}

		err := upd.Apply(payment)

		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("смена даты платежа", func(t *testing.T) {
		newDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
		payment := &Payment{Status: PaymentStatusPending, PaymentDate: time.Now().UTC()}
		upd := &PaymentUpdate{PaymentDate: &newDate}

		err := upd.Apply(payment)

		assert.NoError(t, err)
		assert.Equal(t, newDate, payment.PaymentDate)
	})
}
