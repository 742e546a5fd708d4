// Package domain содержит unit тесты для доменных сущностей CRM.
package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// =====================================
// Тесты Order.Validate
// =====================================

// TestOrder_Validate тестирует валидацию заказа.
func TestOrder_Validate(t *testing.T) {
	tests := []struct {
		name        string
		order       *Order
		expectedErr error
	}{
		{
			name: "валидные данные",
			order: &Order{
				ID:       "order-uuid-123",
				ClientID: "client-uuid-123",
				Items: []OrderItem{
					{ProductID: "product-123", Quantity: dec("2"), UnitPrice: dec("100.00")},
				},
			},
			expectedErr: nil,
		},
		{
			name: "пустой список позиций",
			order: &Order{
				ID:       "order-uuid-123",
				ClientID: "client-uuid-123",
				Items:    []OrderItem{},
			},
			expectedErr: ErrEmptyOrderItems,
		},
		{
			name: "nil список позиций",
			order: &Order{
				ID:       "order-uuid-123",
				ClientID: "client-uuid-123",
				Items:    nil,
			},
			expectedErr: ErrEmptyOrderItems,
		},
		{
			name: "невалидная позиция - пустой ProductID",
			order: &Order{
				ID:       "order-uuid-123",
				ClientID: "client-uuid-123",
				Items: []OrderItem{
					{ProductID: "", Quantity: dec("2"), UnitPrice: dec("100.00")},
				},
			},
			expectedErr: ErrProductNotFound,
		},
		{
			name: "невалидная позиция - нулевое количество",
			order: &Order{
				ID:       "order-uuid-123",
				ClientID: "client-uuid-123",
				Items: []OrderItem{
					{ProductID: "product-123", Quantity: dec("0"), UnitPrice: dec("100.00")},
				},
			},
			expectedErr: ErrInvalidQuantity,
		},
		{
			name: "невалидная позиция - отрицательная цена",
			order: &Order{
				ID:       "order-uuid-123",
				ClientID: "client-uuid-123",
				Items: []OrderItem{
					{ProductID: "product-123", Quantity: dec("2"), UnitPrice: dec("-1")},
				},
			},
			expectedErr: ErrInvalidUnitPrice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.order.Validate()
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =====================================
// Тесты Order.ComputeTotal
// =====================================

// TestOrder_ComputeTotal тестирует расчёт суммы заказа из позиций.
func TestOrder_ComputeTotal(t *testing.T) {
	tests := []struct {
		name          string
		items         []OrderItem
		expectedTotal string
	}{
		{
			name: "одна позиция",
			items: []OrderItem{
				{ProductID: "product-1", Quantity: dec("3"), UnitPrice: dec("100.00")},
			},
			expectedTotal: "300.00",
		},
		{
			name: "несколько позиций",
			items: []OrderItem{
				{ProductID: "product-1", Quantity: dec("2"), UnitPrice: dec("100.00")},
				{ProductID: "product-2", Quantity: dec("1"), UnitPrice: dec("50.00")},
			},
			expectedTotal: "250.00",
		},
		{
			name: "дробное количество",
			items: []OrderItem{
				{ProductID: "product-1", Quantity: dec("2.5"), UnitPrice: dec("99.90")},
			},
			expectedTotal: "249.75",
		},
		{
			name: "точность без потерь",
			items: []OrderItem{
				{ProductID: "product-1", Quantity: dec("0.1"), UnitPrice: dec("0.30")},
				{ProductID: "product-2", Quantity: dec("0.2"), UnitPrice: dec("0.30")},
			},
			expectedTotal: "0.09",
		},
		{
			name:          "пустой список позиций",
			items:         []OrderItem{},
			expectedTotal: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Items: tt.items}
			order.ComputeTotal()

			assert.True(t, order.TotalAmount.Equal(dec(tt.expectedTotal)),
				"ожидалось %s, получено %s", tt.expectedTotal, order.TotalAmount)
			for _, item := range order.Items {
				assert.True(t, item.LineTotal.Equal(item.Quantity.Mul(item.UnitPrice)))
			}
		})
	}
}

// =====================================
// Тесты Order.ApplyPayments
// =====================================

// TestOrder_ApplyPayments тестирует расчёт оплаченной суммы и долга.
func TestOrder_ApplyPayments(t *testing.T) {
	tests := []struct {
		name         string
		total        string
		payments     []Payment
		expectedPaid string
		expectedDebt string
	}{
		{
			name:         "без платежей",
			total:        "200.00",
			payments:     nil,
			expectedPaid: "0",
			expectedDebt: "200.00",
		},
		{
			name:  "учитываются только проведённые",
			total: "200.00",
			payments: []Payment{
				{Amount: dec("80.00"), Status: PaymentStatusCompleted},
				{Amount: dec("50.00"), Status: PaymentStatusPending},
				{Amount: dec("30.00"), Status: PaymentStatusCancelled},
			},
			expectedPaid: "80.00",
			expectedDebt: "120.00",
		},
		{
			name:  "переплата даёт отрицательный долг",
			total: "100.00",
			payments: []Payment{
				{Amount: dec("150.00"), Status: PaymentStatusCompleted},
			},
			expectedPaid: "150.00",
			expectedDebt: "-50.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{TotalAmount: dec(tt.total)}
			order.ApplyPayments(tt.payments)

			assert.True(t, order.PaidAmount.Equal(dec(tt.expectedPaid)))
			assert.True(t, order.DebtAmount.Equal(dec(tt.expectedDebt)))
		})
	}
}

// =====================================
// Тесты Order.CheckDeletable
// =====================================

// TestOrder_CheckDeletable тестирует правила удаления заказа.
func TestOrder_CheckDeletable(t *testing.T) {
	tests := []struct {
		name        string
		status      OrderStatus
		hasPayments bool
		expectedErr error
	}{
		{
			name:        "новый заказ без платежей",
			status:      OrderStatusNew,
			hasPayments: false,
			expectedErr: nil,
		},
		{
			name:        "отменённый заказ без платежей",
			status:      OrderStatusCancelled,
			hasPayments: false,
			expectedErr: nil,
		},
		{
			name:        "новый заказ с платежами",
			status:      OrderStatusNew,
			hasPayments: true,
			expectedErr: ErrOrderHasPayments,
		},
		{
			name:        "подтверждённый заказ",
			status:      OrderStatusConfirmed,
			hasPayments: false,
			expectedErr: ErrOrderNotDeletable,
		},
		{
			name:        "завершённый заказ",
			status:      OrderStatusCompleted,
			hasPayments: false,
			expectedErr: ErrOrderNotDeletable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Status: tt.status}
			err := order.CheckDeletable(tt.hasPayments)

			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// =====================================
// Тесты OrderUpdate.Apply
// =====================================

// TestOrderUpdate_Apply тестирует частичное обновление заказа.
func TestOrderUpdate_Apply(t *testing.T) {
	order := &Order{
		ClientID:    "client-1",
		Status:      OrderStatusNew,
		Currency:    "RUB",
		Notes:       "старые заметки",
		TotalAmount: dec("200.00"),
	}

	newStatus := OrderStatusConfirmed
	newNotes := "новые заметки"
	upd := &OrderUpdate{Status: &newStatus, Notes: &newNotes}
	upd.Apply(order)

	assert.Equal(t, OrderStatusConfirmed, order.Status)
	assert.Equal(t, "новые заметки", order.Notes)
	// Незаданные поля не меняются.
	assert.Equal(t, "client-1", order.ClientID)
	assert.Equal(t, "RUB", order.Currency)
	assert.True(t, order.TotalAmount.Equal(dec("200.00")))
}

// =====================================
// Тесты OrderStatus.IsValid
// =====================================

// TestOrderStatus_IsValid тестирует проверку допустимых статусов.
func TestOrderStatus_IsValid(t *testing.T) {
	valid := []OrderStatus{
		OrderStatusNew, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "статус %s должен быть допустимым", s)
	}

	assert.False(t, OrderStatus("unknown").IsValid())
	assert.False(t, OrderStatus("").IsValid())
}
