package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus — статус заказа.
type OrderStatus string

// Статусы заказа. Жёсткого графа переходов нет: статус меняется свободно,
// ограничения действуют только при удалении заказа.
const (
	OrderStatusNew        OrderStatus = "new"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

// IsValid проверяет, что статус входит в допустимый набор.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNew, OrderStatusConfirmed, OrderStatusInProgress,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem — позиция заказа. Цена фиксируется на момент добавления
// и не следует за изменениями каталога.
type OrderItem struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Validate проверяет позицию заказа.
func (i *OrderItem) Validate() error {
	if i.ProductID == "" {
		return ErrProductNotFound
	}
	if !i.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if i.UnitPrice.IsNegative() {
		return ErrInvalidUnitPrice
	}
	return nil
}

// ComputeLineTotal пересчитывает сумму позиции.
func (i *OrderItem) ComputeLineTotal() {
	i.LineTotal = i.Quantity.Mul(i.UnitPrice)
}

// Order представляет заказ клиента.
//
// PaidAmount и DebtAmount не хранятся в базе: они вычисляются при чтении
// по текущим платежам заказа. DebtAmount может быть отрицательным при
// переплате — на уровне заказа значение не обрезается.
type Order struct {
	ID              string
	OrderNumber     string
	ClientID        string
	Status          OrderStatus
	OrderDate       time.Time
	TotalAmount     decimal.Decimal
	Currency        string
	DeliveryAddress string
	DeliveryDate    *time.Time
	Notes           string
	Items           []OrderItem
	PaidAmount      decimal.Decimal
	DebtAmount      decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Validate проверяет заказ перед созданием.
func (o *Order) Validate() error {
	if len(o.Items) == 0 {
		return ErrEmptyOrderItems
	}
	for idx := range o.Items {
		if err := o.Items[idx].Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ComputeTotal пересчитывает суммы позиций и итог заказа.
func (o *Order) ComputeTotal() {
	total := decimal.Zero
	for idx := range o.Items {
		o.Items[idx].ComputeLineTotal()
		total = total.Add(o.Items[idx].LineTotal)
	}
	o.TotalAmount = total
}

// ApplyPayments выставляет производные суммы по списку платежей заказа.
// Учитываются только проведённые платежи.
func (o *Order) ApplyPayments(payments []Payment) {
	paid := decimal.Zero
	for idx := range payments {
		if payments[idx].Status == PaymentStatusCompleted {
			paid = paid.Add(payments[idx].Amount)
		}
	}
	o.PaidAmount = paid
	o.DebtAmount = o.TotalAmount.Sub(paid)
}

// CheckDeletable проверяет, можно ли удалить заказ.
// Удаляются только заказы в статусе new или cancelled, и только без
// платежей (в любом статусе).
func (o *Order) CheckDeletable(hasPayments bool) error {
	if hasPayments {
		return ErrOrderHasPayments
	}
	if o.Status != OrderStatusNew && o.Status != OrderStatusCancelled {
		return ErrOrderNotDeletable
	}
	return nil
}

// OrderUpdate описывает частичное обновление заказа.
// Позиции и итоговая сумма через обновление не меняются.
type OrderUpdate struct {
	ClientID        *string
	Status          *OrderStatus
	Currency        *string
	DeliveryAddress *string
	DeliveryDate    *time.Time
	Notes           *string
}

// Apply применяет непустые поля обновления к заказу.
// Существование нового клиента проверяет сервисный слой.
func (u *OrderUpdate) Apply(o *Order) {
	if u.ClientID != nil {
		o.ClientID = *u.ClientID
	}
	if u.Status != nil {
		o.Status = *u.Status
	}
	if u.Currency != nil {
		o.Currency = *u.Currency
	}
	if u.DeliveryAddress != nil {
		o.DeliveryAddress = *u.DeliveryAddress
	}
	if u.DeliveryDate != nil {
		o.DeliveryDate = u.DeliveryDate
	}
	if u.Notes != nil {
		o.Notes = *u.Notes
	}
}

// OrderFilter задаёт параметры выборки заказов.
type OrderFilter struct {
	ClientID string
	Status   OrderStatus
	Page     int
	PerPage  int
}
