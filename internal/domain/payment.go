package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus — статус платежа.
type PaymentStatus string

// Статусы платежа. Completed и cancelled — терминальные.
const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid проверяет, что статус входит в допустимый набор.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusCancelled:
		return true
	}
	return false
}

// PaymentType — классификация платежа. Информационная: на расчёт
// оплаченной суммы и долга тип не влияет.
type PaymentType string

// Типы платежа.
const (
	PaymentTypePrepayment PaymentType = "prepayment"
	PaymentTypePayment    PaymentType = "payment"
	PaymentTypeRefund     PaymentType = "refund"
)

// IsValid проверяет, что тип входит в допустимый набор.
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypePrepayment, PaymentTypePayment, PaymentTypeRefund:
		return true
	}
	return false
}

// Payment представляет платёж по заказу.
type Payment struct {
	ID          string
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Type        PaymentType
	Method      string
	Status      PaymentStatus
	PaymentDate time.Time
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate проверяет платёж перед созданием.
func (p *Payment) Validate() error {
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// Confirm переводит платёж из pending в completed.
// Это единственный путь к статусу completed.
func (p *Payment) Confirm() error {
	switch p.Status {
	case PaymentStatusCompleted:
		return ErrPaymentAlreadyCompleted
	case PaymentStatusCancelled:
		return ErrPaymentCancelled
	}
	p.Status = PaymentStatusCompleted
	return nil
}

// CheckDeletable проверяет, можно ли удалить платёж.
// Удаляются только платежи в статусе pending.
func (p *Payment) CheckDeletable() error {
	if p.Status != PaymentStatusPending {
		return ErrPaymentNotDeletable
	}
	return nil
}

// PaymentUpdate описывает частичное обновление платежа.
type PaymentUpdate struct {
	Amount      *decimal.Decimal
	Currency    *string
	Type        *PaymentType
	Method      *string
	Status      *PaymentStatus
	PaymentDate *time.Time
	Notes       *string
}

// touchesNonNotes сообщает, затрагивает ли обновление что-то кроме заметок.
func (u *PaymentUpdate) touchesNonNotes() bool {
	return u.Amount != nil || u.Currency != nil || u.Type != nil ||
		u.Method != nil || u.PaymentDate != nil
}

// Apply применяет обновление с учётом статусных ограничений:
// у проведённого платежа можно менять только заметки, если обновление
// не переводит его явно в cancelled.
func (u *PaymentUpdate) Apply(p *Payment) error {
	if p.Status == PaymentStatusCompleted {
		cancelling := u.Status != nil && *u.Status == PaymentStatusCancelled
		if !cancelling && (u.touchesNonNotes() || u.Status != nil) {
			return ErrPaymentCompleted
		}
	}
	if u.Amount != nil {
		if !u.Amount.IsPositive() {
			return ErrInvalidAmount
		}
		p.Amount = *u.Amount
	}
	if u.Currency != nil {
		p.Currency = *u.Currency
	}
	if u.Type != nil {
		p.Type = *u.Type
	}
	if u.Method != nil {
		p.Method = *u.Method
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.PaymentDate != nil {
		p.PaymentDate = *u.PaymentDate
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
	}
	return nil
}

// PaymentFilter задаёт параметры выборки платежей.
type PaymentFilter struct {
	OrderID string
	Status  PaymentStatus
	Type    PaymentType
	Page    int
	PerPage int
}
