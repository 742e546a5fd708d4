package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/events"
	"example.com/crm-backend/internal/repository"
	"example.com/crm-backend/pkg/logger"
)

// CreatePaymentInput — входные данные создания платежа.
// Статус задать нельзя: платёж всегда создаётся ожидающим.
type CreatePaymentInput struct {
	OrderID     string
	Amount      decimal.Decimal
	Currency    string
	Type        domain.PaymentType
	Method      string
	PaymentDate *time.Time
	Notes       string
}

// PaymentService определяет интерфейс бизнес-логики платежей.
type PaymentService interface {
	// CreatePayment создаёт платёж по заказу в статусе pending.
	// Валюта по умолчанию — валюта заказа, дата — текущее время.
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error)

	// GetPayment возвращает платёж по ID.
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// ListPayments возвращает платежи по фильтру с пагинацией.
	ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int64, error)

	// UpdatePayment применяет частичное обновление платежа.
	UpdatePayment(ctx context.Context, paymentID string, upd *domain.PaymentUpdate) (*domain.Payment, error)

	// ConfirmPayment проводит платёж: pending -> completed.
	// Единственный путь к статусу completed.
	ConfirmPayment(ctx context.Context, paymentID string) (*domain.Payment, error)

	// DeletePayment удаляет платёж. Удаляются только ожидающие платежи.
	DeletePayment(ctx context.Context, paymentID string) error
}

// paymentService — реализация PaymentService.
type paymentService struct {
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	publisher *events.Publisher
	now       func() time.Time
}

// NewPaymentService создаёт новый сервис платежей.
// publisher может быть nil — тогда события не публикуются.
func NewPaymentService(
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	publisher *events.Publisher,
) PaymentService {
	return &paymentService{
		payments:  payments,
		orders:    orders,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreatePayment создаёт платёж по заказу.
func (s *paymentService) CreatePayment(ctx context.Context, input CreatePaymentInput) (*domain.Payment, error) {
	log := logger.FromContext(ctx)

	order, err := s.orders.GetByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Warn().Str("order_id", input.OrderID).Msg("Платёж по несуществующему заказу")
			return nil, err
		}
		log.Error().Err(err).Str("order_id", input.OrderID).Msg("Ошибка проверки заказа")
		return nil, fmt.Errorf("проверка заказа: %w", err)
	}

	paymentType := input.Type
	if paymentType == "" {
		paymentType = domain.PaymentTypePayment
	}
	if !paymentType.IsValid() {
		log.Warn().Str("type", string(paymentType)).Msg("Недопустимый тип платежа")
		return nil, domain.ErrInvalidPaymentType
	}

	currency := input.Currency
	if currency == "" {
		currency = order.Currency
	}

	now := s.now().UTC()
	paymentDate := now
	if input.PaymentDate != nil {
		paymentDate = *input.PaymentDate
	}

	payment := &domain.Payment{
		ID:          uuid.New().String(),
		OrderID:     input.OrderID,
		Amount:      input.Amount,
		Currency:    currency,
		Type:        paymentType,
		Method:      input.Method,
		Status:      domain.PaymentStatusPending,
		PaymentDate: paymentDate,
		Notes:       input.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := payment.Validate(); err != nil {
		log.Warn().Err(err).Str("order_id", input.OrderID).Msg("Ошибка валидации платежа")
		return nil, err
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		log.Error().Err(err).Str("order_id", input.OrderID).Msg("Ошибка создания платежа")
		return nil, fmt.Errorf("создание платежа: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.Event{
		Type:     events.EventPaymentCreated,
		EntityID: payment.ID,
		Payload: map[string]string{
			"order_id": payment.OrderID,
			"amount":   payment.Amount.String(),
		},
	}); err != nil {
		log.Warn().Err(err).Str("payment_id", payment.ID).Msg("Событие о создании платежа не отправлено")
	}

	log.Info().
		Str("payment_id", payment.ID).
		Str("order_id", payment.OrderID).
		Str("amount", payment.Amount.String()).
		Str("type", string(payment.Type)).
		Msg("Платёж создан")

	return payment, nil
}

// GetPayment возвращает платёж по ID.
func (s *paymentService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	log := logger.FromContext(ctx)

	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Debug().Str("payment_id", paymentID).Msg("Платёж не найден")
			return nil, err
		}
		log.Error().Err(err).Str("payment_id", paymentID).Msg("Ошибка получения платежа")
		return nil, fmt.Errorf("получение платежа: %w", err)
	}

	return payment, nil
}

// ListPayments возвращает платежи по фильтру с пагинацией.
func (s *paymentService) ListPayments(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int64, error) {
	log := logger.FromContext(ctx)

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.ErrInvalidPaymentStatus
	}
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, 0, domain.ErrInvalidPaymentType
	}

	filter.Page = normalizePage(filter.Page)
	filter.PerPage = normalizePageSize(filter.PerPage)

	payments, total, err := s.payments.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка получения списка платежей")
		return nil, 0, fmt.Errorf("получение списка платежей: %w", err)
	}

	return payments, total, nil
}

// UpdatePayment применяет частичное обновление платежа.
// Ограничения зависят от статуса: проведённому платежу меняются только
// заметки, если обновление не отменяет его явно.
func (s *paymentService) UpdatePayment(ctx context.Context, paymentID string, upd *domain.PaymentUpdate) (*domain.Payment, error) {
	log := logger.FromContext(ctx)

	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && !upd.Status.IsValid() {
		log.Warn().
			Str("payment_id", paymentID).
			Str("status", string(*upd.Status)).
			Msg("Попытка выставить недопустимый статус платежа")
		return nil, domain.ErrInvalidPaymentStatus
	}
	if upd.Type != nil && !upd.Type.IsValid() {
		return nil, domain.ErrInvalidPaymentType
	}

	prevStatus := payment.Status

	if err := upd.Apply(payment); err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("Обновление платежа отклонено")
		return nil, err
	}
	payment.UpdatedAt = s.now().UTC()

	if err := s.payments.Update(ctx, payment); err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("Ошибка обновления платежа")
		return nil, fmt.Errorf("обновление платежа: %w", err)
	}

	if prevStatus != domain.PaymentStatusCancelled && payment.Status == domain.PaymentStatusCancelled {
		if err := s.publisher.Publish(ctx, events.Event{
			Type:     events.EventPaymentCancelled,
			EntityID: payment.ID,
			Payload: map[string]string{
				"order_id": payment.OrderID,
				"amount":   payment.Amount.String(),
			},
		}); err != nil {
			log.Warn().Err(err).Str("payment_id", paymentID).Msg("Событие об отмене платежа не отправлено")
		}
	}

	log.Info().Str("payment_id", paymentID).Msg("Платёж обновлён")
	return payment, nil
}

// ConfirmPayment проводит платёж.
func (s *paymentService) ConfirmPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	log := logger.FromContext(ctx)

	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := payment.Confirm(); err != nil {
		log.Warn().
			Str("payment_id", paymentID).
			Str("status", string(payment.Status)).
			Msg("Попытка провести платёж в терминальном статусе")
		return nil, err
	}
	payment.UpdatedAt = s.now().UTC()

	if err := s.payments.Update(ctx, payment); err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("Ошибка сохранения проведения платежа")
		return nil, fmt.Errorf("проведение платежа: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.Event{
		Type:     events.EventPaymentConfirmed,
		EntityID: payment.ID,
		Payload: map[string]string{
			"order_id": payment.OrderID,
			"amount":   payment.Amount.String(),
		},
	}); err != nil {
		log.Warn().Err(err).Str("payment_id", paymentID).Msg("Событие о проведении платежа не отправлено")
	}

	log.Info().
		Str("payment_id", paymentID).
		Str("order_id", payment.OrderID).
		Str("amount", payment.Amount.String()).
		Msg("Платёж проведён")

	return payment, nil
}

// DeletePayment удаляет платёж.
func (s *paymentService) DeletePayment(ctx context.Context, paymentID string) error {
	log := logger.FromContext(ctx)

	payment, err := s.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if err := payment.CheckDeletable(); err != nil {
		log.Warn().
			Str("payment_id", paymentID).
			Str("status", string(payment.Status)).
			Msg("Попытка удалить платёж не в статусе pending")
		return err
	}

	if err := s.payments.Delete(ctx, paymentID); err != nil {
		log.Error().Err(err).Str("payment_id", paymentID).Msg("Ошибка удаления платежа")
		return fmt.Errorf("удаление платежа: %w", err)
	}

	log.Info().Str("payment_id", paymentID).Msg("Платёж удалён")
	return nil
}
