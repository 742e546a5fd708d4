package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/events"
	"example.com/crm-backend/internal/repository"
	"example.com/crm-backend/pkg/logger"
)

// CreateOrderInput — входные данные создания заказа.
// Цены позиций берутся из запроса как есть: это снимок цены на момент
// заказа, каталог после этого может меняться свободно.
type CreateOrderInput struct {
	ClientID        string
	Currency        string
	DeliveryAddress string
	DeliveryDate    *time.Time
	Notes           string
	Items           []domain.OrderItem
}

// OrderService определяет интерфейс бизнес-логики заказов.
type OrderService interface {
	// CreateOrder создаёт заказ с позициями. Проверяет существование
	// клиента и всех товаров, генерирует номер заказа, считает итог.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)

	// GetOrder возвращает заказ по ID с производными суммами.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// ListOrders возвращает заказы по фильтру с пагинацией.
	ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error)

	// UpdateOrder применяет частичное обновление заказа.
	// Позиции и итоговая сумма не меняются.
	UpdateOrder(ctx context.Context, orderID string, upd *domain.OrderUpdate) (*domain.Order, error)

	// DeleteOrder удаляет заказ с позициями. Удаление разрешено только
	// для заказов в статусе new/cancelled и без платежей.
	DeleteOrder(ctx context.Context, orderID string) error
}

// orderService — реализация OrderService.
type orderService struct {
	orders    repository.OrderRepository
	clients   repository.ClientRepository
	products  repository.ProductRepository
	payments  repository.PaymentRepository
	publisher *events.Publisher
	now       func() time.Time
}

// NewOrderService создаёт новый сервис заказов.
// publisher может быть nil — тогда события не публикуются.
func NewOrderService(
	orders repository.OrderRepository,
	clients repository.ClientRepository,
	products repository.ProductRepository,
	payments repository.PaymentRepository,
	publisher *events.Publisher,
) OrderService {
	return &orderService{
		orders:    orders,
		clients:   clients,
		products:  products,
		payments:  payments,
		publisher: publisher,
		now:       time.Now,
	}
}

// CreateOrder создаёт заказ с позициями.
func (s *orderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	if _, err := s.clients.GetByID(ctx, input.ClientID); err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			log.Warn().Str("client_id", input.ClientID).Msg("Заказ на несуществующего клиента")
			return nil, err
		}
		log.Error().Err(err).Str("client_id", input.ClientID).Msg("Ошибка проверки клиента")
		return nil, fmt.Errorf("проверка клиента: %w", err)
	}

	orderID := uuid.New().String()
	now := s.now().UTC()

	items := make([]domain.OrderItem, len(input.Items))
	for i := range input.Items {
		items[i] = input.Items[i]
		items[i].ID = uuid.New().String()
		items[i].OrderID = orderID
	}

	order := &domain.Order{
		ID:              orderID,
		ClientID:        input.ClientID,
		Status:          domain.OrderStatusNew,
		OrderDate:       now,
		Currency:        input.Currency,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryDate:    input.DeliveryDate,
		Notes:           input.Notes,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		log.Warn().Err(err).Str("client_id", input.ClientID).Msg("Ошибка валидации заказа")
		return nil, err
	}

	// Каждая позиция должна ссылаться на существующий товар
	for _, item := range order.Items {
		if _, err := s.products.GetByID(ctx, item.ProductID); err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				log.Warn().Str("product_id", item.ProductID).Msg("Позиция заказа на несуществующий товар")
				return nil, err
			}
			log.Error().Err(err).Str("product_id", item.ProductID).Msg("Ошибка проверки товара")
			return nil, fmt.Errorf("проверка товара: %w", err)
		}
	}

	order.ComputeTotal()
	order.DebtAmount = order.TotalAmount

	if err := s.orders.Create(ctx, order); err != nil {
		log.Error().Err(err).Str("client_id", input.ClientID).Msg("Ошибка создания заказа")
		return nil, fmt.Errorf("создание заказа: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.Event{
		Type:     events.EventOrderCreated,
		EntityID: order.ID,
		Payload: map[string]string{
			"order_number": order.OrderNumber,
			"client_id":    order.ClientID,
			"total_amount": order.TotalAmount.String(),
		},
	}); err != nil {
		// Заказ уже сохранён, заваливать запрос из-за события не нужно
		log.Warn().Err(err).Str("order_id", order.ID).Msg("Событие о создании заказа не отправлено")
	}

	log.Info().
		Str("order_id", order.ID).
		Str("order_number", order.OrderNumber).
		Str("client_id", order.ClientID).
		Str("total_amount", order.TotalAmount.String()).
		Int("items_count", len(order.Items)).
		Msg("Заказ создан")

	return order, nil
}

// GetOrder возвращает заказ по ID.
func (s *orderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			log.Debug().Str("order_id", orderID).Msg("Заказ не найден")
			return nil, err
		}
		log.Error().Err(err).Str("order_id", orderID).Msg("Ошибка получения заказа")
		return nil, fmt.Errorf("получение заказа: %w", err)
	}

	return order, nil
}

// ListOrders возвращает заказы по фильтру с пагинацией.
func (s *orderService) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	log := logger.FromContext(ctx)

	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, domain.ErrInvalidOrderStatus
	}

	filter.Page = normalizePage(filter.Page)
	filter.PerPage = normalizePageSize(filter.PerPage)

	orders, total, err := s.orders.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка получения списка заказов")
		return nil, 0, fmt.Errorf("получение списка заказов: %w", err)
	}

	return orders, total, nil
}

// UpdateOrder применяет частичное обновление заказа.
func (s *orderService) UpdateOrder(ctx context.Context, orderID string, upd *domain.OrderUpdate) (*domain.Order, error) {
	log := logger.FromContext(ctx)

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if upd.Status != nil && !upd.Status.IsValid() {
		log.Warn().
			Str("order_id", orderID).
			Str("status", string(*upd.Status)).
			Msg("Попытка выставить недопустимый статус заказа")
		return nil, domain.ErrInvalidOrderStatus
	}

	// Смена клиента требует существования нового клиента
	if upd.ClientID != nil && *upd.ClientID != order.ClientID {
		if _, err := s.clients.GetByID(ctx, *upd.ClientID); err != nil {
			if errors.Is(err, domain.ErrClientNotFound) {
				log.Warn().
					Str("order_id", orderID).
					Str("client_id", *upd.ClientID).
					Msg("Перенос заказа на несуществующего клиента")
				return nil, err
			}
			return nil, fmt.Errorf("проверка клиента: %w", err)
		}
	}

	upd.Apply(order)
	order.UpdatedAt = s.now().UTC()

	if err := s.orders.Update(ctx, order); err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Ошибка обновления заказа")
		return nil, fmt.Errorf("обновление заказа: %w", err)
	}

	log.Info().Str("order_id", orderID).Msg("Заказ обновлён")
	return order, nil
}

// DeleteOrder удаляет заказ с позициями.
func (s *orderService) DeleteOrder(ctx context.Context, orderID string) error {
	log := logger.FromContext(ctx)

	order, err := s.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	paymentCount, err := s.payments.CountByOrder(ctx, orderID)
	if err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Ошибка подсчёта платежей заказа")
		return fmt.Errorf("подсчёт платежей заказа: %w", err)
	}

	if err := order.CheckDeletable(paymentCount > 0); err != nil {
		log.Warn().
			Str("order_id", orderID).
			Str("status", string(order.Status)).
			Int64("payments", paymentCount).
			Msg("Попытка удалить заказ, нарушающая правила удаления")
		return err
	}

	if err := s.orders.Delete(ctx, orderID); err != nil {
		log.Error().Err(err).Str("order_id", orderID).Msg("Ошибка удаления заказа")
		return fmt.Errorf("удаление заказа: %w", err)
	}

	if err := s.publisher.Publish(ctx, events.Event{
		Type:     events.EventOrderDeleted,
		EntityID: orderID,
		Payload:  map[string]string{"order_number": order.OrderNumber},
	}); err != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("Событие об удалении заказа не отправлено")
	}

	log.Info().Str("order_id", orderID).Msg("Заказ удалён")
	return nil
}
