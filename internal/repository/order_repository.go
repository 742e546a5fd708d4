package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"example.com/crm-backend/internal/domain"
)

// orderNumberPrefix — префикс человекочитаемого номера заказа.
const orderNumberPrefix = "ORD"

// OrderRepository определяет интерфейс для работы с заказами в БД.
type OrderRepository interface {
	// Create создаёт заказ с позициями и генерирует номер заказа.
	// Выполняется в одной транзакции: генерация номера сериализуется
	// блокирующим чтением, чтобы параллельные создания не получили
	// одинаковый номер.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID возвращает заказ с позициями и производными суммами
	// (оплачено/долг), вычисленными по текущим платежам.
	GetByID(ctx context.Context, orderID string) (*domain.Order, error)

	// List возвращает заказы по фильтру с пагинацией, новые первыми.
	// Производные суммы вычисляются для каждой строки выборки.
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error)

	// Update сохраняет изменённые поля заказа (без позиций и итога).
	Update(ctx context.Context, order *domain.Order) error

	// Delete удаляет заказ вместе с позициями в одной транзакции.
	// Бизнес-проверки (статус, наличие платежей) выполняет сервисный слой.
	Delete(ctx context.Context, orderID string) error

	// CountByClient возвращает число заказов клиента.
	CountByClient(ctx context.Context, clientID string) (int64, error)
}

// OrderModel — GORM модель для таблицы orders.
type OrderModel struct {
	ID              string           `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderNumber     string           `gorm:"column:order_number;type:varchar(20);not null;uniqueIndex"`
	ClientID        string           `gorm:"column:client_id;type:varchar(36);not null;index"`
	Status          string           `gorm:"column:status;type:varchar(20);not null;index"`
	OrderDate       time.Time        `gorm:"column:order_date;not null"`
	TotalAmount     decimal.Decimal  `gorm:"column:total_amount;type:decimal(15,2);not null"`
	Currency        string           `gorm:"column:currency;type:varchar(3);not null"`
	DeliveryAddress string           `gorm:"column:delivery_address;type:text"`
	DeliveryDate    *time.Time       `gorm:"column:delivery_date"`
	Notes           string           `gorm:"column:notes;type:text"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
	Items           []OrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName возвращает имя таблицы в БД.
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel — GORM модель для таблицы order_items.
type OrderItemModel struct {
	ID        string          `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID   string          `gorm:"column:order_id;type:varchar(36);not null;index"`
	ProductID string          `gorm:"column:product_id;type:varchar(36);not null"`
	Quantity  decimal.Decimal `gorm:"column:quantity;type:decimal(15,3);not null"`
	UnitPrice decimal.Decimal `gorm:"column:unit_price;type:decimal(15,2);not null"`
	LineTotal decimal.Decimal `gorm:"column:line_total;type:decimal(15,2);not null"`
}

// TableName возвращает имя таблицы в БД.
func (OrderItemModel) TableName() string {
	return "order_items"
}

// toDomain конвертирует GORM модель заказа в доменную сущность.
func (m *OrderModel) toDomain() *domain.Order {
	order := &domain.Order{
		ID:              m.ID,
		OrderNumber:     m.OrderNumber,
		ClientID:        m.ClientID,
		Status:          domain.OrderStatus(m.Status),
		OrderDate:       m.OrderDate,
		TotalAmount:     m.TotalAmount,
		Currency:        m.Currency,
		DeliveryAddress: m.DeliveryAddress,
		DeliveryDate:    m.DeliveryDate,
		Notes:           m.Notes,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Items:           make([]domain.OrderItem, len(m.Items)),
	}

	for i, item := range m.Items {
		order.Items[i] = *item.toDomain()
	}

	return order
}

// toDomain конвертирует GORM модель позиции в доменную сущность.
func (m *OrderItemModel) toDomain() *domain.OrderItem {
	return &domain.OrderItem{
		ID:        m.ID,
		OrderID:   m.OrderID,
		ProductID: m.ProductID,
		Quantity:  m.Quantity,
		UnitPrice: m.UnitPrice,
		LineTotal: m.LineTotal,
	}
}

// orderModelFromDomain конвертирует доменную сущность заказа в GORM модель.
func orderModelFromDomain(o *domain.Order) *OrderModel {
	model := &OrderModel{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		ClientID:        o.ClientID,
		Status:          string(o.Status),
		OrderDate:       o.OrderDate,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
		DeliveryAddress: o.DeliveryAddress,
		DeliveryDate:    o.DeliveryDate,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
		Items:           make([]OrderItemModel, len(o.Items)),
	}

	for i, item := range o.Items {
		model.Items[i] = OrderItemModel{
			ID:        item.ID,
			OrderID:   item.OrderID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal,
		}
	}

	return model
}

// orderRepository — GORM реализация OrderRepository.
type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create создаёт заказ с позициями в одной транзакции.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := orderModelFromDomain(order)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		number, err := nextOrderNumber(tx, order.OrderDate)
		if err != nil {
			return fmt.Errorf("генерация номера заказа: %w", err)
		}
		model.OrderNumber = number

		// Позиции создаются автоматически через ассоциацию
		return tx.Create(model).Error
	})
	if err != nil {
		return err
	}

	order.OrderNumber = model.OrderNumber
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

// nextOrderNumber выдаёт следующий номер заказа вида ORD-YYYYMMDD-NNNN.
// Последовательность своя на каждый календарный день (UTC) и начинается
// с 0001. Читаем максимальный выданный номер дня с блокировкой FOR UPDATE:
// параллельная транзакция того же дня дождётся фиксации и возьмёт
// следующий номер.
func nextOrderNumber(tx *gorm.DB, day time.Time) (string, error) {
	prefix := fmt.Sprintf("%s-%s-", orderNumberPrefix, day.UTC().Format("20060102"))

	var last string
	err := tx.Model(&OrderModel{}).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("order_number").
		Where("order_number LIKE ?", prefix+"%").
		Order("order_number DESC").
		Limit(1).
		Scan(&last).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if last != "" {
		parsed, err := strconv.Atoi(strings.TrimPrefix(last, prefix))
		if err != nil {
			return "", fmt.Errorf("разбор номера заказа %q: %w", last, err)
		}
		seq = parsed + 1
	}

	return fmt.Sprintf("%s%04d", prefix, seq), nil
}

// GetByID возвращает заказ по ID с позициями и производными суммами.
func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel

	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}

	order := model.toDomain()
	if err := r.attachPaidAmounts(ctx, []*domain.Order{order}); err != nil {
		return nil, err
	}

	return order, nil
}

// List возвращает заказы по фильтру с пагинацией.
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	var models []OrderModel
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&OrderModel{})

	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(pageOffset(filter.Page, filter.PerPage)).
		Limit(filter.PerPage).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]*domain.Order, len(models))
	for i := range models {
		orders[i] = models[i].toDomain()
	}

	if err := r.attachPaidAmounts(ctx, orders); err != nil {
		return nil, 0, err
	}

	return orders, totalCount, nil
}

// paidAmountRow — результат агрегации проведённых платежей по заказу.
type paidAmountRow struct {
	OrderID string          `gorm:"column:order_id"`
	Paid    decimal.Decimal `gorm:"column:paid"`
}

// attachPaidAmounts вычисляет оплаченную сумму и долг для каждого заказа
// одним агрегирующим запросом по проведённым платежам. Значения не
// кэшируются: каждое чтение отражает текущее состояние платежей.
func (r *orderRepository) attachPaidAmounts(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}

	var rows []paidAmountRow
	err := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Select("order_id, COALESCE(SUM(amount), 0) AS paid").
		Where("order_id IN ? AND status = ?", ids, string(domain.PaymentStatusCompleted)).
		Group("order_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	paidByOrder := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		paidByOrder[row.OrderID] = row.Paid
	}

	for _, order := range orders {
		order.PaidAmount = paidByOrder[order.ID]
		// Долг заказа не обрезается до нуля: переплата видна как минус
		order.DebtAmount = order.TotalAmount.Sub(order.PaidAmount)
	}

	return nil
}

// Update сохраняет изменённые поля заказа.
// Позиции и итоговая сумма через этот метод не меняются.
func (r *orderRepository) Update(ctx context.Context, order *domain.Order) error {
	result := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{
			"client_id":        order.ClientID,
			"status":           string(order.Status),
			"currency":         order.Currency,
			"delivery_address": order.DeliveryAddress,
			"delivery_date":    order.DeliveryDate,
			"notes":            order.Notes,
			"updated_at":       time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

// Delete удаляет заказ вместе с позициями в одной транзакции.
func (r *orderRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&OrderItemModel{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&OrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrOrderNotFound
		}
		return nil
	})
}

// CountByClient возвращает число заказов клиента.
func (r *orderRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("client_id = ?", clientID).
		Count(&count).Error
	return count, err
}
