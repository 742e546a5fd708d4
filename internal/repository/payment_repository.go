package repository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/crm-backend/internal/domain"
)

// PaymentRepository определяет интерфейс для работы с платежами в БД.
type PaymentRepository interface {
	// Create создаёт новый платёж.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID возвращает платёж по ID.
	GetByID(ctx context.Context, paymentID string) (*domain.Payment, error)

	// List возвращает платежи по фильтру с пагинацией.
	List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int64, error)

	// Update сохраняет изменённые поля платежа.
	Update(ctx context.Context, payment *domain.Payment) error

	// Delete удаляет платёж.
	Delete(ctx context.Context, paymentID string) error

	// CountByOrder возвращает число платежей заказа в любом статусе.
	// Используется проверкой удаляемости заказа.
	CountByOrder(ctx context.Context, orderID string) (int64, error)
}

// PaymentModel — GORM модель для таблицы payments.
type PaymentModel struct {
	ID          string          `gorm:"column:id;type:varchar(36);primaryKey"`
	OrderID     string          `gorm:"column:order_id;type:varchar(36);not null;index"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(15,2);not null"`
	Currency    string          `gorm:"column:currency;type:varchar(3);not null"`
	Type        string          `gorm:"column:type;type:varchar(20);not null"`
	Method      string          `gorm:"column:method;type:varchar(100)"`
	Status      string          `gorm:"column:status;type:varchar(20);not null;index"`
	PaymentDate time.Time       `gorm:"column:payment_date;not null"`
	Notes       string          `gorm:"column:notes;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (PaymentModel) TableName() string {
	return "payments"
}

// toDomain конвертирует GORM модель платежа в доменную сущность.
func (m *PaymentModel) toDomain() *domain.Payment {
	return &domain.Payment{
		ID:          m.ID,
		OrderID:     m.OrderID,
		Amount:      m.Amount,
		Currency:    m.Currency,
		Type:        domain.PaymentType(m.Type),
		Method:      m.Method,
		Status:      domain.PaymentStatus(m.Status),
		PaymentDate: m.PaymentDate,
		Notes:       m.Notes,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

// paymentModelFromDomain конвертирует доменную сущность платежа в GORM модель.
func paymentModelFromDomain(p *domain.Payment) *PaymentModel {
	return &PaymentModel{
		ID:          p.ID,
		OrderID:     p.OrderID,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Type:        string(p.Type),
		Method:      p.Method,
		Status:      string(p.Status),
		PaymentDate: p.PaymentDate,
		Notes:       p.Notes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// paymentRepository — GORM реализация PaymentRepository.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository создаёт новый репозиторий платежей.
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// Create создаёт новый платёж.
func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	model := paymentModelFromDomain(payment)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	payment.CreatedAt = model.CreatedAt
	payment.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает платёж по ID.
func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	var model PaymentModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// List возвращает платежи по фильтру с пагинацией, новые первыми.
func (r *paymentRepository) List(ctx context.Context, filter domain.PaymentFilter) ([]*domain.Payment, int64, error) {
	var models []PaymentModel
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&PaymentModel{})

	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.Type != "" {
		query = query.Where("type = ?", string(filter.Type))
	}

	if err := query.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Offset(pageOffset(filter.Page, filter.PerPage)).
		Limit(filter.PerPage).
		Find(&models).Error; err != nil {
		return nil, 0, err
	}

	payments := make([]*domain.Payment, len(models))
	for i := range models {
		payments[i] = models[i].toDomain()
	}

	return payments, totalCount, nil
}

// Update сохраняет изменённые поля платежа.
func (r *paymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	model := paymentModelFromDomain(payment)

	result := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]interface{}{
			"amount":       model.Amount,
			"currency":     model.Currency,
			"type":         model.Type,
			"method":       model.Method,
			"status":       model.Status,
			"payment_date": model.PaymentDate,
			"notes":        model.Notes,
			"updated_at":   time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// Delete удаляет платёж.
func (r *paymentRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&PaymentModel{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

// CountByOrder возвращает число платежей заказа в любом статусе.
func (r *paymentRepository) CountByOrder(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("order_id = ?", orderID).
		Count(&count).Error
	return count, err
}
