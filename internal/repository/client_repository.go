// Package repository содержит реализацию доступа к данным CRM поверх GORM.
package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"example.com/crm-backend/internal/domain"
)

// ClientRepository определяет интерфейс для работы с клиентами в БД.
type ClientRepository interface {
	// Create создаёт нового клиента.
	Create(ctx context.Context, client *domain.Client) error

	// GetByID возвращает клиента по ID.
	GetByID(ctx context.Context, clientID string) (*domain.Client, error)

	// List возвращает клиентов по фильтру с пагинацией.
	// Возвращает список и общее количество записей (для пагинации).
	List(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, int64, error)

	// Update сохраняет изменённые поля клиента.
	Update(ctx context.Context, client *domain.Client) error

	// Delete удаляет клиента.
	Delete(ctx context.Context, clientID string) error
}

// ClientModel — GORM модель для таблицы clients.
// Отделена от доменной сущности для гибкости.
type ClientModel struct {
	ID        string    `gorm:"column:id;type:varchar(36);primaryKey"`
	Name      string    `gorm:"column:name;type:varchar(255);not null;index"`
	Company   string    `gorm:"column:company;type:varchar(255)"`
	Phone     string    `gorm:"column:phone;type:varchar(50)"`
	Email     string    `gorm:"column:email;type:varchar(255)"`
	City      string    `gorm:"column:city;type:varchar(100);index"`
	Address   string    `gorm:"column:address;type:text"`
	INN       string    `gorm:"column:inn;type:varchar(20)"`
	Notes     string    `gorm:"column:notes;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (ClientModel) TableName() string {
	return "clients"
}

// toDomain конвертирует GORM модель клиента в доменную сущность.
func (m *ClientModel) toDomain() *domain.Client {
	return &domain.Client{
		ID:        m.ID,
		Name:      m.Name,
		Company:   m.Company,
		Phone:     m.Phone,
		Email:     m.Email,
		City:      m.City,
		Address:   m.Address,
		INN:       m.INN,
		Notes:     m.Notes,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// clientModelFromDomain конвертирует доменную сущность клиента в GORM модель.
func clientModelFromDomain(c *domain.Client) *ClientModel {
	return &ClientModel{
		ID:        c.ID,
		Name:      c.Name,
		Company:   c.Company,
		Phone:     c.Phone,
		Email:     c.Email,
		City:      c.City,
		Address:   c.Address,
		INN:       c.INN,
		Notes:     c.Notes,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// clientRepository — GORM реализация ClientRepository.
type clientRepository struct {
	db *gorm.DB
}

// NewClientRepository создаёт новый репозиторий клиентов.
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

// Create создаёт нового клиента.
func (r *clientRepository) Create(ctx context.Context, client *domain.Client) error {
	model := clientModelFromDomain(client)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	client.CreatedAt = model.CreatedAt
	client.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает клиента по ID.
func (r *clientRepository) GetByID(ctx context.Context, id string) (*domain.Client, error) {
	var model ClientModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// List возвращает клиентов по фильтру с пагинацией.
// Поиск идёт подстрокой по имени, компании, телефону и email.
func (r *clientRepository) List(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, int64, error) {
	var models []ClientModel
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&ClientModel{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"name LIKE ? OR company LIKE ? OR phone LIKE ? OR email LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.City != "" {
		query = query.Where("city = ?", filter.City)
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

	clients := make([]*domain.Client, len(models))
	for i := range models {
		clients[i] = models[i].toDomain()
	}

	return clients, totalCount, nil
}

// Update сохраняет изменённые поля клиента.
func (r *clientRepository) Update(ctx context.Context, client *domain.Client) error {
	model := clientModelFromDomain(client)

	result := r.db.WithContext(ctx).
		Model(&ClientModel{}).
		Where("id = ?", client.ID).
		Updates(map[string]interface{}{
			"name":       model.Name,
			"company":    model.Company,
			"phone":      model.Phone,
			"email":      model.Email,
			"city":       model.City,
			"address":    model.Address,
			"inn":        model.INN,
			"notes":      model.Notes,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// Delete удаляет клиента.
func (r *clientRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&ClientModel{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrClientNotFound
	}
	return nil
}

// pageOffset переводит номер страницы в смещение выборки.
func pageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * perPage
}
