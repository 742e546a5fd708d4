package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"example.com/crm-backend/internal/domain"
)

// ProductRepository определяет интерфейс для работы с каталогом товаров в БД.
type ProductRepository interface {
	// Create создаёт новый товар.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID возвращает товар по ID.
	GetByID(ctx context.Context, productID string) (*domain.Product, error)

	// List возвращает товары по фильтру с пагинацией.
	List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error)

	// Update сохраняет изменённые поля товара.
	Update(ctx context.Context, product *domain.Product) error

	// SKUTaken проверяет, занят ли артикул другим товаром.
	// excludeID исключает из проверки сам обновляемый товар.
	SKUTaken(ctx context.Context, sku, excludeID string) (bool, error)
}

// ProductModel — GORM модель для таблицы products.
// Артикул хранится указателем: у товаров без артикула в колонке NULL,
// иначе уникальный индекс не пропустил бы второй товар с пустой строкой.
type ProductModel struct {
	ID            string          `gorm:"column:id;type:varchar(36);primaryKey"`
	Name          string          `gorm:"column:name;type:varchar(255);not null"`
	SKU           *string         `gorm:"column:sku;type:varchar(100);uniqueIndex"`
	Price         decimal.Decimal `gorm:"column:price;type:decimal(15,2);not null"`
	Currency      string          `gorm:"column:currency;type:varchar(3);not null"`
	Unit          string          `gorm:"column:unit;type:varchar(20)"`
	StockQuantity decimal.Decimal `gorm:"column:stock_quantity;type:decimal(15,3);not null"`
	Category      string          `gorm:"column:category;type:varchar(100);index"`
	Description   string          `gorm:"column:description;type:text"`
	Active        bool            `gorm:"column:active;not null;index"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName возвращает имя таблицы в БД.
func (ProductModel) TableName() string {
	return "products"
}

// toDomain конвертирует GORM модель товара в доменную сущность.
func (m *ProductModel) toDomain() *domain.Product {
	product := &domain.Product{
		ID:            m.ID,
		Name:          m.Name,
		Price:         m.Price,
		Currency:      m.Currency,
		Unit:          m.Unit,
		StockQuantity: m.StockQuantity,
		Category:      m.Category,
		Description:   m.Description,
		Active:        m.Active,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
	if m.SKU != nil {
		product.SKU = *m.SKU
	}
	return product
}

// productModelFromDomain конвертирует доменную сущность товара в GORM модель.
func productModelFromDomain(p *domain.Product) *ProductModel {
	model := &ProductModel{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		Currency:      p.Currency,
		Unit:          p.Unit,
		StockQuantity: p.StockQuantity,
		Category:      p.Category,
		Description:   p.Description,
		Active:        p.Active,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.SKU != "" {
		model.SKU = &p.SKU
	}
	return model
}

// productRepository — GORM реализация ProductRepository.
type productRepository struct {
	db *gorm.DB
}

// NewProductRepository создаёт новый репозиторий товаров.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

// Create создаёт новый товар.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	model := productModelFromDomain(product)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if isDuplicateKeyError(err) {
			return domain.ErrDuplicateSKU
		}
		return err
	}

	product.CreatedAt = model.CreatedAt
	product.UpdatedAt = model.UpdatedAt
	return nil
}

// GetByID возвращает товар по ID.
func (r *productRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var model ProductModel

	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}

	return model.toDomain(), nil
}

// List возвращает товары по фильтру с пагинацией.
// Поиск идёт подстрокой по названию, артикулу и описанию.
func (r *productRepository) List(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	var models []ProductModel
	var totalCount int64

	query := r.db.WithContext(ctx).Model(&ProductModel{})

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"name LIKE ? OR sku LIKE ? OR description LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
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

	products := make([]*domain.Product, len(models))
	for i := range models {
		products[i] = models[i].toDomain()
	}

	return products, totalCount, nil
}

// Update сохраняет изменённые поля товара.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	model := productModelFromDomain(product)

	result := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("id = ?", product.ID).
		Updates(map[string]interface{}{
			"name":           model.Name,
			"sku":            model.SKU,
			"price":          model.Price,
			"currency":       model.Currency,
			"unit":           model.Unit,
			"stock_quantity": model.StockQuantity,
			"category":       model.Category,
			"description":    model.Description,
			"active":         model.Active,
			"updated_at":     time.Now().UTC(),
		})

	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return domain.ErrDuplicateSKU
		}
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// SKUTaken проверяет, занят ли артикул другим товаром.
func (r *productRepository) SKUTaken(ctx context.Context, sku, excludeID string) (bool, error) {
	if sku == "" {
		return false, nil
	}

	var count int64
	query := r.db.WithContext(ctx).
		Model(&ProductModel{}).
		Where("sku = ?", sku)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// isDuplicateKeyError проверяет, является ли ошибка дубликатом ключа.
// MySQL возвращает ошибку с кодом 1062 при попытке вставить дубликат.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	// GORM v2 имеет ErrDuplicatedKey, также проверяем текст ошибки MySQL
	errMsg := err.Error()
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(errMsg, "Duplicate entry") ||
		strings.Contains(errMsg, "1062")
}
