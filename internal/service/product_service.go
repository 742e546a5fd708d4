package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/repository"
	"example.com/crm-backend/pkg/logger"
)

// ProductService определяет интерфейс бизнес-логики каталога товаров.
type ProductService interface {
	// CreateProduct создаёт новый товар. Артикул уникален по каталогу.
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)

	// GetProduct возвращает товар по ID.
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)

	// ListProducts возвращает товары по фильтру с пагинацией.
	ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error)

	// UpdateProduct применяет частичное обновление товара.
	UpdateProduct(ctx context.Context, productID string, upd *domain.ProductUpdate) (*domain.Product, error)

	// ArchiveProduct помечает товар неактивным вместо физического удаления:
	// на товар могут ссылаться позиции существующих заказов.
	ArchiveProduct(ctx context.Context, productID string) error
}

// productService — реализация ProductService.
type productService struct {
	products repository.ProductRepository
	now      func() time.Time
}

// NewProductService создаёт новый сервис каталога.
func NewProductService(products repository.ProductRepository) ProductService {
	return &productService{
		products: products,
		now:      time.Now,
	}
}

// CreateProduct создаёт новый товар.
func (s *productService) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	if err := product.Validate(); err != nil {
		log.Warn().Err(err).Msg("Ошибка валидации товара")
		return nil, err
	}

	taken, err := s.products.SKUTaken(ctx, product.SKU, "")
	if err != nil {
		log.Error().Err(err).Str("sku", product.SKU).Msg("Ошибка проверки артикула")
		return nil, fmt.Errorf("проверка артикула: %w", err)
	}
	if taken {
		log.Warn().Str("sku", product.SKU).Msg("Попытка создать товар с занятым артикулом")
		return nil, domain.ErrDuplicateSKU
	}

	product.ID = uuid.New().String()
	product.Active = true
	now := s.now().UTC()
	product.CreatedAt = now
	product.UpdatedAt = now

	if err := s.products.Create(ctx, product); err != nil {
		log.Error().Err(err).Str("name", product.Name).Msg("Ошибка создания товара")
		return nil, fmt.Errorf("создание товара: %w", err)
	}

	log.Info().
		Str("product_id", product.ID).
		Str("name", product.Name).
		Str("sku", product.SKU).
		Msg("Товар создан")

	return product, nil
}

// GetProduct возвращает товар по ID.
func (s *productService) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			log.Debug().Str("product_id", productID).Msg("Товар не найден")
			return nil, err
		}
		log.Error().Err(err).Str("product_id", productID).Msg("Ошибка получения товара")
		return nil, fmt.Errorf("получение товара: %w", err)
	}

	return product, nil
}

// ListProducts возвращает товары по фильтру с пагинацией.
func (s *productService) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]*domain.Product, int64, error) {
	log := logger.FromContext(ctx)

	filter.Page = normalizePage(filter.Page)
	filter.PerPage = normalizePageSize(filter.PerPage)

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка получения списка товаров")
		return nil, 0, fmt.Errorf("получение списка товаров: %w", err)
	}

	return products, total, nil
}

// UpdateProduct применяет частичное обновление товара.
// Проверка артикула исключает сам обновляемый товар.
func (s *productService) UpdateProduct(ctx context.Context, productID string, upd *domain.ProductUpdate) (*domain.Product, error) {
	log := logger.FromContext(ctx)

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if upd.SKU != nil && *upd.SKU != product.SKU {
		taken, err := s.products.SKUTaken(ctx, *upd.SKU, productID)
		if err != nil {
			log.Error().Err(err).Str("sku", *upd.SKU).Msg("Ошибка проверки артикула")
			return nil, fmt.Errorf("проверка артикула: %w", err)
		}
		if taken {
			log.Warn().
				Str("product_id", productID).
				Str("sku", *upd.SKU).
				Msg("Попытка сменить артикул на занятый")
			return nil, domain.ErrDuplicateSKU
		}
	}

	if err := upd.Apply(product); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("Ошибка валидации обновления товара")
		return nil, err
	}
	product.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Ошибка обновления товара")
		return nil, fmt.Errorf("обновление товара: %w", err)
	}

	log.Info().Str("product_id", productID).Msg("Товар обновлён")
	return product, nil
}

// ArchiveProduct помечает товар неактивным.
func (s *productService) ArchiveProduct(ctx context.Context, productID string) error {
	log := logger.FromContext(ctx)

	product, err := s.GetProduct(ctx, productID)
	if err != nil {
		return err
	}

	product.Archive()
	product.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, product); err != nil {
		log.Error().Err(err).Str("product_id", productID).Msg("Ошибка архивации товара")
		return fmt.Errorf("архивация товара: %w", err)
	}

	log.Info().Str("product_id", productID).Msg("Товар архивирован")
	return nil
}
