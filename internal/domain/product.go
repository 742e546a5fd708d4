package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product представляет товар или услугу из каталога.
type Product struct {
	ID            string
	Name          string
	SKU           string
	Price         decimal.Decimal
	Currency      string
	Unit          string
	StockQuantity decimal.Decimal
	Category      string
	Description   string
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate проверяет обязательные поля товара.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyProductName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	return nil
}

// Archive помечает товар неактивным. Товары не удаляются физически,
// чтобы не ломать ссылки из позиций существующих заказов.
func (p *Product) Archive() {
	p.Active = false
}

// ProductUpdate описывает частичное обновление товара.
type ProductUpdate struct {
	Name          *string
	SKU           *string
	Price         *decimal.Decimal
	Currency      *string
	Unit          *string
	StockQuantity *decimal.Decimal
	Category      *string
	Description   *string
	Active        *bool
}

// Apply применяет непустые поля обновления к товару.
func (u *ProductUpdate) Apply(p *Product) error {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return ErrEmptyProductName
		}
		p.Name = *u.Name
	}
	if u.SKU != nil {
		p.SKU = *u.SKU
	}
	if u.Price != nil {
		if u.Price.IsNegative() {
			return ErrNegativePrice
		}
		p.Price = *u.Price
	}
	if u.Currency != nil {
		p.Currency = *u.Currency
	}
	if u.Unit != nil {
		p.Unit = *u.Unit
	}
	if u.StockQuantity != nil {
		p.StockQuantity = *u.StockQuantity
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Active != nil {
		p.Active = *u.Active
	}
	return nil
}

// ProductFilter задаёт параметры выборки товаров.
type ProductFilter struct {
	Search   string // подстрока по названию, артикулу или описанию
	Category string
	Active   *bool
	Page     int
	PerPage  int
}
