package domain

import (
	"strings"
	"time"
)

// Client представляет клиента компании.
type Client struct {
	ID        string
	Name      string
	Company   string
	Phone     string
	Email     string
	City      string
	Address   string
	INN       string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate проверяет обязательные поля клиента.
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyClientName
	}
	return nil
}

// ClientUpdate описывает частичное обновление клиента.
// nil-поле означает "не менять".
type ClientUpdate struct {
	Name    *string
	Company *string
	Phone   *string
	Email   *string
	City    *string
	Address *string
	INN     *string
	Notes   *string
}

// Apply применяет непустые поля обновления к клиенту.
func (u *ClientUpdate) Apply(c *Client) error {
	if u.Name != nil {
		if strings.TrimSpace(*u.Name) == "" {
			return ErrEmptyClientName
		}
		c.Name = *u.Name
	}
	if u.Company != nil {
		c.Company = *u.Company
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.City != nil {
		c.City = *u.City
	}
	if u.Address != nil {
		c.Address = *u.Address
	}
	if u.INN != nil {
		c.INN = *u.INN
	}
	if u.Notes != nil {
		c.Notes = *u.Notes
	}
	return nil
}

// ClientFilter задаёт параметры выборки клиентов.
type ClientFilter struct {
	Search string // подстрока по имени, компании, телефону или email
	City   string
	Page   int
	PerPage int
}
