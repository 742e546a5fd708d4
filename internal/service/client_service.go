// Package service содержит бизнес-логику CRM.
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

// Константы для валидации пагинации.
const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
	minPageSize     = 1
)

// ClientService определяет интерфейс бизнес-логики клиентов.
type ClientService interface {
	// CreateClient создаёт нового клиента.
	CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error)

	// GetClient возвращает клиента по ID.
	GetClient(ctx context.Context, clientID string) (*domain.Client, error)

	// ListClients возвращает клиентов по фильтру с пагинацией.
	ListClients(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, int64, error)

	// UpdateClient применяет частичное обновление клиента.
	UpdateClient(ctx context.Context, clientID string, upd *domain.ClientUpdate) (*domain.Client, error)

	// DeleteClient удаляет клиента. Клиент с заказами не удаляется.
	DeleteClient(ctx context.Context, clientID string) error
}

// clientService — реализация ClientService.
type clientService struct {
	clients repository.ClientRepository
	orders  repository.OrderRepository
	now     func() time.Time
}

// NewClientService создаёт новый сервис клиентов.
func NewClientService(clients repository.ClientRepository, orders repository.OrderRepository) ClientService {
	return &clientService{
		clients: clients,
		orders:  orders,
		now:     time.Now,
	}
}

// CreateClient создаёт нового клиента.
func (s *clientService) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	log := logger.FromContext(ctx)

	if err := client.Validate(); err != nil {
		log.Warn().Err(err).Msg("Ошибка валидации клиента")
		return nil, err
	}

	client.ID = uuid.New().String()
	now := s.now().UTC()
	client.CreatedAt = now
	client.UpdatedAt = now

	if err := s.clients.Create(ctx, client); err != nil {
		log.Error().Err(err).Str("name", client.Name).Msg("Ошибка создания клиента")
		return nil, fmt.Errorf("создание клиента: %w", err)
	}

	log.Info().
		Str("client_id", client.ID).
		Str("name", client.Name).
		Msg("Клиент создан")

	return client, nil
}

// GetClient возвращает клиента по ID.
func (s *clientService) GetClient(ctx context.Context, clientID string) (*domain.Client, error) {
	log := logger.FromContext(ctx)

	client, err := s.clients.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, domain.ErrClientNotFound) {
			log.Debug().Str("client_id", clientID).Msg("Клиент не найден")
			return nil, err
		}
		log.Error().Err(err).Str("client_id", clientID).Msg("Ошибка получения клиента")
		return nil, fmt.Errorf("получение клиента: %w", err)
	}

	return client, nil
}

// ListClients возвращает клиентов по фильтру с пагинацией.
func (s *clientService) ListClients(ctx context.Context, filter domain.ClientFilter) ([]*domain.Client, int64, error) {
	log := logger.FromContext(ctx)

	filter.Page = normalizePage(filter.Page)
	filter.PerPage = normalizePageSize(filter.PerPage)

	clients, total, err := s.clients.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка получения списка клиентов")
		return nil, 0, fmt.Errorf("получение списка клиентов: %w", err)
	}

	return clients, total, nil
}

// UpdateClient применяет частичное обновление клиента.
func (s *clientService) UpdateClient(ctx context.Context, clientID string, upd *domain.ClientUpdate) (*domain.Client, error) {
	log := logger.FromContext(ctx)

	client, err := s.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if err := upd.Apply(client); err != nil {
		log.Warn().Err(err).Str("client_id", clientID).Msg("Ошибка валидации обновления клиента")
		return nil, err
	}
	client.UpdatedAt = s.now().UTC()

	if err := s.clients.Update(ctx, client); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("Ошибка обновления клиента")
		return nil, fmt.Errorf("обновление клиента: %w", err)
	}

	log.Info().Str("client_id", clientID).Msg("Клиент обновлён")
	return client, nil
}

// DeleteClient удаляет клиента.
func (s *clientService) DeleteClient(ctx context.Context, clientID string) error {
	log := logger.FromContext(ctx)

	if _, err := s.GetClient(ctx, clientID); err != nil {
		return err
	}

	orderCount, err := s.orders.CountByClient(ctx, clientID)
	if err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("Ошибка подсчёта заказов клиента")
		return fmt.Errorf("подсчёт заказов клиента: %w", err)
	}
	if orderCount > 0 {
		log.Warn().
			Str("client_id", clientID).
			Int64("orders", orderCount).
			Msg("Попытка удалить клиента с заказами")
		return domain.ErrClientHasOrders
	}

	if err := s.clients.Delete(ctx, clientID); err != nil {
		log.Error().Err(err).Str("client_id", clientID).Msg("Ошибка удаления клиента")
		return fmt.Errorf("удаление клиента: %w", err)
	}

	log.Info().Str("client_id", clientID).Msg("Клиент удалён")
	return nil
}

// normalizePage нормализует номер страницы.
func normalizePage(page int) int {
	if page < 1 {
		return defaultPage
	}
	return page
}

// normalizePageSize нормализует размер страницы.
// Возвращает значение в диапазоне [minPageSize, maxPageSize].
func normalizePageSize(pageSize int) int {
	if pageSize < minPageSize {
		return defaultPageSize
	}
	if pageSize > maxPageSize {
		return maxPageSize
	}
	return pageSize
}
