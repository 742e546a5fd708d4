package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/testutil"
)

// =====================================
// Тесты CreateClient
// =====================================

func TestCreateClient(t *testing.T) {
	t.Run("успешное создание", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		clients.On("Create", mock.Anything, mock.AnythingOfType("*domain.Client")).Return(nil)

		svc := NewClientService(clients, orders)

		client, err := svc.CreateClient(context.Background(), &domain.Client{Name: "ООО Ромашка", City: "Москва"})

		require.NoError(t, err)
		assert.NotEmpty(t, client.ID)
		clients.AssertExpectations(t)
	})

	t.Run("пустое имя", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		svc := NewClientService(clients, orders)

		_, err := svc.CreateClient(context.Background(), &domain.Client{Name: "  "})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyClientName)
		clients.AssertNotCalled(t, "Create")
	})
}

// =====================================
// Тесты DeleteClient
// =====================================

func TestDeleteClient(t *testing.T) {
	client := &domain.Client{ID: "client-1", Name: "ООО Ромашка"}

	t.Run("успешное удаление без заказов", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		clients.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		orders.On("CountByClient", mock.Anything, "client-1").Return(int64(0), nil)
		clients.On("Delete", mock.Anything, "client-1").Return(nil)

		svc := NewClientService(clients, orders)

		err := svc.DeleteClient(context.Background(), "client-1")

		require.NoError(t, err)
		clients.AssertExpectations(t)
	})

	t.Run("клиент с заказами не удаляется", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		clients.On("GetByID", mock.Anything, "client-1").Return(client, nil)
		orders.On("CountByClient", mock.Anything, "client-1").Return(int64(2), nil)

		svc := NewClientService(clients, orders)

		err := svc.DeleteClient(context.Background(), "client-1")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrClientHasOrders)
		clients.AssertNotCalled(t, "Delete")
	})

	t.Run("клиент не найден", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		clients.On("GetByID", mock.Anything, "unknown").Return(nil, domain.ErrClientNotFound)

		svc := NewClientService(clients, orders)

		err := svc.DeleteClient(context.Background(), "unknown")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrClientNotFound)
	})
}

// =====================================
// Тесты UpdateClient
// =====================================

func TestUpdateClient(t *testing.T) {
	t.Run("частичное обновление", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		existing := &domain.Client{ID: "client-1", Name: "ООО Ромашка", City: "Москва"}
		clients.On("GetByID", mock.Anything, "client-1").Return(existing, nil)
		clients.On("Update", mock.Anything, mock.AnythingOfType("*domain.Client")).Return(nil)

		svc := NewClientService(clients, orders)

		city := "Казань"
		updated, err := svc.UpdateClient(context.Background(), "client-1", &domain.ClientUpdate{City: &city})

		require.NoError(t, err)
		assert.Equal(t, "Казань", updated.City)
		// Имя не менялось
		assert.Equal(t, "ООО Ромашка", updated.Name)
	})

	t.Run("обнуление имени запрещено", func(t *testing.T) {
		clients := new(testutil.MockClientRepository)
		orders := new(testutil.MockOrderRepository)

		existing := &domain.Client{ID: "client-1", Name: "ООО Ромашка"}
		clients.On("GetByID", mock.Anything, "client-1").Return(existing, nil)

		svc := NewClientService(clients, orders)

		empty := ""
		_, err := svc.UpdateClient(context.Background(), "client-1", &domain.ClientUpdate{Name: &empty})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyClientName)
		clients.AssertNotCalled(t, "Update")
	})
}

// =====================================
// Тесты ArchiveProduct
// =====================================

func TestArchiveProduct(t *testing.T) {
	products := new(testutil.MockProductRepository)

	product := &domain.Product{ID: "product-1", Name: "Кабель", Active: true}
	products.On("GetByID", mock.Anything, "product-1").Return(product, nil)
	products.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Product) bool {
		return !p.Active
	})).Return(nil)

	svc := NewProductService(products)

	err := svc.ArchiveProduct(context.Background(), "product-1")

	require.NoError(t, err)
	products.AssertExpectations(t)
}

// =====================================
// Тесты UpdateProduct (артикул)
// =====================================

func TestUpdateProduct_SKUConflict(t *testing.T) {
	products := new(testutil.MockProductRepository)

	existing := &domain.Product{ID: "product-1", Name: "Кабель", SKU: "CBL-001"}
	products.On("GetByID", mock.Anything, "product-1").Return(existing, nil)
	products.On("SKUTaken", mock.Anything, "CBL-002", "product-1").Return(true, nil)

	svc := NewProductService(products)

	sku := "CBL-002"
	_, err := svc.UpdateProduct(context.Background(), "product-1", &domain.ProductUpdate{SKU: &sku})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateSKU)
	products.AssertNotCalled(t, "Update")
}
