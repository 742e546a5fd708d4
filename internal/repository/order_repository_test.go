// Package repository содержит unit тесты для репозиториев CRM.
package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/crm-backend/internal/domain"
)

// =====================================
// Вспомогательные функции
// =====================================

// setupMockDB создаёт мок базы данных с GORM.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err, "Ошибка создания sqlmock")

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "Ошибка инициализации GORM")

	return gormDB, mock, func() { _ = db.Close() }
}

// =====================================
// Тесты Create и генерации номера заказа
// =====================================

func TestOrderCreate(t *testing.T) {
	orderDate := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name           string
		lastNumber     *string
		expectedNumber string
	}{
		{
			name:           "первый заказ дня",
			lastNumber:     nil,
			expectedNumber: "ORD-20250615-0001",
		},
		{
			name:           "продолжение последовательности дня",
			lastNumber:     strPtr("ORD-20250615-0007"),
			expectedNumber: "ORD-20250615-0008",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock, cleanup := setupMockDB(t)
			defer cleanup()

			repo := NewOrderRepository(gormDB)

			numberRows := sqlmock.NewRows([]string{"order_number"})
			if tt.lastNumber != nil {
				numberRows.AddRow(*tt.lastNumber)
			}

			mock.ExpectBegin()
			mock.ExpectQuery("SELECT `order_number` FROM `orders` WHERE order_number LIKE").
				WithArgs("ORD-20250615-%", 1).
				WillReturnRows(numberRows)
			mock.ExpectExec("INSERT INTO `orders`").
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectExec("INSERT INTO `order_items`").
				WillReturnResult(sqlmock.NewResult(1, 1))
			mock.ExpectCommit()

			order := &domain.Order{
				ID:        "order-uuid-1",
				ClientID:  "client-uuid-1",
				Status:    domain.OrderStatusNew,
				OrderDate: orderDate,
				Currency:  "RUB",
				Items: []domain.OrderItem{
					{
						ID:        "item-uuid-1",
						OrderID:   "order-uuid-1",
						ProductID: "product-uuid-1",
						Quantity:  decimal.RequireFromString("2"),
						UnitPrice: decimal.RequireFromString("100.00"),
						LineTotal: decimal.RequireFromString("200.00"),
					},
				},
				TotalAmount: decimal.RequireFromString("200.00"),
			}

			err := repo.Create(context.Background(), order)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedNumber, order.OrderNumber)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestOrderCreate_NumberQueryError(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewOrderRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT `order_number` FROM `orders` WHERE order_number LIKE").
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	order := &domain.Order{
		ID:        "order-uuid-1",
		ClientID:  "client-uuid-1",
		OrderDate: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		Items: []domain.OrderItem{
			{ID: "item-1", ProductID: "product-1", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(10)},
		},
	}

	err := repo.Create(context.Background(), order)

	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// =====================================
// Тесты GetByID
// =====================================

func TestOrderGetByID(t *testing.T) {
	t.Run("успешное получение с производными суммами", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		repo := NewOrderRepository(gormDB)
		now := time.Now().Truncate(time.Second)

		orderRows := sqlmock.NewRows([]string{
			"id", "order_number", "client_id", "status", "order_date",
			"total_amount", "currency", "delivery_address", "delivery_date",
			"notes", "created_at", "updated_at",
		}).AddRow(
			"order-123", "ORD-20250615-0001", "client-1", "new", now,
			"200.00", "RUB", "", nil, "", now, now,
		)
		itemRows := sqlmock.NewRows([]string{
			"id", "order_id", "product_id", "quantity", "unit_price", "line_total",
		}).AddRow("item-1", "order-123", "product-1", "2.000", "100.00", "200.00")
		paidRows := sqlmock.NewRows([]string{"order_id", "paid"}).
			AddRow("order-123", "80.00")

		mock.ExpectQuery("SELECT \\* FROM `orders` WHERE id = \\?").
			WithArgs("order-123", 1).
			WillReturnRows(orderRows)
		mock.ExpectQuery("SELECT \\* FROM `order_items` WHERE `order_items`\\.`order_id` = \\?").
			WithArgs("order-123").
			WillReturnRows(itemRows)
		mock.ExpectQuery("SELECT order_id, COALESCE\\(SUM\\(amount\\), 0\\) AS paid FROM `payments`").
			WithArgs(sqlmock.AnyArg(), "completed").
			WillReturnRows(paidRows)

		order, err := repo.GetByID(context.Background(), "order-123")

		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, "ORD-20250615-0001", order.OrderNumber)
		assert.Len(t, order.Items, 1)
		assert.True(t, order.PaidAmount.Equal(decimal.RequireFromString("80.00")))
		assert.True(t, order.DebtAmount.Equal(decimal.RequireFromString("120.00")))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("не найден", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		repo := NewOrderRepository(gormDB)

		mock.ExpectQuery("SELECT \\* FROM `orders` WHERE id = \\?").
			WithArgs("unknown", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		order, err := repo.GetByID(context.Background(), "unknown")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
		assert.Nil(t, order)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =====================================
// Тесты Delete
// =====================================

func TestOrderDelete(t *testing.T) {
	t.Run("успешное удаление с позициями", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		repo := NewOrderRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `order_items` WHERE order_id = \\?").
			WithArgs("order-123").
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec("DELETE FROM `orders` WHERE id = \\?").
			WithArgs("order-123").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), "order-123")

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("не найден", func(t *testing.T) {
		gormDB, mock, cleanup := setupMockDB(t)
		defer cleanup()

		repo := NewOrderRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM `order_items` WHERE order_id = \\?").
			WithArgs("unknown").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("DELETE FROM `orders` WHERE id = \\?").
			WithArgs("unknown").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), "unknown")

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// =====================================
// Тесты CountByClient
// =====================================

func TestOrderCountByClient(t *testing.T) {
	gormDB, mock, cleanup := setupMockDB(t)
	defer cleanup()

	repo := NewOrderRepository(gormDB)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `orders` WHERE client_id = \\?").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByClient(context.Background(), "client-1")

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func strPtr(s string) *string {
	return &s
}
