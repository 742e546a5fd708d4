package repository

import (
	"fmt"

	"gorm.io/gorm"
)

// AutoMigrate создаёт или обновляет схему базы данных.
// Вызывается при старте приложения.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&ClientModel{},
		&ProductModel{},
		&OrderModel{},
		&OrderItemModel{},
		&PaymentModel{},
		&UserModel{},
	); err != nil {
		return fmt.Errorf("миграция схемы: %w", err)
	}
	return nil
}
