// Package domain содержит бизнес-сущности и доменные ошибки CRM.
package domain

import "errors"

// Доменные ошибки. Используются для передачи бизнес-ошибок между слоями.
// Каждая ошибка относится к одному из трёх классов: "не найдено",
// "ошибка валидации", "конфликт бизнес-правила" — HTTP-слой опирается
// на классификаторы IsNotFound/IsValidation/IsConflict.
var (
	// ErrClientNotFound возвращается, когда клиент не найден.
	ErrClientNotFound = errors.New("клиент не найден")

	// ErrProductNotFound возвращается, когда товар не найден.
	ErrProductNotFound = errors.New("товар не найден")

	// ErrOrderNotFound возвращается, когда заказ не найден.
	ErrOrderNotFound = errors.New("заказ не найден")

	// ErrPaymentNotFound возвращается, когда платёж не найден.
	ErrPaymentNotFound = errors.New("платёж не найден")

	// ErrUserNotFound возвращается, когда пользователь не найден.
	ErrUserNotFound = errors.New("пользователь не найден")

	// ErrEmptyClientName возвращается при пустом имени клиента.
	ErrEmptyClientName = errors.New("имя клиента не может быть пустым")

	// ErrEmptyProductName возвращается при пустом названии товара.
	ErrEmptyProductName = errors.New("название товара не может быть пустым")

	// ErrNegativePrice возвращается при отрицательной цене товара.
	ErrNegativePrice = errors.New("цена не может быть отрицательной")

	// ErrEmptyOrderItems возвращается при попытке создать заказ без позиций.
	ErrEmptyOrderItems = errors.New("заказ должен содержать хотя бы одну позицию")

	// ErrInvalidQuantity возвращается, когда количество в позиции меньше или равно нулю.
	ErrInvalidQuantity = errors.New("количество должно быть больше нуля")

	// ErrInvalidUnitPrice возвращается при отрицательной цене позиции.
	ErrInvalidUnitPrice = errors.New("цена позиции не может быть отрицательной")

	// ErrInvalidAmount возвращается, когда сумма платежа меньше или равна нулю.
	ErrInvalidAmount = errors.New("сумма платежа должна быть больше нуля")

	// ErrInvalidOrderStatus возвращается при неизвестном статусе заказа.
	ErrInvalidOrderStatus = errors.New("недопустимый статус заказа")

	// ErrInvalidPaymentStatus возвращается при неизвестном статусе платежа.
	ErrInvalidPaymentStatus = errors.New("недопустимый статус платежа")

	// ErrInvalidPaymentType возвращается при неизвестном типе платежа.
	ErrInvalidPaymentType = errors.New("недопустимый тип платежа")

	// ErrInvalidRole возвращается при неизвестной роли пользователя.
	ErrInvalidRole = errors.New("недопустимая роль пользователя")

	// ErrInvalidEmail возвращается при некорректном email пользователя.
	ErrInvalidEmail = errors.New("некорректный email")

	// ErrWeakPassword возвращается, когда пароль короче 8 символов.
	ErrWeakPassword = errors.New("пароль должен содержать минимум 8 символов")

	// ErrClientHasOrders возвращается при попытке удалить клиента с заказами.
	ErrClientHasOrders = errors.New("нельзя удалить клиента с заказами")

	// ErrDuplicateSKU возвращается, когда артикул уже занят другим товаром.
	ErrDuplicateSKU = errors.New("товар с таким артикулом уже существует")

	// ErrOrderHasPayments возвращается при попытке удалить заказ с платежами.
	// Наличие любого платежа (в любом статусе) блокирует удаление.
	ErrOrderHasPayments = errors.New("нельзя удалить заказ с платежами")

	// ErrOrderNotDeletable возвращается при удалении заказа в неподходящем статусе.
	ErrOrderNotDeletable = errors.New("можно удалять только новые или отменённые заказы")

	// ErrPaymentCompleted возвращается при попытке изменить проведённый платёж.
	ErrPaymentCompleted = errors.New("нельзя изменять проведённый платёж")

	// ErrPaymentAlreadyCompleted возвращается при повторном проведении платежа.
	ErrPaymentAlreadyCompleted = errors.New("платёж уже проведён")

	// ErrPaymentCancelled возвращается при попытке провести отменённый платёж.
	ErrPaymentCancelled = errors.New("нельзя провести отменённый платёж")

	// ErrPaymentNotDeletable возвращается при удалении платежа не в статусе pending.
	ErrPaymentNotDeletable = errors.New("можно удалять только ожидающие платежи")

	// ErrEmailExists возвращается при регистрации с занятым email.
	ErrEmailExists = errors.New("пользователь с таким email уже существует")

	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("неверный email или пароль")

	// ErrUserInactive возвращается при входе деактивированного пользователя.
	ErrUserInactive = errors.New("пользователь деактивирован")

	// ErrAccountLocked возвращается после превышения лимита попыток входа.
	ErrAccountLocked = errors.New("аккаунт временно заблокирован, попробуйте позже")
)

// notFoundErrors — ошибки класса "сущность не найдена".
var notFoundErrors = []error{
	ErrClientNotFound,
	ErrProductNotFound,
	ErrOrderNotFound,
	ErrPaymentNotFound,
	ErrUserNotFound,
}

// validationErrors — ошибки класса "некорректные входные данные".
var validationErrors = []error{
	ErrEmptyClientName,
	ErrEmptyProductName,
	ErrNegativePrice,
	ErrEmptyOrderItems,
	ErrInvalidQuantity,
	ErrInvalidUnitPrice,
	ErrInvalidAmount,
	ErrInvalidOrderStatus,
	ErrInvalidPaymentStatus,
	ErrInvalidPaymentType,
	ErrInvalidRole,
	ErrInvalidEmail,
	ErrWeakPassword,
}

// conflictErrors — ошибки класса "операция нарушает бизнес-правило".
var conflictErrors = []error{
	ErrClientHasOrders,
	ErrDuplicateSKU,
	ErrOrderHasPayments,
	ErrOrderNotDeletable,
	ErrPaymentCompleted,
	ErrPaymentAlreadyCompleted,
	ErrPaymentCancelled,
	ErrPaymentNotDeletable,
	ErrEmailExists,
}

// IsNotFound возвращает true для ошибок отсутствия сущности.
func IsNotFound(err error) bool {
	return matchAny(err, notFoundErrors)
}

// IsValidation возвращает true для ошибок валидации входных данных.
func IsValidation(err error) bool {
	return matchAny(err, validationErrors)
}

// IsConflict возвращает true для ошибок нарушения бизнес-правил.
func IsConflict(err error) bool {
	return matchAny(err, conflictErrors)
}

func matchAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
