package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrorClassifiers проверяет разбиение доменных ошибок на классы.
func TestErrorClassifiers(t *testing.T) {
	assert.True(t, IsNotFound(ErrOrderNotFound))
	assert.True(t, IsNotFound(fmt.Errorf("получение заказа: %w", ErrOrderNotFound)))
	assert.False(t, IsNotFound(ErrEmptyOrderItems))

	assert.True(t, IsValidation(ErrInvalidQuantity))
	assert.True(t, IsValidation(ErrWeakPassword))
	assert.False(t, IsValidation(ErrOrderHasPayments))

	assert.True(t, IsConflict(ErrDuplicateSKU))
	assert.True(t, IsConflict(ErrPaymentCompleted))
	assert.False(t, IsConflict(ErrClientNotFound))

	assert.False(t, IsNotFound(errors.New("внутренняя ошибка")))
	assert.False(t, IsValidation(nil))
}

// TestClient_Validate тестирует валидацию клиента.
func TestClient_Validate(t *testing.T) {
	assert.NoError(t, (&Client{Name: "ООО Ромашка"}).Validate())
	assert.ErrorIs(t, (&Client{Name: ""}).Validate(), ErrEmptyClientName)
	assert.ErrorIs(t, (&Client{Name: "   "}).Validate(), ErrEmptyClientName)
}

// TestProduct_Validate тестирует валидацию товара.
func TestProduct_Validate(t *testing.T) {
	assert.NoError(t, (&Product{Name: "Кабель", Price: dec("10.50")}).Validate())
	assert.NoError(t, (&Product{Name: "Образец", Price: dec("0")}).Validate())
	assert.ErrorIs(t, (&Product{Name: "", Price: dec("10")}).Validate(), ErrEmptyProductName)
	assert.ErrorIs(t, (&Product{Name: "Кабель", Price: dec("-1")}).Validate(), ErrNegativePrice)
}

// TestValidateEmail тестирует проверку формата email.
func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("user@example.com"))
	assert.NoError(t, ValidateEmail("ivan.petrov+crm@mail.ru"))
	assert.ErrorIs(t, ValidateEmail("не-email"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("user@"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
}

// TestValidatePassword тестирует требования к паролю.
func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("пароль123"))
	assert.ErrorIs(t, ValidatePassword("1234567"), ErrWeakPassword)
}
