package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"example.com/crm-backend/internal/domain"
	"example.com/crm-backend/internal/repository"
	"example.com/crm-backend/pkg/jwt"
	"example.com/crm-backend/pkg/logger"
)

// bcryptCost — стоимость хеширования пароля.
// 12 — баланс между стойкостью и временем ответа при входе.
const bcryptCost = 12

// RegisterInput — входные данные регистрации пользователя.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     domain.Role
}

// UserService определяет интерфейс бизнес-логики пользователей.
type UserService interface {
	// Register создаёт нового пользователя с хешированным паролем.
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)

	// Login проверяет учётные данные и выдаёт пару токенов.
	// После maxLoginAttempts неудачных попыток вход блокируется на время.
	Login(ctx context.Context, email, password string) (*domain.User, *jwt.TokenPair, error)

	// Logout отзывает токен: его jti попадает в чёрный список до истечения.
	Logout(ctx context.Context, token string) error

	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)
}

// userService — реализация UserService.
type userService struct {
	users   repository.UserRepository
	tokens  *jwt.Manager
	limiter LoginLimiter
	now     func() time.Time
}

// NewUserService создаёт новый сервис пользователей.
// limiter может быть nil — тогда попытки входа не ограничиваются.
func NewUserService(users repository.UserRepository, tokens *jwt.Manager, limiter LoginLimiter) UserService {
	return &userService{
		users:   users,
		tokens:  tokens,
		limiter: limiter,
		now:     time.Now,
	}
}

// Register создаёт нового пользователя.
func (s *userService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	log := logger.FromContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := domain.ValidateEmail(email); err != nil {
		log.Warn().Str("email", email).Msg("Регистрация с некорректным email")
		return nil, err
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleManager
	}
	if !role.IsValid() {
		log.Warn().Str("role", string(role)).Msg("Регистрация с недопустимой ролью")
		return nil, domain.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка хеширования пароля")
		return nil, fmt.Errorf("хеширование пароля: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		FullName:     input.FullName,
		Role:         role,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			log.Warn().Str("email", email).Msg("Регистрация с занятым email")
			return nil, err
		}
		log.Error().Err(err).Str("email", email).Msg("Ошибка создания пользователя")
		return nil, fmt.Errorf("создание пользователя: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("Пользователь зарегистрирован")

	return user, nil
}

// Login проверяет учётные данные и выдаёт пару токенов.
func (s *userService) Login(ctx context.Context, email, password string) (*domain.User, *jwt.TokenPair, error) {
	log := logger.FromContext(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if s.limiter != nil {
		locked, err := s.limiter.IsLocked(ctx, email)
		if err != nil {
			log.Error().Err(err).Str("email", email).Msg("Ошибка проверки блокировки входа")
			return nil, nil, fmt.Errorf("проверка блокировки входа: %w", err)
		}
		if locked {
			log.Warn().Str("email", email).Msg("Вход заблокирован: превышен лимит попыток")
			return nil, nil, domain.ErrAccountLocked
		}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.recordFailure(ctx, email)
			// Не раскрываем, что именно неверно
			return nil, nil, domain.ErrInvalidCredentials
		}
		log.Error().Err(err).Str("email", email).Msg("Ошибка поиска пользователя")
		return nil, nil, fmt.Errorf("поиск пользователя: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.recordFailure(ctx, email)
		log.Warn().Str("email", email).Msg("Неверный пароль")
		return nil, nil, domain.ErrInvalidCredentials
	}

	if !user.Active {
		log.Warn().Str("email", email).Msg("Вход деактивированного пользователя")
		return nil, nil, domain.ErrUserInactive
	}

	if s.limiter != nil {
		if err := s.limiter.ResetAttempts(ctx, email); err != nil {
			log.Warn().Err(err).Str("email", email).Msg("Счётчик попыток входа не сброшен")
		}
	}

	pair, err := s.tokens.GenerateTokenPair(user.ID, string(user.Role))
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Ошибка генерации токенов")
		return nil, nil, fmt.Errorf("генерация токенов: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Msg("Пользователь вошёл в систему")

	return user, pair, nil
}

// recordFailure фиксирует неудачную попытку входа.
func (s *userService) recordFailure(ctx context.Context, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.RecordFailure(ctx, email); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("email", email).Msg("Попытка входа не зафиксирована")
	}
}

// Logout отзывает токен через чёрный список.
func (s *userService) Logout(ctx context.Context, token string) error {
	log := logger.FromContext(ctx)

	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		log.Debug().Err(err).Msg("Logout с невалидным токеном")
		return err
	}

	blacklist := s.tokens.Blacklist()
	if blacklist == nil {
		log.Warn().Str("user_id", claims.UserID).Msg("Чёрный список токенов не настроен, logout без отзыва")
		return nil
	}

	if err := blacklist.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		log.Error().Err(err).Str("user_id", claims.UserID).Msg("Ошибка отзыва токена")
		return fmt.Errorf("отзыв токена: %w", err)
	}

	log.Info().Str("user_id", claims.UserID).Msg("Токен отозван")
	return nil
}

// GetUser возвращает пользователя по ID.
func (s *userService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	log := logger.FromContext(ctx)

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			log.Debug().Str("user_id", userID).Msg("Пользователь не найден")
			return nil, err
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Ошибка получения пользователя")
		return nil, fmt.Errorf("получение пользователя: %w", err)
	}

	return user, nil
}
