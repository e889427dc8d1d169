package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	"github.com/yourusername/dynequiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
	"github.com/yourusername/dynequiz-api/pkg/auth"
)

// Префикс ключей refresh-токенов в Redis
const refreshTokenKeyPrefix = "refresh_token:"

// TokenPair содержит пару токенов, выдаваемую при входе
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthService предоставляет методы для регистрации и аутентификации
type AuthService struct {
	users           repository.UserRepository
	cache           repository.CacheRepository
	jwtService      *auth.JWTService
	refreshTokenTTL time.Duration
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	users repository.UserRepository,
	cache repository.CacheRepository,
	jwtService *auth.JWTService,
	refreshTokenTTL time.Duration,
) *AuthService {
	if refreshTokenTTL <= 0 {
		refreshTokenTTL = 30 * 24 * time.Hour
	}
	return &AuthService{
		users:           users,
		cache:           cache,
		jwtService:      jwtService,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Register регистрирует нового пользователя
func (s *AuthService) Register(username, email, password string, organizationID *uint) (*entity.User, error) {
	user := &entity.User{
		Username:       username,
		Email:          email,
		OrganizationID: organizationID,
		Role:           entity.OrgRoleMember,
	}
	user.NormalizeEmail()

	if err := user.SetPassword(password); err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.users.Create(user); err != nil {
		return nil, err
	}

	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d, Email=%s", user.ID, user.Email)
	return user, nil
}

// Login проверяет учетные данные и выдает пару токенов
func (s *AuthService) Login(email, password string) (*TokenPair, *entity.User, error) {
	lookup := &entity.User{Email: email}
	lookup.NormalizeEmail()

	user, err := s.users.GetByEmail(lookup.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли аккаунт
			return nil, nil, apperrors.ErrUnauthorized
		}
		return nil, nil, err
	}

	if !user.CheckPassword(password) {
		return nil, nil, apperrors.ErrUnauthorized
	}

	tokens, err := s.MintTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

// MintTokens выдает пользователю пару токенов: JWT доступа и refresh-токен,
// который сохраняется в Redis с TTL.
func (s *AuthService) MintTokens(user *entity.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	refreshToken := uuid.New().String()
	key := refreshTokenKeyPrefix + refreshToken
	if err := s.cache.Set(key, strconv.FormatUint(uint64(user.ID), 10), s.refreshTokenTTL); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens обменивает действующий refresh-токен на новую пару токенов.
// Старый refresh-токен отзывается (ротация).
func (s *AuthService) RefreshTokens(refreshToken string) (*TokenPair, error) {
	key := refreshTokenKeyPrefix + refreshToken

	value, err := s.cache.Get(key)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	userID, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	user, err := s.users.GetByID(uint(userID))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	if err := s.cache.Delete(key); err != nil {
		log.Printf("[AuthService] Не удалось отозвать refresh-токен: %v", err)
	}

	return s.MintTokens(user)
}

// Logout отзывает refresh-токен пользователя
func (s *AuthService) Logout(refreshToken string) error {
	return s.cache.Delete(refreshTokenKeyPrefix + refreshToken)
}
