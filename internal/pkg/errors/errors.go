package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (неверный токен, нет прав).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия
	// (например, не-хост пытается запустить игру).
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrExpiredToken используется, когда токен (bearer или гостевой) истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrConflict используется для конфликтов состояния и нарушений уникальности
	// (повторный ответ на вопрос, занятый username, существующий профиль игрока).
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidTransition используется при нарушении переходов конечного автомата
	// игровой сессии (waiting -> started -> ended, без циклов).
	ErrInvalidTransition = errors.New("invalid game state transition")
)
