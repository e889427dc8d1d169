package websocket

import "fmt"

// Коды закрытия WebSocket-соединения при отказе в допуске
const (
	CloseGenericError            = 4002 // Внутренняя ошибка при установке соединения
	CloseInvalidToken            = 4003 // Недействительный или истекший токен
	CloseNotHostOrPlayer         = 4004 // Пользователь не является ни ведущим, ни игроком
	CloseTokenRequired           = 4005 // Заявлен субпротокол token-auth, но токен не передан
	CloseInvalidGuestCredentials = 4006 // Недействительные или истекшие гостевые учетные данные
	CloseRoomNotFound            = 4007 // Комната с указанным PIN не найдена
)

// PrincipalKind определяет вариант участника соединения
type PrincipalKind int

const (
	PrincipalHost PrincipalKind = iota + 1
	PrincipalRegisteredPlayer
	PrincipalGuest
)

// Principal описывает аутентифицированного участника соединения.
// Разрешается один раз при допуске и далее не меняется.
type Principal struct {
	Kind     PrincipalKind
	UserID   uint // для ведущего и зарегистрированного игрока
	PlayerID uint // для зарегистрированного игрока и гостя
	Username string
}

// IsHost проверяет, является ли участник ведущим игры
func (p Principal) IsHost() bool {
	return p.Kind == PrincipalHost
}

// AuthType возвращает строковый тип аутентификации для wire-сообщений
func (p Principal) AuthType() string {
	switch p.Kind {
	case PrincipalHost:
		return "host"
	case PrincipalRegisteredPlayer:
		return "registered"
	case PrincipalGuest:
		return "guest"
	default:
		return "unknown"
	}
}

// AuthError описывает отказ в допуске с кодом закрытия соединения
type AuthError struct {
	CloseCode int
	Reason    string
}

// Error реализует интерфейс error
func (e *AuthError) Error() string {
	return fmt.Sprintf("websocket auth rejected (close %d): %s", e.CloseCode, e.Reason)
}

// NewAuthError создает новый отказ в допуске
func NewAuthError(closeCode int, reason string) *AuthError {
	return &AuthError{CloseCode: closeCode, Reason: reason}
}
