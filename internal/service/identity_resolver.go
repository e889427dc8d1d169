package service

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/yourusername/dynequiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
	ws "github.com/yourusername/dynequiz-api/internal/websocket"
	"github.com/yourusername/dynequiz-api/pkg/auth"
)

// Субпротокол, которым клиент заявляет аутентификацию по токену
const TokenAuthSubprotocol = "token-auth"

// Источники токена в порядке приоритета
const (
	TokenSourceHeader = "header"
	TokenSourceQuery  = "query"
	TokenSourceCookie = "cookie"
)

// TokenValidator проверяет токен доступа и возвращает его claims
type TokenValidator interface {
	ParseToken(tokenString string) (*auth.JWTCustomClaims, error)
}

// ConnectCredentials содержит учетные данные, извлеченные из HTTP-запроса
// на установку WebSocket-соединения
type ConnectCredentials struct {
	// Token - токен доступа (пустой, если не передан)
	Token string
	// TokenSource - откуда извлечен токен: header, query или cookie
	TokenSource string
	// TokenAuthDeclared - клиент заявил субпротокол token-auth
	TokenAuthDeclared bool
	// GuestToken - значение cookie guest_token (пустое, если нет)
	GuestToken string
	// PIN - PIN комнаты из пути запроса
	PIN string
}

// CredentialsFromRequest извлекает учетные данные из запроса на апгрейд.
// Приоритет источников токена: заголовок Authorization (Bearer) >
// query-параметр token > cookie ws_token.
func CredentialsFromRequest(r *http.Request, pin string) ConnectCredentials {
	creds := ConnectCredentials{PIN: pin}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, "Bearer ") {
		creds.Token = strings.TrimPrefix(header, "Bearer ")
		creds.TokenSource = TokenSourceHeader
	} else if token := r.URL.Query().Get("token"); token != "" {
		creds.Token = token
		creds.TokenSource = TokenSourceQuery
	} else if cookie, err := r.Cookie("ws_token"); err == nil && cookie.Value != "" {
		creds.Token = cookie.Value
		creds.TokenSource = TokenSourceCookie
	}

	for _, proto := range websocketSubprotocols(r) {
		if proto == TokenAuthSubprotocol {
			creds.TokenAuthDeclared = true
			break
		}
	}

	if cookie, err := r.Cookie("guest_token"); err == nil {
		creds.GuestToken = cookie.Value
	}

	return creds
}

// websocketSubprotocols разбирает заголовок Sec-WebSocket-Protocol
func websocketSubprotocols(r *http.Request) []string {
	header := r.Header.Get("Sec-Websocket-Protocol")
	if header == "" {
		return nil
	}
	parts := strings.Split(header, ",")
	protocols := make([]string, 0, len(parts))
	for _, p := range parts {
		protocols = append(protocols, strings.TrimSpace(p))
	}
	return protocols
}

// IdentityResolver разрешает участника WebSocket-соединения по цепочке
// учетных данных. Разрешение только читает состояние и идемпотентно:
// повторный вызов с теми же данными дает тот же результат.
type IdentityResolver struct {
	tokens   TokenValidator
	sessions repository.GameSessionRepository
	players  repository.PlayerRepository
}

// NewIdentityResolver создает новый резолвер участников
func NewIdentityResolver(
	tokens TokenValidator,
	sessions repository.GameSessionRepository,
	players repository.PlayerRepository,
) *IdentityResolver {
	return &IdentityResolver{
		tokens:   tokens,
		sessions: sessions,
		players:  players,
	}
}

// Resolve определяет участника соединения.
// Порядок проверок фиксирован:
//  1. комната по PIN (отсутствует - отказ RoomNotFound);
//  2. токен, если передан: недействительный при заявленном субпротоколе -
//     отказ InvalidToken, иначе падение к гостевой ветке;
//  3. валидный токен: хост сессии или профиль игрока, иначе NotHostOrPlayer;
//  4. без токена при заявленном субпротоколе - TokenRequired, даже при
//     валидном гостевом cookie;
//  5. гостевой cookie: действующий гость; отсутствующий, неизвестный или
//     истекший гостевой токен - InvalidGuestCredentials.
func (r *IdentityResolver) Resolve(creds ConnectCredentials, now time.Time) (ws.Principal, *ws.AuthError) {
	session, err := r.sessions.GetByPIN(creds.PIN)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ws.Principal{}, ws.NewAuthError(ws.CloseRoomNotFound, "room not found")
		}
		log.Printf("[IdentityResolver] Ошибка поиска сессии %s: %v", creds.PIN, err)
		return ws.Principal{}, ws.NewAuthError(ws.CloseGenericError, "connection error")
	}

	if creds.Token != "" {
		claims, parseErr := r.tokens.ParseToken(creds.Token)
		if parseErr != nil {
			if creds.TokenAuthDeclared {
				return ws.Principal{}, ws.NewAuthError(ws.CloseInvalidToken, "invalid token")
			}
			// Субпротокол не заявлен - токен игнорируется, пробуем гостевую ветку
			return r.resolveGuest(creds, now)
		}

		if session.IsHost(claims.UserID) {
			return ws.Principal{Kind: ws.PrincipalHost, UserID: claims.UserID}, nil
		}

		player, playerErr := r.players.GetByUserID(claims.UserID)
		if playerErr != nil {
			if errors.Is(playerErr, apperrors.ErrNotFound) {
				return ws.Principal{}, ws.NewAuthError(ws.CloseNotHostOrPlayer, "not a host or player")
			}
			log.Printf("[IdentityResolver] Ошибка поиска игрока для пользователя %d: %v", claims.UserID, playerErr)
			return ws.Principal{}, ws.NewAuthError(ws.CloseGenericError, "connection error")
		}

		return ws.Principal{
			Kind:     ws.PrincipalRegisteredPlayer,
			UserID:   claims.UserID,
			PlayerID: player.ID,
			Username: player.Username,
		}, nil
	}

	if creds.TokenAuthDeclared {
		// Заявленный субпротокол требует токен безусловно
		return ws.Principal{}, ws.NewAuthError(ws.CloseTokenRequired, "token required")
	}

	return r.resolveGuest(creds, now)
}

// resolveGuest разрешает гостевого участника по cookie guest_token.
// Отсутствие cookie здесь - отказ гостевой ветки, а не требование токена:
// требование токена возможно только при заявленном субпротоколе, и эта
// проверка уже сделана в Resolve.
func (r *IdentityResolver) resolveGuest(creds ConnectCredentials, now time.Time) (ws.Principal, *ws.AuthError) {
	if creds.GuestToken == "" {
		return ws.Principal{}, ws.NewAuthError(ws.CloseInvalidGuestCredentials, "invalid guest credentials")
	}

	player, err := r.players.GetByGuestToken(creds.GuestToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ws.Principal{}, ws.NewAuthError(ws.CloseInvalidGuestCredentials, "invalid guest credentials")
		}
		log.Printf("[IdentityResolver] Ошибка поиска гостя: %v", err)
		return ws.Principal{}, ws.NewAuthError(ws.CloseGenericError, "connection error")
	}

	if !player.GuestTokenValid(now) {
		return ws.Principal{}, ws.NewAuthError(ws.CloseInvalidGuestCredentials, "invalid guest credentials")
	}

	return ws.Principal{
		Kind:     ws.PrincipalGuest,
		PlayerID: player.ID,
		Username: player.Username,
	}, nil
}
