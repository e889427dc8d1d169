package handler

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"

	"github.com/yourusername/dynequiz-api/internal/service"
	"github.com/yourusername/dynequiz-api/internal/websocket"
)

// WSHandler обрабатывает WebSocket-соединения лобби и игры
type WSHandler struct {
	resolver      *service.IdentityResolver
	gameService   *service.GameService
	playerService *service.PlayerService
	wsManager     *websocket.Manager
}

// NewWSHandler создает новый обработчик WebSocket и регистрирует
// обработчики входящих сообщений
func NewWSHandler(
	resolver *service.IdentityResolver,
	gameService *service.GameService,
	playerService *service.PlayerService,
	wsManager *websocket.Manager,
) *WSHandler {
	h := &WSHandler{
		resolver:      resolver,
		gameService:   gameService,
		playerService: playerService,
		wsManager:     wsManager,
	}
	h.registerMessageHandlers()
	return h
}

var wsUpgrader = gorillaws.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Клиенты могут заявлять аутентификацию по токену субпротоколом
	Subprotocols: []string{service.TokenAuthSubprotocol},
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Пустой Origin - не браузерный клиент (мобильное приложение, curl)
		if origin == "" {
			return true
		}

		// Список разрешенных origin (синхронизирован с CORS в main.go)
		allowedOrigins := []string{
			"http://localhost:5173",
			"http://localhost:3000",
			"http://localhost:8000",
		}
		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		log.Printf("[WSHandler] Отклонен неразрешенный origin: %s", origin)
		return false
	},
	EnableCompression: true,
}

// registerMessageHandlers связывает типы входящих сообщений с игровым сервисом.
// Возвращенная обработчиком ошибка уходит сообщением error только инициатору,
// соединение при этом не закрывается.
func (h *WSHandler) registerMessageHandlers() {
	h.wsManager.RegisterHandler(websocket.START_GAME, func(_ json.RawMessage, client *websocket.Client) error {
		return h.gameService.StartGame(client.PIN(), client.Principal())
	})

	h.wsManager.RegisterHandler(websocket.SUBMIT_ANSWER, func(data json.RawMessage, client *websocket.Client) error {
		var payload websocket.SubmitAnswerData
		if err := json.Unmarshal(data, &payload); err != nil {
			return err
		}
		_, err := h.gameService.SubmitAnswer(client.PIN(), client.Principal(), payload, time.Now())
		return err
	})
}

// HandleConnection обрабатывает входящее WebSocket-соединение.
// Маршруты: GET /ws/quiz/:pin/lobby и GET /ws/game/:pin/play.
//
// Аутентификация выполняется после апгрейда: при отказе соединение
// закрывается кадром Close с кодом 4002-4007 и причиной.
func (h *WSHandler) HandleConnection(c *gin.Context) {
	pin := c.Param("pin")
	creds := service.CredentialsFromRequest(c.Request, pin)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WSHandler] Ошибка апгрейда соединения: %v", err)
		return
	}

	client := websocket.NewClient(h.gameService.Registry(), conn)
	client.SetAuthenticating()

	principal, authErr := h.resolver.Resolve(creds, time.Now())
	if authErr != nil {
		h.reject(conn, authErr)
		return
	}

	client.Admit(principal, pin)
	room, err := h.gameService.Registry().JoinRoom(client)
	if err != nil {
		// Комната исчезла между разрешением и входом
		h.reject(conn, websocket.NewAuthError(websocket.CloseRoomNotFound, "room not found"))
		return
	}

	// Снимок состояния игры - первым сообщением новому участнику
	if info, infoErr := h.gameService.QuizInfo(room); infoErr == nil {
		if payload, marshalErr := json.Marshal(info); marshalErr == nil {
			client.Send(payload)
		}
	} else {
		log.Printf("[WSHandler] Не удалось сформировать quiz_info для %s: %v", pin, infoErr)
	}

	// Об игроке узнают остальные участники; вход ведущего не анонсируется
	if !principal.IsHost() {
		session := room.Session()
		if bindErr := h.playerService.BindToGame(principal.PlayerID, session.ID); bindErr != nil {
			log.Printf("[WSHandler] Не удалось привязать игрока %d к игре %d: %v", principal.PlayerID, session.ID, bindErr)
		}

		joined, marshalErr := json.Marshal(websocket.PlayerJoinedEvent{
			Type:     websocket.PLAYER_JOINED,
			PlayerID: principal.PlayerID,
			Username: principal.Username,
			AuthType: principal.AuthType(),
		})
		if marshalErr == nil {
			room.BroadcastExcept(joined, client)
		}
	}

	log.Printf("[WSHandler] Соединение %s допущено в комнату %s (%s)", client.ConnectionID, pin, principal.AuthType())
	client.StartPumps(h.wsManager.HandleMessage)
}

// reject закрывает соединение кадром Close с кодом отказа
func (h *WSHandler) reject(conn *gorillaws.Conn, authErr *websocket.AuthError) {
	log.Printf("[WSHandler] Отказ в допуске: %v", authErr)
	deadline := time.Now().Add(5 * time.Second)
	message := gorillaws.FormatCloseMessage(authErr.CloseCode, authErr.Reason)
	if err := conn.WriteControl(gorillaws.CloseMessage, message, deadline); err != nil {
		log.Printf("[WSHandler] Ошибка отправки кадра Close: %v", err)
	}
	conn.Close()
}

// Metrics возвращает статистику реестра комнат
// GET /api/ws/metrics
func (h *WSHandler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, h.gameService.Registry().Metrics().Snapshot())
}
