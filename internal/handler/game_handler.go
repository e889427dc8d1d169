package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/dynequiz-api/internal/service"
)

// Имя cookie с гостевым токеном
const guestTokenCookie = "guest_token"

// GameHandler обрабатывает создание игровых сессий и профилей игроков
type GameHandler struct {
	gameService   *service.GameService
	playerService *service.PlayerService
}

// NewGameHandler создает новый игровой обработчик
func NewGameHandler(gameService *service.GameService, playerService *service.PlayerService) *GameHandler {
	return &GameHandler{
		gameService:   gameService,
		playerService: playerService,
	}
}

// CreatePlayerRequest представляет запрос на создание профиля игрока
type CreatePlayerRequest struct {
	Username string `json:"username" binding:"required,min=2,max=45"`
	Avatar   string `json:"avatar" binding:"omitempty,max=255"`
}

// HostGame создает игровую сессию для викторины и регистрирует комнату.
// Единственный способ появления комнаты: подключение к несуществующему
// PIN никогда не создает комнату.
// POST /api/quizzes/:quiz_id/game-session
func (h *GameHandler) HostGame(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}
	quizID, ok := parseIDParam(c, "quiz_id")
	if !ok {
		return
	}

	session, err := h.gameService.HostGame(quizID, currentUserID(c), orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// SessionDetail возвращает публичный снимок игровой сессии по PIN.
// Доступен без аутентификации: игроки сверяют PIN до подключения.
// GET /api/game-session/:pin
func (h *GameHandler) SessionDetail(c *gin.Context) {
	detail, err := h.gameService.SessionDetail(c.Param("pin"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreatePlayer создает игровой профиль для аутентифицированного пользователя.
// На пользователя допускается один профиль, повторное создание - 409.
// POST /api/players
func (h *GameHandler) CreatePlayer(c *gin.Context) {
	var req CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.playerService.CreatePlayer(currentUserID(c), req.Username, req.Avatar)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, player)
}

// CreateGuest создает гостевой профиль и выдает гостевой токен
// в HttpOnly cookie. Токен генерируется один раз и не продлевается.
// POST /api/players/guest
func (h *GameHandler) CreateGuest(c *gin.Context) {
	var req CreatePlayerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	player, err := h.playerService.CreateGuest(req.Username, req.Avatar, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}

	maxAge := 0
	if player.GuestTokenExpiry != nil {
		maxAge = int(time.Until(*player.GuestTokenExpiry).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(guestTokenCookie, player.GuestToken, maxAge, "/", "", false, true)

	c.JSON(http.StatusCreated, player)
}

// MyPlayer возвращает игровой профиль текущего пользователя
// GET /api/players/me
func (h *GameHandler) MyPlayer(c *gin.Context) {
	player, err := h.playerService.GetPlayerByUser(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, player)
}
