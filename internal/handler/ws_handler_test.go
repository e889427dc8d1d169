package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
	"github.com/yourusername/dynequiz-api/internal/service"
	ws "github.com/yourusername/dynequiz-api/internal/websocket"
	"github.com/yourusername/dynequiz-api/pkg/auth"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// In-memory репозитории для сквозных тестов WebSocket-подсистемы
// ============================================================================

type memSessionRepo struct {
	mu     sync.Mutex
	byID   map[uint]*entity.GameSession
	nextID uint
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byID: make(map[uint]*entity.GameSession), nextID: 1}
}

func (r *memSessionRepo) Create(session *entity.GameSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.PIN == session.PIN {
			return apperrors.ErrConflict
		}
	}
	session.ID = r.nextID
	r.nextID++
	stored := *session
	r.byID[session.ID] = &stored
	return nil
}

func (r *memSessionRepo) GetByID(id uint) (*entity.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *session
	return &clone, nil
}

func (r *memSessionRepo) GetByPIN(pin string) (*entity.GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.byID {
		if session.PIN == pin {
			clone := *session
			return &clone, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memSessionRepo) UpdateStatus(sessionID uint, status string, questionStartTime *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.byID[sessionID]
	if !ok {
		return apperrors.ErrNotFound
	}
	session.Status = status
	if questionStartTime != nil {
		session.CurrentQuestionStartTime = questionStartTime
	}
	return nil
}

func (r *memSessionRepo) Update(session *entity.GameSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *session
	r.byID[session.ID] = &clone
	return nil
}

func (r *memSessionRepo) CountPlayers(uint) (int64, error) { return 0, nil }

type memPlayerRepo struct {
	mu   sync.Mutex
	byID map[uint]*entity.Player
}

func newMemPlayerRepo(players ...*entity.Player) *memPlayerRepo {
	repo := &memPlayerRepo{byID: make(map[uint]*entity.Player)}
	for _, p := range players {
		repo.byID[p.ID] = p
	}
	return repo
}

func (r *memPlayerRepo) Create(player *entity.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	player.ID = uint(len(r.byID) + 1)
	r.byID[player.ID] = player
	return nil
}

func (r *memPlayerRepo) GetByID(id uint) (*entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	player, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return player, nil
}

func (r *memPlayerRepo) GetByUserID(userID uint) (*entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, player := range r.byID {
		if player.UserID != nil && *player.UserID == userID {
			return player, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memPlayerRepo) GetByGuestToken(token string) (*entity.Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, player := range r.byID {
		if player.IsGuest && player.GuestToken == token {
			return player, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memPlayerRepo) Update(*entity.Player) error      { return nil }
func (r *memPlayerRepo) SetCurrentGame(uint, *uint) error { return nil }

func (r *memPlayerRepo) AddScore(playerID uint, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if player, ok := r.byID[playerID]; ok {
		player.Score += delta
	}
	return nil
}

type memAnswerRepo struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newMemAnswerRepo() *memAnswerRepo {
	return &memAnswerRepo{seen: make(map[string]bool)}
}

func (r *memAnswerRepo) Save(answer *entity.Answer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := fmt.Sprintf("%d/%d/%d", answer.PlayerID, answer.GameSessionID, answer.QuestionID)
	if r.seen[key] {
		return apperrors.ErrConflict
	}
	r.seen[key] = true
	return nil
}

func (r *memAnswerRepo) GetByGameSession(uint) ([]entity.Answer, error)         { return nil, nil }
func (r *memAnswerRepo) GetByPlayerAndGame(uint, uint) ([]entity.Answer, error) { return nil, nil }
func (r *memAnswerRepo) CountForQuestion(uint, uint) (int64, error)             { return 0, nil }

type memQuizRepo struct {
	quiz *entity.Quiz
}

func (r *memQuizRepo) Create(*entity.Quiz) error { return nil }

func (r *memQuizRepo) Get(id uint) (*entity.Quiz, error) {
	if r.quiz != nil && r.quiz.ID == id {
		return r.quiz, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *memQuizRepo) GetByID(id uint, organizationID uint) (*entity.Quiz, error) {
	if r.quiz != nil && r.quiz.ID == id && r.quiz.OrganizationID == organizationID {
		return r.quiz, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *memQuizRepo) GetWithQuestions(id uint, organizationID uint) (*entity.Quiz, error) {
	return r.GetByID(id, organizationID)
}

func (r *memQuizRepo) ListByOrganization(uint, int, int) ([]entity.Quiz, error) { return nil, nil }
func (r *memQuizRepo) Update(*entity.Quiz) error                                { return nil }
func (r *memQuizRepo) AddQuestions(uint, []uint) error                          { return nil }
func (r *memQuizRepo) RemoveQuestions(uint, []uint) error                       { return nil }
func (r *memQuizRepo) Delete(uint, uint) error                                  { return nil }

type memQuestionRepo struct {
	byID map[uint]*entity.Question
}

func (r *memQuestionRepo) Create(*entity.Question) error       { return nil }
func (r *memQuestionRepo) CreateBatch([]entity.Question) error { return nil }

func (r *memQuestionRepo) GetByID(id uint) (*entity.Question, error) {
	question, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return question, nil
}

func (r *memQuestionRepo) GetByIDs([]uint, uint) ([]entity.Question, error) { return nil, nil }
func (r *memQuestionRepo) ListByOrganization(uint, int, int) ([]entity.Question, error) {
	return nil, nil
}
func (r *memQuestionRepo) Delete(uint, uint) error { return nil }

type memUserRepo struct {
	byID map[uint]*entity.User
}

func (r *memUserRepo) Create(*entity.User) error { return nil }

func (r *memUserRepo) GetByID(id uint) (*entity.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (r *memUserRepo) GetByEmail(string) (*entity.User, error)    { return nil, apperrors.ErrNotFound }
func (r *memUserRepo) GetByUsername(string) (*entity.User, error) { return nil, apperrors.ErrNotFound }
func (r *memUserRepo) Update(*entity.User) error                  { return nil }

func (r *memUserRepo) ListByOrganization(uint, int, int) ([]entity.User, error) { return nil, nil }

// ============================================================================
// Сквозная среда: реальный HTTP сервер, настоящие gorilla-соединения
// ============================================================================

type wsFixture struct {
	server      *httptest.Server
	gameService *service.GameService
	jwtService  *auth.JWTService
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()

	jwtService, err := auth.NewJWTService("ws-handler-test-secret", 1)
	require.NoError(t, err)

	quiz := &entity.Quiz{
		ID:             1,
		Name:           "Capitals",
		Description:    "European capitals",
		OrganizationID: 1,
		Questions: []entity.Question{
			{ID: 100, Text: "Capital of France?", Options: entity.StringArray{"Berlin", "Paris"}, CorrectOption: 1},
			{ID: 101, Text: "Capital of Italy?", Options: entity.StringArray{"Rome", "Madrid"}, CorrectOption: 0},
		},
	}

	guestExpiry := time.Now().Add(time.Hour)
	guest := &entity.Player{
		ID:               5,
		Username:         "guesty",
		IsGuest:          true,
		GuestToken:       "valid-guest-token",
		GuestTokenExpiry: &guestExpiry,
	}
	registeredUserID := uint(11)
	registered := &entity.Player{ID: 6, UserID: &registeredUserID, Username: "charlie"}

	sessions := newMemSessionRepo()
	players := newMemPlayerRepo(guest, registered)
	questions := &memQuestionRepo{byID: map[uint]*entity.Question{
		100: &quiz.Questions[0],
		101: &quiz.Questions[1],
	}}

	users := &memUserRepo{byID: map[uint]*entity.User{
		10: {ID: 10, Username: "hostman", Email: "host@example.com"},
	}}

	registry := ws.NewRoomRegistry(2)
	t.Cleanup(registry.Shutdown)

	gameService := service.NewGameService(sessions, players, newMemAnswerRepo(), &memQuizRepo{quiz: quiz}, questions, users, registry)
	playerService := service.NewPlayerService(players, time.Hour)
	resolver := service.NewIdentityResolver(jwtService, sessions, players)
	wsHandler := NewWSHandler(resolver, gameService, playerService, ws.NewManager())

	router := gin.New()
	router.GET("/ws/quiz/:pin/lobby", wsHandler.HandleConnection)
	router.GET("/ws/game/:pin/play", wsHandler.HandleConnection)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &wsFixture{
		server:      server,
		gameService: gameService,
		jwtService:  jwtService,
	}
}

func (f *wsFixture) lobbyURL(pin string) string {
	return "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/quiz/" + pin + "/lobby"
}

func (f *wsFixture) hostToken(t *testing.T) string {
	t.Helper()
	token, err := f.jwtService.GenerateToken(&entity.User{ID: 10, Email: "host@example.com", Role: "admin"})
	require.NoError(t, err)
	return token
}

// hostGame создает сессию от имени ведущего и возвращает PIN
func (f *wsFixture) hostGame(t *testing.T) string {
	t.Helper()
	session, err := f.gameService.HostGame(1, 10, 1)
	require.NoError(t, err)
	return session.PIN
}

func dialWS(t *testing.T, url string, header http.Header, subprotocols ...string) *gorillaws.Conn {
	t.Helper()
	dialer := gorillaws.Dialer{
		HandshakeTimeout: 2 * time.Second,
		Subprotocols:     subprotocols,
	}
	conn, resp, err := dialer.Dial(url, header)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *gorillaws.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func expectClose(t *testing.T, conn *gorillaws.Conn, wantCode int) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	var closeErr *gorillaws.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, wantCode, closeErr.Code)
}

// ============================================================================
// Отказы в допуске: соединение закрывается кадром Close с кодом 4002-4007
// ============================================================================

func TestWSConnection_UnknownPIN(t *testing.T) {
	f := newWSFixture(t)

	conn := dialWS(t, f.lobbyURL("NOPE99"), nil)
	expectClose(t, conn, ws.CloseRoomNotFound)
}

func TestWSConnection_SubprotocolWithoutToken(t *testing.T) {
	f := newWSFixture(t)
	pin := f.hostGame(t)

	// Заявленный субпротокол token-auth требует токен даже при валидном гостевом cookie
	header := http.Header{}
	header.Set("Cookie", "guest_token=valid-guest-token")
	conn := dialWS(t, f.lobbyURL(pin), header, service.TokenAuthSubprotocol)
	expectClose(t, conn, ws.CloseTokenRequired)
}

func TestWSConnection_InvalidTokenWithSubprotocol(t *testing.T) {
	f := newWSFixture(t)
	pin := f.hostGame(t)

	conn := dialWS(t, f.lobbyURL(pin)+"?token=garbage", nil, service.TokenAuthSubprotocol)
	expectClose(t, conn, ws.CloseInvalidToken)
}

func TestWSConnection_NoCredentials(t *testing.T) {
	f := newWSFixture(t)
	pin := f.hostGame(t)

	// Без субпротокола отсутствие учетных данных - отказ гостевой ветки
	conn := dialWS(t, f.lobbyURL(pin), nil)
	expectClose(t, conn, ws.CloseInvalidGuestCredentials)
}

func TestWSConnection_UnknownGuestToken(t *testing.T) {
	f := newWSFixture(t)
	pin := f.hostGame(t)

	header := http.Header{}
	header.Set("Cookie", "guest_token=unknown-token")
	conn := dialWS(t, f.lobbyURL(pin), header)
	expectClose(t, conn, ws.CloseInvalidGuestCredentials)
}

// ============================================================================
// Полный сценарий лобби: хост, гость, старт игры, ответы
// ============================================================================

func TestWSLobby_FullFlow(t *testing.T) {
	f := newWSFixture(t)
	pin := f.hostGame(t)

	// Хост подключается по Bearer-токену и получает снимок игры
	hostHeader := http.Header{}
	hostHeader.Set("Authorization", "Bearer "+f.hostToken(t))
	hostConn := dialWS(t, f.lobbyURL(pin), hostHeader)

	info := readEvent(t, hostConn)
	require.Equal(t, "quiz_info", info["type"])
	data := info["data"].(map[string]interface{})
	assert.Equal(t, "Capitals", data["quiz_name"])
	assert.Equal(t, pin, data["pin"])
	assert.Equal(t, "waiting", data["status"])
	assert.Equal(t, false, data["is_started"])
	assert.Equal(t, float64(2), data["total_questions"])
	assert.Equal(t, "classic", data["game_type"])
	assert.Equal(t, float64(10), data["host_id"])
	assert.Equal(t, "hostman", data["host_username"])
	assert.Equal(t, float64(30), data["time_limit"])

	// Гость подключается по cookie, об этом узнает хост
	guestHeader := http.Header{}
	guestHeader.Set("Cookie", "guest_token=valid-guest-token")
	guestConn := dialWS(t, f.lobbyURL(pin), guestHeader)

	guestInfo := readEvent(t, guestConn)
	require.Equal(t, "quiz_info", guestInfo["type"])

	joined := readEvent(t, hostConn)
	require.Equal(t, "player_joined", joined["type"])
	assert.Equal(t, "guesty", joined["username"])
	assert.Equal(t, "guest", joined["auth_type"])
	assert.Equal(t, float64(5), joined["player_id"])

	// Попытка гостя запустить игру: ошибка только ему, игра не стартует
	require.NoError(t, guestConn.WriteJSON(map[string]string{"type": "start_game"}))
	guestErr := readEvent(t, guestConn)
	require.Equal(t, "error", guestErr["type"])
	assert.NotEmpty(t, guestErr["message"])

	// Хост запускает игру, game_started получают все
	require.NoError(t, hostConn.WriteJSON(map[string]string{"type": "start_game"}))
	for _, conn := range []*gorillaws.Conn{hostConn, guestConn} {
		started := readEvent(t, conn)
		require.Equal(t, "game_started", started["type"])
		assert.Equal(t, "/game/"+pin+"/play", started["redirect_url"])
	}

	// Повторный старт отклоняется сообщением error только инициатору,
	// соединение остается открытым
	require.NoError(t, hostConn.WriteJSON(map[string]string{"type": "start_game"}))
	hostErr := readEvent(t, hostConn)
	require.Equal(t, "error", hostErr["type"])

	// Гость отвечает на текущий вопрос; повторный ответ отклоняется
	answer := map[string]interface{}{
		"type": "submit_answer",
		"data": map[string]interface{}{"question_id": 100, "selected_option": 1},
	}
	require.NoError(t, guestConn.WriteJSON(answer))
	require.NoError(t, guestConn.WriteJSON(answer))
	dupErr := readEvent(t, guestConn)
	require.Equal(t, "error", dupErr["type"])

	// Некорректный JSON не закрывает соединение
	require.NoError(t, guestConn.WriteMessage(gorillaws.TextMessage, []byte("{not json")))
	malformed := readEvent(t, guestConn)
	require.Equal(t, "error", malformed["type"])
}

func TestWSLobby_PlayerLeftAnnounced(t *testing.T) {
	f := newWSFixture(t)
	pin := f.hostGame(t)

	hostHeader := http.Header{}
	hostHeader.Set("Authorization", "Bearer "+f.hostToken(t))
	hostConn := dialWS(t, f.lobbyURL(pin), hostHeader)
	readEvent(t, hostConn) // quiz_info

	guestHeader := http.Header{}
	guestHeader.Set("Cookie", "guest_token=valid-guest-token")
	guestConn := dialWS(t, f.lobbyURL(pin), guestHeader)
	readEvent(t, guestConn) // quiz_info
	readEvent(t, hostConn)  // player_joined

	require.NoError(t, guestConn.Close())

	left := readEvent(t, hostConn)
	require.Equal(t, "player_left", left["type"])
	assert.Equal(t, "guesty", left["username"])
	assert.Equal(t, float64(5), left["player_id"])
}
