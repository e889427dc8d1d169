package service

import (
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	"github.com/yourusername/dynequiz-api/internal/domain/repository"
)

// PlayerService управляет профилями игроков: привязанными к аккаунтам
// и гостевыми.
type PlayerService struct {
	players       repository.PlayerRepository
	guestTokenTTL time.Duration
}

// NewPlayerService создает новый сервис игроков
func NewPlayerService(players repository.PlayerRepository, guestTokenTTL time.Duration) *PlayerService {
	if guestTokenTTL <= 0 {
		guestTokenTTL = 24 * time.Hour
	}
	return &PlayerService{
		players:       players,
		guestTokenTTL: guestTokenTTL,
	}
}

// CreatePlayer создает профиль игрока для зарегистрированного пользователя.
// Профиль один на пользователя: повторное создание - ErrConflict.
func (s *PlayerService) CreatePlayer(userID uint, username, avatar string) (*entity.Player, error) {
	player := &entity.Player{
		UserID:   &userID,
		Username: username,
		Avatar:   avatar,
	}
	if err := s.players.Create(player); err != nil {
		return nil, err
	}

	log.Printf("[PlayerService] Создан профиль игрока %d для пользователя %d", player.ID, userID)
	return player, nil
}

// CreateGuest создает гостевого игрока. Гостевой токен генерируется
// ровно один раз, вместе с записью, и действует ограниченное время.
func (s *PlayerService) CreateGuest(username, avatar string, now time.Time) (*entity.Player, error) {
	expiry := now.Add(s.guestTokenTTL)
	player := &entity.Player{
		Username:         username,
		Avatar:           avatar,
		IsGuest:          true,
		GuestToken:       newGuestToken(),
		GuestTokenExpiry: &expiry,
	}
	if err := s.players.Create(player); err != nil {
		return nil, err
	}

	log.Printf("[PlayerService] Создан гостевой игрок %d (токен истекает %v)", player.ID, expiry)
	return player, nil
}

// GetPlayer возвращает игрока по ID
func (s *PlayerService) GetPlayer(id uint) (*entity.Player, error) {
	return s.players.GetByID(id)
}

// GetPlayerByUser возвращает профиль игрока пользователя
func (s *PlayerService) GetPlayerByUser(userID uint) (*entity.Player, error) {
	return s.players.GetByUserID(userID)
}

// BindToGame привязывает игрока к активной игре
func (s *PlayerService) BindToGame(playerID uint, gameSessionID uint) error {
	return s.players.SetCurrentGame(playerID, &gameSessionID)
}

// UnbindFromGame отвязывает игрока от игры
func (s *PlayerService) UnbindFromGame(playerID uint) error {
	return s.players.SetCurrentGame(playerID, nil)
}

// newGuestToken генерирует 32-символьный гостевой токен
func newGuestToken() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
