package repository

import (
	"time"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
)

// GameSessionRepository определяет методы для работы с игровыми сессиями
type GameSessionRepository interface {
	// Create сохраняет сессию. При коллизии PIN возвращает ErrConflict,
	// ретрай с новым PIN выполняет вызывающая сторона.
	Create(session *entity.GameSession) error
	GetByID(id uint) (*entity.GameSession, error)
	GetByPIN(pin string) (*entity.GameSession, error)
	// UpdateStatus точечно обновляет статус и время начала текущего вопроса
	UpdateStatus(sessionID uint, status string, questionStartTime *time.Time) error
	Update(session *entity.GameSession) error
	CountPlayers(sessionID uint) (int64, error)
}

// PlayerRepository определяет методы для работы с игроками
type PlayerRepository interface {
	Create(player *entity.Player) error
	GetByID(id uint) (*entity.Player, error)
	GetByUserID(userID uint) (*entity.Player, error)
	// GetByGuestToken ищет гостевого игрока по гостевому токену.
	// Срок действия токена проверяет вызывающая сторона.
	GetByGuestToken(token string) (*entity.Player, error)
	Update(player *entity.Player) error
	// SetCurrentGame привязывает игрока к активной игре (nil - отвязывает)
	SetCurrentGame(playerID uint, gameSessionID *uint) error
	// AddScore атомарно увеличивает счет игрока
	AddScore(playerID uint, delta int) error
}

// AnswerRepository определяет методы для работы с ответами игроков
type AnswerRepository interface {
	// Save сохраняет ответ. Нарушение уникальности тройки
	// (player, game_session, question) возвращается как ErrConflict.
	Save(answer *entity.Answer) error
	GetByGameSession(gameSessionID uint) ([]entity.Answer, error)
	GetByPlayerAndGame(playerID, gameSessionID uint) ([]entity.Answer, error)
	CountForQuestion(gameSessionID, questionID uint) (int64, error)
}
