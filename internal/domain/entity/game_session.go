package entity

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// Статусы игровой сессии. Переходы линейны: waiting -> started -> ended,
// циклов нет, ended - терминальное состояние.
const (
	GameStatusWaiting = "waiting"
	GameStatusStarted = "started"
	GameStatusEnded   = "ended"
)

// Типы игры
const (
	GameTypeClassic  = "classic"
	GameTypeTeam     = "team"
	GameTypeAccuracy = "accuracy"
)

// Длина PIN-кода игровой сессии
const GamePINLength = 6

// Алфавит PIN-кода: заглавные буквы и цифры
const gamePINCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// UintArray - пользовательский тип для хранения порядка вопросов в JSONB
type UintArray []uint

// Scan реализует интерфейс sql.Scanner для UintArray
func (o *UintArray) Scan(value interface{}) error {
	if value == nil {
		*o = UintArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}
	if len(bytes) == 0 {
		*o = UintArray{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value реализует интерфейс driver.Valuer для UintArray
func (o UintArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// GameSession представляет одну live-игру по викторине.
// PIN генерируется сервером, уникален и служит ключом комнаты.
type GameSession struct {
	ID                       uint       `gorm:"primaryKey" json:"id"`
	PIN                      string     `gorm:"size:6;not null;uniqueIndex" json:"pin"`
	QuizID                   uint       `gorm:"not null;index" json:"quiz_id"`
	HostUserID               uint       `gorm:"not null;index" json:"host_user_id"`
	Status                   string     `gorm:"size:10;not null;default:'waiting';index" json:"status"`
	QuestionOrder            UintArray  `gorm:"type:jsonb;not null;default:'[]'" json:"question_order"`
	CurrentQuestionIndex     int        `gorm:"not null;default:0" json:"current_question_index"`
	CurrentQuestionStartTime *time.Time `json:"current_question_start_time,omitempty"`
	QuestionTimeLimitSec     int        `gorm:"not null;default:30" json:"question_time_limit"`
	GameType                 string     `gorm:"size:10;not null;default:'classic'" json:"game_type"`
	StartTime                time.Time  `gorm:"autoCreateTime" json:"start_time"`
	EndTime                  *time.Time `json:"end_time,omitempty"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (GameSession) TableName() string {
	return "game_sessions"
}

// IsWaiting проверяет, что игра в лобби и еще не началась
func (g *GameSession) IsWaiting() bool {
	return g.Status == GameStatusWaiting
}

// IsStarted проверяет, что игра идет
func (g *GameSession) IsStarted() bool {
	return g.Status == GameStatusStarted
}

// IsEnded проверяет, что игра завершена
func (g *GameSession) IsEnded() bool {
	return g.Status == GameStatusEnded
}

// IsHost проверяет, что пользователь является хостом сессии
func (g *GameSession) IsHost(userID uint) bool {
	return g.HostUserID == userID
}

// Start переводит сессию waiting -> started и фиксирует время начала
// текущего вопроса. Любой другой исходный статус - ErrInvalidTransition:
// переход выполняется строго один раз.
func (g *GameSession) Start(now time.Time) error {
	if g.Status != GameStatusWaiting {
		return apperrors.ErrInvalidTransition
	}
	g.Status = GameStatusStarted
	g.CurrentQuestionStartTime = &now
	return nil
}

// End переводит сессию started -> ended. ended - терминальное состояние,
// повторное завершение или завершение из waiting отклоняется.
func (g *GameSession) End(now time.Time) error {
	if g.Status != GameStatusStarted {
		return apperrors.ErrInvalidTransition
	}
	g.Status = GameStatusEnded
	g.EndTime = &now
	return nil
}

// CurrentQuestionID возвращает ID текущего вопроса согласно порядку вопросов
func (g *GameSession) CurrentQuestionID() (uint, bool) {
	if g.CurrentQuestionIndex < 0 || g.CurrentQuestionIndex >= len(g.QuestionOrder) {
		return 0, false
	}
	return g.QuestionOrder[g.CurrentQuestionIndex], true
}

// CanAcceptAnswer проверяет правило допуска ответа: игра идет и
// ответ относится к текущему вопросу.
func (g *GameSession) CanAcceptAnswer(questionID uint) error {
	if !g.IsStarted() {
		return apperrors.ErrInvalidTransition
	}
	current, ok := g.CurrentQuestionID()
	if !ok || current != questionID {
		return apperrors.ErrValidation
	}
	return nil
}

// TimeRemaining возвращает оставшиеся секунды на текущий вопрос в момент now.
// Отрицательное значение означает, что лимит времени истек.
func (g *GameSession) TimeRemaining(now time.Time) float64 {
	if g.CurrentQuestionStartTime == nil {
		return 0
	}
	elapsed := now.Sub(*g.CurrentQuestionStartTime).Seconds()
	return float64(g.QuestionTimeLimitSec) - elapsed
}

// NewGamePIN генерирует PIN из GamePINLength символов алфавита gamePINCharset.
// Уникальность обеспечивается уникальным индексом БД и ретраем в репозитории.
func NewGamePIN() (string, error) {
	buf := make([]byte, GamePINLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = gamePINCharset[int(b)%len(gamePINCharset)]
	}
	return string(buf), nil
}
