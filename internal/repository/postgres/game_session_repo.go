package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// GameSessionRepo реализует repository.GameSessionRepository
type GameSessionRepo struct {
	db *gorm.DB
}

// NewGameSessionRepo создает новый репозиторий игровых сессий
func NewGameSessionRepo(db *gorm.DB) *GameSessionRepo {
	return &GameSessionRepo{db: db}
}

// Create сохраняет игровую сессию. Коллизия PIN (уникальный индекс)
// возвращается как ErrConflict - вызывающая сторона генерирует новый PIN.
func (r *GameSessionRepo) Create(session *entity.GameSession) error {
	err := r.db.Create(session).Error
	if isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// GetByID возвращает сессию по ID
func (r *GameSessionRepo) GetByID(id uint) (*entity.GameSession, error) {
	var session entity.GameSession
	err := r.db.First(&session, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// GetByPIN возвращает сессию по PIN-коду комнаты
func (r *GameSessionRepo) GetByPIN(pin string) (*entity.GameSession, error) {
	var session entity.GameSession
	err := r.db.Where("pin = ?", pin).First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &session, nil
}

// UpdateStatus точечно обновляет статус сессии и время начала текущего вопроса
func (r *GameSessionRepo) UpdateStatus(sessionID uint, status string, questionStartTime *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if questionStartTime != nil {
		updates["current_question_start_time"] = *questionStartTime
	}
	if status == entity.GameStatusEnded {
		updates["end_time"] = time.Now()
	}
	result := r.db.Model(&entity.GameSession{}).
		Where("id = ?", sessionID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Update обновляет сессию целиком
func (r *GameSessionRepo) Update(session *entity.GameSession) error {
	return r.db.Save(session).Error
}

// CountPlayers возвращает количество игроков, привязанных к сессии
func (r *GameSessionRepo) CountPlayers(sessionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Player{}).
		Where("current_game_id = ?", sessionID).
		Count(&count).Error
	return count, err
}
