package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// AnswerRepo реализует repository.AnswerRepository
type AnswerRepo struct {
	db *gorm.DB
}

// NewAnswerRepo создает новый репозиторий ответов
func NewAnswerRepo(db *gorm.DB) *AnswerRepo {
	return &AnswerRepo{db: db}
}

// Save сохраняет ответ игрока. Повторный ответ на тот же вопрос в той же
// игре нарушает уникальный индекс и возвращается как ErrConflict.
func (r *AnswerRepo) Save(answer *entity.Answer) error {
	err := r.db.Create(answer).Error
	if isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// GetByGameSession возвращает все ответы игровой сессии
func (r *AnswerRepo) GetByGameSession(gameSessionID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("game_session_id = ?", gameSessionID).
		Order("created_at").
		Find(&answers).Error
	return answers, err
}

// GetByPlayerAndGame возвращает ответы игрока в рамках одной игры
func (r *AnswerRepo) GetByPlayerAndGame(playerID, gameSessionID uint) ([]entity.Answer, error) {
	var answers []entity.Answer
	err := r.db.Where("player_id = ? AND game_session_id = ?", playerID, gameSessionID).
		Order("created_at").
		Find(&answers).Error
	return answers, err
}

// CountForQuestion возвращает число ответов на вопрос в рамках сессии
func (r *AnswerRepo) CountForQuestion(gameSessionID, questionID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Answer{}).
		Where("game_session_id = ? AND question_id = ?", gameSessionID, questionID).
		Count(&count).Error
	return count, err
}
