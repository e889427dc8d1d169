package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// PlayerRepo реализует repository.PlayerRepository
type PlayerRepo struct {
	db *gorm.DB
}

// NewPlayerRepo создает новый репозиторий игроков
func NewPlayerRepo(db *gorm.DB) *PlayerRepo {
	return &PlayerRepo{db: db}
}

// Create сохраняет игрока. Повторный профиль для того же пользователя
// (уникальный индекс user_id) возвращается как ErrConflict.
func (r *PlayerRepo) Create(player *entity.Player) error {
	err := r.db.Create(player).Error
	if isUniqueViolation(err) {
		return apperrors.ErrConflict
	}
	return err
}

// GetByID возвращает игрока по ID
func (r *PlayerRepo) GetByID(id uint) (*entity.Player, error) {
	var player entity.Player
	err := r.db.First(&player, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// GetByUserID возвращает профиль игрока зарегистрированного пользователя
func (r *PlayerRepo) GetByUserID(userID uint) (*entity.Player, error) {
	var player entity.Player
	err := r.db.Where("user_id = ?", userID).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// GetByGuestToken возвращает гостевого игрока по токену
func (r *PlayerRepo) GetByGuestToken(token string) (*entity.Player, error) {
	var player entity.Player
	err := r.db.Where("guest_token = ?", token).First(&player).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &player, nil
}

// Update обновляет игрока
func (r *PlayerRepo) Update(player *entity.Player) error {
	return r.db.Save(player).Error
}

// SetCurrentGame привязывает игрока к активной игре
func (r *PlayerRepo) SetCurrentGame(playerID uint, gameSessionID *uint) error {
	result := r.db.Model(&entity.Player{}).
		Where("id = ?", playerID).
		Update("current_game_id", gameSessionID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AddScore атомарно увеличивает счет игрока
func (r *PlayerRepo) AddScore(playerID uint, delta int) error {
	result := r.db.Model(&entity.Player{}).
		Where("id = ?", playerID).
		Update("score", gorm.Expr("score + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
