package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// CreateBatch создает несколько вопросов одной транзакцией.
// Используется импортом вопросов из xlsx-файла.
func (r *QuestionRepo) CreateBatch(questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&questions).Error
	})
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByIDs возвращает вопросы по списку ID в пределах организации
func (r *QuestionRepo) GetByIDs(ids []uint, organizationID uint) ([]entity.Question, error) {
	if len(ids) == 0 {
		return []entity.Question{}, nil
	}
	var questions []entity.Question
	err := r.db.Where("id IN ? AND organization_id = ?", ids, organizationID).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// ListByOrganization возвращает вопросы организации с пагинацией
func (r *QuestionRepo) ListByOrganization(organizationID uint, limit, offset int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("organization_id = ?", organizationID).
		Order("id").
		Limit(limit).
		Offset(offset).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// Delete удаляет вопрос организации
func (r *QuestionRepo) Delete(id uint, organizationID uint) error {
	result := r.db.Where("id = ? AND organization_id = ?", id, organizationID).
		Delete(&entity.Question{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
