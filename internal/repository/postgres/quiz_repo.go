package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

// QuizRepo реализует repository.QuizRepository
type QuizRepo struct {
	db *gorm.DB
}

// NewQuizRepo создает новый репозиторий викторин
func NewQuizRepo(db *gorm.DB) *QuizRepo {
	return &QuizRepo{db: db}
}

// Create создает новую викторину
func (r *QuizRepo) Create(quiz *entity.Quiz) error {
	return r.db.Create(quiz).Error
}

// Get возвращает викторину без проверки организации
func (r *QuizRepo) Get(id uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.First(&quiz, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetByID возвращает викторину по ID в пределах организации
func (r *QuizRepo) GetByID(id uint, organizationID uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Where("id = ? AND organization_id = ?", id, organizationID).First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// GetWithQuestions возвращает викторину вместе с вопросами
func (r *QuizRepo) GetWithQuestions(id uint, organizationID uint) (*entity.Quiz, error) {
	var quiz entity.Quiz
	err := r.db.Preload("Questions").
		Where("id = ? AND organization_id = ?", id, organizationID).
		First(&quiz).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &quiz, nil
}

// ListByOrganization возвращает викторины организации с пагинацией
func (r *QuizRepo) ListByOrganization(organizationID uint, limit, offset int) ([]entity.Quiz, error) {
	var quizzes []entity.Quiz
	err := r.db.Where("organization_id = ?", organizationID).
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&quizzes).Error
	if err != nil {
		return nil, err
	}
	return quizzes, nil
}

// Update обновляет викторину
func (r *QuizRepo) Update(quiz *entity.Quiz) error {
	return r.db.Save(quiz).Error
}

// AddQuestions добавляет вопросы в викторину
func (r *QuizRepo) AddQuestions(quizID uint, questionIDs []uint) error {
	questions := make([]entity.Question, 0, len(questionIDs))
	for _, id := range questionIDs {
		questions = append(questions, entity.Question{ID: id})
	}
	return r.db.Model(&entity.Quiz{ID: quizID}).
		Association("Questions").
		Append(&questions)
}

// RemoveQuestions удаляет вопросы из викторины
func (r *QuizRepo) RemoveQuestions(quizID uint, questionIDs []uint) error {
	questions := make([]entity.Question, 0, len(questionIDs))
	for _, id := range questionIDs {
		questions = append(questions, entity.Question{ID: id})
	}
	return r.db.Model(&entity.Quiz{ID: quizID}).
		Association("Questions").
		Delete(&questions)
}

// Delete удаляет викторину организации
func (r *QuizRepo) Delete(id uint, organizationID uint) error {
	result := r.db.Where("id = ? AND organization_id = ?", id, organizationID).
		Delete(&entity.Quiz{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
