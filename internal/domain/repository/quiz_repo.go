package repository

import (
	"github.com/yourusername/dynequiz-api/internal/domain/entity"
)

// QuizRepository определяет методы для работы с викторинами
type QuizRepository interface {
	Create(quiz *entity.Quiz) error
	// Get возвращает викторину без проверки организации.
	// Используется публичными игровыми путями, где организация неизвестна.
	Get(id uint) (*entity.Quiz, error)
	GetByID(id uint, organizationID uint) (*entity.Quiz, error)
	GetWithQuestions(id uint, organizationID uint) (*entity.Quiz, error)
	ListByOrganization(organizationID uint, limit, offset int) ([]entity.Quiz, error)
	Update(quiz *entity.Quiz) error
	// AddQuestions и RemoveQuestions изменяют состав вопросов викторины.
	// Вопросы чужой организации отклоняются на уровне сервиса.
	AddQuestions(quizID uint, questionIDs []uint) error
	RemoveQuestions(quizID uint, questionIDs []uint) error
	Delete(id uint, organizationID uint) error
}

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	Create(question *entity.Question) error
	CreateBatch(questions []entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	GetByIDs(ids []uint, organizationID uint) ([]entity.Question, error)
	ListByOrganization(organizationID uint, limit, offset int) ([]entity.Question, error)
	Delete(id uint, organizationID uint) error
}
