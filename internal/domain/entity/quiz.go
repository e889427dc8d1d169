package entity

import (
	"time"
)

// Уровни сложности викторины
const (
	QuizDifficultyEasy   = "easy"
	QuizDifficultyMedium = "medium"
	QuizDifficultyHard   = "hard"
)

// Quiz представляет викторину, составленную из вопросов банка организации
type Quiz struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Name           string      `gorm:"size:225;not null" json:"name"`
	Description    string      `gorm:"size:100;not null;default:''" json:"description"`
	Difficulty     string      `gorm:"size:20;not null;default:'medium'" json:"difficulty"`
	Tags           StringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	OrganizationID uint        `gorm:"not null;index" json:"organization_id"`
	CreatedByID    uint        `gorm:"not null;index" json:"created_by"`
	Questions      []Question  `gorm:"many2many:quiz_questions" json:"questions,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Quiz) TableName() string {
	return "quizzes"
}

// QuestionCount возвращает количество вопросов викторины
func (q *Quiz) QuestionCount() int {
	return len(q.Questions)
}

// BelongsTo проверяет принадлежность викторины организации
func (q *Quiz) BelongsTo(organizationID uint) bool {
	return q.OrganizationID == organizationID
}
