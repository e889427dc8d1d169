package entity

import (
	"time"
)

// Answer представляет ответ игрока на вопрос игровой сессии.
// Тройка (player, game_session, question) уникальна: повторная отправка
// отклоняется, а не перезаписывается.
type Answer struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	PlayerID            uint      `gorm:"not null;uniqueIndex:idx_answers_once" json:"player_id"`
	GameSessionID       uint      `gorm:"not null;uniqueIndex:idx_answers_once" json:"game_session_id"`
	QuestionID          uint      `gorm:"not null;uniqueIndex:idx_answers_once" json:"question_id"`
	SelectedAnswer      string    `gorm:"size:255;not null" json:"selected_answer"`
	IsCorrect           bool      `gorm:"not null" json:"is_correct"`
	ResponseTimeSeconds float64   `gorm:"not null" json:"response_time_seconds"`
	Score               int       `gorm:"not null;default:0" json:"score"`
	CreatedAt           time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Answer) TableName() string {
	return "answers"
}
