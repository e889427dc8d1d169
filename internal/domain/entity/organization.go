package entity

import (
	"time"
)

// Роли пользователя внутри организации
const (
	OrgRoleAdmin  = "admin"
	OrgRoleMember = "member"
)

// Organization представляет организацию (тенант платформы).
// Банки вопросов, викторины и пользователи всегда принадлежат одной организации.
type Organization struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:45;not null;uniqueIndex" json:"name"`
	Slug      string    `gorm:"size:60;not null;uniqueIndex" json:"slug"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Organization) TableName() string {
	return "organizations"
}
