package entity

import (
	"time"
)

// Типы игроков
const (
	PlayerTypeRegistered = "registered"
	PlayerTypeGuest      = "guest"
)

// Player представляет участника игровых сессий.
// Игрок либо привязан к аккаунту пользователя (registered), либо является
// эфемерным гостем с гостевым токеном и сроком его действия.
type Player struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           *uint      `gorm:"uniqueIndex" json:"user_id,omitempty"` // nil для гостей
	Username         string     `gorm:"size:225;not null;uniqueIndex" json:"username"`
	Avatar           string     `gorm:"size:225;not null;default:''" json:"avatar"`
	Score            int        `gorm:"not null;default:0" json:"score"`
	IsGuest          bool       `gorm:"not null;default:false" json:"is_guest"`
	GuestToken       string     `gorm:"size:32;index" json:"-"` // Секрет, не отдаем клиенту в обычных ответах
	GuestTokenExpiry *time.Time `json:"guest_token_expiry,omitempty"`
	CurrentGameID    *uint      `gorm:"index" json:"current_game_id,omitempty"` // Не более одной активной игры
	LastActivity     time.Time  `gorm:"autoUpdateTime" json:"last_activity"`
	CreatedAt        time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Player) TableName() string {
	return "players"
}

// Type возвращает тип игрока
func (p *Player) Type() string {
	if p.IsGuest {
		return PlayerTypeGuest
	}
	return PlayerTypeRegistered
}

// GuestTokenValid проверяет, что гостевой токен еще действителен в момент now
func (p *Player) GuestTokenValid(now time.Time) bool {
	if !p.IsGuest || p.GuestToken == "" {
		return false
	}
	return p.GuestTokenExpiry != nil && now.Before(*p.GuestTokenExpiry)
}
