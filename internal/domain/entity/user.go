package entity

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User представляет зарегистрированного пользователя организации
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:45;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:80;not null;uniqueIndex" json:"email"`
	Password       string    `gorm:"size:100;not null" json:"-"`
	OrganizationID *uint     `gorm:"index" json:"organization_id,omitempty"`
	Role           string    `gorm:"size:10;not null;default:'member'" json:"role"` // admin или member
	FirstName      string    `gorm:"size:45;not null;default:''" json:"first_name"`
	LastName       string    `gorm:"size:45;not null;default:''" json:"last_name"`
	Image          string    `gorm:"size:255;not null;default:''" json:"image"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// SetPassword хеширует и устанавливает пароль пользователя
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// CheckPassword проверяет соответствие пароля хешу
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// IsOrgAdmin проверяет, является ли пользователь администратором организации
func (u *User) IsOrgAdmin() bool {
	return u.Role == OrgRoleAdmin
}

// NormalizeEmail приводит email к нижнему регистру без пробелов
func (u *User) NormalizeEmail() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
}
