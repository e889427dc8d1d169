package repository

import (
	"github.com/yourusername/dynequiz-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с пользователями
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	Update(user *entity.User) error
	ListByOrganization(organizationID uint, limit, offset int) ([]entity.User, error)
}

// OrganizationRepository определяет методы для работы с организациями
type OrganizationRepository interface {
	Create(org *entity.Organization) error
	GetByID(id uint) (*entity.Organization, error)
	GetBySlug(slug string) (*entity.Organization, error)
}
