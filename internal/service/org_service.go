package service

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/yourusername/dynequiz-api/internal/domain/entity"
	"github.com/yourusername/dynequiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/dynequiz-api/internal/pkg/errors"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// OrganizationService управляет организациями и членством пользователей
type OrganizationService struct {
	orgs  repository.OrganizationRepository
	users repository.UserRepository
}

// NewOrganizationService создает новый сервис организаций
func NewOrganizationService(
	orgs repository.OrganizationRepository,
	users repository.UserRepository,
) *OrganizationService {
	return &OrganizationService{
		orgs:  orgs,
		users: users,
	}
}

// CreateOrganization создает организацию и привязывает к ней создателя.
// Пользователь, уже состоящий в организации, получает ErrConflict.
func (s *OrganizationService) CreateOrganization(name, slug string, creatorID uint) (*entity.Organization, error) {
	name = strings.TrimSpace(name)
	slug = strings.ToLower(strings.TrimSpace(slug))
	if name == "" {
		return nil, fmt.Errorf("organization name is required: %w", apperrors.ErrValidation)
	}
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("slug must contain only lowercase letters, digits and hyphens: %w", apperrors.ErrValidation)
	}

	creator, err := s.users.GetByID(creatorID)
	if err != nil {
		return nil, err
	}
	if creator.OrganizationID != nil {
		return nil, fmt.Errorf("user already belongs to an organization: %w", apperrors.ErrConflict)
	}

	org := &entity.Organization{
		Name: name,
		Slug: slug,
	}
	if err := s.orgs.Create(org); err != nil {
		return nil, err
	}

	creator.OrganizationID = &org.ID
	creator.Role = entity.OrgRoleAdmin
	if err := s.users.Update(creator); err != nil {
		return nil, err
	}
	return org, nil
}

// GetOrganization возвращает организацию по ID
func (s *OrganizationService) GetOrganization(id uint) (*entity.Organization, error) {
	return s.orgs.GetByID(id)
}

// ListMembers возвращает пользователей организации с пагинацией
func (s *OrganizationService) ListMembers(organizationID uint, limit, offset int) ([]entity.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.users.ListByOrganization(organizationID, limit, offset)
}
