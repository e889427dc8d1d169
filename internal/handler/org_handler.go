package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/dynequiz-api/internal/service"
)

// OrgHandler обрабатывает запросы, связанные с организациями
type OrgHandler struct {
	orgService *service.OrganizationService
}

// NewOrgHandler создает новый обработчик организаций
func NewOrgHandler(orgService *service.OrganizationService) *OrgHandler {
	return &OrgHandler{orgService: orgService}
}

// CreateOrganizationRequest представляет запрос на создание организации
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required,min=3,max=45"`
	Slug string `json:"slug" binding:"required,min=3,max=60"`
}

// CreateOrganization создает организацию и привязывает к ней текущего
// пользователя как администратора. Членство попадет в токен только при
// следующем логине или обновлении токена.
// POST /api/organizations
func (h *OrgHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	org, err := h.orgService.CreateOrganization(req.Name, req.Slug, currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, org)
}

// MyOrganization возвращает организацию текущего пользователя
// GET /api/organizations/me
func (h *OrgHandler) MyOrganization(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	org, err := h.orgService.GetOrganization(orgID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, org)
}

// Members возвращает список участников организации текущего пользователя
// GET /api/organizations/me/members
func (h *OrgHandler) Members(c *gin.Context) {
	orgID, ok := requireOrganization(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	members, err := h.orgService.ListMembers(orgID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"members": members, "limit": limit, "offset": offset})
}
