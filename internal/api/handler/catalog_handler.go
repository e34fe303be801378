package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"compass/internal/dto"
	"compass/internal/service"
	"compass/pkg/response"
)

// CatalogHandler 课程、班级、能力、职业角色目录 HTTP 处理器
type CatalogHandler struct {
	catalogSvc service.CatalogService
}

// NewCatalogHandler 创建 CatalogHandler
func NewCatalogHandler(catalogSvc service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogSvc: catalogSvc}
}

// ListDisciplines GET /api/v1/disciplines
func (h *CatalogHandler) ListDisciplines(c *gin.Context) {
	items, err := h.catalogSvc.ListDisciplines(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": items})
}

// CreateDiscipline POST /api/v1/disciplines
func (h *CatalogHandler) CreateDiscipline(c *gin.Context) {
	var req dto.DisciplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.catalogSvc.CreateDiscipline(c.Request.Context(), &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateDiscipline PUT /api/v1/disciplines/:id
func (h *CatalogHandler) UpdateDiscipline(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	var req dto.DisciplineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	item, err := h.catalogSvc.UpdateDiscipline(c.Request.Context(), id, &req)
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, item)
}

// DeleteDiscipline DELETE /api/v1/disciplines/:id
func (h *CatalogHandler) DeleteDiscipline(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.catalogSvc.DeleteDiscipline(c.Request.Context(), id); err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListGroups GET /api/v1/groups
func (h *CatalogHandler) ListGroups(c *gin.Context) {
	items, err := h.catalogSvc.ListGroups(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": items})
}

// ListCompetences GET /api/v1/competences
func (h *CatalogHandler) ListCompetences(c *gin.Context) {
	items, err := h.catalogSvc.ListCompetences(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": items})
}

// ListProfessionalRoles GET /api/v1/professional-roles
func (h *CatalogHandler) ListProfessionalRoles(c *gin.Context) {
	items, err := h.catalogSvc.ListProfessionalRoles(c.Request.Context())
	if err != nil {
		h.handleCatalogError(c, err)
		return
	}
	response.OK(c, gin.H{"list": items})
}

func (h *CatalogHandler) handleCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDisciplineNotFound):
		response.NotFound(c, 23001, "课程不存在")
	case errors.Is(err, service.ErrIndicatorNotFound):
		response.BadRequest(c, 23002, "指标不存在")
	default:
		response.InternalError(c)
	}
}
