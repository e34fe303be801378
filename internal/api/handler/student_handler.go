package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"compass/internal/model"
	"compass/internal/service"
	"compass/pkg/response"
)

// StudentHandler 学生成绩查询 HTTP 处理器
// 学生只能查询本人数据，教师与管理员可查询任意学生
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// ListDisciplines 学生所在班级的课程
// GET /api/v1/students/:id/disciplines
func (h *StudentHandler) ListDisciplines(c *gin.Context) {
	studentID, ok := h.studentParam(c)
	if !ok {
		return
	}

	items, err := h.studentSvc.ListDisciplines(c.Request.Context(), studentID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// GetDisciplineScores 课程内各指标得分
// GET /api/v1/students/:id/disciplines/:disciplineId/scores
func (h *StudentHandler) GetDisciplineScores(c *gin.Context) {
	studentID, ok := h.studentParam(c)
	if !ok {
		return
	}
	disciplineID, ok := ParseIDParam(c, "disciplineId")
	if !ok {
		return
	}

	result, err := h.studentSvc.ComputeDisciplineScores(c.Request.Context(), studentID, disciplineID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// ListCompetences 全部能力的进度
// GET /api/v1/students/:id/competences
func (h *StudentHandler) ListCompetences(c *gin.Context) {
	studentID, ok := h.studentParam(c)
	if !ok {
		return
	}

	items, err := h.studentSvc.ComputeAllCompetenceProgress(c.Request.Context(), studentID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// GetCompetenceScores 单个能力的进度与指标平均分
// GET /api/v1/students/:id/competences/:competenceId
func (h *StudentHandler) GetCompetenceScores(c *gin.Context) {
	studentID, ok := h.studentParam(c)
	if !ok {
		return
	}
	competenceID, ok := ParseIDParam(c, "competenceId")
	if !ok {
		return
	}

	result, err := h.studentSvc.ComputeCompetenceProgress(c.Request.Context(), studentID, competenceID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// GetRoleReadiness 班级职业角色就绪度
// GET /api/v1/students/:id/professional-role
func (h *StudentHandler) GetRoleReadiness(c *gin.Context) {
	studentID, ok := h.studentParam(c)
	if !ok {
		return
	}

	result, err := h.studentSvc.ComputeProfessionalRoleReadiness(c.Request.Context(), studentID)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, result)
}

// studentParam 解析 :id 并校验访问权限
func (h *StudentHandler) studentParam(c *gin.Context) (int64, bool) {
	studentID, ok := ParseIDParam(c, "id")
	if !ok {
		return 0, false
	}
	if role, _ := c.Get("role"); role == model.RoleTeacher {
		return studentID, true
	}
	if !MustAccessSelf(c, model.RoleStudent, studentID) {
		return 0, false
	}
	return studentID, true
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 21001, "学生不存在")
	case errors.Is(err, service.ErrStudentHasNoGroup):
		response.Conflict(c, 21002, "学生未分配班级")
	case errors.Is(err, service.ErrDisciplineNotFound):
		response.NotFound(c, 23001, "课程不存在")
	case errors.Is(err, service.ErrCompetenceNotFound):
		response.NotFound(c, 24001, "能力不存在")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 25001, "班级不存在")
	case errors.Is(err, service.ErrGroupDoesNotHaveDiscipline):
		response.Conflict(c, 25002, "班级未开设该课程")
	case errors.Is(err, service.ErrGroupHasNoProfessionalRole):
		response.Conflict(c, 25003, "班级未设置职业角色")
	default:
		response.InternalError(c)
	}
}
