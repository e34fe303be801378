package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"compass/internal/dto"
	"compass/internal/model"
	"compass/internal/service"
	"compass/pkg/response"
)

// TeacherHandler 教师评分 HTTP 处理器
type TeacherHandler struct {
	teacherSvc service.TeacherService
}

// NewTeacherHandler 创建 TeacherHandler
func NewTeacherHandler(teacherSvc service.TeacherService) *TeacherHandler {
	return &TeacherHandler{teacherSvc: teacherSvc}
}

// ListDisciplines 教师负责的课程
// GET /api/v1/teachers/:id/disciplines
func (h *TeacherHandler) ListDisciplines(c *gin.Context) {
	teacherID, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}
	if !MustAccessSelf(c, model.RoleTeacher, teacherID) {
		return
	}

	items, err := h.teacherSvc.ListDisciplines(c.Request.Context(), teacherID)
	if err != nil {
		handleScoringError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// GetScoringData 评分表
// GET /api/v1/disciplines/:id/scoring?teacherId=&groupId=
func (h *TeacherHandler) GetScoringData(c *gin.Context) {
	disciplineID, req, ok := bindScoringQuery(c)
	if !ok {
		return
	}

	result, err := h.teacherSvc.GetScoringData(c.Request.Context(), disciplineID, req.TeacherID, req.GroupID)
	if err != nil {
		handleScoringError(c, err)
		return
	}

	response.OK(c, result)
}

// SaveScores 提交一批评分
// POST /api/v1/scores
func (h *TeacherHandler) SaveScores(c *gin.Context) {
	var req dto.SaveScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	if !MustAccessSelf(c, model.RoleTeacher, req.TeacherID) {
		return
	}

	if err := h.teacherSvc.RecordScores(c.Request.Context(), &req); err != nil {
		handleScoringError(c, err)
		return
	}

	response.OK(c, nil)
}

// bindScoringQuery 解析 :id 与 teacherId/groupId 查询参数，并校验教师身份
func bindScoringQuery(c *gin.Context) (int64, *dto.ScoringDataRequest, bool) {
	disciplineID, ok := ParseIDParam(c, "id")
	if !ok {
		return 0, nil, false
	}
	var req dto.ScoringDataRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return 0, nil, false
	}
	if !MustAccessSelf(c, model.RoleTeacher, req.TeacherID) {
		return 0, nil, false
	}
	return disciplineID, &req, true
}

// handleScoringError 评分相关错误映射（教师评分与导出共用）
func handleScoringError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTeacherNotFound):
		response.NotFound(c, 22001, "教师不存在")
	case errors.Is(err, service.ErrTeacherNoAccess):
		response.Forbidden(c, 22002, "教师未被分配到该课程")
	case errors.Is(err, service.ErrInvalidScore):
		response.BadRequest(c, 22003, "分数必须在 0 到 5 之间")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 21001, "学生不存在")
	case errors.Is(err, service.ErrDisciplineNotFound):
		response.NotFound(c, 23001, "课程不存在")
	case errors.Is(err, service.ErrIndicatorNotFound):
		response.NotFound(c, 23002, "指标不属于该课程")
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 25001, "班级不存在")
	case errors.Is(err, service.ErrGroupDoesNotHaveDiscipline):
		response.Conflict(c, 25002, "班级未开设该课程")
	default:
		response.InternalError(c)
	}
}
