package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"compass/internal/service"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportScoringSheet 导出评分表
// GET /api/v1/disciplines/:id/scoring/export?teacherId=&groupId=
func (h *ExportHandler) ExportScoringSheet(c *gin.Context) {
	disciplineID, req, ok := bindScoringQuery(c)
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportScoringSheet(c.Request.Context(), disciplineID, req.TeacherID, req.GroupID)
	if err != nil {
		// ErrExportGenerateFail 落入默认分支返回 500
		handleScoringError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
