package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compass/internal/dto"
	"compass/internal/service"
	"compass/pkg/response"
)

// MaxImportFileSize 导入文件大小上限
const MaxImportFileSize = 5 << 20

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// ListUsers 用户列表（管理员）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// CreateUser 创建用户（管理员）
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.Created(c, user)
}

// UpdateUser 更新用户（管理员）
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// DeleteUser 删除用户（管理员）
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	id, ok := ParseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), id); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, nil)
}

// ImportUsers 通过 Excel 批量导入学生（管理员）
// POST /api/v1/users/import  (multipart/form-data, 字段 file)
func (h *UserHandler) ImportUsers(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "文件大小不能超过 5MB")
			return
		}
		response.BadRequest(c, 10001, "请上传 Excel 文件")
		return
	}
	if fh.Size > MaxImportFileSize {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "文件大小不能超过 5MB")
		return
	}

	file, err := fh.Open()
	if err != nil {
		response.BadRequest(c, 20007, "无法读取上传文件")
		return
	}
	defer file.Close()

	rows, err := h.userSvc.ParseImportFile(file)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrImportNoData),
			errors.Is(err, service.ErrImportTooManyRows),
			errors.Is(err, service.ErrImportBadHeader):
			h.handleUserError(c, err)
		default:
			response.BadRequest(c, 20007, "Excel 文件格式无效")
		}
		return
	}

	result, err := h.userSvc.ImportUsers(c.Request.Context(), rows)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 20001, "用户不存在")
	case errors.Is(err, service.ErrUserAlreadyExists):
		response.Conflict(c, 20002, "该邮箱已被其他用户使用")
	case errors.Is(err, service.ErrRoleNotFound):
		response.BadRequest(c, 20003, "角色不存在")
	case errors.Is(err, service.ErrImportNoData):
		response.BadRequest(c, 20004, err.Error())
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 20005, err.Error())
	case errors.Is(err, service.ErrImportBadHeader):
		response.BadRequest(c, 20006, err.Error())
	case errors.Is(err, service.ErrGroupNotFound):
		response.NotFound(c, 25001, "班级不存在")
	default:
		response.InternalError(c)
	}
}
