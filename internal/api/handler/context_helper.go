package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"compass/internal/model"
	"compass/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	id, ok := v.(int64)
	if !ok || id <= 0 {
		response.Unauthorized(c, 10002, "未认证")
		return 0, false
	}
	return id, true
}

// MustGetRole 从 Gin 上下文中安全提取 role。
func MustGetRole(c *gin.Context) (string, bool) {
	v, exists := c.Get("role")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// tokenMeta 当前 Access Token 的 jti 与过期时间（登出时拉黑用）
func tokenMeta(c *gin.Context) (string, time.Time) {
	jti := c.GetString("token_jti")
	exp, _ := c.Get("token_exp")
	expiresAt, _ := exp.(time.Time)
	return jti, expiresAt
}

// ParseIDParam 解析路径中的正整数 ID，失败时写入 400
func ParseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, 10001, name+" 无效")
		return 0, false
	}
	return id, true
}

// MustAccessSelf 管理员可访问任意 ownerID；指定角色仅能访问自身数据
// 不满足时写入 403 并返回 false
func MustAccessSelf(c *gin.Context, ownerRole string, ownerID int64) bool {
	role, ok := MustGetRole(c)
	if !ok {
		return false
	}
	if role == model.RoleAdmin {
		return true
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return false
	}
	if role == ownerRole && userID == ownerID {
		return true
	}
	response.Forbidden(c, 10003, "无权限访问")
	return false
}
