package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"compass/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// maxBytes: 默认上限（如 1<<20 = 1MB）
// overrides: 按路由模板（c.FullPath()）单独放宽上限，例如 Excel 导入
func BodyLimit(maxBytes int64, overrides map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxBytes
		if n, ok := overrides[c.FullPath()]; ok {
			limit = n
		}
		if c.Request.Body != nil && limit > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		}

		c.Next()

		// 处理器未写响应且记录了超限错误时兜底返回 413
		if c.IsAborted() || c.Writer.Written() {
			return
		}
		for _, err := range c.Errors {
			if IsBodyTooLarge(err.Err) {
				response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
				return
			}
		}
	}
}

// IsBodyTooLarge 判断错误是否由 MaxBytesReader 超限引起
func IsBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
