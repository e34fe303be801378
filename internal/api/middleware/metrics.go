package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"compass/pkg/metrics"
)

// Metrics 记录请求耗时到 Prometheus
// 未匹配路由统一记为 "unmatched"，避免路径参数造成标签爆炸
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
