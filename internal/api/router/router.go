package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"compass/config"
	"compass/internal/api/handler"
	"compass/internal/api/middleware"
	"compass/internal/model"
	"compass/pkg/jwt"
	"compass/pkg/metrics"
	"compass/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时禁用 Token 黑名单与限流；gatherer 为 nil 时使用默认 Registry
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	m *metrics.Metrics,
	gatherer prometheus.Gatherer,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil *redis.Client 装入非 nil 接口
	var (
		blacklist middleware.TokenChecker
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(m))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit, map[string]int64{
		// multipart 边界与表单头额外预留 64KB
		"/api/v1/users/import": handler.MaxImportFileSize + 64<<10,
	}))

	// ── 健康检查 / 指标 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET(cfg.Server.MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	rl := cfg.RateLimit
	admin := middleware.RoleAuth(model.RoleAdmin)
	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTeacher)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, rl.LoginLimit, rl.LoginWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, logger))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 用户模块（管理员）
			users := authorized.Group("/users", admin)
			{
				users.GET("", h.User.ListUsers)
				users.POST("", h.User.CreateUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
				users.POST("/import", h.User.ImportUsers)
			}

			// 学生成绩（学生仅本人，Handler 层鉴权）
			students := authorized.Group("/students/:id")
			{
				students.GET("/disciplines", h.Student.ListDisciplines)
				students.GET("/disciplines/:disciplineId/scores", h.Student.GetDisciplineScores)
				students.GET("/competences", h.Student.ListCompetences)
				students.GET("/competences/:competenceId", h.Student.GetCompetenceScores)
				students.GET("/professional-role", h.Student.GetRoleReadiness)
			}

			// 教师评分（教师仅本人，Handler 层鉴权）
			authorized.GET("/teachers/:id/disciplines", staff, h.Teacher.ListDisciplines)
			authorized.POST("/scores", staff, middleware.RateLimit(limiter, rl.ScoreLimit, rl.ScoreWindow), h.Teacher.SaveScores)

			// 课程目录
			disciplines := authorized.Group("/disciplines")
			{
				disciplines.GET("", admin, h.Catalog.ListDisciplines)
				disciplines.POST("", admin, h.Catalog.CreateDiscipline)
				disciplines.PUT("/:id", admin, h.Catalog.UpdateDiscipline)
				disciplines.DELETE("/:id", admin, h.Catalog.DeleteDiscipline)
				disciplines.GET("/:id/scoring", staff, h.Teacher.GetScoringData)
				disciplines.GET("/:id/scoring/export", staff, h.Export.ExportScoringSheet)
			}

			authorized.GET("/groups", staff, h.Catalog.ListGroups)
			authorized.GET("/competences", h.Catalog.ListCompetences)
			authorized.GET("/professional-roles", h.Catalog.ListProfessionalRoles)
		}
	}

	return r
}
