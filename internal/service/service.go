package service

import (
	"go.uber.org/zap"

	"compass/config"
	"compass/internal/repository"
	"compass/internal/scoring"
	"compass/pkg/jwt"
	"compass/pkg/metrics"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth    AuthService
	User    UserService
	Student StudentService
	Teacher TeacherService
	Export  ExportService
	Catalog CatalogService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	rules := scoring.Rules{
		MaxScore:            cfg.Scoring.MaxScore,
		CompletionThreshold: cfg.Scoring.CompletionThreshold,
	}
	teacher := NewTeacherService(repo, rules, m, logger)

	return &Service{
		Auth:    NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:    NewUserService(repo, logger),
		Student: NewStudentService(repo, rules, m, logger),
		Teacher: teacher,
		Export:  NewExportService(teacher, logger),
		Catalog: NewCatalogService(repo, logger),
	}
}
