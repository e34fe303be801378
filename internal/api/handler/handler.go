package handler

import "compass/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Student *StudentHandler
	Teacher *TeacherHandler
	Catalog *CatalogHandler
	Export  *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(svc.Auth),
		User:    NewUserHandler(svc.User),
		Student: NewStudentHandler(svc.Student),
		Teacher: NewTeacherHandler(svc.Teacher),
		Catalog: NewCatalogHandler(svc.Catalog),
		Export:  NewExportHandler(svc.Export),
	}
}
