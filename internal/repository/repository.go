package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User             UserRepository
	Role             RoleRepository
	Token            TokenRepository
	Student          StudentRepository
	Teacher          TeacherRepository
	Group            GroupRepository
	Discipline       DisciplineRepository
	Indicator        IndicatorRepository
	Competence       CompetenceRepository
	ProfessionalRole ProfessionalRoleRepository
	Score            ScoreRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:               db,
		User:             NewUserRepo(db),
		Role:             NewRoleRepo(db),
		Token:            NewTokenRepo(db),
		Student:          NewStudentRepo(db),
		Teacher:          NewTeacherRepo(db),
		Group:            NewGroupRepo(db),
		Discipline:       NewDisciplineRepo(db),
		Indicator:        NewIndicatorRepo(db),
		Competence:       NewCompetenceRepo(db),
		ProfessionalRole: NewProfessionalRoleRepo(db),
		Score:            NewScoreRepo(db),
	}
}

// BeginTx 开启数据库事务
// 未绑定数据库（单元测试中的 mock 聚合）时返回 nil, nil，调用方需判空
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务连接的 Repository 聚合
// tx 为 nil 时原样返回，使 mock 仓储在事务代码路径中继续生效
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}
