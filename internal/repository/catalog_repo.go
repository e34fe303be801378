package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"compass/internal/model"
)

// orderIndicators 关联指标按展示顺序排列
func orderIndicators(db *gorm.DB) *gorm.DB {
	return db.Order("indicators.ordinal ASC, indicators.id ASC")
}

// DisciplineRepository 课程数据访问接口
type DisciplineRepository interface {
	// GetByID 预加载按 ordinal 排序的指标
	GetByID(ctx context.Context, id int64) (*model.Discipline, error)
	List(ctx context.Context) ([]model.Discipline, error)
	// ListByGroup 班级开设的课程，预加载授课教师
	ListByGroup(ctx context.Context, groupID int64) ([]model.Discipline, error)
	Create(ctx context.Context, discipline *model.Discipline) error
	Update(ctx context.Context, discipline *model.Discipline) error
	Delete(ctx context.Context, id int64) error
}

type disciplineRepo struct {
	db *gorm.DB
}

// NewDisciplineRepo 创建 DisciplineRepository 实例
func NewDisciplineRepo(db *gorm.DB) DisciplineRepository {
	return &disciplineRepo{db: db}
}

func (r *disciplineRepo) GetByID(ctx context.Context, id int64) (*model.Discipline, error) {
	var d model.Discipline
	err := r.db.WithContext(ctx).
		Preload("Indicators", orderIndicators).
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *disciplineRepo) List(ctx context.Context) ([]model.Discipline, error) {
	var list []model.Discipline
	err := r.db.WithContext(ctx).
		Preload("Indicators", orderIndicators).
		Order("id ASC").
		Find(&list).Error
	return list, err
}

func (r *disciplineRepo) ListByGroup(ctx context.Context, groupID int64) ([]model.Discipline, error) {
	var list []model.Discipline
	err := r.db.WithContext(ctx).
		Preload("Teachers", func(db *gorm.DB) *gorm.DB {
			return db.Order("teachers.id ASC")
		}).
		Joins("JOIN group_disciplines gd ON gd.discipline_id = disciplines.id").
		Where("gd.group_id = ?", groupID).
		Order("disciplines.id ASC").
		Find(&list).Error
	return list, err
}

// Create 写入课程并关联 discipline.Indicators
func (r *disciplineRepo) Create(ctx context.Context, discipline *model.Discipline) error {
	indicators := discipline.Indicators
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(discipline).Error; err != nil {
		return err
	}
	if len(indicators) == 0 {
		return nil
	}
	return db.Model(discipline).Association("Indicators").Replace(indicators)
}

// Update 更新课程字段并以 discipline.Indicators 整体替换指标关联
func (r *disciplineRepo) Update(ctx context.Context, discipline *model.Discipline) error {
	indicators := discipline.Indicators
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Save(discipline).Error; err != nil {
		return err
	}
	return db.Model(discipline).Association("Indicators").Replace(indicators)
}

// Delete 关联行与评分行由外键级联删除
func (r *disciplineRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Discipline{}).Error
}

// ────────────────────── Indicator ──────────────────────

// IndicatorRepository 指标数据访问接口
type IndicatorRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]model.Indicator, error)
}

type indicatorRepo struct {
	db *gorm.DB
}

// NewIndicatorRepo 创建 IndicatorRepository 实例
func NewIndicatorRepo(db *gorm.DB) IndicatorRepository {
	return &indicatorRepo{db: db}
}

func (r *indicatorRepo) GetByIDs(ctx context.Context, ids []int64) ([]model.Indicator, error) {
	var list []model.Indicator
	if len(ids) == 0 {
		return list, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("ordinal ASC, id ASC").
		Find(&list).Error
	return list, err
}

// ────────────────────── Competence ──────────────────────

// CompetenceRepository 能力数据访问接口
type CompetenceRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Competence, error)
	// List 全部能力，预加载指标与所属职业角色
	List(ctx context.Context) ([]model.Competence, error)
}

type competenceRepo struct {
	db *gorm.DB
}

// NewCompetenceRepo 创建 CompetenceRepository 实例
func NewCompetenceRepo(db *gorm.DB) CompetenceRepository {
	return &competenceRepo{db: db}
}

func (r *competenceRepo) GetByID(ctx context.Context, id int64) (*model.Competence, error) {
	var c model.Competence
	err := r.db.WithContext(ctx).
		Preload("Indicators", orderIndicators).
		Where("id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *competenceRepo) List(ctx context.Context) ([]model.Competence, error) {
	var list []model.Competence
	err := r.db.WithContext(ctx).
		Preload("Indicators", orderIndicators).
		Preload("ProfessionalRoles").
		Order("id ASC").
		Find(&list).Error
	return list, err
}

// ────────────────────── ProfessionalRole ──────────────────────

// ProfessionalRoleRepository 职业角色数据访问接口
type ProfessionalRoleRepository interface {
	// GetByID 预加载能力及其指标
	GetByID(ctx context.Context, id int64) (*model.ProfessionalRole, error)
	List(ctx context.Context) ([]model.ProfessionalRole, error)
}

type professionalRoleRepo struct {
	db *gorm.DB
}

// NewProfessionalRoleRepo 创建 ProfessionalRoleRepository 实例
func NewProfessionalRoleRepo(db *gorm.DB) ProfessionalRoleRepository {
	return &professionalRoleRepo{db: db}
}

func (r *professionalRoleRepo) GetByID(ctx context.Context, id int64) (*model.ProfessionalRole, error) {
	var p model.ProfessionalRole
	err := r.db.WithContext(ctx).
		Preload("Competences", func(db *gorm.DB) *gorm.DB {
			return db.Order("competences.id ASC")
		}).
		Preload("Competences.Indicators", orderIndicators).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *professionalRoleRepo) List(ctx context.Context) ([]model.ProfessionalRole, error) {
	var list []model.ProfessionalRole
	err := r.db.WithContext(ctx).
		Preload("Competences", func(db *gorm.DB) *gorm.DB {
			return db.Order("competences.id ASC")
		}).
		Order("id ASC").
		Find(&list).Error
	return list, err
}
