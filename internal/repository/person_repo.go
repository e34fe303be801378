package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"compass/internal/model"
)

// StudentRepository 学生档案数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, id int64) (*model.Student, error)
	Update(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id int64) error
	ListByGroup(ctx context.Context, groupID int64) ([]model.Student, error)
	// ExistingIDs 返回 ids 中实际存在的学生 ID 集合
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error)
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, id int64) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Preload("Group").
		Where("id = ?", id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Student{}).Error
}

func (r *studentRepo) ListByGroup(ctx context.Context, groupID int64) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).
		Where("group_id = ?", groupID).
		Order("lastname ASC, firstname ASC, id ASC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	var existing []int64
	if err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	for _, id := range existing {
		found[id] = true
	}
	return found, nil
}

// ────────────────────── Teacher ──────────────────────

// TeacherRepository 教师档案数据访问接口
type TeacherRepository interface {
	Create(ctx context.Context, teacher *model.Teacher) error
	GetByID(ctx context.Context, id int64) (*model.Teacher, error)
	Update(ctx context.Context, teacher *model.Teacher) error
	Delete(ctx context.Context, id int64) error
	// TeachesDiscipline 教师是否被分配到该课程
	TeachesDiscipline(ctx context.Context, teacherID, disciplineID int64) (bool, error)
	ListDisciplines(ctx context.Context, teacherID int64) ([]model.Discipline, error)
}

type teacherRepo struct {
	db *gorm.DB
}

// NewTeacherRepo 创建 TeacherRepository 实例
func NewTeacherRepo(db *gorm.DB) TeacherRepository {
	return &teacherRepo{db: db}
}

func (r *teacherRepo) Create(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(teacher).Error
}

func (r *teacherRepo) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	var teacher model.Teacher
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&teacher).Error; err != nil {
		return nil, err
	}
	return &teacher, nil
}

func (r *teacherRepo) Update(ctx context.Context, teacher *model.Teacher) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(teacher).Error
}

// Delete 同时清理 discipline_teachers 关联行
func (r *teacherRepo) Delete(ctx context.Context, id int64) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM discipline_teachers WHERE teacher_id = ?", id).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Teacher{}).Error
}

func (r *teacherRepo) TeachesDiscipline(ctx context.Context, teacherID, disciplineID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("discipline_teachers").
		Where("teacher_id = ? AND discipline_id = ?", teacherID, disciplineID).
		Count(&count).Error
	return count > 0, err
}

func (r *teacherRepo) ListDisciplines(ctx context.Context, teacherID int64) ([]model.Discipline, error) {
	var disciplines []model.Discipline
	err := r.db.WithContext(ctx).
		Preload("Indicators").
		Joins("JOIN discipline_teachers dt ON dt.discipline_id = disciplines.id").
		Where("dt.teacher_id = ?", teacherID).
		Order("disciplines.id ASC").
		Find(&disciplines).Error
	return disciplines, err
}

// ────────────────────── Group ──────────────────────

// GroupRepository 班级数据访问接口
type GroupRepository interface {
	GetByID(ctx context.Context, id int64) (*model.Group, error)
	GetByName(ctx context.Context, name string) (*model.Group, error)
	List(ctx context.Context) ([]model.Group, error)
	// HasDiscipline 班级是否开设该课程
	HasDiscipline(ctx context.Context, groupID, disciplineID int64) (bool, error)
}

type groupRepo struct {
	db *gorm.DB
}

// NewGroupRepo 创建 GroupRepository 实例
func NewGroupRepo(db *gorm.DB) GroupRepository {
	return &groupRepo{db: db}
}

func (r *groupRepo) GetByID(ctx context.Context, id int64) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).
		Preload("ProfessionalRole").
		Where("id = ?", id).
		First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) GetByName(ctx context.Context, name string) (*model.Group, error) {
	var group model.Group
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&group).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepo) List(ctx context.Context) ([]model.Group, error) {
	var groups []model.Group
	err := r.db.WithContext(ctx).
		Preload("Curator").
		Preload("Students", func(db *gorm.DB) *gorm.DB {
			return db.Order("lastname ASC, firstname ASC")
		}).
		Order("name ASC").
		Find(&groups).Error
	return groups, err
}

func (r *groupRepo) HasDiscipline(ctx context.Context, groupID, disciplineID int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("group_disciplines").
		Where("group_id = ? AND discipline_id = ?", groupID, disciplineID).
		Count(&count).Error
	return count > 0, err
}
