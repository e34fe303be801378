package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"compass/internal/model"
)

// ScoreRepository 评分事实与派生缓存的数据访问接口
//
// 读路径只读取权威表 student_indicator_discipline_scores；
// indicator_scores 仅由 UpsertLegacy 在写路径同步。
type ScoreRepository interface {
	// ── 权威表 ──
	UpsertFact(ctx context.Context, fact *model.StudentIndicatorDisciplineScore) error
	ListFactsByDiscipline(ctx context.Context, studentID, disciplineID int64) ([]model.StudentIndicatorDisciplineScore, error)
	ListFactsByStudents(ctx context.Context, disciplineID int64, studentIDs []int64) ([]model.StudentIndicatorDisciplineScore, error)
	// ListFactsByIndicators 跨课程读取学生在给定指标上的全部评分
	ListFactsByIndicators(ctx context.Context, studentID int64, indicatorIDs []int64) ([]model.StudentIndicatorDisciplineScore, error)
	ListFactsByStudent(ctx context.Context, studentID int64) ([]model.StudentIndicatorDisciplineScore, error)

	// ── 旧表同步 ──
	UpsertLegacy(ctx context.Context, score *model.IndicatorScore) error

	// ── 缓存 ──
	UpsertDisciplineScore(ctx context.Context, score *model.DisciplineScore) error
	GetDisciplineScore(ctx context.Context, studentID, disciplineID int64) (*model.DisciplineScore, error)
	ListDisciplineScores(ctx context.Context, studentID int64) ([]model.DisciplineScore, error)
	UpsertCompetenceScore(ctx context.Context, score *model.CompetenceScore) error
	ListCompetenceScores(ctx context.Context, studentID int64, competenceIDs []int64) ([]model.CompetenceScore, error)

	// DeleteByStudent 删除学生在全部评分表与缓存中的行
	DeleteByStudent(ctx context.Context, studentID int64) error
}

type scoreRepo struct {
	db *gorm.DB
}

// NewScoreRepo 创建 ScoreRepository 实例
func NewScoreRepo(db *gorm.DB) ScoreRepository {
	return &scoreRepo{db: db}
}

// ────────────────────── 权威表 ──────────────────────

func (r *scoreRepo) UpsertFact(ctx context.Context, fact *model.StudentIndicatorDisciplineScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "student_id"}, {Name: "discipline_id"}, {Name: "indicator_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"score", "teacher_id", "updated_at"}),
	}).Create(fact).Error
}

func (r *scoreRepo) ListFactsByDiscipline(ctx context.Context, studentID, disciplineID int64) ([]model.StudentIndicatorDisciplineScore, error) {
	var facts []model.StudentIndicatorDisciplineScore
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND discipline_id = ?", studentID, disciplineID).
		Find(&facts).Error
	return facts, err
}

func (r *scoreRepo) ListFactsByStudents(ctx context.Context, disciplineID int64, studentIDs []int64) ([]model.StudentIndicatorDisciplineScore, error) {
	var facts []model.StudentIndicatorDisciplineScore
	if len(studentIDs) == 0 {
		return facts, nil
	}
	err := r.db.WithContext(ctx).
		Where("discipline_id = ? AND student_id IN ?", disciplineID, studentIDs).
		Find(&facts).Error
	return facts, err
}

func (r *scoreRepo) ListFactsByIndicators(ctx context.Context, studentID int64, indicatorIDs []int64) ([]model.StudentIndicatorDisciplineScore, error) {
	var facts []model.StudentIndicatorDisciplineScore
	if len(indicatorIDs) == 0 {
		return facts, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND indicator_id IN ?", studentID, indicatorIDs).
		Find(&facts).Error
	return facts, err
}

func (r *scoreRepo) ListFactsByStudent(ctx context.Context, studentID int64) ([]model.StudentIndicatorDisciplineScore, error) {
	var facts []model.StudentIndicatorDisciplineScore
	err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Find(&facts).Error
	return facts, err
}

// ────────────────────── 旧表同步 ──────────────────────

func (r *scoreRepo) UpsertLegacy(ctx context.Context, score *model.IndicatorScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "student_id"}, {Name: "indicator_id"}, {Name: "teacher_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"score_value"}),
	}).Create(score).Error
}

// ────────────────────── 缓存 ──────────────────────

func (r *scoreRepo) UpsertDisciplineScore(ctx context.Context, score *model.DisciplineScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "discipline_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(score).Error
}

func (r *scoreRepo) GetDisciplineScore(ctx context.Context, studentID, disciplineID int64) (*model.DisciplineScore, error) {
	var score model.DisciplineScore
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND discipline_id = ?", studentID, disciplineID).
		First(&score).Error
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *scoreRepo) ListDisciplineScores(ctx context.Context, studentID int64) ([]model.DisciplineScore, error) {
	var scores []model.DisciplineScore
	err := r.db.WithContext(ctx).Where("student_id = ?", studentID).Find(&scores).Error
	return scores, err
}

func (r *scoreRepo) UpsertCompetenceScore(ctx context.Context, score *model.CompetenceScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "competence_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(score).Error
}

func (r *scoreRepo) ListCompetenceScores(ctx context.Context, studentID int64, competenceIDs []int64) ([]model.CompetenceScore, error) {
	var scores []model.CompetenceScore
	if len(competenceIDs) == 0 {
		return scores, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND competence_id IN ?", studentID, competenceIDs).
		Find(&scores).Error
	return scores, err
}

func (r *scoreRepo) DeleteByStudent(ctx context.Context, studentID int64) error {
	db := r.db.WithContext(ctx)
	for _, m := range []interface{}{
		&model.StudentIndicatorDisciplineScore{},
		&model.IndicatorScore{},
		&model.DisciplineScore{},
		&model.CompetenceScore{},
	} {
		if err := db.Where("student_id = ?", studentID).Delete(m).Error; err != nil {
			return err
		}
	}
	return nil
}
