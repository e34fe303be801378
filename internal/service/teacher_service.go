package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compass/internal/dto"
	"compass/internal/model"
	"compass/internal/repository"
	"compass/internal/scoring"
	pkgerrors "compass/pkg/errors"
	"compass/pkg/metrics"
)

// ── 教师评分模块业务错误 ──

var (
	ErrTeacherNotFound   = errors.New("教师不存在")
	ErrTeacherNoAccess   = errors.New("教师未被分配到该课程")
	ErrIndicatorNotFound = errors.New("指标不属于该课程")
	ErrInvalidScore      = errors.New("分数超出允许范围")
	ErrGroupNotFound     = errors.New("班级不存在")
)

// TeacherService 教师评分业务接口
type TeacherService interface {
	ListDisciplines(ctx context.Context, teacherID int64) ([]dto.TeacherDisciplineItem, error)
	// GetScoringData 评分表：班级学生 × 课程指标
	GetScoringData(ctx context.Context, disciplineID, teacherID, groupID int64) (*dto.ScoringDataResponse, error)
	// RecordScores 校验并写入一批评分，全部成功或全部不写入
	RecordScores(ctx context.Context, req *dto.SaveScoresRequest) error
}

type teacherService struct {
	repo    *repository.Repository
	rules   scoring.Rules
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewTeacherService 创建 TeacherService 实例
func NewTeacherService(repo *repository.Repository, rules scoring.Rules, m *metrics.Metrics, logger *zap.Logger) TeacherService {
	return &teacherService{repo: repo, rules: rules, metrics: m, logger: logger}
}

// ────────────────────── ListDisciplines ──────────────────────

func (s *teacherService) ListDisciplines(ctx context.Context, teacherID int64) ([]dto.TeacherDisciplineItem, error) {
	if _, err := s.repo.Teacher.GetByID(ctx, teacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTeacherNotFound
		}
		s.logger.Error("查询教师失败", zap.Int64("teacher_id", teacherID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	disciplines, err := s.repo.Teacher.ListDisciplines(ctx, teacherID)
	if err != nil {
		s.logger.Error("查询教师课程失败", zap.Int64("teacher_id", teacherID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	items := make([]dto.TeacherDisciplineItem, 0, len(disciplines))
	for _, d := range disciplines {
		items = append(items, dto.TeacherDisciplineItem{
			ID:             d.ID,
			Name:           d.Name,
			IndicatorCount: len(d.Indicators),
		})
	}
	return items, nil
}

// ────────────────────── GetScoringData ──────────────────────

func (s *teacherService) GetScoringData(ctx context.Context, disciplineID, teacherID, groupID int64) (*dto.ScoringDataResponse, error) {
	discipline, err := s.authorize(ctx, disciplineID, teacherID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.Int64("group_id", groupID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	enrolled, err := s.repo.Group.HasDiscipline(ctx, groupID, disciplineID)
	if err != nil {
		s.logger.Error("查询班级课程失败", zap.Int64("group_id", groupID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if !enrolled {
		return nil, ErrGroupDoesNotHaveDiscipline
	}

	students, err := s.repo.Student.ListByGroup(ctx, groupID)
	if err != nil {
		s.logger.Error("查询班级学生失败", zap.Int64("group_id", groupID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	studentIDs := make([]int64, 0, len(students))
	for _, st := range students {
		studentIDs = append(studentIDs, st.ID)
	}

	facts, err := s.repo.Score.ListFactsByStudents(ctx, disciplineID, studentIDs)
	if err != nil {
		s.logger.Error("查询评分失败", zap.Int64("discipline_id", disciplineID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	type key struct{ student, indicator int64 }
	grid := make(map[key]float64, len(facts))
	for _, f := range facts {
		grid[key{f.StudentID, f.IndicatorID}] = f.Score
	}

	indicators := sortedIndicators(discipline.Indicators)
	resp := &dto.ScoringDataResponse{
		DisciplineName: discipline.Name,
		Students:       make([]dto.ScoringStudent, 0, len(students)),
		Indicators:     make([]dto.ScoringIndicator, 0, len(indicators)),
	}
	for _, ind := range indicators {
		resp.Indicators = append(resp.Indicators, dto.ScoringIndicator{ID: ind.ID, Index: ind.Index, Name: ind.Name})
	}
	for _, st := range students {
		row := dto.ScoringStudent{
			ID:       st.ID,
			FullName: st.FullName(),
			Scores:   make([]*float64, len(indicators)),
		}
		for i, ind := range indicators {
			if v, ok := grid[key{st.ID, ind.ID}]; ok {
				row.Scores[i] = &v
			}
		}
		resp.Students = append(resp.Students, row)
	}
	return resp, nil
}

// ────────────────────── RecordScores ──────────────────────

// studentBatch 同一学生在本批次中的评分，按首次出现顺序保存
type studentBatch struct {
	studentID  int64
	indicators []int64
	values     map[int64]float64
}

func (s *teacherService) RecordScores(ctx context.Context, req *dto.SaveScoresRequest) error {
	// 第一阶段：全部校验，首个违规即终止，不触碰写操作
	batches, err := s.validateBatch(ctx, req)
	if err != nil {
		if !pkgerrors.IsInternal(err) {
			s.metrics.IncrementBatch(metrics.BatchRejected)
		}
		return err
	}

	// 第二阶段：单事务写入两张评分表与课程平均分缓存
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		s.metrics.IncrementBatch(metrics.BatchFailed)
		return pkgerrors.ErrInternal
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	fail := func(msg string, studentID int64, err error) error {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error(msg,
			zap.Int64("discipline_id", req.DisciplineID),
			zap.Int64("teacher_id", req.TeacherID),
			zap.Int64("student_id", studentID),
			zap.Error(err))
		s.metrics.IncrementBatch(metrics.BatchFailed)
		return pkgerrors.ErrInternal
	}

	written := 0
	for _, b := range batches {
		submitted := make([]float64, 0, len(b.indicators))
		for _, indicatorID := range b.indicators {
			value := b.values[indicatorID]
			submitted = append(submitted, value)

			if err := txRepo.Score.UpsertFact(ctx, &model.StudentIndicatorDisciplineScore{
				StudentID:    b.studentID,
				DisciplineID: req.DisciplineID,
				IndicatorID:  indicatorID,
				TeacherID:    req.TeacherID,
				Score:        value,
			}); err != nil {
				return fail("写入指标评分失败，事务回滚", b.studentID, err)
			}
			if err := s.syncLegacy(ctx, txRepo, b.studentID, indicatorID, req.TeacherID, value); err != nil {
				return fail("同步旧版评分失败，事务回滚", b.studentID, err)
			}
			written++
		}

		if err := txRepo.Score.UpsertDisciplineScore(ctx, &model.DisciplineScore{
			StudentID:    b.studentID,
			DisciplineID: req.DisciplineID,
			Score:        scoring.DisciplineAverage(submitted),
		}); err != nil {
			return fail("写入课程平均分失败，事务回滚", b.studentID, err)
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			s.metrics.IncrementBatch(metrics.BatchFailed)
			return pkgerrors.ErrInternal
		}
	}

	s.metrics.AddScoresRecorded(written)
	s.metrics.IncrementBatch(metrics.BatchOK)
	s.logger.Info("评分批次已保存",
		zap.Int64("discipline_id", req.DisciplineID),
		zap.Int64("teacher_id", req.TeacherID),
		zap.Int("students", len(batches)),
		zap.Int("scores", written))
	return nil
}

// validateBatch 按固定顺序校验：课程 → 教师权限 → 逐条（学生、指标、分数）
// 同一 (学生, 指标) 在批次中重复出现时以最后一次为准
func (s *teacherService) validateBatch(ctx context.Context, req *dto.SaveScoresRequest) ([]*studentBatch, error) {
	discipline, err := s.authorize(ctx, req.DisciplineID, req.TeacherID)
	if err != nil {
		return nil, err
	}

	studentIDs := make([]int64, 0, len(req.Scores))
	for _, item := range req.Scores {
		studentIDs = append(studentIDs, item.StudentID)
	}
	existing, err := s.repo.Student.ExistingIDs(ctx, studentIDs)
	if err != nil {
		s.logger.Error("查询学生失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	allowed := make(map[int64]bool, len(discipline.Indicators))
	for _, ind := range discipline.Indicators {
		allowed[ind.ID] = true
	}

	var batches []*studentBatch
	byStudent := make(map[int64]*studentBatch)
	for _, item := range req.Scores {
		if !existing[item.StudentID] {
			return nil, ErrStudentNotFound
		}
		if !allowed[item.IndicatorID] {
			return nil, ErrIndicatorNotFound
		}
		if item.Score == nil || !s.rules.ValidScore(*item.Score) {
			return nil, ErrInvalidScore
		}

		b, ok := byStudent[item.StudentID]
		if !ok {
			b = &studentBatch{studentID: item.StudentID, values: make(map[int64]float64)}
			byStudent[item.StudentID] = b
			batches = append(batches, b)
		}
		if _, seen := b.values[item.IndicatorID]; !seen {
			b.indicators = append(b.indicators, item.IndicatorID)
		}
		b.values[item.IndicatorID] = *item.Score
	}
	return batches, nil
}

// syncLegacy 旧版 indicator_scores 兼容写入，仅由写路径调用
func (s *teacherService) syncLegacy(ctx context.Context, repo *repository.Repository, studentID, indicatorID, teacherID int64, value float64) error {
	return repo.Score.UpsertLegacy(ctx, &model.IndicatorScore{
		StudentID:   studentID,
		IndicatorID: indicatorID,
		TeacherID:   teacherID,
		ScoreValue:  value,
	})
}

// authorize 课程存在且教师被分配到该课程
func (s *teacherService) authorize(ctx context.Context, disciplineID, teacherID int64) (*model.Discipline, error) {
	discipline, err := s.repo.Discipline.GetByID(ctx, disciplineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisciplineNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("discipline_id", disciplineID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	teaches, err := s.repo.Teacher.TeachesDiscipline(ctx, teacherID, disciplineID)
	if err != nil {
		s.logger.Error("查询教师课程权限失败",
			zap.Int64("teacher_id", teacherID), zap.Int64("discipline_id", disciplineID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if !teaches {
		return nil, ErrTeacherNoAccess
	}
	return discipline, nil
}
