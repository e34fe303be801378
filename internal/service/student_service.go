package service

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compass/internal/dto"
	"compass/internal/model"
	"compass/internal/repository"
	"compass/internal/scoring"
	pkgerrors "compass/pkg/errors"
	"compass/pkg/metrics"
)

// ── 学生聚合模块业务错误 ──

var (
	ErrStudentNotFound            = errors.New("学生不存在")
	ErrStudentHasNoGroup          = errors.New("学生未分配班级")
	ErrGroupDoesNotHaveDiscipline = errors.New("班级未开设该课程")
	ErrGroupHasNoProfessionalRole = errors.New("班级未设置职业角色")
	ErrDisciplineNotFound         = errors.New("课程不存在")
	ErrCompetenceNotFound         = errors.New("能力不存在")
)

// StudentService 学生成绩聚合接口
//
// 所有聚合只读取权威评分表；CompetenceScore 缓存由
// ComputeCompetenceProgress 与 ComputeProfessionalRoleReadiness 回写。
type StudentService interface {
	// ComputeDisciplineScores 课程内各指标得分与课程平均分（只读）
	ComputeDisciplineScores(ctx context.Context, studentID, disciplineID int64) (*dto.DisciplineScoresResponse, error)
	// ComputeCompetenceProgress 单个能力进度，结果回写缓存
	ComputeCompetenceProgress(ctx context.Context, studentID, competenceID int64) (*dto.CompetenceScoresResponse, error)
	// ComputeAllCompetenceProgress 全部能力进度（不回写缓存）
	ComputeAllCompetenceProgress(ctx context.Context, studentID int64) ([]dto.CompetenceProgressItem, error)
	// ComputeProfessionalRoleReadiness 班级职业角色的就绪度
	ComputeProfessionalRoleReadiness(ctx context.Context, studentID int64) (*dto.RoleReadinessResponse, error)
	// ListDisciplines 学生所在班级的课程及课程平均分
	ListDisciplines(ctx context.Context, studentID int64) ([]dto.StudentDisciplineItem, error)
}

type studentService struct {
	repo    *repository.Repository
	rules   scoring.Rules
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(repo *repository.Repository, rules scoring.Rules, m *metrics.Metrics, logger *zap.Logger) StudentService {
	return &studentService{repo: repo, rules: rules, metrics: m, logger: logger}
}

// ────────────────────── ComputeDisciplineScores ──────────────────────

func (s *studentService) ComputeDisciplineScores(ctx context.Context, studentID, disciplineID int64) (*dto.DisciplineScoresResponse, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.GroupID == nil {
		return nil, ErrStudentHasNoGroup
	}

	enrolled, err := s.repo.Group.HasDiscipline(ctx, *student.GroupID, disciplineID)
	if err != nil {
		s.logger.Error("查询班级课程失败", zap.Int64("group_id", *student.GroupID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if !enrolled {
		return nil, ErrGroupDoesNotHaveDiscipline
	}

	discipline, err := s.repo.Discipline.GetByID(ctx, disciplineID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisciplineNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("discipline_id", disciplineID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	facts, err := s.repo.Score.ListFactsByDiscipline(ctx, studentID, disciplineID)
	if err != nil {
		s.logger.Error("查询评分失败",
			zap.Int64("student_id", studentID), zap.Int64("discipline_id", disciplineID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	byIndicator := make(map[int64]float64, len(facts))
	for _, f := range facts {
		byIndicator[f.IndicatorID] = f.Score
	}

	indicators := sortedIndicators(discipline.Indicators)
	resp := &dto.DisciplineScoresResponse{
		DisciplineName: discipline.Name,
		Indicators:     make([]dto.IndicatorScore, 0, len(indicators)),
	}
	for _, ind := range indicators {
		item := dto.IndicatorScore{ID: ind.ID, Index: ind.Index, Name: ind.Name}
		if v, ok := byIndicator[ind.ID]; ok {
			item.Score = &v
		}
		resp.Indicators = append(resp.Indicators, item)
	}

	cached, err := s.repo.Score.GetDisciplineScore(ctx, studentID, disciplineID)
	switch {
	case err == nil:
		v := cached.Score
		resp.DisciplineScore = &v
	case errors.Is(err, gorm.ErrRecordNotFound):
		// 从未评分
	default:
		s.logger.Error("查询课程平均分失败",
			zap.Int64("student_id", studentID), zap.Int64("discipline_id", disciplineID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	return resp, nil
}

// ────────────────────── ComputeCompetenceProgress ──────────────────────

func (s *studentService) ComputeCompetenceProgress(ctx context.Context, studentID, competenceID int64) (*dto.CompetenceScoresResponse, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}

	competence, err := s.repo.Competence.GetByID(ctx, competenceID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompetenceNotFound
		}
		s.logger.Error("查询能力失败", zap.Int64("competence_id", competenceID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	indicators := sortedIndicators(competence.Indicators)
	ids := indicatorIDs(indicators)

	facts, err := s.repo.Score.ListFactsByIndicators(ctx, studentID, ids)
	if err != nil {
		s.logger.Error("查询评分失败",
			zap.Int64("student_id", studentID), zap.Int64("competence_id", competenceID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	averages := scoring.AverageByIndicator(toFacts(facts))
	progress := s.rules.CompetenceProgress(ids, averages)

	if err := s.repo.Score.UpsertCompetenceScore(ctx, &model.CompetenceScore{
		StudentID:    studentID,
		CompetenceID: competenceID,
		Score:        progress,
	}); err != nil {
		s.logger.Error("回写能力进度缓存失败",
			zap.Int64("student_id", studentID), zap.Int64("competence_id", competenceID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	s.metrics.IncrementRecompute(true)

	resp := &dto.CompetenceScoresResponse{
		Name:       competence.Name,
		Indicators: make([]dto.IndicatorScore, 0, len(indicators)),
		Score:      progress,
	}
	for _, ind := range indicators {
		resp.Indicators = append(resp.Indicators, dto.IndicatorScore{
			ID:    ind.ID,
			Index: ind.Index,
			Name:  ind.Name,
			Score: scoring.NullableScore(scoring.Round(averages[ind.ID], 2)),
		})
	}
	return resp, nil
}

// ────────────────────── ComputeAllCompetenceProgress ──────────────────────

func (s *studentService) ComputeAllCompetenceProgress(ctx context.Context, studentID int64) ([]dto.CompetenceProgressItem, error) {
	if _, err := s.getStudent(ctx, studentID); err != nil {
		return nil, err
	}

	competences, err := s.repo.Competence.List(ctx)
	if err != nil {
		s.logger.Error("查询能力列表失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	averages, err := s.studentAverages(ctx, studentID)
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementRecompute(false)

	items := make([]dto.CompetenceProgressItem, 0, len(competences))
	for _, c := range competences {
		items = append(items, dto.CompetenceProgressItem{
			ID:       c.ID,
			Index:    c.Index,
			Name:     c.Name,
			Progress: s.rules.CompetenceProgress(indicatorIDs(c.Indicators), averages),
		})
	}
	return items, nil
}

// ────────────────────── ComputeProfessionalRoleReadiness ──────────────────────

func (s *studentService) ComputeProfessionalRoleReadiness(ctx context.Context, studentID int64) (*dto.RoleReadinessResponse, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.GroupID == nil {
		return nil, ErrStudentHasNoGroup
	}

	group, err := s.repo.Group.GetByID(ctx, *student.GroupID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.Int64("group_id", *student.GroupID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if group.ProleID == nil {
		return nil, ErrGroupHasNoProfessionalRole
	}

	role, err := s.repo.ProfessionalRole.GetByID(ctx, *group.ProleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupHasNoProfessionalRole
		}
		s.logger.Error("查询职业角色失败", zap.Int64("prole_id", *group.ProleID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	averages, err := s.studentAverages(ctx, studentID)
	if err != nil {
		return nil, err
	}

	// 从评分事实重新计算每个能力，并在同一事务中刷新缓存
	competenceIDs := make([]int64, 0, len(role.Competences))
	cache := make([]model.CompetenceScore, 0, len(role.Competences))
	progress := make([]float64, 0, len(role.Competences))
	for _, c := range role.Competences {
		p := s.rules.CompetenceProgress(indicatorIDs(c.Indicators), averages)
		competenceIDs = append(competenceIDs, c.ID)
		progress = append(progress, p)
		cache = append(cache, model.CompetenceScore{StudentID: studentID, CompetenceID: c.ID, Score: p})
	}

	if err := s.refreshCompetenceCache(ctx, cache); err != nil {
		return nil, err
	}

	resp := &dto.RoleReadinessResponse{
		ID:            role.ID,
		Name:          role.Name,
		Index:         role.Index,
		CompetencyIDs: competenceIDs,
	}
	if len(progress) > 0 {
		readiness := s.rules.RoleReadiness(progress)
		resp.Score = &readiness.Average
		resp.CompletedCount = readiness.CompletedCount
	}
	return resp, nil
}

// refreshCompetenceCache 在一个事务中回写多条能力进度缓存
func (s *studentService) refreshCompetenceCache(ctx context.Context, rows []model.CompetenceScore) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
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
	for i := range rows {
		if err := txRepo.Score.UpsertCompetenceScore(ctx, &rows[i]); err != nil {
			if tx != nil {
				tx.Rollback()
			}
			s.logger.Error("回写能力进度缓存失败",
				zap.Int64("student_id", rows[i].StudentID),
				zap.Int64("competence_id", rows[i].CompetenceID),
				zap.Error(err))
			return pkgerrors.ErrInternal
		}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return pkgerrors.ErrInternal
		}
	}
	s.metrics.IncrementRecompute(true)
	return nil
}

// ────────────────────── ListDisciplines ──────────────────────

func (s *studentService) ListDisciplines(ctx context.Context, studentID int64) ([]dto.StudentDisciplineItem, error) {
	student, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if student.GroupID == nil {
		return nil, ErrStudentHasNoGroup
	}

	disciplines, err := s.repo.Discipline.ListByGroup(ctx, *student.GroupID)
	if err != nil {
		s.logger.Error("查询班级课程失败", zap.Int64("group_id", *student.GroupID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	cached, err := s.repo.Score.ListDisciplineScores(ctx, studentID)
	if err != nil {
		s.logger.Error("查询课程平均分失败", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	scoreByDiscipline := make(map[int64]float64, len(cached))
	for _, c := range cached {
		scoreByDiscipline[c.DisciplineID] = c.Score
	}

	items := make([]dto.StudentDisciplineItem, 0, len(disciplines))
	for _, d := range disciplines {
		teacherName := dto.TeacherNotAssigned
		if len(d.Teachers) > 0 {
			teacherName = d.Teachers[0].FullName()
		}
		items = append(items, dto.StudentDisciplineItem{
			ID:          d.ID,
			Name:        d.Name,
			TeacherName: teacherName,
			Score:       scoreByDiscipline[d.ID],
		})
	}
	return items, nil
}

// ── 内部辅助方法 ──

func (s *studentService) getStudent(ctx context.Context, id int64) (*model.Student, error) {
	student, err := s.repo.Student.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		s.logger.Error("查询学生失败", zap.Int64("student_id", id), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	return student, nil
}

// studentAverages 学生每个指标跨课程的平均分
func (s *studentService) studentAverages(ctx context.Context, studentID int64) (map[int64]float64, error) {
	facts, err := s.repo.Score.ListFactsByStudent(ctx, studentID)
	if err != nil {
		s.logger.Error("查询评分失败", zap.Int64("student_id", studentID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	return scoring.AverageByIndicator(toFacts(facts)), nil
}

func toFacts(rows []model.StudentIndicatorDisciplineScore) []scoring.Fact {
	facts := make([]scoring.Fact, 0, len(rows))
	for _, r := range rows {
		facts = append(facts, scoring.Fact{IndicatorID: r.IndicatorID, Value: r.Score})
	}
	return facts
}

// sortedIndicators 按 ordinal、id 排序的副本
func sortedIndicators(list []model.Indicator) []model.Indicator {
	out := make([]model.Indicator, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Ordinal != out[j].Ordinal {
			return out[i].Ordinal < out[j].Ordinal
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func indicatorIDs(list []model.Indicator) []int64 {
	ids := make([]int64, 0, len(list))
	for _, ind := range list {
		ids = append(ids, ind.ID)
	}
	return ids
}
