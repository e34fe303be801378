package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"compass/internal/dto"
	"compass/internal/model"
	"compass/internal/repository"
	pkgerrors "compass/pkg/errors"
)

// CatalogService 目录管理：课程增删改查，班级 / 能力 / 职业角色列表
type CatalogService interface {
	ListDisciplines(ctx context.Context) ([]dto.DisciplineItem, error)
	CreateDiscipline(ctx context.Context, req *dto.DisciplineRequest) (*dto.DisciplineItem, error)
	UpdateDiscipline(ctx context.Context, id int64, req *dto.DisciplineRequest) (*dto.DisciplineItem, error)
	DeleteDiscipline(ctx context.Context, id int64) error

	ListGroups(ctx context.Context) ([]dto.GroupItem, error)
	ListCompetences(ctx context.Context) ([]dto.CompetenceItem, error)
	ListProfessionalRoles(ctx context.Context) ([]dto.ProfessionalRoleItem, error)
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

// ────────────────────── Discipline ──────────────────────

func (s *catalogService) ListDisciplines(ctx context.Context) ([]dto.DisciplineItem, error) {
	list, err := s.repo.Discipline.List(ctx)
	if err != nil {
		s.logger.Error("查询课程列表失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	items := make([]dto.DisciplineItem, 0, len(list))
	for i := range list {
		items = append(items, toDisciplineItem(&list[i]))
	}
	return items, nil
}

func (s *catalogService) CreateDiscipline(ctx context.Context, req *dto.DisciplineRequest) (*dto.DisciplineItem, error) {
	indicators, err := s.resolveIndicators(ctx, req.IndicatorIDs)
	if err != nil {
		return nil, err
	}

	d := &model.Discipline{Index: req.Index, Name: req.Name, Indicators: indicators}
	if err := s.repo.Discipline.Create(ctx, d); err != nil {
		s.logger.Error("创建课程失败", zap.String("name", req.Name), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	item := toDisciplineItem(d)
	return &item, nil
}

func (s *catalogService) UpdateDiscipline(ctx context.Context, id int64, req *dto.DisciplineRequest) (*dto.DisciplineItem, error) {
	d, err := s.repo.Discipline.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDisciplineNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("discipline_id", id), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	indicators, err := s.resolveIndicators(ctx, req.IndicatorIDs)
	if err != nil {
		return nil, err
	}

	d.Index = req.Index
	d.Name = req.Name
	d.Indicators = indicators
	if err := s.repo.Discipline.Update(ctx, d); err != nil {
		s.logger.Error("更新课程失败", zap.Int64("discipline_id", id), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	item := toDisciplineItem(d)
	return &item, nil
}

func (s *catalogService) DeleteDiscipline(ctx context.Context, id int64) error {
	if _, err := s.repo.Discipline.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDisciplineNotFound
		}
		s.logger.Error("查询课程失败", zap.Int64("discipline_id", id), zap.Error(err))
		return pkgerrors.ErrInternal
	}

	if err := s.repo.Discipline.Delete(ctx, id); err != nil {
		s.logger.Error("删除课程失败", zap.Int64("discipline_id", id), zap.Error(err))
		return pkgerrors.ErrInternal
	}
	return nil
}

// resolveIndicators 所有 id 都必须存在，重复 id 合并
func (s *catalogService) resolveIndicators(ctx context.Context, ids []int64) ([]model.Indicator, error) {
	unique := make([]int64, 0, len(ids))
	seen := make(map[int64]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	indicators, err := s.repo.Indicator.GetByIDs(ctx, unique)
	if err != nil {
		s.logger.Error("查询指标失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if len(indicators) != len(unique) {
		return nil, ErrIndicatorNotFound
	}
	return indicators, nil
}

func toDisciplineItem(d *model.Discipline) dto.DisciplineItem {
	return dto.DisciplineItem{
		ID:             d.ID,
		Index:          d.Index,
		Name:           d.Name,
		IndicatorCount: len(d.Indicators),
		IndicatorIDs:   indicatorIDs(d.Indicators),
	}
}

// ────────────────────── Group ──────────────────────

func (s *catalogService) ListGroups(ctx context.Context) ([]dto.GroupItem, error) {
	groups, err := s.repo.Group.List(ctx)
	if err != nil {
		s.logger.Error("查询班级列表失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	items := make([]dto.GroupItem, 0, len(groups))
	for _, g := range groups {
		item := dto.GroupItem{
			ID:           g.ID,
			Name:         g.Name,
			StudentCount: len(g.Students),
			Students:     make([]dto.GroupStudent, 0, len(g.Students)),
		}
		if g.Curator != nil {
			item.Curator = g.Curator.FullName()
		}
		for _, st := range g.Students {
			item.Students = append(item.Students, dto.GroupStudent{ID: st.ID, FullName: st.FullName()})
		}
		items = append(items, item)
	}
	return items, nil
}

// ────────────────────── Competence / ProfessionalRole ──────────────────────

func (s *catalogService) ListCompetences(ctx context.Context) ([]dto.CompetenceItem, error) {
	list, err := s.repo.Competence.List(ctx)
	if err != nil {
		s.logger.Error("查询能力列表失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	items := make([]dto.CompetenceItem, 0, len(list))
	for _, c := range list {
		roleIDs := make([]int64, 0, len(c.ProfessionalRoles))
		for _, r := range c.ProfessionalRoles {
			roleIDs = append(roleIDs, r.ID)
		}
		items = append(items, dto.CompetenceItem{
			ID:                  c.ID,
			Index:               c.Index,
			Name:                c.Name,
			Description:         c.Description,
			IndicatorIDs:        indicatorIDs(c.Indicators),
			ProfessionalRoleIDs: roleIDs,
		})
	}
	return items, nil
}

func (s *catalogService) ListProfessionalRoles(ctx context.Context) ([]dto.ProfessionalRoleItem, error) {
	list, err := s.repo.ProfessionalRole.List(ctx)
	if err != nil {
		s.logger.Error("查询职业角色列表失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	items := make([]dto.ProfessionalRoleItem, 0, len(list))
	for _, p := range list {
		ids := make([]int64, 0, len(p.Competences))
		for _, c := range p.Competences {
			ids = append(ids, c.ID)
		}
		items = append(items, dto.ProfessionalRoleItem{
			ID:            p.ID,
			Index:         p.Index,
			Name:          p.Name,
			Description:   p.Description,
			CompetenceIDs: ids,
		})
	}
	return items, nil
}
