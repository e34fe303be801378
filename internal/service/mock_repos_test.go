package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"compass/internal/model"
	"compass/internal/repository"
)

// ── 内存数据集 ──
// 所有 mock 仓储共享同一个 mockStore，便于写入后立即读取验证

type pair [2]int64
type triple [3]int64

type mockStore struct {
	users       map[int64]*model.User
	roles       map[string]*model.Role
	userRoles   map[int64]int64
	tokens      map[int64]*model.UserToken
	students    map[int64]*model.Student
	teachers    map[int64]*model.Teacher
	groups      map[int64]*model.Group
	disciplines map[int64]*model.Discipline
	indicators  map[int64]*model.Indicator
	competences map[int64]*model.Competence
	proles      map[int64]*model.ProfessionalRole

	disciplineTeachers map[pair]bool // {discipline, teacher}
	groupDisciplines   map[pair]bool // {group, discipline}

	facts            map[triple]*model.StudentIndicatorDisciplineScore // {student, discipline, indicator}
	legacy           map[triple]*model.IndicatorScore                  // {student, indicator, teacher}
	disciplineScores map[pair]*model.DisciplineScore                   // {student, discipline}
	competenceScores map[pair]*model.CompetenceScore                   // {student, competence}

	nextID int64
	writes int              // 写操作计数
	fail   map[string]error // 方法名 -> 注入的错误
}

func newMockStore() *mockStore {
	return &mockStore{
		users: make(map[int64]*model.User),
		roles: map[string]*model.Role{
			model.RoleAdmin:   {ID: 1, Name: model.RoleAdmin},
			model.RoleTeacher: {ID: 2, Name: model.RoleTeacher},
			model.RoleStudent: {ID: 3, Name: model.RoleStudent},
		},
		userRoles:          make(map[int64]int64),
		tokens:             make(map[int64]*model.UserToken),
		students:           make(map[int64]*model.Student),
		teachers:           make(map[int64]*model.Teacher),
		groups:             make(map[int64]*model.Group),
		disciplines:        make(map[int64]*model.Discipline),
		indicators:         make(map[int64]*model.Indicator),
		competences:        make(map[int64]*model.Competence),
		proles:             make(map[int64]*model.ProfessionalRole),
		disciplineTeachers: make(map[pair]bool),
		groupDisciplines:   make(map[pair]bool),
		facts:              make(map[triple]*model.StudentIndicatorDisciplineScore),
		legacy:             make(map[triple]*model.IndicatorScore),
		disciplineScores:   make(map[pair]*model.DisciplineScore),
		competenceScores:   make(map[pair]*model.CompetenceScore),
		nextID:             1000,
		fail:               make(map[string]error),
	}
}

// write 记录一次写操作；若该方法被注入错误则返回错误
func (s *mockStore) write(method string) error {
	if err := s.fail[method]; err != nil {
		return err
	}
	s.writes++
	return nil
}

func (s *mockStore) roleByID(id int64) *model.Role {
	for _, r := range s.roles {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// newMockRepository 以 mockStore 构造 Repository 聚合（未绑定数据库，BeginTx 返回 nil）
func newMockRepository(s *mockStore) *repository.Repository {
	return &repository.Repository{
		User:             &mockUserRepo{s},
		Role:             &mockRoleRepo{s},
		Token:            &mockTokenRepo{s},
		Student:          &mockStudentRepo{s},
		Teacher:          &mockTeacherRepo{s},
		Group:            &mockGroupRepo{s},
		Discipline:       &mockDisciplineRepo{s},
		Indicator:        &mockIndicatorRepo{s},
		Competence:       &mockCompetenceRepo{s},
		ProfessionalRole: &mockProfessionalRoleRepo{s},
		Score:            &mockScoreRepo{s},
	}
}

// ── Mock UserRepository ──

type mockUserRepo struct{ s *mockStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if err := m.s.write("User.Create"); err != nil {
		return err
	}
	if user.ID == 0 {
		m.s.nextID++
		user.ID = m.s.nextID
	}
	stored := *user
	stored.Student, stored.Teacher, stored.Roles = nil, nil, nil
	m.s.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) load(u *model.User) *model.User {
	out := *u
	out.Student, out.Teacher, out.Roles = nil, nil, nil
	if st, ok := m.s.students[u.ID]; ok {
		cp := *st
		out.Student = &cp
	}
	if t, ok := m.s.teachers[u.ID]; ok {
		cp := *t
		out.Teacher = &cp
	}
	if roleID, ok := m.s.userRoles[u.ID]; ok {
		if r := m.s.roleByID(roleID); r != nil {
			out.Roles = []model.Role{*r}
		}
	}
	return &out
}

func (m *mockUserRepo) GetByID(_ context.Context, id int64) (*model.User, error) {
	if u, ok := m.s.users[id]; ok {
		return m.load(u), nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByLogin(_ context.Context, login string) (*model.User, error) {
	for _, u := range m.s.users {
		if u.Login == login {
			return m.load(u), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	if err := m.s.write("User.Update"); err != nil {
		return err
	}
	stored := *user
	stored.Student, stored.Teacher, stored.Roles = nil, nil, nil
	m.s.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id int64) error {
	if err := m.s.write("User.Delete"); err != nil {
		return err
	}
	delete(m.s.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	ids := make([]int64, 0, len(m.s.users))
	for id := range m.s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	total := int64(len(ids))
	if offset > len(ids) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(ids) {
		end = len(ids)
	}
	var result []model.User
	for _, id := range ids[offset:end] {
		result = append(result, *m.load(m.s.users[id]))
	}
	return result, total, nil
}

// ── Mock RoleRepository ──

type mockRoleRepo struct{ s *mockStore }

func (m *mockRoleRepo) GetByName(_ context.Context, name string) (*model.Role, error) {
	if r, ok := m.s.roles[name]; ok {
		return r, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRoleRepo) ReplaceUserRole(_ context.Context, userID, roleID int64) error {
	if err := m.s.write("Role.ReplaceUserRole"); err != nil {
		return err
	}
	m.s.userRoles[userID] = roleID
	return nil
}

func (m *mockRoleRepo) DeleteUserRoles(_ context.Context, userID int64) error {
	if err := m.s.write("Role.DeleteUserRoles"); err != nil {
		return err
	}
	delete(m.s.userRoles, userID)
	return nil
}

// ── Mock TokenRepository ──

type mockTokenRepo struct{ s *mockStore }

func (m *mockTokenRepo) Upsert(_ context.Context, token *model.UserToken) error {
	if err := m.s.write("Token.Upsert"); err != nil {
		return err
	}
	t := *token
	m.s.tokens[token.UserID] = &t
	return nil
}

func (m *mockTokenRepo) GetByUserID(_ context.Context, userID int64) (*model.UserToken, error) {
	if t, ok := m.s.tokens[userID]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTokenRepo) DeleteByUserID(_ context.Context, userID int64) error {
	if err := m.s.write("Token.DeleteByUserID"); err != nil {
		return err
	}
	delete(m.s.tokens, userID)
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct{ s *mockStore }

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if err := m.s.write("Student.Create"); err != nil {
		return err
	}
	st := *student
	m.s.students[student.ID] = &st
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id int64) (*model.Student, error) {
	if st, ok := m.s.students[id]; ok {
		out := *st
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	if err := m.s.write("Student.Update"); err != nil {
		return err
	}
	st := *student
	m.s.students[student.ID] = &st
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id int64) error {
	if err := m.s.write("Student.Delete"); err != nil {
		return err
	}
	delete(m.s.students, id)
	return nil
}

func (m *mockStudentRepo) ListByGroup(_ context.Context, groupID int64) ([]model.Student, error) {
	var result []model.Student
	for _, st := range m.s.students {
		if st.GroupID != nil && *st.GroupID == groupID {
			result = append(result, *st)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockStudentRepo) ExistingIDs(_ context.Context, ids []int64) (map[int64]bool, error) {
	found := make(map[int64]bool)
	for _, id := range ids {
		if _, ok := m.s.students[id]; ok {
			found[id] = true
		}
	}
	return found, nil
}

// ── Mock TeacherRepository ──

type mockTeacherRepo struct{ s *mockStore }

func (m *mockTeacherRepo) Create(_ context.Context, teacher *model.Teacher) error {
	if err := m.s.write("Teacher.Create"); err != nil {
		return err
	}
	t := *teacher
	m.s.teachers[teacher.ID] = &t
	return nil
}

func (m *mockTeacherRepo) GetByID(_ context.Context, id int64) (*model.Teacher, error) {
	if t, ok := m.s.teachers[id]; ok {
		out := *t
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTeacherRepo) Update(_ context.Context, teacher *model.Teacher) error {
	if err := m.s.write("Teacher.Update"); err != nil {
		return err
	}
	t := *teacher
	m.s.teachers[teacher.ID] = &t
	return nil
}

func (m *mockTeacherRepo) Delete(_ context.Context, id int64) error {
	if err := m.s.write("Teacher.Delete"); err != nil {
		return err
	}
	delete(m.s.teachers, id)
	for k := range m.s.disciplineTeachers {
		if k[1] == id {
			delete(m.s.disciplineTeachers, k)
		}
	}
	return nil
}

func (m *mockTeacherRepo) TeachesDiscipline(_ context.Context, teacherID, disciplineID int64) (bool, error) {
	return m.s.disciplineTeachers[pair{disciplineID, teacherID}], nil
}

func (m *mockTeacherRepo) ListDisciplines(_ context.Context, teacherID int64) ([]model.Discipline, error) {
	var result []model.Discipline
	for k := range m.s.disciplineTeachers {
		if k[1] == teacherID {
			if d, ok := m.s.disciplines[k[0]]; ok {
				result = append(result, *d)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock GroupRepository ──

type mockGroupRepo struct{ s *mockStore }

func (m *mockGroupRepo) GetByID(_ context.Context, id int64) (*model.Group, error) {
	if g, ok := m.s.groups[id]; ok {
		out := *g
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) GetByName(_ context.Context, name string) (*model.Group, error) {
	for _, g := range m.s.groups {
		if g.Name == name {
			out := *g
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockGroupRepo) List(ctx context.Context) ([]model.Group, error) {
	var result []model.Group
	for _, g := range m.s.groups {
		out := *g
		if g.CuratorID != nil {
			out.Curator = m.s.teachers[*g.CuratorID]
		}
		out.Students, _ = (&mockStudentRepo{m.s}).ListByGroup(ctx, g.ID)
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *mockGroupRepo) HasDiscipline(_ context.Context, groupID, disciplineID int64) (bool, error) {
	return m.s.groupDisciplines[pair{groupID, disciplineID}], nil
}

// ── Mock DisciplineRepository ──

type mockDisciplineRepo struct{ s *mockStore }

func (m *mockDisciplineRepo) GetByID(_ context.Context, id int64) (*model.Discipline, error) {
	if d, ok := m.s.disciplines[id]; ok {
		out := *d
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDisciplineRepo) List(_ context.Context) ([]model.Discipline, error) {
	var result []model.Discipline
	for _, d := range m.s.disciplines {
		result = append(result, *d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDisciplineRepo) ListByGroup(_ context.Context, groupID int64) ([]model.Discipline, error) {
	var result []model.Discipline
	for k := range m.s.groupDisciplines {
		if k[0] != groupID {
			continue
		}
		d, ok := m.s.disciplines[k[1]]
		if !ok {
			continue
		}
		out := *d
		out.Teachers = nil
		for dt := range m.s.disciplineTeachers {
			if dt[0] == d.ID {
				if t, ok := m.s.teachers[dt[1]]; ok {
					out.Teachers = append(out.Teachers, *t)
				}
			}
		}
		sort.Slice(out.Teachers, func(i, j int) bool { return out.Teachers[i].ID < out.Teachers[j].ID })
		result = append(result, out)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockDisciplineRepo) Create(_ context.Context, discipline *model.Discipline) error {
	if err := m.s.write("Discipline.Create"); err != nil {
		return err
	}
	m.s.nextID++
	discipline.ID = m.s.nextID
	d := *discipline
	m.s.disciplines[d.ID] = &d
	return nil
}

func (m *mockDisciplineRepo) Update(_ context.Context, discipline *model.Discipline) error {
	if err := m.s.write("Discipline.Update"); err != nil {
		return err
	}
	d := *discipline
	m.s.disciplines[d.ID] = &d
	return nil
}

func (m *mockDisciplineRepo) Delete(_ context.Context, id int64) error {
	if err := m.s.write("Discipline.Delete"); err != nil {
		return err
	}
	delete(m.s.disciplines, id)
	return nil
}

// ── Mock IndicatorRepository ──

type mockIndicatorRepo struct{ s *mockStore }

func (m *mockIndicatorRepo) GetByIDs(_ context.Context, ids []int64) ([]model.Indicator, error) {
	var result []model.Indicator
	for _, id := range ids {
		if ind, ok := m.s.indicators[id]; ok {
			result = append(result, *ind)
		}
	}
	return result, nil
}

// ── Mock CompetenceRepository ──

type mockCompetenceRepo struct{ s *mockStore }

func (m *mockCompetenceRepo) GetByID(_ context.Context, id int64) (*model.Competence, error) {
	if c, ok := m.s.competences[id]; ok {
		out := *c
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCompetenceRepo) List(_ context.Context) ([]model.Competence, error) {
	var result []model.Competence
	for _, c := range m.s.competences {
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock ProfessionalRoleRepository ──

type mockProfessionalRoleRepo struct{ s *mockStore }

func (m *mockProfessionalRoleRepo) GetByID(_ context.Context, id int64) (*model.ProfessionalRole, error) {
	if p, ok := m.s.proles[id]; ok {
		out := *p
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProfessionalRoleRepo) List(_ context.Context) ([]model.ProfessionalRole, error) {
	var result []model.ProfessionalRole
	for _, p := range m.s.proles {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// ── Mock ScoreRepository ──

type mockScoreRepo struct{ s *mockStore }

func (m *mockScoreRepo) UpsertFact(_ context.Context, fact *model.StudentIndicatorDisciplineScore) error {
	if err := m.s.write("Score.UpsertFact"); err != nil {
		return err
	}
	k := triple{fact.StudentID, fact.DisciplineID, fact.IndicatorID}
	f := *fact
	if existing, ok := m.s.facts[k]; ok {
		f.ID = existing.ID
	} else {
		m.s.nextID++
		f.ID = m.s.nextID
	}
	m.s.facts[k] = &f
	return nil
}

func (m *mockScoreRepo) filterFacts(keep func(*model.StudentIndicatorDisciplineScore) bool) []model.StudentIndicatorDisciplineScore {
	var result []model.StudentIndicatorDisciplineScore
	for _, f := range m.s.facts {
		if keep(f) {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *mockScoreRepo) ListFactsByDiscipline(_ context.Context, studentID, disciplineID int64) ([]model.StudentIndicatorDisciplineScore, error) {
	return m.filterFacts(func(f *model.StudentIndicatorDisciplineScore) bool {
		return f.StudentID == studentID && f.DisciplineID == disciplineID
	}), nil
}

func (m *mockScoreRepo) ListFactsByStudents(_ context.Context, disciplineID int64, studentIDs []int64) ([]model.StudentIndicatorDisciplineScore, error) {
	set := make(map[int64]bool, len(studentIDs))
	for _, id := range studentIDs {
		set[id] = true
	}
	return m.filterFacts(func(f *model.StudentIndicatorDisciplineScore) bool {
		return f.DisciplineID == disciplineID && set[f.StudentID]
	}), nil
}

func (m *mockScoreRepo) ListFactsByIndicators(_ context.Context, studentID int64, indicatorIDs []int64) ([]model.StudentIndicatorDisciplineScore, error) {
	set := make(map[int64]bool, len(indicatorIDs))
	for _, id := range indicatorIDs {
		set[id] = true
	}
	return m.filterFacts(func(f *model.StudentIndicatorDisciplineScore) bool {
		return f.StudentID == studentID && set[f.IndicatorID]
	}), nil
}

func (m *mockScoreRepo) ListFactsByStudent(_ context.Context, studentID int64) ([]model.StudentIndicatorDisciplineScore, error) {
	return m.filterFacts(func(f *model.StudentIndicatorDisciplineScore) bool {
		return f.StudentID == studentID
	}), nil
}

func (m *mockScoreRepo) UpsertLegacy(_ context.Context, score *model.IndicatorScore) error {
	if err := m.s.write("Score.UpsertLegacy"); err != nil {
		return err
	}
	v := *score
	m.s.legacy[triple{score.StudentID, score.IndicatorID, score.TeacherID}] = &v
	return nil
}

func (m *mockScoreRepo) UpsertDisciplineScore(_ context.Context, score *model.DisciplineScore) error {
	if err := m.s.write("Score.UpsertDisciplineScore"); err != nil {
		return err
	}
	v := *score
	m.s.disciplineScores[pair{score.StudentID, score.DisciplineID}] = &v
	return nil
}

func (m *mockScoreRepo) GetDisciplineScore(_ context.Context, studentID, disciplineID int64) (*model.DisciplineScore, error) {
	if v, ok := m.s.disciplineScores[pair{studentID, disciplineID}]; ok {
		out := *v
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScoreRepo) ListDisciplineScores(_ context.Context, studentID int64) ([]model.DisciplineScore, error) {
	var result []model.DisciplineScore
	for k, v := range m.s.disciplineScores {
		if k[0] == studentID {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *mockScoreRepo) UpsertCompetenceScore(_ context.Context, score *model.CompetenceScore) error {
	if err := m.s.write("Score.UpsertCompetenceScore"); err != nil {
		return err
	}
	v := *score
	m.s.competenceScores[pair{score.StudentID, score.CompetenceID}] = &v
	return nil
}

func (m *mockScoreRepo) ListCompetenceScores(_ context.Context, studentID int64, competenceIDs []int64) ([]model.CompetenceScore, error) {
	var result []model.CompetenceScore
	for _, id := range competenceIDs {
		if v, ok := m.s.competenceScores[pair{studentID, id}]; ok {
			result = append(result, *v)
		}
	}
	return result, nil
}

func (m *mockScoreRepo) DeleteByStudent(_ context.Context, studentID int64) error {
	if err := m.s.write("Score.DeleteByStudent"); err != nil {
		return err
	}
	for k := range m.s.facts {
		if k[0] == studentID {
			delete(m.s.facts, k)
		}
	}
	for k := range m.s.legacy {
		if k[0] == studentID {
			delete(m.s.legacy, k)
		}
	}
	for k := range m.s.disciplineScores {
		if k[0] == studentID {
			delete(m.s.disciplineScores, k)
		}
	}
	for k := range m.s.competenceScores {
		if k[0] == studentID {
			delete(m.s.competenceScores, k)
		}
	}
	return nil
}
