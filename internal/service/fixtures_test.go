package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"compass/internal/model"
)

// ── 测试数据 ──
//
//	教师 10（课程 1、3）         教师 11（无课程）
//	班级 1「ИВТ-21」→ 职业角色 1   班级 2「ИВТ-22」无职业角色
//	学生 100、101 ∈ 班级 1；学生 102 无班级；学生 103 ∈ 班级 2
//	课程 1：指标 1、2            课程 2：指标 3（班级 1 未开设）
//	课程 3：指标 5、6、7
//	能力 1：指标 1、2；能力 2：无指标；能力 3：指标 3
//	职业角色 1：能力 1、2

const testPassword = "password123"

func ptr[T any](v T) *T { return &v }

func seedUser(s *mockStore, id int64, login, role string) *model.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	u := &model.User{ID: id, Login: login, PasswordHash: string(hash)}
	s.users[id] = u
	if r, ok := s.roles[role]; ok {
		s.userRoles[id] = r.ID
	}
	return u
}

func seedTeacher(s *mockStore, id int64, last, first, middle string) {
	seedUser(s, id, last+"@uni.test", model.RoleTeacher)
	s.teachers[id] = &model.Teacher{ID: id, Person: model.Person{
		Lastname: last, Firstname: first, Middlename: middle, IsActive: true,
	}}
}

func seedStudent(s *mockStore, id int64, last, first string, groupID *int64) {
	seedUser(s, id, last+"@uni.test", model.RoleStudent)
	s.students[id] = &model.Student{ID: id, GroupID: groupID, Person: model.Person{
		Lastname: last, Firstname: first, IsActive: true,
	}}
}

func seedDiscipline(s *mockStore, id int64, name string, indicatorIDs ...int64) {
	d := &model.Discipline{ID: id, Index: fmt.Sprintf("Б1.О.%02d", id), Name: name}
	for _, iid := range indicatorIDs {
		d.Indicators = append(d.Indicators, *s.indicators[iid])
	}
	s.disciplines[id] = d
}

func seedCompetence(s *mockStore, id int64, name string, indicatorIDs ...int64) *model.Competence {
	c := &model.Competence{ID: id, Index: "ПК-" + name, Name: name}
	for _, iid := range indicatorIDs {
		c.Indicators = append(c.Indicators, *s.indicators[iid])
	}
	s.competences[id] = c
	return c
}

// seedCatalog 构造上方注释描述的完整数据集
func seedCatalog() *mockStore {
	s := newMockStore()

	seedUser(s, 1, "admin@uni.test", model.RoleAdmin)
	seedTeacher(s, 10, "Петров", "Иван", "Сергеевич")
	seedTeacher(s, 11, "Сидоров", "Олег", "")

	s.groups[1] = &model.Group{ID: 1, Name: "ИВТ-21", CuratorID: ptr(int64(10)), ProleID: ptr(int64(1))}
	s.groups[2] = &model.Group{ID: 2, Name: "ИВТ-22"}

	seedStudent(s, 100, "Смирнова", "Анна", ptr(int64(1)))
	seedStudent(s, 101, "Кузнецов", "Павел", ptr(int64(1)))
	seedStudent(s, 102, "Орлов", "Денис", nil)
	seedStudent(s, 103, "Волкова", "Мария", ptr(int64(2)))

	for id, ord := range map[int64]int{1: 1, 2: 2, 3: 1, 5: 1, 6: 2, 7: 3} {
		s.indicators[id] = &model.Indicator{ID: id, Index: fmt.Sprintf("ИПК-%d", id), Name: "Индикатор", Ordinal: ord}
	}

	seedDiscipline(s, 1, "Алгоритмы", 1, 2)
	seedDiscipline(s, 2, "Сети", 3)
	seedDiscipline(s, 3, "Базы данных", 5, 6, 7)

	s.disciplineTeachers[pair{1, 10}] = true
	s.disciplineTeachers[pair{3, 10}] = true
	s.groupDisciplines[pair{1, 1}] = true
	s.groupDisciplines[pair{1, 3}] = true
	s.groupDisciplines[pair{2, 2}] = true

	c1 := seedCompetence(s, 1, "Проектирование", 1, 2)
	c2 := seedCompetence(s, 2, "Пустая")
	seedCompetence(s, 3, "Сетевое", 3)

	s.proles[1] = &model.ProfessionalRole{
		ID: 1, Index: "06.001", Name: "Программист",
		Competences: []model.Competence{*c1, *c2},
	}
	c1.ProfessionalRoles = []model.ProfessionalRole{{ID: 1}}
	c2.ProfessionalRoles = []model.ProfessionalRole{{ID: 1}}

	return s
}

// putFact 直接写入一条权威评分
func putFact(s *mockStore, studentID, disciplineID, indicatorID int64, score float64) {
	s.nextID++
	s.facts[triple{studentID, disciplineID, indicatorID}] = &model.StudentIndicatorDisciplineScore{
		ID: s.nextID, StudentID: studentID, DisciplineID: disciplineID, IndicatorID: indicatorID,
		TeacherID: 10, Score: score,
	}
}
