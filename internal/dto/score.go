package dto

// ── 评分提交 ──

// SaveScoresRequest 教师提交评分批次
type SaveScoresRequest struct {
	DisciplineID int64       `json:"disciplineId" binding:"required,min=1"`
	TeacherID    int64       `json:"teacherId"    binding:"required,min=1"`
	Scores       []ScoreItem `json:"scores"       binding:"required,min=1,dive"`
}

// ScoreItem 单条评分；取值范围由服务层按评分规则校验
type ScoreItem struct {
	StudentID   int64    `json:"studentId"   binding:"required,min=1"`
	IndicatorID int64    `json:"indicatorId" binding:"required,min=1"`
	Score       *float64 `json:"score"       binding:"required"`
}

// ── 学生聚合视图 ──

// IndicatorScore 指标得分（未评分时为 null）
type IndicatorScore struct {
	ID    int64    `json:"id"`
	Index string   `json:"index"`
	Name  string   `json:"name"`
	Score *float64 `json:"score"`
}

// DisciplineScoresResponse 课程指标得分
type DisciplineScoresResponse struct {
	DisciplineName  string           `json:"disciplineName"`
	Indicators      []IndicatorScore `json:"indicators"`
	DisciplineScore *float64         `json:"disciplineScore"`
}

// CompetenceScoresResponse 能力进度明细
type CompetenceScoresResponse struct {
	Name       string           `json:"name"`
	Indicators []IndicatorScore `json:"indicators"`
	Score      float64          `json:"score"`
}

// CompetenceProgressItem 能力进度列表项
type CompetenceProgressItem struct {
	ID       int64   `json:"id"`
	Index    string  `json:"index"`
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
}

// RoleReadinessResponse 职业角色就绪度
type RoleReadinessResponse struct {
	ID             int64    `json:"id"`
	Name           string   `json:"name"`
	Index          string   `json:"index"`
	Score          *float64 `json:"score"`
	CompetencyIDs  []int64  `json:"competencyIds"`
	CompletedCount int      `json:"completedCount"`
}

// StudentDisciplineItem 学生课程列表项
type StudentDisciplineItem struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TeacherName string  `json:"teacherName"`
	Score       float64 `json:"score"`
}

// ── 教师视图 ──

// TeacherDisciplineItem 教师课程列表项
type TeacherDisciplineItem struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	IndicatorCount int    `json:"indicatorCount"`
}

// ScoringDataRequest 评分表查询参数
type ScoringDataRequest struct {
	TeacherID int64 `form:"teacherId" binding:"required,min=1"`
	GroupID   int64 `form:"groupId"   binding:"required,min=1"`
}

// ScoringDataResponse 评分表：行是学生，列是指标
type ScoringDataResponse struct {
	DisciplineName string             `json:"disciplineName"`
	Students       []ScoringStudent   `json:"students"`
	Indicators     []ScoringIndicator `json:"indicators"`
}

// ScoringStudent 评分表中的一行，Scores 与 Indicators 一一对应
type ScoringStudent struct {
	ID       int64      `json:"id"`
	FullName string     `json:"fullName"`
	Scores   []*float64 `json:"scores"`
}

// ScoringIndicator 评分表中的一列
type ScoringIndicator struct {
	ID    int64  `json:"id"`
	Index string `json:"index"`
	Name  string `json:"name"`
}
