package model

import "time"

// StudentIndicatorDisciplineScore 指标评分事实（权威表），对应 student_indicator_discipline_scores
// (student_id, discipline_id, indicator_id) 唯一
type StudentIndicatorDisciplineScore struct {
	ID           int64     `gorm:"primaryKey"                        json:"id"`
	StudentID    int64     `gorm:"not null;uniqueIndex:uq_sids"      json:"student_id"`
	DisciplineID int64     `gorm:"not null;uniqueIndex:uq_sids"      json:"discipline_id"`
	IndicatorID  int64     `gorm:"not null;uniqueIndex:uq_sids"      json:"indicator_id"`
	TeacherID    int64     `gorm:"not null"                          json:"teacher_id"` // 最后一次评分的教师
	Score        float64   `gorm:"type:numeric(4,2);not null"        json:"score"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName 指定表名
func (StudentIndicatorDisciplineScore) TableName() string {
	return "student_indicator_discipline_scores"
}

// IndicatorScore 旧版指标评分，对应 indicator_scores
// 仅在写路径同步维护，读路径不再使用
type IndicatorScore struct {
	ID          int64   `gorm:"primaryKey"                       json:"id"`
	StudentID   int64   `gorm:"not null;uniqueIndex:uq_legacy"   json:"student_id"`
	IndicatorID int64   `gorm:"not null;uniqueIndex:uq_legacy"   json:"indicator_id"`
	TeacherID   int64   `gorm:"not null;uniqueIndex:uq_legacy"   json:"teacher_id"`
	ScoreValue  float64 `gorm:"type:numeric(4,2);not null"       json:"score_value"`
}

// TableName 指定表名
func (IndicatorScore) TableName() string { return "indicator_scores" }

// DisciplineScore 课程平均分缓存，对应 discipline_scores
type DisciplineScore struct {
	ID           int64   `gorm:"primaryKey"                   json:"id"`
	StudentID    int64   `gorm:"not null;uniqueIndex:uq_ds"   json:"student_id"`
	DisciplineID int64   `gorm:"not null;uniqueIndex:uq_ds"   json:"discipline_id"`
	Score        float64 `gorm:"type:numeric(3,1);not null"   json:"score"`
}

// TableName 指定表名
func (DisciplineScore) TableName() string { return "discipline_scores" }

// CompetenceScore 能力进度缓存（百分比），对应 competence_scores
type CompetenceScore struct {
	ID           int64   `gorm:"primaryKey"                   json:"id"`
	StudentID    int64   `gorm:"not null;uniqueIndex:uq_cs"   json:"student_id"`
	CompetenceID int64   `gorm:"not null;uniqueIndex:uq_cs"   json:"competence_id"`
	Score        float64 `gorm:"type:numeric(5,2);not null"   json:"score"`
}

// TableName 指定表名
func (CompetenceScore) TableName() string { return "competence_scores" }
