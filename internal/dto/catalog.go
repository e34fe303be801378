package dto

// ── 目录管理 DTO ──

// DisciplineItem 课程列表项
type DisciplineItem struct {
	ID             int64   `json:"id"`
	Index          string  `json:"index"`
	Name           string  `json:"name"`
	IndicatorCount int     `json:"indicatorCount"`
	IndicatorIDs   []int64 `json:"indicatorIds"`
}

// DisciplineRequest 创建 / 更新课程请求
type DisciplineRequest struct {
	Name         string  `json:"name"         binding:"required,max=200"`
	Index        string  `json:"index"        binding:"required,max=50"`
	IndicatorIDs []int64 `json:"indicatorIds" binding:"omitempty,dive,min=1"`
}

// GroupItem 班级列表项
type GroupItem struct {
	ID           int64          `json:"id"`
	Name         string         `json:"name"`
	StudentCount int            `json:"studentCount"`
	Curator      string         `json:"curator"`
	Students     []GroupStudent `json:"students"`
}

// GroupStudent 班级成员
type GroupStudent struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
}

// CompetenceItem 能力列表项
type CompetenceItem struct {
	ID                  int64   `json:"id"`
	Index               string  `json:"index"`
	Name                string  `json:"name"`
	Description         string  `json:"description"`
	IndicatorIDs        []int64 `json:"indicatorIds"`
	ProfessionalRoleIDs []int64 `json:"professionalRoleIds"`
}

// ProfessionalRoleItem 职业角色列表项
type ProfessionalRoleItem struct {
	ID            int64   `json:"id"`
	Index         string  `json:"index"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CompetenceIDs []int64 `json:"competenceIds"`
}
