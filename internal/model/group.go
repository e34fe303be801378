package model

// Group 学生班级，对应 groups
type Group struct {
	ID        int64  `gorm:"primaryKey"                        json:"id"`
	Name      string `gorm:"type:varchar(100);not null;unique" json:"name"`
	CuratorID *int64 `json:"curator_id,omitempty"`
	ProleID   *int64 `json:"prole_id,omitempty"` // 班级目标职业角色

	// 关联
	Curator          *Teacher          `gorm:"foreignKey:CuratorID"        json:"curator,omitempty"`
	ProfessionalRole *ProfessionalRole `gorm:"foreignKey:ProleID"          json:"professional_role,omitempty"`
	Students         []Student         `gorm:"foreignKey:GroupID"          json:"students,omitempty"`
	Disciplines      []Discipline      `gorm:"many2many:group_disciplines" json:"disciplines,omitempty"`
}

// TableName 指定表名
func (Group) TableName() string { return "groups" }
