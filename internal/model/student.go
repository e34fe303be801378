package model

// Student 学生档案，对应 students，主键与 users.id 一致
type Student struct {
	ID int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Person
	GroupID *int64 `json:"group_id,omitempty"`

	// 关联
	Group *Group `gorm:"foreignKey:GroupID" json:"group,omitempty"`
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
