package model

// Teacher 教师档案，对应 teachers，主键与 users.id 一致
type Teacher struct {
	ID int64 `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Person

	// 关联
	Disciplines []Discipline `gorm:"many2many:discipline_teachers" json:"disciplines,omitempty"`
}

// TableName 指定表名
func (Teacher) TableName() string { return "teachers" }
