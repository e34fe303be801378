package model

// Discipline 课程，对应 disciplines
type Discipline struct {
	ID    int64  `gorm:"primaryKey"                                   json:"id"`
	Index string `gorm:"column:index_code;type:varchar(50);not null"  json:"index"`
	Name  string `gorm:"type:varchar(200);not null"                   json:"name"`

	// 关联
	Indicators []Indicator `gorm:"many2many:discipline_indicators" json:"indicators,omitempty"`
	Teachers   []Teacher   `gorm:"many2many:discipline_teachers"   json:"teachers,omitempty"`
}

// TableName 指定表名
func (Discipline) TableName() string { return "disciplines" }

// Indicator 能力指标（最小评分单元），对应 indicators
type Indicator struct {
	ID      int64  `gorm:"primaryKey"                                  json:"id"`
	Index   string `gorm:"column:index_code;type:varchar(50);not null" json:"index"`
	Name    string `gorm:"type:varchar(500);not null"                  json:"name"`
	Ordinal int    `gorm:"not null;default:0"                          json:"ordinal"` // 展示顺序
}

// TableName 指定表名
func (Indicator) TableName() string { return "indicators" }
