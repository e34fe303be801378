package model

import (
	"strings"
	"time"
)

// BaseModel 通用审计字段
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Person 学生与教师共有的档案字段
type Person struct {
	Firstname  string `gorm:"type:varchar(100);not null"            json:"firstname"`
	Lastname   string `gorm:"type:varchar(100);not null"            json:"lastname"`
	Middlename string `gorm:"type:varchar(100);not null;default:''" json:"middlename"`
	IsActive   bool   `gorm:"not null;default:true"                 json:"is_active"`
}

// FullName 按 "姓 名 父称" 顺序拼接，忽略空段
func (p Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Lastname, p.Firstname, p.Middlename} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
