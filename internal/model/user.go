package model

import "time"

// 系统角色名称（与 roles 表种子数据一致）
const (
	RoleAdmin   = "admin"
	RoleTeacher = "teacher"
	RoleStudent = "student"
)

// User 账号表，对应 users
type User struct {
	ID           int64  `gorm:"primaryKey"                         json:"id"`
	Login        string `gorm:"type:varchar(255);not null;unique"  json:"login"` // 即邮箱
	PasswordHash string `gorm:"column:password;type:varchar(255);not null" json:"-"`
	BaseModel

	// 关联
	Student *Student   `gorm:"foreignKey:ID;references:ID"     json:"student,omitempty"`
	Teacher *Teacher   `gorm:"foreignKey:ID;references:ID"     json:"teacher,omitempty"`
	Roles   []Role     `gorm:"many2many:user_roles"            json:"roles,omitempty"`
	Token   *UserToken `gorm:"foreignKey:UserID;references:ID" json:"-"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// Role 角色表，对应 roles
type Role struct {
	ID   int64  `gorm:"primaryKey"                       json:"id"`
	Name string `gorm:"type:varchar(50);not null;unique" json:"name"`
}

// TableName 指定表名
func (Role) TableName() string { return "roles" }

// UserRole 用户-角色关联，对应 user_roles
type UserRole struct {
	UserID int64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	RoleID int64 `gorm:"primaryKey;autoIncrement:false" json:"role_id"`
}

// TableName 指定表名
func (UserRole) TableName() string { return "user_roles" }

// UserToken 刷新令牌，对应 user_tokens（每个用户至多一条）
type UserToken struct {
	ID                    int64     `gorm:"primaryKey"                  json:"id"`
	UserID                int64     `gorm:"not null;unique"             json:"user_id"`
	RefreshToken          string    `gorm:"type:varchar(512);not null"  json:"-"`
	RefreshTokenExpiresAt time.Time `gorm:"not null"                    json:"refresh_token_expires_at"`
}

// TableName 指定表名
func (UserToken) TableName() string { return "user_tokens" }
