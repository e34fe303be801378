package dto

// ── 用户模块 DTO ──

// 占位显示值
const (
	RoleNotAssigned    = "not assigned" // 用户尚未分配角色
	TeacherNotAssigned = "not assigned" // 课程尚未分配教师
)

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
}

// UserListItem 用户列表项
type UserListItem struct {
	ID       int64  `json:"id"`
	Fullname string `json:"fullname"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

// CreateUserRequest 创建用户请求
// role 为 student 时 groupId 可选，为 teacher 时忽略
type CreateUserRequest struct {
	Email      string `json:"email"      binding:"required,email,max=255"`
	Password   string `json:"password"   binding:"required,min=6,max=64"`
	Role       string `json:"role"       binding:"required,oneof=admin teacher student"`
	Firstname  string `json:"firstname"  binding:"required,max=100"`
	Lastname   string `json:"lastname"   binding:"required,max=100"`
	Middlename string `json:"middlename" binding:"omitempty,max=100"`
	GroupID    *int64 `json:"groupId"    binding:"omitempty,min=1"`
}

// UpdateUserRequest 更新用户请求，仅非 nil 字段被修改
type UpdateUserRequest struct {
	Email      *string `json:"email"      binding:"omitempty,email,max=255"`
	Password   *string `json:"password"   binding:"omitempty,min=6,max=64"`
	Role       *string `json:"role"       binding:"omitempty,oneof=admin teacher student"`
	Firstname  *string `json:"firstname"  binding:"omitempty,max=100"`
	Lastname   *string `json:"lastname"   binding:"omitempty,max=100"`
	Middlename *string `json:"middlename" binding:"omitempty,max=100"`
	IsActive   *bool   `json:"isActive"`
	GroupID    *int64  `json:"groupId"    binding:"omitempty,min=1"`
}

// ImportUserRow Excel 中解析出的一行学生数据
type ImportUserRow struct {
	Row        int
	Email      string
	Lastname   string
	Firstname  string
	Middlename string
	GroupName  string
}

// ImportUserResponse 批量导入用户响应
type ImportUserResponse struct {
	Total    int               `json:"total"`
	Success  int               `json:"success"`
	Failed   int               `json:"failed"`
	Errors   []ImportUserError `json:"errors,omitempty"`
	Accounts []ImportedAccount `json:"accounts,omitempty"` // 新建账号的初始密码，仅在本次响应中返回
}

// ImportedAccount 导入成功的账号
type ImportedAccount struct {
	Row          int    `json:"row"`
	Email        string `json:"email"`
	TempPassword string `json:"tempPassword"`
}

// ImportUserError 导入错误详情
type ImportUserError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}
