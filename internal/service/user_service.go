package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"compass/internal/dto"
	"compass/internal/model"
	"compass/internal/repository"
	pkgerrors "compass/pkg/errors"
)

// ── 用户模块业务错误 ──

var (
	ErrUserAlreadyExists = errors.New("该邮箱已被其他用户使用")
	ErrRoleNotFound      = errors.New("角色不存在")
)

// UserService 用户业务接口
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserListItem, int64, error)
	Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserListItem, error)
	// Update 修改账号、档案与角色，单事务完成
	Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserListItem, error)
	// Delete 删除角色关联、学生/教师档案、令牌与账号本身，单事务完成
	Delete(ctx context.Context, id int64) error
	ParseImportFile(reader io.Reader) ([]dto.ImportUserRow, error)
	ImportUsers(ctx context.Context, rows []dto.ImportUserRow) (*dto.ImportUserResponse, error)
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserListItem, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询用户列表失败", zap.Error(err))
		return nil, 0, pkgerrors.ErrInternal
	}

	items := make([]dto.UserListItem, 0, len(users))
	for i := range users {
		items = append(items, toUserListItem(&users[i]))
	}
	return items, total, nil
}

// ────────────────────── Create ──────────────────────

func (s *userService) Create(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserListItem, error) {
	email := strings.TrimSpace(req.Email)
	if err := s.ensureLoginFree(ctx, email, 0); err != nil {
		return nil, err
	}

	role, err := s.getRole(ctx, req.Role)
	if err != nil {
		return nil, err
	}

	if req.Role == model.RoleStudent && req.GroupID != nil {
		if err := s.ensureGroup(ctx, *req.GroupID); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	person := model.Person{
		Firstname:  req.Firstname,
		Lastname:   req.Lastname,
		Middlename: req.Middlename,
		IsActive:   true,
	}
	user := &model.User{Login: email, PasswordHash: string(hash)}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	if err := s.createAccount(ctx, txRepo, user, role, person, req.GroupID); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error("创建用户失败，事务回滚", zap.String("login", email), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, pkgerrors.ErrInternal
		}
	}

	item := dto.UserListItem{
		ID:       user.ID,
		Fullname: person.FullName(),
		Email:    user.Login,
		Role:     role.Name,
		IsActive: person.IsActive,
	}
	return &item, nil
}

// createAccount 写入账号、角色关联与对应档案（需在事务中调用）
func (s *userService) createAccount(ctx context.Context, repo *repository.Repository, user *model.User, role *model.Role, person model.Person, groupID *int64) error {
	if err := repo.User.Create(ctx, user); err != nil {
		return err
	}
	if err := repo.Role.ReplaceUserRole(ctx, user.ID, role.ID); err != nil {
		return err
	}
	switch role.Name {
	case model.RoleStudent:
		return repo.Student.Create(ctx, &model.Student{ID: user.ID, Person: person, GroupID: groupID})
	case model.RoleTeacher:
		return repo.Teacher.Create(ctx, &model.Teacher{ID: user.ID, Person: person})
	}
	return nil
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, id int64, req *dto.UpdateUserRequest) (*dto.UserListItem, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	// 预校验，全部通过后才开启事务
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != user.Login {
			if err := s.ensureLoginFree(ctx, email, user.ID); err != nil {
				return nil, err
			}
			user.Login = email
		}
	}

	if req.Password != nil && *req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			s.logger.Error("密码哈希失败", zap.Error(err))
			return nil, pkgerrors.ErrInternal
		}
		user.PasswordHash = string(hash)
	}

	var newRole *model.Role
	if req.Role != nil && *req.Role != primaryRole(user) {
		if newRole, err = s.getRole(ctx, *req.Role); err != nil {
			return nil, err
		}
	}

	if req.GroupID != nil && user.Student != nil {
		if err := s.ensureGroup(ctx, *req.GroupID); err != nil {
			return nil, err
		}
		user.Student.GroupID = req.GroupID
	}
	if user.Student != nil {
		applyPersonUpdate(&user.Student.Person, req)
	}
	if user.Teacher != nil {
		applyPersonUpdate(&user.Teacher.Person, req)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	rollback := func(msg string, err error) error {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error(msg, zap.Int64("user_id", id), zap.Error(err))
		return pkgerrors.ErrInternal
	}

	if err := txRepo.User.Update(ctx, user); err != nil {
		return nil, rollback("更新账号失败，事务回滚", err)
	}
	if user.Student != nil {
		if err := txRepo.Student.Update(ctx, user.Student); err != nil {
			return nil, rollback("更新学生档案失败，事务回滚", err)
		}
	}
	if user.Teacher != nil {
		if err := txRepo.Teacher.Update(ctx, user.Teacher); err != nil {
			return nil, rollback("更新教师档案失败，事务回滚", err)
		}
	}
	if newRole != nil {
		if err := txRepo.Role.ReplaceUserRole(ctx, user.ID, newRole.ID); err != nil {
			return nil, rollback("更新用户角色失败，事务回滚", err)
		}
		user.Roles = []model.Role{*newRole}
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, pkgerrors.ErrInternal
		}
	}

	item := toUserListItem(user)
	return &item, nil
}

func applyPersonUpdate(p *model.Person, req *dto.UpdateUserRequest) {
	if req.Firstname != nil {
		p.Firstname = *req.Firstname
	}
	if req.Lastname != nil {
		p.Lastname = *req.Lastname
	}
	if req.Middlename != nil {
		p.Middlename = *req.Middlename
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, id int64) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return pkgerrors.ErrInternal
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)
	rollback := func(msg string, err error) error {
		if tx != nil {
			tx.Rollback()
		}
		s.logger.Error(msg, zap.Int64("user_id", id), zap.Error(err))
		return pkgerrors.ErrInternal
	}

	if err := txRepo.Role.DeleteUserRoles(ctx, id); err != nil {
		return rollback("删除用户角色失败，事务回滚", err)
	}
	if user.Student != nil {
		if err := txRepo.Score.DeleteByStudent(ctx, id); err != nil {
			return rollback("删除学生评分失败，事务回滚", err)
		}
		if err := txRepo.Student.Delete(ctx, id); err != nil {
			return rollback("删除学生档案失败，事务回滚", err)
		}
	}
	if user.Teacher != nil {
		if err := txRepo.Teacher.Delete(ctx, id); err != nil {
			return rollback("删除教师档案失败，事务回滚", err)
		}
	}
	if err := txRepo.Token.DeleteByUserID(ctx, id); err != nil {
		return rollback("删除用户令牌失败，事务回滚", err)
	}
	if err := txRepo.User.Delete(ctx, id); err != nil {
		return rollback("删除账号失败，事务回滚", err)
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return pkgerrors.ErrInternal
		}
	}
	return nil
}

// ────────────────────── ParseImportFile ──────────────────────

const maxImportRows = 1000

var (
	ErrImportNoData      = errors.New("Excel文件无数据行（第一行为表头）")
	ErrImportTooManyRows = fmt.Errorf("数据行数超过上限 %d 行", maxImportRows)
	ErrImportBadHeader   = errors.New("Excel表头缺少必要列（邮箱/姓/名）")
)

// ParseImportFile 解析学生导入 Excel，返回解析后的行数据
func (s *userService) ParseImportFile(reader io.Reader) ([]dto.ImportUserRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("无法解析Excel文件: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	excelRows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}

	if len(excelRows) < 2 {
		return nil, ErrImportNoData
	}

	// 解析表头（支持灵活列序）
	colIndex := parseHeaderIndex(excelRows[0])
	if colIndex["email"] < 0 || colIndex["lastname"] < 0 || colIndex["firstname"] < 0 {
		return nil, ErrImportBadHeader
	}

	column := func(row []string, name string) string {
		if idx := colIndex[name]; idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	var rows []dto.ImportUserRow
	for i := 1; i < len(excelRows); i++ {
		row := excelRows[i]
		item := dto.ImportUserRow{
			Row:        i + 1,
			Email:      column(row, "email"),
			Lastname:   column(row, "lastname"),
			Firstname:  column(row, "firstname"),
			Middlename: column(row, "middlename"),
			GroupName:  column(row, "group"),
		}

		// 跳过全空行
		if item.Email == "" && item.Lastname == "" && item.Firstname == "" && item.GroupName == "" {
			continue
		}
		rows = append(rows, item)
	}

	if len(rows) == 0 {
		return nil, ErrImportNoData
	}
	if len(rows) > maxImportRows {
		return nil, ErrImportTooManyRows
	}

	return rows, nil
}

// parseHeaderIndex 解析 Excel 表头，返回列名 -> 列索引映射
func parseHeaderIndex(header []string) map[string]int {
	idx := map[string]int{
		"email":      -1,
		"lastname":   -1,
		"firstname":  -1,
		"middlename": -1,
		"group":      -1,
	}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "email", "邮箱", "почта":
			idx["email"] = i
		case "lastname", "姓", "фамилия":
			idx["lastname"] = i
		case "firstname", "名", "имя":
			idx["firstname"] = i
		case "middlename", "父称", "отчество":
			idx["middlename"] = i
		case "group", "班级", "группа":
			idx["group"] = i
		}
	}
	return idx
}

// ────────────────────── ImportUsers ──────────────────────

func (s *userService) ImportUsers(ctx context.Context, rows []dto.ImportUserRow) (*dto.ImportUserResponse, error) {
	resp := &dto.ImportUserResponse{Total: len(rows)}

	role, err := s.getRole(ctx, model.RoleStudent)
	if err != nil {
		return nil, err
	}

	// 第一阶段：数据预校验（不接触数据库写操作）
	type validatedRow struct {
		row     dto.ImportUserRow
		groupID *int64
		pwd     string
		hash    []byte
	}
	var validRows []validatedRow
	groupCache := make(map[string]int64)
	seenEmails := make(map[string]bool)

	reject := func(row int, reason string) {
		resp.Failed++
		resp.Errors = append(resp.Errors, dto.ImportUserError{Row: row, Reason: reason})
	}

	for _, row := range rows {
		if row.Email == "" || row.Lastname == "" || row.Firstname == "" {
			reject(row.Row, "必填字段为空")
			continue
		}

		if seenEmails[row.Email] {
			reject(row.Row, fmt.Sprintf("文件内邮箱重复: %s", row.Email))
			continue
		}
		if _, err := s.repo.User.GetByLogin(ctx, row.Email); err == nil {
			reject(row.Row, fmt.Sprintf("邮箱已存在: %s", row.Email))
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询用户失败", zap.String("login", row.Email), zap.Error(err))
			return nil, pkgerrors.ErrInternal
		}

		var groupID *int64
		if row.GroupName != "" {
			id, ok := groupCache[row.GroupName]
			if !ok {
				group, err := s.repo.Group.GetByName(ctx, row.GroupName)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						reject(row.Row, fmt.Sprintf("班级不存在: %s", row.GroupName))
						continue
					}
					s.logger.Error("查询班级失败", zap.String("group", row.GroupName), zap.Error(err))
					return nil, pkgerrors.ErrInternal
				}
				id = group.ID
				groupCache[row.GroupName] = id
			}
			groupID = &id
		}

		pwd, err := generateTempPassword(10)
		if err != nil {
			s.logger.Error("生成临时密码失败", zap.Error(err))
			return nil, pkgerrors.ErrInternal
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
		if err != nil {
			reject(row.Row, "密码哈希失败")
			continue
		}

		seenEmails[row.Email] = true
		validRows = append(validRows, validatedRow{row: row, groupID: groupID, pwd: pwd, hash: hash})
	}

	// 第二阶段：在事务中批量创建所有通过校验的用户
	if len(validRows) > 0 {
		tx, err := s.repo.BeginTx(ctx)
		if err != nil {
			s.logger.Error("开启事务失败", zap.Error(err))
			return nil, pkgerrors.ErrInternal
		}
		defer func() {
			if r := recover(); r != nil {
				if tx != nil {
					tx.Rollback()
				}
				panic(r)
			}
		}()

		txRepo := s.repo.WithTx(tx)

		for _, vr := range validRows {
			user := &model.User{Login: vr.row.Email, PasswordHash: string(vr.hash)}
			person := model.Person{
				Firstname:  vr.row.Firstname,
				Lastname:   vr.row.Lastname,
				Middlename: vr.row.Middlename,
				IsActive:   true,
			}
			if err := s.createAccount(ctx, txRepo, user, role, person, vr.groupID); err != nil {
				// 事务中任一写入失败则全部回滚
				if tx != nil {
					tx.Rollback()
				}
				s.logger.Error("导入用户写入失败，事务回滚",
					zap.Int("row", vr.row.Row), zap.Error(err))
				return nil, pkgerrors.ErrInternal
			}
			resp.Success++
			resp.Accounts = append(resp.Accounts, dto.ImportedAccount{
				Row: vr.row.Row, Email: vr.row.Email, TempPassword: vr.pwd,
			})
		}

		if tx != nil {
			if err := tx.Commit().Error; err != nil {
				s.logger.Error("提交事务失败", zap.Error(err))
				return nil, pkgerrors.ErrInternal
			}
		}
	}

	return resp, nil
}

// ── 内部辅助方法 ──

func (s *userService) getUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.Int64("user_id", id), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	return user, nil
}

func (s *userService) getRole(ctx context.Context, name string) (*model.Role, error) {
	role, err := s.repo.Role.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoleNotFound
		}
		s.logger.Error("查询角色失败", zap.String("role", name), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	return role, nil
}

// ensureLoginFree 邮箱未被 selfID 以外的用户占用
func (s *userService) ensureLoginFree(ctx context.Context, login string, selfID int64) error {
	existing, err := s.repo.User.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		s.logger.Error("查询用户失败", zap.String("login", login), zap.Error(err))
		return pkgerrors.ErrInternal
	}
	if existing.ID != selfID {
		return ErrUserAlreadyExists
	}
	return nil
}

func (s *userService) ensureGroup(ctx context.Context, groupID int64) error {
	if _, err := s.repo.Group.GetByID(ctx, groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		s.logger.Error("查询班级失败", zap.Int64("group_id", groupID), zap.Error(err))
		return pkgerrors.ErrInternal
	}
	return nil
}

// primaryRole 用户的角色名；未分配时返回空串
func primaryRole(user *model.User) string {
	if len(user.Roles) == 0 {
		return ""
	}
	return user.Roles[0].Name
}

// profileOf 学生或教师档案，二者都没有时返回 nil（管理员）
func profileOf(user *model.User) *model.Person {
	switch {
	case user.Student != nil:
		return &user.Student.Person
	case user.Teacher != nil:
		return &user.Teacher.Person
	}
	return nil
}

func toUserListItem(user *model.User) dto.UserListItem {
	item := dto.UserListItem{
		ID:       user.ID,
		Email:    user.Login,
		Role:     primaryRole(user),
		IsActive: true,
	}
	if item.Role == "" {
		item.Role = dto.RoleNotAssigned
	}
	if p := profileOf(user); p != nil {
		item.Fullname = p.FullName()
		item.IsActive = p.IsActive
	}
	return item
}

// generateTempPassword 生成随机临时密码（至少含 1 个字母和 1 个数字）
func generateTempPassword(length int) (string, error) {
	const letters = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"
	const digits = "23456789"
	const all = letters + digits

	if length < 4 {
		length = 8
	}

	pick := func(set string) (byte, error) {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
		if err != nil {
			return 0, err
		}
		return set[n.Int64()], nil
	}

	result := make([]byte, length)
	var err error
	if result[0], err = pick(letters); err != nil {
		return "", err
	}
	if result[1], err = pick(digits); err != nil {
		return "", err
	}
	for i := 2; i < length; i++ {
		if result[i], err = pick(all); err != nil {
			return "", err
		}
	}

	// Fisher-Yates 洗牌
	for i := length - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		result[i], result[j.Int64()] = result[j.Int64()], result[i]
	}

	return string(result), nil
}
