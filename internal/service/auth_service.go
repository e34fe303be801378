package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"compass/config"
	"compass/internal/dto"
	"compass/internal/model"
	"compass/internal/repository"
	pkgerrors "compass/pkg/errors"
	"compass/pkg/jwt"
)

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrUserInactive        = errors.New("账号已停用")
	ErrInvalidRefreshToken = errors.New("刷新令牌无效或已过期")
)

// TokenBlacklist Access Token 黑名单（由 Redis 实现）
type TokenBlacklist interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
	// Refresh 校验已保存的刷新令牌并轮换 Token 对
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	// Logout 拉黑当前 Access Token 并删除刷新令牌
	Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error
}

type authService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	blacklist TokenBlacklist
	logger    *zap.Logger
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		blacklist: blacklist,
		logger:    logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	// 1. 查询用户
	user, err := s.repo.User.GetByLogin(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	// 2. 验证密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 3. 停用账号不可登录
	if p := profileOf(user); p != nil && !p.IsActive {
		return nil, ErrUserInactive
	}

	// 4. 签发 Token 对
	return s.issueTokens(ctx, user)
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	claims, err := s.jwtMgr.ParseToken(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		return nil, ErrInvalidRefreshToken
	}

	stored, err := s.repo.Token.GetByUserID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询刷新令牌失败", zap.Int64("user_id", claims.UserID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if stored.RefreshToken != refreshToken || time.Now().After(stored.RefreshTokenExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询用户失败", zap.Int64("user_id", claims.UserID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}
	if p := profileOf(user); p != nil && !p.IsActive {
		return nil, ErrUserInactive
	}

	return s.issueTokens(ctx, user)
}

func (s *authService) Logout(ctx context.Context, userID int64, jti string, expiresAt time.Time) error {
	if s.blacklist != nil && jti != "" {
		if err := s.blacklist.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
			s.logger.Error("拉黑 Access Token 失败", zap.Int64("user_id", userID), zap.Error(err))
			return pkgerrors.ErrInternal
		}
	}
	if err := s.repo.Token.DeleteByUserID(ctx, userID); err != nil {
		s.logger.Error("删除刷新令牌失败", zap.Int64("user_id", userID), zap.Error(err))
		return pkgerrors.ErrInternal
	}
	return nil
}

// issueTokens 生成 Token 对并保存刷新令牌
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*dto.TokenResponse, error) {
	role := primaryRole(user)

	accessToken, err := s.jwtMgr.GenerateAccessToken(user.ID, role)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	refreshToken, err := s.jwtMgr.GenerateRefreshToken(user.ID, role)
	if err != nil {
		s.logger.Error("生成 RefreshToken 失败", zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	if err := s.repo.Token.Upsert(ctx, &model.UserToken{
		UserID:                user.ID,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: time.Now().Add(s.jwtMgr.RefreshTokenTTL()),
	}); err != nil {
		s.logger.Error("保存刷新令牌失败", zap.Int64("user_id", user.ID), zap.Error(err))
		return nil, pkgerrors.ErrInternal
	}

	current := dto.CurrentUser{ID: user.ID, Email: user.Login, Role: role}
	if p := profileOf(user); p != nil {
		current.FullName = p.FullName()
	}

	return &dto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.cfg.Auth.AccessTokenTTL.Seconds()),
		User:         current,
	}, nil
}
