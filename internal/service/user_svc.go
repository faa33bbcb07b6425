package service

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"shophub_v1_202608/internal/api/dto"
	"shophub_v1_202608/internal/middleware"
	"shophub_v1_202608/internal/model"
	"shophub_v1_202608/internal/repository"
)

// 用户状态
const userStatusActive = 1

// ==================== UserService 用户服务 ====================

// UserService 后台用户认证
type UserService struct {
	userRepo repository.UserRepository
}

// NewUserService 创建用户服务
func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, req *dto.LoginReq) (*dto.LoginResp, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Status != userStatusActive {
		return nil, ErrUserDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	accessToken, refreshToken, err := middleware.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Username:     user.Username,
		Role:         user.Role,
	}, nil
}

// RefreshToken 用 Refresh Token 换新的 Token 对
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*dto.LoginResp, error) {
	claims, err := middleware.ParseToken(refreshToken)
	if err != nil || claims.Subject != "refresh" {
		return nil, ErrInvalidToken
	}

	// 确认用户仍有效
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if user.Status != userStatusActive {
		return nil, ErrUserDisabled
	}

	access, refresh, err := middleware.GenerateTokenPair(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResp{
		AccessToken:  access,
		RefreshToken: refresh,
		Username:     user.Username,
		Role:         user.Role,
	}, nil
}

// EnsureAdmin 启动时兜底创建管理员账号
func (s *UserService) EnsureAdmin(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	if _, err := s.userRepo.GetByUsername(ctx, username); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.Create(ctx, &model.SysUser{
		Username:     username,
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Status:       userStatusActive,
	})
}
