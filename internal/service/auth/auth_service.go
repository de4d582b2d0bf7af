// Package auth 提供认证服务
package auth

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/linxiaoyu2023/property-booking-backend/internal/common/cache"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/crypto"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/errors"
	"github.com/linxiaoyu2023/property-booking-backend/internal/common/jwt"
	"github.com/linxiaoyu2023/property-booking-backend/internal/models"
	"github.com/linxiaoyu2023/property-booking-backend/internal/repository"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// refreshTokenTTL 刷新令牌在 Redis 中的保留时长
const refreshTokenTTL = 7 * 24 * time.Hour

// AuthService 认证服务
type AuthService struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	jwtManager *jwt.Manager
	redis      *redis.Client
}

// NewAuthService 创建认证服务
func NewAuthService(db *gorm.DB, userRepo *repository.UserRepository, jwtManager *jwt.Manager, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:         db,
		userRepo:   userRepo,
		jwtManager: jwtManager,
		redis:      redisClient,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required,min=6,max=64"`
	Name     string `json:"name" binding:"required,max=50"`
	Role     string `json:"role" binding:"omitempty,oneof=user tenant"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	User      *UserInfo      `json:"user"`
	TokenPair *jwt.TokenPair `json:"token"`
}

// UserInfo 用户信息
type UserInfo struct {
	ID         int64   `json:"id"`
	Email      string  `json:"email"`
	Name       string  `json:"name"`
	Phone      *string `json:"phone,omitempty"`
	Avatar     *string `json:"avatar,omitempty"`
	Role       string  `json:"role"`
	IsVerified bool    `json:"is_verified"`
}

// Register 注册新用户
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, errors.ErrEmailInvalid
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if exists {
		return nil, errors.ErrEmailExists
	}

	hashed, err := crypto.HashPassword(req.Password)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		Email:    email,
		Password: &hashed,
		Name:     req.Name,
		Role:     role,
		Status:   models.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	return s.issueTokens(ctx, user)
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if user.Password == nil || !crypto.VerifyPassword(req.Password, *user.Password) {
		return nil, errors.ErrPasswordError
	}
	if user.Status == models.UserStatusDisabled {
		return nil, errors.ErrAccountDisabled
	}

	return s.issueTokens(ctx, user)
}

// RefreshToken 刷新令牌
// 仅接受 Redis 中仍有效的刷新令牌，刷新后轮换
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*jwt.TokenPair, error) {
	claims, err := s.jwtManager.ParseToken(refreshToken)
	if err != nil {
		if err == jwt.ErrTokenExpired {
			return nil, errors.ErrTokenExpired
		}
		return nil, errors.ErrTokenInvalid
	}

	stored, err := s.redis.Get(ctx, s.refreshKey(claims.UserID)).Result()
	if err != nil || stored != refreshToken {
		return nil, errors.ErrTokenInvalid
	}

	tokenPair, err := s.jwtManager.RefreshToken(refreshToken)
	if err != nil {
		return nil, errors.ErrTokenRefreshFail.WithError(err)
	}

	if err := s.redis.Set(ctx, s.refreshKey(claims.UserID), tokenPair.RefreshToken, refreshTokenTTL).Err(); err != nil {
		return nil, errors.ErrCacheError.WithError(err)
	}
	return tokenPair, nil
}

// Logout 退出登录，废弃刷新令牌
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	if err := s.redis.Del(ctx, s.refreshKey(userID)).Err(); err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	return nil
}

// GetProfile 获取当前用户信息
func (s *AuthService) GetProfile(ctx context.Context, userID int64) (*UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.toUserInfo(user), nil
}

// UpdateProfileRequest 更新用户信息请求
type UpdateProfileRequest struct {
	Name   *string `json:"name"`
	Phone  *string `json:"phone"`
	Avatar *string `json:"avatar"`
}

// UpdateProfile 更新当前用户信息
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req *UpdateProfileRequest) (*UserInfo, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrUserNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Avatar != nil {
		user.Avatar = req.Avatar
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return s.toUserInfo(user), nil
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=6,max=64"`
}

// ChangePassword 修改密码并使刷新令牌失效
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req *ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrUserNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}

	if user.Password == nil || !crypto.VerifyPassword(req.OldPassword, *user.Password) {
		return errors.ErrPasswordError
	}

	hashed, err := crypto.HashPassword(req.NewPassword)
	if err != nil {
		return errors.ErrInternalError.WithError(err)
	}
	if err := s.userRepo.UpdateFields(ctx, userID, map[string]interface{}{"password": hashed}); err != nil {
		return errors.ErrDatabaseError.WithError(err)
	}

	return s.Logout(ctx, userID)
}

// issueTokens 生成令牌对并登记刷新令牌
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*LoginResponse, error) {
	userType := jwt.UserTypeUser
	if user.IsTenant() {
		userType = jwt.UserTypeTenant
	}

	tokenPair, err := s.jwtManager.GenerateTokenPair(user.ID, userType, user.Role)
	if err != nil {
		return nil, errors.ErrInternalError.WithError(err)
	}

	if err := s.redis.Set(ctx, s.refreshKey(user.ID), tokenPair.RefreshToken, refreshTokenTTL).Err(); err != nil {
		return nil, errors.ErrCacheError.WithError(err)
	}

	return &LoginResponse{
		User:      s.toUserInfo(user),
		TokenPair: tokenPair,
	}, nil
}

func (s *AuthService) refreshKey(userID int64) string {
	return cache.KeyPrefixRefreshToken + strconv.FormatInt(userID, 10)
}

func (s *AuthService) toUserInfo(user *models.User) *UserInfo {
	return &UserInfo{
		ID:         user.ID,
		Email:      user.Email,
		Name:       user.Name,
		Phone:      user.Phone,
		Avatar:     user.Avatar,
		Role:       user.Role,
		IsVerified: user.IsVerified,
	}
}
