package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Anshu331/harness-portal/internal/config"
	"github.com/Anshu331/harness-portal/internal/middleware"
	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	refreshKeyPrefix = "token:refresh:"
	revokedKeyPrefix = "token:revoked:"
)

const bcryptCost = 10

var errBadCredentials = newError(ErrUnauthorized, "Invalid email or password")

// HashPassword 生成bcrypt哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 校验密码
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// AuthService 认证服务
type AuthService struct {
	userRepo *repository.UserRepository
	rdb      *redis.Client
	cfg      config.JWTConfig
	hub      *sse.Hub
	logger   *zap.Logger
}

func NewAuthService(userRepo *repository.UserRepository, rdb *redis.Client, cfg config.JWTConfig, hub *sse.Hub, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		rdb:      rdb,
		cfg:      cfg,
		hub:      hub,
		logger:   logger,
	}
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResult 登录结果
type LoginResult struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	Role         string       `json:"role"`
	User         *entity.User `json:"user"`
}

// Login 邮箱密码登录
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errBadCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user.Status != entity.UserStatusActive || !VerifyPassword(user.PasswordHash, req.Password) {
		return nil, errBadCredentials
	}

	now := time.Now()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("update last login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now

	return s.issue(ctx, user)
}

// RefreshRequest 刷新请求
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// Refresh 轮换token对，旧的refresh token立即失效
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*LoginResult, error) {
	claims := &middleware.JWTClaims{}
	token, err := jwt.ParseWithClaims(req.RefreshToken, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid || claims.Subject != middleware.TokenTypeRefresh || claims.ID == "" {
		return nil, newError(ErrUnauthorized, "refresh token expired or invalid")
	}

	if s.rdb != nil {
		userID, err := s.rdb.Get(ctx, refreshKeyPrefix+claims.ID).Result()
		if err != nil || userID != claims.UserID {
			return nil, newError(ErrUnauthorized, "refresh token expired or invalid")
		}
		s.rdb.Del(ctx, refreshKeyPrefix+claims.ID)
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil || user.Status != entity.UserStatusActive {
		return nil, newError(ErrUnauthorized, "user not found or disabled")
	}
	return s.issue(ctx, user)
}

// LogoutRequest 登出请求
type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// Logout 注销当前access token并通知该用户的其他会话
func (s *AuthService) Logout(ctx context.Context, claims *middleware.JWTClaims, req LogoutRequest) error {
	if claims == nil {
		return newError(ErrUnauthorized, "not logged in")
	}
	if s.rdb != nil {
		if claims.ID != "" && claims.ExpiresAt != nil {
			ttl := time.Until(claims.ExpiresAt.Time)
			if ttl > 0 {
				if err := s.rdb.Set(ctx, revokedKeyPrefix+claims.ID, claims.UserID, ttl).Err(); err != nil {
					return fmt.Errorf("revoke token: %w", err)
				}
			}
		}
		if req.RefreshToken != "" {
			rc := &middleware.JWTClaims{}
			if _, err := jwt.ParseWithClaims(req.RefreshToken, rc, func(token *jwt.Token) (interface{}, error) {
				return []byte(s.cfg.Secret), nil
			}); err == nil && rc.ID != "" && rc.UserID == claims.UserID {
				s.rdb.Del(ctx, refreshKeyPrefix+rc.ID)
			}
		}
	}
	if s.hub != nil {
		s.hub.PublishSessionExpired(claims.UserID, "logout")
	}
	return nil
}

// IsRevoked 实现 middleware.RevocationChecker
func (s *AuthService) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	if s.rdb == nil {
		return false, nil
	}
	n, err := s.rdb.Exists(ctx, revokedKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// EnsureBootstrapAdmin 没有管理员时创建初始管理员
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, cfg config.BootstrapConfig) (bool, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return false, nil
	}
	count, err := s.userRepo.CountByRole(ctx, entity.RoleAdmin)
	if err != nil {
		return false, fmt.Errorf("count admins: %w", err)
	}
	if count > 0 {
		return false, nil
	}
	hash, err := HashPassword(cfg.AdminPassword)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	name := cfg.AdminName
	if name == "" {
		name = "Administrator"
	}
	admin := &entity.User{
		Name:         name,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Role:         entity.RoleAdmin,
		Status:       entity.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info("bootstrap admin created", zap.String("email", admin.Email))
	return true, nil
}

// GenerateAccessToken 生成access token
func GenerateAccessToken(cfg config.JWTConfig, user *entity.User, jti string, now time.Time) (string, error) {
	claims := middleware.JWTClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenExpire)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.Secret))
}

func (s *AuthService) issue(ctx context.Context, user *entity.User) (*LoginResult, error) {
	now := time.Now()
	access, err := GenerateAccessToken(s.cfg, user, uuid.New().String(), now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshID := uuid.New().String()
	refreshClaims := middleware.JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        refreshID,
			Subject:   middleware.TokenTypeRefresh,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.RefreshTokenExpire)),
		},
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshClaims).SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if s.rdb != nil {
		if err := s.rdb.Set(ctx, refreshKeyPrefix+refreshID, user.ID, s.cfg.RefreshTokenExpire).Err(); err != nil {
			return nil, fmt.Errorf("store refresh token: %w", err)
		}
	}

	return &LoginResult{
		Token:        access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.cfg.AccessTokenExpire.Seconds()),
		Role:         user.Role,
		User:         user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
