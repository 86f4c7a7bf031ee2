package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Anshu331/harness-portal/internal/tracker/entity"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
)

// UserService 用户服务
type UserService struct {
	userRepo *repository.UserRepository
	policy   *policy.Policy
}

func NewUserService(userRepo *repository.UserRepository, pol *policy.Policy) *UserService {
	return &UserService{userRepo: userRepo, policy: pol}
}

// RegisterRequest 管理员创建用户
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required,role"`
	Company  string `json:"company"`
}

// Register 创建用户，邮箱大小写不敏感唯一
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*entity.User, error) {
	if !entity.IsValidRole(req.Role) {
		return nil, invalidInput("role must be one of %s", strings.Join(entity.Roles, ", "))
	}
	email := normalizeEmail(req.Email)
	if _, err := s.userRepo.FindByEmail(ctx, email); err == nil {
		return nil, newError(ErrConflict, "email %s is already registered", email)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &entity.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         req.Role,
		Company:      strings.TrimSpace(req.Company),
		Status:       entity.UserStatusActive,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(ErrConflict, "email %s is already registered", email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// List 用户列表，可按角色过滤
func (s *UserService) List(ctx context.Context, role string) ([]entity.User, error) {
	if role != "" && !entity.IsValidRole(role) {
		return nil, invalidInput("unknown role %q", role)
	}
	users, err := s.userRepo.List(ctx, role)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Profile 当前用户及其权限摘要
type Profile struct {
	User                  *entity.User `json:"user"`
	WritableFields        []string     `json:"writableFields"`
	ReadableReportTypes   []string     `json:"readableReportTypes"`
	UploadableReportTypes []string     `json:"uploadableReportTypes"`
}

// Me 当前用户信息
func (s *UserService) Me(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, wrapNotFound(err, "user")
	}
	return &Profile{
		User:                  user,
		WritableFields:        s.policy.WritableFields(user.Role),
		ReadableReportTypes:   s.policy.ReadableReportTypes(user.Role),
		UploadableReportTypes: s.policy.UploadableReportTypes(user.Role),
	}, nil
}
