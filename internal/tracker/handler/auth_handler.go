package handler

import (
	"github.com/Anshu331/harness-portal/internal/middleware"
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler 认证与用户管理
type AuthHandler struct {
	authSvc *service.AuthService
	userSvc *service.UserService
}

func NewAuthHandler(authSvc *service.AuthService, userSvc *service.UserService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, userSvc: userSvc}
}

// Login 登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	result, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, result)
}

// Refresh 刷新token
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req service.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	result, err := h.authSvc.Refresh(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, result)
}

// Logout 登出
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	var req service.LogoutRequest
	// body 可选
	_ = c.ShouldBindJSON(&req)
	if err := h.authSvc.Logout(c.Request.Context(), middleware.GetClaims(c), req); err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, nil)
}

// Register 管理员创建用户
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, bindError(err))
		return
	}
	user, err := h.userSvc.Register(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Created(c, user)
}

// ListUsers 用户列表，可按角色过滤
// GET /api/auth/users?role=VENDOR
func (h *AuthHandler) ListUsers(c *gin.Context) {
	users, err := h.userSvc.List(c.Request.Context(), c.Query("role"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, users)
}

// Me 当前用户
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.userSvc.Me(c.Request.Context(), GetUserID(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, profile)
}
