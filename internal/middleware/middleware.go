package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Anshu331/harness-portal/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 上下文键
const (
	CtxUserID    = "user_id"
	CtxUserName  = "user_name"
	CtxUserEmail = "user_email"
	CtxRole      = "role"
	CtxClaims    = "claims"
	CtxRequestID = "request_id"
)

// 401 错误码
const (
	CodeTokenMissing = 40100
	CodeTokenExpired = 40101
	CodeTokenInvalid = 40102
	CodeClaimsBad    = 40103
	CodeTokenRevoked = 40104
)

// TokenTypeRefresh refresh token 的 subject，不能用于访问接口
const TokenTypeRefresh = "refresh"

// Logger 日志中间件
func Logger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		if query != "" {
			query = redactToken(query)
		}

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.String("user-agent", c.Request.UserAgent()),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString(CtxRequestID)),
		}

		if userID := c.GetString(CtxUserID); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		if status >= 500 {
			logger.Error("Server error", fields...)
		} else if status >= 400 {
			logger.Warn("Client error", fields...)
		} else {
			logger.Info("Request", fields...)
		}
	}
}

// redactToken 隐藏query中的token
func redactToken(query string) string {
	parts := strings.Split(query, "&")
	for i, p := range parts {
		if strings.HasPrefix(p, "token=") {
			parts[i] = "token=REDACTED"
		}
	}
	return strings.Join(parts, "&")
}

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RequestID 请求ID中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.Request.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(CtxRequestID, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// Metrics 请求计数与耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// 使用路由模板，避免ID导致标签爆炸
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			path,
		).Observe(time.Since(start).Seconds())
	}
}

// JWTClaims JWT claims
type JWTClaims struct {
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// RevocationChecker 检查token是否已注销
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// ExtractToken 从 Authorization header 或 query param 获取token
func ExtractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	// 回退到 query param（SSE 等场景使用）
	return c.Query("token")
}

func abortUnauthorized(c *gin.Context, code int, message string) {
	c.JSON(http.StatusUnauthorized, gin.H{
		"code":    code,
		"message": message,
	})
	c.Abort()
}

// JWTAuth JWT认证中间件，revocation可为nil
func JWTAuth(secret string, revocation RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ExtractToken(c)
		if tokenString == "" {
			abortUnauthorized(c, CodeTokenMissing, "Authorization is required")
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortUnauthorized(c, CodeTokenExpired, "Token expired")
				return
			}
			abortUnauthorized(c, CodeTokenInvalid, "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid || claims.UserID == "" || claims.Role == "" || claims.Subject == TokenTypeRefresh {
			abortUnauthorized(c, CodeClaimsBad, "Invalid token claims")
			return
		}

		if revocation != nil && claims.ID != "" {
			revoked, err := revocation.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// 注销状态无法确认时拒绝，由 Logger 记录原因
				_ = c.Error(fmt.Errorf("check token revocation: %w", err))
				abortUnauthorized(c, CodeTokenRevoked, "Session could not be verified")
				return
			}
			if revoked {
				abortUnauthorized(c, CodeTokenRevoked, "Session has been revoked")
				return
			}
		}

		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxUserName, claims.Name)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxRole, claims.Role)
		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// GetClaims 获取当前请求的claims
func GetClaims(c *gin.Context) *JWTClaims {
	if v, ok := c.Get(CtxClaims); ok {
		if claims, ok := v.(*JWTClaims); ok {
			return claims
		}
	}
	return nil
}

// RequireRole 角色检查中间件
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"code":    40300,
			"message": "Role required: " + strings.Join(roles, " or "),
		})
		c.Abort()
	}
}

// Authorizer 资源级权限判断
type Authorizer interface {
	Allow(role, resource, action string) bool
}

// RequirePermission 权限检查中间件
func RequirePermission(authz Authorizer, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authz.Allow(c.GetString(CtxRole), resource, action) {
			c.Next()
			return
		}
		c.JSON(http.StatusForbidden, gin.H{
			"code":    40300,
			"message": "Permission denied: " + resource + ":" + action,
		})
		c.Abort()
	}
}
