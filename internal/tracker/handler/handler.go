package handler

import (
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/Anshu331/harness-portal/internal/middleware"
	"github.com/Anshu331/harness-portal/internal/tracker/policy"
	"github.com/Anshu331/harness-portal/internal/tracker/repository"
	"github.com/Anshu331/harness-portal/internal/tracker/service"
	"github.com/Anshu331/harness-portal/internal/tracker/sse"
	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	Auth          *AuthHandler
	Project       *ProjectHandler
	Harness       *HarnessHandler
	Shipment      *ShipmentHandler
	Report        *ReportHandler
	VehicleDetail *VehicleDetailHandler
	Dashboard     *DashboardHandler
	Tracking      *TrackingHandler
	SSE           *SSEHandler
	Upload        *UploadHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, store storage.FileStore, hub *sse.Hub, maxUpload int64, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Auth:          NewAuthHandler(svc.Auth, svc.User),
		Project:       NewProjectHandler(svc.Project),
		Harness:       NewHarnessHandler(svc.Harness),
		Shipment:      NewShipmentHandler(svc.Shipment),
		Report:        NewReportHandler(svc.Report, maxUpload),
		VehicleDetail: NewVehicleDetailHandler(svc.VehicleDetail, maxUpload),
		Dashboard:     NewDashboardHandler(svc.Dashboard),
		Tracking:      NewTrackingHandler(svc.Tracking),
		SSE:           NewSSEHandler(hub),
		Upload:        NewUploadHandler(store, logger),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Unauthorized 未授权响应
func Unauthorized(c *gin.Context, message string) {
	Error(c, 40100, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 资源冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// handleServiceError 业务错误映射为响应
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, service.ErrInvalidTransition):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		Unauthorized(c, err.Error())
	case errors.Is(err, service.ErrConflict):
		Conflict(c, err.Error())
	default:
		c.Error(err)
		InternalError(c, "internal server error")
	}
}

// GetUserID 获取当前用户ID
func GetUserID(c *gin.Context) string {
	return c.GetString(middleware.CtxUserID)
}

// GetPrincipal 当前操作人
func GetPrincipal(c *gin.Context) policy.Principal {
	return policy.Principal{
		UserID: c.GetString(middleware.CtxUserID),
		Name:   c.GetString(middleware.CtxUserName),
		Email:  c.GetString(middleware.CtxUserEmail),
		Role:   c.GetString(middleware.CtxRole),
	}
}

// bindError 绑定错误转为可读信息
func bindError(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body: " + err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "email":
			msgs = append(msgs, field+" must be a valid email")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters", field, fe.Param()))
		case tagVerdict:
			msgs = append(msgs, field+" must be one of PENDING, PASS, FAIL, CONDITIONAL_PASS")
		case tagLocation:
			msgs = append(msgs, field+" must be PLANT or R&D_CENTRE")
		case tagRole:
			msgs = append(msgs, field+" must be one of ADMIN, VENDOR, DVP, TNV")
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// fileInput 读取multipart文件，调用方负责关闭
func fileInput(fh *multipart.FileHeader) (*service.FileInput, multipart.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	return &service.FileInput{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
	}, f, nil
}
