package handler

import (
	"context"
	"time"

	"github.com/Anshu331/harness-portal/internal/tracker/storage"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SystemHandler 健康检查与版本
type SystemHandler struct {
	db      *gorm.DB
	rdb     *redis.Client
	store   storage.FileStore
	version string
}

func NewSystemHandler(db *gorm.DB, rdb *redis.Client, store storage.FileStore, version string) *SystemHandler {
	return &SystemHandler{db: db, rdb: rdb, store: store, version: version}
}

// Live GET /health/live
func (h *SystemHandler) Live(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

// Ready 依赖检查，redis 未配置时跳过
// GET /health/ready
func (h *SystemHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true

	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		checks["database"] = "down"
		ready = false
	} else {
		checks["database"] = "ok"
	}

	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = "down"
			ready = false
		} else {
			checks["redis"] = "ok"
		}
	}

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			checks["storage"] = "down"
			ready = false
		} else {
			checks["storage"] = "ok"
		}
	}

	status := 200
	statusText := "ready"
	if !ready {
		status = 503
		statusText = "not ready"
	}
	c.JSON(status, gin.H{"status": statusText, "checks": checks})
}

// Version GET /version
func (h *SystemHandler) Version(c *gin.Context) {
	c.JSON(200, gin.H{"version": h.version, "service": "harness-portal"})
}
