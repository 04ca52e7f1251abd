package handlers

import (
	"context"
	"time"

	"saasadmin/internal/models"
	"saasadmin/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger 可探活的外部依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// SystemHandler 系统处理器：健康检查与枚举选项
type SystemHandler struct {
	db    *gorm.DB
	redis Pinger
}

// NewSystemHandler 创建系统处理器，redis 可为 nil
func NewSystemHandler(db *gorm.DB, redis Pinger) *SystemHandler {
	return &SystemHandler{db: db, redis: redis}
}

// Health 健康检查，依赖异常时 status 为 degraded
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"database": "ok"}
	status := "ok"

	if sqlDB, err := h.db.DB(); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = "degraded"
	}

	if h.redis != nil {
		checks["redis"] = "ok"
		if err := h.redis.Ping(ctx); err != nil {
			checks["redis"] = err.Error()
			status = "degraded"
		}
	}

	response.Success(c, gin.H{
		"status":    status,
		"timestamp": time.Now(),
		"service":   "saas-admin",
		"checks":    checks,
	})
}

func (h *SystemHandler) AppTypeOptions(c *gin.Context) {
	response.Success(c, models.AppTypeOptions())
}

func (h *SystemHandler) UserTypeOptions(c *gin.Context) {
	response.Success(c, models.UserTypeOptions())
}

func (h *SystemHandler) StatusOptions(c *gin.Context) {
	response.Success(c, models.StatusOptions())
}
