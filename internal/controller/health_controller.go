package controller

import (
	"context"
	"net/http"
	"time"

	"course_authoring_backend/internal/service"
	"course_authoring_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Locator service.MediaLocator
}

func NewHealthController(db *gorm.DB, rdb *redis.Client, locator service.MediaLocator) *HealthController {
	return &HealthController{DB: db, Redis: rdb, Locator: locator}
}

// @Summary 健康检查
// @Description 检查数据库、Redis 与媒体存储状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	sqlDB, err := c.DB.DB()
	if err != nil {
		util.InternalServerError(ctx)
		return
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		util.Error(ctx, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	components := gin.H{"database": "up"}

	// Redis 与存储不可用时降级，不影响整体可用性
	if c.Redis != nil {
		components["redis"] = status(c.Redis.Ping(pingCtx).Err())
	}
	if c.Locator != nil {
		components["storage"] = status(c.Locator.Ping(pingCtx))
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}

func status(err error) string {
	if err != nil {
		return "down"
	}
	return "up"
}
