package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tourist-safety-service/services/container"
)

// HealthCheckController 健康检查控制器
type HealthCheckController struct {
	Container *container.ServiceContainer
	startedAt time.Time
}

// NewHealthCheckController 创建健康检查控制器实例
func NewHealthCheckController(container *container.ServiceContainer) *HealthCheckController {
	return &HealthCheckController{
		Container: container,
		startedAt: time.Now(),
	}
}

// Ping 健康检查端点
func (h *HealthCheckController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":        "pong",
		"status":         "healthy",
		"uptime":         time.Since(h.startedAt).String(),
		"online_users":   len(h.Container.GetRegistryService().Snapshot()),
		"geofence_count": len(h.Container.GetGeofenceService().GetAllGeofences()),
	})
}
