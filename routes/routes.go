package routes

import (
	"tourist-safety-service/config"
	"tourist-safety-service/controllers"
	"tourist-safety-service/middleware"
	"tourist-safety-service/services/container"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter 初始化并返回配置好的路由和服务容器
func SetupRouter(db *gorm.DB, cfg *config.Config) (*gin.Engine, *container.ServiceContainer) {
	// 初始化 Gin
	r := gin.Default()

	// 添加 CORS 中间件（原型阶段默认允许所有来源）
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowOrigin)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Accept, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// 创建服务容器
	serviceContainer := container.NewServiceContainer(db, cfg)

	// 挂载 Socket.IO 实时通道
	realtime := serviceContainer.GetRealtimeService()
	realtime.Start()
	r.GET("/socket.io/*any", gin.WrapH(realtime.Server()))
	r.POST("/socket.io/*any", gin.WrapH(realtime.Server()))

	// 注册路由
	registerRoutes(r, serviceContainer)
	return r, serviceContainer
}

// registerRoutes 配置所有API路由
func registerRoutes(
	r *gin.Engine,
	serviceContainer *container.ServiceContainer,
) {
	// API 路由根路径，按IP限流
	api := r.Group("/api")
	api.Use(middleware.RateLimitMiddleware())

	// 健康检查
	healthController := controllers.NewHealthCheckController(serviceContainer)
	api.GET("/ping", healthController.Ping)

	// 围栏路由
	api.GET("/geofences", controllers.HandleGeofenceFunc(serviceContainer, "getGeofences"))
	api.POST("/geofences", controllers.HandleGeofenceFunc(serviceContainer, "createGeofence"))
	api.DELETE("/geofences/:id", controllers.HandleGeofenceFunc(serviceContainer, "deleteGeofence"))

	// 安全评估路由
	api.POST("/predict-safety", controllers.HandleSafetyFunc(serviceContainer, "predictSafety"))
}
