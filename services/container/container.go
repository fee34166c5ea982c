package container

import (
	"context"
	"log"
	"sync"
	"time"

	"tourist-safety-service/config"
	"tourist-safety-service/services"

	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config

	// 基础设施
	bus          *services.EventBus
	redisService services.InterfaceRedisService

	// 核心服务
	geometryService *services.GeometryService
	geofenceService services.InterfaceGeofenceService
	registryService services.InterfaceRegistryService
	alertService    services.InterfaceAlertService
	realtimeService services.InterfaceRealtimeService

	// 外部协作方
	safetyService services.InterfaceSafetyService
	mqttBridge    services.InterfaceMQTTBridgeService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器。db仅在MySQL存储驱动下需要，
// 文件存储时传nil。
func NewServiceContainer(db *gorm.DB, cfg *config.Config) *ServiceContainer {
	if cfg == nil {
		panic("配置为空")
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化事件总线，所有状态变更都经由这里扇出
	c.bus = services.NewEventBus()

	// 初始化Redis服务并测试连接，缓存不可用不阻止启动
	redisService := services.NewRedisService(c.config)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisService.Client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis连接测试失败: %v，安全评估结果将不做缓存", err)
	}
	c.redisService = redisService

	// 根据存储驱动选择持久化实现
	var repo services.GeofenceRepository
	if c.config.StorageDriver == "mysql" && c.db != nil {
		repo = services.NewMySQLGeofenceRepository(c.db)
	} else {
		repo = services.NewFileGeofenceRepository(c.config.DataFile)
	}

	// 初始化核心服务
	c.geometryService = services.NewGeometryService()
	c.geofenceService = services.NewGeofenceService(repo, c.bus)
	c.registryService = services.NewRegistryService(c.bus)
	c.alertService = services.NewAlertService(c.registryService, c.bus)
	c.realtimeService = services.NewRealtimeService(
		c.registryService, c.geofenceService, c.geometryService, c.alertService, c.bus)

	// 初始化安全评估服务
	c.safetyService = services.NewSafetyService(c.config, c.geofenceService, c.redisService)

	// 配置了MQTT服务器时启用告警外发桥接
	if c.config.MQTTBrokerURL != "" {
		c.mqttBridge = services.NewMQTTBridgeService(c.config, c.bus)
		if err := c.mqttBridge.Connect(); err != nil {
			log.Printf("MQTT服务连接失败: %v", err)
		}
	}
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "bus":
		return c.bus
	case "redis":
		return c.redisService
	case "geometry":
		return c.geometryService
	case "geofence":
		return c.geofenceService
	case "registry":
		return c.registryService
	case "alert":
		return c.alertService
	case "realtime":
		return c.realtimeService
	case "safety":
		return c.safetyService
	case "mqtt_bridge":
		return c.mqttBridge
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetEventBus 获取事件总线
func (c *ServiceContainer) GetEventBus() *services.EventBus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bus
}

// GetRedisService 获取Redis服务
func (c *ServiceContainer) GetRedisService() services.InterfaceRedisService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redisService
}

// GetGeometryService 获取几何分类器
func (c *ServiceContainer) GetGeometryService() *services.GeometryService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.geometryService
}

// GetGeofenceService 获取围栏服务
func (c *ServiceContainer) GetGeofenceService() services.InterfaceGeofenceService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.geofenceService
}

// GetRegistryService 获取在线用户注册表
func (c *ServiceContainer) GetRegistryService() services.InterfaceRegistryService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registryService
}

// GetAlertService 获取告警服务
func (c *ServiceContainer) GetAlertService() services.InterfaceAlertService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.alertService
}

// GetRealtimeService 获取实时通道服务
func (c *ServiceContainer) GetRealtimeService() services.InterfaceRealtimeService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.realtimeService
}

// GetSafetyService 获取安全评估服务
func (c *ServiceContainer) GetSafetyService() services.InterfaceSafetyService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.safetyService
}

// Shutdown 按依赖顺序释放资源
func (c *ServiceContainer) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.mqttBridge != nil {
		c.mqttBridge.Disconnect()
	}
	if c.realtimeService != nil {
		if err := c.realtimeService.Close(); err != nil {
			log.Printf("关闭实时通道失败: %v", err)
		}
	}
}
