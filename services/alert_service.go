package services

import (
	"log"
	"time"

	"github.com/google/uuid"

	"tourist-safety-service/models"
)

// InterfaceAlertService 定义告警派发接口
type InterfaceAlertService interface {
	DispatchSOS(connID string, location *models.Location, alertType string) *models.Alert
	DispatchZoneEntry(user models.ConnectedUser, zone models.Geofence) *models.Alert
}

// AlertService 从原始信号构造告警记录并发布到 admin-alert 主题。
// 投递是fire-and-forget：对每个当前订阅者至多一次，无确认、无重试、
// 无持久化，未连接的管理员会错过历史告警。
type AlertService struct {
	registry InterfaceRegistryService
	bus      *EventBus
}

// NewAlertService 创建告警服务
func NewAlertService(registry InterfaceRegistryService, bus *EventBus) *AlertService {
	return &AlertService{
		registry: registry,
		bus:      bus,
	}
}

// DispatchSOS 由SOS信号构造告警并发布。连接没有对应用户记录时
// 派发仍然成功，用户快照为空。
func (s *AlertService) DispatchSOS(connID string, location *models.Location, alertType string) *models.Alert {
	if alertType == "" {
		alertType = models.AlertTypeSOS
	}

	alert := &models.Alert{
		ID:        uuid.NewString(),
		UserID:    connID,
		Location:  location,
		Type:      alertType,
		Timestamp: time.Now(),
	}
	if user, ok := s.registry.Get(connID); ok {
		alert.User = &user
	}

	log.Printf("SOS告警: 用户=%s 类型=%s", connID, alertType)
	s.bus.Publish(TopicAdminAlert, alert)
	return alert
}

// DispatchZoneEntry 用户进入危险围栏时构造告警并发布
func (s *AlertService) DispatchZoneEntry(user models.ConnectedUser, zone models.Geofence) *models.Alert {
	alert := &models.Alert{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		User:      &user,
		Location:  user.Location,
		Type:      models.AlertTypeDangerZone,
		ZoneID:    zone.ID,
		ZoneName:  zone.Name,
		Timestamp: time.Now(),
	}

	log.Printf("危险区域告警: 用户=%s 围栏=%s", user.ID, zone.ID)
	s.bus.Publish(TopicAdminAlert, alert)
	return alert
}
