package services

import (
	"fmt"
	"log"
	"sync"

	"tourist-safety-service/models"
	"tourist-safety-service/utils"
)

// InvalidGeofenceError 非法的围栏创建请求（顶点不足或坐标非法）
type InvalidGeofenceError struct {
	Reason string
}

func (e *InvalidGeofenceError) Error() string {
	return "invalid geofence: " + e.Reason
}

// InterfaceGeofenceService 定义围栏服务接口
type InterfaceGeofenceService interface {
	GetAllGeofences() []models.Geofence
	CreateGeofence(name, zoneType string, points models.PointList) (*models.Geofence, error)
	DeleteGeofence(id string) (bool, error)
}

// GeofenceService 围栏集合的唯一所有者。创建和删除都先同步持久化、
// 成功后才更新内存并广播新列表，保证内存与磁盘不产生分歧。
// publishMu 把变更和对应的广播串行化，保证主题上最后一个列表
// 就是集合的最终状态。
type GeofenceService struct {
	publishMu sync.Mutex
	mu        sync.RWMutex
	geofences []models.Geofence
	repo      GeofenceRepository
	bus       *EventBus
}

// NewGeofenceService 创建围栏服务并从持久化存储恢复集合
func NewGeofenceService(repo GeofenceRepository, bus *EventBus) *GeofenceService {
	s := &GeofenceService{
		repo: repo,
		bus:  bus,
	}

	zones, err := repo.Load()
	if err != nil {
		// 数据损坏时从空集合启动，不阻止服务运行
		log.Printf("加载围栏数据失败，以空集合启动: %v", err)
	} else {
		s.geofences = zones
	}
	return s
}

// GetAllGeofences 按插入顺序返回当前围栏集合的副本
func (s *GeofenceService) GetAllGeofences() []models.Geofence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

// CreateGeofence 校验并创建围栏，分配时间戳派生的唯一ID，
// 同步持久化后广播完整列表。持久化失败时内存状态保持不变。
func (s *GeofenceService) CreateGeofence(name, zoneType string, points models.PointList) (*models.Geofence, error) {
	if err := validateGeofence(zoneType, points); err != nil {
		return nil, err
	}

	geofence := models.Geofence{
		ID:     utils.NewTimestampID(),
		Name:   name,
		Type:   zoneType,
		Points: clonePoints(points),
	}

	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	next := append(s.cloneLocked(), geofence)
	if err := s.repo.Save(next); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("持久化围栏失败: %w", err)
	}
	s.geofences = next
	broadcast := s.cloneLocked()
	s.mu.Unlock()

	s.bus.Publish(TopicGeofenceUpdate, broadcast)
	return &geofence, nil
}

// DeleteGeofence 删除指定ID的围栏。ID不存在时是无操作的幂等成功，
// removed 返回值指示是否确有记录被删除，调用方不应以此判定存在性。
func (s *GeofenceService) DeleteGeofence(id string) (bool, error) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	next := make([]models.Geofence, 0, len(s.geofences))
	removed := false
	for _, zone := range s.geofences {
		if zone.ID == id {
			removed = true
			continue
		}
		next = append(next, zone)
	}

	if err := s.repo.Save(next); err != nil {
		s.mu.Unlock()
		return false, fmt.Errorf("持久化围栏失败: %w", err)
	}
	s.geofences = next
	broadcast := s.cloneLocked()
	s.mu.Unlock()

	s.bus.Publish(TopicGeofenceUpdate, broadcast)
	return removed, nil
}

// cloneLocked 调用方必须持有锁
func (s *GeofenceService) cloneLocked() []models.Geofence {
	cloned := make([]models.Geofence, len(s.geofences))
	copy(cloned, s.geofences)
	return cloned
}

// validateGeofence 在任何变更发生之前校验创建请求
func validateGeofence(zoneType string, points models.PointList) error {
	if zoneType != models.GeofenceTypeDanger && zoneType != models.GeofenceTypeSafe {
		return &InvalidGeofenceError{Reason: fmt.Sprintf("未知的围栏类型 %q", zoneType)}
	}
	if len(points) < 3 {
		return &InvalidGeofenceError{Reason: fmt.Sprintf("至少需要3个顶点，收到%d个", len(points))}
	}
	for i, p := range points {
		if len(p) != 2 {
			return &InvalidGeofenceError{Reason: fmt.Sprintf("顶点%d不是(lat, lng)坐标对", i)}
		}
		if !IsFiniteCoordinate(p[0], p[1]) {
			return &InvalidGeofenceError{Reason: fmt.Sprintf("顶点%d坐标非法", i)}
		}
	}
	return nil
}

// clonePoints 拷贝顶点序列，防止调用方后续修改影响已存储的围栏
func clonePoints(points models.PointList) models.PointList {
	cloned := make(models.PointList, len(points))
	for i, p := range points {
		cp := make([]float64, len(p))
		copy(cp, p)
		cloned[i] = cp
	}
	return cloned
}
