package services

import (
	"sync"
	"time"

	"tourist-safety-service/models"
)

// InterfaceRegistryService 定义在线用户注册表接口。
// 注册表是用户记录的唯一所有者，所有处理器都通过这里读写。
type InterfaceRegistryService interface {
	Register(connID string, identity models.ConnectedUser)
	UpdateLocation(connID string, location models.Location, zoneStatus string) (prevStatus string, synthesized bool)
	Remove(connID string)
	Snapshot() []models.ConnectedUser
	Get(connID string) (models.ConnectedUser, bool)
}

// RegistryService 在线用户注册表。记录以连接ID为键，随连接建立而生，
// 随断开而亡，不做任何持久化。每次变更都向 users-update 主题发布完整快照。
// publishMu 把变更和对应的发布串行化，保证主题上最后一个快照
// 就是注册表的最终状态。
type RegistryService struct {
	publishMu sync.Mutex
	mu        sync.RWMutex
	users     map[string]*models.ConnectedUser
	order     []string // 插入顺序，保证快照在进程内确定
	bus       *EventBus
}

// NewRegistryService 创建在线用户注册表
func NewRegistryService(bus *EventBus) *RegistryService {
	return &RegistryService{
		users: make(map[string]*models.ConnectedUser),
		bus:   bus,
	}
}

// Register 创建或整体覆盖连接对应的用户记录，lastSeen 取当前时间。
// 重复注册是幂等的：直接替换旧记录。
func (s *RegistryService) Register(connID string, identity models.ConnectedUser) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	user := &models.ConnectedUser{
		ID:       connID,
		Name:     identity.Name,
		Phone:    identity.Phone,
		Type:     identity.Type,
		LastSeen: time.Now(),
	}
	if user.Type == "" {
		user.Type = models.UserTypeTourist
	}
	if _, exists := s.users[connID]; !exists {
		s.order = append(s.order, connID)
	}
	s.users[connID] = user
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.bus.Publish(TopicUsersUpdate, snapshot)
}

// UpdateLocation 更新位置、lastSeen 和区域状态。连接没有对应记录时
// （例如服务重启后连接还活着）合成一条占位记录而不是报错，
// synthesized 返回值让调用方能观察到这条恢复路径。
func (s *RegistryService) UpdateLocation(connID string, location models.Location, zoneStatus string) (string, bool) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	user, exists := s.users[connID]
	if !exists {
		user = &models.ConnectedUser{
			ID:   connID,
			Name: "Reconnect User",
			Type: models.UserTypeTourist,
		}
		s.users[connID] = user
		s.order = append(s.order, connID)
	}

	prevStatus := user.ZoneStatus
	loc := location
	user.Location = &loc
	user.ZoneStatus = zoneStatus
	user.LastSeen = time.Now()
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.bus.Publish(TopicUsersUpdate, snapshot)
	return prevStatus, !exists
}

// Remove 删除连接对应的记录。记录不存在时也是安全的：
// 未注册即断开的连接不会报错。
func (s *RegistryService) Remove(connID string) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if _, exists := s.users[connID]; exists {
		delete(s.users, connID)
		for i, id := range s.order {
			if id == connID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.bus.Publish(TopicUsersUpdate, snapshot)
}

// Snapshot 返回全部在线用户的副本，按注册顺序排列
func (s *RegistryService) Snapshot() []models.ConnectedUser {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Get 返回连接对应用户记录的副本
func (s *RegistryService) Get(connID string) (models.ConnectedUser, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[connID]
	if !ok {
		return models.ConnectedUser{}, false
	}
	return copyUser(user), true
}

// snapshotLocked 调用方必须持有锁
func (s *RegistryService) snapshotLocked() []models.ConnectedUser {
	snapshot := make([]models.ConnectedUser, 0, len(s.users))
	for _, id := range s.order {
		if user, ok := s.users[id]; ok {
			snapshot = append(snapshot, copyUser(user))
		}
	}
	return snapshot
}

// copyUser 深拷贝用户记录，避免快照与注册表共享可变状态
func copyUser(user *models.ConnectedUser) models.ConnectedUser {
	copied := *user
	if user.Location != nil {
		loc := *user.Location
		copied.Location = &loc
	}
	return copied
}
