package services

import (
	"log"

	socketio "github.com/googollee/go-socket.io"

	"tourist-safety-service/models"
)

// 客户端上行事件
const (
	EventRegisterUser   = "register-user"
	EventLocationUpdate = "location-update"
	EventSOSAlert       = "sos-alert"
)

// RegisterUserPayload register-user 事件载荷
type RegisterUserPayload struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Type  string `json:"type"`
}

// LocationPayload location-update 事件载荷
type LocationPayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SOSPayload sos-alert 事件载荷
type SOSPayload struct {
	Location *models.Location `json:"location"`
	Type     string           `json:"type"`
}

// InterfaceRealtimeService 定义实时通道服务接口
type InterfaceRealtimeService interface {
	Server() *socketio.Server
	Start()
	Close() error
}

// RealtimeService 实时通道层：接收客户端的注册/位置/SOS事件，
// 并把事件总线上的三个主题广播给所有连接。连接ID即用户身份，
// 断开即销毁，重连得到全新身份。
type RealtimeService struct {
	server    *socketio.Server
	registry  InterfaceRegistryService
	geofences InterfaceGeofenceService
	geometry  *GeometryService
	alerts    InterfaceAlertService
	bus       *EventBus
	unsubs    []func()
}

// NewRealtimeService 创建实时通道服务并注册全部事件处理器
func NewRealtimeService(
	registry InterfaceRegistryService,
	geofences InterfaceGeofenceService,
	geometry *GeometryService,
	alerts InterfaceAlertService,
	bus *EventBus,
) *RealtimeService {
	s := &RealtimeService{
		server:    socketio.NewServer(nil),
		registry:  registry,
		geofences: geofences,
		geometry:  geometry,
		alerts:    alerts,
		bus:       bus,
	}

	s.registerHandlers()
	s.bridgeTopics()
	return s
}

// Server 返回底层Socket.IO服务器，供路由层挂载
func (s *RealtimeService) Server() *socketio.Server {
	return s.server
}

// Start 启动Socket.IO事件循环
func (s *RealtimeService) Start() {
	go func() {
		if err := s.server.Serve(); err != nil {
			log.Printf("Socket.IO服务异常退出: %v", err)
		}
	}()
}

// Close 取消总线订阅并关闭Socket.IO服务器
func (s *RealtimeService) Close() error {
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	return s.server.Close()
}

// registerHandlers 注册连接生命周期和上行事件处理器。
// 非法载荷只丢弃并记日志，既不断开连接也不让进程崩溃。
func (s *RealtimeService) registerHandlers() {
	s.server.OnConnect("/", func(conn socketio.Conn) error {
		log.Printf("用户已连接: %s", conn.ID())
		return nil
	})

	s.server.OnEvent("/", EventRegisterUser, func(conn socketio.Conn, payload RegisterUserPayload) {
		s.handleRegisterUser(conn.ID(), payload)
	})

	s.server.OnEvent("/", EventLocationUpdate, func(conn socketio.Conn, payload LocationPayload) {
		s.handleLocationUpdate(conn.ID(), payload)
	})

	s.server.OnEvent("/", EventSOSAlert, func(conn socketio.Conn, payload SOSPayload) {
		s.handleSOSAlert(conn.ID(), payload)
	})

	s.server.OnDisconnect("/", func(conn socketio.Conn, reason string) {
		log.Printf("用户已断开: %s (%s)", conn.ID(), reason)
		s.handleDisconnect(conn.ID())
	})

	s.server.OnError("/", func(conn socketio.Conn, err error) {
		log.Printf("Socket.IO连接错误: %v", err)
	})
}

// handleRegisterUser 处理连接的身份注册
func (s *RealtimeService) handleRegisterUser(connID string, payload RegisterUserPayload) {
	s.registry.Register(connID, models.ConnectedUser{
		Name:  payload.Name,
		Phone: payload.Phone,
		Type:  payload.Type,
	})
}

// handleLocationUpdate 处理位置上报：分类、更新注册表，
// 并在进入危险区域的瞬间派发一次告警
func (s *RealtimeService) handleLocationUpdate(connID string, payload LocationPayload) {
	if !IsFiniteCoordinate(payload.Lat, payload.Lng) {
		log.Printf("忽略非法位置上报: %s", connID)
		return
	}

	location := models.Location{Lat: payload.Lat, Lng: payload.Lng}
	status := s.geometry.Classify(location, s.geofences.GetAllGeofences())

	prevStatus, synthesized := s.registry.UpdateLocation(connID, location, status)
	if synthesized {
		log.Printf("为未注册连接合成占位用户记录: %s", connID)
	}

	// 进入危险区域的瞬间告警一次，持续停留不重复告警
	if status == models.ZoneStatusDanger && prevStatus != models.ZoneStatusDanger {
		if user, ok := s.registry.Get(connID); ok {
			if zone, found := s.findDangerZone(location); found {
				s.alerts.DispatchZoneEntry(user, zone)
			}
		}
	}
}

// handleSOSAlert 处理SOS信号，非法坐标按无位置处理
func (s *RealtimeService) handleSOSAlert(connID string, payload SOSPayload) {
	location := payload.Location
	if location != nil && !IsFiniteCoordinate(location.Lat, location.Lng) {
		location = nil
	}
	s.alerts.DispatchSOS(connID, location, payload.Type)
}

// handleDisconnect 连接断开即销毁对应的用户记录
func (s *RealtimeService) handleDisconnect(connID string) {
	s.registry.Remove(connID)
}

// bridgeTopics 把事件总线的三个主题广播到默认命名空间
func (s *RealtimeService) bridgeTopics() {
	for _, topic := range []string{TopicGeofenceUpdate, TopicUsersUpdate, TopicAdminAlert} {
		topic := topic
		unsub := s.bus.Subscribe(topic, func(payload interface{}) {
			s.server.BroadcastToNamespace("/", topic, payload)
		})
		s.unsubs = append(s.unsubs, unsub)
	}
}

// findDangerZone 返回包含该点的第一个危险围栏
func (s *RealtimeService) findDangerZone(location models.Location) (models.Geofence, bool) {
	for _, zone := range s.geofences.GetAllGeofences() {
		if zone.Type == models.GeofenceTypeDanger && s.geometry.pointInPolygon(location, zone.Points) {
			return zone, true
		}
	}
	return models.Geofence{}, false
}
