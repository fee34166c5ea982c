package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"tourist-safety-service/config"
)

// MQTT外发主题
const (
	// TopicMQTTAdminAlert 告警外发主题，供外部监控系统订阅
	TopicMQTTAdminAlert = "tourist_safety/alerts"
)

// InterfaceMQTTBridgeService 定义MQTT告警桥接接口
type InterfaceMQTTBridgeService interface {
	Connect() error
	Disconnect()
}

// MQTTBridgeService 把 admin-alert 事件转发到MQTT主题，供外部监控
// 系统接入。尽力而为：发布失败只记日志，不影响站内投递。
type MQTTBridgeService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	publishMutex   sync.Mutex
	bus            *EventBus
	unsubscribe    func()
}

// NewMQTTBridgeService 创建MQTT告警桥接服务
func NewMQTTBridgeService(cfg *config.Config, bus *EventBus) *MQTTBridgeService {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID("tourist-safety-" + uuid.NewString()[:8]).
		SetAutoReconnect(true).
		SetConnectRetryInterval(5 * time.Second)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
		opts.SetPassword(cfg.MQTTPassword)
	}

	return &MQTTBridgeService{
		Config: cfg,
		Client: mqtt.NewClient(opts),
		bus:    bus,
	}
}

// Connect 连接MQTT服务器并开始桥接告警
func (s *MQTTBridgeService) Connect() error {
	s.connectedMutex.RLock()
	isConnected := s.IsConnected && s.Client.IsConnected()
	s.connectedMutex.RUnlock()

	if isConnected {
		return nil
	}

	log.Printf("[MQTT] 正在连接到 %s...", s.Config.MQTTBrokerURL)

	token := s.Client.Connect()
	if !token.WaitTimeout(5*time.Second) || token.Error() != nil {
		return fmt.Errorf("[MQTT] 连接失败: %v", token.Error())
	}

	s.connectedMutex.Lock()
	s.IsConnected = true
	s.connectedMutex.Unlock()
	log.Printf("[MQTT] 成功连接到 %s", s.Config.MQTTBrokerURL)

	s.unsubscribe = s.bus.Subscribe(TopicAdminAlert, s.forwardAlert)
	return nil
}

// Disconnect 停止桥接并断开连接
func (s *MQTTBridgeService) Disconnect() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	if s.Client != nil && s.Client.IsConnected() {
		s.Client.Disconnect(250)
	}

	s.connectedMutex.Lock()
	s.IsConnected = false
	s.connectedMutex.Unlock()
}

// forwardAlert 把告警事件序列化后发布到MQTT主题
func (s *MQTTBridgeService) forwardAlert(payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[MQTT] 序列化告警失败: %v", err)
		return
	}

	s.publishMutex.Lock()
	defer s.publishMutex.Unlock()

	// QoS 1，不等待确认，避免阻塞事件总线派发
	s.Client.Publish(TopicMQTTAdminAlert, 1, false, data)
}
