package services

import "sync"

// 事件总线主题，与实时通道下行事件名保持一致
const (
	// TopicGeofenceUpdate 携带完整围栏列表，last-value-wins
	TopicGeofenceUpdate = "geofence-update"
	// TopicUsersUpdate 携带完整在线用户快照，last-value-wins
	TopicUsersUpdate = "users-update"
	// TopicAdminAlert 逐条告警事件，不合并，不为晚加入者缓存
	TopicAdminAlert = "admin-alert"
)

// EventHandler 订阅回调，在发布方的调用栈内同步执行
type EventHandler func(payload interface{})

// topicState 单个主题的订阅者集合。
// publishMu 串行化同一主题的派发，保证每个订阅者观察到的发布顺序；
// 不同主题之间没有顺序保证。
type topicState struct {
	publishMu sync.Mutex
	mu        sync.RWMutex
	handlers  map[int]EventHandler
}

// EventBus 进程内发布/订阅总线。投递为尽力而为：无缓冲、无重放、
// 无跨主题顺序保证，订阅者只会收到订阅之后发布的事件。
type EventBus struct {
	mu     sync.Mutex
	topics map[string]*topicState
	nextID int
}

// NewEventBus 创建事件总线
func NewEventBus() *EventBus {
	return &EventBus{
		topics: make(map[string]*topicState),
	}
}

// topic 获取或创建主题状态
func (b *EventBus) topic(name string) *topicState {
	b.mu.Lock()
	defer b.mu.Unlock()

	ts, ok := b.topics[name]
	if !ok {
		ts = &topicState{handlers: make(map[int]EventHandler)}
		b.topics[name] = ts
	}
	return ts
}

// Subscribe 订阅主题，返回取消订阅函数。取消后不再收到任何事件，
// 重复取消是安全的。
func (b *EventBus) Subscribe(name string, handler EventHandler) func() {
	ts := b.topic(name)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.mu.Unlock()

	ts.mu.Lock()
	ts.handlers[id] = handler
	ts.mu.Unlock()

	return func() {
		ts.mu.Lock()
		delete(ts.handlers, id)
		ts.mu.Unlock()
	}
}

// Publish 向主题的所有当前订阅者同步派发事件
func (b *EventBus) Publish(name string, payload interface{}) {
	ts := b.topic(name)

	ts.publishMu.Lock()
	defer ts.publishMu.Unlock()

	ts.mu.RLock()
	handlers := make([]EventHandler, 0, len(ts.handlers))
	for _, h := range ts.handlers {
		handlers = append(handlers, h)
	}
	ts.mu.RUnlock()

	for _, h := range handlers {
		h(payload)
	}
}
