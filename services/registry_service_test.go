package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourist-safety-service/models"
)

func TestRegistryService_RegisterAndGet(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	registry.Register("conn-1", models.ConnectedUser{Name: "张三", Phone: "13800000000"})

	user, ok := registry.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "conn-1", user.ID)
	assert.Equal(t, "张三", user.Name)
	assert.Equal(t, "13800000000", user.Phone)
	// 未声明类型时默认为游客
	assert.Equal(t, models.UserTypeTourist, user.Type)
	assert.False(t, user.LastSeen.IsZero())
}

func TestRegistryService_ReRegisterOverwrites(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	registry.Register("conn-1", models.ConnectedUser{Name: "张三"})
	registry.UpdateLocation("conn-1", models.Location{Lat: 1, Lng: 2}, models.ZoneStatusSafe)

	// 重复注册整体覆盖旧记录，位置和区域状态一并丢弃
	registry.Register("conn-1", models.ConnectedUser{Name: "李四", Type: models.UserTypeAdmin})

	user, ok := registry.Get("conn-1")
	require.True(t, ok)
	assert.Equal(t, "李四", user.Name)
	assert.Equal(t, models.UserTypeAdmin, user.Type)
	assert.Nil(t, user.Location)
	assert.Empty(t, user.ZoneStatus)
	assert.Len(t, registry.Snapshot(), 1)
}

func TestRegistryService_UpdateLocation(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	registry.Register("conn-1", models.ConnectedUser{Name: "张三"})

	prev, synthesized := registry.UpdateLocation("conn-1", models.Location{Lat: 15, Lng: 15}, models.ZoneStatusDanger)
	assert.Empty(t, prev)
	assert.False(t, synthesized)

	prev, synthesized = registry.UpdateLocation("conn-1", models.Location{Lat: 25, Lng: 25}, models.ZoneStatusNeutral)
	assert.Equal(t, models.ZoneStatusDanger, prev)
	assert.False(t, synthesized)

	user, ok := registry.Get("conn-1")
	require.True(t, ok)
	require.NotNil(t, user.Location)
	assert.Equal(t, 25.0, user.Location.Lat)
	assert.Equal(t, models.ZoneStatusNeutral, user.ZoneStatus)
}

func TestRegistryService_UpdateLocation_SynthesizesPlaceholder(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	// 未注册的连接上报位置时合成占位记录
	prev, synthesized := registry.UpdateLocation("ghost", models.Location{Lat: 1, Lng: 2}, models.ZoneStatusNeutral)
	assert.Empty(t, prev)
	assert.True(t, synthesized)

	user, ok := registry.Get("ghost")
	require.True(t, ok)
	assert.Equal(t, "Reconnect User", user.Name)
	assert.Equal(t, models.UserTypeTourist, user.Type)
	require.NotNil(t, user.Location)
	assert.Equal(t, 1.0, user.Location.Lat)
}

func TestRegistryService_RemoveIdempotent(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	registry.Register("conn-1", models.ConnectedUser{Name: "张三"})
	registry.Remove("conn-1")

	_, ok := registry.Get("conn-1")
	assert.False(t, ok)
	assert.Empty(t, registry.Snapshot())

	// 重复删除与删除不存在的连接都是安全的
	registry.Remove("conn-1")
	registry.Remove("never-registered")
	assert.Empty(t, registry.Snapshot())
}

func TestRegistryService_SnapshotOrderAndIsolation(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	registry.Register("a", models.ConnectedUser{Name: "甲"})
	registry.Register("b", models.ConnectedUser{Name: "乙"})
	registry.Register("c", models.ConnectedUser{Name: "丙"})
	registry.Remove("b")

	snapshot := registry.Snapshot()
	require.Len(t, snapshot, 2)
	// 按注册顺序排列
	assert.Equal(t, "a", snapshot[0].ID)
	assert.Equal(t, "c", snapshot[1].ID)

	// 快照是副本，修改不影响注册表
	snapshot[0].Name = "改名"
	user, _ := registry.Get("a")
	assert.Equal(t, "甲", user.Name)
}

func TestRegistryService_PublishesUsersUpdate(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	var published [][]models.ConnectedUser
	bus.Subscribe(TopicUsersUpdate, func(payload interface{}) {
		snapshot, ok := payload.([]models.ConnectedUser)
		require.True(t, ok)
		published = append(published, snapshot)
	})

	registry.Register("conn-1", models.ConnectedUser{Name: "张三"})
	registry.UpdateLocation("conn-1", models.Location{Lat: 1, Lng: 2}, models.ZoneStatusSafe)
	registry.Remove("conn-1")

	// 每次变更都广播完整快照
	require.Len(t, published, 3)
	assert.Len(t, published[0], 1)
	require.NotNil(t, published[1][0].Location)
	assert.Equal(t, models.ZoneStatusSafe, published[1][0].ZoneStatus)
	assert.Empty(t, published[2])
}

func TestRegistryService_LastPublishedSnapshotIsFinalState(t *testing.T) {
	bus := NewEventBus()
	registry := NewRegistryService(bus)

	var mu sync.Mutex
	var last []models.ConnectedUser
	bus.Subscribe(TopicUsersUpdate, func(payload interface{}) {
		mu.Lock()
		last = payload.([]models.ConnectedUser)
		mu.Unlock()
	})

	// 并发注册/更新/删除之后，主题上最后一个快照必须等于注册表的最终状态
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", n)
			for j := 0; j < 50; j++ {
				registry.Register(connID, models.ConnectedUser{Name: "游客"})
				registry.UpdateLocation(connID, models.Location{Lat: float64(j), Lng: float64(j)}, models.ZoneStatusNeutral)
				if n%2 == 0 {
					registry.Remove(connID)
				}
			}
		}(i)
	}
	wg.Wait()

	final := registry.Snapshot()
	mu.Lock()
	defer mu.Unlock()
	require.Len(t, last, len(final))
	for i := range final {
		assert.Equal(t, final[i].ID, last[i].ID)
		assert.Equal(t, final[i].ZoneStatus, last[i].ZoneStatus)
	}
}
