package models

import "time"

// Location 经纬度坐标
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// 区域状态：位置与围栏集合比对后的分类结果
const (
	ZoneStatusDanger  = "danger"
	ZoneStatusSafe    = "safe"
	ZoneStatusNeutral = "neutral"
)

// 用户角色
const (
	UserTypeTourist = "tourist"
	UserTypeAdmin   = "admin"
)

// ConnectedUser 在线用户记录，仅存在于连接生命周期内，不做任何持久化。
// ID等于实时连接ID，断线重连后会获得全新身份，需要重新注册。
type ConnectedUser struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone,omitempty"`
	Type       string    `json:"type"` // tourist | admin
	Location   *Location `json:"location,omitempty"`
	ZoneStatus string    `json:"zoneStatus,omitempty"`
	LastSeen   time.Time `json:"lastSeen"`
}
