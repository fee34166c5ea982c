package models

import "time"

// 告警类型
const (
	AlertTypeSOS        = "SOS"
	AlertTypeDangerZone = "DANGER_ZONE"
)

// Alert 推送给管理员的告警记录。不持久化，仅向当前订阅者投递一次，
// 未连接的管理员不会收到历史告警。
type Alert struct {
	ID        string         `json:"alertId"`
	UserID    string         `json:"userId"`
	User      *ConnectedUser `json:"user"` // 派发时的用户快照，可能为空
	Location  *Location      `json:"location,omitempty"`
	Type      string         `json:"type"`
	ZoneID    string         `json:"zoneId,omitempty"`
	ZoneName  string         `json:"zoneName,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
