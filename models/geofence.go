package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// 地理围栏类型
const (
	GeofenceTypeDanger = "danger"
	GeofenceTypeSafe   = "safe"
)

// PointList 多边形顶点序列，按 [[lat, lng], ...] 格式序列化。
// 首尾顶点隐式相连构成闭合多边形。
type PointList [][]float64

// Value 实现 driver.Valuer，顶点序列以JSON列存储
func (p PointList) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan 实现 sql.Scanner
func (p *PointList) Scan(value interface{}) error {
	if value == nil {
		*p = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return errors.New("不支持的PointList列类型")
	}
}

// Geofence 地理围栏，系统中唯一的持久化实体。
// ID在创建时分配且不可变，由毫秒时间戳派生，可按创建时间排序。
type Geofence struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"`
	Name      string    `json:"name"`
	Type      string    `gorm:"size:16" json:"type"` // danger | safe
	Points    PointList `gorm:"type:json" json:"points"`
	CreatedAt time.Time `json:"-"`
}

// TableName 指定表名
func (Geofence) TableName() string {
	return "geofences"
}
