package services

import (
	"fmt"

	"gorm.io/gorm"

	"tourist-safety-service/models"
)

// MySQLGeofenceRepository 基于gorm的持久化实现，STORAGE_DRIVER=mysql 时启用。
// 与文件实现遵循同一契约：Save整体替换集合，Load按创建顺序读回。
type MySQLGeofenceRepository struct {
	db *gorm.DB
}

// NewMySQLGeofenceRepository 创建MySQL持久化实现
func NewMySQLGeofenceRepository(db *gorm.DB) *MySQLGeofenceRepository {
	return &MySQLGeofenceRepository{db: db}
}

// Load 按ID（毫秒时间戳派生，等长字符串，字典序即创建序）读回全部围栏
func (r *MySQLGeofenceRepository) Load() ([]models.Geofence, error) {
	var zones []models.Geofence
	if err := r.db.Order("id").Find(&zones).Error; err != nil {
		return nil, fmt.Errorf("查询围栏失败: %w", err)
	}
	return zones, nil
}

// Save 在单个事务内整体替换围栏集合，失败时回滚，不留部分写入
func (r *MySQLGeofenceRepository) Save(zones []models.Geofence) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&models.Geofence{}).Error; err != nil {
			return err
		}
		if len(zones) == 0 {
			return nil
		}
		return tx.Create(&zones).Error
	})
	if err != nil {
		return fmt.Errorf("保存围栏失败: %w", err)
	}
	return nil
}
