package services

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"tourist-safety-service/models"
)

// GeofenceRepository 围栏持久化接口。每次变更都整体写入完整集合，
// 启动时整体读回。接口收窄是为了之后能换成异步或批量写而不动存储层之上的逻辑。
type GeofenceRepository interface {
	Load() ([]models.Geofence, error)
	Save(zones []models.Geofence) error
}

// geofenceFile 持久化文件布局：单个JSON文档，只含围栏，
// 在线用户永远不落盘。
type geofenceFile struct {
	Geofences []models.Geofence `json:"geofences"`
}

// FileGeofenceRepository 把完整围栏集合序列化到单个JSON文件。
// 写入走临时文件+重命名，避免写到一半的文件被当作有效数据读回。
type FileGeofenceRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileGeofenceRepository 创建文件持久化实现
func NewFileGeofenceRepository(path string) *FileGeofenceRepository {
	return &FileGeofenceRepository{path: path}
}

// Load 读取持久化文件。文件不存在视为空集合而非错误。
func (r *FileGeofenceRepository) Load() ([]models.Geofence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取围栏文件失败: %w", err)
	}

	var file geofenceFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("解析围栏文件失败: %w", err)
	}
	return file.Geofences, nil
}

// Save 整体覆盖写入围栏集合
func (r *FileGeofenceRepository) Save(zones []models.Geofence) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	file := geofenceFile{Geofences: zones}
	if file.Geofences == nil {
		file.Geofences = []models.Geofence{}
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化围栏失败: %w", err)
	}

	tmp := r.path + ".tmp"
	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建数据目录失败: %w", err)
		}
	}
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("写入围栏文件失败: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("替换围栏文件失败: %w", err)
	}
	return nil
}
