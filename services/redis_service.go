package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"tourist-safety-service/config"
	"tourist-safety-service/models"
)

// InterfaceRedisService 定义Redis缓存接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheSafetyPrediction(location *models.Location, prediction *models.SafetyPrediction, expiration time.Duration) error
	GetSafetyPrediction(location *models.Location) (*models.SafetyPrediction, error)
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheSafetyPrediction caches a safety prediction for a location
func (s *RedisService) CacheSafetyPrediction(location *models.Location, prediction *models.SafetyPrediction, expiration time.Duration) error {
	return s.Set(safetyCacheKey(location), prediction, expiration)
}

// GetSafetyPrediction gets a cached safety prediction for a location
func (s *RedisService) GetSafetyPrediction(location *models.Location) (*models.SafetyPrediction, error) {
	var prediction models.SafetyPrediction
	if err := s.Get(safetyCacheKey(location), &prediction); err != nil {
		return nil, err
	}
	return &prediction, nil
}

// safetyCacheKey 坐标按4位小数取整作为缓存键，约10米粒度
func safetyCacheKey(location *models.Location) string {
	return fmt.Sprintf("safety:%.4f,%.4f", location.Lat, location.Lng)
}
