package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

var (
	config     *Config
	configOnce sync.Once
)

// Config stores all configuration of the application
type Config struct {
	// Environment type
	EnvType string

	// Server
	ServerPort      string
	CORSAllowOrigin string

	// 存储驱动: "file"(默认，单JSON文件) 或 "mysql"
	StorageDriver string
	DataFile      string

	// Database (仅 StorageDriver=mysql 时使用)
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	// Redis (安全评估结果缓存)
	RedisHost string
	RedisPort string
	RedisDB   int

	// MQTT 告警外发桥接，留空则禁用
	MQTTBrokerURL string
	MQTTUsername  string
	MQTTPassword  string

	// Gemini 安全评估API
	GeminiAPIKey   string
	GeminiAPIURL   string
	GeminiModel    string
	GeminiTimeout  int // 秒
	SafetyCacheTTL int // 分钟
}

// LoadConfig loads config from environment variables based on ENV_TYPE
func LoadConfig() *Config {
	// Get environment type (default to LOCAL if not set)
	envType := getEnv("ENV_TYPE", "LOCAL")
	prefix := ""

	// Set prefix based on environment type
	if strings.ToUpper(envType) == "LOCAL" {
		prefix = "LOCAL_"
	} else if strings.ToUpper(envType) == "SERVER" {
		prefix = "SERVER_"
	} else {
		fmt.Printf("Warning: Unknown ENV_TYPE '%s', defaulting to LOCAL environment\n", envType)
		prefix = "LOCAL_"
		envType = "LOCAL"
	}

	fmt.Printf("Loading configuration for environment: %s\n", envType)

	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	geminiTimeout, _ := strconv.Atoi(getEnv("GEMINI_TIMEOUT", "15"))
	cacheTTL, _ := strconv.Atoi(getEnv("SAFETY_CACHE_TTL", "10"))

	return &Config{
		// Environment type
		EnvType: envType,

		// Server config
		ServerPort:      getEnv(prefix+"SERVER_PORT", getEnv("SERVER_PORT", "3000")),
		CORSAllowOrigin: getEnv("CORS_ALLOW_ORIGIN", "*"),

		// Storage config
		StorageDriver: getEnv(prefix+"STORAGE_DRIVER", getEnv("STORAGE_DRIVER", "file")),
		DataFile:      getEnv(prefix+"DATA_FILE", getEnv("DATA_FILE", "data.json")),

		// Database config - use environment-specific variables if available
		DBHost:     getEnv(prefix+"DB_HOST", getEnv("DB_HOST", "localhost")),
		DBUser:     getEnv(prefix+"DB_USER", getEnv("DB_USER", "root")),
		DBPassword: getEnv(prefix+"DB_PASSWORD", getEnv("DB_PASSWORD", "")),
		DBName:     getEnv(prefix+"DB_NAME", getEnv("DB_NAME", "tourist_safety_db")),
		DBPort:     getEnv(prefix+"DB_PORT", getEnv("DB_PORT", "3306")),

		// Redis config
		RedisHost: getEnv(prefix+"REDIS_HOST", getEnv("REDIS_HOST", "localhost")),
		RedisPort: getEnv(prefix+"REDIS_PORT", getEnv("REDIS_PORT", "6379")),
		RedisDB:   redisDB,

		// MQTT config
		MQTTBrokerURL: getEnv("MQTT_BROKER_URL", ""),
		MQTTUsername:  getEnv("MQTT_USERNAME", ""),
		MQTTPassword:  getEnv("MQTT_PASSWORD", ""),

		// Gemini config
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:   getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta"),
		GeminiModel:    getEnv("GEMINI_MODEL", "gemini-pro"),
		GeminiTimeout:  geminiTimeout,
		SafetyCacheTTL: cacheTTL,
	}
}

// GetConfig 获取全局配置单例
func GetConfig() *Config {
	configOnce.Do(func() {
		config = LoadConfig()
	})
	return config
}

// GetRedisAddr 返回Redis连接地址
func (c *Config) GetRedisAddr() string {
	return c.RedisHost + ":" + c.RedisPort
}

// GetDSN 返回MySQL连接串
func (c *Config) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// getEnv 读取环境变量，未设置时返回默认值
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
