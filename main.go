// @title           Tourist Safety Service API
// @version         1.0
// @description     Real-time tourist position tracking with geofence alerting and SOS fan-out

// @host      localhost:3000
// @BasePath  /api
package main

import (
	"fmt"
	"log"
	"os"

	"tourist-safety-service/config"
	"tourist-safety-service/models"
	"tourist-safety-service/routes"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func main() {
	// 初始化日志配置
	if err := config.SetupLogger(); err != nil {
		fmt.Printf("初始化日志配置失败: %v\n", err)
		os.Exit(1)
	}

	// 加载.env文件
	if err := godotenv.Load(); err != nil {
		config.Warning("无法加载.env文件: %v", err)
		// 即使加载失败也继续执行，可能环境变量已经通过其他方式设置
	} else {
		config.Info("成功加载.env文件")
	}

	// 获取配置
	cfg := config.GetConfig()

	// MySQL存储驱动下连接数据库；默认文件存储不需要数据库
	var db *gorm.DB
	if cfg.StorageDriver == "mysql" {
		var err error
		db, err = initDB(cfg)
		if err != nil {
			log.Fatalf("无法连接数据库: %v", err)
		}
		if err := db.AutoMigrate(&models.Geofence{}); err != nil {
			log.Fatalf("数据库迁移失败: %v", err)
		}
		config.Info("已连接MySQL存储: %s", cfg.DBName)
	} else {
		config.Info("使用文件存储: %s", cfg.DataFile)
	}

	// 初始化路由和服务容器
	r, serviceContainer := routes.SetupRouter(db, cfg)
	defer serviceContainer.Shutdown()

	// 启动服务器
	config.Info("服务启动，监听端口: %s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("服务器启动失败: %v", err)
	}
}

// initDB 建立MySQL连接
func initDB(cfg *config.Config) (*gorm.DB, error) {
	return gorm.Open(mysql.Open(cfg.GetDSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}
