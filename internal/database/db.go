package database

import (
	"fmt"
	"os"
	"path/filepath"

	"wallmotion-backend/internal/model"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// Connect 打开数据库并迁移模型，连接句柄由调用方注入到各服务
func Connect(path string) (*gorm.DB, error) {
	// 创建数据目录
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("创建数据目录失败: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}

	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}
	return db, nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Device{},
		&model.ProcessedEvent{},
		&model.UsageRecord{},
		&model.OperationLog{},
	)
}
