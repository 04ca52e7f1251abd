// Package testutil 测试用数据库
package testutil

import (
	"path/filepath"
	"testing"

	"saasadmin/internal/database"
	"saasadmin/pkg/config"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// NewDB 在临时目录创建已迁移的 sqlite 数据库。
// 单连接，事务内的查询必须使用 tx 而不是外层 db。
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)"
	db, err := database.Open(sqlite.Open(dsn), config.DatabaseConfig{
		MaxOpenConns: 1,
		LogLevel:     "silent",
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}
