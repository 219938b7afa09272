package testutil

import (
	"Agora/internal/api/config"
	"Agora/internal/model"
	"Agora/internal/pkg/database"
	"Agora/internal/pkg/redis"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB 每个测试独立的内存 SQLite，单连接使事务天然串行
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.NewGormDB(&config.DBConfig{
		Driver:      database.DriverSQLite,
		DSN:         fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		MaxIdle:     1,
		MaxOpen:     1,
		LogLevel:    "silent",
		AutoMigrate: true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// NewRedis 启动 miniredis 并替换全局客户端
func NewRedis(t testing.TB) *miniredis.Miniredis {
	t.Helper()

	mr := miniredis.RunT(t)
	require.NoError(t, redis.InitRedis(config.RedisConfig{Addr: mr.Addr(), PoolSize: 16}))

	t.Cleanup(func() {
		_ = redis.Close()
	})
	return mr
}

// CreatePost 直接落库一篇已发布的帖子
func CreatePost(t testing.TB, db *gorm.DB, authorID uint64) *model.Post {
	t.Helper()

	post := &model.Post{
		UserID:      authorID,
		Title:       "title",
		Content:     "content",
		IsPublished: true,
	}
	require.NoError(t, db.Create(post).Error)
	return post
}

// ReloadPost 读取帖子最新计数，包含已逻辑删除的帖子
func ReloadPost(t testing.TB, db *gorm.DB, postID uint64) *model.Post {
	t.Helper()

	var post model.Post
	require.NoError(t, db.Unscoped().First(&post, postID).Error)
	return &post
}
