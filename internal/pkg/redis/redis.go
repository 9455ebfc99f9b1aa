package redis

import (
	"context"
	"fmt"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/config"
	"github.com/redis/go-redis/v9"
)

// Rdb is the shared client. Session storage and rate limiting build on it
// directly via their own managers.
var Rdb *redis.Client

func InitRedis() error {
	redisCfg := config.GlobalConfig.Database.Redis

	Rdb = redis.NewClient(&redis.Options{
		Addr:       fmt.Sprintf("%s:%d", redisCfg.Host, redisCfg.Port),
		Password:   redisCfg.Password,
		DB:         redisCfg.DB,
		PoolSize:   redisCfg.PoolSize,
		MaxRetries: redisCfg.MaxRetries,
	})

	// 测试连接
	if _, err := Rdb.Ping(context.Background()).Result(); err != nil {
		return fmt.Errorf("Redis连接失败: %w", err)
	}

	return nil
}

func Close() error {
	if Rdb != nil {
		return Rdb.Close()
	}
	return nil
}
