package redis

import (
	"context"
	"fmt"
	"time"

	"docsearch/backend/go/internal/config"

	"github.com/go-redis/redis/v8"
)

// pingTimeout 限制启动时连接检查的等待时间。
const pingTimeout = 5 * time.Second

// NewClient 根据配置创建 Redis 客户端，并使用 Ping 检查连接是否可用。
// 连接失败时客户端会被关闭。
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("无法连接到 Redis (%s): %w", cfg.Address, err)
	}
	return rdb, nil
}
