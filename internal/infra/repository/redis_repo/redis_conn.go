package redis_repo

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient 建立連線並 ping 一次確認可用
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
