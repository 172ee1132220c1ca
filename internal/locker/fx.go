package locker

import (
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/servizo/walletd/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func New(cfg config.Config, log *zap.Logger) Locker {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		log.Named("locker").Info("redis not configured, using in-process lock")
		return NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisLocker(client)
}

var Module = fx.Module("locker",
	fx.Provide(New),
)
