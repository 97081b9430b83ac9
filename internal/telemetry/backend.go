package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Backend 可读可写的遥测后端
type Backend interface {
	Source
	Writer
}

// BackendConfig 后端连接参数
type BackendConfig struct {
	Kind          string // redis | nats | memory
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NATSURL       string
	NATSKVBucket  string
}

// Open 按配置连接遥测后端，未知类型使用内存后端
func Open(ctx context.Context, cfg BackendConfig, logger *zap.Logger) (Backend, error) {
	switch cfg.Kind {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
		return NewRedisSource(client, logger), nil

	case "nats":
		nc, err := nats.Connect(cfg.NATSURL,
			nats.Name("h2gazer"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					logger.Warn("NATS disconnected", zap.Error(err))
				}
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				logger.Info("NATS reconnected")
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("connect nats %s: %w", cfg.NATSURL, err)
		}

		src, err := NewNATSSource(nc, cfg.NATSKVBucket, logger)
		if err != nil {
			nc.Close()
			return nil, err
		}
		logger.Info("Connected to NATS", zap.String("url", cfg.NATSURL), zap.String("bucket", cfg.NATSKVBucket))
		return src, nil

	default:
		logger.Info("Using in-memory telemetry source")
		return NewMemorySource(), nil
	}
}
