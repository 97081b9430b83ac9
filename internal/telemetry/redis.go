package telemetry

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

// RedisSource 基于 Redis 的遥测源
//
// 快照存放在 hash <path> 中（field = snapshot id，value = JSON 读数），
// 写入方在 HSET 之后向 <path>:updates 发布通知。
type RedisSource struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisSource 创建 Redis 遥测源
func NewRedisSource(client *redis.Client, logger *zap.Logger) *RedisSource {
	return &RedisSource{client: client, logger: logger}
}

// UpdatesChannel 变更通知频道
func UpdatesChannel(path string) string {
	return path + ":updates"
}

// Subscribe 订阅 path 的变更，订阅成功后立即推送一次当前快照
func (s *RedisSource) Subscribe(ctx context.Context, path string, h Handler) (Subscription, error) {
	pubsub := s.client.Subscribe(ctx, UpdatesChannel(path))

	// 等待订阅确认
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("%w: subscribe %s: %v", ErrSourceUnavailable, path, err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &redisSubscription{
		pubsub: pubsub,
		cancel: cancel,
	}

	go s.readLoop(subCtx, path, pubsub.Channel(), h)

	s.logger.Debug("Redis telemetry subscribed", zap.String("path", path))
	return sub, nil
}

// readLoop 读取变更通知并推送完整快照
func (s *RedisSource) readLoop(ctx context.Context, path string, ch <-chan *redis.Message, h Handler) {
	s.deliver(ctx, path, h)

	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-ch:
			if !ok {
				return
			}
			// 合并积压的通知，只读一次最新快照
			drained := false
			for !drained {
				select {
				case _, ok := <-ch:
					if !ok {
						return
					}
				default:
					drained = true
				}
			}
			s.deliver(ctx, path, h)
		}
	}
}

func (s *RedisSource) deliver(ctx context.Context, path string, h Handler) {
	values, err := s.client.HGetAll(ctx, path).Result()
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		s.logger.Warn("Failed to read telemetry snapshot",
			zap.String("path", path),
			zap.Error(err))
		h.fail(fmt.Errorf("%w: read %s: %v", ErrSourceUnavailable, path, err))
		return
	}

	snapshot := make(models.Snapshot, len(values))
	for id, raw := range values {
		snapshot[id] = DecodeReading([]byte(raw))
	}
	h.snapshot(snapshot)
}

// Put 写入读数并发布变更通知
func (s *RedisSource) Put(ctx context.Context, path, snapshotID string, reading models.RawReading) error {
	data, err := EncodeReading(reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, path, snapshotID, data)
	pipe.Publish(ctx, UpdatesChannel(path), snapshotID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline failed: %w", err)
	}
	return nil
}

// Close 关闭客户端
func (s *RedisSource) Close() error {
	return s.client.Close()
}

type redisSubscription struct {
	once   sync.Once
	pubsub *redis.PubSub
	cancel context.CancelFunc
}

func (r *redisSubscription) Unsubscribe() {
	r.once.Do(func() {
		r.cancel()
		r.pubsub.Close()
	})
}
