package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

// NATSSource 基于 JetStream KeyValue 的遥测源，key 为 <path>.<snapshot id>
type NATSSource struct {
	nc     *nats.Conn
	kv     nats.KeyValue
	logger *zap.Logger
}

// NewNATSSource 打开（不存在则创建）KV bucket
func NewNATSSource(nc *nats.Conn, bucket string, logger *zap.Logger) (*NATSSource, error) {
	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	kv, err := js.KeyValue(bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{
			Bucket:  bucket,
			History: 1,
		})
	}
	if err != nil {
		return nil, fmt.Errorf("open kv bucket %s: %w", bucket, err)
	}

	return &NATSSource{nc: nc, kv: kv, logger: logger}, nil
}

// Subscribe 监听 path 下的全部 key，初始值加载完成后推送第一份快照
func (s *NATSSource) Subscribe(_ context.Context, path string, h Handler) (Subscription, error) {
	prefix := path + "."
	watcher, err := s.kv.Watch(prefix + ">")
	if err != nil {
		return nil, fmt.Errorf("%w: watch %s: %v", ErrSourceUnavailable, path, err)
	}

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &natsSubscription{watcher: watcher, cancel: cancel}

	go s.watchLoop(subCtx, prefix, watcher, h)

	s.logger.Debug("NATS telemetry subscribed", zap.String("path", path))
	return sub, nil
}

func (s *NATSSource) watchLoop(ctx context.Context, prefix string, watcher nats.KeyWatcher, h Handler) {
	snapshot := models.Snapshot{}
	initialized := false

	for {
		select {
		case <-ctx.Done():
			return
		case entry, ok := <-watcher.Updates():
			if !ok {
				if ctx.Err() == nil {
					h.fail(fmt.Errorf("%w: watcher closed", ErrSourceUnavailable))
				}
				return
			}

			// nil 表示初始值已全部送达
			if entry == nil {
				initialized = true
				h.snapshot(snapshot.Clone())
				continue
			}

			id := strings.TrimPrefix(entry.Key(), prefix)
			switch entry.Operation() {
			case nats.KeyValuePut:
				snapshot[id] = DecodeReading(entry.Value())
			default:
				delete(snapshot, id)
			}

			if initialized {
				h.snapshot(snapshot.Clone())
			}
		}
	}
}

// Put 写入读数
func (s *NATSSource) Put(ctx context.Context, path, snapshotID string, reading models.RawReading) error {
	data, err := EncodeReading(reading)
	if err != nil {
		return fmt.Errorf("encode reading: %w", err)
	}
	if _, err := s.kv.Put(path+"."+snapshotID, data); err != nil {
		return fmt.Errorf("kv put: %w", err)
	}
	return nil
}

// Close 关闭连接
func (s *NATSSource) Close() error {
	s.nc.Close()
	return nil
}

type natsSubscription struct {
	once    sync.Once
	watcher nats.KeyWatcher
	cancel  context.CancelFunc
}

func (n *natsSubscription) Unsubscribe() {
	n.once.Do(func() {
		n.cancel()
		n.watcher.Stop()
	})
}
