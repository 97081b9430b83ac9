package telemetry

import (
	"context"
	"sync"

	"github.com/langchou/h2gazer/internal/models"
)

// MemorySource 进程内遥测源，用于 mock 模式和测试
type MemorySource struct {
	// order 串行化写入与推送，保证推送顺序与写入顺序一致
	order sync.Mutex
	mu    sync.Mutex
	data  map[string]models.Snapshot
	subs  map[string]map[*memorySubscription]struct{}
}

// NewMemorySource 创建内存遥测源
func NewMemorySource() *MemorySource {
	return &MemorySource{
		data: make(map[string]models.Snapshot),
		subs: make(map[string]map[*memorySubscription]struct{}),
	}
}

type memoryUpdate struct {
	snapshot models.Snapshot
	err      error
}

// Subscribe 订阅 path，立即推送当前快照（可能为空）
func (m *MemorySource) Subscribe(ctx context.Context, path string, h Handler) (Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.order.Lock()
	defer m.order.Unlock()

	subCtx, cancel := context.WithCancel(context.Background())
	sub := &memorySubscription{
		source:  m,
		path:    path,
		ctx:     subCtx,
		cancel:  cancel,
		updates: make(chan memoryUpdate, 64),
	}

	m.mu.Lock()
	if m.subs[path] == nil {
		m.subs[path] = make(map[*memorySubscription]struct{})
	}
	m.subs[path][sub] = struct{}{}
	initial := m.data[path].Clone()
	m.mu.Unlock()

	sub.push(memoryUpdate{snapshot: initial})
	go sub.run(h)

	return sub, nil
}

// Put 写入读数并通知订阅者
func (m *MemorySource) Put(_ context.Context, path, snapshotID string, reading models.RawReading) error {
	m.order.Lock()
	defer m.order.Unlock()

	m.mu.Lock()
	if m.data[path] == nil {
		m.data[path] = models.Snapshot{}
	}
	m.data[path][snapshotID] = reading
	snapshot := m.data[path].Clone()
	subs := m.subscribersLocked(path)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.push(memoryUpdate{snapshot: snapshot})
	}
	return nil
}

// Fail 向 path 的订阅者推送一个错误事件
func (m *MemorySource) Fail(path string, err error) {
	m.order.Lock()
	defer m.order.Unlock()

	m.mu.Lock()
	subs := m.subscribersLocked(path)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.push(memoryUpdate{err: err})
	}
}

// Subscribers 当前 path 上的订阅数
func (m *MemorySource) Subscribers(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs[path])
}

// Close 结束所有订阅
func (m *MemorySource) Close() error {
	m.mu.Lock()
	var all []*memorySubscription
	for _, set := range m.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	m.mu.Unlock()

	for _, sub := range all {
		sub.Unsubscribe()
	}
	return nil
}

func (m *MemorySource) subscribersLocked(path string) []*memorySubscription {
	out := make([]*memorySubscription, 0, len(m.subs[path]))
	for sub := range m.subs[path] {
		out = append(out, sub)
	}
	return out
}

type memorySubscription struct {
	source  *MemorySource
	path    string
	ctx     context.Context
	cancel  context.CancelFunc
	once    sync.Once
	updates chan memoryUpdate
}

func (s *memorySubscription) push(u memoryUpdate) {
	select {
	case s.updates <- u:
	case <-s.ctx.Done():
	}
}

func (s *memorySubscription) run(h Handler) {
	for {
		select {
		case <-s.ctx.Done():
			return
		case u := <-s.updates:
			if u.err != nil {
				h.fail(u.err)
				continue
			}
			h.snapshot(u.snapshot)
		}
	}
}

func (s *memorySubscription) Unsubscribe() {
	s.once.Do(func() {
		s.cancel()
		s.source.mu.Lock()
		delete(s.source.subs[s.path], s)
		s.source.mu.Unlock()
	})
}
