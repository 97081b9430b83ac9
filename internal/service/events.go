package service

import (
	"context"
	"sort"
	"sync"

	"github.com/langchou/h2gazer/internal/fixture"
	"github.com/langchou/h2gazer/internal/models"
)

// EventRecorder 记录车辆事件
type EventRecorder interface {
	Record(ctx context.Context, vehicleID string, e models.Event) error
}

// EventHistory 查询车辆事件，按时间倒序
type EventHistory interface {
	ListByVehicleID(ctx context.Context, vehicleID string, limit int) ([]models.Event, error)
}

// MemoryEventLog 未配置数据库时使用的内存事件历史
type MemoryEventLog struct {
	mu     sync.RWMutex
	max    int
	events map[string][]models.Event
}

// NewMemoryEventLog 以静态数据中的事件作为初始历史，每辆车最多保留 max 条
func NewMemoryEventLog(fixtures fixture.Store, max int) *MemoryEventLog {
	if max <= 0 {
		max = 200
	}
	l := &MemoryEventLog{
		max:    max,
		events: make(map[string][]models.Event),
	}
	if fixtures != nil {
		for _, id := range fixtures.IDs() {
			fx, _ := fixtures.Lookup(id)
			seed := make([]models.Event, len(fx.Events))
			copy(seed, fx.Events)
			sort.SliceStable(seed, func(i, j int) bool {
				return seed[i].TimestampEpochMs > seed[j].TimestampEpochMs
			})
			l.events[id] = l.trim(seed)
		}
	}
	return l
}

// Record 新事件放在最前
func (l *MemoryEventLog) Record(_ context.Context, vehicleID string, e models.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := append([]models.Event{e}, l.events[vehicleID]...)
	l.events[vehicleID] = l.trim(events)
	return nil
}

// ListByVehicleID 最近 limit 条事件，limit <= 0 返回全部
func (l *MemoryEventLog) ListByVehicleID(_ context.Context, vehicleID string, limit int) ([]models.Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	events := l.events[vehicleID]
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	out := make([]models.Event, len(events))
	copy(out, events)
	return out, nil
}

func (l *MemoryEventLog) trim(events []models.Event) []models.Event {
	if len(events) > l.max {
		return events[:l.max]
	}
	return events
}
