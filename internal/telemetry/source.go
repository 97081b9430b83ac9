package telemetry

import (
	"context"
	"errors"
	"strings"

	"github.com/langchou/h2gazer/internal/models"
)

// ErrSourceUnavailable 遥测源无法建立订阅或中途出错
var ErrSourceUnavailable = errors.New("telemetry source unavailable")

// DefaultPath 所有车辆共享的遥测路径
const DefaultPath = "sensorData"

// vehiclePlaceholder 路径模板中的车辆占位符
const vehiclePlaceholder = "{vehicle}"

// Handler 订阅回调。同一订阅的回调在单个 goroutine 中按推送顺序调用
type Handler struct {
	OnSnapshot func(snapshot models.Snapshot) // 每次变化推送完整快照
	OnError    func(err error)                // 每个错误事件调用一次
}

// Subscription 活跃订阅，Unsubscribe 可重复调用
type Subscription interface {
	Unsubscribe()
}

// Source 推送式遥测源。ctx 只约束建立订阅的过程，订阅的生命周期由 Unsubscribe 结束
type Source interface {
	Subscribe(ctx context.Context, path string, h Handler) (Subscription, error)
	Close() error
}

// Writer 写入读数（模拟器与测试使用）
type Writer interface {
	Put(ctx context.Context, path, snapshotID string, reading models.RawReading) error
}

// PathResolver 根据车辆 ID 计算遥测路径
type PathResolver struct {
	Template string
}

// PathFor 模板不含 {vehicle} 时所有车辆共享同一路径
func (p PathResolver) PathFor(vehicleID string) string {
	tpl := p.Template
	if tpl == "" {
		tpl = DefaultPath
	}
	return strings.ReplaceAll(tpl, vehiclePlaceholder, vehicleID)
}

// Shared 是否所有车辆共享同一路径
func (p PathResolver) Shared() bool {
	return !strings.Contains(p.Template, vehiclePlaceholder)
}

func (h Handler) snapshot(s models.Snapshot) {
	if h.OnSnapshot != nil {
		h.OnSnapshot(s)
	}
}

func (h Handler) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
