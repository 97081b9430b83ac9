package handlers

import (
	"time"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/service"
	"github.com/langchou/h2gazer/internal/state"
)

// ForwardDashboards 将看板更新推送到 WebSocket；订阅进入 errored 时额外推送一条 error 消息。
// updates 关闭时返回
func (h *Handler) ForwardDashboards(updates <-chan service.Dashboard) {
	var (
		errored    bool
		generation uint64
	)

	for d := range updates {
		h.wsHub.BroadcastDashboard(NewDashboardView(d, time.Now()))

		if d.Lifecycle.State != state.StateErrored {
			errored = false
			continue
		}
		if errored && d.Generation == generation {
			continue
		}
		errored, generation = true, d.Generation

		h.logger.Debug("Broadcasting subscription error",
			zap.String("vehicle_id", d.VehicleID),
			zap.String("error", d.Lifecycle.LastError))
		h.wsHub.BroadcastError(d.VehicleID, d.Lifecycle.LastError)
	}
}
