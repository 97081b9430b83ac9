package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

// TruckSummary 车队列表项
type TruckSummary struct {
	models.Identity
	Selected bool `json:"selected"`
}

// ListTrucks 获取车队列表，保持静态数据顺序
func (h *Handler) ListTrucks(c *gin.Context) {
	selected := h.monitor.Dashboard().VehicleID

	ids := h.fixtures.IDs()
	trucks := make([]TruckSummary, 0, len(ids))
	for _, id := range ids {
		fx, ok := h.fixtures.Lookup(id)
		if !ok {
			continue
		}
		trucks = append(trucks, TruckSummary{
			Identity: fx.Identity,
			Selected: id == selected,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": trucks})
}

// ListTruckEvents 获取车辆事件历史
func (h *Handler) ListTruckEvents(c *gin.Context) {
	id := c.Param("id")
	if _, ok := h.fixtures.Lookup(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Truck not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit < 1 || limit > 200 {
		limit = 50
	}

	events, err := h.events.ListByVehicleID(c.Request.Context(), id, limit)
	if err != nil {
		h.logger.Error("Failed to list events", zap.Error(err), zap.String("vehicle_id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": events})
}
