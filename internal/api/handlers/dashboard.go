package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/pipeline"
	"github.com/langchou/h2gazer/internal/service"
)

// DashboardView 看板视图：Monitor 输出加卡片展示数据
type DashboardView struct {
	service.Dashboard
	Cards *pipeline.Cards `json:"cards"`
}

// NewDashboardView 为视图补充卡片数据
func NewDashboardView(d service.Dashboard, now time.Time) DashboardView {
	return DashboardView{
		Dashboard: d,
		Cards:     pipeline.BuildCards(d.State, now),
	}
}

type selectRequest struct {
	VehicleID *string `json:"vehicle_id"`
}

// GetDashboard 获取当前看板
func (h *Handler) GetDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": NewDashboardView(h.monitor.Dashboard(), time.Now())})
}

// SelectVehicle 切换车辆
// POST /api/dashboard/select
// vehicle_id 为空字符串时取消选择；未知车辆使用默认车辆的静态数据
func (h *Handler) SelectVehicle(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.VehicleID == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id is required"})
		return
	}

	if err := h.monitor.Select(c.Request.Context(), *req.VehicleID); err != nil {
		h.commandFailed(c, "select vehicle", err)
		return
	}

	h.logger.Info("Vehicle selected via API", zap.String("vehicle_id", *req.VehicleID))
	c.JSON(http.StatusOK, gin.H{"data": NewDashboardView(h.monitor.Dashboard(), time.Now())})
}

// DismissAlert 关闭当前告警横幅
// POST /api/dashboard/alert/dismiss
func (h *Handler) DismissAlert(c *gin.Context) {
	if err := h.monitor.DismissAlert(c.Request.Context()); err != nil {
		h.commandFailed(c, "dismiss alert", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": NewDashboardView(h.monitor.Dashboard(), time.Now())})
}

// GetMap 当前车辆的地图图层
func (h *Handler) GetMap(c *gin.Context) {
	overlay, err := h.mapClient.Render(h.monitor.Dashboard().State)
	if err != nil {
		h.logger.Error("Failed to render map", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Map not ready"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": overlay})
}

func (h *Handler) commandFailed(c *gin.Context, action string, err error) {
	switch {
	case errors.Is(err, service.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Monitor stopped"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "Request cancelled"})
	default:
		h.logger.Error("Dashboard command failed", zap.String("action", action), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action})
	}
}
