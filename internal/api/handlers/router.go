package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api")
	{
		// 看板
		api.GET("/dashboard", h.GetDashboard)
		api.POST("/dashboard/select", h.SelectVehicle)
		api.POST("/dashboard/alert/dismiss", h.DismissAlert)
		api.GET("/dashboard/map", h.GetMap)

		// 车队
		api.GET("/trucks", h.ListTrucks)
		api.GET("/trucks/:id/events", h.ListTruckEvents)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)

	// Prometheus
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
