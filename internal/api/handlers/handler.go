package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/fixture"
	"github.com/langchou/h2gazer/internal/mapview"
	"github.com/langchou/h2gazer/internal/service"
	"github.com/langchou/h2gazer/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger    *zap.Logger
	monitor   *service.Monitor
	fixtures  fixture.Store
	events    service.EventHistory
	mapClient *mapview.Client
	wsHub     *ws.Hub
	upgrader  websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	monitor *service.Monitor,
	fixtures fixture.Store,
	events service.EventHistory,
	mapClient *mapview.Client,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:    logger,
		monitor:   monitor,
		fixtures:  fixtures,
		events:    events,
		mapClient: mapClient,
		wsHub:     wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	d := h.monitor.Dashboard()
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"ws_clients":   h.wsHub.ClientCount(),
		"vehicle_id":   d.VehicleID,
		"subscription": d.Lifecycle.State,
		"map":          h.mapClient.State(),
	})
}
