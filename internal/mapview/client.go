package mapview

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

// ErrNotReady 地图客户端尚未初始化
var ErrNotReady = errors.New("map client not ready")

// 客户端生命周期
const (
	StateUninitialized = "uninitialized"
	StateInitializing  = "initializing"
	StateReady         = "ready"
)

const (
	eventInit  = "init"
	eventReady = "ready"
	eventFail  = "fail"
)

// DefaultCenter 没有车辆时的地图中心（纽约）
var DefaultCenter = models.LatLng{Lat: 40.7128, Lng: -74.006}

// Options 地图初始化参数，只在第一次 Init 时生效
type Options struct {
	Zoom           int
	TileURL        string
	Attribution    string
	FallbackCenter *models.LatLng
}

// Overlay 单车地图图层
type Overlay struct {
	Center         models.LatLng              `json:"center"`
	Zoom           int                        `json:"zoom"`
	TileURL        string                     `json:"tile_url"`
	Attribution    string                     `json:"attribution"`
	InsideGeofence bool                       `json:"inside_geofence"`
	Features       *geojson.FeatureCollection `json:"features"`
}

// Client 进程级地图客户端，初始化只发生一次
type Client struct {
	logger *zap.Logger

	mu   sync.Mutex
	fsm  *fsm.FSM
	opts Options
}

// NewClient 创建未初始化的地图客户端
func NewClient(logger *zap.Logger) *Client {
	c := &Client{logger: logger}
	c.fsm = fsm.NewFSM(
		StateUninitialized,
		fsm.Events{
			{Name: eventInit, Src: []string{StateUninitialized}, Dst: StateInitializing},
			{Name: eventReady, Src: []string{StateInitializing}, Dst: StateReady},
			{Name: eventFail, Src: []string{StateInitializing}, Dst: StateUninitialized},
		},
		fsm.Callbacks{},
	)
	return c
}

// State 当前生命周期
func (c *Client) State() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fsm.Current()
}

// Init 初始化地图参数；已就绪时直接返回，失败后可以重试
func (c *Client) Init(ctx context.Context, opts Options) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fsm.Current() == StateReady {
		return nil
	}
	if err := c.fsm.Event(ctx, eventInit); err != nil {
		return fmt.Errorf("init map client: %w", err)
	}

	resolved, err := resolveOptions(ctx, opts)
	if err != nil {
		_ = c.fsm.Event(ctx, eventFail)
		return fmt.Errorf("init map client: %w", err)
	}

	c.opts = resolved
	if err := c.fsm.Event(ctx, eventReady); err != nil {
		return fmt.Errorf("init map client: %w", err)
	}

	c.logger.Info("Map client ready",
		zap.Int("zoom", resolved.Zoom),
		zap.String("tile_url", resolved.TileURL),
	)
	return nil
}

// Render 把车辆状态绘制为 GeoJSON 图层；vs 为空时只返回默认中心
func (c *Client) Render(vs *models.VehicleState) (*Overlay, error) {
	c.mu.Lock()
	if c.fsm.Current() != StateReady {
		c.mu.Unlock()
		return nil, ErrNotReady
	}
	opts := c.opts
	c.mu.Unlock()

	canvas := NewGeoJSONCanvas()
	overlay := &Overlay{
		Zoom:        opts.Zoom,
		TileURL:     opts.TileURL,
		Attribution: opts.Attribution,
	}

	if vs == nil {
		canvas.SetCenter(*opts.FallbackCenter)
	} else {
		Draw(canvas, vs)
		overlay.InsideGeofence = canvas.Contains(vs.Position.LatLng())
	}

	overlay.Center = canvas.Center()
	overlay.Features = canvas.FeatureCollection()
	return overlay, nil
}

// Draw 通过 Canvas 能力绘制车辆
func Draw(canvas Canvas, vs *models.VehicleState) {
	pos := vs.Position.LatLng()
	canvas.SetCenter(pos)
	canvas.SetMarker(pos, vs.Identity.Status)
	canvas.SetRoute(RouteActual, vs.Route.Actual)
	canvas.SetRoute(RouteExpected, vs.Route.Expected)
	canvas.SetGeofence(vs.Route.Geofence)
}

func resolveOptions(ctx context.Context, opts Options) (Options, error) {
	if err := ctx.Err(); err != nil {
		return Options{}, err
	}
	if opts.Zoom == 0 {
		opts.Zoom = 13
	}
	if opts.Zoom < 0 || opts.Zoom > 20 {
		return Options{}, fmt.Errorf("zoom %d out of range", opts.Zoom)
	}
	if opts.TileURL == "" {
		opts.TileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
		opts.Attribution = "© OpenStreetMap contributors"
	}
	if opts.FallbackCenter == nil {
		center := DefaultCenter
		opts.FallbackCenter = &center
	}
	return opts, nil
}
