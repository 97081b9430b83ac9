package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/alert"
	"github.com/langchou/h2gazer/internal/fixture"
	"github.com/langchou/h2gazer/internal/metrics"
	"github.com/langchou/h2gazer/internal/models"
	"github.com/langchou/h2gazer/internal/pipeline"
	"github.com/langchou/h2gazer/internal/state"
	"github.com/langchou/h2gazer/internal/telemetry"
)

// ErrStopped Monitor 已停止
var ErrStopped = errors.New("monitor stopped")

// SignalSource 连接状态使用的信号来源
type SignalSource string

const (
	SignalFromFixture SignalSource = "fixture" // 静态数据中的信号强度
	SignalFromLive    SignalSource = "live"    // 最新读数中的 signal 字段，缺失时回退到静态数据
)

// Options Monitor 配置
type Options struct {
	Paths            telemetry.PathResolver
	SignalSource     SignalSource
	Assembler        *pipeline.Assembler
	SubscribeTimeout time.Duration
}

// Dashboard 对展示层暴露的唯一只读视图
type Dashboard struct {
	VehicleID    string                   `json:"vehicle_id"`
	State        *models.VehicleState     `json:"state"`
	Connectivity models.ConnectivityLevel `json:"connectivity"`
	Alert        *models.Alert            `json:"alert"`
	AlertVisible bool                     `json:"alert_visible"`
	Lifecycle    state.Status             `json:"lifecycle"`
	Generation   uint64                   `json:"generation"`
}

type commandKind int

const (
	cmdSelect commandKind = iota
	cmdDismiss
)

type command struct {
	ctx       context.Context
	kind      commandKind
	vehicleID string
	reply     chan error
}

type delivery struct {
	snapshot models.Snapshot
	err      error
}

// binding 一次车辆选择对应的订阅。inbox 只在该 binding 为当前绑定时被读取，
// 切换车辆后旧 inbox 不再被消费，旧订阅的推送无法进入状态。
type binding struct {
	vehicleID  string
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	inbox      chan delivery
	sub        telemetry.Subscription
}

func (b *binding) post(d delivery) {
	select {
	case b.inbox <- d:
	case <-b.ctx.Done():
	}
}

// Monitor 订阅管理器：按所选车辆维护唯一的遥测订阅，
// 将每次推送组装为 VehicleState 并计算告警
type Monitor struct {
	opts     Options
	logger   *zap.Logger
	source   telemetry.Source
	fixtures fixture.Store
	recorder EventRecorder
	machine  *state.Machine

	cmds   chan command
	stopCh chan struct{}
	doneCh chan struct{}

	// 以下字段只在事件循环中访问
	current    *binding
	banner     alert.Banner
	generation uint64

	mu          sync.RWMutex
	running     bool
	stopOnce    sync.Once
	dashboard   Dashboard
	subscribers []chan Dashboard
}

// NewMonitor 创建 Monitor
func NewMonitor(
	opts Options,
	logger *zap.Logger,
	source telemetry.Source,
	fixtures fixture.Store,
	recorder EventRecorder,
) *Monitor {
	if opts.Assembler == nil {
		opts.Assembler = pipeline.NewAssembler()
	}
	if opts.SignalSource == "" {
		opts.SignalSource = SignalFromFixture
	}
	if opts.SubscribeTimeout <= 0 {
		opts.SubscribeTimeout = 10 * time.Second
	}

	m := &Monitor{
		opts:     opts,
		logger:   logger,
		source:   source,
		fixtures: fixtures,
		recorder: recorder,
		cmds:     make(chan command),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		banner:   alert.NewBanner(),
	}
	m.machine = state.NewMachine(m.onStateChange)
	m.dashboard = Dashboard{
		Connectivity: models.ConnectivityOffline,
		Lifecycle:    m.machine.Status(),
	}

	return m
}

// Start 启动事件循环
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		m.logger.Info("Monitor already running, skipping start")
		return nil
	}
	m.running = true
	m.mu.Unlock()

	go m.run(ctx)

	m.logger.Info("Monitor started")
	return nil
}

// Stop 停止事件循环并拆除订阅
func (m *Monitor) Stop() {
	m.mu.RLock()
	running := m.running
	m.mu.RUnlock()
	if !running {
		return
	}

	m.stopOnce.Do(func() { close(m.stopCh) })
	<-m.doneCh
	m.logger.Info("Monitor stopped")
}

// Select 选择车辆；空字符串表示不选择任何车辆
func (m *Monitor) Select(ctx context.Context, vehicleID string) error {
	return m.send(ctx, command{ctx: ctx, kind: cmdSelect, vehicleID: vehicleID})
}

// DismissAlert 关闭当前告警横幅
func (m *Monitor) DismissAlert(ctx context.Context) error {
	return m.send(ctx, command{ctx: ctx, kind: cmdDismiss})
}

// Dashboard 当前视图
func (m *Monitor) Dashboard() Dashboard {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dashboard
}

// Subscribe 订阅视图更新，Monitor 停止时 channel 被关闭
func (m *Monitor) Subscribe() <-chan Dashboard {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch := make(chan Dashboard, 10)
	m.subscribers = append(m.subscribers, ch)
	return ch
}

func (m *Monitor) send(ctx context.Context, cmd command) error {
	cmd.reply = make(chan error, 1)

	select {
	case m.cmds <- cmd:
	case <-ctx.Done():
		return ctx.Err()
	case <-m.doneCh:
		return ErrStopped
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-m.doneCh:
		return ErrStopped
	}
}

// run 单线程事件循环：命令与推送在此串行处理
func (m *Monitor) run(ctx context.Context) {
	defer close(m.doneCh)
	defer m.closeSubscribers()
	defer m.teardown()

	for {
		var inbox <-chan delivery
		if m.current != nil {
			inbox = m.current.inbox
		}

		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case cmd := <-m.cmds:
			cmd.reply <- m.safeHandle(cmd)
		case d := <-inbox:
			m.apply(m.current, d)
		}
	}
}

// safeHandle 命令处理中的 panic 转换为 errored 状态，不会逃出事件循环
func (m *Monitor) safeHandle(cmd command) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		m.logger.Error("Recovered while handling command",
			zap.Int("command", int(cmd.kind)),
			zap.String("vehicle_id", cmd.vehicleID),
			zap.Any("panic", r))
		if m.current == nil {
			err = fmt.Errorf("handle command %d: %v", cmd.kind, r)
			return
		}
		m.fail(m.current, fmt.Errorf("handle command: %v", r))
		err = nil
	}()

	return m.handle(cmd)
}

func (m *Monitor) handle(cmd command) error {
	switch cmd.kind {
	case cmdSelect:
		return m.selectVehicle(cmd.ctx, cmd.vehicleID)
	case cmdDismiss:
		m.banner = m.banner.Dismissed()
		d := m.Dashboard()
		d.AlertVisible = false
		m.setDashboard(d)
		return nil
	default:
		return fmt.Errorf("unknown command %d", cmd.kind)
	}
}

// selectVehicle 先同步拆除旧订阅，再建立新订阅
func (m *Monitor) selectVehicle(ctx context.Context, vehicleID string) error {
	if m.current != nil && m.current.vehicleID == vehicleID {
		return nil
	}

	m.teardown()

	if vehicleID == "" {
		if err := m.machine.Clear(); err != nil && m.machine.Current() != state.StateIdle {
			return err
		}
		m.setDashboard(Dashboard{
			Connectivity: models.ConnectivityOffline,
			Lifecycle:    m.machine.Status(),
		})
		metrics.SetConnectivity(models.ConnectivityOffline)
		return nil
	}

	m.generation++
	bctx, cancel := context.WithCancel(context.Background())
	b := &binding{
		vehicleID:  vehicleID,
		generation: m.generation,
		ctx:        bctx,
		cancel:     cancel,
		inbox:      make(chan delivery, 16),
	}
	m.current = b

	if err := m.machine.Select(vehicleID); err != nil {
		return err
	}

	// 选择后立即用静态数据构造一份状态
	vs := m.opts.Assembler.Assemble(vehicleID, nil, m.fixtures)
	m.publish(b, &vs, pipeline.ClassifyConnectivity(m.signalFor(&vs, nil)))

	path := m.opts.Paths.PathFor(vehicleID)
	subCtx, subCancel := context.WithTimeout(ctx, m.opts.SubscribeTimeout)
	defer subCancel()

	sub, err := m.source.Subscribe(subCtx, path, telemetry.Handler{
		OnSnapshot: func(s models.Snapshot) { b.post(delivery{snapshot: s}) },
		OnError:    func(err error) { b.post(delivery{err: err}) },
	})
	if err != nil {
		m.fail(b, err)
		return nil
	}
	b.sub = sub
	metrics.SubscriptionsTotal.Inc()

	m.logger.Info("Subscribed to telemetry",
		zap.String("vehicle_id", vehicleID),
		zap.String("path", path),
		zap.Uint64("generation", b.generation))
	return nil
}

// teardown 取消当前订阅；之后该订阅的推送不会再被处理
func (m *Monitor) teardown() {
	b := m.current
	if b == nil {
		return
	}
	m.current = nil

	b.cancel()
	if b.sub != nil {
		b.sub.Unsubscribe()
	}

	if err := m.machine.Trigger(state.EventTeardown); err != nil {
		m.logger.Warn("Failed to tear down subscription state", zap.Error(err))
	}

	m.logger.Debug("Telemetry subscription torn down",
		zap.String("vehicle_id", b.vehicleID),
		zap.Uint64("generation", b.generation))
}

// apply 处理一次推送，任何错误或 panic 都转换为 errored 状态
func (m *Monitor) apply(b *binding, d delivery) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Recovered while applying telemetry delivery",
				zap.String("vehicle_id", b.vehicleID),
				zap.Any("panic", r))
			m.fail(b, fmt.Errorf("apply delivery: %v", r))
		}
		metrics.ApplyDuration.Observe(time.Since(start).Seconds())
	}()

	if d.err != nil {
		m.fail(b, d.err)
		return
	}

	latest := pipeline.SelectLatest(d.snapshot)
	vs := m.opts.Assembler.Assemble(b.vehicleID, latest, m.fixtures)
	connectivity := pipeline.ClassifyConnectivity(m.signalFor(&vs, latest))

	if err := m.machine.Trigger(state.EventDeliver); err != nil {
		m.logger.Warn("Unexpected delivery state transition", zap.Error(err))
	}

	metrics.SnapshotsTotal.Inc()
	if latest != nil {
		metrics.LastReadingTimestamp.Set(float64(latest.Timestamp) / 1000)
	}

	m.logger.Debug("Telemetry snapshot applied",
		zap.String("vehicle_id", b.vehicleID),
		zap.Int("entries", len(d.snapshot)),
		zap.Float64("temperature", vs.Tank.Temperature.Value),
		zap.Float64("mq8", vs.Tank.Leak.PPM))

	m.publish(b, &vs, connectivity)
}

// fail 静态数据 + 零值遥测，连接状态强制为 offline
func (m *Monitor) fail(b *binding, cause error) {
	metrics.SourceErrorsTotal.Inc()
	m.logger.Warn("Telemetry source error, falling back to fixture data",
		zap.String("vehicle_id", b.vehicleID),
		zap.Error(cause))

	if err := m.machine.Fail(cause); err != nil {
		m.logger.Warn("Unexpected error state transition", zap.Error(err))
	}

	m.publish(b, m.fallbackState(b.vehicleID), models.ConnectivityOffline)
}

// fallbackState 零值遥测 + 静态数据；静态数据本身不可用时返回 nil
func (m *Monitor) fallbackState(vehicleID string) (vs *models.VehicleState) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Fixture data unavailable, publishing empty state",
				zap.String("vehicle_id", vehicleID),
				zap.Any("panic", r))
			vs = nil
		}
	}()

	assembled := m.opts.Assembler.Assemble(vehicleID, nil, m.fixtures)
	return &assembled
}

func (m *Monitor) publish(b *binding, vs *models.VehicleState, connectivity models.ConnectivityLevel) {
	current := alert.Evaluate(vs)

	previous := m.banner
	m.banner = m.banner.AlertChanged(current)
	if current != nil && !previous.Last.SameAs(current) {
		metrics.AlertsRaisedTotal.WithLabelValues(string(current.Severity)).Inc()
		m.recordAlert(vs.Identity.ID, current)
	}

	metrics.SetConnectivity(connectivity)

	m.setDashboard(Dashboard{
		VehicleID:    b.vehicleID,
		State:        vs,
		Connectivity: connectivity,
		Alert:        current,
		AlertVisible: current != nil && m.banner.Visible,
		Lifecycle:    m.machine.Status(),
		Generation:   b.generation,
	})
}

func (m *Monitor) signalFor(vs *models.VehicleState, latest *models.RawReading) float64 {
	if m.opts.SignalSource == SignalFromLive && latest != nil && latest.Signal != nil {
		return *latest.Signal
	}
	return vs.System.SignalPct
}

// recordAlert 告警条件出现时写入事件历史，不阻塞事件循环
func (m *Monitor) recordAlert(vehicleID string, a *models.Alert) {
	if m.recorder == nil {
		return
	}

	event := models.Event{
		ID:               uuid.NewString(),
		TimestampEpochMs: time.Now().UnixMilli(),
		Category:         a.Category,
		Severity:         a.Severity,
		Message:          a.Message,
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := m.recorder.Record(ctx, vehicleID, event); err != nil {
			m.logger.Error("Failed to record alert event",
				zap.String("vehicle_id", vehicleID),
				zap.Error(err))
		}
	}()
}

func (m *Monitor) setDashboard(d Dashboard) {
	m.mu.Lock()
	m.dashboard = d
	subs := make([]chan Dashboard, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- d:
		default:
			m.logger.Debug("Dropping dashboard update for slow subscriber")
		}
	}
}

func (m *Monitor) closeSubscribers() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.subscribers {
		close(ch)
	}
	m.subscribers = nil
}

// onStateChange 生命周期变化日志；在状态机锁内调用，不能回调 Machine
func (m *Monitor) onStateChange(vehicleID, from, to string) {
	m.logger.Info("Subscription state changed",
		zap.String("vehicle_id", vehicleID),
		zap.String("from", from),
		zap.String("to", to))
}
