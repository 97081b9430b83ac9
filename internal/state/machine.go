package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
)

// 订阅生命周期状态
const (
	StateIdle        = "idle"
	StateSubscribing = "subscribing"
	StateActive      = "active"
	StateErrored     = "errored"
	StateTornDown    = "torn_down"
)

// 事件常量
const (
	EventSelect   = "select"
	EventDeliver  = "deliver"
	EventFail     = "fail"
	EventTeardown = "teardown"
	EventClear    = "clear"
)

// Status 生命周期快照
type Status struct {
	VehicleID string    `json:"vehicle_id"`
	State     string    `json:"state"`
	Since     time.Time `json:"since"`
	LastError string    `json:"last_error,omitempty"`
}

// Machine 订阅生命周期状态机
type Machine struct {
	mu            sync.RWMutex
	fsm           *fsm.FSM
	status        Status
	onStateChange func(vehicleID, from, to string)
}

// NewMachine 创建状态机，初始为 idle
func NewMachine(onStateChange func(vehicleID, from, to string)) *Machine {
	m := &Machine{
		onStateChange: onStateChange,
		status: Status{
			State: StateIdle,
			Since: time.Now(),
		},
	}

	live := []string{StateSubscribing, StateActive, StateErrored}

	m.fsm = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			// 选择车辆：必须先拆除上一个订阅
			{Name: EventSelect, Src: []string{StateIdle, StateTornDown}, Dst: StateSubscribing},

			// 收到快照
			{Name: EventDeliver, Src: live, Dst: StateActive},

			// 订阅失败或中途出错，仍保持订阅
			{Name: EventFail, Src: live, Dst: StateErrored},

			{Name: EventTeardown, Src: live, Dst: StateTornDown},

			// 不选择任何车辆
			{Name: EventClear, Src: []string{StateTornDown}, Dst: StateIdle},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				if m.onStateChange != nil && e.Src != e.Dst {
					m.onStateChange(m.status.VehicleID, e.Src, e.Dst)
				}
			},
		},
	)

	return m
}

// Current 当前状态
func (m *Machine) Current() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Current()
}

// Status 返回副本
func (m *Machine) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.status
	s.State = m.fsm.Current()
	return s
}

// Can 是否可以触发事件
func (m *Machine) Can(event string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fsm.Can(event)
}

// Select 进入 subscribing 并绑定车辆
func (m *Machine) Select(vehicleID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.VehicleID = vehicleID
	m.status.LastError = ""
	return m.trigger(EventSelect)
}

// Fail 进入 errored 并记录错误
func (m *Machine) Fail(cause error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cause != nil {
		m.status.LastError = cause.Error()
	}
	return m.trigger(EventFail)
}

// Clear 回到 idle
func (m *Machine) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.trigger(EventClear); err != nil {
		return err
	}
	m.status.VehicleID = ""
	return nil
}

// Trigger 触发事件；状态未变化（如 active 下重复 deliver）不算错误
func (m *Machine) Trigger(event string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.trigger(event)
}

func (m *Machine) trigger(event string) error {
	from := m.fsm.Current()
	if err := m.fsm.Event(context.Background(), event); err != nil {
		var noTransition fsm.NoTransitionError
		if errors.As(err, &noTransition) {
			return nil
		}
		return fmt.Errorf("trigger event %s: %w", event, err)
	}

	if m.fsm.Current() != from {
		m.status.Since = time.Now()
	}
	if event == EventDeliver {
		m.status.LastError = ""
	}
	return nil
}
