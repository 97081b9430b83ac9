package state

import (
	"errors"
	"sync"
	"testing"
)

type transition struct {
	vehicleID, from, to string
}

type recorder struct {
	mu   sync.Mutex
	seen []transition
}

func (r *recorder) record(vehicleID, from, to string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, transition{vehicleID, from, to})
}

func TestMachineLifecycle(t *testing.T) {
	rec := &recorder{}
	m := NewMachine(rec.record)

	if m.Current() != StateIdle {
		t.Fatalf("initial state = %s, want idle", m.Current())
	}

	steps := []struct {
		name string
		do   func() error
		want string
	}{
		{"select", func() error { return m.Select("truck-001") }, StateSubscribing},
		{"deliver", func() error { return m.Trigger(EventDeliver) }, StateActive},
		{"repeat deliver", func() error { return m.Trigger(EventDeliver) }, StateActive},
		{"fail", func() error { return m.Fail(errors.New("permission denied")) }, StateErrored},
		{"recover", func() error { return m.Trigger(EventDeliver) }, StateActive},
		{"teardown", func() error { return m.Trigger(EventTeardown) }, StateTornDown},
		{"reselect", func() error { return m.Select("truck-002") }, StateSubscribing},
		{"teardown again", func() error { return m.Trigger(EventTeardown) }, StateTornDown},
		{"clear", m.Clear, StateIdle},
	}

	for _, step := range steps {
		if err := step.do(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		if got := m.Current(); got != step.want {
			t.Fatalf("%s: state = %s, want %s", step.name, got, step.want)
		}
	}

	// 重复 deliver 不触发回调
	if len(rec.seen) != 8 {
		t.Fatalf("transitions = %d, want 8: %+v", len(rec.seen), rec.seen)
	}
	if rec.seen[0] != (transition{"truck-001", StateIdle, StateSubscribing}) {
		t.Errorf("first transition = %+v", rec.seen[0])
	}
	if m.Status().VehicleID != "" {
		t.Errorf("VehicleID = %q after clear", m.Status().VehicleID)
	}
}

func TestMachineSelectRequiresTeardown(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Select("truck-001"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := m.Select("truck-002"); err == nil {
		t.Fatal("Select while subscribed succeeded, want error")
	}
	if m.Can(EventSelect) {
		t.Fatal("Can(select) = true while subscribing")
	}
}

func TestMachineStatusTracksError(t *testing.T) {
	m := NewMachine(nil)
	_ = m.Select("truck-003")
	_ = m.Fail(errors.New("source unavailable"))

	s := m.Status()
	if s.State != StateErrored || s.LastError != "source unavailable" || s.VehicleID != "truck-003" {
		t.Fatalf("Status = %+v", s)
	}

	_ = m.Trigger(EventDeliver)
	if m.Status().LastError != "" {
		t.Fatal("LastError not cleared by delivery")
	}
}

func TestMachineInvalidEvents(t *testing.T) {
	m := NewMachine(nil)

	for _, event := range []string{EventDeliver, EventFail, EventTeardown, EventClear} {
		if err := m.Trigger(event); err == nil {
			t.Errorf("Trigger(%s) from idle succeeded", event)
		}
	}
	if m.Current() != StateIdle {
		t.Fatalf("state = %s, want idle", m.Current())
	}
}
