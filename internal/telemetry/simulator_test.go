package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

type captureWriter struct {
	mu     sync.Mutex
	writes map[string][]string
}

func (w *captureWriter) Put(_ context.Context, path, snapshotID string, _ models.RawReading) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writes == nil {
		w.writes = make(map[string][]string)
	}
	w.writes[path] = append(w.writes[path], snapshotID)
	return nil
}

func (w *captureWriter) count(path string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.writes[path])
}

func TestSimulatorNextRanges(t *testing.T) {
	t.Parallel()

	sim := NewSimulator(&captureWriter{}, nil, time.Second, zap.NewNop())
	now := time.UnixMilli(1_700_000_000_000)

	for i := 0; i < 1000; i++ {
		r := sim.Next(now)
		if r.Temperature < 20 || r.Temperature > 40 {
			t.Fatalf("temperature %v out of range", r.Temperature)
		}
		if r.MQ8 < 5 || r.MQ8 > 120 {
			t.Fatalf("mq8 %v out of range", r.MQ8)
		}
		if r.Timestamp != now.UnixMilli() {
			t.Fatalf("timestamp = %d", r.Timestamp)
		}
	}
}

func TestSimulatorRunWritesEveryPath(t *testing.T) {
	w := &captureWriter{}
	paths := []string{"fleet/truck-001", "fleet/truck-002"}
	sim := NewSimulator(w, paths, 10*time.Millisecond, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for w.count(paths[0]) < 3 || w.count(paths[1]) < 3 {
		if time.Now().After(deadline) {
			t.Fatal("simulator did not write to every path")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestSimulatorReusesSlots(t *testing.T) {
	w := &captureWriter{}
	sim := NewSimulator(w, []string{"p"}, time.Second, zap.NewNop())

	for i := 0; i < simulatorSlots*3; i++ {
		sim.tick(context.Background(), time.Now())
	}

	ids := make(map[string]struct{})
	for _, id := range w.writes["p"] {
		ids[id] = struct{}{}
	}
	if len(ids) != simulatorSlots {
		t.Fatalf("distinct snapshot ids = %d, want %d", len(ids), simulatorSlots)
	}
}
