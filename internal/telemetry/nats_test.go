package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/models"
)

func newNATSSource(t *testing.T) *NATSSource {
	t.Helper()

	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	srv := natsserver.RunServer(&opts)
	t.Cleanup(srv.Shutdown)

	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	src, err := NewNATSSource(nc, "h2gazer-test", zap.NewNop())
	if err != nil {
		nc.Close()
		t.Fatalf("NewNATSSource: %v", err)
	}
	t.Cleanup(func() { src.Close() })
	return src
}

func TestNATSSourceDeliversSnapshots(t *testing.T) {
	ctx := context.Background()
	src := newNATSSource(t)

	c := newCollector()
	sub, err := src.Subscribe(ctx, "sensorData", c.handler())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if initial := c.next(t); len(initial) != 0 {
		t.Fatalf("initial snapshot = %+v, want empty", initial)
	}

	if err := src.Put(ctx, "sensorData", "s1", models.RawReading{Temperature: 30, MQ8: 10, Timestamp: 1000}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if s := c.next(t); len(s) != 1 || s["s1"].Temperature != 30 {
		t.Fatalf("after s1 = %+v", s)
	}

	// 其他路径的 key 不属于该订阅
	if err := src.Put(ctx, "otherPath", "x1", models.RawReading{Temperature: 99}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := src.Put(ctx, "sensorData", "s2", models.RawReading{Temperature: 55, MQ8: 80, Timestamp: 2000}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	full := c.next(t)
	if len(full) != 2 || full["s2"].MQ8 != 80 || full["s1"].Temperature != 30 {
		t.Fatalf("after s2 = %+v, want full snapshot", full)
	}

	if err := src.kv.Delete("sensorData.s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	got := c.next(t)
	if _, ok := got["s1"]; ok || len(got) != 1 {
		t.Fatalf("after delete = %+v, want only s2", got)
	}
}

func TestNATSSourceInitialValuesArriveTogether(t *testing.T) {
	ctx := context.Background()
	src := newNATSSource(t)

	for id, r := range map[string]models.RawReading{
		"s1": {Temperature: 30, Timestamp: 1000},
		"s2": {Temperature: 55, Timestamp: 2000},
	} {
		if err := src.Put(ctx, "sensorData", id, r); err != nil {
			t.Fatalf("Put %s: %v", id, err)
		}
	}

	c := newCollector()
	sub, err := src.Subscribe(ctx, "sensorData", c.handler())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if initial := c.next(t); len(initial) != 2 {
		t.Fatalf("initial snapshot = %+v, want both stored readings", initial)
	}
}

func TestNATSSourceUnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	src := newNATSSource(t)

	c := newCollector()
	sub, err := src.Subscribe(ctx, "sensorData", c.handler())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	c.next(t)

	sub.Unsubscribe()
	sub.Unsubscribe()

	if err := src.Put(ctx, "sensorData", "s1", models.RawReading{Temperature: 30, Timestamp: 1000}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	c.quiet(t, 200*time.Millisecond)
	select {
	case err := <-c.errs:
		t.Fatalf("unexpected error after unsubscribe: %v", err)
	default:
	}
}

func TestNATSSourceWatcherClosed(t *testing.T) {
	ctx := context.Background()
	src := newNATSSource(t)

	c := newCollector()
	sub, err := src.Subscribe(ctx, "sensorData", c.handler())
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()
	c.next(t)

	// 只停止 watcher，不取消订阅
	if err := sub.(*natsSubscription).watcher.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	select {
	case err := <-c.errs:
		if !errors.Is(err, ErrSourceUnavailable) {
			t.Fatalf("err = %v, want ErrSourceUnavailable", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher error")
	}
}
