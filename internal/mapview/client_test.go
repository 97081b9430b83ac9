package mapview

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/h2gazer/internal/fixture"
	"github.com/langchou/h2gazer/internal/models"
	"github.com/langchou/h2gazer/internal/pipeline"
)

func readyClient(t *testing.T) *Client {
	t.Helper()
	c := NewClient(zap.NewNop())
	if err := c.Init(context.Background(), Options{}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return c
}

func TestRenderBeforeInit(t *testing.T) {
	c := NewClient(zap.NewNop())
	if c.State() != StateUninitialized {
		t.Fatalf("State = %s, want %s", c.State(), StateUninitialized)
	}
	if _, err := c.Render(nil); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Render err = %v, want ErrNotReady", err)
	}
}

func TestInitOnlyOnce(t *testing.T) {
	c := NewClient(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(zoom int) {
			defer wg.Done()
			if err := c.Init(context.Background(), Options{Zoom: zoom}); err != nil {
				t.Errorf("Init: %v", err)
			}
		}(10 + i)
	}
	wg.Wait()

	if c.State() != StateReady {
		t.Fatalf("State = %s, want ready", c.State())
	}

	first, err := c.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if err := c.Init(context.Background(), Options{Zoom: 3}); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	second, _ := c.Render(nil)
	if first.Zoom != second.Zoom {
		t.Fatalf("zoom changed after second Init: %d -> %d", first.Zoom, second.Zoom)
	}
}

func TestInitFailureCanRetry(t *testing.T) {
	c := NewClient(zap.NewNop())

	if err := c.Init(context.Background(), Options{Zoom: 42}); err == nil {
		t.Fatal("Init with bad zoom succeeded")
	}
	if c.State() != StateUninitialized {
		t.Fatalf("State = %s after failure, want uninitialized", c.State())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.Init(ctx, Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Init err = %v, want context.Canceled", err)
	}

	if err := c.Init(context.Background(), Options{}); err != nil {
		t.Fatalf("retry Init: %v", err)
	}
	if c.State() != StateReady {
		t.Fatalf("State = %s, want ready", c.State())
	}
}

func TestRenderWithoutVehicle(t *testing.T) {
	c := readyClient(t)

	overlay, err := c.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if overlay.Center != DefaultCenter {
		t.Errorf("Center = %+v, want %+v", overlay.Center, DefaultCenter)
	}
	if len(overlay.Features.Features) != 0 {
		t.Errorf("Features = %d, want 0", len(overlay.Features.Features))
	}
	if overlay.Zoom != 13 {
		t.Errorf("Zoom = %d, want 13", overlay.Zoom)
	}
}

func TestRenderVehicle(t *testing.T) {
	c := readyClient(t)
	store := fixture.NewStaticStore(fixture.Builtin(time.Now()), fixture.DefaultVehicleID)
	vs := pipeline.NewAssembler().Assemble("truck-001", nil, store)

	overlay, err := c.Render(&vs)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	if overlay.Center != vs.Position.LatLng() {
		t.Errorf("Center = %+v, want vehicle position", overlay.Center)
	}
	if !overlay.InsideGeofence {
		t.Error("InsideGeofence = false, want true")
	}

	layers := make([]string, 0, len(overlay.Features.Features))
	for _, f := range overlay.Features.Features {
		layers = append(layers, f.Properties.MustString("layer"))
	}
	want := []string{"geofence", "route_expected", "route_actual", "vehicle"}
	if len(layers) != len(want) {
		t.Fatalf("layers = %v, want %v", layers, want)
	}
	for i := range want {
		if layers[i] != want[i] {
			t.Fatalf("layers = %v, want %v", layers, want)
		}
	}

	marker := overlay.Features.Features[3]
	if got := marker.Properties.MustString("color"); got != ColorSafe {
		t.Errorf("marker color = %s, want %s", got, ColorSafe)
	}

	if _, err := json.Marshal(overlay); err != nil {
		t.Fatalf("marshal overlay: %v", err)
	}
}

func TestCanvasGeofence(t *testing.T) {
	t.Parallel()

	square := []models.LatLng{
		{Lat: 0, Lng: 0},
		{Lat: 0, Lng: 10},
		{Lat: 10, Lng: 10},
		{Lat: 10, Lng: 0},
	}

	tests := []struct {
		name   string
		points []models.LatLng
		probe  models.LatLng
		want   bool
	}{
		{"inside", square, models.LatLng{Lat: 5, Lng: 5}, true},
		{"outside", square, models.LatLng{Lat: 15, Lng: 5}, false},
		{"no geofence", nil, models.LatLng{Lat: 5, Lng: 5}, false},
		{"degenerate", square[:2], models.LatLng{Lat: 0, Lng: 5}, false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := NewGeoJSONCanvas()
			c.SetGeofence(tt.points)
			if got := c.Contains(tt.probe); got != tt.want {
				t.Errorf("Contains(%+v) = %v, want %v", tt.probe, got, tt.want)
			}
		})
	}
}

func TestCanvasEmptyRouteRemovesLayer(t *testing.T) {
	t.Parallel()

	c := NewGeoJSONCanvas()
	c.SetRoute(RouteActual, []models.LatLng{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}})
	if n := len(c.FeatureCollection().Features); n != 1 {
		t.Fatalf("features = %d, want 1", n)
	}
	c.SetRoute(RouteActual, nil)
	if n := len(c.FeatureCollection().Features); n != 0 {
		t.Fatalf("features = %d, want 0", n)
	}
}

func TestMarkerColor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status models.OperationalStatus
		want   string
	}{
		{models.StatusOK, ColorSafe},
		{models.StatusWarning, ColorWarning},
		{models.StatusCritical, ColorCritical},
		{"", ColorCritical},
	}
	for _, tt := range tests {
		if got := MarkerColor(tt.status); got != tt.want {
			t.Errorf("MarkerColor(%q) = %s, want %s", tt.status, got, tt.want)
		}
	}
}
