package fixture

import (
	"time"

	"github.com/langchou/h2gazer/internal/models"
)

// DefaultVehicleID 未知车辆回退使用的记录
const DefaultVehicleID = "truck-001"

// Builtin 内置的三台演示车辆，事件时间相对 now 生成
func Builtin(now time.Time) []models.Fixture {
	ms := now.UnixMilli()
	ago := func(d time.Duration) int64 { return ms - d.Milliseconds() }

	return []models.Fixture{
		{
			Identity: models.Identity{ID: "truck-001", Name: "Truck 001", Status: models.StatusOK},
			Position: models.Position{Lat: 40.7128, Lng: -74.006, SpeedKph: 45, HeadingDeg: 180},
			Pressure: models.Pressure{
				Value: 75, Threshold: 100, Unit: "bar",
				History: []float64{70, 72, 74, 75, 76, 75, 74},
			},
			System: models.SystemStats{SignalPct: 85, Voltage: 13.2, UptimeSeconds: 3600, LastUpdateEpochMs: ms},
			Route: models.Route{
				Actual: []models.LatLng{
					{Lat: 40.7128, Lng: -74.006},
					{Lat: 40.7150, Lng: -74.010},
					{Lat: 40.7180, Lng: -74.015},
				},
				Expected: []models.LatLng{
					{Lat: 40.7128, Lng: -74.006},
					{Lat: 40.7160, Lng: -74.012},
					{Lat: 40.7200, Lng: -74.020},
				},
				Geofence: []models.LatLng{
					{Lat: 40.7080, Lng: -73.9950},
					{Lat: 40.7250, Lng: -73.9950},
					{Lat: 40.7250, Lng: -74.0250},
					{Lat: 40.7080, Lng: -74.0250},
				},
			},
			Events: []models.Event{
				{ID: "1", TimestampEpochMs: ago(5 * time.Minute), Category: models.CategoryRoute, Severity: models.SeverityInfo, Message: "Route updated"},
				{ID: "2", TimestampEpochMs: ago(10 * time.Minute), Category: models.CategoryPressure, Severity: models.SeverityInfo, Message: "Tank pressure nominal"},
				{ID: "3", TimestampEpochMs: ago(20 * time.Minute), Category: models.CategorySystem, Severity: models.SeverityInfo, Message: "Vehicle started"},
			},
		},
		{
			Identity: models.Identity{ID: "truck-002", Name: "Truck 002", Status: models.StatusWarning},
			Position: models.Position{Lat: 40.7580, Lng: -73.9855, SpeedKph: 35, HeadingDeg: 90},
			Pressure: models.Pressure{
				Value: 95, Threshold: 100, Unit: "bar",
				History: []float64{92, 93, 94, 95, 96, 95, 95},
			},
			System: models.SystemStats{SignalPct: 65, Voltage: 12.8, UptimeSeconds: 7200, LastUpdateEpochMs: ms},
			Route: models.Route{
				Actual: []models.LatLng{
					{Lat: 40.7580, Lng: -73.9855},
					{Lat: 40.7600, Lng: -73.9880},
				},
				Expected: []models.LatLng{
					{Lat: 40.7580, Lng: -73.9855},
					{Lat: 40.7650, Lng: -73.9900},
				},
			},
			Events: []models.Event{
				{ID: "1", TimestampEpochMs: ago(2 * time.Minute), Category: models.CategoryPressure, Severity: models.SeverityWarning, Message: "High pressure warning"},
			},
		},
		{
			Identity: models.Identity{ID: "truck-003", Name: "Truck 003", Status: models.StatusCritical},
			Position: models.Position{Lat: 40.6892, Lng: -74.0445, SpeedKph: 0, HeadingDeg: 0},
			Pressure: models.Pressure{
				Value: 120, Threshold: 100, Unit: "bar",
				History: []float64{100, 105, 110, 115, 120, 120, 120},
			},
			System: models.SystemStats{SignalPct: 25, Voltage: 11.5, UptimeSeconds: 14400, LastUpdateEpochMs: ms},
			Route: models.Route{
				Actual: []models.LatLng{{Lat: 40.6892, Lng: -74.0445}},
				Expected: []models.LatLng{
					{Lat: 40.6892, Lng: -74.0445},
					{Lat: 40.6950, Lng: -74.0500},
				},
			},
			Events: []models.Event{
				{ID: "1", TimestampEpochMs: ago(30 * time.Second), Category: models.CategoryLeak, Severity: models.SeverityCritical, Message: "Hydrogen leak detected"},
				{ID: "2", TimestampEpochMs: ago(time.Minute), Category: models.CategoryPressure, Severity: models.SeverityCritical, Message: "Critical pressure level"},
			},
		},
	}
}
