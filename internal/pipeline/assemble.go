package pipeline

import (
	"github.com/langchou/h2gazer/internal/models"
)

// DefaultAmbientTemperature 环境温度占位值，尚无环境温度传感器
const DefaultAmbientTemperature = 22.0

// FixtureLookup 静态数据查询，未知车辆返回默认记录
type FixtureLookup interface {
	Get(vehicleID string) models.Fixture
}

// Assembler 将最新读数与车辆静态数据合并为 VehicleState
type Assembler struct {
	LeakThreshold      float64
	AmbientTemperature float64
	TemperatureUnit    string
}

// NewAssembler 使用默认标定参数创建 Assembler
func NewAssembler() *Assembler {
	return &Assembler{
		LeakThreshold:      DefaultLeakThreshold,
		AmbientTemperature: DefaultAmbientTemperature,
		TemperatureUnit:    "C",
	}
}

// Assemble 纯函数：温度与泄漏来自 latest（nil 时取零值），其余字段来自静态数据。
// 返回值不与 fixture 共享任何切片。
func (a *Assembler) Assemble(vehicleID string, latest *models.RawReading, fixtures FixtureLookup) models.VehicleState {
	fx := fixtures.Get(vehicleID)

	var reading models.RawReading
	if latest != nil {
		reading = *latest
	}

	ambient := a.AmbientTemperature

	return models.VehicleState{
		Identity: fx.Identity,
		Position: fx.Position,
		Tank: models.Tank{
			Leak: models.Leak{
				Detected: ClassifyLeak(reading.MQ8, a.LeakThreshold),
				PPM:      reading.MQ8,
			},
			Pressure: models.Pressure{
				Value:     fx.Pressure.Value,
				Threshold: fx.Pressure.Threshold,
				Unit:      fx.Pressure.Unit,
				History:   cloneFloats(fx.Pressure.History),
			},
			Temperature: models.Temperature{
				Value:   reading.Temperature,
				Ambient: &ambient,
				Unit:    a.TemperatureUnit,
			},
		},
		System: fx.System,
		Route: models.Route{
			Actual:   clonePoints(fx.Route.Actual),
			Expected: clonePoints(fx.Route.Expected),
			Geofence: clonePoints(fx.Route.Geofence),
		},
		Events: cloneEvents(fx.Events),
	}
}

func cloneFloats(in []float64) []float64 {
	out := make([]float64, len(in))
	copy(out, in)
	return out
}

func clonePoints(in []models.LatLng) []models.LatLng {
	out := make([]models.LatLng, len(in))
	copy(out, in)
	return out
}

func cloneEvents(in []models.Event) []models.Event {
	out := make([]models.Event, len(in))
	copy(out, in)
	return out
}
