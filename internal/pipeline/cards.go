package pipeline

import (
	"fmt"
	"time"

	"github.com/langchou/h2gazer/internal/models"
)

// MaxChartPoints 压力曲线最多显示的点数
const MaxChartPoints = 20

// maxActiveAlerts 告警面板最多显示的事件数
const maxActiveAlerts = 5

// Cards 仪表盘卡片需要的派生数据
type Cards struct {
	LeakStatus        models.SensorStatus `json:"leak_status"`
	PressureStatus    models.SensorStatus `json:"pressure_status"`
	TemperatureStatus models.SensorStatus `json:"temperature_status"`
	PowerStatus       models.SensorStatus `json:"power_status"`
	SignalBars        int                 `json:"signal_bars"`
	Uptime            string              `json:"uptime"`
	PressureChart     []float64           `json:"pressure_chart"`
	LastUpdated       string              `json:"last_updated"`
	ActiveAlerts      []models.Event      `json:"active_alerts"`
}

// BuildCards 根据 VehicleState 计算卡片数据，now 用于“多久之前”文案
func BuildCards(vs *models.VehicleState, now time.Time) *Cards {
	if vs == nil {
		return nil
	}

	return &Cards{
		LeakStatus:        ClassifyLeakStatus(vs.Tank.Leak.Detected),
		PressureStatus:    ClassifyPressure(vs.Tank.Pressure.Value, vs.Tank.Pressure.Threshold),
		TemperatureStatus: ClassifyTemperature(vs.Tank.Temperature.Value),
		PowerStatus:       ClassifyPower(vs.System.SignalPct, vs.System.Voltage),
		SignalBars:        SignalBars(vs.System.SignalPct),
		Uptime:            FormatUptime(vs.System.UptimeSeconds),
		PressureChart:     PressureChart(vs.Tank.Pressure),
		LastUpdated:       TimeAgo(vs.System.LastUpdateEpochMs, now),
		ActiveAlerts:      ActiveAlerts(vs.Events),
	}
}

// PressureChart 取最近 MaxChartPoints 个历史点（旧 -> 新）；无历史时用当前值占位
func PressureChart(p models.Pressure) []float64 {
	if len(p.History) == 0 {
		return []float64{p.Value}
	}
	start := 0
	if len(p.History) > MaxChartPoints {
		start = len(p.History) - MaxChartPoints
	}
	return cloneFloats(p.History[start:])
}

// FormatUptime 例如 "4h 0m"
func FormatUptime(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dh %dm", seconds/3600, (seconds%3600)/60)
}

// TimeAgo 例如 "12s ago"、"5m ago"
func TimeAgo(epochMs int64, now time.Time) string {
	seconds := (now.UnixMilli() - epochMs) / 1000
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds ago", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm ago", seconds/60)
	case seconds < 86400:
		return fmt.Sprintf("%dh ago", seconds/3600)
	default:
		return fmt.Sprintf("%dd ago", seconds/86400)
	}
}

// ActiveAlerts 非 info 级别的前几条事件
func ActiveAlerts(events []models.Event) []models.Event {
	out := make([]models.Event, 0, maxActiveAlerts)
	for _, e := range events {
		if e.Severity == models.SeverityInfo {
			continue
		}
		out = append(out, e)
		if len(out) == maxActiveAlerts {
			break
		}
	}
	return out
}
