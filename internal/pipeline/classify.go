package pipeline

import (
	"math"

	"github.com/langchou/h2gazer/internal/models"
)

// DefaultLeakThreshold MQ-8 泄漏判定阈值（传感器标定常量）
const DefaultLeakThreshold = 50.0

// 信号强度分级
const (
	SignalOnlineMin = 70.0
	SignalWeakMin   = 30.0
)

// 电源/信号分级
const (
	powerCriticalSignal  = 30.0
	powerCriticalVoltage = 11.0
	powerWarningSignal   = 50.0
	powerWarningVoltage  = 11.5
)

// ClassifyLeak mq8 严格大于阈值即判定为泄漏
func ClassifyLeak(mq8, threshold float64) bool {
	return mq8 > threshold
}

// ClassifyConnectivity 信号强度 -> online / weak / offline
func ClassifyConnectivity(signalPct float64) models.ConnectivityLevel {
	switch {
	case signalPct >= SignalOnlineMin:
		return models.ConnectivityOnline
	case signalPct >= SignalWeakMin:
		return models.ConnectivityWeak
	default:
		return models.ConnectivityOffline
	}
}

// ClassifyPower 连接与电源卡片的状态，critical 优先判断
func ClassifyPower(signalPct, voltage float64) models.SensorStatus {
	if signalPct < powerCriticalSignal || voltage < powerCriticalVoltage {
		return models.SensorCritical
	}
	if signalPct < powerWarningSignal || voltage < powerWarningVoltage {
		return models.SensorWarning
	}
	return models.SensorSafe
}

// ClassifyPressure 压力卡片状态，阈值的 1.2 倍为 critical，1.1 倍为 warning（含边界）
func ClassifyPressure(value, threshold float64) models.SensorStatus {
	if value >= threshold*1.2 {
		return models.SensorCritical
	}
	if value >= threshold*1.1 {
		return models.SensorWarning
	}
	return models.SensorSafe
}

// ClassifyTemperature 罐体温度状态
func ClassifyTemperature(value float64) models.SensorStatus {
	switch {
	case value > 80:
		return models.SensorCritical
	case value > 60:
		return models.SensorWarning
	default:
		return models.SensorSafe
	}
}

// ClassifyLeakStatus 泄漏卡片状态
func ClassifyLeakStatus(detected bool) models.SensorStatus {
	if detected {
		return models.SensorCritical
	}
	return models.SensorSafe
}

// SignalBars 四格信号中点亮的格数
func SignalBars(signalPct float64) int {
	bars := int(math.Ceil(signalPct / 100 * 4))
	if bars < 0 {
		return 0
	}
	if bars > 4 {
		return 4
	}
	return bars
}
