package models

// Alert 由 VehicleState 推导出的告警，不落库
type Alert struct {
	Severity Severity      `json:"severity"`
	Message  string        `json:"message"`
	Category EventCategory `json:"category"`
}

// SameAs 判断两条告警是否为同一告警条件
func (a *Alert) SameAs(other *Alert) bool {
	if a == nil || other == nil {
		return a == nil && other == nil
	}
	return a.Severity == other.Severity && a.Message == other.Message
}

// ConnectivityLevel 连接质量三态
type ConnectivityLevel string

const (
	ConnectivityOnline  ConnectivityLevel = "online"
	ConnectivityWeak    ConnectivityLevel = "weak"
	ConnectivityOffline ConnectivityLevel = "offline"
)

// SensorStatus 卡片显示用的三态状态
type SensorStatus string

const (
	SensorSafe     SensorStatus = "safe"
	SensorWarning  SensorStatus = "warning"
	SensorCritical SensorStatus = "critical"
)
