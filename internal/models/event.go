package models

// Severity 严重程度
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// EventCategory 事件类别
type EventCategory string

const (
	CategoryLeak     EventCategory = "leak"
	CategoryPressure EventCategory = "pressure"
	CategoryRoute    EventCategory = "route"
	CategorySystem   EventCategory = "system"
)

// Event 车辆事件，创建后不可变
type Event struct {
	ID               string        `json:"id" db:"id"`
	TimestampEpochMs int64         `json:"timestamp" db:"timestamp_ms"`
	Category         EventCategory `json:"category" db:"category"`
	Severity         Severity      `json:"severity" db:"severity"`
	Message          string        `json:"message" db:"message"`
}
