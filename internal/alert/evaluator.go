package alert

import "github.com/langchou/h2gazer/internal/models"

// 告警文案
const (
	MessageLeak             = "CRITICAL: Hydrogen leak detected - Immediate action required"
	MessagePressureCritical = "CRITICAL: Tank pressure exceeds safe limits"
	MessagePressureWarning  = "WARNING: Tank pressure approaching threshold"
)

// Evaluate 按优先级推导当前告警，命中第一条即返回；无告警返回 nil
func Evaluate(vs *models.VehicleState) *models.Alert {
	if vs == nil {
		return nil
	}

	tank := vs.Tank
	switch {
	case tank.Leak.Detected:
		return &models.Alert{
			Severity: models.SeverityCritical,
			Message:  MessageLeak,
			Category: models.CategoryLeak,
		}
	case tank.Pressure.Value > tank.Pressure.Threshold*1.2:
		return &models.Alert{
			Severity: models.SeverityCritical,
			Message:  MessagePressureCritical,
			Category: models.CategoryPressure,
		}
	case tank.Pressure.Value > tank.Pressure.Threshold*1.1:
		return &models.Alert{
			Severity: models.SeverityWarning,
			Message:  MessagePressureWarning,
			Category: models.CategoryPressure,
		}
	}
	return nil
}
