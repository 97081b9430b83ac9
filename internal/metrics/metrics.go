package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/langchou/h2gazer/internal/models"
)

var (
	// SnapshotsTotal 已处理的遥测快照
	SnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "h2gazer_snapshots_total",
		Help: "Total number of telemetry snapshots assembled into a vehicle state.",
	})

	// SourceErrorsTotal 遥测源错误事件
	SourceErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "h2gazer_source_errors_total",
		Help: "Total number of telemetry source errors, including failed subscriptions.",
	})

	// SubscriptionsTotal 已建立的订阅
	SubscriptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "h2gazer_subscriptions_total",
		Help: "Total number of telemetry subscriptions opened.",
	})

	// AlertsRaisedTotal 新出现的告警条件
	AlertsRaisedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "h2gazer_alerts_raised_total",
		Help: "Total number of new alert conditions by severity.",
	}, []string{"severity"})

	// Connectivity 当前连接状态：2=online 1=weak 0=offline
	Connectivity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "h2gazer_connectivity_level",
		Help: "Connectivity of the selected vehicle: 2 online, 1 weak, 0 offline.",
	})

	// LastReadingTimestamp 最新读数的时间戳（秒）
	LastReadingTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "h2gazer_last_reading_timestamp_seconds",
		Help: "Unix timestamp (seconds) of the latest reading in the last snapshot. 0 if none.",
	})

	// ApplyDuration 单次快照处理耗时
	ApplyDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "h2gazer_apply_duration_seconds",
		Help:    "Time spent turning one delivery into a published vehicle state.",
		Buckets: prometheus.DefBuckets,
	})
)

// SetConnectivity 更新连接状态 gauge
func SetConnectivity(level models.ConnectivityLevel) {
	switch level {
	case models.ConnectivityOnline:
		Connectivity.Set(2)
	case models.ConnectivityWeak:
		Connectivity.Set(1)
	default:
		Connectivity.Set(0)
	}
}
