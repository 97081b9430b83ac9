package pipeline

import "github.com/langchou/h2gazer/internal/models"

// SelectLatest 从快照中选出时间戳最大的读数，空快照返回 nil
//
// 缺失时间戳按 0 处理；时间戳相同时取 key 字典序较大的一条，
// 调用方不应依赖这一点。
func SelectLatest(snapshot models.Snapshot) *models.RawReading {
	if len(snapshot) == 0 {
		return nil
	}

	var (
		latestKey string
		latest    models.RawReading
		found     bool
	)
	for key, reading := range snapshot {
		if !found ||
			reading.Timestamp > latest.Timestamp ||
			(reading.Timestamp == latest.Timestamp && key > latestKey) {
			latestKey = key
			latest = reading
			found = true
		}
	}

	return &latest
}
