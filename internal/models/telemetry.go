package models

// RawReading 车载传感器节点上报的一条原始读数
type RawReading struct {
	Temperature float64 `json:"temperature"` // 罐体温度 (°C)
	MQ8         float64 `json:"mq8"`         // MQ-8 氢气传感器读数
	Timestamp   int64   `json:"timestamp"`   // 毫秒时间戳

	// Signal 可选的实时信号强度，只有 SIGNAL_SOURCE=live 时才会使用
	Signal *float64 `json:"signal,omitempty"`
}

// Snapshot 一次推送的完整快照：snapshot id -> 读数
type Snapshot map[string]RawReading

// Clone 返回快照副本
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
