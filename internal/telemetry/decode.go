package telemetry

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/langchou/h2gazer/internal/models"
)

// DecodeReading 宽松解析一条读数：非法 JSON、缺失或非数值字段都取零值
func DecodeReading(data []byte) models.RawReading {
	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return models.RawReading{}
	}

	reading := models.RawReading{
		Temperature: number(fields["temperature"]),
		MQ8:         number(fields["mq8"]),
		Timestamp:   timestamp(number(fields["timestamp"])),
	}
	if v, ok := fields["signal"]; ok && v != nil {
		signal := number(v)
		reading.Signal = &signal
	}
	return reading
}

// EncodeReading 序列化读数
func EncodeReading(r models.RawReading) ([]byte, error) {
	return json.Marshal(r)
}

// timestamp 负数按 0 处理（排在最旧），超出 int64 范围的截断到最大值
func timestamp(f float64) int64 {
	switch {
	case f <= 0:
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(f)
	}
}

// number 将 JSON 值转换为 float64，无法转换时返回 0
func number(v interface{}) float64 {
	var f float64
	switch val := v.(type) {
	case float64:
		f = val
	case string:
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0
		}
		f = parsed
	case bool:
		if val {
			f = 1
		}
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
