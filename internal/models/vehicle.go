package models

// OperationalStatus 车辆运营状态
type OperationalStatus string

const (
	StatusOK       OperationalStatus = "OK"
	StatusWarning  OperationalStatus = "WARNING"
	StatusCritical OperationalStatus = "CRITICAL"
)

// LatLng 经纬度坐标
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Identity 车辆身份
type Identity struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Status OperationalStatus `json:"status"`
}

// Position 车辆位置
type Position struct {
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	SpeedKph   float64 `json:"speed_kph"`
	HeadingDeg float64 `json:"heading_deg"`
}

// LatLng 返回位置坐标
func (p Position) LatLng() LatLng {
	return LatLng{Lat: p.Lat, Lng: p.Lng}
}

// Leak 氢气泄漏检测
type Leak struct {
	Detected bool    `json:"detected"`
	PPM      float64 `json:"ppm"`
}

// Pressure 储罐压力
type Pressure struct {
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Unit      string    `json:"unit"`
	History   []float64 `json:"history"` // 旧 -> 新
}

// Temperature 储罐温度
type Temperature struct {
	Value   float64  `json:"value"`
	Ambient *float64 `json:"ambient,omitempty"`
	Unit    string   `json:"unit"`
}

// Tank 储罐状态
type Tank struct {
	Leak        Leak        `json:"leak"`
	Pressure    Pressure    `json:"pressure"`
	Temperature Temperature `json:"temperature"`
}

// SystemStats 通信与电源状态
type SystemStats struct {
	SignalPct         float64 `json:"signal_pct"`
	Voltage           float64 `json:"voltage"`
	UptimeSeconds     int64   `json:"uptime_seconds"`
	LastUpdateEpochMs int64   `json:"last_update"`
}

// Route 路线信息
type Route struct {
	Actual   []LatLng `json:"actual"`
	Expected []LatLng `json:"expected"`
	Geofence []LatLng `json:"geofence"`
}

// VehicleState 单车完整视图，每次推送整体替换，不做字段级更新
type VehicleState struct {
	Identity Identity    `json:"identity"`
	Position Position    `json:"position"`
	Tank     Tank        `json:"tank"`
	System   SystemStats `json:"system"`
	Route    Route       `json:"route"`
	Events   []Event     `json:"events"`
}

// Fixture 车辆静态数据：除遥测字段外的全部内容
type Fixture struct {
	Identity Identity    `json:"identity"`
	Position Position    `json:"position"`
	Pressure Pressure    `json:"pressure"`
	System   SystemStats `json:"system"`
	Route    Route       `json:"route"`
	Events   []Event     `json:"events"`
}
