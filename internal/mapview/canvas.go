package mapview

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/langchou/h2gazer/internal/models"
)

// RouteKind 路线类型
type RouteKind string

const (
	RouteActual   RouteKind = "actual"
	RouteExpected RouteKind = "expected"
)

// 状态颜色
const (
	ColorSafe     = "#2ECC71"
	ColorWarning  = "#F1C40F"
	ColorCritical = "#E74C3C"
	ColorAction   = "#00A8E8"
	ColorMuted    = "#AAB6C5"
)

// Canvas 地图绘制能力，屏蔽具体地图后端
type Canvas interface {
	SetCenter(p models.LatLng)
	SetMarker(p models.LatLng, status models.OperationalStatus)
	SetRoute(kind RouteKind, points []models.LatLng)
	SetGeofence(points []models.LatLng)
}

// GeoJSONCanvas 以 GeoJSON 图层输出的地图后端
type GeoJSONCanvas struct {
	center   models.LatLng
	marker   *geojson.Feature
	routes   map[RouteKind]*geojson.Feature
	geofence *geojson.Feature
	ring     orb.Ring
}

// NewGeoJSONCanvas 创建空画布
func NewGeoJSONCanvas() *GeoJSONCanvas {
	return &GeoJSONCanvas{
		routes: make(map[RouteKind]*geojson.Feature),
	}
}

// SetCenter 设置地图中心
func (c *GeoJSONCanvas) SetCenter(p models.LatLng) {
	c.center = p
}

// SetMarker 车辆标记，颜色跟随运营状态
func (c *GeoJSONCanvas) SetMarker(p models.LatLng, status models.OperationalStatus) {
	f := geojson.NewFeature(toPoint(p))
	f.Properties["layer"] = "vehicle"
	f.Properties["status"] = string(status)
	f.Properties["color"] = MarkerColor(status)
	c.marker = f
}

// SetRoute 设置路线，空路线移除该图层
func (c *GeoJSONCanvas) SetRoute(kind RouteKind, points []models.LatLng) {
	if len(points) == 0 {
		delete(c.routes, kind)
		return
	}

	line := make(orb.LineString, 0, len(points))
	for _, p := range points {
		line = append(line, toPoint(p))
	}

	f := geojson.NewFeature(line)
	f.Properties["layer"] = "route_" + string(kind)
	if kind == RouteExpected {
		f.Properties["color"] = ColorMuted
		f.Properties["dashed"] = true
	} else {
		f.Properties["color"] = ColorAction
	}
	c.routes[kind] = f
}

// SetGeofence 设置地理围栏，自动闭合多边形
func (c *GeoJSONCanvas) SetGeofence(points []models.LatLng) {
	if len(points) < 3 {
		c.geofence = nil
		c.ring = nil
		return
	}

	ring := make(orb.Ring, 0, len(points)+1)
	for _, p := range points {
		ring = append(ring, toPoint(p))
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}

	f := geojson.NewFeature(orb.Polygon{ring})
	f.Properties["layer"] = "geofence"
	f.Properties["color"] = ColorWarning
	c.geofence = f
	c.ring = ring
}

// Center 当前中心
func (c *GeoJSONCanvas) Center() models.LatLng {
	return c.center
}

// Contains 点是否在围栏内；没有围栏时返回 false
func (c *GeoJSONCanvas) Contains(p models.LatLng) bool {
	if c.ring == nil {
		return false
	}
	return planar.RingContains(c.ring, toPoint(p))
}

// FeatureCollection 按 围栏、期望路线、实际路线、车辆 的绘制顺序输出
func (c *GeoJSONCanvas) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if c.geofence != nil {
		fc.Append(c.geofence)
	}
	if f, ok := c.routes[RouteExpected]; ok {
		fc.Append(f)
	}
	if f, ok := c.routes[RouteActual]; ok {
		fc.Append(f)
	}
	if c.marker != nil {
		fc.Append(c.marker)
	}
	return fc
}

// MarkerColor 运营状态对应的标记颜色，未知状态按严重处理
func MarkerColor(status models.OperationalStatus) string {
	switch status {
	case models.StatusOK:
		return ColorSafe
	case models.StatusWarning:
		return ColorWarning
	default:
		return ColorCritical
	}
}

// GeoJSON 坐标顺序为 [lng, lat]
func toPoint(p models.LatLng) orb.Point {
	return orb.Point{p.Lng, p.Lat}
}
