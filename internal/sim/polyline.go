package sim

import (
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/langchou/evtrip/internal/geo"
)

// PolylinePoint 路径折线上的一个坐标点
// 电量按该点在所属路段内累计的行驶距离插值得到
type PolylinePoint struct {
	Coord         geo.Coord `json:"coord"`
	TotalDistance float64   `json:"total_distance"`     // 累计行驶距离（米）
	TotalTime     float64   `json:"total_driving_time"` // 累计行驶耗时（秒）
	BatteryLevel  float64   `json:"battery_level"`
}

// AnnotatePolyline 解码路线服务返回的总览折线，为每个坐标点标注
// 累计距离、累计耗时和模拟电量
// legs 必须已经过 Simulate 补全电量信息
// 由于总览折线分辨率有限，各点归属的路段按累计大圆距离比例近似划分
func AnnotatePolyline(encoded string, evRangeMeters float64, legs []LegInfo) ([]PolylinePoint, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(coords) == 0 {
		return nil, nil
	}

	// 折线总长按相邻点大圆距离之和近似，再按比例映射到路段距离
	points := make([]PolylinePoint, len(coords))
	lineTotal := 0.0
	for i, c := range coords {
		points[i].Coord = geo.Coord{Lat: c[0], Lng: c[1]}
		if i > 0 {
			lineTotal += geo.Distance(points[i-1].Coord, points[i].Coord)
			points[i].TotalDistance = lineTotal
		}
	}

	routeTotal := 0.0
	for _, leg := range legs {
		routeTotal += leg.DrivingDistance
	}
	scale := 1.0
	if lineTotal > 0 {
		scale = routeTotal / lineTotal
	}

	// 逐点定位所属路段并插值电量与耗时
	legIdx := 0
	legStartDist := 0.0 // 当前路段起点处的累计道路距离
	legStartTime := 0.0 // 当前路段起点处的累计耗时（含充电）
	for i := range points {
		routeDist := points[i].TotalDistance * scale
		for legIdx < len(legs)-1 && routeDist > legStartDist+legs[legIdx].DrivingDistance {
			legStartDist += legs[legIdx].DrivingDistance
			legStartTime += legs[legIdx].ChargeTime + legs[legIdx].DrivingTime
			legIdx++
		}

		leg := legs[legIdx]
		within := routeDist - legStartDist
		points[i].TotalDistance = routeDist
		points[i].BatteryLevel = leg.BatteryEnd - within/evRangeMeters
		if leg.DrivingDistance > 0 {
			points[i].TotalTime = legStartTime + leg.ChargeTime + leg.DrivingTime*within/leg.DrivingDistance
		} else {
			points[i].TotalTime = legStartTime + leg.ChargeTime
		}
	}

	return points, nil
}
