package geo

import "math"

// EarthRadiusMeters 地球平均半径（米）
const EarthRadiusMeters = 6371000.0

// Coord 经纬度坐标（角度制）
type Coord struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid 检查坐标是否在合法范围内
func (c Coord) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Distance 计算两点间的大圆距离（米），使用 haversine 公式
// 大圆距离永远不会超过真实道路距离，因此可以作为 A* 的可采纳启发函数
func Distance(p1, p2 Coord) float64 {
	lat1 := degToRad(p1.Lat)
	lng1 := degToRad(p1.Lng)
	lat2 := degToRad(p2.Lat)
	lng2 := degToRad(p2.Lng)

	latDiff := math.Abs(lat1 - lat2)
	lngDiff := math.Abs(lng1 - lng2)

	centralAngle := 2 * math.Asin(math.Sqrt(
		hav(latDiff)+(1-hav(latDiff)-hav(lat1+lat2))*hav(lngDiff),
	))
	return EarthRadiusMeters * centralAngle
}

// LowestAverageDistance 返回与集合中所有其他点平均距离最小的点的下标
// 平均距离相同时保留先遇到的点
func LowestAverageDistance(coords []Coord) int {
	minAvg := math.Inf(1)
	minIdx := -1

	for i, ci := range coords {
		sum := 0.0
		for _, cj := range coords {
			sum += Distance(ci, cj)
		}
		avg := sum / float64(len(coords))
		if avg < minAvg {
			minAvg = avg
			minIdx = i
		}
	}
	return minIdx
}

// FurthestApart 返回集合中相距最远的两个点的下标（集合的"直径对"）
// 距离相同时保留后遇到的点对
func FurthestApart(coords []Coord) (int, int) {
	maxDist := -1.0
	a, b := -1, -1

	for i, ci := range coords {
		for j, cj := range coords {
			d := Distance(ci, cj)
			if d >= maxDist {
				maxDist = d
				a, b = i, j
			}
		}
	}
	return a, b
}

// hav 返回给定角度（弧度）的 haversine 值
func hav(x float64) float64 {
	s := math.Sin(x / 2)
	return s * s
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}
