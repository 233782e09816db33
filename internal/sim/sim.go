// Package sim 对一条路径上的充电过程做数值模拟，
// 把按序排列的行驶路段转换为每个充电站的电量时间线
package sim

// ChargeCurve 充电时间曲线：返回从 0 充到 x 所需的时间（秒）
// 必须单调递增；从 x1 充到 x2 的耗时按 curve(x2) - curve(x1) 计算
// 实现需要对大于 1.0 的参数有定义：当路线服务返回的距离超出建网时的
// 距离时，可能出现需要充到 100% 以上的目标电量
type ChargeCurve func(x float64) float64

// DefaultChargeCurve 默认充电曲线，五次多项式模型
// 多项式在全体实数上有定义，超出 1.0 的目标电量按曲线自然外推，不做截断
func DefaultChargeCurve(x float64) float64 {
	const (
		f = 3618.27
		g = -17215.3
		h = 55352.6
		i = -71588.6
		j = 33607.2
	)
	return f*x + g*x*x + h*x*x*x + i*x*x*x*x + j*x*x*x*x*x
}

// LegInfo 路径中一条路段对应的充电站充电与行驶信息
// BatteryStart/BatteryEnd 为电量比例，通常在 [0,1] 内，
// 但当路线服务距离偏离建网距离时 BatteryEnd 可以超过 1（建模产物，不截断）
type LegInfo struct {
	DrivingDistance float64 `json:"driving_distance"` // 到下一站的道路距离（米）
	DrivingTime     float64 `json:"driving_time"`     // 到下一站的行驶耗时（秒）
	ChargeTime      float64 `json:"charge_time"`      // 在本站的充电耗时（秒）
	BatteryStart    float64 `json:"battery_start"`    // 到达本站时的电量
	BatteryEnd      float64 `json:"battery_end"`      // 离开本站时的电量
}

// Simulate 按序模拟路径上每条路段的充电过程，原地补全 legs 中的
// ChargeTime、BatteryStart、BatteryEnd，返回到达终点时的剩余电量
//
// 每条路段的处理规则：
//  1. 本站到达电量 = 上一站离开电量 - 上一段距离/续航（首段取 startBattery）
//  2. 完成本段且到站时电量不低于 minBattery 所需的电量 = minBattery + 距离/续航
//  3. 到达电量低于所需电量时恰好充到所需电量，否则不充电
//
// 终点剩余电量为最后一段的离开电量减去最后一段的消耗（到达即止，不补电）
func Simulate(evRangeMeters, minBattery, startBattery float64, curve ChargeCurve, legs []LegInfo) float64 {
	for i := range legs {
		if i == 0 {
			legs[i].BatteryStart = startBattery
		} else {
			legs[i].BatteryStart = legs[i-1].BatteryEnd - legs[i-1].DrivingDistance/evRangeMeters
		}

		chargeNeeded := minBattery + legs[i].DrivingDistance/evRangeMeters
		if chargeNeeded > legs[i].BatteryStart {
			legs[i].BatteryEnd = chargeNeeded
			legs[i].ChargeTime = curve(chargeNeeded) - curve(legs[i].BatteryStart)
		} else {
			legs[i].BatteryEnd = legs[i].BatteryStart
			legs[i].ChargeTime = 0
		}
	}

	last := legs[len(legs)-1]
	return last.BatteryEnd - last.DrivingDistance/evRangeMeters
}
