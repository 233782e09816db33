package network

import (
	"math"

	"github.com/langchou/evtrip/internal/geo"
)

// Network 充电网络图 ADT
// 顶点为充电站，边为路段；邻接表中每条路段的两个端点都必须在图中
// 道路距离超过 evRange 的路段在载入时被拒绝，图不会在 evRange 变化后自我修复
type Network struct {
	minChargersAtStation int
	evRange              float64 // 电动车续航（米），即路段道路距离的上限

	graph map[*ChargeStation]map[legKey]*Leg
}

// New 创建空的充电网络
// minChargersAtStation 为建网时每个充电站的直流快充桩数量下限（仅在数据载入时过滤）
// evRangeMeters 为该网络对应车型的续航里程（米）
func New(minChargersAtStation int, evRangeMeters float64) *Network {
	return &Network{
		minChargersAtStation: minChargersAtStation,
		evRange:              evRangeMeters,
		graph:                make(map[*ChargeStation]map[legKey]*Leg),
	}
}

// MinChargersAtStation 返回建网时的快充桩数量下限
func (n *Network) MinChargersAtStation() int {
	return n.minChargersAtStation
}

// EVRange 返回网络的续航里程（米）
func (n *Network) EVRange() float64 {
	return n.evRange
}

// StationCount 返回充电站数量
func (n *Network) StationCount() int {
	return len(n.graph)
}

// Stations 返回网络中的所有充电站
func (n *Network) Stations() []*ChargeStation {
	result := make([]*ChargeStation, 0, len(n.graph))
	for cs := range n.graph {
		result = append(result, cs)
	}
	return result
}

// Contains 检查充电站是否在网络中
func (n *Network) Contains(cs *ChargeStation) bool {
	_, ok := n.graph[cs]
	return ok
}

// AddStation 向网络添加一个充电站，重复添加返回 ErrDuplicateStation
func (n *Network) AddStation(cs *ChargeStation) error {
	if _, ok := n.graph[cs]; ok {
		return ErrDuplicateStation
	}
	n.graph[cs] = make(map[legKey]*Leg)
	return nil
}

// StationLegs 返回与给定充电站相连的所有路段
func (n *Network) StationLegs(cs *ChargeStation) ([]*Leg, error) {
	legs, ok := n.graph[cs]
	if !ok {
		return nil, ErrStationNotFound
	}
	result := make([]*Leg, 0, len(legs))
	for _, leg := range legs {
		result = append(result, leg)
	}
	return result, nil
}

// Legs 返回网络中去重后的所有路段
func (n *Network) Legs() []*Leg {
	seen := make(map[legKey]*Leg)
	for _, legs := range n.graph {
		for key, leg := range legs {
			seen[key] = leg
		}
	}
	result := make([]*Leg, 0, len(seen))
	for _, leg := range seen {
		result = append(result, leg)
	}
	return result
}

// CandidateLegs 返回补全该网络可能需要的所有未解析路段
// 候选路段是大圆距离严格小于续航里程的无序站点对：
// 由于道路距离一定不小于大圆距离，不会漏掉任何合法的边
// 对当前顶点数为 O(n²)
func (n *Network) CandidateLegs() []*Leg {
	stations := n.Stations()

	result := make([]*Leg, 0)
	for i := 0; i < len(stations); i++ {
		for j := i + 1; j < len(stations); j++ {
			if geo.Distance(stations[i].Coord(), stations[j].Coord()) < n.evRange {
				result = append(result, NewLeg(stations[i], stations[j]))
			}
		}
	}
	return result
}

// CommitLegs 将道路距离不超过续航里程的已解析路段挂入两个端点的邻接表
// 未解析或超出续航的路段被静默丢弃，返回实际载入的路段数
// 前置条件：每条路段的两个端点都已在网络中
func (n *Network) CommitLegs(legs []*Leg) int {
	loaded := 0
	for _, leg := range legs {
		if !leg.Resolved || leg.DrivingDistance > n.evRange {
			continue
		}
		key := leg.key()
		n.graph[leg.a][key] = leg
		n.graph[leg.b][key] = leg
		loaded++
	}
	return loaded
}

// NearestStation 返回大圆距离意义下离给定坐标最近的充电站
func (n *Network) NearestStation(coord geo.Coord) (*ChargeStation, error) {
	if len(n.graph) == 0 {
		return nil, ErrEmptyNetwork
	}
	minDist := math.Inf(1)
	var nearest *ChargeStation
	for cs := range n.graph {
		if d := geo.Distance(coord, cs.Coord()); d < minDist {
			minDist = d
			nearest = cs
		}
	}
	return nearest, nil
}
