// Package cluster 对充电站集合做分裂式层次聚类，
// 在计算候选路段之前将密集的站点集合收敛为稀疏的代表站点集合
package cluster

import (
	"sort"

	"github.com/langchou/evtrip/internal/geo"
	"github.com/langchou/evtrip/internal/network"
)

// Tree 充电站集合上的递归二分聚类树
// 每个节点持有一个质心（所代表集合中到其他站点平均大圆距离最小的站点），
// 并且要么是持有整个集合的叶子（集合直径不超过 maxClusterDiameter 时），
// 要么持有恰好两棵划分该集合的子树
// 构造完成后不再修改；原集合中的每个站点在整棵树中恰好出现在一个叶子里
type Tree struct {
	centroid           *network.ChargeStation
	maxClusterDiameter float64 // 米

	// 叶子节点 stations 非空且 children 为空；内部节点反之
	stations []*network.ChargeStation
	children [2]*Tree
}

// New 递归构造聚类树
// maxClusterDiameterMeters 为不再继续分裂的簇直径上限（米）
//
// 1. 质心取集合中到所有其他站点平均大圆距离最小的站点
// 2. 取集合中相距最远的两个站点 a b（直径对）
// 3. 若 distance(a,b) 不超过直径上限，该节点成为持有整个集合的叶子
// 4. 否则按离 a 近还是离 b 近把站点划分为两组递归（a 必在组一、b 必在组二，两组均非空）
//
// 站点在扫描前按 (lat, lng, id) 排序，保证质心与直径对的决胜结果确定
//
// 前置条件：stations 非空；单元素集合直径为 0，直接成为叶子
func New(stations []*network.ChargeStation, maxClusterDiameterMeters float64) *Tree {
	sorted := make([]*network.ChargeStation, len(stations))
	copy(sorted, stations)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Lat != sorted[j].Lat {
			return sorted[i].Lat < sorted[j].Lat
		}
		if sorted[i].Lng != sorted[j].Lng {
			return sorted[i].Lng < sorted[j].Lng
		}
		return sorted[i].ID() < sorted[j].ID()
	})
	return build(sorted, maxClusterDiameterMeters)
}

// build 在已排序的站点集合上递归构造节点
func build(stations []*network.ChargeStation, maxDiameter float64) *Tree {
	coords := make([]geo.Coord, len(stations))
	for i, cs := range stations {
		coords[i] = cs.Coord()
	}

	t := &Tree{
		centroid:           stations[geo.LowestAverageDistance(coords)],
		maxClusterDiameter: maxDiameter,
	}

	ai, bi := geo.FurthestApart(coords)
	if geo.Distance(coords[ai], coords[bi]) <= maxDiameter {
		t.stations = stations
		return t
	}

	// 离 a 更近的站点进组一，其余（含等距）进组二
	group1 := make([]*network.ChargeStation, 0, len(stations))
	group2 := make([]*network.ChargeStation, 0, len(stations))
	for i, cs := range stations {
		if geo.Distance(coords[i], coords[ai]) < geo.Distance(coords[i], coords[bi]) {
			group1 = append(group1, cs)
		} else {
			group2 = append(group2, cs)
		}
	}

	t.children[0] = build(group1, maxDiameter)
	t.children[1] = build(group2, maxDiameter)
	return t
}

// MaxClusterDiameter 返回簇直径上限（米）
func (t *Tree) MaxClusterDiameter() float64 {
	return t.maxClusterDiameter
}

// Centroid 返回该节点的质心站点
func (t *Tree) Centroid() *network.ChargeStation {
	return t.centroid
}

// IsLeaf 判断该节点是否为叶子
func (t *Tree) IsLeaf() bool {
	return len(t.stations) > 0
}

// Clusters 按树序返回所有叶子簇的站点分组
func (t *Tree) Clusters() [][]*network.ChargeStation {
	if t.IsLeaf() {
		return [][]*network.ChargeStation{t.stations}
	}
	result := t.children[0].Clusters()
	return append(result, t.children[1].Clusters()...)
}

// Centroids 按树序返回所有叶子节点的质心
func (t *Tree) Centroids() []*network.ChargeStation {
	if t.IsLeaf() {
		return []*network.ChargeStation{t.centroid}
	}
	result := t.children[0].Centroids()
	return append(result, t.children[1].Centroids()...)
}
