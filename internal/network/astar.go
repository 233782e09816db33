package network

import (
	"container/heap"
	"sort"

	"github.com/langchou/evtrip/internal/geo"
)

// ShortestPath 使用 A* 搜索返回从 start 到 goal 的道路距离最短路径
// 启发函数为候选站点到终点的大圆距离：大圆距离永远不超过道路距离，
// 因此启发函数可采纳且一致，已定居的站点 g 值即为最终值，无需重新打开
//
// 尚未定居的站点在发现更短路径时重新入队，堆中的旧条目在弹出时跳过
//
// 道路距离落在 [minLegLength, maxLegLength]（米）之外的路段在松弛时被完全跳过
//
// f 值相同的候选按 LIFO 顺序扩展（后入队者先出队），
// 通过堆中单调递减的序号实现，保证对称距离图上的结果可复现
//
// start 与 goal 为同一站点时返回 ErrPathNotNeeded；
// 搜索耗尽仍未到达终点时返回 ErrPathNotFound
func (n *Network) ShortestPath(start, goal *ChargeStation, minLegLength, maxLegLength float64) ([]*Leg, error) {
	if start == goal {
		return nil, ErrPathNotNeeded
	}
	if !n.Contains(start) || !n.Contains(goal) {
		return nil, ErrStationNotFound
	}

	// fringe 中每项包含 f 值、保证 LIFO 决胜的递减序号、以及站点本身
	fringe := &fringeHeap{}
	heap.Init(fringe)

	lifoCounter := int64(-1)
	heap.Push(fringe, &fringeItem{fScore: 0, seq: lifoCounter, cs: start})

	// prevLegs[cs] 为当前已知最短路径中通向 cs 的路段
	prevLegs := make(map[*ChargeStation]*Leg, len(n.graph))

	// gScore 缺失的键视为尚未到达（g 为无穷大）
	gScore := make(map[*ChargeStation]float64, len(n.graph))
	gScore[start] = 0

	settled := make(map[*ChargeStation]bool, len(n.graph))

	goalCoord := goal.Coord()

	for fringe.Len() > 0 {
		curr := heap.Pop(fringe).(*fringeItem).cs

		if curr == goal {
			return reconstructPath(prevLegs, start, goal), nil
		}
		if settled[curr] {
			continue // 同一站点更优条目已被处理过的旧堆条目
		}
		settled[curr] = true

		for _, leg := range n.sortedLegs(curr) {
			if leg.DrivingDistance < minLegLength || leg.DrivingDistance > maxLegLength {
				continue // 跳过不符合路段长度要求的边
			}

			neighbour := leg.OtherEndpoint(curr)
			if settled[neighbour] {
				continue
			}

			tentative := gScore[curr] + leg.DrivingDistance
			if known, reached := gScore[neighbour]; reached && tentative >= known {
				continue
			}
			prevLegs[neighbour] = leg
			gScore[neighbour] = tentative
			fScore := tentative + geo.Distance(neighbour.Coord(), goalCoord)

			lifoCounter--
			heap.Push(fringe, &fringeItem{fScore: fScore, seq: lifoCounter, cs: neighbour})
		}
	}

	return nil, ErrPathNotFound
}

// sortedLegs 按对端站点序号返回站点的邻接路段，保证松弛顺序确定
func (n *Network) sortedLegs(cs *ChargeStation) []*Leg {
	legs := make([]*Leg, 0, len(n.graph[cs]))
	for _, leg := range n.graph[cs] {
		legs = append(legs, leg)
	}
	sort.Slice(legs, func(i, j int) bool {
		return legs[i].OtherEndpoint(cs).id < legs[j].OtherEndpoint(cs).id
	})
	return legs
}

// reconstructPath 沿前驱路段链从终点回溯到起点，返回起点到终点顺序的路段列表
// 使用显式循环和反转缓冲区，避免长路径上的递归深度问题
func reconstructPath(prevLegs map[*ChargeStation]*Leg, start, goal *ChargeStation) []*Leg {
	reversed := make([]*Leg, 0)
	for curr := goal; curr != start; {
		leg := prevLegs[curr]
		reversed = append(reversed, leg)
		curr = leg.OtherEndpoint(curr)
	}

	result := make([]*Leg, len(reversed))
	for i, leg := range reversed {
		result[len(reversed)-1-i] = leg
	}
	return result
}

// fringeItem A* 搜索边缘中的一个候选
type fringeItem struct {
	fScore float64
	seq    int64 // 入队时递减分配，相同 f 值时后入队者更小、先弹出
	cs     *ChargeStation
}

// fringeHeap 按 (fScore, seq) 升序排列的最小堆
type fringeHeap []*fringeItem

func (h fringeHeap) Len() int { return len(h) }

func (h fringeHeap) Less(i, j int) bool {
	if h[i].fScore != h[j].fScore {
		return h[i].fScore < h[j].fScore
	}
	return h[i].seq < h[j].seq
}

func (h fringeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *fringeHeap) Push(x interface{}) { *h = append(*h, x.(*fringeItem)) }

func (h *fringeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
