package network

import "errors"

// 网络构建与路径搜索的哨兵错误
var (
	// ErrDuplicateStation 重复添加已存在的充电站
	ErrDuplicateStation = errors.New("network: charge station already in network")

	// ErrStationNotFound 充电站不在网络中
	ErrStationNotFound = errors.New("network: charge station not in network")

	// ErrPathNotNeeded 起点和终点是同一个充电站
	ErrPathNotNeeded = errors.New("network: tried to find a path between the same 2 charge stations")

	// ErrPathNotFound 两个充电站之间不存在满足条件的路径
	ErrPathNotFound = errors.New("network: no path between the 2 charge stations was found")

	// ErrEmptyNetwork 网络中没有充电站
	ErrEmptyNetwork = errors.New("network: no charge stations in network")
)
