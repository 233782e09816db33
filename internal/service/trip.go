package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/geo"
	"github.com/langchou/evtrip/internal/network"
	"github.com/langchou/evtrip/internal/sim"
)

// TripService 行程规划服务：
// 把起终点坐标吸附到最近的充电站，做约束最短路搜索，
// 再经路线服务刷新路径并模拟充电过程，组装行程摘要
type TripService struct {
	net    *network.Network
	oracle routing.Oracle
	curve  sim.ChargeCurve
	logger *zap.Logger
}

// NewTripService 创建行程服务
func NewTripService(net *network.Network, oracle routing.Oracle, curve sim.ChargeCurve, logger *zap.Logger) *TripService {
	return &TripService{
		net:    net,
		oracle: oracle,
		curve:  curve,
		logger: logger,
	}
}

// TripRequest 一次行程规划请求，电量为 [0,1] 比例，距离为米
type TripRequest struct {
	StartCoord         geo.Coord `json:"start_coord"`
	EndCoord           geo.Coord `json:"end_coord"`
	MinLegLengthMeters float64   `json:"min_leg_length"`
	EVRangeMeters      float64   `json:"ev_range"`
	MinBattery         float64   `json:"min_battery"`
	MaxBattery         float64   `json:"max_battery"`
	StartBattery       float64   `json:"start_battery"`
}

// StopSummary 路径中一个充电站的摘要
type StopSummary struct {
	ChargeStation   map[string]string `json:"charge_station"`
	DrivingDistance string            `json:"driving_distance"`
	DrivingTime     string            `json:"driving_time"`
	ChargeTime      string            `json:"charge_time"`
	BatteryStart    string            `json:"battery_start"`
	BatteryEnd      string            `json:"battery_end"`
}

// DestinationSummary 终点站摘要：站点展示字段与到达终点时的电量
type DestinationSummary struct {
	ChargeStation    map[string]string `json:"charge_station"`
	DestStartBattery string            `json:"dest_start_battery"`
}

// TripSummary 行程规划结果
type TripSummary struct {
	Polyline       string              `json:"polyline"`
	Bounds         routing.Bounds      `json:"bounds"`
	PathSummary    map[string]string   `json:"path_summary"`
	LegsSummary    []StopSummary       `json:"legs_summary"`
	Destination    DestinationSummary  `json:"destination_summary"`
	PolylinePoints []sim.PolylinePoint `json:"polyline_points"`
	RequestData    TripRequest         `json:"request_data"`
}

// Plan 规划一次行程
// 可能返回 network.ErrPathNotNeeded、network.ErrPathNotFound，
// 或路线服务失败时的 *routing.OracleError；这些错误不做降级，直接向调用方传播
func (s *TripService) Plan(ctx context.Context, req TripRequest) (*TripSummary, error) {
	start, err := s.net.NearestStation(req.StartCoord)
	if err != nil {
		return nil, err
	}
	goal, err := s.net.NearestStation(req.EndCoord)
	if err != nil {
		return nil, err
	}

	maxLegLength := (req.MaxBattery - req.MinBattery) * req.EVRangeMeters
	path, err := s.net.ShortestPath(start, goal, req.MinLegLengthMeters, maxLegLength)
	if err != nil {
		return nil, err
	}

	// 路径上的站点序列：起点 + 每条路段的对端
	stops := make([]*network.ChargeStation, 0, len(path)+1)
	stops = append(stops, start)
	for _, leg := range path {
		stops = append(stops, leg.OtherEndpoint(stops[len(stops)-1]))
	}

	// 通过路线服务刷新整条路径的距离、耗时与折线
	// 刷新值可能与建网时的存量值有细微偏差
	coords := make([]geo.Coord, len(stops))
	for i, cs := range stops {
		coords[i] = cs.Coord()
	}
	route, err := s.oracle.Route(ctx, coords)
	if err != nil {
		return nil, err
	}

	legs := make([]sim.LegInfo, len(route.Legs))
	for i, lr := range route.Legs {
		legs[i] = sim.LegInfo{
			DrivingDistance: lr.DistanceMeters,
			DrivingTime:     lr.DurationSeconds,
		}
	}
	destBattery := sim.Simulate(req.EVRangeMeters, req.MinBattery, req.StartBattery, s.curve, legs)

	points, err := sim.AnnotatePolyline(route.OverviewPolyline, req.EVRangeMeters, legs)
	if err != nil {
		return nil, fmt.Errorf("annotate polyline: %w", err)
	}

	s.logger.Info("Trip planned",
		zap.Int("stops", len(stops)),
		zap.Float64("dest_battery", destBattery))

	return buildSummary(req, stops, legs, route, destBattery, points), nil
}

// buildSummary 组装行程摘要
func buildSummary(req TripRequest, stops []*network.ChargeStation, legs []sim.LegInfo,
	route *routing.RouteResult, destBattery float64, points []sim.PolylinePoint) *TripSummary {

	totalDistance := 0.0
	totalDriving := 0.0
	totalCharge := 0.0
	for _, leg := range legs {
		totalDistance += leg.DrivingDistance
		totalDriving += leg.DrivingTime
		totalCharge += leg.ChargeTime
	}

	legsSummary := make([]StopSummary, len(legs))
	for i, leg := range legs {
		legsSummary[i] = StopSummary{
			ChargeStation:   stops[i].DisplayFields(),
			DrivingDistance: formatMeters(leg.DrivingDistance),
			DrivingTime:     formatSeconds(leg.DrivingTime),
			ChargeTime:      formatSeconds(leg.ChargeTime),
			BatteryStart:    formatBattery(leg.BatteryStart),
			BatteryEnd:      formatBattery(leg.BatteryEnd),
		}
	}

	return &TripSummary{
		Polyline: route.OverviewPolyline,
		Bounds:   route.Bounds,
		PathSummary: map[string]string{
			"total_driving_distance": formatMeters(totalDistance),
			"total_driving_time":     formatSeconds(totalDriving),
			"total_charge_time":      formatSeconds(totalCharge),
			"total_time":             formatSeconds(totalDriving + totalCharge),
		},
		LegsSummary: legsSummary,
		Destination: DestinationSummary{
			ChargeStation:    stops[len(stops)-1].DisplayFields(),
			DestStartBattery: formatBattery(destBattery),
		},
		PolylinePoints: points,
		RequestData:    req,
	}
}

// formatSeconds 格式化耗时：超过 1 小时显示 x hrs y mins z secs，否则 x mins y secs
func formatSeconds(seconds float64) string {
	s := int64(seconds)
	if s >= 3600 {
		return fmt.Sprintf("%d hrs %d mins %d secs", s/3600, s%3600/60, s%60)
	}
	return fmt.Sprintf("%d mins %d secs", s/60, s%60)
}

// formatMeters 格式化距离（公里，保留一位小数）
func formatMeters(meters float64) string {
	return fmt.Sprintf("%.1f kms", meters/1000)
}

// formatBattery 格式化电量百分比
func formatBattery(value float64) string {
	return fmt.Sprintf("%.1f%%", value*100)
}
