// Package routing 封装外部路线服务：
// 给定一组途经坐标，返回真实道路的逐段距离、耗时、总览折线和坐标边界
package routing

import (
	"context"
	"fmt"

	"github.com/langchou/evtrip/internal/geo"
)

// LegResult 路线中一段的距离与耗时
type LegResult struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Bounds 路线的坐标边界
type Bounds struct {
	Northeast geo.Coord `json:"northeast"`
	Southwest geo.Coord `json:"southwest"`
}

// RouteResult 一次路线查询的结果
// Legs 的数量为途经坐标数减一
type RouteResult struct {
	Legs             []LegResult `json:"legs"`
	OverviewPolyline string      `json:"overview_polyline"`
	Bounds           Bounds      `json:"bounds"`
}

// Oracle 路线服务的抽象契约
// 实现必须视为可失败的外部依赖：建网时单段失败导致该路段被丢弃（不重试），
// 路径查询时失败作为 *OracleError 向调用方传播
type Oracle interface {
	Route(ctx context.Context, coords []geo.Coord) (*RouteResult, error)
}

// OracleError 包装路线服务的任何故障，便于调用方与其他错误区分
type OracleError struct {
	Err error
}

// Error 实现 error 接口
func (e *OracleError) Error() string {
	return fmt.Sprintf("routing oracle: %v", e.Err)
}

// Unwrap 支持 errors.Is / errors.As 链式展开
func (e *OracleError) Unwrap() error {
	return e.Err
}

// wrapOracle 把底层错误包装为 OracleError
func wrapOracle(err error) error {
	if err == nil {
		return nil
	}
	return &OracleError{Err: err}
}
