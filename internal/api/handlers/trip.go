package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/geo"
	"github.com/langchou/evtrip/internal/network"
	"github.com/langchou/evtrip/internal/service"
)

// planTripRequest 行程规划请求体
// 距离单位为公里，电量为百分比整数；覆盖北美数据集的坐标范围
type planTripRequest struct {
	StartLat       float64 `json:"start_lat" binding:"required,gte=20,lte=70"`
	StartLng       float64 `json:"start_lng" binding:"required,gte=-160,lte=-60"`
	EndLat         float64 `json:"end_lat" binding:"required,gte=20,lte=70"`
	EndLng         float64 `json:"end_lng" binding:"required,gte=-160,lte=-60"`
	MinLegLengthKm int     `json:"min_leg_length" binding:"gte=0,lte=700"`
	EVRangeKm      int     `json:"ev_range" binding:"gte=0,lte=1000"`
	MinBattery     int     `json:"min_battery" binding:"gte=0,lte=100"`
	MaxBattery     int     `json:"max_battery" binding:"gte=0,lte=100"`
	StartBattery   int     `json:"start_battery" binding:"gte=0,lte=100"`
}

// validate 校验各字段之间的约束
func (r *planTripRequest) validate(networkRangeMeters float64) error {
	if r.MinBattery > r.MaxBattery {
		return errors.New("min battery greater than max battery")
	}
	effectiveRange := float64(r.MaxBattery-r.MinBattery) * float64(r.EVRangeKm) * 1000 / 100
	if effectiveRange < float64(r.MinLegLengthKm)*1000 || effectiveRange > networkRangeMeters {
		return errors.New("effective range not within min leg length and max range")
	}
	return nil
}

// PlanTrip 规划行程
// POST /api/trip
func (h *Handler) PlanTrip(c *gin.Context) {
	var req planTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.validate(h.net.EVRange()); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.tripService.Plan(c.Request.Context(), service.TripRequest{
		StartCoord:         geo.Coord{Lat: req.StartLat, Lng: req.StartLng},
		EndCoord:           geo.Coord{Lat: req.EndLat, Lng: req.EndLng},
		MinLegLengthMeters: float64(req.MinLegLengthKm) * 1000,
		EVRangeMeters:      float64(req.EVRangeKm) * 1000,
		MinBattery:         float64(req.MinBattery) / 100,
		MaxBattery:         float64(req.MaxBattery) / 100,
		StartBattery:       float64(req.StartBattery) / 100,
	})
	if err != nil {
		h.respondTripError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// respondTripError 把规划失败映射为对应的 HTTP 状态与可读信息
func (h *Handler) respondTripError(c *gin.Context, err error) {
	var oracleErr *routing.OracleError
	switch {
	case errors.Is(err, network.ErrPathNotNeeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "no path was needed since start coord and end coord snapped to same charge station",
		})
	case errors.Is(err, network.ErrPathNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "no path was found between these two coordinates",
		})
	case errors.As(err, &oracleErr):
		h.logger.Error("Directions request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "no path was found due to a directions service error",
		})
	default:
		h.logger.Error("Failed to plan trip", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to plan trip"})
	}
}

// GetTripDefaults 获取行程表单默认值
// GET /api/trip/defaults
func (h *Handler) GetTripDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"min_leg_length": h.cfg.DefaultMinLegLengthKm,
			"ev_range":       h.cfg.DefaultEVRangeKm,
			"min_battery":    h.cfg.DefaultMinBattery,
			"max_battery":    h.cfg.DefaultMaxBattery,
			"start_battery":  h.cfg.DefaultStartBattery,
		},
	})
}
