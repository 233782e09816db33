package sim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/langchou/evtrip/internal/sim"
)

func encodeLine(coords [][]float64) string {
	return string(polyline.EncodeCoords(coords))
}

func TestAnnotatePolylineInvalidInput(t *testing.T) {
	_, err := sim.AnnotatePolyline("\x1f", 550_000, nil)
	assert.Error(t, err)
}

func TestAnnotatePolylineSingleLeg(t *testing.T) {
	// 一条路段，三个等距折线点
	encoded := encodeLine([][]float64{
		{50.0, -100.0},
		{50.5, -100.0},
		{51.0, -100.0},
	})

	legs := []sim.LegInfo{{DrivingDistance: 120_000, DrivingTime: 4300}}
	sim.Simulate(550_000, 0.15, 0.8, sim.DefaultChargeCurve, legs)

	points, err := sim.AnnotatePolyline(encoded, 550_000, legs)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// 起点电量为离站电量，终点电量为到站电量
	assert.Equal(t, 0.0, points[0].TotalDistance)
	assert.InDelta(t, legs[0].BatteryEnd, points[0].BatteryLevel, 1e-9)
	assert.InDelta(t, 120_000, points[2].TotalDistance, 1e-6)
	assert.InDelta(t, legs[0].BatteryEnd-120_000.0/550_000, points[2].BatteryLevel, 1e-9)

	// 中点在路段中间，电量介于两端之间
	assert.InDelta(t, 60_000, points[1].TotalDistance, 500)
	assert.Less(t, points[1].BatteryLevel, points[0].BatteryLevel)
	assert.Greater(t, points[1].BatteryLevel, points[2].BatteryLevel)
}

func TestAnnotatePolylineAccumulatesTime(t *testing.T) {
	encoded := encodeLine([][]float64{
		{50.0, -100.0},
		{51.0, -100.0},
		{52.0, -100.0},
	})

	legs := []sim.LegInfo{
		{DrivingDistance: 115_000, DrivingTime: 4100},
		{DrivingDistance: 115_000, DrivingTime: 4100},
	}
	sim.Simulate(550_000, 0.15, 0.3, sim.DefaultChargeCurve, legs)

	points, err := sim.AnnotatePolyline(encoded, 550_000, legs)
	require.NoError(t, err)
	require.Len(t, points, 3)

	// 累计耗时单调递增，终点耗时包含两段行驶与全部充电时间
	assert.Less(t, points[0].TotalTime, points[1].TotalTime)
	assert.Less(t, points[1].TotalTime, points[2].TotalTime)

	wantTotal := legs[0].ChargeTime + legs[0].DrivingTime + legs[1].ChargeTime + legs[1].DrivingTime
	assert.InDelta(t, wantTotal, points[2].TotalTime, 1e-6)
}
