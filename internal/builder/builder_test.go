package builder_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/builder"
	"github.com/langchou/evtrip/internal/geo"
	"github.com/langchou/evtrip/internal/network"
)

// fakeOracle 以大圆距离的 1.2 倍模拟道路距离
type fakeOracle struct {
	calls    int
	failPair *[2]geo.Coord // 命中时返回错误
}

func (f *fakeOracle) Route(_ context.Context, coords []geo.Coord) (*routing.RouteResult, error) {
	f.calls++
	if f.failPair != nil {
		p0, p1 := f.failPair[0], f.failPair[1]
		if (coords[0] == p0 && coords[1] == p1) || (coords[0] == p1 && coords[1] == p0) {
			return nil, &routing.OracleError{Err: errors.New("simulated failure")}
		}
	}

	legs := make([]routing.LegResult, len(coords)-1)
	for i := range legs {
		d := geo.Distance(coords[i], coords[i+1]) * 1.2
		legs[i] = routing.LegResult{DistanceMeters: d, DurationSeconds: d / 25}
	}
	return &routing.RouteResult{Legs: legs}, nil
}

// populateStations 生成两簇相距约 111 公里的站点
func populateStations(net *network.Network) error {
	coords := []geo.Coord{
		{Lat: 50.00, Lng: -100.00},
		{Lat: 50.01, Lng: -100.01},
		{Lat: 50.02, Lng: -100.00},
		{Lat: 51.00, Lng: -100.00},
		{Lat: 51.01, Lng: -100.01},
	}
	for _, c := range coords {
		cs := network.NewChargeStation("", "", "", "", c.Lat, c.Lng, nil)
		if err := net.AddStation(cs); err != nil {
			return err
		}
	}
	return nil
}

func confirmAlways(int) bool { return true }

func TestBuildPipeline(t *testing.T) {
	oracle := &fakeOracle{}
	b := builder.New(4, 700_000, 60_000, oracle, confirmAlways, zap.NewNop(), nil)

	assert.Equal(t, builder.StateIdle, b.State())

	require.NoError(t, b.Load(populateStations))
	assert.Equal(t, builder.StateLoaded, b.State())
	assert.Equal(t, 5, b.Snapshot().FullStations)

	require.NoError(t, b.Cluster())
	assert.Equal(t, builder.StateClustered, b.State())
	// 两簇各收敛为一个质心
	assert.Equal(t, 2, b.Snapshot().Centroids)
	assert.Equal(t, 2, b.Network().StationCount())

	require.NoError(t, b.Propose())
	assert.Equal(t, builder.StateAwaitingConfirm, b.State())
	assert.Equal(t, 1, b.Snapshot().CandidateLegs)

	require.NoError(t, b.Resolve(context.Background()))
	assert.Equal(t, builder.StateReady, b.State())
	assert.Equal(t, 1, oracle.calls)

	snapshot := b.Snapshot()
	assert.Equal(t, 1, snapshot.ResolvedLegs)
	assert.Equal(t, 0, snapshot.FailedLegs)
	assert.Equal(t, 1, snapshot.CommittedLegs)

	legs := b.Network().Legs()
	require.Len(t, legs, 1)
	assert.True(t, legs[0].Resolved)
	assert.Greater(t, legs[0].DrivingDistance, 100_000.0)
}

func TestBuildPipelineExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "network.json")

	b := builder.New(4, 700_000, 60_000, &fakeOracle{}, confirmAlways, zap.NewNop(), nil)
	require.NoError(t, b.Load(populateStations))
	require.NoError(t, b.Cluster())
	require.NoError(t, b.Propose())
	require.NoError(t, b.Resolve(context.Background()))
	require.NoError(t, b.Export(file))

	loaded, err := network.ImportFile(file)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.StationCount())
	assert.Len(t, loaded.Legs(), 1)
}

func TestResolveAbortedByConfirmGate(t *testing.T) {
	b := builder.New(4, 700_000, 60_000, &fakeOracle{}, func(int) bool { return false }, zap.NewNop(), nil)
	require.NoError(t, b.Load(populateStations))
	require.NoError(t, b.Cluster())
	require.NoError(t, b.Propose())

	err := b.Resolve(context.Background())
	assert.ErrorIs(t, err, builder.ErrBuildAborted)
	assert.Equal(t, builder.StateAwaitingConfirm, b.State())
}

func TestResolveDropsFailedLegs(t *testing.T) {
	oracle := &fakeOracle{}
	b := builder.New(4, 700_000, 60_000, oracle, confirmAlways, zap.NewNop(), nil)
	require.NoError(t, b.Load(populateStations))
	require.NoError(t, b.Cluster())

	// 让唯一的候选路段解析失败
	stations := b.Network().Stations()
	require.Len(t, stations, 2)
	candidates := b.Network().CandidateLegs()
	require.Len(t, candidates, 1)
	a, bEnd := candidates[0].Endpoints()
	oracle.failPair = &[2]geo.Coord{a.Coord(), bEnd.Coord()}

	require.NoError(t, b.Propose())
	require.NoError(t, b.Resolve(context.Background()))

	snapshot := b.Snapshot()
	assert.Equal(t, builder.StateReady, b.State())
	assert.Equal(t, 0, snapshot.ResolvedLegs)
	assert.Equal(t, 1, snapshot.FailedLegs)
	assert.Equal(t, 0, snapshot.CommittedLegs)
	assert.Empty(t, b.Network().Legs())
}

func TestExportRequiresReadyState(t *testing.T) {
	b := builder.New(4, 700_000, 60_000, &fakeOracle{}, confirmAlways, zap.NewNop(), nil)
	require.NoError(t, b.Load(populateStations))

	err := b.Export(filepath.Join(t.TempDir(), "network.json"))
	assert.Error(t, err)
}
