package network_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/langchou/evtrip/internal/network"
)

func TestExportImportEmptyNetwork(t *testing.T) {
	file := filepath.Join(t.TempDir(), "network.json")

	net := network.New(4, 700_000)
	require.NoError(t, net.ExportFile(file))

	loaded, err := network.ImportFile(file)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.MinChargersAtStation())
	assert.Equal(t, 700_000.0, loaded.EVRange())
	assert.Equal(t, 0, loaded.StationCount())
	assert.Empty(t, loaded.Legs())
}

func TestExportImportSingleStation(t *testing.T) {
	file := filepath.Join(t.TempDir(), "network.json")

	opened := time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC)
	only := network.NewChargeStation("Saskatoon Supercharger", "2606 8th St E", "24/7", "555-0199", 52.12, -106.63, &opened)

	net := network.New(4, 700_000)
	require.NoError(t, net.AddStation(only))
	require.NoError(t, net.ExportFile(file))

	loaded, err := network.ImportFile(file)
	require.NoError(t, err)
	require.Equal(t, 1, loaded.StationCount())
	assert.Empty(t, loaded.Legs())

	cs := loaded.Stations()[0]
	assert.Equal(t, "Saskatoon Supercharger", cs.Name)
	assert.Equal(t, "2606 8th St E", cs.Address)
	assert.Equal(t, "24/7", cs.Hours)
	assert.Equal(t, "555-0199", cs.Phone)
	assert.Equal(t, 52.12, cs.Lat)
	assert.Equal(t, -106.63, cs.Lng)
	require.NotNil(t, cs.OpenDate)
	assert.Equal(t, "2021-03-02", cs.OpenDate.Format("2006-01-02"))
}

func TestExportImportRoundTrip(t *testing.T) {
	file := filepath.Join(t.TempDir(), "network.json")

	opened := time.Date(2019, 6, 14, 0, 0, 0, 0, time.UTC)
	a := network.NewChargeStation("Regina Supercharger", "123 Main St", "24/7", "555-0101", 50.45, -104.61, &opened)
	b := network.NewChargeStation("Moose Jaw Supercharger", "", "", "", 50.39, -105.53, nil)
	c := network.NewChargeStation("Swift Current Supercharger", "", "", "", 50.28, -107.79, nil)

	net := network.New(4, 700_000)
	for _, cs := range []*network.ChargeStation{a, b, c} {
		require.NoError(t, net.AddStation(cs))
	}
	net.CommitLegs([]*network.Leg{
		network.NewResolvedLeg(a, b, 71_000, 2700),
		network.NewResolvedLeg(b, c, 170_000, 6100),
	})

	require.NoError(t, net.ExportFile(file))

	loaded, err := network.ImportFile(file)
	require.NoError(t, err)

	assert.Equal(t, net.MinChargersAtStation(), loaded.MinChargersAtStation())
	assert.Equal(t, net.EVRange(), loaded.EVRange())
	assert.Equal(t, 3, loaded.StationCount())
	require.Len(t, loaded.Legs(), 2)

	// 字段值逐站还原，开业日期保留日期部分
	byName := make(map[string]*network.ChargeStation)
	for _, cs := range loaded.Stations() {
		byName[cs.Name] = cs
	}
	require.Contains(t, byName, "Regina Supercharger")
	regina := byName["Regina Supercharger"]
	assert.Equal(t, "123 Main St", regina.Address)
	assert.Equal(t, 50.45, regina.Lat)
	require.NotNil(t, regina.OpenDate)
	assert.Equal(t, "2019-06-14", regina.OpenDate.Format("2006-01-02"))

	moose := byName["Moose Jaw Supercharger"]
	require.NotNil(t, moose)
	assert.Nil(t, moose.OpenDate)

	// 路段距离集合一致
	distances := make(map[float64]bool)
	for _, leg := range loaded.Legs() {
		distances[leg.DrivingDistance] = true
		assert.True(t, leg.Resolved)
	}
	assert.True(t, distances[71_000])
	assert.True(t, distances[170_000])
}

func TestImportFileMissing(t *testing.T) {
	_, err := network.ImportFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
