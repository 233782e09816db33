package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/dataset"
	"github.com/langchou/evtrip/internal/network"
)

// writeCSV 按 AFDC 列布局生成测试数据集
// 各参数落在固定列：name=1 address=2 phone=8 hours=12 dc_fast=19 lat=24 lng=25 open_date=32
func writeCSV(t *testing.T, rows [][]string) string {
	t.Helper()

	var sb strings.Builder
	header := make([]string, 33)
	for i := range header {
		header[i] = "col"
	}
	sb.WriteString(strings.Join(header, ","))
	sb.WriteString("\n")
	for _, row := range rows {
		sb.WriteString(strings.Join(row, ","))
		sb.WriteString("\n")
	}

	file := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(file, []byte(sb.String()), 0644))
	return file
}

// stationRow 生成一行站点数据
func stationRow(name string, dcFast string, lat, lng string, openDate string) []string {
	row := make([]string, 33)
	row[1] = name
	row[2] = "1 Main St"
	row[8] = "555-0100"
	row[12] = "24 hours daily"
	row[19] = dcFast
	row[24] = lat
	row[25] = lng
	row[32] = openDate
	return row
}

func TestLoadStationsFiltersByChargerCount(t *testing.T) {
	file := writeCSV(t, [][]string{
		stationRow("Big Station", "8", "50.45", "-104.61", "2019-06-14"),
		stationRow("Small Station", "2", "50.39", "-105.53", ""),
		stationRow("No Count", "", "50.28", "-107.79", ""),
	})

	net := network.New(4, 700_000)
	loaded, err := dataset.LoadStations(net, file, zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 1, loaded)
	require.Equal(t, 1, net.StationCount())

	cs := net.Stations()[0]
	assert.Equal(t, "Big Station", cs.Name)
	assert.Equal(t, "1 Main St", cs.Address)
	assert.Equal(t, 50.45, cs.Lat)
	assert.Equal(t, -104.61, cs.Lng)
	require.NotNil(t, cs.OpenDate)
	assert.Equal(t, "2019-06-14", cs.OpenDate.Format("2006-01-02"))
}

func TestLoadStationsEmptyOpenDate(t *testing.T) {
	file := writeCSV(t, [][]string{
		stationRow("Station", "6", "50.45", "-104.61", ""),
	})

	net := network.New(4, 700_000)
	_, err := dataset.LoadStations(net, file, zap.NewNop())
	require.NoError(t, err)

	require.Equal(t, 1, net.StationCount())
	assert.Nil(t, net.Stations()[0].OpenDate)
}

func TestLoadStationsBadLatitude(t *testing.T) {
	file := writeCSV(t, [][]string{
		stationRow("Station", "6", "not-a-number", "-104.61", ""),
	})

	net := network.New(4, 700_000)
	_, err := dataset.LoadStations(net, file, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadStationsMissingFile(t *testing.T) {
	net := network.New(4, 700_000)
	_, err := dataset.LoadStations(net, filepath.Join(t.TempDir(), "missing.csv"), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadStationsShortRow(t *testing.T) {
	file := writeCSV(t, [][]string{{"only", "three", "cols"}})

	net := network.New(4, 700_000)
	_, err := dataset.LoadStations(net, file, zap.NewNop())
	assert.Error(t, err)
}
