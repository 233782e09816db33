// Package dataset 从 AFDC 格式的 CSV 数据集载入充电站
//
// 数据集来源：
// https://afdc.energy.gov/fuels/electricity_locations.html#/analyze?fuel=ELEC
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/network"
)

// AFDC 默认格式中各字段的列下标
const (
	colName        = 1
	colAddress     = 2
	colPhone       = 8
	colHours       = 12
	colDCFastCount = 19
	colLat         = 24
	colLng         = 25
	colOpenDate    = 32
)

// LoadStations 把 CSV 中直流快充桩数量不低于网络下限的每一行
// 作为充电站加入空的网络，返回载入的站点数
// 前置条件：网络为空；文件为 AFDC 默认格式（首行为表头）
func LoadStations(net *network.Network, filepath string, logger *zap.Logger) (int, error) {
	f, err := os.Open(filepath)
	if err != nil {
		return 0, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	// 跳过表头
	if _, err := reader.Read(); err != nil {
		return 0, fmt.Errorf("read dataset header: %w", err)
	}

	loaded := 0
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return loaded, fmt.Errorf("read dataset row: %w", err)
		}

		cs, ok, err := parseStation(row, net.MinChargersAtStation())
		if err != nil {
			return loaded, err
		}
		if !ok {
			skipped++
			continue
		}

		if err := net.AddStation(cs); err != nil {
			return loaded, fmt.Errorf("add station %q: %w", cs.Name, err)
		}
		loaded++
	}

	logger.Info("Dataset loaded",
		zap.Int("stations", loaded),
		zap.Int("filtered_out", skipped))
	return loaded, nil
}

// parseStation 解析一行数据，快充桩数量不足时返回 ok=false
func parseStation(row []string, minChargers int) (*network.ChargeStation, bool, error) {
	if len(row) <= colOpenDate {
		return nil, false, fmt.Errorf("dataset row has %d columns, want at least %d", len(row), colOpenDate+1)
	}

	dcFastCount := 0
	if row[colDCFastCount] != "" {
		n, err := strconv.Atoi(row[colDCFastCount])
		if err != nil {
			return nil, false, fmt.Errorf("parse dc fast count %q: %w", row[colDCFastCount], err)
		}
		dcFastCount = n
	}
	if dcFastCount < minChargers {
		return nil, false, nil
	}

	lat, err := strconv.ParseFloat(row[colLat], 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse latitude %q: %w", row[colLat], err)
	}
	lng, err := strconv.ParseFloat(row[colLng], 64)
	if err != nil {
		return nil, false, fmt.Errorf("parse longitude %q: %w", row[colLng], err)
	}

	var openDate *time.Time
	if row[colOpenDate] != "" {
		t, err := time.Parse("2006-01-02", row[colOpenDate])
		if err != nil {
			return nil, false, fmt.Errorf("parse open date %q: %w", row[colOpenDate], err)
		}
		openDate = &t
	}

	cs := network.NewChargeStation(
		row[colName],
		row[colAddress],
		row[colHours],
		row[colPhone],
		lat,
		lng,
		openDate,
	)
	return cs, true, nil
}
