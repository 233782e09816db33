package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/builder"
	"github.com/langchou/evtrip/internal/config"
	"github.com/langchou/evtrip/internal/dataset"
	"github.com/langchou/evtrip/internal/network"
)

// 建网流水线入口：读入站点数据集，聚类简化，
// 经路线服务解析候选路段后导出网络文件
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	if cfg.DirectionsAPIKey == "" {
		logger.Fatal("DIRECTIONS_API_KEY is required to build the network")
	}

	ctx := context.Background()

	oracle := routing.NewClient(cfg.DirectionsAPIURL, cfg.DirectionsAPIKey, cfg.DirectionsPerSec, logger)

	b := builder.New(
		cfg.MinChargers,
		cfg.EVRangeKm*1000,
		cfg.ClusterDiameterKm*1000,
		oracle,
		confirmOnStdin,
		logger,
		nil,
	)

	err = b.Load(func(net *network.Network) error {
		_, err := dataset.LoadStations(net, cfg.DatasetFile, logger)
		return err
	})
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	if err := b.Cluster(); err != nil {
		logger.Fatal("Failed to cluster stations", zap.Error(err))
	}

	if err := b.Propose(); err != nil {
		logger.Fatal("Failed to propose candidate legs", zap.Error(err))
	}

	if err := b.Resolve(ctx); err != nil {
		logger.Fatal("Failed to resolve legs", zap.Error(err))
	}

	if err := b.Export(cfg.NetworkFile); err != nil {
		logger.Fatal("Failed to export network", zap.Error(err))
	}

	logger.Info("Network built", zap.String("file", cfg.NetworkFile))
}

// confirmOnStdin 在发起批量路线请求前要求人工确认，请求是有计费配额的
func confirmOnStdin(pendingCalls int) bool {
	fmt.Printf("About to make %d directions requests. Proceed? (Y/N): ", pendingCalls)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(line), "y")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}
