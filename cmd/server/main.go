package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/evtrip/internal/api/handlers"
	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/config"
	"github.com/langchou/evtrip/internal/network"
	"github.com/langchou/evtrip/internal/repository"
	"github.com/langchou/evtrip/internal/service"
	"github.com/langchou/evtrip/internal/sim"
	"github.com/langchou/evtrip/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting evtrip", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	quotaRepo := repository.NewQuotaRepository(db)

	// 加载充电网络
	net, err := network.ImportFile(cfg.NetworkFile)
	if err != nil {
		logger.Fatal("Failed to load network file",
			zap.Error(err), zap.String("file", cfg.NetworkFile))
	}
	logger.Info("Network loaded",
		zap.String("file", cfg.NetworkFile),
		zap.Int("stations", net.StationCount()),
		zap.Int("legs", len(net.Legs())))

	// 创建路线服务客户端
	oracle := routing.NewClient(cfg.DirectionsAPIURL, cfg.DirectionsAPIKey, cfg.DirectionsPerSec, logger)

	// 创建 WebSocket Hub，新连接先收到网络概况
	wsHub := ws.NewHub(logger)
	wsHub.SetInitDataProvider(func() interface{} {
		return map[string]interface{}{
			"stations": net.StationCount(),
			"legs":     len(net.Legs()),
			"ev_range": net.EVRange(),
		}
	})
	go wsHub.Run()

	// 创建行程服务
	tripService := service.NewTripService(net, oracle, sim.DefaultChargeCurve, logger)

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, cfg, net, tripService, quotaRepo, wsHub)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
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

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
