package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/config"
	"github.com/langchou/evtrip/internal/network"
	"github.com/langchou/evtrip/internal/repository"
	"github.com/langchou/evtrip/internal/service"
	"github.com/langchou/evtrip/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger      *zap.Logger
	cfg         *config.Config
	net         *network.Network
	tripService *service.TripService
	quotaRepo   *repository.QuotaRepository
	wsHub       *ws.Hub
	httpClient  *http.Client
	upgrader    websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	cfg *config.Config,
	net *network.Network,
	tripService *service.TripService,
	quotaRepo *repository.QuotaRepository,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:      logger,
		cfg:         cfg,
		net:         net,
		tripService: tripService,
		quotaRepo:   quotaRepo,
		wsHub:       wsHub,
		httpClient:  &http.Client{Timeout: httpClientTimeout},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 行程规划
		api.POST("/trip", h.PlanTrip)
		api.GET("/trip/defaults", h.GetTripDefaults)

		// 充电网络
		api.GET("/network", h.GetNetwork)
		api.GET("/network/stations", h.ListStations)

		// 地点服务代理
		api.GET("/places/autocomplete", h.PlaceAutocomplete)
		api.GET("/places/details", h.PlaceDetails)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"stations":   h.net.StationCount(),
		"ws_clients": h.wsHub.ClientCount(),
	})
}
