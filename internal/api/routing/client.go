package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/langchou/evtrip/internal/geo"
)

// Client 基于 directions 风格 HTTP API 的路线服务客户端
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger

	// 客户端侧限流，避免批量建网时打爆配额
	limiter *rate.Limiter

	// 缓存：避免重复请求相同的两点路线
	cache   map[string]*RouteResult
	cacheMu sync.RWMutex
}

// directionsResponse directions 风格 API 响应
type directionsResponse struct {
	Status       string           `json:"status"` // "OK" 成功
	ErrorMessage string           `json:"error_message"`
	Routes       []directionsRoute `json:"routes"`
}

type directionsRoute struct {
	Legs []struct {
		Distance struct {
			Value float64 `json:"value"` // 米
		} `json:"distance"`
		Duration struct {
			Value float64 `json:"value"` // 秒
		} `json:"duration"`
	} `json:"legs"`
	OverviewPolyline struct {
		Points string `json:"points"`
	} `json:"overview_polyline"`
	Bounds struct {
		Northeast geo.Coord `json:"northeast"`
		Southwest geo.Coord `json:"southwest"`
	} `json:"bounds"`
}

// NewClient 创建路线服务客户端
// requestsPerSecond 为客户端侧限流速率，0 表示不限流
func NewClient(baseURL, apiKey string, requestsPerSecond float64, logger *zap.Logger) *Client {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:  logger,
		limiter: rate.NewLimiter(limit, 1),
		cache:   make(map[string]*RouteResult),
	}
}

// Route 查询途经给定坐标序列的路线
// coords 依次为起点、途经点、终点，至少 2 个
func (c *Client) Route(ctx context.Context, coords []geo.Coord) (*RouteResult, error) {
	if len(coords) < 2 {
		return nil, wrapOracle(errors.New("route requires at least 2 coords"))
	}
	if c.apiKey == "" {
		return nil, wrapOracle(errors.New("directions api key not configured"))
	}

	// 两点查询走缓存（精确到小数点后6位）
	cacheKey := ""
	if len(coords) == 2 {
		cacheKey = fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", coords[0].Lat, coords[0].Lng, coords[1].Lat, coords[1].Lng)
		c.cacheMu.RLock()
		if cached, ok := c.cache[cacheKey]; ok {
			c.cacheMu.RUnlock()
			return cached, nil
		}
		c.cacheMu.RUnlock()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, wrapOracle(err)
	}

	result, err := c.fetch(ctx, coords)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		c.cacheMu.Lock()
		c.cache[cacheKey] = result
		// 限制缓存大小（简单策略：超过 100000 条清空）
		if len(c.cache) > 100000 {
			c.cache = make(map[string]*RouteResult)
			c.cache[cacheKey] = result
		}
		c.cacheMu.Unlock()
	}

	return result, nil
}

// fetch 发送 directions 请求并解析响应
func (c *Client) fetch(ctx context.Context, coords []geo.Coord) (*RouteResult, error) {
	params := url.Values{}
	params.Set("origin", formatCoord(coords[0]))
	params.Set("destination", formatCoord(coords[len(coords)-1]))
	if len(coords) > 2 {
		waypoints := make([]string, 0, len(coords)-2)
		for _, coord := range coords[1 : len(coords)-1] {
			waypoints = append(waypoints, formatCoord(coord))
		}
		params.Set("waypoints", strings.Join(waypoints, "|"))
	}
	params.Set("key", c.apiKey)

	apiURL := c.baseURL + "/directions/json?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, wrapOracle(fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, wrapOracle(fmt.Errorf("send request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, wrapOracle(fmt.Errorf("directions api returned status %d", resp.StatusCode))
	}

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, wrapOracle(fmt.Errorf("decode response: %w", err))
	}

	if decoded.Status != "OK" {
		c.logger.Warn("Directions request failed",
			zap.String("status", decoded.Status),
			zap.String("error_message", decoded.ErrorMessage))
		return nil, wrapOracle(fmt.Errorf("directions api error: %s (%s)", decoded.Status, decoded.ErrorMessage))
	}

	if len(decoded.Routes) == 0 {
		return nil, wrapOracle(errors.New("no route in response"))
	}

	route := decoded.Routes[0]
	result := &RouteResult{
		Legs:             make([]LegResult, 0, len(route.Legs)),
		OverviewPolyline: route.OverviewPolyline.Points,
		Bounds: Bounds{
			Northeast: route.Bounds.Northeast,
			Southwest: route.Bounds.Southwest,
		},
	}
	for _, leg := range route.Legs {
		result.Legs = append(result.Legs, LegResult{
			DistanceMeters:  leg.Distance.Value,
			DurationSeconds: leg.Duration.Value,
		})
	}

	if len(result.Legs) != len(coords)-1 {
		return nil, wrapOracle(fmt.Errorf("expected %d legs, got %d", len(coords)-1, len(result.Legs)))
	}

	c.logger.Debug("Route fetched",
		zap.Int("waypoints", len(coords)),
		zap.Int("legs", len(result.Legs)))

	return result, nil
}

// CacheSize 获取缓存大小
func (c *Client) CacheSize() int {
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()
	return len(c.cache)
}

func formatCoord(c geo.Coord) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
