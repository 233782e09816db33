package handlers

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/repository"
)

const httpClientTimeout = 10 * time.Second

// PlaceAutocomplete 地点自动补全代理
// GET /api/places/autocomplete
// 校验会话令牌并执行每日配额限制，再转发给上游地点服务
func (h *Handler) PlaceAutocomplete(c *gin.Context) {
	input := c.Query("input")
	components := c.Query("components")
	language := c.Query("language")
	token := c.Query("sessiontoken")

	if input == "" {
		c.JSON(http.StatusOK, gin.H{
			"predictions":   []string{},
			"status":        "INVALID_REQUEST",
			"error_message": `Missing "input" for this API wrapper.`,
		})
		return
	}
	if components != "country:us|country:ca" || language != "en" || token == "" {
		c.JSON(http.StatusOK, gin.H{
			"predictions":   []string{},
			"status":        "REQUEST_DENIED",
			"error_message": `Unexpected or missing "components", "language", or "sessiontoken" for this API wrapper.`,
		})
		return
	}

	if !h.gateQuota(c, token, repository.RequestTypeAutocomplete, "predictions") {
		return
	}

	h.proxyPlaces(c, "/autocomplete/json")
}

// PlaceDetails 地点详情代理
// GET /api/places/details
// 一次 details 请求即结束对应的自动补全会话
func (h *Handler) PlaceDetails(c *gin.Context) {
	placeID := c.Query("place_id")
	fields := c.Query("fields")
	language := c.Query("language")
	token := c.Query("sessiontoken")

	if placeID == "" {
		c.JSON(http.StatusOK, gin.H{
			"html_attributions": []string{},
			"status":            "INVALID_REQUEST",
			"error_message":     `Missing "place_id" for this API wrapper.`,
		})
		return
	}
	if fields != "geometry" || language != "en" || token == "" {
		c.JSON(http.StatusOK, gin.H{
			"html_attributions": []string{},
			"status":            "REQUEST_DENIED",
			"error_message":     `Unexpected or missing "fields", "language", or "sessiontoken" for this API wrapper.`,
		})
		return
	}

	if !h.gateQuota(c, token, repository.RequestTypeDetails, "html_attributions") {
		return
	}

	h.proxyPlaces(c, "/details/json")
}

// gateQuota 校验令牌配额并记录本次请求，拒绝时返回 false 并写出响应
func (h *Handler) gateQuota(c *gin.Context, token, requestType, emptyField string) bool {
	ok, err := h.quotaRepo.CanMakeRequest(c.Request.Context(), token)
	if err != nil {
		h.logger.Error("Failed to check places quota", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			emptyField:      []string{},
			"status":        "UNKNOWN_ERROR",
			"error_message": "This API wrapper has encountered an unknown error.",
		})
		return false
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{
			emptyField:      []string{},
			"status":        "REQUEST_DENIED",
			"error_message": "You have either given an invalid token or exceeded the rate-limit for this API wrapper.",
		})
		return false
	}

	if err := h.quotaRepo.InsertRequest(c.Request.Context(), token, requestType); err != nil {
		h.logger.Error("Failed to record places request", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{
			emptyField:      []string{},
			"status":        "UNKNOWN_ERROR",
			"error_message": "This API wrapper has encountered an unknown error.",
		})
		return false
	}
	return true
}

// proxyPlaces 把查询参数原样转发给上游地点服务，追加服务端密钥
func (h *Handler) proxyPlaces(c *gin.Context, path string) {
	query, err := url.ParseQuery(c.Request.URL.RawQuery)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query string"})
		return
	}
	query.Set("key", h.cfg.PlacesAPIKey)

	upstreamURL := h.cfg.PlacesAPIURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		h.logger.Error("Failed to build places request", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reach places service"})
		return
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Error("Places request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach places service"})
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		h.logger.Error("Failed to read places response", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to reach places service"})
		return
	}

	c.Data(resp.StatusCode, "application/json", body)
}
