package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetNetwork 获取整张充电网络（含站点与路段）
// GET /api/network
func (h *Handler) GetNetwork(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.net})
}

// ListStations 获取站点列表（展示字段）
// GET /api/network/stations
func (h *Handler) ListStations(c *gin.Context) {
	stations := h.net.Stations()
	data := make([]map[string]string, len(stations))
	for i, cs := range stations {
		data[i] = cs.DisplayFields()
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "count": len(data)})
}
