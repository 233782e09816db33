package network

import (
	"sync/atomic"
	"time"

	"github.com/langchou/evtrip/internal/geo"
)

// stationSeq 进程内单调递增的站点序号，用于身份标识
var stationSeq atomic.Uint64

// ChargeStation 充电站，作为充电网络图中的顶点
// 构造后不可变；相等性基于对象身份而非字段值，
// 因此坐标重复的两个站点仍然是不同的顶点
type ChargeStation struct {
	id uint64 // 身份序号，进程内唯一

	Name     string     `json:"name"`
	Address  string     `json:"address"`
	Hours    string     `json:"hours"`
	Phone    string     `json:"phone"`
	Lat      float64    `json:"lat"`
	Lng      float64    `json:"lng"`
	OpenDate *time.Time `json:"open_date"` // 仅日期部分有意义，可为空
}

// NewChargeStation 创建充电站并分配身份序号
func NewChargeStation(name, address, hours, phone string, lat, lng float64, openDate *time.Time) *ChargeStation {
	return &ChargeStation{
		id:       stationSeq.Add(1),
		Name:     name,
		Address:  address,
		Hours:    hours,
		Phone:    phone,
		Lat:      lat,
		Lng:      lng,
		OpenDate: openDate,
	}
}

// ID 返回站点的身份序号，仅在单次导出文件内有意义
func (cs *ChargeStation) ID() uint64 {
	return cs.id
}

// Coord 返回站点的经纬度坐标
func (cs *ChargeStation) Coord() geo.Coord {
	return geo.Coord{Lat: cs.Lat, Lng: cs.Lng}
}

// DisplayFields 返回用于展示的字段表，空值显示为 not available
func (cs *ChargeStation) DisplayFields() map[string]string {
	result := map[string]string{
		"name":      cs.Name,
		"address":   cs.Address,
		"hours":     cs.Hours,
		"phone":     cs.Phone,
		"open_date": "",
	}
	if cs.OpenDate != nil {
		result["open_date"] = cs.OpenDate.Format("January 2 2006")
	}
	for key, value := range result {
		if value == "" {
			result[key] = "not available"
		}
	}
	return result
}
