package network

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// 持久化 JSON 结构
// 站点 id 为单次导出内有效的不透明标识，重新导入后会重新分配
type networkJSON struct {
	MinChargersAtStation int       `json:"min_chargers_at_station"`
	EVRange              float64   `json:"ev_range"`
	Graph                graphJSON `json:"graph"`
}

type graphJSON struct {
	ChargeStations map[string]stationJSON `json:"charge_stations"`
	Legs           []legJSON              `json:"legs"`
}

type stationJSON struct {
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Hours    string  `json:"hours"`
	Phone    string  `json:"phone"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	OpenDate *string `json:"open_date"`
}

type legJSON struct {
	EndpointIDs     [2]uint64 `json:"endpoint_ids"`
	DrivingDistance float64   `json:"driving_distance"`
	DrivingTime     float64   `json:"driving_time"`
}

const openDateLayout = "2006-01-02"

// MarshalJSON 序列化网络为持久化 JSON 结构
func (n *Network) MarshalJSON() ([]byte, error) {
	stations := make(map[string]stationJSON, len(n.graph))
	for cs := range n.graph {
		var openDate *string
		if cs.OpenDate != nil {
			s := cs.OpenDate.Format(openDateLayout)
			openDate = &s
		}
		stations[strconv.FormatUint(cs.id, 10)] = stationJSON{
			Name:     cs.Name,
			Address:  cs.Address,
			Hours:    cs.Hours,
			Phone:    cs.Phone,
			Lat:      cs.Lat,
			Lng:      cs.Lng,
			OpenDate: openDate,
		}
	}

	legs := make([]legJSON, 0)
	for _, leg := range n.Legs() {
		legs = append(legs, legJSON{
			EndpointIDs:     [2]uint64{leg.a.id, leg.b.id},
			DrivingDistance: leg.DrivingDistance,
			DrivingTime:     leg.DrivingTime,
		})
	}

	return json.Marshal(networkJSON{
		MinChargersAtStation: n.minChargersAtStation,
		EVRange:              n.evRange,
		Graph: graphJSON{
			ChargeStations: stations,
			Legs:           legs,
		},
	})
}

// UnmarshalJSON 从持久化 JSON 结构还原网络
// 导入后的图与导出前的图字段值一致，id 值可以不同
func (n *Network) UnmarshalJSON(data []byte) error {
	var decoded networkJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("decode network: %w", err)
	}

	n.minChargersAtStation = decoded.MinChargersAtStation
	n.evRange = decoded.EVRange
	n.graph = make(map[*ChargeStation]map[legKey]*Leg, len(decoded.Graph.ChargeStations))

	// 先重建所有站点
	stations := make(map[uint64]*ChargeStation, len(decoded.Graph.ChargeStations))
	for rawID, s := range decoded.Graph.ChargeStations {
		id, err := strconv.ParseUint(rawID, 10, 64)
		if err != nil {
			return fmt.Errorf("parse station id %q: %w", rawID, err)
		}
		var openDate *time.Time
		if s.OpenDate != nil {
			t, err := time.Parse(openDateLayout, *s.OpenDate)
			if err != nil {
				return fmt.Errorf("parse open date %q: %w", *s.OpenDate, err)
			}
			openDate = &t
		}
		cs := NewChargeStation(s.Name, s.Address, s.Hours, s.Phone, s.Lat, s.Lng, openDate)
		stations[id] = cs
		if err := n.AddStation(cs); err != nil {
			return err
		}
	}

	// 再重建所有路段并挂入邻接表
	legs := make([]*Leg, 0, len(decoded.Graph.Legs))
	for _, l := range decoded.Graph.Legs {
		a, ok := stations[l.EndpointIDs[0]]
		if !ok {
			return fmt.Errorf("leg references unknown station id %d", l.EndpointIDs[0])
		}
		b, ok := stations[l.EndpointIDs[1]]
		if !ok {
			return fmt.Errorf("leg references unknown station id %d", l.EndpointIDs[1])
		}
		legs = append(legs, NewResolvedLeg(a, b, l.DrivingDistance, l.DrivingTime))
	}
	n.CommitLegs(legs)

	return nil
}

// ExportFile 将网络导出为 JSON 文件
func (n *Network) ExportFile(filepath string) error {
	data, err := json.MarshalIndent(n, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal network: %w", err)
	}
	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("write network file: %w", err)
	}
	return nil
}

// ImportFile 从 ExportFile 输出的 JSON 文件还原网络
func ImportFile(filepath string) (*Network, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("read network file: %w", err)
	}
	var n Network
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return &n, nil
}
