// Package builder 实现建网流水线：
// 载入站点 → 聚类收敛 → 质心建图 → 生成候选路段 → 确认后批量调用路线服务 →
// 载入合法路段 → 导出网络 JSON
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/langchou/evtrip/internal/api/routing"
	"github.com/langchou/evtrip/internal/cluster"
	"github.com/langchou/evtrip/internal/geo"
	"github.com/langchou/evtrip/internal/network"
	"github.com/langchou/evtrip/pkg/ws"
)

// 建网状态常量
const (
	StateIdle            = "idle"
	StateLoaded          = "loaded"
	StateClustered       = "clustered"
	StateAwaitingConfirm = "awaiting_confirm"
	StateResolving       = "resolving"
	StateReady           = "ready"
)

// 事件常量
const (
	EventLoad    = "load"
	EventCluster = "cluster"
	EventPropose = "propose"
	EventConfirm = "confirm"
	EventFinish  = "finish"
)

// ErrBuildAborted 确认回调拒绝了批量路线调用
var ErrBuildAborted = errors.New("builder: bulk routing batch rejected by confirmation gate")

// ConfirmFunc 批量外部调用前的确认门：返回 false 则中止建网
// 批量调用可能规模很大且计费，必须经过显式确认
type ConfirmFunc func(pendingCalls int) bool

// Progress 建网进度快照
type Progress struct {
	State         string `json:"state"`
	FullStations  int    `json:"full_stations"`
	Centroids     int    `json:"centroids"`
	CandidateLegs int    `json:"candidate_legs"`
	ResolvedLegs  int    `json:"resolved_legs"`
	FailedLegs    int    `json:"failed_legs"`
	CommittedLegs int    `json:"committed_legs"`
}

// Builder 建网流水线
// 单线程使用；进度快照可并发读取
type Builder struct {
	minChargers     int
	evRangeMeters   float64
	clusterDiameter float64 // 米

	oracle  routing.Oracle
	confirm ConfirmFunc
	logger  *zap.Logger
	hub     *ws.Hub // 可为 nil

	machine *fsm.FSM

	mu         sync.RWMutex
	progress   Progress
	fullNet    *network.Network
	simplified *network.Network
	candidates []*network.Leg
}

// New 创建建网流水线
// evRangeMeters 与 clusterDiameterMeters 单位均为米
func New(minChargers int, evRangeMeters, clusterDiameterMeters float64,
	oracle routing.Oracle, confirm ConfirmFunc, logger *zap.Logger, hub *ws.Hub) *Builder {

	b := &Builder{
		minChargers:     minChargers,
		evRangeMeters:   evRangeMeters,
		clusterDiameter: clusterDiameterMeters,
		oracle:          oracle,
		confirm:         confirm,
		logger:          logger,
		hub:             hub,
		progress:        Progress{State: StateIdle},
	}

	b.machine = fsm.NewFSM(
		StateIdle,
		fsm.Events{
			{Name: EventLoad, Src: []string{StateIdle}, Dst: StateLoaded},
			{Name: EventCluster, Src: []string{StateLoaded}, Dst: StateClustered},
			{Name: EventPropose, Src: []string{StateClustered}, Dst: StateAwaitingConfirm},
			{Name: EventConfirm, Src: []string{StateAwaitingConfirm}, Dst: StateResolving},
			{Name: EventFinish, Src: []string{StateResolving}, Dst: StateReady},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				b.broadcastProgress(e.Dst)
			},
		},
	)

	return b
}

// State 返回当前建网状态
func (b *Builder) State() string {
	return b.machine.Current()
}

// Snapshot 返回当前进度快照
func (b *Builder) Snapshot() Progress {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.progress
}

// FullNetwork 返回未聚类的完整网络（仅载入站点，无路段）
func (b *Builder) FullNetwork() *network.Network {
	return b.fullNet
}

// Network 返回建成的质心网络
func (b *Builder) Network() *network.Network {
	return b.simplified
}

// trigger 触发状态机事件
func (b *Builder) trigger(event string) error {
	if err := b.machine.Event(context.Background(), event); err != nil {
		return fmt.Errorf("builder event %s: %w", event, err)
	}
	return nil
}

// broadcastProgress 更新并广播进度快照
func (b *Builder) broadcastProgress(state string) {
	b.mu.Lock()
	b.progress.State = state
	snapshot := b.progress
	b.mu.Unlock()

	if b.hub != nil {
		b.hub.BroadcastProgress(snapshot)
	}
}

// Load 把已解析的充电站集合载入完整网络
// populate 负责向给定的空网络添加站点（通常来自 dataset.LoadStations）
func (b *Builder) Load(populate func(*network.Network) error) error {
	net := network.New(b.minChargers, b.evRangeMeters)
	if err := populate(net); err != nil {
		return fmt.Errorf("populate network: %w", err)
	}

	b.fullNet = net
	b.mu.Lock()
	b.progress.FullStations = net.StationCount()
	b.mu.Unlock()

	b.logger.Info("Full network loaded", zap.Int("stations", net.StationCount()))
	return b.trigger(EventLoad)
}

// Cluster 对完整网络聚类，用叶子簇质心构建简化网络
func (b *Builder) Cluster() error {
	tree := cluster.New(b.fullNet.Stations(), b.clusterDiameter)
	centroids := tree.Centroids()

	simplified := network.New(b.minChargers, b.evRangeMeters)
	for _, cs := range centroids {
		if err := simplified.AddStation(cs); err != nil {
			return fmt.Errorf("add centroid: %w", err)
		}
	}

	b.simplified = simplified
	b.mu.Lock()
	b.progress.Centroids = len(centroids)
	b.mu.Unlock()

	b.logger.Info("Network clustered",
		zap.Int("full_stations", b.fullNet.StationCount()),
		zap.Int("centroids", len(centroids)))
	return b.trigger(EventCluster)
}

// Propose 生成候选路段并进入待确认状态
func (b *Builder) Propose() error {
	b.candidates = b.simplified.CandidateLegs()
	b.mu.Lock()
	b.progress.CandidateLegs = len(b.candidates)
	b.mu.Unlock()

	b.logger.Info("Candidate legs generated", zap.Int("count", len(b.candidates)))
	return b.trigger(EventPropose)
}

// Resolve 经确认门放行后，逐条调用路线服务补全候选路段并载入网络
// 单条失败的路段被丢弃（不重试），最终汇总成功与失败数量
func (b *Builder) Resolve(ctx context.Context) error {
	if b.confirm == nil || !b.confirm(len(b.candidates)) {
		return ErrBuildAborted
	}
	if err := b.trigger(EventConfirm); err != nil {
		return err
	}

	resolved := 0
	failed := 0
	for i, leg := range b.candidates {
		a, bEnd := leg.Endpoints()
		result, err := b.oracle.Route(ctx, []geo.Coord{a.Coord(), bEnd.Coord()})
		if err != nil {
			failed++
			b.logger.Warn("Dropping candidate leg",
				zap.Float64("from_lat", a.Lat), zap.Float64("from_lng", a.Lng),
				zap.Float64("to_lat", bEnd.Lat), zap.Float64("to_lng", bEnd.Lng),
				zap.Error(err))
			continue
		}

		leg.Resolve(result.Legs[0].DistanceMeters, result.Legs[0].DurationSeconds)
		resolved++

		if (i+1)%100 == 0 {
			b.mu.Lock()
			b.progress.ResolvedLegs = resolved
			b.progress.FailedLegs = failed
			b.mu.Unlock()
			b.broadcastProgress(StateResolving)
		}
	}

	committed := b.simplified.CommitLegs(b.candidates)

	b.mu.Lock()
	b.progress.ResolvedLegs = resolved
	b.progress.FailedLegs = failed
	b.progress.CommittedLegs = committed
	b.mu.Unlock()

	b.logger.Info("Candidate legs resolved",
		zap.Int("resolved", resolved),
		zap.Int("failed", failed),
		zap.Int("committed", committed))
	return b.trigger(EventFinish)
}

// Export 把建成的网络导出为 JSON 文件
func (b *Builder) Export(filepath string) error {
	if b.machine.Current() != StateReady {
		return fmt.Errorf("builder: cannot export in state %s", b.machine.Current())
	}
	b.logger.Info("Exporting network",
		zap.Int("stations", b.simplified.StationCount()),
		zap.Int("legs", len(b.simplified.Legs())),
		zap.String("file", filepath))
	return b.simplified.ExportFile(filepath)
}
