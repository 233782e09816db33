package network

// Leg 连接两个不同充电站的行驶路段，作为图中的边
// 端点是无序对：端点相同的两个 Leg 视为同一条边，与距离值无关
// 生命周期：以未解析状态创建（距离为 0 且 Resolved 为 false），
// 经路线服务补全一次后不再修改
type Leg struct {
	a, b *ChargeStation

	// DrivingDistance 端点间道路距离（米）
	DrivingDistance float64
	// DrivingTime 端点间行驶耗时（秒）
	DrivingTime float64
	// Resolved 是否已由路线服务补全距离与耗时
	Resolved bool
}

// legKey 无序端点对的规范化键，用于去重
type legKey struct {
	lo, hi uint64
}

// NewLeg 创建未解析的路段，两个端点必须是不同的站点
func NewLeg(cs1, cs2 *ChargeStation) *Leg {
	return &Leg{a: cs1, b: cs2}
}

// NewResolvedLeg 创建已补全距离与耗时的路段
func NewResolvedLeg(cs1, cs2 *ChargeStation, drivingDistance, drivingTime float64) *Leg {
	return &Leg{a: cs1, b: cs2, DrivingDistance: drivingDistance, DrivingTime: drivingTime, Resolved: true}
}

// Endpoints 返回路段的两个端点
func (l *Leg) Endpoints() (*ChargeStation, *ChargeStation) {
	return l.a, l.b
}

// OtherEndpoint 返回不是给定站点的那个端点
func (l *Leg) OtherEndpoint(cs *ChargeStation) *ChargeStation {
	if cs == l.a {
		return l.b
	}
	return l.a
}

// HasEndpoint 检查给定站点是否为该路段的端点
func (l *Leg) HasEndpoint(cs *ChargeStation) bool {
	return cs == l.a || cs == l.b
}

// key 返回与端点顺序无关的规范化键
func (l *Leg) key() legKey {
	if l.a.id < l.b.id {
		return legKey{lo: l.a.id, hi: l.b.id}
	}
	return legKey{lo: l.b.id, hi: l.a.id}
}

// SameEndpoints 判断两个路段是否连接同一对站点
func (l *Leg) SameEndpoints(other *Leg) bool {
	return l.key() == other.key()
}

// Resolve 由路线服务补全距离与耗时，只允许调用一次
func (l *Leg) Resolve(drivingDistance, drivingTime float64) {
	l.DrivingDistance = drivingDistance
	l.DrivingTime = drivingTime
	l.Resolved = true
}
