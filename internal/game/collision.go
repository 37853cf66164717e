// collision.go

package game

import (
	"math"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// CollisionPhase 碰撞阶段；没有离开事件，上一帧存在而本帧缺失即为离开
type CollisionPhase int

const (
	// CollisionEnter 首次接触
	CollisionEnter CollisionPhase = iota
	// CollisionPersist 持续接触
	CollisionPersist
)

// String 阶段名称
func (p CollisionPhase) String() string {
	if p == CollisionEnter {
		return "enter"
	}
	return "persist"
}

// MarshalText 以名称序列化
func (p CollisionPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// CollisionEvent 发给 Self 的碰撞事件，Overlap 为把 Self 推离 Other 的向量
type CollisionEvent struct {
	Phase   CollisionPhase  `json:"phase"`
	Self    models.EntityID `json:"self"`
	Other   models.EntityID `json:"other"`
	Overlap models.Vector2D `json:"overlap"`
}

// collisionPair 无序实体对，(a, b) 与 (b, a) 相等
type collisionPair struct {
	lo, hi models.EntityID
}

func makePair(a, b models.EntityID) collisionPair {
	if a > b {
		a, b = b, a
	}
	return collisionPair{lo: a, hi: b}
}

// CollisionResolver 窄相位碰撞：分离轴检测、最小穿透修正和进入/持续事件
type CollisionResolver struct {
	index    *SpatialIndex
	previous map[collisionPair]struct{}
	current  map[collisionPair]struct{}
	events   []CollisionEvent
	dynamic  []*models.Entity
}

// NewCollisionResolver 创建解析器
func NewCollisionResolver(width, height int) *CollisionResolver {
	return &CollisionResolver{
		index:    NewSpatialIndex(width, height),
		previous: make(map[collisionPair]struct{}),
		current:  make(map[collisionPair]struct{}),
	}
}

// Index 本帧的空间索引
func (r *CollisionResolver) Index() *SpatialIndex {
	return r.index
}

// Events 最近一次 Resolve 产生的事件
func (r *CollisionResolver) Events() []CollisionEvent {
	return r.events
}

// Resolve 对世界中的动态实体做一次完整的碰撞处理，每个事件按产生顺序交给 handle
func (r *CollisionResolver) Resolve(w *World, handle func(CollisionEvent)) []CollisionEvent {
	r.events = r.events[:0]
	r.collectDynamic(w)

	for _, e := range r.dynamic {
		clampToGrid(e, w.width, w.height)
	}

	r.index.Clear()
	for _, e := range r.dynamic {
		r.index.Insert(e)
	}

	// 动态与动态
	for _, bucket := range r.index.Buckets() {
		for i := 0; i < len(bucket); i++ {
			for j := i + 1; j < len(bucket); j++ {
				if bucket[i] == bucket[j] {
					continue
				}
				if _, seen := r.current[makePair(bucket[i], bucket[j])]; seen {
					continue
				}
				a, b := w.entity(bucket[i]), w.entity(bucket[j])
				if a == nil || b == nil || !a.Active || !b.Active {
					continue
				}
				r.collide(a, b, handle)
			}
		}
	}

	// 动态与静态网格
	for _, e := range r.dynamic {
		if !e.Active {
			continue
		}
		x0, y0, x1, y1, ok := cellRange(e, w.width, w.height)
		if !ok {
			continue
		}
		for i := x0; i <= x1; i++ {
			for j := y0; j <= y1; j++ {
				wall := w.WallAt(i, j)
				if wall == nil || !wall.Active || !e.Active {
					continue
				}
				r.collide(e, &wall.Entity, handle)
			}
		}
	}

	r.previous, r.current = r.current, r.previous
	clear(r.current)
	return r.events
}

// collectDynamic 玩家按槽位，移动墙体按ID升序
func (r *CollisionResolver) collectDynamic(w *World) {
	r.dynamic = r.dynamic[:0]
	for _, p := range w.players {
		r.dynamic = append(r.dynamic, &p.Entity)
	}
	for _, id := range w.moving {
		if wall, ok := w.walls[id]; ok {
			r.dynamic = append(r.dynamic, &wall.Entity)
		}
	}
}

// collide 检测并处理一对实体
func (r *CollisionResolver) collide(a, b *models.Entity, handle func(CollisionEvent)) {
	pushX, overlapsX := intersect(a.Position.X, a.Position.X+a.Size.X, b.Position.X, b.Position.X+b.Size.X)
	if !overlapsX {
		return
	}
	pushY, overlapsY := intersect(a.Position.Y, a.Position.Y+a.Size.Y, b.Position.Y, b.Position.Y+b.Size.Y)
	if !overlapsY {
		return
	}

	overlap := models.Vector2D{X: pushX, Y: pushY}

	aMoves, bMoves := a.Dynamic, b.Dynamic
	if aMoves && bMoves && a.Kind != b.Kind {
		// 移动中的墙推开玩家，自身不后退
		aMoves = a.Kind != models.KindWall
		bMoves = b.Kind != models.KindWall
	}
	share := 1.0
	if aMoves && bMoves {
		share = 0.5
	}
	correction := leastPenetration(overlap).Scale(share)
	if aMoves {
		a.Position = a.Position.Add(correction)
	}
	if bMoves {
		b.Position = b.Position.Sub(correction)
	}

	pair := makePair(a.ID, b.ID)
	phase := CollisionEnter
	if _, ok := r.previous[pair]; ok {
		phase = CollisionPersist
	}
	r.current[pair] = struct{}{}

	first := CollisionEvent{Phase: phase, Self: a.ID, Other: b.ID, Overlap: overlap}
	second := CollisionEvent{Phase: phase, Self: b.ID, Other: a.ID, Overlap: overlap.Neg()}
	r.events = append(r.events, first, second)
	if handle != nil {
		handle(first)
		handle(second)
	}
}

// intersect 一维区间相交，返回把 a 推离 b 的有符号距离；仅边界接触不算相交
func intersect(a1, a2, b1, b2 float64) (float64, bool) {
	dir := -1.0
	if a1 > b1 {
		a1, b1 = b1, a1
		a2, b2 = b2, a2
		dir = 1
	}
	if a2 > b1 {
		return (a2 - b1) * dir, true
	}
	return 0, false
}

// leastPenetration 只保留穿透较小的轴，相等时两轴都保留
func leastPenetration(overlap models.Vector2D) models.Vector2D {
	ax, ay := math.Abs(overlap.X), math.Abs(overlap.Y)
	switch {
	case ax < ay:
		return models.Vector2D{X: overlap.X}
	case ax > ay:
		return models.Vector2D{Y: overlap.Y}
	default:
		return overlap
	}
}

// clampToGrid 保证实体完整地留在网格内
func clampToGrid(e *models.Entity, width, height int) {
	if e.Position.X < 0 {
		e.Position.X = 0
	} else if e.Position.X+e.Size.X > float64(width) {
		e.Position.X = float64(width) - e.Size.X
	}
	if e.Position.Y < 0 {
		e.Position.Y = 0
	} else if e.Position.Y+e.Size.Y > float64(height) {
		e.Position.Y = float64(height) - e.Size.Y
	}
}
