// wall.go

package game

import (
	"math"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// WallState 墙体状态
type WallState int

const (
	// WallRising 升起中
	WallRising WallState = iota
	// WallFalling 倒塌中
	WallFalling
	// WallMoving 作为投射物移动中
	WallMoving
	// WallStatic 完整且静止
	WallStatic
)

// String 状态名称
func (s WallState) String() string {
	switch s {
	case WallRising:
		return "rising"
	case WallFalling:
		return "falling"
	case WallMoving:
		return "moving"
	case WallStatic:
		return "static"
	default:
		return "unknown"
	}
}

// MarshalText 以名称序列化
func (s WallState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// WallEvent 墙体更新产生的事件，由 World 处理
type WallEvent int

const (
	// WallEventNone 无事件
	WallEventNone WallEvent = iota
	// WallEventCompleted 升起完成
	WallEventCompleted
	// WallEventDied 强度耗尽或倒塌结束
	WallEventDied
	// WallEventArrived 移动到达目标
	WallEventArrived
)

const (
	// arriveThreshold 到达判定距离
	arriveThreshold = 0.01

	// ramAlignment 撞击嵌入所需的方向一致度
	ramAlignment = 0.8
)

// Wall 墙体
type Wall struct {
	models.Entity

	State      WallState
	Owner      int
	Strength   int
	Projectile bool

	// 移动中有效
	TargetX, TargetY int
	Direction        models.Vector2D

	timer    Timer
	riseTime float64
	fallTime float64
	speed    float64
	embed    bool
}

func newWall(id models.EntityID, x, y, owner int, projectile bool, clock *Clock, rules *config.GameConfig) *Wall {
	return &Wall{
		Entity: models.Entity{
			ID:         id,
			Kind:       models.KindWall,
			Active:     true,
			Collidable: true,
			Position:   models.Vector2D{X: float64(x), Y: float64(y)},
			Size:       models.Vector2D{X: 1, Y: 1},
		},
		State:      WallRising,
		Owner:      owner,
		Strength:   rules.WallStrength,
		Projectile: projectile,
		timer:      NewTimer(clock, rules.WallRiseTime),
		riseTime:   rules.WallRiseTime,
		fallTime:   rules.WallFallTime,
		speed:      rules.WallMoveSpeed,
	}
}

// Cell 墙体所在格子
func (w *Wall) Cell() (int, int) {
	return int(math.Floor(w.Position.X)), int(math.Floor(w.Position.Y))
}

// Height 建造高度，范围 [0, 1]
func (w *Wall) Height() float64 {
	switch w.State {
	case WallRising:
		return w.timer.QuadraticProgress()
	case WallFalling:
		return 1 - w.timer.QuadraticProgress()
	default:
		return 1
	}
}

// IsComplete 已完成升起（静止或移动中）
func (w *Wall) IsComplete() bool {
	return w.State != WallRising && w.State != WallFalling
}

// BeginRising 倒塌中恢复升起
func (w *Wall) BeginRising() {
	if w.State != WallFalling {
		return
	}
	w.timer.SetDuration(math.Max(0, w.riseTime-w.timer.Elapsed()))
	w.State = WallRising
}

// BeginFalling 升起中转为倒塌，已完成的墙不受影响
func (w *Wall) BeginFalling() {
	if w.State != WallRising {
		return
	}
	w.timer.SetDuration(math.Max(0, w.fallTime-w.timer.Elapsed()))
	w.State = WallFalling
}

// TakeDamage 受到伤害，强度归零立即死亡
func (w *Wall) TakeDamage(damage int) {
	w.Strength -= damage
	if w.Strength <= 0 {
		w.Die()
	}
}

// Die 标记死亡，由 World 在本帧或下一帧移除
func (w *Wall) Die() {
	w.Active = false
	w.Strength = 0
}

// beginMove 开始向目标格移动，调用前墙体已从网格取下
func (w *Wall) beginMove(tx, ty int) {
	w.TargetX, w.TargetY = tx, ty
	target := models.Vector2D{X: float64(tx), Y: float64(ty)}
	w.Direction = target.Sub(w.Position).Normalize()
	w.State = WallMoving
	w.Dynamic = true
	w.embed = false
}

// settle 停在指定格子并恢复静止
func (w *Wall) settle(x, y int) {
	w.Position = models.Vector2D{X: float64(x), Y: float64(y)}
	w.State = WallStatic
	w.Dynamic = false
	w.embed = false
}

// rams 判断撞上的另一面墙是否位于行进方向上
func (w *Wall) rams(other *models.Entity) bool {
	if w.State != WallMoving {
		return false
	}
	toOther := other.Center().Sub(w.Center()).Normalize()
	return toOther.Dot(w.Direction) > ramAlignment
}

// Update 推进状态机
func (w *Wall) Update(dt float64) WallEvent {
	if !w.Active {
		return WallEventDied
	}

	switch w.State {
	case WallRising:
		if w.timer.Expired() {
			w.State = WallStatic
			return WallEventCompleted
		}
	case WallFalling:
		if w.timer.Expired() {
			w.Die()
			return WallEventDied
		}
	case WallMoving:
		w.Position = w.Position.Add(w.Direction.Scale(w.speed * dt))
		target := models.Vector2D{X: float64(w.TargetX), Y: float64(w.TargetY)}
		remaining := target.Sub(w.Position)
		if remaining.Length() < arriveThreshold || remaining.Dot(w.Direction) <= 0 {
			w.Position = target
			return WallEventArrived
		}
	}
	return WallEventNone
}
