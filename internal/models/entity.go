// entity.go

package models

import (
	"fmt"
	"math"
)

// Vector2D 二维向量
type Vector2D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add 向量相加
func (v Vector2D) Add(o Vector2D) Vector2D {
	return Vector2D{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub 向量相减
func (v Vector2D) Sub(o Vector2D) Vector2D {
	return Vector2D{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale 数乘
func (v Vector2D) Scale(s float64) Vector2D {
	return Vector2D{X: v.X * s, Y: v.Y * s}
}

// Neg 取反
func (v Vector2D) Neg() Vector2D {
	return Vector2D{X: -v.X, Y: -v.Y}
}

// Dot 点积
func (v Vector2D) Dot(o Vector2D) float64 {
	return v.X*o.X + v.Y*o.Y
}

// Length 长度
func (v Vector2D) Length() float64 {
	return math.Hypot(v.X, v.Y)
}

// Normalize 归一化，零向量保持不变
func (v Vector2D) Normalize() Vector2D {
	l := v.Length()
	if l == 0 {
		return v
	}
	return Vector2D{X: v.X / l, Y: v.Y / l}
}

// EntityID 实体ID，销毁后回收复用
type EntityID int

// NilEntityID 空实体ID，表示不存在的引用
const NilEntityID EntityID = 0

// IsNil 是否为空ID
func (id EntityID) IsNil() bool {
	return id == NilEntityID
}

// String 日志用字符串
func (id EntityID) String() string {
	if id.IsNil() {
		return "<nil>"
	}
	return fmt.Sprintf("#%d", int(id))
}

// EntityKind 实体种类，封闭集合
type EntityKind int

const (
	// KindPlayer 玩家
	KindPlayer EntityKind = iota
	// KindWall 墙体
	KindWall
)

// String 种类名称
func (k EntityKind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindWall:
		return "wall"
	default:
		return "unknown"
	}
}

// Direction 网格方向，顺序为逆时针
type Direction int

const (
	// DirRight +x
	DirRight Direction = iota
	// DirUp +y
	DirUp
	// DirLeft -x
	DirLeft
	// DirDown -y
	DirDown
)

// Offset 方向对应的单位格偏移
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case DirRight:
		return 1, 0
	case DirUp:
		return 0, 1
	case DirLeft:
		return -1, 0
	case DirDown:
		return 0, -1
	}
	return 0, 0
}

// Vector 方向的单位向量
func (d Direction) Vector() Vector2D {
	dx, dy := d.Offset()
	return Vector2D{X: float64(dx), Y: float64(dy)}
}

// String 方向名称
func (d Direction) String() string {
	switch d {
	case DirRight:
		return "right"
	case DirUp:
		return "up"
	case DirLeft:
		return "left"
	case DirDown:
		return "down"
	default:
		return "none"
	}
}

// MarshalText 以名称序列化
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Entity 模拟实体的公共部分
type Entity struct {
	ID         EntityID   `json:"id"`
	Kind       EntityKind `json:"kind"`
	Active     bool       `json:"active"`
	Collidable bool       `json:"collidable"`
	Dynamic    bool       `json:"dynamic"`
	Trigger    bool       `json:"trigger"` // 保留，未使用
	Position   Vector2D   `json:"position"`
	Size       Vector2D   `json:"size"`
}

// Center 包围盒中心
func (e *Entity) Center() Vector2D {
	return Vector2D{X: e.Position.X + e.Size.X/2, Y: e.Position.Y + e.Size.Y/2}
}

// Area 包围盒面积
func (e *Entity) Area() float64 {
	return e.Size.X * e.Size.Y
}
