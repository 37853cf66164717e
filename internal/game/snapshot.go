// snapshot.go

package game

import (
	"errors"
	"math"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"google.golang.org/protobuf/encoding/protowire"
)

// WallView 墙体的只读视图
type WallView struct {
	ID         models.EntityID `json:"id"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	Height     float64         `json:"height"`
	Strength   int             `json:"strength"`
	Owner      int             `json:"owner"`
	State      WallState       `json:"state"`
	Projectile bool            `json:"projectile"`
}

// PlayerView 玩家的只读视图
type PlayerView struct {
	ID         models.EntityID    `json:"id"`
	Slot       int                `json:"slot"`
	Name       string             `json:"name"`
	X          float64            `json:"x"`
	Y          float64            `json:"y"`
	Stock      int                `json:"stock"`
	State      PlayerState        `json:"state"`
	Facing     models.Direction   `json:"facing"`
	SelectionX int                `json:"selection_x"`
	SelectionY int                `json:"selection_y"`
	Active     bool               `json:"active"`
	Stats      models.PlayerStats `json:"stats"`
}

// Snapshot 一帧的完整画面，供观战端渲染
type Snapshot struct {
	RoomID  string           `json:"room_id"`
	Tick    int64            `json:"tick"`
	Time    float64          `json:"time"`
	Width   int              `json:"width"`
	Height  int              `json:"height"`
	Walls   []WallView       `json:"walls"`
	Players []PlayerView     `json:"players"`
	Events  []CollisionEvent `json:"events,omitempty"`
	Outcome Outcome          `json:"outcome"`
}

// TakeSnapshot 读取模拟的当前状态；静止墙按列优先排列，移动墙随后按ID排列
func TakeSnapshot(roomID string, s *Simulation, names []string, outcome Outcome) Snapshot {
	w := s.World()
	snap := Snapshot{
		RoomID:  roomID,
		Tick:    s.Tick(),
		Time:    s.Clock().Now(),
		Width:   w.Width(),
		Height:  w.Height(),
		Walls:   make([]WallView, 0, w.WallCount()),
		Players: make([]PlayerView, 0, len(s.Players())),
		Events:  append([]CollisionEvent(nil), s.Events()...),
		Outcome: outcome,
	}

	for i := 0; i < w.Width(); i++ {
		for j := 0; j < w.Height(); j++ {
			if wall := w.WallAt(i, j); wall != nil {
				snap.Walls = append(snap.Walls, viewWall(wall))
			}
		}
	}
	for _, id := range w.MovingWalls() {
		if wall := w.Wall(id); wall != nil {
			snap.Walls = append(snap.Walls, viewWall(wall))
		}
	}

	for _, p := range s.Players() {
		name := ""
		if p.Slot < len(names) {
			name = names[p.Slot]
		}
		snap.Players = append(snap.Players, PlayerView{
			ID:         p.ID,
			Slot:       p.Slot,
			Name:       name,
			X:          p.Position.X,
			Y:          p.Position.Y,
			Stock:      p.Stock,
			State:      p.State,
			Facing:     p.Facing,
			SelectionX: p.SelectionX,
			SelectionY: p.SelectionY,
			Active:     p.Active,
			Stats:      w.Stats(p.Slot),
		})
	}
	return snap
}

func viewWall(wall *Wall) WallView {
	return WallView{
		ID:         wall.ID,
		X:          wall.Position.X,
		Y:          wall.Position.Y,
		Height:     wall.Height(),
		Strength:   wall.Strength,
		Owner:      wall.Owner,
		State:      wall.State,
		Projectile: wall.Projectile,
	}
}

// 二进制帧字段号
const (
	snapRoomID protowire.Number = 1
	snapTick   protowire.Number = 2
	snapTime   protowire.Number = 3
	snapWidth  protowire.Number = 4
	snapHeight protowire.Number = 5
	snapWall   protowire.Number = 6
	snapPlayer protowire.Number = 7
	snapEvent  protowire.Number = 8
	snapOver   protowire.Number = 9
	snapWinner protowire.Number = 10
	snapReason protowire.Number = 11
)

// MarshalBinary 以 protobuf 线格式编码
func (s Snapshot) MarshalBinary() ([]byte, error) {
	var b []byte
	b = appendString(b, snapRoomID, s.RoomID)
	b = appendVarint(b, snapTick, uint64(s.Tick))
	b = appendDouble(b, snapTime, s.Time)
	b = appendVarint(b, snapWidth, uint64(s.Width))
	b = appendVarint(b, snapHeight, uint64(s.Height))
	for _, w := range s.Walls {
		b = appendMessage(b, snapWall, encodeWall(w))
	}
	for _, p := range s.Players {
		b = appendMessage(b, snapPlayer, encodePlayer(p))
	}
	for _, e := range s.Events {
		b = appendMessage(b, snapEvent, encodeEvent(e))
	}
	b = appendBool(b, snapOver, s.Outcome.Over)
	b = appendSint(b, snapWinner, int64(s.Outcome.Winner))
	b = appendString(b, snapReason, s.Outcome.Reason)
	return b, nil
}

func encodeWall(w WallView) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(w.ID))
	b = appendDouble(b, 2, w.X)
	b = appendDouble(b, 3, w.Y)
	b = appendDouble(b, 4, w.Height)
	b = appendSint(b, 5, int64(w.Strength))
	b = appendSint(b, 6, int64(w.Owner))
	b = appendVarint(b, 7, uint64(w.State))
	b = appendBool(b, 8, w.Projectile)
	return b
}

func encodePlayer(p PlayerView) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(p.ID))
	b = appendSint(b, 2, int64(p.Slot))
	b = appendString(b, 3, p.Name)
	b = appendDouble(b, 4, p.X)
	b = appendDouble(b, 5, p.Y)
	b = appendSint(b, 6, int64(p.Stock))
	b = appendVarint(b, 7, uint64(p.State))
	b = appendVarint(b, 8, uint64(p.Facing))
	b = appendSint(b, 9, int64(p.SelectionX))
	b = appendSint(b, 10, int64(p.SelectionY))
	b = appendBool(b, 11, p.Active)
	b = appendSint(b, 12, int64(p.Stats.Territory))
	b = appendSint(b, 13, int64(p.Stats.Kills))
	b = appendSint(b, 14, int64(p.Stats.Deaths))
	return b
}

func encodeEvent(e CollisionEvent) []byte {
	var b []byte
	b = appendVarint(b, 1, uint64(e.Phase))
	b = appendVarint(b, 2, uint64(e.Self))
	b = appendVarint(b, 3, uint64(e.Other))
	b = appendDouble(b, 4, e.Overlap.X)
	b = appendDouble(b, 5, e.Overlap.Y)
	return b
}

// 零值字段按 proto3 习惯省略

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

func appendSint(b []byte, num protowire.Number, v int64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeZigZag(v))
}

func appendBool(b []byte, num protowire.Number, v bool) []byte {
	if !v {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, protowire.EncodeBool(v))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendMessage(b []byte, num protowire.Number, msg []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, msg)
}

// errMalformedFrame 二进制帧无法解析
var errMalformedFrame = errors.New("二进制帧格式错误")

// fieldFunc 处理一个字段，返回消耗的字节数，负数表示错误
type fieldFunc func(num protowire.Number, typ protowire.Type, b []byte) int

// walkFields 逐字段遍历消息
func walkFields(b []byte, fn fieldFunc) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m := fn(num, typ, b)
		if m < 0 {
			return errMalformedFrame
		}
		b = b[m:]
	}
	return nil
}

// fieldValue 单个标量字段的原始值
type fieldValue struct {
	u     uint64
	bytes []byte
}

func consumeValue(typ protowire.Type, b []byte) (fieldValue, int) {
	switch typ {
	case protowire.VarintType:
		v, n := protowire.ConsumeVarint(b)
		return fieldValue{u: v}, n
	case protowire.Fixed64Type:
		v, n := protowire.ConsumeFixed64(b)
		return fieldValue{u: v}, n
	case protowire.BytesType:
		v, n := protowire.ConsumeBytes(b)
		return fieldValue{bytes: v}, n
	}
	return fieldValue{}, -1
}

func (v fieldValue) sint() int { return int(protowire.DecodeZigZag(v.u)) }
func (v fieldValue) double() float64 { return math.Float64frombits(v.u) }

// DecodeSnapshot 解析 MarshalBinary 的输出
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	var nested error
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		v, n := consumeValue(typ, b)
		if n < 0 {
			return n
		}
		switch num {
		case snapRoomID:
			snap.RoomID = string(v.bytes)
		case snapTick:
			snap.Tick = int64(v.u)
		case snapTime:
			snap.Time = v.double()
		case snapWidth:
			snap.Width = int(v.u)
		case snapHeight:
			snap.Height = int(v.u)
		case snapWall:
			w, err := decodeWall(v.bytes)
			if err != nil {
				nested = err
				return -1
			}
			snap.Walls = append(snap.Walls, w)
		case snapPlayer:
			p, err := decodePlayer(v.bytes)
			if err != nil {
				nested = err
				return -1
			}
			snap.Players = append(snap.Players, p)
		case snapEvent:
			e, err := decodeEvent(v.bytes)
			if err != nil {
				nested = err
				return -1
			}
			snap.Events = append(snap.Events, e)
		case snapOver:
			snap.Outcome.Over = protowire.DecodeBool(v.u)
		case snapWinner:
			snap.Outcome.Winner = v.sint()
		case snapReason:
			snap.Outcome.Reason = string(v.bytes)
		}
		return n
	})
	if nested != nil {
		return Snapshot{}, nested
	}
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func decodeWall(data []byte) (WallView, error) {
	var w WallView
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		v, n := consumeValue(typ, b)
		if n < 0 {
			return n
		}
		switch num {
		case 1:
			w.ID = models.EntityID(v.u)
		case 2:
			w.X = v.double()
		case 3:
			w.Y = v.double()
		case 4:
			w.Height = v.double()
		case 5:
			w.Strength = v.sint()
		case 6:
			w.Owner = v.sint()
		case 7:
			w.State = WallState(v.u)
		case 8:
			w.Projectile = protowire.DecodeBool(v.u)
		}
		return n
	})
	return w, err
}

func decodePlayer(data []byte) (PlayerView, error) {
	var p PlayerView
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		v, n := consumeValue(typ, b)
		if n < 0 {
			return n
		}
		switch num {
		case 1:
			p.ID = models.EntityID(v.u)
		case 2:
			p.Slot = v.sint()
		case 3:
			p.Name = string(v.bytes)
		case 4:
			p.X = v.double()
		case 5:
			p.Y = v.double()
		case 6:
			p.Stock = v.sint()
		case 7:
			p.State = PlayerState(v.u)
		case 8:
			p.Facing = models.Direction(v.u)
		case 9:
			p.SelectionX = v.sint()
		case 10:
			p.SelectionY = v.sint()
		case 11:
			p.Active = protowire.DecodeBool(v.u)
		case 12:
			p.Stats.Territory = v.sint()
		case 13:
			p.Stats.Kills = v.sint()
		case 14:
			p.Stats.Deaths = v.sint()
		}
		return n
	})
	return p, err
}

func decodeEvent(data []byte) (CollisionEvent, error) {
	var e CollisionEvent
	err := walkFields(data, func(num protowire.Number, typ protowire.Type, b []byte) int {
		v, n := consumeValue(typ, b)
		if n < 0 {
			return n
		}
		switch num {
		case 1:
			e.Phase = CollisionPhase(v.u)
		case 2:
			e.Self = models.EntityID(v.u)
		case 3:
			e.Other = models.EntityID(v.u)
		case 4:
			e.Overlap.X = v.double()
		case 5:
			e.Overlap.Y = v.double()
		}
		return n
	})
	return e, err
}
