// grid.go

package game

import (
	"fmt"
	"sort"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
	"github.com/sirupsen/logrus"
)

// wallSource 墙体来源，只影响统计
type wallSource int

const (
	sourceBuild wallSource = iota
	sourceFill
)

// noAttacker 没有归属的攻击
const noAttacker = -1

// World 网格世界，同时是所有实体的唯一持有者
//
// 网格格子、移动集合和玩家的建造引用都只保存实体ID，
// 通过 World 查找实体本身。
type World struct {
	width  int
	height int
	rules  *config.GameConfig
	clock  *Clock
	ids    *IDAllocator
	fill   *FillEngine
	log    *logrus.Entry

	slots   []models.EntityID
	walls   map[models.EntityID]*Wall
	moving  []models.EntityID // 按ID升序
	players []*Player
	stats   []models.PlayerStats
}

// NewWorld 创建空网格
func NewWorld(rules *config.GameConfig, clock *Clock) *World {
	w := &World{
		width:  rules.GridWidth,
		height: rules.GridHeight,
		rules:  rules,
		clock:  clock,
		ids:    NewIDAllocator(),
		log:    logger.Component("world"),
		slots:  make([]models.EntityID, rules.GridWidth*rules.GridHeight),
		walls:  make(map[models.EntityID]*Wall),
	}
	w.fill = NewFillEngine(w.width, w.height, w)
	return w
}

// Width 网格宽度
func (w *World) Width() int { return w.width }

// Height 网格高度
func (w *World) Height() int { return w.height }

// Fill 填充引擎
func (w *World) Fill() *FillEngine { return w.fill }

// IsInBounds 坐标是否在网格内
func (w *World) IsInBounds(x, y int) bool {
	return x >= 0 && x < w.width && y >= 0 && y < w.height
}

func (w *World) slot(x, y int) *models.EntityID {
	if !w.IsInBounds(x, y) {
		panic(fmt.Sprintf("game: slot (%d, %d) out of bounds %dx%d", x, y, w.width, w.height))
	}
	return &w.slots[x+y*w.width]
}

// WallAt 返回静止在格子上的墙，越界或为空时返回 nil
func (w *World) WallAt(x, y int) *Wall {
	if !w.IsInBounds(x, y) {
		return nil
	}
	id := *w.slot(x, y)
	if id.IsNil() {
		return nil
	}
	return w.walls[id]
}

// Wall 按ID查找墙体（包括移动中的）
func (w *World) Wall(id models.EntityID) *Wall {
	if id.IsNil() {
		return nil
	}
	return w.walls[id]
}

// Player 按槽位查找玩家
func (w *World) Player(slot int) *Player {
	if slot < 0 || slot >= len(w.players) {
		return nil
	}
	return w.players[slot]
}

// Players 所有玩家，按槽位排序
func (w *World) Players() []*Player {
	return w.players
}

// MovingWalls 移动中的墙体ID，按升序
func (w *World) MovingWalls() []models.EntityID {
	return w.moving
}

// WallCount 墙体总数
func (w *World) WallCount() int {
	return len(w.walls)
}

// Stats 玩家统计
func (w *World) Stats(slot int) models.PlayerStats {
	if slot < 0 || slot >= len(w.stats) {
		return models.PlayerStats{}
	}
	return w.stats[slot]
}

// entity 按ID查找实体公共部分
func (w *World) entity(id models.EntityID) *models.Entity {
	if wall, ok := w.walls[id]; ok {
		return &wall.Entity
	}
	for _, p := range w.players {
		if p.ID == id {
			return &p.Entity
		}
	}
	return nil
}

// addPlayer 在 (x, y) 放置新玩家
func (w *World) addPlayer(x, y int) *Player {
	slot := len(w.players)
	p := newPlayer(w.ids.Allocate(), slot, x, y, w.clock, w.rules)
	w.players = append(w.players, p)
	w.stats = append(w.stats, models.PlayerStats{})
	return p
}

func (w *World) occupied(x, y int) bool {
	return !w.slot(x, y).IsNil()
}

func (w *World) fillCell(x, y, owner int) {
	w.createWall(x, y, owner, false, sourceFill)
}

// CreateWall 在 (x, y) 建墙
//
// 格子为空时创建新墙；格子被占时，投射物或同一玩家返回已有的墙，否则返回 nil。
func (w *World) CreateWall(x, y, owner int, projectile bool) *Wall {
	return w.createWall(x, y, owner, projectile, sourceBuild)
}

func (w *World) createWall(x, y, owner int, projectile bool, source wallSource) *Wall {
	if !w.IsInBounds(x, y) {
		return nil
	}

	if existing := w.WallAt(x, y); existing != nil {
		if projectile || existing.Owner == owner {
			return existing
		}
		return nil
	}

	wall := newWall(w.ids.Allocate(), x, y, owner, projectile, w.clock, w.rules)
	w.walls[wall.ID] = wall
	*w.slot(x, y) = wall.ID
	w.fill.WallCreated(x, y)

	if st := w.statsFor(owner); st != nil {
		if source == sourceFill {
			st.WallsFilled++
		} else {
			st.WallsBuilt++
		}
		st.Territory++
	}

	if n := w.fill.FillEmptyRegions(x, y, owner); n > 0 {
		w.log.WithFields(logrus.Fields{"x": x, "y": y, "owner": owner, "regions": n}).Debug("区域已填充")
	}
	return wall
}

// RemoveWall 移除格子上的墙，空格子无操作
func (w *World) RemoveWall(x, y int) {
	if !w.IsInBounds(x, y) {
		return
	}
	if id := *w.slot(x, y); !id.IsNil() {
		w.destroyWall(id)
	}
}

// AttackWall 攻击格子上的墙，击中返回 true（无论是否摧毁）
func (w *World) AttackWall(x, y, damage int) bool {
	return w.attackWall(x, y, damage, noAttacker)
}

func (w *World) attackWall(x, y, damage, attacker int) bool {
	wall := w.WallAt(x, y)
	if wall == nil {
		return false
	}

	wall.TakeDamage(damage)
	if !wall.Active {
		if st := w.statsFor(attacker); st != nil && attacker != wall.Owner {
			st.WallsDestroyed++
		}
		w.destroyWall(wall.ID)
	}
	return true
}

// destroyWall 释放墙体：清空格子或移动集合、归还ID并作废所有引用
func (w *World) destroyWall(id models.EntityID) {
	wall, ok := w.walls[id]
	if !ok {
		return
	}

	if wall.State != WallMoving {
		x, y := wall.Cell()
		if w.IsInBounds(x, y) && *w.slot(x, y) == id {
			*w.slot(x, y) = models.NilEntityID
			w.fill.WallDestroyed(x, y)
		}
	}
	w.removeMoving(id)

	for _, p := range w.players {
		if p.Stream == id {
			p.Stream = models.NilEntityID
		}
	}

	delete(w.walls, id)
	w.ids.Release(id)

	if st := w.statsFor(wall.Owner); st != nil {
		st.WallsLost++
		st.Territory--
	}
}

// beginWallMove 把静止的墙从网格取下并开始移动
func (w *World) beginWallMove(id models.EntityID, tx, ty int) {
	wall, ok := w.walls[id]
	if !ok || wall.State != WallStatic {
		panic(fmt.Sprintf("game: wall %s cannot start moving", id))
	}
	x, y := wall.Cell()
	if *w.slot(x, y) != id {
		panic(fmt.Sprintf("game: wall %s is not in slot (%d, %d)", id, x, y))
	}

	*w.slot(x, y) = models.NilEntityID
	w.fill.WallDestroyed(x, y)
	w.insertMoving(id)
	wall.beginMove(tx, ty)
}

// finishWallMove 把移动中的墙放回网格，落点被占时沿来路后退
func (w *World) finishWallMove(id models.EntityID) {
	wall, ok := w.walls[id]
	if !ok {
		return
	}

	x, y := wall.Cell()
	dx, dy := stepBack(wall.Direction)
	for steps := 0; steps <= w.width+w.height; steps++ {
		if w.IsInBounds(x, y) && !w.occupied(x, y) {
			w.removeMoving(id)
			wall.settle(x, y)
			*w.slot(x, y) = id
			w.fill.WallCreated(x, y)
			w.fill.WallCompleted(x, y, wall.Owner)
			return
		}
		x += dx
		y += dy
	}

	w.log.WithField("wall", id).Debug("没有落点，墙体销毁")
	w.destroyWall(id)
}

// stepBack 与移动方向相反的单位格偏移
func stepBack(dir models.Vector2D) (int, int) {
	var dx, dy int
	switch {
	case dir.X > 0.5:
		dx = -1
	case dir.X < -0.5:
		dx = 1
	}
	switch {
	case dir.Y > 0.5:
		dy = -1
	case dir.Y < -0.5:
		dy = 1
	}
	return dx, dy
}

func (w *World) insertMoving(id models.EntityID) {
	i := sort.Search(len(w.moving), func(i int) bool { return w.moving[i] >= id })
	if i < len(w.moving) && w.moving[i] == id {
		return
	}
	w.moving = append(w.moving, models.NilEntityID)
	copy(w.moving[i+1:], w.moving[i:])
	w.moving[i] = id
}

func (w *World) removeMoving(id models.EntityID) {
	i := sort.Search(len(w.moving), func(i int) bool { return w.moving[i] >= id })
	if i < len(w.moving) && w.moving[i] == id {
		w.moving = append(w.moving[:i], w.moving[i+1:]...)
	}
}

func (w *World) statsFor(slot int) *models.PlayerStats {
	if slot < 0 || slot >= len(w.stats) {
		return nil
	}
	return &w.stats[slot]
}

// updateStaticWalls 按列优先顺序更新网格上的墙
func (w *World) updateStaticWalls(dt float64) {
	for i := 0; i < w.width; i++ {
		for j := 0; j < w.height; j++ {
			id := *w.slot(i, j)
			if id.IsNil() {
				continue
			}
			wall := w.walls[id]
			switch wall.Update(dt) {
			case WallEventCompleted:
				w.fill.WallCompleted(i, j, wall.Owner)
			case WallEventDied:
				w.destroyWall(id)
			}
		}
	}
}

// updateMovingWalls 更新移动中的墙，到达的墙放回网格
func (w *World) updateMovingWalls(dt float64) {
	ids := append([]models.EntityID(nil), w.moving...)
	for _, id := range ids {
		wall, ok := w.walls[id]
		if !ok {
			continue
		}
		switch wall.Update(dt) {
		case WallEventArrived:
			w.finishWallMove(id)
		case WallEventDied:
			w.destroyWall(id)
		}
	}
}

// applyEmbeds 撞墙的移动墙体停在最近的格子上
func (w *World) applyEmbeds() {
	ids := append([]models.EntityID(nil), w.moving...)
	for _, id := range ids {
		wall, ok := w.walls[id]
		if !ok || !wall.embed {
			continue
		}
		wall.Position = models.Vector2D{X: roundHalfUp(wall.Position.X), Y: roundHalfUp(wall.Position.Y)}
		w.finishWallMove(id)
	}
}
