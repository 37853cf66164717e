// player.go

package game

import (
	"math"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// PlayerState 玩家状态
type PlayerState int

const (
	// PlayerNormal 自由移动
	PlayerNormal PlayerState = iota
	// PlayerBuilding 当前墙体升起中
	PlayerBuilding
	// PlayerBuildingAdvancing 等待向前延伸
	PlayerBuildingAdvancing
	// PlayerBuildingProjectile 投射墙升起中
	PlayerBuildingProjectile
	// PlayerChargingProjectile 投射墙蓄力中
	PlayerChargingProjectile
	// PlayerPushing 保留
	PlayerPushing
	// PlayerStunned 保留
	PlayerStunned
)

// String 状态名称
func (s PlayerState) String() string {
	switch s {
	case PlayerNormal:
		return "normal"
	case PlayerBuilding:
		return "building"
	case PlayerBuildingAdvancing:
		return "building_advancing"
	case PlayerBuildingProjectile:
		return "building_projectile"
	case PlayerChargingProjectile:
		return "charging_projectile"
	case PlayerPushing:
		return "pushing"
	case PlayerStunned:
		return "stunned"
	default:
		return "unknown"
	}
}

// MarshalText 以名称序列化
func (s PlayerState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// 同时按住时按此顺序比较按住时间
var moveActions = [4]struct {
	action Action
	dir    models.Direction
}{
	{ActionUp, models.DirUp},
	{ActionDown, models.DirDown},
	{ActionLeft, models.DirLeft},
	{ActionRight, models.DirRight},
}

// Player 玩家控制器
type Player struct {
	models.Entity

	Slot       int
	State      PlayerState
	Stock      int
	Facing     models.Direction
	SelectionX int
	SelectionY int

	// 正在建造的墙及其所在格子
	Stream  models.EntityID
	StreamX int
	StreamY int

	speed           float64
	meleeStrength   int
	tapTime         float64
	respawnTimer    Timer
	buildTimer      Timer
	projectileTimer Timer
}

func newPlayer(id models.EntityID, slot, x, y int, clock *Clock, rules *config.GameConfig) *Player {
	p := &Player{
		Entity: models.Entity{
			ID:         id,
			Kind:       models.KindPlayer,
			Active:     true,
			Collidable: true,
			Dynamic:    true,
			Position:   models.Vector2D{X: float64(x), Y: float64(y)},
			Size:       models.Vector2D{X: 1, Y: 1},
		},
		Slot:            slot,
		State:           PlayerNormal,
		Stock:           rules.Stock,
		Facing:          models.DirRight,
		speed:           rules.PlayerSpeed,
		meleeStrength:   rules.MeleeStrength,
		tapTime:         rules.AttackTapTime,
		respawnTimer:    NewTimer(clock, rules.RespawnTime),
		buildTimer:      NewTimer(clock, rules.BuildAdvanceTime),
		projectileTimer: NewTimer(clock, rules.ProjectileAdvanceTime),
	}
	p.updateSelection()
	return p
}

// CenterCell 中心点所在格子
func (p *Player) CenterCell() (int, int) {
	c := p.Center()
	return int(math.Floor(c.X)), int(math.Floor(c.Y))
}

func (p *Player) updateSelection() {
	x, y := p.CenterCell()
	dx, dy := p.Facing.Offset()
	p.SelectionX, p.SelectionY = x+dx, y+dy
}

// Update 处理一帧输入
func (p *Player) Update(w *World, in InputSource, dt float64) {
	if !p.Active {
		if p.Stock > 0 && p.respawnTimer.Expired() {
			p.respawn(w)
		}
		return
	}

	if p.State == PlayerNormal {
		p.updateNormal(w, in, dt)
	}

	build := in.State(p.Slot, ActionBuild)
	if (p.State == PlayerBuilding || p.State == PlayerBuildingAdvancing) && !build.Active {
		p.stopStream(w)
	}

	if p.State == PlayerBuilding {
		p.awaitStream(w, &p.buildTimer, PlayerBuildingAdvancing)
	}

	if p.State == PlayerBuildingAdvancing && p.buildTimer.Expired() {
		p.advanceStream(w)
		p.tryCreateWall(w, false)
	}

	melee := in.State(p.Slot, ActionMelee)
	if !melee.Active {
		switch p.State {
		case PlayerBuildingProjectile:
			p.stopStream(w)
		case PlayerChargingProjectile:
			p.launch(w)
		}
	}

	if p.State == PlayerBuildingProjectile {
		p.awaitStream(w, &p.projectileTimer, PlayerChargingProjectile)
	}

	if p.State == PlayerChargingProjectile && p.projectileTimer.Expired() {
		p.advanceStream(w)
		p.tryCreateWall(w, true)
	}
}

func (p *Player) updateNormal(w *World, in InputSource, dt float64) {
	var move models.Vector2D
	facing, shortest := p.Facing, math.Inf(1)
	for _, m := range moveActions {
		st := in.State(p.Slot, m.action)
		if !st.Active {
			continue
		}
		move = move.Add(m.dir.Vector())
		if st.HoldTime < shortest {
			facing, shortest = m.dir, st.HoldTime
		}
	}
	p.Facing = facing
	p.Position = p.Position.Add(move.Scale(p.speed * dt))
	p.updateSelection()

	// 短按方向键攻击选中的格子
	for _, m := range moveActions {
		st := in.State(p.Slot, m.action)
		if st.JustDeactivated && st.HoldTime < p.tapTime {
			w.attackWall(p.SelectionX, p.SelectionY, p.meleeStrength, p.Slot)
		}
	}

	switch {
	case in.State(p.Slot, ActionBuild).JustActivated:
		p.beginStream(w, false)
	case in.State(p.Slot, ActionMelee).JustActivated:
		p.beginStream(w, true)
	}
}

func (p *Player) beginStream(w *World, projectile bool) {
	p.StreamX, p.StreamY = p.SelectionX, p.SelectionY
	p.tryCreateWall(w, projectile)
}

func (p *Player) tryCreateWall(w *World, projectile bool) {
	wall := w.CreateWall(p.StreamX, p.StreamY, p.Slot, projectile)
	if wall == nil {
		p.Stream = models.NilEntityID
		p.State = PlayerNormal
		return
	}

	p.Stream = wall.ID
	if projectile {
		p.State = PlayerBuildingProjectile
	} else {
		p.State = PlayerBuilding
	}
	wall.BeginRising()
}

// awaitStream 当前墙升起完成后重置计时器并进入下一状态
func (p *Player) awaitStream(w *World, timer *Timer, next PlayerState) {
	wall := w.Wall(p.Stream)
	if wall == nil {
		p.Stream = models.NilEntityID
		p.State = PlayerNormal
		return
	}
	if wall.IsComplete() {
		timer.Reset()
		p.State = next
	}
}

// advanceStream 沿朝向前进一格，停在网格边缘
func (p *Player) advanceStream(w *World) {
	dx, dy := p.Facing.Offset()
	p.StreamX = min(max(p.StreamX+dx, 0), w.width-1)
	p.StreamY = min(max(p.StreamY+dy, 0), w.height-1)
}

// stopStream 当前墙开始倒塌，回到自由移动
func (p *Player) stopStream(w *World) {
	if wall := w.Wall(p.Stream); wall != nil {
		wall.BeginFalling()
	}
	p.Stream = models.NilEntityID
	p.State = PlayerNormal
}

// launch 把蓄力中的墙沿朝向发射到网格边缘
func (p *Player) launch(w *World) {
	wall := w.Wall(p.Stream)
	p.Stream = models.NilEntityID
	p.State = PlayerNormal
	if wall == nil || wall.State != WallStatic {
		return
	}

	x, y := wall.Cell()
	tx, ty := edgeTarget(x, y, p.Facing, w.width, w.height)
	if tx == x && ty == y {
		return
	}
	w.beginWallMove(wall.ID, tx, ty)
	if st := w.statsFor(p.Slot); st != nil {
		st.WallsLaunched++
	}
}

// edgeTarget 从 (x, y) 沿 dir 到网格边缘的格子
func edgeTarget(x, y int, dir models.Direction, width, height int) (int, int) {
	switch dir {
	case models.DirRight:
		return width - 1, y
	case models.DirUp:
		return x, height - 1
	case models.DirLeft:
		return 0, y
	case models.DirDown:
		return x, 0
	}
	return x, y
}

// die 失去一条命并移到 (x, y) 等待重生
func (p *Player) die(w *World, x, y int) {
	p.stopStream(w)
	p.Active = false
	p.Stock--
	p.Position = models.Vector2D{X: float64(x), Y: float64(y)}
	p.respawnTimer.Reset()
	p.updateSelection()
	if st := w.statsFor(p.Slot); st != nil {
		st.Deaths++
	}
}

// respawn 重新激活，清除重生格上的墙
func (p *Player) respawn(w *World) {
	p.Active = true
	x, y := int(math.Floor(p.Position.X)), int(math.Floor(p.Position.Y))
	w.RemoveWall(x, y)
}
