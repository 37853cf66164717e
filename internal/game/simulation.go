// simulation.go

package game

import (
	"math/rand"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
	"github.com/sirupsen/logrus"
)

// Simulation 模拟根对象，持有网格、实体、时钟和碰撞解析器
type Simulation struct {
	rules    config.GameConfig
	clock    *Clock
	world    *World
	resolver *CollisionResolver
	input    InputSource
	rng      *rand.Rand
	tick     int64
	log      *logrus.Entry
}

// NewSimulation 创建模拟，输入源在每帧被查询
func NewSimulation(rules config.GameConfig, input InputSource) *Simulation {
	s := &Simulation{
		rules: rules,
		clock: NewClock(),
		input: input,
		rng:   rand.New(rand.NewSource(rules.Seed)),
		log:   logger.Component("simulation"),
	}
	s.world = NewWorld(&s.rules, s.clock)
	s.resolver = NewCollisionResolver(rules.GridWidth, rules.GridHeight)
	return s
}

// AddPlayer 在 (x, y) 加入玩家，返回槽位从 0 递增的玩家
func (s *Simulation) AddPlayer(x, y int) *Player {
	return s.world.addPlayer(x, y)
}

// World 网格世界
func (s *Simulation) World() *World { return s.world }

// Clock 模拟时钟
func (s *Simulation) Clock() *Clock { return s.clock }

// Rules 对局规则
func (s *Simulation) Rules() config.GameConfig { return s.rules }

// Tick 已执行的帧数
func (s *Simulation) Tick() int64 { return s.tick }

// Players 所有玩家
func (s *Simulation) Players() []*Player { return s.world.players }

// Events 上一帧的碰撞事件
func (s *Simulation) Events() []CollisionEvent { return s.resolver.Events() }

// Update 执行一个固定步长的帧
func (s *Simulation) Update(dt float64) {
	s.clock.Advance(dt)
	s.tick++

	s.world.updateStaticWalls(dt)
	s.world.updateMovingWalls(dt)
	for _, p := range s.world.players {
		p.Update(s.world, s.input, dt)
	}
	s.resolver.Resolve(s.world, s.handleCollision)
	s.world.applyEmbeds()
}

// handleCollision 按实体种类分派碰撞事件
func (s *Simulation) handleCollision(ev CollisionEvent) {
	self := s.world.entity(ev.Self)
	other := s.world.entity(ev.Other)
	if self == nil || other == nil {
		return
	}

	switch self.Kind {
	case models.KindPlayer:
		if other.Kind == models.KindWall {
			s.playerHitWall(ev, other)
		}
	case models.KindWall:
		if other.Kind == models.KindWall {
			if wall := s.world.Wall(ev.Self); wall != nil && wall.rams(other) {
				wall.embed = true
			}
		}
	}
}

// playerHitWall 重叠面积超过玩家自身一半时玩家死亡
func (s *Simulation) playerHitWall(ev CollisionEvent, wallEntity *models.Entity) {
	p := s.playerByID(ev.Self)
	if p == nil || !p.Active {
		return
	}
	area := ev.Overlap.X * ev.Overlap.Y
	if area < 0 {
		area = -area
	}
	if area <= 0.5*p.Area() {
		return
	}

	wall := s.world.Wall(wallEntity.ID)
	x, y := s.rng.Intn(s.world.width), s.rng.Intn(s.world.height)
	p.die(s.world, x, y)

	fields := logrus.Fields{"player": p.Slot, "stock": p.Stock}
	if wall != nil && wall.Owner != p.Slot {
		if st := s.world.statsFor(wall.Owner); st != nil {
			st.Kills++
		}
		fields["killer"] = wall.Owner
	}
	s.log.WithFields(fields).Info("玩家死亡")
}

func (s *Simulation) playerByID(id models.EntityID) *Player {
	for _, p := range s.world.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}
