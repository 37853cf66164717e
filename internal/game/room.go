package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	// 等待中的房间超过该时间未开始即可清理
	idleRoomTTL = 5 * time.Minute
	// 已结束的房间保留时间，供观战端读取最终画面
	endedRoomTTL = 2 * time.Minute
	// 保存对局结果的超时
	recordTimeout = 5 * time.Second
)

// Room 游戏房间，按脚本驱动一局模拟
type Room struct {
	ID        string
	Name      string
	Status    models.RoomStatus
	CreatedAt time.Time
	StartedAt time.Time
	EndedAt   time.Time

	Sim      *Simulation
	input    *InputBuffer
	cursor   scriptCursor
	names    []string
	victory  VictoryRule
	maxTicks int64
	dt       float64
	interval time.Duration

	hub      *Hub
	recorder ResultRecorder

	mu        sync.RWMutex
	outcome   Outcome
	last      Snapshot
	shutdown  chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	isRunning bool
	log       *logrus.Entry
}

// NewRoom 用脚本和规则创建房间，recorder 可以为 nil
func NewRoom(script *InputScript, rules config.GameConfig, tickRate int, recorder ResultRecorder) (*Room, error) {
	if err := script.validateFor(rules.GridWidth, rules.GridHeight, rules.MaxPlayers); err != nil {
		return nil, err
	}
	if err := rules.ValidateStep(tickRate); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	name := script.Name
	if name == "" {
		name = "room-" + id[:8]
	}

	input := NewInputBuffer(len(script.Players))
	sim := NewSimulation(rules, input)
	names := make([]string, len(script.Players))
	for i, p := range script.Players {
		sim.AddPlayer(p.X, p.Y)
		names[i] = p.Name
		if names[i] == "" {
			names[i] = fmt.Sprintf("player%d", i+1)
		}
	}

	r := &Room{
		ID:        id,
		Name:      name,
		Status:    models.RoomWaiting,
		CreatedAt: time.Now(),
		Sim:       sim,
		input:     input,
		cursor:    scriptCursor{script: script},
		names:     names,
		victory:   NewVictoryRule(sim),
		maxTicks:  script.MaxTicks,
		dt:        1 / float64(tickRate),
		interval:  time.Second / time.Duration(tickRate),
		hub:       NewHub(),
		recorder:  recorder,
		outcome:   Outcome{Winner: NoWinner},
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		log:       logger.Component("room").WithField("room_id", id),
	}
	r.last = TakeSnapshot(r.ID, sim, names, r.outcome)
	return r, nil
}

// Start 启动房间的定时循环
func (r *Room) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.isRunning || r.Status == models.RoomEnded {
		return ErrRoomRunning
	}
	r.isRunning = true
	r.Status = models.RoomPlaying
	r.StartedAt = time.Now()

	r.log.WithFields(logrus.Fields{
		"name":    r.Name,
		"players": len(r.names),
		"dt":      r.dt,
	}).Info("房间启动")

	go r.gameLoop()
	return nil
}

// Stop 停止房间并断开所有观战者
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.shutdown)
	})

	r.mu.RLock()
	running := r.isRunning
	r.mu.RUnlock()
	if running {
		<-r.done
	}
	r.hub.Close()
}

// gameLoop 游戏主循环，每次触发推进固定的 dt
func (r *Room) gameLoop() {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if r.Step() {
				return
			}
		case <-r.shutdown:
			r.mu.Lock()
			ended := r.Status == models.RoomEnded
			r.mu.Unlock()
			if !ended {
				r.finish(Outcome{Over: true, Winner: NoWinner, Reason: ReasonAborted})
			}
			return
		}
	}
}

// Step 推进一帧并广播画面，返回对局是否已结束
func (r *Room) Step() bool {
	r.mu.Lock()
	if r.Status == models.RoomEnded {
		r.mu.Unlock()
		return true
	}
	if r.Status == models.RoomWaiting {
		r.Status = models.RoomPlaying
		r.StartedAt = time.Now()
	}

	r.cursor.apply(r.input, r.Sim.Tick()+1)
	r.input.Latch(r.dt)
	r.Sim.Update(r.dt)

	outcome := r.victory.Check(r.Sim)
	if !outcome.Over && r.maxTicks > 0 && r.Sim.Tick() >= r.maxTicks {
		outcome = Outcome{Over: true, Winner: territoryLeader(r.Sim), Reason: ReasonTimeLimit}
	}
	r.outcome = outcome
	r.last = TakeSnapshot(r.ID, r.Sim, r.names, outcome)
	snap := r.last
	r.mu.Unlock()

	r.publish(snap)

	if outcome.Over {
		r.finish(outcome)
	}
	return outcome.Over
}

// RunToEnd 不经过定时器直接跑完对局；limit > 0 时到达该帧数按领地判定
func (r *Room) RunToEnd(limit int64) Outcome {
	for !r.Step() {
		if limit > 0 && r.Sim.Tick() >= limit {
			outcome := Outcome{Over: true, Winner: territoryLeader(r.Sim), Reason: ReasonTimeLimit}
			r.mu.Lock()
			r.outcome = outcome
			r.last.Outcome = outcome
			r.mu.Unlock()
			r.finish(outcome)
			break
		}
	}
	return r.Outcome()
}

// publish 有观战者时编码并广播
func (r *Room) publish(snap Snapshot) {
	if r.hub.Count() == 0 {
		return
	}
	text, err := encodeMessage(MessageSnapshot, snap)
	if err != nil {
		r.log.WithError(err).Error("编码画面失败")
		return
	}
	binary, err := snap.MarshalBinary()
	if err != nil {
		r.log.WithError(err).Error("编码二进制画面失败")
		return
	}
	r.hub.Broadcast(Frame{Text: text, Binary: binary})
}

// finish 结束对局并保存结果
func (r *Room) finish(outcome Outcome) {
	r.mu.Lock()
	if r.Status == models.RoomEnded {
		r.mu.Unlock()
		return
	}
	r.Status = models.RoomEnded
	r.EndedAt = time.Now()
	r.outcome = outcome
	if r.StartedAt.IsZero() {
		r.StartedAt = r.EndedAt
	}
	result := BuildMatchResult(r, outcome)
	r.mu.Unlock()

	r.log.WithFields(logrus.Fields{
		"winner": outcome.Winner,
		"reason": outcome.Reason,
		"ticks":  result.Match.Ticks,
	}).Info("房间游戏结束")

	if r.recorder == nil || outcome.Reason == ReasonAborted {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()
	if err := r.recorder.Record(ctx, result); err != nil {
		r.log.WithError(err).Error("保存对局结果失败")
	}
}

// Outcome 最近一次判定结果
func (r *Room) Outcome() Outcome {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.outcome
}

// Snapshot 最近一帧的画面
func (r *Room) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// Hub 观战者集合
func (r *Room) Hub() *Hub { return r.hub }

// Info 房间概要
func (r *Room) Info() models.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return models.RoomInfo{
		ID:         r.ID,
		Name:       r.Name,
		Status:     r.Status,
		Players:    append([]string(nil), r.names...),
		Spectators: r.hub.Count(),
		Tick:       r.Sim.Tick(),
		CreatedAt:  r.CreatedAt,
		StartedAt:  r.StartedAt,
		EndedAt:    r.EndedAt,
		GridWidth:  r.Sim.World().Width(),
		GridHeight: r.Sim.World().Height(),
	}
}

// ShouldCleanup 检查房间是否应该被清理
func (r *Room) ShouldCleanup(now time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch r.Status {
	case models.RoomEnded:
		return now.Sub(r.EndedAt) > endedRoomTTL
	case models.RoomWaiting:
		return now.Sub(r.CreatedAt) > idleRoomTTL
	}
	return false
}

// playerName 槽位对应的玩家名
func (r *Room) playerName(slot int) string {
	if slot < 0 || slot >= len(r.names) {
		return ""
	}
	return r.names[slot]
}
