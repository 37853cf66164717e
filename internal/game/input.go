// input.go

package game

import (
	"fmt"
	"strings"
)

// Action 逻辑输入动作
type Action int

const (
	// ActionUp 向上
	ActionUp Action = iota
	// ActionDown 向下
	ActionDown
	// ActionLeft 向左
	ActionLeft
	// ActionRight 向右
	ActionRight
	// ActionBuild 建墙
	ActionBuild
	// ActionMelee 投射墙
	ActionMelee

	actionCount
)

var actionNames = [actionCount]string{"up", "down", "left", "right", "build", "melee"}

// String 动作名称
func (a Action) String() string {
	if a < 0 || a >= actionCount {
		return "unknown"
	}
	return actionNames[a]
}

// ParseAction 按名称解析动作
func ParseAction(name string) (Action, error) {
	for i, n := range actionNames {
		if strings.EqualFold(n, name) {
			return Action(i), nil
		}
	}
	return 0, fmt.Errorf("未知动作: %q", name)
}

// ActionState 某一帧的动作状态
type ActionState struct {
	Active          bool
	JustActivated   bool
	JustDeactivated bool
	HoldTime        float64 // 本次按下以来的时间，松开当帧保留最后的值
}

// InputSource 每帧的输入查询
type InputSource interface {
	State(player int, action Action) ActionState
}

type inputSlot struct {
	down     bool // 待锁存的按键状态
	active   bool
	previous bool
	hold     float64
}

// InputBuffer 可编程的输入源，Set 记录按键，Latch 在每帧开始时生效
type InputBuffer struct {
	slots [][actionCount]inputSlot
}

// NewInputBuffer 创建指定玩家数的输入缓冲
func NewInputBuffer(players int) *InputBuffer {
	return &InputBuffer{slots: make([][actionCount]inputSlot, players)}
}

// Set 设置按键状态，越界的玩家或动作被忽略
func (b *InputBuffer) Set(player int, action Action, down bool) {
	if player < 0 || player >= len(b.slots) || action < 0 || action >= actionCount {
		return
	}
	b.slots[player][action].down = down
}

// Press 按下
func (b *InputBuffer) Press(player int, action Action) { b.Set(player, action, true) }

// Release 松开
func (b *InputBuffer) Release(player int, action Action) { b.Set(player, action, false) }

// Latch 锁存本帧输入并累计按住时间
func (b *InputBuffer) Latch(dt float64) {
	for p := range b.slots {
		for a := range b.slots[p] {
			s := &b.slots[p][a]
			s.previous = s.active
			s.active = s.down
			switch {
			case s.active && !s.previous:
				s.hold = 0
			case s.active:
				s.hold += dt
			}
		}
	}
}

// State 实现 InputSource
func (b *InputBuffer) State(player int, action Action) ActionState {
	if player < 0 || player >= len(b.slots) || action < 0 || action >= actionCount {
		return ActionState{}
	}
	s := b.slots[player][action]
	return ActionState{
		Active:          s.active,
		JustActivated:   s.active && !s.previous,
		JustDeactivated: !s.active && s.previous,
		HoldTime:        s.hold,
	}
}
