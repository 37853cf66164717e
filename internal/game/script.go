// script.go

package game

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// ScriptPlayer 脚本中的玩家及出生格
type ScriptPlayer struct {
	Name string `json:"name"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// ScriptEvent 在第 Tick 帧开始时设置某个按键
type ScriptEvent struct {
	Tick   int64  `json:"tick"`
	Player int    `json:"player"`
	Action string `json:"action"`
	Down   bool   `json:"down"`
}

// InputScript 可重放的输入脚本，相同脚本产生相同对局
type InputScript struct {
	Name     string         `json:"name"`
	Players  []ScriptPlayer `json:"players"`
	Events   []ScriptEvent  `json:"events"`
	MaxTicks int64          `json:"max_ticks"` // 0 表示只受规则限制

	actions []Action
}

// ParseInputScript 解析并校验脚本
func ParseInputScript(data []byte) (*InputScript, error) {
	var s InputScript
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScript, err)
	}
	if err := s.prepare(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadInputScript 从文件读取脚本
func LoadInputScript(path string) (*InputScript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取脚本失败: %w", err)
	}
	return ParseInputScript(data)
}

// prepare 校验事件并按帧排序
func (s *InputScript) prepare() error {
	if len(s.Players) == 0 {
		return fmt.Errorf("%w: 没有玩家", ErrInvalidScript)
	}
	if s.MaxTicks < 0 {
		return fmt.Errorf("%w: max_ticks 不能为负数", ErrInvalidScript)
	}

	sort.SliceStable(s.Events, func(i, j int) bool { return s.Events[i].Tick < s.Events[j].Tick })

	s.actions = make([]Action, len(s.Events))
	for i, ev := range s.Events {
		if ev.Tick < 1 {
			return fmt.Errorf("%w: 事件 %d 的帧号必须从 1 开始", ErrInvalidScript, i)
		}
		if ev.Player < 0 || ev.Player >= len(s.Players) {
			return fmt.Errorf("%w: 事件 %d 的玩家 %d 不存在", ErrInvalidScript, i, ev.Player)
		}
		action, err := ParseAction(ev.Action)
		if err != nil {
			return fmt.Errorf("%w: 事件 %d: %v", ErrInvalidScript, i, err)
		}
		s.actions[i] = action
	}
	return nil
}

// validateFor 检查玩家数和出生格是否符合网格
func (s *InputScript) validateFor(width, height, maxPlayers int) error {
	if len(s.Players) > maxPlayers {
		return fmt.Errorf("%w: 玩家数 %d 超过上限 %d", ErrInvalidScript, len(s.Players), maxPlayers)
	}
	for i, p := range s.Players {
		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			return fmt.Errorf("%w: 玩家 %d 的出生格 (%d, %d) 超出网格", ErrInvalidScript, i, p.X, p.Y)
		}
	}
	return nil
}

// scriptCursor 按帧向输入缓冲投放事件
type scriptCursor struct {
	script *InputScript
	next   int
}

// apply 投放帧号不大于 tick 的所有事件
func (c *scriptCursor) apply(buf *InputBuffer, tick int64) {
	events := c.script.Events
	for c.next < len(events) && events[c.next].Tick <= tick {
		ev := events[c.next]
		buf.Set(ev.Player, c.script.actions[c.next], ev.Down)
		c.next++
	}
}

// done 所有事件都已投放
func (c *scriptCursor) done() bool {
	return c.next >= len(c.script.Events)
}
