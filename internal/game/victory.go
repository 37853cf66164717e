// victory.go

package game

// 对局结束原因
const (
	ReasonTerritory    = "territory"
	ReasonLastStanding = "last_standing"
	ReasonDraw         = "draw"
	ReasonTimeLimit    = "time_limit"
	ReasonAborted      = "aborted" // 房间被停止，不记录结果
)

// NoWinner 平局时的获胜槽位
const NoWinner = -1

// Outcome 胜负判定结果
type Outcome struct {
	Over   bool   `json:"over"`
	Winner int    `json:"winner"`
	Reason string `json:"reason"`
}

// VictoryRule 胜负规则，在模拟之外每帧评估
type VictoryRule struct {
	FillToWin float64 // 占领全部格子的比例
	TimeLimit float64 // 模拟秒，<= 0 表示不限时
}

// NewVictoryRule 从模拟的规则创建
func NewVictoryRule(s *Simulation) VictoryRule {
	rules := s.Rules()
	return VictoryRule{FillToWin: rules.FillToWin, TimeLimit: rules.TimeLimit}
}

// Check 评估当前局面
func (r VictoryRule) Check(s *Simulation) Outcome {
	w := s.World()
	players := s.Players()

	need := int(float64(w.Width()*w.Height()) * r.FillToWin)
	if need < 1 {
		need = 1
	}
	for _, p := range players {
		if w.Stats(p.Slot).Territory >= need {
			return Outcome{Over: true, Winner: p.Slot, Reason: ReasonTerritory}
		}
	}

	if len(players) > 1 {
		alive, last := 0, NoWinner
		for _, p := range players {
			if p.Stock > 0 {
				alive++
				last = p.Slot
			}
		}
		switch alive {
		case 0:
			return Outcome{Over: true, Winner: NoWinner, Reason: ReasonDraw}
		case 1:
			return Outcome{Over: true, Winner: last, Reason: ReasonLastStanding}
		}
	}

	if r.TimeLimit > 0 && s.Clock().Now() >= r.TimeLimit {
		return Outcome{Over: true, Winner: territoryLeader(s), Reason: ReasonTimeLimit}
	}

	return Outcome{Winner: NoWinner}
}

// territoryLeader 领地最多的玩家槽位，并列时返回 NoWinner
func territoryLeader(s *Simulation) int {
	w := s.World()
	best, bestTerritory, tied := NoWinner, -1, false
	for _, p := range s.Players() {
		t := w.Stats(p.Slot).Territory
		switch {
		case t > bestTerritory:
			best, bestTerritory, tied = p.Slot, t, false
		case t == bestTerritory:
			tied = true
		}
	}
	if tied {
		return NoWinner
	}
	return best
}
