// stats.go

package models

import (
	"time"
)

// PlayerStats 玩家单局统计
type PlayerStats struct {
	WallsBuilt     int `json:"walls_built"`
	WallsFilled    int `json:"walls_filled"`    // 自动填充获得的墙
	WallsDestroyed int `json:"walls_destroyed"` // 攻击摧毁的敌方墙
	WallsLost      int `json:"walls_lost"`
	WallsLaunched  int `json:"walls_launched"`
	Kills          int `json:"kills"`
	Deaths         int `json:"deaths"`
	Territory      int `json:"territory"` // 当前拥有的墙数
}

// MatchRecord 对局记录
type MatchRecord struct {
	ID         string    `json:"id"`
	RoomName   string    `json:"room_name"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	GridWidth  int       `json:"grid_width"`
	GridHeight int       `json:"grid_height"`
	Ticks      int64     `json:"ticks"`
	Winner     int       `json:"winner"` // 获胜玩家槽位，-1 表示平局
	Reason     string    `json:"reason"`
}

// PlayerMatchRecord 玩家对局记录
type PlayerMatchRecord struct {
	MatchID   string `json:"match_id"`
	Slot      int    `json:"slot"`
	Name      string `json:"name"`
	StockLeft int    `json:"stock_left"`
	Winner    bool   `json:"winner"`
	PlayerStats
}

// MatchResult 对局结果，交给记录器持久化
type MatchResult struct {
	Match   MatchRecord         `json:"match"`
	Players []PlayerMatchRecord `json:"players"`
}

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// LeaderboardType 排行榜类型
type LeaderboardType string

const (
	// LeaderboardTerritory 领地排行榜
	LeaderboardTerritory LeaderboardType = "territory"
	// LeaderboardWins 胜场排行榜
	LeaderboardWins LeaderboardType = "wins"
	// LeaderboardKills 击杀排行榜
	LeaderboardKills LeaderboardType = "kills"
)

// ParseLeaderboardType 解析排行榜类型，未知值返回 false
func ParseLeaderboardType(s string) (LeaderboardType, bool) {
	switch LeaderboardType(s) {
	case LeaderboardTerritory, LeaderboardWins, LeaderboardKills:
		return LeaderboardType(s), true
	case "":
		return LeaderboardTerritory, true
	}
	return "", false
}
