// results.go

package game

import (
	"context"
	"errors"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// ResultRecorder 保存结束的对局
type ResultRecorder interface {
	Record(ctx context.Context, result *models.MatchResult) error
}

// StorageRecorder 同时写入数据库和排行榜，未配置的存储被跳过
type StorageRecorder struct {
	Matches     *models.MatchStore
	Leaderboard *models.RedisLeaderboard
}

// Record 写入所有已配置的存储，返回合并后的错误
func (r *StorageRecorder) Record(ctx context.Context, result *models.MatchResult) error {
	var errs []error
	if r.Matches != nil {
		if err := r.Matches.SaveMatch(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	if r.Leaderboard != nil {
		if err := r.Leaderboard.RecordMatch(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildMatchResult 由对局结束时的模拟状态生成记录
func BuildMatchResult(r *Room, outcome Outcome) *models.MatchResult {
	sim := r.Sim
	result := &models.MatchResult{
		Match: models.MatchRecord{
			ID:         r.ID,
			RoomName:   r.Name,
			StartTime:  r.StartedAt,
			EndTime:    r.EndedAt,
			GridWidth:  sim.World().Width(),
			GridHeight: sim.World().Height(),
			Ticks:      sim.Tick(),
			Winner:     outcome.Winner,
			Reason:     outcome.Reason,
		},
	}
	for _, p := range sim.Players() {
		result.Players = append(result.Players, models.PlayerMatchRecord{
			MatchID:     r.ID,
			Slot:        p.Slot,
			Name:        r.playerName(p.Slot),
			StockLeft:   p.Stock,
			Winner:      outcome.Winner == p.Slot,
			PlayerStats: sim.World().Stats(p.Slot),
		})
	}
	return result
}
