package models

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// 排行榜Redis键名
const (
	LeaderboardTerritoryKey = "leaderboard:territory"
	LeaderboardWinsKey      = "leaderboard:wins"
	LeaderboardKillsKey     = "leaderboard:kills"

	// 排行榜默认过期时间
	LeaderboardTTL = 7 * 24 * time.Hour
)

// RedisLeaderboard Redis排行榜管理器，成员为玩家名
type RedisLeaderboard struct {
	client *redis.Client
}

// NewRedisLeaderboard 创建Redis排行榜管理器
func NewRedisLeaderboard(client *redis.Client) *RedisLeaderboard {
	return &RedisLeaderboard{client: client}
}

// RecordMatch 把一局的结果累加到各排行榜
func (rl *RedisLeaderboard) RecordMatch(ctx context.Context, result *MatchResult) error {
	pipe := rl.client.TxPipeline()
	for _, p := range result.Players {
		if p.Name == "" {
			continue
		}
		pipe.ZIncrBy(ctx, LeaderboardTerritoryKey, float64(p.Territory), p.Name)
		pipe.ZIncrBy(ctx, LeaderboardKillsKey, float64(p.Kills), p.Name)
		if p.Winner {
			pipe.ZIncrBy(ctx, LeaderboardWinsKey, 1, p.Name)
		}
	}
	for _, key := range leaderboardKeys() {
		pipe.Expire(ctx, key, LeaderboardTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("更新排行榜失败: %w", err)
	}
	return nil
}

// GetLeaderboard 获取排行榜（按分数降序）
func (rl *RedisLeaderboard) GetLeaderboard(ctx context.Context, typ LeaderboardType, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	members, err := rl.client.ZRevRangeWithScores(ctx, LeaderboardKey(typ), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for i, member := range members {
		name, ok := member.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Name:  name,
			Score: member.Score,
			Rank:  i + 1,
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家排名，不在榜上返回 -1
func (rl *RedisLeaderboard) GetPlayerRank(ctx context.Context, name string, typ LeaderboardType) (int, error) {
	rank, err := rl.client.ZRevRank(ctx, LeaderboardKey(typ), name).Result()
	if err != nil {
		if err == redis.Nil {
			return -1, nil
		}
		return -1, err
	}
	return int(rank) + 1, nil // Redis排名从0开始
}

// Reset 清空所有排行榜
func (rl *RedisLeaderboard) Reset(ctx context.Context) error {
	return rl.client.Del(ctx, leaderboardKeys()...).Err()
}

// LeaderboardKey 排行榜类型对应的键名
func LeaderboardKey(typ LeaderboardType) string {
	switch typ {
	case LeaderboardWins:
		return LeaderboardWinsKey
	case LeaderboardKills:
		return LeaderboardKillsKey
	default:
		return LeaderboardTerritoryKey
	}
}

func leaderboardKeys() []string {
	return []string{LeaderboardTerritoryKey, LeaderboardWinsKey, LeaderboardKillsKey}
}
