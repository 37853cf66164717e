// match_store.go

package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrDuplicateMatch 对局ID已存在
var ErrDuplicateMatch = errors.New("对局记录已存在")

// pqUniqueViolation PostgreSQL 唯一约束冲突
const pqUniqueViolation = "23505"

// MatchStore 对局记录的PostgreSQL存储
type MatchStore struct {
	db *sql.DB
}

// NewMatchStore 创建对局存储
func NewMatchStore(db *sql.DB) *MatchStore {
	return &MatchStore{db: db}
}

// SaveMatch 在一个事务中写入对局和所有玩家记录
func (s *MatchStore) SaveMatch(ctx context.Context, result *MatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("开始事务失败: %w", err)
	}
	defer tx.Rollback()

	m := result.Match
	_, err = tx.ExecContext(ctx, `
		INSERT INTO match_records (id, room_name, start_time, end_time, grid_width, grid_height, ticks, winner, reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		m.ID, m.RoomName, m.StartTime, m.EndTime, m.GridWidth, m.GridHeight, m.Ticks, m.Winner, m.Reason,
	)
	if err != nil {
		return translateError(err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO player_match_records (
			match_id, slot, name, stock_left, winner,
			walls_built, walls_filled, walls_destroyed, walls_lost, walls_launched,
			kills, deaths, territory
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return fmt.Errorf("准备语句失败: %w", err)
	}
	defer stmt.Close()

	for _, p := range result.Players {
		_, err := stmt.ExecContext(ctx,
			m.ID, p.Slot, p.Name, p.StockLeft, p.Winner,
			p.WallsBuilt, p.WallsFilled, p.WallsDestroyed, p.WallsLost, p.WallsLaunched,
			p.Kills, p.Deaths, p.Territory,
		)
		if err != nil {
			return translateError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("提交事务失败: %w", err)
	}
	return nil
}

// RecentMatches 查询玩家最近的对局记录
func (s *MatchStore) RecentMatches(ctx context.Context, name string, limit int) ([]PlayerMatchRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.match_id, p.slot, p.name, p.stock_left, p.winner,
			p.walls_built, p.walls_filled, p.walls_destroyed, p.walls_lost, p.walls_launched,
			p.kills, p.deaths, p.territory
		FROM player_match_records p
		JOIN match_records m ON m.id = p.match_id
		WHERE p.name = $1
		ORDER BY m.end_time DESC
		LIMIT $2`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("查询对局记录失败: %w", err)
	}
	defer rows.Close()

	var records []PlayerMatchRecord
	for rows.Next() {
		var r PlayerMatchRecord
		if err := rows.Scan(
			&r.MatchID, &r.Slot, &r.Name, &r.StockLeft, &r.Winner,
			&r.WallsBuilt, &r.WallsFilled, &r.WallsDestroyed, &r.WallsLost, &r.WallsLaunched,
			&r.Kills, &r.Deaths, &r.Territory,
		); err != nil {
			return nil, fmt.Errorf("读取对局记录失败: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// translateError 把唯一约束冲突映射为 ErrDuplicateMatch
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicateMatch, pqErr.Constraint)
	}
	return fmt.Errorf("写入对局记录失败: %w", err)
}
