package db

import "fmt"

// CreateAllTablesSQL 对局记录表结构
const CreateAllTablesSQL = `
-- 对局记录表
CREATE TABLE IF NOT EXISTS match_records (
    id VARCHAR(64) PRIMARY KEY,
    room_name VARCHAR(100) NOT NULL,
    start_time TIMESTAMP WITH TIME ZONE NOT NULL,
    end_time TIMESTAMP WITH TIME ZONE NOT NULL,
    grid_width INT NOT NULL,
    grid_height INT NOT NULL,
    ticks BIGINT NOT NULL,
    winner INT NOT NULL DEFAULT -1, -- -1 表示无胜者
    reason VARCHAR(20) NOT NULL -- territory, last_standing, time_limit
);

-- 玩家对局记录表
CREATE TABLE IF NOT EXISTS player_match_records (
    match_id VARCHAR(64) REFERENCES match_records(id) ON DELETE CASCADE,
    slot INT NOT NULL,
    name VARCHAR(50) NOT NULL,
    stock_left INT NOT NULL DEFAULT 0,
    winner BOOLEAN NOT NULL DEFAULT FALSE,
    walls_built INT NOT NULL DEFAULT 0,
    walls_filled INT NOT NULL DEFAULT 0,
    walls_destroyed INT NOT NULL DEFAULT 0,
    walls_lost INT NOT NULL DEFAULT 0,
    walls_launched INT NOT NULL DEFAULT 0,
    kills INT NOT NULL DEFAULT 0,
    deaths INT NOT NULL DEFAULT 0,
    territory INT NOT NULL DEFAULT 0,
    PRIMARY KEY (match_id, slot)
);

CREATE INDEX IF NOT EXISTS idx_match_records_end_time ON match_records(end_time);
CREATE INDEX IF NOT EXISTS idx_player_match_records_name ON player_match_records(name);
`

// ResetAllTablesSQL 删除所有表（按依赖关系顺序）
const ResetAllTablesSQL = `
DROP TABLE IF EXISTS player_match_records CASCADE;
DROP TABLE IF EXISTS match_records CASCADE;
`

// InitAllTables 初始化所有数据库表
func InitAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}
	_, err := DB.Exec(CreateAllTablesSQL)
	return err
}

// ResetAllTables 删除所有表和数据
func ResetAllTables() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}
	_, err := DB.Exec(ResetAllTablesSQL)
	return err
}
