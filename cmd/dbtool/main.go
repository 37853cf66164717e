// main.go

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/db"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
)

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	action := flag.String("action", "help", "操作类型: reset, init, help")
	flag.Parse()

	if *action == "help" {
		showHelp()
		return
	}

	if err := config.LoadConfig(*configPath); err != nil {
		logger.Log.Fatalf("加载配置失败: %v", err)
	}
	cfg := config.GlobalConfig
	logger.Init(cfg.Server.LogLevel, cfg.Server.LogFormat)
	log := logger.Component("dbtool")

	if err := db.InitPostgres(cfg.Database); err != nil {
		log.Fatalf("初始化PostgreSQL失败: %v", err)
	}
	defer db.Close()

	switch *action {
	case "reset":
		log.Warn("正在重置数据库，这将删除所有对局记录")
		if err := db.ResetAllTables(); err != nil {
			log.Fatalf("重置数据库失败: %v", err)
		}
		resetLeaderboard(cfg)
		log.Info("数据库重置完成")
	case "init":
		if err := db.InitAllTables(); err != nil {
			log.Fatalf("初始化数据库表失败: %v", err)
		}
		log.Info("数据库初始化完成: match_records, player_match_records")
	default:
		log.Fatalf("未知操作: %s", *action)
	}
}

// resetLeaderboard 同时清空Redis排行榜，未配置Redis时跳过
func resetLeaderboard(cfg config.Config) {
	if !cfg.Redis.Enabled() {
		return
	}
	log := logger.Component("dbtool")
	if err := db.InitRedis(cfg.Redis); err != nil {
		log.WithError(err).Warn("Redis不可用，排行榜未清空")
		return
	}
	defer db.CloseRedis()

	if err := models.NewRedisLeaderboard(db.RedisClient).Reset(context.Background()); err != nil {
		log.WithError(err).Warn("清空排行榜失败")
		return
	}
	log.Info("排行榜已清空")
}

// showHelp 显示帮助信息
func showHelp() {
	fmt.Fprintln(os.Stderr, `WallStorm 数据库管理工具

用法:
  dbtool -action=<操作> [-config=<配置文件>]

操作:
  reset  - 删除对局记录表并清空排行榜
  init   - 创建对局记录表
  help   - 显示此帮助信息`)
}
