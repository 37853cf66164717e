// main.go

package main

import (
	"encoding/json"
	"flag"
	"os"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/game"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/db"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
)

func main() {
	scriptPath := flag.String("script", "", "输入脚本路径")
	configPath := flag.String("config", "", "配置文件路径，为空时使用默认规则")
	limit := flag.Int64("limit", 0, "最大帧数，0 表示只受脚本和规则限制")
	tickRate := flag.Int("tick-rate", 60, "模拟帧率，决定每帧的时间步长")
	save := flag.Bool("save", false, "把结果写入配置中的数据库和排行榜")
	snapshot := flag.Bool("snapshot", false, "输出最终画面而不是对局结果")
	flag.Parse()

	logger.Init("warn", "text")
	log := logger.Component("replay")

	if *scriptPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Config{Game: config.DefaultGameConfig()}
	if *configPath != "" {
		if err := config.LoadConfig(*configPath); err != nil {
			log.Fatalf("加载配置失败: %v", err)
		}
		cfg = config.GlobalConfig
	}

	script, err := game.LoadInputScript(*scriptPath)
	if err != nil {
		log.Fatalf("加载脚本失败: %v", err)
	}

	var recorder game.ResultRecorder
	if *save {
		recorder = openStorage(cfg)
		defer db.Close()
		defer db.CloseRedis()
	}

	room, err := game.NewRoom(script, cfg.Game, *tickRate, recorder)
	if err != nil {
		log.Fatalf("创建房间失败: %v", err)
	}
	outcome := room.RunToEnd(*limit)

	var out interface{} = game.BuildMatchResult(room, outcome)
	if *snapshot {
		out = room.Snapshot()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		log.Fatalf("输出结果失败: %v", err)
	}
}

// openStorage 连接配置中的存储，至少需要一个可用
func openStorage(cfg config.Config) game.ResultRecorder {
	log := logger.Component("replay")
	recorder := &game.StorageRecorder{}

	if cfg.Database.Enabled() {
		if err := db.InitPostgres(cfg.Database); err != nil {
			log.WithError(err).Warn("PostgreSQL不可用")
		} else {
			recorder.Matches = models.NewMatchStore(db.DB)
		}
	}
	if cfg.Redis.Enabled() {
		if err := db.InitRedis(cfg.Redis); err != nil {
			log.WithError(err).Warn("Redis不可用")
		} else {
			recorder.Leaderboard = models.NewRedisLeaderboard(db.RedisClient)
		}
	}

	if recorder.Matches == nil && recorder.Leaderboard == nil {
		log.Fatal("-save 需要可用的数据库或Redis")
	}
	return recorder
}
