// main.go

package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/game"
	"github.com/jacl-coder/WallStorm-Server/internal/gateway"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/db"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
)

// stopper 可停止的服务
type stopper interface {
	Stop() error
}

func main() {
	// 解析命令行参数
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	serviceType := flag.String("service", "all", "服务类型 (game, stats, all)")
	flag.Parse()

	// 加载配置
	if err := config.LoadConfig(*configPath); err != nil {
		logger.Log.Fatalf("加载配置失败: %v", err)
	}
	cfg := &config.GlobalConfig
	logger.Init(cfg.Server.LogLevel, cfg.Server.LogFormat)
	log := logger.Component("main")

	// 存储是可选的，连接失败时对局照常运行但不落盘
	var matches *models.MatchStore
	if cfg.Database.Enabled() {
		if err := db.InitPostgres(cfg.Database); err != nil {
			log.WithError(err).Warn("PostgreSQL不可用，对局记录不会保存")
		} else {
			defer db.Close()
			matches = models.NewMatchStore(db.DB)
		}
	}

	var leaderboard *models.RedisLeaderboard
	if cfg.Redis.Enabled() {
		if err := db.InitRedis(cfg.Redis); err != nil {
			log.WithError(err).Warn("Redis不可用，排行榜不会更新")
		} else {
			defer db.CloseRedis()
			leaderboard = models.NewRedisLeaderboard(db.RedisClient)
		}
	}

	// 根据服务类型启动不同的服务
	var services []stopper
	switch *serviceType {
	case "game":
		services = append(services, startGameServer(cfg, matches, leaderboard))
	case "stats":
		services = append(services, startStatsServer(cfg, matches, leaderboard))
	case "all":
		services = append(services,
			startGameServer(cfg, matches, leaderboard),
			startStatsServer(cfg, matches, leaderboard),
		)
	default:
		log.Fatalf("未知的服务类型: %s", *serviceType)
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("接收到关闭信号，正在关闭服务器...")
	for i := len(services) - 1; i >= 0; i-- {
		if err := services[i].Stop(); err != nil {
			log.WithError(err).Error("关闭服务失败")
		}
	}
	log.Info("服务器已安全关闭")
}

// startGameServer 启动游戏服务器
func startGameServer(cfg *config.Config, matches *models.MatchStore, leaderboard *models.RedisLeaderboard) stopper {
	var recorder game.ResultRecorder
	if matches != nil || leaderboard != nil {
		recorder = &game.StorageRecorder{Matches: matches, Leaderboard: leaderboard}
	}

	server := game.NewGameServer(cfg, recorder)
	if err := server.Start(); err != nil {
		logger.Log.Fatalf("启动游戏服务器失败: %v", err)
	}
	return server
}

// startStatsServer 启动战绩服务
func startStatsServer(cfg *config.Config, matches *models.MatchStore, leaderboard *models.RedisLeaderboard) stopper {
	// nil 指针不能直接转为接口，否则处理器无法识别数据源缺失
	var lb gateway.LeaderboardReader
	if leaderboard != nil {
		lb = leaderboard
	}
	var mh gateway.MatchHistoryReader
	if matches != nil {
		mh = matches
	}

	server := gateway.NewGateway(cfg, lb, mh)
	if err := server.Start(); err != nil {
		logger.Log.Fatalf("启动战绩服务失败: %v", err)
	}
	return server
}
