// config.go

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 服务器配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Spectator SpectatorConfig `mapstructure:"spectator"`
}

// ServerConfig 服务器基本配置
type ServerConfig struct {
	GamePort     int    `mapstructure:"game_port"`
	StatsPort    int    `mapstructure:"stats_port"`
	Debug        bool   `mapstructure:"debug"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	MaxRoomCount int    `mapstructure:"max_room_count"`
	TickRate     int    `mapstructure:"tick_rate"`
}

// GameConfig 对局规则配置，所有时间单位为模拟秒
type GameConfig struct {
	GridWidth             int     `mapstructure:"grid_width"`
	GridHeight            int     `mapstructure:"grid_height"`
	MaxPlayers            int     `mapstructure:"max_players"`
	WallRiseTime          float64 `mapstructure:"wall_rise_time"`
	WallFallTime          float64 `mapstructure:"wall_fall_time"`
	WallStrength          int     `mapstructure:"wall_strength"`
	WallMoveSpeed         float64 `mapstructure:"wall_move_speed"`
	BuildAdvanceTime      float64 `mapstructure:"build_advance_time"`
	ProjectileAdvanceTime float64 `mapstructure:"projectile_advance_time"`
	AttackTapTime         float64 `mapstructure:"attack_tap_time"`
	RespawnTime           float64 `mapstructure:"respawn_time"`
	Stock                 int     `mapstructure:"stock"`
	PlayerSpeed           float64 `mapstructure:"player_speed"`
	MeleeStrength         int     `mapstructure:"melee_strength"`
	FillToWin             float64 `mapstructure:"fill_to_win"`
	TimeLimit             float64 `mapstructure:"time_limit"`
	Seed                  int64   `mapstructure:"seed"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SpectatorConfig 观战令牌配置
type SpectatorConfig struct {
	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

var (
	// GlobalConfig 全局配置实例，仅供 main 使用；模拟层通过构造函数接收配置
	GlobalConfig Config
)

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("无法读取配置文件: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("无法解析配置文件: %w", err)
	}

	if err := cfg.Game.Validate(); err != nil {
		return fmt.Errorf("对局配置无效: %w", err)
	}
	if err := cfg.Game.ValidateStep(cfg.Server.TickRate); err != nil {
		return fmt.Errorf("对局配置无效: %w", err)
	}

	GlobalConfig = cfg
	return nil
}

// setDefaults 注册默认值，缺失的键不会被解析为零值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.game_port", 8081)
	v.SetDefault("server.stats_port", 8082)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "text")
	v.SetDefault("server.max_room_count", 64)
	v.SetDefault("server.tick_rate", 60)

	game := DefaultGameConfig()
	v.SetDefault("game.grid_width", game.GridWidth)
	v.SetDefault("game.grid_height", game.GridHeight)
	v.SetDefault("game.max_players", game.MaxPlayers)
	v.SetDefault("game.wall_rise_time", game.WallRiseTime)
	v.SetDefault("game.wall_fall_time", game.WallFallTime)
	v.SetDefault("game.wall_strength", game.WallStrength)
	v.SetDefault("game.wall_move_speed", game.WallMoveSpeed)
	v.SetDefault("game.build_advance_time", game.BuildAdvanceTime)
	v.SetDefault("game.projectile_advance_time", game.ProjectileAdvanceTime)
	v.SetDefault("game.attack_tap_time", game.AttackTapTime)
	v.SetDefault("game.respawn_time", game.RespawnTime)
	v.SetDefault("game.stock", game.Stock)
	v.SetDefault("game.player_speed", game.PlayerSpeed)
	v.SetDefault("game.melee_strength", game.MeleeStrength)
	v.SetDefault("game.fill_to_win", game.FillToWin)
	v.SetDefault("game.time_limit", game.TimeLimit)
	v.SetDefault("game.seed", game.Seed)

	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("spectator.token_ttl", time.Hour)
}

// DefaultGameConfig 返回默认对局规则
func DefaultGameConfig() GameConfig {
	return GameConfig{
		GridWidth:             10,
		GridHeight:            10,
		MaxPlayers:            4,
		WallRiseTime:          0.7,
		WallFallTime:          0.7,
		WallStrength:          3,
		WallMoveSpeed:         10,
		BuildAdvanceTime:      0.3,
		ProjectileAdvanceTime: 0.3,
		AttackTapTime:         0.15,
		RespawnTime:           3,
		Stock:                 10,
		PlayerSpeed:           5,
		MeleeStrength:         1,
		FillToWin:             0.8,
		TimeLimit:             300,
		Seed:                  1,
	}
}

// Validate 检查对局配置
func (c GameConfig) Validate() error {
	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		return fmt.Errorf("网格尺寸必须为正数: %dx%d", c.GridWidth, c.GridHeight)
	}
	if c.MaxPlayers <= 0 {
		return errors.New("最大玩家数必须为正数")
	}
	if c.WallRiseTime < 0 || c.WallFallTime < 0 || c.BuildAdvanceTime < 0 || c.ProjectileAdvanceTime < 0 {
		return errors.New("墙体计时不能为负数")
	}
	if c.AttackTapTime < 0 || c.RespawnTime < 0 {
		return errors.New("攻击判定和重生时间不能为负数")
	}
	if c.WallStrength <= 0 || c.MeleeStrength <= 0 {
		return errors.New("墙体强度和攻击力必须为正数")
	}
	if c.Stock <= 0 {
		return errors.New("初始命数必须为正数")
	}
	if c.WallMoveSpeed <= 0 || c.PlayerSpeed < 0 {
		return errors.New("移动速度无效")
	}
	if c.FillToWin <= 0 || c.FillToWin > 1 {
		return fmt.Errorf("占领胜利比例必须在 (0, 1] 内: %v", c.FillToWin)
	}
	return nil
}

// ValidateStep 投射墙每帧的位移必须小于一格
func (c GameConfig) ValidateStep(tickRate int) error {
	if tickRate <= 0 {
		return fmt.Errorf("tick_rate 必须大于 0: %d", tickRate)
	}
	if c.WallMoveSpeed >= float64(tickRate) {
		return fmt.Errorf("wall_move_speed %v 在 tick_rate %d 下每帧移动不少于一格", c.WallMoveSpeed, tickRate)
	}
	return nil
}

// GetDSN 获取PostgreSQL连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Enabled 是否配置了数据库
func (c *DatabaseConfig) Enabled() bool {
	return c.Host != ""
}

// GetRedisAddr 获取Redis连接地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled 是否配置了Redis
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}
