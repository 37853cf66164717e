package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("server:\n  game_port: 9000\ngame:\n  grid_width: 16\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := LoadConfig(path); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	cfg := GlobalConfig
	if cfg.Server.GamePort != 9000 {
		t.Errorf("GamePort = %d, want 9000", cfg.Server.GamePort)
	}
	if cfg.Server.TickRate != 60 {
		t.Errorf("TickRate = %d, want default 60", cfg.Server.TickRate)
	}
	if cfg.Game.GridWidth != 16 {
		t.Errorf("GridWidth = %d, want 16", cfg.Game.GridWidth)
	}
	if cfg.Game.GridHeight != 10 {
		t.Errorf("GridHeight = %d, want default 10", cfg.Game.GridHeight)
	}
	if cfg.Game.WallRiseTime != 0.7 {
		t.Errorf("WallRiseTime = %v, want default 0.7", cfg.Game.WallRiseTime)
	}
	if cfg.Spectator.TokenTTL != time.Hour {
		t.Errorf("TokenTTL = %v, want 1h", cfg.Spectator.TokenTTL)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestGameConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *GameConfig)
		wantErr bool
	}{
		{"defaults", func(c *GameConfig) {}, false},
		{"zero width", func(c *GameConfig) { c.GridWidth = 0 }, true},
		{"negative rise", func(c *GameConfig) { c.WallRiseTime = -1 }, true},
		{"zero strength", func(c *GameConfig) { c.WallStrength = 0 }, true},
		{"fill ratio above one", func(c *GameConfig) { c.FillToWin = 1.5 }, true},
		{"negative respawn", func(c *GameConfig) { c.RespawnTime = -1 }, true},
		{"negative tap time", func(c *GameConfig) { c.AttackTapTime = -0.1 }, true},
		{"zero stock", func(c *GameConfig) { c.Stock = 0 }, true},
		{"zero melee strength", func(c *GameConfig) { c.MeleeStrength = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGameConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGameConfigValidateStep(t *testing.T) {
	tests := []struct {
		name     string
		speed    float64
		tickRate int
		wantErr  bool
	}{
		{"defaults", 10, 60, false},
		{"just under one cell", 59.9, 60, false},
		{"one cell per tick", 60, 60, true},
		{"several cells per tick", 20, 8, true},
		{"zero tick rate", 10, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGameConfig()
			cfg.WallMoveSpeed = tt.speed
			if err := cfg.ValidateStep(tt.tickRate); (err != nil) != tt.wantErr {
				t.Errorf("ValidateStep(%d) error = %v, wantErr %v", tt.tickRate, err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigRejectsFastWalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  tick_rate: 8\ngame:\n  wall_move_speed: 8\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := LoadConfig(path); err == nil {
		t.Fatal("LoadConfig accepted one cell per tick")
	}
}
