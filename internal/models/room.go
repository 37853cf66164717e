package models

import (
	"time"
)

// RoomStatus 房间状态
type RoomStatus string

const (
	// RoomWaiting 等待中
	RoomWaiting RoomStatus = "waiting"
	// RoomPlaying 游戏中
	RoomPlaying RoomStatus = "playing"
	// RoomEnded 已结束
	RoomEnded RoomStatus = "ended"
)

// RoomInfo 房间概要，用于列表接口
type RoomInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Status     RoomStatus `json:"status"`
	Players    []string   `json:"players"`
	Spectators int        `json:"spectators"`
	Tick       int64      `json:"tick"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  time.Time  `json:"started_at,omitempty"`
	EndedAt    time.Time  `json:"ended_at,omitempty"`
	GridWidth  int        `json:"grid_width"`
	GridHeight int        `json:"grid_height"`
}
