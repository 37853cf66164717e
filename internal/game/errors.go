package game

import "errors"

var (
	// ErrRoomFull 房间数量已达上限
	ErrRoomFull = errors.New("房间数量已达上限")
	// ErrRoomNotFound 房间不存在
	ErrRoomNotFound = errors.New("房间不存在")
	// ErrRoomRunning 房间已经在运行
	ErrRoomRunning = errors.New("房间已经在运行")
	// ErrInvalidToken 观战令牌无效
	ErrInvalidToken = errors.New("观战令牌无效")
	// ErrInvalidScript 输入脚本无效
	ErrInvalidScript = errors.New("输入脚本无效")
)
