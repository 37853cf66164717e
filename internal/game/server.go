package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	// 房间清理间隔
	cleanupInterval = 10 * time.Second
	// 创建房间时脚本的最大字节数
	maxScriptSize = 1 << 20
)

// GameServer 游戏服务器：房间管理与观战接口
type GameServer struct {
	config     *config.Config
	rooms      map[string]*Room
	roomsMutex sync.RWMutex
	httpServer *http.Server
	tokens     *TokenIssuer
	recorder   ResultRecorder

	// 关闭信号
	shutdown  chan struct{}
	isRunning bool
	log       *logrus.Entry
}

// CreateRoomResponse 创建房间的返回
type CreateRoomResponse struct {
	Room  models.RoomInfo `json:"room"`
	Token string          `json:"token"`
}

// RoomDetail 房间详情，包含当前判定结果
type RoomDetail struct {
	models.RoomInfo
	Outcome Outcome `json:"outcome"`
}

// NewGameServer 创建新的游戏服务器，recorder 可以为 nil
func NewGameServer(cfg *config.Config, recorder ResultRecorder) *GameServer {
	return &GameServer{
		config:   cfg,
		rooms:    make(map[string]*Room),
		tokens:   NewTokenIssuer(cfg.Spectator.TokenSecret, cfg.Spectator.TokenTTL),
		recorder: recorder,
		shutdown: make(chan struct{}),
		log:      logger.Component("game_server"),
	}
}

// Start 启动游戏服务器
func (s *GameServer) Start() error {
	if s.isRunning {
		return fmt.Errorf("服务器已经在运行")
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Server.GamePort),
		Handler: s.Handler(),
	}

	go func() {
		s.log.WithField("port", s.config.Server.GamePort).Info("游戏服务器启动")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.WithError(err).Fatal("HTTP服务器错误")
		}
	}()

	go s.roomManager()

	s.isRunning = true
	return nil
}

// Stop 停止游戏服务器
func (s *GameServer) Stop() error {
	if !s.isRunning {
		return nil
	}

	close(s.shutdown)

	s.roomsMutex.Lock()
	for _, room := range s.rooms {
		room.Stop()
	}
	s.roomsMutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP服务器关闭错误: %w", err)
	}

	s.isRunning = false
	s.log.Info("游戏服务器已停止")
	return nil
}

// Handler 创建HTTP处理器
func (s *GameServer) Handler() http.Handler {
	mux := http.NewServeMux()

	// 观战 WebSocket 端点
	mux.HandleFunc("/ws", s.handleWSConnection)

	mux.HandleFunc("GET /rooms", s.handleListRooms)
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}", s.handleGetRoom)

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

// roomManager 房间管理器
func (s *GameServer) roomManager() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			s.cleanupRooms(now)
		case <-s.shutdown:
			return
		}
	}
}

// cleanupRooms 清理结束或空闲的房间
func (s *GameServer) cleanupRooms(now time.Time) {
	s.roomsMutex.Lock()
	defer s.roomsMutex.Unlock()

	for id, room := range s.rooms {
		if room.ShouldCleanup(now) {
			s.log.WithField("room_id", id).Info("清理房间")
			room.Stop()
			delete(s.rooms, id)
		}
	}
}

// CreateRoom 按脚本创建房间并启动
func (s *GameServer) CreateRoom(script *InputScript) (*Room, error) {
	s.roomsMutex.Lock()
	defer s.roomsMutex.Unlock()

	if limit := s.config.Server.MaxRoomCount; limit > 0 && len(s.rooms) >= limit {
		return nil, ErrRoomFull
	}

	room, err := NewRoom(script, s.config.Game, s.config.Server.TickRate, s.recorder)
	if err != nil {
		return nil, err
	}
	s.rooms[room.ID] = room

	if err := room.Start(); err != nil {
		delete(s.rooms, room.ID)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"room_id": room.ID,
		"name":    room.Name,
		"players": len(script.Players),
	}).Info("创建房间")
	return room, nil
}

// GetRoom 获取房间
func (s *GameServer) GetRoom(roomID string) (*Room, bool) {
	s.roomsMutex.RLock()
	defer s.roomsMutex.RUnlock()

	room, exists := s.rooms[roomID]
	return room, exists
}

// ListRooms 列出所有房间，按创建时间排序
func (s *GameServer) ListRooms() []*Room {
	s.roomsMutex.RLock()
	rooms := make([]*Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, room)
	}
	s.roomsMutex.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// handleListRooms 房间列表
func (s *GameServer) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.ListRooms()
	infos := make([]models.RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	writeJSON(w, http.StatusOK, infos)
}

// handleCreateRoom 上传脚本创建房间，返回房间信息和观战令牌
func (s *GameServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxScriptSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "读取请求失败")
		return
	}

	script, err := ParseInputScript(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	room, err := s.CreateRoom(script)
	switch {
	case errors.Is(err, ErrRoomFull):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, ErrInvalidScript):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.WithError(err).Error("创建房间失败")
		writeError(w, http.StatusInternalServerError, "创建房间失败")
		return
	}

	token, err := s.tokens.Issue(room.ID)
	if err != nil {
		s.log.WithError(err).Error("签发观战令牌失败")
		writeError(w, http.StatusInternalServerError, "签发观战令牌失败")
		return
	}

	writeJSON(w, http.StatusCreated, CreateRoomResponse{Room: room.Info(), Token: token})
}

// handleGetRoom 房间详情
func (s *GameServer) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, ok := s.GetRoom(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, ErrRoomNotFound.Error())
		return
	}
	writeJSON(w, http.StatusOK, RoomDetail{RoomInfo: room.Info(), Outcome: room.Outcome()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
