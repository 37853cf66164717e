// stats.go

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	defaultLeaderboardLimit = 10
	defaultMatchesLimit     = 20
	maxQueryLimit           = 100
)

// LeaderboardReader 排行榜数据源
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, typ models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error)
	GetPlayerRank(ctx context.Context, name string, typ models.LeaderboardType) (int, error)
}

// MatchHistoryReader 对局历史数据源
type MatchHistoryReader interface {
	RecentMatches(ctx context.Context, name string, limit int) ([]models.PlayerMatchRecord, error)
}

// StatsHandler 战绩处理器，任一数据源为 nil 时对应接口返回 503
type StatsHandler struct {
	leaderboard LeaderboardReader
	matches     MatchHistoryReader
	log         *logrus.Entry
}

// NewStatsHandler 创建战绩处理器
func NewStatsHandler(leaderboard LeaderboardReader, matches MatchHistoryReader) *StatsHandler {
	return &StatsHandler{
		leaderboard: leaderboard,
		matches:     matches,
		log:         logger.Component("stats"),
	}
}

// RegisterHandlers 注册HTTP处理器
func (h *StatsHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /stats/leaderboard", h.handleLeaderboard)
	mux.HandleFunc("GET /stats/rank/{name}", h.handlePlayerRank)
	mux.HandleFunc("GET /stats/matches/{name}", h.handlePlayerMatches)
}

// StatsResponse 战绩响应
type StatsResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// PlayerMatchesData 玩家对局数据
type PlayerMatchesData struct {
	Name    string                     `json:"name"`
	Matches []models.PlayerMatchRecord `json:"matches"`
	Limit   int                        `json:"limit"`
}

// PlayerRankData 玩家排名数据，Rank 为 -1 表示未上榜
type PlayerRankData struct {
	Name string                 `json:"name"`
	Type models.LeaderboardType `json:"type"`
	Rank int                    `json:"rank"`
}

// handleLeaderboard 处理排行榜查询
func (h *StatsHandler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		h.sendErrorResponse(w, "排行榜不可用", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query()
	typ, ok := models.ParseLeaderboardType(query.Get("type"))
	if !ok {
		h.sendErrorResponse(w, "无效的排行榜类型", http.StatusBadRequest)
		return
	}
	limit := parseLimit(query.Get("limit"), defaultLeaderboardLimit)

	entries, err := h.leaderboard.GetLeaderboard(r.Context(), typ, limit)
	if err != nil {
		h.log.WithError(err).WithField("type", typ).Error("查询排行榜失败")
		h.sendErrorResponse(w, "查询排行榜失败", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	h.sendSuccessResponse(w, "查询成功", entries)
}

// handlePlayerRank 处理玩家排名查询
func (h *StatsHandler) handlePlayerRank(w http.ResponseWriter, r *http.Request) {
	if h.leaderboard == nil {
		h.sendErrorResponse(w, "排行榜不可用", http.StatusServiceUnavailable)
		return
	}

	name := r.PathValue("name")
	typ, ok := models.ParseLeaderboardType(r.URL.Query().Get("type"))
	if !ok {
		h.sendErrorResponse(w, "无效的排行榜类型", http.StatusBadRequest)
		return
	}

	rank, err := h.leaderboard.GetPlayerRank(r.Context(), name, typ)
	if err != nil {
		h.log.WithError(err).WithField("name", name).Error("查询玩家排名失败")
		h.sendErrorResponse(w, "查询玩家排名失败", http.StatusInternalServerError)
		return
	}
	h.sendSuccessResponse(w, "查询成功", PlayerRankData{Name: name, Type: typ, Rank: rank})
}

// handlePlayerMatches 处理玩家对局历史查询
func (h *StatsHandler) handlePlayerMatches(w http.ResponseWriter, r *http.Request) {
	if h.matches == nil {
		h.sendErrorResponse(w, "对局历史不可用", http.StatusServiceUnavailable)
		return
	}

	name := r.PathValue("name")
	limit := parseLimit(r.URL.Query().Get("limit"), defaultMatchesLimit)

	matches, err := h.matches.RecentMatches(r.Context(), name, limit)
	if err != nil {
		h.log.WithError(err).WithField("name", name).Error("查询玩家对局历史失败")
		h.sendErrorResponse(w, "查询对局历史失败", http.StatusInternalServerError)
		return
	}
	if matches == nil {
		matches = []models.PlayerMatchRecord{}
	}
	h.sendSuccessResponse(w, "查询成功", &PlayerMatchesData{
		Name:    name,
		Matches: matches,
		Limit:   limit,
	})
}

// parseLimit 解析 limit 参数，非法值回落到默认值
func parseLimit(s string, def int) int {
	if s == "" {
		return def
	}
	l, err := strconv.Atoi(s)
	if err != nil || l <= 0 {
		return def
	}
	return min(l, maxQueryLimit)
}

// sendSuccessResponse 发送成功响应
func (h *StatsHandler) sendSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	h.writeResponse(w, http.StatusOK, StatsResponse{Success: true, Message: message, Data: data})
}

// sendErrorResponse 发送错误响应
func (h *StatsHandler) sendErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	h.writeResponse(w, statusCode, StatsResponse{Success: false, Message: message})
}

func (h *StatsHandler) writeResponse(w http.ResponseWriter, statusCode int, resp StatsResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.WithError(err).Warn("编码响应失败")
	}
}
