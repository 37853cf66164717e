package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/pkg/logger"
	"github.com/sirupsen/logrus"
)

const (
	requestsPerMinute = 120
	maxCacheEntries   = 1000
	shutdownTimeout   = 5 * time.Second
)

// Gateway 战绩查询服务
type Gateway struct {
	config     *config.Config
	stats      *StatsHandler
	limiter    *RateLimiter
	cache      *MemoryCache
	httpServer *http.Server
	isRunning  bool
	shutdown   chan struct{}
	log        *logrus.Entry
}

// NewGateway 创建战绩服务，数据源可以为 nil
func NewGateway(cfg *config.Config, leaderboard LeaderboardReader, matches MatchHistoryReader) *Gateway {
	return &Gateway{
		config:   cfg,
		stats:    NewStatsHandler(leaderboard, matches),
		limiter:  NewRateLimiter(requestsPerMinute),
		cache:    NewMemoryCache(maxCacheEntries),
		shutdown: make(chan struct{}),
		log:      logger.Component("gateway"),
	}
}

// Start 启动服务
func (g *Gateway) Start() error {
	if g.isRunning {
		return fmt.Errorf("战绩服务已经在运行")
	}

	g.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", g.config.Server.StatsPort),
		Handler:           g.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go g.limiter.cleanup(g.shutdown)
	go g.cache.cleanup(g.shutdown)

	go func() {
		g.log.WithField("port", g.config.Server.StatsPort).Info("战绩服务启动")
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.log.WithError(err).Error("HTTP服务器错误")
		}
	}()

	g.isRunning = true
	return nil
}

// Stop 停止服务
func (g *Gateway) Stop() error {
	if !g.isRunning {
		return nil
	}
	close(g.shutdown)
	g.isRunning = false

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := g.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("关闭战绩服务失败: %w", err)
	}
	g.log.Info("战绩服务已停止")
	return nil
}

// Handler 返回带中间件的HTTP处理器
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	g.stats.RegisterHandlers(mux)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return g.applyMiddleware(mux)
}

// applyMiddleware 按顺序应用中间件（从外到内）
func (g *Gateway) applyMiddleware(handler http.Handler) http.Handler {
	handler = NewCacheMiddleware(g.cache).Middleware(handler)
	handler = g.limiter.Middleware(handler)
	handler = NewCORSMiddleware().Middleware(handler)
	handler = securityHeaders(handler)
	handler = loggingMiddleware(handler)
	return handler
}
