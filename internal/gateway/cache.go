package gateway

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// CacheEntry 缓存条目
type CacheEntry struct {
	Data        []byte
	ContentType string
	ExpiresAt   time.Time
	ETag        string
}

// MemoryCache 内存缓存
type MemoryCache struct {
	entries map[string]*CacheEntry
	mutex   sync.RWMutex
	now     func() time.Time

	// 配置
	MaxEntries      int
	CleanupInterval time.Duration
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(maxEntries int) *MemoryCache {
	return &MemoryCache{
		entries:         make(map[string]*CacheEntry),
		now:             time.Now,
		MaxEntries:      maxEntries,
		CleanupInterval: time.Minute,
	}
}

// CacheMiddleware 缓存中间件，只缓存 GET 的 200 响应
type CacheMiddleware struct {
	cache *MemoryCache

	// 路径前缀 -> 缓存时间，未列出的路径不缓存
	CacheTTL map[string]time.Duration
}

// NewCacheMiddleware 创建缓存中间件
func NewCacheMiddleware(cache *MemoryCache) *CacheMiddleware {
	return &CacheMiddleware{
		cache: cache,
		CacheTTL: map[string]time.Duration{
			"/stats/leaderboard": 30 * time.Second,
			"/stats/rank/":       30 * time.Second,
			"/stats/matches/":    time.Minute,
		},
	}
}

// Middleware 缓存中间件
func (cm *CacheMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ttl, ok := cm.ttlFor(r.URL.Path)
		if r.Method != http.MethodGet || !ok {
			next.ServeHTTP(w, r)
			return
		}

		key := cacheKey(r)
		if entry := cm.cache.Get(key); entry != nil {
			if r.Header.Get("If-None-Match") == entry.ETag {
				w.Header().Set("ETag", entry.ETag)
				w.WriteHeader(http.StatusNotModified)
				return
			}
			writeCached(w, entry, "HIT")
			return
		}

		recorder := &cacheResponseRecorder{header: make(http.Header), statusCode: http.StatusOK}
		next.ServeHTTP(recorder, r)

		if recorder.statusCode != http.StatusOK || recorder.body.Len() == 0 {
			recorder.flush(w)
			return
		}

		entry := &CacheEntry{
			Data:        recorder.body.Bytes(),
			ContentType: recorder.header.Get("Content-Type"),
			ExpiresAt:   cm.cache.now().Add(ttl),
			ETag:        generateETag(recorder.body.Bytes()),
		}
		cm.cache.Set(key, entry)

		w.Header().Set("Cache-Control", fmt.Sprintf("max-age=%d", int(ttl.Seconds())))
		writeCached(w, entry, "MISS")
	})
}

// ttlFor 按路径前缀查找缓存时间
func (cm *CacheMiddleware) ttlFor(path string) (time.Duration, bool) {
	for prefix, ttl := range cm.CacheTTL {
		if strings.HasPrefix(path, prefix) {
			return ttl, true
		}
	}
	return 0, false
}

// cacheKey 使用路径和查询参数生成键
func cacheKey(r *http.Request) string {
	if r.URL.RawQuery != "" {
		return r.URL.Path + "?" + r.URL.RawQuery
	}
	return r.URL.Path
}

// generateETag 生成ETag
func generateETag(data []byte) string {
	return fmt.Sprintf(`"%x"`, md5.Sum(data))
}

// writeCached 写入缓存的响应
func writeCached(w http.ResponseWriter, entry *CacheEntry, status string) {
	if entry.ContentType != "" {
		w.Header().Set("Content-Type", entry.ContentType)
	}
	w.Header().Set("ETag", entry.ETag)
	w.Header().Set("X-Cache", status)
	w.WriteHeader(http.StatusOK)
	w.Write(entry.Data)
}

// Get 获取缓存条目，过期条目视为不存在
func (mc *MemoryCache) Get(key string) *CacheEntry {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	entry, exists := mc.entries[key]
	if !exists || mc.now().After(entry.ExpiresAt) {
		return nil
	}
	return entry
}

// Set 设置缓存条目
func (mc *MemoryCache) Set(key string, entry *CacheEntry) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if len(mc.entries) >= mc.MaxEntries {
		mc.evictExpired()
		if len(mc.entries) >= mc.MaxEntries {
			mc.evictOldest()
		}
	}
	mc.entries[key] = entry
}

// Len 当前条目数
func (mc *MemoryCache) Len() int {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()
	return len(mc.entries)
}

// evictExpired 删除过期条目
func (mc *MemoryCache) evictExpired() {
	now := mc.now()
	for key, entry := range mc.entries {
		if now.After(entry.ExpiresAt) {
			delete(mc.entries, key)
		}
	}
}

// evictOldest 删除最早过期的条目
func (mc *MemoryCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range mc.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.ExpiresAt
		}
	}
	if oldestKey != "" {
		delete(mc.entries, oldestKey)
	}
}

// cleanup 定期清理过期条目，直到 done 关闭
func (mc *MemoryCache) cleanup(done <-chan struct{}) {
	ticker := time.NewTicker(mc.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			mc.mutex.Lock()
			mc.evictExpired()
			mc.mutex.Unlock()
		case <-done:
			return
		}
	}
}

// cacheResponseRecorder 缓冲下游响应，由中间件决定如何写出
type cacheResponseRecorder struct {
	header     http.Header
	statusCode int
	body       bytes.Buffer
}

func (crr *cacheResponseRecorder) Header() http.Header { return crr.header }

func (crr *cacheResponseRecorder) WriteHeader(code int) { crr.statusCode = code }

func (crr *cacheResponseRecorder) Write(data []byte) (int, error) {
	return crr.body.Write(data)
}

// flush 原样写出未缓存的响应
func (crr *cacheResponseRecorder) flush(w http.ResponseWriter) {
	for k, v := range crr.header {
		w.Header()[k] = v
	}
	w.WriteHeader(crr.statusCode)
	w.Write(crr.body.Bytes())
}
