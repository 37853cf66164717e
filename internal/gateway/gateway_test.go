package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

type fakeLeaderboard struct {
	mu      sync.Mutex
	calls   int
	entries []models.LeaderboardEntry
	ranks   map[string]int
	err     error
}

func (f *fakeLeaderboard) GetLeaderboard(ctx context.Context, typ models.LeaderboardType, limit int) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[:min(limit, len(f.entries))], nil
}

func (f *fakeLeaderboard) GetPlayerRank(ctx context.Context, name string, typ models.LeaderboardType) (int, error) {
	if rank, ok := f.ranks[name]; ok {
		return rank, nil
	}
	return -1, nil
}

type fakeHistory struct {
	lastName  string
	lastLimit int
	records   []models.PlayerMatchRecord
	err       error
}

func (f *fakeHistory) RecentMatches(ctx context.Context, name string, limit int) ([]models.PlayerMatchRecord, error) {
	f.lastName, f.lastLimit = name, limit
	return f.records, f.err
}

func newTestGateway(lb LeaderboardReader, mh MatchHistoryReader) http.Handler {
	cfg := &config.Config{}
	return NewGateway(cfg, lb, mh).Handler()
}

func get(t *testing.T, h http.Handler, target string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) StatsResponse {
	t.Helper()
	resp := StatsResponse{Data: data}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func TestLeaderboardCached(t *testing.T) {
	lb := &fakeLeaderboard{entries: []models.LeaderboardEntry{
		{Name: "alice", Score: 30, Rank: 1},
		{Name: "bob", Score: 12, Rank: 2},
	}}
	h := newTestGateway(lb, nil)

	first := get(t, h, "/stats/leaderboard?type=territory&limit=1", nil)
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first = %d %q", first.Code, first.Header().Get("X-Cache"))
	}
	var entries []models.LeaderboardEntry
	resp := decodeResponse(t, first, &entries)
	if !resp.Success || len(entries) != 1 || entries[0].Name != "alice" {
		t.Errorf("entries = %+v", entries)
	}

	second := get(t, h, "/stats/leaderboard?type=territory&limit=1", nil)
	if second.Header().Get("X-Cache") != "HIT" || second.Body.String() != first.Body.String() {
		t.Errorf("second X-Cache = %q", second.Header().Get("X-Cache"))
	}
	if lb.calls != 1 {
		t.Errorf("leaderboard queried %d times, want 1", lb.calls)
	}

	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("missing ETag")
	}
	notModified := get(t, h, "/stats/leaderboard?type=territory&limit=1", map[string]string{"If-None-Match": etag})
	if notModified.Code != http.StatusNotModified || notModified.Body.Len() != 0 {
		t.Errorf("If-None-Match = %d", notModified.Code)
	}
}

func TestLeaderboardErrors(t *testing.T) {
	tests := []struct {
		name   string
		lb     LeaderboardReader
		target string
		status int
	}{
		{"unknown type", &fakeLeaderboard{}, "/stats/leaderboard?type=kda", http.StatusBadRequest},
		{"unavailable", nil, "/stats/leaderboard", http.StatusServiceUnavailable},
		{"redis error", &fakeLeaderboard{err: errors.New("down")}, "/stats/leaderboard", http.StatusInternalServerError},
		{"rank unavailable", nil, "/stats/rank/alice", http.StatusServiceUnavailable},
		{"history unavailable", &fakeLeaderboard{}, "/stats/matches/alice", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestGateway(tt.lb, nil)
			rec := get(t, h, tt.target, nil)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if rec.Header().Get("X-Cache") != "" {
				t.Error("error response was cached")
			}
			if resp := decodeResponse(t, rec, nil); resp.Success || resp.Message == "" {
				t.Errorf("resp = %+v", resp)
			}
		})
	}
}

func TestPlayerRank(t *testing.T) {
	h := newTestGateway(&fakeLeaderboard{ranks: map[string]int{"alice": 3}}, nil)

	var data PlayerRankData
	decodeResponse(t, get(t, h, "/stats/rank/alice?type=wins", nil), &data)
	if data.Rank != 3 || data.Type != models.LeaderboardWins || data.Name != "alice" {
		t.Errorf("rank = %+v", data)
	}

	decodeResponse(t, get(t, h, "/stats/rank/nobody", nil), &data)
	if data.Rank != -1 || data.Type != models.LeaderboardTerritory {
		t.Errorf("unranked = %+v", data)
	}
}

func TestPlayerMatches(t *testing.T) {
	history := &fakeHistory{records: []models.PlayerMatchRecord{
		{MatchID: "m1", Slot: 0, Name: "alice", Winner: true},
	}}
	h := newTestGateway(nil, history)

	var data PlayerMatchesData
	rec := get(t, h, "/stats/matches/alice?limit=500", nil)
	decodeResponse(t, rec, &data)
	if rec.Code != http.StatusOK || len(data.Matches) != 1 || data.Matches[0].MatchID != "m1" {
		t.Errorf("matches = %d %+v", rec.Code, data)
	}
	if history.lastName != "alice" || history.lastLimit != maxQueryLimit || data.Limit != maxQueryLimit {
		t.Errorf("query = %q limit %d", history.lastName, history.lastLimit)
	}

	history.err = errors.New("db down")
	if rec := get(t, h, "/stats/matches/bob", nil); rec.Code != http.StatusInternalServerError {
		t.Errorf("db error status = %d", rec.Code)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 7},
		{"abc", 7},
		{"-3", 7},
		{"0", 7},
		{"15", 15},
		{"1000", maxQueryLimit},
	}
	for _, tt := range tests {
		if got := parseLimit(tt.in, 7); got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestHealthAndCORS(t *testing.T) {
	h := newTestGateway(nil, nil)

	rec := get(t, h, "/health", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Errorf("health = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("missing security headers")
	}

	req := httptest.NewRequest(http.MethodOptions, "/stats/leaderboard", nil)
	pre := httptest.NewRecorder()
	h.ServeHTTP(pre, req)
	if pre.Code != http.StatusNoContent || pre.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", pre.Code, pre.Header())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	call := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if call("1.1.1.1") != http.StatusOK || call("1.1.1.1") != http.StatusOK {
		t.Fatal("requests under the limit rejected")
	}
	if code := call("1.1.1.1"); code != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", code)
	}
	if code := call("2.2.2.2"); code != http.StatusOK {
		t.Errorf("other client = %d, want 200", code)
	}

	now = now.Add(time.Minute + time.Second)
	if code := call("1.1.1.1"); code != http.StatusOK {
		t.Errorf("after window = %d, want 200", code)
	}

	rl.evictIdle(now.Add(time.Second))
	if len(rl.clients) != 0 {
		t.Errorf("%d clients left after eviction", len(rl.clients))
	}
}

func TestMemoryCacheEviction(t *testing.T) {
	c := NewMemoryCache(2)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", &CacheEntry{ExpiresAt: now.Add(time.Second)})
	c.Set("b", &CacheEntry{ExpiresAt: now.Add(time.Minute)})
	c.Set("c", &CacheEntry{ExpiresAt: now.Add(time.Minute)})

	if c.Len() != 2 || c.Get("a") != nil || c.Get("c") == nil {
		t.Errorf("len = %d, a evicted = %v", c.Len(), c.Get("a") == nil)
	}

	now = now.Add(2 * time.Minute)
	if c.Get("b") != nil {
		t.Error("expired entry returned")
	}
}
