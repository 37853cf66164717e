package game

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jacl-coder/WallStorm-Server/config"
	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

const longScript = `{
	"name": "long",
	"players": [{"name": "alice", "x": 0, "y": 0}, {"name": "bob", "x": 4, "y": 4}],
	"max_ticks": 100000
}`

func newTestServer(t *testing.T, maxRooms int) (*GameServer, *httptest.Server) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.TickRate = 8
	cfg.Server.MaxRoomCount = maxRooms
	cfg.Game = testRules(5, 5)
	cfg.Spectator.TokenSecret = "test-secret"
	cfg.Spectator.TokenTTL = time.Minute

	srv := NewGameServer(cfg, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		for _, room := range srv.ListRooms() {
			room.Stop()
		}
	})
	return srv, ts
}

func createRoom(t *testing.T, ts *httptest.Server, script string) (*http.Response, CreateRoomResponse) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/rooms", "application/json", strings.NewReader(script))
	if err != nil {
		t.Fatalf("POST /rooms: %v", err)
	}
	defer resp.Body.Close()

	var body CreateRoomResponse
	if resp.StatusCode == http.StatusCreated {
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp, body
}

func TestServerHealth(t *testing.T) {
	_, ts := newTestServer(t, 4)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "OK" {
		t.Errorf("health = %d %q", resp.StatusCode, body)
	}
}

func TestServerCreateAndListRooms(t *testing.T) {
	_, ts := newTestServer(t, 4)

	resp, created := createRoom(t, ts, longScript)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	if created.Token == "" || created.Room.Name != "long" || created.Room.Status != models.RoomPlaying {
		t.Errorf("created = %+v", created)
	}

	listResp, err := http.Get(ts.URL + "/rooms")
	if err != nil {
		t.Fatal(err)
	}
	defer listResp.Body.Close()
	var rooms []models.RoomInfo
	if err := json.NewDecoder(listResp.Body).Decode(&rooms); err != nil {
		t.Fatal(err)
	}
	if len(rooms) != 1 || rooms[0].ID != created.Room.ID {
		t.Errorf("rooms = %+v", rooms)
	}

	detailResp, err := http.Get(ts.URL + "/rooms/" + created.Room.ID)
	if err != nil {
		t.Fatal(err)
	}
	defer detailResp.Body.Close()
	var detail RoomDetail
	if err := json.NewDecoder(detailResp.Body).Decode(&detail); err != nil {
		t.Fatal(err)
	}
	if detail.ID != created.Room.ID || len(detail.Players) != 2 {
		t.Errorf("detail = %+v", detail)
	}

	missing, err := http.Get(ts.URL + "/rooms/nope")
	if err != nil {
		t.Fatal(err)
	}
	missing.Body.Close()
	if missing.StatusCode != http.StatusNotFound {
		t.Errorf("missing room status = %d, want 404", missing.StatusCode)
	}
}

func TestServerCreateRoomErrors(t *testing.T) {
	_, ts := newTestServer(t, 1)

	if resp, _ := createRoom(t, ts, `{"players": []}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid script status = %d, want 400", resp.StatusCode)
	}
	if resp, _ := createRoom(t, ts, `{"players": [{"x": 9, "y": 9}]}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("spawn outside grid status = %d, want 400", resp.StatusCode)
	}
	if resp, _ := createRoom(t, ts, longScript); resp.StatusCode != http.StatusCreated {
		t.Fatalf("first room status = %d, want 201", resp.StatusCode)
	}
	if resp, _ := createRoom(t, ts, longScript); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("room limit status = %d, want 503", resp.StatusCode)
	}
}

func TestServerCleanupRemovesEndedRooms(t *testing.T) {
	srv, ts := newTestServer(t, 4)
	_, created := createRoom(t, ts, longScript)

	room, ok := srv.GetRoom(created.Room.ID)
	if !ok {
		t.Fatal("room not registered")
	}
	room.Stop()

	srv.cleanupRooms(time.Now())
	if _, ok := srv.GetRoom(room.ID); !ok {
		t.Error("room removed before retention period")
	}
	srv.cleanupRooms(time.Now().Add(endedRoomTTL + time.Second))
	if _, ok := srv.GetRoom(room.ID); ok {
		t.Error("ended room not cleaned up")
	}
}

func wsURL(ts *httptest.Server, roomID, token, format string) string {
	q := url.Values{}
	q.Set("room_id", roomID)
	q.Set("token", token)
	if format != "" {
		q.Set("format", format)
	}
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + q.Encode()
}

func TestSpectatorRejected(t *testing.T) {
	_, ts := newTestServer(t, 4)
	_, created := createRoom(t, ts, longScript)

	tests := []struct {
		name   string
		room   string
		token  string
		status int
	}{
		{"unknown room", "nope", created.Token, http.StatusNotFound},
		{"bad token", created.Room.ID, "bad", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := websocket.DefaultDialer.Dial(wsURL(ts, tt.room, tt.token, ""), nil)
			if err == nil {
				t.Fatal("dial succeeded")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Errorf("response = %v, want status %d", resp, tt.status)
			}
		})
	}
}

func TestSpectatorReceivesFrames(t *testing.T) {
	_, ts := newTestServer(t, 4)
	_, created := createRoom(t, ts, longScript)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, created.Room.ID, created.Token, ""), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var welcome Message
	if err := conn.ReadJSON(&welcome); err != nil {
		t.Fatalf("read welcome: %v", err)
	}
	if welcome.Type != MessageWelcome {
		t.Errorf("first message type = %q, want welcome", welcome.Type)
	}

	var msg Message
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(msg.Payload, &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if msg.Type != MessageSnapshot || snap.RoomID != created.Room.ID || len(snap.Players) != 2 {
		t.Errorf("snapshot message = %s %+v", msg.Type, snap)
	}
}

func TestSpectatorBinaryFrames(t *testing.T) {
	_, ts := newTestServer(t, 4)
	_, created := createRoom(t, ts, longScript)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(ts, created.Room.ID, created.Token, "binary"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if typ, _, err := conn.ReadMessage(); err != nil || typ != websocket.TextMessage {
		t.Fatalf("welcome: type %d err %v", typ, err)
	}
	typ, data, err := conn.ReadMessage()
	if err != nil || typ != websocket.BinaryMessage {
		t.Fatalf("snapshot: type %d err %v", typ, err)
	}
	snap, err := DecodeSnapshot(data)
	if err != nil {
		t.Fatalf("DecodeSnapshot: %v", err)
	}
	if snap.RoomID != created.Room.ID {
		t.Errorf("RoomID = %q, want %q", snap.RoomID, created.Room.ID)
	}
}
