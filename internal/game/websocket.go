// websocket.go

package game

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	// 写入超时时间
	writeWait = 10 * time.Second

	// 读取超时时间
	pongWait = 60 * time.Second

	// 发送 ping 的间隔时间
	pingPeriod = (pongWait * 9) / 10

	// 观战端只发送控制帧
	maxMessageSize = 4 * 1024
)

// 文本消息类型
const (
	MessageWelcome  = "welcome"
	MessageSnapshot = "snapshot"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 允许所有跨域请求
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message 文本帧的外层结构
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// spectator 一个只读观战连接
type spectator struct {
	id     string
	room   *Room
	binary bool
	frames <-chan Frame
	conn   *websocket.Conn
	log    *logrus.Entry
}

// encodeMessage 编码带类型的文本帧
func encodeMessage(typ string, payload interface{}) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Message{Type: typ, Payload: raw})
}

// handleWSConnection 处理观战连接：/ws?room_id=&token=&format=binary
func (s *GameServer) handleWSConnection(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	roomID := query.Get("room_id")

	room, ok := s.GetRoom(roomID)
	if !ok {
		http.Error(w, ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}
	if _, err := s.tokens.Verify(query.Get("token"), roomID); err != nil {
		http.Error(w, "未授权", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("WebSocket升级失败")
		return
	}

	id := uuid.New().String()
	sp := &spectator{
		id:     id,
		room:   room,
		binary: query.Get("format") == "binary",
		conn:   conn,
		log:    s.log.WithFields(logrus.Fields{"room_id": roomID, "spectator": id}),
	}

	// 先发房间信息和当前画面，再订阅后续帧
	if err := sp.greet(); err != nil {
		sp.log.WithError(err).Warn("发送初始画面失败")
		conn.Close()
		return
	}
	sp.frames = room.Hub().Subscribe(id)

	sp.log.Info("观战者已连接")

	go sp.readPump()
	go sp.writePump()
}

// greet 发送欢迎消息和最近一帧
func (sp *spectator) greet() error {
	welcome, err := encodeMessage(MessageWelcome, sp.room.Info())
	if err != nil {
		return err
	}
	sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := sp.conn.WriteMessage(websocket.TextMessage, welcome); err != nil {
		return err
	}

	snap := sp.room.Snapshot()
	if sp.binary {
		data, err := snap.MarshalBinary()
		if err != nil {
			return err
		}
		return sp.conn.WriteMessage(websocket.BinaryMessage, data)
	}
	data, err := encodeMessage(MessageSnapshot, snap)
	if err != nil {
		return err
	}
	return sp.conn.WriteMessage(websocket.TextMessage, data)
}

// readPump 只处理控制帧，观战端发来的数据被丢弃
func (sp *spectator) readPump() {
	defer func() {
		sp.room.Hub().Unsubscribe(sp.id)
		sp.conn.Close()
	}()

	sp.conn.SetReadLimit(maxMessageSize)
	sp.conn.SetReadDeadline(time.Now().Add(pongWait))
	sp.conn.SetPongHandler(func(string) error {
		sp.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := sp.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				sp.log.WithError(err).Warn("WebSocket错误")
			}
			break
		}
	}
	sp.log.Info("观战者已断开")
}

// writePump 向WebSocket写入画面
func (sp *spectator) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		sp.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-sp.frames:
			sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 房间关闭或被新连接替换
				sp.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := sp.write(frame); err != nil {
				return
			}
		case <-ticker.C:
			sp.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sp.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (sp *spectator) write(frame Frame) error {
	if sp.binary && frame.Binary != nil {
		return sp.conn.WriteMessage(websocket.BinaryMessage, frame.Binary)
	}
	return sp.conn.WriteMessage(websocket.TextMessage, frame.Text)
}
