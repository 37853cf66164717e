// hub.go

package game

import (
	"sync"
)

// subscriberBuffer 每个观战者的待发帧数
const subscriberBuffer = 64

// Frame 发给观战者的一帧，Binary 为 nil 时对方只接收文本
type Frame struct {
	Text   []byte
	Binary []byte
}

// Hub 房间内的观战者集合；发送不阻塞，慢连接直接丢帧
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]chan Frame
	dropped     uint64
}

// NewHub 创建空的观战者集合
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]chan Frame),
	}
}

// Subscribe 注册观战者，同一ID重复注册时关闭旧通道
func (h *Hub) Subscribe(id string) <-chan Frame {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.subscribers[id]; ok {
		close(old)
	}
	ch := make(chan Frame, subscriberBuffer)
	h.subscribers[id] = ch
	return ch
}

// Unsubscribe 移除观战者并关闭其通道
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Broadcast 向所有观战者发送
func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- f:
		default:
			h.dropped++
		}
	}
}

// Close 关闭所有通道
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

// Count 观战者数量
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Dropped 因通道已满丢弃的帧数
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}
