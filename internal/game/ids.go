// ids.go

package game

import (
	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// IDAllocator 实体ID分配器，优先复用最近释放的ID
type IDAllocator struct {
	next models.EntityID
	free []models.EntityID
}

// NewIDAllocator 创建分配器，第一个ID为 1
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: models.NilEntityID + 1}
}

// Allocate 分配一个ID
func (a *IDAllocator) Allocate() models.EntityID {
	if n := len(a.free); n > 0 {
		id := a.free[n-1]
		a.free = a.free[:n-1]
		return id
	}
	id := a.next
	a.next++
	return id
}

// Release 归还ID，调用方保证该ID不再被引用
func (a *IDAllocator) Release(id models.EntityID) {
	if id.IsNil() {
		panic("game: release of nil entity id")
	}
	a.free = append(a.free, id)
}

// Issued 已发放过的不同ID数量
func (a *IDAllocator) Issued() int {
	return int(a.next - 1)
}
