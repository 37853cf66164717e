// spatial.go

package game

import (
	"math"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// farEdgeScale 远边向内收缩的比例，贴合网格线的实体不会落入下一格
const farEdgeScale = 0.999

// SpatialIndex 动态实体的均匀网格索引，每帧重建
type SpatialIndex struct {
	width   int
	height  int
	buckets [][]models.EntityID
}

// NewSpatialIndex 创建与网格同尺寸的索引
func NewSpatialIndex(width, height int) *SpatialIndex {
	return &SpatialIndex{
		width:   width,
		height:  height,
		buckets: make([][]models.EntityID, width*height),
	}
}

// Clear 清空所有桶，保留容量
func (s *SpatialIndex) Clear() {
	for i := range s.buckets {
		s.buckets[i] = s.buckets[i][:0]
	}
}

// Insert 把实体加入其包围盒覆盖的所有桶
func (s *SpatialIndex) Insert(e *models.Entity) {
	x0, y0, x1, y1, ok := cellRange(e, s.width, s.height)
	if !ok {
		return
	}
	for i := x0; i <= x1; i++ {
		for j := y0; j <= y1; j++ {
			idx := i + j*s.width
			s.buckets[idx] = append(s.buckets[idx], e.ID)
		}
	}
}

// Bucket 返回格子上的实体ID
func (s *SpatialIndex) Bucket(x, y int) []models.EntityID {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return nil
	}
	return s.buckets[x+y*s.width]
}

// Buckets 按 x + y*width 排列的所有桶
func (s *SpatialIndex) Buckets() [][]models.EntityID {
	return s.buckets
}

// cellRange 包围盒覆盖的格子范围，已裁剪到网格内
func cellRange(e *models.Entity, width, height int) (x0, y0, x1, y1 int, ok bool) {
	x0 = int(math.Floor(e.Position.X))
	y0 = int(math.Floor(e.Position.Y))
	x1 = int(math.Floor(e.Position.X + e.Size.X*farEdgeScale))
	y1 = int(math.Floor(e.Position.Y + e.Size.Y*farEdgeScale))

	x0, y0 = max(x0, 0), max(y0, 0)
	x1, y1 = min(x1, width-1), min(y1, height-1)
	return x0, y0, x1, y1, x0 <= x1 && y0 <= y1
}

func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
