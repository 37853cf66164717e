// fill.go

package game

import (
	"fmt"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

// fillGrid 填充引擎对网格的最小依赖
type fillGrid interface {
	IsInBounds(x, y int) bool
	occupied(x, y int) bool
	fillCell(x, y, owner int)
}

// edgeStep 沿边前进的偏移和边外侧的检查偏移
type edgeStep struct {
	dxNext, dyNext int
	dxWall, dyWall int
}

// 逆时针绕行时每条边的步进，顺序与 models.Direction 一致
var edgeSteps = [4]edgeStep{
	models.DirRight: {1, 0, 0, -1},
	models.DirUp:    {0, 1, 1, 0},
	models.DirLeft:  {-1, 0, 0, 1},
	models.DirDown:  {0, -1, -1, 0},
}

// fillCellInfo 到 +x / +y 方向最近墙体（或地图边界）的格数
type fillCellInfo struct {
	nextWallX int
	nextWallY int
}

// Rect 闭区间矩形
type Rect struct {
	Left, Bottom, Right, Top int
}

// Width 宽度
func (r Rect) Width() int { return r.Right - r.Left + 1 }

// Height 高度
func (r Rect) Height() int { return r.Top - r.Bottom + 1 }

// FillEngine 空矩形区域检测与自动填充
//
// 每个格子保存到右侧和上方最近墙体的距离。墙体创建时更新左侧和下方的格子，
// 之后从新墙的四个相邻格出发尝试绕行一圈；能只靠左转回到起点的区域是矩形，
// 若其底边和左边记录的距离都等于矩形的高和宽，则区域内没有墙，整块填充。
type FillEngine struct {
	width  int
	height int
	cells  []fillCellInfo
	grid   fillGrid
}

// NewFillEngine 创建填充引擎，所有格子初始化为到地图边界的距离
func NewFillEngine(width, height int, grid fillGrid) *FillEngine {
	f := &FillEngine{
		width:  width,
		height: height,
		cells:  make([]fillCellInfo, width*height),
		grid:   grid,
	}
	for i := 0; i < width; i++ {
		for j := 0; j < height; j++ {
			c := f.cellAt(i, j)
			c.nextWallX = width - i
			c.nextWallY = height - j
		}
	}
	return f
}

func (f *FillEngine) cellAt(x, y int) *fillCellInfo {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		panic(fmt.Sprintf("game: fill cell (%d, %d) out of bounds %dx%d", x, y, f.width, f.height))
	}
	return &f.cells[x+y*f.width]
}

// NextWall 返回格子的距离值
func (f *FillEngine) NextWall(x, y int) (nextX, nextY int) {
	c := f.cellAt(x, y)
	return c.nextWallX, c.nextWallY
}

// WallCreated 墙体出现在 (x, y) 后更新左侧和下方的距离
func (f *FillEngine) WallCreated(x, y int) {
	for i := x - 1; i >= 0; i-- {
		f.cellAt(i, y).nextWallX = x - i
		if f.grid.occupied(i, y) {
			break
		}
	}

	for j := y - 1; j >= 0; j-- {
		f.cellAt(x, j).nextWallY = y - j
		if f.grid.occupied(x, j) {
			break
		}
	}
}

// WallDestroyed 墙体离开 (x, y) 后把被释放的格子接到更远的墙上
func (f *FillEngine) WallDestroyed(x, y int) {
	removed := *f.cellAt(x, y)

	for i := x - 1; i >= 0; i-- {
		f.cellAt(i, y).nextWallX = removed.nextWallX + x - i
		if f.grid.occupied(i, y) {
			break
		}
	}

	for j := y - 1; j >= 0; j-- {
		f.cellAt(x, j).nextWallY = removed.nextWallY + y - j
		if f.grid.occupied(x, j) {
			break
		}
	}
}

// WallCompleted 墙体完成后检测并填充，返回填充的矩形数
func (f *FillEngine) WallCompleted(x, y, owner int) int {
	return f.FillEmptyRegions(x, y, owner)
}

// FillEmptyRegions 从 (x, y) 四周出发检测空矩形并归 owner 所有
func (f *FillEngine) FillEmptyRegions(x, y, owner int) int {
	regions := 0
	for check := models.DirRight; check <= models.DirDown; check++ {
		step := edgeSteps[check]
		startX, startY := x+step.dxNext, y+step.dyNext

		initial := models.Direction((int(check) - 1 + 4) % 4)
		rect, ok := f.rectangularRegion(startX, startY, initial)
		if !ok || !f.regionEmpty(rect) {
			continue
		}

		for i := rect.Left; i <= rect.Right; i++ {
			for j := rect.Bottom; j <= rect.Top; j++ {
				f.grid.fillCell(i, j, owner)
			}
		}
		regions++
	}
	return regions
}

// edgeContiguous 沿 dir 走到边的尽头，(x, y) 停在最后一个空格上
func (f *FillEngine) edgeContiguous(x, y *int, dir models.Direction) bool {
	step := edgeSteps[dir]
	for f.empty(*x, *y) {
		if f.empty(*x+step.dxWall, *y+step.dyWall) {
			return false
		}
		*x += step.dxNext
		*y += step.dyNext
	}
	*x -= step.dxNext
	*y -= step.dyNext
	return true
}

// rectangularRegion 从起点逆时针绕行四条边，返回包围盒
func (f *FillEngine) rectangularRegion(x, y int, initial models.Direction) (Rect, bool) {
	if !f.empty(x, y) {
		return Rect{}, false
	}

	rect := Rect{Left: x, Bottom: y, Right: x, Top: y}
	cx, cy := x, y
	var firstX, firstY int

	for edge := 0; edge < 4; edge++ {
		dir := models.Direction((int(initial) + edge) % 4)
		if !f.edgeContiguous(&cx, &cy, dir) {
			return Rect{}, false
		}
		if edge == 0 {
			firstX, firstY = cx, cy
		}
		rect.Left = min(rect.Left, cx)
		rect.Right = max(rect.Right, cx)
		rect.Bottom = min(rect.Bottom, cy)
		rect.Top = max(rect.Top, cy)
	}

	// 沿第一条边继续走，必须回到第一个拐角
	if !f.edgeContiguous(&cx, &cy, initial) {
		return Rect{}, false
	}
	if cx != firstX || cy != firstY {
		return Rect{}, false
	}
	return rect, true
}

// regionEmpty 底边和左边的距离值覆盖整个矩形时区域内无墙
func (f *FillEngine) regionEmpty(r Rect) bool {
	for i := r.Left; i <= r.Right; i++ {
		if f.cellAt(i, r.Bottom).nextWallY != r.Height() {
			return false
		}
	}
	for j := r.Bottom; j <= r.Top; j++ {
		if f.cellAt(r.Left, j).nextWallX != r.Width() {
			return false
		}
	}
	return true
}

func (f *FillEngine) empty(x, y int) bool {
	return f.grid.IsInBounds(x, y) && !f.grid.occupied(x, y)
}
