package game

import (
	"math/rand"
	"testing"
)

// bruteNextWall 直接扫描网格得到的距离
func bruteNextWall(w *World, x, y int) (int, int) {
	nx := 1
	for x+nx < w.Width() && !w.occupied(x+nx, y) {
		nx++
	}
	ny := 1
	for y+ny < w.Height() && !w.occupied(x, y+ny) {
		ny++
	}
	return nx, ny
}

func checkDistanceField(t *testing.T, w *World) {
	t.Helper()
	for i := 0; i < w.Width(); i++ {
		for j := 0; j < w.Height(); j++ {
			gotX, gotY := w.Fill().NextWall(i, j)
			wantX, wantY := bruteNextWall(w, i, j)
			if gotX != wantX || gotY != wantY {
				t.Fatalf("NextWall(%d, %d) = (%d, %d), want (%d, %d)", i, j, gotX, gotY, wantX, wantY)
			}
		}
	}
}

func TestFillDistanceFieldInitial(t *testing.T) {
	w, _ := newTestWorld(6, 4)
	if x, y := w.Fill().NextWall(0, 0); x != 6 || y != 4 {
		t.Errorf("NextWall(0, 0) = (%d, %d), want (6, 4)", x, y)
	}
	if x, y := w.Fill().NextWall(5, 3); x != 1 || y != 1 {
		t.Errorf("NextWall(5, 3) = (%d, %d), want (1, 1)", x, y)
	}
	checkDistanceField(t, w)
}

func TestFillDistanceFieldMatchesGrid(t *testing.T) {
	w, _ := newTestWorld(8, 6)
	rng := rand.New(rand.NewSource(7))

	for op := 0; op < 300; op++ {
		x, y := rng.Intn(w.Width()), rng.Intn(w.Height())
		if rng.Intn(3) == 0 {
			w.RemoveWall(x, y)
		} else {
			w.CreateWall(x, y, rng.Intn(2), false)
		}
		checkDistanceField(t, w)
	}
}

func TestFillEnclosedCell(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	for _, c := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		if w.CreateWall(c[0], c[1], 0, false) == nil {
			t.Fatalf("CreateWall(%d, %d) = nil", c[0], c[1])
		}
	}

	wall := w.WallAt(2, 2)
	if wall == nil {
		t.Fatal("enclosed cell (2, 2) was not filled")
	}
	if wall.Owner != 0 {
		t.Errorf("filled wall owner = %d, want 0", wall.Owner)
	}
	if w.WallCount() != 5 {
		t.Errorf("WallCount() = %d, want 5", w.WallCount())
	}
	checkDistanceField(t, w)
}

func TestFillCornerRegion(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	w.CreateWall(1, 0, 0, false)
	w.CreateWall(0, 1, 0, false)

	if w.WallAt(0, 0) == nil {
		t.Fatal("corner cell (0, 0) was not filled")
	}
	if w.WallCount() != 3 {
		t.Errorf("WallCount() = %d, want 3", w.WallCount())
	}
}

func TestFillIgnoresOpenRegions(t *testing.T) {
	tests := []struct {
		name  string
		walls [][2]int
	}{
		{"single wall", [][2]int{{1, 1}}},
		{"opposite corners", [][2]int{{0, 0}, {4, 4}}},
		{"open L", [][2]int{{1, 0}, {1, 1}, {1, 2}, {2, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newTestWorld(5, 5)
			for _, c := range tt.walls {
				w.CreateWall(c[0], c[1], 0, false)
			}
			if w.WallCount() != len(tt.walls) {
				t.Errorf("WallCount() = %d, want %d", w.WallCount(), len(tt.walls))
			}
		})
	}
}

func TestFillSkipsRegionContainingWall(t *testing.T) {
	w, _ := newTestWorld(5, 3)
	w.CreateWall(1, 1, 1, false)
	w.CreateWall(3, 0, 0, false)
	w.CreateWall(3, 1, 0, false)
	w.CreateWall(3, 2, 0, false)

	// 右侧一列没有墙，被填充
	for j := 0; j < 3; j++ {
		if wall := w.WallAt(4, j); wall == nil || wall.Owner != 0 {
			t.Errorf("cell (4, %d) not filled by owner 0", j)
		}
	}
	// 左侧 3x3 中间有墙，保持原样
	for _, c := range [][2]int{{0, 0}, {2, 1}, {0, 2}} {
		if w.WallAt(c[0], c[1]) != nil {
			t.Errorf("cell (%d, %d) filled, want empty", c[0], c[1])
		}
	}
	if w.WallCount() != 7 {
		t.Errorf("WallCount() = %d, want 7", w.WallCount())
	}
}

func TestFillCreditsTriggeringPlayer(t *testing.T) {
	sim, _ := newTestSim(testRules(5, 5))
	sim.AddPlayer(0, 4)
	w := sim.World()
	for _, c := range [][2]int{{1, 2}, {3, 2}, {2, 1}, {2, 3}} {
		w.CreateWall(c[0], c[1], 0, false)
	}

	st := w.Stats(0)
	if st.WallsBuilt != 4 || st.WallsFilled != 1 || st.Territory != 5 {
		t.Errorf("stats = %+v, want built 4 filled 1 territory 5", st)
	}
}

func TestFillCellOutOfBoundsPanics(t *testing.T) {
	w, _ := newTestWorld(3, 3)
	defer func() {
		if recover() == nil {
			t.Error("NextWall(3, 0) did not panic")
		}
	}()
	w.Fill().NextWall(3, 0)
}
