package game

import (
	"testing"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

func TestSpatialIndexBuckets(t *testing.T) {
	tests := []struct {
		name string
		pos  models.Vector2D
		want [][2]int
	}{
		{"aligned", models.Vector2D{X: 1, Y: 1}, [][2]int{{1, 1}}},
		{"straddling", models.Vector2D{X: 0.5, Y: 0.5}, [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}}},
		{"clipped at edge", models.Vector2D{X: 3.5, Y: 0}, [][2]int{{3, 0}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := NewSpatialIndex(4, 4)
			e := &models.Entity{ID: 7, Position: tt.pos, Size: models.Vector2D{X: 1, Y: 1}}
			idx.Insert(e)

			count := 0
			for _, b := range idx.Buckets() {
				count += len(b)
			}
			if count != len(tt.want) {
				t.Errorf("entity in %d buckets, want %d", count, len(tt.want))
			}
			for _, c := range tt.want {
				if b := idx.Bucket(c[0], c[1]); len(b) != 1 || b[0] != 7 {
					t.Errorf("Bucket(%d, %d) = %v, want [#7]", c[0], c[1], b)
				}
			}

			idx.Clear()
			for _, c := range tt.want {
				if len(idx.Bucket(c[0], c[1])) != 0 {
					t.Errorf("Bucket(%d, %d) not empty after Clear", c[0], c[1])
				}
			}
		})
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name           string
		a1, a2, b1, b2 float64
		want           float64
		ok             bool
	}{
		{"a left of b", 0, 1, 0.5, 1.5, -0.5, true},
		{"a right of b", 0.5, 1.5, 0, 1, 0.5, true},
		{"touching", 0, 1, 1, 2, 0, false},
		{"apart", 0, 1, 2, 3, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := intersect(tt.a1, tt.a2, tt.b1, tt.b2)
			if got != tt.want || ok != tt.ok {
				t.Errorf("intersect() = (%v, %v), want (%v, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestResolveDynamicPairIsSymmetric(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	a := w.addPlayer(0, 0)
	b := w.addPlayer(0, 0)
	b.Position = models.Vector2D{X: 0.5, Y: 0}

	r := NewCollisionResolver(5, 5)
	events := r.Resolve(w, nil)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	first, second := events[0], events[1]
	if first.Self != a.ID || first.Other != b.ID || first.Phase != CollisionEnter {
		t.Errorf("first event = %+v", first)
	}
	if second.Self != b.ID || second.Other != a.ID || second.Overlap != first.Overlap.Neg() {
		t.Errorf("second event = %+v, want mirror of %+v", second, first)
	}
	if first.Overlap != (models.Vector2D{X: -0.5, Y: -1}) {
		t.Errorf("overlap = %+v, want (-0.5, -1)", first.Overlap)
	}

	// 两个动态实体各修正一半，只沿穿透较小的轴
	if a.Position != (models.Vector2D{X: -0.25, Y: 0}) {
		t.Errorf("a position = %+v, want (-0.25, 0)", a.Position)
	}
	if b.Position != (models.Vector2D{X: 0.75, Y: 0}) {
		t.Errorf("b position = %+v, want (0.75, 0)", b.Position)
	}
}

func TestResolveEnterThenPersist(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	w.addPlayer(0, 0)
	b := w.addPlayer(0, 0)
	b.Position = models.Vector2D{X: 0.5, Y: 0}

	r := NewCollisionResolver(5, 5)
	r.Resolve(w, nil)

	// 第二次解析前 a 被夹回网格内，仍与 b 重叠
	events := r.Resolve(w, nil)
	if len(events) != 2 || events[0].Phase != CollisionPersist {
		t.Fatalf("events = %+v, want persist pair", events)
	}

	b.Position = models.Vector2D{X: 3, Y: 3}
	if events := r.Resolve(w, nil); len(events) != 0 {
		t.Fatalf("events after separation = %+v, want none", events)
	}

	b.Position = models.Vector2D{X: 0.5, Y: 0}
	events = r.Resolve(w, nil)
	if len(events) != 2 || events[0].Phase != CollisionEnter {
		t.Errorf("events after re-contact = %+v, want enter pair", events)
	}
}

func TestResolveTouchingIsNotCollision(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	w.addPlayer(0, 0)
	w.addPlayer(1, 0)
	w.CreateWall(0, 1, 0, false)

	r := NewCollisionResolver(5, 5)
	if events := r.Resolve(w, nil); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestResolvePushesPlayerOutOfStaticWall(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	p := w.addPlayer(0, 0)
	p.Position = models.Vector2D{X: 0.75, Y: 0}
	wall := w.CreateWall(1, 0, 0, false)

	var handled []CollisionEvent
	r := NewCollisionResolver(5, 5)
	r.Resolve(w, func(ev CollisionEvent) { handled = append(handled, ev) })

	if len(handled) != 2 {
		t.Fatalf("handled %d events, want 2", len(handled))
	}
	if handled[0].Self != p.ID || handled[0].Other != wall.ID {
		t.Errorf("first event = %+v", handled[0])
	}
	if p.Position.X != 0 {
		t.Errorf("player x = %v, want 0", p.Position.X)
	}
	if wall.Position != (models.Vector2D{X: 1, Y: 0}) {
		t.Errorf("static wall moved to %+v", wall.Position)
	}
}

func TestResolveClampsToGrid(t *testing.T) {
	w, _ := newTestWorld(4, 4)
	p := w.addPlayer(0, 0)
	p.Position = models.Vector2D{X: 3.5, Y: -2}

	NewCollisionResolver(4, 4).Resolve(w, nil)
	if p.Position != (models.Vector2D{X: 3, Y: 0}) {
		t.Errorf("position = %+v, want (3, 0)", p.Position)
	}
}

func TestResolveSkipsInactive(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	a := w.addPlayer(0, 0)
	w.addPlayer(0, 0)
	a.Active = false

	if events := NewCollisionResolver(5, 5).Resolve(w, nil); len(events) != 0 {
		t.Errorf("events = %+v, want none", events)
	}
}

func TestResolveMovingWallPushesPlayer(t *testing.T) {
	w, _ := newTestWorld(5, 5)
	wall := w.CreateWall(1, 1, 0, true)
	wall.State = WallStatic
	w.beginWallMove(wall.ID, 4, 1)
	wall.Position = models.Vector2D{X: 1.5, Y: 1}
	p := w.addPlayer(2, 1)

	r := NewCollisionResolver(5, 5)
	if events := r.Resolve(w, nil); len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}

	// 玩家承担全部修正，墙保持原来的轨迹
	if wall.Position != (models.Vector2D{X: 1.5, Y: 1}) {
		t.Errorf("wall position = %+v, want (1.5, 1)", wall.Position)
	}
	if p.Position != (models.Vector2D{X: 2.5, Y: 1}) {
		t.Errorf("player position = %+v, want (2.5, 1)", p.Position)
	}
}
