package game

import (
	"testing"

	"github.com/jacl-coder/WallStorm-Server/internal/models"
)

func TestIDAllocatorReusesMostRecentlyReleased(t *testing.T) {
	a := NewIDAllocator()
	first, second, third := a.Allocate(), a.Allocate(), a.Allocate()
	if first != 1 || second != 2 || third != 3 {
		t.Fatalf("ids = %v %v %v, want 1 2 3", first, second, third)
	}

	a.Release(second)
	a.Release(first)

	if got := a.Allocate(); got != first {
		t.Errorf("Allocate() = %v, want %v", got, first)
	}
	if got := a.Allocate(); got != second {
		t.Errorf("Allocate() = %v, want %v", got, second)
	}
	if got := a.Allocate(); got != 4 {
		t.Errorf("Allocate() = %v, want #4", got)
	}
	if a.Issued() != 4 {
		t.Errorf("Issued() = %d, want 4", a.Issued())
	}
}

func TestIDAllocatorNeverIssuesNil(t *testing.T) {
	a := NewIDAllocator()
	for i := 0; i < 100; i++ {
		if id := a.Allocate(); id.IsNil() {
			t.Fatal("allocated nil id")
		}
	}
}

func TestIDAllocatorReleaseNilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Release(nil) did not panic")
		}
	}()
	NewIDAllocator().Release(models.NilEntityID)
}
