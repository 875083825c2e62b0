package world

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestWorld_SetAndGet(t *testing.T) {
	w := CreateWorld(Pos{4, 4, 4}, false)

	if err := w.SetBlock(Pos{1, 2, 3}, Snow); err != nil {
		t.Fatalf("SetBlock failed: %v", err)
	}
	if got := w.Block(Pos{1, 2, 3}); got != Snow {
		t.Errorf("Expected snow, got %s", got)
	}
	if err := w.SetBlock(Pos{4, 0, 0}, Snow); err != ErrOutOfBounds {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}
	if got := w.Block(Pos{-1, 0, 0}); got != Air {
		t.Errorf("Expected air outside the world, got %s", got)
	}
}

func TestWorld_ListenerOnlySeesChanges(t *testing.T) {
	w := CreateWorld(Pos{2, 2, 2}, false)
	calls := 0
	w.SetListener(func(pos Pos, b Block) { calls++ })

	w.SetBlock(Pos{0, 0, 0}, Snow)
	w.SetBlock(Pos{0, 0, 0}, Snow)
	w.SetBlock(Pos{0, 0, 0}, Air)

	if calls != 2 {
		t.Errorf("Expected 2 change notifications, got %d", calls)
	}
}

func TestCreateWorld_Hollow(t *testing.T) {
	w := CreateWorld(Pos{3, 3, 3}, true)

	if w.Block(Pos{1, 1, 1}) != Air {
		t.Error("the centre of a hollow world should be air")
	}
	if w.Count(Stone) != 26 {
		t.Errorf("Expected 26 shell blocks, got %d", w.Count(Stone))
	}
}

func TestPosFromVec(t *testing.T) {
	p := PosFromVec(mgl64.Vec3{1.7, -0.2, 3.0})
	if p != (Pos{1, -1, 3}) {
		t.Errorf("Expected {1 -1 3}, got %v", p)
	}
}
