package world

import (
	"errors"
	"math"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// Block is a block type id.
type Block byte

const (
	Air Block = iota
	Stone
	Snow
	Barrier
)

func (b Block) String() string {
	switch b {
	case Air:
		return "air"
	case Stone:
		return "stone"
	case Snow:
		return "snow"
	case Barrier:
		return "barrier"
	default:
		return "unknown"
	}
}

// Pos is an integer block position.
type Pos [3]int

func (p Pos) X() int { return p[0] }
func (p Pos) Y() int { return p[1] }
func (p Pos) Z() int { return p[2] }

// PosFromVec returns the block containing v.
func PosFromVec(v mgl64.Vec3) Pos {
	return Pos{int(math.Floor(v.X())), int(math.Floor(v.Y())), int(math.Floor(v.Z()))}
}

// Vec returns the bottom centre of the block.
func (p Pos) Vec() mgl64.Vec3 {
	return mgl64.Vec3{float64(p[0]) + 0.5, float64(p[1]), float64(p[2]) + 0.5}
}

var ErrOutOfBounds = errors.New("position out of world bounds")

// Listener is told about every block that actually changes.
type Listener func(pos Pos, block Block)

// World is a bounded in-memory block store. Unset blocks are air.
type World struct {
	size     Pos
	blocks   []Block
	mutex    sync.RWMutex
	listener Listener
}

// CreateWorld allocates a world of the given dimensions. With hollow set, the
// outer shell is filled with stone and the inside left as air.
func CreateWorld(size Pos, hollow bool) *World {
	w := &World{
		size:   size,
		blocks: make([]Block, size[0]*size[1]*size[2]),
	}
	if hollow {
		w.Fill(Pos{0, 0, 0}, Pos{size[0] - 1, size[1] - 1, size[2] - 1}, Stone, true)
	}
	return w
}

func (w *World) Size() Pos {
	return w.size
}

// SetListener registers the change listener. It is called without the world lock held.
func (w *World) SetListener(l Listener) {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	w.listener = l
}

func (w *World) inBounds(p Pos) bool {
	for i := 0; i < 3; i++ {
		if p[i] < 0 || p[i] >= w.size[i] {
			return false
		}
	}
	return true
}

func (w *World) index(p Pos) int {
	return (p[1]*w.size[2]+p[2])*w.size[0] + p[0]
}

// Block returns the block at p, or air outside the world.
func (w *World) Block(p Pos) Block {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	if !w.inBounds(p) {
		return Air
	}
	return w.blocks[w.index(p)]
}

func (w *World) SetBlock(p Pos, b Block) error {
	w.mutex.Lock()
	if !w.inBounds(p) {
		w.mutex.Unlock()
		return ErrOutOfBounds
	}
	i := w.index(p)
	changed := w.blocks[i] != b
	w.blocks[i] = b
	listener := w.listener
	w.mutex.Unlock()

	if changed && listener != nil {
		listener(p, b)
	}
	return nil
}

// Fill sets every block in the inclusive box [from, to]. With hollow set only
// the box's faces are written. Positions outside the world are skipped.
func (w *World) Fill(from, to Pos, b Block, hollow bool) {
	lo, hi := from, to
	for i := 0; i < 3; i++ {
		if lo[i] > hi[i] {
			lo[i], hi[i] = hi[i], lo[i]
		}
	}
	for y := lo[1]; y <= hi[1]; y++ {
		for z := lo[2]; z <= hi[2]; z++ {
			for x := lo[0]; x <= hi[0]; x++ {
				if hollow && x != lo[0] && x != hi[0] && y != lo[1] && y != hi[1] && z != lo[2] && z != hi[2] {
					continue
				}
				_ = w.SetBlock(Pos{x, y, z}, b)
			}
		}
	}
}

// Count returns how many blocks of type b are in the world.
func (w *World) Count(b Block) int {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	n := 0
	for _, blk := range w.blocks {
		if blk == b {
			n++
		}
	}
	return n
}
