// Package arena builds and describes the playing field: an indestructible wall
// shell around a destructible floor that is regrown at the start of every round.
package arena

import (
	"math/rand"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/wfunc/fallarena/logger"
	"github.com/wfunc/fallarena/world"
)

// Dimensions of the arena cuboid, in blocks.
type Dimensions struct {
	Width  int
	Height int
	Depth  int
}

var DefaultDimensions = Dimensions{Width: 30, Height: 11, Depth: 30}

const (
	FloorBlock = world.Snow
	WallBlock  = world.Barrier
)

// BlockSetter is the world mutation the builder needs.
type BlockSetter interface {
	SetBlock(pos world.Pos, block world.Block) error
}

type Builder struct {
	world BlockSetter
	dims  Dimensions
	rng   *rand.Rand
}

// NewBuilder builds the boundary walls and an initial floor.
func NewBuilder(w BlockSetter, dims Dimensions, rng *rand.Rand) *Builder {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := &Builder{world: w, dims: dims, rng: rng}
	b.buildBoundary()
	b.RebuildFloor()
	return b
}

func (b *Builder) Dimensions() Dimensions {
	return b.dims
}

// FloorY is the layer the floor occupies.
func (b *Builder) FloorY() int {
	return b.dims.Height - 1
}

// TopY is the height participants are spawned at, standing on the floor.
func (b *Builder) TopY() int {
	return b.dims.Height
}

// EliminationHeight is the Y below which a participant has fallen.
func (b *Builder) EliminationHeight() float64 {
	return float64(b.dims.Height / 2)
}

func (b *Builder) interior(x, z int) bool {
	return x >= 1 && x <= b.dims.Width-2 && z >= 1 && z <= b.dims.Depth-2
}

// Destructible reports whether pos is part of the floor.
func (b *Builder) Destructible(pos world.Pos) bool {
	return pos.Y() == b.FloorY() && b.interior(pos.X(), pos.Z())
}

// RebuildFloor refills every floor position inside the wall shell. Calling it
// repeatedly always yields the same floor.
func (b *Builder) RebuildFloor() {
	y := b.FloorY()
	failed := 0
	for x := 1; x <= b.dims.Width-2; x++ {
		for z := 1; z <= b.dims.Depth-2; z++ {
			if err := b.world.SetBlock(world.Pos{x, y, z}, FloorBlock); err != nil {
				failed++
			}
		}
	}
	if failed > 0 {
		logger.Log.Warnf("Floor rebuild could not place %d blocks", failed)
	}
}

// buildBoundary raises the four outer walls over the full height.
func (b *Builder) buildBoundary() {
	w, d := b.dims.Width, b.dims.Depth
	for y := 0; y < b.dims.Height; y++ {
		for x := 0; x < w; x++ {
			b.wall(world.Pos{x, y, 0})
			b.wall(world.Pos{x, y, d - 1})
		}
		for z := 1; z < d-1; z++ {
			b.wall(world.Pos{0, y, z})
			b.wall(world.Pos{w - 1, y, z})
		}
	}
}

func (b *Builder) wall(pos world.Pos) {
	if err := b.world.SetBlock(pos, WallBlock); err != nil {
		logger.Log.Warnf("Failed to place wall at %v: %v", pos, err)
	}
}

// RandomSpawn picks a point uniformly over the floor, one block clear of the
// walls, at the arena's top.
func (b *Builder) RandomSpawn() mgl64.Vec3 {
	x := 1 + b.rng.Intn(b.dims.Width-2)
	z := 1 + b.rng.Intn(b.dims.Depth-2)
	return mgl64.Vec3{float64(x), float64(b.TopY()), float64(z)}
}
