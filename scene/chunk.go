package scene

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Chunks tile the XZ ground plane and blocks stack upwards along -Y, the
// same basis the camera controller moves in.
const (
	ChunkSize  = 20
	ChunkDepth = 8
)

// Level is a height map of one chunk, indexed [z][x]. 0 is empty; any other
// value is the height of the block column at that cell.
type Level [ChunkSize][ChunkSize]int

var levelRow = [ChunkSize]int{1, 1, 2, 2, 2, 2, 1, 1, 1, 1, 2, 2, 2, 2, 2, 1, 1, 1, 1, 0}

// DefaultLevel is the map every chunk is generated from.
func DefaultLevel() Level {
	var l Level
	for i := range l {
		l[i] = levelRow
	}
	return l
}

// ChunkCoord is a position on the chunk grid.
type ChunkCoord struct {
	X, Z int
}

func (c ChunkCoord) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Z)
}

// Origin is the chunk's corner on the ground plane.
func (c ChunkCoord) Origin() mgl32.Vec3 {
	return mgl32.Vec3{float32(c.X * ChunkSize), 0, float32(c.Z * ChunkSize)}
}

// Distance is the Chebyshev distance between two chunks.
func (c ChunkCoord) Distance(o ChunkCoord) int {
	return max(abs(c.X-o.X), abs(c.Z-o.Z))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ChunkAt returns the chunk containing world position p.
func ChunkAt(p mgl32.Vec3) ChunkCoord {
	return ChunkCoord{
		X: int(math32.Floor(p[0] / ChunkSize)),
		Z: int(math32.Floor(p[2] / ChunkSize)),
	}
}

// BlockPlacement is one block column of a chunk.
type BlockPlacement struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Color       mgl32.Vec3
}

// ChunkLayout is the CPU-only description of a chunk's objects.
type ChunkLayout struct {
	Coord  ChunkCoord
	Blocks []BlockPlacement
	Border Builder
}

var (
	BorderColor = mgl32.Vec3{1, 0, 0}

	blockColors = map[int]mgl32.Vec3{
		1: {0.25, 0.6, 0.2},
		2: {0.5, 0.5, 0.55},
	}
	tallBlockColor = mgl32.Vec3{0.8, 0.8, 0.85}
)

func blockColor(height int) mgl32.Vec3 {
	if c, ok := blockColors[height]; ok {
		return c
	}
	return tallBlockColor
}

// GenerateChunk lays out one block column per non-zero level cell and the
// wireframe border box of the chunk. It touches no GPU state and is safe to
// call concurrently.
func GenerateChunk(coord ChunkCoord, level Level) ChunkLayout {
	origin := coord.Origin()
	layout := ChunkLayout{Coord: coord}
	for z := range level {
		for x, height := range level[z] {
			if height <= 0 {
				continue
			}
			h := float32(height)
			layout.Blocks = append(layout.Blocks, BlockPlacement{
				Translation: origin.Add(mgl32.Vec3{float32(x) + 0.5, -h / 2, float32(z) + 0.5}),
				Scale:       mgl32.Vec3{1, h, 1},
				Color:       blockColor(height),
			})
		}
	}
	layout.Border = BoxBuilder(origin.Sub(mgl32.Vec3{0, ChunkDepth, 0}),
		mgl32.Vec3{ChunkSize, ChunkDepth, ChunkSize}, BorderColor)
	return layout
}

// BlockCount is the number of non-zero cells in the level.
func (l Level) BlockCount() int {
	n := 0
	for row := range l {
		for _, h := range l[row] {
			if h > 0 {
				n++
			}
		}
	}
	return n
}
