package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLevel(t *testing.T) {
	l := DefaultLevel()
	for _, row := range l {
		assert.Equal(t, levelRow, row)
	}
	assert.Equal(t, ChunkSize*19, l.BlockCount())
}

func TestGenerateChunkAtOrigin(t *testing.T) {
	level := DefaultLevel()
	layout := GenerateChunk(ChunkCoord{}, level)
	assert.Len(t, layout.Blocks, level.BlockCount())

	for _, b := range layout.Blocks {
		assert.GreaterOrEqual(t, b.Translation[0], float32(0))
		assert.Less(t, b.Translation[0], float32(ChunkSize))
		assert.Equal(t, -b.Scale[1]/2, b.Translation[1], "blocks rest on the ground and grow along -y")
	}

	require.Len(t, layout.Border.Vertices, 24)
	for _, v := range layout.Border.Vertices {
		assert.Equal(t, BorderColor, v.Color)
		assert.Contains(t, []float32{0, ChunkSize}, v.Position[0])
		assert.Contains(t, []float32{-ChunkDepth, 0}, v.Position[1])
		assert.Contains(t, []float32{0, ChunkSize}, v.Position[2])
	}
}

func TestGenerateChunkOffsetsByCoord(t *testing.T) {
	layout := GenerateChunk(ChunkCoord{X: 2, Z: -1}, DefaultLevel())
	origin := mgl32.Vec3{40, 0, -20}
	assert.Equal(t, AABB{Min: mgl32.Vec3{40, -ChunkDepth, -20}, Max: mgl32.Vec3{60, 0, 0}}, layout.Border.Bounds())
	for _, b := range layout.Blocks {
		local := b.Translation.Sub(origin)
		assert.True(t, local[0] > 0 && local[0] < ChunkSize)
		assert.True(t, local[2] > 0 && local[2] < ChunkSize)
	}
}

func TestGenerateChunkHeights(t *testing.T) {
	var level Level
	level[0][0] = 1
	level[3][4] = 2
	layout := GenerateChunk(ChunkCoord{}, level)
	require.Len(t, layout.Blocks, 2)
	assert.Equal(t, mgl32.Vec3{0.5, -0.5, 0.5}, layout.Blocks[0].Translation)
	assert.Equal(t, mgl32.Vec3{4.5, -1, 3.5}, layout.Blocks[1].Translation)
	assert.Equal(t, mgl32.Vec3{1, 2, 1}, layout.Blocks[1].Scale)
}

func TestChunkAt(t *testing.T) {
	assert.Equal(t, ChunkCoord{0, 0}, ChunkAt(mgl32.Vec3{5, -30, 19.9}))
	assert.Equal(t, ChunkCoord{1, 0}, ChunkAt(mgl32.Vec3{20, 0, 0}))
	assert.Equal(t, ChunkCoord{-1, -1}, ChunkAt(mgl32.Vec3{-0.1, 7, -5}))
}

func TestWalkingForwardCrossesChunks(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)
	viewer := NewObjects().Create()
	viewer.Transform.Translation = mgl32.Vec3{10, -5, 10}
	require.Equal(t, ChunkCoord{0, 0}, ChunkAt(viewer.Transform.Translation))

	c.MoveInPlaneXZ(pressedKeys{KeyW: true}, 1, viewer)
	assert.Equal(t, ChunkCoord{X: 0, Z: 1}, ChunkAt(viewer.Transform.Translation), "forward walks over the ground plane")
	assert.InDelta(t, -5, viewer.Transform.Translation[1], 1e-5, "height is unchanged")
}

func TestChunkDistance(t *testing.T) {
	assert.Equal(t, 0, ChunkCoord{1, 1}.Distance(ChunkCoord{1, 1}))
	assert.Equal(t, 3, ChunkCoord{0, 0}.Distance(ChunkCoord{-3, 2}))
}
