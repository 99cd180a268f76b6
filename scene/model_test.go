package scene

import (
	"errors"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBuffer struct {
	alloc *fakeAllocator
	size  int
	usage vk.BufferUsageFlags
	freed bool
}

func (b *fakeBuffer) Buffer() vk.Buffer { return vk.NullBuffer }

func (b *fakeBuffer) Destroy() {
	if b.freed {
		panic("buffer destroyed twice")
	}
	b.freed = true
	b.alloc.live--
}

// fakeAllocator counts live buffers and fails once fail reaches zero.
type fakeAllocator struct {
	live    int
	buffers []*fakeBuffer
	fail    int
}

func newFakeAllocator() *fakeAllocator {
	return &fakeAllocator{fail: -1}
}

func (a *fakeAllocator) DeviceLocalBuffer(data []byte, _ vk.DeviceSize, usage vk.BufferUsageFlags) (GPUBuffer, error) {
	if a.fail == 0 {
		return nil, errors.New("out of device memory")
	}
	if a.fail > 0 {
		a.fail--
	}
	b := &fakeBuffer{alloc: a, size: len(data), usage: usage}
	a.live++
	a.buffers = append(a.buffers, b)
	return b, nil
}

func TestNewModelCounts(t *testing.T) {
	alloc := newFakeAllocator()
	b := CubeBuilder(mgl32.Vec3{1, 1, 1})

	m, err := NewModel(alloc, b)
	require.NoError(t, err)
	assert.Equal(t, uint32(len(b.Vertices)), m.VertexCount())
	assert.Equal(t, uint32(len(b.Indices)), m.IndexCount())
	assert.True(t, m.HasIndexBuffer())
	require.Len(t, alloc.buffers, 2)
	assert.Equal(t, len(b.Vertices)*int(unsafe.Sizeof(Vertex{})), alloc.buffers[0].size)
	assert.Equal(t, len(b.Indices)*4, alloc.buffers[1].size)

	m.Destroy()
	assert.Equal(t, 0, alloc.live)
}

func TestNewModelWithoutIndices(t *testing.T) {
	alloc := newFakeAllocator()
	m, err := NewModel(alloc, Builder{Vertices: make([]Vertex, 3)})
	require.NoError(t, err)
	assert.Equal(t, uint32(3), m.VertexCount())
	assert.Equal(t, uint32(0), m.IndexCount())
	assert.False(t, m.HasIndexBuffer())
	assert.Equal(t, 1, alloc.live)
}

func TestNewModelRejectsBadGeometry(t *testing.T) {
	alloc := newFakeAllocator()

	_, err := NewModel(alloc, Builder{Vertices: make([]Vertex, 2)})
	assert.Error(t, err)

	_, err = NewModel(alloc, Builder{Vertices: make([]Vertex, 3), Indices: []uint32{0, 1, 3}})
	assert.Error(t, err)
	assert.Equal(t, 0, alloc.live)
}

func TestNewModelReleasesVertexBufferOnIndexFailure(t *testing.T) {
	alloc := newFakeAllocator()
	alloc.fail = 1

	_, err := NewModel(alloc, CubeBuilder(mgl32.Vec3{}))
	require.Error(t, err)
	assert.Equal(t, 0, alloc.live)
}

func TestVertexLayout(t *testing.T) {
	assert.Equal(t, uintptr(44), unsafe.Sizeof(Vertex{}))

	bindings := VertexBindingDescriptions()
	require.Len(t, bindings, 1)
	assert.Equal(t, uint32(44), bindings[0].Stride)

	attrs := VertexAttributeDescriptions()
	require.Len(t, attrs, 4)
	assert.Equal(t, []uint32{0, 12, 24, 36}, []uint32{attrs[0].Offset, attrs[1].Offset, attrs[2].Offset, attrs[3].Offset})
	assert.Equal(t, vk.FormatR32g32Sfloat, attrs[3].Format)
}

func TestBuilderAppend(t *testing.T) {
	var b Builder
	b.Append(CubeBuilder(mgl32.Vec3{}))
	b.Append(CubeBuilder(mgl32.Vec3{}))
	assert.Len(t, b.Vertices, 48)
	assert.Len(t, b.Indices, 72)
	assert.Equal(t, uint32(24), b.Indices[36])
}

func TestBoxBuilderBounds(t *testing.T) {
	origin := mgl32.Vec3{20, 0, 0}
	size := mgl32.Vec3{ChunkSize, ChunkSize, ChunkDepth}
	b := BoxBuilder(origin, size, BorderColor)
	require.Len(t, b.Vertices, 24)
	require.Len(t, b.Indices, 36)

	lo, hi := b.Vertices[0].Position, b.Vertices[0].Position
	for _, v := range b.Vertices {
		for i := 0; i < 3; i++ {
			lo[i] = min(lo[i], v.Position[i])
			hi[i] = max(hi[i], v.Position[i])
		}
		assert.Equal(t, BorderColor, v.Color)
		assert.InDelta(t, 1.0, v.Normal.Len(), 1e-6)
	}
	assert.Equal(t, origin, lo)
	assert.Equal(t, origin.Add(size), hi)
}
