package scene

import (
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"voxel-engine/vulkan"
)

type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

func VertexBindingDescriptions() []vk.VertexInputBindingDescription {
	return []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(unsafe.Sizeof(Vertex{})),
		InputRate: vk.VertexInputRateVertex,
	}}
}

func VertexAttributeDescriptions() []vk.VertexInputAttributeDescription {
	return []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Position))},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Color))},
		{Location: 2, Binding: 0, Format: vk.FormatR32g32b32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.Normal))},
		{Location: 3, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(unsafe.Offsetof(Vertex{}.UV))},
	}
}

// Builder accumulates the CPU-side geometry a Model is uploaded from.
type Builder struct {
	Vertices []Vertex
	Indices  []uint32
}

// Append copies other into b, rebasing its indices.
func (b *Builder) Append(other Builder) {
	base := uint32(len(b.Vertices))
	b.Vertices = append(b.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		b.Indices = append(b.Indices, base+idx)
	}
}

// GPUBuffer is a device buffer a model draws from.
type GPUBuffer interface {
	Buffer() vk.Buffer
	Destroy()
}

// BufferAllocator uploads geometry to device-local memory.
type BufferAllocator interface {
	DeviceLocalBuffer(data []byte, stride vk.DeviceSize, usage vk.BufferUsageFlags) (GPUBuffer, error)
}

// DeviceAllocator allocates model buffers on a Vulkan device through
// staging uploads.
type DeviceAllocator struct {
	Device *vulkan.Device
}

func (a DeviceAllocator) DeviceLocalBuffer(data []byte, stride vk.DeviceSize, usage vk.BufferUsageFlags) (GPUBuffer, error) {
	buf, err := a.Device.NewDeviceLocalBuffer(data, stride, usage)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Model owns a vertex buffer and an optional index buffer. It is immutable
// once built.
type Model struct {
	vertexBuffer GPUBuffer
	vertexCount  uint32
	indexBuffer  GPUBuffer
	indexCount   uint32
	bounds       AABB
}

func NewModel(alloc BufferAllocator, b Builder) (*Model, error) {
	if len(b.Vertices) < 3 {
		return nil, errors.Errorf("scene: model needs at least 3 vertices, got %d", len(b.Vertices))
	}
	for _, idx := range b.Indices {
		if int(idx) >= len(b.Vertices) {
			return nil, errors.Errorf("scene: index %d out of range for %d vertices", idx, len(b.Vertices))
		}
	}

	m := &Model{vertexCount: uint32(len(b.Vertices)), bounds: b.Bounds()}
	var err error
	m.vertexBuffer, err = alloc.DeviceLocalBuffer(vulkan.SliceBytes(b.Vertices), vk.DeviceSize(unsafe.Sizeof(Vertex{})),
		vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create vertex buffer")
	}

	if len(b.Indices) > 0 {
		m.indexBuffer, err = alloc.DeviceLocalBuffer(vulkan.SliceBytes(b.Indices), vk.DeviceSize(unsafe.Sizeof(uint32(0))),
			vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
		if err != nil {
			m.vertexBuffer.Destroy()
			return nil, errors.Wrap(err, "failed to create index buffer")
		}
		m.indexCount = uint32(len(b.Indices))
	}
	return m, nil
}

func (m *Model) VertexCount() uint32 { return m.vertexCount }

func (m *Model) IndexCount() uint32 { return m.indexCount }

func (m *Model) HasIndexBuffer() bool { return m.indexBuffer != nil }

// Bounds is the model space box around the model's vertices.
func (m *Model) Bounds() AABB { return m.bounds }

func (m *Model) Bind(cmd vk.CommandBuffer) {
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{m.vertexBuffer.Buffer()}, []vk.DeviceSize{0})
	if m.indexBuffer != nil {
		vk.CmdBindIndexBuffer(cmd, m.indexBuffer.Buffer(), 0, vk.IndexTypeUint32)
	}
}

func (m *Model) Draw(cmd vk.CommandBuffer) {
	if m.indexBuffer != nil {
		vk.CmdDrawIndexed(cmd, m.indexCount, 1, 0, 0, 0)
		return
	}
	vk.CmdDraw(cmd, m.vertexCount, 1, 0, 0)
}

func (m *Model) Destroy() {
	if m.indexBuffer != nil {
		m.indexBuffer.Destroy()
		m.indexBuffer = nil
	}
	if m.vertexBuffer != nil {
		m.vertexBuffer.Destroy()
		m.vertexBuffer = nil
	}
}
