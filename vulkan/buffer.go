package vulkan

import (
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

// Buffer is a buffer of InstanceCount equally sized instances, each padded
// to AlignmentSize so that any instance can be bound at its own offset.
type Buffer struct {
	Handle        vk.Buffer
	Memory        vk.DeviceMemory
	Size          vk.DeviceSize
	InstanceSize  vk.DeviceSize
	InstanceCount uint32
	AlignmentSize vk.DeviceSize
	Usage         vk.BufferUsageFlags
	Properties    vk.MemoryPropertyFlags

	device *Device
	mapped unsafe.Pointer
}

// alignedSize rounds instanceSize up to a multiple of minOffsetAlignment,
// which must be a power of two or zero.
func alignedSize(instanceSize, minOffsetAlignment vk.DeviceSize) vk.DeviceSize {
	if minOffsetAlignment > 0 {
		return (instanceSize + minOffsetAlignment - 1) &^ (minOffsetAlignment - 1)
	}
	return instanceSize
}

func NewBuffer(device *Device, instanceSize vk.DeviceSize, instanceCount uint32, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags, minOffsetAlignment vk.DeviceSize) (*Buffer, error) {
	b := &Buffer{
		InstanceSize:  instanceSize,
		InstanceCount: instanceCount,
		AlignmentSize: alignedSize(instanceSize, minOffsetAlignment),
		Usage:         usage,
		Properties:    properties,
		device:        device,
	}
	b.Size = b.AlignmentSize * vk.DeviceSize(instanceCount)

	handle, memory, err := device.CreateBuffer(b.Size, usage, properties)
	if err != nil {
		return nil, err
	}
	b.Handle = handle
	b.Memory = memory
	return b, nil
}

func (b *Buffer) Buffer() vk.Buffer {
	return b.Handle
}

// Map maps the whole buffer into host memory.
func (b *Buffer) Map() error {
	var data unsafe.Pointer
	if err := check(vk.MapMemory(b.device.Device, b.Memory, 0, b.Size, 0, &data), "failed to map buffer memory"); err != nil {
		return err
	}
	b.mapped = data
	return nil
}

func (b *Buffer) Unmap() {
	if b.mapped != nil {
		vk.UnmapMemory(b.device.Device, b.Memory)
		b.mapped = nil
	}
}

func (b *Buffer) IsMapped() bool {
	return b.mapped != nil
}

// WriteToBuffer copies data into the mapped buffer at offset.
func (b *Buffer) WriteToBuffer(data []byte, offset vk.DeviceSize) error {
	if b.mapped == nil {
		return errors.New("vulkan: cannot write to an unmapped buffer")
	}
	if offset+vk.DeviceSize(len(data)) > b.Size {
		return errors.Errorf("vulkan: write of %d bytes at offset %d overflows buffer of %d bytes", len(data), offset, b.Size)
	}
	vk.Memcopy(unsafe.Add(b.mapped, uintptr(offset)), data)
	return nil
}

func (b *Buffer) WriteToIndex(data []byte, index int) error {
	return b.WriteToBuffer(data, vk.DeviceSize(index)*b.AlignmentSize)
}

// Flush makes host writes to non-coherent memory visible to the device.
func (b *Buffer) Flush() error {
	return b.flushRange(vk.DeviceSize(vk.WholeSize), 0)
}

func (b *Buffer) FlushIndex(index int) error {
	return b.flushRange(b.AlignmentSize, vk.DeviceSize(index)*b.AlignmentSize)
}

func (b *Buffer) flushRange(size, offset vk.DeviceSize) error {
	ret := vk.FlushMappedMemoryRanges(b.device.Device, 1, []vk.MappedMemoryRange{{
		SType:  vk.StructureTypeMappedMemoryRange,
		Memory: b.Memory,
		Offset: offset,
		Size:   size,
	}})
	return check(ret, "failed to flush buffer memory")
}

func (b *Buffer) DescriptorInfo() vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.Handle,
		Offset: 0,
		Range:  vk.DeviceSize(vk.WholeSize),
	}
}

func (b *Buffer) DescriptorInfoForIndex(index int) vk.DescriptorBufferInfo {
	return vk.DescriptorBufferInfo{
		Buffer: b.Handle,
		Offset: vk.DeviceSize(index) * b.AlignmentSize,
		Range:  b.AlignmentSize,
	}
}

func (b *Buffer) Destroy() {
	b.Unmap()
	if b.Handle != vk.NullBuffer {
		vk.DestroyBuffer(b.device.Device, b.Handle, nil)
		b.Handle = vk.NullBuffer
	}
	if b.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(b.device.Device, b.Memory, nil)
		b.Memory = vk.NullDeviceMemory
	}
}

// NewDeviceLocalBuffer uploads data into a device-local buffer through a
// temporary host-visible staging buffer. instanceSize and the length of data
// determine the instance count.
func (d *Device) NewDeviceLocalBuffer(data []byte, instanceSize vk.DeviceSize, usage vk.BufferUsageFlags) (*Buffer, error) {
	if instanceSize == 0 || len(data) == 0 {
		return nil, errors.New("vulkan: device local buffer needs data")
	}
	count := uint32(vk.DeviceSize(len(data)) / instanceSize)

	staging, err := NewBuffer(d, instanceSize, count,
		vk.BufferUsageFlags(vk.BufferUsageTransferSrcBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create staging buffer")
	}
	defer staging.Destroy()

	if err := staging.Map(); err != nil {
		return nil, err
	}
	if err := staging.WriteToBuffer(data, 0); err != nil {
		return nil, err
	}
	staging.Unmap()

	buffer, err := NewBuffer(d, instanceSize, count,
		usage|vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), 1)
	if err != nil {
		return nil, err
	}
	if err := d.CopyBuffer(staging.Handle, buffer.Handle, buffer.Size); err != nil {
		buffer.Destroy()
		return nil, err
	}
	return buffer, nil
}

// Bytes views *v as raw bytes for uploading plain-old-data structs.
func Bytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// SliceBytes views a slice of plain-old-data values as raw bytes.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero)))
}
