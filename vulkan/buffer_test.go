package vulkan

import (
	"testing"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestAlignedSize(t *testing.T) {
	assert.Equal(t, vk.DeviceSize(544), alignedSize(544, 0))
	assert.Equal(t, vk.DeviceSize(544), alignedSize(544, 1))
	assert.Equal(t, vk.DeviceSize(576), alignedSize(544, 64))
	assert.Equal(t, vk.DeviceSize(768), alignedSize(544, 256))
	assert.Equal(t, vk.DeviceSize(256), alignedSize(256, 256))
}

func TestBytes(t *testing.T) {
	v := struct {
		A uint32
		B uint32
	}{A: 1, B: 0x01020304}
	b := Bytes(&v)
	assert.Len(t, b, 8)

	b[0] = 7
	assert.Equal(t, uint32(7), v.A)
}

func TestSliceBytes(t *testing.T) {
	assert.Nil(t, SliceBytes([]float32{}))
	assert.Len(t, SliceBytes([]float32{1, 2, 3}), 12)
	assert.Len(t, SliceBytes([][3]float32{{1, 2, 3}, {4, 5, 6}}), 24)
}

func TestWriteToBufferRequiresMapping(t *testing.T) {
	b := &Buffer{Size: 16, InstanceSize: 16, AlignmentSize: 16, InstanceCount: 1}
	assert.Error(t, b.WriteToBuffer(make([]byte, 4), 0))
}

func TestWriteToIndex(t *testing.T) {
	mem := make([]byte, 32)
	b := &Buffer{Size: 32, InstanceSize: 4, AlignmentSize: 16, InstanceCount: 2, mapped: unsafe.Pointer(&mem[0])}

	assert.NoError(t, b.WriteToIndex([]byte{1, 2, 3, 4}, 1))
	assert.Equal(t, []byte{1, 2, 3, 4}, mem[16:20])
	assert.Error(t, b.WriteToBuffer(make([]byte, 8), 28))
}
