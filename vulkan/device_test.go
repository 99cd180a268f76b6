package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickQueueFamilies(t *testing.T) {
	props := []vk.QueueFamilyProperties{
		{QueueFlags: vk.QueueFlags(vk.QueueTransferBit), QueueCount: 1},
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit), QueueCount: 4},
		{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit), QueueCount: 1},
	}

	t.Run("shared family", func(t *testing.T) {
		q := pickQueueFamilies(props, func(i uint32) bool { return i >= 1 })
		require.True(t, q.IsComplete())
		assert.Equal(t, uint32(1), q.GraphicsFamily)
		assert.Equal(t, uint32(1), q.PresentFamily)
	})

	t.Run("separate present family", func(t *testing.T) {
		q := pickQueueFamilies(props, func(i uint32) bool { return i == 0 })
		require.True(t, q.IsComplete())
		assert.Equal(t, uint32(1), q.GraphicsFamily)
		assert.Equal(t, uint32(0), q.PresentFamily)
	})

	t.Run("no present support", func(t *testing.T) {
		q := pickQueueFamilies(props, func(uint32) bool { return false })
		assert.False(t, q.IsComplete())
	})

	t.Run("empty families are skipped", func(t *testing.T) {
		q := pickQueueFamilies([]vk.QueueFamilyProperties{
			{QueueFlags: vk.QueueFlags(vk.QueueGraphicsBit), QueueCount: 0},
		}, func(uint32) bool { return true })
		assert.False(t, q.IsComplete())
	})
}

func TestMissingExtensions(t *testing.T) {
	assert.Nil(t, missingExtensions(deviceExtensions, []string{"VK_KHR_maintenance1", "VK_KHR_swapchain"}))
	assert.Equal(t, []string{"VK_KHR_swapchain"}, missingExtensions(deviceExtensions, []string{"VK_KHR_maintenance1"}))
}

func TestFindMemoryTypeIndex(t *testing.T) {
	var props vk.PhysicalDeviceMemoryProperties
	props.MemoryTypeCount = 3
	props.MemoryTypes[0].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit)
	props.MemoryTypes[1].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit)
	props.MemoryTypes[2].PropertyFlags = vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	hostCoherent := vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit)

	idx, ok := findMemoryTypeIndex(props, 0b111, hostCoherent)
	require.True(t, ok)
	assert.Equal(t, uint32(2), idx)

	idx, ok = findMemoryTypeIndex(props, 0b111, vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit))
	require.True(t, ok)
	assert.Equal(t, uint32(1), idx)

	_, ok = findMemoryTypeIndex(props, 0b011, hostCoherent)
	assert.False(t, ok)
}
