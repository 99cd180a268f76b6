package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestDepthAspect(t *testing.T) {
	depth := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	stencil := vk.ImageAspectFlags(vk.ImageAspectStencilBit)

	assert.Equal(t, depth, depthAspect(vk.FormatD32Sfloat))
	assert.Equal(t, depth|stencil, depthAspect(vk.FormatD24UnormS8Uint))
	assert.True(t, hasStencilComponent(vk.FormatD32SfloatS8Uint))
	assert.False(t, hasStencilComponent(vk.FormatD32Sfloat))
}
