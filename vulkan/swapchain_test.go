package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestChooseSurfaceFormat(t *testing.T) {
	unorm := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Unorm, ColorSpace: vk.ColorSpaceSrgbNonlinear}
	srgb := vk.SurfaceFormat{Format: vk.FormatB8g8r8a8Srgb, ColorSpace: vk.ColorSpaceSrgbNonlinear}

	assert.Equal(t, srgb, chooseSurfaceFormat([]vk.SurfaceFormat{unorm, srgb}))
	assert.Equal(t, unorm, chooseSurfaceFormat([]vk.SurfaceFormat{unorm}))
}

func TestChoosePresentMode(t *testing.T) {
	all := []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo, vk.PresentModeMailbox}

	tests := []struct {
		name  string
		modes []vk.PresentMode
		vsync bool
		want  vk.PresentMode
	}{
		{"vsync forces fifo", all, true, vk.PresentModeFifo},
		{"mailbox when available", all, false, vk.PresentModeMailbox},
		{"fifo fallback", []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}, false, vk.PresentModeFifo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, choosePresentMode(tt.modes, tt.vsync))
		})
	}
}

func TestChooseExtent(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: 640, Height: 480},
		MinImageExtent: vk.Extent2D{Width: 1, Height: 1},
		MaxImageExtent: vk.Extent2D{Width: 1600, Height: 900},
	}
	window := vk.Extent2D{Width: 1920, Height: 1080}
	assert.Equal(t, caps.CurrentExtent, chooseExtent(caps, window))

	caps.CurrentExtent.Width = vk.MaxUint32
	assert.Equal(t, vk.Extent2D{Width: 1600, Height: 900}, chooseExtent(caps, window))
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, chooseExtent(caps, vk.Extent2D{Width: 800, Height: 600}))
}

func TestChooseImageCount(t *testing.T) {
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2}))
	assert.Equal(t, uint32(3), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 8}))
	assert.Equal(t, uint32(2), chooseImageCount(vk.SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 2}))
}

func TestClampUint32(t *testing.T) {
	assert.Equal(t, uint32(5), clampUint32(1, 5, 10))
	assert.Equal(t, uint32(10), clampUint32(20, 5, 10))
	assert.Equal(t, uint32(7), clampUint32(7, 5, 10))
}
