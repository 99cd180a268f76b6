package debug

import (
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/stretchr/testify/assert"
)

func TestPushForMapsDisplayToClipSpace(t *testing.T) {
	p := pushFor(800, 600)
	corner := func(x, y float32) (float32, float32) {
		return x*p.Scale[0] + p.Translate[0], y*p.Scale[1] + p.Translate[1]
	}
	x, y := corner(0, 0)
	assert.Equal(t, float32(-1), x)
	assert.Equal(t, float32(-1), y)
	x, y = corner(800, 600)
	assert.InDelta(t, 1, x, 1e-6)
	assert.InDelta(t, 1, y, 1e-6)
}

func TestClipToScissor(t *testing.T) {
	display := imgui.Vec2{X: 800, Y: 600}
	one := imgui.Vec2{X: 1, Y: 1}

	r, ok := clipToScissor(imgui.Vec4{X: 10, Y: 20, Z: 110, W: 70}, one, display)
	assert.True(t, ok)
	assert.Equal(t, vk.Offset2D{X: 10, Y: 20}, r.Offset)
	assert.Equal(t, vk.Extent2D{Width: 100, Height: 50}, r.Extent)

	r, ok = clipToScissor(imgui.Vec4{X: -50, Y: -10, Z: 900, W: 700}, one, display)
	assert.True(t, ok)
	assert.Equal(t, vk.Offset2D{}, r.Offset)
	assert.Equal(t, vk.Extent2D{Width: 800, Height: 600}, r.Extent)

	_, ok = clipToScissor(imgui.Vec4{X: 900, Y: 0, Z: 1000, W: 100}, one, display)
	assert.False(t, ok)
}

func TestClipToScissorOnHiDPI(t *testing.T) {
	display := imgui.Vec2{X: 800, Y: 600}
	framebuffer := imgui.Vec2{X: 1600, Y: 1200}
	scale := framebufferScale(display, framebuffer)
	assert.Equal(t, imgui.Vec2{X: 2, Y: 2}, scale)

	r, ok := clipToScissor(imgui.Vec4{X: 10, Y: 20, Z: 110, W: 70}, scale, framebuffer)
	assert.True(t, ok)
	assert.Equal(t, vk.Offset2D{X: 20, Y: 40}, r.Offset)
	assert.Equal(t, vk.Extent2D{Width: 200, Height: 100}, r.Extent)

	r, ok = clipToScissor(imgui.Vec4{X: 0, Y: 0, Z: 800, W: 600}, scale, framebuffer)
	assert.True(t, ok)
	assert.Equal(t, vk.Extent2D{Width: 1600, Height: 1200}, r.Extent, "a full-window clip covers the whole framebuffer")
}

func TestFramebufferScaleWithoutArea(t *testing.T) {
	assert.Equal(t, imgui.Vec2{X: 1, Y: 1}, framebufferScale(imgui.Vec2{}, imgui.Vec2{X: 10, Y: 10}))
}

func TestBufferCapacity(t *testing.T) {
	assert.Equal(t, 4096, bufferCapacity(1))
	assert.Equal(t, 4096, bufferCapacity(4096))
	assert.Equal(t, 8192, bufferCapacity(4097))
	assert.Equal(t, 1<<20, bufferCapacity(1<<20-5))
}
