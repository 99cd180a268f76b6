package scene

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobalUboLayout(t *testing.T) {
	var ubo GlobalUbo
	assert.Equal(t, uintptr(544), unsafe.Sizeof(ubo))
	assert.Equal(t, uintptr(192), unsafe.Offsetof(ubo.AmbientLightColor))
	assert.Equal(t, uintptr(208), unsafe.Offsetof(ubo.PointLights))
	assert.Equal(t, uintptr(528), unsafe.Offsetof(ubo.NumLights))
	assert.Equal(t, DefaultAmbientLight, NewGlobalUbo().AmbientLightColor)
}

func TestPackLightsWithNoLightsClearsStaleData(t *testing.T) {
	ubo := NewGlobalUbo()
	for i := range ubo.PointLights {
		ubo.PointLights[i].Color = mgl32.Vec4{1, 1, 1, 1}
	}
	ubo.NumLights = 7

	objs := NewObjects()
	objs.Create()
	packed, dropped := PackLights(&ubo, objs)
	assert.Zero(t, packed)
	assert.Zero(t, dropped)
	assert.Equal(t, int32(0), ubo.NumLights)
	assert.Equal(t, [MaxLights]PointLight{}, ubo.PointLights)
}

func TestPackLightsCapsAtMaxLights(t *testing.T) {
	objs := NewObjects()
	for i := 0; i < MaxLights+3; i++ {
		l := objs.CreatePointLight(float32(i), 0.1, mgl32.Vec3{1, 1, 1})
		l.Transform.Translation = mgl32.Vec3{float32(i), 0, 0}
	}
	ubo := NewGlobalUbo()

	packed, dropped := PackLights(&ubo, objs)
	assert.Equal(t, MaxLights, packed)
	assert.Equal(t, 3, dropped)
	assert.Equal(t, int32(MaxLights), ubo.NumLights)
	for i, l := range ubo.PointLights {
		assert.Equal(t, float32(i), l.Position[0], "lights are packed in id order")
		assert.Equal(t, float32(i), l.Color[3])
	}
}

func TestPackLightsSkipsInactiveLights(t *testing.T) {
	objs := NewObjects()
	on := objs.CreatePointLight(2, 0.3, mgl32.Vec3{0, 1, 0})
	on.Transform.Translation = mgl32.Vec3{1, 2, 3}
	off := objs.CreatePointLight(5, 0.1, mgl32.Vec3{1, 0, 0})
	off.IsActive = false

	ubo := NewGlobalUbo()
	packed, _ := PackLights(&ubo, objs)
	require.Equal(t, 1, packed)
	assertVec4Near(t, mgl32.Vec4{1, 2, 3, 0.3}, ubo.PointLights[0].Position)
	assert.Equal(t, mgl32.Vec4{0, 1, 0, 2}, ubo.PointLights[0].Color)
}

func TestSetCamera(t *testing.T) {
	c := NewCamera()
	c.SetViewYXZ(mgl32.Vec3{1, 2, 3}, mgl32.Vec3{})
	c.SetPerspectiveProjection(1, 1, 0.1, 10)

	ubo := NewGlobalUbo()
	ubo.SetCamera(c)
	assert.Equal(t, c.Projection(), ubo.Projection)
	assert.Equal(t, c.View(), ubo.View)
	assert.Equal(t, c.InverseView(), ubo.InverseView)
}
