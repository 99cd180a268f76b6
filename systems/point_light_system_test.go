package systems

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voxel-engine/scene"
)

func newTestLightSystem() (*PointLightSystem, *bytes.Buffer) {
	var buf bytes.Buffer
	return &PointLightSystem{log: slog.New(slog.NewTextHandler(&buf, nil))}, &buf
}

func TestPointLightUpdateOrbitsLights(t *testing.T) {
	s, _ := newTestLightSystem()
	objs := scene.NewObjects()
	light := objs.CreatePointLight(1, 0.1, mgl32.Vec3{1, 1, 1})
	light.Transform.Translation = mgl32.Vec3{1, -1, 0}
	block := objs.Create()
	block.Transform.Translation = mgl32.Vec3{1, 0, 0}

	frame := &scene.FrameInfo{FrameTime: math32.Pi, GameObjects: objs}
	ubo := scene.NewGlobalUbo()
	s.Update(frame, &ubo)

	pos := light.Transform.Translation
	assert.InDelta(t, 1, pos.Len()/math32.Sqrt2, 1e-5, "rotation keeps the distance to the axis")
	assert.InDelta(t, -1, pos[1], 1e-5, "height is unchanged")
	assert.InDelta(t, 0, pos[0], 1e-5)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, block.Transform.Translation)
	assert.Equal(t, 1, s.LightCount())
	assert.Equal(t, int32(1), ubo.NumLights)
}

func TestPointLightOverflowReportedOnce(t *testing.T) {
	s, logs := newTestLightSystem()
	objs := scene.NewObjects()
	for i := 0; i < scene.MaxLights+3; i++ {
		objs.CreatePointLight(1, 0.1, mgl32.Vec3{1, 1, 1})
	}
	frame := &scene.FrameInfo{FrameTime: 0.016, GameObjects: objs}
	ubo := scene.NewGlobalUbo()

	for i := 0; i < 5; i++ {
		s.Update(frame, &ubo)
	}
	require.Equal(t, scene.MaxLights, s.LightCount())
	assert.Equal(t, 1, strings.Count(logs.String(), "too many point lights"))
}

func TestPointLightNoLights(t *testing.T) {
	s, logs := newTestLightSystem()
	ubo := scene.NewGlobalUbo()
	ubo.NumLights = 4
	s.Update(&scene.FrameInfo{GameObjects: scene.NewObjects()}, &ubo)
	assert.Equal(t, 0, s.LightCount())
	assert.Equal(t, int32(0), ubo.NumLights)
	assert.Empty(t, logs.String())
}
