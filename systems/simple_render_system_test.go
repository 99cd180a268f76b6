package systems

import (
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"voxel-engine/scene"
)

func ids(objs []*scene.GameObject) []scene.ID {
	out := make([]scene.ID, len(objs))
	for i, o := range objs {
		out[i] = o.ID
	}
	return out
}

func TestDrawListsFollowRenderMode(t *testing.T) {
	objs := scene.NewObjects()
	model := &scene.Model{}

	filled := objs.Create()
	filled.SetModel(model, false)

	wire := objs.Create()
	wire.SetModel(model, false)
	wire.RenderMode = scene.RenderWireframe

	both := objs.Create()
	both.SetModel(model, false)
	both.RenderMode = scene.RenderBoth

	flagged := objs.Create()
	flagged.SetModel(model, false)
	flagged.IsWireFrame = true

	inactive := objs.Create()
	inactive.SetModel(model, false)
	inactive.IsActive = false

	objs.Create()

	light := objs.CreatePointLight(1, 0.1, mgl32.Vec3{1, 1, 1})
	light.SetModel(model, false)

	f, l := drawLists(objs, nil)
	assert.Equal(t, []scene.ID{filled.ID, both.ID}, ids(f))
	assert.Equal(t, []scene.ID{wire.ID, both.ID, flagged.ID}, ids(l))
}

func TestPushConstantLayout(t *testing.T) {
	assert.Equal(t, uintptr(128), unsafe.Sizeof(SimplePushConstantData{}))

	obj := scene.NewObjects().Create()
	obj.Transform.Translation = mgl32.Vec3{1, 2, 3}
	obj.Transform.Scale = mgl32.Vec3{2, 2, 2}
	push := pushConstantsFor(obj)
	assert.Equal(t, obj.Transform.Mat4(), push.ModelMatrix)
	assert.Equal(t, float32(1), push.NormalMatrix[15])
	assert.InDelta(t, 0.5, push.NormalMatrix[0], 1e-6)
}

func TestShaderSetIn(t *testing.T) {
	s := ShaderSetIn("shaders", "simple_shader")
	assert.Equal(t, "shaders/simple_shader.vert.spv", s.Vertex)
	assert.Equal(t, "shaders/simple_shader.frag.spv", s.Fragment)
}

func TestDrawListsCullsOutsideFrustum(t *testing.T) {
	camera := scene.NewCamera()
	camera.SetPerspectiveProjection(mgl32.DegToRad(60), 1, 0.1, 100)
	camera.SetViewDirection(mgl32.Vec3{}, mgl32.Vec3{0, 0, 1}, mgl32.Vec3{0, -1, 0})
	frustum := scene.CameraFrustum(camera)

	objs := scene.NewObjects()
	model := &scene.Model{}
	ahead := objs.Create()
	ahead.SetModel(model, false)
	ahead.Transform.Translation = mgl32.Vec3{0, 0, 5}
	ahead.RenderMode = scene.RenderBoth

	behind := objs.Create()
	behind.SetModel(model, false)
	behind.Transform.Translation = mgl32.Vec3{0, 0, -5}

	f, l := drawLists(objs, &frustum)
	assert.Equal(t, []scene.ID{ahead.ID}, ids(f))
	assert.Equal(t, []scene.ID{ahead.ID}, ids(l))
}
