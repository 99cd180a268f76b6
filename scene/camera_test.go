package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestViewTimesInverseViewIsIdentity(t *testing.T) {
	c := NewCamera()
	c.SetViewYXZ(mgl32.Vec3{3, -4, 12}, mgl32.Vec3{0.2, 1.3, 0})
	assertMat4Near(t, mgl32.Ident4(), c.View().Mul4(c.InverseView()))
	assertVec3Near(t, mgl32.Vec3{3, -4, 12}, c.Position())
}

func TestViewTargetLooksDownPositiveZ(t *testing.T) {
	c := NewCamera()
	c.SetViewTarget(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, -1, 0})

	p := c.View().Mul4x1(mgl32.Vec4{0, 0, 0, 1})
	assert.InDelta(t, 5, p[2], 1e-5, "target is in front of the camera")
	assert.InDelta(t, 0, p[0], 1e-5)
	assert.InDelta(t, 0, p[1], 1e-5)
	assertMat4Near(t, mgl32.Ident4(), c.View().Mul4(c.InverseView()))
}

func TestViewYXZMatchesTransform(t *testing.T) {
	rot := mgl32.Vec3{0.4, -2.1, 0.3}
	pos := mgl32.Vec3{1, 2, 3}
	c := NewCamera()
	c.SetViewYXZ(pos, rot)

	tr := TransformComponent{Translation: pos, Rotation: rot, Scale: mgl32.Vec3{1, 1, 1}}
	assertMat4Near(t, tr.Mat4(), c.InverseView())
}

func TestPerspectiveProjectionDepthRange(t *testing.T) {
	c := NewCamera()
	c.SetPerspectiveProjection(mgl32.DegToRad(60), 16.0/9.0, 0.1, 1000)

	near := c.Projection().Mul4x1(mgl32.Vec4{0, 0, 0.1, 1})
	far := c.Projection().Mul4x1(mgl32.Vec4{0, 0, 1000, 1})
	assert.InDelta(t, 0, near[2]/near[3], 1e-5)
	assert.InDelta(t, 1, far[2]/far[3], 1e-4)

	edge := c.Projection().Mul4x1(mgl32.Vec4{0, math32.Tan(mgl32.DegToRad(30)), 1, 1})
	assert.InDelta(t, 1, edge[1]/edge[3], 1e-5)
}

func TestOrthographicProjection(t *testing.T) {
	c := NewCamera()
	c.SetOrthographicProjection(-1, 1, -1, 1, -1, 1)

	p := c.Projection().Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	assert.InDelta(t, 1, p[0], 1e-6)
	assert.InDelta(t, 1, p[1], 1e-6)
	assert.InDelta(t, 1, p[2], 1e-6)

	p = c.Projection().Mul4x1(mgl32.Vec4{-1, -1, -1, 1})
	assert.InDelta(t, -1, p[0], 1e-6)
	assert.InDelta(t, 0, p[2], 1e-6)
}
