package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Camera holds a Vulkan-style projection (depth 0..1, y down) and a view
// matrix together with its inverse.
type Camera struct {
	projection  mgl32.Mat4
	view        mgl32.Mat4
	inverseView mgl32.Mat4
	rotation    mgl32.Vec3
}

func NewCamera() *Camera {
	return &Camera{
		projection:  mgl32.Ident4(),
		view:        mgl32.Ident4(),
		inverseView: mgl32.Ident4(),
	}
}

func (c *Camera) SetOrthographicProjection(left, right, top, bottom, near, far float32) {
	c.projection = mgl32.Mat4{
		2 / (right - left), 0, 0, 0,
		0, 2 / (bottom - top), 0, 0,
		0, 0, 1 / (far - near), 0,
		-(right + left) / (right - left), -(bottom + top) / (bottom - top), -near / (far - near), 1,
	}
}

// SetPerspectiveProjection takes the vertical field of view in radians.
func (c *Camera) SetPerspectiveProjection(fovy, aspect, near, far float32) {
	tanHalfFovy := math32.Tan(fovy / 2)
	c.projection = mgl32.Mat4{
		1 / (aspect * tanHalfFovy), 0, 0, 0,
		0, 1 / tanHalfFovy, 0, 0,
		0, 0, far / (far - near), 1,
		0, 0, -(far * near) / (far - near), 0,
	}
}

func (c *Camera) SetViewDirection(position, direction, up mgl32.Vec3) {
	w := direction.Normalize()
	u := w.Cross(up).Normalize()
	v := w.Cross(u)
	c.setView(position, u, v, w)
}

func (c *Camera) SetViewTarget(position, target, up mgl32.Vec3) {
	c.SetViewDirection(position, target.Sub(position), up)
}

// SetViewYXZ orients the camera with Tait-Bryan angles applied Y, X, Z, the
// same convention as TransformComponent.
func (c *Camera) SetViewYXZ(position, rotation mgl32.Vec3) {
	c3, s3 := math32.Cos(rotation[2]), math32.Sin(rotation[2])
	c2, s2 := math32.Cos(rotation[0]), math32.Sin(rotation[0])
	c1, s1 := math32.Cos(rotation[1]), math32.Sin(rotation[1])
	u := mgl32.Vec3{c1*c3 + s1*s2*s3, c2 * s3, c1*s2*s3 - c3*s1}
	v := mgl32.Vec3{c3*s1*s2 - c1*s3, c2 * c3, c1*c3*s2 + s1*s3}
	w := mgl32.Vec3{c2 * s1, -s2, c1 * c2}
	c.setView(position, u, v, w)
	c.rotation = rotation
}

// setView builds the view from the orthonormal camera basis u (right),
// v (down) and w (forward).
func (c *Camera) setView(position, u, v, w mgl32.Vec3) {
	c.view = mgl32.Mat4{
		u[0], v[0], w[0], 0,
		u[1], v[1], w[1], 0,
		u[2], v[2], w[2], 0,
		-u.Dot(position), -v.Dot(position), -w.Dot(position), 1,
	}
	c.inverseView = mgl32.Mat4{
		u[0], u[1], u[2], 0,
		v[0], v[1], v[2], 0,
		w[0], w[1], w[2], 0,
		position[0], position[1], position[2], 1,
	}
}

func (c *Camera) Projection() mgl32.Mat4 { return c.projection }

func (c *Camera) View() mgl32.Mat4 { return c.view }

func (c *Camera) InverseView() mgl32.Mat4 { return c.inverseView }

// Rotation is the YXZ rotation of the last SetViewYXZ.
func (c *Camera) Rotation() mgl32.Vec3 { return c.rotation }

func (c *Camera) Position() mgl32.Vec3 {
	return c.inverseView.Col(3).Vec3()
}
