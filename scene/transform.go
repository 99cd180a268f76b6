package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent places an object in the world. Rotation holds Tait-Bryan
// angles in radians applied in Y, X, Z order.
type TransformComponent struct {
	Translation mgl32.Vec3
	Scale       mgl32.Vec3
	Rotation    mgl32.Vec3
}

func NewTransform() TransformComponent {
	return TransformComponent{Scale: mgl32.Vec3{1, 1, 1}}
}

// Mat4 returns translate * Ry * Rx * Rz * scale.
func (t TransformComponent) Mat4() mgl32.Mat4 {
	c3, s3 := math32.Cos(t.Rotation[2]), math32.Sin(t.Rotation[2])
	c2, s2 := math32.Cos(t.Rotation[0]), math32.Sin(t.Rotation[0])
	c1, s1 := math32.Cos(t.Rotation[1]), math32.Sin(t.Rotation[1])
	sx, sy, sz := t.Scale[0], t.Scale[1], t.Scale[2]

	return mgl32.Mat4{
		sx * (c1*c3 + s1*s2*s3), sx * (c2 * s3), sx * (c1*s2*s3 - c3*s1), 0,
		sy * (c3*s1*s2 - c1*s3), sy * (c2 * c3), sy * (c1*c3*s2 + s1*s3), 0,
		sz * (c2 * s1), sz * (-s2), sz * (c1 * c2), 0,
		t.Translation[0], t.Translation[1], t.Translation[2], 1,
	}
}

// NormalMatrix is the inverse transpose of the upper 3x3 of Mat4, computed
// directly from the rotation and inverse scale.
func (t TransformComponent) NormalMatrix() mgl32.Mat3 {
	c3, s3 := math32.Cos(t.Rotation[2]), math32.Sin(t.Rotation[2])
	c2, s2 := math32.Cos(t.Rotation[0]), math32.Sin(t.Rotation[0])
	c1, s1 := math32.Cos(t.Rotation[1]), math32.Sin(t.Rotation[1])
	ix, iy, iz := 1/t.Scale[0], 1/t.Scale[1], 1/t.Scale[2]

	return mgl32.Mat3{
		ix * (c1*c3 + s1*s2*s3), ix * (c2 * s3), ix * (c1*s2*s3 - c3*s1),
		iy * (c3*s1*s2 - c1*s3), iy * (c2 * c3), iy * (c1*c3*s2 + s1*s3),
		iz * (c2 * s1), iz * (-s2), iz * (c1 * c2),
	}
}
