package scene

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

const nearDelta = 1e-4

// Absolute comparisons: mgl32 ApproxEqual is relative and fails on float
// noise next to an exact zero.
func assertMat4Near(t *testing.T, want, got mgl32.Mat4) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], nearDelta, "want %v\ngot  %v", want, got)
}

func assertMat3Near(t *testing.T, want, got mgl32.Mat3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], nearDelta, "want %v\ngot  %v", want, got)
}

func assertVec3Near(t *testing.T, want, got mgl32.Vec3) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], nearDelta, "want %v\ngot  %v", want, got)
}

func assertVec4Near(t *testing.T, want, got mgl32.Vec4) {
	t.Helper()
	assert.InDeltaSlice(t, want[:], got[:], nearDelta, "want %v\ngot  %v", want, got)
}

func TestTransformMat4IsTranslateRotateYXZScale(t *testing.T) {
	tr := TransformComponent{
		Translation: mgl32.Vec3{1, -2, 3},
		Scale:       mgl32.Vec3{2, 0.5, 3},
		Rotation:    mgl32.Vec3{0.3, 1.1, -0.7},
	}
	want := mgl32.Translate3D(1, -2, 3).
		Mul4(mgl32.HomogRotate3DY(1.1)).
		Mul4(mgl32.HomogRotate3DX(0.3)).
		Mul4(mgl32.HomogRotate3DZ(-0.7)).
		Mul4(mgl32.Scale3D(2, 0.5, 3))
	assertMat4Near(t, want, tr.Mat4())
}

func TestTransformIdentity(t *testing.T) {
	assertMat4Near(t, mgl32.Ident4(), NewTransform().Mat4())
}

func TestNormalMatrixIsInverseTranspose(t *testing.T) {
	tr := TransformComponent{
		Translation: mgl32.Vec3{5, 5, 5},
		Scale:       mgl32.Vec3{2, 4, 0.5},
		Rotation:    mgl32.Vec3{-0.4, 0.9, 2.0},
	}
	want := tr.Mat4().Mat3().Inv().Transpose()
	assertMat3Near(t, want, tr.NormalMatrix())
}
