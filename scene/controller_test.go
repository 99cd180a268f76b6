package scene

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

type pressedKeys map[Key]bool

func (p pressedKeys) KeyPressed(k Key) bool { return p[k] }

func newViewer() *GameObject {
	return NewObjects().Create()
}

func TestControllerMovesForwardAlongYaw(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)
	obj := newViewer()

	c.MoveInPlaneXZ(pressedKeys{KeyW: true}, 0.5, obj)
	assertVec3Near(t, mgl32.Vec3{0, 0, 10}, obj.Transform.Translation)

	obj.Transform.Translation = mgl32.Vec3{}
	obj.Transform.Rotation[1] = math32.Pi / 2
	c.MoveInPlaneXZ(pressedKeys{KeyW: true}, 0.5, obj)
	assertVec3Near(t, mgl32.Vec3{10, 0, 0}, obj.Transform.Translation)
}

func TestControllerUpIsNegativeY(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)
	obj := newViewer()
	c.MoveInPlaneXZ(pressedKeys{KeyE: true}, 0.1, obj)
	assert.InDelta(t, -2, obj.Transform.Translation[1], 1e-5)
}

func TestControllerDiagonalIsNormalized(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)
	obj := newViewer()
	c.MoveInPlaneXZ(pressedKeys{KeyW: true, KeyD: true}, 1, obj)
	assert.InDelta(t, 20, obj.Transform.Translation.Len(), 1e-4)
}

func TestControllerSprintAndSneak(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)

	fast := newViewer()
	c.MoveInPlaneXZ(pressedKeys{KeyW: true, KeyLeftShift: true}, 1, fast)
	slow := newViewer()
	c.MoveInPlaneXZ(pressedKeys{KeyW: true, KeyLeftControl: true}, 1, slow)

	assert.InDelta(t, 40, fast.Transform.Translation.Len(), 1e-4)
	assert.InDelta(t, 5, slow.Transform.Translation.Len(), 1e-4)
}

func TestControllerClampsPitchAndWrapsYaw(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)
	obj := newViewer()

	c.MoveInPlaneXZ(pressedKeys{KeyUp: true}, 10, obj)
	assert.Equal(t, float32(1.5), obj.Transform.Rotation[0])

	c.MoveInPlaneXZ(pressedKeys{KeyDown: true}, 10, obj)
	assert.Equal(t, float32(-1.5), obj.Transform.Rotation[0])

	obj.Transform.Rotation[1] = 0
	c.MoveInPlaneXZ(pressedKeys{KeyLeft: true}, 0.1, obj)
	yaw := obj.Transform.Rotation[1]
	assert.GreaterOrEqual(t, yaw, float32(0))
	assert.Less(t, yaw, 2*math32.Pi)
	assert.InDelta(t, 2*math32.Pi-0.25, yaw, 1e-4)
}

func TestControllerIdleLeavesTransform(t *testing.T) {
	c := NewKeyboardMovementController(20, 2.5)
	obj := newViewer()
	obj.Transform.Translation = mgl32.Vec3{1, 2, 3}
	c.MoveInPlaneXZ(pressedKeys{}, 1, obj)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, obj.Transform.Translation)
}

func TestWrapAngle(t *testing.T) {
	assert.InDelta(t, 1, wrapAngle(1+2*math32.Pi), 1e-5)
	assert.InDelta(t, 2*math32.Pi-1, wrapAngle(-1), 1e-5)
}
