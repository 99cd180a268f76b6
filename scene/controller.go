package scene

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Key is a keyboard key code. The values match GLFW key codes.
type Key int

const (
	KeyA           Key = 65
	KeyD           Key = 68
	KeyE           Key = 69
	KeyQ           Key = 81
	KeyS           Key = 83
	KeyW           Key = 87
	KeyRight       Key = 262
	KeyLeft        Key = 263
	KeyDown        Key = 264
	KeyUp          Key = 265
	KeyLeftShift   Key = 340
	KeyLeftControl Key = 341
)

// KeyState reports whether a key is currently held down.
type KeyState interface {
	KeyPressed(key Key) bool
}

type KeyMappings struct {
	MoveLeft     Key
	MoveRight    Key
	MoveForward  Key
	MoveBackward Key
	MoveUp       Key
	MoveDown     Key
	LookLeft     Key
	LookRight    Key
	LookUp       Key
	LookDown     Key
	Sprint       Key
	Sneak        Key
}

func DefaultKeyMappings() KeyMappings {
	return KeyMappings{
		MoveLeft:     KeyA,
		MoveRight:    KeyD,
		MoveForward:  KeyW,
		MoveBackward: KeyS,
		MoveUp:       KeyE,
		MoveDown:     KeyQ,
		LookLeft:     KeyLeft,
		LookRight:    KeyRight,
		LookUp:       KeyUp,
		LookDown:     KeyDown,
		Sprint:       KeyLeftShift,
		Sneak:        KeyLeftControl,
	}
}

const (
	maxPitch         = 1.5
	sprintMultiplier = 2.0
	sneakMultiplier  = 0.25
	inputEpsilon     = 1e-6
)

// KeyboardMovementController flies a game object in the XZ plane. The
// world's up axis is -Y.
type KeyboardMovementController struct {
	Keys      KeyMappings
	MoveSpeed float32
	LookSpeed float32
}

func NewKeyboardMovementController(moveSpeed, lookSpeed float32) *KeyboardMovementController {
	return &KeyboardMovementController{
		Keys:      DefaultKeyMappings(),
		MoveSpeed: moveSpeed,
		LookSpeed: lookSpeed,
	}
}

// MoveInPlaneXZ applies one frame of input to obj's transform.
func (c *KeyboardMovementController) MoveInPlaneXZ(keys KeyState, dt float32, obj *GameObject) {
	var rotate mgl32.Vec3
	if keys.KeyPressed(c.Keys.LookRight) {
		rotate[1] += 1
	}
	if keys.KeyPressed(c.Keys.LookLeft) {
		rotate[1] -= 1
	}
	if keys.KeyPressed(c.Keys.LookUp) {
		rotate[0] += 1
	}
	if keys.KeyPressed(c.Keys.LookDown) {
		rotate[0] -= 1
	}
	if rotate.Dot(rotate) > inputEpsilon {
		obj.Transform.Rotation = obj.Transform.Rotation.Add(rotate.Normalize().Mul(c.LookSpeed * dt))
	}

	obj.Transform.Rotation[0] = mgl32.Clamp(obj.Transform.Rotation[0], -maxPitch, maxPitch)
	obj.Transform.Rotation[1] = wrapAngle(obj.Transform.Rotation[1])

	yaw := obj.Transform.Rotation[1]
	forward := mgl32.Vec3{math32.Sin(yaw), 0, math32.Cos(yaw)}
	right := mgl32.Vec3{forward[2], 0, -forward[0]}
	up := mgl32.Vec3{0, -1, 0}

	var move mgl32.Vec3
	if keys.KeyPressed(c.Keys.MoveForward) {
		move = move.Add(forward)
	}
	if keys.KeyPressed(c.Keys.MoveBackward) {
		move = move.Sub(forward)
	}
	if keys.KeyPressed(c.Keys.MoveRight) {
		move = move.Add(right)
	}
	if keys.KeyPressed(c.Keys.MoveLeft) {
		move = move.Sub(right)
	}
	if keys.KeyPressed(c.Keys.MoveUp) {
		move = move.Add(up)
	}
	if keys.KeyPressed(c.Keys.MoveDown) {
		move = move.Sub(up)
	}
	if move.Dot(move) <= inputEpsilon {
		return
	}

	speed := c.MoveSpeed
	switch {
	case keys.KeyPressed(c.Keys.Sprint):
		speed *= sprintMultiplier
	case keys.KeyPressed(c.Keys.Sneak):
		speed *= sneakMultiplier
	}
	obj.Transform.Translation = obj.Transform.Translation.Add(move.Normalize().Mul(speed * dt))
}

// wrapAngle maps a into [0, 2π).
func wrapAngle(a float32) float32 {
	a = math32.Mod(a, 2*math32.Pi)
	if a < 0 {
		a += 2 * math32.Pi
	}
	return a
}
