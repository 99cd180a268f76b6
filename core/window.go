// Package core holds the window, events, configuration and logging shared
// by the engine's entry point.
package core

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"

	"voxel-engine/scene"
)

func init() {
	runtime.LockOSThread()
}

// InputHandler receives raw input the camera controller does not poll.
type InputHandler interface {
	KeyChange(key glfw.Key, action glfw.Action)
	MouseButtonChange(button glfw.MouseButton, action glfw.Action)
	MouseScrollChange(x, y float64)
	CharChange(char rune)
}

type Window struct {
	Handle *glfw.Window

	title   string
	resized bool
	events  eventQueue
}

// NewWindow initializes glfw and the Vulkan loader and opens a window with
// no client API.
func NewWindow(cfg WindowConfig) (*Window, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "failed to initialize GLFW")
	}
	if !glfw.VulkanSupported() {
		glfw.Terminate()
		return nil, errors.New("GLFW reports no Vulkan support")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "failed to load Vulkan")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	glfw.WindowHint(glfw.Resizable, boolToInt(cfg.Resizable))

	handle, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "failed to create window")
	}

	w := &Window{Handle: handle, title: cfg.Title}
	handle.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized = true
		w.events.push(Event{Kind: EventWindowResize, Width: width, Height: height})
	})
	handle.SetCloseCallback(func(_ *glfw.Window) {
		w.events.push(Event{Kind: EventWindowClose})
	})
	return w, nil
}

// SetInputHandler forwards keys, mouse buttons, scrolling and text input
// to h.
func (w *Window) SetInputHandler(h InputHandler) {
	w.Handle.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		h.KeyChange(key, action)
	})
	w.Handle.SetMouseButtonCallback(func(_ *glfw.Window, button glfw.MouseButton, action glfw.Action, _ glfw.ModifierKey) {
		h.MouseButtonChange(button, action)
	})
	w.Handle.SetScrollCallback(func(_ *glfw.Window, x, y float64) {
		h.MouseScrollChange(x, y)
	})
	w.Handle.SetCharCallback(func(_ *glfw.Window, char rune) {
		h.CharChange(char)
	})
}

func (w *Window) ShouldClose() bool {
	return w.Handle.ShouldClose()
}

// PollEvents processes pending window events and returns those raised
// since the last call.
func (w *Window) PollEvents() []Event {
	glfw.PollEvents()
	return w.events.drain()
}

// WaitEvents blocks until the window receives an event.
func (w *Window) WaitEvents() []Event {
	glfw.WaitEvents()
	return w.events.drain()
}

// Extent is the framebuffer size in pixels. It is zero while minimized.
func (w *Window) Extent() vk.Extent2D {
	width, height := w.Handle.GetFramebufferSize()
	return vk.Extent2D{Width: uint32(max(width, 0)), Height: uint32(max(height, 0))}
}

func (w *Window) WasResized() bool {
	return w.resized
}

func (w *Window) ResetResized() {
	w.resized = false
}

func (w *Window) KeyPressed(key scene.Key) bool {
	return w.Handle.GetKey(glfw.Key(key)) == glfw.Press
}

func (w *Window) RequiredInstanceExtensions() []string {
	return w.Handle.GetRequiredInstanceExtensions()
}

func (w *Window) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	ptr, err := w.Handle.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, errors.Wrap(err, "failed to create window surface")
	}
	return vk.SurfaceFromPointer(ptr), nil
}

func (w *Window) Title() string {
	return w.title
}

func (w *Window) Destroy() {
	w.Handle.Destroy()
	glfw.Terminate()
}

func boolToInt(b bool) int {
	if b {
		return glfw.True
	}
	return glfw.False
}
