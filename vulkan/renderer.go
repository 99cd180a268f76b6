package vulkan

import (
	"log/slog"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type frameState int

const (
	stateIdle frameState = iota
	stateFrameStarted
	stateRenderPassActive
)

func (s frameState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateFrameStarted:
		return "frame started"
	case stateRenderPassActive:
		return "render pass active"
	default:
		return "unknown"
	}
}

// frameBackend is the GPU side of the frame lifecycle. The Renderer drives
// it; swapchainBackend is the Vulkan implementation.
type frameBackend interface {
	acquire(frame int) (uint32, error)
	commandBuffer(frame int) vk.CommandBuffer
	beginCommands(cmd vk.CommandBuffer) error
	beginRenderPass(cmd vk.CommandBuffer, image uint32, clear [4]float32)
	endRenderPass(cmd vk.CommandBuffer)
	endCommands(cmd vk.CommandBuffer) error
	submit(cmd vk.CommandBuffer, image uint32, frame int) error
	// recreate rebuilds the swapchain at extent and reports whether the
	// image or depth format changed.
	recreate(extent vk.Extent2D) (bool, error)
	extent() vk.Extent2D
	renderPass() vk.RenderPass
	imageCount() int
	destroy()
}

// Renderer runs the per-frame state machine
// Idle -> FrameStarted -> RenderPassActive -> FrameStarted -> Idle
// and hides swapchain recreation from its callers. It is not safe for
// concurrent use.
type Renderer struct {
	ClearColor [4]float32

	backend       frameBackend
	windowExtent  func() vk.Extent2D
	onRecreate    func(formatsChanged bool)
	state         frameState
	imageIndex    uint32
	frameIndex    int
	needsRecreate bool
	log           *slog.Logger
}

// NewRenderer creates the swapchain and per-frame command buffers.
// windowExtent reports the current framebuffer size of the window.
func NewRenderer(device *Device, windowExtent func() vk.Extent2D, vsync bool, log *slog.Logger) (*Renderer, error) {
	backend, err := newSwapchainBackend(device, windowExtent(), vsync, log)
	if err != nil {
		return nil, err
	}
	return newRenderer(backend, windowExtent, log), nil
}

func newRenderer(backend frameBackend, windowExtent func() vk.Extent2D, log *slog.Logger) *Renderer {
	return &Renderer{
		ClearColor:   [4]float32{0.01, 0.01, 0.01, 1},
		backend:      backend,
		windowExtent: windowExtent,
		log:          log,
	}
}

// OnRecreate registers fn to run after every swapchain recreation.
func (r *Renderer) OnRecreate(fn func(formatsChanged bool)) {
	r.onRecreate = fn
}

// MarkResized schedules a swapchain recreation before the next frame.
func (r *Renderer) MarkResized() {
	r.needsRecreate = true
}

// BeginFrame acquires the next swapchain image and starts recording the
// frame's command buffer. It returns ok == false when no frame could be
// produced this iteration: the swapchain was just recreated or the window
// has a zero extent. The caller simply tries again on the next loop
// iteration.
func (r *Renderer) BeginFrame() (cmd vk.CommandBuffer, ok bool, err error) {
	r.assertState(stateIdle, "BeginFrame")

	if r.needsRecreate {
		recreated, err := r.recreateSwapChain()
		if err != nil || !recreated {
			return nil, false, err
		}
	}

	image, err := r.backend.acquire(r.frameIndex)
	if errors.Is(err, ErrSwapChainOutOfDate) {
		r.needsRecreate = true
		_, err := r.recreateSwapChain()
		return nil, false, err
	}
	if err != nil {
		return nil, false, err
	}

	cmd = r.backend.commandBuffer(r.frameIndex)
	if err := r.backend.beginCommands(cmd); err != nil {
		return nil, false, err
	}
	r.imageIndex = image
	r.state = stateFrameStarted
	return cmd, true, nil
}

// EndFrame finishes recording, submits the frame and presents it. An out of
// date swapchain is not an error; it is recreated before the next frame.
func (r *Renderer) EndFrame() error {
	r.assertState(stateFrameStarted, "EndFrame")
	cmd := r.backend.commandBuffer(r.frameIndex)
	r.state = stateIdle

	if err := r.backend.endCommands(cmd); err != nil {
		return err
	}
	err := r.backend.submit(cmd, r.imageIndex, r.frameIndex)
	r.frameIndex = (r.frameIndex + 1) % MaxFramesInFlight
	if errors.Is(err, ErrSwapChainOutOfDate) {
		r.needsRecreate = true
		return nil
	}
	return err
}

// Frame runs one whole frame: BeginFrame, the swapchain render pass around
// record, then EndFrame. A begun frame is always ended, also when record
// fails; record's error is returned ahead of a submit error. ok is false
// when BeginFrame produced no frame, in which case record is not called.
func (r *Renderer) Frame(record func(cmd vk.CommandBuffer) error) (ok bool, err error) {
	cmd, ok, err := r.BeginFrame()
	if err != nil || !ok {
		return false, err
	}
	r.BeginSwapChainRenderPass(cmd)
	err = record(cmd)
	r.EndSwapChainRenderPass(cmd)
	if endErr := r.EndFrame(); err == nil {
		err = endErr
	}
	return true, err
}

func (r *Renderer) BeginSwapChainRenderPass(cmd vk.CommandBuffer) {
	r.assertState(stateFrameStarted, "BeginSwapChainRenderPass")
	r.assertCommandBuffer(cmd, "BeginSwapChainRenderPass")
	r.backend.beginRenderPass(cmd, r.imageIndex, r.ClearColor)
	r.state = stateRenderPassActive
}

func (r *Renderer) EndSwapChainRenderPass(cmd vk.CommandBuffer) {
	r.assertState(stateRenderPassActive, "EndSwapChainRenderPass")
	r.assertCommandBuffer(cmd, "EndSwapChainRenderPass")
	r.backend.endRenderPass(cmd)
	r.state = stateFrameStarted
}

// recreateSwapChain reports false without touching the swapchain while the
// window has no area; the recreation stays pending.
func (r *Renderer) recreateSwapChain() (bool, error) {
	extent := r.windowExtent()
	if extent.Width == 0 || extent.Height == 0 {
		return false, nil
	}
	formatsChanged, err := r.backend.recreate(extent)
	if err != nil {
		return false, errors.Wrap(err, "failed to recreate swapchain")
	}
	r.needsRecreate = false
	if formatsChanged {
		r.log.Warn("swapchain image or depth format changed")
	}
	if r.onRecreate != nil {
		r.onRecreate(formatsChanged)
	}
	return true, nil
}

func (r *Renderer) assertState(want frameState, op string) {
	if r.state != want {
		panic("vulkan: " + op + " called in state " + r.state.String() + ", want " + want.String())
	}
}

func (r *Renderer) assertCommandBuffer(cmd vk.CommandBuffer, op string) {
	if cmd != r.backend.commandBuffer(r.frameIndex) {
		panic("vulkan: " + op + " called with a command buffer from a different frame")
	}
}

func (r *Renderer) IsFrameInProgress() bool {
	return r.state != stateIdle
}

func (r *Renderer) CurrentCommandBuffer() vk.CommandBuffer {
	if r.state == stateIdle {
		panic("vulkan: cannot get command buffer when frame not in progress")
	}
	return r.backend.commandBuffer(r.frameIndex)
}

func (r *Renderer) FrameIndex() int {
	if r.state == stateIdle {
		panic("vulkan: cannot get frame index when frame not in progress")
	}
	return r.frameIndex
}

func (r *Renderer) RenderPass() vk.RenderPass {
	return r.backend.renderPass()
}

func (r *Renderer) ImageCount() int {
	return r.backend.imageCount()
}

func (r *Renderer) AspectRatio() float32 {
	e := r.backend.extent()
	if e.Height == 0 {
		return 1
	}
	return float32(e.Width) / float32(e.Height)
}

func (r *Renderer) Extent() vk.Extent2D {
	return r.backend.extent()
}

func (r *Renderer) Destroy() {
	r.backend.destroy()
}

type swapchainBackend struct {
	device    *Device
	swapChain *SwapChain
	commands  []vk.CommandBuffer
	vsync     bool
	log       *slog.Logger
}

func newSwapchainBackend(device *Device, extent vk.Extent2D, vsync bool, log *slog.Logger) (*swapchainBackend, error) {
	sc, err := NewSwapChain(device, SwapChainConfig{Width: extent.Width, Height: extent.Height, VSync: vsync}, nil, log)
	if err != nil {
		return nil, err
	}
	commands, err := AllocateCommandBuffers(device, MaxFramesInFlight)
	if err != nil {
		sc.Destroy()
		return nil, err
	}
	return &swapchainBackend{
		device:    device,
		swapChain: sc,
		commands:  commands,
		vsync:     vsync,
		log:       log,
	}, nil
}

func (b *swapchainBackend) acquire(frame int) (uint32, error) {
	return b.swapChain.AcquireNextImage(frame)
}

func (b *swapchainBackend) commandBuffer(frame int) vk.CommandBuffer {
	return b.commands[frame]
}

func (b *swapchainBackend) beginCommands(cmd vk.CommandBuffer) error {
	return BeginCommandBuffer(cmd)
}

func (b *swapchainBackend) beginRenderPass(cmd vk.CommandBuffer, image uint32, clear [4]float32) {
	extent := b.swapChain.Extent
	clearValues := []vk.ClearValue{
		vk.NewClearValue(clear[:]),
		vk.NewClearDepthStencil(1, 0),
	}
	vk.CmdBeginRenderPass(cmd, &vk.RenderPassBeginInfo{
		SType:       vk.StructureTypeRenderPassBeginInfo,
		RenderPass:  b.swapChain.RenderPass,
		Framebuffer: b.swapChain.Framebuffer(image),
		RenderArea: vk.Rect2D{
			Offset: vk.Offset2D{X: 0, Y: 0},
			Extent: extent,
		},
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}, vk.SubpassContentsInline)
	SetViewportAndScissor(cmd, extent)
}

func (b *swapchainBackend) endRenderPass(cmd vk.CommandBuffer) {
	vk.CmdEndRenderPass(cmd)
}

func (b *swapchainBackend) endCommands(cmd vk.CommandBuffer) error {
	return EndCommandBuffer(cmd)
}

func (b *swapchainBackend) submit(cmd vk.CommandBuffer, image uint32, frame int) error {
	return b.swapChain.SubmitCommandBuffers(cmd, image, frame)
}

func (b *swapchainBackend) recreate(extent vk.Extent2D) (bool, error) {
	b.device.WaitIdle()
	old := b.swapChain
	sc, err := NewSwapChain(b.device, SwapChainConfig{Width: extent.Width, Height: extent.Height, VSync: b.vsync}, old, b.log)
	if err != nil {
		return false, err
	}
	b.swapChain = sc
	return !sc.CompareSwapFormats(old), nil
}

func (b *swapchainBackend) extent() vk.Extent2D {
	return b.swapChain.Extent
}

func (b *swapchainBackend) renderPass() vk.RenderPass {
	return b.swapChain.RenderPass
}

func (b *swapchainBackend) imageCount() int {
	return b.swapChain.ImageCount()
}

func (b *swapchainBackend) destroy() {
	FreeCommandBuffers(b.device, b.commands)
	b.commands = nil
	b.swapChain.Destroy()
}
