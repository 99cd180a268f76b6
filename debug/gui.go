package debug

import (
	"fmt"
	"log/slog"
	"math"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/inkyblackness/imgui-go/v4"
	"github.com/pkg/errors"

	"voxel-engine/scene"
	"voxel-engine/vulkan"
)

const (
	windowTitle = "Runtime info"
	windowFlags = imgui.WindowFlagsNoTitleBar | imgui.WindowFlagsNoScrollbar | imgui.WindowFlagsMenuBar |
		imgui.WindowFlagsNoNav | imgui.WindowFlagsNoBackground | imgui.WindowFlagsNoBringToFrontOnFocus
)

var (
	windowPos  = imgui.Vec2{X: 650, Y: 20}
	windowSize = imgui.Vec2{X: 550, Y: 680}
)

// overlayPush is the overlay vertex shader's push constant block mapping
// imgui pixel coordinates to clip space.
type overlayPush struct {
	Scale     [2]float32
	Translate [2]float32
}

func pushFor(displayW, displayH float32) overlayPush {
	return overlayPush{
		Scale:     [2]float32{2 / displayW, 2 / displayH},
		Translate: [2]float32{-1, -1},
	}
}

// frameBuffers holds one frame slot's host-visible geometry.
type frameBuffers struct {
	vertices *vulkan.Buffer
	indices  *vulkan.Buffer
}

// Gui draws the runtime info window on top of the scene with imgui.
type Gui struct {
	Overlay Overlay

	device   *vulkan.Device
	window   *glfw.Window
	context  *imgui.Context
	io       imgui.IO
	log      *slog.Logger
	vertPath string
	fragPath string

	pool       *vulkan.DescriptorPool
	setLayout  *vulkan.DescriptorSetLayout
	fontSet    vk.DescriptorSet
	font       *vulkan.Texture
	layout     vk.PipelineLayout
	pipeline   *vulkan.Pipeline
	frames     [vulkan.MaxFramesInFlight]frameBuffers
	frameIndex int

	// display is in window coordinates, framebuffer in pixels. They differ
	// on HiDPI screens.
	display     imgui.Vec2
	framebuffer imgui.Vec2

	time             float64
	mouseJustPressed [3]bool
	firstFrame       bool
}

func NewGui(device *vulkan.Device, renderPass vk.RenderPass, window *glfw.Window, vertPath, fragPath string, log *slog.Logger) (*Gui, error) {
	g := &Gui{
		device:     device,
		window:     window,
		log:        log,
		vertPath:   vertPath,
		fragPath:   fragPath,
		firstFrame: true,
	}
	g.context = imgui.CreateContext(nil)
	g.io = imgui.CurrentIO()
	g.setKeyMapping()

	if err := g.init(renderPass); err != nil {
		g.Destroy()
		return nil, err
	}
	return g, nil
}

func (g *Gui) init(renderPass vk.RenderPass) error {
	var err error
	if g.pool, err = vulkan.NewDescriptorPool(g.device, vulkan.OverlayPoolConfig()); err != nil {
		return errors.Wrap(err, "failed to create overlay descriptor pool")
	}
	g.setLayout, err = vulkan.NewDescriptorSetLayout(g.device, vulkan.DescriptorSetLayoutConfig{
		Bindings: []vk.DescriptorSetLayoutBinding{
			vulkan.CombinedImageSamplerBinding(0, vk.ShaderStageFlags(vk.ShaderStageFragmentBit)),
		},
	})
	if err != nil {
		return err
	}
	if err := g.createFontTexture(); err != nil {
		return err
	}
	g.layout, err = vulkan.NewPipelineLayout(g.device,
		[]vk.DescriptorSetLayout{g.setLayout.Handle},
		[]vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(vk.ShaderStageVertexBit),
			Size:       uint32(unsafe.Sizeof(overlayPush{})),
		}})
	if err != nil {
		return err
	}
	return g.Rebuild(renderPass)
}

func (g *Gui) createFontTexture() error {
	image := g.io.Fonts().TextureDataRGBA32()
	size := image.Width * image.Height * 4
	pixels := unsafe.Slice((*byte)(image.Pixels), size)

	font, err := vulkan.UploadTexture(g.device, uint32(image.Width), uint32(image.Height), pixels)
	if err != nil {
		return errors.Wrap(err, "failed to upload overlay font atlas")
	}
	g.font = font

	set, err := g.pool.AllocateDescriptorSet(g.setLayout)
	if errors.Is(err, vulkan.ErrDescriptorPoolExhausted) {
		g.log.Warn("overlay descriptor pool exhausted, overlay is not drawn")
		return nil
	}
	if err != nil {
		return err
	}
	info := font.DescriptorInfo()
	err = vulkan.DescriptorWriter{
		Layout: g.setLayout,
		Writes: []vulkan.DescriptorWrite{{Binding: 0, Image: &info}},
	}.Write(g.device, set)
	if err != nil {
		return err
	}
	g.fontSet = set
	g.io.Fonts().SetTextureID(imgui.TextureID(1))
	return nil
}

func overlayPipelineConfig(renderPass vk.RenderPass, layout vk.PipelineLayout) vulkan.PipelineConfig {
	vertexSize, posOffset, uvOffset, colOffset := imgui.VertexBufferLayout()

	cfg := vulkan.EnableAlphaBlending(vulkan.DefaultPipelineConfig())
	cfg.DepthTestEnable = false
	cfg.DepthWriteEnable = false
	cfg.BindingDescriptions = []vk.VertexInputBindingDescription{{
		Binding:   0,
		Stride:    uint32(vertexSize),
		InputRate: vk.VertexInputRateVertex,
	}}
	cfg.AttributeDescriptions = []vk.VertexInputAttributeDescription{
		{Location: 0, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(posOffset)},
		{Location: 1, Binding: 0, Format: vk.FormatR32g32Sfloat, Offset: uint32(uvOffset)},
		{Location: 2, Binding: 0, Format: vk.FormatR8g8b8a8Unorm, Offset: uint32(colOffset)},
	}
	cfg.RenderPass = renderPass
	cfg.PipelineLayout = layout
	return cfg
}

// Rebuild recreates the overlay pipeline against renderPass, keeping the
// current one on failure.
func (g *Gui) Rebuild(renderPass vk.RenderPass) error {
	p, err := vulkan.NewPipeline(g.device, g.vertPath, g.fragPath, overlayPipelineConfig(renderPass, g.layout))
	if err != nil {
		return errors.Wrap(err, "failed to build overlay pipeline")
	}
	if g.pipeline != nil {
		g.pipeline.Destroy()
	}
	g.pipeline = p
	return nil
}

// NewFrame feeds window and mouse state to imgui and starts a new widget
// frame.
func (g *Gui) NewFrame(frame *scene.FrameInfo) {
	g.frameIndex = frame.FrameIndex

	w, h := g.window.GetSize()
	fw, fh := g.window.GetFramebufferSize()
	g.display = imgui.Vec2{X: float32(w), Y: float32(h)}
	g.framebuffer = imgui.Vec2{X: float32(fw), Y: float32(fh)}
	g.io.SetDisplaySize(g.display)
	g.io.SetDisplayFrameBufferScale(framebufferScale(g.display, g.framebuffer))

	now := glfw.GetTime()
	if g.time > 0 {
		g.io.SetDeltaTime(float32(now - g.time))
	}
	g.time = now

	if g.window.GetAttrib(glfw.Focused) != 0 {
		x, y := g.window.GetCursorPos()
		g.io.SetMousePosition(imgui.Vec2{X: float32(x), Y: float32(y)})
	} else {
		g.io.SetMousePosition(imgui.Vec2{X: -math.MaxFloat32, Y: -math.MaxFloat32})
	}
	for i := range g.mouseJustPressed {
		down := g.mouseJustPressed[i] || g.window.GetMouseButton(mouseButtons[i]) == glfw.Press
		g.io.SetMouseButtonDown(i, down)
		g.mouseJustPressed[i] = false
	}

	imgui.NewFrame()
}

// Draw lays out the runtime info window and applies its button presses.
func (g *Gui) Draw(frame *scene.FrameInfo, borderIDs []scene.ID) {
	if g.firstFrame {
		imgui.SetNextWindowPos(windowPos)
		imgui.SetNextWindowSize(windowSize)
		g.firstFrame = false
	}
	imgui.BeginV(windowTitle, nil, windowFlags)
	defer imgui.End()

	objects := frame.GameObjects
	imgui.Text(fmt.Sprintf("FrameTime: %f ms", frame.FrameTime*1000))
	imgui.Text(fmt.Sprintf("FPS: %f", g.Overlay.UpdateFPS(frame.FrameTime)))
	imgui.Text(fmt.Sprintf("GameObjects: %d", objects.Len()))

	if frame.Camera != nil {
		pos := frame.Camera.Position()
		rot := frame.Camera.Rotation()
		imgui.Text(fmt.Sprintf("Camera position: x:%f, y:%f, z:%f", pos.X(), pos.Y(), pos.Z()))
		imgui.Text(fmt.Sprintf("Camera rotation: yaw:%f, pitch:%f, roll:%f", rot.Y(), rot.X(), rot.Z()))
	}

	if imgui.Button("Render chunk borders") {
		g.Overlay.ToggleChunkBorders(objects, borderIDs)
	}
	if imgui.Button("Render wireframes borders") {
		g.Overlay.ToggleWireframes(objects)
	}
	if imgui.Button("Disable chunk loading") {
		g.Overlay.ToggleChunkLoading(frame)
	}
	imgui.Text(fmt.Sprintf("Vertices: %d", VertexCount(objects)))
}

// Render finishes the imgui frame and records its draw commands into cmd,
// which must be inside the swapchain render pass.
func (g *Gui) Render(cmd vk.CommandBuffer) error {
	imgui.Render()
	data := imgui.RenderedDrawData()
	lists := data.CommandLists()
	if len(lists) == 0 || g.framebuffer.X <= 0 || g.framebuffer.Y <= 0 || g.fontSet == vk.DescriptorSet(vk.NullHandle) {
		return nil
	}

	var vertexBytes, indexBytes int
	for _, list := range lists {
		_, vs := list.VertexBuffer()
		_, is := list.IndexBuffer()
		vertexBytes += vs
		indexBytes += is
	}
	if vertexBytes == 0 || indexBytes == 0 {
		return nil
	}

	fb := &g.frames[g.frameIndex]
	var err error
	if fb.vertices, err = g.ensureBuffer(fb.vertices, vertexBytes, vk.BufferUsageVertexBufferBit); err != nil {
		return err
	}
	if fb.indices, err = g.ensureBuffer(fb.indices, indexBytes, vk.BufferUsageIndexBufferBit); err != nil {
		return err
	}

	var vOff, iOff vk.DeviceSize
	for _, list := range lists {
		vp, vs := list.VertexBuffer()
		ip, is := list.IndexBuffer()
		if err := fb.vertices.WriteToBuffer(unsafe.Slice((*byte)(vp), vs), vOff); err != nil {
			return err
		}
		if err := fb.indices.WriteToBuffer(unsafe.Slice((*byte)(ip), is), iOff); err != nil {
			return err
		}
		vOff += vk.DeviceSize(vs)
		iOff += vk.DeviceSize(is)
	}

	display, fbSize := g.display, g.framebuffer
	scale := framebufferScale(display, fbSize)
	g.pipeline.Bind(cmd)
	vk.CmdBindDescriptorSets(cmd, vk.PipelineBindPointGraphics, g.layout, 0, 1, []vk.DescriptorSet{g.fontSet}, 0, nil)
	vk.CmdBindVertexBuffers(cmd, 0, 1, []vk.Buffer{fb.vertices.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(cmd, fb.indices.Handle, 0, indexType())
	vk.CmdSetViewport(cmd, 0, 1, []vk.Viewport{{Width: fbSize.X, Height: fbSize.Y, MinDepth: 0, MaxDepth: 1}})
	push := pushFor(display.X, display.Y)
	vk.CmdPushConstants(cmd, g.layout, vk.ShaderStageFlags(vk.ShaderStageVertexBit), 0,
		uint32(unsafe.Sizeof(push)), unsafe.Pointer(&push))

	vertexSize, _, _, _ := imgui.VertexBufferLayout()
	indexSize := imgui.IndexBufferLayout()
	var vertexBase, indexBase int
	for _, list := range lists {
		offset := 0
		for _, c := range list.Commands() {
			if c.HasUserCallback() {
				c.CallUserCallback(list)
			} else if scissor, ok := clipToScissor(c.ClipRect(), scale, fbSize); ok {
				vk.CmdSetScissor(cmd, 0, 1, []vk.Rect2D{scissor})
				vk.CmdDrawIndexed(cmd, uint32(c.ElementCount()), 1, uint32(indexBase+offset), int32(vertexBase), 0)
			}
			offset += c.ElementCount()
		}
		_, vs := list.VertexBuffer()
		_, is := list.IndexBuffer()
		vertexBase += vs / vertexSize
		indexBase += is / indexSize
	}
	return nil
}

func indexType() vk.IndexType {
	if imgui.IndexBufferLayout() == 4 {
		return vk.IndexTypeUint32
	}
	return vk.IndexTypeUint16
}

// framebufferScale is pixels per window coordinate, 1 when the window has
// no area.
func framebufferScale(display, framebuffer imgui.Vec2) imgui.Vec2 {
	if display.X <= 0 || display.Y <= 0 {
		return imgui.Vec2{X: 1, Y: 1}
	}
	return imgui.Vec2{X: framebuffer.X / display.X, Y: framebuffer.Y / display.Y}
}

// clipToScissor scales an imgui clip rectangle (x1, y1, x2, y2) into
// framebuffer pixels, clamps it and reports false when nothing is left.
func clipToScissor(clip imgui.Vec4, scale, framebuffer imgui.Vec2) (vk.Rect2D, bool) {
	x1 := max(clip.X*scale.X, 0)
	y1 := max(clip.Y*scale.Y, 0)
	x2 := min(clip.Z*scale.X, framebuffer.X)
	y2 := min(clip.W*scale.Y, framebuffer.Y)
	if x2 <= x1 || y2 <= y1 {
		return vk.Rect2D{}, false
	}
	return vk.Rect2D{
		Offset: vk.Offset2D{X: int32(x1), Y: int32(y1)},
		Extent: vk.Extent2D{Width: uint32(x2 - x1), Height: uint32(y2 - y1)},
	}, true
}

// bufferCapacity rounds a byte count up to a power of two so the frame
// buffers are not reallocated every time the overlay grows a little.
func bufferCapacity(n int) int {
	c := 4096
	for c < n {
		c *= 2
	}
	return c
}

// ensureBuffer returns buf when it holds at least size bytes, otherwise a
// new mapped host-visible buffer. The slot's previous frame has finished by
// the time it is reused, so the old buffer can go.
func (g *Gui) ensureBuffer(buf *vulkan.Buffer, size int, usage vk.BufferUsageFlagBits) (*vulkan.Buffer, error) {
	if buf != nil && int(buf.Size) >= size {
		return buf, nil
	}
	if buf != nil {
		buf.Destroy()
	}
	nb, err := vulkan.NewBuffer(g.device, vk.DeviceSize(bufferCapacity(size)), 1,
		vk.BufferUsageFlags(usage),
		vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit), 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate overlay geometry buffer")
	}
	if err := nb.Map(); err != nil {
		nb.Destroy()
		return nil, err
	}
	return nb, nil
}

// WantsMouse reports whether imgui is using the mouse this frame.
func (g *Gui) WantsMouse() bool { return g.io.WantCaptureMouse() }

// WantsKeyboard reports whether imgui is using the keyboard this frame.
func (g *Gui) WantsKeyboard() bool { return g.io.WantCaptureKeyboard() }

func (g *Gui) KeyChange(key glfw.Key, action glfw.Action) {
	switch action {
	case glfw.Press:
		g.io.KeyPress(int(key))
	case glfw.Release:
		g.io.KeyRelease(int(key))
	}
	g.io.KeyCtrl(int(glfw.KeyLeftControl), int(glfw.KeyRightControl))
	g.io.KeyShift(int(glfw.KeyLeftShift), int(glfw.KeyRightShift))
	g.io.KeyAlt(int(glfw.KeyLeftAlt), int(glfw.KeyRightAlt))
	g.io.KeySuper(int(glfw.KeyLeftSuper), int(glfw.KeyRightSuper))
}

func (g *Gui) MouseButtonChange(button glfw.MouseButton, action glfw.Action) {
	for i, b := range mouseButtons {
		if b == button && action == glfw.Press {
			g.mouseJustPressed[i] = true
		}
	}
}

func (g *Gui) MouseScrollChange(x, y float64) {
	g.io.AddMouseWheelDelta(float32(x), float32(y))
}

func (g *Gui) CharChange(char rune) {
	g.io.AddInputCharacters(string(char))
}

var mouseButtons = [3]glfw.MouseButton{glfw.MouseButton1, glfw.MouseButton2, glfw.MouseButton3}

func (g *Gui) setKeyMapping() {
	keys := map[int]glfw.Key{
		imgui.KeyTab:        glfw.KeyTab,
		imgui.KeyLeftArrow:  glfw.KeyLeft,
		imgui.KeyRightArrow: glfw.KeyRight,
		imgui.KeyUpArrow:    glfw.KeyUp,
		imgui.KeyDownArrow:  glfw.KeyDown,
		imgui.KeyPageUp:     glfw.KeyPageUp,
		imgui.KeyPageDown:   glfw.KeyPageDown,
		imgui.KeyHome:       glfw.KeyHome,
		imgui.KeyEnd:        glfw.KeyEnd,
		imgui.KeyInsert:     glfw.KeyInsert,
		imgui.KeyDelete:     glfw.KeyDelete,
		imgui.KeyBackspace:  glfw.KeyBackspace,
		imgui.KeySpace:      glfw.KeySpace,
		imgui.KeyEnter:      glfw.KeyEnter,
		imgui.KeyEscape:     glfw.KeyEscape,
		imgui.KeyA:          glfw.KeyA,
		imgui.KeyC:          glfw.KeyC,
		imgui.KeyV:          glfw.KeyV,
		imgui.KeyX:          glfw.KeyX,
		imgui.KeyY:          glfw.KeyY,
		imgui.KeyZ:          glfw.KeyZ,
	}
	for imguiKey, key := range keys {
		g.io.KeyMap(imguiKey, int(key))
	}
}

func (g *Gui) Destroy() {
	for i := range g.frames {
		if g.frames[i].vertices != nil {
			g.frames[i].vertices.Destroy()
		}
		if g.frames[i].indices != nil {
			g.frames[i].indices.Destroy()
		}
		g.frames[i] = frameBuffers{}
	}
	if g.pipeline != nil {
		g.pipeline.Destroy()
	}
	if g.layout != vk.PipelineLayout(vk.NullHandle) {
		vulkan.DestroyPipelineLayout(g.device, g.layout)
	}
	if g.font != nil {
		g.font.Destroy(g.device)
	}
	if g.setLayout != nil {
		g.setLayout.Destroy()
	}
	if g.pool != nil {
		g.pool.Destroy()
	}
	if g.context != nil {
		g.context.Destroy()
		g.context = nil
	}
}
