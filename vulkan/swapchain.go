package vulkan

import (
	"log/slog"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type SwapChainConfig struct {
	Width  uint32
	Height uint32
	VSync  bool
}

// SwapChain owns the presentable images together with everything sized
// after them: depth buffers, the render pass, framebuffers, and the
// frame-in-flight synchronization.
type SwapChain struct {
	Handle       vk.Swapchain
	ImageFormat  vk.Format
	DepthFormat  vk.Format
	PresentMode  vk.PresentMode
	Extent       vk.Extent2D
	Images       []vk.Image
	ImageViews   []vk.ImageView
	DepthImages  []*Image
	Framebuffers []vk.Framebuffer
	RenderPass   vk.RenderPass

	device         *Device
	sync           *FrameSync
	imagesInFlight []vk.Fence
	log            *slog.Logger
}

// NewSwapChain creates a swapchain for the device surface. When previous is
// non-nil its handle is passed as the old swapchain and previous is
// destroyed once the replacement exists.
func NewSwapChain(device *Device, config SwapChainConfig, previous *SwapChain, log *slog.Logger) (*SwapChain, error) {
	sc := &SwapChain{device: device, log: log}
	if err := sc.createSwapChain(config, previous); err != nil {
		return nil, err
	}
	if previous != nil {
		previous.Destroy()
	}
	if err := sc.createImageViews(); err != nil {
		sc.Destroy()
		return nil, err
	}
	if err := sc.createRenderPass(); err != nil {
		sc.Destroy()
		return nil, err
	}
	if err := sc.createDepthResources(); err != nil {
		sc.Destroy()
		return nil, err
	}
	if err := sc.createFramebuffers(); err != nil {
		sc.Destroy()
		return nil, err
	}
	sync, err := NewFrameSync(device, MaxFramesInFlight)
	if err != nil {
		sc.Destroy()
		return nil, err
	}
	sc.sync = sync
	sc.imagesInFlight = make([]vk.Fence, len(sc.Images))
	for i := range sc.imagesInFlight {
		sc.imagesInFlight[i] = vk.NullFence
	}

	log.Info("swapchain created",
		"width", sc.Extent.Width, "height", sc.Extent.Height,
		"images", len(sc.Images), "present_mode", sc.PresentMode)
	return sc, nil
}

func (sc *SwapChain) createSwapChain(config SwapChainConfig, previous *SwapChain) error {
	support := sc.device.SwapChainSupport()
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return errors.New("vulkan: swapchain does not have available formats or present modes")
	}

	surfaceFormat := chooseSurfaceFormat(support.Formats)
	presentMode := choosePresentMode(support.PresentModes, config.VSync)
	extent := chooseExtent(support.Capabilities, vk.Extent2D{Width: config.Width, Height: config.Height})
	imageCount := chooseImageCount(support.Capabilities)

	oldSwapchain := vk.NullSwapchain
	if previous != nil {
		oldSwapchain = previous.Handle
	}

	info := vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          sc.device.Surface,
		MinImageCount:    imageCount,
		ImageFormat:      surfaceFormat.Format,
		ImageColorSpace:  surfaceFormat.ColorSpace,
		ImageExtent:      extent,
		ImageArrayLayers: 1,
		ImageUsage:       vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		PreTransform:     support.Capabilities.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		PresentMode:      presentMode,
		Clipped:          vk.True,
		OldSwapchain:     oldSwapchain,
	}

	families := sc.device.Families
	if families.GraphicsFamily != families.PresentFamily {
		indices := []uint32{families.GraphicsFamily, families.PresentFamily}
		info.ImageSharingMode = vk.SharingModeConcurrent
		info.QueueFamilyIndexCount = uint32(len(indices))
		info.PQueueFamilyIndices = indices
	} else {
		info.ImageSharingMode = vk.SharingModeExclusive
	}

	var handle vk.Swapchain
	if err := check(vk.CreateSwapchain(sc.device.Device, &info, nil, &handle), "failed to create swapchain"); err != nil {
		return err
	}
	sc.Handle = handle
	sc.ImageFormat = surfaceFormat.Format
	sc.PresentMode = presentMode
	sc.Extent = extent

	var count uint32
	vk.GetSwapchainImages(sc.device.Device, sc.Handle, &count, nil)
	sc.Images = make([]vk.Image, count)
	vk.GetSwapchainImages(sc.device.Device, sc.Handle, &count, sc.Images)
	return nil
}

func (sc *SwapChain) createImageViews() error {
	sc.ImageViews = make([]vk.ImageView, 0, len(sc.Images))
	for _, image := range sc.Images {
		view, err := CreateImageView(sc.device, image, sc.ImageFormat, vk.ImageAspectFlags(vk.ImageAspectColorBit))
		if err != nil {
			return err
		}
		sc.ImageViews = append(sc.ImageViews, view)
	}
	return nil
}

func (sc *SwapChain) createRenderPass() error {
	depthFormat, err := FindDepthFormat(sc.device)
	if err != nil {
		return err
	}
	sc.DepthFormat = depthFormat

	attachments := []vk.AttachmentDescription{
		{
			Format:         sc.ImageFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutPresentSrc,
		},
		{
			Format:         sc.DepthFormat,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         vk.AttachmentLoadOpClear,
			StoreOp:        vk.AttachmentStoreOpDontCare,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutUndefined,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		},
	}
	depthRef := vk.AttachmentReference{
		Attachment: 1,
		Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: 1,
		PColorAttachments: []vk.AttachmentReference{{
			Attachment: 0,
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		}},
		PDepthStencilAttachment: &depthRef,
	}
	stages := vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit | vk.PipelineStageEarlyFragmentTestsBit)
	dependency := vk.SubpassDependency{
		SrcSubpass:    vk.SubpassExternal,
		DstSubpass:    0,
		SrcStageMask:  stages,
		DstStageMask:  stages,
		DstAccessMask: vk.AccessFlags(vk.AccessColorAttachmentWriteBit | vk.AccessDepthStencilAttachmentWriteBit),
	}

	var renderPass vk.RenderPass
	ret := vk.CreateRenderPass(sc.device.Device, &vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
		DependencyCount: 1,
		PDependencies:   []vk.SubpassDependency{dependency},
	}, nil, &renderPass)
	if err := check(ret, "failed to create render pass"); err != nil {
		return err
	}
	sc.RenderPass = renderPass
	return nil
}

func (sc *SwapChain) createDepthResources() error {
	sc.DepthImages = make([]*Image, 0, len(sc.Images))
	for range sc.Images {
		depth, err := CreateDepthBuffer(sc.device, sc.Extent.Width, sc.Extent.Height, sc.DepthFormat)
		if err != nil {
			return err
		}
		sc.DepthImages = append(sc.DepthImages, depth)
	}
	return nil
}

func (sc *SwapChain) createFramebuffers() error {
	sc.Framebuffers = make([]vk.Framebuffer, 0, len(sc.ImageViews))
	for i, view := range sc.ImageViews {
		attachments := []vk.ImageView{view, sc.DepthImages[i].View}
		var fb vk.Framebuffer
		ret := vk.CreateFramebuffer(sc.device.Device, &vk.FramebufferCreateInfo{
			SType:           vk.StructureTypeFramebufferCreateInfo,
			RenderPass:      sc.RenderPass,
			AttachmentCount: uint32(len(attachments)),
			PAttachments:    attachments,
			Width:           sc.Extent.Width,
			Height:          sc.Extent.Height,
			Layers:          1,
		}, nil, &fb)
		if err := check(ret, "failed to create framebuffer"); err != nil {
			return err
		}
		sc.Framebuffers = append(sc.Framebuffers, fb)
	}
	return nil
}

// AcquireNextImage waits until frame's slot is free on the GPU and acquires
// the next presentable image, signalling the frame's image-available
// semaphore. It returns ErrSwapChainOutOfDate when the surface changed.
func (sc *SwapChain) AcquireNextImage(frame int) (uint32, error) {
	if err := WaitFence(sc.device, sc.sync.InFlight[frame]); err != nil {
		return 0, err
	}
	var index uint32
	ret := vk.AcquireNextImage(sc.device.Device, sc.Handle, vk.MaxUint64,
		sc.sync.ImageAvailable[frame], vk.NullFence, &index)
	return index, acquireResult(ret)
}

// SubmitCommandBuffers submits cmd for imageIndex in frame's slot and
// presents the image. ErrSwapChainOutOfDate means the image was submitted
// but the swapchain must be recreated before the next frame.
func (sc *SwapChain) SubmitCommandBuffers(cmd vk.CommandBuffer, imageIndex uint32, frame int) error {
	if sc.imagesInFlight[imageIndex] != vk.NullFence {
		if err := WaitFence(sc.device, sc.imagesInFlight[imageIndex]); err != nil {
			return err
		}
	}
	fence := sc.sync.InFlight[frame]
	sc.imagesInFlight[imageIndex] = fence

	if err := ResetFence(sc.device, fence); err != nil {
		return err
	}
	if err := SubmitQueue(sc.device.GraphicsQueue, cmd, sc.sync.ImageAvailable[frame], sc.sync.RenderFinished[frame], fence); err != nil {
		return err
	}
	return PresentQueue(sc.device.PresentQueue, sc.Handle, imageIndex, sc.sync.RenderFinished[frame])
}

// CompareSwapFormats reports whether other renders into the same image and
// depth formats, in which case pipelines built against sc stay valid.
func (sc *SwapChain) CompareSwapFormats(other *SwapChain) bool {
	return sc.ImageFormat == other.ImageFormat && sc.DepthFormat == other.DepthFormat
}

func (sc *SwapChain) ImageCount() int {
	return len(sc.Images)
}

func (sc *SwapChain) Framebuffer(i uint32) vk.Framebuffer {
	return sc.Framebuffers[i]
}

func (sc *SwapChain) ExtentAspectRatio() float32 {
	if sc.Extent.Height == 0 {
		return 1
	}
	return float32(sc.Extent.Width) / float32(sc.Extent.Height)
}

func (sc *SwapChain) Destroy() {
	dev := sc.device.Device
	for _, fb := range sc.Framebuffers {
		vk.DestroyFramebuffer(dev, fb, nil)
	}
	sc.Framebuffers = nil
	for _, depth := range sc.DepthImages {
		depth.Destroy(sc.device)
	}
	sc.DepthImages = nil
	if sc.RenderPass != vk.NullRenderPass {
		vk.DestroyRenderPass(dev, sc.RenderPass, nil)
		sc.RenderPass = vk.NullRenderPass
	}
	for _, view := range sc.ImageViews {
		vk.DestroyImageView(dev, view, nil)
	}
	sc.ImageViews = nil
	if sc.Handle != vk.NullSwapchain {
		vk.DestroySwapchain(dev, sc.Handle, nil)
		sc.Handle = vk.NullSwapchain
	}
	if sc.sync != nil {
		sc.sync.Destroy(sc.device)
		sc.sync = nil
	}
}

func chooseSurfaceFormat(formats []vk.SurfaceFormat) vk.SurfaceFormat {
	for _, f := range formats {
		if f.Format == vk.FormatB8g8r8a8Srgb && f.ColorSpace == vk.ColorSpaceSrgbNonlinear {
			return f
		}
	}
	return formats[0]
}

func choosePresentMode(modes []vk.PresentMode, vsync bool) vk.PresentMode {
	if vsync {
		return vk.PresentModeFifo
	}
	for _, mode := range modes {
		if mode == vk.PresentModeMailbox {
			return mode
		}
	}
	return vk.PresentModeFifo
}

// chooseExtent uses the surface's current extent unless the platform leaves
// the choice to the application, signalled by a width of MaxUint32.
func chooseExtent(caps vk.SurfaceCapabilities, window vk.Extent2D) vk.Extent2D {
	if caps.CurrentExtent.Width != vk.MaxUint32 {
		return caps.CurrentExtent
	}
	return vk.Extent2D{
		Width:  clampUint32(window.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clampUint32(window.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

func chooseImageCount(caps vk.SurfaceCapabilities) uint32 {
	count := caps.MinImageCount + 1
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func clampUint32(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
