package vulkan

import (
	"log/slog"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

var deviceExtensions = []string{"VK_KHR_swapchain"}

type QueueFamilyIndices struct {
	GraphicsFamily uint32
	PresentFamily  uint32

	hasGraphics bool
	hasPresent  bool
}

func (q QueueFamilyIndices) IsComplete() bool {
	return q.hasGraphics && q.hasPresent
}

type SwapChainSupport struct {
	Capabilities vk.SurfaceCapabilities
	Formats      []vk.SurfaceFormat
	PresentModes []vk.PresentMode
}

// Device owns the physical/logical device pair, its queues, the command
// pool used for every command buffer, and the window surface.
type Device struct {
	Instance       *Instance
	Surface        vk.Surface
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	GraphicsQueue  vk.Queue
	PresentQueue   vk.Queue
	CommandPool    vk.CommandPool

	Families    QueueFamilyIndices
	Properties  vk.PhysicalDeviceProperties
	MemoryProps vk.PhysicalDeviceMemoryProperties

	log *slog.Logger
}

// NewDevice selects the first suitable physical device for surface and
// creates the logical device and command pool on it. The device takes
// ownership of surface.
func NewDevice(instance *Instance, surface vk.Surface, log *slog.Logger) (*Device, error) {
	d := &Device{
		Instance: instance,
		Surface:  surface,
		log:      log,
	}
	if err := d.pickPhysicalDevice(); err != nil {
		vk.DestroySurface(instance.Handle, surface, nil)
		return nil, err
	}
	if err := d.createLogicalDevice(); err != nil {
		vk.DestroySurface(instance.Handle, surface, nil)
		return nil, err
	}
	if err := d.createCommandPool(); err != nil {
		d.Destroy()
		return nil, err
	}
	log.Info("selected GPU", "name", d.GPUName(), "type", d.DeviceType())
	return d, nil
}

func (d *Device) pickPhysicalDevice() error {
	var count uint32
	if err := check(vk.EnumeratePhysicalDevices(d.Instance.Handle, &count, nil), "failed to enumerate GPUs"); err != nil {
		return err
	}
	if count == 0 {
		return errors.Wrap(ErrNoSuitableDevice, "no GPUs with Vulkan support")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check(vk.EnumeratePhysicalDevices(d.Instance.Handle, &count, devices), "failed to enumerate GPUs"); err != nil {
		return err
	}

	for _, pd := range devices {
		if d.isDeviceSuitable(pd) {
			d.PhysicalDevice = pd
			break
		}
	}
	if d.PhysicalDevice == nil {
		return ErrNoSuitableDevice
	}

	vk.GetPhysicalDeviceProperties(d.PhysicalDevice, &d.Properties)
	d.Properties.Deref()
	d.Properties.Limits.Deref()
	vk.GetPhysicalDeviceMemoryProperties(d.PhysicalDevice, &d.MemoryProps)
	d.MemoryProps.Deref()
	d.Families = d.findQueueFamilies(d.PhysicalDevice)
	return nil
}

func (d *Device) isDeviceSuitable(pd vk.PhysicalDevice) bool {
	if !d.findQueueFamilies(pd).IsComplete() {
		return false
	}
	if !checkDeviceExtensionSupport(pd) {
		return false
	}
	support := d.querySwapChainSupport(pd)
	if len(support.Formats) == 0 || len(support.PresentModes) == 0 {
		return false
	}
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(pd, &features)
	features.Deref()
	return features.SamplerAnisotropy == vk.True && features.FillModeNonSolid == vk.True
}

func (d *Device) findQueueFamilies(pd vk.PhysicalDevice) QueueFamilyIndices {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)
	for i := range props {
		props[i].Deref()
	}
	return pickQueueFamilies(props, func(i uint32) bool {
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(pd, i, d.Surface, &supported)
		return supported == vk.True
	})
}

// pickQueueFamilies returns the first graphics-capable family and the first
// family that can present, stopping as soon as both are known.
func pickQueueFamilies(props []vk.QueueFamilyProperties, canPresent func(i uint32) bool) QueueFamilyIndices {
	var q QueueFamilyIndices
	for i, p := range props {
		idx := uint32(i)
		if p.QueueCount > 0 && p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 && !q.hasGraphics {
			q.GraphicsFamily = idx
			q.hasGraphics = true
		}
		if p.QueueCount > 0 && !q.hasPresent && canPresent(idx) {
			q.PresentFamily = idx
			q.hasPresent = true
		}
		if q.IsComplete() {
			break
		}
	}
	return q
}

func checkDeviceExtensionSupport(pd vk.PhysicalDevice) bool {
	var count uint32
	vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil)
	available := make([]vk.ExtensionProperties, count)
	vk.EnumerateDeviceExtensionProperties(pd, "", &count, available)
	names := make([]string, len(available))
	for i := range available {
		available[i].Deref()
		names[i] = vk.ToString(available[i].ExtensionName[:])
	}
	return missingExtensions(deviceExtensions, names) == nil
}

func missingExtensions(required, available []string) []string {
	have := make(map[string]bool, len(available))
	for _, name := range available {
		have[name] = true
	}
	var missing []string
	for _, name := range required {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

func (d *Device) querySwapChainSupport(pd vk.PhysicalDevice) SwapChainSupport {
	var s SwapChainSupport
	vk.GetPhysicalDeviceSurfaceCapabilities(pd, d.Surface, &s.Capabilities)
	s.Capabilities.Deref()
	s.Capabilities.CurrentExtent.Deref()
	s.Capabilities.MinImageExtent.Deref()
	s.Capabilities.MaxImageExtent.Deref()

	var formatCount uint32
	vk.GetPhysicalDeviceSurfaceFormats(pd, d.Surface, &formatCount, nil)
	if formatCount > 0 {
		s.Formats = make([]vk.SurfaceFormat, formatCount)
		vk.GetPhysicalDeviceSurfaceFormats(pd, d.Surface, &formatCount, s.Formats)
		for i := range s.Formats {
			s.Formats[i].Deref()
		}
	}

	var modeCount uint32
	vk.GetPhysicalDeviceSurfacePresentModes(pd, d.Surface, &modeCount, nil)
	if modeCount > 0 {
		s.PresentModes = make([]vk.PresentMode, modeCount)
		vk.GetPhysicalDeviceSurfacePresentModes(pd, d.Surface, &modeCount, s.PresentModes)
	}
	return s
}

// SwapChainSupport queries the surface against the selected GPU.
func (d *Device) SwapChainSupport() SwapChainSupport {
	return d.querySwapChainSupport(d.PhysicalDevice)
}

func (d *Device) createLogicalDevice() error {
	families := []uint32{d.Families.GraphicsFamily}
	if d.Families.PresentFamily != d.Families.GraphicsFamily {
		families = append(families, d.Families.PresentFamily)
	}
	queueInfos := make([]vk.DeviceQueueCreateInfo, len(families))
	for i, family := range families {
		queueInfos[i] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	var layers []string
	if d.Instance.EnableValidation {
		layers = []string{validationLayer}
	}

	var device vk.Device
	ret := vk.CreateDevice(d.PhysicalDevice, &vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: safeStrings(deviceExtensions),
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     safeStrings(layers),
		PEnabledFeatures: []vk.PhysicalDeviceFeatures{{
			SamplerAnisotropy: vk.True,
			FillModeNonSolid:  vk.True,
		}},
	}, nil, &device)
	if err := check(ret, "failed to create logical device"); err != nil {
		return err
	}
	d.Device = device

	vk.GetDeviceQueue(d.Device, d.Families.GraphicsFamily, 0, &d.GraphicsQueue)
	vk.GetDeviceQueue(d.Device, d.Families.PresentFamily, 0, &d.PresentQueue)
	return nil
}

func (d *Device) createCommandPool() error {
	ret := vk.CreateCommandPool(d.Device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.Families.GraphicsFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit | vk.CommandPoolCreateResetCommandBufferBit),
	}, nil, &d.CommandPool)
	return check(ret, "failed to create command pool")
}

func (d *Device) Destroy() {
	if d.CommandPool != vk.CommandPool(vk.NullHandle) {
		vk.DestroyCommandPool(d.Device, d.CommandPool, nil)
		d.CommandPool = vk.CommandPool(vk.NullHandle)
	}
	if d.Device != nil {
		vk.DestroyDevice(d.Device, nil)
		d.Device = nil
	}
	if d.Surface != vk.NullSurface {
		vk.DestroySurface(d.Instance.Handle, d.Surface, nil)
		d.Surface = vk.NullSurface
	}
}

func (d *Device) WaitIdle() {
	vk.DeviceWaitIdle(d.Device)
}

func (d *Device) GPUName() string {
	return vk.ToString(d.Properties.DeviceName[:])
}

func (d *Device) DeviceType() string {
	switch d.Properties.DeviceType {
	case vk.PhysicalDeviceTypeIntegratedGpu:
		return "Integrated GPU"
	case vk.PhysicalDeviceTypeDiscreteGpu:
		return "Discrete GPU"
	case vk.PhysicalDeviceTypeVirtualGpu:
		return "Virtual GPU"
	case vk.PhysicalDeviceTypeCpu:
		return "CPU"
	default:
		return "Unknown"
	}
}

// MinUniformBufferOffsetAlignment is the alignment required between
// uniform buffer instances sharing one allocation.
func (d *Device) MinUniformBufferOffsetAlignment() vk.DeviceSize {
	return d.Properties.Limits.MinUniformBufferOffsetAlignment
}

func (d *Device) FindMemoryType(typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, error) {
	if idx, ok := findMemoryTypeIndex(d.MemoryProps, typeFilter, properties); ok {
		return idx, nil
	}
	return 0, errors.Wrapf(ErrNoMemoryType, "filter %#x, properties %#x", typeFilter, properties)
}

func findMemoryTypeIndex(props vk.PhysicalDeviceMemoryProperties, typeFilter uint32, properties vk.MemoryPropertyFlags) (uint32, bool) {
	for i := uint32(0); i < props.MemoryTypeCount; i++ {
		mt := props.MemoryTypes[i]
		mt.Deref()
		if typeFilter&(1<<i) != 0 && mt.PropertyFlags&properties == properties {
			return i, true
		}
	}
	return 0, false
}

func (d *Device) FindSupportedFormat(candidates []vk.Format, tiling vk.ImageTiling, features vk.FormatFeatureFlags) (vk.Format, error) {
	for _, format := range candidates {
		var props vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(d.PhysicalDevice, format, &props)
		props.Deref()
		switch {
		case tiling == vk.ImageTilingLinear && props.LinearTilingFeatures&features == features:
			return format, nil
		case tiling == vk.ImageTilingOptimal && props.OptimalTilingFeatures&features == features:
			return format, nil
		}
	}
	return vk.FormatUndefined, errors.New("vulkan: failed to find supported format")
}

// CreateBuffer allocates a buffer and binds freshly allocated memory to it.
func (d *Device) CreateBuffer(size vk.DeviceSize, usage vk.BufferUsageFlags, properties vk.MemoryPropertyFlags) (vk.Buffer, vk.DeviceMemory, error) {
	var buffer vk.Buffer
	ret := vk.CreateBuffer(d.Device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        size,
		Usage:       usage,
		SharingMode: vk.SharingModeExclusive,
	}, nil, &buffer)
	if err := check(ret, "failed to create buffer"); err != nil {
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.Device, buffer, &req)
	req.Deref()

	memType, err := d.FindMemoryType(req.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyBuffer(d.Device, buffer, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}

	var memory vk.DeviceMemory
	ret = vk.AllocateMemory(d.Device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := check(ret, "failed to allocate buffer memory"); err != nil {
		vk.DestroyBuffer(d.Device, buffer, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}

	if err := check(vk.BindBufferMemory(d.Device, buffer, memory, 0), "failed to bind buffer memory"); err != nil {
		vk.FreeMemory(d.Device, memory, nil)
		vk.DestroyBuffer(d.Device, buffer, nil)
		return vk.NullBuffer, vk.NullDeviceMemory, err
	}
	return buffer, memory, nil
}

func (d *Device) CreateImageWithInfo(info *vk.ImageCreateInfo, properties vk.MemoryPropertyFlags) (vk.Image, vk.DeviceMemory, error) {
	var image vk.Image
	if err := check(vk.CreateImage(d.Device, info, nil, &image), "failed to create image"); err != nil {
		return vk.Image(vk.NullHandle), vk.NullDeviceMemory, err
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.Device, image, &req)
	req.Deref()

	memType, err := d.FindMemoryType(req.MemoryTypeBits, properties)
	if err != nil {
		vk.DestroyImage(d.Device, image, nil)
		return vk.Image(vk.NullHandle), vk.NullDeviceMemory, err
	}

	var memory vk.DeviceMemory
	ret := vk.AllocateMemory(d.Device, &vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  req.Size,
		MemoryTypeIndex: memType,
	}, nil, &memory)
	if err := check(ret, "failed to allocate image memory"); err != nil {
		vk.DestroyImage(d.Device, image, nil)
		return vk.Image(vk.NullHandle), vk.NullDeviceMemory, err
	}
	if err := check(vk.BindImageMemory(d.Device, image, memory, 0), "failed to bind image memory"); err != nil {
		vk.FreeMemory(d.Device, memory, nil)
		vk.DestroyImage(d.Device, image, nil)
		return vk.Image(vk.NullHandle), vk.NullDeviceMemory, err
	}
	return image, memory, nil
}

// BeginSingleTimeCommands allocates a primary command buffer from the pool
// and starts recording it for one submission.
func (d *Device) BeginSingleTimeCommands() (vk.CommandBuffer, error) {
	cmds := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(d.Device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		Level:              vk.CommandBufferLevelPrimary,
		CommandPool:        d.CommandPool,
		CommandBufferCount: 1,
	}, cmds)
	if err := check(ret, "failed to allocate single time command buffer"); err != nil {
		return nil, err
	}
	ret = vk.BeginCommandBuffer(cmds[0], &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	})
	if err := check(ret, "failed to begin single time command buffer"); err != nil {
		vk.FreeCommandBuffers(d.Device, d.CommandPool, 1, cmds)
		return nil, err
	}
	return cmds[0], nil
}

// EndSingleTimeCommands stops recording cmd, submits it on the graphics
// queue and waits for it to finish. cmd is freed whether or not the
// submission succeeds; a failure leaves the device in an undefined state and
// should be treated as fatal.
func (d *Device) EndSingleTimeCommands(cmd vk.CommandBuffer) error {
	cmds := []vk.CommandBuffer{cmd}
	defer vk.FreeCommandBuffers(d.Device, d.CommandPool, 1, cmds)

	if err := check(vk.EndCommandBuffer(cmd), "failed to end single time command buffer"); err != nil {
		d.log.Error("single time commands", "err", err)
		return err
	}
	ret := vk.QueueSubmit(d.GraphicsQueue, 1, []vk.SubmitInfo{{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    cmds,
	}}, vk.NullFence)
	if err := check(ret, "failed to submit single time command buffer"); err != nil {
		d.log.Error("single time commands", "err", err)
		return err
	}
	if err := check(vk.QueueWaitIdle(d.GraphicsQueue), "failed to wait for graphics queue"); err != nil {
		d.log.Error("single time commands", "err", err)
		return err
	}
	return nil
}

// ExecuteSingleTimeCommands records fn into a one-off command buffer and
// runs it to completion.
func (d *Device) ExecuteSingleTimeCommands(fn func(cmd vk.CommandBuffer)) error {
	cmd, err := d.BeginSingleTimeCommands()
	if err != nil {
		return err
	}
	fn(cmd)
	return d.EndSingleTimeCommands(cmd)
}

func (d *Device) CopyBuffer(src, dst vk.Buffer, size vk.DeviceSize) error {
	return d.ExecuteSingleTimeCommands(func(cmd vk.CommandBuffer) {
		vk.CmdCopyBuffer(cmd, src, dst, 1, []vk.BufferCopy{{Size: size}})
	})
}

// CopyBufferToImage copies tightly packed pixels from buffer into an image
// already in TRANSFER_DST_OPTIMAL layout.
func (d *Device) CopyBufferToImage(buffer vk.Buffer, image vk.Image, width, height uint32) error {
	return d.ExecuteSingleTimeCommands(func(cmd vk.CommandBuffer) {
		CmdCopyBufferToImage(cmd, buffer, image, width, height)
	})
}
