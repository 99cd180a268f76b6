package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
)

type Image struct {
	Handle    vk.Image
	Memory    vk.DeviceMemory
	View      vk.ImageView
	Width     uint32
	Height    uint32
	Format    vk.Format
	MipLevels uint32
}

var depthFormatCandidates = []vk.Format{
	vk.FormatD32Sfloat,
	vk.FormatD32SfloatS8Uint,
	vk.FormatD24UnormS8Uint,
}

func CreateImage(device *Device, width, height uint32, format vk.Format, tiling vk.ImageTiling, usage vk.ImageUsageFlags, properties vk.MemoryPropertyFlags) (*Image, error) {
	handle, memory, err := device.CreateImageWithInfo(&vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Extent: vk.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        tiling,
		InitialLayout: vk.ImageLayoutUndefined,
		Usage:         usage,
		Samples:       vk.SampleCount1Bit,
		SharingMode:   vk.SharingModeExclusive,
	}, properties)
	if err != nil {
		return nil, err
	}
	return &Image{
		Handle:    handle,
		Memory:    memory,
		Width:     width,
		Height:    height,
		Format:    format,
		MipLevels: 1,
	}, nil
}

func CreateImageView(device *Device, image vk.Image, format vk.Format, aspect vk.ImageAspectFlags) (vk.ImageView, error) {
	var view vk.ImageView
	ret := vk.CreateImageView(device.Device, &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: aspect,
			LevelCount: 1,
			LayerCount: 1,
		},
	}, nil, &view)
	if err := check(ret, "failed to create image view"); err != nil {
		return vk.ImageView(vk.NullHandle), err
	}
	return view, nil
}

func (img *Image) CreateView(device *Device, aspect vk.ImageAspectFlags) error {
	view, err := CreateImageView(device, img.Handle, img.Format, aspect)
	if err != nil {
		return err
	}
	img.View = view
	return nil
}

func (img *Image) Destroy(device *Device) {
	if img.View != vk.ImageView(vk.NullHandle) {
		vk.DestroyImageView(device.Device, img.View, nil)
		img.View = vk.ImageView(vk.NullHandle)
	}
	if img.Handle != vk.Image(vk.NullHandle) {
		vk.DestroyImage(device.Device, img.Handle, nil)
		img.Handle = vk.Image(vk.NullHandle)
	}
	if img.Memory != vk.NullDeviceMemory {
		vk.FreeMemory(device.Device, img.Memory, nil)
		img.Memory = vk.NullDeviceMemory
	}
}

func FindDepthFormat(device *Device) (vk.Format, error) {
	format, err := device.FindSupportedFormat(depthFormatCandidates, vk.ImageTilingOptimal,
		vk.FormatFeatureFlags(vk.FormatFeatureDepthStencilAttachmentBit))
	return format, errors.Wrap(err, "failed to find depth format")
}

func hasStencilComponent(format vk.Format) bool {
	return format == vk.FormatD32SfloatS8Uint || format == vk.FormatD24UnormS8Uint
}

func depthAspect(format vk.Format) vk.ImageAspectFlags {
	aspect := vk.ImageAspectFlags(vk.ImageAspectDepthBit)
	if hasStencilComponent(format) {
		aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
	}
	return aspect
}

func CreateDepthBuffer(device *Device, width, height uint32, format vk.Format) (*Image, error) {
	image, err := CreateImage(device, width, height, format,
		vk.ImageTilingOptimal,
		vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit),
		vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create depth image")
	}
	if err := image.CreateView(device, depthAspect(format)); err != nil {
		image.Destroy(device)
		return nil, err
	}
	return image, nil
}
